// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

package engine

import (
	"fmt"
	"math"

	"github.com/tectonica-sim/tectonica/amplify"
	"github.com/tectonica-sim/tectonica/boundary"
	"github.com/tectonica-sim/tectonica/plate"
	"github.com/tectonica-sim/tectonica/sphere"
	"github.com/tectonica-sim/tectonica/stress"
	"github.com/tectonica-sim/tectonica/surface"
	"github.com/tectonica-sim/tectonica/topology"
)

// AdvanceSteps runs n fixed-duration (StepDurationMy) steps in sequence,
// pushing one history snapshot per step. It stops and returns an error on
// the first step that fails (a retessellation candidate failing
// validation), leaving the engine in the last successfully stepped state
// (spec §7: topology surgery rolls back rather than corrupting state).
func (e *Engine) AdvanceSteps(n int) error {
	for i := 0; i < n; i++ {
		if err := e.stepOnce(StepDurationMy); err != nil {
			return fmt.Errorf("engine: advance step %d/%d: %w", i+1, n, err)
		}
	}
	return nil
}

// stepOnce runs the fixed per-step data flow (spec §2): plate motion,
// terrane migration, boundary reclassification/stress/state, hotspot
// drift, stress-to-vertex interpolation, thermal field, erosion/sediment/
// dampening, Stage-B amplification, split/merge, re-tessellation, history
// snapshot, surface-version bump.
func (e *Engine) stepOnce(dtMy float64) error {
	for _, id := range e.sortedPlateIDs() {
		e.plates[id].Step(dtMy)
	}

	for _, t := range e.terranes {
		if t.State == topology.Transporting {
			t.Transport(e.plates[t.CarrierPlateID], dtMy)
		}
	}

	// Terrane collision detection and automatic reattachment are not
	// implemented: spec.md gives no concrete collision geometry, so
	// ExtractTerrane/ReattachTerrane remain a manual API surface a host
	// application drives explicitly rather than something stepOnce
	// infers on its own.

	// currentTimeMy advances here, ahead of the textual "advance time"
	// position in spec §2's stage list, because nothing between
	// "boundary reclassification" and "advance time" reads it — doing so
	// lets boundary.Update receive the correct elapsed time in the same
	// pass that reclassifies, without a second loop over the boundary
	// list.
	e.currentTimeMy += dtMy

	thresholds := newThresholds(e.params)
	for _, b := range e.boundaries.All() {
		boundary.Update(b, e.plates, e.currentTimeMy, dtMy, thresholds)
	}

	for _, h := range e.hotspots {
		h.Step(dtMy)
	}

	divergentDistance, nearestConvergent := e.recomputeBoundaryDerivedFields()

	crust := e.vertexCrustSlice()
	surfaceCfg := surface.Config{
		SeaLevel:                  e.params.SeaLevel,
		PlanetRadius:               e.params.PlanetRadius,
		ErosionConstant:            e.params.ErosionConstant,
		SedimentDiffusionRate:      e.params.SedimentDiffusionRate,
		OceanicDampeningConstant:   e.params.OceanicDampeningConstant,
		OceanicAgeSubsidenceCoeff:  e.params.OceanicAgeSubsidenceCoeff,
		MaxTemperature:             stress.DefaultThermalConfig().MaxTemperature,
		MaxStress:                  100,
	}
	if e.params.EnableContinentalErosion {
		surface.ApplyContinentalErosion(e.data, crust, e.mesh.Adjacency, e.stress, e.temperature, dtMy, surfaceCfg)
	}
	if e.params.EnableSedimentTransport {
		surface.ApplySedimentTransport(e.data, crust, e.mesh.Adjacency, dtMy, surfaceCfg)
	}
	if e.params.EnableOceanicDampening {
		surface.ApplyOceanicDampening(e.data, crust, e.mesh.Adjacency, divergentDistance, dtMy, surfaceCfg)
	}

	e.updateOrogenyAge(nearestConvergent, dtMy)
	e.applyAmplification(nearestConvergent)

	if e.params.EnablePlateTopologyChanges {
		if err := e.applySplitsAndMerges(thresholds); err != nil {
			return err
		}
	}

	if e.params.EnableDynamicRetessellation && e.retessellationDue() {
		if err := e.retessellate(e.params.RenderSubdivisionLevel); err != nil {
			return err
		}
	}

	e.pushHistory()
	e.SurfaceDataVersion++
	return nil
}

// updateOrogenyAge accumulates orogeny age for every vertex within
// convergentProximityRadius of a convergent boundary and leaves it
// unchanged otherwise: once accrued, a vertex's mountain age is never
// reset to zero as it drifts away from the boundary that built it, so it
// naturally classifies as OldMountains over time regardless of current
// proximity (spec §4.11 TerrainType decision tree resolves this silently;
// this is the chosen semantics).
func (e *Engine) updateOrogenyAge(nearestConvergent []nearestBoundary, dtMy float64) {
	for i, nc := range nearestConvergent {
		if nc.boundary != nil && nc.distance < convergentProximityRadius {
			e.orogenyAge[i] += dtMy
		}
	}
}

// applyAmplification runs Stage-B amplification over every vertex whose
// crust type has the corresponding pass enabled, gated on the render
// mesh's subdivision level meeting MinAmplificationLOD (spec §4.11).
func (e *Engine) applyAmplification(nearestConvergent []nearestBoundary) {
	lodOK := e.params.RenderSubdivisionLevel >= e.params.MinAmplificationLOD
	if !lodOK || e.noise == nil {
		copy(e.amplified, baselineElevations(e.data))
		return
	}

	oceanicCfg := amplify.OceanicConfig{
		FaultAmplitude: e.params.OceanicFaultAmplitude,
		FaultFrequency: e.params.OceanicFaultFrequency,
		AgeFalloff:     e.params.OceanicAgeFalloff,
	}
	continentalCfg := amplify.DefaultContinentalConfig(e.params.Seed)
	if e.params.DisableRandomUVOffset {
		continentalCfg.RandomOffsetMagnitude = 0
	}

	for i, v := range e.mesh.Vertices {
		base := e.data[i].Elevation
		if e.crustTypeOf(i) == plate.Oceanic {
			if !e.params.EnableOceanicAmplification {
				e.amplified[i] = base
				continue
			}
			e.amplified[i] = amplify.ComputeOceanicAmplification(e.noise, v, e.ridgeDir[i], e.data[i].CrustAge, base, oceanicCfg)
			continue
		}

		if !e.params.EnableContinentalAmplification || e.exemplars == nil {
			e.amplified[i] = base
			continue
		}
		nc := nearestConvergent[i]
		isNear := nc.boundary != nil && nc.distance < convergentProximityRadius
		differing := isNear && e.plates[nc.boundary.PlateA].Crust != e.plates[nc.boundary.PlateB].Crust
		terrain := amplify.ClassifyTerrainType(isNear, differing, e.orogenyAge[i], base)

		var foldAngle float64
		var hasFold bool
		if nc.boundary != nil {
			tangent := e.boundaryTangent(nc.boundary)
			foldAngle, hasFold = amplify.ComputeFoldAngle(v, tangent, nc.distance)
		}

		e.amplified[i] = e.continentalAmplificationAt(i, v, base, terrain, e.orogenyAge[i], continentalCfg, foldAngle, hasFold)
	}
}

// continentalAmplificationAt implements spec §4.11's continental pass for
// one vertex. It computes the blend and reference-exemplar mean afresh on
// every call and records that mean in e.blendCache under the current
// AmplificationDataSerial; the cached value is not read back here.
func (e *Engine) continentalAmplificationAt(i int, position sphere.Vec, baseElevationM float64, terrain amplify.TerrainType, orogenyAgeMy float64, cfg amplify.ContinentalConfig, foldAngle float64, hasFold bool) float64 {
	if e.params.ForcedExemplarID != "" {
		if elevation, ok := amplify.ComputeForcedExemplarAmplification(position, baseElevationM, e.exemplars, e.params.ForcedExemplarID); ok {
			return elevation
		}
	}

	matches := e.exemplars.ForTerrainType(terrain)
	u, v := amplify.ComputeUV(position, cfg.Seed, cfg, foldAngle, hasFold)

	blended, refMean, ok := amplify.BlendExemplars(e.exemplars, matches, u, v, cfg)
	if !ok {
		return baseElevationM
	}
	// Record the reference mean BlendExemplars just computed in the cache
	// (stored only; the lookup above does not consult it).
	e.blendCache.ReferenceMean(i, e.AmplificationDataSerial, func() (float64, bool) { return refMean, true })

	detailScale := 0.5
	if baseElevationM > 1000 && refMean != 0 {
		detailScale = baseElevationM / refMean
	}
	detailScale = sphere.Clamp(detailScale, 0.01, 100)

	detail := (blended - refMean) * detailScale
	if terrain == amplify.OldMountains || orogenyAgeMy > 100 {
		detail *= 0.5
	}
	return baseElevationM + detail
}

func baselineElevations(data []surface.VertexData) []float64 {
	out := make([]float64, len(data))
	for i, d := range data {
		out[i] = d.Elevation
	}
	return out
}

// applySplitsAndMerges walks the boundary graph in deterministic
// (PlateA, PlateB) order and applies every ready split (a Rifting
// boundary past its width threshold) and every ready merge (a convergent
// boundary past MergeStressThreshold), smaller plate consumed by larger
// (spec §4.10).
func (e *Engine) applySplitsAndMerges(thresholds boundary.Thresholds) error {
	for _, b := range sortedBoundaries(e.boundaries) {
		if _, ok := e.plates[b.PlateA]; !ok {
			continue // already consumed by an earlier merge this step
		}
		if _, ok := e.plates[b.PlateB]; !ok {
			continue
		}
		switch {
		case boundary.ReadyToSplit(b, thresholds):
			tangent := e.boundaryTangent(b)
			newID := e.nextPlateID
			if err := topology.Split(e.plates, e.vertexPlate, e.mesh.Vertices, b.PlateA, tangent, &e.nextPlateID); err != nil {
				e.recordEvent("split", b.PlateA, fmt.Sprintf("rift boundary (%d,%d)", b.PlateA, b.PlateB), err.Error())
				return fmt.Errorf("engine: split plate %d: %w", b.PlateA, err)
			}
			e.recordEvent("split", b.PlateA, fmt.Sprintf("minted plate %d", newID), "ok")
			e.TopologyVersion++

		case b.Classification == boundary.Convergent && b.Stress > e.params.MergeStressThreshold:
			survivor, consumed := b.PlateA, b.PlateB
			if e.plateVertexCount(consumed) > e.plateVertexCount(survivor) {
				survivor, consumed = consumed, survivor
			}
			if err := topology.Merge(e.plates, e.vertexPlate, survivor, consumed); err != nil {
				e.recordEvent("merge", consumed, fmt.Sprintf("into plate %d", survivor), err.Error())
				return fmt.Errorf("engine: merge plate %d into %d: %w", consumed, survivor, err)
			}
			e.recordEvent("merge", consumed, fmt.Sprintf("into plate %d", survivor), "ok")
			e.TopologyVersion++
		}
	}

	if e.TopologyVersion > 0 {
		e.boundaries = boundary.Build(e.mesh.Vertices, e.mesh.Adjacency, e.vertexPlate)
	}
	return nil
}

func (e *Engine) plateVertexCount(id int) int {
	n := 0
	for _, p := range e.vertexPlate {
		if p == id {
			n++
		}
	}
	return n
}

// retessellationDue reports whether any live plate's centroid has drifted
// past RetessellationThresholdDegrees since the last re-tessellation
// (spec §4.10).
func (e *Engine) retessellationDue() bool {
	thresholdRad := e.params.RetessellationThresholdDegrees * math.Pi / 180
	for id, p := range e.plates {
		last, ok := e.initialCentroid[id]
		if !ok {
			return true // a newly split/merged plate was never baselined
		}
		if sphere.Distance(p.Centroid, last) > thresholdRad {
			return true
		}
	}
	return false
}

// retessellate rebuilds the render mesh at newLevel, transferring every
// per-vertex scalar field through topology.Retessellate's k-nearest
// transfer, then rebuilds the boundary graph and blend cache and bumps
// the version counters (spec §4.10, §4.12).
func (e *Engine) retessellate(newLevel int) error {
	old := e.mesh.Vertices
	n := len(old)

	fields := [][]float64{
		elevationField(e.data, n),
		crustAgeField(e.data, n),
		append([]float64(nil), e.stress...),
		append([]float64(nil), e.temperature...),
		append([]float64(nil), e.amplified...),
		append([]float64(nil), e.orogenyAge...),
		vecComponent(e.ridgeDir, 0),
		vecComponent(e.ridgeDir, 1),
		vecComponent(e.ridgeDir, 2),
	}

	result, err := topology.Retessellate(old, e.vertexPlate, fields, newLevel)
	if err != nil {
		return fmt.Errorf("engine: retessellate: %w", err)
	}

	e.mesh = result.Mesh
	e.vertexPlate = result.VertexPlate
	newN := len(result.Mesh.Vertices)

	e.data = make([]surface.VertexData, newN)
	for i := 0; i < newN; i++ {
		e.data[i] = surface.VertexData{Elevation: result.ScalarFields[0][i], CrustAge: result.ScalarFields[1][i]}
	}
	e.stress = result.ScalarFields[2]
	e.temperature = result.ScalarFields[3]
	e.amplified = result.ScalarFields[4]
	e.orogenyAge = result.ScalarFields[5]
	e.ridgeDir = make([]sphere.Vec, newN)
	for i := 0; i < newN; i++ {
		e.ridgeDir[i] = sphere.Vec{X: result.ScalarFields[6][i], Y: result.ScalarFields[7][i], Z: result.ScalarFields[8][i]}
	}

	e.boundaries = boundary.Build(e.mesh.Vertices, e.mesh.Adjacency, e.vertexPlate)
	e.blendCache = amplify.NewBlendCache(newN)
	for id, p := range e.plates {
		e.initialCentroid[id] = p.Centroid
	}

	e.RetessellationCount++
	e.TopologyVersion++
	e.AmplificationDataSerial++
	return nil
}

func elevationField(data []surface.VertexData, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = data[i].Elevation
	}
	return out
}

func crustAgeField(data []surface.VertexData, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = data[i].CrustAge
	}
	return out
}

func vecComponent(vs []sphere.Vec, axis int) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		switch axis {
		case 0:
			out[i] = v.X
		case 1:
			out[i] = v.Y
		default:
			out[i] = v.Z
		}
	}
	return out
}
