// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

package engine

import (
	"math"
	"sort"

	"github.com/aquilax/go-perlin"

	"github.com/tectonica-sim/tectonica/amplify"
	"github.com/tectonica-sim/tectonica/boundary"
	"github.com/tectonica-sim/tectonica/hotspot"
	"github.com/tectonica-sim/tectonica/icosphere"
	"github.com/tectonica-sim/tectonica/mesh"
	"github.com/tectonica-sim/tectonica/plate"
	"github.com/tectonica-sim/tectonica/sphere"
	"github.com/tectonica-sim/tectonica/stress"
	"github.com/tectonica-sim/tectonica/surface"
	"github.com/tectonica-sim/tectonica/topology"
	"github.com/tectonica-sim/tectonica/voronoi"
)

// convergentProximityRadius is the arc distance within which a vertex is
// considered "near" a convergent boundary for orogeny accrual and terrain
// classification — the same cutoff amplify.FoldAlignmentMaxRadians uses
// for fold-angle alignment, so a vertex that qualifies for one qualifies
// for the other.
const convergentProximityRadius = amplify.FoldAlignmentMaxRadians

// faceCentroids returns one unit-vector centroid per triangle of m, the
// plate seed points a subdivision-L icosahedron yields 20·4^L of (spec §3:
// "subdivision 0 → 20 plates") — plates are seeded one per icosahedral
// face, not one per vertex.
func faceCentroids(m icosphere.Mesh) []sphere.Vec {
	out := make([]sphere.Vec, len(m.Triangles)/3)
	for t := range out {
		a := m.Vertices[m.Triangles[t*3]]
		b := m.Vertices[m.Triangles[t*3+1]]
		c := m.Vertices[m.Triangles[t*3+2]]
		out[t] = sphere.Unit(sphere.Vec{X: a.X + b.X + c.X, Y: a.Y + b.Y + c.Y, Z: a.Z + b.Z + c.Z})
	}
	return out
}

// Reset regenerates the entire simulation from params.Seed in this order:
// plate icosphere, plates and Euler poles, render mesh, Lloyd relaxation
// and Voronoi assignment, boundary graph, baseline elevations, hotspots,
// amplification setup, stress and thermal fields, and finally the first
// history snapshot.
func (e *Engine) Reset() {
	e.params.Clamp(func(field string, from, to float64) {
		e.logger.Warn().Str("field", field).Float64("from", from).Float64("to", to).Msg("parameter clamped")
	})

	plateIco := icosphere.Generate(e.params.SubdivisionLevel)
	plates := plate.Generate(faceCentroids(plateIco), e.params.Seed, plate.DefaultConfig())
	e.plates = make(map[int]*plate.Plate, len(plates))
	e.initialCentroid = make(map[int]sphere.Vec, len(plates))
	for _, p := range plates {
		e.plates[p.ID] = p
		e.initialCentroid[p.ID] = p.Centroid
	}
	e.nextPlateID = len(plates)

	renderIco := icosphere.Generate(e.params.RenderSubdivisionLevel)
	e.mesh = mesh.Build(renderIco.Vertices, renderIco.Triangles)

	warp := voronoi.Warp{
		Enabled:   e.params.EnableVoronoiWarping,
		Amplitude: e.params.VoronoiWarpingAmplitude,
		Frequency: e.params.VoronoiWarpingFrequency,
		Seed:      e.params.Seed,
	}
	relaxCfg := voronoi.DefaultRelaxConfig()
	relaxCfg.MaxIterations = e.params.LloydIterations
	centroids := make([]sphere.Vec, len(plates))
	for i, p := range plates {
		centroids[i] = p.Centroid
	}
	relaxed, assignment := voronoi.Relax(e.mesh.Vertices, centroids, warp, relaxCfg)
	for i, p := range plates {
		p.Centroid = relaxed[i]
		e.initialCentroid[p.ID] = relaxed[i]
	}
	e.vertexPlate = assignment

	e.boundaries = boundary.Build(e.mesh.Vertices, e.mesh.Adjacency, e.vertexPlate)

	n := len(e.mesh.Vertices)
	e.data = make([]surface.VertexData, n)
	for i := range e.data {
		p := e.plates[e.vertexPlate[i]]
		if p.Crust == plate.Continental {
			e.data[i] = surface.VertexData{Elevation: 0}
		} else {
			e.data[i] = surface.VertexData{Elevation: surface.OceanicRidgeDepth, CrustAge: 0}
		}
	}
	e.stress = make([]float64, n)
	e.temperature = make([]float64, n)
	e.amplified = make([]float64, n)
	e.ridgeDir = make([]sphere.Vec, n)
	e.orogenyAge = make([]float64, n)

	if e.params.EnableHotspots {
		e.hotspots = hotspot.Generate(e.params.Seed, hotspot.Config{
			MajorCount:         e.params.MajorHotspotCount,
			MinorCount:         e.params.MinorHotspotCount,
			MajorThermalOutput: e.params.MajorHotspotThermalOutput,
			MinorThermalOutput: e.params.MinorHotspotThermalOutput,
			DriftSpeed:         e.params.HotspotDriftSpeed,
		})
	} else {
		e.hotspots = nil
	}

	e.terranes = make(map[int]*topology.Terrane)
	e.nextTerraneID = 0
	e.events = nil

	e.exemplars = nil
	e.blendCache = amplify.NewBlendCache(n)
	e.noise = nil
	if e.params.EnableOceanicAmplification || e.params.EnableContinentalAmplification {
		e.noise = perlin.NewPerlin(2, 2, 3, e.params.Seed)
	}
	if e.params.EnableContinentalAmplification && e.params.ExemplarLibraryDir != "" {
		lib, err := amplify.LoadLibrary(e.params.ExemplarLibraryDir)
		if err != nil {
			e.logger.Warn().Err(err).Str("dir", e.params.ExemplarLibraryDir).Msg("continental amplification disabled: exemplar library failed to load")
		} else {
			e.exemplars = lib
		}
	}

	e.currentTimeMy = 0
	e.TopologyVersion = 0
	e.SurfaceDataVersion = 0
	e.AmplificationDataSerial = 0
	e.RetessellationCount = 0
	e.LastStepTimeMs = 0

	// Compute an initial stress/thermal field so a caller sampling
	// immediately after Reset (before any AdvanceSteps) sees a
	// consistent, non-zero baseline (spec §3 Lifecycle: "...→ stress →
	// hotspots → baseline elevations").
	e.recomputeBoundaryDerivedFields()

	e.history = e.history[:0]
	e.historyPos = 0
	e.pushHistory()
}

// SetRenderSubdivisionLevel changes the render mesh's subdivision level
// without otherwise touching simulation state, by running exactly the
// re-tessellation path a dynamic-retessellation trigger would (spec §3,
// "LOD change ... preserves simulation state and only rebuilds the render
// mesh + per-vertex arrays").
func (e *Engine) SetRenderSubdivisionLevel(level int) error {
	e.params.RenderSubdivisionLevel = level
	return e.retessellate(level)
}

// crustTypeOf returns vertex i's owning plate's crust type.
func (e *Engine) crustTypeOf(i int) plate.CrustType {
	return e.plates[e.vertexPlate[i]].Crust
}

func (e *Engine) vertexCrustSlice() []plate.CrustType {
	out := make([]plate.CrustType, len(e.mesh.Vertices))
	for i := range out {
		out[i] = e.crustTypeOf(i)
	}
	return out
}

// nearestBoundary tracks, per vertex, the nearest boundary of interest
// found so far during a single sweep over the boundary list.
type nearestBoundary struct {
	distance float64
	boundary *boundary.Boundary
}

// recomputeBoundaryDerivedFields refreshes e.stress, e.temperature, and
// e.ridgeDir from the boundary graph's current state, and returns each
// vertex's distance to the nearest divergent boundary (consumed by
// oceanic dampening's ridge-reset rule) and nearest convergent boundary
// (consumed by orogeny accrual and Stage-B fold alignment). It does not
// advance time or run the boundary state machine. Used by Reset (to seed
// a consistent initial field) and by stepOnce as part of the normal
// per-step flow.
func (e *Engine) recomputeBoundaryDerivedFields() (divergentDistance []float64, nearestConvergent []nearestBoundary) {
	boundaries := e.boundaries.All()
	positions, convergentSources := stress.BoundaryPositionsAndConvergent(boundaries)
	e.stress = stress.InterpolateStressToVertices(e.mesh.Vertices, positions)
	for i, v := range e.mesh.Vertices {
		for _, h := range e.hotspots {
			e.stress[i] = sphere.Clamp(e.stress[i]+h.StressContribution(v), 0, 100)
		}
	}
	e.temperature = stress.ComputeThermalField(e.mesh.Vertices, e.hotspots, convergentSources, stress.DefaultThermalConfig())

	divergentDistance = make([]float64, len(e.mesh.Vertices))
	for i := range divergentDistance {
		divergentDistance[i] = math.MaxFloat64
	}
	for _, b := range boundaries {
		if b.Classification != boundary.Divergent {
			continue
		}
		tangent := e.boundaryTangent(b)
		for i, v := range e.mesh.Vertices {
			d := sphere.Distance(v, b.Midpoint)
			if d < divergentDistance[i] {
				divergentDistance[i] = d
				e.ridgeDir[i] = tangent
			}
		}
	}
	return divergentDistance, e.convergentProximity(boundaries)
}

// convergentProximity returns each vertex's nearest convergent boundary
// and its distance, a pure read of boundaries that mutates no engine
// state — shared by recomputeBoundaryDerivedFields (during a step) and
// VertexOrogenyClasses (a read-only accessor) so the latter never has to
// recompute stress/temperature just to answer a proximity query.
func (e *Engine) convergentProximity(boundaries []*boundary.Boundary) []nearestBoundary {
	out := make([]nearestBoundary, len(e.mesh.Vertices))
	for i := range out {
		out[i] = nearestBoundary{distance: math.MaxFloat64}
	}
	for _, b := range boundaries {
		if b.Classification != boundary.Convergent {
			continue
		}
		for i, v := range e.mesh.Vertices {
			d := sphere.Distance(v, b.Midpoint)
			if d < out[i].distance {
				out[i] = nearestBoundary{distance: d, boundary: b}
			}
		}
	}
	return out
}

// boundaryTangent approximates a boundary's local tangent direction from
// the static mesh positions of its two defining vertices, rather than
// from boundary.Boundary's migrated (and unexported) reference positions:
// the boundary graph intentionally keeps refA/refB private (only Update
// needs them), so the engine derives a tangent a level removed, directly
// from the mesh it already owns.
func (e *Engine) boundaryTangent(b *boundary.Boundary) sphere.Vec {
	a := e.mesh.Vertices[b.VertexA]
	bb := e.mesh.Vertices[b.VertexB]
	diff := sphere.Vec{X: bb.X - a.X, Y: bb.Y - a.Y, Z: bb.Z - a.Z}
	n := diff.X*diff.X + diff.Y*diff.Y + diff.Z*diff.Z
	if n < 1e-18 {
		east, _ := sphere.LocalFrame(a)
		return east
	}
	return sphere.Unit(diff)
}

// sortedBoundaries returns every boundary in the graph in deterministic
// (PlateA, PlateB) order, independent of the graph's internal map
// iteration order (spec §5, deterministic-iteration-order requirement).
func sortedBoundaries(g *boundary.Graph) []*boundary.Boundary {
	all := g.All()
	sort.Slice(all, func(i, j int) bool {
		if all[i].PlateA != all[j].PlateA {
			return all[i].PlateA < all[j].PlateA
		}
		return all[i].PlateB < all[j].PlateB
	})
	return all
}

// sortedPlateIDs returns every live plate ID in ascending order.
func (e *Engine) sortedPlateIDs() []int {
	ids := make([]int, 0, len(e.plates))
	for id := range e.plates {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func newThresholds(p Parameters) boundary.Thresholds {
	t := boundary.Thresholds{
		SplitVelocityThreshold: p.SplitVelocityThreshold,
		SplitDurationThreshold: p.SplitDurationThreshold,
		RiftProgressionRate:    p.RiftProgressionRate,
		RiftSplitThresholdM:    p.RiftSplitThresholdMeters,
	}
	if !p.EnableRiftPropagation {
		t.SplitVelocityThreshold = math.Inf(1)
	}
	return t
}
