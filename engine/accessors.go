// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

package engine

import (
	"github.com/tectonica-sim/tectonica/boundary"
	"github.com/tectonica-sim/tectonica/hotspot"
	"github.com/tectonica-sim/tectonica/mesh"
	"github.com/tectonica-sim/tectonica/plate"
	"github.com/tectonica-sim/tectonica/sphere"
	"github.com/tectonica-sim/tectonica/topology"
)

// OrogenyClass classifies a vertex's current proximity-plus-history
// relationship to convergent-boundary mountain building (spec §3,
// VertexOrogenyClass).
type OrogenyClass int

const (
	OrogenyNone OrogenyClass = iota
	OrogenyNascent
	OrogenyActive
	OrogenyDormant
)

func (c OrogenyClass) String() string {
	switch c {
	case OrogenyNascent:
		return "nascent"
	case OrogenyActive:
		return "active"
	case OrogenyDormant:
		return "dormant"
	default:
		return "none"
	}
}

// Parameters returns a copy of the engine's current configuration.
func (e *Engine) Parameters() Parameters { return e.params }

// VertexCount returns the render mesh's current vertex count.
func (e *Engine) VertexCount() int { return len(e.mesh.Vertices) }

// Mesh returns the current render mesh. Callers must not mutate it.
func (e *Engine) Mesh() *mesh.RenderMesh { return e.mesh }

// CurrentTimeMy returns the total simulated elapsed time in My.
func (e *Engine) CurrentTimeMy() float64 { return e.currentTimeMy }

// Plates returns every live plate, sorted by ID. Callers must not mutate
// the returned plates.
func (e *Engine) Plates() []*plate.Plate {
	ids := e.sortedPlateIDs()
	out := make([]*plate.Plate, len(ids))
	for i, id := range ids {
		out[i] = e.plates[id]
	}
	return out
}

// Boundaries returns every boundary, sorted by (PlateA, PlateB) (spec §5
// deterministic-iteration-order requirement).
func (e *Engine) Boundaries() []*boundary.Boundary {
	return sortedBoundaries(e.boundaries)
}

// Hotspots returns every hotspot in generation order.
func (e *Engine) Hotspots() []*hotspot.Hotspot { return e.hotspots }

// Terranes returns every terrane, sorted by ID.
func (e *Engine) Terranes() []*topology.Terrane {
	ids := make([]int, 0, len(e.terranes))
	for id := range e.terranes {
		ids = append(ids, id)
	}
	sortInts(ids)
	out := make([]*topology.Terrane, len(ids))
	for i, id := range ids {
		out[i] = e.terranes[id]
	}
	return out
}

// Events returns the full topology-event log (every split, merge, terrane
// extraction, and terrane reattachment since the last Reset) in
// chronological order.
func (e *Engine) Events() []TopologyEvent { return e.events }

func sortInts(ids []int) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// VertexPlateAssignments returns the plate ID owning each render vertex.
func (e *Engine) VertexPlateAssignments() []int { return e.vertexPlate }

// VertexElevations returns the baseline (pre-amplification) elevation of
// each render vertex, in meters.
func (e *Engine) VertexElevations() []float64 {
	out := make([]float64, len(e.data))
	for i, d := range e.data {
		out[i] = d.Elevation
	}
	return out
}

// VertexAmplifiedElevations returns the Stage-B output elevation of each
// render vertex, in meters — equal to the baseline where amplification is
// disabled or not yet applicable at the current LOD.
func (e *Engine) VertexAmplifiedElevations() []float64 { return e.amplified }

// VertexCrustAges returns each render vertex's crust age in My. Only
// oceanic vertices are aged each step; a continental vertex keeps the age
// it already had, which is 0 after Reset but can be nonzero after a merge
// turns oceanic crust continental or a re-tessellation blends ages across
// a plate boundary.
func (e *Engine) VertexCrustAges() []float64 {
	out := make([]float64, len(e.data))
	for i, d := range e.data {
		out[i] = d.CrustAge
	}
	return out
}

// VertexStressValues returns each render vertex's interpolated stress, in
// MPa.
func (e *Engine) VertexStressValues() []float64 { return e.stress }

// VertexTemperatureValues returns each render vertex's analytic
// temperature, in K.
func (e *Engine) VertexTemperatureValues() []float64 { return e.temperature }

// VertexRidgeDirections returns each render vertex's nearest-divergent-
// boundary tangent direction, used by oceanic amplification.
func (e *Engine) VertexRidgeDirections() []sphere.Vec { return e.ridgeDir }

// VertexVelocities computes the instantaneous tangent velocity (m/My) of
// every render vertex from its owning plate's current Euler pole: v =
// (ω·axis) × r · PlanetRadius. This is derived on demand rather than
// stored, since it is a pure function of already-snapshotted plate and
// assignment state (spec §3, VertexVelocities).
func (e *Engine) VertexVelocities() []sphere.Vec {
	out := make([]sphere.Vec, len(e.mesh.Vertices))
	for i, v := range e.mesh.Vertices {
		p := e.plates[e.vertexPlate[i]]
		omega := sphere.Vec{
			X: p.EulerPoleAxis.X * p.AngularVelocity,
			Y: p.EulerPoleAxis.Y * p.AngularVelocity,
			Z: p.EulerPoleAxis.Z * p.AngularVelocity,
		}
		cross := sphere.Vec{
			X: omega.Y*v.Z - omega.Z*v.Y,
			Y: omega.Z*v.X - omega.X*v.Z,
			Z: omega.X*v.Y - omega.Y*v.X,
		}
		out[i] = sphere.Vec{X: cross.X * e.params.PlanetRadius, Y: cross.Y * e.params.PlanetRadius, Z: cross.Z * e.params.PlanetRadius}
	}
	return out
}

// VertexOrogenyClasses derives each render vertex's OrogenyClass from its
// stored orogeny age and current distance to the nearest convergent
// boundary: None if it has never accrued orogeny age, Nascent if recently
// started (<10 My), Active while still near a convergent boundary,
// Dormant once it has drifted away but retains accrued age (spec §3,
// VertexOrogenyClass).
func (e *Engine) VertexOrogenyClasses() []OrogenyClass {
	nearestConvergent := e.convergentProximity(e.boundaries.All())
	out := make([]OrogenyClass, len(e.orogenyAge))
	for i, age := range e.orogenyAge {
		switch {
		case age <= 0:
			out[i] = OrogenyNone
		case nearestConvergent[i].boundary != nil && nearestConvergent[i].distance < convergentProximityRadius && age < 10:
			out[i] = OrogenyNascent
		case nearestConvergent[i].boundary != nil && nearestConvergent[i].distance < convergentProximityRadius:
			out[i] = OrogenyActive
		default:
			out[i] = OrogenyDormant
		}
	}
	return out
}
