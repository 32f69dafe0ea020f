// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package boundary builds the plate-adjacency graph, classifies each
// boundary edge (divergent, convergent, transform), and drives its
// stress/rift state machine.
package boundary

import (
	"fmt"
	"math"
	"strconv"

	"github.com/katalvlaran/lvlath/core"

	"github.com/tectonica-sim/tectonica/mesh"
	"github.com/tectonica-sim/tectonica/plate"
	"github.com/tectonica-sim/tectonica/sphere"
)

// Classification is the kinematic type of a boundary, recomputed every step
// from the current relative velocity of its two plates (spec §4.6).
type Classification int

const (
	Transform Classification = iota
	Divergent
	Convergent
)

func (c Classification) String() string {
	switch c {
	case Divergent:
		return "divergent"
	case Convergent:
		return "convergent"
	default:
		return "transform"
	}
}

// classifyThreshold is the dot-product deadband (±0.001) within which a
// boundary is called Transform rather than Divergent/Convergent.
const classifyThreshold = 0.001

// State is a boundary's position in the Nascent→Active→Dormant/Rifting
// state machine (spec §4.6).
type State int

const (
	Nascent State = iota
	Active
	Dormant
	Rifting
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Dormant:
		return "dormant"
	case Rifting:
		return "rifting"
	default:
		return "nascent"
	}
}

// Boundary is the shared border between two plates, anchored at the two
// plate-mesh vertices their Voronoi cells share.
type Boundary struct {
	PlateA, PlateB int
	VertexA, VertexB int32

	// refA, refB are the shared vertices' positions at mesh-construction
	// time (t=0); each step they are migrated forward by their owning
	// plate's rotation to produce the current-time positions compared
	// during classification.
	refA, refB sphere.Vec

	// Midpoint is the current-time midpoint computed by the last Update
	// call, consumed by stress interpolation and the thermal field.
	Midpoint sphere.Vec

	Classification  Classification
	State           State
	Stress          float64 // MPa
	RiftWidthMeters float64
	riftHoldMy      float64 // time continuously meeting the rift-entry trigger
}

// Thresholds parameterizes the boundary state machine (spec §7 Parameters).
type Thresholds struct {
	SplitVelocityThreshold float64 // rad/My
	SplitDurationThreshold float64 // My
	RiftProgressionRate    float64 // m / (rad/My * My)
	RiftSplitThresholdM    float64 // meters
}

// Graph is the plate-adjacency graph: one core.Graph vertex per plate ID,
// one edge per Boundary.
type Graph struct {
	g          *core.Graph
	boundaries map[string]*Boundary
}

func plateVertexID(plateID int) string {
	return strconv.Itoa(plateID)
}

func boundaryKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d-%d", a, b)
}

// Build scans mesh adjacency for plate-mesh vertex pairs whose owning
// plates differ, groups them by plate pair, and keeps only those pairs
// with exactly two shared vertices — the boundary-defining edge (spec
// §4.6: "two plates are adjacent iff they share exactly two icosphere
// vertices").
func Build(vertices []sphere.Vec, adjacency mesh.Adjacency, vertexPlate []int) *Graph {
	type pairVerts struct {
		a, b int
		vs   []int32
	}
	pairs := make(map[string]*pairVerts)

	for v := range vertices {
		pv := vertexPlate[v]
		for _, n := range adjacency.Neighbors(v) {
			pn := vertexPlate[n]
			if pn == pv || int(n) < v {
				continue
			}
			a, b := pv, pn
			if a > b {
				a, b = b, a
			}
			key := boundaryKey(a, b)
			pr, ok := pairs[key]
			if !ok {
				pr = &pairVerts{a: a, b: b}
				pairs[key] = pr
			}
			pr.vs = appendUnique(pr.vs, int32(v))
			pr.vs = appendUnique(pr.vs, n)
		}
	}

	g := core.NewGraph(core.WithWeighted())
	graph := &Graph{g: g, boundaries: make(map[string]*Boundary)}

	for key, pr := range pairs {
		if len(pr.vs) != 2 {
			continue
		}
		idA, idB := plateVertexID(pr.a), plateVertexID(pr.b)
		if !g.HasVertex(idA) {
			g.AddVertex(idA)
		}
		if !g.HasVertex(idB) {
			g.AddVertex(idB)
		}
		g.AddEdge(idA, idB, 0)

		graph.boundaries[key] = &Boundary{
			PlateA: pr.a, PlateB: pr.b,
			VertexA: pr.vs[0], VertexB: pr.vs[1],
			refA: vertices[pr.vs[0]], refB: vertices[pr.vs[1]],
			State: Nascent,
		}
	}
	return graph
}

func appendUnique(vs []int32, v int32) []int32 {
	for _, existing := range vs {
		if existing == v {
			return vs
		}
	}
	return append(vs, v)
}

// All returns every boundary in the graph, in no particular order.
func (g *Graph) All() []*Boundary {
	out := make([]*Boundary, 0, len(g.boundaries))
	for _, b := range g.boundaries {
		out = append(out, b)
	}
	return out
}

// Get returns the boundary between plates a and b, if one exists.
func (g *Graph) Get(a, b int) (*Boundary, bool) {
	b2, ok := g.boundaries[boundaryKey(a, b)]
	return b2, ok
}

// Degree returns the number of boundaries plate p participates in.
func (g *Graph) Degree(p int) int {
	_, _, undirected, err := g.g.Degree(plateVertexID(p))
	if err != nil {
		return 0
	}
	return undirected
}

// RiftHoldMy returns how long (in My) b has continuously met the rift-entry
// trigger, for CSV export's rift-duration column — read-only access to
// state that only Update itself is allowed to advance.
func (b *Boundary) RiftHoldMy() float64 { return b.riftHoldMy }

// Clone returns a deep copy of g, including every Boundary's unexported
// reference-position and rift-hold-duration state, so a caller (the
// engine's history snapshot) can restore a bit-identical graph later
// without re-deriving state that depends on elapsed history rather than
// current positions alone.
func (g *Graph) Clone() *Graph {
	clone := &Graph{g: g.g.Clone(), boundaries: make(map[string]*Boundary, len(g.boundaries))}
	for key, b := range g.boundaries {
		copied := *b
		clone.boundaries[key] = &copied
	}
	return clone
}

// Update advances a boundary's classification and state machine by one
// step: it migrates the reference vertices forward under each plate's
// rotation, classifies the result, updates stress, and runs the state
// machine transitions (spec §4.6).
func Update(b *Boundary, plates map[int]*plate.Plate, elapsedMy, dtMy float64, cfg Thresholds) {
	pa, pb := plates[b.PlateA], plates[b.PlateB]
	if pa == nil || pb == nil {
		return
	}

	vA := pa.Migrate(b.refA, elapsedMy)
	vB := pb.Migrate(b.refB, elapsedMy)

	midpoint := sphere.Unit(sphere.Vec{
		X: (vA.X + vB.X) / 2,
		Y: (vA.Y + vB.Y) / 2,
		Z: (vA.Z + vB.Z) / 2,
	})
	b.Midpoint = midpoint

	// Tangent-plane normal at the midpoint, oriented toward plate A's
	// centroid so the classification sign convention is stable across
	// steps (spec §4.6).
	normal := tangentNormalToward(midpoint, pa.Centroid)

	diff := sphere.Vec{X: vA.X - vB.X, Y: vA.Y - vB.Y, Z: vA.Z - vB.Z}
	sign := diff.X*normal.X + diff.Y*normal.Y + diff.Z*normal.Z

	switch {
	case sign > classifyThreshold:
		b.Classification = Divergent
	case sign < -classifyThreshold:
		b.Classification = Convergent
	default:
		b.Classification = Transform
	}

	relVelocity := sphere.Distance(vA, vB) / math.Max(dtMy, 1e-9)
	updateStress(b, relVelocity, dtMy)
	updateState(b, relVelocity, dtMy, cfg)
}

// tangentNormalToward returns the unit tangent-plane direction at p that
// points toward target, projected into p's tangent plane.
func tangentNormalToward(p, target sphere.Vec) sphere.Vec {
	dot := p.X*target.X + p.Y*target.Y + p.Z*target.Z
	proj := sphere.Vec{
		X: target.X - dot*p.X,
		Y: target.Y - dot*p.Y,
		Z: target.Z - dot*p.Z,
	}
	n := math.Sqrt(proj.X*proj.X + proj.Y*proj.Y + proj.Z*proj.Z)
	if n < 1e-12 {
		east, _ := sphere.LocalFrame(p)
		return east
	}
	return sphere.Vec{X: proj.X / n, Y: proj.Y / n, Z: proj.Z / n}
}

// updateStress applies the per-classification accumulation/decay rule
// (spec §4.6 "Stress update").
func updateStress(b *Boundary, relVelocity, dtMy float64) {
	switch b.Classification {
	case Convergent:
		b.Stress = math.Min(100, b.Stress+relVelocity*dtMy*100)
	case Transform:
		b.Stress = math.Min(50, b.Stress+relVelocity*dtMy*10)
	case Divergent:
		const tau = 10.0
		b.Stress *= math.Exp(-dtMy / tau)
	}
}

// updateState runs the Nascent/Active/Dormant/Rifting transitions (spec
// §4.6 state-machine table).
func updateState(b *Boundary, relVelocity, dtMy float64, cfg Thresholds) {
	switch b.State {
	case Nascent:
		if b.Stress > 0 || b.Classification != Transform {
			b.State = Active
		}
	case Active:
		if b.Classification == Divergent && relVelocity > cfg.SplitVelocityThreshold {
			b.riftHoldMy += dtMy
			if b.riftHoldMy > 0.5*cfg.SplitDurationThreshold {
				b.State = Rifting
			}
		} else {
			b.riftHoldMy = 0
			if b.Stress < 1e-6 && relVelocity < 1e-6 {
				b.State = Dormant
			}
		}
	case Dormant:
		if b.Stress > 0 || relVelocity > 0 {
			b.State = Active
		}
	case Rifting:
		if b.Classification != Divergent {
			b.State = Active
			b.riftHoldMy = 0
			return
		}
		if relVelocity < 0.5*cfg.SplitVelocityThreshold {
			b.State = Active
			b.riftHoldMy = 0
			return
		}
		b.RiftWidthMeters += cfg.RiftProgressionRate * relVelocity * dtMy
	}
}

// ReadyToSplit reports whether a Rifting boundary has widened past the
// split threshold (spec §4.6, §4.10).
func ReadyToSplit(b *Boundary, cfg Thresholds) bool {
	return b.State == Rifting && b.RiftWidthMeters > cfg.RiftSplitThresholdM
}
