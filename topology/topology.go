// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package topology implements the plate-topology surgery operations: plate
// splits at mature rifts, merges at high-stress convergent boundaries,
// full re-tessellation with per-vertex field transfer, and terrane
// extraction/reattachment (spec §4.10).
//
// Retessellate builds its candidate mesh and fields into fresh buffers and
// validates them before returning, so a candidate that fails validation
// leaves the caller's state untouched. Split, Merge, Extract and Reattach
// modify the maps and slices they are given in place and do not validate
// the result.
package topology

import (
	"fmt"
	"math"

	"github.com/tectonica-sim/tectonica/icosphere"
	"github.com/tectonica-sim/tectonica/kdtree"
	"github.com/tectonica-sim/tectonica/mesh"
	"github.com/tectonica-sim/tectonica/plate"
	"github.com/tectonica-sim/tectonica/sphere"
)

// Unassigned is the sentinel plate ID for a render vertex with no owning
// plate, used briefly during terrane extraction and mid-surgery (spec §3
// invariant 2).
const Unassigned = -1

// splitPerturbationFraction scales how far the two child Euler poles'
// angular-momentum vectors are pushed apart from the parent's, as a
// fraction of the parent's angular momentum magnitude (the child
// centroids are offset by centroidSplitOffset instead) (spec §4.10, "Split math" Open
// Question: the source gives no closed form, only the ωA+ωB≈2·ωparent
// constraint, so this package picks the smallest perturbation consistent
// with producing two distinct plates and documents it here).
const splitPerturbationFraction = 0.1

// centroidSplitOffset is the angular distance (radians) the two child
// centroids are placed from the parent's former centroid before the local
// Voronoi re-seed.
const centroidSplitOffset = 0.05

// Split executes a plate split across a rift: it mints a new plate ID,
// derives two child Euler poles whose angular-momentum vectors sum to
// exactly twice the parent's (satisfying the ωA+ωB≈2·ωparent constraint
// for any perturbation magnitude), and rebuilds Voronoi assignment over
// only the vertices the parent used to own (spec §4.10).
func Split(plates map[int]*plate.Plate, vertexPlate []int, vertices []sphere.Vec, parentID int, riftNormal sphere.Vec, nextPlateID *int) error {
	parent, ok := plates[parentID]
	if !ok {
		return fmt.Errorf("topology: split: plate %d does not exist", parentID)
	}

	tangent := tangentComponent(parent.Centroid, riftNormal)
	momentum := parent.AngularMomentum()
	perturb := sphere.Vec{
		X: tangent.X * splitPerturbationFraction * momentumMagnitude(momentum),
		Y: tangent.Y * splitPerturbationFraction * momentumMagnitude(momentum),
		Z: tangent.Z * splitPerturbationFraction * momentumMagnitude(momentum),
	}

	momentumA := addVec(momentum, perturb)
	momentumB := subVec(momentum, perturb)
	axisA, speedA := plate.FromAngularMomentum(momentumA)
	axisB, speedB := plate.FromAngularMomentum(momentumB)

	centroidA := sphere.Unit(addVec(parent.Centroid, scaleVec(tangent, centroidSplitOffset)))
	centroidB := sphere.Unit(subVec(parent.Centroid, scaleVec(tangent, centroidSplitOffset)))

	childBID := *nextPlateID
	*nextPlateID++

	parent.EulerPoleAxis, parent.AngularVelocity = axisA, speedA
	parent.Centroid = centroidA

	childB := &plate.Plate{
		ID:              childBID,
		Crust:           parent.Crust,
		Centroid:        centroidB,
		CrustThickness:  parent.CrustThickness,
		EulerPoleAxis:   axisB,
		AngularVelocity: speedB,
	}
	plates[childBID] = childB

	for i, v := range vertices {
		if vertexPlate[i] != parentID {
			continue
		}
		if sphere.Chord2(v, centroidA) <= sphere.Chord2(v, centroidB) {
			vertexPlate[i] = parentID
		} else {
			vertexPlate[i] = childBID
		}
	}
	return nil
}

func tangentComponent(p, v sphere.Vec) sphere.Vec {
	dot := p.X*v.X + p.Y*v.Y + p.Z*v.Z
	proj := sphere.Vec{X: v.X - dot*p.X, Y: v.Y - dot*p.Y, Z: v.Z - dot*p.Z}
	n := momentumMagnitude(proj)
	if n < 1e-12 {
		east, _ := sphere.LocalFrame(p)
		return east
	}
	return sphere.Vec{X: proj.X / n, Y: proj.Y / n, Z: proj.Z / n}
}

func momentumMagnitude(v sphere.Vec) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func addVec(a, b sphere.Vec) sphere.Vec { return sphere.Vec{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z} }
func subVec(a, b sphere.Vec) sphere.Vec { return sphere.Vec{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z} }
func scaleVec(a sphere.Vec, s float64) sphere.Vec {
	return sphere.Vec{X: a.X * s, Y: a.Y * s, Z: a.Z * s}
}

// Merge consumes the smaller plate into the survivor on a high-stress
// convergent boundary: the survivor's Euler pole becomes an area-weighted
// (by vertex count, a proxy for spherical area at uniform mesh density)
// blend of the two, crust type becomes Continental if either plate was,
// and every vertex owned by the consumed plate is reassigned to the
// survivor (spec §4.10).
func Merge(plates map[int]*plate.Plate, vertexPlate []int, survivorID, consumedID int) error {
	survivor, ok := plates[survivorID]
	if !ok {
		return fmt.Errorf("topology: merge: survivor plate %d does not exist", survivorID)
	}
	consumed, ok := plates[consumedID]
	if !ok {
		return fmt.Errorf("topology: merge: consumed plate %d does not exist", consumedID)
	}

	var survivorCount, consumedCount int
	for _, p := range vertexPlate {
		switch p {
		case survivorID:
			survivorCount++
		case consumedID:
			consumedCount++
		}
	}
	total := float64(survivorCount + consumedCount)
	if total == 0 {
		total = 1
	}
	wSurvivor := float64(survivorCount) / total
	wConsumed := float64(consumedCount) / total

	momentumBlend := addVec(
		scaleVec(survivor.AngularMomentum(), wSurvivor),
		scaleVec(consumed.AngularMomentum(), wConsumed),
	)
	survivor.EulerPoleAxis, survivor.AngularVelocity = plate.FromAngularMomentum(momentumBlend)

	if consumed.Crust == plate.Continental {
		survivor.Crust = plate.Continental
		survivor.CrustThickness = plate.DefaultContinentalThickness
	}

	for i, p := range vertexPlate {
		if p == consumedID {
			vertexPlate[i] = survivorID
		}
	}
	delete(plates, consumedID)
	return nil
}

// RetessellationResult is a validated candidate mesh plus transferred
// per-vertex fields, ready to be committed by the caller.
type RetessellationResult struct {
	Mesh        *mesh.RenderMesh
	VertexPlate []int
	ScalarFields [][]float64
}

// Retessellate rebuilds the render mesh at newLevel and transfers every
// per-vertex scalar field and the plate-assignment field from the old
// mesh using k=3 nearest-neighbor inverse-distance weighting, short-
// circuiting on exact position matches (spec §4.10). It validates the
// candidate's topology before returning it; the caller is responsible for
// discarding the result (and keeping the old mesh) if Retessellate
// returns an error.
func Retessellate(oldVertices []sphere.Vec, oldVertexPlate []int, oldScalarFields [][]float64, newLevel int) (*RetessellationResult, error) {
	newIco := icosphere.Generate(newLevel)
	newMesh := mesh.Build(newIco.Vertices, newIco.Triangles)

	ids := make([]int, len(oldVertices))
	for i := range ids {
		ids[i] = i
	}
	tree := kdtree.Build(oldVertices, ids)

	newVertexPlate := make([]int, len(newIco.Vertices))
	newScalarFields := make([][]float64, len(oldScalarFields))
	for f := range newScalarFields {
		newScalarFields[f] = make([]float64, len(newIco.Vertices))
	}

	const k = 3
	for i, v := range newIco.Vertices {
		neighbors := tree.KNearest(v, k)
		if len(neighbors) == 0 {
			newVertexPlate[i] = Unassigned
			continue
		}
		if neighbors[0].DistSq < 1e-18 {
			newVertexPlate[i] = oldVertexPlate[neighbors[0].ID]
			for f := range newScalarFields {
				newScalarFields[f][i] = oldScalarFields[f][neighbors[0].ID]
			}
			continue
		}

		newVertexPlate[i] = nearestCategorical(neighbors, oldVertexPlate)
		for f := range newScalarFields {
			newScalarFields[f][i] = inverseDistanceBlend(neighbors, oldScalarFields[f])
		}
	}

	if err := newMesh.ValidateTopology(); err != nil {
		return nil, fmt.Errorf("topology: retessellate: %w", err)
	}
	for _, p := range newVertexPlate {
		if p == Unassigned {
			return nil, fmt.Errorf("topology: retessellate: produced an unassigned vertex")
		}
	}

	return &RetessellationResult{Mesh: newMesh, VertexPlate: newVertexPlate, ScalarFields: newScalarFields}, nil
}

func inverseDistanceBlend(neighbors []kdtree.Neighbor, field []float64) float64 {
	var weighted, totalWeight float64
	for _, n := range neighbors {
		w := 1 / (n.DistSq + 1e-12)
		weighted += w * field[n.ID]
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return weighted / totalWeight
}

// nearestCategorical picks the plate ID of the highest-weight (closest)
// neighbor, since plate assignment is categorical and cannot be blended.
func nearestCategorical(neighbors []kdtree.Neighbor, field []int) int {
	best := neighbors[0]
	for _, n := range neighbors[1:] {
		if n.DistSq < best.DistSq {
			best = n
		}
	}
	return field[best.ID]
}

// TerraneState tracks a terrane through its extract/transport/reattach
// lifecycle (spec §3 Entities).
type TerraneState int

const (
	Attached TerraneState = iota
	Extracted
	Transporting
	Colliding
	Reattached
)

func (s TerraneState) String() string {
	switch s {
	case Attached:
		return "attached"
	case Extracted:
		return "extracted"
	case Transporting:
		return "transporting"
	case Colliding:
		return "colliding"
	case Reattached:
		return "reattached"
	default:
		return "unknown"
	}
}

// MinTerraneAreaKm2 is the minimum terrane area in km² (spec §4.10).
// Extract does not check a region's area against it.
const MinTerraneAreaKm2 = 100.0

// Terrane is a captured fragment of continental crust riding a carrier
// plate independently of its original home plate, identified by the
// render-vertex indices it owns and their payload (spec §3).
//
// PatchTriangles mirrors ExtractedTriangles rather than a re-triangulated
// cap: extraction here only changes plate ownership, never the render
// mesh's vertex or triangle lists, so the "hole" the source describes is
// closed by construction — there is nothing to re-triangulate, and the
// mesh invariants hold trivially through extraction and reattachment.
type Terrane struct {
	ID               int
	CarrierPlateID   int
	HomePlateID      int
	State            TerraneState
	VertexIndices    []int32
	Positions        []sphere.Vec
	Elevations       []float64
	CrustAges        []float64
	ExtractedTriangles []int32
	PatchTriangles     []int32
}

// Extract captures a contiguous set of render vertices belonging to
// homePlateID into a Terrane payload, marks those vertices Unassigned in
// vertexPlate, and hands ownership of their future motion to
// carrierPlateID (spec §4.10).
func Extract(vertices []sphere.Vec, triangles []int32, data []VertexPayload, vertexPlate []int, vertexIDs []int32, homePlateID, carrierPlateID int, id int) (*Terrane, error) {
	members := make(map[int32]bool, len(vertexIDs))
	for _, v := range vertexIDs {
		if vertexPlate[v] != homePlateID {
			return nil, fmt.Errorf("topology: extract: vertex %d is not owned by plate %d", v, homePlateID)
		}
		members[v] = true
	}

	t := &Terrane{
		ID:             id,
		CarrierPlateID: carrierPlateID,
		HomePlateID:    homePlateID,
		State:          Extracted,
		VertexIndices:  append([]int32(nil), vertexIDs...),
		Positions:      make([]sphere.Vec, len(vertexIDs)),
		Elevations:     make([]float64, len(vertexIDs)),
		CrustAges:      make([]float64, len(vertexIDs)),
	}
	for i, v := range vertexIDs {
		t.Positions[i] = vertices[v]
		t.Elevations[i] = data[v].Elevation
		t.CrustAges[i] = data[v].CrustAge
	}

	for i := 0; i < len(triangles); i += 3 {
		a, b, c := triangles[i], triangles[i+1], triangles[i+2]
		if members[a] && members[b] && members[c] {
			t.ExtractedTriangles = append(t.ExtractedTriangles, a, b, c)
		}
	}
	t.PatchTriangles = append([]int32(nil), t.ExtractedTriangles...)

	for _, v := range vertexIDs {
		vertexPlate[v] = Unassigned
	}
	return t, nil
}

// VertexPayload is the subset of per-vertex surface state a terrane
// carries with it through extraction, transport, and reattachment.
type VertexPayload struct {
	Elevation float64
	CrustAge  float64
}

// Transport advances a terrane's captured positions by the carrier
// plate's rigid rotation over dtMy million years, the same Rodrigues
// migration every render vertex on that plate receives (spec §4.10).
func (t *Terrane) Transport(carrier *plate.Plate, dtMy float64) {
	t.State = Transporting
	for i, p := range t.Positions {
		t.Positions[i] = carrier.Migrate(p, dtMy)
	}
}

// Reattach restores a terrane's vertices to the render mesh under
// targetPlateID, writing back its carried positions and surface payload.
// Reattaching to the terrane's original HomePlateID immediately after
// Extract (with no intervening Transport) is the identity: the vertex
// positions, elevations, and crust ages are bit-identical to their
// pre-extraction values, and vertexPlate returns to its pre-extraction
// state (spec §8, "extract∘reattach is the identity on an unmoved
// terrane").
func Reattach(vertices []sphere.Vec, data []VertexPayload, vertexPlate []int, t *Terrane, targetPlateID int) error {
	for _, v := range t.VertexIndices {
		if vertexPlate[v] != Unassigned {
			return fmt.Errorf("topology: reattach: vertex %d is not unassigned", v)
		}
	}
	for i, v := range t.VertexIndices {
		vertices[v] = t.Positions[i]
		data[v] = VertexPayload{Elevation: t.Elevations[i], CrustAge: t.CrustAges[i]}
		vertexPlate[v] = targetPlateID
	}
	t.State = Reattached
	return nil
}
