// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

package topology

import (
	"math"
	"testing"

	"github.com/tectonica-sim/tectonica/icosphere"
	"github.com/tectonica-sim/tectonica/mesh"
	"github.com/tectonica-sim/tectonica/plate"
	"github.com/tectonica-sim/tectonica/sphere"
)

func setupPlates(t *testing.T, level int) ([]sphere.Vec, map[int]*plate.Plate, []int) {
	t.Helper()
	ico := icosphere.Generate(level)
	centroids := []sphere.Vec{ico.Vertices[0], ico.Vertices[1]}
	raw := plate.Generate(centroids, 5, plate.DefaultConfig())

	plates := make(map[int]*plate.Plate, len(raw))
	for _, p := range raw {
		plates[p.ID] = p
	}

	vertexPlate := make([]int, len(ico.Vertices))
	for i, v := range ico.Vertices {
		best, bestDist := -1, math.MaxFloat64
		for _, p := range raw {
			if d := sphere.Chord2(v, p.Centroid); d < bestDist {
				best, bestDist = p.ID, d
			}
		}
		vertexPlate[i] = best
	}
	return ico.Vertices, plates, vertexPlate
}

func TestSplitCreatesNewPlateAndReassignsVertices(t *testing.T) {
	vertices, plates, vertexPlate := setupPlates(t, 2)
	nextID := len(plates)

	parentID := 0
	before := 0
	for _, p := range vertexPlate {
		if p == parentID {
			before++
		}
	}

	east, _ := sphere.LocalFrame(plates[parentID].Centroid)
	if err := Split(plates, vertexPlate, vertices, parentID, east, &nextID); err != nil {
		t.Fatalf("Split: %v", err)
	}

	if len(plates) != 3 {
		t.Fatalf("plates after split = %d, want 3", len(plates))
	}
	childB, ok := plates[2]
	if !ok {
		t.Fatal("split did not create plate id 2")
	}
	if childB.Crust != plates[parentID].Crust {
		t.Errorf("child crust = %v, want %v (inherited from parent)", childB.Crust, plates[parentID].Crust)
	}

	var afterParent, afterChild int
	for _, p := range vertexPlate {
		switch p {
		case parentID:
			afterParent++
		case 2:
			afterChild++
		}
	}
	if afterParent+afterChild != before {
		t.Errorf("vertex count after split = %d, want %d (parent's original count)", afterParent+afterChild, before)
	}
	if afterChild == 0 {
		t.Error("split produced zero vertices for the new child plate")
	}
}

func TestSplitPreservesAngularMomentumSum(t *testing.T) {
	vertices, plates, vertexPlate := setupPlates(t, 1)
	nextID := len(plates)
	parentID := 0
	parentMomentumBefore := plates[parentID].AngularMomentum()

	east, _ := sphere.LocalFrame(plates[parentID].Centroid)
	if err := Split(plates, vertexPlate, vertices, parentID, east, &nextID); err != nil {
		t.Fatalf("Split: %v", err)
	}

	childB := plates[2]
	sum := addVec(plates[parentID].AngularMomentum(), childB.AngularMomentum())
	want := scaleVec(parentMomentumBefore, 2)

	if math.Abs(sum.X-want.X) > 1e-9 || math.Abs(sum.Y-want.Y) > 1e-9 || math.Abs(sum.Z-want.Z) > 1e-9 {
		t.Errorf("momentum sum = %v, want %v (2x parent momentum)", sum, want)
	}
}

func TestSplitUnknownPlateErrors(t *testing.T) {
	vertices, plates, vertexPlate := setupPlates(t, 1)
	nextID := len(plates)
	if err := Split(plates, vertexPlate, vertices, 999, sphere.Vec{X: 1}, &nextID); err == nil {
		t.Error("Split on nonexistent plate = nil error, want error")
	}
}

func TestMergeConsumesPlateAndReassignsVertices(t *testing.T) {
	_, plates, vertexPlate := setupPlates(t, 2)
	plates[0].Crust = plate.Oceanic
	plates[1].Crust = plate.Continental

	if err := Merge(plates, vertexPlate, 0, 1); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if _, ok := plates[1]; ok {
		t.Error("consumed plate 1 still present after merge")
	}
	for i, p := range vertexPlate {
		if p == 1 {
			t.Errorf("vertex %d still assigned to consumed plate 1", i)
		}
	}
	if plates[0].Crust != plate.Continental {
		t.Error("survivor did not inherit continental crust from consumed plate")
	}
}

func TestMergeUnknownPlateErrors(t *testing.T) {
	_, plates, vertexPlate := setupPlates(t, 1)
	if err := Merge(plates, vertexPlate, 0, 999); err == nil {
		t.Error("Merge with nonexistent consumed plate = nil error, want error")
	}
}

func TestRetessellateProducesValidMesh(t *testing.T) {
	ico := icosphere.Generate(1)
	vertexPlate := make([]int, len(ico.Vertices))
	scalarField := make([]float64, len(ico.Vertices))
	for i := range ico.Vertices {
		vertexPlate[i] = i % 3
		scalarField[i] = float64(i)
	}

	result, err := Retessellate(ico.Vertices, vertexPlate, [][]float64{scalarField}, 2)
	if err != nil {
		t.Fatalf("Retessellate: %v", err)
	}
	if err := result.Mesh.ValidateTopology(); err != nil {
		t.Errorf("retessellated mesh failed validation: %v", err)
	}
	if len(result.VertexPlate) != len(result.Mesh.Vertices) {
		t.Errorf("VertexPlate length = %d, want %d", len(result.VertexPlate), len(result.Mesh.Vertices))
	}
	for _, p := range result.VertexPlate {
		if p == Unassigned {
			t.Error("retessellation left an unassigned vertex")
		}
	}
}

func TestRetessellateExactMatchShortCircuits(t *testing.T) {
	ico := icosphere.Generate(1)
	vertexPlate := make([]int, len(ico.Vertices))
	scalarField := make([]float64, len(ico.Vertices))
	for i := range ico.Vertices {
		vertexPlate[i] = i
		scalarField[i] = float64(i) * 10
	}

	result, err := Retessellate(ico.Vertices, vertexPlate, [][]float64{scalarField}, 1)
	if err != nil {
		t.Fatalf("Retessellate: %v", err)
	}
	// Level 1 re-tessellating from level 1 shares every old vertex exactly;
	// every transferred field value must match its source exactly.
	for i, v := range result.Mesh.Vertices {
		for j, old := range ico.Vertices {
			if sphere.Chord2(v, old) < 1e-18 {
				if result.VertexPlate[i] != vertexPlate[j] {
					t.Errorf("vertex %d: plate = %d, want exact match %d", i, result.VertexPlate[i], vertexPlate[j])
				}
				if math.Abs(result.ScalarFields[0][i]-scalarField[j]) > 1e-9 {
					t.Errorf("vertex %d: field = %f, want exact match %f", i, result.ScalarFields[0][i], scalarField[j])
				}
			}
		}
	}
}

func TestExtractMarksVerticesUnassigned(t *testing.T) {
	ico := icosphere.Generate(1)
	m := mesh.Build(ico.Vertices, ico.Triangles)
	vertexPlate := make([]int, len(ico.Vertices))
	data := make([]VertexPayload, len(ico.Vertices))
	for i := range data {
		data[i] = VertexPayload{Elevation: float64(i), CrustAge: 5}
	}

	region := append([]int32{0}, m.Adjacency.Neighbors(0)...)

	tr, err := Extract(ico.Vertices, ico.Triangles, data, vertexPlate, region, 0, 1, 100)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for _, v := range region {
		if vertexPlate[v] != Unassigned {
			t.Errorf("vertex %d still assigned after extraction", v)
		}
	}
	if tr.State != Extracted {
		t.Errorf("terrane state = %v, want Extracted", tr.State)
	}
	if len(tr.Positions) != len(region) {
		t.Errorf("captured %d positions, want %d", len(tr.Positions), len(region))
	}
}

func TestExtractReattachRoundTripIsIdentity(t *testing.T) {
	ico := icosphere.Generate(1)
	m := mesh.Build(ico.Vertices, ico.Triangles)
	vertexPlate := make([]int, len(ico.Vertices))
	data := make([]VertexPayload, len(ico.Vertices))
	for i := range data {
		data[i] = VertexPayload{Elevation: float64(i) * 3.5, CrustAge: 12}
	}
	originalData := append([]VertexPayload(nil), data...)

	region := append([]int32{0}, m.Adjacency.Neighbors(0)...)
	originalPlate := append([]int(nil), vertexPlate...)

	tr, err := Extract(ico.Vertices, ico.Triangles, data, vertexPlate, region, 0, 1, 1)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	vertices := append([]sphere.Vec(nil), ico.Vertices...)
	if err := Reattach(vertices, data, vertexPlate, tr, 0); err != nil {
		t.Fatalf("Reattach: %v", err)
	}

	for _, v := range region {
		if vertexPlate[v] != originalPlate[v] {
			t.Errorf("vertex %d: plate = %d after round trip, want %d", v, vertexPlate[v], originalPlate[v])
		}
		if data[v] != originalData[v] {
			t.Errorf("vertex %d: payload = %v after round trip, want %v", v, data[v], originalData[v])
		}
		if sphere.Chord2(vertices[v], ico.Vertices[v]) > 1e-18 {
			t.Errorf("vertex %d: position changed after round trip", v)
		}
	}
}

func TestReattachRejectsAlreadyAssignedVertex(t *testing.T) {
	ico := icosphere.Generate(1)
	vertexPlate := make([]int, len(ico.Vertices)) // all zero, i.e. assigned to plate 0
	data := make([]VertexPayload, len(ico.Vertices))
	tr := &Terrane{VertexIndices: []int32{0}, Positions: []sphere.Vec{ico.Vertices[0]}, Elevations: []float64{0}, CrustAges: []float64{0}}

	vertices := append([]sphere.Vec(nil), ico.Vertices...)
	if err := Reattach(vertices, data, vertexPlate, tr, 0); err == nil {
		t.Error("Reattach onto an already-assigned vertex = nil error, want error")
	}
}

func TestTransportMigratesCapturedPositions(t *testing.T) {
	vertices, plates, _ := setupPlates(t, 1)
	carrier := plates[0]
	tr := &Terrane{Positions: []sphere.Vec{vertices[0]}}

	before := tr.Positions[0]
	tr.Transport(carrier, 50)

	if sphere.Chord2(tr.Positions[0], before) < 1e-12 {
		t.Error("Transport did not move the terrane's captured position")
	}
	if !sphere.IsUnit(tr.Positions[0]) {
		t.Errorf("Transport produced a non-unit position: %v", tr.Positions[0])
	}
	if tr.State != Transporting {
		t.Errorf("state after Transport = %v, want Transporting", tr.State)
	}
}
