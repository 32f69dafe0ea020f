// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package mesh owns the render mesh: vertices, triangles, and their CSR
// adjacency, plus the topology invariants every mutation must preserve
// (spec §3, invariant 3).
package mesh

import (
	"fmt"
	"math"
	"sort"

	"github.com/tectonica-sim/tectonica/sphere"
)

// RenderMesh is the leaf-first mesh representation: an ordered vertex list,
// a flat triangle index list, and CSR adjacency built from it.
type RenderMesh struct {
	Vertices  []sphere.Vec
	Triangles []int32 // flat, 3 per triangle

	Adjacency Adjacency
}

// Adjacency is CSR (compressed sparse row) adjacency over render vertices.
//
// Offsets has length V+1; Indices[Offsets[i]:Offsets[i+1]] lists vertex i's
// neighbors, each undirected incidence appearing once per direction.
// Weights and WeightTotals are optional Gaussian smoothing weights
// precomputed for the oceanic-dampening smoother (§4.9), parallel to
// Indices and Offsets respectively.
type Adjacency struct {
	Offsets      []int32
	Indices      []int32
	Weights      []float64
	WeightTotals []float64
	// Distances holds the geodesic distance (radians) for each entry in
	// Indices, used by surface processes that need actual slope (rise
	// over run) rather than smoothing weight.
	Distances []float64
}

// Build constructs a RenderMesh (with adjacency) from vertices and a flat
// triangle list.
func Build(vertices []sphere.Vec, triangles []int32) *RenderMesh {
	m := &RenderMesh{Vertices: vertices, Triangles: triangles}
	m.Adjacency = buildAdjacency(vertices, triangles)
	return m
}

// buildAdjacency constructs CSR adjacency from the triangle list: every
// triangle edge contributes a neighbor relation in both directions, deduped
// per vertex.
func buildAdjacency(vertices []sphere.Vec, triangles []int32) Adjacency {
	v := len(vertices)
	neighborSets := make([]map[int32]bool, v)
	for i := range neighborSets {
		neighborSets[i] = make(map[int32]bool)
	}

	addEdge := func(a, b int32) {
		neighborSets[a][b] = true
		neighborSets[b][a] = true
	}

	for i := 0; i < len(triangles); i += 3 {
		a, b, c := triangles[i], triangles[i+1], triangles[i+2]
		addEdge(a, b)
		addEdge(b, c)
		addEdge(c, a)
	}

	offsets := make([]int32, v+1)
	var indices []int32
	for i := 0; i < v; i++ {
		neighbors := make([]int32, 0, len(neighborSets[i]))
		for n := range neighborSets[i] {
			neighbors = append(neighbors, n)
		}
		sort.Slice(neighbors, func(a, b int) bool { return neighbors[a] < neighbors[b] })
		offsets[i] = int32(len(indices))
		indices = append(indices, neighbors...)
	}
	offsets[v] = int32(len(indices))

	adj := Adjacency{Offsets: offsets, Indices: indices}
	adj.Weights, adj.WeightTotals, adj.Distances = gaussianWeights(vertices, adj, 0.1)
	return adj
}

// gaussianWeights precomputes a Gaussian edge weight (sigma radians of
// geodesic distance), its per-vertex row total, and the raw geodesic
// distance itself. The weights feed the oceanic-dampening smoother so its
// per-step pass is a single weighted sum rather than a geodesic-distance
// recomputation; the raw distances feed slope-based erosion (spec §4.9,
// StageB variant).
func gaussianWeights(vertices []sphere.Vec, adj Adjacency, sigma float64) (weights, totals, distances []float64) {
	weights = make([]float64, len(adj.Indices))
	distances = make([]float64, len(adj.Indices))
	totals = make([]float64, len(vertices))
	twoSigma2 := 2 * sigma * sigma
	for i := range vertices {
		start, end := adj.Offsets[i], adj.Offsets[i+1]
		var total float64
		for off := start; off < end; off++ {
			j := adj.Indices[off]
			d := sphere.Distance(vertices[i], vertices[j])
			distances[off] = d
			w := math.Exp(-d * d / twoSigma2)
			weights[off] = w
			total += w
		}
		totals[i] = total
	}
	return weights, totals, distances
}

// Neighbors returns the neighbor vertex indices of vertex i.
func (a Adjacency) Neighbors(i int) []int32 {
	return a.Indices[a.Offsets[i]:a.Offsets[i+1]]
}

// EulerCharacteristic returns V - E + F, which must equal 2 for a closed
// manifold mesh (spec §3, invariant 3).
func (m *RenderMesh) EulerCharacteristic() int {
	v := len(m.Vertices)
	f := len(m.Triangles) / 3
	edgeSet := make(map[[2]int32]bool)
	for i := 0; i < len(m.Triangles); i += 3 {
		tri := [3]int32{m.Triangles[i], m.Triangles[i+1], m.Triangles[i+2]}
		for k := 0; k < 3; k++ {
			a, b := tri[k], tri[(k+1)%3]
			if a > b {
				a, b = b, a
			}
			edgeSet[[2]int32{a, b}] = true
		}
	}
	return v - len(edgeSet) + f
}

// SphericalExcessArea returns the sum of spherical-excess triangle areas,
// which must be within 1% of 4π for a mesh covering the unit sphere exactly
// once (spec §3, invariant 3; spec §4.3).
func (m *RenderMesh) SphericalExcessArea() float64 {
	var total float64
	for i := 0; i < len(m.Triangles); i += 3 {
		a := m.Vertices[m.Triangles[i]]
		b := m.Vertices[m.Triangles[i+1]]
		c := m.Vertices[m.Triangles[i+2]]
		total += sphericalTriangleArea(a, b, c)
	}
	return total
}

// sphericalTriangleArea computes spherical excess via the half-angle
// (l'Huilier-free, direct angle) formula: area = (A+B+C) - π, where A, B, C
// are the triangle's interior angles at each vertex, computed from the
// spherical law of cosines.
func sphericalTriangleArea(a, b, c sphere.Vec) float64 {
	ab := sphere.Distance(a, b)
	bc := sphere.Distance(b, c)
	ca := sphere.Distance(c, a)

	angle := func(opposite, adj1, adj2 float64) float64 {
		num := math.Cos(opposite) - math.Cos(adj1)*math.Cos(adj2)
		den := math.Sin(adj1) * math.Sin(adj2)
		if den == 0 {
			return 0
		}
		return math.Acos(sphere.Clamp(num/den, -1, 1))
	}

	angleA := angle(bc, ab, ca)
	angleB := angle(ca, ab, bc)
	angleC := angle(ab, bc, ca)

	excess := angleA + angleB + angleC - math.Pi
	if excess < 0 {
		return 0
	}
	return excess
}

// ValidateTopology checks the Euler characteristic and area-conservation
// invariants (spec §3, invariant 3; §4.10 post-rebuild validation). It
// returns a descriptive error rather than panicking, since the caller
// (topology surgery) must roll back on failure rather than crash (spec §7).
func (m *RenderMesh) ValidateTopology() error {
	if euler := m.EulerCharacteristic(); euler != 2 {
		return fmt.Errorf("mesh: euler characteristic is %d, want 2", euler)
	}
	area := m.SphericalExcessArea()
	want := 4 * math.Pi
	if math.Abs(area-want)/want > 0.01 {
		return fmt.Errorf("mesh: spherical area %.6f deviates from 4π=%.6f by more than 1%%", area, want)
	}
	return nil
}
