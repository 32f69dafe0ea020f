// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package icosphere generates subdivided icosahedra used for both the plate
// mesh (subdivision levels 0–3) and the render mesh (levels 0–8).
package icosphere

import (
	"math"

	"github.com/tectonica-sim/tectonica/sphere"
)

// Mesh is the output of Generate: a vertex list and a flat triangle index
// list (3 indices per triangle), both deterministic for a given level.
type Mesh struct {
	Vertices  []sphere.Vec
	Triangles []int32 // flat, 3 per triangle
}

// VertexCount returns V = 10·4^L + 2 for subdivision level L, matching spec
// §4.2 without building the mesh.
func VertexCount(level int) int {
	return 10*pow4(level) + 2
}

// TriangleCount returns F = 20·4^L for subdivision level L.
func TriangleCount(level int) int {
	return 20 * pow4(level)
}

func pow4(level int) int {
	n := 1
	for i := 0; i < level; i++ {
		n *= 4
	}
	return n
}

// Generate builds a subdivided icosahedron at the given level (0 = base
// icosahedron, 20 faces, 12 vertices).
func Generate(level int) Mesh {
	verts, tris := baseIcosahedron()
	for l := 0; l < level; l++ {
		verts, tris = subdivide(verts, tris)
	}
	return Mesh{Vertices: verts, Triangles: tris}
}

// baseIcosahedron returns the canonical 12 icosahedron vertices (golden-ratio
// formulation, normalized to unit length) and 20 triangular faces with
// consistent outward winding (spec §4.2).
func baseIcosahedron() ([]sphere.Vec, []int32) {
	phi := (1 + math.Sqrt(5)) / 2

	raw := [][3]float64{
		{-1, phi, 0}, {1, phi, 0}, {-1, -phi, 0}, {1, -phi, 0},
		{0, -1, phi}, {0, 1, phi}, {0, -1, -phi}, {0, 1, -phi},
		{phi, 0, -1}, {phi, 0, 1}, {-phi, 0, -1}, {-phi, 0, 1},
	}
	verts := make([]sphere.Vec, len(raw))
	for i, r := range raw {
		v := sphere.Vec{X: r[0], Y: r[1], Z: r[2]}
		verts[i] = sphere.Unit(v)
	}

	faces := []int32{
		0, 11, 5, 0, 5, 1, 0, 1, 7, 0, 7, 10, 0, 10, 11,
		1, 5, 9, 5, 11, 4, 11, 10, 2, 10, 7, 6, 7, 1, 8,
		3, 9, 4, 3, 4, 2, 3, 2, 6, 3, 6, 8, 3, 8, 9,
		4, 9, 5, 2, 4, 11, 6, 2, 10, 8, 6, 7, 9, 8, 1,
	}
	return verts, faces
}

// midpointKey identifies an undirected vertex pair for the shared-midpoint
// dedup cache.
type midpointKey struct{ a, b int32 }

func newMidpointKey(a, b int32) midpointKey {
	if a > b {
		a, b = b, a
	}
	return midpointKey{a, b}
}

// subdivide replaces each triangle with four, reusing a midpoint cache keyed
// by the unordered vertex pair so that shared edges produce exactly one new
// vertex (spec §4.2).
func subdivide(verts []sphere.Vec, tris []int32) ([]sphere.Vec, []int32) {
	cache := make(map[midpointKey]int32, len(tris))
	newVerts := append([]sphere.Vec(nil), verts...)

	midpoint := func(a, b int32) int32 {
		key := newMidpointKey(a, b)
		if id, ok := cache[key]; ok {
			return id
		}
		mid := sphere.Unit(sphere.Vec{
			X: (verts[a].X + verts[b].X) / 2,
			Y: (verts[a].Y + verts[b].Y) / 2,
			Z: (verts[a].Z + verts[b].Z) / 2,
		})
		id := int32(len(newVerts))
		newVerts = append(newVerts, mid)
		cache[key] = id
		return id
	}

	newTris := make([]int32, 0, len(tris)*4)
	for i := 0; i < len(tris); i += 3 {
		a, b, c := tris[i], tris[i+1], tris[i+2]
		ab := midpoint(a, b)
		bc := midpoint(b, c)
		ca := midpoint(c, a)

		newTris = append(newTris,
			a, ab, ca,
			b, bc, ab,
			c, ca, bc,
			ab, bc, ca,
		)
	}
	return newVerts, newTris
}
