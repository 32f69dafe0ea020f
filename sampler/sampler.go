// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package sampler answers "what is the elevation at this equirectangular
// pixel" queries against a render mesh by locating the containing triangle
// and interpolating with barycentric weights (spec §4.13).
package sampler

import (
	"math"

	"github.com/tectonica-sim/tectonica/kdtree"
	"github.com/tectonica-sim/tectonica/mesh"
	"github.com/tectonica-sim/tectonica/sphere"
)

// acceptTolerance is how far negative a barycentric weight may be and still
// count as "inside" the triangle, absorbing floating-point error at shared
// edges (spec §4.13: "accept when all barycentrics ≥ −10⁻⁶").
const acceptTolerance = -1e-6

// maxWalkSteps bounds the triangle walk so a malformed or disconnected mesh
// can never spin the sampler forever; the walk falls back to its best
// candidate so far once the bound is hit.
const maxWalkSteps = 64

// poleEpsilon keeps the equirectangular-to-direction conversion away from
// the exact poles, where longitude is undefined (spec §4.13).
const poleEpsilon = 1e-4

// Sampler locates the render-mesh triangle containing an arbitrary unit
// direction and interpolates a per-vertex scalar field there. It is built
// once per mesh (render-mesh topology is fixed between re-tessellations)
// and reused across many Sample calls.
type Sampler struct {
	mesh         *mesh.RenderMesh
	centroids    []sphere.Vec
	tree         *kdtree.Tree
	triAdjacency [][3]int32 // triAdjacency[t][e] = neighbor triangle across edge e, or -1
}

// New builds a Sampler over m: a triangle-centroid KD-tree for the initial
// seed lookup, and an edge-adjacency table for the triangle walk.
func New(m *mesh.RenderMesh) *Sampler {
	triCount := len(m.Triangles) / 3
	centroids := make([]sphere.Vec, triCount)
	ids := make([]int, triCount)
	for t := 0; t < triCount; t++ {
		a, b, c := m.Vertices[m.Triangles[t*3]], m.Vertices[m.Triangles[t*3+1]], m.Vertices[m.Triangles[t*3+2]]
		centroids[t] = sphere.Unit(sphere.Vec{X: a.X + b.X + c.X, Y: a.Y + b.Y + c.Y, Z: a.Z + b.Z + c.Z})
		ids[t] = t
	}
	return &Sampler{
		mesh:         m,
		centroids:    centroids,
		tree:         kdtree.Build(centroids, ids),
		triAdjacency: buildTriangleAdjacency(m.Triangles),
	}
}

// buildTriangleAdjacency maps each triangle edge to the one other triangle
// sharing it, for a closed 2-manifold mesh (every render mesh this module
// builds is one).
func buildTriangleAdjacency(triangles []int32) [][3]int32 {
	triCount := len(triangles) / 3
	adj := make([][3]int32, triCount)
	for i := range adj {
		adj[i] = [3]int32{-1, -1, -1}
	}

	type edgeRef struct {
		tri  int32
		edge int
	}
	edgeOwner := make(map[[2]int32]edgeRef, triCount*3/2)
	for t := 0; t < triCount; t++ {
		v := [3]int32{triangles[t*3], triangles[t*3+1], triangles[t*3+2]}
		for e := 0; e < 3; e++ {
			a, b := v[e], v[(e+1)%3]
			key := edgeKey(a, b)
			if owner, ok := edgeOwner[key]; ok {
				adj[t][e] = owner.tri
				adj[owner.tri][owner.edge] = int32(t)
			} else {
				edgeOwner[key] = edgeRef{tri: int32(t), edge: e}
			}
		}
	}
	return adj
}

func edgeKey(a, b int32) [2]int32 {
	if a < b {
		return [2]int32{a, b}
	}
	return [2]int32{b, a}
}

// MemoryUsage reports the sampler's approximate memory footprint, for cache
// audits (spec §4.13: "expose a small memory-stats struct for audits").
type MemoryUsage struct {
	TriangleCount  int
	TreeNodeCount  int
	TreeBytes      int64
	AdjacencyBytes int64
}

// EstimateMemoryUsage reports the sampler's current footprint.
func (s *Sampler) EstimateMemoryUsage() MemoryUsage {
	tree := s.tree.EstimateMemoryUsage()
	return MemoryUsage{
		TriangleCount:  len(s.centroids),
		TreeNodeCount:  tree.NodeCount,
		TreeBytes:      tree.NodeBytes,
		AdjacencyBytes: int64(len(s.triAdjacency)) * 3 * 4,
	}
}

// Sample converts (u,v) in [0,1]×[0,1] equirectangular coordinates to a unit
// direction, locates its containing render-mesh triangle, and interpolates
// values (one entry per render vertex — baseline or amplified elevation,
// caller's choice) with the triangle's barycentric weights.
func (s *Sampler) Sample(u, v float64, values []float64) float64 {
	dir := sphere.EquirectangularToVec(u, v, poleEpsilon)
	tri, wa, wb, wc := s.locate(dir)
	if tri < 0 {
		return 0
	}
	ia, ib, ic := s.mesh.Triangles[tri*3], s.mesh.Triangles[tri*3+1], s.mesh.Triangles[tri*3+2]
	return wa*values[ia] + wb*values[ib] + wc*values[ic]
}

// locate finds the triangle containing dir and its barycentric weights
// there, walking from the nearest-centroid seed triangle across whichever
// edge has the most negative barycentric weight until all three weights
// clear acceptTolerance, a step bound is hit, or the walk runs off the mesh
// (never expected on a closed manifold, but guarded regardless). It returns
// the best candidate seen, clamped onto the simplex, if no triangle is
// accepted outright (spec §4.13).
func (s *Sampler) locate(dir sphere.Vec) (tri int, wa, wb, wc float64) {
	seed, _, ok := s.tree.Nearest(dir)
	if !ok {
		return -1, 0, 0, 0
	}

	current := seed
	bestTri := seed
	var bestWa, bestWb, bestWc float64
	bestScore := math.Inf(-1)

	for step := 0; step < maxWalkSteps; step++ {
		a, b, c := s.triangleVertices(current)
		cwa, cwb, cwc := barycentric(dir, a, b, c)

		if worst := min3(cwa, cwb, cwc); worst > bestScore {
			bestScore, bestTri, bestWa, bestWb, bestWc = worst, current, cwa, cwb, cwc
		}
		if cwa >= acceptTolerance && cwb >= acceptTolerance && cwc >= acceptTolerance {
			return current, cwa, cwb, cwc
		}

		next := s.triAdjacency[current][oppositeEdge(cwa, cwb, cwc)]
		if next < 0 {
			break
		}
		current = int(next)
	}

	cwa, cwb, cwc := clampToSimplex(bestWa, bestWb, bestWc)
	return bestTri, cwa, cwb, cwc
}

func (s *Sampler) triangleVertices(tri int) (a, b, c sphere.Vec) {
	return s.mesh.Vertices[s.mesh.Triangles[tri*3]],
		s.mesh.Vertices[s.mesh.Triangles[tri*3+1]],
		s.mesh.Vertices[s.mesh.Triangles[tri*3+2]]
}

// barycentric returns the (unnormalized-then-normalized) spherical
// barycentric weights of dir with respect to triangle (a,b,c): each weight
// is the signed volume of the tetrahedron spanned by the origin and the
// edge opposite its vertex, which is positive exactly when dir falls on the
// triangle's own side of that edge's great circle.
func barycentric(dir, a, b, c sphere.Vec) (wa, wb, wc float64) {
	wa = dot(cross(b, c), dir)
	wb = dot(cross(c, a), dir)
	wc = dot(cross(a, b), dir)
	if sum := wa + wb + wc; sum != 0 {
		wa, wb, wc = wa/sum, wb/sum, wc/sum
	}
	return wa, wb, wc
}

// oppositeEdge returns the triAdjacency edge index opposite the most
// negative of the three weights: edge 0 is (v0,v1) opposite wc, edge 1 is
// (v1,v2) opposite wa, edge 2 is (v2,v0) opposite wb.
func oppositeEdge(wa, wb, wc float64) int {
	switch {
	case wa <= wb && wa <= wc:
		return 1
	case wb <= wa && wb <= wc:
		return 2
	default:
		return 0
	}
}

func clampToSimplex(wa, wb, wc float64) (float64, float64, float64) {
	if wa < 0 {
		wa = 0
	}
	if wb < 0 {
		wb = 0
	}
	if wc < 0 {
		wc = 0
	}
	sum := wa + wb + wc
	if sum == 0 {
		return 1.0 / 3, 1.0 / 3, 1.0 / 3
	}
	return wa / sum, wb / sum, wc / sum
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func dot(a, b sphere.Vec) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func cross(a, b sphere.Vec) sphere.Vec {
	return sphere.Vec{X: a.Y*b.Z - a.Z*b.Y, Y: a.Z*b.X - a.X*b.Z, Z: a.X*b.Y - a.Y*b.X}
}
