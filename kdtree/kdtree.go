// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package kdtree implements a balanced static KD-tree over unit-sphere point
// sets, used for nearest-neighbor queries (O(log N) typical) and k-nearest
// queries, which score every point (Voronoi assignment, re-tessellation
// field transfer, heightmap sampler triangle seeding).
//
// Distances are squared chord (Euclidean) distances, which order points on
// the unit sphere exactly as great-circle distance does. A nearest query
// skips the far side of a splitting plane whenever the squared distance
// from the query to that plane already exceeds the best squared chord
// distance found so far; that plane distance is a lower bound on the
// squared chord distance to every point beyond the plane.
package kdtree

import (
	"math"
	"sort"

	"github.com/tectonica-sim/tectonica/sphere"
)

// smallN is the point-count threshold under which brute force outperforms
// tree traversal (cache-friendly linear scan beats pointer-chasing for small
// sets), matching the "Small-N shortcut" called out in spec §4.1 and the
// brute-force path used for Voronoi assignment with few plates (§4.5).
const smallN = 32

// node is one KD-tree node, split on the axis cycling X→Y→Z with depth.
type node struct {
	point      sphere.Vec
	id         int
	axis       int
	left, right *node
}

// Tree is a balanced static spherical KD-tree.
type Tree struct {
	root  *node
	count int
	// small holds the original points for brute-force queries when the
	// point set is too small to benefit from tree traversal.
	small []point
}

type point struct {
	v  sphere.Vec
	id int
}

// MemoryUsage reports approximate memory consumed by the tree, for cache
// audits (spec §4.1 "Memory is reported for cache audits").
type MemoryUsage struct {
	NodeCount int
	NodeBytes int64
}

// nodeSize is the approximate in-memory size of one node: a Vec (24 bytes),
// an int id, an axis int, and two pointers.
const nodeSize = 24 + 8 + 8 + 8 + 8

// Build constructs a tree over points, each associated with the caller's own
// integer id (so callers may use plate IDs, vertex indices, or any other
// stable identifier rather than a positional index).
func Build(points []sphere.Vec, ids []int) *Tree {
	if len(points) != len(ids) {
		panic("kdtree: points and ids must have equal length")
	}
	t := &Tree{count: len(points)}
	if len(points) <= smallN {
		t.small = make([]point, len(points))
		for i, p := range points {
			t.small[i] = point{v: p, id: ids[i]}
		}
		return t
	}

	pts := make([]point, len(points))
	for i, p := range points {
		pts[i] = point{v: p, id: ids[i]}
	}
	t.root = buildRecursive(pts, 0)
	return t
}

func axisValue(v sphere.Vec, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func buildRecursive(pts []point, depth int) *node {
	if len(pts) == 0 {
		return nil
	}
	axis := depth % 3
	// Recursive median split on the cycling axis (spec §4.1).
	sortByAxis(pts, axis)
	mid := len(pts) / 2
	n := &node{point: pts[mid].v, id: pts[mid].id, axis: axis}
	n.left = buildRecursive(pts[:mid], depth+1)
	n.right = buildRecursive(pts[mid+1:], depth+1)
	return n
}

// sortByAxis orders pts ascending by the given axis's coordinate, used to
// find the median split point at each tree level (spec §4.1).
func sortByAxis(pts []point, axis int) {
	sort.Slice(pts, func(i, j int) bool {
		return axisValue(pts[i].v, axis) < axisValue(pts[j].v, axis)
	})
}

// Nearest returns the id of the closest point to query and the squared
// Euclidean distance to it. It reports ok=false for an empty tree.
func (t *Tree) Nearest(query sphere.Vec) (id int, distSq float64, ok bool) {
	if t.count == 0 {
		return 0, 0, false
	}
	if t.root == nil {
		best, bestID := -1.0, 0
		found := false
		for _, p := range t.small {
			d := sphere.Chord2(query, p.v)
			if !found || d < best {
				best, bestID, found = d, p.id, true
			}
		}
		return bestID, best, true
	}
	bestID := -1
	bestDist := math.MaxFloat64
	findNearest(t.root, query, &bestID, &bestDist)
	return bestID, bestDist, true
}

func findNearest(n *node, query sphere.Vec, bestID *int, bestDist *float64) {
	if n == nil {
		return
	}
	d := sphere.Chord2(query, n.point)
	if *bestID == -1 || d < *bestDist {
		*bestDist, *bestID = d, n.id
	}

	// Descend first into the child on the query's side of the splitting
	// plane (spec §4.1).
	diff := axisValue(query, n.axis) - axisValue(n.point, n.axis)
	first, second := n.left, n.right
	if diff > 0 {
		first, second = n.right, n.left
	}
	findNearest(first, query, bestID, bestDist)

	// Visit the far side only if it can hold a closer point: diff² is a
	// lower bound on the squared chord distance to any point beyond the
	// splitting plane.
	if diff*diff < *bestDist {
		findNearest(second, query, bestID, bestDist)
	}
}

// Neighbor is one candidate in a k-nearest result, ordered by ascending
// distance.
type Neighbor struct {
	ID     int
	DistSq float64
}

// KNearest returns up to k ids closest to query, ordered nearest-first.
func (t *Tree) KNearest(query sphere.Vec, k int) []Neighbor {
	if k <= 0 || t.count == 0 {
		return nil
	}
	var all []Neighbor
	if t.root == nil {
		for _, p := range t.small {
			all = append(all, Neighbor{ID: p.id, DistSq: sphere.Chord2(query, p.v)})
		}
	} else {
		collectAll(t.root, query, &all)
	}
	sortNeighbors(all)
	if k > len(all) {
		k = len(all)
	}
	return all[:k]
}

func collectAll(n *node, query sphere.Vec, out *[]Neighbor) {
	if n == nil {
		return
	}
	*out = append(*out, Neighbor{ID: n.id, DistSq: sphere.Chord2(query, n.point)})
	collectAll(n.left, query, out)
	collectAll(n.right, query, out)
}

func sortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(i, j int) bool { return ns[i].DistSq < ns[j].DistSq })
}

// Len returns the number of points in the tree.
func (t *Tree) Len() int { return t.count }

// EstimateMemoryUsage reports approximate node-memory consumption.
func (t *Tree) EstimateMemoryUsage() MemoryUsage {
	if t.root == nil {
		return MemoryUsage{NodeCount: len(t.small), NodeBytes: int64(len(t.small)) * 24}
	}
	n := countNodes(t.root)
	return MemoryUsage{NodeCount: n, NodeBytes: int64(n) * nodeSize}
}

func countNodes(n *node) int {
	if n == nil {
		return 0
	}
	return 1 + countNodes(n.left) + countNodes(n.right)
}
