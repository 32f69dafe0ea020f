// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package voronoi assigns render-mesh vertices to plates by nearest
// centroid, with optional Perlin warping for irregular continent
// boundaries, and relaxes centroids toward their cells' mass center
// (Lloyd relaxation).
package voronoi

import (
	"github.com/aquilax/go-perlin"

	"github.com/tectonica-sim/tectonica/kdtree"
	"github.com/tectonica-sim/tectonica/sphere"
)

// bruteForceThreshold is the plate count below which brute-force nearest
// search beats a KD-tree build: better cache behavior dominates for the
// handful of plates a typical planet carries (spec §4.5).
const bruteForceThreshold = 50

// Warp configures the optional Voronoi boundary warping noise.
type Warp struct {
	Enabled   bool
	Amplitude float64
	Frequency float64
	Seed      int64
}

// Assign returns, for each vertex, the index into centroids of its
// assigned plate: the centroid minimizing squared chord distance, with an
// optional warp factor applied to that distance (spec §4.5).
func Assign(vertices []sphere.Vec, centroids []sphere.Vec, warp Warp) []int {
	assignment := make([]int, len(vertices))

	var noise *perlin.Perlin
	if warp.Enabled {
		noise = perlin.NewPerlin(2, 2, 3, warp.Seed)
	}

	if len(centroids) < bruteForceThreshold {
		for i, v := range vertices {
			assignment[i] = nearestBruteForce(v, centroids, noise, warp)
		}
		return assignment
	}

	ids := make([]int, len(centroids))
	for i := range ids {
		ids[i] = i
	}
	tree := kdtree.Build(centroids, ids)

	for i, v := range vertices {
		if !warp.Enabled {
			id, _, ok := tree.Nearest(v)
			if ok {
				assignment[i] = id
				continue
			}
		}
		// Warping perturbs distances non-uniformly per centroid, which the
		// tree's pruning does not account for; fall back to brute force
		// whenever warp is enabled.
		assignment[i] = nearestBruteForce(v, centroids, noise, warp)
	}
	return assignment
}

func nearestBruteForce(v sphere.Vec, centroids []sphere.Vec, noise *perlin.Perlin, warp Warp) int {
	best, bestID := -1.0, -1
	for i, c := range centroids {
		d2 := sphere.Chord2(v, c)
		if warp.Enabled {
			sum := sphere.Vec{X: v.X + c.X, Y: v.Y + c.Y, Z: v.Z + c.Z}
			n := noise.Noise3D(sum.X*warp.Frequency, sum.Y*warp.Frequency, sum.Z*warp.Frequency)
			d2 *= 1 + warp.Amplitude*n
		}
		if bestID == -1 || d2 < best {
			best, bestID = d2, i
		}
	}
	return bestID
}

// RelaxConfig controls Lloyd relaxation of Voronoi centroids.
type RelaxConfig struct {
	Alpha         float64 // fraction of the way each centroid moves toward its cell mean per step, default 0.5
	MaxIterations int
	ConvergeDelta float64 // stop when max per-centroid shift < this (radians)
}

// DefaultRelaxConfig returns the relaxation parameters from spec §4.5.
func DefaultRelaxConfig() RelaxConfig {
	return RelaxConfig{Alpha: 0.5, MaxIterations: 20, ConvergeDelta: 0.01}
}

// Relax performs Lloyd relaxation: repeatedly reassigns vertices to the
// current centroids, moves each centroid a fraction Alpha of the way
// toward the normalized mean of its cell (then renormalizes), until the largest
// single-centroid angular shift drops below ConvergeDelta or the iteration
// cap is reached. It returns the relaxed centroids and the final
// assignment.
func Relax(vertices []sphere.Vec, centroids []sphere.Vec, warp Warp, cfg RelaxConfig) ([]sphere.Vec, []int) {
	current := append([]sphere.Vec(nil), centroids...)
	var assignment []int

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		assignment = Assign(vertices, current, warp)

		sums := make([]sphere.Vec, len(current))
		counts := make([]int, len(current))
		for i, v := range vertices {
			p := assignment[i]
			sums[p].X += v.X
			sums[p].Y += v.Y
			sums[p].Z += v.Z
			counts[p]++
		}

		maxDelta := 0.0
		next := make([]sphere.Vec, len(current))
		for i := range current {
			if counts[i] == 0 {
				next[i] = current[i]
				continue
			}
			mean := sphere.Unit(sphere.Vec{
				X: sums[i].X / float64(counts[i]),
				Y: sums[i].Y / float64(counts[i]),
				Z: sums[i].Z / float64(counts[i]),
			})
			blended := sphere.Unit(sphere.Vec{
				X: sphere.Lerp(current[i].X, mean.X, cfg.Alpha),
				Y: sphere.Lerp(current[i].Y, mean.Y, cfg.Alpha),
				Z: sphere.Lerp(current[i].Z, mean.Z, cfg.Alpha),
			})
			next[i] = blended
			if d := sphere.Distance(current[i], blended); d > maxDelta {
				maxDelta = d
			}
		}
		current = next
		if maxDelta < cfg.ConvergeDelta {
			break
		}
	}

	assignment = Assign(vertices, current, warp)
	return current, assignment
}
