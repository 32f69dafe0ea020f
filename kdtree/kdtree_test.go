// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

package kdtree

import (
	"math"
	"math/rand"
	"testing"

	"github.com/tectonica-sim/tectonica/sphere"
)

func randomUnitVec(rng *rand.Rand) sphere.Vec {
	theta := rng.Float64() * 2 * math.Pi
	phi := math.Acos(2*rng.Float64() - 1)
	return sphere.Vec{
		X: math.Sin(phi) * math.Cos(theta),
		Y: math.Sin(phi) * math.Sin(theta),
		Z: math.Cos(phi),
	}
}

func bruteNearest(points []sphere.Vec, query sphere.Vec) (int, float64) {
	best, bestID := math.MaxFloat64, -1
	for i, p := range points {
		d := sphere.Chord2(query, p)
		if d < best {
			best, bestID = d, i
		}
	}
	return bestID, best
}

func TestNearestMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	points := make([]sphere.Vec, 200)
	ids := make([]int, 200)
	for i := range points {
		points[i] = randomUnitVec(rng)
		ids[i] = i
	}
	tree := Build(points, ids)

	for i := 0; i < 50; i++ {
		q := randomUnitVec(rng)
		wantID, wantDist := bruteNearest(points, q)
		gotID, gotDist, ok := tree.Nearest(q)
		if !ok {
			t.Fatalf("Nearest returned ok=false for non-empty tree")
		}
		if gotID != wantID {
			t.Errorf("Nearest(%v) = %d (dist %.6f), want %d (dist %.6f)", q, gotID, gotDist, wantID, wantDist)
		}
	}
}

func TestNearestSmallN(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	points := make([]sphere.Vec, 5)
	ids := make([]int, 5)
	for i := range points {
		points[i] = randomUnitVec(rng)
		ids[i] = i * 10
	}
	tree := Build(points, ids)
	q := points[2]
	id, dist, ok := tree.Nearest(q)
	if !ok || id != 20 || dist > 1e-9 {
		t.Errorf("Nearest(points[2]) = (%d, %.9f, %v), want (20, ~0, true)", id, dist, ok)
	}
}

func TestKNearestOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	points := make([]sphere.Vec, 100)
	ids := make([]int, 100)
	for i := range points {
		points[i] = randomUnitVec(rng)
		ids[i] = i
	}
	tree := Build(points, ids)

	q := randomUnitVec(rng)
	neighbors := tree.KNearest(q, 3)
	if len(neighbors) != 3 {
		t.Fatalf("KNearest returned %d neighbors, want 3", len(neighbors))
	}
	for i := 1; i < len(neighbors); i++ {
		if neighbors[i].DistSq < neighbors[i-1].DistSq {
			t.Errorf("KNearest not sorted ascending: %v", neighbors)
		}
	}
}

func TestEmptyTree(t *testing.T) {
	tree := Build(nil, nil)
	if _, _, ok := tree.Nearest(sphere.Vec{X: 1}); ok {
		t.Error("Nearest on empty tree should report ok=false")
	}
	if n := tree.KNearest(sphere.Vec{X: 1}, 3); n != nil {
		t.Errorf("KNearest on empty tree = %v, want nil", n)
	}
}
