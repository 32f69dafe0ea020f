// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

package sampler

import (
	"math"
	"testing"

	"github.com/tectonica-sim/tectonica/icosphere"
	"github.com/tectonica-sim/tectonica/mesh"
	"github.com/tectonica-sim/tectonica/sphere"
)

func buildTestMesh(level int) *mesh.RenderMesh {
	ico := icosphere.Generate(level)
	return mesh.Build(ico.Vertices, ico.Triangles)
}

func equirect(v sphere.Vec) (u, vv float64) {
	u, lat := sphere.VecToEquirectangular(v)
	for u < 0 {
		u += 1
	}
	for u > 1 {
		u -= 1
	}
	vv = 0.5 - lat/math.Pi
	return u, vv
}

func TestSampleAtVertexReturnsThatVertexValue(t *testing.T) {
	m := buildTestMesh(2)
	s := New(m)

	values := make([]float64, len(m.Vertices))
	for i := range values {
		values[i] = float64(i)
	}

	for i, vtx := range m.Vertices {
		u, v := equirect(vtx)
		got := s.Sample(u, v, values)
		if math.Abs(got-values[i]) > 1e-6 {
			t.Errorf("vertex %d: Sample(%v,%v) = %v, want %v", i, u, v, got, values[i])
		}
	}
}

func TestSampleIsBoundedByTriangleValues(t *testing.T) {
	m := buildTestMesh(2)
	s := New(m)

	values := make([]float64, len(m.Vertices))
	lo, hi := math.MaxFloat64, -math.MaxFloat64
	for i, v := range m.Vertices {
		values[i] = v.X + 2*v.Y - v.Z
		if values[i] < lo {
			lo = values[i]
		}
		if values[i] > hi {
			hi = values[i]
		}
	}

	for u := 0.05; u < 1; u += 0.1 {
		for v := 0.05; v < 1; v += 0.1 {
			got := s.Sample(u, v, values)
			if got < lo-1e-6 || got > hi+1e-6 {
				t.Errorf("Sample(%v,%v) = %v, out of bounds [%v,%v]", u, v, got, lo, hi)
			}
		}
	}
}

func TestEstimateMemoryUsageIsPositive(t *testing.T) {
	m := buildTestMesh(2)
	s := New(m)
	usage := s.EstimateMemoryUsage()
	if usage.TriangleCount != len(m.Triangles)/3 {
		t.Errorf("TriangleCount = %d, want %d", usage.TriangleCount, len(m.Triangles)/3)
	}
	if usage.TreeBytes <= 0 {
		t.Errorf("TreeBytes = %d, want > 0", usage.TreeBytes)
	}
	if usage.AdjacencyBytes <= 0 {
		t.Errorf("AdjacencyBytes = %d, want > 0", usage.AdjacencyBytes)
	}
}

func TestBarycentricAtVertexIsDegenerate(t *testing.T) {
	m := buildTestMesh(1)
	s := New(m)
	a, b, c := s.triangleVertices(0)
	wa, wb, wc := barycentric(a, a, b, c)
	if math.Abs(wa-1) > 1e-9 || math.Abs(wb) > 1e-9 || math.Abs(wc) > 1e-9 {
		t.Errorf("barycentric(a; a,b,c) = (%v,%v,%v), want (1,0,0)", wa, wb, wc)
	}
}

func TestTriangleAdjacencyIsSymmetric(t *testing.T) {
	m := buildTestMesh(1)
	s := New(m)
	for tri, neighbors := range s.triAdjacency {
		for e, n := range neighbors {
			if n < 0 {
				t.Fatalf("triangle %d edge %d has no neighbor on a closed mesh", tri, e)
			}
			found := false
			for _, back := range s.triAdjacency[n] {
				if int(back) == tri {
					found = true
				}
			}
			if !found {
				t.Errorf("triangle %d's neighbor %d across edge %d does not point back", tri, n, e)
			}
		}
	}
}
