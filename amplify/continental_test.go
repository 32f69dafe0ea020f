// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

package amplify

import (
	"math"
	"testing"

	"github.com/tectonica-sim/tectonica/sphere"
)

func TestClassifyTerrainType(t *testing.T) {
	cases := []struct {
		name                     string
		isNearConvergentBoundary bool
		differingCrustTypes      bool
		orogenyAgeMy             float64
		baseElevationM           float64
		want                     TerrainType
	}{
		{"far from boundary, low elevation", false, false, 0, 100, Plain},
		{"old orogeny always erodes", true, false, 150, 4000, OldMountains},
		{"old orogeny even with differing crust", true, true, 200, 4000, OldMountains},
		{"young subduction is andean", true, true, 10, 4000, AndeanMountains},
		{"young collision is himalayan", true, false, 10, 4000, HimalayanMountains},
		{"near boundary but high elevation not plain", true, false, 10, 4000, HimalayanMountains},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ClassifyTerrainType(c.isNearConvergentBoundary, c.differingCrustTypes, c.orogenyAgeMy, c.baseElevationM)
			if got != c.want {
				t.Errorf("got %v, want %v", got, c.want)
			}
		})
	}
}

func TestTerrainTypeString(t *testing.T) {
	cases := map[TerrainType]string{
		Plain:              "plain",
		OldMountains:       "old-mountains",
		AndeanMountains:    "andean",
		HimalayanMountains: "himalayan",
	}
	for tt, want := range cases {
		if got := tt.String(); got != want {
			t.Errorf("TerrainType(%d).String() = %q, want %q", tt, got, want)
		}
	}
}

func TestEquirectangularUVRangeAndWrap(t *testing.T) {
	positions := []sphere.Vec{
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
		{X: -1, Y: 0, Z: 0},
		{X: 0.3, Y: -0.7, Z: 0.4},
	}
	for _, p := range positions {
		u, v := equirectangularUV(sphere.Unit(p))
		if u < 0 || u > 1 || v < 0 || v > 1 {
			t.Errorf("equirectangularUV(%v) = (%f, %f) out of [0,1]", p, u, v)
		}
	}
}

func TestRotateUVIsRotation(t *testing.T) {
	u, v := 0.3, 0.1
	ru, rv := rotateUV(u, v, math.Pi/2)

	if math.Abs(ru-(-v)) > 1e-9 || math.Abs(rv-u) > 1e-9 {
		t.Errorf("rotateUV(%f, %f, pi/2) = (%f, %f), want (%f, %f)", u, v, ru, rv, -v, u)
	}

	magBefore := math.Hypot(u, v)
	magAfter := math.Hypot(ru, rv)
	if math.Abs(magBefore-magAfter) > 1e-9 {
		t.Errorf("rotateUV changed magnitude: %f -> %f", magBefore, magAfter)
	}
}

func TestComputeFoldAngleRejectsDistantBoundary(t *testing.T) {
	position := sphere.Unit(sphere.Vec{X: 1, Y: 0, Z: 0})
	tangent := sphere.Unit(sphere.Vec{X: 0, Y: 1, Z: 0})

	if _, ok := ComputeFoldAngle(position, tangent, FoldAlignmentMaxRadians+0.01); ok {
		t.Error("expected ok=false for boundary distance beyond FoldAlignmentMaxRadians")
	}
	if _, ok := ComputeFoldAngle(position, tangent, FoldAlignmentMaxRadians-0.01); !ok {
		t.Error("expected ok=true for boundary distance within FoldAlignmentMaxRadians")
	}
}

func TestComputeUVDeterministicForSameSeed(t *testing.T) {
	position := sphere.Unit(sphere.Vec{X: 0.2, Y: 0.5, Z: 0.8})
	cfg := DefaultContinentalConfig(7)

	u1, v1 := ComputeUV(position, 7, cfg, 0, false)
	u2, v2 := ComputeUV(position, 7, cfg, 0, false)
	if u1 != u2 || v1 != v2 {
		t.Errorf("ComputeUV not deterministic: (%f,%f) vs (%f,%f)", u1, v1, u2, v2)
	}

	cfgOther := DefaultContinentalConfig(8)
	u3, v3 := ComputeUV(position, 8, cfgOther, 0, false)
	if u1 == u3 && v1 == v3 {
		t.Error("different seeds produced identical UV, expected jitter to differ")
	}
}

func TestComputeUVStaysInUnitSquare(t *testing.T) {
	cfg := DefaultContinentalConfig(3)
	for i := 0; i < 20; i++ {
		p := sphere.Unit(sphere.Vec{X: float64(i) * 0.13, Y: float64(i) * -0.07, Z: 0.5})
		u, v := ComputeUV(p, 3, cfg, 0.4, true)
		if u < 0 || u >= 1 || v < 0 || v >= 1 {
			t.Errorf("ComputeUV(%v) = (%f, %f) out of [0,1)", p, u, v)
		}
	}
}

func newTestExemplar(id, region string, heightConst uint16) *ExemplarMetadata {
	const w, h = 4, 4
	data := make([]uint16, w*h)
	for i := range data {
		data[i] = heightConst
	}
	ex := &ExemplarMetadata{
		ID:             id,
		Region:         region,
		ElevationMinM:  0,
		ElevationMaxM:  65535,
		ElevationMeanM: float64(heightConst),
		Resolution:     ExemplarResolution{WidthPx: w, HeightPx: h},
	}
	ex.heightData = data
	return ex
}

func TestBlendExemplarsWeightsFavorFirstMatch(t *testing.T) {
	lib := &Library{byID: map[string]*ExemplarMetadata{}}
	a := newTestExemplar("a", "Himalayan", 60000)
	b := newTestExemplar("b", "Himalayan", 0)
	lib.exemplars = []ExemplarMetadata{*a, *b}
	lib.byID["a"] = &lib.exemplars[0]
	lib.byID["b"] = &lib.exemplars[1]

	matches := []*ExemplarMetadata{&lib.exemplars[0], &lib.exemplars[1]}
	cfg := DefaultContinentalConfig(1)

	blended, refMean, ok := BlendExemplars(lib, matches, 0.5, 0.5, cfg)
	if !ok {
		t.Fatal("BlendExemplars returned ok=false")
	}
	if refMean != 60000 {
		t.Errorf("refMean = %f, want 60000 (first match's mean)", refMean)
	}

	// weights are 1 and 1/2: blended should be closer to a's height than
	// a plain average would be.
	plainAverage := (60000.0 + 0.0) / 2
	if blended <= plainAverage {
		t.Errorf("blended = %f, want > plain average %f since first match is weighted higher", blended, plainAverage)
	}
}

func TestBlendExemplarsNoMatches(t *testing.T) {
	lib := &Library{byID: map[string]*ExemplarMetadata{}}
	cfg := DefaultContinentalConfig(1)
	if _, _, ok := BlendExemplars(lib, nil, 0.5, 0.5, cfg); ok {
		t.Error("expected ok=false for empty matches")
	}
}

func TestBlendCacheInvalidatesOnSerialChange(t *testing.T) {
	cache := NewBlendCache(2)
	calls := 0
	compute := func() (float64, bool) {
		calls++
		return 123.0, true
	}

	v1, ok := cache.ReferenceMean(0, 1, compute)
	if !ok || v1 != 123.0 || calls != 1 {
		t.Fatalf("first call: v=%f ok=%v calls=%d", v1, ok, calls)
	}

	v2, ok := cache.ReferenceMean(0, 1, compute)
	if !ok || v2 != 123.0 || calls != 1 {
		t.Fatalf("cached call should not recompute: v=%f ok=%v calls=%d", v2, ok, calls)
	}

	v3, ok := cache.ReferenceMean(0, 2, compute)
	if !ok || v3 != 123.0 || calls != 2 {
		t.Fatalf("serial bump should recompute: v=%f ok=%v calls=%d", v3, ok, calls)
	}
}

func TestComputeContinentalAmplificationOldMountainsHalvesDetail(t *testing.T) {
	lib := &Library{byID: map[string]*ExemplarMetadata{}}
	ex := newTestExemplar("ancient", "Ancient", 40000)
	// A reference mean below the flat sample height gives a nonzero detail
	// term (blended 40000 minus mean 30000).
	ex.ElevationMeanM = 30000
	lib.exemplars = []ExemplarMetadata{*ex}
	lib.byID["ancient"] = &lib.exemplars[0]

	cfg := DefaultContinentalConfig(1)
	position := sphere.Unit(sphere.Vec{X: 0.5, Y: 0.5, Z: 0.5})

	amplified := ComputeContinentalAmplification(position, 2000, OldMountains, 150, lib, 1, cfg, 0, false)
	if amplified == 2000 {
		t.Error("expected amplification to apply some detail even for old mountains")
	}

	// Plain maps to the same Ancient exemplar but with no orogeny age, so
	// its detail is not halved.
	young := ComputeContinentalAmplification(position, 2000, Plain, 0, lib, 1, cfg, 0, false)
	if math.Abs((amplified-2000)-0.5*(young-2000)) > 1e-6 {
		t.Errorf("old-mountain detail = %f, want half of young detail %f", amplified-2000, young-2000)
	}
}
