// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

package amplify

import (
	"testing"

	"github.com/tectonica-sim/tectonica/sphere"
)

func TestSampleHeightBilinearInterpolation(t *testing.T) {
	// 2x2 heightfield: corners 0, 65535, 65535, 0 (top-left, top-right,
	// bottom-left, bottom-right), elevation range [0, 1000].
	ex := &ExemplarMetadata{
		ElevationMinM: 0,
		ElevationMaxM: 1000,
		Resolution:    ExemplarResolution{WidthPx: 2, HeightPx: 2},
	}
	ex.heightData = []uint16{0, 65535, 65535, 0}

	center := SampleHeight(ex, 0.5, 0.5, 0)
	if center < 400 || center > 600 {
		t.Errorf("center sample = %f, want near 500 (average of corners)", center)
	}

	topLeft := SampleHeight(ex, 0, 0, 0)
	if topLeft > 50 {
		t.Errorf("top-left sample = %f, want near 0", topLeft)
	}

	topRight := SampleHeight(ex, 1, 0, 0)
	if topRight < 950 {
		t.Errorf("top-right sample = %f, want near 1000", topRight)
	}
}

func TestSampleHeightClampsEdges(t *testing.T) {
	ex := &ExemplarMetadata{
		ElevationMinM: 0,
		ElevationMaxM: 1000,
		Resolution:    ExemplarResolution{WidthPx: 2, HeightPx: 2},
	}
	ex.heightData = []uint16{0, 65535, 65535, 0}

	eps := 0.1
	atEdge := SampleHeight(ex, 0, 0, eps)
	beyondEdge := SampleHeight(ex, -5, -5, eps)
	if atEdge != beyondEdge {
		t.Errorf("out-of-range UV should clamp to the same sample as the edge: %f vs %f", atEdge, beyondEdge)
	}
}

func TestSampleHeightNoDataReturnsZero(t *testing.T) {
	ex := &ExemplarMetadata{Resolution: ExemplarResolution{WidthPx: 2, HeightPx: 2}}
	if got := SampleHeight(ex, 0.5, 0.5, 0); got != 0 {
		t.Errorf("SampleHeight with nil heightData = %f, want 0", got)
	}
}

func TestLibraryForTerrainTypeAndFind(t *testing.T) {
	lib := &Library{byID: map[string]*ExemplarMetadata{}}
	lib.exemplars = []ExemplarMetadata{
		{ID: "h1", Region: "Himalayan"},
		{ID: "a1", Region: "Andean"},
		{ID: "p1", Region: "Ancient"},
	}
	for i := range lib.exemplars {
		lib.byID[lib.exemplars[i].ID] = &lib.exemplars[i]
	}

	if got := lib.ForTerrainType(HimalayanMountains); len(got) != 1 || got[0].ID != "h1" {
		t.Errorf("ForTerrainType(Himalayan) = %v, want [h1]", got)
	}
	if got := lib.ForTerrainType(AndeanMountains); len(got) != 1 || got[0].ID != "a1" {
		t.Errorf("ForTerrainType(Andean) = %v, want [a1]", got)
	}
	if got := lib.ForTerrainType(Plain); len(got) != 1 || got[0].ID != "p1" {
		t.Errorf("ForTerrainType(Plain) = %v, want [p1]", got)
	}
	if got := lib.ForTerrainType(OldMountains); len(got) != 1 || got[0].ID != "p1" {
		t.Errorf("ForTerrainType(OldMountains) = %v, want [p1]", got)
	}

	if _, ok := lib.Find("h1"); !ok {
		t.Error("Find(h1) = not found, want found")
	}
	if _, ok := lib.Find("missing"); ok {
		t.Error("Find(missing) = found, want not found")
	}
}

func TestExemplarMetadataHasBounds(t *testing.T) {
	withBounds := &ExemplarMetadata{Bounds: &ExemplarBounds{WestLonDeg: -10, EastLonDeg: 10}}
	without := &ExemplarMetadata{}

	if !withBounds.HasBounds() {
		t.Error("expected HasBounds() = true")
	}
	if without.HasBounds() {
		t.Error("expected HasBounds() = false")
	}
}

func TestComputeForcedPaddingClampsToRange(t *testing.T) {
	tests := []struct {
		name        string
		bounds      ExemplarBounds
		wantLonPad  float64
		wantLatPad  float64
	}{
		{"narrow region clamps to minimum", ExemplarBounds{WestLonDeg: 0, EastLonDeg: 1, SouthLatDeg: 0, NorthLatDeg: 1}, 1.5, 1.5},
		{"wide region clamps to maximum", ExemplarBounds{WestLonDeg: -60, EastLonDeg: 60, SouthLatDeg: -40, NorthLatDeg: 40}, 5, 5},
		{"mid-size region uses half the range", ExemplarBounds{WestLonDeg: -4, EastLonDeg: 4, SouthLatDeg: -5, NorthLatDeg: 5}, 4, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lonPad, latPad := tt.bounds.ComputeForcedPadding()
			if lonPad != tt.wantLonPad {
				t.Errorf("lonPad = %v, want %v", lonPad, tt.wantLonPad)
			}
			if latPad != tt.wantLatPad {
				t.Errorf("latPad = %v, want %v", latPad, tt.wantLatPad)
			}
		})
	}
}

func TestForcedUVMapsCenterOfBoundsToUVCenter(t *testing.T) {
	bounds := ExemplarBounds{WestLonDeg: -10, EastLonDeg: 10, SouthLatDeg: -10, NorthLatDeg: 10}
	center := sphere.Unit(sphere.Vec{X: 1, Y: 0, Z: 0}) // lon=0, lat=0: the bounds' center

	u, v := ForcedUV(center, bounds)
	if u < 0.49 || u > 0.51 {
		t.Errorf("u = %v, want near 0.5", u)
	}
	if v < 0.49 || v > 0.51 {
		t.Errorf("v = %v, want near 0.5", v)
	}
}

func TestForcedUVClampsOutsideBounds(t *testing.T) {
	bounds := ExemplarBounds{WestLonDeg: -10, EastLonDeg: 10, SouthLatDeg: -10, NorthLatDeg: 10}
	farAway := sphere.Unit(sphere.Vec{X: 0, Y: 0, Z: 1}) // the north pole

	u, v := ForcedUV(farAway, bounds)
	if u < 0 || u > 1 || v < 0 || v > 1 {
		t.Errorf("ForcedUV(%v) = (%v, %v), want both within [0, 1]", farAway, u, v)
	}
}

func TestComputeForcedExemplarAmplificationUnsetOrMissingFallsBack(t *testing.T) {
	lib := &Library{byID: map[string]*ExemplarMetadata{}}
	lib.exemplars = []ExemplarMetadata{{ID: "h1", Region: "Himalayan"}}
	for i := range lib.exemplars {
		lib.byID[lib.exemplars[i].ID] = &lib.exemplars[i]
	}
	pos := sphere.Unit(sphere.Vec{X: 1, Y: 0, Z: 0})

	if _, ok := ComputeForcedExemplarAmplification(pos, 0, lib, ""); ok {
		t.Error("empty forcedID: ok = true, want false")
	}
	if _, ok := ComputeForcedExemplarAmplification(pos, 0, lib, "missing"); ok {
		t.Error("unknown forcedID: ok = true, want false")
	}
}

func TestComputeForcedExemplarAmplificationSamplesNamedExemplar(t *testing.T) {
	ex := ExemplarMetadata{
		ID:             "h1",
		Region:         "Himalayan",
		ElevationMinM:  0,
		ElevationMaxM:  1000,
		ElevationMeanM: 500,
		Resolution:     ExemplarResolution{WidthPx: 2, HeightPx: 2},
		Bounds:         &ExemplarBounds{WestLonDeg: -10, EastLonDeg: 10, SouthLatDeg: -10, NorthLatDeg: 10},
	}
	ex.heightData = []uint16{32768, 32768, 32768, 32768} // flat ~500m everywhere

	lib := &Library{byID: map[string]*ExemplarMetadata{}}
	lib.exemplars = []ExemplarMetadata{ex}
	lib.byID["h1"] = &lib.exemplars[0]

	pos := sphere.Unit(sphere.Vec{X: 1, Y: 0, Z: 0})
	elevation, ok := ComputeForcedExemplarAmplification(pos, 500, lib, "h1")
	if !ok {
		t.Fatal("ComputeForcedExemplarAmplification: ok = false, want true")
	}
	if elevation < 495 || elevation > 505 {
		t.Errorf("elevation = %v, want near 500 (flat heightfield at its own mean)", elevation)
	}
}
