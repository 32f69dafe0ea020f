// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

package stress

import (
	"testing"

	"github.com/tectonica-sim/tectonica/hotspot"
	"github.com/tectonica-sim/tectonica/icosphere"
	"github.com/tectonica-sim/tectonica/sphere"
)

func TestInterpolateStressNonNegativeAndBounded(t *testing.T) {
	ico := icosphere.Generate(2)
	boundaries := []BoundaryPosition{
		{Midpoint: ico.Vertices[0], Stress: 80},
		{Midpoint: ico.Vertices[10], Stress: 30},
	}
	result := InterpolateStressToVertices(ico.Vertices, boundaries)
	if len(result) != len(ico.Vertices) {
		t.Fatalf("result length = %d, want %d", len(result), len(ico.Vertices))
	}
	for i, s := range result {
		if s < 0 || s > 80 {
			t.Errorf("vertex %d: interpolated stress %f out of plausible range", i, s)
		}
	}
}

func TestInterpolateStressPeaksNearestBoundary(t *testing.T) {
	ico := icosphere.Generate(2)
	boundaries := []BoundaryPosition{{Midpoint: ico.Vertices[0], Stress: 100}}
	result := InterpolateStressToVertices(ico.Vertices, boundaries)

	antipode := sphere.Vec{X: -ico.Vertices[0].X, Y: -ico.Vertices[0].Y, Z: -ico.Vertices[0].Z}
	var antipodeIdx int
	best := 2.0
	for i, v := range ico.Vertices {
		if d := sphere.Distance(v, antipode); d < best {
			best, antipodeIdx = d, i
		}
	}
	if result[0] <= result[antipodeIdx] {
		t.Errorf("stress at boundary vertex (%f) should exceed stress at antipode (%f)", result[0], result[antipodeIdx])
	}
}

func TestComputeThermalFieldWithinBounds(t *testing.T) {
	ico := icosphere.Generate(2)
	hs := hotspot.Generate(42, hotspot.Config{MajorCount: 2, MinorCount: 2, MajorThermalOutput: 1.5, MinorThermalOutput: 1, DriftSpeed: 0.01})
	cfg := DefaultThermalConfig()

	field := ComputeThermalField(ico.Vertices, hs, nil, cfg)
	for i, temp := range field {
		if temp < 0 || temp > cfg.MaxTemperature {
			t.Errorf("vertex %d: temperature %f out of [0, %f]", i, temp, cfg.MaxTemperature)
		}
		if temp < cfg.MantleBaseline-1e-6 {
			t.Errorf("vertex %d: temperature %f below mantle baseline %f", i, temp, cfg.MantleBaseline)
		}
	}
}

func TestComputeThermalFieldHotspotRaisesLocalTemperature(t *testing.T) {
	ico := icosphere.Generate(2)
	hs := []*hotspot.Hotspot{{
		ID: 0, Kind: hotspot.Major, Position: ico.Vertices[0],
		ThermalOutput: 2, InfluenceRadius: hotspot.MajorInfluenceRadius,
	}}
	cfg := DefaultThermalConfig()
	field := ComputeThermalField(ico.Vertices, hs, nil, cfg)

	if field[0] <= cfg.MantleBaseline {
		t.Errorf("temperature at hotspot center %f should exceed baseline %f", field[0], cfg.MantleBaseline)
	}
}

func TestComputeThermalFieldConvergentContribution(t *testing.T) {
	ico := icosphere.Generate(2)
	convergent := []ConvergentSource{{Midpoint: ico.Vertices[0], AccumulatedStress: 90}}
	cfg := DefaultThermalConfig()

	withConvergent := ComputeThermalField(ico.Vertices, nil, convergent, cfg)
	withoutConvergent := ComputeThermalField(ico.Vertices, nil, nil, cfg)

	if withConvergent[0] <= withoutConvergent[0] {
		t.Errorf("convergent contribution did not raise temperature: %f vs %f", withConvergent[0], withoutConvergent[0])
	}
}

func TestComputeThermalFieldIgnoresLowStressConvergent(t *testing.T) {
	ico := icosphere.Generate(2)
	convergent := []ConvergentSource{{Midpoint: ico.Vertices[0], AccumulatedStress: 10}}
	cfg := DefaultThermalConfig()

	field := ComputeThermalField(ico.Vertices, nil, convergent, cfg)
	if field[0] != cfg.MantleBaseline {
		t.Errorf("low-stress convergent boundary should not contribute: got %f, want baseline %f", field[0], cfg.MantleBaseline)
	}
}
