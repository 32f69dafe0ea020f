// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package stress interpolates boundary stress onto render vertices and
// computes the planet's analytic thermal field (spec §4.7).
package stress

import (
	"math"

	"github.com/tectonica-sim/tectonica/boundary"
	"github.com/tectonica-sim/tectonica/hotspot"
	"github.com/tectonica-sim/tectonica/sphere"
)

// boundarySigma is the Gaussian falloff width (radians of arc distance)
// used to spread boundary stress onto nearby vertices (spec §4.7).
const boundarySigma = 10.0 * math.Pi / 180.0

// BoundaryPosition holds a boundary's current-time midpoint and stress;
// the caller (engine) derives the midpoint from the two plate-migrated
// reference positions that boundary.Boundary keeps.
type BoundaryPosition struct {
	Midpoint sphere.Vec
	Stress   float64 // MPa
}

// InterpolateStressToVertices Gaussian-weights every boundary's stress onto
// each vertex by arc distance to the boundary midpoint, normalizing by the
// total weight (spec §4.7).
func InterpolateStressToVertices(vertices []sphere.Vec, boundaries []BoundaryPosition) []float64 {
	result := make([]float64, len(vertices))
	if len(boundaries) == 0 {
		return result
	}
	twoSigma2 := 2 * boundarySigma * boundarySigma

	for i, v := range vertices {
		var weighted, totalWeight float64
		for _, b := range boundaries {
			d := sphere.Distance(v, b.Midpoint)
			w := math.Exp(-(d * d) / twoSigma2)
			weighted += w * b.Stress
			totalWeight += w
		}
		if totalWeight > 0 {
			result[i] = weighted / totalWeight
		}
	}
	return result
}

// ThermalConfig bounds the analytic thermal field (spec §4.7).
type ThermalConfig struct {
	MantleBaseline float64 // K, default 1600
	MaxTemperature float64 // K, default 3000
}

// DefaultThermalConfig returns the constants from spec §4.7.
func DefaultThermalConfig() ThermalConfig {
	return ThermalConfig{MantleBaseline: 1600, MaxTemperature: 3000}
}

// ConvergentSource is a convergent boundary contributing heat via its
// accumulated stress, used only when that stress exceeds 50 MPa (spec
// §4.7).
type ConvergentSource struct {
	Midpoint         sphere.Vec
	AccumulatedStress float64 // MPa
}

// ComputeThermalField evaluates the analytic temperature at each vertex:
// mantle baseline, plus a Gaussian hotspot contribution (σ =
// InfluenceRadius/2, T_max = 400·ThermalOutput), plus a linear-falloff
// contribution from nearby high-stress convergent boundaries (T_max =
// 2·AccumulatedStress within 0.1 rad), clamped to [0, MaxTemperature]
// (spec §4.7).
func ComputeThermalField(vertices []sphere.Vec, hotspots []*hotspot.Hotspot, convergent []ConvergentSource, cfg ThermalConfig) []float64 {
	const convergentRadius = 0.1
	const convergentStressFloor = 50.0

	result := make([]float64, len(vertices))
	for i, v := range vertices {
		t := cfg.MantleBaseline

		for _, h := range hotspots {
			d := sphere.Distance(v, h.Position)
			sigma := h.InfluenceRadius / 2
			tMax := 400 * h.ThermalOutput
			t += tMax * math.Exp(-(d*d)/(sigma*sigma))
		}

		for _, c := range convergent {
			if c.AccumulatedStress <= convergentStressFloor {
				continue
			}
			d := sphere.Distance(v, c.Midpoint)
			if d > convergentRadius {
				continue
			}
			tMax := 2 * c.AccumulatedStress
			t += tMax * (1 - d/convergentRadius)
		}

		result[i] = sphere.Clamp(t, 0, cfg.MaxTemperature)
	}
	return result
}

// BoundaryPositionsAndConvergent converts a set of already-updated
// boundaries (boundary.Update must have run this step, populating
// b.Midpoint) into the flat BoundaryPosition/ConvergentSource views this
// package consumes.
func BoundaryPositionsAndConvergent(boundaries []*boundary.Boundary) ([]BoundaryPosition, []ConvergentSource) {
	positions := make([]BoundaryPosition, 0, len(boundaries))
	var convergent []ConvergentSource
	for _, b := range boundaries {
		positions = append(positions, BoundaryPosition{Midpoint: b.Midpoint, Stress: b.Stress})
		if b.Classification == boundary.Convergent {
			convergent = append(convergent, ConvergentSource{Midpoint: b.Midpoint, AccumulatedStress: b.Stress})
		}
	}
	return positions, convergent
}
