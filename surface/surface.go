// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package surface implements the per-step surface processes: continental
// erosion, sediment diffusion, and oceanic age-subsidence dampening (spec
// §4.9).
package surface

import (
	"math"

	"github.com/tectonica-sim/tectonica/internal/parallel"
	"github.com/tectonica-sim/tectonica/mesh"
	"github.com/tectonica-sim/tectonica/plate"
	"github.com/tectonica-sim/tectonica/sphere"
)

// Oceanic ridge and abyssal-plain reference depths, in meters, used by the
// age-subsidence target-depth law (spec §4.9).
const (
	OceanicRidgeDepth  = -1000.0
	AbyssalPlainDepth  = -6000.0
	sedimentIterations = 10
)

// Config bundles the surface-process tuning parameters (spec §7
// Parameters, Surface group).
type Config struct {
	SeaLevel     float64 // meters
	PlanetRadius float64 // meters, scales adjacency's radian distances to run

	ErosionConstant       float64
	SedimentDiffusionRate float64

	OceanicDampeningConstant float64
	OceanicAgeSubsidenceCoeff float64

	MaxTemperature float64 // K, for ThermalFactor normalization
	MaxStress      float64 // MPa, for StressFactor normalization
}

// VertexData is the mutable per-vertex surface state surface processes
// read and update each step.
type VertexData struct {
	Elevation float64 // meters
	CrustAge  float64 // My, oceanic only
}

// ApplyContinentalErosion runs stress-driven uplift followed by
// slope/thermal/stress-modulated erosion on every above-sea-level
// continental vertex (spec §4.9).
func ApplyContinentalErosion(data []VertexData, crust []plate.CrustType, adjacency mesh.Adjacency, stress, temperature []float64, dtMy float64, cfg Config) {
	next := elevations(data)

	parallel.For(len(data), func(i int) {
		if crust[i] != plate.Continental {
			return
		}
		e := data[i].Elevation + 100*stress[i]
		if e < 250 {
			e = 250
		}

		if e > cfg.SeaLevel {
			slope := maxSlope(i, e, data, adjacency, cfg.PlanetRadius)
			thermalFactor := 1 + 0.5*temperature[i]/cfg.MaxTemperature
			stressFactor := 1 + 0.3*stress[i]/cfg.MaxStress
			erosionRate := cfg.ErosionConstant * slope * (e - cfg.SeaLevel) * thermalFactor * stressFactor
			e -= erosionRate * dtMy
			if e < cfg.SeaLevel {
				e = cfg.SeaLevel
			}
		}
		next[i] = e
	})

	for i := range data {
		data[i].Elevation = next[i]
	}
}

func elevations(data []VertexData) []float64 {
	out := make([]float64, len(data))
	for i, d := range data {
		out[i] = d.Elevation
	}
	return out
}

// maxSlope returns the maximum rise-over-run to any neighbor of vertex i
// (spec §4.9), where rise is the elevation difference in meters and run
// is the neighbor's geodesic distance scaled to the planet's radius.
func maxSlope(i int, elevation float64, data []VertexData, adjacency mesh.Adjacency, planetRadius float64) float64 {
	start, end := adjacency.Offsets[i], adjacency.Offsets[i+1]
	var best float64
	for off := start; off < end; off++ {
		j := adjacency.Indices[off]
		rise := math.Abs(elevation - data[j].Elevation)
		run := adjacency.Distances[off] * planetRadius
		if run <= 0 {
			continue
		}
		if s := rise / run; s > best {
			best = s
		}
	}
	return best
}

// ApplySedimentTransport diffuses continental-origin sediment to lower-
// elevation neighbors over sedimentIterations relaxation passes per step,
// conserving mass via disjoint-output buffers (spec §4.9).
func ApplySedimentTransport(data []VertexData, crust []plate.CrustType, adjacency mesh.Adjacency, dtMy float64, cfg Config) {
	rate := cfg.SedimentDiffusionRate * dtMy / sedimentIterations

	for iter := 0; iter < sedimentIterations; iter++ {
		next := elevations(data)

		parallel.For(len(data), func(i int) {
			if crust[i] != plate.Continental {
				return
			}
			start, end := adjacency.Offsets[i], adjacency.Offsets[i+1]
			var transferred float64
			for off := start; off < end; off++ {
				j := adjacency.Indices[off]
				if crust[j] != plate.Continental {
					continue
				}
				// A negative delta is inflow from a higher neighbor: j
				// computes the same exchange with the opposite sign, so
				// each pair's transfer cancels and total mass is kept.
				delta := data[i].Elevation - data[j].Elevation
				transferred += delta * rate
			}
			next[i] = data[i].Elevation - transferred
		})

		for i := range data {
			data[i].Elevation = next[i]
		}
	}
}

// ApplyOceanicDampening ages and smooths oceanic crust below sea level: a
// self-weighted Gaussian smoothing pass (self-weight 1, per spec), an
// age-subsidence target pull, and a hard clamp below sea level. Vertices
// within ~0.01 rad of a Divergent boundary have their crust age reset to
// 0, simulating fresh ridge crust (spec §4.9).
func ApplyOceanicDampening(data []VertexData, crust []plate.CrustType, adjacency mesh.Adjacency, divergentDistance []float64, dtMy float64, cfg Config) {
	const ridgeResetDistance = 0.01

	nextElevation := elevations(data)
	nextAge := make([]float64, len(data))
	for i := range data {
		nextAge[i] = data[i].CrustAge
	}

	dampFactor := sphere.Clamp01(cfg.OceanicDampeningConstant * dtMy)
	agePullScale := 0.01 * dtMy

	parallel.For(len(data), func(i int) {
		if crust[i] != plate.Oceanic || data[i].Elevation >= cfg.SeaLevel {
			nextElevation[i] = data[i].Elevation
			nextAge[i] = data[i].CrustAge
			return
		}

		age := data[i].CrustAge + dtMy
		if divergentDistance != nil && divergentDistance[i] < ridgeResetDistance {
			age = 0
		}

		targetDepth := math.Max(OceanicRidgeDepth-cfg.OceanicAgeSubsidenceCoeff*math.Sqrt(age), AbyssalPlainDepth)

		start, end := adjacency.Offsets[i], adjacency.Offsets[i+1]
		var weightedSum float64
		for off := start; off < end; off++ {
			j := adjacency.Indices[off]
			weightedSum += adjacency.Weights[off] * data[j].Elevation
		}
		weightTotal := adjacency.WeightTotals[i]

		smoothed := data[i].Elevation
		if weightTotal > 1e-12 {
			smoothed = (data[i].Elevation + weightedSum) / (1 + weightTotal)
		}

		damped := data[i].Elevation + (smoothed-data[i].Elevation)*dampFactor
		pulled := damped + (targetDepth-damped)*agePullScale
		clamped := math.Min(pulled, cfg.SeaLevel-1)

		nextElevation[i] = clamped
		nextAge[i] = age
	})

	for i := range data {
		data[i].Elevation = nextElevation[i]
		data[i].CrustAge = nextAge[i]
	}
}
