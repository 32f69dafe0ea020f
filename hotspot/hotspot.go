// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package hotspot generates and drifts mantle hotspots: fixed-count,
// deterministically seeded thermal anomalies that drift across the sphere
// independent of plate motion.
package hotspot

import (
	"math"
	"math/rand"

	"github.com/tectonica-sim/tectonica/sphere"
)

// Kind distinguishes Major hotspots (wider influence, stronger output) from
// Minor ones (spec §4.8).
type Kind int

const (
	Minor Kind = iota
	Major
)

func (k Kind) String() string {
	if k == Major {
		return "major"
	}
	return "minor"
}

// Default influence radii in radians and thermal output scale, per kind.
const (
	MajorInfluenceRadius = 0.15
	MinorInfluenceRadius = 0.10
	MajorThermalOutput   = 2.0
	MinorThermalOutput   = 1.0
)

// Hotspot is one mantle plume: a drifting position with a fixed thermal
// signature.
type Hotspot struct {
	ID              int
	Kind            Kind
	Position        sphere.Vec
	ThermalOutput   float64
	InfluenceRadius float64 // radians
	Drift           sphere.Vec // tangent drift direction, scaled by speed
}

// Config controls hotspot generation counts and strength.
type Config struct {
	MajorCount         int
	MinorCount         int
	MajorThermalOutput float64
	MinorThermalOutput float64
	DriftSpeed         float64 // rad/My
}

// Generate deterministically creates MajorCount+MinorCount hotspots seeded
// by seed+1000 (spec §4.8): uniform spherical sampling for both position
// and drift direction.
func Generate(seed int64, cfg Config) []*Hotspot {
	rng := rand.New(rand.NewSource(seed + 1000))

	hotspots := make([]*Hotspot, 0, cfg.MajorCount+cfg.MinorCount)
	id := 0
	add := func(kind Kind, radius, output float64) {
		pos := randomUnitVec(rng)
		driftDir := randomUnitVec(rng)
		// Project drift onto the tangent plane at pos so it describes
		// motion along the sphere, not through it.
		tangent := tangentProjection(pos, driftDir)
		drift := sphere.Vec{
			X: tangent.X * cfg.DriftSpeed,
			Y: tangent.Y * cfg.DriftSpeed,
			Z: tangent.Z * cfg.DriftSpeed,
		}
		hotspots = append(hotspots, &Hotspot{
			ID: id, Kind: kind, Position: pos,
			ThermalOutput: output, InfluenceRadius: radius, Drift: drift,
		})
		id++
	}
	for i := 0; i < cfg.MajorCount; i++ {
		add(Major, MajorInfluenceRadius, cfg.MajorThermalOutput)
	}
	for i := 0; i < cfg.MinorCount; i++ {
		add(Minor, MinorInfluenceRadius, cfg.MinorThermalOutput)
	}
	return hotspots
}

func randomUnitVec(rng *rand.Rand) sphere.Vec {
	theta := rng.Float64() * 2 * math.Pi
	phi := math.Acos(2*rng.Float64() - 1)
	return sphere.Vec{
		X: math.Sin(phi) * math.Cos(theta),
		Y: math.Sin(phi) * math.Sin(theta),
		Z: math.Cos(phi),
	}
}

func tangentProjection(p, v sphere.Vec) sphere.Vec {
	dot := p.X*v.X + p.Y*v.Y + p.Z*v.Z
	proj := sphere.Vec{X: v.X - dot*p.X, Y: v.Y - dot*p.Y, Z: v.Z - dot*p.Z}
	n := math.Sqrt(proj.X*proj.X + proj.Y*proj.Y + proj.Z*proj.Z)
	if n < 1e-12 {
		east, _ := sphere.LocalFrame(p)
		return east
	}
	return sphere.Vec{X: proj.X / n, Y: proj.Y / n, Z: proj.Z / n}
}

// Step drifts h's position by Δt million years: rotate about
// axis = normalize(position × drift) by angle = |drift|·Δt via Rodrigues,
// renormalizing (spec §4.8). A zero-length drift leaves the position
// unchanged.
func (h *Hotspot) Step(dtMy float64) {
	axis, angle, ok := sphere.RotationAxisAngle(h.Position, h.Drift, dtMy)
	if !ok {
		return
	}
	h.Position = sphere.Rotate(h.Position, axis, angle)
}

// StressContribution returns this hotspot's thermal-to-stress contribution
// at point p: 10·ThermalOutput·exp(−d²/σ²) MPa within the influence
// radius, clamped to [0, 100] (spec §4.8).
func (h *Hotspot) StressContribution(p sphere.Vec) float64 {
	d := sphere.Distance(p, h.Position)
	if d > h.InfluenceRadius {
		return 0
	}
	sigma := h.InfluenceRadius / 2
	contribution := 10 * h.ThermalOutput * math.Exp(-(d*d)/(sigma*sigma))
	return sphere.Clamp(contribution, 0, 100)
}
