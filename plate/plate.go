// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package plate defines tectonic plates: their Euler poles, crust
// properties, and the Rodrigues-rotation centroid migration that drives
// plate motion each step.
package plate

import (
	"math"
	"math/rand"

	"github.com/tectonica-sim/tectonica/sphere"
)

// CrustType distinguishes oceanic from continental plates, which carry
// different default thickness and different surface-process treatment
// (erosion for continental, dampening/subsidence for oceanic).
type CrustType int

const (
	Oceanic CrustType = iota
	Continental
)

func (c CrustType) String() string {
	if c == Continental {
		return "continental"
	}
	return "oceanic"
}

// Default crust thickness in meters.
const (
	DefaultOceanicThickness     = 7_000.0
	DefaultContinentalThickness = 35_000.0
)

// Plate is one tectonic plate: a rigid body on the unit sphere rotating
// about its own Euler pole at a fixed angular velocity.
type Plate struct {
	ID    int
	Crust CrustType

	// Centroid is the plate's present-time representative point, kept in
	// sync with EulerPoleAxis/AngularVelocity as the plate migrates.
	Centroid sphere.Vec

	CrustThickness  float64 // meters
	EulerPoleAxis   sphere.Vec
	AngularVelocity float64 // rad/My, always >= 0
}

// Config controls the distribution of generated plates' initial motion and
// crust assignment.
type Config struct {
	MinAngularVelocity float64 // rad/My, default 0.01
	MaxAngularVelocity float64 // rad/My, default 0.1
	OceanicFraction    float64 // default 0.7
}

// DefaultConfig returns the distribution described by §4.4.
func DefaultConfig() Config {
	return Config{
		MinAngularVelocity: 0.01,
		MaxAngularVelocity: 0.1,
		OceanicFraction:    0.7,
	}
}

// Generate builds one Plate per centroid, in centroid order, assigning
// Euler poles and angular velocities from a stream seeded with seed+1 and
// crust type by a seeded shuffle that guarantees the requested
// oceanic/continental split regardless of the per-plate RNG draws.
func Generate(centroids []sphere.Vec, seed int64, cfg Config) []*Plate {
	rng := rand.New(rand.NewSource(seed + 1))

	plates := make([]*Plate, len(centroids))
	for i, c := range centroids {
		axis := randomUnitVec(rng)
		speed := cfg.MinAngularVelocity + rng.Float64()*(cfg.MaxAngularVelocity-cfg.MinAngularVelocity)
		plates[i] = &Plate{
			ID:              i,
			Centroid:        c,
			EulerPoleAxis:   axis,
			AngularVelocity: speed,
		}
	}

	assignCrustTypes(plates, rng, cfg.OceanicFraction)
	return plates
}

// assignCrustTypes performs a seeded Fisher-Yates shuffle of plate indices
// and labels the first OceanicFraction of the shuffled order as oceanic,
// the rest continental — deterministic for a given rng and insensitive to
// any one plate's random draws (spec §4.4).
func assignCrustTypes(plates []*Plate, rng *rand.Rand, oceanicFraction float64) {
	order := make([]int, len(plates))
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	oceanicCount := int(math.Round(oceanicFraction * float64(len(plates))))
	for rank, idx := range order {
		p := plates[idx]
		if rank < oceanicCount {
			p.Crust = Oceanic
			p.CrustThickness = DefaultOceanicThickness
		} else {
			p.Crust = Continental
			p.CrustThickness = DefaultContinentalThickness
		}
	}
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

// Migrate advances v by this plate's rigid rotation over dtMy million
// years, using Rodrigues' rotation formula about EulerPoleAxis at angle
// AngularVelocity*dtMy (spec §4.4).
func (p *Plate) Migrate(v sphere.Vec, dtMy float64) sphere.Vec {
	angle := p.AngularVelocity * dtMy
	return sphere.Rotate(v, p.EulerPoleAxis, angle)
}

// Step advances the plate's own centroid by dtMy million years in place.
func (p *Plate) Step(dtMy float64) {
	p.Centroid = p.Migrate(p.Centroid, dtMy)
}

// AngularMomentum returns ω·axis, the vector whose magnitude is angular
// speed and direction is the rotation axis — used by split surgery (§4.10)
// to combine and redistribute a parent plate's momentum between its two
// children.
func (p *Plate) AngularMomentum() sphere.Vec {
	return sphere.Vec{
		X: p.EulerPoleAxis.X * p.AngularVelocity,
		Y: p.EulerPoleAxis.Y * p.AngularVelocity,
		Z: p.EulerPoleAxis.Z * p.AngularVelocity,
	}
}

// FromAngularMomentum decomposes an angular-momentum vector back into an
// axis and a non-negative angular speed, the inverse of AngularMomentum.
func FromAngularMomentum(m sphere.Vec) (axis sphere.Vec, speed float64) {
	speed = math.Sqrt(m.X*m.X + m.Y*m.Y + m.Z*m.Z)
	if speed == 0 {
		return sphere.Vec{X: 0, Y: 0, Z: 1}, 0
	}
	axis = sphere.Vec{X: m.X / speed, Y: m.Y / speed, Z: m.Z / speed}
	return axis, speed
}
