// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

package amplify

import (
	"math"

	"github.com/aquilax/go-perlin"

	"github.com/tectonica-sim/tectonica/sphere"
)

// OceanicConfig bundles the oceanic-amplification tuning parameters (spec
// §6, Amplification group).
type OceanicConfig struct {
	FaultAmplitude float64 // meters, default ~150
	FaultFrequency float64 // default ~4
	AgeFalloff     float64 // 1/My, default ~0.1
}

// DefaultOceanicConfig returns the parameters implied by spec §4.11's
// worked example (young crust reaching ≥50m, old crust decaying below
// it).
func DefaultOceanicConfig() OceanicConfig {
	return OceanicConfig{FaultAmplitude: 150, FaultFrequency: 4, AgeFalloff: 0.1}
}

// computeGaborApproximation approximates 3D Gabor noise with two
// directional Perlin samples along faultDirection, keeping whichever has
// larger magnitude (sharper, more linear features than an average), then
// sharpens the result with a sub-unity power to emphasize peaks and
// troughs (spec §4.11 step 3).
func computeGaborApproximation(noise *perlin.Perlin, position, faultDirection sphere.Vec, frequency float64) float64 {
	p1 := sphere.Vec{X: position.X * frequency, Y: position.Y * frequency, Z: position.Z * frequency}
	offset := sphere.Vec{
		X: (position.X + faultDirection.X*2) * frequency,
		Y: (position.Y + faultDirection.Y*2) * frequency,
		Z: (position.Z + faultDirection.Z*2) * frequency,
	}

	n1 := noise.Noise3D(p1.X, p1.Y, p1.Z)
	n2 := noise.Noise3D(offset.X, offset.Y, offset.Z)

	n := n1
	if math.Abs(n2) > math.Abs(n1) {
		n = n2
	}

	sharp := math.Copysign(math.Pow(math.Abs(n), 0.6), n)
	return sphere.Clamp(sharp*3, -1, 1)
}

// fractalDetail returns a 4-octave fractal Perlin sample, amplitude
// halving and frequency doubling each octave, used as fine underwater
// detail (spec §4.11 step 4).
func fractalDetail(noise *perlin.Perlin, position sphere.Vec) float64 {
	const octaves = 4
	var sum, amplitude, frequency float64 = 0, 1, 0.1
	for o := 0; o < octaves; o++ {
		sum += noise.Noise3D(position.X*frequency, position.Y*frequency, position.Z*frequency) * amplitude
		frequency *= 2
		amplitude *= 0.5
	}
	return sum
}

// TransformFaultDirection returns the unit tangent-plane direction
// perpendicular to ridgeDirection at position (spec §4.11 step 2).
func TransformFaultDirection(position, ridgeDirection sphere.Vec) sphere.Vec {
	n := sphere.Unit(position)
	cross := sphere.Vec{
		X: ridgeDirection.Y*n.Z - ridgeDirection.Z*n.Y,
		Y: ridgeDirection.Z*n.X - ridgeDirection.X*n.Z,
		Z: ridgeDirection.X*n.Y - ridgeDirection.Y*n.X,
	}
	mag := math.Sqrt(cross.X*cross.X + cross.Y*cross.Y + cross.Z*cross.Z)
	if mag < 1e-12 {
		east, _ := sphere.LocalFrame(n)
		return east
	}
	return sphere.Vec{X: cross.X / mag, Y: cross.Y / mag, Z: cross.Z / mag}
}

// ComputeOceanicAmplification implements spec §4.11's oceanic pass for
// one vertex: an age-falloff-modulated directional Gabor-noise
// approximation for transform faults, a fractal fine-detail term, and a
// variance boost so the amplified field visibly varies more than the
// smooth baseline.
func ComputeOceanicAmplification(noise *perlin.Perlin, position, ridgeDirection sphere.Vec, ageMy, baseElevationM float64, cfg OceanicConfig) float64 {
	ageFactor := 1.0
	if cfg.AgeFalloff > 0 {
		ageFactor = math.Exp(-ageMy * cfg.AgeFalloff)
	}
	faultAmplitude := cfg.FaultAmplitude * ageFactor

	faultDirection := TransformFaultDirection(position, ridgeDirection)
	gabor := computeGaborApproximation(noise, position, faultDirection, math.Max(cfg.FaultFrequency, 1e-4))
	faultDetail := faultAmplitude * gabor

	amplified := baseElevationM + faultDetail
	amplified += 20 * fractalDetail(noise, position)

	amplified = baseElevationM + (amplified-baseElevationM)*1.5
	amplified += 150 * noise.Noise3D(position.X*8+23.17, position.Y*8+42.73, position.Z*8+7.91)

	return amplified
}
