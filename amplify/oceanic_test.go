// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

package amplify

import (
	"math"
	"testing"

	"github.com/aquilax/go-perlin"

	"github.com/tectonica-sim/tectonica/sphere"
)

func TestTransformFaultDirectionIsPerpendicularToRidge(t *testing.T) {
	position := sphere.Unit(sphere.Vec{X: 1, Y: 0.3, Z: 0.2})
	ridge := sphere.Unit(sphere.Vec{X: 0, Y: 1, Z: 0})
	fault := TransformFaultDirection(position, ridge)

	if !sphere.IsUnit(fault) {
		t.Errorf("fault direction is not unit length: %v", fault)
	}
	dot := fault.X*ridge.X + fault.Y*ridge.Y + fault.Z*ridge.Z
	if math.Abs(dot) > 0.1 {
		t.Errorf("|dot(fault, ridge)| = %f, want < 0.1", math.Abs(dot))
	}
}

func TestOceanicAmplificationYoungCrustDiffersFromBaseline(t *testing.T) {
	noise := perlin.NewPerlin(2, 2, 3, 42)
	cfg := DefaultOceanicConfig()
	position := sphere.Unit(sphere.Vec{X: 0.6, Y: 0.7, Z: 0.2})
	ridge := sphere.Unit(sphere.Vec{X: 0, Y: 0, Z: 1})

	var countDiffering int
	const trials = 40
	for i := 0; i < trials; i++ {
		p := sphere.Unit(sphere.Vec{X: position.X + float64(i)*0.01, Y: position.Y, Z: position.Z})
		amplified := ComputeOceanicAmplification(noise, p, ridge, 1, -3000, cfg)
		if math.Abs(amplified-(-3000)) >= 50 {
			countDiffering++
		}
	}
	if float64(countDiffering)/trials < 0.5 {
		t.Errorf("only %d/%d young-crust samples differed from baseline by >=50m", countDiffering, trials)
	}
}

func TestOceanicAmplificationOldCrustDecaysToward(t *testing.T) {
	noise := perlin.NewPerlin(2, 2, 3, 7)
	cfg := DefaultOceanicConfig()
	position := sphere.Unit(sphere.Vec{X: 0.2, Y: 0.8, Z: 0.3})
	ridge := sphere.Unit(sphere.Vec{X: 1, Y: 0, Z: 0})

	amplifiedYoung := ComputeOceanicAmplification(noise, position, ridge, 1, -4000, cfg)
	amplifiedOld := ComputeOceanicAmplification(noise, position, ridge, 300, -4000, cfg)

	youngDelta := math.Abs(amplifiedYoung - (-4000))
	oldDelta := math.Abs(amplifiedOld - (-4000))
	if oldDelta > youngDelta {
		t.Errorf("old-crust delta %f exceeds young-crust delta %f, want decay", oldDelta, youngDelta)
	}
}

func TestOceanicAmplificationDeterministic(t *testing.T) {
	position := sphere.Unit(sphere.Vec{X: 0.4, Y: 0.3, Z: 0.5})
	ridge := sphere.Unit(sphere.Vec{X: 0, Y: 1, Z: 0})
	cfg := DefaultOceanicConfig()

	a := ComputeOceanicAmplification(perlin.NewPerlin(2, 2, 3, 99), position, ridge, 5, -2000, cfg)
	b := ComputeOceanicAmplification(perlin.NewPerlin(2, 2, 3, 99), position, ridge, 5, -2000, cfg)
	if a != b {
		t.Errorf("same seed produced different results: %f vs %f", a, b)
	}
}
