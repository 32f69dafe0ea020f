// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

package amplify

import (
	"math"
	"math/rand"

	"github.com/tectonica-sim/tectonica/sphere"
)

// TerrainType classifies a continental vertex's orogeny history into one
// of four exemplar regions (spec §4.11).
type TerrainType int

const (
	Plain TerrainType = iota
	OldMountains
	AndeanMountains
	HimalayanMountains
)

func (t TerrainType) String() string {
	switch t {
	case OldMountains:
		return "old-mountains"
	case AndeanMountains:
		return "andean"
	case HimalayanMountains:
		return "himalayan"
	default:
		return "plain"
	}
}

// oldMountainAgeMy is the orogeny age past which a convergent range is
// considered eroded rather than actively building (spec §4.11).
const oldMountainAgeMy = 100.0

// plainElevationThreshold is the baseline elevation below which a vertex
// outside any orogeny zone is classified Plain rather than a mountain
// type (spec §4.11).
const plainElevationThreshold = 500.0

// ClassifyTerrainType implements the decision tree of spec §4.11, checked
// in this order: a vertex that is not near a convergent boundary and has
// low baseline elevation is Plain (whatever its orogeny age); otherwise
// old orogeny selects OldMountains, then subduction (differing crust
// types on the nearest convergent boundary) selects Andean, and anything
// else is Himalayan.
func ClassifyTerrainType(isNearConvergentBoundary, differingCrustTypes bool, orogenyAgeMy, baseElevationM float64) TerrainType {
	if !isNearConvergentBoundary && baseElevationM < plainElevationThreshold {
		return Plain
	}
	if orogenyAgeMy > oldMountainAgeMy {
		return OldMountains
	}
	if differingCrustTypes {
		return AndeanMountains
	}
	return HimalayanMountains
}

// ContinentalConfig bundles the continental-amplification parameters and
// inputs that do not vary per vertex.
type ContinentalConfig struct {
	Seed           int64
	UVWrapEpsilon  float64 // clamps UV away from [0,1] edges, default ~0.002
	RandomOffsetMagnitude float64 // default 0.1, disabled entirely in deterministic test mode
}

// DefaultContinentalConfig returns the parameters described in spec §4.11
// and §6.
func DefaultContinentalConfig(seed int64) ContinentalConfig {
	return ContinentalConfig{Seed: seed, UVWrapEpsilon: 0.002, RandomOffsetMagnitude: 0.1}
}

// randomUVOffset derives a deterministic per-vertex UV jitter from the
// vertex position and seed, so repeated runs with the same seed sample
// identical exemplar pixels (spec §4.11 "deterministic per-vertex random
// offset").
func randomUVOffset(position sphere.Vec, seed int64, magnitude float64) (offsetU, offsetV float64) {
	if magnitude == 0 {
		return 0, 0
	}
	h := int64(position.X*1000) + int64(position.Y*1000)*1_000_003 + int64(position.Z*1000)*1_000_033
	rng := rand.New(rand.NewSource(seed + h))
	return rng.Float64() * magnitude, rng.Float64() * magnitude
}

// equirectangularUV projects a unit direction to the [0,1]x[0,1] UV space
// used for exemplar sampling (spec §4.11: "start from equirectangular
// projection").
func equirectangularUV(position sphere.Vec) (u, v float64) {
	n := sphere.Unit(position)
	u = 0.5 + math.Atan2(n.Y, n.X)/(2*math.Pi)
	v = 0.5 - math.Asin(sphere.Clamp(n.Z, -1, 1))/math.Pi
	return u, v
}

// rotateUV rotates a centered UV offset by angle radians, used to align
// exemplar fold directions with a nearby convergent boundary's tangent
// (spec §4.11).
func rotateUV(u, v, angle float64) (ru, rv float64) {
	cos, sin := math.Cos(angle), math.Sin(angle)
	return u*cos - v*sin, u*sin + v*cos
}

// FoldAlignmentMaxRadians is the maximum distance to a convergent
// boundary within which its tangent direction is used to rotate the
// sampled UV (spec §4.11, "within ~20°").
const FoldAlignmentMaxRadians = 0.35

// ComputeFoldAngle returns the angle (radians) between a convergent
// boundary's tangent direction and the vertex's local east axis,
// provided the boundary is within FoldAlignmentMaxRadians; ok is false
// otherwise; position must be a unit vector.
func ComputeFoldAngle(position, boundaryTangent sphere.Vec, boundaryDistance float64) (angle float64, ok bool) {
	if boundaryDistance > FoldAlignmentMaxRadians {
		return 0, false
	}
	east, north := sphere.LocalFrame(position)
	dotEast := boundaryTangent.X*east.X + boundaryTangent.Y*east.Y + boundaryTangent.Z*east.Z
	dotNorth := boundaryTangent.X*north.X + boundaryTangent.Y*north.Y + boundaryTangent.Z*north.Z
	a := math.Atan2(dotNorth, dotEast)
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0, false
	}
	return a, true
}

// ComputeUV derives the final exemplar-sampling UV for a continental
// vertex: equirectangular projection, centered, jittered by a
// deterministic per-vertex offset, optionally rotated by a fold angle,
// then re-wrapped into [0,1] (spec §4.11).
func ComputeUV(position sphere.Vec, seed int64, cfg ContinentalConfig, foldAngle float64, hasFold bool) (u, v float64) {
	baseU, baseV := equirectangularUV(position)
	localU, localV := baseU-0.5, baseV-0.5

	offU, offV := randomUVOffset(position, seed, cfg.RandomOffsetMagnitude)
	localU += offU
	localV += offV

	if hasFold {
		localU, localV = rotateUV(localU, localV, foldAngle)
	}

	u, v = localU+0.5, localV+0.5
	u -= math.Floor(u)
	v -= math.Floor(v)
	return u, v
}

// weightedSample is one exemplar's contribution to a blended height.
type weightedSample struct {
	height float64
	weight float64
}

// BlendExemplars samples up to the first 3 exemplars in matches at (u, v)
// with weights 1, 1/2, 1/3 (spec §4.11 step 5), returning the weighted-
// average blended height and the first (reference) exemplar's mean
// elevation, used by the caller to compute DetailScale.
func BlendExemplars(lib *Library, matches []*ExemplarMetadata, u, v float64, cfg ContinentalConfig) (blended, refMean float64, ok bool) {
	if len(matches) == 0 {
		return 0, 0, false
	}
	limit := len(matches)
	if limit > 3 {
		limit = 3
	}

	var samples []weightedSample
	for i := 0; i < limit; i++ {
		ex := matches[i]
		if err := lib.EnsureHeightData(ex); err != nil {
			continue
		}
		samples = append(samples, weightedSample{
			height: SampleHeight(ex, u, v, cfg.UVWrapEpsilon),
			weight: 1 / float64(i+1),
		})
	}
	if len(samples) == 0 {
		return 0, 0, false
	}

	var weighted, totalWeight float64
	for _, s := range samples {
		weighted += s.height * s.weight
		totalWeight += s.weight
	}
	return weighted / totalWeight, matches[0].ElevationMeanM, true
}

// ComputeContinentalAmplification implements spec §4.11's continental
// pass for one vertex: classify terrain type, blend matching exemplars at
// the derived UV, scale the blended detail relative to the baseline
// elevation, and halve the contribution for eroded old ranges.
func ComputeContinentalAmplification(position sphere.Vec, baseElevationM float64, terrain TerrainType, orogenyAgeMy float64, lib *Library, seed int64, cfg ContinentalConfig, foldAngle float64, hasFold bool) float64 {
	matches := lib.ForTerrainType(terrain)
	u, v := ComputeUV(position, seed, cfg, foldAngle, hasFold)

	blended, refMean, ok := BlendExemplars(lib, matches, u, v, cfg)
	if !ok {
		return baseElevationM
	}

	detailScale := 0.5
	if baseElevationM > 1000 && refMean != 0 {
		detailScale = baseElevationM / refMean
	}
	detailScale = sphere.Clamp(detailScale, 0.01, 100)

	detail := (blended - refMean) * detailScale
	if terrain == OldMountains || orogenyAgeMy > oldMountainAgeMy {
		detail *= 0.5
	}
	return baseElevationM + detail
}

// ComputeForcedExemplarAmplification implements the forced-exemplar-
// override path (spec §6): instead of classifying terrain and blending up
// to three matching exemplars through the randomized/fold-rotated UV
// pipeline, it samples only the named exemplar, with UV mapped directly
// from position's geographic coordinates via the exemplar's Bounds when
// present (ForcedUV) or the plain equirectangular projection otherwise.
// ok is false when forcedID is empty or not present in lib, in which case
// the caller should fall back to ComputeContinentalAmplification.
func ComputeForcedExemplarAmplification(position sphere.Vec, baseElevationM float64, lib *Library, forcedID string) (elevation float64, ok bool) {
	if forcedID == "" || lib == nil {
		return 0, false
	}
	ex, found := lib.Find(forcedID)
	if !found {
		return 0, false
	}
	if err := lib.EnsureHeightData(ex); err != nil {
		return 0, false
	}

	var u, v float64
	if ex.HasBounds() {
		u, v = ForcedUV(position, *ex.Bounds)
	} else {
		u, v = equirectangularUV(position)
	}
	height := SampleHeight(ex, u, v, 0.002)

	detailScale := 0.5
	if baseElevationM > 1000 && ex.ElevationMeanM != 0 {
		detailScale = baseElevationM / ex.ElevationMeanM
	}
	detailScale = sphere.Clamp(detailScale, 0.01, 100)

	detail := (height - ex.ElevationMeanM) * detailScale
	return baseElevationM + detail, true
}

// BlendCacheEntry is one vertex's cached reference-exemplar mean, reused
// across steps until the amplification data serial it was computed under
// goes stale (spec §4.11, "A per-vertex blend cache").
type BlendCacheEntry struct {
	CachedSerial     uint64
	HasReferenceMean bool
	ReferenceMean    float64
}

// BlendCache holds one BlendCacheEntry per render vertex, invalidated in
// bulk whenever the engine's AmplificationDataSerial advances.
type BlendCache struct {
	entries []BlendCacheEntry
}

// NewBlendCache allocates a cache for n render vertices.
func NewBlendCache(n int) *BlendCache {
	return &BlendCache{entries: make([]BlendCacheEntry, n)}
}

// ReferenceMean returns vertex i's cached reference-exemplar mean if it
// was computed under the current serial, otherwise computes it via
// compute, stores it, and returns the fresh value.
func (c *BlendCache) ReferenceMean(i int, serial uint64, compute func() (float64, bool)) (float64, bool) {
	e := &c.entries[i]
	if e.HasReferenceMean && e.CachedSerial == serial {
		return e.ReferenceMean, true
	}
	mean, ok := compute()
	if !ok {
		e.HasReferenceMean = false
		e.CachedSerial = serial
		return 0, false
	}
	e.CachedSerial = serial
	e.HasReferenceMean = true
	e.ReferenceMean = mean
	return mean, true
}
