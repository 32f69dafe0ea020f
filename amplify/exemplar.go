// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package amplify implements Stage-B amplification (spec §4.11): oceanic
// transform-fault noise for oceanic crust, and exemplar-heightmap blending
// for continental crust. Both passes read a baseline elevation and produce
// an amplified elevation; neither mutates the baseline.
package amplify

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/tectonica-sim/tectonica/sphere"
)

// ExemplarBounds is an exemplar's geographic extent, present only for
// exemplars that support a forced-override direct geographic UV mapping
// (spec §6, exemplar library schema).
type ExemplarBounds struct {
	WestLonDeg  float64 `json:"west"`
	EastLonDeg  float64 `json:"east"`
	SouthLatDeg float64 `json:"south"`
	NorthLatDeg float64 `json:"north"`
}

// ExemplarResolution is an exemplar heightfield's pixel dimensions.
type ExemplarResolution struct {
	WidthPx  int `json:"width_px"`
	HeightPx int `json:"height_px"`
}

// ExemplarMetadata is one entry of the exemplar library's JSON manifest
// (spec §6).
type ExemplarMetadata struct {
	ID                string              `json:"id"`
	Name              string              `json:"name"`
	Region            string              `json:"region"`
	Feature           string              `json:"feature"`
	PNG16Path         string              `json:"png16_path"`
	ElevationMinM     float64             `json:"elevation_min_m"`
	ElevationMaxM     float64             `json:"elevation_max_m"`
	ElevationMeanM    float64             `json:"elevation_mean_m"`
	ElevationStdDevM  float64             `json:"elevation_stddev_m"`
	Resolution        ExemplarResolution  `json:"resolution"`
	Bounds            *ExemplarBounds     `json:"bounds,omitempty"`

	heightData []uint16 // row-major, width*height entries; nil until loaded
}

// HasBounds reports whether this exemplar carries a geographic bounding
// box, required for the forced-exemplar-override direct UV mapping.
func (e *ExemplarMetadata) HasBounds() bool { return e.Bounds != nil }

// ComputeForcedPadding returns the lon/lat margin (degrees) added around b
// before mapping a vertex's geographic position directly to UV: half of
// each axis's range, clamped to [1.5, 5] degrees, so a vertex just outside
// the exemplar's nominal extent still lands inside [0, 1] instead of being
// hard-clamped at the seam (spec §6 forced-exemplar override).
func (b ExemplarBounds) ComputeForcedPadding() (lonPadDeg, latPadDeg float64) {
	lonRange := math.Abs(b.EastLonDeg - b.WestLonDeg)
	latRange := math.Abs(b.NorthLatDeg - b.SouthLatDeg)
	lonPadDeg = sphere.Clamp(lonRange*0.5, 1.5, 5.0)
	latPadDeg = sphere.Clamp(latRange*0.5, 1.5, 5.0)
	return lonPadDeg, latPadDeg
}

// ForcedUV maps position directly to exemplar-local UV from b's padded
// geographic bounds (spec §6 forced-exemplar override): longitude and
// latitude, in degrees, are linearly mapped across the padded [west, east]
// and [south, north] ranges and clamped to [0, 1]. Degenerate (zero-width)
// ranges map to the UV center.
func ForcedUV(position sphere.Vec, b ExemplarBounds) (u, v float64) {
	n := sphere.Unit(position)
	lonDeg := math.Atan2(n.Y, n.X) * 180 / math.Pi
	latDeg := math.Asin(sphere.Clamp(n.Z, -1, 1)) * 180 / math.Pi

	lonPad, latPad := b.ComputeForcedPadding()
	west, east := b.WestLonDeg-lonPad, b.EastLonDeg+lonPad
	south, north := b.SouthLatDeg-latPad, b.NorthLatDeg+latPad

	lonRange, latRange := east-west, north-south
	if math.Abs(lonRange) < 1e-9 || math.Abs(latRange) < 1e-9 {
		return 0.5, 0.5
	}
	u = sphere.Clamp((lonDeg-west)/lonRange, 0, 1)
	v = sphere.Clamp((north-latDeg)/latRange, 0, 1)
	return u, v
}

// libraryManifest mirrors ExemplarLibrary.json's top-level shape.
type libraryManifest struct {
	Exemplars []ExemplarMetadata `json:"exemplars"`
}

// Library is a loaded exemplar library: JSON metadata for every exemplar,
// with 16-bit heightfield pixel data decoded lazily per exemplar on first
// use (spec §5, "Shared resources": loaded once, read-only thereafter).
type Library struct {
	dir       string
	exemplars []ExemplarMetadata
	byID      map[string]*ExemplarMetadata
}

// LoadLibrary reads dir/ExemplarLibrary.json and indexes its entries by
// ID. It does not decode any heightfield PNGs; call EnsureHeightData for
// the exemplars a caller actually samples.
func LoadLibrary(dir string) (*Library, error) {
	path := filepath.Join(dir, "ExemplarLibrary.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("amplify: load exemplar library: %w", err)
	}

	var manifest libraryManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("amplify: parse exemplar library %s: %w", path, err)
	}

	lib := &Library{
		dir:       dir,
		exemplars: manifest.Exemplars,
		byID:      make(map[string]*ExemplarMetadata, len(manifest.Exemplars)),
	}
	for i := range lib.exemplars {
		lib.byID[lib.exemplars[i].ID] = &lib.exemplars[i]
	}
	return lib, nil
}

// Find returns the exemplar with the given ID, used by the forced-
// exemplar-override testing path.
func (l *Library) Find(id string) (*ExemplarMetadata, bool) {
	e, ok := l.byID[id]
	return e, ok
}

// ForTerrainType returns every exemplar whose region tag matches the
// given terrain type: Himalayan mountains sample "Himalayan", Andean
// mountains sample "Andean", and both Plains and OldMountains reuse the
// low-relief "Ancient" region (spec §4.11).
func (l *Library) ForTerrainType(t TerrainType) []*ExemplarMetadata {
	region := regionForTerrainType(t)
	var matches []*ExemplarMetadata
	for i := range l.exemplars {
		if l.exemplars[i].Region == region {
			matches = append(matches, &l.exemplars[i])
		}
	}
	return matches
}

func regionForTerrainType(t TerrainType) string {
	switch t {
	case HimalayanMountains:
		return "Himalayan"
	case AndeanMountains:
		return "Andean"
	default:
		return "Ancient"
	}
}

// EnsureHeightData decodes ex's PNG16 heightfield if it has not been
// loaded yet.
func (l *Library) EnsureHeightData(ex *ExemplarMetadata) error {
	if ex.heightData != nil {
		return nil
	}
	path := filepath.Join(l.dir, ex.PNG16Path)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("amplify: open exemplar heightfield %s: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return fmt.Errorf("amplify: decode exemplar heightfield %s: %w", path, err)
	}
	gray, ok := img.(*image.Gray16)
	if !ok {
		return fmt.Errorf("amplify: exemplar heightfield %s is not 16-bit grayscale", path)
	}

	w, h := ex.Resolution.WidthPx, ex.Resolution.HeightPx
	data := make([]uint16, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := gray.PixOffset(x, y)
			data[y*w+x] = uint16(gray.Pix[off])<<8 | uint16(gray.Pix[off+1])
		}
	}
	ex.heightData = data
	return nil
}

// SampleHeight bilinearly samples ex's heightfield at (u, v), each
// clamped to [eps, 1-eps] to avoid edge artifacts, and decodes the
// raw uint16 sample to meters via ex's [min, max] elevation range (spec
// §4.11, §6).
func SampleHeight(ex *ExemplarMetadata, u, v, eps float64) float64 {
	if ex.heightData == nil {
		return 0
	}
	u = clamp(u, eps, 1-eps)
	v = clamp(v, eps, 1-eps)

	w, h := ex.Resolution.WidthPx, ex.Resolution.HeightPx
	fx := u * float64(w-1)
	fy := v * float64(h-1)
	x0 := clampInt(int(fx), 0, w-1)
	x1 := clampInt(x0+1, 0, w-1)
	y0 := clampInt(int(fy), 0, h-1)
	y1 := clampInt(y0+1, 0, h-1)
	tx, ty := fx-float64(x0), fy-float64(y0)

	decode := func(x, y int) float64 {
		raw := ex.heightData[y*w+x]
		norm := float64(raw) / 65535
		return ex.ElevationMinM + norm*(ex.ElevationMaxM-ex.ElevationMinM)
	}

	h00, h10 := decode(x0, y0), decode(x1, y0)
	h01, h11 := decode(x0, y1), decode(x1, y1)
	top := h00 + (h10-h00)*tx
	bottom := h01 + (h11-h01)*tx
	return top + (bottom-top)*ty
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
