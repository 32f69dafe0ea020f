// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package engine is the step orchestrator: it owns the full simulation
// state (plates, boundaries, hotspots, terranes, render mesh, per-vertex
// fields) and drives the fixed per-step data flow, parameter-change
// semantics, and history snapshots described by spec §4.12.
package engine

import (
	"encoding/json"
	"fmt"
	"os"
)

// Parameters is the flat, JSON-tagged configuration struct every Engine is
// constructed from (spec §6). Fields are grouped to match the spec's
// parameter table; defaults are applied before any JSON file is decoded,
// and range-limited fields are clamped (never rejected) after decode,
// following the "invalid configuration: clamp with a warning; do not
// refuse" policy of spec §7.
type Parameters struct {
	Seed                   int64 `json:"seed"`
	SubdivisionLevel       int   `json:"subdivision_level"`
	RenderSubdivisionLevel int   `json:"render_subdivision_level"`
	LloydIterations        int   `json:"lloyd_iterations"`

	EnableVoronoiWarping    bool    `json:"enable_voronoi_warping"`
	VoronoiWarpingAmplitude float64 `json:"voronoi_warping_amplitude"`
	VoronoiWarpingFrequency float64 `json:"voronoi_warping_frequency"`

	PlanetRadius float64 `json:"planet_radius_m"`
	SeaLevel     float64 `json:"sea_level_m"`

	EnablePlateTopologyChanges     bool    `json:"enable_plate_topology_changes"`
	SplitVelocityThreshold         float64 `json:"split_velocity_threshold"`
	SplitDurationThreshold         float64 `json:"split_duration_threshold"`
	MergeStressThreshold           float64 `json:"merge_stress_threshold"`
	EnableDynamicRetessellation    bool    `json:"enable_dynamic_retessellation"`
	RetessellationThresholdDegrees float64 `json:"retessellation_threshold_degrees"`

	EnableRiftPropagation     bool    `json:"enable_rift_propagation"`
	RiftProgressionRate       float64 `json:"rift_progression_rate"`
	RiftSplitThresholdMeters  float64 `json:"rift_split_threshold_meters"`

	EnableHotspots            bool    `json:"enable_hotspots"`
	MajorHotspotCount         int     `json:"major_hotspot_count"`
	MinorHotspotCount         int     `json:"minor_hotspot_count"`
	MajorHotspotThermalOutput float64 `json:"major_hotspot_thermal_output"`
	MinorHotspotThermalOutput float64 `json:"minor_hotspot_thermal_output"`
	HotspotDriftSpeed         float64 `json:"hotspot_drift_speed"`

	EnableContinentalErosion bool    `json:"enable_continental_erosion"`
	ErosionConstant          float64 `json:"erosion_constant"`
	EnableSedimentTransport  bool    `json:"enable_sediment_transport"`
	SedimentDiffusionRate    float64 `json:"sediment_diffusion_rate"`
	EnableOceanicDampening   bool    `json:"enable_oceanic_dampening"`
	OceanicDampeningConstant float64 `json:"oceanic_dampening_constant"`
	OceanicAgeSubsidenceCoeff float64 `json:"oceanic_age_subsidence_coeff"`

	EnableOceanicAmplification bool    `json:"enable_oceanic_amplification"`
	OceanicFaultAmplitude      float64 `json:"oceanic_fault_amplitude"`
	OceanicFaultFrequency      float64 `json:"oceanic_fault_frequency"`
	OceanicAgeFalloff          float64 `json:"oceanic_age_falloff"`
	EnableContinentalAmplification bool `json:"enable_continental_amplification"`
	MinAmplificationLOD        int     `json:"min_amplification_lod"`
	ExemplarLibraryDir         string  `json:"exemplar_library_dir"`

	EnableHeightmapVisualization bool `json:"enable_heightmap_visualization"`

	// ForcedExemplarID and DisableRandomUVOffset are testing/tooling
	// overrides (spec §6): when ForcedExemplarID is non-empty, continental
	// amplification samples only that exemplar directly from its
	// geographic bounds; DisableRandomUVOffset zeroes the per-vertex UV
	// jitter for deterministic captures. Neither affects determinism
	// otherwise.
	ForcedExemplarID       string `json:"forced_exemplar_id"`
	DisableRandomUVOffset  bool   `json:"disable_random_uv_offset"`

	HistoryCapacity int `json:"history_capacity"`
}

// StepDurationMy is the orchestrator's single fixed step duration (spec
// §3: "A single fixed step duration of 2 My is assumed by the
// orchestrator").
const StepDurationMy = 2.0

// DefaultParameters returns the parameter set spec §6 and its worked
// examples (§8) imply: topology changes and rift propagation enabled,
// hotspots and surface processes enabled, amplification disabled (the
// host must opt in once an exemplar library is available).
func DefaultParameters(seed int64) Parameters {
	return Parameters{
		Seed:                   seed,
		SubdivisionLevel:       0,
		RenderSubdivisionLevel: 2,
		LloydIterations:        4,

		EnableVoronoiWarping:    false,
		VoronoiWarpingAmplitude: 0.3,
		VoronoiWarpingFrequency: 4,

		PlanetRadius: 6_371_000,
		SeaLevel:     0,

		EnablePlateTopologyChanges:     true,
		SplitVelocityThreshold:         0.02,
		SplitDurationThreshold:         10,
		MergeStressThreshold:           80,
		EnableDynamicRetessellation:    true,
		RetessellationThresholdDegrees: 15,

		EnableRiftPropagation:    true,
		RiftProgressionRate:      50_000,
		RiftSplitThresholdMeters: 500_000,

		EnableHotspots:            true,
		MajorHotspotCount:         3,
		MinorHotspotCount:         5,
		MajorHotspotThermalOutput: 2.0,
		MinorHotspotThermalOutput: 1.0,
		HotspotDriftSpeed:         0.01,

		EnableContinentalErosion:  true,
		ErosionConstant:           0.02,
		EnableSedimentTransport:   true,
		SedimentDiffusionRate:     0.1,
		EnableOceanicDampening:    true,
		OceanicDampeningConstant:  0.3,
		OceanicAgeSubsidenceCoeff: 350,

		EnableOceanicAmplification:     false,
		OceanicFaultAmplitude:          150,
		OceanicFaultFrequency:          4,
		OceanicAgeFalloff:              0.1,
		EnableContinentalAmplification: false,
		MinAmplificationLOD:            5,

		HistoryCapacity: 32,
	}
}

const (
	minPlanetRadius = 1e4
	maxPlanetRadius = 1e7
)

// Clamp brings out-of-range fields back into their documented bounds in
// place, per spec §7's "invalid configuration: clamp with a warning; do
// not refuse" policy. warn is called once per clamped field (nil is
// accepted for silent clamping, e.g. in tests).
func (p *Parameters) Clamp(warn func(field string, from, to float64)) {
	clamp := func(field string, v *float64, lo, hi float64) {
		if *v < lo {
			if warn != nil {
				warn(field, *v, lo)
			}
			*v = lo
		} else if *v > hi {
			if warn != nil {
				warn(field, *v, hi)
			}
			*v = hi
		}
	}
	clampInt := func(field string, v *int, lo, hi int) {
		f := float64(*v)
		clamp(field, &f, float64(lo), float64(hi))
		*v = int(f)
	}
	clamp("planet_radius_m", &p.PlanetRadius, minPlanetRadius, maxPlanetRadius)
	clampInt("subdivision_level", &p.SubdivisionLevel, 0, 3)
	clampInt("render_subdivision_level", &p.RenderSubdivisionLevel, 0, 8)
}

// LoadParameters reads defaults, then overrides them from the JSON file
// at path, then clamps — a "defaults, open file, decode, continue if
// absent" sequence. A missing file is not an error and is not reported:
// the defaults (with the given seed) are returned unchanged. Clamping
// here is silent: no warning is logged for the fields it changes.
func LoadParameters(path string, seed int64) (Parameters, error) {
	params := DefaultParameters(seed)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return params, nil
		}
		return params, fmt.Errorf("engine: load parameters %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return params, fmt.Errorf("engine: parse parameters %s: %w", path, err)
	}
	params.Clamp(nil)
	return params, nil
}

// sanityCheck is a programmer-error-class contract violation check (spec
// §0 error-handling: panics reserved for conditions a correct caller
// never produces), used for a handful of invariants that would indicate
// a bug in this package itself rather than bad user input.
func sanityCheck(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("engine: "+format, args...))
	}
}
