// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

package engine

import (
	"github.com/aquilax/go-perlin"
	"github.com/rs/zerolog"

	"github.com/tectonica-sim/tectonica/amplify"
	"github.com/tectonica-sim/tectonica/boundary"
	"github.com/tectonica-sim/tectonica/hotspot"
	"github.com/tectonica-sim/tectonica/mesh"
	"github.com/tectonica-sim/tectonica/plate"
	"github.com/tectonica-sim/tectonica/sphere"
	"github.com/tectonica-sim/tectonica/surface"
	"github.com/tectonica-sim/tectonica/topology"
)

// Engine owns the complete simulation state and is the single-owner state
// machine spec §5 describes: external callers mutate it only through
// AdvanceSteps, Reset, SetRenderSubdivisionLevel, Undo/Redo, and the
// accessor methods, never by reaching into its fields directly.
type Engine struct {
	params Parameters
	logger zerolog.Logger

	mesh        *mesh.RenderMesh
	plates      map[int]*plate.Plate
	nextPlateID int
	vertexPlate []int

	// initialCentroid records each live plate's centroid at the last
	// retessellation (or at Reset), the baseline re-tessellation drift is
	// measured against (spec §4.10).
	initialCentroid map[int]sphere.Vec

	boundaries *boundary.Graph
	hotspots   []*hotspot.Hotspot

	terranes      map[int]*topology.Terrane
	nextTerraneID int

	events []TopologyEvent

	data        []surface.VertexData // baseline elevation + crust age, index-aligned with mesh.Vertices
	stress      []float64
	temperature []float64
	amplified   []float64
	ridgeDir    []sphere.Vec
	orogenyAge  []float64

	exemplars  *amplify.Library
	blendCache *amplify.BlendCache
	noise      *perlin.Perlin

	currentTimeMy float64

	TopologyVersion         uint64
	SurfaceDataVersion      uint64
	AmplificationDataSerial uint64
	RetessellationCount     uint64
	LastStepTimeMs          float64

	history    []*Snapshot
	historyPos int // number of snapshots up to and including the current state, history[historyPos-1]
}

// New constructs an Engine from params and resets it to the initial state
// derived from params.Seed (spec §3 Lifecycle). logger receives the
// engine's warnings (parameter clamps and exemplar-library load
// failures); pass zerolog.Nop() to discard them.
func New(params Parameters, logger zerolog.Logger) *Engine {
	e := &Engine{params: params, logger: logger}
	e.Reset()
	return e
}

// Snapshot is a full copy of Engine's mutable state, captured at the end
// of Reset and after every successful step and restorable bit-identically
// by Undo/Redo (spec §3 "Simulation snapshot"; spec §8 determinism laws).
// The mesh triangle list and adjacency are shared rather than copied:
// they are only ever replaced wholesale, never modified in place.
type Snapshot struct {
	meshTriangles []int32
	meshAdjacency mesh.Adjacency
	vertices      []sphere.Vec

	plates          map[int]*plate.Plate
	nextPlateID     int
	vertexPlate     []int
	initialCentroid map[int]sphere.Vec

	boundaries *boundary.Graph
	hotspots   []*hotspot.Hotspot

	terranes      map[int]*topology.Terrane
	nextTerraneID int

	events []TopologyEvent

	data        []surface.VertexData
	stress      []float64
	temperature []float64
	amplified   []float64
	ridgeDir    []sphere.Vec
	orogenyAge  []float64

	currentTimeMy float64

	topologyVersion         uint64
	surfaceDataVersion      uint64
	amplificationDataSerial uint64
	retessellationCount     uint64
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append([]T(nil), s...)
}

func clonePlates(plates map[int]*plate.Plate) map[int]*plate.Plate {
	out := make(map[int]*plate.Plate, len(plates))
	for id, p := range plates {
		copied := *p
		out[id] = &copied
	}
	return out
}

func cloneTerranes(terranes map[int]*topology.Terrane) map[int]*topology.Terrane {
	out := make(map[int]*topology.Terrane, len(terranes))
	for id, t := range terranes {
		copied := *t
		copied.VertexIndices = cloneSlice(t.VertexIndices)
		copied.Positions = cloneSlice(t.Positions)
		copied.Elevations = cloneSlice(t.Elevations)
		copied.CrustAges = cloneSlice(t.CrustAges)
		copied.ExtractedTriangles = cloneSlice(t.ExtractedTriangles)
		copied.PatchTriangles = cloneSlice(t.PatchTriangles)
		out[id] = &copied
	}
	return out
}

func cloneHotspots(hotspots []*hotspot.Hotspot) []*hotspot.Hotspot {
	out := make([]*hotspot.Hotspot, len(hotspots))
	for i, h := range hotspots {
		copied := *h
		out[i] = &copied
	}
	return out
}

func cloneCentroids(m map[int]sphere.Vec) map[int]sphere.Vec {
	out := make(map[int]sphere.Vec, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// takeSnapshot captures the engine's complete current state into a fresh,
// independently-owned Snapshot.
func (e *Engine) takeSnapshot() *Snapshot {
	return &Snapshot{
		meshTriangles: e.mesh.Triangles,
		meshAdjacency: e.mesh.Adjacency,
		vertices:      cloneSlice(e.mesh.Vertices),

		plates:          clonePlates(e.plates),
		nextPlateID:     e.nextPlateID,
		vertexPlate:     cloneSlice(e.vertexPlate),
		initialCentroid: cloneCentroids(e.initialCentroid),

		boundaries: e.boundaries.Clone(),
		hotspots:   cloneHotspots(e.hotspots),

		terranes:      cloneTerranes(e.terranes),
		nextTerraneID: e.nextTerraneID,

		events: cloneSlice(e.events),

		data:        cloneSlice(e.data),
		stress:      cloneSlice(e.stress),
		temperature: cloneSlice(e.temperature),
		amplified:   cloneSlice(e.amplified),
		ridgeDir:    cloneSlice(e.ridgeDir),
		orogenyAge:  cloneSlice(e.orogenyAge),

		currentTimeMy: e.currentTimeMy,

		topologyVersion:         e.TopologyVersion,
		surfaceDataVersion:      e.SurfaceDataVersion,
		amplificationDataSerial: e.AmplificationDataSerial,
		retessellationCount:     e.RetessellationCount,
	}
}

// restore overwrites the engine's live state from s, deep-copying every
// field except the shared mesh triangles and adjacency back out of s so
// later mutation of the live engine can never reach back into a stored
// history snapshot.
func (e *Engine) restore(s *Snapshot) {
	e.mesh = &mesh.RenderMesh{
		Vertices:  cloneSlice(s.vertices),
		Triangles: s.meshTriangles,
		Adjacency: s.meshAdjacency,
	}
	e.plates = clonePlates(s.plates)
	e.nextPlateID = s.nextPlateID
	e.vertexPlate = cloneSlice(s.vertexPlate)
	e.initialCentroid = cloneCentroids(s.initialCentroid)

	e.boundaries = s.boundaries.Clone()
	e.hotspots = cloneHotspots(s.hotspots)

	e.terranes = cloneTerranes(s.terranes)
	e.nextTerraneID = s.nextTerraneID

	e.events = cloneSlice(s.events)

	e.data = cloneSlice(s.data)
	e.stress = cloneSlice(s.stress)
	e.temperature = cloneSlice(s.temperature)
	e.amplified = cloneSlice(s.amplified)
	e.ridgeDir = cloneSlice(s.ridgeDir)
	e.orogenyAge = cloneSlice(s.orogenyAge)
	e.blendCache = amplify.NewBlendCache(len(e.mesh.Vertices))

	e.currentTimeMy = s.currentTimeMy

	e.TopologyVersion = s.topologyVersion
	e.SurfaceDataVersion = s.surfaceDataVersion
	e.AmplificationDataSerial = s.amplificationDataSerial
	e.RetessellationCount = s.retessellationCount
}
