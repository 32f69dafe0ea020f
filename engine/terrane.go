// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

package engine

import (
	"fmt"

	"github.com/tectonica-sim/tectonica/surface"
	"github.com/tectonica-sim/tectonica/topology"
)

// ExtractTerrane captures the contiguous set of render vertices in
// vertexIDs (all currently owned by homePlateID) into a new Terrane
// riding carrierPlateID, and returns its ID. Terrane collision detection
// is not automatic (spec.md names no concrete collision geometry): a host
// application calls ExtractTerrane/ReattachTerrane explicitly, typically
// in response to its own higher-level collision or rifting logic built on
// top of Boundaries()/Plates().
func (e *Engine) ExtractTerrane(vertexIDs []int32, homePlateID, carrierPlateID int) (int, error) {
	payload := make([]topology.VertexPayload, len(e.data))
	for i, d := range e.data {
		payload[i] = topology.VertexPayload{Elevation: d.Elevation, CrustAge: d.CrustAge}
	}

	id := e.nextTerraneID
	t, err := topology.Extract(e.mesh.Vertices, e.mesh.Triangles, payload, e.vertexPlate, vertexIDs, homePlateID, carrierPlateID, id)
	if err != nil {
		e.recordEvent("extract", id, fmt.Sprintf("home %d, carrier %d", homePlateID, carrierPlateID), err.Error())
		return 0, fmt.Errorf("engine: extract terrane: %w", err)
	}
	e.nextTerraneID++
	e.terranes[id] = t
	e.recordEvent("extract", id, fmt.Sprintf("home %d, carrier %d, %d vertices", homePlateID, carrierPlateID, len(vertexIDs)), "ok")
	return id, nil
}

// ReattachTerrane restores terrane id's vertices to the render mesh under
// targetPlateID, writing back its carried positions and surface payload,
// and removes it from the engine's live terrane set.
func (e *Engine) ReattachTerrane(id int, targetPlateID int) error {
	t, ok := e.terranes[id]
	if !ok {
		return fmt.Errorf("engine: reattach terrane: terrane %d does not exist", id)
	}

	payload := make([]topology.VertexPayload, len(e.data))
	for i, d := range e.data {
		payload[i] = topology.VertexPayload{Elevation: d.Elevation, CrustAge: d.CrustAge}
	}

	if err := topology.Reattach(e.mesh.Vertices, payload, e.vertexPlate, t, targetPlateID); err != nil {
		e.recordEvent("reattach", id, fmt.Sprintf("target plate %d", targetPlateID), err.Error())
		return fmt.Errorf("engine: reattach terrane: %w", err)
	}
	for i, d := range payload {
		e.data[i] = surface.VertexData{Elevation: d.Elevation, CrustAge: d.CrustAge}
	}
	delete(e.terranes, id)
	e.recordEvent("reattach", id, fmt.Sprintf("target plate %d", targetPlateID), "ok")
	return nil
}
