// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tectonica-sim/tectonica/engine"
)

// Export writes every table (plates, boundaries, hotspots, topology
// events, per-vertex sample) to its own timestamped CSV file under dir
// (spec §6 "Persisted outputs: CSV files as described in §4.14, timestamped
// under an output directory"), and returns the paths written in that
// order. dir is created if it does not already exist.
func Export(dir string, e *engine.Engine) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create output dir %s: %w", dir, err)
	}
	stamp := time.Now().UTC().Format("20060102T150405Z")

	tables := []struct {
		name  string
		write func(w *os.File) error
	}{
		{"plates", func(w *os.File) error { return WritePlates(w, e.Plates()) }},
		{"boundaries", func(w *os.File) error { return WriteBoundaries(w, e.Boundaries()) }},
		{"hotspots", func(w *os.File) error { return WriteHotspots(w, e.Hotspots()) }},
		{"topology_events", func(w *os.File) error { return WriteTopologyEvents(w, e.Events()) }},
		{"vertices", func(w *os.File) error { return WriteVertices(w, e) }},
	}

	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", t.name, stamp))
		f, err := os.Create(path)
		if err != nil {
			return paths, fmt.Errorf("export: create %s: %w", path, err)
		}
		writeErr := t.write(f)
		closeErr := f.Close()
		if writeErr != nil {
			return paths, fmt.Errorf("export: write %s: %w", path, writeErr)
		}
		if closeErr != nil {
			return paths, fmt.Errorf("export: close %s: %w", path, closeErr)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
