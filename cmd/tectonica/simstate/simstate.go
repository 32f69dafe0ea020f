// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package simstate persists the minimal state a tectonica command
// invocation needs to resume a simulation across process boundaries: the
// parameters it was built from and the number of steps already advanced.
// The engine's determinism guarantee (same parameters, same step count,
// same state — see engine.Engine's AdvanceSteps) makes replaying those two
// fields from Reset sufficient to reproduce bit-identical state, so the
// full plate/boundary/terrane graph never needs its own file format.
package simstate

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/tectonica-sim/tectonica/engine"
)

// File is the on-disk representation of a simulation's replay recipe.
type File struct {
	Parameters engine.Parameters `json:"parameters"`
	Steps      int               `json:"steps"`
}

// Load reads a state file written by Save.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("when reading state file %q: %v", path, err)
	}
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("when parsing state file %q: %v", path, err)
	}
	return &f, nil
}

// Save writes f to path as indented JSON.
func Save(path string, f *File) (err error) {
	raw, err := json.MarshalIndent(f, "", "\t")
	if err != nil {
		return fmt.Errorf("when encoding state file %q: %v", path, err)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		e := out.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	if _, err := out.Write(raw); err != nil {
		return fmt.Errorf("when writing state file %q: %v", path, err)
	}
	return nil
}

// Build constructs an Engine from f's parameters and replays it to f's
// recorded step count.
func (f *File) Build(logger zerolog.Logger) (*engine.Engine, error) {
	e := engine.New(f.Parameters, logger)
	if f.Steps > 0 {
		if err := e.AdvanceSteps(f.Steps); err != nil {
			return nil, fmt.Errorf("replaying %d steps: %w", f.Steps, err)
		}
	}
	return e, nil
}
