// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package exportcmd implements a command to write a simulation state's
// plate, boundary, hotspot, topology-event and per-vertex tables to CSV.
package exportcmd

import (
	"fmt"

	"github.com/js-arias/command"
	"github.com/rs/zerolog"

	"github.com/tectonica-sim/tectonica/cmd/tectonica/simstate"
	"github.com/tectonica-sim/tectonica/export"
)

var Command = &command.Command{
	Usage: `export [-o|--output <out-dir>] <state-file>`,
	Short: "export a simulation state to CSV tables",
	Long: `
Command export replays a simulation state file and writes its current
plate, boundary, hotspot, topology-event, and per-vertex tables as
timestamped CSV files under the indicated output directory.

The first argument of the command is the name of the state file to export,
as produced by the reset and step commands.

The flag --output, or -o, is required and sets the output directory; it is
created if it does not already exist.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var outputDir string

func setFlags(c *command.Command) {
	c.Flags().StringVar(&outputDir, "output", "", "")
	c.Flags().StringVar(&outputDir, "o", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) == 0 {
		return c.UsageError("expecting state file")
	}
	if outputDir == "" {
		return c.UsageError("undefined output directory flag --output")
	}
	stateFile := args[0]

	st, err := simstate.Load(stateFile)
	if err != nil {
		return err
	}
	e, err := st.Build(zerolog.Nop())
	if err != nil {
		return fmt.Errorf("when replaying state file %q: %v", stateFile, err)
	}

	paths, err := export.Export(outputDir, e)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}
