// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package stepcmd implements a command to advance a simulation state by
// one or more fixed-duration steps.
package stepcmd

import (
	"fmt"

	"github.com/js-arias/command"
	"github.com/rs/zerolog"

	"github.com/tectonica-sim/tectonica/cmd/tectonica/simstate"
)

var Command = &command.Command{
	Usage: `step [-n|--steps <count>] <state-file>`,
	Short: "advance a simulation state",
	Long: `
Command step replays a simulation state file to its current step count,
advances it by the requested number of additional fixed-duration steps (2
million years each), and writes the new step count back to the file.

The first argument of the command is the name of the state file to advance,
as produced by the reset command.

The flag --steps, or -n, sets the number of steps to advance (default 1).
	`,
	SetFlags: setFlags,
	Run:      run,
}

var stepsFlag int

func setFlags(c *command.Command) {
	c.Flags().IntVar(&stepsFlag, "steps", 1, "")
	c.Flags().IntVar(&stepsFlag, "n", 1, "")
}

func run(c *command.Command, args []string) error {
	if len(args) == 0 {
		return c.UsageError("expecting state file")
	}
	if stepsFlag <= 0 {
		return c.UsageError("--steps must be a positive value")
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
	if err := e.AdvanceSteps(stepsFlag); err != nil {
		return fmt.Errorf("when advancing simulation: %v", err)
	}
	st.Steps += stepsFlag

	if err := simstate.Save(stateFile, st); err != nil {
		return err
	}
	fmt.Printf("%s: %d steps, %.1f My elapsed\n", stateFile, st.Steps, e.CurrentTimeMy())
	return nil
}
