// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package resetcmd implements a command to create a new simulation state
// file from a set of parameters.
package resetcmd

import (
	"github.com/js-arias/command"

	"github.com/tectonica-sim/tectonica/cmd/tectonica/simstate"
	"github.com/tectonica-sim/tectonica/engine"
)

var Command = &command.Command{
	Usage: `reset [--params <param-file>] [--seed <value>] <state-file>`,
	Short: "create a new simulation state",
	Long: `
Command reset creates a new simulation state file at the indicated time
zero: no steps advanced, plates freshly generated from the icosphere.

The first argument of the command is the name of the state file to create.

The flag --params sets the name of a JSON file with the parameters described
in the project documentation. Any field left out of the file keeps its
default value. If the flag is absent, the simulation uses the built-in
defaults.

The flag --seed sets the random seed used by the simulation (default 1);
it is overridden by a "seed" field in the parameters file, if present.
	`,
	SetFlags: setFlags,
	Run:      run,
}

var paramsFile string
var seedFlag int64

func setFlags(c *command.Command) {
	c.Flags().StringVar(&paramsFile, "params", "", "")
	c.Flags().Int64Var(&seedFlag, "seed", 1, "")
}

func run(c *command.Command, args []string) error {
	if len(args) == 0 {
		return c.UsageError("expecting state file")
	}
	stateFile := args[0]

	var params engine.Parameters
	if paramsFile != "" {
		p, err := engine.LoadParameters(paramsFile, seedFlag)
		if err != nil {
			return err
		}
		params = p
	} else {
		params = engine.DefaultParameters(seedFlag)
	}

	return simstate.Save(stateFile, &simstate.File{Parameters: params, Steps: 0})
}
