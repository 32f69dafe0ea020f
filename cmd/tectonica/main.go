// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Tectonica is a tool to run and inspect deterministic tectonic-plate
// simulations.
package main

import (
	"github.com/js-arias/command"

	"github.com/tectonica-sim/tectonica/cmd/tectonica/exportcmd"
	"github.com/tectonica-sim/tectonica/cmd/tectonica/mapcmd"
	"github.com/tectonica-sim/tectonica/cmd/tectonica/resetcmd"
	"github.com/tectonica-sim/tectonica/cmd/tectonica/stepcmd"
)

var app = &command.Command{
	Usage: "tectonica <command> [<argument>...]",
	Short: "a tool to run and inspect deterministic tectonic-plate simulations",
}

func init() {
	app.Add(resetcmd.Command)
	app.Add(stepcmd.Command)
	app.Add(exportcmd.Command)
	app.Add(mapcmd.Command)
}

func main() {
	app.Main()
}
