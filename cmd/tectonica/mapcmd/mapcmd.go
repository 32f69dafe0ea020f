// Copyright © 2026 The Tectonica Authors.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package mapcmd implements a command to draw a simulation state as an
// equirectangular png image.
package mapcmd

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/js-arias/blind"
	"github.com/js-arias/command"
	"github.com/rs/zerolog"

	"github.com/tectonica-sim/tectonica/cmd/tectonica/simstate"
	"github.com/tectonica-sim/tectonica/engine"
	"github.com/tectonica-sim/tectonica/kdtree"
	"github.com/tectonica-sim/tectonica/sampler"
	"github.com/tectonica-sim/tectonica/sphere"
)

var Command = &command.Command{
	Usage: `map [-c|--columns <value>] [--field <name>]
	-o|--output <out-image-file> <state-file>`,
	Short: "draw a map of a simulation state",
	Long: `
Command map reads a simulation state file and draws the current state as a
png image, using an equirectangular projection.

The first argument of the command is the name of the state file to draw,
as produced by the reset and step commands.

The flag --output, or -o, is required and sets the name of the output
image.

The flag --field selects what is drawn: "elevation" (the default), for the
amplified elevation field interpolated across the render mesh, or "plates",
for the plate owning the nearest render-mesh vertex.

By default the image will be 3600 pixels wide; use the flag --columns, or
-c, to define a different number of image columns (the image is always half
as many rows).
	`,
	SetFlags: setFlags,
	Run:      run,
}

var colsFlag int
var fieldFlag string
var output string

func setFlags(c *command.Command) {
	c.Flags().IntVar(&colsFlag, "columns", 3600, "")
	c.Flags().IntVar(&colsFlag, "c", 3600, "")
	c.Flags().StringVar(&fieldFlag, "field", "elevation", "")
	c.Flags().StringVar(&output, "output", "", "")
	c.Flags().StringVar(&output, "o", "", "")
}

func run(c *command.Command, args []string) error {
	if len(args) == 0 {
		return c.UsageError("expecting simulation state file")
	}
	if output == "" {
		return c.UsageError("undefined output image flag --output")
	}

	st, err := simstate.Load(args[0])
	if err != nil {
		return err
	}
	e, err := st.Build(zerolog.Nop())
	if err != nil {
		return fmt.Errorf("when replaying state file %q: %v", args[0], err)
	}

	var img image.Image
	switch fieldFlag {
	case "elevation":
		img = elevationImage(e)
	case "plates":
		img = platesImage(e)
	default:
		return c.UsageError(fmt.Sprintf("unknown --field value %q", fieldFlag))
	}

	return writeImage(output, img)
}

// equirectImage maps image pixels to equirectangular (u, v) coordinates in
// [0, 1] and colors each one with at, following the plate-carree projection
// the teacher's own map command uses.
type equirectImage struct {
	cols, rows int
	at         func(u, v float64) color.RGBA
}

func (m equirectImage) ColorModel() color.Model { return color.RGBAModel }
func (m equirectImage) Bounds() image.Rectangle { return image.Rect(0, 0, m.cols, m.rows) }
func (m equirectImage) At(x, y int) color.Color {
	u := (float64(x) + 0.5) / float64(m.cols)
	v := (float64(y) + 0.5) / float64(m.rows)
	return m.at(u, v)
}

func newEquirectImage(at func(u, v float64) color.RGBA) equirectImage {
	rows := colsFlag / 2
	if rows < 1 {
		rows = 1
	}
	return equirectImage{cols: colsFlag, rows: rows, at: at}
}

func elevationImage(e *engine.Engine) image.Image {
	s := sampler.New(e.Mesh())
	elevations := e.VertexAmplifiedElevations()

	lo, hi := elevations[0], elevations[0]
	for _, v := range elevations {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span < 1e-9 {
		span = 1
	}

	return newEquirectImage(func(u, v float64) color.RGBA {
		elev := s.Sample(u, v, elevations)
		t := sphere.Clamp((elev-lo)/span, 0, 1)
		return blind.Sequential(blind.Iridescent, t)
	})
}

func platesImage(e *engine.Engine) image.Image {
	vertices := e.Mesh().Vertices
	ids := make([]int, len(vertices))
	for i := range vertices {
		ids[i] = i
	}
	tree := kdtree.Build(vertices, ids)
	plateOf := e.VertexPlateAssignments()

	numPlates := 1
	for _, p := range plateOf {
		if p+1 > numPlates {
			numPlates = p + 1
		}
	}

	return newEquirectImage(func(u, v float64) color.RGBA {
		dir := sphere.EquirectangularToVec(u, v, 1e-6)
		id, _, ok := tree.Nearest(dir)
		if !ok {
			return color.RGBA{153, 153, 153, 255}
		}
		t := (float64(plateOf[id]) + 0.5) / float64(numPlates)
		return blind.Sequential(blind.Iridescent, t)
	})
}

func writeImage(name string, img image.Image) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		e := f.Close()
		if e != nil && err == nil {
			err = e
		}
	}()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("when encoding image file %q: %v", name, err)
	}
	return nil
}
