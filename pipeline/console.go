package pipeline

import (
	"io"

	"github.com/fatih/color"

	"github.com/khaledhikmat/gaze-go/gaze"
)

var directionColors = map[gaze.Direction]*color.Color{
	gaze.DirectionLeft:  color.New(color.FgGreen, color.Bold),
	gaze.DirectionRight: color.New(color.FgYellow, color.Bold),
	gaze.DirectionNone:  color.New(color.Faint),
}

// Console prints a line whenever the direction changes.
type Console struct {
	w    io.Writer
	last gaze.Direction
}

func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = color.Output
	}
	return &Console{w: w}
}

// Update prints d if it differs from the previous direction and reports
// whether it did.
func (c *Console) Update(source string, frame int, d gaze.Direction) bool {
	if d == c.last {
		return false
	}
	c.last = d

	printer, ok := directionColors[d]
	if !ok {
		printer = directionColors[gaze.DirectionNone]
	}
	printer.Fprintf(c.w, "%s #%d: %s\n", source, frame, d)
	return true
}
