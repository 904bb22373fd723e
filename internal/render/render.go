// Package render draws highlighted detections onto a frame.
package render

import (
	"image"
	"image/color"

	"github.com/chaz8081/saywatch/internal/detect"
	"github.com/chaz8081/saywatch/internal/match"
)

// Canvas is a drawable frame buffer.
type Canvas interface {
	Rectangle(r image.Rectangle, c color.RGBA, thickness int)
	Text(s string, origin image.Point, scale float64, c color.RGBA, thickness int)
}

// ClassNamer resolves class indices to display names.
type ClassNamer interface {
	Name(idx int) (string, bool)
}

// Highlighter draws the detections of the active class.
type Highlighter struct {
	Color       color.RGBA
	Thickness   int
	FontScale   float64
	LabelOffset int // label baseline distance above the box
}

// DefaultHighlighter draws green 2px boxes with the label 10px above the box.
func DefaultHighlighter() Highlighter {
	return Highlighter{
		Color:       color.RGBA{G: 255, A: 255},
		Thickness:   2,
		FontScale:   0.5,
		LabelOffset: 10,
	}
}

// Selection is the set of class indices to highlight.
type Selection map[int]bool

// Select builds a Selection from match results, skipping those not found.
func Select(results ...match.Result) Selection {
	sel := make(Selection, len(results))
	for _, r := range results {
		if r.Found {
			sel[r.Index] = true
		}
	}
	return sel
}

// Draw renders a rectangle and label for every detection of the active
// class and returns how many were drawn. Nothing is drawn unless
// active.Found, and detections whose class has no name are skipped.
func (h Highlighter) Draw(c Canvas, dets []detect.Detection, active match.Result, names ClassNamer) int {
	return h.DrawSelection(c, dets, Select(active), names)
}

// DrawSelection is Draw for any number of active classes.
func (h Highlighter) DrawSelection(c Canvas, dets []detect.Detection, sel Selection, names ClassNamer) int {
	drawn := 0
	for _, d := range dets {
		if !sel[d.Class] {
			continue
		}
		label, ok := names.Name(d.Class)
		if !ok {
			continue
		}
		c.Rectangle(d.Box, h.Color, h.Thickness)
		c.Text(label, image.Pt(d.Box.Min.X, d.Box.Min.Y-h.LabelOffset), h.FontScale, h.Color, h.Thickness)
		drawn++
	}
	return drawn
}
