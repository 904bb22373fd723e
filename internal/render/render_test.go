package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaz8081/saywatch/internal/detect"
	"github.com/chaz8081/saywatch/internal/match"
)

type call struct {
	rect  image.Rectangle
	text  string
	point image.Point
}

type recordingCanvas struct {
	rects []call
	texts []call
}

func (c *recordingCanvas) Rectangle(r image.Rectangle, _ color.RGBA, _ int) {
	c.rects = append(c.rects, call{rect: r})
}

func (c *recordingCanvas) Text(s string, origin image.Point, _ float64, _ color.RGBA, _ int) {
	c.texts = append(c.texts, call{text: s, point: origin})
}

var names = detect.Names{0: "person", 41: "cup", 63: "laptop"}

func frameDetections() []detect.Detection {
	return []detect.Detection{
		{Class: 41, Score: 0.9, Box: image.Rect(10, 20, 50, 60)},
		{Class: 0, Score: 0.8, Box: image.Rect(100, 100, 200, 300)},
		{Class: 41, Score: 0.7, Box: image.Rect(300, 40, 340, 90)},
		{Class: 63, Score: 0.6, Box: image.Rect(0, 0, 10, 10)},
		{Class: 41, Score: 0.5, Box: image.Rect(400, 400, 420, 430)},
	}
}

func TestDrawOnlyActiveClass(t *testing.T) {
	canvas := &recordingCanvas{}
	n := DefaultHighlighter().Draw(canvas, frameDetections(), match.Result{Index: 41, Found: true}, names)

	assert.Equal(t, 3, n)
	require.Len(t, canvas.rects, 3)
	require.Len(t, canvas.texts, 3)
	assert.Equal(t, image.Rect(10, 20, 50, 60), canvas.rects[0].rect)
	assert.Equal(t, "cup", canvas.texts[0].text)
	assert.Equal(t, image.Pt(10, 10), canvas.texts[0].point)
}

func TestDrawNothingWithoutMatch(t *testing.T) {
	canvas := &recordingCanvas{}
	n := DefaultHighlighter().Draw(canvas, frameDetections(), match.Result{Index: 41, Found: false}, names)

	assert.Zero(t, n)
	assert.Empty(t, canvas.rects)
	assert.Empty(t, canvas.texts)
}

func TestDrawSkipsUnnamedClasses(t *testing.T) {
	canvas := &recordingCanvas{}
	dets := []detect.Detection{{Class: 99, Box: image.Rect(0, 0, 5, 5)}}

	n := DefaultHighlighter().Draw(canvas, dets, match.Result{Index: 99, Found: true}, names)

	assert.Zero(t, n)
	assert.Empty(t, canvas.rects)
}

func TestDrawCountsMatchingDetections(t *testing.T) {
	dets := frameDetections()
	for _, tt := range []struct {
		class int
		want  int
	}{{41, 3}, {0, 1}, {63, 1}, {67, 0}} {
		canvas := &recordingCanvas{}
		n := DefaultHighlighter().Draw(canvas, dets, match.Result{Index: tt.class, Found: true}, names)
		assert.Equal(t, tt.want, n, "class %d", tt.class)
		assert.Len(t, canvas.rects, tt.want)
	}
}

func TestDrawSelectionEverySpokenClass(t *testing.T) {
	canvas := &recordingCanvas{}
	sel := Select(
		match.Result{Index: 41, Found: true},
		match.Result{Index: 0, Found: true},
		match.Result{Index: 63, Found: false},
	)

	n := DefaultHighlighter().DrawSelection(canvas, frameDetections(), sel, names)

	assert.Equal(t, 4, n)
	var labels []string
	for _, c := range canvas.texts {
		labels = append(labels, c.text)
	}
	assert.ElementsMatch(t, []string{"cup", "person", "cup", "cup"}, labels)
}

func TestSelectSkipsUnfound(t *testing.T) {
	assert.Empty(t, Select(match.Result{Index: 3}))
	assert.Empty(t, Select())
	assert.Equal(t, Selection{41: true}, Select(match.Result{Index: 41, Found: true}, match.Result{Index: 41, Found: true}))
}

func TestDrawSelectionEmpty(t *testing.T) {
	canvas := &recordingCanvas{}
	assert.Zero(t, DefaultHighlighter().DrawSelection(canvas, frameDetections(), nil, names))
	assert.Empty(t, canvas.rects)
}
