package vision

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Action is what a key press in the window asks for.
type Action int

const (
	// None means no bound key was pressed.
	None Action = iota
	// Quit ends the capture loop.
	Quit
	// ToggleBoxes shows or hides the highlighted boxes.
	ToggleBoxes
	// NextCamera switches to the next webcam.
	NextCamera
)

// Keys binds window key presses to actions. Keys are single ASCII characters.
type Keys struct {
	Quit       string
	Toggle     string
	NextCamera string
}

// Window is the preview window frames are shown in.
type Window struct {
	w    *gocv.Window
	keys map[int]Action
}

// NewWindow opens a window with the given title.
func NewWindow(title string, keys Keys) *Window {
	return &Window{w: gocv.NewWindow(title), keys: keyMap(keys)}
}

func keyMap(k Keys) map[int]Action {
	m := make(map[int]Action, 3)
	for key, a := range map[string]Action{k.Quit: Quit, k.Toggle: ToggleBoxes, k.NextCamera: NextCamera} {
		if len(key) == 1 {
			m[int(key[0])] = a
		}
	}
	return m
}

// Show displays frame and polls the keyboard once.
func (w *Window) Show(frame gocv.Mat) Action {
	w.w.IMShow(frame)
	return w.action(w.w.WaitKey(1))
}

func (w *Window) action(key int) Action {
	if key < 0 {
		return None
	}
	return w.keys[key&0xff]
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.w.Close()
}

// MatCanvas draws onto a frame in place.
type MatCanvas struct {
	Mat *gocv.Mat
}

// Rectangle draws an outlined rectangle.
func (c MatCanvas) Rectangle(r image.Rectangle, col color.RGBA, thickness int) {
	gocv.Rectangle(c.Mat, r, col, thickness)
}

// Text draws s with its baseline starting at origin.
func (c MatCanvas) Text(s string, origin image.Point, scale float64, col color.RGBA, thickness int) {
	gocv.PutText(c.Mat, s, origin, gocv.FontHersheySimplex, scale, col, thickness)
}
