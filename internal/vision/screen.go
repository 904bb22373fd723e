package vision

import (
	"log/slog"

	"github.com/go-vgo/robotgo"
	"gocv.io/x/gocv"
)

// Screen captures the primary display as a frame source.
type Screen struct {
	frame gocv.Mat
}

// NewScreen returns a desktop capture source.
func NewScreen() *Screen {
	return &Screen{frame: gocv.NewMat()}
}

// Read captures the screen. A failed capture is final, like a camera
// that stopped delivering frames.
func (s *Screen) Read() (gocv.Mat, bool) {
	img, err := robotgo.CaptureImg()
	if err != nil {
		slog.Error("screen capture failed", "err", err)
		return s.frame, false
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		slog.Error("screen frame conversion failed", "err", err)
		return s.frame, false
	}
	s.frame.Close()
	s.frame = mat
	return s.frame, !s.frame.Empty()
}

// Close releases the last frame.
func (s *Screen) Close() error {
	return s.frame.Close()
}
