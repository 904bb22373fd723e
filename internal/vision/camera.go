// Package vision connects the detection pipeline to OpenCV: frame sources,
// the preview window and drawing.
package vision

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Camera reads frames from a webcam. It reuses one frame buffer, so a frame
// is valid only until the next Read.
type Camera struct {
	vc    *gocv.VideoCapture
	frame gocv.Mat
}

// OpenCamera opens the webcam with the given device index.
func OpenCamera(device int) (*Camera, error) {
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("vision: open camera %d: %w", device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("vision: camera %d is not available", device)
	}
	return &Camera{vc: vc, frame: gocv.NewMat()}, nil
}

// Read grabs the next frame. It returns false when the read failed or the
// frame is empty.
func (c *Camera) Read() (gocv.Mat, bool) {
	if !c.vc.Read(&c.frame) || c.frame.Empty() {
		return c.frame, false
	}
	return c.frame, true
}

// Close releases the device and the frame buffer.
func (c *Camera) Close() error {
	err := c.vc.Close()
	if ferr := c.frame.Close(); err == nil {
		err = ferr
	}
	return err
}
