package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Blob converts a BGR frame into a 1x3xSxS float32 tensor in RGB order with
// values scaled to [0, 1]. The frame is stretched to the square input.
func Blob(frame gocv.Mat, size int) ([]float32, error) {
	if frame.Empty() {
		return nil, fmt.Errorf("vision: empty frame")
	}
	blob := gocv.BlobFromImage(frame, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	data, err := blob.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("vision: read blob: %w", err)
	}
	out := make([]float32, len(data))
	copy(out, data)
	return out, nil
}

// Size returns the frame dimensions.
func Size(frame gocv.Mat) image.Point {
	return image.Pt(frame.Cols(), frame.Rows())
}
