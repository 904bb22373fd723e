// Package detect runs YOLO object detection and decodes its output.
package detect

import (
	"image"
)

// Detection is a single object found in a frame. Box is in source frame pixels.
type Detection struct {
	Class int
	Score float32
	Box   image.Rectangle
}

// Detector finds objects in a preprocessed frame.
type Detector interface {
	// Detect runs inference on an NCHW float32 input and returns boxes
	// scaled to a source frame of the given size.
	Detect(input []float32, src image.Point) ([]Detection, error)
	// Names returns the class index to name mapping of the model.
	Names() Names
	// Close releases inference resources.
	Close() error
}
