package detect

import (
	"fmt"
	"image"
	"math"
	"sort"
)

// Anchors returns the number of predictions a YOLOv8/YOLO11 head emits for
// a square input: one per cell of the stride 8, 16 and 32 grids.
func Anchors(inputSize int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		g := inputSize / stride
		n += g * g
	}
	return n
}

// Decode turns a raw [1, 4+classes, anchors] output into candidate
// detections above minScore, in input pixel coordinates. Boxes are encoded
// as center x, center y, width, height in the first four channels.
func Decode(out []float32, classes, anchors int, minScore float32) ([]Detection, error) {
	if want := (4 + classes) * anchors; len(out) != want {
		return nil, fmt.Errorf("detect: output has %d values, want %d (%d classes x %d anchors)", len(out), want, classes, anchors)
	}

	var dets []Detection
	for a := 0; a < anchors; a++ {
		best, bestScore := -1, minScore
		for c := 0; c < classes; c++ {
			if s := out[(4+c)*anchors+a]; s > bestScore {
				best, bestScore = c, s
			}
		}
		if best < 0 {
			continue
		}

		cx, cy := out[a], out[anchors+a]
		w, h := out[2*anchors+a], out[3*anchors+a]
		dets = append(dets, Detection{
			Class: best,
			Score: bestScore,
			Box: image.Rect(
				round(cx-w/2), round(cy-h/2),
				round(cx+w/2), round(cy+h/2),
			),
		})
	}
	return dets, nil
}

// NMS keeps the highest scoring box of every cluster of same-class boxes
// whose IoU exceeds iouThreshold. The result is ordered by descending score.
func NMS(dets []Detection, iouThreshold float32) []Detection {
	sorted := make([]Detection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	kept := make([]Detection, 0, len(sorted))
	suppressed := make([]bool, len(sorted))
	for i := range sorted {
		if suppressed[i] {
			continue
		}
		kept = append(kept, sorted[i])
		for j := i + 1; j < len(sorted); j++ {
			if !suppressed[j] && sorted[j].Class == sorted[i].Class && IoU(sorted[i].Box, sorted[j].Box) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}

// IoU returns the intersection over union of two rectangles.
func IoU(a, b image.Rectangle) float32 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	ia := area(inter)
	union := area(a) + area(b) - ia
	if union <= 0 {
		return 0
	}
	return float32(ia) / float32(union)
}

// Scale maps boxes from a square input of inputSize pixels onto a source
// frame of size src, clamping them to the frame.
func Scale(dets []Detection, inputSize int, src image.Point) []Detection {
	sx := float32(src.X) / float32(inputSize)
	sy := float32(src.Y) / float32(inputSize)
	bounds := image.Rectangle{Max: src}

	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		r := image.Rect(
			round(float32(d.Box.Min.X)*sx), round(float32(d.Box.Min.Y)*sy),
			round(float32(d.Box.Max.X)*sx), round(float32(d.Box.Max.Y)*sy),
		).Intersect(bounds)
		if r.Empty() {
			continue
		}
		d.Box = r
		out = append(out, d)
	}
	return out
}

func area(r image.Rectangle) int {
	return r.Dx() * r.Dy()
}

func round(v float32) int {
	return int(math.Round(float64(v)))
}
