// Command test-camera is a manual test for the frame source and preview
// window. It draws a fixed box on every frame so drawing can be checked
// without a detector. In the window press q to exit, b to toggle the box
// and c to switch to the next webcam; Ctrl+C also exits.
//
// Usage:
//
//	go run ./cmd/test-camera [--device 0] [--screen]
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gocv.io/x/gocv"

	"github.com/chaz8081/saywatch/internal/capture"
	"github.com/chaz8081/saywatch/internal/detect"
	"github.com/chaz8081/saywatch/internal/match"
	"github.com/chaz8081/saywatch/internal/render"
	"github.com/chaz8081/saywatch/internal/vision"
)

func main() {
	device := flag.Int("device", 0, "webcam device index")
	screen := flag.Bool("screen", false, "capture the screen instead of the webcam")
	flag.Parse()

	src, err := capture.NewSwitcher[gocv.Mat](func(d int) (capture.Source[gocv.Mat], error) {
		if *screen {
			if d != *device {
				return nil, fmt.Errorf("screen capture has no device %d", d)
			}
			return vision.NewScreen(), nil
		}
		cam, err := vision.OpenCamera(d)
		if err != nil {
			return nil, err
		}
		return cam, nil
	}, *device)
	if err != nil {
		log.Fatalf("%v", err)
	}

	window := vision.NewWindow("test-camera", vision.Keys{Quit: "q", Toggle: "b", NextCamera: "c"})
	defer window.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	names := detect.Names{0: "test"}
	active := match.Result{Index: 0, Found: true, Word: "test"}
	highlighter := render.DefaultHighlighter()

	show := true
	fmt.Println("Showing frames. Press q in the window or Ctrl+C to exit.")
	stats, err := capture.Run(ctx, src, func(_ context.Context, frame gocv.Mat) error {
		size := vision.Size(frame)
		box := image.Rect(size.X/4, size.Y/4, size.X*3/4, size.Y*3/4)
		if show {
			highlighter.Draw(vision.MatCanvas{Mat: &frame}, []detect.Detection{{Class: 0, Score: 1, Box: box}}, active, names)
		}
		switch window.Show(frame) {
		case vision.Quit:
			return capture.ErrStop
		case vision.ToggleBoxes:
			show = !show
		case vision.NextCamera:
			if err := src.Next(); err != nil {
				fmt.Println("switch:", err)
			} else {
				fmt.Println("device", src.Device())
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Printf("Done: %s after %d frames.\n", stats.Reason, stats.Frames)
}
