// Command test-listen is a manual test for listen mode. Hold the hotkey,
// say something, release it, and the transcript plus any class names in it
// are printed. Press Ctrl+C to exit.
//
// Usage:
//
//	go run ./cmd/test-listen [--config path] [--mode hold|toggle] [--names coco.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chaz8081/saywatch/internal/audio"
	"github.com/chaz8081/saywatch/internal/config"
	"github.com/chaz8081/saywatch/internal/detect"
	"github.com/chaz8081/saywatch/internal/hotkey"
	"github.com/chaz8081/saywatch/internal/match"
	"github.com/chaz8081/saywatch/internal/transcribe"
	"github.com/chaz8081/saywatch/internal/voice"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	mode := flag.String("mode", "", "hotkey mode: hold or toggle (default from config)")
	namesPath := flag.String("names", "", "YAML file with class names (default: a few COCO classes)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	if *mode != "" {
		cfg.Listen.Mode = *mode
	}

	names := detect.Names{0: "person", 39: "bottle", 41: "cup", 56: "chair", 63: "laptop", 67: "cell phone"}
	if *namesPath != "" {
		var err error
		if names, err = detect.LoadNames(*namesPath); err != nil {
			log.Fatalf("names: %v", err)
		}
	}

	tr, err := transcribe.New(&cfg.Transcribe)
	if err != nil {
		log.Fatalf("transcriber: %v", err)
	}
	defer tr.Close()

	matcher, err := match.FromConfig(&cfg.Match)
	if err != nil {
		log.Fatalf("match: %v", err)
	}

	rec, err := audio.NewRecorder(cfg.Listen.SampleRate, cfg.Listen.Channels, 30)
	if err != nil {
		log.Fatalf("recorder: %v", err)
	}
	defer rec.Close()

	listener := hotkey.NewListener(cfg.Listen.Keys, cfg.Listen.Mode)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		fmt.Println("\nShutting down...")
		listener.Stop()
	}()

	// Drive the recorder directly so every transcript is shown, matched or not.
	go func() {
		for ev := range listener.Events() {
			switch ev.Type {
			case hotkey.EventStart:
				if err := rec.Start(); err != nil {
					fmt.Println("!!! start failed:", err)
					continue
				}
				fmt.Println(">>> recording")
			case hotkey.EventStop:
				if !rec.IsRecording() {
					continue
				}
				samples := rec.Stop()
				fmt.Printf("<<< %d samples\n", len(samples))
				report(ctx, tr, matcher, names, samples, int(cfg.Listen.SampleRate))
			}
		}
	}()

	fmt.Printf("Hold %s and speak (%s mode). Ctrl+C to exit.\n", strings.Join(cfg.Listen.Keys, "+"), cfg.Listen.Mode)
	listener.Start()
	fmt.Println("Done.")
}

func report(ctx context.Context, tr transcribe.Transcriber, m *match.Matcher, names detect.Names, samples []float32, rate int) {
	if len(samples) < int(voice.MinDuration.Seconds()*float64(rate)) {
		fmt.Println("    too short")
		return
	}
	path := filepath.Join(os.TempDir(), "saywatch-test-listen.wav")
	if err := audio.WriteWAV(path, samples, rate); err != nil {
		fmt.Println("    write:", err)
		return
	}
	defer os.Remove(path)

	segments, err := tr.Transcribe(ctx, path)
	if err != nil {
		fmt.Println("    transcribe:", err)
		return
	}
	texts := transcribe.Texts(segments)
	fmt.Printf("    text: %q\n", strings.Join(texts, " "))
	for _, hit := range m.Words(texts, names) {
		fmt.Printf("    class %d %q\n", hit.Index, hit.Word)
	}
	if res := m.Match(texts, names); res.Found {
		fmt.Printf("    active: %q\n", res.Word)
	}
}
