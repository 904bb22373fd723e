package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gocv.io/x/gocv"

	"github.com/chaz8081/saywatch/internal/audio"
	"github.com/chaz8081/saywatch/internal/capture"
	"github.com/chaz8081/saywatch/internal/config"
	"github.com/chaz8081/saywatch/internal/detect"
	"github.com/chaz8081/saywatch/internal/hotkey"
	"github.com/chaz8081/saywatch/internal/match"
	"github.com/chaz8081/saywatch/internal/models"
	"github.com/chaz8081/saywatch/internal/render"
	"github.com/chaz8081/saywatch/internal/transcribe"
	"github.com/chaz8081/saywatch/internal/vision"
	"github.com/chaz8081/saywatch/internal/voice"
)

// maxRecording caps a single push-to-talk recording.
const maxRecording = 30 // seconds

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/saywatch/config.yaml)")
	audioPath := flag.String("audio", "", "audio file to transcribe (overrides transcribe.audio_path)")
	initConfig := flag.Bool("init", false, "write a default config file and exit")
	download := flag.Bool("download", false, "download models interactively and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load .env: %v", err)
	}

	if *initConfig {
		path, err := config.WriteDefault()
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		fmt.Printf("Config written to %s\n", path)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	// Background listeners must finish before the models they use close.
	td := &teardown{stop: stop}
	defer td.Run()

	if *download {
		if err := models.RunInteractiveDownload(ctx, os.Stdin); err != nil {
			log.Fatalf("download: %v", err)
		}
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *audioPath != "" {
		cfg.Transcribe.AudioPath = *audioPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	})))

	printBanner(cfg)

	// Speech first: the active class is fixed before the camera starts.
	log.Printf("Loading %s transcriber...", cfg.Transcribe.Backend)
	transcriber, err := transcribe.New(&cfg.Transcribe)
	if err != nil {
		log.Fatalf("Failed to load transcriber: %v\n\nCheck that the model file exists at: %s\nRun 'saywatch -download' to fetch it.", err, cfg.Transcribe.ModelPath)
	}
	td.OnClose(transcriber.Close)

	start := time.Now()
	segments, err := transcriber.Transcribe(ctx, cfg.Transcribe.AudioPath)
	if err != nil {
		log.Fatalf("Failed to transcribe %s: %v", cfg.Transcribe.AudioPath, err)
	}
	texts := transcribe.Texts(segments)
	log.Printf("Transcribed in %s: %q", time.Since(start).Round(time.Millisecond), strings.Join(texts, " "))

	detector, err := detect.NewONNXDetector(detect.Options{
		ModelPath:   cfg.Detect.ModelPath,
		NamesPath:   cfg.Detect.NamesPath,
		LibraryPath: cfg.Detect.LibraryPath,
		InputSize:   cfg.Detect.InputSize,
		Confidence:  cfg.Detect.Confidence,
		IoU:         cfg.Detect.IoU,
	})
	if err != nil {
		log.Fatalf("Failed to load detector: %v\n\nExport an ONNX model with: yolo-export -model yolo11n.pt -format onnx -int8=false -nms=false -imgsz %d", err, cfg.Detect.InputSize)
	}
	td.OnClose(detector.Close)
	names := detector.Names()
	log.Printf("Detector ready (%d classes, input %dpx)", len(names), detector.InputSize())
	slog.Debug("detector classes", "names", names.Sorted())

	matcher, err := match.FromConfig(&cfg.Match)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	active := matcher.Match(texts, names)
	spoken := matcher.Words(texts, names)
	switch {
	case !active.Found:
		log.Printf("No class name found in the recording, nothing will be highlighted. Try one of: %s",
			strings.Join(sample(names.Sorted(), 10), ", "))
	case cfg.Match.Highlight == "all":
		log.Printf("Highlighting every spoken class: %s", wordList(spoken))
	default:
		log.Printf("Highlighting %q (class %d)", active.Word, active.Index)
	}
	overlay := newView(cfg.Match.Highlight, active, spoken)

	var results <-chan voice.Command
	if cfg.Listen.Enabled {
		results, err = startListening(ctx, td, cfg, transcriber, matcher, names)
		if err != nil {
			log.Fatalf("Failed to start listen mode: %v\n\nEnsure microphone access is granted to this terminal.", err)
		}
	}

	src, err := openSource(&cfg.Camera)
	if err != nil {
		log.Fatalf("Failed to open frame source: %v", err)
	}

	window := vision.NewWindow(cfg.Camera.WindowTitle, vision.Keys{
		Quit:       cfg.Camera.QuitKey,
		Toggle:     cfg.Camera.ToggleKey,
		NextCamera: cfg.Camera.NextCameraKey,
	})
	defer window.Close()

	highlighter := render.DefaultHighlighter()
	var handler capture.Handler[gocv.Mat] = func(_ context.Context, frame gocv.Mat) error {
		select {
		case cmd, ok := <-results:
			if !ok {
				results = nil
				break
			}
			overlay.apply(cmd)
			log.Printf("Now highlighting %q (class %d)", cmd.Active.Word, cmd.Active.Index)
		default:
		}

		input, err := vision.Blob(frame, detector.InputSize())
		if err != nil {
			return err
		}
		dets, err := detector.Detect(input, vision.Size(frame))
		if err != nil {
			return err
		}
		highlighter.DrawSelection(vision.MatCanvas{Mat: &frame}, dets, overlay.selection(), names)

		switch window.Show(frame) {
		case vision.Quit:
			return capture.ErrStop
		case vision.ToggleBoxes:
			slog.Info("boxes toggled", "visible", overlay.toggle())
		case vision.NextCamera:
			if err := src.Next(); err != nil {
				slog.Warn("camera switch failed", "err", err)
			} else {
				log.Printf("Switched to device %d", src.Device())
			}
		}
		return nil
	}

	log.Printf("Ready! In the window press %q to quit, %q to toggle boxes, %q for the next camera; or Ctrl+C to quit.",
		cfg.Camera.QuitKey, cfg.Camera.ToggleKey, cfg.Camera.NextCameraKey)
	stats, err := capture.Run(ctx, src, handler)
	if err != nil {
		log.Fatalf("capture: %v", err)
	}
	log.Printf("Capture ended (%s) after %d frames", stats.Reason, stats.Frames)
}

// startListening wires the push-to-talk hotkey to a voice controller and
// returns the channel new commands arrive on. Its goroutines run under td so
// they finish before the transcriber is closed. The hotkey hook is left
// running until the process exits; the OS reclaims it.
func startListening(ctx context.Context, td *teardown, cfg *config.Config, tr transcribe.Transcriber, m *match.Matcher, vocab match.Vocabulary) (<-chan voice.Command, error) {
	recorder, err := audio.NewRecorder(cfg.Listen.SampleRate, cfg.Listen.Channels, maxRecording)
	if err != nil {
		return nil, err
	}

	listener := hotkey.NewListener(cfg.Listen.Keys, cfg.Listen.Mode)
	go listener.Start()

	triggers := make(chan voice.Trigger, 4)
	td.Go(func() { forwardTriggers(ctx, listener.Events(), triggers) })

	ctrl := voice.New(recorder, int(recorder.SampleRate()), tr, m, vocab)
	td.Go(func() {
		defer recorder.Close()
		if err := ctrl.Run(ctx, triggers); err != nil {
			slog.Error("listen mode stopped", "err", err)
		}
	})

	log.Printf("Listen mode ready: hold %s and name an object", strings.Join(cfg.Listen.Keys, "+"))
	return ctrl.Results(), nil
}

// openSource opens the configured frame source behind a Switcher so the
// window can move to the next webcam. The screen has a single device.
func openSource(cfg *config.CameraConfig) (*capture.Switcher[gocv.Mat], error) {
	if cfg.Source == "screen" {
		return capture.NewSwitcher[gocv.Mat](func(device int) (capture.Source[gocv.Mat], error) {
			if device != cfg.Device {
				return nil, fmt.Errorf("screen capture has no device %d", device)
			}
			return vision.NewScreen(), nil
		}, cfg.Device)
	}
	return capture.NewSwitcher[gocv.Mat](func(device int) (capture.Source[gocv.Mat], error) {
		cam, err := vision.OpenCamera(device)
		if err != nil {
			return nil, err
		}
		return cam, nil
	}, cfg.Device)
}

// wordList formats match results as a quoted, comma-separated list.
func wordList(results []match.Result) string {
	words := make([]string, len(results))
	for i, r := range results {
		words[i] = strconv.Quote(r.Word)
	}
	return strings.Join(words, ", ")
}

// sample returns at most n leading elements of s.
func sample(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		log.Printf("Config loaded from %s", defaultPath)
		return cfg, nil
	}

	log.Println("No config file found, using defaults")
	return config.Default(), nil
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	fmt.Println("=== saywatch ===")
	fmt.Printf("  Speech:   %s (%s)\n", cfg.Transcribe.Backend, cfg.Transcribe.AudioPath)
	fmt.Printf("  Detector: %s (%dpx)\n", cfg.Detect.ModelPath, cfg.Detect.InputSize)
	fmt.Printf("  Match:    %s tokens, %s match, highlight %s\n", cfg.Match.Tokenizer, cfg.Match.Strategy, cfg.Match.Highlight)
	if cfg.Camera.Source == "screen" {
		fmt.Println("  Source:   screen")
	} else {
		fmt.Printf("  Source:   webcam %d\n", cfg.Camera.Device)
	}
	if cfg.Listen.Enabled {
		fmt.Printf("  Listen:   %s (%s mode)\n", strings.Join(cfg.Listen.Keys, "+"), cfg.Listen.Mode)
	}
	fmt.Printf("  Log:      %s\n", cfg.LogLevel)
	fmt.Println("================")
}
