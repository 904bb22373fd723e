// Command yolo-export converts YOLO weights into a deployable format with
// the ultralytics CLI. With -sizes it exports one model per size, e.g.
// yolo11n, yolo11s and yolo11m.
//
// Usage:
//
//	yolo-export [-model yolo11m.pt] [-format coreml] [-imgsz 1280] [-int8] [-nms]
//	yolo-export -sizes n,s,m [-family yolo11]
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
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/chaz8081/saywatch/internal/config"
	"github.com/chaz8081/saywatch/internal/export"
	"github.com/chaz8081/saywatch/internal/models"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: ~/.config/saywatch/config.yaml)")
	model := flag.String("model", "", "weights to export (path or shorthand like yolo11m.pt)")
	sizes := flag.String("sizes", "", "comma-separated model sizes to export, e.g. n,s,m")
	family := flag.String("family", "", "model family used with -sizes, e.g. yolo11")
	format := flag.String("format", "", "export format: coreml, onnx, torchscript, engine, openvino")
	imgsz := flag.Int("imgsz", 0, "input image size; 0 keeps the exporter default")
	quantize := flag.Bool("int8", false, "quantize weights to int8")
	nms := flag.Bool("nms", false, "embed non-maximum suppression in the exported model")
	dir := flag.String("dir", "", "working directory weights are read from and artifacts written to")
	fetch := flag.Bool("fetch", false, "download pretrained weights before exporting")
	install := flag.Bool("install", false, "copy artifacts into the saywatch models directory")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load .env: %v", err)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Flags override the config only when given on the command line.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model":
			cfg.Export.Model = *model
			cfg.Export.Sizes = nil
		case "sizes":
			cfg.Export.Sizes = splitSizes(*sizes)
		case "family":
			cfg.Export.Family = *family
		case "format":
			cfg.Export.Format = *format
		case "imgsz":
			cfg.Export.ImgSize = *imgsz
		case "int8":
			cfg.Export.Int8 = *quantize
		case "nms":
			cfg.Export.NMS = *nms
		case "dir":
			cfg.Export.Dir = *dir
		}
	})
	if err := cfg.ValidateExport(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	base := export.Job{
		Weights: cfg.Export.Model,
		Format:  cfg.Export.Format,
		Int8:    cfg.Export.Int8,
		NMS:     cfg.Export.NMS,
		ImgSize: cfg.Export.ImgSize,
	}
	jobs := export.Plan(base, cfg.Export.Family, cfg.Export.Sizes)

	if *fetch {
		for _, j := range jobs {
			if filepath.Base(j.Weights) != j.Weights {
				continue
			}
			if _, err := models.DownloadYOLO(ctx, j.Weights, cfg.Export.Dir); err != nil {
				log.Fatalf("Failed to download %s: %v", j.Weights, err)
			}
		}
	}

	start := time.Now()
	exporter := export.New(export.CommandRunner{Command: cfg.Export.Command}, cfg.Export.Dir)
	results, err := exporter.Run(ctx, jobs)
	if err != nil {
		log.Fatalf("Export failed: %v\n\nEnsure ultralytics is installed: pip install ultralytics", err)
	}

	for _, r := range results {
		path := r.Artifact
		if *install {
			path, err = models.Install(r.Artifact, config.DefaultModelsDir())
			if err != nil {
				log.Fatalf("install: %v", err)
			}
		}
		fmt.Printf("  %s -> %s (%s)\n", r.Job.Weights, path, r.Elapsed.Round(time.Second))
	}
	log.Printf("Exported %d model(s) in %s", len(results), time.Since(start).Round(time.Second))
}

func splitSizes(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		return config.Load(defaultPath)
	}
	return config.Default(), nil
}
