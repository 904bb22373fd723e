// Package export converts YOLO weights into deployable model formats by
// driving the ultralytics command line.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Job describes one weights-to-artifact conversion.
type Job struct {
	Weights string // path or shorthand such as "yolo11m.pt"
	Format  string // "coreml", "onnx", ...
	Int8    bool
	NMS     bool
	ImgSize int // 0 keeps the exporter default
}

// Args returns the exporter arguments for j.
func (j Job) Args() []string {
	args := []string{
		"export",
		"model=" + j.Weights,
		"format=" + j.Format,
		"int8=" + pyBool(j.Int8),
		"nms=" + pyBool(j.NMS),
	}
	if j.ImgSize > 0 {
		args = append(args, "imgsz="+strconv.Itoa(j.ImgSize))
	}
	return args
}

// Artifact returns the path the exporter writes for j, relative to dir
// when the weights path is relative.
func (j Job) Artifact(dir string) string {
	weights := j.Weights
	if !filepath.IsAbs(weights) && dir != "" {
		weights = filepath.Join(dir, weights)
	}
	stem := strings.TrimSuffix(weights, filepath.Ext(weights))
	switch j.Format {
	case "coreml":
		return stem + ".mlpackage"
	case "mlmodel":
		return stem + ".mlmodel"
	case "onnx":
		return stem + ".onnx"
	case "torchscript":
		return stem + ".torchscript"
	case "engine":
		return stem + ".engine"
	case "openvino":
		return stem + "_openvino_model"
	case "tflite":
		return stem + "_saved_model"
	default:
		return stem + "." + j.Format
	}
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// Runner executes one exporter invocation in dir.
type Runner interface {
	Run(ctx context.Context, dir string, args []string) error
}

// Result records a finished export.
type Result struct {
	Job      Job
	Artifact string
	Elapsed  time.Duration
}

// Exporter runs export jobs one after another.
type Exporter struct {
	runner Runner
	dir    string
}

// New returns an Exporter that runs jobs with r in dir. An empty dir means
// the current directory.
func New(r Runner, dir string) *Exporter {
	return &Exporter{runner: r, dir: dir}
}

// Plan expands a base job into one job per model size. With no sizes the
// base job is returned unchanged.
func Plan(base Job, family string, sizes []string) []Job {
	if len(sizes) == 0 {
		return []Job{base}
	}
	jobs := make([]Job, 0, len(sizes))
	for _, size := range sizes {
		j := base
		j.Weights = family + size + ".pt"
		jobs = append(jobs, j)
	}
	return jobs
}

// Run executes jobs in order and stops at the first failure. Each job is
// independent; a failed job leaves earlier artifacts in place.
func (e *Exporter) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	if len(jobs) == 0 {
		return nil, errors.New("export: no jobs")
	}

	runID := uuid.NewString()
	results := make([]Result, 0, len(jobs))
	for i, j := range jobs {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("export: %w", err)
		}
		if j.Weights == "" || j.Format == "" {
			return results, fmt.Errorf("export: job %d: weights and format are required", i)
		}

		slog.Info("exporting model", "run", runID, "model", j.Weights, "format", j.Format, "int8", j.Int8, "nms", j.NMS, "imgsz", j.ImgSize)
		start := time.Now()
		if err := e.runner.Run(ctx, e.dir, j.Args()); err != nil {
			return results, fmt.Errorf("export: %s: %w", j.Weights, err)
		}

		artifact := j.Artifact(e.dir)
		if _, err := os.Stat(artifact); err != nil {
			return results, fmt.Errorf("export: %s: expected artifact %s: %w", j.Weights, artifact, err)
		}

		r := Result{Job: j, Artifact: artifact, Elapsed: time.Since(start)}
		slog.Info("export finished", "run", runID, "artifact", artifact, "elapsed", r.Elapsed.Round(time.Millisecond))
		results = append(results, r)
	}
	return results, nil
}
