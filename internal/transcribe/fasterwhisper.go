package transcribe

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

//go:embed assets/faster_whisper.py
var fasterWhisperScript []byte

// HelperError reports a failed run of the Python helper with its stderr.
type HelperError struct {
	Err    error
	Stderr string
}

func (e *HelperError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("transcribe: faster-whisper helper: %v", e.Err)
	}
	return fmt.Sprintf("transcribe: faster-whisper helper: %v: %s", e.Err, e.Stderr)
}

func (e *HelperError) Unwrap() error { return e.Err }

// FasterWhisperTranscriber runs faster-whisper through an embedded Python helper.
type FasterWhisperTranscriber struct {
	python      string
	model       string
	computeType string
	language    string
}

// NewFasterWhisperTranscriber returns a transcriber that shells out to python.
// SAYWATCH_PY overrides the interpreter.
func NewFasterWhisperTranscriber(python, model, computeType, language string) *FasterWhisperTranscriber {
	if py := os.Getenv("SAYWATCH_PY"); py != "" {
		python = py
	}
	if python == "" {
		python = "python3"
	}
	if model == "" {
		model = "base"
	}
	if computeType == "" {
		computeType = "float32"
	}
	return &FasterWhisperTranscriber{python: python, model: model, computeType: computeType, language: language}
}

// Transcribe runs the helper on audioPath and parses its JSON output.
func (f *FasterWhisperTranscriber) Transcribe(ctx context.Context, audioPath string) ([]Segment, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	dir, err := os.MkdirTemp("", "saywatch-fw-*")
	if err != nil {
		return nil, fmt.Errorf("transcribe: create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	script := filepath.Join(dir, "faster_whisper.py")
	if err := os.WriteFile(script, fasterWhisperScript, 0o755); err != nil {
		return nil, fmt.Errorf("transcribe: write helper script: %w", err)
	}

	args := []string{script, "--audio", audioPath, "--model", f.model, "--compute-type", f.computeType}
	if f.language != "" {
		args = append(args, "--language", f.language)
	}

	slog.Debug("running faster-whisper helper", "python", f.python, "model", f.model, "compute_type", f.computeType)
	cmd := exec.CommandContext(ctx, f.python, args...)
	cmd.Env = os.Environ()
	out, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return nil, &HelperError{Err: err, Stderr: strings.TrimSpace(string(ee.Stderr))}
		}
		return nil, &HelperError{Err: err}
	}
	return parseHelperOutput(out)
}

// Close is a no-op; the helper process exits after each call.
func (f *FasterWhisperTranscriber) Close() error { return nil }

type helperOutput struct {
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func parseHelperOutput(out []byte) ([]Segment, error) {
	var parsed helperOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("transcribe: parse helper output: %w", err)
	}
	segments := make([]Segment, 0, len(parsed.Segments))
	for _, s := range parsed.Segments {
		segments = append(segments, Segment{
			Start: seconds(s.Start),
			End:   seconds(s.End),
			Text:  strings.TrimSpace(s.Text),
		})
	}
	slog.Debug("faster-whisper transcription finished", "language", parsed.Language, "segments", len(segments))
	return segments, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
