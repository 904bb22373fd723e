// Package transcribe provides speech-to-text backends.
//
// Supported backends:
//   - whisper: whisper.cpp via Go bindings (default)
//   - faster-whisper: a Python helper running faster-whisper
//   - openai: the OpenAI audio transcription API
package transcribe

import (
	"context"
	"fmt"
	"time"

	"github.com/chaz8081/saywatch/internal/config"
)

// Segment is one timed span of transcribed text.
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Transcriber converts an audio file to text segments.
type Transcriber interface {
	// Transcribe blocks until the whole file has been transcribed.
	Transcribe(ctx context.Context, audioPath string) ([]Segment, error)
	// Close releases backend resources.
	Close() error
}

// New creates a Transcriber based on the config backend setting.
func New(cfg *config.TranscribeConfig) (Transcriber, error) {
	switch cfg.Backend {
	case "whisper", "":
		return NewWhisperTranscriber(cfg.ModelPath, cfg.Language)
	case "faster-whisper":
		return NewFasterWhisperTranscriber(cfg.Python, cfg.Model, cfg.ComputeType, cfg.Language), nil
	case "openai":
		return NewOpenAITranscriber(cfg.Model, cfg.Language)
	default:
		return nil, fmt.Errorf("transcribe: unknown backend %q (supported: whisper, faster-whisper, openai)", cfg.Backend)
	}
}

// Texts returns the text of every segment in order.
func Texts(segments []Segment) []string {
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = s.Text
	}
	return out
}
