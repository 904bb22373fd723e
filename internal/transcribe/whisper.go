package transcribe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/chaz8081/saywatch/internal/audio"
)

// WhisperTranscriber wraps a whisper.cpp model for speech-to-text.
type WhisperTranscriber struct {
	model    whisper.Model
	language string
}

// NewWhisperTranscriber loads a whisper model from the given path. An empty
// language lets whisper detect it. The caller must call Close() when done.
func NewWhisperTranscriber(modelPath, language string) (*WhisperTranscriber, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("transcribe: load whisper model %q: %w", modelPath, err)
	}
	return &WhisperTranscriber{model: model, language: language}, nil
}

// Close releases the whisper model resources.
func (t *WhisperTranscriber) Close() error {
	if t.model != nil {
		return t.model.Close()
	}
	return nil
}

// Transcribe decodes audioPath to mono 16kHz and runs whisper over it.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) ([]Segment, error) {
	samples, err := audio.LoadFile(ctx, audioPath, whisper.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	return t.Process(samples)
}

// Process transcribes mono 16kHz float32 audio samples into segments.
func (t *WhisperTranscriber) Process(samples []float32) ([]Segment, error) {
	wctx, err := t.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("transcribe: create context: %w", err)
	}

	if t.language != "" && t.model.IsMultilingual() {
		if err := wctx.SetLanguage(t.language); err != nil {
			return nil, fmt.Errorf("transcribe: set language %q: %w", t.language, err)
		}
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("transcribe: process: %w", err)
	}

	var segments []Segment
	for {
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("transcribe: next segment: %w", err)
		}
		segments = append(segments, Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}

	slog.Debug("whisper transcription finished", "segments", len(segments), "samples", len(samples))
	return segments, nil
}
