package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAITranscriber sends audio files to the OpenAI transcription API.
type OpenAITranscriber struct {
	client   *openai.Client
	model    string
	language string
}

// NewOpenAITranscriber reads OPENAI_API_KEY and the optional OPENAI_BASE_URL
// from the environment. Local model sizes such as "base" map to whisper-1.
func NewOpenAITranscriber(model, language string) (*OpenAITranscriber, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("transcribe: OPENAI_API_KEY is not set")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		clientConfig.BaseURL = baseURL
		slog.Debug("using custom OpenAI base URL", "url", baseURL)
	}

	return &OpenAITranscriber{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    apiModel(model),
		language: language,
	}, nil
}

// Transcribe uploads audioPath and returns the segments of a verbose_json response.
func (o *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) ([]Segment, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: o.language,
	})
	if err != nil {
		return nil, fmt.Errorf("transcribe: openai request: %w", err)
	}

	if len(resp.Segments) == 0 {
		text := strings.TrimSpace(resp.Text)
		if text == "" {
			return nil, nil
		}
		return []Segment{{End: seconds(resp.Duration), Text: text}}, nil
	}

	segments := make([]Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, Segment{
			Start: seconds(s.Start),
			End:   seconds(s.End),
			Text:  strings.TrimSpace(s.Text),
		})
	}
	return segments, nil
}

// Close is a no-op.
func (o *OpenAITranscriber) Close() error { return nil }

func apiModel(model string) string {
	switch model {
	case "", "tiny", "base", "small", "medium", "large", "large-v2", "large-v3":
		return openai.Whisper1
	}
	return model
}
