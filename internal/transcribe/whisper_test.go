package transcribe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// whisperModelPath resolves the path to the whisper model relative to the project root.
func whisperModelPath(t *testing.T) string {
	t.Helper()
	path := filepath.Join("..", "..", "models", "ggml-base.bin")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("model not found at %s (run 'saywatch -download' first): %v", path, err)
	}
	return path
}

// jfkPath returns the JFK sample shipped with whisper.cpp.
func jfkPath(t *testing.T) string {
	t.Helper()
	path := filepath.Join("..", "..", "third_party", "whisper.cpp", "samples", "jfk.wav")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("JFK sample not found at %s: %v", path, err)
	}
	return path
}

func TestNewWhisperTranscriber(t *testing.T) {
	path := whisperModelPath(t)

	tr, err := NewWhisperTranscriber(path, "")
	if err != nil {
		t.Fatalf("NewWhisperTranscriber(%q) returned error: %v", path, err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}
}

func TestNewWhisperTranscriberBadPath(t *testing.T) {
	_, err := NewWhisperTranscriber("/nonexistent/model.bin", "")
	if err == nil {
		t.Fatal("NewWhisperTranscriber with bad path should return error")
	}
}

func TestWhisperTranscribeJFK(t *testing.T) {
	path := whisperModelPath(t)
	wav := jfkPath(t)

	tr, err := NewWhisperTranscriber(path, "en")
	if err != nil {
		t.Fatalf("NewWhisperTranscriber: %v", err)
	}
	defer func() { _ = tr.Close() }()

	segments, err := tr.Transcribe(context.Background(), wav)
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}

	text := strings.ToLower(strings.Join(Texts(segments), " "))
	if !strings.Contains(text, "ask not what your country") {
		t.Errorf("expected transcript to contain 'ask not what your country', got: %q", text)
	}
	for i, s := range segments {
		if s.End < s.Start {
			t.Errorf("segment %d ends before it starts: %v < %v", i, s.End, s.Start)
		}
	}
}

func TestWhisperProcessSilence(t *testing.T) {
	path := whisperModelPath(t)

	tr, err := NewWhisperTranscriber(path, "")
	if err != nil {
		t.Fatalf("NewWhisperTranscriber: %v", err)
	}
	defer func() { _ = tr.Close() }()

	if _, err := tr.Process(make([]float32, 16000)); err != nil {
		t.Fatalf("Process on silence returned error: %v", err)
	}
}
