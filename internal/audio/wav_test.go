package audio

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteWAVThenDecode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	in := []float32{0, 0.5, -0.5, 1, -1}

	if err := WriteWAV(path, in, 16000); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	clip, err := DecodeWAV(f)
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if clip.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", clip.SampleRate)
	}
	if len(clip.Samples) != len(in) {
		t.Fatalf("decoded %d samples, want %d", len(clip.Samples), len(in))
	}
	for i := range in {
		if math.Abs(float64(clip.Samples[i]-in[i])) > 1e-3 {
			t.Errorf("sample %d = %f, want ~%f", i, clip.Samples[i], in[i])
		}
	}
}

func TestWriteWAVClamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loud.wav")
	if err := WriteWAV(path, []float32{2, -3}, 8000); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	clip, err := DecodeWAV(f)
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if clip.Samples[0] > 1 || clip.Samples[1] < -1 {
		t.Errorf("samples not clamped: %v", clip.Samples)
	}
}

func TestDecodeWAVInvalid(t *testing.T) {
	_, err := DecodeWAV(bytes.NewReader([]byte("definitely not RIFF data")))
	if err == nil {
		t.Fatal("DecodeWAV() should fail on non-WAV input")
	}
}

func TestLoadFileWAVAtTargetRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speech.wav")
	if err := WriteWAV(path, []float32{0.1, 0.2, 0.3}, 16000); err != nil {
		t.Fatal(err)
	}

	samples, err := LoadFile(context.Background(), path, 16000)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(samples) != 3 {
		t.Errorf("LoadFile() returned %d samples, want 3", len(samples))
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(context.Background(), filepath.Join(t.TempDir(), "nope.m4a"), 16000)
	if err == nil {
		t.Fatal("LoadFile() should fail for a missing file")
	}
}
