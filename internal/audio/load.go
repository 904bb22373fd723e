package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadFile reads an audio file as mono float32 samples at sampleRate. WAV
// files already at that rate are decoded directly; anything else (m4a, mp3,
// other rates) is converted with the ffmpeg CLI first.
func LoadFile(ctx context.Context, path string, sampleRate int) ([]float32, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		clip, err := decodeWAVFile(path)
		if err == nil && clip.SampleRate == sampleRate {
			return clip.Samples, nil
		}
		if err != nil {
			slog.Debug("direct WAV decode failed, converting with ffmpeg", "path", path, "err", err)
		}
	}

	tmpDir, err := os.MkdirTemp("", "saywatch-audio-*")
	if err != nil {
		return nil, fmt.Errorf("audio: creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	converted, err := Convert(ctx, path, tmpDir, sampleRate)
	if err != nil {
		return nil, err
	}
	clip, err := decodeWAVFile(converted)
	if err != nil {
		return nil, err
	}
	return clip.Samples, nil
}

// Convert uses ffmpeg to produce a mono WAV at sampleRate in dir and
// returns its path.
func Convert(ctx context.Context, path, dir string, sampleRate int) (string, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return "", fmt.Errorf("audio: ffmpeg is required to decode %s but was not found in PATH", filepath.Base(path))
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := filepath.Join(dir, base+"_mono.wav")

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-loglevel", "error",
		"-i", path,
		"-ac", "1", "-ar", strconv.Itoa(sampleRate),
		"-f", "wav",
		out,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("audio: ffmpeg: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return out, nil
}

func decodeWAVFile(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}
	defer f.Close()
	return DecodeWAV(f)
}
