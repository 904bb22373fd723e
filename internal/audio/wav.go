package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Clip is decoded PCM audio as mono float32 samples in [-1.0, 1.0].
type Clip struct {
	Samples    []float32
	SampleRate int
}

// DecodeWAV decodes a PCM WAV stream, downmixing to mono.
func DecodeWAV(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("audio: not a valid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("audio: decode WAV: %w", err)
	}

	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(dec.BitDepth)
	}
	if depth == 0 {
		depth = 16
	}
	scale := float32(math.Pow(2, float64(depth-1)))

	interleaved := make([]float32, len(buf.Data))
	for i, s := range buf.Data {
		interleaved[i] = float32(s) / scale
	}

	return &Clip{
		Samples:    Downmix(interleaved, int(dec.NumChans)),
		SampleRate: int(dec.SampleRate),
	}, nil
}

// WriteWAV writes mono float32 samples as a 16-bit PCM WAV file.
func WriteWAV(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create %s: %w", path, err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(s * 32767)
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("audio: encode WAV: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("audio: finalize WAV: %w", err)
	}
	return f.Close()
}
