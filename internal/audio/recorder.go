// Package audio captures microphone audio and loads recordings as mono
// float32 samples for transcription.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// Recorder captures audio from the default microphone into a float32 buffer.
type Recorder struct {
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate uint32
	channels   uint32
	maxSamples int

	mu        sync.Mutex
	buf       []float32
	recording bool
}

// NewRecorder creates a new audio recorder. maxSeconds caps a single
// recording; zero means unlimited. Call Close() when done.
func NewRecorder(sampleRate, channels uint32, maxSeconds float64) (*Recorder, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audio: initialize context: %w", err)
	}

	return &Recorder{
		ctx:        ctx,
		sampleRate: sampleRate,
		channels:   channels,
		maxSamples: int(maxSeconds * float64(sampleRate) * float64(channels)),
	}, nil
}

// SampleRate returns the capture sample rate in Hz.
func (r *Recorder) SampleRate() uint32 {
	return r.sampleRate
}

// Start begins capturing audio from the default microphone.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return errors.New("audio: already recording")
	}
	r.buf = r.buf[:0]
	r.recording = true
	r.mu.Unlock()

	deviceCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceCfg.Capture.Format = malgo.FormatF32
	deviceCfg.Capture.Channels = r.channels
	deviceCfg.SampleRate = r.sampleRate

	device, err := malgo.InitDevice(r.ctx.Context, deviceCfg, malgo.DeviceCallbacks{Data: r.onData})
	if err != nil {
		r.setRecording(false)
		return fmt.Errorf("audio: initialize capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		r.setRecording(false)
		return fmt.Errorf("audio: start capture device: %w", err)
	}

	r.mu.Lock()
	r.device = device
	r.mu.Unlock()
	return nil
}

// Stop ends the capture and returns the recorded samples downmixed to
// mono. It returns nil if no recording is in progress.
func (r *Recorder) Stop() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil
	}

	if r.device != nil {
		r.device.Uninit()
		r.device = nil
	}
	r.recording = false

	return Downmix(r.buf, int(r.channels))
}

// IsRecording returns whether the recorder is currently capturing audio.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Close releases all audio resources.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.device != nil {
		r.device.Uninit()
		r.device = nil
	}
	r.recording = false
	r.mu.Unlock()

	if r.ctx != nil {
		if err := r.ctx.Uninit(); err != nil {
			return fmt.Errorf("audio: uninitialize context: %w", err)
		}
		r.ctx.Free()
		r.ctx = nil
	}
	return nil
}

func (r *Recorder) setRecording(v bool) {
	r.mu.Lock()
	r.recording = v
	r.mu.Unlock()
}

// onData is the malgo callback invoked when captured frames are available.
func (r *Recorder) onData(_, pSample []byte, frameCount uint32) {
	samples := bytesToFloat32(pSample, frameCount*r.channels)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxSamples > 0 {
		room := r.maxSamples - len(r.buf)
		if room <= 0 {
			return
		}
		if len(samples) > room {
			samples = samples[:room]
			slog.Warn("recording reached its length limit, dropping further audio")
		}
	}
	r.buf = append(r.buf, samples...)
}

// Downmix averages interleaved channels into a new mono slice.
func Downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		out := make([]float32, len(interleaved))
		copy(out, interleaved)
		return out
	}
	out := make([]float32, len(interleaved)/channels)
	for i := range out {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// bytesToFloat32 converts raw little-endian float32 bytes to samples.
func bytesToFloat32(data []byte, sampleCount uint32) []float32 {
	samples := make([]float32, 0, sampleCount)
	for i := uint32(0); i < sampleCount; i++ {
		offset := i * 4
		if offset+4 > uint32(len(data)) {
			break
		}
		bits := binary.LittleEndian.Uint32(data[offset : offset+4])
		samples = append(samples, math.Float32frombits(bits))
	}
	return samples
}
