// Package voice turns push-to-talk recordings into class matches while the
// camera loop is running.
package voice

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/chaz8081/saywatch/internal/audio"
	"github.com/chaz8081/saywatch/internal/match"
	"github.com/chaz8081/saywatch/internal/transcribe"
)

// MinDuration is the shortest recording that is transcribed.
const MinDuration = 300 * time.Millisecond

// Trigger starts or stops a recording.
type Trigger int

const (
	// Start begins a recording.
	Start Trigger = iota
	// Stop ends the recording and transcribes it.
	Stop
)

// Command is what one utterance resolved to: the class picked by the
// matcher strategy and every class name that was spoken.
type Command struct {
	Active match.Result
	Spoken []match.Result
}

// Recorder captures microphone audio between Start and Stop.
type Recorder interface {
	Start() error
	Stop() []float32
}

// Controller records on triggers, transcribes, and publishes the matched class.
type Controller struct {
	rec        Recorder
	sampleRate int
	tr         transcribe.Transcriber
	matcher    *match.Matcher
	vocab      match.Vocabulary
	results    chan Command
	tmpDir     string
}

// New creates a Controller. Recordings are written as WAV files under the
// system temp directory and removed after transcription.
func New(rec Recorder, sampleRate int, tr transcribe.Transcriber, m *match.Matcher, vocab match.Vocabulary) *Controller {
	return &Controller{
		rec:        rec,
		sampleRate: sampleRate,
		tr:         tr,
		matcher:    m,
		vocab:      vocab,
		results:    make(chan Command, 1),
		tmpDir:     os.TempDir(),
	}
}

// Results delivers each utterance that named a class. Only the latest
// unread command is kept. The channel is closed when Run returns.
func (c *Controller) Results() <-chan Command {
	return c.results
}

// Run handles triggers until ctx is done or triggers is closed.
func (c *Controller) Run(ctx context.Context, triggers <-chan Trigger) error {
	defer close(c.results)

	recording := false
	for {
		select {
		case <-ctx.Done():
			if recording {
				c.rec.Stop()
			}
			return nil
		case t, ok := <-triggers:
			if !ok {
				if recording {
					c.rec.Stop()
				}
				return nil
			}
			switch {
			case t == Start && !recording:
				if err := c.rec.Start(); err != nil {
					slog.Error("failed to start recording", "err", err)
					continue
				}
				recording = true
				slog.Info("listening")
			case t == Stop && recording:
				recording = false
				samples := c.rec.Stop()
				cmd, err := c.handle(ctx, samples)
				if err != nil {
					slog.Error("voice command failed", "err", err)
					continue
				}
				if cmd.Active.Found {
					c.publish(cmd)
				}
			}
		}
	}
}

func (c *Controller) handle(ctx context.Context, samples []float32) (Command, error) {
	dur := time.Duration(len(samples)) * time.Second / time.Duration(c.sampleRate)
	if dur < MinDuration {
		slog.Debug("recording too short, skipping", "duration", dur)
		return Command{}, nil
	}

	path := filepath.Join(c.tmpDir, "saywatch-"+uuid.NewString()+".wav")
	if err := audio.WriteWAV(path, samples, c.sampleRate); err != nil {
		return Command{}, err
	}
	defer os.Remove(path)

	start := time.Now()
	segments, err := c.tr.Transcribe(ctx, path)
	if err != nil {
		return Command{}, fmt.Errorf("voice: %w", err)
	}
	texts := transcribe.Texts(segments)
	cmd := Command{
		Active: c.matcher.Match(texts, c.vocab),
		Spoken: c.matcher.Words(texts, c.vocab),
	}
	slog.Info("voice command", "text", texts, "found", cmd.Active.Found, "class", cmd.Active.Word,
		"spoken", len(cmd.Spoken), "audio", dur.Round(time.Millisecond), "elapsed", time.Since(start).Round(time.Millisecond))
	return cmd, nil
}

// publish replaces any unread command with cmd.
func (c *Controller) publish(cmd Command) {
	for {
		select {
		case c.results <- cmd:
			return
		default:
		}
		select {
		case <-c.results:
		default:
		}
	}
}
