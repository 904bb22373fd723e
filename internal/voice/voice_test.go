package voice

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaz8081/saywatch/internal/match"
	"github.com/chaz8081/saywatch/internal/transcribe"
)

const rate = 16000

type fakeRecorder struct {
	samples  []float32
	starts   int
	stops    int
	startErr error
}

func (r *fakeRecorder) Start() error {
	r.starts++
	return r.startErr
}

func (r *fakeRecorder) Stop() []float32 {
	r.stops++
	return r.samples
}

type fakeTranscriber struct {
	texts []string
	err   error
	paths []string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, path string) ([]transcribe.Segment, error) {
	f.paths = append(f.paths, path)
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	var segs []transcribe.Segment
	for _, t := range f.texts {
		segs = append(segs, transcribe.Segment{Text: t})
	}
	return segs, f.err
}

func (f *fakeTranscriber) Close() error { return nil }

type vocab map[string]int

func (v vocab) Lookup(name string) (int, bool) {
	idx, ok := v[name]
	return idx, ok
}

var coco = vocab{"person": 0, "cup": 41}

func runController(t *testing.T, c *Controller, triggers ...Trigger) []Command {
	t.Helper()
	ch := make(chan Trigger, len(triggers))
	for _, tr := range triggers {
		ch <- tr
	}
	close(ch)

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background(), ch) }()

	var got []Command
	for r := range c.Results() {
		got = append(got, r)
	}
	require.NoError(t, <-done)
	return got
}

func TestControllerPublishesMatch(t *testing.T) {
	rec := &fakeRecorder{samples: make([]float32, rate)}
	tr := &fakeTranscriber{texts: []string{" Show me the cup", " and the person."}}
	c := New(rec, rate, tr, match.New(), coco)
	c.tmpDir = t.TempDir()

	got := runController(t, c, Start, Stop)

	require.Len(t, got, 1)
	assert.Equal(t, 41, got[0].Active.Index)
	assert.True(t, got[0].Active.Found)
	require.Len(t, got[0].Spoken, 2)
	assert.Equal(t, "cup", got[0].Spoken[0].Word)
	assert.Equal(t, "person", got[0].Spoken[1].Word)
	require.Len(t, tr.paths, 1)
	_, err := os.Stat(tr.paths[0])
	assert.True(t, os.IsNotExist(err), "temp recording should be removed")
}

func TestControllerSkipsShortRecordings(t *testing.T) {
	rec := &fakeRecorder{samples: make([]float32, rate/10)}
	tr := &fakeTranscriber{texts: []string{"cup"}}
	c := New(rec, rate, tr, match.New(), coco)
	c.tmpDir = t.TempDir()

	got := runController(t, c, Start, Stop)

	assert.Empty(t, got)
	assert.Empty(t, tr.paths)
}

func TestControllerIgnoresUnmatchedSpeech(t *testing.T) {
	rec := &fakeRecorder{samples: make([]float32, rate)}
	c := New(rec, rate, &fakeTranscriber{texts: []string{"nothing here"}}, match.New(), coco)
	c.tmpDir = t.TempDir()

	assert.Empty(t, runController(t, c, Start, Stop))
}

func TestControllerTranscriptionError(t *testing.T) {
	rec := &fakeRecorder{samples: make([]float32, rate)}
	c := New(rec, rate, &fakeTranscriber{err: errors.New("model crashed")}, match.New(), coco)
	c.tmpDir = t.TempDir()

	assert.Empty(t, runController(t, c, Start, Stop))
}

func TestControllerIgnoresUnpairedTriggers(t *testing.T) {
	rec := &fakeRecorder{samples: make([]float32, rate)}
	c := New(rec, rate, &fakeTranscriber{texts: []string{"cup"}}, match.New(), coco)
	c.tmpDir = t.TempDir()

	runController(t, c, Stop, Start, Start, Stop, Stop)

	assert.Equal(t, 1, rec.starts)
	assert.Equal(t, 1, rec.stops)
}

func TestControllerStartFailure(t *testing.T) {
	rec := &fakeRecorder{startErr: errors.New("no microphone")}
	c := New(rec, rate, &fakeTranscriber{}, match.New(), coco)

	assert.Empty(t, runController(t, c, Start, Stop))
	assert.Zero(t, rec.stops)
}

func TestControllerStopsRecordingOnCancel(t *testing.T) {
	rec := &fakeRecorder{}
	c := New(rec, rate, &fakeTranscriber{}, match.New(), coco)
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan Trigger, 1)
	ch <- Start

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, ch) }()

	require.Eventually(t, func() bool { return len(ch) == 0 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 1, rec.stops)
	_, open := <-c.Results()
	assert.False(t, open)
}

func TestPublishKeepsLatest(t *testing.T) {
	c := New(&fakeRecorder{}, rate, &fakeTranscriber{}, match.New(), coco)
	c.publish(Command{Active: match.Result{Index: 0, Found: true}})
	c.publish(Command{Active: match.Result{Index: 41, Found: true}})

	got := <-c.Results()
	assert.Equal(t, 41, got.Active.Index)
}
