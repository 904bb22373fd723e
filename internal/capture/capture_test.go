package capture

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource returns frames until the script runs out or hits a false entry.
type scriptedSource struct {
	reads    []bool
	next     int
	closed   int
	closeErr error
}

func (s *scriptedSource) Read() (int, bool) {
	if s.next >= len(s.reads) {
		return 0, false
	}
	i := s.next
	s.next++
	return i, s.reads[i]
}

func (s *scriptedSource) Close() error {
	s.closed++
	return s.closeErr
}

func TestRunStopsAtFailedRead(t *testing.T) {
	src := &scriptedSource{reads: []bool{true, true, true, false, true}}
	var seen []int

	stats, err := Run[int](context.Background(), src, func(_ context.Context, f int) error {
		seen = append(seen, f)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, seen)
	assert.Equal(t, 3, stats.Frames)
	assert.Equal(t, "stream ended", stats.Reason)
	assert.Equal(t, 4, src.next, "no read after the failed one")
	assert.Equal(t, 1, src.closed)
}

func TestRunImmediateFailure(t *testing.T) {
	src := &scriptedSource{reads: []bool{false}}

	stats, err := Run[int](context.Background(), src, func(context.Context, int) error {
		t.Fatal("handler must not run")
		return nil
	})

	require.NoError(t, err)
	assert.Zero(t, stats.Frames)
	assert.Equal(t, 1, src.closed)
}

func TestRunHandlerStop(t *testing.T) {
	src := &scriptedSource{reads: []bool{true, true, true, true}}

	stats, err := Run[int](context.Background(), src, func(_ context.Context, f int) error {
		if f == 1 {
			return ErrStop
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Frames)
	assert.Equal(t, "stopped", stats.Reason)
	assert.Equal(t, 1, src.closed)
}

func TestRunHandlerErrorClosesSource(t *testing.T) {
	src := &scriptedSource{reads: []bool{true, true}}
	boom := errors.New("inference failed")

	_, err := Run[int](context.Background(), src, func(context.Context, int) error { return boom })

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, src.closed)
}

func TestRunCanceled(t *testing.T) {
	src := &scriptedSource{reads: []bool{true, true, true, true}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stats, err := Run[int](ctx, src, func(_ context.Context, f int) error {
		if f == 1 {
			cancel()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Frames)
	assert.Equal(t, "canceled", stats.Reason)
	assert.Equal(t, 1, src.closed)
}

func TestRunReportsCloseError(t *testing.T) {
	src := &scriptedSource{reads: []bool{false}, closeErr: errors.New("device busy")}

	_, err := Run[int](context.Background(), src, func(context.Context, int) error { return nil })

	assert.ErrorContains(t, err, "device busy")
}
