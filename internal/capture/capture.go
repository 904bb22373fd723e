// Package capture drives a read-process loop over a frame source.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrStop is returned by a Handler to end the loop without error.
var ErrStop = errors.New("capture: stop requested")

// Source yields frames until the stream ends.
type Source[F any] interface {
	// Read returns the next frame, or false when the read failed or the
	// stream ended. A failed read is final.
	Read() (F, bool)
	// Close releases the device.
	Close() error
}

// Handler processes one frame.
type Handler[F any] func(ctx context.Context, frame F) error

// Stats summarizes a finished loop.
type Stats struct {
	Frames int
	Reason string // "stream ended", "stopped" or "canceled"
}

// Run reads frames from src and passes each to h until a read fails, h
// returns ErrStop, or ctx is done; those end the loop normally. Any other
// handler error aborts the loop and is returned. src is closed on every path.
func Run[F any](ctx context.Context, src Source[F], h Handler[F]) (stats Stats, err error) {
	defer func() {
		if cerr := src.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("capture: close source: %w", cerr))
		}
	}()

	for {
		if ctx.Err() != nil {
			stats.Reason = "canceled"
			return stats, nil
		}

		frame, ok := src.Read()
		if !ok {
			stats.Reason = "stream ended"
			slog.Debug("frame read failed, ending capture", "frames", stats.Frames)
			return stats, nil
		}

		if err := h(ctx, frame); err != nil {
			if errors.Is(err, ErrStop) {
				stats.Reason = "stopped"
				return stats, nil
			}
			return stats, fmt.Errorf("capture: frame %d: %w", stats.Frames, err)
		}
		stats.Frames++
	}
}
