package capture

import (
	"fmt"
	"log/slog"
)

// Opener opens the source for a device index.
type Opener[F any] func(device int) (Source[F], error)

// Switcher is a Source that can move to the next device while a loop is
// running. Switch only between frames: the old source's frames are invalid
// once Next returns.
type Switcher[F any] struct {
	open   Opener[F]
	first  int
	device int
	cur    Source[F]
}

// NewSwitcher opens device and returns a Switcher positioned on it.
func NewSwitcher[F any](open Opener[F], device int) (*Switcher[F], error) {
	src, err := open(device)
	if err != nil {
		return nil, err
	}
	return &Switcher[F]{open: open, first: device, device: device, cur: src}, nil
}

// Device returns the index of the device frames are read from.
func (s *Switcher[F]) Device() int {
	return s.device
}

// Next switches to the following device, wrapping around to the first one
// when the following device cannot be opened. The current source stays
// active if neither can be opened.
func (s *Switcher[F]) Next() error {
	candidates := []int{s.device + 1}
	if s.first != s.device {
		candidates = append(candidates, s.first)
	}

	var lastErr error
	for _, dev := range candidates {
		src, err := s.open(dev)
		if err != nil {
			slog.Debug("device unavailable", "device", dev, "err", err)
			lastErr = err
			continue
		}
		if cerr := s.cur.Close(); cerr != nil {
			slog.Warn("closing previous source failed", "device", s.device, "err", cerr)
		}
		s.cur, s.device = src, dev
		return nil
	}
	return fmt.Errorf("capture: no other device to switch to: %w", lastErr)
}

// Read reads from the current device.
func (s *Switcher[F]) Read() (F, bool) {
	return s.cur.Read()
}

// Close closes the current device.
func (s *Switcher[F]) Close() error {
	return s.cur.Close()
}
