package main

import (
	"context"
	"log/slog"
	"sync"

	"github.com/chaz8081/saywatch/internal/hotkey"
	"github.com/chaz8081/saywatch/internal/match"
	"github.com/chaz8081/saywatch/internal/render"
	"github.com/chaz8081/saywatch/internal/voice"
)

// forwardTriggers turns hotkey events into voice triggers until events
// closes or ctx is done, then closes triggers.
func forwardTriggers(ctx context.Context, events <-chan hotkey.Event, triggers chan<- voice.Trigger) {
	defer close(triggers)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			t := voice.Stop
			if ev.Type == hotkey.EventStart {
				t = voice.Start
			}
			select {
			case triggers <- t:
			case <-ctx.Done():
				return
			}
		}
	}
}

// teardown cancels background work and waits for it before closing the
// resources that work uses. Closers run in reverse registration order.
type teardown struct {
	stop    context.CancelFunc
	wg      sync.WaitGroup
	closers []func() error
}

func (t *teardown) Go(fn func()) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		fn()
	}()
}

func (t *teardown) OnClose(fn func() error) {
	t.closers = append(t.closers, fn)
}

func (t *teardown) Run() {
	t.stop()
	t.wg.Wait()
	for i := len(t.closers) - 1; i >= 0; i-- {
		if err := t.closers[i](); err != nil {
			slog.Warn("close failed", "err", err)
		}
	}
	t.closers = nil
}

// view is the per-frame overlay state: which classes are highlighted and
// whether boxes are drawn at all.
type view struct {
	all   bool
	boxes bool
	sel   render.Selection
}

func newView(highlight string, active match.Result, spoken []match.Result) *view {
	v := &view{all: highlight == "all", boxes: true}
	v.apply(voice.Command{Active: active, Spoken: spoken})
	return v
}

func (v *view) apply(cmd voice.Command) {
	if v.all {
		v.sel = render.Select(cmd.Spoken...)
		return
	}
	v.sel = render.Select(cmd.Active)
}

func (v *view) toggle() bool {
	v.boxes = !v.boxes
	return v.boxes
}

// selection returns the classes to draw; empty while boxes are hidden.
func (v *view) selection() render.Selection {
	if !v.boxes {
		return nil
	}
	return v.sel
}
