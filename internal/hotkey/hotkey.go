// Package hotkey provides a global push-to-talk hotkey using gohook.
// It supports "hold" mode (press to start, release to stop) and
// "toggle" mode (press to start, press again to stop).
package hotkey

import (
	"log/slog"
	"sync"

	hook "github.com/robotn/gohook"
)

// EventType indicates whether recording should start or stop.
type EventType int

const (
	// EventStart signals that the hotkey was activated (start recording).
	EventStart EventType = iota
	// EventStop signals that the hotkey was deactivated (stop recording).
	EventStop
)

func (t EventType) String() string {
	if t == EventStart {
		return "start"
	}
	return "stop"
}

// Event is emitted on the channel returned by Events.
type Event struct {
	Type EventType
}

// Listener manages a global hotkey and emits start/stop events.
type Listener struct {
	keys []string
	ch   chan Event
	done chan struct{}
	once sync.Once

	mu    sync.Mutex
	state *machine
}

// NewListener creates a Listener for the given key combo and mode.
// keys should be lowercase key names (e.g., ["ctrl", "shift", "r"]).
// Any mode other than "toggle" means hold.
func NewListener(keys []string, mode string) *Listener {
	return &Listener{
		keys:  keys,
		ch:    make(chan Event, 16),
		done:  make(chan struct{}),
		state: newMachine(mode),
	}
}

// Events returns the channel that receives hotkey events.
// The channel is closed when the listener stops.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// Start begins listening for the global hotkey.
// This function blocks until Stop is called. Run it in a goroutine.
func (l *Listener) Start() {
	hook.Register(hook.KeyDown, l.keys, func(hook.Event) {
		l.mu.Lock()
		ev, ok := l.state.down()
		l.mu.Unlock()
		if ok {
			l.emit(ev)
		}
	})
	hook.Register(hook.KeyUp, l.keys, func(hook.Event) {
		l.mu.Lock()
		ev, ok := l.state.up()
		l.mu.Unlock()
		if ok {
			l.emit(ev)
		}
	})

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
	close(l.ch)
}

func (l *Listener) emit(ev Event) {
	select {
	case l.ch <- ev:
	default:
		slog.Debug("hotkey event dropped, channel full", "event", ev.Type)
	}
}

// Stop terminates the hotkey listener.
// It is safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}

// machine turns raw key presses into start/stop events. Key auto-repeat
// sends repeated downs; only state changes produce events.
type machine struct {
	toggle bool
	active bool
}

func newMachine(mode string) *machine {
	return &machine{toggle: mode == "toggle"}
}

func (m *machine) down() (Event, bool) {
	if m.toggle {
		m.active = !m.active
		if m.active {
			return Event{Type: EventStart}, true
		}
		return Event{Type: EventStop}, true
	}
	if m.active {
		return Event{}, false
	}
	m.active = true
	return Event{Type: EventStart}, true
}

func (m *machine) up() (Event, bool) {
	if m.toggle || !m.active {
		return Event{}, false
	}
	m.active = false
	return Event{Type: EventStop}, true
}
