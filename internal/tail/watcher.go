package tail

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/tessro/cassette/internal/core"
)

// EventType represents the type of slot event.
type EventType int

const (
	EventSnapshotList EventType = iota
	EventSlotAdded
	EventSlotRemoved
	EventSlotChanged
	EventError
)

// Event represents a change in the stored player states.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Slot      int
	Count     int // number of slots after the poll
	Previous  *core.Snapshot
	Current   *core.Snapshot
	Err       error
}

// StateSource returns the unwrapped player-state list.
type StateSource interface {
	FetchPlayerStates(ctx context.Context) (json.RawMessage, error)
}

// Watcher polls a StateSource for changes and emits events.
type Watcher struct {
	source   StateSource
	interval time.Duration
	events   chan Event
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a new slot watcher.
func NewWatcher(source StateSource, interval time.Duration) *Watcher {
	if interval == 0 {
		interval = 5 * time.Second
	}
	return &Watcher{
		source:   source,
		interval: interval,
		events:   make(chan Event, 16),
		done:     make(chan struct{}),
	}
}

// Events returns the channel of slot events. It is closed when Start
// returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start polls until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.events)

	prev, ok := w.poll(ctx)
	if ok {
		w.emit(Event{
			Type:      EventSnapshotList,
			Timestamp: time.Now(),
			Count:     len(prev),
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-ticker.C:
			curr, ok := w.poll(ctx)
			if !ok {
				continue
			}
			if prev == nil {
				w.emit(Event{Type: EventSnapshotList, Timestamp: time.Now(), Count: len(curr)})
			} else {
				for _, e := range diffSnapshots(prev, curr) {
					w.emit(e)
				}
			}
			prev = curr
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

// poll fetches and decodes the current list. Failures are reported as
// EventError and polling carries on.
func (w *Watcher) poll(ctx context.Context) ([]core.Snapshot, bool) {
	raw, err := w.source.FetchPlayerStates(ctx)
	if err == nil {
		var snapshots []core.Snapshot
		snapshots, err = core.DecodeSnapshots(raw)
		if err == nil {
			return snapshots, true
		}
	}
	if ctx.Err() == nil {
		w.emit(Event{Type: EventError, Timestamp: time.Now(), Err: err})
	}
	return nil, false
}

func (w *Watcher) emit(e Event) {
	select {
	case w.events <- e:
	default:
		// Drop event if channel is full
	}
}

// diffSnapshots compares two lists slot by slot.
func diffSnapshots(prev, curr []core.Snapshot) []Event {
	now := time.Now()
	var events []Event

	for i := 0; i < len(prev) || i < len(curr); i++ {
		switch {
		case i >= len(prev):
			events = append(events, Event{
				Type:      EventSlotAdded,
				Timestamp: now,
				Slot:      i,
				Count:     len(curr),
				Current:   &curr[i],
			})
		case i >= len(curr):
			events = append(events, Event{
				Type:      EventSlotRemoved,
				Timestamp: now,
				Slot:      i,
				Count:     len(curr),
				Previous:  &prev[i],
			})
		case snapshotChanged(&prev[i], &curr[i]):
			events = append(events, Event{
				Type:      EventSlotChanged,
				Timestamp: now,
				Slot:      i,
				Count:     len(curr),
				Previous:  &prev[i],
				Current:   &curr[i],
			})
		}
	}

	return events
}

// snapshotChanged compares fingerprints. If either cannot be hashed the
// snapshots count as changed.
func snapshotChanged(prev, curr *core.Snapshot) bool {
	a, err := prev.Fingerprint()
	if err != nil {
		return true
	}
	b, err := curr.Fingerprint()
	if err != nil {
		return true
	}
	return a != b
}
