// Package events carries notifications out of the reconciliation engine
// and records applied renames in an append-only journal.
package events

import (
	"sync"
	"time"
)

// Type identifies a published event.
type Type string

const (
	// TypeRenameApplied is published for every file that reached its
	// final name during a pass.
	TypeRenameApplied Type = "rename_applied"
	// TypePassCompleted is published once per reconciliation pass that
	// ran to completion.
	TypePassCompleted Type = "pass_completed"
	// TypeTempOrphan is published when a temporary-named file survives
	// consecutive passes without being recovered.
	TypeTempOrphan Type = "temp_orphan"
)

// Event is one notification with a loosely-typed payload.
type Event struct {
	Type      Type
	Timestamp time.Time
	Data      map[string]any
}

// Subscriber receives events for one type.
type Subscriber func(Event)

// Bus is a non-blocking publish/subscribe fan-out. Each subscriber gets
// a buffered channel drained by its own goroutine; when the buffer is
// full the event is dropped for that subscriber rather than blocking
// the publisher, which may be mid-rename.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Type][]chan Event
	bufferSize  int
}

func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Bus{
		subscribers: make(map[Type][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers fn for eventType and returns an unsubscribe
// function. fn runs on its own goroutine; a panic inside it is
// swallowed so one bad subscriber cannot take the bus down.
func (b *Bus) Subscribe(eventType Type, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	b.subscribers[eventType] = append(b.subscribers[eventType], ch)

	go func() {
		for event := range ch {
			func() {
				defer func() { _ = recover() }()
				fn(event)
			}()
		}
	}()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[eventType]
		for i, subCh := range subs {
			if subCh == ch {
				b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
	}
}

// Publish delivers the event to every subscriber of eventType without
// blocking.
func (b *Bus) Publish(eventType Type, data map[string]any) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	event := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	for _, ch := range b.subscribers[eventType] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close closes all subscriber channels and clears subscriptions.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subscribers, eventType)
	}
}
