package testutil

import (
	"context"
	"sync"

	"github.com/flexprice/payschedule/internal/domain/events"
	"github.com/flexprice/payschedule/internal/publisher"
	"github.com/samber/lo"
)

// InMemoryEventPublisher records published events for assertions
type InMemoryEventPublisher struct {
	mu     sync.RWMutex
	events []*events.Event
	// err is returned by Publish when set
	err error
}

var _ publisher.EventPublisher = (*InMemoryEventPublisher)(nil)

func NewInMemoryEventPublisher() *InMemoryEventPublisher {
	return &InMemoryEventPublisher{
		events: make([]*events.Event, 0),
	}
}

func (p *InMemoryEventPublisher) Publish(_ context.Context, event *events.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// FailWith makes every following Publish call return err
func (p *InMemoryEventPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// GetEvents returns all published events
func (p *InMemoryEventPublisher) GetEvents() []*events.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*events.Event, len(p.events))
	copy(out, p.events)
	return out
}

// GetEventsByName returns the published events with the given name
func (p *InMemoryEventPublisher) GetEventsByName(name string) []*events.Event {
	return lo.Filter(p.GetEvents(), func(e *events.Event, _ int) bool {
		return e.EventName == name
	})
}

// Clear removes all published events
func (p *InMemoryEventPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = make([]*events.Event, 0)
	p.err = nil
}
