// Package catalog holds the static, ordered collection of events that a
// browsing session filters. A Catalog is built once at startup and never
// changes afterwards.
package catalog

import (
	"errors"
	"fmt"

	"notify/internal/model"
)

var (
	ErrEmptyID       = errors.New("catalog: event id is empty")
	ErrDuplicateID   = errors.New("catalog: duplicate event id")
	ErrNegativePrice = errors.New("catalog: negative price")
)

// Catalog is an immutable, ordered sequence of events with unique ids.
type Catalog struct {
	events []model.Event
	index  map[model.EventID]int
}

// New validates events and builds a Catalog from a copy of them.
func New(events []model.Event) (*Catalog, error) {
	c := &Catalog{
		events: make([]model.Event, 0, len(events)),
		index:  make(map[model.EventID]int, len(events)),
	}
	for i, ev := range events {
		if ev.ID == "" {
			return nil, fmt.Errorf("%w (position %d)", ErrEmptyID, i)
		}
		if _, ok := c.index[ev.ID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, ev.ID)
		}
		if ev.Price != nil && ev.Price.IsNegative() {
			return nil, fmt.Errorf("%w: %q", ErrNegativePrice, ev.ID)
		}
		c.index[ev.ID] = len(c.events)
		c.events = append(c.events, ev)
	}
	return c, nil
}

// Events returns the events in catalog order. The returned slice is a copy.
func (c *Catalog) Events() []model.Event {
	out := make([]model.Event, len(c.events))
	copy(out, c.events)
	return out
}

// Each calls fn for every event in order without copying the slice.
func (c *Catalog) Each(fn func(model.Event)) {
	for _, ev := range c.events {
		fn(ev)
	}
}

func (c *Catalog) Len() int {
	return len(c.events)
}

// Lookup finds an event by id.
func (c *Catalog) Lookup(id model.EventID) (model.Event, bool) {
	i, ok := c.index[id]
	if !ok {
		return model.Event{}, false
	}
	return c.events[i], true
}

// Featured returns the event highlighted above the result list: the first
// entry of the catalog. It is independent of any search.
func (c *Catalog) Featured() (model.Event, bool) {
	if len(c.events) == 0 {
		return model.Event{}, false
	}
	return c.events[0], true
}
