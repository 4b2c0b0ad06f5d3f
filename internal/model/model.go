package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventID identifies an event within a catalog. It is stable for the
// lifetime of a session.
type EventID string

// Event is a single catalog entry. Events are immutable once the catalog
// has been built.
type Event struct {
	ID       EventID `json:"id"`
	Name     string  `json:"name"`
	Location string  `json:"location"`
	Category string  `json:"category"`

	// Date is used for display only.
	Date time.Time `json:"date"`

	// Image is an opaque asset reference, usually a URL.
	Image string `json:"image"`

	// Price is nil for free events.
	Price *decimal.Decimal `json:"price,omitempty"`

	Description string `json:"description"`
}

// IsFree reports whether the event has no price or a zero price.
func (e Event) IsFree() bool {
	return e.Price == nil || e.Price.IsZero()
}
