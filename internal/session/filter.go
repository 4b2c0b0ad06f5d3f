package session

import (
	"strings"

	"notify/internal/model"
)

// Matches reports whether term is a case-insensitive substring of the
// event's name, location or category. The empty term matches every event.
func Matches(e model.Event, term string) bool {
	if term == "" {
		return true
	}
	t := strings.ToLower(term)
	return strings.Contains(strings.ToLower(e.Name), t) ||
		strings.Contains(strings.ToLower(e.Location), t) ||
		strings.Contains(strings.ToLower(e.Category), t)
}

// Filter returns the events matching term, in their original order.
func Filter(events []model.Event, term string) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if Matches(e, term) {
			out = append(out, e)
		}
	}
	return out
}
