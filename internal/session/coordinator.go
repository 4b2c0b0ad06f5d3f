// Package session owns the per-browser view state of the event browser:
// the search term, the event open in the detail overlay, the favorite set
// and the menu flag. The filtered event list is derived from the catalog
// and the search term on every read.
package session

import (
	"sort"

	"notify/internal/catalog"
	"notify/internal/model"
)

// ResultsAnchor is the element id of the "Upcoming Events" heading that a
// scroll request targets.
const ResultsAnchor = "upcoming-events"

// ScrollRequest asks the rendering layer to bring the results region into
// view, stopping HeaderOffset pixels below the top so the fixed navbar does
// not cover it.
type ScrollRequest struct {
	Target       string `json:"target"`
	HeaderOffset int    `json:"header_offset"`
}

// ScrollFunc receives scroll requests as they are emitted.
type ScrollFunc func(ScrollRequest)

// State is a value copy of the mutable view state.
type State struct {
	SearchTerm      string          `json:"search_term"`
	SelectedEventID *model.EventID  `json:"selected_event_id"`
	FavoriteIDs     []model.EventID `json:"favorite_ids"`
	MenuOpen        bool            `json:"menu_open"`
}

// Coordinator holds one session's view state. It is not safe for
// concurrent use; Session serializes access to it.
type Coordinator struct {
	cat          *catalog.Catalog
	headerOffset int

	searchTerm  string
	selectedID  *model.EventID
	favoriteIDs map[model.EventID]struct{}
	menuOpen    bool

	onScroll      ScrollFunc
	pendingScroll *ScrollRequest
}

// NewCoordinator creates a coordinator with the initial state: empty
// search, nothing selected, no favorites, menu closed.
func NewCoordinator(cat *catalog.Catalog, headerOffset int) *Coordinator {
	return &Coordinator{
		cat:          cat,
		headerOffset: headerOffset,
		favoriteIDs:  make(map[model.EventID]struct{}),
	}
}

// OnScroll registers fn to receive every scroll request. A nil fn removes
// the callback; requests are still recorded for TakeScroll.
func (c *Coordinator) OnScroll(fn ScrollFunc) {
	c.onScroll = fn
}

// Catalog returns the catalog the coordinator filters.
func (c *Coordinator) Catalog() *catalog.Catalog {
	return c.cat
}

// SetSearchTerm replaces the search term as given, without trimming, and
// requests a scroll to the results.
func (c *Coordinator) SetSearchTerm(text string) {
	c.searchTerm = text
	c.ScrollToResults()
}

func (c *Coordinator) SearchTerm() string {
	return c.searchTerm
}

// FilteredEvents returns the catalog events matching the current search
// term, in catalog order.
func (c *Coordinator) FilteredEvents() []model.Event {
	out := make([]model.Event, 0, c.cat.Len())
	c.cat.Each(func(e model.Event) {
		if Matches(e, c.searchTerm) {
			out = append(out, e)
		}
	})
	return out
}

// SelectEvent opens the detail overlay for id. The id is kept as given; an
// id that is not in the catalog resolves to no overlay.
func (c *Coordinator) SelectEvent(id model.EventID) {
	c.selectedID = &id
}

// ClearSelection closes the detail overlay.
func (c *Coordinator) ClearSelection() {
	c.selectedID = nil
}

// SelectedID returns the selected id, if any.
func (c *Coordinator) SelectedID() (model.EventID, bool) {
	if c.selectedID == nil {
		return "", false
	}
	return *c.selectedID, true
}

// Selected resolves the selected id against the catalog.
func (c *Coordinator) Selected() (model.Event, bool) {
	if c.selectedID == nil {
		return model.Event{}, false
	}
	return c.cat.Lookup(*c.selectedID)
}

// ToggleFavorite adds id to the favorites if absent and removes it if
// present. Ids are not checked against the catalog.
func (c *Coordinator) ToggleFavorite(id model.EventID) {
	if _, ok := c.favoriteIDs[id]; ok {
		delete(c.favoriteIDs, id)
		return
	}
	c.favoriteIDs[id] = struct{}{}
}

func (c *Coordinator) IsFavorite(id model.EventID) bool {
	_, ok := c.favoriteIDs[id]
	return ok
}

// Favorites returns the favorite ids sorted for stable output.
func (c *Coordinator) Favorites() []model.EventID {
	out := make([]model.EventID, 0, len(c.favoriteIDs))
	for id := range c.favoriteIDs {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (c *Coordinator) ToggleMenu() {
	c.menuOpen = !c.menuOpen
}

func (c *Coordinator) MenuOpen() bool {
	return c.menuOpen
}

// ScrollToResults emits a scroll request to the registered callback and
// records it until the next TakeScroll.
func (c *Coordinator) ScrollToResults() {
	req := ScrollRequest{Target: ResultsAnchor, HeaderOffset: c.headerOffset}
	c.pendingScroll = &req
	if c.onScroll != nil {
		c.onScroll(req)
	}
}

// TakeScroll returns and clears the last unconsumed scroll request. Front
// ends that render after the mutation returns (HTTP) use it instead of the
// callback.
func (c *Coordinator) TakeScroll() (ScrollRequest, bool) {
	if c.pendingScroll == nil {
		return ScrollRequest{}, false
	}
	req := *c.pendingScroll
	c.pendingScroll = nil
	return req, true
}

// Snapshot copies the current state.
func (c *Coordinator) Snapshot() State {
	s := State{
		SearchTerm:  c.searchTerm,
		FavoriteIDs: c.Favorites(),
		MenuOpen:    c.menuOpen,
	}
	if c.selectedID != nil {
		id := *c.selectedID
		s.SelectedEventID = &id
	}
	return s
}
