// Package view renders the event browser as HTML. Views are pure functions
// of a Page value; they never touch session state. User actions are posted
// back as forms (or sent over the live channel by static/app.js).
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"time"

	"github.com/shopspring/decimal"

	"notify/internal/i18n"
	"notify/internal/model"
	"notify/internal/session"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the embedded CSS/JS assets rooted at "static".
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// Only fails if the embed directive above is broken.
		panic(err)
	}
	return sub
}

// Card is one entry of the results grid.
type Card struct {
	Event    model.Event
	Favorite bool
}

// Page is everything the page templates need. It is built from a
// coordinator snapshot and carries no references back into the session.
type Page struct {
	Locale       string
	HeaderHeight int
	Year         int

	SearchTerm string
	MenuOpen   bool

	Featured *model.Event
	Cards    []Card

	Selected         *model.Event
	SelectedFavorite bool

	// Scroll, when set, asks the page to bring the results region into view.
	Scroll *session.ScrollRequest
}

// NoResults reports whether the results region must show the explicit
// empty-state message.
func (p Page) NoResults() bool {
	return len(p.Cards) == 0
}

// NewPage builds a Page from the coordinator's current state. It does not
// consume pending scroll requests; callers decide whether to attach one.
func NewPage(c *session.Coordinator, locale string, headerHeight int) Page {
	p := Page{
		Locale:       locale,
		HeaderHeight: headerHeight,
		Year:         time.Now().Year(),
		SearchTerm:   c.SearchTerm(),
		MenuOpen:     c.MenuOpen(),
	}

	if f, ok := c.Catalog().Featured(); ok {
		p.Featured = &f
	}

	filtered := c.FilteredEvents()
	p.Cards = make([]Card, 0, len(filtered))
	for _, ev := range filtered {
		p.Cards = append(p.Cards, Card{Event: ev, Favorite: c.IsFavorite(ev.ID)})
	}

	if ev, ok := c.Selected(); ok {
		p.Selected = &ev
		p.SelectedFavorite = c.IsFavorite(ev.ID)
	}
	return p
}

// Renderer executes the embedded templates.
type Renderer struct {
	tmpl *template.Template
	tr   *i18n.Translator
	loc  *time.Location
}

// NewRenderer parses the templates. Dates are shown in loc.
func NewRenderer(tr *i18n.Translator, loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.UTC
	}
	r := &Renderer{tr: tr, loc: loc}

	funcs := template.FuncMap{
		// Replaced per render with the request locale.
		"t":           func(key string, kv ...any) string { return key },
		"formatDate":  func(t time.Time) string { return FormatDate(t, r.loc) },
		"formatPrice": FormatPrice,
	}

	tmpl, err := template.New("notify").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("view: parse templates: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

// RenderPage writes the full HTML document.
func (r *Renderer) RenderPage(w io.Writer, p Page) error {
	return r.execute(w, "page", p)
}

// RenderLive writes the fragment replaced by the live channel: results
// region and detail overlay.
func (r *Renderer) RenderLive(w io.Writer, p Page) error {
	return r.execute(w, "live", p)
}

func (r *Renderer) execute(w io.Writer, name string, p Page) error {
	t, err := r.tmpl.Clone()
	if err != nil {
		return err
	}
	t.Funcs(template.FuncMap{"t": r.tr.For(p.Locale)})
	return t.ExecuteTemplate(w, name, p)
}

// FormatDate renders an event date for display, e.g.
// "Tue, Jul 15, 2025 · 6:00 PM".
func FormatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("Mon, Jan 2, 2006 · 3:04 PM")
}

// FormatPrice renders a non-free price with a dollar sign. Whole amounts
// have no decimals. A nil price renders empty; templates show the
// localized "Free" label instead.
func FormatPrice(p *decimal.Decimal) string {
	if p == nil {
		return ""
	}
	if p.IsInteger() {
		return "$" + p.String()
	}
	return "$" + p.StringFixed(2)
}
