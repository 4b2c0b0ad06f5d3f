package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/shopspring/decimal"
	"github.com/teambition/rrule-go"

	appLog "notify/internal/log"
	"notify/internal/model"
)

// Non-standard VEVENT properties understood by the ICS provider.
const (
	propPrice = ical.ComponentProperty("X-NOTIFY-PRICE")
	propImage = ical.ComponentProperty("X-NOTIFY-IMAGE")

	// Raw name; constant naming differs across library versions.
	propRecurrenceID = ical.ComponentProperty("RECURRENCE-ID")
)

// ParseICS builds a catalog from the VEVENTs of an iCalendar payload, in
// document order.
//
//   - UID becomes the event id; VEVENTs without UID are skipped.
//   - The first CATEGORIES value becomes the category.
//   - X-NOTIFY-PRICE holds a decimal price; absent means free.
//   - X-NOTIFY-IMAGE, or else ATTACH, is the image reference.
//   - A recurring VEVENT (RRULE) is dated at its next occurrence at or after
//     now. RECURRENCE-ID overrides are ignored: the catalog lists series, not
//     instances.
func ParseICS(body []byte, now time.Time) (*Catalog, error) {
	if len(body) == 0 {
		return nil, errors.New("catalog: empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("catalog: parse ics: %w", err)
	}

	events := make([]model.Event, 0)
	for _, ve := range cal.Events() {
		if ve.GetProperty(propRecurrenceID) != nil {
			continue
		}
		ev, perr := eventFromVEvent(ve, now)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent skipped", perr)
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics catalog parsed", "event_count", len(events))
	return New(events)
}

func eventFromVEvent(ve *ical.VEvent, now time.Time) (model.Event, error) {
	var out model.Event

	uid := propValue(ve, ical.ComponentPropertyUniqueId)
	if uid == "" {
		return out, errors.New("missing UID")
	}
	out.ID = model.EventID(uid)
	out.Name = textValue(ve, ical.ComponentPropertySummary)
	out.Location = textValue(ve, ical.ComponentPropertyLocation)
	out.Description = textValue(ve, ical.ComponentPropertyDescription)

	if cats := propValue(ve, ical.ComponentPropertyCategories); cats != "" {
		out.Category = icsText.Replace(strings.TrimSpace(strings.Split(cats, ",")[0]))
	}

	if img := propValue(ve, propImage); img != "" {
		out.Image = img
	} else {
		out.Image = propValue(ve, ical.ComponentPropertyAttach)
	}

	if p := propValue(ve, propPrice); p != "" {
		d, err := decimal.NewFromString(p)
		if err != nil {
			return out, fmt.Errorf("uid %s: price %q: %w", uid, p, err)
		}
		out.Price = &d
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("uid %s: DTSTART: %w", uid, err)
	}
	out.Date = start

	if raw := propValue(ve, ical.ComponentPropertyRrule); raw != "" {
		if next, ok := nextOccurrence(raw, start, exDates(ve, start.Location()), now); ok {
			out.Date = next
		}
	}

	return out, nil
}

// nextOccurrence returns the first occurrence of the rule at or after now.
// ok is false when the rule cannot be parsed or has no further occurrences.
func nextOccurrence(raw string, dtstart time.Time, exdates []time.Time, now time.Time) (time.Time, bool) {
	r, err := rrule.StrToRRule(raw)
	if err != nil {
		appLog.Error("ics rrule parse failed", err, "rrule", raw)
		return time.Time{}, false
	}
	r.DTStart(dtstart)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exdates {
		set.ExDate(ex)
	}

	next := set.After(now.In(dtstart.Location()), true)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

func exDates(ve *ical.VEvent, loc *time.Location) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, loc); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	p := ve.GetProperty(name)
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Value)
}

var icsText = strings.NewReplacer(`\\`, `\`, `\,`, ",", `\;`, ";", `\n`, "\n", `\N`, "\n")

// textValue is propValue with RFC 5545 TEXT escapes removed.
func textValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	return icsText.Replace(propValue(ve, name))
}

// parseICSTime parses a basic ICS date/date-time string. Values without a
// UTC suffix are read in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}

	// Local date-time, e.g., 20250101T090000
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}

	// Date-only (all-day), e.g., 20250101
	return time.ParseInLocation("20060102", v, loc)
}
