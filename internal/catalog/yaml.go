package catalog

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"notify/internal/model"
)

// yamlFile is the on-disk layout of a YAML catalog:
//
//	events:
//	  - id: "1"
//	    name: Jazz Night
//	    location: Paris
//	    category: Music
//	    date: 2025-07-15T20:00:00+02:00
//	    price: "25.50"
//	    image: https://...
//	    description: ...
type yamlFile struct {
	Events []yamlEvent `yaml:"events"`
}

type yamlEvent struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Location    string `yaml:"location"`
	Category    string `yaml:"category"`
	Date        string `yaml:"date"`
	Image       string `yaml:"image"`
	Price       string `yaml:"price"`
	Description string `yaml:"description"`
}

// LoadYAML reads a YAML catalog file. Dates without an offset are read in
// loc.
func LoadYAML(path string, loc *time.Location) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return ParseYAML(data, loc)
}

// ParseYAML decodes a YAML catalog. Dates without an offset are read in loc.
func ParseYAML(data []byte, loc *time.Location) (*Catalog, error) {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}

	events := make([]model.Event, 0, len(f.Events))
	for i, ye := range f.Events {
		ev := model.Event{
			ID:          model.EventID(strings.TrimSpace(ye.ID)),
			Name:        ye.Name,
			Location:    ye.Location,
			Category:    ye.Category,
			Image:       ye.Image,
			Description: ye.Description,
		}
		if ye.Date != "" {
			t, err := parseDate(ye.Date, loc)
			if err != nil {
				return nil, fmt.Errorf("catalog: event %d (%q): %w", i, ye.ID, err)
			}
			ev.Date = t
		}
		if p := strings.TrimSpace(ye.Price); p != "" {
			d, err := decimal.NewFromString(p)
			if err != nil {
				return nil, fmt.Errorf("catalog: event %d (%q): price %q: %w", i, ye.ID, p, err)
			}
			ev.Price = &d
		}
		events = append(events, ev)
	}
	return New(events)
}

func parseDate(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", v)
}
