package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"notify/internal/config"
	appLog "notify/internal/log"
)

// Load builds the catalog selected by cfg.Catalog. It runs once, before the
// server accepts requests; there is no reload.
func Load(ctx context.Context, cfg *config.Config) (*Catalog, error) {
	loc := ResolveLocation(cfg.Timezone)
	cc := cfg.Catalog

	var (
		c   *Catalog
		err error
	)

	switch cc.Source {
	case config.SourceYAML:
		if cc.Path == "" {
			return nil, errors.New("catalog: yaml source requires catalog.path")
		}
		c, err = LoadYAML(cc.Path, loc)

	case config.SourceICS:
		var body []byte
		switch {
		case cc.Path != "":
			body, err = os.ReadFile(cc.Path)
			if err != nil {
				return nil, fmt.Errorf("catalog: read %s: %w", cc.Path, err)
			}
		case cc.URL != "":
			body, _, err = NewFetcher(cc.CacheDir).Fetch(ctx, cc.URL)
			if err != nil {
				return nil, fmt.Errorf("catalog: fetch feed: %w", err)
			}
		default:
			return nil, errors.New("catalog: ics source requires catalog.path or catalog.url")
		}
		c, err = ParseICS(body, time.Now().In(loc))

	default:
		c = Sample()
	}
	if err != nil {
		return nil, err
	}

	appLog.Info("catalog loaded", "source", cc.Source, "events", c.Len())
	return c, nil
}

// ResolveLocation loads an IANA zone, falling back to UTC.
func ResolveLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to UTC", err, "name", name)
		return time.UTC
	}
	return loc
}
