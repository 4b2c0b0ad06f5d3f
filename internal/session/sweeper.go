package session

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	appLog "notify/internal/log"
)

// Sweeper periodically drops idle sessions from a Store.
type Sweeper struct {
	cron  *cron.Cron
	store *Store
	ttl   time.Duration
}

// NewSweeper schedules a sweep of store on spec, a standard five-field cron
// expression (e.g. "*/5 * * * *").
func NewSweeper(store *Store, spec string, ttl time.Duration) (*Sweeper, error) {
	s := &Sweeper{
		cron:  cron.New(),
		store: store,
		ttl:   ttl,
	}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, err
	}
	return s, nil
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce() {
	removed := s.store.Sweep(s.ttl)
	if removed > 0 {
		appLog.Info("idle sessions dropped", "removed", removed, "remaining", s.store.Len())
	} else {
		appLog.Debug("session sweep", "remaining", s.store.Len())
	}
}

// Start runs the schedule until ctx is canceled.
func (s *Sweeper) Start(ctx context.Context) {
	s.cron.Start()
	appLog.Info("session sweeper started", "idle_ttl", s.ttl.String())

	go func() {
		<-ctx.Done()
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
		appLog.Info("session sweeper stopped")
	}()
}
