package calsync

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rahul/agendabot/internal/agenda"
	"github.com/rahul/agendabot/internal/observability"
	"github.com/rahul/agendabot/internal/store"
)

// Scheduler periodically rebuilds the feed from the store so edits made
// outside the bot (imports, failed mirror writes) converge.
type Scheduler struct {
	Store      store.Store
	Mirror     *ICSMirror
	Spec       string
	PastDays   int
	FutureDays int
	Location   *time.Location
	Logger     *observability.Logger

	now func() time.Time
}

func NewScheduler(st store.Store, mirror *ICSMirror, spec string, pastDays, futureDays int, loc *time.Location, logger *observability.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		Store:      st,
		Mirror:     mirror,
		Spec:       spec,
		PastDays:   pastDays,
		FutureDays: futureDays,
		Location:   loc,
		Logger:     logger,
		now:        time.Now,
	}
}

// Start resyncs once, then on every cron tick until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New(cron.WithLocation(s.Location))
	if _, err := c.AddFunc(s.Spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", s.Spec, err)
	}

	log.Printf("[sync] feed resync scheduled (%s)", s.Spec)
	s.run(ctx)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	n, err := s.Resync(ctx)
	if err != nil {
		log.Printf("[sync] resync failed: %v", err)
	}
	s.Logger.LogSync("resync", n, err)
}

// Resync replaces the feed with the items in the configured window and
// returns how many were written.
func (s *Scheduler) Resync(ctx context.Context) (int, error) {
	today := agenda.Today(s.now(), s.Location)
	items, err := s.Store.Range(ctx, today.AddDays(-s.PastDays), today.AddDays(s.FutureDays))
	if err != nil {
		return 0, fmt.Errorf("load window: %w", err)
	}
	if err := s.Mirror.Replace(ctx, items); err != nil {
		return 0, err
	}
	return len(items), nil
}
