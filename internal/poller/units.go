package poller

import (
	"context"
	"fmt"
	"log"
	"time"

	"metro-status-backend/config"
	"metro-status-backend/internal/compose"
	"metro-status-backend/internal/dispatch"
	"metro-status-backend/internal/feed"
	"metro-status-backend/internal/model"
	"metro-status-backend/internal/reconcile"
	"metro-status-backend/internal/store"
)

// UnitPoller drives the escalator/elevator tracker: one tick fetches the
// incident snapshot, reconciles it against the store, composes and
// dispatches notifications, and persists run metadata. Ticks never
// overlap; the loop sleeps a fixed interval between them.
type UnitPoller struct {
	cfg        *config.Config
	store      store.Store
	feed       feed.Client
	reconciler *reconcile.Reconciler
	dispatcher *dispatch.Dispatcher
	push       *dispatch.PushPool
}

// NewUnitPoller assembles the unit tracker.
func NewUnitPoller(cfg *config.Config, s store.Store, f feed.Client, r *reconcile.Reconciler, d *dispatch.Dispatcher, push *dispatch.PushPool) *UnitPoller {
	return &UnitPoller{
		cfg:        cfg,
		store:      s,
		feed:       f,
		reconciler: r,
		dispatcher: d,
		push:       push,
	}
}

// Run starts the tick loop.
func (p *UnitPoller) Run(ctx context.Context) {
	if !p.cfg.Units.Enabled {
		log.Println("Unit tracker is disabled. Not starting.")
		return
	}
	log.Println("Starting unit tracker...")

	if p.push != nil {
		p.push.Start(ctx)
	}

	if err := p.TickOnce(ctx); err != nil {
		log.Printf("Unit tick failed: %v", err)
	}

	timer := time.NewTimer(p.cfg.Units.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Unit tracker shutting down.")
			return
		case <-timer.C:
			if err := p.TickOnce(ctx); err != nil {
				log.Printf("Unit tick failed: %v", err)
			}
			timer.Reset(p.cfg.Units.Interval)
		}
	}
}

// TickOnce runs a single poll-diff-notify cycle. On any error shared
// tick state is left untouched, so the next tick re-processes the same
// interval; the diff is always recomputed from store state, never from an
// in-memory delta, so a partial tick is safe to resume.
func (p *UnitPoller) TickOnce(ctx context.Context) error {
	now := time.Now().UTC()
	log.Println("Start unit tick.")

	state, err := p.store.GetAppState(ctx, model.TrackerUnits)
	if err != nil {
		return fmt.Errorf("failed to load app state: %w", err)
	}

	incidents, err := p.feed.Incidents(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch incidents: %w", err)
	}
	log.Printf("Have %d outages.", len(incidents))

	changes, err := p.reconciler.Reconcile(ctx, incidents, now)
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}
	log.Printf("Have %d changed units.", len(changes))

	urlFor := p.urlMaker()
	messages := make([]string, len(changes))
	for i, rec := range changes {
		messages[i] = compose.Compose(rec, urlFor)
	}

	p.dispatcher.DispatchUpdates(ctx, messages)

	if p.push != nil {
		for i, rec := range changes {
			p.push.Dispatch(rec.UnitID, messages[i])
		}
	}

	// Periodic recompute piggybacks on the tick schedule; the occasional
	// long tick is cheaper than a second concurrent job.
	if state.LastSummaryTime == nil || now.Sub(*state.LastSummaryTime) > p.cfg.Units.SummaryInterval {
		log.Println("Recomputing all unit performance summaries.")
		if err := p.store.RecomputeSummaries(ctx, now); err != nil {
			log.Printf("Error recomputing summaries: %v", err)
		} else {
			t := now
			state.LastSummaryTime = &t
		}
	}

	t := now
	state.LastRunTime = &t
	if err := p.store.SaveAppState(ctx, state); err != nil {
		return fmt.Errorf("failed to save app state: %w", err)
	}

	log.Println("Done unit tick.")
	return nil
}

func (p *UnitPoller) urlMaker() compose.URLMaker {
	base := p.cfg.Units.URLBase
	if base == "" {
		return nil
	}
	return func(unitID string) string {
		return base + "/unit/" + unitID
	}
}
