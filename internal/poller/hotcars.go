package poller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"metro-status-backend/config"
	"metro-status-backend/internal/dispatch"
	"metro-status-backend/internal/hotcar"
	"metro-status-backend/internal/model"
	"metro-status-backend/internal/social"
	"metro-status-backend/internal/store"
)

// HotCarPoller drives the hot car tracker: each tick searches for report
// posts since the last seen cursor, validates and deduplicates them,
// persists the survivors, and replies to the reporters.
type HotCarPoller struct {
	cfg        *config.Config
	store      store.Store
	client     social.Client
	extractor  *hotcar.Extractor
	deduper    *hotcar.Deduper
	dispatcher *dispatch.Dispatcher
}

// NewHotCarPoller assembles the hot car tracker.
func NewHotCarPoller(cfg *config.Config, s store.Store, client social.Client, ex *hotcar.Extractor, dd *hotcar.Deduper, d *dispatch.Dispatcher) *HotCarPoller {
	return &HotCarPoller{
		cfg:        cfg,
		store:      s,
		client:     client,
		extractor:  ex,
		deduper:    dd,
		dispatcher: d,
	}
}

// Run starts the tick loop.
func (p *HotCarPoller) Run(ctx context.Context) {
	if !p.cfg.HotCars.Enabled {
		log.Println("Hot car tracker is disabled. Not starting.")
		return
	}
	log.Println("Starting hot car tracker...")

	if err := p.TickOnce(ctx); err != nil {
		log.Printf("Hot car tick failed: %v", err)
	}

	timer := time.NewTimer(p.cfg.HotCars.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Hot car tracker shutting down.")
			return
		case <-timer.C:
			if err := p.TickOnce(ctx); err != nil {
				log.Printf("Hot car tick failed: %v", err)
			}
			timer.Reset(p.cfg.HotCars.Interval)
		}
	}
}

// TickOnce runs a single search-extract-dedup-respond cycle.
func (p *HotCarPoller) TickOnce(ctx context.Context) error {
	now := time.Now().UTC()
	log.Println("Start hot car tick.")

	state, err := p.store.GetAppState(ctx, model.TrackerHotCars)
	if err != nil {
		return fmt.Errorf("failed to load app state: %w", err)
	}
	sinceID := state.LastPostCursor

	// Retry acknowledgements for stored posts whose reply never went out.
	replies, err := p.pendingReplies(ctx)
	if err != nil {
		return err
	}

	posts, err := p.gatherPosts(ctx, state, now, sinceID)
	if err != nil {
		return err
	}
	log.Printf("Have %d unique posts.", len(posts))

	maxID := sinceID
	for _, post := range posts {
		if post.ID > maxID {
			maxID = post.ID
		}
	}

	for _, post := range posts {
		candidate := p.extractor.Extract(post.Text)
		if !p.extractor.Valid(post, candidate) {
			continue
		}

		carNumber := candidate.CarNumber()
		dup, err := p.deduper.IsDuplicate(ctx, post, carNumber)
		if err != nil {
			return err
		}
		if dup {
			log.Printf("Skipping post %d by %s on car %d: duplicate report", post.ID, post.UserHandle, carNumber)
			continue
		}

		inserted, err := p.store.InsertSocialPost(ctx, &model.SocialPost{
			ID:       post.ID,
			UserID:   post.UserID,
			Text:     post.Text,
			PostedAt: post.PostedAt,
		})
		if err != nil {
			return err
		}
		if !inserted {
			log.Printf("Post %d already ingested", post.ID)
			continue
		}

		if err := p.store.UpsertReporter(ctx, &model.Reporter{ID: post.UserID, Handle: post.UserHandle}); err != nil {
			return err
		}
		if err := p.store.InsertHotCarReport(ctx, &model.HotCarReport{
			PostID:     post.ID,
			CarNumber:  carNumber,
			Color:      candidate.Color(),
			UserID:     post.UserID,
			ReportedAt: post.PostedAt,
		}); err != nil {
			return err
		}
		log.Printf("Recorded hot car report: car %d by %s", carNumber, post.UserHandle)

		if text := p.extractor.Reply(post.UserHandle, candidate); text != "" {
			replies = append(replies, dispatch.Reply{PostID: post.ID, Text: text})
		}
	}

	state.LastPostCursor = maxID
	t := now
	state.LastRunTime = &t
	if err := p.store.SaveAppState(ctx, state); err != nil {
		return fmt.Errorf("failed to save app state: %w", err)
	}

	p.dispatcher.DispatchReplies(ctx, replies)

	log.Println("Done hot car tick.")
	return nil
}

// pendingReplies rebuilds acknowledgement replies for posts that were
// ingested but never successfully answered.
func (p *HotCarPoller) pendingReplies(ctx context.Context) ([]dispatch.Reply, error) {
	unacked, err := p.store.UnacknowledgedPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load unacknowledged posts: %w", err)
	}

	var replies []dispatch.Reply
	for _, post := range unacked {
		reporter, err := p.store.GetReporter(ctx, post.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("Warning: cannot acknowledge post %d, user %d unknown", post.ID, post.UserID)
				continue
			}
			return nil, fmt.Errorf("failed to load reporter %d: %w", post.UserID, err)
		}
		candidate := p.extractor.Extract(post.Text)
		if text := p.extractor.Reply(reporter.Handle, candidate); text != "" {
			replies = append(replies, dispatch.Reply{PostID: post.ID, Text: text})
		}
	}
	return replies, nil
}

// gatherPosts runs the configured searches, plus the mentions check when
// its throttle allows, and de-duplicates by post id.
func (p *HotCarPoller) gatherPosts(ctx context.Context, state *model.AppState, now time.Time, sinceID int64) ([]social.Post, error) {
	var posts []social.Post
	for _, query := range p.cfg.HotCars.SearchQueries {
		res, err := p.client.Search(ctx, query, sinceID)
		if err != nil {
			return nil, fmt.Errorf("search %q failed: %w", query, err)
		}
		posts = append(posts, res...)
	}

	if state.LastMentionsCheckTime == nil || now.Sub(*state.LastMentionsCheckTime) > p.cfg.HotCars.MentionsMinInterval {
		res, err := p.client.Mentions(ctx, sinceID)
		if err != nil {
			return nil, fmt.Errorf("mentions check failed: %w", err)
		}
		posts = append(posts, res...)
		t := now
		state.LastMentionsCheckTime = &t
	}

	own := strings.ToUpper(p.cfg.HotCars.OwnAccount)
	seen := make(map[int64]struct{}, len(posts))
	unique := posts[:0]
	for _, post := range posts {
		if _, dup := seen[post.ID]; dup {
			continue
		}
		seen[post.ID] = struct{}{}
		if post.IsRepost {
			continue
		}
		if strings.ToUpper(post.UserHandle) == own {
			continue
		}
		unique = append(unique, post)
	}
	return unique, nil
}
