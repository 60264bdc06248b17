package dispatch

import (
	"context"
	"log"

	"golang.org/x/time/rate"

	"metro-status-backend/internal/social"
	"metro-status-backend/internal/store"
)

// Reply is an acknowledgement to be posted in response to a stored social
// post.
type Reply struct {
	PostID int64
	Text   string
}

// Result records the outcome of one outbound send.
type Result struct {
	Text string
	Err  error
}

// Dispatcher gates and paces outbound notifications.
type Dispatcher struct {
	client     social.Client
	store      store.Store
	limiter    *rate.Limiter
	maxPerTick int
	live       bool
}

// New creates a Dispatcher. When live is false, messages are logged but
// never sent.
func New(client social.Client, s store.Store, perSec float64, burst, maxPerTick int, live bool) *Dispatcher {
	return &Dispatcher{
		client:     client,
		store:      s,
		limiter:    rate.NewLimiter(rate.Limit(perSec), burst),
		maxPerTick: maxPerTick,
		live:       live,
	}
}

// DispatchUpdates posts standalone status messages. If the batch exceeds
// the per-tick ceiling the whole batch is suppressed: a pathological tick
// must not cause a notification storm. A failed send is recorded and does
// not abort the remaining sends.
func (d *Dispatcher) DispatchUpdates(ctx context.Context, messages []string) []Result {
	for _, msg := range messages {
		log.Printf("Notification: %s", msg)
	}

	if len(messages) > d.maxPerTick {
		log.Printf("Suppressing batch of %d notifications: exceeds per-tick ceiling of %d", len(messages), d.maxPerTick)
		return nil
	}
	if !d.live || d.client == nil {
		log.Println("Not sending live.")
		return nil
	}

	results := make([]Result, 0, len(messages))
	for _, msg := range messages {
		if err := d.limiter.Wait(ctx); err != nil {
			results = append(results, Result{Text: msg, Err: err})
			continue
		}
		err := d.client.Update(ctx, msg)
		if err != nil {
			log.Printf("Error sending notification: %v", err)
		}
		results = append(results, Result{Text: msg, Err: err})
	}
	return results
}

// DispatchReplies posts acknowledgement replies. A successful send flips
// the post's acknowledged flag exactly once; a reply for an already
// acknowledged post is skipped.
func (d *Dispatcher) DispatchReplies(ctx context.Context, replies []Reply) []Result {
	for _, r := range replies {
		log.Printf("Response for post %d: %s", r.PostID, r.Text)
	}

	if len(replies) > d.maxPerTick {
		log.Printf("Suppressing batch of %d replies: exceeds per-tick ceiling of %d", len(replies), d.maxPerTick)
		return nil
	}
	if !d.live || d.client == nil {
		log.Println("Not sending live.")
		return nil
	}

	results := make([]Result, 0, len(replies))
	for _, r := range replies {
		if err := d.limiter.Wait(ctx); err != nil {
			results = append(results, Result{Text: r.Text, Err: err})
			continue
		}
		if err := d.client.Reply(ctx, r.Text, r.PostID); err != nil {
			log.Printf("Error sending reply to post %d: %v", r.PostID, err)
			results = append(results, Result{Text: r.Text, Err: err})
			continue
		}
		flipped, err := d.store.AcknowledgePost(ctx, r.PostID)
		if err != nil {
			log.Printf("Error acknowledging post %d: %v", r.PostID, err)
		} else if !flipped {
			log.Printf("Post %d was already acknowledged", r.PostID)
		}
		results = append(results, Result{Text: r.Text})
	}
	return results
}
