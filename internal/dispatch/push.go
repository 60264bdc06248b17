package dispatch

import (
	"context"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"metro-status-backend/internal/model"
	"metro-status-backend/internal/store"
)

// PushSender defines the interface for sending a web push notification.
type PushSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of PushSender using the webpush
// library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// pushJob names a changed unit and the message its subscribers receive.
type pushJob struct {
	unitID  string
	message string
}

// PushPool fans changed-unit notifications out to browser subscribers.
type PushPool struct {
	size    int
	jobs    chan pushJob
	store   store.Store
	webpush *webpush.Options
	sender  PushSender
}

// NewPushPool creates a new push worker pool.
func NewPushPool(size int, s store.Store, webpushOptions *webpush.Options) *PushPool {
	return &PushPool{
		size:    size,
		jobs:    make(chan pushJob, size),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (p *PushPool) Start(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		go p.worker(ctx, i)
	}
}

func (p *PushPool) worker(ctx context.Context, id int) {
	log.Printf("Push worker %d started", id)
	for {
		select {
		case job := <-p.jobs:
			p.sendForUnit(ctx, job)
		case <-ctx.Done():
			log.Printf("Push worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues a changed unit for push fan-out.
func (p *PushPool) Dispatch(unitID, message string) {
	p.jobs <- pushJob{unitID: unitID, message: message}
}

func (p *PushPool) sendForUnit(ctx context.Context, job pushJob) {
	subscriptions, err := p.store.SubscriptionsForUnit(ctx, job.unitID)
	if err != nil {
		log.Printf("Error fetching subscriptions for unit %s: %v", job.unitID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	log.Printf("Sending %d push notifications for unit %s", len(subscriptions), job.unitID)
	for _, sub := range subscriptions {
		p.send(ctx, sub, []byte(job.message))
	}
}

func (p *PushPool) send(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := p.sender.Send(payload, wpSub, p.webpush)
	if err != nil {
		log.Printf("Error sending push notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := p.store.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}

// Jobs returns the jobs channel for testing.
func (p *PushPool) Jobs() chan pushJob {
	return p.jobs
}
