package test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
)

// PaymentVerifierStub answers payment lookups through VerifyFn.
type PaymentVerifierStub struct {
	VerifyFn func(context.Context, string) (*model.PaymentVerification, error)

	mu    sync.Mutex
	Calls int
}

// Verify delegates to VerifyFn and counts calls.
func (s *PaymentVerifierStub) Verify(ctx context.Context, reference string) (*model.PaymentVerification, error) {
	s.mu.Lock()
	s.Calls++
	s.mu.Unlock()
	return s.VerifyFn(ctx, reference)
}

// CarrierTrackerStub answers tracking lookups through TrackFn.
type CarrierTrackerStub struct {
	TrackFn func(context.Context, string, string) (*model.TrackingStatus, error)
}

// Track delegates to TrackFn.
func (s CarrierTrackerStub) Track(ctx context.Context, carrier, trackingNumber string) (*model.TrackingStatus, error) {
	return s.TrackFn(ctx, carrier, trackingNumber)
}

// SentNotification is one captured Notify call.
type SentNotification struct {
	UserID  uuid.UUID
	Kind    string
	Title   string
	Message string
	Data    map[string]any
}

// NotifierRecorder captures notifications.
type NotifierRecorder struct {
	mu   sync.Mutex
	Sent []SentNotification
	Err  error
}

// Notify records the notification and returns Err.
func (r *NotifierRecorder) Notify(_ context.Context, userID uuid.UUID, kind, title, message string, data map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sent = append(r.Sent, SentNotification{UserID: userID, Kind: kind, Title: title, Message: message, Data: data})
	return r.Err
}

// Kinds lists the kinds sent to userID in order.
func (r *NotifierRecorder) Kinds(userID uuid.UUID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kinds []string
	for _, n := range r.Sent {
		if n.UserID == userID {
			kinds = append(kinds, n.Kind)
		}
	}
	return kinds
}

// Count returns how many notifications of kind were sent.
func (r *NotifierRecorder) Count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.Sent {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

// PublisherRecorder captures realtime events.
type PublisherRecorder struct {
	mu     sync.Mutex
	Events []model.Envelope
	Err    error
}

// Publish records the event and returns Err.
func (r *PublisherRecorder) Publish(_ context.Context, _ []uuid.UUID, event model.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
	return r.Err
}

// Actions lists the published actions in order.
func (r *PublisherRecorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		actions = append(actions, e.Domain+"."+e.Action)
	}
	return actions
}

// ManualClock is a settable clock for tests.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock starts the clock at now.
func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

// Now returns the current fake time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
