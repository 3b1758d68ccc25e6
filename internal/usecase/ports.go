package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
)

// PaymentVerifier asks the payment gateway about a payment reference.
type PaymentVerifier interface {
	Verify(ctx context.Context, reference string) (*model.PaymentVerification, error)
}

// CarrierTracker reports shipment progress for a carrier tracking number.
type CarrierTracker interface {
	Track(ctx context.Context, carrier, trackingNumber string) (*model.TrackingStatus, error)
}

// RetryAfterError is implemented by collaborator errors that ask the caller to back off.
type RetryAfterError interface {
	error
	RetryAfter() time.Duration
}

// Notifier delivers a user facing notification.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, message string, data map[string]any) error
}

// Publisher pushes a realtime event to the given users.
type Publisher interface {
	Publish(ctx context.Context, userIDs []uuid.UUID, event model.Envelope) error
}

// Recorder observes business outcomes for metrics.
type Recorder interface {
	OfferTransition(action string)
	Settlement(by model.ConfirmedBy, outcome string)
}

// Clock returns the current time.
type Clock func() time.Time

// SystemClock reports wall time in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

type nopRecorder struct{}

func (nopRecorder) OfferTransition(string)               {}
func (nopRecorder) Settlement(model.ConfirmedBy, string) {}
