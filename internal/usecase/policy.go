package usecase

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
)

// Policy groups the business tunables shared by the use cases.
type Policy struct {
	OfferTTL             time.Duration
	MinProductionDays    int
	ShippingBufferDays   int
	BuyerProtection      time.Duration
	ConfirmationWindow   time.Duration
	ManualDeliveryGrace  time.Duration
	MinTrackingLength    int
	DefaultFeePercentage decimal.Decimal
	BatchSize            int
	Workers              int
	NotifyTimeout        time.Duration
}

// DefaultPolicy returns the platform defaults.
func DefaultPolicy() Policy {
	return Policy{
		OfferTTL:             7 * 24 * time.Hour,
		MinProductionDays:    7,
		ShippingBufferDays:   3,
		BuyerProtection:      60 * 24 * time.Hour,
		ConfirmationWindow:   72 * time.Hour,
		ManualDeliveryGrace:  7 * 24 * time.Hour,
		MinTrackingLength:    6,
		DefaultFeePercentage: decimal.NewFromInt(10),
		BatchSize:            100,
		Workers:              4,
		NotifyTimeout:        5 * time.Second,
	}
}

// OfferRules derives the offer time constraints.
func (p Policy) OfferRules() model.OfferRules {
	return model.OfferRules{
		DefaultTTL:  p.OfferTTL,
		MinLeadTime: time.Duration(p.MinProductionDays+p.ShippingBufferDays) * 24 * time.Hour,
	}
}

func (p Policy) batchSize() int {
	if p.BatchSize <= 0 {
		return 100
	}
	return p.BatchSize
}

func (p Policy) workers() int {
	if p.Workers <= 0 {
		return 1
	}
	return p.Workers
}
