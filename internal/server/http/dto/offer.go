package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOfferRequest describes a new customer offer.
type CreateOfferRequest struct {
	CatalogItemID uuid.UUID       `json:"catalogItemId"`
	Price         decimal.Decimal `json:"price"`
	Measurements  json.RawMessage `json:"measurements"`
	Notes         *string         `json:"notes"`
	TryOnImageURL *string         `json:"tryOnImageUrl"`
	Deadline      *time.Time      `json:"deadline"`
	ExpiresAt     *time.Time      `json:"expiresAt"`
}

// CounterOfferRequest carries a counter price.
type CounterOfferRequest struct {
	Price decimal.Decimal `json:"price"`
	Notes *string         `json:"notes"`
}

// RejectOfferRequest optionally explains a rejection.
type RejectOfferRequest struct {
	Notes *string `json:"notes"`
}
