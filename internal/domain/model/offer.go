package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/errors"
)

// OfferStatus describes the negotiation lifecycle.
type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "PENDING"
	OfferStatusCountered OfferStatus = "COUNTERED"
	OfferStatusAccepted  OfferStatus = "ACCEPTED"
	OfferStatusRejected  OfferStatus = "REJECTED"
	OfferStatusWithdrawn OfferStatus = "WITHDRAWN"
	OfferStatusExpired   OfferStatus = "EXPIRED"
)

func (s OfferStatus) IsValid() bool {
	switch s {
	case OfferStatusPending, OfferStatusCountered, OfferStatusAccepted,
		OfferStatusRejected, OfferStatusWithdrawn, OfferStatusExpired:
		return true
	}
	return false
}

// IsOpen reports whether the negotiation can still move.
func (s OfferStatus) IsOpen() bool {
	return s == OfferStatusPending || s == OfferStatusCountered
}

func (s OfferStatus) IsTerminal() bool {
	return s.IsValid() && !s.IsOpen()
}

// Offer is a price negotiation between a customer and a designer for one catalog item.
// FinalPrice is set only in ACCEPTED, AwaitingResponseFrom only in COUNTERED.
type Offer struct {
	ID                   uuid.UUID        `json:"id"`
	CustomerID           uuid.UUID        `json:"customerId"`
	DesignerID           uuid.UUID        `json:"designerId"`
	CatalogItemID        uuid.UUID        `json:"catalogItemId"`
	CustomerPrice        decimal.Decimal  `json:"customerPrice"`
	DesignerPrice        *decimal.Decimal `json:"designerPrice,omitempty"`
	FinalPrice           *decimal.Decimal `json:"finalPrice,omitempty"`
	Status               OfferStatus      `json:"status"`
	Notes                *string          `json:"notes,omitempty"`
	DesignerNotes        *string          `json:"designerNotes,omitempty"`
	Measurements         json.RawMessage  `json:"measurements,omitempty"`
	TryOnImageURL        *string          `json:"tryOnImageUrl,omitempty"`
	ExpiresAt            time.Time        `json:"expiresAt"`
	Deadline             *time.Time       `json:"deadline,omitempty"`
	AwaitingResponseFrom *Party           `json:"awaitingResponseFrom,omitempty"`
	AcceptedAt           *time.Time       `json:"acceptedAt,omitempty"`
	CreatedAt            time.Time        `json:"createdAt"`
	UpdatedAt            time.Time        `json:"updatedAt"`
}

// OfferDraft holds customer input for a new offer.
type OfferDraft struct {
	CustomerID    uuid.UUID
	CatalogItemID uuid.UUID
	Price         decimal.Decimal
	Measurements  json.RawMessage
	Notes         *string
	TryOnImageURL *string
	Deadline      *time.Time
	ExpiresAt     *time.Time
}

// OfferRules are the time constraints applied to new offers.
type OfferRules struct {
	DefaultTTL  time.Duration
	MinLeadTime time.Duration
}

// NewOffer validates the draft against the catalog item and builds a PENDING offer.
func NewOffer(draft OfferDraft, item CatalogItem, rules OfferRules, now time.Time) (*Offer, error) {
	if draft.CustomerID == item.DesignerID {
		return nil, domainErrors.Validation("self_offer", "designers cannot make offers on their own items")
	}
	if err := validatePrice(draft.Price, item.ListPrice); err != nil {
		return nil, err
	}
	if draft.Deadline != nil && draft.Deadline.Before(now.Add(rules.MinLeadTime)) {
		return nil, domainErrors.Validation("deadline_too_soon",
			"deadline must be at least %s from now", rules.MinLeadTime)
	}

	expiresAt := now.Add(rules.DefaultTTL)
	if draft.ExpiresAt != nil {
		if !draft.ExpiresAt.After(now) {
			return nil, domainErrors.Validation("invalid_expiry", "expiry must be in the future")
		}
		expiresAt = *draft.ExpiresAt
	}

	measurements := draft.Measurements
	if len(measurements) == 0 {
		measurements = json.RawMessage(`{}`)
	}

	return &Offer{
		ID:            uuid.New(),
		CustomerID:    draft.CustomerID,
		DesignerID:    item.DesignerID,
		CatalogItemID: item.ID,
		CustomerPrice: draft.Price,
		Status:        OfferStatusPending,
		Notes:         draft.Notes,
		Measurements:  measurements,
		TryOnImageURL: draft.TryOnImageURL,
		ExpiresAt:     expiresAt,
		Deadline:      draft.Deadline,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func validatePrice(price, listPrice decimal.Decimal) error {
	if price.GreaterThan(listPrice) {
		return domainErrors.Validation("price_above_list",
			"price %s exceeds list price %s", price.StringFixed(2), listPrice.StringFixed(2))
	}
	if !price.IsPositive() {
		return domainErrors.Validation("invalid_price", "price must be positive")
	}
	return nil
}

// PartyOf resolves the role of userID in this offer.
func (o *Offer) PartyOf(userID uuid.UUID) (Party, bool) {
	switch userID {
	case o.CustomerID:
		return PartyCustomer, true
	case o.DesignerID:
		return PartyDesigner, true
	}
	return "", false
}

// UserOf returns the user id behind a party.
func (o *Offer) UserOf(p Party) uuid.UUID {
	if p == PartyDesigner {
		return o.DesignerID
	}
	return o.CustomerID
}

// IsExpired reports whether an open offer has passed its expiry.
func (o *Offer) IsExpired(now time.Time) bool {
	return o.Status.IsOpen() && now.After(o.ExpiresAt)
}

// ExpireIfDue moves an overdue open offer to EXPIRED and reports whether it did.
func (o *Offer) ExpireIfDue(now time.Time) bool {
	if !o.IsExpired(now) {
		return false
	}
	o.Status = OfferStatusExpired
	o.AwaitingResponseFrom = nil
	o.UpdatedAt = now
	return true
}

func (o *Offer) expiredError() error {
	return domainErrors.Expired("offer_expired", "offer expired at %s", o.ExpiresAt.UTC().Format(time.RFC3339))
}

func (o *Offer) notOpenError() error {
	return domainErrors.Conflict("offer_not_open", "offer is %s", o.Status)
}

// CanRespond checks that actor is the party allowed to answer the offer right now.
// A PENDING offer is answered by the designer, a COUNTERED one by the awaited party.
func (o *Offer) CanRespond(actor Party) error {
	switch o.Status {
	case OfferStatusPending:
		if actor != PartyDesigner {
			return domainErrors.Unauthorized("designer_only", "only the designer can respond to a new offer")
		}
	case OfferStatusCountered:
		if o.AwaitingResponseFrom == nil || *o.AwaitingResponseFrom != actor {
			return domainErrors.Unauthorized("not_awaited_party", "offer is awaiting the other party")
		}
	default:
		return o.notOpenError()
	}
	return nil
}

// CurrentPrice is the price on the table: the latest counter, or the customer's opening price.
func (o *Offer) CurrentPrice() decimal.Decimal {
	if o.Status == OfferStatusCountered && o.AwaitingResponseFrom != nil &&
		*o.AwaitingResponseFrom == PartyCustomer && o.DesignerPrice != nil {
		return *o.DesignerPrice
	}
	return o.CustomerPrice
}

// Counter revises the price on behalf of actor and hands the turn to the other party.
func (o *Offer) Counter(actor Party, price decimal.Decimal, notes *string, listPrice decimal.Decimal, now time.Time) error {
	if err := validatePrice(price, listPrice); err != nil {
		return err
	}
	if o.ExpireIfDue(now) {
		return o.expiredError()
	}
	if err := o.CanRespond(actor); err != nil {
		return err
	}

	if actor == PartyDesigner {
		p := price
		o.DesignerPrice = &p
		o.DesignerNotes = notes
	} else {
		o.CustomerPrice = price
		if notes != nil {
			o.Notes = notes
		}
	}
	next := actor.Other()
	o.AwaitingResponseFrom = &next
	o.Status = OfferStatusCountered
	o.UpdatedAt = now
	return nil
}

// Accept fixes the current price as final.
func (o *Offer) Accept(actor Party, now time.Time) error {
	if o.ExpireIfDue(now) {
		return o.expiredError()
	}
	if err := o.CanRespond(actor); err != nil {
		return err
	}

	final := o.CurrentPrice()
	o.FinalPrice = &final
	o.Status = OfferStatusAccepted
	o.AwaitingResponseFrom = nil
	o.AcceptedAt = &now
	o.UpdatedAt = now
	return nil
}

// Reject closes the negotiation on the designer's side.
func (o *Offer) Reject(actor Party, notes *string, now time.Time) error {
	if !o.Status.IsOpen() {
		return o.notOpenError()
	}
	if actor != PartyDesigner {
		return domainErrors.Unauthorized("designer_only", "only the designer can reject an offer")
	}
	if notes != nil {
		o.DesignerNotes = notes
	}
	o.Status = OfferStatusRejected
	o.AwaitingResponseFrom = nil
	o.UpdatedAt = now
	return nil
}

// Withdraw closes the negotiation on the customer's side.
func (o *Offer) Withdraw(actor Party, now time.Time) error {
	if !o.Status.IsOpen() {
		return o.notOpenError()
	}
	if actor != PartyCustomer {
		return domainErrors.Unauthorized("customer_only", "only the customer can withdraw an offer")
	}
	o.Status = OfferStatusWithdrawn
	o.AwaitingResponseFrom = nil
	o.UpdatedAt = now
	return nil
}
