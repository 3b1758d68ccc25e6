package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/errors"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/repository"
)

// CreateOfferInput is the customer's opening offer.
type CreateOfferInput struct {
	CatalogItemID uuid.UUID
	Price         decimal.Decimal
	Measurements  json.RawMessage
	Notes         *string
	TryOnImageURL *string
	Deadline      *time.Time
	ExpiresAt     *time.Time
}

// OfferUseCase runs the negotiation between a customer and a designer.
type OfferUseCase struct {
	tx       repository.Transactor
	dispatch *Dispatcher
	recorder Recorder
	policy   Policy
	now      Clock
}

// NewOfferUseCase constructs OfferUseCase.
func NewOfferUseCase(tx repository.Transactor, dispatch *Dispatcher, recorder Recorder, policy Policy, now Clock) *OfferUseCase {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &OfferUseCase{tx: tx, dispatch: dispatch, recorder: recorder, policy: policy, now: now}
}

// Create opens a negotiation on a catalog item.
func (u *OfferUseCase) Create(ctx context.Context, customerID uuid.UUID, in CreateOfferInput) (*model.Offer, error) {
	now := u.now()
	item, err := u.tx.Catalog().Item(ctx, in.CatalogItemID)
	if err != nil {
		return nil, err
	}

	offer, err := model.NewOffer(model.OfferDraft{
		CustomerID:    customerID,
		CatalogItemID: in.CatalogItemID,
		Price:         in.Price,
		Measurements:  in.Measurements,
		Notes:         in.Notes,
		TryOnImageURL: in.TryOnImageURL,
		Deadline:      in.Deadline,
		ExpiresAt:     in.ExpiresAt,
	}, *item, u.policy.OfferRules(), now)
	if err != nil {
		return nil, err
	}
	if err := u.tx.Offers().Create(ctx, offer); err != nil {
		return nil, err
	}

	u.recorder.OfferTransition("created")
	u.announce(ctx, offer, customerID, "created", now, Message{
		UserID: offer.DesignerID,
		Type:   "offer_received",
		Title:  "New offer",
		Text:   "You received a new offer for " + item.Title,
	})
	return offer, nil
}

// Counter revises the price on behalf of the party whose turn it is.
func (u *OfferUseCase) Counter(ctx context.Context, actorID, offerID uuid.UUID, price decimal.Decimal, notes *string) (*model.Offer, error) {
	return u.transition(ctx, actorID, offerID, "countered",
		func(ctx context.Context, repos repository.Factory, o *model.Offer, actor model.Party, now time.Time) error {
			item, err := repos.Catalog().Item(ctx, o.CatalogItemID)
			if err != nil {
				return err
			}
			return o.Counter(actor, price, notes, item.ListPrice, now)
		})
}

// Accept fixes the price on the table. The item must have a production workflow.
func (u *OfferUseCase) Accept(ctx context.Context, actorID, offerID uuid.UUID) (*model.Offer, error) {
	return u.transition(ctx, actorID, offerID, "accepted",
		func(ctx context.Context, repos repository.Factory, o *model.Offer, actor model.Party, now time.Time) error {
			if !o.IsExpired(now) {
				if err := o.CanRespond(actor); err != nil {
					return err
				}
				item, err := repos.Catalog().Item(ctx, o.CatalogItemID)
				if err != nil {
					return err
				}
				if len(item.ProductionSteps) == 0 {
					return domainErrors.Validation("no_production_workflow", "catalog item has no production steps")
				}
			}
			return o.Accept(actor, now)
		})
}

// Reject ends the negotiation on the designer's side.
func (u *OfferUseCase) Reject(ctx context.Context, actorID, offerID uuid.UUID, notes *string) (*model.Offer, error) {
	return u.transition(ctx, actorID, offerID, "rejected",
		func(_ context.Context, _ repository.Factory, o *model.Offer, actor model.Party, now time.Time) error {
			return o.Reject(actor, notes, now)
		})
}

// Withdraw ends the negotiation on the customer's side.
func (u *OfferUseCase) Withdraw(ctx context.Context, actorID, offerID uuid.UUID) (*model.Offer, error) {
	return u.transition(ctx, actorID, offerID, "withdrawn",
		func(_ context.Context, _ repository.Factory, o *model.Offer, actor model.Party, now time.Time) error {
			return o.Withdraw(actor, now)
		})
}

// Get returns the offer when actorID takes part in it.
func (u *OfferUseCase) Get(ctx context.Context, actorID, offerID uuid.UUID) (*model.Offer, error) {
	offer, err := u.tx.Offers().Get(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if _, ok := offer.PartyOf(actorID); !ok {
		return nil, offerNotFound(offerID)
	}
	return offer, nil
}

// List returns offers where actorID plays role, newest first.
func (u *OfferUseCase) List(ctx context.Context, actorID uuid.UUID, role model.Party, status *model.OfferStatus) ([]model.Offer, error) {
	if !role.IsValid() {
		return nil, domainErrors.Validation("invalid_role", "role must be CUSTOMER or DESIGNER")
	}
	if status != nil && !status.IsValid() {
		return nil, domainErrors.Validation("invalid_status", "unknown offer status %q", *status)
	}
	return u.tx.Offers().List(ctx, repository.OfferFilter{UserID: actorID, Party: role, Status: status})
}

// ExpireOverdue closes open offers whose expiry passed and tells both parties.
func (u *OfferUseCase) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	batch := u.policy.batchSize()
	total := 0
	for {
		expired, err := u.tx.Offers().ExpireOverdue(ctx, now, batch)
		if err != nil {
			return total, err
		}
		for i := range expired {
			u.announceExpiry(ctx, &expired[i], now)
		}
		total += len(expired)
		if len(expired) < batch {
			return total, nil
		}
	}
}

type offerTransition func(ctx context.Context, repos repository.Factory, o *model.Offer, actor model.Party, now time.Time) error

// transition locks the offer, applies fn and persists the result.
// An offer found expired is persisted as EXPIRED and the expiry error returned.
func (u *OfferUseCase) transition(ctx context.Context, actorID, offerID uuid.UUID, action string, fn offerTransition) (*model.Offer, error) {
	now := u.now()
	var (
		result  *model.Offer
		expired error
	)
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Factory) error {
		result, expired = nil, nil
		offer, err := repos.Offers().GetForUpdate(ctx, offerID)
		if err != nil {
			return err
		}
		actor, ok := offer.PartyOf(actorID)
		if !ok {
			return offerNotFound(offerID)
		}

		wasOpen := offer.Status.IsOpen()
		if err := fn(ctx, repos, offer, actor, now); err != nil {
			if !(wasOpen && offer.Status == model.OfferStatusExpired && errors.Is(err, domainErrors.ErrExpired)) {
				return err
			}
			expired = err
		}
		if err := repos.Offers().Update(ctx, offer); err != nil {
			return err
		}
		result = offer
		return nil
	})
	if err != nil {
		return nil, err
	}

	if expired != nil {
		u.announceExpiry(ctx, result, now)
		return nil, expired
	}

	u.recorder.OfferTransition(action)
	counterparty := result.CustomerID
	if actorID == result.CustomerID {
		counterparty = result.DesignerID
	}
	u.announce(ctx, result, actorID, action, now, Message{
		UserID: counterparty,
		Type:   "offer_" + action,
		Title:  "Offer " + action,
		Text:   offerMessage(action, result),
	})
	return result, nil
}

func (u *OfferUseCase) announceExpiry(ctx context.Context, offer *model.Offer, now time.Time) {
	u.recorder.OfferTransition("expired")
	var messages []Message
	for _, userID := range []uuid.UUID{offer.CustomerID, offer.DesignerID} {
		messages = append(messages, Message{
			UserID: userID,
			Type:   "offer_expired",
			Title:  "Offer expired",
			Text:   "The offer expired without agreement",
		})
	}
	u.announce(ctx, offer, uuid.Nil, "expired", now, messages...)
}

func (u *OfferUseCase) announce(ctx context.Context, offer *model.Offer, actorID uuid.UUID, action string, now time.Time, messages ...Message) {
	if u.dispatch == nil {
		return
	}
	for i := range messages {
		if messages[i].Data == nil {
			messages[i].Data = map[string]any{"offerId": offer.ID.String(), "status": string(offer.Status)}
		}
	}
	event := model.NewEnvelope(model.EventDomainOffer, action, offer.ID, actorID, offer, now)
	u.dispatch.Dispatch(ctx, &event, []uuid.UUID{offer.CustomerID, offer.DesignerID}, messages...)
}

func offerMessage(action string, o *model.Offer) string {
	switch action {
	case "countered":
		return "New price proposed: " + o.CurrentPrice().StringFixed(2)
	case "accepted":
		return "Offer accepted at " + o.FinalPrice.StringFixed(2)
	case "rejected":
		return "The designer declined your offer"
	case "withdrawn":
		return "The customer withdrew the offer"
	}
	return "Offer " + action
}

func offerNotFound(id uuid.UUID) error {
	return domainErrors.NotFound("offer_not_found", "offer %s not found", id)
}
