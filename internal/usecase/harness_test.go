package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/test"
)

var testStart = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type harness struct {
	store     *test.MemoryStore
	clock     *test.ManualClock
	notifier  *test.NotifierRecorder
	publisher *test.PublisherRecorder
	payments  *test.PaymentVerifierStub
	tracker   *test.CarrierTrackerStub
	policy    Policy

	fees       *FeeEngine
	ledger     *Ledger
	settlement *Settlement
	offers     *OfferUseCase
	orders     *OrderUseCase
	recon      *ReconciliationUseCase
	inbox      *InboxUseCase

	customer uuid.UUID
	designer uuid.UUID
	item     model.CatalogItem
	address  model.Address
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:     test.NewMemoryStore(),
		clock:     test.NewManualClock(testStart),
		notifier:  &test.NotifierRecorder{},
		publisher: &test.PublisherRecorder{},
		payments:  &test.PaymentVerifierStub{},
		tracker:   &test.CarrierTrackerStub{},
		policy:    DefaultPolicy(),
		customer:  uuid.New(),
		designer:  uuid.New(),
	}
	h.item = model.CatalogItem{
		ID:              uuid.New(),
		DesignerID:      h.designer,
		Title:           "Aso-oke agbada",
		ListPrice:       decimal.NewFromInt(10000),
		ProductionSteps: []string{"pattern", "cut", "sew"},
	}
	h.address = model.Address{ID: uuid.New(), UserID: h.customer}
	h.store.AddItem(h.item)
	h.store.AddAddress(h.address)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := Clock(h.clock.Now)
	dispatch := NewDispatcher(h.notifier, h.publisher, logger, h.policy)
	h.fees = NewFeeEngine(h.store, h.policy, now)
	h.ledger = NewLedger(h.store, now)
	h.settlement = NewSettlement(h.store, h.fees, h.ledger, dispatch, nil, logger)
	h.offers = NewOfferUseCase(h.store, dispatch, nil, h.policy, now)
	h.orders = NewOrderUseCase(h.store, h.payments, h.settlement, dispatch, h.policy, now, logger)
	h.recon = NewReconciliationUseCase(h.store, h.orders, h.offers, h.settlement, h.tracker, dispatch, h.policy, logger)
	h.inbox = NewInboxUseCase(h.store)
	return h
}

func (h *harness) openOffer(t *testing.T, price int64) *model.Offer {
	t.Helper()
	offer, err := h.offers.Create(context.Background(), h.customer, CreateOfferInput{
		CatalogItemID: h.item.ID,
		Price:         decimal.NewFromInt(price),
	})
	require.NoError(t, err)
	return offer
}

func (h *harness) acceptedOffer(t *testing.T, price int64) *model.Offer {
	t.Helper()
	offer := h.openOffer(t, price)
	accepted, err := h.offers.Accept(context.Background(), h.designer, offer.ID)
	require.NoError(t, err)
	return accepted
}

func (h *harness) payFor(offer *model.Offer) {
	h.payments.VerifyFn = func(_ context.Context, reference string) (*model.PaymentVerification, error) {
		offerID, addressID := offer.ID, h.address.ID
		return &model.PaymentVerification{
			Reference:         reference,
			Succeeded:         true,
			Amount:            *offer.FinalPrice,
			ExternalReference: "gw-" + reference,
			OfferID:           &offerID,
			ShippingAddressID: &addressID,
		}, nil
	}
}

func (h *harness) paidOrder(t *testing.T) *model.Order {
	t.Helper()
	offer := h.acceptedOffer(t, 9000)
	h.payFor(offer)
	order, created, err := h.orders.CreateFromPayment(context.Background(), h.customer, PaymentConfirmation{
		OfferID:           offer.ID,
		PaymentReference:  "pay-" + offer.ID.String()[:8],
		ShippingAddressID: h.address.ID,
	})
	require.NoError(t, err)
	require.True(t, created)
	return order
}

func (h *harness) shippedOrder(t *testing.T) *model.Order {
	t.Helper()
	order := h.paidOrder(t)
	shipped, err := h.orders.Ship(context.Background(), h.designer, order.ID, ShipmentInput{
		Carrier:        "GIG Logistics",
		TrackingNumber: test.RandomReference("GIG", 10),
	})
	require.NoError(t, err)
	return shipped
}

func (h *harness) deliveredOrder(t *testing.T) *model.Order {
	t.Helper()
	order := h.shippedOrder(t)
	delivered, err := h.orders.MarkDelivered(context.Background(), order.ID, h.clock.Now())
	require.NoError(t, err)
	return delivered
}

func (h *harness) balance(t *testing.T, userID uuid.UUID) decimal.Decimal {
	t.Helper()
	wallet, err := h.ledger.Balance(context.Background(), userID)
	require.NoError(t, err)
	return wallet.Balance
}

func requireDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}
