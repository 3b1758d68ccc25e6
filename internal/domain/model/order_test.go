package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/errors"
)

func acceptedOffer(t *testing.T) *Offer {
	t.Helper()
	offer, _ := pendingOffer(t, 9000)
	if err := offer.Accept(PartyDesigner, testNow); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	return offer
}

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	order, err := NewOrderFromOffer(acceptedOffer(t), OrderDraft{
		Number:           FormatOrderNumber(2026, 42),
		Steps:            []string{"cut", "sew", "finish"},
		PaymentReference: "ref-1",
		BuyerProtection:  60 * 24 * time.Hour,
	}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return order
}

func TestOrderStatusPredicates(t *testing.T) {
	cases := []struct {
		status     OrderStatus
		production bool
		awaiting   bool
		settleable bool
	}{
		{OrderStatusPending, true, false, false},
		{OrderStatusSourcing, true, false, false},
		{OrderStatusConstruction, true, false, false},
		{OrderStatusQualityCheck, true, false, false},
		{OrderStatusShipped, false, false, true},
		{OrderStatusDelivered, false, true, true},
		{OrderStatusAwaitingConfirmation, false, true, true},
		{OrderStatusCompleted, false, false, false},
		{OrderStatusDisputed, false, false, false},
		{OrderStatusCancelled, false, false, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			if !tc.status.IsValid() {
				t.Fatalf("expected valid status")
			}
			if tc.status.InProduction() != tc.production || tc.status.AwaitsConfirmation() != tc.awaiting || tc.status.Settleable() != tc.settleable {
				t.Fatalf("unexpected predicates for %s", tc.status)
			}
		})
	}
	if OrderStatus("NOPE").IsValid() {
		t.Fatalf("unknown status must be invalid")
	}
}

func TestNewOrderFromOffer(t *testing.T) {
	order := newTestOrder(t)
	if order.OrderNumber != "ORD-2026-000042" {
		t.Fatalf("unexpected number %s", order.OrderNumber)
	}
	if len(order.ProductionSteps) != 3 || order.ProductionSteps[0].Status != StepStatusPending {
		t.Fatalf("unexpected steps: %+v", order.ProductionSteps)
	}
	if !order.FinalPrice.Equal(decimal.NewFromInt(9000)) || order.Status != OrderStatusPending {
		t.Fatalf("unexpected order: %+v", order)
	}
	if !order.BuyerProtectionUntil.Equal(testNow.Add(60 * 24 * time.Hour)) {
		t.Fatalf("unexpected protection window %v", order.BuyerProtectionUntil)
	}

	if _, err := NewOrderFromOffer(acceptedOffer(t), OrderDraft{}, testNow); domainErrors.CodeOf(err) != "no_production_workflow" {
		t.Fatalf("expected no_production_workflow, got %v", err)
	}

	pending, _ := pendingOffer(t, 100)
	if _, err := NewOrderFromOffer(pending, OrderDraft{Steps: []string{"cut"}}, testNow); !errors.Is(err, domainErrors.ErrConflict) {
		t.Fatalf("expected conflict for non accepted offer, got %v", err)
	}
}

func TestOrderUpdateProduction(t *testing.T) {
	order := newTestOrder(t)
	notes := "done early"
	err := order.UpdateProduction([]StepUpdate{{Name: "sew", Status: StepStatusCompleted, Notes: &notes}}, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ProductionSteps[1].Status != StepStatusCompleted || order.ProductionSteps[1].CompletedAt == nil {
		t.Fatalf("step not completed: %+v", order.ProductionSteps[1])
	}
	if order.ProductionSteps[0].Status != StepStatusPending || order.ProductionSteps[2].Status != StepStatusPending {
		t.Fatalf("untouched steps changed")
	}

	if err := order.UpdateProduction([]StepUpdate{{Name: "embroider", Status: StepStatusCompleted}}, testNow); domainErrors.CodeOf(err) != "unknown_step" {
		t.Fatalf("expected unknown_step, got %v", err)
	}
	if err := order.UpdateProduction([]StepUpdate{{Name: "cut", Status: "weird"}}, testNow); domainErrors.CodeOf(err) != "invalid_step_status" {
		t.Fatalf("expected invalid_step_status, got %v", err)
	}
	if err := order.UpdateProduction(nil, testNow); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOrderAdvance(t *testing.T) {
	order := newTestOrder(t)
	if err := order.Advance(OrderStatusConstruction, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := order.Advance(OrderStatusSourcing, testNow); !errors.Is(err, domainErrors.ErrConflict) {
		t.Fatalf("backwards move must conflict, got %v", err)
	}
	if err := order.Advance(OrderStatusShipped, testNow); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("shipping through advance must be rejected, got %v", err)
	}
}

func TestOrderShipDeliverSettle(t *testing.T) {
	order := newTestOrder(t)
	if err := order.Ship("DHL", "123", nil, 6, testNow); domainErrors.CodeOf(err) != "tracking_number_too_short" {
		t.Fatalf("expected short tracking error, got %v", err)
	}
	if err := order.Ship("DHL", "TRK123456", nil, 6, testNow); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if order.Status != OrderStatusShipped || order.ShippedAt == nil {
		t.Fatalf("unexpected shipped order: %+v", order)
	}
	if err := order.Cancel("changed mind", testNow); !errors.Is(err, domainErrors.ErrConflict) {
		t.Fatalf("cancel after shipping must conflict, got %v", err)
	}

	deliveredAt := testNow.Add(48 * time.Hour)
	changed, err := order.MarkDelivered(deliveredAt, 72*time.Hour, deliveredAt)
	if err != nil || !changed {
		t.Fatalf("mark delivered failed: %v changed=%v", err, changed)
	}
	if !order.AutoConfirmAt.Equal(deliveredAt.Add(72*time.Hour)) || order.Status != OrderStatusDelivered {
		t.Fatalf("unexpected confirmation window: %+v", order)
	}
	if changed, err := order.MarkDelivered(deliveredAt, 72*time.Hour, deliveredAt); err != nil || changed {
		t.Fatalf("second delivery must be a no-op: %v %v", changed, err)
	}

	fee := FeeBreakdown{Percentage: decimal.NewFromInt(10), FeeAmount: decimal.NewFromInt(900), DesignerReceives: decimal.NewFromInt(8100)}
	if err := order.Settle(fee, ConfirmedByCustomer, testNow); err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if order.Status != OrderStatusCompleted || order.PaymentReleasedAt == nil || !order.PaymentAmount.Equal(decimal.NewFromInt(8100)) {
		t.Fatalf("unexpected settled order: %+v", order)
	}
	if err := order.Settle(fee, ConfirmedBySystem, testNow); domainErrors.CodeOf(err) != "already_settled" {
		t.Fatalf("expected already_settled, got %v", err)
	}
}

func TestOrderSettleFromShippedStampsDelivery(t *testing.T) {
	order := newTestOrder(t)
	if err := order.Ship("GIG", "TRACK-0001", nil, 6, testNow); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if err := order.Settle(FeeBreakdown{}, ConfirmedByCustomer, testNow); err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if order.DeliveredAt == nil || *order.DeliveryConfirmedBy != ConfirmedByCustomer {
		t.Fatalf("expected delivery stamped on confirmation")
	}
}

func TestOrderDispute(t *testing.T) {
	order := newTestOrder(t)
	if err := order.OpenDispute("too short", testNow); domainErrors.CodeOf(err) != "dispute_reason_too_short" {
		t.Fatalf("expected reason validation, got %v", err)
	}
	if err := order.OpenDispute("the fabric does not match", order.BuyerProtectionUntil.Add(time.Second)); !errors.Is(err, domainErrors.ErrExpired) {
		t.Fatalf("expected expired protection, got %v", err)
	}
	if err := order.OpenDispute("the fabric does not match", testNow); err != nil {
		t.Fatalf("dispute failed: %v", err)
	}
	if order.Status != OrderStatusDisputed {
		t.Fatalf("expected disputed status")
	}
	if err := order.CanSettle(); domainErrors.CodeOf(err) != "order_disputed" {
		t.Fatalf("disputed order must not settle, got %v", err)
	}
}

func TestOrderCancelAndFeedback(t *testing.T) {
	order := newTestOrder(t)
	if err := order.Cancel("  ", testNow); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
	if err := order.Cancel("customer relocated", testNow); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if order.Status != OrderStatusCancelled || order.CancelledAt == nil {
		t.Fatalf("unexpected cancelled order")
	}

	bad := 6
	if err := order.RecordFeedback(&bad, nil); !errors.Is(err, domainErrors.ErrValidation) {
		t.Fatalf("expected rating validation, got %v", err)
	}
	good := 5
	if err := order.RecordFeedback(&good, nil); err != nil || *order.CustomerRating != 5 {
		t.Fatalf("unexpected feedback result: %v", err)
	}
}
