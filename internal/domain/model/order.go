package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/errors"
)

// OrderStatus describes production and fulfilment lifecycle.
type OrderStatus string

const (
	OrderStatusPending              OrderStatus = "PENDING"
	OrderStatusSourcing             OrderStatus = "SOURCING"
	OrderStatusConstruction         OrderStatus = "CONSTRUCTION"
	OrderStatusQualityCheck         OrderStatus = "QUALITY_CHECK"
	OrderStatusShipped              OrderStatus = "SHIPPED"
	OrderStatusDelivered            OrderStatus = "DELIVERED"
	OrderStatusAwaitingConfirmation OrderStatus = "AWAITING_CONFIRMATION"
	OrderStatusCompleted            OrderStatus = "COMPLETED"
	OrderStatusDisputed             OrderStatus = "DISPUTED"
	OrderStatusCancelled            OrderStatus = "CANCELLED"
)

// productionRank orders the pre-shipment states; zero means not in production.
func (s OrderStatus) productionRank() int {
	switch s {
	case OrderStatusPending:
		return 1
	case OrderStatusSourcing:
		return 2
	case OrderStatusConstruction:
		return 3
	case OrderStatusQualityCheck:
		return 4
	}
	return 0
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusShipped, OrderStatusDelivered, OrderStatusAwaitingConfirmation,
		OrderStatusCompleted, OrderStatusDisputed, OrderStatusCancelled:
		return true
	}
	return s.productionRank() > 0
}

// InProduction reports whether the order has not shipped yet.
func (s OrderStatus) InProduction() bool {
	return s.productionRank() > 0
}

// AwaitsConfirmation reports whether the order is delivered and waiting for the customer.
func (s OrderStatus) AwaitsConfirmation() bool {
	return s == OrderStatusDelivered || s == OrderStatusAwaitingConfirmation
}

// Settleable reports whether payment may be released from this state.
func (s OrderStatus) Settleable() bool {
	return s == OrderStatusShipped || s.AwaitsConfirmation()
}

// StepStatus is the progress of a single production step.
type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "in_progress"
	StepStatusCompleted  StepStatus = "completed"
)

func (s StepStatus) IsValid() bool {
	return s == StepStatusPending || s == StepStatusInProgress || s == StepStatusCompleted
}

// ProductionStep is an order-owned copy of a catalog workflow step.
type ProductionStep struct {
	Name        string     `json:"name"`
	Status      StepStatus `json:"status"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// StepUpdate changes one production step identified by name.
type StepUpdate struct {
	Name   string
	Status StepStatus
	Notes  *string
}

// ConfirmedBy records who confirmed delivery.
type ConfirmedBy string

const (
	ConfirmedByCustomer ConfirmedBy = "CUSTOMER"
	ConfirmedBySystem   ConfirmedBy = "SYSTEM"
)

// Order is the production and fulfilment record created from an accepted offer.
type Order struct {
	ID                    uuid.UUID        `json:"id"`
	OrderNumber           string           `json:"orderNumber"`
	OfferID               uuid.UUID        `json:"offerId"`
	CustomerID            uuid.UUID        `json:"customerId"`
	DesignerID            uuid.UUID        `json:"designerId"`
	CatalogItemID         uuid.UUID        `json:"catalogItemId"`
	FinalPrice            decimal.Decimal  `json:"finalPrice"`
	Status                OrderStatus      `json:"status"`
	ProductionSteps       []ProductionStep `json:"productionSteps"`
	ShippingAddressID     uuid.UUID        `json:"shippingAddressId"`
	PaymentReference      string           `json:"paymentReference"`
	Deadline              *time.Time       `json:"deadline,omitempty"`
	ShippedAt             *time.Time       `json:"shippedAt,omitempty"`
	Carrier               *string          `json:"carrier,omitempty"`
	TrackingNumber        *string          `json:"trackingNumber,omitempty"`
	EstimatedDelivery     *time.Time       `json:"estimatedDelivery,omitempty"`
	DeliveredAt           *time.Time       `json:"deliveredAt,omitempty"`
	ConfirmationWindowEnd *time.Time       `json:"confirmationWindowEnd,omitempty"`
	AutoConfirmAt         *time.Time       `json:"autoConfirmAt,omitempty"`
	DeliveryConfirmedBy   *ConfirmedBy     `json:"deliveryConfirmedBy,omitempty"`
	CustomerRating        *int             `json:"customerRating,omitempty"`
	CustomerReview        *string          `json:"customerReview,omitempty"`
	PaymentReleasedAt     *time.Time       `json:"paymentReleasedAt,omitempty"`
	PaymentAmount         *decimal.Decimal `json:"paymentAmount,omitempty"`
	PlatformFee           *decimal.Decimal `json:"platformFee,omitempty"`
	FeePercentageApplied  *decimal.Decimal `json:"feePercentageApplied,omitempty"`
	DisputeOpenedAt       *time.Time       `json:"disputeOpenedAt,omitempty"`
	DisputeReason         *string          `json:"disputeReason,omitempty"`
	CancelledAt           *time.Time       `json:"cancelledAt,omitempty"`
	CancelReason          *string          `json:"cancelReason,omitempty"`
	BuyerProtectionUntil  time.Time        `json:"buyerProtectionUntil"`
	CreatedAt             time.Time        `json:"createdAt"`
	UpdatedAt             time.Time        `json:"updatedAt"`
}

// FormatOrderNumber renders the human facing order number for a yearly sequence value.
func FormatOrderNumber(year int, seq int64) string {
	return fmt.Sprintf("ORD-%d-%06d", year, seq)
}

// OrderDraft carries everything needed to open an order from an accepted offer.
type OrderDraft struct {
	Number            string
	Steps             []string
	ShippingAddressID uuid.UUID
	PaymentReference  string
	BuyerProtection   time.Duration
}

// NewOrderFromOffer snapshots the accepted offer into a PENDING order.
func NewOrderFromOffer(offer *Offer, draft OrderDraft, now time.Time) (*Order, error) {
	if offer.Status != OfferStatusAccepted || offer.FinalPrice == nil {
		return nil, domainErrors.Conflict("offer_not_accepted", "offer is %s", offer.Status)
	}
	if len(draft.Steps) == 0 {
		return nil, domainErrors.Validation("no_production_workflow", "catalog item has no production steps")
	}

	steps := make([]ProductionStep, 0, len(draft.Steps))
	for _, name := range draft.Steps {
		steps = append(steps, ProductionStep{Name: name, Status: StepStatusPending})
	}

	return &Order{
		ID:                   uuid.New(),
		OrderNumber:          draft.Number,
		OfferID:              offer.ID,
		CustomerID:           offer.CustomerID,
		DesignerID:           offer.DesignerID,
		CatalogItemID:        offer.CatalogItemID,
		FinalPrice:           *offer.FinalPrice,
		Status:               OrderStatusPending,
		ProductionSteps:      steps,
		ShippingAddressID:    draft.ShippingAddressID,
		PaymentReference:     draft.PaymentReference,
		Deadline:             offer.Deadline,
		BuyerProtectionUntil: now.Add(draft.BuyerProtection),
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

// PartyOf resolves the role of userID in this order.
func (o *Order) PartyOf(userID uuid.UUID) (Party, bool) {
	switch userID {
	case o.CustomerID:
		return PartyCustomer, true
	case o.DesignerID:
		return PartyDesigner, true
	}
	return "", false
}

func (o *Order) invalidTransition(action string) error {
	return domainErrors.Conflict("invalid_order_status", "cannot %s an order in status %s", action, o.Status)
}

// UpdateProduction applies step updates by name. Steps not mentioned keep their state.
func (o *Order) UpdateProduction(updates []StepUpdate, now time.Time) error {
	if !o.Status.InProduction() {
		return o.invalidTransition("update production of")
	}
	if len(updates) == 0 {
		return domainErrors.Validation("empty_update", "no production steps supplied")
	}

	index := make(map[string]int, len(o.ProductionSteps))
	for i, step := range o.ProductionSteps {
		index[step.Name] = i
	}
	for _, u := range updates {
		if _, ok := index[u.Name]; !ok {
			return domainErrors.Validation("unknown_step", "order has no production step %q", u.Name)
		}
		if !u.Status.IsValid() {
			return domainErrors.Validation("invalid_step_status", "unknown step status %q", u.Status)
		}
	}

	for _, u := range updates {
		step := &o.ProductionSteps[index[u.Name]]
		step.Status = u.Status
		if u.Notes != nil {
			step.Notes = u.Notes
		}
		if u.Status == StepStatusCompleted {
			if step.CompletedAt == nil {
				at := now
				step.CompletedAt = &at
			}
		} else {
			step.CompletedAt = nil
		}
	}
	o.UpdatedAt = now
	return nil
}

// Advance moves the order forward within the production phases.
func (o *Order) Advance(target OrderStatus, now time.Time) error {
	if target.productionRank() == 0 {
		return domainErrors.Validation("invalid_target_status", "status %s cannot be set directly", target)
	}
	if o.Status.productionRank() == 0 || target.productionRank() <= o.Status.productionRank() {
		return o.invalidTransition("advance to " + string(target))
	}
	o.Status = target
	o.UpdatedAt = now
	return nil
}

// Ship records carrier details and moves the order to SHIPPED.
func (o *Order) Ship(carrier, trackingNumber string, estimatedDelivery *time.Time, minTrackingLength int, now time.Time) error {
	if !o.Status.InProduction() {
		return o.invalidTransition("ship")
	}
	carrier = strings.TrimSpace(carrier)
	trackingNumber = strings.TrimSpace(trackingNumber)
	if carrier == "" {
		return domainErrors.Validation("carrier_required", "carrier is required")
	}
	if utf8.RuneCountInString(trackingNumber) < minTrackingLength {
		return domainErrors.Validation("tracking_number_too_short",
			"tracking number must have at least %d characters", minTrackingLength)
	}

	o.Carrier = &carrier
	o.TrackingNumber = &trackingNumber
	o.EstimatedDelivery = estimatedDelivery
	o.ShippedAt = &now
	o.Status = OrderStatusShipped
	o.UpdatedAt = now
	return nil
}

// MarkDelivered opens the confirmation window. It reports false when delivery was already recorded.
func (o *Order) MarkDelivered(deliveredAt time.Time, window time.Duration, now time.Time) (bool, error) {
	if o.DeliveredAt != nil {
		return false, nil
	}
	if o.Status != OrderStatusShipped {
		return false, o.invalidTransition("deliver")
	}
	windowEnd := deliveredAt.Add(window)
	o.DeliveredAt = &deliveredAt
	o.ConfirmationWindowEnd = &windowEnd
	o.AutoConfirmAt = &windowEnd
	o.Status = OrderStatusDelivered
	o.UpdatedAt = now
	return true, nil
}

// RecordFeedback stores the optional customer rating and review.
func (o *Order) RecordFeedback(rating *int, review *string) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return domainErrors.Validation("invalid_rating", "rating must be between 1 and 5")
	}
	o.CustomerRating = rating
	o.CustomerReview = review
	return nil
}

// CanSettle checks the single-settlement guard and the order state.
func (o *Order) CanSettle() error {
	if o.PaymentReleasedAt != nil {
		return domainErrors.Conflict("already_settled", "payment for order %s already released", o.OrderNumber)
	}
	if o.Status == OrderStatusDisputed {
		return domainErrors.Conflict("order_disputed", "order %s is under dispute", o.OrderNumber)
	}
	if !o.Status.Settleable() {
		return o.invalidTransition("confirm")
	}
	return nil
}

// Settle stamps the payout figures and completes the order.
func (o *Order) Settle(fee FeeBreakdown, by ConfirmedBy, now time.Time) error {
	if err := o.CanSettle(); err != nil {
		return err
	}
	if o.DeliveredAt == nil {
		o.DeliveredAt = &now
	}
	payout := fee.DesignerReceives
	platformFee := fee.FeeAmount
	percentage := fee.Percentage
	o.PaymentReleasedAt = &now
	o.PaymentAmount = &payout
	o.PlatformFee = &platformFee
	o.FeePercentageApplied = &percentage
	o.DeliveryConfirmedBy = &by
	o.Status = OrderStatusCompleted
	o.UpdatedAt = now
	return nil
}

// MinDisputeReasonLength is the shortest accepted dispute reason.
const MinDisputeReasonLength = 10

// OpenDispute freezes settlement while buyer protection is active.
func (o *Order) OpenDispute(reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) < MinDisputeReasonLength {
		return domainErrors.Validation("dispute_reason_too_short",
			"dispute reason must have at least %d characters", MinDisputeReasonLength)
	}
	if o.Status == OrderStatusDisputed || o.Status == OrderStatusCancelled {
		return o.invalidTransition("dispute")
	}
	if now.After(o.BuyerProtectionUntil) {
		return domainErrors.Expired("buyer_protection_expired",
			"buyer protection ended at %s", o.BuyerProtectionUntil.UTC().Format(time.RFC3339))
	}
	o.DisputeReason = &reason
	o.DisputeOpenedAt = &now
	o.Status = OrderStatusDisputed
	o.UpdatedAt = now
	return nil
}

// Cancel stops an order that has not shipped.
func (o *Order) Cancel(reason string, now time.Time) error {
	if !o.Status.InProduction() {
		return o.invalidTransition("cancel")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return domainErrors.Validation("cancel_reason_required", "cancellation reason is required")
	}
	o.CancelReason = &reason
	o.CancelledAt = &now
	o.Status = OrderStatusCancelled
	o.UpdatedAt = now
	return nil
}
