package dto

import (
	"time"

	"github.com/google/uuid"
)

// ConfirmPaymentRequest opens an order after the client completed checkout.
type ConfirmPaymentRequest struct {
	OfferID           uuid.UUID `json:"offerId"`
	PaymentReference  string    `json:"paymentReference" binding:"required"`
	ShippingAddressID uuid.UUID `json:"shippingAddressId"`
}

// StepUpdateRequest changes one production step.
type StepUpdateRequest struct {
	Name   string  `json:"name" binding:"required"`
	Status string  `json:"status" binding:"required"`
	Notes  *string `json:"notes"`
}

// UpdateProductionRequest lists step changes.
type UpdateProductionRequest struct {
	Steps []StepUpdateRequest `json:"steps" binding:"required"`
}

// AdvanceStatusRequest moves an order to a later production status.
type AdvanceStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ShipOrderRequest carries carrier details.
type ShipOrderRequest struct {
	Carrier           string     `json:"carrier" binding:"required"`
	TrackingNumber    string     `json:"trackingNumber" binding:"required"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
}

// ConfirmReceiptRequest optionally rates the order.
type ConfirmReceiptRequest struct {
	Rating *int    `json:"rating"`
	Review *string `json:"review"`
}

// ReasonRequest carries a free text reason for disputes and cancellations.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// OrderResponse wraps an order with the idempotency flag of payment confirmation.
type OrderResponse struct {
	Order   any  `json:"order"`
	Created bool `json:"created"`
}
