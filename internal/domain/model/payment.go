package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentVerification is the gateway's answer for a payment reference.
type PaymentVerification struct {
	Reference         string
	Succeeded         bool
	Amount            decimal.Decimal
	ExternalReference string
	OfferID           *uuid.UUID
	ShippingAddressID *uuid.UUID
}

// TrackingStatus is the carrier's view of a shipment.
type TrackingStatus struct {
	Status      string
	Delivered   bool
	DeliveredAt *time.Time
}
