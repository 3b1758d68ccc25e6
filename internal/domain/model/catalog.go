package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogItem is the designer listing an offer negotiates against.
type CatalogItem struct {
	ID              uuid.UUID
	DesignerID      uuid.UUID
	Title           string
	ListPrice       decimal.Decimal
	ProductionSteps []string
}

// Address is a customer shipping address.
type Address struct {
	ID     uuid.UUID
	UserID uuid.UUID
}
