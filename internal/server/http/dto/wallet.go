package dto

import "github.com/shopspring/decimal"

// WithdrawRequest describes withdrawal request payload.
type WithdrawRequest struct {
	Amount decimal.Decimal `json:"amount"`
}
