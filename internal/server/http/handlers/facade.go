package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/usecase"
)

// AuthFacade resolves bearer tokens to user identifiers.
type AuthFacade interface {
	ParseToken(token string) (uuid.UUID, error)
}

// OfferFacade encapsulates negotiation endpoints.
type OfferFacade interface {
	CreateOffer(ctx context.Context, customerID uuid.UUID, in usecase.CreateOfferInput) (*model.Offer, error)
	CounterOffer(ctx context.Context, actorID, offerID uuid.UUID, price decimal.Decimal, notes *string) (*model.Offer, error)
	AcceptOffer(ctx context.Context, actorID, offerID uuid.UUID) (*model.Offer, error)
	RejectOffer(ctx context.Context, actorID, offerID uuid.UUID, notes *string) (*model.Offer, error)
	WithdrawOffer(ctx context.Context, actorID, offerID uuid.UUID) (*model.Offer, error)
	Offer(ctx context.Context, actorID, offerID uuid.UUID) (*model.Offer, error)
	Offers(ctx context.Context, actorID uuid.UUID, role model.Party, status *model.OfferStatus) ([]model.Offer, error)
}

// OrderFacade encapsulates order lifecycle endpoints.
type OrderFacade interface {
	ConfirmPayment(ctx context.Context, customerID uuid.UUID, in usecase.PaymentConfirmation) (*model.Order, bool, error)
	UpdateProduction(ctx context.Context, designerID, orderID uuid.UUID, updates []model.StepUpdate) (*model.Order, error)
	AdvanceOrder(ctx context.Context, designerID, orderID uuid.UUID, target model.OrderStatus) (*model.Order, error)
	ShipOrder(ctx context.Context, designerID, orderID uuid.UUID, in usecase.ShipmentInput) (*model.Order, error)
	ReportDelivered(ctx context.Context, designerID, orderID uuid.UUID) (*model.Order, error)
	ConfirmReceipt(ctx context.Context, customerID, orderID uuid.UUID, rating *int, review *string) (*model.Order, error)
	OpenDispute(ctx context.Context, customerID, orderID uuid.UUID, reason string) (*model.Order, error)
	CancelOrder(ctx context.Context, actorID, orderID uuid.UUID, reason string) (*model.Order, error)
	Order(ctx context.Context, actorID, orderID uuid.UUID) (*model.Order, error)
	Orders(ctx context.Context, actorID uuid.UUID, role model.Party, status *model.OrderStatus) ([]model.Order, error)
}

// WalletFacade provides wallet and fee operations.
type WalletFacade interface {
	Wallet(ctx context.Context, userID uuid.UUID) (*model.Wallet, error)
	WalletTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]model.WalletTransaction, error)
	Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*model.WalletTransaction, error)
	VerifyWallet(ctx context.Context, userID uuid.UUID) (*usecase.WalletAudit, error)
	PreviewFee(ctx context.Context, designerID uuid.UUID, amount decimal.Decimal) (model.FeeBreakdown, error)
}

// InboxFacade lists stored notifications.
type InboxFacade interface {
	Notifications(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
}

// PaymentFacade handles gateway callbacks.
type PaymentFacade interface {
	PaymentWebhook(ctx context.Context, body []byte, signature string) (*model.Order, bool, error)
}

// HealthFacade reports dependency health.
type HealthFacade interface {
	HealthCheck(ctx context.Context) error
}

// MarketplaceFacade aggregates the full set of operations used across handlers.
type MarketplaceFacade interface {
	AuthFacade
	OfferFacade
	OrderFacade
	WalletFacade
	InboxFacade
	PaymentFacade
	HealthFacade
}
