package httpstub

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/errors"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/test"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/usecase"
)

// MarketplaceStub provides controllable behaviour for every HTTP endpoint.
// Unset functions answer with a not found error so unexpected calls surface
// as 404 responses in tests.
type MarketplaceStub struct {
	test.TokenParserStub

	CreateOfferFn   func(context.Context, uuid.UUID, usecase.CreateOfferInput) (*model.Offer, error)
	CounterOfferFn  func(context.Context, uuid.UUID, uuid.UUID, decimal.Decimal, *string) (*model.Offer, error)
	AcceptOfferFn   func(context.Context, uuid.UUID, uuid.UUID) (*model.Offer, error)
	RejectOfferFn   func(context.Context, uuid.UUID, uuid.UUID, *string) (*model.Offer, error)
	WithdrawOfferFn func(context.Context, uuid.UUID, uuid.UUID) (*model.Offer, error)
	OfferFn         func(context.Context, uuid.UUID, uuid.UUID) (*model.Offer, error)
	OffersFn        func(context.Context, uuid.UUID, model.Party, *model.OfferStatus) ([]model.Offer, error)

	ConfirmPaymentFn   func(context.Context, uuid.UUID, usecase.PaymentConfirmation) (*model.Order, bool, error)
	UpdateProductionFn func(context.Context, uuid.UUID, uuid.UUID, []model.StepUpdate) (*model.Order, error)
	AdvanceOrderFn     func(context.Context, uuid.UUID, uuid.UUID, model.OrderStatus) (*model.Order, error)
	ShipOrderFn        func(context.Context, uuid.UUID, uuid.UUID, usecase.ShipmentInput) (*model.Order, error)
	ReportDeliveredFn  func(context.Context, uuid.UUID, uuid.UUID) (*model.Order, error)
	ConfirmReceiptFn   func(context.Context, uuid.UUID, uuid.UUID, *int, *string) (*model.Order, error)
	OpenDisputeFn      func(context.Context, uuid.UUID, uuid.UUID, string) (*model.Order, error)
	CancelOrderFn      func(context.Context, uuid.UUID, uuid.UUID, string) (*model.Order, error)
	OrderFn            func(context.Context, uuid.UUID, uuid.UUID) (*model.Order, error)
	OrdersFn           func(context.Context, uuid.UUID, model.Party, *model.OrderStatus) ([]model.Order, error)

	WalletFn       func(context.Context, uuid.UUID) (*model.Wallet, error)
	TransactionsFn func(context.Context, uuid.UUID, int) ([]model.WalletTransaction, error)
	WithdrawFn     func(context.Context, uuid.UUID, decimal.Decimal) (*model.WalletTransaction, error)
	VerifyWalletFn func(context.Context, uuid.UUID) (*usecase.WalletAudit, error)
	PreviewFeeFn   func(context.Context, uuid.UUID, decimal.Decimal) (model.FeeBreakdown, error)

	NotificationsFn  func(context.Context, uuid.UUID, int) ([]model.Notification, error)
	PaymentWebhookFn func(context.Context, []byte, string) (*model.Order, bool, error)
	HealthFn         func(context.Context) error
}

var errStubMissing = domainErrors.NotFound("stub_missing", "no stub configured")

func (s MarketplaceStub) CreateOffer(ctx context.Context, customerID uuid.UUID, in usecase.CreateOfferInput) (*model.Offer, error) {
	if s.CreateOfferFn != nil {
		return s.CreateOfferFn(ctx, customerID, in)
	}
	return nil, errStubMissing
}

func (s MarketplaceStub) CounterOffer(ctx context.Context, actorID, offerID uuid.UUID, price decimal.Decimal, notes *string) (*model.Offer, error) {
	if s.CounterOfferFn != nil {
		return s.CounterOfferFn(ctx, actorID, offerID, price, notes)
	}
	return nil, errStubMissing
}

func (s MarketplaceStub) AcceptOffer(ctx context.Context, actorID, offerID uuid.UUID) (*model.Offer, error) {
	if s.AcceptOfferFn != nil {
		return s.AcceptOfferFn(ctx, actorID, offerID)
	}
	return nil, errStubMissing
}

func (s MarketplaceStub) RejectOffer(ctx context.Context, actorID, offerID uuid.UUID, notes *string) (*model.Offer, error) {
	if s.RejectOfferFn != nil {
		return s.RejectOfferFn(ctx, actorID, offerID, notes)
	}
	return nil, errStubMissing
}

func (s MarketplaceStub) WithdrawOffer(ctx context.Context, actorID, offerID uuid.UUID) (*model.Offer, error) {
	if s.WithdrawOfferFn != nil {
		return s.WithdrawOfferFn(ctx, actorID, offerID)
	}
	return nil, errStubMissing
}

func (s MarketplaceStub) Offer(ctx context.Context, actorID, offerID uuid.UUID) (*model.Offer, error) {
	if s.OfferFn != nil {
		return s.OfferFn(ctx, actorID, offerID)
	}
	return nil, errStubMissing
}

func (s MarketplaceStub) Offers(ctx context.Context, actorID uuid.UUID, role model.Party, status *model.OfferStatus) ([]model.Offer, error) {
	if s.OffersFn != nil {
		return s.OffersFn(ctx, actorID, role, status)
	}
	return nil, nil
}

func (s MarketplaceStub) ConfirmPayment(ctx context.Context, customerID uuid.UUID, in usecase.PaymentConfirmation) (*model.Order, bool, error) {
	if s.ConfirmPaymentFn != nil {
		return s.ConfirmPaymentFn(ctx, customerID, in)
	}
	return nil, false, errStubMissing
}

func (s MarketplaceStub) UpdateProduction(ctx context.Context, designerID, orderID uuid.UUID, updates []model.StepUpdate) (*model.Order, error) {
	if s.UpdateProductionFn != nil {
		return s.UpdateProductionFn(ctx, designerID, orderID, updates)
	}
	return nil, errStubMissing
}

func (s MarketplaceStub) AdvanceOrder(ctx context.Context, designerID, orderID uuid.UUID, target model.OrderStatus) (*model.Order, error) {
	if s.AdvanceOrderFn != nil {
		return s.AdvanceOrderFn(ctx, designerID, orderID, target)
	}
	return nil, errStubMissing
}

func (s MarketplaceStub) ShipOrder(ctx context.Context, designerID, orderID uuid.UUID, in usecase.ShipmentInput) (*model.Order, error) {
	if s.ShipOrderFn != nil {
		return s.ShipOrderFn(ctx, designerID, orderID, in)
	}
	return nil, errStubMissing
}

func (s MarketplaceStub) ReportDelivered(ctx context.Context, designerID, orderID uuid.UUID) (*model.Order, error) {
	if s.ReportDeliveredFn != nil {
		return s.ReportDeliveredFn(ctx, designerID, orderID)
	}
	return nil, errStubMissing
}

func (s MarketplaceStub) ConfirmReceipt(ctx context.Context, customerID, orderID uuid.UUID, rating *int, review *string) (*model.Order, error) {
	if s.ConfirmReceiptFn != nil {
		return s.ConfirmReceiptFn(ctx, customerID, orderID, rating, review)
	}
	return nil, errStubMissing
}

func (s MarketplaceStub) OpenDispute(ctx context.Context, customerID, orderID uuid.UUID, reason string) (*model.Order, error) {
	if s.OpenDisputeFn != nil {
		return s.OpenDisputeFn(ctx, customerID, orderID, reason)
	}
	return nil, errStubMissing
}

func (s MarketplaceStub) CancelOrder(ctx context.Context, actorID, orderID uuid.UUID, reason string) (*model.Order, error) {
	if s.CancelOrderFn != nil {
		return s.CancelOrderFn(ctx, actorID, orderID, reason)
	}
	return nil, errStubMissing
}

func (s MarketplaceStub) Order(ctx context.Context, actorID, orderID uuid.UUID) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, actorID, orderID)
	}
	return nil, errStubMissing
}

func (s MarketplaceStub) Orders(ctx context.Context, actorID uuid.UUID, role model.Party, status *model.OrderStatus) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, actorID, role, status)
	}
	return nil, nil
}

func (s MarketplaceStub) Wallet(ctx context.Context, userID uuid.UUID) (*model.Wallet, error) {
	if s.WalletFn != nil {
		return s.WalletFn(ctx, userID)
	}
	return &model.Wallet{UserID: userID, Balance: decimal.Zero}, nil
}

func (s MarketplaceStub) WalletTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]model.WalletTransaction, error) {
	if s.TransactionsFn != nil {
		return s.TransactionsFn(ctx, userID, limit)
	}
	return nil, nil
}

func (s MarketplaceStub) Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*model.WalletTransaction, error) {
	if s.WithdrawFn != nil {
		return s.WithdrawFn(ctx, userID, amount)
	}
	return nil, errStubMissing
}

func (s MarketplaceStub) VerifyWallet(ctx context.Context, userID uuid.UUID) (*usecase.WalletAudit, error) {
	if s.VerifyWalletFn != nil {
		return s.VerifyWalletFn(ctx, userID)
	}
	return &usecase.WalletAudit{UserID: userID, Consistent: true}, nil
}

func (s MarketplaceStub) PreviewFee(ctx context.Context, designerID uuid.UUID, amount decimal.Decimal) (model.FeeBreakdown, error) {
	if s.PreviewFeeFn != nil {
		return s.PreviewFeeFn(ctx, designerID, amount)
	}
	return model.FeeBreakdown{}, errStubMissing
}

func (s MarketplaceStub) Notifications(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	if s.NotificationsFn != nil {
		return s.NotificationsFn(ctx, userID, limit)
	}
	return nil, nil
}

func (s MarketplaceStub) PaymentWebhook(ctx context.Context, body []byte, signature string) (*model.Order, bool, error) {
	if s.PaymentWebhookFn != nil {
		return s.PaymentWebhookFn(ctx, body, signature)
	}
	return nil, false, nil
}

func (s MarketplaceStub) HealthCheck(ctx context.Context) error {
	if s.HealthFn != nil {
		return s.HealthFn(ctx)
	}
	return nil
}
