package app

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/adapter/payment"
	domainErrors "github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/errors"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/pkg/auth"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/usecase"
)

// WebhookParser authenticates gateway callbacks.
type WebhookParser interface {
	ParseWebhook(body []byte, signature string) (*payment.WebhookEvent, error)
}

// HealthChecker reports storage reachability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// MarketplaceFacade exposes the use cases to the HTTP layer.
type MarketplaceFacade struct {
	tokens  auth.Strategy
	offers  *usecase.OfferUseCase
	orders  *usecase.OrderUseCase
	ledger  *usecase.Ledger
	fees    *usecase.FeeEngine
	inbox   *usecase.InboxUseCase
	webhook WebhookParser
	health  HealthChecker
	logger  *slog.Logger
}

// NewMarketplaceFacade constructs MarketplaceFacade.
func NewMarketplaceFacade(
	tokens auth.Strategy,
	offers *usecase.OfferUseCase,
	orders *usecase.OrderUseCase,
	ledger *usecase.Ledger,
	fees *usecase.FeeEngine,
	inbox *usecase.InboxUseCase,
	webhook WebhookParser,
	health HealthChecker,
	logger *slog.Logger,
) *MarketplaceFacade {
	return &MarketplaceFacade{
		tokens:  tokens,
		offers:  offers,
		orders:  orders,
		ledger:  ledger,
		fees:    fees,
		inbox:   inbox,
		webhook: webhook,
		health:  health,
		logger:  logger,
	}
}

func (f *MarketplaceFacade) ParseToken(token string) (uuid.UUID, error) {
	claims, err := f.tokens.ParseToken(token)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID, nil
}

func (f *MarketplaceFacade) HealthCheck(ctx context.Context) error {
	return f.health.HealthCheck(ctx)
}

func (f *MarketplaceFacade) CreateOffer(ctx context.Context, customerID uuid.UUID, in usecase.CreateOfferInput) (*model.Offer, error) {
	return f.offers.Create(ctx, customerID, in)
}

func (f *MarketplaceFacade) CounterOffer(ctx context.Context, actorID, offerID uuid.UUID, price decimal.Decimal, notes *string) (*model.Offer, error) {
	return f.offers.Counter(ctx, actorID, offerID, price, notes)
}

func (f *MarketplaceFacade) AcceptOffer(ctx context.Context, actorID, offerID uuid.UUID) (*model.Offer, error) {
	return f.offers.Accept(ctx, actorID, offerID)
}

func (f *MarketplaceFacade) RejectOffer(ctx context.Context, actorID, offerID uuid.UUID, notes *string) (*model.Offer, error) {
	return f.offers.Reject(ctx, actorID, offerID, notes)
}

func (f *MarketplaceFacade) WithdrawOffer(ctx context.Context, actorID, offerID uuid.UUID) (*model.Offer, error) {
	return f.offers.Withdraw(ctx, actorID, offerID)
}

func (f *MarketplaceFacade) Offer(ctx context.Context, actorID, offerID uuid.UUID) (*model.Offer, error) {
	return f.offers.Get(ctx, actorID, offerID)
}

func (f *MarketplaceFacade) Offers(ctx context.Context, actorID uuid.UUID, role model.Party, status *model.OfferStatus) ([]model.Offer, error) {
	return f.offers.List(ctx, actorID, role, status)
}

func (f *MarketplaceFacade) ConfirmPayment(ctx context.Context, customerID uuid.UUID, in usecase.PaymentConfirmation) (*model.Order, bool, error) {
	return f.orders.CreateFromPayment(ctx, customerID, in)
}

// PaymentWebhook authenticates the callback and opens the order for successful charges.
// Other events are acknowledged without effect and reported as handled=false.
func (f *MarketplaceFacade) PaymentWebhook(ctx context.Context, body []byte, signature string) (order *model.Order, handled bool, err error) {
	event, err := f.webhook.ParseWebhook(body, signature)
	if err != nil {
		return nil, false, domainErrors.Unauthorized("invalid_signature", "webhook signature mismatch")
	}
	if event.Event != payment.EventChargeSuccess {
		f.logger.Info("payment webhook ignored", slog.String("event", event.Event))
		return nil, false, nil
	}
	order, _, err = f.orders.ConfirmPaymentWebhook(ctx, event.Data.Reference)
	if err != nil {
		return nil, false, err
	}
	return order, true, nil
}

func (f *MarketplaceFacade) UpdateProduction(ctx context.Context, designerID, orderID uuid.UUID, updates []model.StepUpdate) (*model.Order, error) {
	return f.orders.UpdateProduction(ctx, designerID, orderID, updates)
}

func (f *MarketplaceFacade) AdvanceOrder(ctx context.Context, designerID, orderID uuid.UUID, target model.OrderStatus) (*model.Order, error) {
	return f.orders.AdvanceStatus(ctx, designerID, orderID, target)
}

func (f *MarketplaceFacade) ShipOrder(ctx context.Context, designerID, orderID uuid.UUID, in usecase.ShipmentInput) (*model.Order, error) {
	return f.orders.Ship(ctx, designerID, orderID, in)
}

func (f *MarketplaceFacade) ReportDelivered(ctx context.Context, designerID, orderID uuid.UUID) (*model.Order, error) {
	return f.orders.ReportDelivered(ctx, designerID, orderID)
}

func (f *MarketplaceFacade) ConfirmReceipt(ctx context.Context, customerID, orderID uuid.UUID, rating *int, review *string) (*model.Order, error) {
	return f.orders.ConfirmReceipt(ctx, customerID, orderID, rating, review)
}

func (f *MarketplaceFacade) OpenDispute(ctx context.Context, customerID, orderID uuid.UUID, reason string) (*model.Order, error) {
	return f.orders.OpenDispute(ctx, customerID, orderID, reason)
}

func (f *MarketplaceFacade) CancelOrder(ctx context.Context, actorID, orderID uuid.UUID, reason string) (*model.Order, error) {
	return f.orders.Cancel(ctx, actorID, orderID, reason)
}

func (f *MarketplaceFacade) Order(ctx context.Context, actorID, orderID uuid.UUID) (*model.Order, error) {
	return f.orders.Get(ctx, actorID, orderID)
}

func (f *MarketplaceFacade) Orders(ctx context.Context, actorID uuid.UUID, role model.Party, status *model.OrderStatus) ([]model.Order, error) {
	return f.orders.List(ctx, actorID, role, status)
}

func (f *MarketplaceFacade) Wallet(ctx context.Context, userID uuid.UUID) (*model.Wallet, error) {
	return f.ledger.Balance(ctx, userID)
}

func (f *MarketplaceFacade) WalletTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]model.WalletTransaction, error) {
	return f.ledger.History(ctx, userID, limit)
}

func (f *MarketplaceFacade) Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*model.WalletTransaction, error) {
	return f.ledger.Withdraw(ctx, userID, amount)
}

func (f *MarketplaceFacade) VerifyWallet(ctx context.Context, userID uuid.UUID) (*usecase.WalletAudit, error) {
	return f.ledger.Verify(ctx, userID)
}

func (f *MarketplaceFacade) PreviewFee(ctx context.Context, designerID uuid.UUID, amount decimal.Decimal) (model.FeeBreakdown, error) {
	return f.fees.Preview(ctx, designerID, amount)
}

func (f *MarketplaceFacade) Notifications(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	return f.inbox.List(ctx, userID, limit)
}
