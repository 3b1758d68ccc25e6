package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/errors"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/repository"
)

// Settlement releases escrowed payment to the designer exactly once per order.
type Settlement struct {
	tx       repository.Transactor
	fees     *FeeEngine
	ledger   *Ledger
	dispatch *Dispatcher
	recorder Recorder
	logger   *slog.Logger
}

// NewSettlement constructs Settlement.
func NewSettlement(tx repository.Transactor, fees *FeeEngine, ledger *Ledger, dispatch *Dispatcher, recorder Recorder, logger *slog.Logger) *Settlement {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Settlement{tx: tx, fees: fees, ledger: ledger, dispatch: dispatch, recorder: recorder, logger: logger}
}

// Settle completes the order, resolves the fee and credits the designer in one transaction.
// prepare runs on the locked order before any check and may reject the call.
func (s *Settlement) Settle(ctx context.Context, orderID uuid.UUID, by model.ConfirmedBy, now time.Time, prepare func(*model.Order) error) (*model.Order, model.FeeBreakdown, error) {
	var (
		order *model.Order
		fee   model.FeeBreakdown
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Factory) error {
		o, err := repos.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if prepare != nil {
			if err := prepare(o); err != nil {
				return err
			}
		}
		if err := o.CanSettle(); err != nil {
			return err
		}

		breakdown, err := s.fees.Resolve(ctx, repos, o.DesignerID, o.FinalPrice, now)
		if err != nil {
			return err
		}
		if err := o.Settle(breakdown, by, now); err != nil {
			return err
		}
		if err := repos.Orders().Update(ctx, o); err != nil {
			return err
		}
		if breakdown.DesignerReceives.IsPositive() {
			orderRef := o.ID
			_, err := s.ledger.CreditWithin(ctx, repos, o.DesignerID, breakdown.DesignerReceives,
				"Payment for order "+o.OrderNumber, &orderRef, now)
			if err != nil {
				return err
			}
		}
		order, fee = o, breakdown
		return nil
	})
	if err != nil {
		s.recorder.Settlement(by, settlementOutcome(err))
		return nil, model.FeeBreakdown{}, err
	}

	s.recorder.Settlement(by, "settled")
	s.logger.Info("order settled",
		slog.String("order_number", order.OrderNumber),
		slog.String("confirmed_by", string(by)),
		slog.String("fee_rule", string(fee.AppliedRule)),
		slog.String("payout", fee.DesignerReceives.StringFixed(2)),
	)
	s.announce(ctx, order, fee, by, now)
	return order, fee, nil
}

func (s *Settlement) announce(ctx context.Context, order *model.Order, fee model.FeeBreakdown, by model.ConfirmedBy, now time.Time) {
	if s.dispatch == nil {
		return
	}
	data := map[string]any{
		"orderId":     order.ID.String(),
		"orderNumber": order.OrderNumber,
		"confirmedBy": string(by),
	}
	customerText := "Thank you for confirming receipt of order " + order.OrderNumber
	if by == model.ConfirmedBySystem {
		customerText = "Order " + order.OrderNumber + " was confirmed automatically after the confirmation window"
	}
	actor := order.CustomerID
	if by == model.ConfirmedBySystem {
		actor = uuid.Nil
	}
	event := model.NewEnvelope(model.EventDomainOrder, "completed", order.ID, actor, order, now)
	s.dispatch.Dispatch(ctx, &event, []uuid.UUID{order.CustomerID, order.DesignerID},
		Message{
			UserID: order.DesignerID,
			Type:   "payment_released",
			Title:  "Payment released",
			Text:   fee.DesignerReceives.StringFixed(2) + " was added to your wallet for order " + order.OrderNumber,
			Data:   data,
		},
		Message{
			UserID: order.CustomerID,
			Type:   "order_completed",
			Title:  "Order completed",
			Text:   customerText,
			Data:   data,
		},
	)
}

func settlementOutcome(err error) string {
	switch {
	case domainErrors.CodeOf(err) == "already_settled":
		return "already_settled"
	case errors.Is(err, domainErrors.ErrConflict):
		return "rejected"
	default:
		return "failed"
	}
}
