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

// PaymentConfirmation identifies the paid offer and where to ship it.
type PaymentConfirmation struct {
	OfferID           uuid.UUID
	PaymentReference  string
	ShippingAddressID uuid.UUID
}

// ShipmentInput carries carrier details reported by the designer.
type ShipmentInput struct {
	Carrier           string
	TrackingNumber    string
	EstimatedDelivery *time.Time
}

// OrderUseCase encapsulates the order lifecycle.
type OrderUseCase struct {
	tx         repository.Transactor
	payments   PaymentVerifier
	settlement *Settlement
	dispatch   *Dispatcher
	policy     Policy
	now        Clock
	logger     *slog.Logger
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(tx repository.Transactor, payments PaymentVerifier, settlement *Settlement, dispatch *Dispatcher, policy Policy, now Clock, logger *slog.Logger) *OrderUseCase {
	return &OrderUseCase{
		tx:         tx,
		payments:   payments,
		settlement: settlement,
		dispatch:   dispatch,
		policy:     policy,
		now:        now,
		logger:     logger,
	}
}

// CreateFromPayment opens the order for a paid offer. Returns whether the order was newly created.
// An order that already exists for the offer is returned as is.
func (u *OrderUseCase) CreateFromPayment(ctx context.Context, customerID uuid.UUID, in PaymentConfirmation) (*model.Order, bool, error) {
	if in.PaymentReference == "" {
		return nil, false, domainErrors.Validation("payment_reference_required", "payment reference is required")
	}
	existing, err := u.existingOrder(ctx, in.OfferID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if existing.CustomerID != customerID {
			return nil, false, domainErrors.Unauthorized("not_offer_customer", "only the offer customer can place this order")
		}
		return existing, false, nil
	}

	verification, err := u.verify(ctx, in.PaymentReference)
	if err != nil {
		return nil, false, err
	}
	return u.createVerified(ctx, &customerID, in, verification)
}

// ConfirmPaymentWebhook opens the order announced by a signed gateway callback.
// The offer and address come from the payment metadata.
func (u *OrderUseCase) ConfirmPaymentWebhook(ctx context.Context, reference string) (*model.Order, bool, error) {
	if reference == "" {
		return nil, false, domainErrors.Validation("payment_reference_required", "payment reference is required")
	}
	verification, err := u.verify(ctx, reference)
	if err != nil {
		return nil, false, err
	}
	if verification.OfferID == nil || verification.ShippingAddressID == nil {
		return nil, false, domainErrors.Validation("payment_metadata_missing", "payment %s carries no offer metadata", reference)
	}

	in := PaymentConfirmation{
		OfferID:           *verification.OfferID,
		PaymentReference:  reference,
		ShippingAddressID: *verification.ShippingAddressID,
	}
	existing, err := u.existingOrder(ctx, in.OfferID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	return u.createVerified(ctx, nil, in, verification)
}

func (u *OrderUseCase) existingOrder(ctx context.Context, offerID uuid.UUID) (*model.Order, error) {
	order, err := u.tx.Orders().GetByOfferID(ctx, offerID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

func (u *OrderUseCase) verify(ctx context.Context, reference string) (*model.PaymentVerification, error) {
	verification, err := u.payments.Verify(ctx, reference)
	if err != nil {
		if errors.Is(err, domainErrors.ErrExternalDependency) {
			return nil, err
		}
		return nil, domainErrors.ExternalDependency("payment_gateway_unavailable", err, "payment verification failed")
	}
	if !verification.Succeeded {
		return nil, domainErrors.Validation("payment_not_successful", "payment %s did not succeed", reference)
	}
	return verification, nil
}

func (u *OrderUseCase) createVerified(ctx context.Context, customerID *uuid.UUID, in PaymentConfirmation, verification *model.PaymentVerification) (*model.Order, bool, error) {
	now := u.now()
	var (
		order   *model.Order
		created bool
	)
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Factory) error {
		offer, err := repos.Offers().GetForUpdate(ctx, in.OfferID)
		if err != nil {
			return err
		}
		if customerID != nil && offer.CustomerID != *customerID {
			return domainErrors.Unauthorized("not_offer_customer", "only the offer customer can place this order")
		}
		// The offer row lock serialises creators, so a concurrent winner is visible here.
		if existing, err := repos.Orders().GetByOfferID(ctx, in.OfferID); err == nil {
			order, created = existing, false
			return nil
		} else if !errors.Is(err, domainErrors.ErrNotFound) {
			return err
		}
		if verification.OfferID != nil && *verification.OfferID != in.OfferID {
			return domainErrors.Conflict("payment_offer_mismatch", "payment %s was made for another offer", in.PaymentReference)
		}
		if offer.Status != model.OfferStatusAccepted || offer.FinalPrice == nil {
			return domainErrors.Conflict("offer_not_accepted", "offer is %s", offer.Status)
		}
		if !verification.Amount.Equal(*offer.FinalPrice) {
			return domainErrors.ExternalDependency("payment_amount_mismatch", nil,
				"paid %s but the agreed price is %s", verification.Amount.StringFixed(2), offer.FinalPrice.StringFixed(2))
		}

		address, err := repos.Catalog().Address(ctx, in.ShippingAddressID)
		if err != nil {
			return err
		}
		if address.UserID != offer.CustomerID {
			return domainErrors.Unauthorized("address_not_owned", "shipping address does not belong to the customer")
		}
		item, err := repos.Catalog().Item(ctx, offer.CatalogItemID)
		if err != nil {
			return err
		}
		if len(item.ProductionSteps) == 0 {
			return domainErrors.Validation("no_production_workflow", "catalog item has no production steps")
		}

		seq, err := repos.Orders().NextSequence(ctx, now.Year())
		if err != nil {
			return err
		}
		draft, err := model.NewOrderFromOffer(offer, model.OrderDraft{
			Number:            model.FormatOrderNumber(now.Year(), seq),
			Steps:             item.ProductionSteps,
			ShippingAddressID: in.ShippingAddressID,
			PaymentReference:  in.PaymentReference,
			BuyerProtection:   u.policy.BuyerProtection,
		}, now)
		if err != nil {
			return err
		}

		inserted, err := repos.Orders().Create(ctx, draft)
		if err != nil {
			return err
		}
		if !inserted {
			existing, err := repos.Orders().GetByOfferID(ctx, in.OfferID)
			if err != nil {
				return err
			}
			order, created = existing, false
			return nil
		}
		order, created = draft, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		u.logger.Info("order created",
			slog.String("order_number", order.OrderNumber),
			slog.String("offer_id", order.OfferID.String()),
		)
		data := orderData(order)
		u.announce(ctx, order, order.CustomerID, "created", now,
			Message{UserID: order.DesignerID, Type: "order_created", Title: "New order",
				Text: "Order " + order.OrderNumber + " is paid and ready for production", Data: data},
			Message{UserID: order.CustomerID, Type: "payment_confirmed", Title: "Payment confirmed",
				Text: "Your order " + order.OrderNumber + " has been placed", Data: data},
		)
	}
	return order, created, nil
}

// UpdateProduction records progress on named production steps.
func (u *OrderUseCase) UpdateProduction(ctx context.Context, designerID, orderID uuid.UUID, updates []model.StepUpdate) (*model.Order, error) {
	order, now, err := u.mutate(ctx, designerID, orderID, model.PartyDesigner, func(o *model.Order, now time.Time) error {
		return o.UpdateProduction(updates, now)
	})
	if err != nil {
		return nil, err
	}
	u.announce(ctx, order, designerID, "production_updated", now, Message{
		UserID: order.CustomerID, Type: "production_updated", Title: "Production update",
		Text: "Your order " + order.OrderNumber + " made progress", Data: orderData(order),
	})
	return order, nil
}

// AdvanceStatus moves the order forward through the production phases.
func (u *OrderUseCase) AdvanceStatus(ctx context.Context, designerID, orderID uuid.UUID, target model.OrderStatus) (*model.Order, error) {
	order, now, err := u.mutate(ctx, designerID, orderID, model.PartyDesigner, func(o *model.Order, now time.Time) error {
		return o.Advance(target, now)
	})
	if err != nil {
		return nil, err
	}
	u.announce(ctx, order, designerID, "status_changed", now, Message{
		UserID: order.CustomerID, Type: "order_status_changed", Title: "Order status changed",
		Text: "Order " + order.OrderNumber + " is now " + string(order.Status), Data: orderData(order),
	})
	return order, nil
}

// Ship hands the order to a carrier.
func (u *OrderUseCase) Ship(ctx context.Context, designerID, orderID uuid.UUID, in ShipmentInput) (*model.Order, error) {
	order, now, err := u.mutate(ctx, designerID, orderID, model.PartyDesigner, func(o *model.Order, now time.Time) error {
		return o.Ship(in.Carrier, in.TrackingNumber, in.EstimatedDelivery, u.policy.MinTrackingLength, now)
	})
	if err != nil {
		return nil, err
	}
	data := orderData(order)
	data["carrier"] = *order.Carrier
	data["trackingNumber"] = *order.TrackingNumber
	u.announce(ctx, order, designerID, "shipped", now, Message{
		UserID: order.CustomerID, Type: "order_shipped", Title: "Order shipped",
		Text: "Order " + order.OrderNumber + " is on its way with " + *order.Carrier, Data: data,
	})
	return order, nil
}

// ReportDelivered lets the designer record delivery when the carrier never reported it.
// It is accepted only once the manual delivery grace after shipping has passed, so carrier
// tracking stays authoritative for parcels it can see.
func (u *OrderUseCase) ReportDelivered(ctx context.Context, designerID, orderID uuid.UUID) (*model.Order, error) {
	order, err := u.tx.Orders().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if party, ok := order.PartyOf(designerID); !ok {
		return nil, orderNotFound(orderID)
	} else if party != model.PartyDesigner {
		return nil, domainErrors.Unauthorized("designer_only", "only the designer can report delivery")
	}
	if order.DeliveredAt != nil {
		return order, nil
	}
	now := u.now()
	if order.ShippedAt != nil {
		if earliest := order.ShippedAt.Add(u.policy.ManualDeliveryGrace); now.Before(earliest) {
			return nil, domainErrors.Conflict("delivery_report_too_early",
				"delivery can be reported manually from %s", earliest.Format(time.RFC3339))
		}
	}
	return u.MarkDelivered(ctx, orderID, now)
}

// MarkDelivered opens the confirmation window. Repeated calls leave the order untouched.
func (u *OrderUseCase) MarkDelivered(ctx context.Context, orderID uuid.UUID, deliveredAt time.Time) (*model.Order, error) {
	now := u.now()
	var (
		order   *model.Order
		changed bool
	)
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Factory) error {
		o, err := repos.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		ok, err := o.MarkDelivered(deliveredAt, u.policy.ConfirmationWindow, now)
		if err != nil {
			return err
		}
		if ok {
			if err := repos.Orders().Update(ctx, o); err != nil {
				return err
			}
		}
		order, changed = o, ok
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		data := orderData(order)
		data["autoConfirmAt"] = order.AutoConfirmAt.Format(time.RFC3339)
		u.announce(ctx, order, uuid.Nil, "delivered", now, Message{
			UserID: order.CustomerID, Type: "order_delivered", Title: "Order delivered",
			Text: "Please confirm receipt of order " + order.OrderNumber + " before " +
				order.ConfirmationWindowEnd.Format("2006-01-02 15:04 MST"),
			Data: data,
		})
	}
	return order, nil
}

// ConfirmReceipt lets the customer accept the delivery, which releases payment.
func (u *OrderUseCase) ConfirmReceipt(ctx context.Context, customerID, orderID uuid.UUID, rating *int, review *string) (*model.Order, error) {
	order, _, err := u.settlement.Settle(ctx, orderID, model.ConfirmedByCustomer, u.now(), func(o *model.Order) error {
		if err := requireParty(o, customerID, model.PartyCustomer); err != nil {
			return err
		}
		return o.RecordFeedback(rating, review)
	})
	return order, err
}

// OpenDispute freezes settlement while buyer protection lasts.
func (u *OrderUseCase) OpenDispute(ctx context.Context, customerID, orderID uuid.UUID, reason string) (*model.Order, error) {
	order, now, err := u.mutate(ctx, customerID, orderID, model.PartyCustomer, func(o *model.Order, now time.Time) error {
		return o.OpenDispute(reason, now)
	})
	if err != nil {
		return nil, err
	}
	u.announce(ctx, order, customerID, "disputed", now, Message{
		UserID: order.DesignerID, Type: "order_disputed", Title: "Dispute opened",
		Text: "The customer opened a dispute on order " + order.OrderNumber, Data: orderData(order),
	})
	return order, nil
}

// Cancel stops an order before it ships. Either party may cancel.
func (u *OrderUseCase) Cancel(ctx context.Context, actorID, orderID uuid.UUID, reason string) (*model.Order, error) {
	order, now, err := u.mutate(ctx, actorID, orderID, "", func(o *model.Order, now time.Time) error {
		return o.Cancel(reason, now)
	})
	if err != nil {
		return nil, err
	}
	counterparty := order.DesignerID
	if actorID == order.DesignerID {
		counterparty = order.CustomerID
	}
	u.announce(ctx, order, actorID, "cancelled", now, Message{
		UserID: counterparty, Type: "order_cancelled", Title: "Order cancelled",
		Text: "Order " + order.OrderNumber + " was cancelled", Data: orderData(order),
	})
	return order, nil
}

// Get returns the order when actorID takes part in it.
func (u *OrderUseCase) Get(ctx context.Context, actorID, orderID uuid.UUID) (*model.Order, error) {
	order, err := u.tx.Orders().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, ok := order.PartyOf(actorID); !ok {
		return nil, orderNotFound(orderID)
	}
	return order, nil
}

// List returns orders where actorID plays role, newest first.
func (u *OrderUseCase) List(ctx context.Context, actorID uuid.UUID, role model.Party, status *model.OrderStatus) ([]model.Order, error) {
	if !role.IsValid() {
		return nil, domainErrors.Validation("invalid_role", "role must be CUSTOMER or DESIGNER")
	}
	if status != nil && !status.IsValid() {
		return nil, domainErrors.Validation("invalid_status", "unknown order status %q", *status)
	}
	return u.tx.Orders().List(ctx, repository.OrderFilter{UserID: actorID, Party: role, Status: status})
}

// mutate locks the order, checks the actor and persists fn's changes.
// An empty role admits either party.
func (u *OrderUseCase) mutate(ctx context.Context, actorID, orderID uuid.UUID, role model.Party, fn func(*model.Order, time.Time) error) (*model.Order, time.Time, error) {
	now := u.now()
	var order *model.Order
	err := u.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Factory) error {
		o, err := repos.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := requireParty(o, actorID, role); err != nil {
			return err
		}
		if err := fn(o, now); err != nil {
			return err
		}
		if err := repos.Orders().Update(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, now, err
	}
	return order, now, nil
}

func (u *OrderUseCase) announce(ctx context.Context, order *model.Order, actorID uuid.UUID, action string, now time.Time, messages ...Message) {
	if u.dispatch == nil {
		return
	}
	event := model.NewEnvelope(model.EventDomainOrder, action, order.ID, actorID, order, now)
	u.dispatch.Dispatch(ctx, &event, []uuid.UUID{order.CustomerID, order.DesignerID}, messages...)
}

func requireParty(o *model.Order, actorID uuid.UUID, role model.Party) error {
	party, ok := o.PartyOf(actorID)
	if !ok {
		return orderNotFound(o.ID)
	}
	if role != "" && party != role {
		return domainErrors.Unauthorized(roleCode(role), "only the %s can perform this action", role)
	}
	return nil
}

func roleCode(role model.Party) string {
	if role == model.PartyDesigner {
		return "designer_only"
	}
	return "customer_only"
}

func orderData(o *model.Order) map[string]any {
	return map[string]any{
		"orderId":     o.ID.String(),
		"orderNumber": o.OrderNumber,
		"status":      string(o.Status),
	}
}

func orderNotFound(id uuid.UUID) error {
	return domainErrors.NotFound("order_not_found", "order %s not found", id)
}
