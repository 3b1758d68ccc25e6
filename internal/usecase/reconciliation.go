package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	domainErrors "github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/errors"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/repository"
)

const (
	warningLeadFrom = 48 * time.Hour
	warningLeadTo   = 72 * time.Hour
	day             = 24 * time.Hour
)

// designerReminderDays are the days before the deadline on which designers are reminded.
var designerReminderDays = []int{7, 3, 1, 0}

// JobReport summarises one reconciliation pass.
type JobReport struct {
	Processed int
	Succeeded int
	Skipped   int
	Failed    int
}

func (r *JobReport) add(other JobReport) {
	r.Processed += other.Processed
	r.Succeeded += other.Succeeded
	r.Skipped += other.Skipped
	r.Failed += other.Failed
}

// ReconciliationUseCase holds the bodies of the time driven jobs.
type ReconciliationUseCase struct {
	tx         repository.Transactor
	orders     *OrderUseCase
	offers     *OfferUseCase
	settlement *Settlement
	tracker    CarrierTracker
	dispatch   *Dispatcher
	policy     Policy
	logger     *slog.Logger

	mu      sync.Mutex
	backoff map[uuid.UUID]time.Time
}

// NewReconciliationUseCase constructs ReconciliationUseCase.
func NewReconciliationUseCase(tx repository.Transactor, orders *OrderUseCase, offers *OfferUseCase, settlement *Settlement, tracker CarrierTracker, dispatch *Dispatcher, policy Policy, logger *slog.Logger) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		tx:         tx,
		orders:     orders,
		offers:     offers,
		settlement: settlement,
		tracker:    tracker,
		dispatch:   dispatch,
		policy:     policy,
		logger:     logger,
		backoff:    make(map[uuid.UUID]time.Time),
	}
}

// PollShipments asks the carrier about shipped orders and records deliveries.
// Orders whose carrier asked to back off are skipped until the backoff passes.
func (u *ReconciliationUseCase) PollShipments(ctx context.Context, now time.Time) (JobReport, error) {
	var report JobReport
	err := u.scan(ctx, u.tx.Orders().ListInTransit, func(orders []model.Order) error {
		r, err := u.pollBatch(ctx, orders, now)
		report.add(r)
		return err
	})
	return report, err
}

func (u *ReconciliationUseCase) pollBatch(ctx context.Context, orders []model.Order, now time.Time) (JobReport, error) {
	var (
		mu     sync.Mutex
		report JobReport
	)
	count := func(r JobReport) {
		mu.Lock()
		report.add(r)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.policy.workers())
	for i := range orders {
		order := orders[i]
		if u.backingOff(order.ID, now) {
			count(JobReport{Processed: 1, Skipped: 1})
			continue
		}
		g.Go(func() error {
			count(u.pollShipment(gctx, &order, now))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, ctx.Err()
}

// scan walks every page returned by list, in id order, until a short page.
func (u *ReconciliationUseCase) scan(ctx context.Context, list func(context.Context, repository.OrderPage) ([]model.Order, error), visit func([]model.Order) error) error {
	page := repository.OrderPage{Limit: u.policy.batchSize()}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		orders, err := list(ctx, page)
		if err != nil {
			return err
		}
		if len(orders) > 0 {
			if err := visit(orders); err != nil {
				return err
			}
		}
		if len(orders) < page.Limit {
			return nil
		}
		page.After = orders[len(orders)-1].ID
	}
}

func (u *ReconciliationUseCase) pollShipment(ctx context.Context, order *model.Order, now time.Time) JobReport {
	if order.Carrier == nil || order.TrackingNumber == nil {
		return JobReport{Processed: 1, Skipped: 1}
	}
	status, err := u.tracker.Track(ctx, *order.Carrier, *order.TrackingNumber)
	if err != nil {
		var retry RetryAfterError
		if errors.As(err, &retry) {
			u.setBackoff(order.ID, now.Add(retry.RetryAfter()))
			u.logger.Warn("carrier rate limited",
				slog.String("order_number", order.OrderNumber),
				slog.Duration("retry_after", retry.RetryAfter()),
			)
			return JobReport{Processed: 1, Skipped: 1}
		}
		u.logger.Error("tracking lookup failed",
			slog.String("order_number", order.OrderNumber),
			slog.String("error", err.Error()),
		)
		return JobReport{Processed: 1, Failed: 1}
	}
	u.clearBackoff(order.ID)
	if !status.Delivered {
		return JobReport{Processed: 1, Skipped: 1}
	}

	deliveredAt := now
	if status.DeliveredAt != nil {
		deliveredAt = *status.DeliveredAt
	}
	if _, err := u.orders.MarkDelivered(ctx, order.ID, deliveredAt); err != nil {
		u.logger.Error("mark delivered failed",
			slog.String("order_number", order.OrderNumber),
			slog.String("error", err.Error()),
		)
		return JobReport{Processed: 1, Failed: 1}
	}
	return JobReport{Processed: 1, Succeeded: 1}
}

func (u *ReconciliationUseCase) backingOff(orderID uuid.UUID, now time.Time) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	until, ok := u.backoff[orderID]
	if !ok {
		return false
	}
	if now.Before(until) {
		return true
	}
	delete(u.backoff, orderID)
	return false
}

func (u *ReconciliationUseCase) setBackoff(orderID uuid.UUID, until time.Time) {
	u.mu.Lock()
	u.backoff[orderID] = until
	u.mu.Unlock()
}

func (u *ReconciliationUseCase) clearBackoff(orderID uuid.UUID) {
	u.mu.Lock()
	delete(u.backoff, orderID)
	u.mu.Unlock()
}

// AutoConfirm settles delivered orders whose confirmation window has closed.
func (u *ReconciliationUseCase) AutoConfirm(ctx context.Context, now time.Time) (JobReport, error) {
	list := func(ctx context.Context, page repository.OrderPage) ([]model.Order, error) {
		return u.tx.Orders().ListDueForAutoConfirm(ctx, now, page)
	}
	var report JobReport
	err := u.scan(ctx, list, func(orders []model.Order) error {
		for _, order := range orders {
			if err := ctx.Err(); err != nil {
				return err
			}
			report.Processed++
			_, _, err := u.settlement.Settle(ctx, order.ID, model.ConfirmedBySystem, now, nil)
			switch {
			case err == nil:
				report.Succeeded++
			case errors.Is(err, domainErrors.ErrConflict):
				report.Skipped++
				u.logger.Info("auto-confirm skipped",
					slog.String("order_number", order.OrderNumber),
					slog.String("reason", domainErrors.CodeOf(err)),
				)
			default:
				report.Failed++
				u.logger.Error("auto-confirm failed",
					slog.String("order_number", order.OrderNumber),
					slog.String("error", err.Error()),
				)
			}
		}
		return nil
	})
	return report, err
}

// WarnAutoConfirm reminds customers two to three days before auto-confirmation. Each order is warned once.
func (u *ReconciliationUseCase) WarnAutoConfirm(ctx context.Context, now time.Time) (JobReport, error) {
	list := func(ctx context.Context, page repository.OrderPage) ([]model.Order, error) {
		return u.tx.Orders().ListAutoConfirmBetween(ctx, now.Add(warningLeadFrom), now.Add(warningLeadTo), page)
	}
	var report JobReport
	err := u.scan(ctx, list, func(orders []model.Order) error {
		for i := range orders {
			order := &orders[i]
			report.Processed++
			sent, err := u.remindOnce(ctx, order, model.ReminderAutoConfirmWarning, now, Message{
				UserID: order.CustomerID,
				Type:   "auto_confirm_warning",
				Title:  "Confirm your delivery",
				Text: "Order " + order.OrderNumber + " will be confirmed automatically on " +
					order.AutoConfirmAt.Format("2006-01-02") + ". Open a dispute before then if something is wrong.",
			})
			report.record(sent, err)
			if err != nil {
				u.logger.Error("auto-confirm warning failed",
					slog.String("order_number", order.OrderNumber),
					slog.String("error", err.Error()),
				)
			}
		}
		return nil
	})
	return report, err
}

// RemindDeadlines nudges designers as the deadline approaches and both parties once it is missed.
func (u *ReconciliationUseCase) RemindDeadlines(ctx context.Context, now time.Time) (JobReport, error) {
	var report JobReport
	err := u.scan(ctx, u.tx.Orders().ListWithOpenDeadline, func(orders []model.Order) error {
		for i := range orders {
			order := &orders[i]
			for _, r := range deadlineReminders(order, now) {
				report.Processed++
				sent, err := u.remindOnce(ctx, order, r.kind, now, r.message)
				report.record(sent, err)
				if err != nil {
					u.logger.Error("deadline reminder failed",
						slog.String("order_number", order.OrderNumber),
						slog.String("kind", string(r.kind)),
						slog.String("error", err.Error()),
					)
				}
			}
		}
		return nil
	})
	return report, err
}

// ExpireOffers closes overdue offers.
func (u *ReconciliationUseCase) ExpireOffers(ctx context.Context, now time.Time) (JobReport, error) {
	n, err := u.offers.ExpireOverdue(ctx, now)
	return JobReport{Processed: n, Succeeded: n}, err
}

func (r *JobReport) record(sent bool, err error) {
	switch {
	case err != nil:
		r.Failed++
	case sent:
		r.Succeeded++
	default:
		r.Skipped++
	}
}

// remindOnce claims the reminder and delivers it. Claimed reminders are never resent.
func (u *ReconciliationUseCase) remindOnce(ctx context.Context, order *model.Order, kind model.ReminderKind, now time.Time, msg Message) (bool, error) {
	claimed, err := u.tx.Reminders().MarkSent(ctx, order.ID, kind, now)
	if err != nil || !claimed {
		return false, err
	}
	if msg.Data == nil {
		msg.Data = orderData(order)
	}
	msg.Data["reminder"] = string(kind)
	if u.dispatch != nil {
		u.dispatch.Dispatch(ctx, nil, nil, msg)
	}
	return true, nil
}

type deadlineReminder struct {
	kind    model.ReminderKind
	message Message
}

// deadlineReminders lists the reminders due for order at now.
func deadlineReminders(order *model.Order, now time.Time) []deadlineReminder {
	if order.Deadline == nil {
		return nil
	}
	deadline := *order.Deadline
	data := func(urgency string) map[string]any {
		d := orderData(order)
		d["deadline"] = deadline.Format(time.RFC3339)
		d["urgency"] = urgency
		return d
	}

	if now.After(deadline) {
		return []deadlineReminder{
			{
				kind: model.DeadlineReminderKind(model.PartyDesigner, -1),
				message: Message{UserID: order.DesignerID, Type: "deadline_overdue", Title: "Order overdue",
					Text: "Order " + order.OrderNumber + " missed its deadline", Data: data("critical")},
			},
			{
				kind: model.DeadlineReminderKind(model.PartyCustomer, -1),
				message: Message{UserID: order.CustomerID, Type: "deadline_overdue", Title: "Order delayed",
					Text: "Order " + order.OrderNumber + " is past its deadline. The designer has been notified.", Data: data("critical")},
			},
		}
	}

	// Only the most urgent threshold reached is offered, so a missed run
	// catches up with one reminder and never replays the older ones.
	daysLeft := int(deadline.Sub(now) / day)
	var reminders []deadlineReminder
	if d, ok := reminderThreshold(daysLeft); ok {
		reminders = append(reminders, deadlineReminder{
			kind: model.DeadlineReminderKind(model.PartyDesigner, d),
			message: Message{UserID: order.DesignerID, Type: "deadline_reminder", Title: deadlineTitle(daysLeft),
				Text: "Order " + order.OrderNumber + " is due " + deadline.Format("2006-01-02"), Data: data(deadlineUrgency(d))},
		})
	}
	if daysLeft <= 0 {
		reminders = append(reminders, deadlineReminder{
			kind: model.DeadlineReminderKind(model.PartyCustomer, 0),
			message: Message{UserID: order.CustomerID, Type: "deadline_reminder", Title: "Your order is due today",
				Text: "Order " + order.OrderNumber + " is due today", Data: data("high")},
		})
	}
	return reminders
}

// reminderThreshold picks the smallest reminder day not below daysLeft.
func reminderThreshold(daysLeft int) (int, bool) {
	best, ok := 0, false
	for _, d := range designerReminderDays {
		if d >= daysLeft && (!ok || d < best) {
			best, ok = d, true
		}
	}
	return best, ok
}

func deadlineTitle(days int) string {
	switch days {
	case 0:
		return "Deadline today"
	case 1:
		return "Deadline tomorrow"
	default:
		return "Deadline in " + strconv.Itoa(days) + " days"
	}
}

func deadlineUrgency(days int) string {
	switch {
	case days == 0:
		return "high"
	case days == 1:
		return "medium"
	default:
		return "low"
	}
}
