package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmockv3 "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"

	domainErrors "github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/errors"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/repository"
)

var offerColumnNames = []string{"id", "customer_id", "designer_id", "catalog_item_id", "customer_price", "designer_price",
	"final_price", "status", "notes", "designer_notes", "measurements", "try_on_image_url", "expires_at",
	"deadline", "awaiting_response_from", "accepted_at", "created_at", "updated_at"}

var orderColumnNames = []string{"id", "order_number", "offer_id", "customer_id", "designer_id", "catalog_item_id",
	"final_price", "status", "production_steps", "shipping_address_id", "payment_reference", "deadline", "shipped_at",
	"carrier", "tracking_number", "estimated_delivery", "delivered_at", "confirmation_window_end", "auto_confirm_at",
	"delivery_confirmed_by", "customer_rating", "customer_review", "payment_released_at", "payment_amount",
	"platform_fee", "fee_percentage_applied", "dispute_opened_at", "dispute_reason", "cancelled_at",
	"cancel_reason", "buyer_protection_until", "created_at", "updated_at"}

func strPtr(s string) *string { return &s }

// Typed nils for nullable arguments; pgxmock compares with reflect.DeepEqual.
var (
	noString *string
	noTime   *time.Time
)

func offerRow(rows *pgxmockv3.Rows, id uuid.UUID, status model.OfferStatus, awaiting *string, now time.Time) *pgxmockv3.Rows {
	var final *string
	if status == model.OfferStatusAccepted {
		final = strPtr("9000.00")
	}
	return rows.AddRow(id, uuid.New(), uuid.New(), uuid.New(), "7000.00", strPtr("9000.00"),
		final, status, nil, nil, []byte(`{"chest":40}`), nil, now.Add(time.Hour),
		nil, awaiting, nil, now, now)
}

func orderRow(rows *pgxmockv3.Rows, id uuid.UUID, status model.OrderStatus, now time.Time) *pgxmockv3.Rows {
	released := now
	return rows.AddRow(id, "ORD-2026-000001", uuid.New(), uuid.New(), uuid.New(), uuid.New(), "9000.00",
		status, []byte(`[{"name":"cut","status":"pending"}]`), uuid.New(), "ref-1", nil, nil,
		strPtr("DHL"), strPtr("TRK123456"), nil, nil, nil, nil,
		strPtr("SYSTEM"), nil, nil, &released, strPtr("8100.00"),
		strPtr("900.00"), strPtr("10.00"), nil, nil, nil,
		nil, now.Add(60*24*time.Hour), now, now)
}

func TestOfferRepository(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := storage.Offers()
	ctx := context.Background()
	now := time.Now()
	id := uuid.New()

	offer := &model.Offer{ID: id, CustomerID: uuid.New(), DesignerID: uuid.New(), CatalogItemID: uuid.New(),
		CustomerPrice: decimal.NewFromInt(7000), Status: model.OfferStatusPending, Measurements: []byte(`{}`),
		ExpiresAt: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now}
	mock.ExpectExec("INSERT INTO offers").WithArgs(id, offer.CustomerID, offer.DesignerID, offer.CatalogItemID,
		"7000", noString, noString, model.OfferStatusPending, noString, noString, []byte(`{}`), noString,
		offer.ExpiresAt, noTime, noString, noTime, now, now).WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	if err := repo.Create(ctx, offer); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	awaiting := string(model.PartyCustomer)
	mock.ExpectQuery("SELECT (.+) FROM offers WHERE id=(.+) FOR UPDATE").WithArgs(id).
		WillReturnRows(offerRow(pgxmockv3.NewRows(offerColumnNames), id, model.OfferStatusCountered, &awaiting, now))
	got, err := repo.GetForUpdate(ctx, id)
	if err != nil {
		t.Fatalf("get for update failed: %v", err)
	}
	if got.Status != model.OfferStatusCountered || *got.AwaitingResponseFrom != model.PartyCustomer {
		t.Fatalf("unexpected offer: %+v", got)
	}
	if !got.CustomerPrice.Equal(decimal.NewFromInt(7000)) || !got.DesignerPrice.Equal(decimal.NewFromInt(9000)) || got.FinalPrice != nil {
		t.Fatalf("unexpected prices: %+v", got)
	}

	mock.ExpectQuery("SELECT (.+) FROM offers WHERE id=").WithArgs(id).WillReturnError(pgx.ErrNoRows)
	if _, err := repo.Get(ctx, id); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mock.ExpectQuery("SELECT (.+) FROM offers WHERE id=").WithArgs(id).WillReturnError(errors.New("boom"))
	if _, err := repo.Get(ctx, id); err == nil || errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}

	mock.ExpectExec("UPDATE offers SET").WithArgs(pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg(),
		pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg(), pgxmockv3.AnyArg(),
		pgxmockv3.AnyArg(), pgxmockv3.AnyArg()).WillReturnResult(pgxmockv3.NewResult("UPDATE", 0))
	if err := repo.Update(ctx, offer); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found on missing row, got %v", err)
	}

	status := model.OfferStatusAccepted
	mock.ExpectQuery("SELECT (.+) FROM offers WHERE designer_id=").WithArgs(offer.DesignerID, strPtr("ACCEPTED")).
		WillReturnRows(offerRow(pgxmockv3.NewRows(offerColumnNames), id, model.OfferStatusAccepted, nil, now))
	list, err := repo.List(ctx, repository.OfferFilter{UserID: offer.DesignerID, Party: model.PartyDesigner, Status: &status})
	if err != nil || len(list) != 1 || list[0].FinalPrice == nil {
		t.Fatalf("unexpected list: %+v err=%v", list, err)
	}

	mock.ExpectQuery("UPDATE offers SET status='EXPIRED'").WithArgs(now, 50).
		WillReturnRows(offerRow(pgxmockv3.NewRows(offerColumnNames), id, model.OfferStatusExpired, nil, now))
	expired, err := repo.ExpireOverdue(ctx, now, 50)
	if err != nil || len(expired) != 1 || expired[0].Status != model.OfferStatusExpired {
		t.Fatalf("unexpected expired offers: %+v err=%v", expired, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestOrderRepository(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := storage.Orders()
	ctx := context.Background()
	now := time.Now()
	id := uuid.New()

	order := &model.Order{ID: id, OrderNumber: "ORD-2026-000001", OfferID: uuid.New(), FinalPrice: decimal.NewFromInt(9000),
		Status: model.OrderStatusPending, ProductionSteps: []model.ProductionStep{{Name: "cut", Status: model.StepStatusPending}},
		CreatedAt: now, UpdatedAt: now}

	anyArgs := make([]any, 15)
	for i := range anyArgs {
		anyArgs[i] = pgxmockv3.AnyArg()
	}
	mock.ExpectExec("INSERT INTO orders").WithArgs(anyArgs...).WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	if created, err := repo.Create(ctx, order); err != nil || !created {
		t.Fatalf("expected created, got %v %v", created, err)
	}
	mock.ExpectExec("INSERT INTO orders").WithArgs(anyArgs...).WillReturnResult(pgxmockv3.NewResult("INSERT", 0))
	if created, err := repo.Create(ctx, order); err != nil || created {
		t.Fatalf("expected duplicate offer to be absorbed, got %v %v", created, err)
	}
	mock.ExpectExec("INSERT INTO orders").WithArgs(anyArgs...).WillReturnError(&pgconn.PgError{Code: "23505"})
	if _, err := repo.Create(ctx, order); !errors.Is(err, domainErrors.ErrConflict) {
		t.Fatalf("expected conflict on number clash, got %v", err)
	}
	mock.ExpectExec("INSERT INTO orders").WithArgs(anyArgs...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "orders_payment_reference_key"})
	if _, err := repo.Create(ctx, order); domainErrors.CodeOf(err) != "payment_already_used" {
		t.Fatalf("expected reused payment to be rejected, got %v", err)
	}

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE id=(.+) FOR UPDATE").WithArgs(id).
		WillReturnRows(orderRow(pgxmockv3.NewRows(orderColumnNames), id, model.OrderStatusCompleted, now))
	got, err := repo.GetForUpdate(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != model.OrderStatusCompleted || len(got.ProductionSteps) != 1 || *got.DeliveryConfirmedBy != model.ConfirmedBySystem {
		t.Fatalf("unexpected order: %+v", got)
	}
	if !got.PaymentAmount.Equal(decimal.NewFromInt(8100)) || !got.PlatformFee.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("unexpected payout figures: %+v", got)
	}

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE offer_id=").WithArgs(order.OfferID).WillReturnError(pgx.ErrNoRows)
	if _, err := repo.GetByOfferID(ctx, order.OfferID); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	updateArgs := make([]any, 22)
	for i := range updateArgs {
		updateArgs[i] = pgxmockv3.AnyArg()
	}
	mock.ExpectExec("UPDATE orders SET").WithArgs(updateArgs...).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if err := repo.Update(ctx, order); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	mock.ExpectQuery("INSERT INTO order_sequences").WithArgs(2026).
		WillReturnRows(pgxmockv3.NewRows([]string{"last_value"}).AddRow(int64(7)))
	if seq, err := repo.NextSequence(ctx, 2026); err != nil || seq != 7 {
		t.Fatalf("unexpected sequence %d err=%v", seq, err)
	}

	mock.ExpectQuery("SELECT COUNT").WithArgs(order.DesignerID).
		WillReturnRows(pgxmockv3.NewRows([]string{"count"}).AddRow(12))
	if count, err := repo.CountCompletedByDesigner(ctx, order.DesignerID); err != nil || count != 12 {
		t.Fatalf("unexpected count %d err=%v", count, err)
	}

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE status IN").WithArgs(now, uuid.Nil, 10).
		WillReturnRows(orderRow(pgxmockv3.NewRows(orderColumnNames), id, model.OrderStatusDelivered, now))
	if due, err := repo.ListDueForAutoConfirm(ctx, now, repository.OrderPage{Limit: 10}); err != nil || len(due) != 1 {
		t.Fatalf("unexpected due orders: %v err=%v", due, err)
	}

	mock.ExpectQuery("SELECT (.+) FROM orders WHERE status='SHIPPED'").WithArgs(id, 5).WillReturnError(errors.New("boom"))
	if _, err := repo.ListInTransit(ctx, repository.OrderPage{After: id, Limit: 5}); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestWalletRepository(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := storage.Wallets()
	ctx := context.Background()
	now := time.Now()
	userID := uuid.New()

	mock.ExpectQuery("SELECT user_id, balance::text, updated_at FROM wallets").WithArgs(userID).WillReturnError(pgx.ErrNoRows)
	w, err := repo.Get(ctx, userID)
	if err != nil || !w.Balance.IsZero() {
		t.Fatalf("expected empty wallet, got %+v err=%v", w, err)
	}

	mock.ExpectExec("INSERT INTO wallets").WithArgs(userID).WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT user_id, balance::text, updated_at FROM wallets WHERE user_id=(.+) FOR UPDATE").WithArgs(userID).
		WillReturnRows(pgxmockv3.NewRows([]string{"user_id", "balance", "updated_at"}).AddRow(userID, "150.50", now))
	locked, err := repo.GetForUpdate(ctx, userID)
	if err != nil || !locked.Balance.Equal(decimal.RequireFromString("150.5")) {
		t.Fatalf("unexpected locked wallet %+v err=%v", locked, err)
	}

	mock.ExpectExec("UPDATE wallets SET balance").WithArgs(userID, "200", now).WillReturnResult(pgxmockv3.NewResult("UPDATE", 1))
	if err := repo.SetBalance(ctx, userID, decimal.NewFromInt(200), now); err != nil {
		t.Fatalf("set balance failed: %v", err)
	}

	tx := &model.WalletTransaction{ID: uuid.New(), UserID: userID, Type: model.TransactionCredit, Amount: decimal.NewFromInt(50),
		BalanceBefore: decimal.NewFromInt(150), BalanceAfter: decimal.NewFromInt(200), Description: "Payment", CreatedAt: now}
	mock.ExpectExec("INSERT INTO wallet_transactions").
		WithArgs(tx.ID, userID, model.TransactionCredit, "50", "150", "200", "Payment", (*uuid.UUID)(nil), now).
		WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	if err := repo.AppendTransaction(ctx, tx); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	columns := []string{"id", "user_id", "type", "amount", "balance_before", "balance_after", "description", "order_id", "created_at"}
	mock.ExpectQuery("SELECT (.+) FROM wallet_transactions").WithArgs(userID).
		WillReturnRows(pgxmockv3.NewRows(columns).
			AddRow(uuid.New(), userID, model.TransactionCredit, "100", "0", "100", "Payment", nil, now).
			AddRow(uuid.New(), userID, model.TransactionDebit, "40", "100", "60", "Withdrawal", nil, now))
	ledger, err := repo.Ledger(ctx, userID)
	if err != nil || len(ledger) != 2 {
		t.Fatalf("unexpected ledger %+v err=%v", ledger, err)
	}
	if balance, ok := model.ReplayBalance(ledger); !ok || !balance.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("unexpected replay %s ok=%v", balance, ok)
	}

	mock.ExpectQuery("SELECT (.+) FROM wallet_transactions").WithArgs(userID, 20).
		WillReturnRows(pgxmockv3.NewRows(columns).AddRow(uuid.New(), userID, model.TransactionCredit, "bogus", "0", "100", "Payment", nil, now))
	if _, err := repo.History(ctx, userID, 20); err == nil {
		t.Fatal("expected numeric parse error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestFeeRuleRepository(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := storage.FeeRules()
	ctx := context.Background()
	now := time.Now()
	designer := uuid.New()
	maxOrders := 49

	mock.ExpectQuery("FROM fee_tiers").
		WillReturnRows(pgxmockv3.NewRows([]string{"id", "name", "min_orders", "max_orders", "fee_percentage", "priority", "is_active"}).
			AddRow(uuid.New(), "pro", 10, &maxOrders, "7.50", 2, true))
	tiers, err := repo.Tiers(ctx)
	if err != nil || len(tiers) != 1 || !tiers[0].FeePercentage.Equal(decimal.RequireFromString("7.5")) || *tiers[0].MaxOrders != 49 {
		t.Fatalf("unexpected tiers %+v err=%v", tiers, err)
	}

	mock.ExpectQuery("FROM designer_fee_overrides").WithArgs(designer).
		WillReturnRows(pgxmockv3.NewRows([]string{"id", "designer_id", "fee_percentage", "effective_from", "effective_until", "is_active", "reason"}).
			AddRow(uuid.New(), designer, "5", now, nil, true, strPtr("ambassador")))
	overrides, err := repo.Overrides(ctx, designer)
	if err != nil || len(overrides) != 1 || *overrides[0].Reason != "ambassador" {
		t.Fatalf("unexpected overrides %+v err=%v", overrides, err)
	}

	mock.ExpectQuery("FROM fee_promotional_periods").WillReturnError(errors.New("boom"))
	if _, err := repo.Promotions(ctx); err == nil {
		t.Fatal("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestCatalogRepository(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	repo := storage.Catalog()
	ctx := context.Background()
	itemID := uuid.New()

	mock.ExpectQuery("FROM catalog_items").WithArgs(itemID).
		WillReturnRows(pgxmockv3.NewRows([]string{"id", "designer_id", "title", "list_price", "production_steps"}).
			AddRow(itemID, uuid.New(), "Kaftan", "10000.00", []byte(`["cut","sew"]`)))
	item, err := repo.Item(ctx, itemID)
	if err != nil || len(item.ProductionSteps) != 2 || !item.ListPrice.Equal(decimal.NewFromInt(10000)) {
		t.Fatalf("unexpected item %+v err=%v", item, err)
	}

	mock.ExpectQuery("FROM catalog_items").WithArgs(itemID).WillReturnError(pgx.ErrNoRows)
	if _, err := repo.Item(ctx, itemID); domainErrors.CodeOf(err) != "catalog_item_not_found" {
		t.Fatalf("expected not found, got %v", err)
	}

	addrID, owner := uuid.New(), uuid.New()
	mock.ExpectQuery("FROM addresses").WithArgs(addrID).
		WillReturnRows(pgxmockv3.NewRows([]string{"id", "user_id"}).AddRow(addrID, owner))
	if addr, err := repo.Address(ctx, addrID); err != nil || addr.UserID != owner {
		t.Fatalf("unexpected address %+v err=%v", addr, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}

func TestNotificationAndReminderRepositories(t *testing.T) {
	storage, mock := newMockStorage(t)
	defer mock.Close()
	ctx := context.Background()
	now := time.Now()
	orderID := uuid.New()

	n := &model.Notification{ID: uuid.New(), UserID: uuid.New(), Type: "order_shipped", Title: "Shipped", Message: "On its way",
		Data: map[string]any{"orderId": orderID.String()}, CreatedAt: now}
	mock.ExpectExec("INSERT INTO notifications").WithArgs(n.ID, n.UserID, "order_shipped", "Shipped", "On its way",
		pgxmockv3.AnyArg(), false, now).WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	if err := storage.Notifications().Create(ctx, n); err != nil {
		t.Fatalf("create notification failed: %v", err)
	}

	mock.ExpectQuery("FROM notifications").WithArgs(n.UserID, 10).
		WillReturnRows(pgxmockv3.NewRows([]string{"id", "user_id", "type", "title", "message", "data", "is_read", "created_at"}).
			AddRow(n.ID, n.UserID, "order_shipped", "Shipped", "On its way", []byte(`{"orderId":"x"}`), false, now))
	list, err := storage.Notifications().ListByUser(ctx, n.UserID, 10)
	if err != nil || len(list) != 1 || list[0].Data["orderId"] != "x" {
		t.Fatalf("unexpected notifications %+v err=%v", list, err)
	}

	mock.ExpectExec("INSERT INTO order_reminders").WithArgs(orderID, model.ReminderAutoConfirmWarning, now).
		WillReturnResult(pgxmockv3.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_reminders").WithArgs(orderID, model.ReminderAutoConfirmWarning, now).
		WillReturnResult(pgxmockv3.NewResult("INSERT", 0))
	first, err := storage.Reminders().MarkSent(ctx, orderID, model.ReminderAutoConfirmWarning, now)
	if err != nil || !first {
		t.Fatalf("expected first reminder to be recorded: %v %v", first, err)
	}
	second, err := storage.Reminders().MarkSent(ctx, orderID, model.ReminderAutoConfirmWarning, now)
	if err != nil || second {
		t.Fatalf("expected duplicate reminder to be skipped: %v %v", second, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations not met: %v", err)
	}
}
