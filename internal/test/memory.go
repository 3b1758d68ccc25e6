package test

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/errors"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/repository"
)

// MemoryStore is an in-memory repository.Transactor. Transactions are
// serialised and rolled back by restoring a snapshot.
type MemoryStore struct {
	txMu   sync.Mutex
	dataMu sync.Mutex
	data   memoryData

	// FailOn, when set, is consulted before every repository call with the
	// operation name (for example "wallets.AppendTransaction").
	FailOn func(op string) error
}

type reminderKey struct {
	orderID uuid.UUID
	kind    model.ReminderKind
}

type memoryData struct {
	offers        map[uuid.UUID]model.Offer
	orders        map[uuid.UUID]model.Order
	wallets       map[uuid.UUID]model.Wallet
	transactions  []model.WalletTransaction
	items         map[uuid.UUID]model.CatalogItem
	addresses     map[uuid.UUID]model.Address
	sequences     map[int]int64
	reminders     map[reminderKey]time.Time
	notifications []model.Notification
	overrides     []model.DesignerFeeOverride
	promotions    []model.FeePromotionalPeriod
	tiers         []model.FeeTier
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: memoryData{
		offers:    make(map[uuid.UUID]model.Offer),
		orders:    make(map[uuid.UUID]model.Order),
		wallets:   make(map[uuid.UUID]model.Wallet),
		items:     make(map[uuid.UUID]model.CatalogItem),
		addresses: make(map[uuid.UUID]model.Address),
		sequences: make(map[int]int64),
		reminders: make(map[reminderKey]time.Time),
	}}
}

func (d memoryData) clone() memoryData {
	c := memoryData{
		offers:        make(map[uuid.UUID]model.Offer, len(d.offers)),
		orders:        make(map[uuid.UUID]model.Order, len(d.orders)),
		wallets:       make(map[uuid.UUID]model.Wallet, len(d.wallets)),
		transactions:  append([]model.WalletTransaction(nil), d.transactions...),
		items:         d.items,
		addresses:     d.addresses,
		sequences:     make(map[int]int64, len(d.sequences)),
		reminders:     make(map[reminderKey]time.Time, len(d.reminders)),
		notifications: append([]model.Notification(nil), d.notifications...),
		overrides:     d.overrides,
		promotions:    d.promotions,
		tiers:         d.tiers,
	}
	for k, v := range d.offers {
		c.offers[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = v
	}
	for k, v := range d.wallets {
		c.wallets[k] = v
	}
	for k, v := range d.sequences {
		c.sequences[k] = v
	}
	for k, v := range d.reminders {
		c.reminders[k] = v
	}
	return c
}

var _ repository.Transactor = (*MemoryStore)(nil)

// WithinTransaction runs fn with exclusive access and rolls back on error.
func (s *MemoryStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos repository.Factory) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.dataMu.Lock()
	snapshot := s.data.clone()
	s.dataMu.Unlock()

	if err := fn(ctx, s); err != nil {
		s.dataMu.Lock()
		s.data = snapshot
		s.dataMu.Unlock()
		return err
	}
	return nil
}

func (s *MemoryStore) Offers() repository.OfferRepository     { return memoryOffers{s} }
func (s *MemoryStore) Orders() repository.OrderRepository     { return memoryOrders{s} }
func (s *MemoryStore) Wallets() repository.WalletRepository   { return memoryWallets{s} }
func (s *MemoryStore) FeeRules() repository.FeeRuleRepository { return memoryFees{s} }
func (s *MemoryStore) Catalog() repository.CatalogRepository  { return memoryCatalog{s} }
func (s *MemoryStore) Notifications() repository.NotificationRepository {
	return memoryNotifications{s}
}
func (s *MemoryStore) Reminders() repository.ReminderRepository { return memoryReminders{s} }

func (s *MemoryStore) do(op string, fn func(d *memoryData) error) error {
	if s.FailOn != nil {
		if err := s.FailOn(op); err != nil {
			return err
		}
	}
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return fn(&s.data)
}

// AddItem seeds a catalog item.
func (s *MemoryStore) AddItem(item model.CatalogItem) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.data.items[item.ID] = item
}

// AddAddress seeds a shipping address.
func (s *MemoryStore) AddAddress(addr model.Address) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.data.addresses[addr.ID] = addr
}

// PutOffer stores offer as is.
func (s *MemoryStore) PutOffer(o model.Offer) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.data.offers[o.ID] = o
}

// PutOrder stores order as is.
func (s *MemoryStore) PutOrder(o model.Order) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.data.orders[o.ID] = copyOrder(o)
}

// SetFeeRules replaces the fee configuration.
func (s *MemoryStore) SetFeeRules(overrides []model.DesignerFeeOverride, promotions []model.FeePromotionalPeriod, tiers []model.FeeTier) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.data.overrides, s.data.promotions, s.data.tiers = overrides, promotions, tiers
}

// Transactions returns a copy of the wallet log in insertion order.
func (s *MemoryStore) Transactions() []model.WalletTransaction {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return append([]model.WalletTransaction(nil), s.data.transactions...)
}

// NotificationsSent returns a copy of the persisted notifications.
func (s *MemoryStore) NotificationsSent() []model.Notification {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return append([]model.Notification(nil), s.data.notifications...)
}

func copyOrder(o model.Order) model.Order {
	o.ProductionSteps = append([]model.ProductionStep(nil), o.ProductionSteps...)
	return o
}

type memoryOffers struct{ s *MemoryStore }

func (r memoryOffers) Create(_ context.Context, o *model.Offer) error {
	return r.s.do("offers.Create", func(d *memoryData) error {
		d.offers[o.ID] = *o
		return nil
	})
}

func (r memoryOffers) Get(_ context.Context, id uuid.UUID) (*model.Offer, error) {
	var out *model.Offer
	err := r.s.do("offers.Get", func(d *memoryData) error {
		o, ok := d.offers[id]
		if !ok {
			return domainErrors.NotFound("offer_not_found", "offer %s not found", id)
		}
		out = &o
		return nil
	})
	return out, err
}

func (r memoryOffers) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	return r.Get(ctx, id)
}

func (r memoryOffers) Update(_ context.Context, o *model.Offer) error {
	return r.s.do("offers.Update", func(d *memoryData) error {
		if _, ok := d.offers[o.ID]; !ok {
			return domainErrors.NotFound("offer_not_found", "offer %s not found", o.ID)
		}
		d.offers[o.ID] = *o
		return nil
	})
}

func (r memoryOffers) List(_ context.Context, f repository.OfferFilter) ([]model.Offer, error) {
	var out []model.Offer
	err := r.s.do("offers.List", func(d *memoryData) error {
		for _, o := range d.offers {
			if o.UserOf(f.Party) != f.UserID {
				continue
			}
			if f.Status != nil && o.Status != *f.Status {
				continue
			}
			out = append(out, o)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		return nil
	})
	return out, err
}

func (r memoryOffers) ExpireOverdue(_ context.Context, now time.Time, limit int) ([]model.Offer, error) {
	var out []model.Offer
	err := r.s.do("offers.ExpireOverdue", func(d *memoryData) error {
		for id, o := range d.offers {
			if len(out) == limit {
				break
			}
			if !o.Status.IsOpen() || !o.ExpiresAt.Before(now) {
				continue
			}
			o.Status = model.OfferStatusExpired
			o.AwaitingResponseFrom = nil
			o.UpdatedAt = now
			d.offers[id] = o
			out = append(out, o)
		}
		return nil
	})
	return out, err
}

type memoryOrders struct{ s *MemoryStore }

func (r memoryOrders) Create(_ context.Context, o *model.Order) (bool, error) {
	created := false
	err := r.s.do("orders.Create", func(d *memoryData) error {
		for _, existing := range d.orders {
			if existing.OfferID == o.OfferID {
				return nil
			}
			if existing.PaymentReference == o.PaymentReference {
				return domainErrors.Conflict("payment_already_used", "payment %s already opened another order", o.PaymentReference)
			}
			if existing.OrderNumber == o.OrderNumber {
				return domainErrors.Conflict("order_number_taken", "order number %s already used", o.OrderNumber)
			}
		}
		d.orders[o.ID] = copyOrder(*o)
		created = true
		return nil
	})
	return created, err
}

func (r memoryOrders) find(op string, match func(model.Order) bool) (*model.Order, error) {
	var out *model.Order
	err := r.s.do(op, func(d *memoryData) error {
		for _, o := range d.orders {
			if match(o) {
				c := copyOrder(o)
				out = &c
				return nil
			}
		}
		return domainErrors.NotFound("order_not_found", "order not found")
	})
	return out, err
}

func (r memoryOrders) Get(_ context.Context, id uuid.UUID) (*model.Order, error) {
	return r.find("orders.Get", func(o model.Order) bool { return o.ID == id })
}

func (r memoryOrders) GetForUpdate(_ context.Context, id uuid.UUID) (*model.Order, error) {
	return r.find("orders.GetForUpdate", func(o model.Order) bool { return o.ID == id })
}

func (r memoryOrders) GetByOfferID(_ context.Context, offerID uuid.UUID) (*model.Order, error) {
	return r.find("orders.GetByOfferID", func(o model.Order) bool { return o.OfferID == offerID })
}

func (r memoryOrders) Update(_ context.Context, o *model.Order) error {
	return r.s.do("orders.Update", func(d *memoryData) error {
		if _, ok := d.orders[o.ID]; !ok {
			return domainErrors.NotFound("order_not_found", "order %s not found", o.ID)
		}
		d.orders[o.ID] = copyOrder(*o)
		return nil
	})
}

func (r memoryOrders) filter(op string, limit int, keep func(model.Order) bool, less func(a, b model.Order) bool) ([]model.Order, error) {
	var out []model.Order
	err := r.s.do(op, func(d *memoryData) error {
		for _, o := range d.orders {
			if keep(o) {
				out = append(out, copyOrder(o))
			}
		}
		sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return nil
	})
	return out, err
}

func (r memoryOrders) List(_ context.Context, f repository.OrderFilter) ([]model.Order, error) {
	return r.filter("orders.List", 0, func(o model.Order) bool {
		user := o.CustomerID
		if f.Party == model.PartyDesigner {
			user = o.DesignerID
		}
		return user == f.UserID && (f.Status == nil || o.Status == *f.Status)
	}, func(a, b model.Order) bool { return a.CreatedAt.After(b.CreatedAt) })
}

func (r memoryOrders) NextSequence(_ context.Context, year int) (int64, error) {
	var seq int64
	err := r.s.do("orders.NextSequence", func(d *memoryData) error {
		d.sequences[year]++
		seq = d.sequences[year]
		return nil
	})
	return seq, err
}

func (r memoryOrders) CountCompletedByDesigner(_ context.Context, designerID uuid.UUID) (int, error) {
	count := 0
	err := r.s.do("orders.CountCompletedByDesigner", func(d *memoryData) error {
		for _, o := range d.orders {
			if o.DesignerID == designerID && o.Status == model.OrderStatusCompleted {
				count++
			}
		}
		return nil
	})
	return count, err
}

// scan returns one keyset page of matching orders in id order.
func (r memoryOrders) scan(op string, page repository.OrderPage, keep func(model.Order) bool) ([]model.Order, error) {
	return r.filter(op, page.Limit, func(o model.Order) bool {
		return bytes.Compare(o.ID[:], page.After[:]) > 0 && keep(o)
	}, func(a, b model.Order) bool { return bytes.Compare(a.ID[:], b.ID[:]) < 0 })
}

func (r memoryOrders) ListInTransit(_ context.Context, page repository.OrderPage) ([]model.Order, error) {
	return r.scan("orders.ListInTransit", page, func(o model.Order) bool {
		return o.Status == model.OrderStatusShipped && o.DeliveredAt == nil && o.TrackingNumber != nil
	})
}

func awaitingSettlement(o model.Order) bool {
	return o.Status.AwaitsConfirmation() && o.PaymentReleasedAt == nil && o.AutoConfirmAt != nil
}

func (r memoryOrders) ListDueForAutoConfirm(_ context.Context, now time.Time, page repository.OrderPage) ([]model.Order, error) {
	return r.scan("orders.ListDueForAutoConfirm", page, func(o model.Order) bool {
		return awaitingSettlement(o) && !o.AutoConfirmAt.After(now)
	})
}

func (r memoryOrders) ListAutoConfirmBetween(_ context.Context, from, to time.Time, page repository.OrderPage) ([]model.Order, error) {
	return r.scan("orders.ListAutoConfirmBetween", page, func(o model.Order) bool {
		return awaitingSettlement(o) && !o.AutoConfirmAt.Before(from) && !o.AutoConfirmAt.After(to)
	})
}

func (r memoryOrders) ListWithOpenDeadline(_ context.Context, page repository.OrderPage) ([]model.Order, error) {
	return r.scan("orders.ListWithOpenDeadline", page, func(o model.Order) bool {
		return o.Status.InProduction() && o.Deadline != nil
	})
}

type memoryWallets struct{ s *MemoryStore }

func (r memoryWallets) Get(_ context.Context, userID uuid.UUID) (*model.Wallet, error) {
	var out *model.Wallet
	err := r.s.do("wallets.Get", func(d *memoryData) error {
		w, ok := d.wallets[userID]
		if !ok {
			w = model.Wallet{UserID: userID, Balance: decimal.Zero}
		}
		out = &w
		return nil
	})
	return out, err
}

func (r memoryWallets) GetForUpdate(_ context.Context, userID uuid.UUID) (*model.Wallet, error) {
	var out *model.Wallet
	err := r.s.do("wallets.GetForUpdate", func(d *memoryData) error {
		w, ok := d.wallets[userID]
		if !ok {
			w = model.Wallet{UserID: userID, Balance: decimal.Zero}
			d.wallets[userID] = w
		}
		out = &w
		return nil
	})
	return out, err
}

func (r memoryWallets) SetBalance(_ context.Context, userID uuid.UUID, balance decimal.Decimal, at time.Time) error {
	return r.s.do("wallets.SetBalance", func(d *memoryData) error {
		if balance.IsNegative() {
			return domainErrors.InsufficientBalance("negative_balance", "balance cannot be negative")
		}
		d.wallets[userID] = model.Wallet{UserID: userID, Balance: balance, UpdatedAt: at}
		return nil
	})
}

func (r memoryWallets) AppendTransaction(_ context.Context, tx *model.WalletTransaction) error {
	return r.s.do("wallets.AppendTransaction", func(d *memoryData) error {
		d.transactions = append(d.transactions, *tx)
		return nil
	})
}

func (r memoryWallets) History(_ context.Context, userID uuid.UUID, limit int) ([]model.WalletTransaction, error) {
	var out []model.WalletTransaction
	err := r.s.do("wallets.History", func(d *memoryData) error {
		for i := len(d.transactions) - 1; i >= 0 && len(out) < limit; i-- {
			if d.transactions[i].UserID == userID {
				out = append(out, d.transactions[i])
			}
		}
		return nil
	})
	return out, err
}

func (r memoryWallets) Ledger(_ context.Context, userID uuid.UUID) ([]model.WalletTransaction, error) {
	var out []model.WalletTransaction
	err := r.s.do("wallets.Ledger", func(d *memoryData) error {
		for _, tx := range d.transactions {
			if tx.UserID == userID {
				out = append(out, tx)
			}
		}
		return nil
	})
	return out, err
}

type memoryFees struct{ s *MemoryStore }

func (r memoryFees) Overrides(_ context.Context, designerID uuid.UUID) ([]model.DesignerFeeOverride, error) {
	var out []model.DesignerFeeOverride
	err := r.s.do("fees.Overrides", func(d *memoryData) error {
		for _, o := range d.overrides {
			if o.DesignerID == designerID {
				out = append(out, o)
			}
		}
		return nil
	})
	return out, err
}

func (r memoryFees) Promotions(context.Context) ([]model.FeePromotionalPeriod, error) {
	var out []model.FeePromotionalPeriod
	err := r.s.do("fees.Promotions", func(d *memoryData) error {
		out = append(out, d.promotions...)
		return nil
	})
	return out, err
}

func (r memoryFees) Tiers(context.Context) ([]model.FeeTier, error) {
	var out []model.FeeTier
	err := r.s.do("fees.Tiers", func(d *memoryData) error {
		out = append(out, d.tiers...)
		return nil
	})
	return out, err
}

type memoryCatalog struct{ s *MemoryStore }

func (r memoryCatalog) Item(_ context.Context, id uuid.UUID) (*model.CatalogItem, error) {
	var out *model.CatalogItem
	err := r.s.do("catalog.Item", func(d *memoryData) error {
		item, ok := d.items[id]
		if !ok {
			return domainErrors.NotFound("catalog_item_not_found", "catalog item %s not found", id)
		}
		out = &item
		return nil
	})
	return out, err
}

func (r memoryCatalog) Address(_ context.Context, id uuid.UUID) (*model.Address, error) {
	var out *model.Address
	err := r.s.do("catalog.Address", func(d *memoryData) error {
		addr, ok := d.addresses[id]
		if !ok {
			return domainErrors.NotFound("address_not_found", "address %s not found", id)
		}
		out = &addr
		return nil
	})
	return out, err
}

type memoryNotifications struct{ s *MemoryStore }

func (r memoryNotifications) Create(_ context.Context, n *model.Notification) error {
	return r.s.do("notifications.Create", func(d *memoryData) error {
		d.notifications = append(d.notifications, *n)
		return nil
	})
}

func (r memoryNotifications) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	var out []model.Notification
	err := r.s.do("notifications.ListByUser", func(d *memoryData) error {
		for i := len(d.notifications) - 1; i >= 0 && len(out) < limit; i-- {
			if d.notifications[i].UserID == userID {
				out = append(out, d.notifications[i])
			}
		}
		return nil
	})
	return out, err
}

type memoryReminders struct{ s *MemoryStore }

func (r memoryReminders) MarkSent(_ context.Context, orderID uuid.UUID, kind model.ReminderKind, at time.Time) (bool, error) {
	sent := false
	err := r.s.do("reminders.MarkSent", func(d *memoryData) error {
		key := reminderKey{orderID: orderID, kind: kind}
		if _, ok := d.reminders[key]; ok {
			return nil
		}
		d.reminders[key] = at
		sent = true
		return nil
	})
	return sent, err
}
