package app

import (
	"context"
	"sync"
	"time"

	"github.com/Badawy24/Flash-Sale-Checkout/internal/domain"
)

// memStore is an in-memory stand-in for the postgres repositories, shared by
// the service tests in this package. WithTx serializes transactions with a
// mutex, which models the row-lock serialization the real store provides for
// tests that hammer a single product.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	products map[string]domain.Product
	holds    map[string]domain.Hold
	orders   map[string]domain.Order

	// createOrderHook, when set, runs before an insert so tests can model a
	// concurrent checkout winning the race.
	createOrderHook func(order domain.Order) error
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[string]domain.Product),
		holds:    make(map[string]domain.Hold),
		orders:   make(map[string]domain.Order),
	}
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

func (s *memStore) CreateProduct(_ context.Context, product domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[product.ID] = product
	return nil
}

func (s *memStore) GetProduct(_ context.Context, id string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func (s *memStore) GetProductForUpdate(ctx context.Context, id string) (domain.Product, error) {
	return s.GetProduct(ctx, id)
}

func (s *memStore) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *memStore) UpdateStock(_ context.Context, id string, stock, reserved int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Stock = stock
	p.Reserved = reserved
	s.products[id] = p
	return nil
}

func (s *memStore) CreateHold(_ context.Context, hold domain.Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[hold.ProductID]; !ok {
		return domain.ErrProductNotFound
	}
	s.holds[hold.ID] = hold
	return nil
}

func (s *memStore) GetHold(_ context.Context, id string) (domain.Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[id]
	if !ok {
		return domain.Hold{}, domain.ErrHoldNotFound
	}
	return h, nil
}

func (s *memStore) GetActiveHoldForUpdate(_ context.Context, id, userID string, now time.Time) (domain.Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[id]
	if !ok || h.UserID != userID || h.Status != domain.HoldStatusActive || h.Lapsed(now) {
		return domain.Hold{}, domain.ErrHoldNotFound
	}
	return h, nil
}

func (s *memStore) LockActiveHold(_ context.Context, id string) (domain.Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[id]
	if !ok || h.Status != domain.HoldStatusActive {
		return domain.Hold{}, domain.ErrHoldNotFound
	}
	return h, nil
}

func (s *memStore) ListExpiredActiveHolds(_ context.Context, now time.Time) ([]domain.Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Hold
	for _, h := range s.holds {
		if h.Status == domain.HoldStatusActive && h.Lapsed(now) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *memStore) UpdateHoldStatus(_ context.Context, id string, status domain.HoldStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[id]
	if !ok {
		return domain.ErrHoldNotFound
	}
	h.Status = status
	s.holds[id] = h
	return nil
}

func (s *memStore) CreateOrder(_ context.Context, order domain.Order) error {
	if s.createOrderHook != nil {
		if err := s.createOrderHook(order); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.HoldID == order.HoldID {
			return domain.ErrHoldAlreadyUsed
		}
	}
	s.orders[order.ID] = order
	return nil
}

func (s *memStore) GetOrderForUpdate(_ context.Context, id string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

func (s *memStore) GetOrderByHoldID(_ context.Context, holdID string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.HoldID == holdID {
			o := o
			return &o, nil
		}
	}
	return nil, nil
}

func (s *memStore) GetOrderByPaymentReference(_ context.Context, key string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.PaymentReference == key {
			o := o
			return &o, nil
		}
	}
	return nil, nil
}

func (s *memStore) UpdateOrderStatus(_ context.Context, id string, status domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	s.orders[id] = o
	return nil
}

func (s *memStore) SetPaymentReference(_ context.Context, id, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.PaymentReference = key
	s.orders[id] = o
	return nil
}

func (s *memStore) product(id string) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

func (s *memStore) hold(id string) domain.Hold {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holds[id]
}

func (s *memStore) order(id string) domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id]
}

func (s *memStore) holdCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.holds)
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// recordingInvalidator captures cache invalidations issued by the ledger.
type recordingInvalidator struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, productID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, productID)
}

func (r *recordingInvalidator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}
