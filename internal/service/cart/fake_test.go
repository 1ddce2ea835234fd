package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"eato/internal/domain"
	"eato/internal/repository/orderline"
)

var errBoom = errors.New("boom")

// memLines is an in-memory order-line store with per-line failure injection.
type memLines struct {
	mu         sync.Mutex
	seq        int
	lines      map[string]domain.OrderLine
	failQuery  error
	failGet    map[string]bool
	failUpdate map[string]bool
	failDelete map[string]bool
	queries    int
	writes     int
}

func newMemLines() *memLines {
	return &memLines{
		lines:      make(map[string]domain.OrderLine),
		failGet:    make(map[string]bool),
		failUpdate: make(map[string]bool),
		failDelete: make(map[string]bool),
	}
}

// seed inserts a pending line and returns its id.
func (m *memLines) seed(uid, name string, price int64, qty int) string {
	l, _ := m.Create(context.Background(), domain.OrderLine{
		UserID:         uid,
		MenuItemID:     "item-" + name,
		MenuItemName:   name,
		UnitPriceCents: price,
		Quantity:       qty,
		Status:         domain.LineStatusPending,
	})
	return l.ID
}

func (m *memLines) Query(_ context.Context, f orderline.Filter) ([]domain.OrderLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	if m.failQuery != nil {
		return nil, m.failQuery
	}
	out := []domain.OrderLine{}
	for _, l := range m.lines {
		if f.UserID != "" && l.UserID != f.UserID {
			continue
		}
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memLines) Get(_ context.Context, id string) (*domain.OrderLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet[id] {
		return nil, errBoom
	}
	l, ok := m.lines[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &l, nil
}

func (m *memLines) Create(_ context.Context, l domain.OrderLine) (*domain.OrderLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	l.ID = fmt.Sprintf("line-%d", m.seq)
	l.CreatedAt = time.Unix(int64(m.seq), 0)
	m.lines[l.ID] = l
	return &l, nil
}

func (m *memLines) Update(_ context.Context, id string, p orderline.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.failUpdate[id] {
		return errBoom
	}
	l, ok := m.lines[id]
	if !ok {
		return domain.ErrNotFound
	}
	if p.Quantity != nil {
		l.Quantity = *p.Quantity
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	m.lines[id] = l
	return nil
}

func (m *memLines) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.failDelete[id] {
		return errBoom
	}
	if _, ok := m.lines[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.lines, id)
	return nil
}

func (m *memLines) quantity(id string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lines[id]
	return l.Quantity, ok
}

func (m *memLines) status(id string) domain.LineStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lines[id].Status
}

type memOrders struct {
	mu         sync.Mutex
	seq        int
	orders     map[string]domain.Order
	failCreate error
	failList   error
	failSync   error
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[string]domain.Order)}
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	o.LineIDs = append([]string(nil), o.LineIDs...)
	return o
}

func (m *memOrders) Create(_ context.Context, o domain.Order) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return nil, m.failCreate
	}
	m.seq++
	o = cloneOrder(o)
	o.ID = fmt.Sprintf("order-%d", m.seq)
	o.PlacedAt = time.Unix(int64(m.seq), 0)
	m.orders[o.ID] = o
	out := cloneOrder(o)
	return &out, nil
}

func (m *memOrders) Get(_ context.Context, userID, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.UserID != userID {
		return nil, domain.ErrNotFound
	}
	out := cloneOrder(o)
	return &out, nil
}

func (m *memOrders) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	return m.list(userID, false)
}

func (m *memOrders) ListIncomplete(_ context.Context, userID string) ([]domain.Order, error) {
	return m.list(userID, true)
}

func (m *memOrders) list(userID string, incompleteOnly bool) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList != nil {
		return nil, m.failList
	}
	out := []domain.Order{}
	for _, o := range m.orders {
		if o.UserID != userID {
			continue
		}
		if incompleteOnly && o.SyncState != domain.SyncStateIncomplete {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlacedAt.After(out[j].PlacedAt) })
	return out, nil
}

func (m *memOrders) SetSyncState(_ context.Context, id string, state domain.SyncState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSync != nil {
		return m.failSync
	}
	o, ok := m.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.SyncState = state
	m.orders[id] = o
	return nil
}

type stubIdentity struct {
	user *domain.User
}

func (s stubIdentity) CurrentUser(context.Context) (*domain.User, bool) {
	return s.user, s.user != nil
}

type stubMenu struct {
	items map[string]domain.MenuItem
}

func (s stubMenu) GetRaw(_ context.Context, id string) (*domain.MenuItem, error) {
	it, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &it, nil
}

type fixture struct {
	svc    *Service
	lines  *memLines
	orders *memOrders
	uid    string
}

func newFixture() *fixture {
	lines := newMemLines()
	orders := newMemOrders()
	menu := stubMenu{items: map[string]domain.MenuItem{
		"m1": {ID: "m1", Name: "Pad Thai", PriceCents: 1250},
		"m2": {ID: "m2", Name: "Spring Rolls", PriceCents: 500},
	}}
	svc := New(Backend{
		Lines:    lines,
		Orders:   orders,
		Identity: stubIdentity{user: &domain.User{ID: "u1", Email: "u1@example.com"}},
	}, menu, nil, Options{MaxConcurrency: 4})
	return &fixture{svc: svc, lines: lines, orders: orders, uid: "u1"}
}

func anonymous(f *fixture) *Service {
	return New(Backend{Lines: f.lines, Orders: f.orders, Identity: stubIdentity{}}, stubMenu{}, nil, Options{})
}
