package httpserver

import (
	"context"
	"io"
	"log"

	"eato/internal/domain"
	authsvc "eato/internal/service/auth"
)

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type stubAuthSvc struct {
	user       *domain.User
	signUpErr  error
	signInErr  error
	lookupErr  error
	signedOut  string
	lastSignUp authsvc.SignUpInput
}

func (s *stubAuthSvc) SignUp(_ context.Context, in authsvc.SignUpInput) (*domain.User, string, error) {
	s.lastSignUp = in
	if s.signUpErr != nil {
		return nil, "", s.signUpErr
	}
	return s.user, "tok-new", nil
}

func (s *stubAuthSvc) SignIn(_ context.Context, _, _ string) (*domain.User, string, error) {
	if s.signInErr != nil {
		return nil, "", s.signInErr
	}
	return s.user, "tok-in", nil
}

func (s *stubAuthSvc) SignOut(_ context.Context, token string) error {
	s.signedOut = token
	return nil
}

func (s *stubAuthSvc) LookupByToken(_ context.Context, token string) (*domain.User, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	if token != "good" || s.user == nil {
		return nil, authsvc.ErrInvalidToken
	}
	return s.user, nil
}

func (s *stubAuthSvc) SessionTTLSeconds() int { return 3600 }

type stubMenuSvc struct {
	items []domain.MenuItem
	err   error
}

func (s *stubMenuSvc) List(_ context.Context) ([]domain.MenuItem, error) {
	return s.items, s.err
}

func (s *stubMenuSvc) Get(_ context.Context, id string) (*domain.MenuItem, error) {
	for _, it := range s.items {
		if it.ID == id {
			clone := it
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

type stubCartSvc struct {
	entries      []domain.CartEntry
	loadErr      error
	addErr       error
	reconcileErr error
	removeErr    error
	checkoutID   string
	checkoutErr  error
	orders       []domain.Order
	ordersErr    error

	reconciled []domain.CartEntry
	removed    domain.CartEntry
	added      string
	addedQty   int
	seenUser   *domain.User
}

func (s *stubCartSvc) Load(ctx context.Context) ([]domain.CartEntry, error) {
	s.seenUser, _ = authsvc.FromContext(ctx)
	return s.entries, s.loadErr
}

func (s *stubCartSvc) AddItem(_ context.Context, menuItemID string, quantity int) (*domain.OrderLine, error) {
	s.added, s.addedQty = menuItemID, quantity
	if s.addErr != nil {
		return nil, s.addErr
	}
	return &domain.OrderLine{ID: "line-1", MenuItemID: menuItemID, Quantity: quantity}, nil
}

func (s *stubCartSvc) Reconcile(_ context.Context, entries []domain.CartEntry) error {
	s.reconciled = entries
	return s.reconcileErr
}

func (s *stubCartSvc) RemoveEntry(_ context.Context, entry domain.CartEntry) error {
	s.removed = entry
	return s.removeErr
}

func (s *stubCartSvc) Checkout(_ context.Context) (string, error) {
	return s.checkoutID, s.checkoutErr
}

func (s *stubCartSvc) Orders(_ context.Context) ([]domain.Order, error) {
	return s.orders, s.ordersErr
}

func (s *stubCartSvc) Order(_ context.Context, id string) (*domain.Order, error) {
	for _, o := range s.orders {
		if o.ID == id {
			clone := o
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}
