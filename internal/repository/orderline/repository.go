package orderline

import (
	"context"

	"eato/internal/domain"
)

// Filter selects lines by equality on owner and status. Empty fields match everything.
type Filter struct {
	UserID string
	Status domain.LineStatus
}

// Patch carries the fields to overwrite on a line. Nil fields are left untouched.
type Patch struct {
	Quantity *int
	Status   *domain.LineStatus
}

// Repository is the order-line document store consumed by the cart core.
type Repository interface {
	Query(ctx context.Context, f Filter) ([]domain.OrderLine, error)
	Get(ctx context.Context, id string) (*domain.OrderLine, error)
	Create(ctx context.Context, line domain.OrderLine) (*domain.OrderLine, error)
	Update(ctx context.Context, id string, p Patch) error
	Delete(ctx context.Context, id string) error
}
