package order

import (
	"context"

	"eato/internal/domain"
)

// Repository persists placed orders.
type Repository interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	Get(ctx context.Context, userID, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListIncomplete(ctx context.Context, userID string) ([]domain.Order, error)
	SetSyncState(ctx context.Context, id string, state domain.SyncState) error
}
