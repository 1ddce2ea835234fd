package order

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"

	"eato/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `id::text, user_id::text, items, line_ids, subtotal_cents, tax_cents, delivery_cents, total_cents,
       status, payment_status, sync_state, placed_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by the orders table.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

// Create inserts the order; placed_at is assigned by the database.
func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return nil, err
	}
	lineIDs := o.LineIDs
	if lineIDs == nil {
		lineIDs = []string{}
	}
	lineJSON, err := json.Marshal(lineIDs)
	if err != nil {
		return nil, err
	}
	syncState := o.SyncState
	if syncState == "" {
		syncState = domain.SyncStateComplete
	}

	const q = `
INSERT INTO orders (user_id, items, line_ids, subtotal_cents, tax_cents, delivery_cents, total_cents, status, payment_status, sync_state)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + orderColumns
	created, err := r.scanOrder(r.pool.QueryRow(ctx, q,
		o.UserID,
		itemsJSON,
		lineJSON,
		o.SubtotalCents,
		o.TaxCents,
		o.DeliveryCents,
		o.TotalCents,
		string(o.Status),
		string(o.PaymentStatus),
		string(syncState),
	))
	if err != nil {
		r.logger.Printf("order repo: create user_id=%s error=%v", o.UserID, err)
		return nil, err
	}
	r.logger.Printf("order repo: created id=%s user_id=%s total_cents=%d lines=%d", created.ID, created.UserID, created.TotalCents, len(created.LineIDs))
	return created, nil
}

func (r *postgresRepo) Get(ctx context.Context, userID, id string) (*domain.Order, error) {
	o, err := r.scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 AND id = $2`, userID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY placed_at DESC, id DESC`, userID)
}

func (r *postgresRepo) ListIncomplete(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 AND sync_state = 'incomplete' ORDER BY placed_at ASC`, userID)
}

func (r *postgresRepo) SetSyncState(ctx context.Context, id string, state domain.SyncState) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE orders SET sync_state = $1 WHERE id = $2`, string(state), id)
	if err != nil {
		if isInvalidID(err) {
			return domain.ErrNotFound
		}
		r.logger.Printf("order repo: set sync_state id=%s state=%s error=%v", id, state, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) list(ctx context.Context, q string, userID string) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		if isInvalidID(err) {
			return []domain.Order{}, nil
		}
		r.logger.Printf("order repo: list user_id=%s error=%v", userID, err)
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *postgresRepo) scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var itemsJSON, lineJSON []byte
	var status, payment, syncState string
	if err := row.Scan(
		&o.ID,
		&o.UserID,
		&itemsJSON,
		&lineJSON,
		&o.SubtotalCents,
		&o.TaxCents,
		&o.DeliveryCents,
		&o.TotalCents,
		&status,
		&payment,
		&syncState,
		&o.PlacedAt,
	); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	o.PaymentStatus = domain.PaymentStatus(payment)
	o.SyncState = domain.SyncState(syncState)
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			r.logger.Printf("order repo: decode items id=%s err=%v", o.ID, err)
			return nil, err
		}
	}
	if len(lineJSON) > 0 {
		if err := json.Unmarshal(lineJSON, &o.LineIDs); err != nil {
			r.logger.Printf("order repo: decode line ids id=%s err=%v", o.ID, err)
			return nil, err
		}
	}
	return &o, nil
}

func isInvalidID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
