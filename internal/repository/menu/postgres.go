package menu

import (
	"context"
	"errors"
	"io"
	"log"

	"eato/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.MenuItem, error) {
	const q = `
SELECT id::text, key, name, COALESCE(description, ''), category, price_cents, image, created_at
FROM menu_items
ORDER BY category ASC, name ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Printf("menu repo: list error=%v", err)
		return nil, err
	}
	defer rows.Close()

	items := []domain.MenuItem{}
	for rows.Next() {
		var m domain.MenuItem
		if err := rows.Scan(&m.ID, &m.Key, &m.Name, &m.Description, &m.Category, &m.PriceCents, &m.Image, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("menu repo: list rows error=%v", err)
		return nil, err
	}
	return items, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.MenuItem, error) {
	const q = `
SELECT id::text, key, name, COALESCE(description, ''), category, price_cents, image, created_at
FROM menu_items
WHERE id = $1
`
	var m domain.MenuItem
	err := r.pool.QueryRow(ctx, q, id).Scan(&m.ID, &m.Key, &m.Name, &m.Description, &m.Category, &m.PriceCents, &m.Image, &m.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, pgx.ErrNoRows) || (errors.As(err, &pgErr) && pgErr.Code == "22P02") {
			r.logger.Printf("menu repo: get id=%s not found", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("menu repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return &m, nil
}

// Upsert inserts or updates a menu item keyed by its stable key.
func (r *postgresRepo) Upsert(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	const q = `
INSERT INTO menu_items (key, name, description, category, price_cents, image)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
ON CONFLICT (key) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    category = EXCLUDED.category,
    price_cents = EXCLUDED.price_cents,
    image = EXCLUDED.image
RETURNING id::text, created_at
`
	res := item
	err := r.pool.QueryRow(ctx, q,
		item.Key,
		item.Name,
		item.Description,
		item.Category,
		item.PriceCents,
		item.Image,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Printf("menu repo: upsert key=%s error=%v", item.Key, err)
		return nil, err
	}
	r.logger.Printf("menu repo: upserted key=%s id=%s", res.Key, res.ID)
	return &res, nil
}
