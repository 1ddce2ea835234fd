package orderline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"eato/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const lineColumns = `id::text, user_id::text, menu_item_id, menu_item_name, unit_price_cents, quantity, status, created_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a Repository backed by the order_lines table.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Query(ctx context.Context, f Filter) ([]domain.OrderLine, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	q := `SELECT ` + lineColumns + ` FROM order_lines`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		if isInvalidID(err) {
			return []domain.OrderLine{}, nil
		}
		r.logger.Printf("orderline repo: query user_id=%s status=%s error=%v", f.UserID, f.Status, err)
		return nil, err
	}
	defer rows.Close()

	lines := []domain.OrderLine{}
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("orderline repo: query rows user_id=%s error=%v", f.UserID, err)
		return nil, err
	}
	return lines, nil
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.OrderLine, error) {
	line, err := scanLine(r.pool.QueryRow(ctx, `SELECT `+lineColumns+` FROM order_lines WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("orderline repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return line, nil
}

func (r *postgresRepo) Create(ctx context.Context, line domain.OrderLine) (*domain.OrderLine, error) {
	const q = `
INSERT INTO order_lines (user_id, menu_item_id, menu_item_name, unit_price_cents, quantity, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + lineColumns
	status := line.Status
	if status == "" {
		status = domain.LineStatusPending
	}
	created, err := scanLine(r.pool.QueryRow(ctx, q,
		line.UserID,
		line.MenuItemID,
		line.MenuItemName,
		line.UnitPriceCents,
		line.Quantity,
		string(status),
	))
	if err != nil {
		r.logger.Printf("orderline repo: create user_id=%s item=%s error=%v", line.UserID, line.MenuItemID, err)
		return nil, err
	}
	r.logger.Printf("orderline repo: created id=%s user_id=%s item=%s qty=%d", created.ID, created.UserID, created.MenuItemID, created.Quantity)
	return created, nil
}

func (r *postgresRepo) Update(ctx context.Context, id string, p Patch) error {
	var (
		sets []string
		args []interface{}
	)
	if p.Quantity != nil {
		args = append(args, *p.Quantity)
		sets = append(sets, fmt.Sprintf("quantity = $%d", len(args)))
	}
	if p.Status != nil {
		args = append(args, string(*p.Status))
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	q := fmt.Sprintf(`UPDATE order_lines SET %s, updated_at = now() WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	cmd, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		if isInvalidID(err) {
			return domain.ErrNotFound
		}
		r.logger.Printf("orderline repo: update id=%s error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM order_lines WHERE id = $1`, id)
	if err != nil {
		if isInvalidID(err) {
			return domain.ErrNotFound
		}
		r.logger.Printf("orderline repo: delete id=%s error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanLine(row pgx.Row) (*domain.OrderLine, error) {
	var line domain.OrderLine
	var status string
	if err := row.Scan(
		&line.ID,
		&line.UserID,
		&line.MenuItemID,
		&line.MenuItemName,
		&line.UnitPriceCents,
		&line.Quantity,
		&status,
		&line.CreatedAt,
	); err != nil {
		return nil, err
	}
	line.Status = domain.LineStatus(status)
	return &line, nil
}

// isInvalidID reports a malformed uuid literal, which can never match a row.
func isInvalidID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
