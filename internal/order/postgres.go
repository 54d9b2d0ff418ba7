package order

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/forjalabs/forja/internal/domain"
)

// PostgresRepository stores orders in Postgres. Monetary columns are
// numeric and travel as strings so no precision is lost in transit.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const orderColumns = `id, session_id, items, subtotal::text, shipping_cost::text, tax::text,
	discount::text, total::text, currency, coupon_code, payment_intent_id, status, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, o *Order) error {
	const op = "order.postgres.create"

	items, err := json.Marshal(o.Items)
	if err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "Unable to encode order items")
	}

	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now

	_, err = r.pool.Exec(ctx, `
		INSERT INTO orders (
			id, session_id, items, subtotal, shipping_cost, tax,
			discount, total, currency, coupon_code, payment_intent_id,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		o.ID, o.SessionID, items,
		o.Subtotal.String(), o.ShippingCost.String(), o.Tax.String(),
		o.Discount.String(), o.Total.String(),
		o.Currency, o.CouponCode, o.PaymentIntentID, string(o.Status),
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "Unable to create order")
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row, "order.postgres.get_by_id")
}

func (r *PostgresRepository) GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE payment_intent_id = $1`, paymentIntentID)
	return scanOrder(row, "order.postgres.get_by_payment_intent")
}

func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string) ([]*Order, error) {
	const op = "order.postgres.list_by_session"

	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE session_id = $1 ORDER BY created_at DESC`,
		sessionID)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "Unable to list orders")
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows, op)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "Unable to list orders")
	}
	return orders, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	const op = "order.postgres.update_status"

	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`,
		string(status), id)
	if err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "Unable to update order status")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.Row, op string) (*Order, error) {
	var (
		o        Order
		items    []byte
		subtotal string
		shipping string
		tax      string
		discount string
		total    string
		status   string
	)
	err := row.Scan(&o.ID, &o.SessionID, &items, &subtotal, &shipping, &tax,
		&discount, &total, &o.Currency, &o.CouponCode, &o.PaymentIntentID,
		&status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "Unable to read order")
	}

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "Corrupt order items")
	}
	if o.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "Corrupt order amounts")
	}
	if o.ShippingCost, err = decimal.NewFromString(shipping); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "Corrupt order amounts")
	}
	if o.Tax, err = decimal.NewFromString(tax); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "Corrupt order amounts")
	}
	if o.Discount, err = decimal.NewFromString(discount); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "Corrupt order amounts")
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "Corrupt order amounts")
	}
	o.Status = Status(status)
	return &o, nil
}
