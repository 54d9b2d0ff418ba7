package coupon

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/forjalabs/forja/internal/domain"
)

// PostgresRegistry reads coupon rules from the coupons table.
// Usage counts are tracked in the same row so redemption limits hold
// across server instances.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

// Compile-time check that PostgresRegistry implements Registry.
var _ Registry = (*PostgresRegistry)(nil)

// NewPostgresRegistry creates a database-backed coupon registry.
func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

const findByCodeQuery = `
SELECT code, discount_type, discount_target, discount_value,
       min_subtotal, max_discount, expires_at, usage_limit, used_count
FROM coupons
WHERE code = $1
`

// FindByCode resolves a coupon code case-insensitively.
func (r *PostgresRegistry) FindByCode(ctx context.Context, code string) (*Coupon, error) {
	var (
		c           Coupon
		typ, target string
		value       decimal.Decimal
		minSubtotal decimal.Decimal
		maxDiscount decimal.Decimal
		expiresAt   *time.Time
	)

	row := r.pool.QueryRow(ctx, findByCodeQuery, Normalize(code))
	err := row.Scan(&c.Code, &typ, &target, &value,
		&minSubtotal, &maxDiscount, &expiresAt, &c.UsageLimit, &c.UsedCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, domain.WrapError(err, domain.EINTERNAL, "coupon.lookup", "Unable to load coupon")
	}

	c.Type = DiscountType(typ)
	c.Target = DiscountTarget(target)
	c.Value = value
	c.MinSubtotal = minSubtotal
	c.MaxDiscount = maxDiscount
	c.ExpiresAt = expiresAt

	return &c, nil
}

const incrementUsageQuery = `
UPDATE coupons SET used_count = used_count + 1 WHERE code = $1
`

// IncrementUsage records one redemption of the code.
func (r *PostgresRegistry) IncrementUsage(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, incrementUsageQuery, Normalize(code))
	if err != nil {
		return domain.WrapError(err, domain.EINTERNAL, "coupon.redeem", "Unable to record coupon usage")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
