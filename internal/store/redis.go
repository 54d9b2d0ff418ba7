package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/forjalabs/forja/internal/cart"
	"github.com/forjalabs/forja/internal/coupon"
	"github.com/forjalabs/forja/internal/domain"
	"github.com/forjalabs/forja/internal/shipping"
)

const (
	keyPrefix = "cart:"

	fieldItems    = "items"
	fieldAddress  = "address"
	fieldCoupon   = "coupon"
	fieldShipping = "shipping"
)

// RedisStore keeps each session in a single hash under cart:{session},
// one field per document. Every save refreshes the TTL so active carts
// stay alive and abandoned ones age out.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ CartStore = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*cart.Cart, error) {
	const op = "store.redis.load"

	fields, err := s.client.HGetAll(ctx, keyPrefix+sessionID).Result()
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "Unable to load cart")
	}
	if len(fields) == 0 {
		return cart.New(), nil
	}

	c := cart.New()
	if raw, ok := fields[fieldItems]; ok && raw != "" {
		var items []cart.LineItem
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, domain.WrapError(err, domain.EINTERNAL, op, "Corrupt cart items")
		}
		c.Items = items
	}
	if raw, ok := fields[fieldAddress]; ok && raw != "" {
		var addr shipping.Address
		if err := json.Unmarshal([]byte(raw), &addr); err != nil {
			return nil, domain.WrapError(err, domain.EINTERNAL, op, "Corrupt cart address")
		}
		c.Address = &addr
	}
	if raw, ok := fields[fieldCoupon]; ok && raw != "" {
		var cp coupon.Coupon
		if err := json.Unmarshal([]byte(raw), &cp); err != nil {
			return nil, domain.WrapError(err, domain.EINTERNAL, op, "Corrupt cart coupon")
		}
		c.Coupon = &cp
	}
	if raw, ok := fields[fieldShipping]; ok && raw != "" {
		cost, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, domain.WrapError(err, domain.EINTERNAL, op, "Corrupt shipping cost")
		}
		c.ShippingCost = cost
	}
	return c, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, c *cart.Cart) error {
	const op = "store.redis.save"

	items, err := json.Marshal(c.Items)
	if err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "Unable to encode cart items")
	}

	fields := map[string]any{
		fieldItems:    string(items),
		fieldShipping: c.ShippingCost.String(),
	}
	if c.Address != nil {
		addr, err := json.Marshal(c.Address)
		if err != nil {
			return domain.WrapError(err, domain.EINTERNAL, op, "Unable to encode cart address")
		}
		fields[fieldAddress] = string(addr)
	}
	if c.Coupon != nil {
		cp, err := json.Marshal(c.Coupon)
		if err != nil {
			return domain.WrapError(err, domain.EINTERNAL, op, "Unable to encode cart coupon")
		}
		fields[fieldCoupon] = string(cp)
	}

	key := keyPrefix + sessionID
	pipe := s.client.TxPipeline()
	// DEL first so a removed address or coupon does not linger.
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "Unable to save cart")
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	const op = "store.redis.delete"

	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return domain.WrapError(err, domain.EINTERNAL, op, "Unable to delete cart")
	}
	return nil
}
