package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront-service/cart"

	"github.com/redis/go-redis/v9"
)

// CartRepository persists server-held carts per user.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (cart.Cart, error)
	SaveCart(ctx context.Context, userID string, c cart.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}

type RedisCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartRepository(client *redis.Client, ttl time.Duration) *RedisCartRepository {
	return &RedisCartRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisCartRepository) getKey(userID string) string {
	return fmt.Sprintf("cart:user:%s", userID)
}

// GetCart returns the stored cart, or an empty one when the user has none.
func (r *RedisCartRepository) GetCart(ctx context.Context, userID string) (cart.Cart, error) {
	data, err := r.client.Get(ctx, r.getKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return cart.New(), nil
	}
	if err != nil {
		return nil, err
	}

	c := cart.New()
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, err
	}
	return c, nil
}

// SaveCart stores c and refreshes its TTL. An empty cart deletes the key.
func (r *RedisCartRepository) SaveCart(ctx context.Context, userID string, c cart.Cart) error {
	if len(c) == 0 {
		return r.DeleteCart(ctx, userID)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.getKey(userID), data, r.ttl).Err()
}

func (r *RedisCartRepository) DeleteCart(ctx context.Context, userID string) error {
	return r.client.Del(ctx, r.getKey(userID)).Err()
}
