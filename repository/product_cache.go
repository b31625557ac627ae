package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"storefront-service/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const ProductCachePrefix = "product:detail:"

// CachedProductRepository fronts a ProductRepository with a Redis read-through
// cache for single and batch lookups. Writes go to the inner store and evict.
type CachedProductRepository struct {
	ProductRepository
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger

	// OnLookup is called with true on a hit and false on a miss, when set.
	OnLookup func(hit bool)
}

func NewCachedProductRepository(inner ProductRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedProductRepository {
	return &CachedProductRepository{ProductRepository: inner, redis: client, ttl: ttl, logger: logger}
}

func cacheKey(id int) string {
	return ProductCachePrefix + strconv.Itoa(id)
}

func (c *CachedProductRepository) observe(hit bool) {
	if c.OnLookup != nil {
		c.OnLookup(hit)
	}
}

func (c *CachedProductRepository) FindByID(ctx context.Context, id int) (*models.Product, error) {
	data, err := c.redis.Get(ctx, cacheKey(id)).Bytes()
	if err == nil {
		var p models.Product
		if jerr := json.Unmarshal(data, &p); jerr == nil {
			c.observe(true)
			return &p, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("Product cache read failed", zap.Error(err), zap.Int("product_id", id))
	}
	c.observe(false)

	p, err := c.ProductRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, p)
	return p, nil
}

func (c *CachedProductRepository) FindByIDs(ctx context.Context, ids []int) (map[int]*models.Product, error) {
	if len(ids) == 0 {
		return map[int]*models.Product{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}

	result := make(map[int]*models.Product, len(ids))
	var missing []int
	vals, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("Product cache batch read failed", zap.Error(err))
		missing = ids
	} else {
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			var p models.Product
			if jerr := json.Unmarshal([]byte(s), &p); jerr != nil {
				missing = append(missing, ids[i])
				continue
			}
			result[p.ID] = &p
		}
	}
	for range result {
		c.observe(true)
	}
	if len(missing) == 0 {
		return result, nil
	}
	for range missing {
		c.observe(false)
	}

	loaded, err := c.ProductRepository.FindByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, p := range loaded {
		result[id] = p
		c.store(ctx, p)
	}
	return result, nil
}

func (c *CachedProductRepository) Update(ctx context.Context, product *models.Product) error {
	if err := c.ProductRepository.Update(ctx, product); err != nil {
		return err
	}
	c.evict(ctx, product.ID)
	return nil
}

func (c *CachedProductRepository) Delete(ctx context.Context, id int) error {
	if err := c.ProductRepository.Delete(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, id)
	return nil
}

func (c *CachedProductRepository) store(ctx context.Context, p *models.Product) {
	data, err := json.Marshal(p)
	if err != nil {
		c.logger.Warn("Failed to marshal product for cache", zap.Error(err), zap.Int("product_id", p.ID))
		return
	}
	if err := c.redis.Set(ctx, cacheKey(p.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache product", zap.Error(err), zap.Int("product_id", p.ID))
	}
}

func (c *CachedProductRepository) evict(ctx context.Context, id int) {
	if err := c.redis.Del(ctx, cacheKey(id)).Err(); err != nil {
		c.logger.Warn("Failed to delete product cache", zap.Error(err), zap.Int("product_id", id))
	}
}
