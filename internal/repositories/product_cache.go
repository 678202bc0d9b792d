package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"productdesk/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache keys.
const (
	ProductListKey        = "productdesk:products:all"
	ProductListVersionKey = "productdesk:products:version"
)

// stringGetter is satisfied by both *redis.Client and *redis.Tx.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// errListChanged aborts a cache fill when a write happened after the list was read.
var errListChanged = errors.New("product list changed while loading")

// CachedProductRepository keeps the product list in Redis and drops it on every write.
// Every write also bumps a version counter; a list read from the database is only cached
// when the version is still the one seen before the read, so a fill that raced a write
// never outlives it. Redis failures are logged and the request falls through to the
// wrapped repository.
type CachedProductRepository struct {
	next   ProductRepository
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProductRepository wraps next with a Redis list cache.
func NewCachedProductRepository(next ProductRepository, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedProductRepository {
	return &CachedProductRepository{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.Named("product_cache"),
	}
}

// GetAll serves the list from Redis when present.
func (r *CachedProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	raw, err := r.rdb.Get(ctx, ProductListKey).Bytes()
	switch {
	case err == nil:
		products := []models.Product{}
		jsonErr := json.Unmarshal(raw, &products)
		if jsonErr == nil {
			return products, nil
		}
		r.logger.Warn("discarding unreadable cached product list", zap.Error(jsonErr))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("product cache read failed", zap.Error(err))
	}

	version, versionErr := r.version(ctx, r.rdb)

	products, err := r.next.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if versionErr != nil {
		r.logger.Warn("product cache version read failed", zap.Error(versionErr))
		return products, nil
	}
	if err := r.fill(ctx, version, products); err != nil {
		if errors.Is(err, errListChanged) || errors.Is(err, redis.TxFailedErr) {
			r.logger.Debug("skipping cache fill, list changed while loading")
		} else {
			r.logger.Warn("product cache write failed", zap.Error(err))
		}
	}
	return products, nil
}

// fill caches products if the list version still equals version.
func (r *CachedProductRepository) fill(ctx context.Context, version int64, products []models.Product) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := r.version(ctx, tx)
		if err != nil {
			return err
		}
		if current != version {
			return errListChanged
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, ProductListKey, raw, r.ttl)
			return nil
		})
		return err
	}, ProductListVersionKey)
}

// version returns the list version counter, 0 when it was never bumped.
func (r *CachedProductRepository) version(ctx context.Context, c stringGetter) (int64, error) {
	v, err := c.Get(ctx, ProductListVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// GetByID is not cached.
func (r *CachedProductRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	return r.next.GetByID(ctx, id)
}

// Create creates the product and invalidates the cached list.
func (r *CachedProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.next.Create(ctx, product); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// Update updates the product and invalidates the cached list.
func (r *CachedProductRepository) Update(ctx context.Context, product *models.Product) error {
	if err := r.next.Update(ctx, product); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// Delete deletes the product and invalidates the cached list.
func (r *CachedProductRepository) Delete(ctx context.Context, id uint) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// invalidate bumps the version and drops the cached list in one transaction.
func (r *CachedProductRepository) invalidate(ctx context.Context) {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, ProductListVersionKey)
		pipe.Del(ctx, ProductListKey)
		return nil
	})
	if err != nil {
		r.logger.Warn("product cache invalidation failed", zap.Error(err))
	}
}
