// Package cache provides a Redis read-through cache in front of the user
// repository.
package cache

import (
	"context"
	"time"

	"github.com/gogotex/gogotex/backend/go-users/internal/models"
	"github.com/gogotex/gogotex/backend/go-users/internal/users"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/singleflight"
)

// UserCache caches single-user lookups. Writes go straight to the wrapped
// repository and evict the cached entry; list queries are never cached.
// Redis failures degrade to uncached reads.
type UserCache struct {
	next   users.UserRepository
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	sf     singleflight.Group
}

var _ users.UserRepository = (*UserCache)(nil)

// NewUserCache wraps next. prefix defaults to "user:".
func NewUserCache(next users.UserRepository, rdb *redis.Client, ttl time.Duration, prefix string) *UserCache {
	if prefix == "" {
		prefix = "user:"
	}
	return &UserCache{next: next, rdb: rdb, ttl: ttl, prefix: prefix}
}

func (c *UserCache) key(id primitive.ObjectID) string {
	return c.prefix + id.Hex()
}

// versionKey is bumped on every write. A load that started before the bump
// does not populate the cache.
func (c *UserCache) versionKey(id primitive.ObjectID) string {
	return c.prefix + "ver:" + id.Hex()
}

func (c *UserCache) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	key := c.key(id)
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var u models.User
		if err := bson.Unmarshal(b, &u); err == nil {
			return &u, nil
		}
		_ = c.rdb.Del(ctx, key).Err()
	}

	// the flight is shared, so one caller going away must not fail the rest
	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		return c.load(context.WithoutCancel(ctx), id)
	})
	if err != nil {
		return nil, err
	}
	u, _ := v.(*models.User)
	// callers of a shared flight must not share the same pointer
	return u.Clone(), nil
}

// load reads through to the wrapped repository while watching the version
// key, and caches the result only if no write happened in between.
func (c *UserCache) load(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var (
		u       *models.User
		loadErr error
		loaded  bool
	)
	if err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		u, loadErr = c.next.FindByID(ctx, id)
		loaded = true
		if loadErr != nil || u == nil {
			return nil
		}
		b, err := bson.Marshal(u)
		if err != nil {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, c.key(id), b, c.ttl)
			return nil
		})
		return err
	}, c.versionKey(id)); err != nil && !loaded {
		// redis unavailable
		return c.next.FindByID(ctx, id)
	}
	// redis.TxFailedErr means a write raced the load; the result is served uncached
	return u, loadErr
}

func (c *UserCache) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	saved, err := c.next.Insert(ctx, u)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, saved.ID)
	return saved, nil
}

func (c *UserCache) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	u, err := c.next.Update(ctx, id, set)
	c.evict(ctx, id)
	return u, err
}

func (c *UserCache) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	ok, err := c.next.Delete(ctx, id)
	c.evict(ctx, id)
	return ok, err
}

func (c *UserCache) Find(ctx context.Context, q users.Query) ([]*models.User, error) {
	return c.next.Find(ctx, q)
}

// evict bumps the version and drops the cached entry. A failed delete is left
// to expire after ttl.
func (c *UserCache) evict(ctx context.Context, id primitive.ObjectID) {
	_, _ = c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, c.versionKey(id))
		p.Expire(ctx, c.versionKey(id), c.ttl)
		p.Del(ctx, c.key(id))
		return nil
	})
}
