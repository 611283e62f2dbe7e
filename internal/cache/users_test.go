package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gogotex/gogotex/backend/go-users/internal/models"
	"github.com/gogotex/gogotex/backend/go-users/internal/users"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// countingRepo counts FindByID calls on top of the memory repository.
type countingRepo struct {
	*users.MemoryRepository
	finds int
}

func (c *countingRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	c.finds++
	return c.MemoryRepository.FindByID(ctx, id)
}

// blockingRepo parks the first FindByID after it has read the record, until
// release is closed.
type blockingRepo struct {
	*users.MemoryRepository
	hold    atomic.Bool
	read    chan struct{}
	release chan struct{}
}

func (b *blockingRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := b.MemoryRepository.FindByID(ctx, id)
	if b.hold.CompareAndSwap(true, false) {
		close(b.read)
		<-b.release
	}
	return u, err
}

func newCache(t *testing.T) (*UserCache, *countingRepo, *mr.Miniredis) {
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	repo := &countingRepo{MemoryRepository: users.NewMemoryRepository()}
	return NewUserCache(repo, client, time.Minute, "test:user:"), repo, m
}

func TestUserCache_ReadThrough(t *testing.T) {
	c, repo, m := newCache(t)
	ctx := context.Background()

	u, err := c.Insert(ctx, &models.User{Email: "john@home.com", Attributes: map[string]interface{}{"name": "John"}})
	require.NoError(t, err)

	got, err := c.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "john@home.com", got.Email)
	require.Equal(t, 1, repo.finds)
	require.True(t, m.Exists("test:user:"+u.ID.Hex()))

	got2, err := c.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 1, repo.finds, "second lookup should be served from redis")
	require.Equal(t, u.ID, got2.ID)
	require.Equal(t, "John", got2.Attributes["name"])
}

func TestUserCache_MissIsNotCached(t *testing.T) {
	c, repo, m := newCache(t)
	ctx := context.Background()
	id := primitive.NewObjectID()

	got, err := c.FindByID(ctx, id)
	require.NoError(t, err)
	require.Nil(t, got)
	require.False(t, m.Exists("test:user:"+id.Hex()))

	_, err = c.FindByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 2, repo.finds)
}

func TestUserCache_WritesEvict(t *testing.T) {
	c, _, m := newCache(t)
	ctx := context.Background()

	u, err := c.Insert(ctx, &models.User{Email: "john@home.com"})
	require.NoError(t, err)
	_, err = c.FindByID(ctx, u.ID)
	require.NoError(t, err)
	key := "test:user:" + u.ID.Hex()
	require.True(t, m.Exists(key))

	upd, err := c.Update(ctx, u.ID, bson.M{"email": "new@home.com"})
	require.NoError(t, err)
	require.Equal(t, "new@home.com", upd.Email)
	require.False(t, m.Exists(key))

	got, err := c.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new@home.com", got.Email)

	ok, err := c.Delete(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, m.Exists(key))

	gone, err := c.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestUserCache_TTLExpiry(t *testing.T) {
	c, repo, m := newCache(t)
	ctx := context.Background()

	u, err := c.Insert(ctx, &models.User{Email: "john@home.com"})
	require.NoError(t, err)
	_, err = c.FindByID(ctx, u.ID)
	require.NoError(t, err)

	m.FastForward(2 * time.Minute)

	_, err = c.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 2, repo.finds)
}

func TestUserCache_RedisDownFallsThrough(t *testing.T) {
	c, repo, m := newCache(t)
	ctx := context.Background()

	u, err := c.Insert(ctx, &models.User{Email: "john@home.com"})
	require.NoError(t, err)
	m.Close()

	got, err := c.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, 1, repo.finds)
}

func TestUserCache_UpdateDuringLoadIsNotCached(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	repo := &blockingRepo{MemoryRepository: users.NewMemoryRepository(), read: make(chan struct{}), release: make(chan struct{})}
	c := NewUserCache(repo, redis.NewClient(&redis.Options{Addr: m.Addr()}), time.Minute, "test:user:")
	ctx := context.Background()

	u, err := c.Insert(ctx, &models.User{Email: "old@x.com"})
	require.NoError(t, err)

	repo.hold.Store(true)
	done := make(chan *models.User)
	go func() {
		got, _ := c.FindByID(ctx, u.ID)
		done <- got
	}()
	<-repo.read

	_, err = c.Update(ctx, u.ID, bson.M{"email": "new@x.com"})
	require.NoError(t, err)
	close(repo.release)

	// the racing read may see the old state, but must not cache it
	require.Equal(t, "old@x.com", (<-done).Email)
	require.False(t, m.Exists("test:user:"+u.ID.Hex()))

	got, err := c.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new@x.com", got.Email)
	require.True(t, m.Exists("test:user:"+u.ID.Hex()))
}

func TestUserCache_CancelledCallerStillLoads(t *testing.T) {
	c, repo, m := newCache(t)

	u, err := c.Insert(context.Background(), &models.User{Email: "john@home.com"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := c.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, 1, repo.finds)
	require.True(t, m.Exists("test:user:"+u.ID.Hex()))
}
