package users

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/gogotex/gogotex/backend/go-users/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepository is an in-memory UserRepository used by unit tests and by
// the server when no MongoDB URI is configured. Filters are equality matches
// and the default order is insertion order.
type MemoryRepository struct {
	mu    sync.RWMutex
	order []primitive.ObjectID
	store map[primitive.ObjectID]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[primitive.ObjectID]*models.User)}
}

func (m *MemoryRepository) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if _, ok := m.store[u.ID]; ok {
		return nil, ErrDuplicateID
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	m.store[u.ID] = u.Clone()
	m.order = append(m.order, u.ID)
	return u.Clone(), nil
}

func (m *MemoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.store[id]; ok {
		return u.Clone(), nil
	}
	return nil, nil
}

func (m *MemoryRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil, nil
	}
	for k, v := range set {
		switch k {
		case models.FieldEmail:
			u.Email, _ = v.(string)
		case models.FieldID, models.FieldCreatedAt, models.FieldUpdatedAt:
		default:
			if u.Attributes == nil {
				u.Attributes = map[string]interface{}{}
			}
			u.Attributes[k] = cloneAttr(v)
		}
	}
	u.UpdatedAt = time.Now().UTC()
	return u.Clone(), nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return false, nil
	}
	delete(m.store, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *MemoryRepository) Find(ctx context.Context, q Query) ([]*models.User, error) {
	m.mu.RLock()
	matched := make([]*models.User, 0, len(m.order))
	for _, id := range m.order {
		u := m.store[id]
		if matches(u, q.Filter) {
			matched = append(matched, u.Clone())
		}
	}
	m.mu.RUnlock()

	if len(q.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			return less(matched[i].ToMap(), matched[j].ToMap(), q.Sort)
		})
	}

	if q.Offset >= len(matched) {
		return []*models.User{}, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func matches(u *models.User, filter bson.M) bool {
	if len(filter) == 0 {
		return true
	}
	doc := u.ToMap()
	for k, want := range filter {
		if !reflect.DeepEqual(doc[k], want) {
			return false
		}
	}
	return true
}

func less(a, b map[string]interface{}, order bson.D) bool {
	for _, e := range order {
		c := compareValues(a[e.Key], b[e.Key])
		if c == 0 {
			continue
		}
		if dir, _ := e.Value.(int); dir < 0 {
			return c > 0
		}
		return c < 0
	}
	return false
}

// compareValues orders missing values first, then numbers, strings, object
// ids and times; values of different kinds fall back to their type name.
func compareValues(a, b interface{}) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return compareStrings(av, bv)
		}
	case primitive.ObjectID:
		if bv, ok := b.(primitive.ObjectID); ok {
			return compareStrings(av.Hex(), bv.Hex())
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			}
			return 1
		}
	}
	return compareStrings(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b))
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

func cloneAttr(v interface{}) interface{} {
	u := &models.User{Attributes: map[string]interface{}{"v": v}}
	return u.Clone().Attributes["v"]
}
