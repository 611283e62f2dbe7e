package users

import (
	"context"
	"errors"

	"github.com/gogotex/gogotex/backend/go-users/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Model is the data-access facade the HTTP layer depends on. Lookups by an
// id that is missing or malformed resolve to nil (or false) without an error.
type Model interface {
	Save(ctx context.Context, attrs Attributes) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, attrs Attributes) (*models.User, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
	Where(ctx context.Context, criteria Criteria, limit, offset int, sort string) ([]*models.User, error)
}

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
}

var _ Model = (*Service)(nil)

func NewService(r UserRepository) *Service {
	return &Service{repo: r}
}

// Save validates attrs and persists a new user. The store assigns the id
// unless attrs carries a valid "_id".
func (s *Service) Save(ctx context.Context, attrs Attributes) (*models.User, error) {
	u, err := decodeNew(attrs)
	if err != nil {
		return nil, err
	}
	saved, err := s.repo.Insert(ctx, u)
	if err != nil {
		if errors.Is(err, ErrDuplicateID) {
			return nil, &ValidationError{Field: models.FieldID, Message: "a user with id " + u.ID.Hex() + " already exists"}
		}
		return nil, &StoreError{Op: "insert", Err: err}
	}
	return saved, nil
}

func (s *Service) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	u, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, &StoreError{Op: "find", Err: err}
	}
	return u, nil
}

// Update applies a partial update and returns the new state of the user.
func (s *Service) Update(ctx context.Context, id string, attrs Attributes) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	set, err := decodeSet(attrs)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.Update(ctx, oid, set)
	if err != nil {
		return nil, &StoreError{Op: "update", Err: err}
	}
	return u, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	ok, err := s.repo.Delete(ctx, oid)
	if err != nil {
		return false, &StoreError{Op: "delete", Err: err}
	}
	return ok, nil
}

// Where lists users matching criteria. limit 0 means no limit.
func (s *Service) Where(ctx context.Context, criteria Criteria, limit, offset int, sort string) ([]*models.User, error) {
	if limit < 0 {
		return nil, &ValidationError{Field: "limit", Message: "must not be negative"}
	}
	if offset < 0 {
		return nil, &ValidationError{Field: "offset", Message: "must not be negative"}
	}
	filter, ok, err := buildFilter(criteria)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*models.User{}, nil
	}
	order, err := parseSort(sort)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.Find(ctx, Query{Filter: filter, Limit: limit, Offset: offset, Sort: order})
	if err != nil {
		return nil, &StoreError{Op: "find", Err: err}
	}
	return list, nil
}
