package users

import (
	"context"
	"time"

	"github.com/gogotex/gogotex/backend/go-users/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Query selects a page of users. A zero Limit means no limit; an empty Sort
// leaves the order to the store.
type Query struct {
	Filter bson.M
	Limit  int
	Offset int
	Sort   bson.D
}

// UserRepository defines persistence operations for users.
// Lookups of absent users return nil without an error.
type UserRepository interface {
	Insert(ctx context.Context, u *models.User) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	Find(ctx context.Context, q Query) ([]*models.User, error)
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new repository for the given collection and
// makes sure the email index exists.
func NewMongoUserRepository(ctx context.Context, col *mongo.Collection) (*MongoUserRepository, error) {
	idx := mongo.IndexModel{Keys: bson.D{{Key: models.FieldEmail, Value: 1}}}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, err
	}
	return &MongoUserRepository{col: col}, nil
}

func (r *MongoUserRepository) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateID
		}
		return nil, err
	}
	return u, nil
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{models.FieldID: id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepository) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.User, error) {
	doc := bson.M{models.FieldUpdatedAt: time.Now().UTC().Truncate(time.Millisecond)}
	for k, v := range set {
		doc[k] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{models.FieldID: id}, bson.M{"$set": doc}, opts).Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &updated, nil
}

func (r *MongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{models.FieldID: id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoUserRepository) Find(ctx context.Context, q Query) ([]*models.User, error) {
	filter := q.Filter
	if filter == nil {
		filter = bson.M{}
	}
	opts := options.Find()
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	if q.Offset > 0 {
		opts.SetSkip(int64(q.Offset))
	}
	if len(q.Sort) > 0 {
		opts.SetSort(q.Sort)
	}
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*models.User{}
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
