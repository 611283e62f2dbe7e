package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field names of the stored user document.
const (
	FieldID        = "_id"
	FieldEmail     = "email"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// User is the persisted user document. Attributes the service does not model
// explicitly are kept inline so they round-trip through the store unchanged.
type User struct {
	ID         primitive.ObjectID     `bson:"_id,omitempty"`
	Email      string                 `bson:"email" validate:"required,email"`
	CreatedAt  time.Time              `bson:"createdAt"`
	UpdatedAt  time.Time              `bson:"updatedAt"`
	Attributes map[string]interface{} `bson:",inline"`
}

// ToMap returns a plain mapping of the document as it is stored, keyed by the
// bson field names. A nil user yields a nil map.
func (u *User) ToMap() map[string]interface{} {
	if u == nil {
		return nil
	}
	out := make(map[string]interface{}, len(u.Attributes)+4)
	for k, v := range u.Attributes {
		out[k] = plainValue(v)
	}
	if !u.ID.IsZero() {
		out[FieldID] = u.ID
	}
	out[FieldEmail] = u.Email
	if !u.CreatedAt.IsZero() {
		out[FieldCreatedAt] = u.CreatedAt
	}
	if !u.UpdatedAt.IsZero() {
		out[FieldUpdatedAt] = u.UpdatedAt
	}
	return out
}

// Clone returns a deep copy of the attribute map; the rest of the struct is
// copied by value.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Attributes != nil {
		c.Attributes = make(map[string]interface{}, len(u.Attributes))
		for k, v := range u.Attributes {
			c.Attributes[k] = cloneValue(v)
		}
	}
	return &c
}

// plainValue converts the driver's ordered document types into maps and
// slices so nested attributes encode as ordinary JSON objects.
func plainValue(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.D:
		m := make(map[string]interface{}, len(t))
		for _, e := range t {
			m[e.Key] = plainValue(e.Value)
		}
		return m
	case primitive.M:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[k] = plainValue(e)
		}
		return m
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[k] = plainValue(e)
		}
		return m
	case primitive.A:
		s := make([]interface{}, len(t))
		for i, e := range t {
			s[i] = plainValue(e)
		}
		return s
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, e := range t {
			s[i] = plainValue(e)
		}
		return s
	case primitive.DateTime:
		return t.Time().UTC()
	}
	return v
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	}
	return v
}
