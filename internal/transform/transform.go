// Package transform shapes stored records into their public API form.
package transform

import (
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// InternalIDField is the storage primary key, never exposed to clients.
	InternalIDField = "_id"
	// PublicIDField carries the identifier in API payloads.
	PublicIDField = "id"
)

// Record is anything that can present itself as a plain mapping.
type Record interface {
	ToMap() map[string]interface{}
}

// Plain is a record that already is a plain mapping.
type Plain map[string]interface{}

func (p Plain) ToMap() map[string]interface{} { return p }

// IDOutgoing returns a new mapping with the internal identifier renamed to
// the public one. The input is never modified. A nil record, or one whose
// mapping is nil, yields an empty map.
func IDOutgoing(rec Record) map[string]interface{} {
	if rec == nil {
		return map[string]interface{}{}
	}
	src := rec.ToMap()
	out := make(map[string]interface{}, len(src))
	for k, v := range src {
		out[k] = v
	}
	if v, ok := out[InternalIDField]; ok {
		delete(out, InternalIDField)
		if id := publicID(v); id != nil {
			out[PublicIDField] = id
		}
	}
	return out
}

// Many applies IDOutgoing to every record, preserving order.
func Many[T Record](recs []T) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(recs))
	for _, r := range recs {
		out = append(out, IDOutgoing(r))
	}
	return out
}

// publicID renders an identifier for clients. Nil pointers count as absent.
func publicID(v interface{}) interface{} {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil
	}
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case *primitive.ObjectID:
		return id.Hex()
	case fmt.Stringer:
		return id.String()
	}
	return v
}
