package users

import (
	"strings"

	"github.com/gogotex/gogotex/backend/go-users/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Criteria are equality filters taken from the query string.
type Criteria map[string]string

// buildFilter turns criteria into a store filter. ok is false when the
// criteria can match nothing, e.g. a malformed id.
func buildFilter(c Criteria) (filter bson.M, ok bool, err error) {
	filter = bson.M{}
	for k, v := range c {
		if err := checkKey(k); err != nil {
			return nil, false, err
		}
		switch k {
		case publicIDField, models.FieldID:
			oid, perr := primitive.ObjectIDFromHex(v)
			if perr != nil {
				return nil, false, nil
			}
			filter[models.FieldID] = oid
		default:
			filter[k] = v
		}
	}
	return filter, true, nil
}

// parseSort reads a sort expression such as "email -createdAt" or "name,+email".
// A leading '-' sorts descending.
func parseSort(expr string) (bson.D, error) {
	fields := strings.FieldsFunc(expr, func(r rune) bool { return r == ' ' || r == ',' })
	out := bson.D{}
	for _, f := range fields {
		dir := 1
		switch f[0] {
		case '-':
			dir = -1
			f = f[1:]
		case '+':
			f = f[1:]
		}
		if f == publicIDField {
			f = models.FieldID
		}
		if err := checkKey(f); err != nil {
			return nil, &ValidationError{Field: "sort", Message: "invalid sort field " + "'" + f + "'"}
		}
		out = append(out, bson.E{Key: f, Value: dir})
	}
	return out, nil
}
