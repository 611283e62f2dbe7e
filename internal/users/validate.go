package users

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gogotex/gogotex/backend/go-users/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Attributes is a user document as received from a client.
type Attributes map[string]interface{}

// publicIDField is the identifier name used in API payloads; it is never stored.
const publicIDField = "id"

var validate = validator.New()

// decodeNew builds a user from client attributes for insertion.
func decodeNew(attrs Attributes) (*models.User, error) {
	u := &models.User{Attributes: map[string]interface{}{}}
	for k, v := range attrs {
		if err := checkKey(k); err != nil {
			return nil, err
		}
		switch k {
		case models.FieldID:
			if v == nil {
				continue
			}
			id, err := toObjectID(v)
			if err != nil {
				return nil, &ValidationError{Field: models.FieldID, Message: err.Error()}
			}
			u.ID = id
		case models.FieldEmail:
			s, err := toEmail(v)
			if err != nil {
				return nil, err
			}
			u.Email = s
		case publicIDField, models.FieldCreatedAt, models.FieldUpdatedAt:
		default:
			u.Attributes[k] = v
		}
	}
	if err := validate.Struct(u); err != nil {
		return nil, fromValidator(err)
	}
	return u, nil
}

// decodeSet builds the $set document for a partial update. Identifier and
// timestamp keys are dropped.
func decodeSet(attrs Attributes) (bson.M, error) {
	set := bson.M{}
	for k, v := range attrs {
		if err := checkKey(k); err != nil {
			return nil, err
		}
		switch k {
		case models.FieldID, publicIDField, models.FieldCreatedAt, models.FieldUpdatedAt:
		case models.FieldEmail:
			s, err := toEmail(v)
			if err != nil {
				return nil, err
			}
			if err := validate.Var(s, "required,email"); err != nil {
				return nil, fromValidator(err)
			}
			set[k] = s
		default:
			set[k] = v
		}
	}
	return set, nil
}

func checkKey(k string) error {
	if k == "" || strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
		return &ValidationError{Field: k, Message: "attribute names may not be empty, start with '$' or contain '.'"}
	}
	return nil
}

func toEmail(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Field: models.FieldEmail, Message: "must be a string"}
	}
	return s, nil
}

func toObjectID(v interface{}) (primitive.ObjectID, error) {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id, nil
	case string:
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return primitive.NilObjectID, fmt.Errorf("%q is not a valid object id", id)
		}
		return oid, nil
	}
	return primitive.NilObjectID, fmt.Errorf("unsupported identifier type %T", v)
}

func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	if field == "" {
		field = models.FieldEmail
	}
	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "email":
		msg = "must be a valid email address"
	default:
		msg = fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
	return &ValidationError{Field: field, Message: msg}
}
