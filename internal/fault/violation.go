package fault

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Violation is a single failed validation rule on an attribute path.
type Violation struct {
	Path    string
	Message string
}

// FromValidator converts validator field errors into violations, one per
// field error, preserving order.
func FromValidator(errs validator.ValidationErrors) []Violation {
	out := make([]Violation, 0, len(errs))
	for _, fe := range errs {
		out = append(out, Violation{
			Path:    fieldPath(fe),
			Message: messageFor(fe),
		})
	}
	return out
}

// JSONFieldName reports the JSON name of a struct field, for use with
// validator.Validate.RegisterTagNameFunc. Fields tagged "-" or without a json
// tag keep their Go name.
func JSONFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

// fieldPath drops the root struct name from the namespace, so
// "Member.address.city" becomes "address.city".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 && i+1 < len(ns) {
		return ns[i+1:]
	}
	if f := fe.Field(); f != "" {
		return f
	}
	return ns
}

func messageFor(fe validator.FieldError) string {
	sized := false
	switch fe.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		sized = true
	}

	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.String {
			return "must not be blank"
		}
		return "must not be null"
	case "email":
		return "must be a well-formed email address"
	case "min", "gte":
		if sized {
			return fmt.Sprintf("size must be at least %s", fe.Param())
		}
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "max", "lte":
		if sized {
			return fmt.Sprintf("size must be at most %s", fe.Param())
		}
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", fe.Param())
	case "len":
		return fmt.Sprintf("size must be %s", fe.Param())
	case "numeric", "number":
		return "numeric value out of bounds"
	case "alpha", "alphaunicode":
		return "must contain only letters"
	case "alphanum", "alphanumunicode":
		return "must contain only letters and digits"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "uuid", "uuid4":
		return "must be a valid UUID"
	default:
		return "is invalid"
	}
}
