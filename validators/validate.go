// Package validators holds the rule engine shared by the per-route validator
// middlewares.
package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON/query name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query", "params"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// Struct validates v and returns one message per failing field.
func Struct(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"request": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fieldName(fe)] = message(fe)
	}
	return out
}

// Var validates a single value against a tag list such as "min=8,hexadecimal".
func Var(value interface{}, tag string) error {
	return validate.Var(value, tag)
}

func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required!"
	case "email":
		return "Invalid email!"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters long!", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Must contain at least %s item(s)!", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s!", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters long!", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Must contain at most %s item(s)!", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s!", fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("Must be greater than %s!", strings.TrimSuffix(fe.Param(), ".0"))
	case "oneof":
		return fmt.Sprintf("Must be one of: %s!", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return fmt.Sprintf("Must be a date formatted as %s!", fe.Param())
	case "hexadecimal", "alphanum":
		return "Contains invalid characters!"
	default:
		return "Invalid value!"
	}
}

// ParamID reads a positive integer route parameter.
func ParamID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// ParseDate parses a YYYY-MM-DD value in UTC.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, time.UTC)
}
