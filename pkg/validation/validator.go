package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/zenplan-api/internal/domain/entity"
	"github.com/oksasatya/zenplan-api/pkg/helpers"
)

// MinPasswordLength is enforced by the "pwd" alias on both client and server.
const MinPasswordLength = 6

// Init configures the global validator used by Gin's binding.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		register(v)
	}
}

// New returns a standalone validator with the same tags Gin binding uses.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	register(v)
	return v
}

// register installs json tag naming, aliases and the domain validations:
//   - category: member of the activity category enumeration
//   - datetime_any: parseable date-time (see helpers.ParseTime)
//   - notblank: non-empty after trimming whitespace
func register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterAlias("pwd", fmt.Sprintf("min=%d", MinPasswordLength))
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		_, ok := entity.ParseCategory(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("datetime_any", func(fl validator.FieldLevel) bool {
		if fl.Field().Type() == reflect.TypeOf(time.Time{}) {
			return !fl.Field().Interface().(time.Time).IsZero()
		}
		_, ok := helpers.ParseTime(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = FieldMessage(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

// FieldMessage renders a single field error.
func FieldMessage(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "cannot be empty"
	case "email":
		return "must be a valid email"
	case "category":
		return "must be one of: " + categoryList()
	case "datetime_any":
		return "must be a valid date and time"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "pwd":
		return fmt.Sprintf("must be at least %d characters long", MinPasswordLength)
	case "min":
		if isNumberKind(fe.Kind()) {
			return "must be at least " + param
		}
		return "must be at least " + param + " characters long"
	case "max":
		if isNumberKind(fe.Kind()) {
			return "must be at most " + param
		}
		return "must be at most " + param + " characters long"
	case "eqfield":
		return "must be equal to " + param + " field"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	default:
		if param != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", fe.Tag(), param)
		}
		return fmt.Sprintf("validation failed for '%s'", fe.Tag())
	}
}

func categoryList() string {
	names := make([]string, 0, 10)
	for _, c := range entity.Categories() {
		names = append(names, c.String())
	}
	return strings.Join(names, ", ")
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
