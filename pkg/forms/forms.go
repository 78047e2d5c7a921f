// Package forms holds the client-side form schemas and their UI messages.
// Validation runs on the same go-playground/validator tags the server uses.
package forms

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/zenplan-api/pkg/validation"
)

// ActivityForm is the create/edit activity form.
type ActivityForm struct {
	Title       string `json:"title" validate:"required,notblank"`
	Category    string `json:"category" validate:"required,category"`
	Time        string `json:"time" validate:"required,datetime_any"`
	Description string `json:"description,omitempty"`
	Note        string `json:"note,omitempty"`
}

type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,pwd"`
}

type SignupForm struct {
	Name            string `json:"name" validate:"required,notblank"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,pwd"`
	ConfirmPassword string `json:"confirm_password" validate:"required,pwd"`
}

const (
	MsgTitleEmpty      = "Title cannot be empty"
	MsgCategoryInvalid = "Please select a valid category"
	MsgTimeRequired    = "Time is required"
	MsgTimeInvalid     = "Invalid date and time"
	MsgEmailInvalid    = "Invalid email address"
	MsgNameRequired    = "Name is required"
	MsgPasswordShort   = "Password must be at least 6 characters long"
	MsgPasswordsDiffer = "Passwords do not match"
)

// messages maps "field.tag" to the text shown next to the input.
var messages = map[string]string{
	"title.required":            MsgTitleEmpty,
	"title.notblank":            MsgTitleEmpty,
	"category.required":         MsgCategoryInvalid,
	"category.category":         MsgCategoryInvalid,
	"time.required":             MsgTimeRequired,
	"time.datetime_any":         MsgTimeInvalid,
	"email.required":            MsgEmailInvalid,
	"email.email":               MsgEmailInvalid,
	"name.required":             MsgNameRequired,
	"name.notblank":             MsgNameRequired,
	"password.required":         MsgPasswordShort,
	"password.pwd":              MsgPasswordShort,
	"confirm_password.required": MsgPasswordShort,
	"confirm_password.pwd":      MsgPasswordShort,
}

// Errors maps a form field to its message.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func engine() *validator.Validate {
	validateOnce.Do(func() { validate = validation.New() })
	return validate
}

// Validate checks form and returns nil when it is valid.
func Validate(form any) Errors {
	out := Errors{}
	err := engine().Struct(form)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if _, seen := out[fe.Field()]; seen {
				continue
			}
			if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
				out[fe.Field()] = msg
			} else {
				out[fe.Field()] = fe.Field() + " " + validation.FieldMessage(fe)
			}
		}
	} else if err != nil {
		out["form"] = err.Error()
	}

	if s, ok := form.(SignupForm); ok {
		checkPasswordsMatch(s, out)
	}
	if s, ok := form.(*SignupForm); ok && s != nil {
		checkPasswordsMatch(*s, out)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func checkPasswordsMatch(s SignupForm, out Errors) {
	if _, failed := out["confirm_password"]; failed {
		return
	}
	if s.Password != s.ConfirmPassword {
		out["confirm_password"] = MsgPasswordsDiffer
	}
}
