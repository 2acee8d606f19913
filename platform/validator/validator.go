// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"profile_portal_backend/platform/phone"

	"github.com/go-playground/validator/v10"
)

var alnumUsername = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Validator wraps the go-playground validator for structured validation.
// Using a struct allows for dependency injection and easier testing.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance with the shared custom tags registered:
//
//	twmobile        national mobile number after phone.Sanitize
//	alnum_username  ASCII letters and digits only
//	nefield_ci      must differ (case-insensitively) from the named field
//
// Field names in errors use the json tag so they line up with request bodies.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("twmobile", validateTWMobile)
	_ = v.RegisterValidation("alnum_username", validateAlnumUsername)
	_ = v.RegisterValidation("nefield_ci", validateNotEqualFieldCI)

	return &Validator{v: v}
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field interface{}, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}

// FieldErrors flattens validation errors into field -> messages, the shape
// the page scripts read (responseJSON.<field>[0]). Non-validation errors
// yield nil.
func FieldErrors(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = append(out[fe.Field()], message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "email":
		return "enter a valid email address"
	case "eqfield":
		return "does not match " + strings.ToLower(fe.Param())
	case "nefield_ci":
		return "must differ from " + strings.ToLower(fe.Param())
	case "alnum_username":
		return "letters and digits only"
	case "twmobile":
		return "enter a valid mobile number"
	default:
		return "invalid value"
	}
}

func validateTWMobile(fl validator.FieldLevel) bool {
	return phone.ValidateNational(phone.Sanitize(fl.Field().String())).OK()
}

func validateAlnumUsername(fl validator.FieldLevel) bool {
	return alnumUsername.MatchString(fl.Field().String())
}

func validateNotEqualFieldCI(fl validator.FieldLevel) bool {
	other, _, _, ok := fl.GetStructFieldOK2()
	if !ok || other.Kind() != reflect.String {
		return true
	}
	return !strings.EqualFold(fl.Field().String(), other.String())
}
