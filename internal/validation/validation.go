// Package validation checks user-supplied account and profile input.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("validation failed")

var emailShape = regexp.MustCompile(`^\S+@\S+\.\S+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their wire names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("email_shape", func(fl validator.FieldLevel) bool {
		return emailShape.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return strongPassword(fl.Field().String())
	})
	return v
}

// Registration is the input of account creation.
type Registration struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email_shape"`
	Password string `json:"password" validate:"required,min=8,password"`
}

// Preferences are the user-editable client settings.
type Preferences struct {
	Theme    string `json:"theme" validate:"oneof=light dark"`
	Language string `json:"language" validate:"required"`
}

// EmergencyContact must be complete to be stored.
type EmergencyContact struct {
	Name         string `json:"name" validate:"required"`
	Relationship string `json:"relationship" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	Email        string `json:"email" validate:"required,email_shape"`
}

// Register validates a registration request.
func Register(r Registration) error {
	r.Name = strings.TrimSpace(r.Name)
	return check(validate.Struct(r), "")
}

// Profile validates the optional parts of a profile update. Nil arguments are
// not checked.
func Profile(name *string, prefs *Preferences, contacts []EmergencyContact) error {
	var msgs []string

	if name != nil && strings.TrimSpace(*name) == "" {
		msgs = append(msgs, "name must not be empty")
	}
	if prefs != nil {
		msgs = append(msgs, messages(validate.Struct(*prefs), "preferences.")...)
	}
	for i, c := range contacts {
		msgs = append(msgs, messages(validate.Struct(c), fmt.Sprintf("emergency_contacts[%d].", i))...)
	}

	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func check(err error, prefix string) error {
	msgs := messages(err, prefix)
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func messages(err error, prefix string) []string {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := prefix + fe.Field()
		switch fe.Tag() {
		case "required":
			out = append(out, field+" is required")
		case "email_shape":
			out = append(out, field+" must be a valid email address")
		case "min":
			out = append(out, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "password":
			out = append(out, field+" must contain a number, an uppercase letter, a lowercase letter and a special character")
		case "oneof":
			out = append(out, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			out = append(out, field+" is invalid")
		}
	}
	return out
}

func strongPassword(p string) bool {
	var digit, upper, lower, special bool
	for _, r := range p {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return digit && upper && lower && special
}
