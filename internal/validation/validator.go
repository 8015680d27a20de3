package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	personNameRe = regexp.MustCompile(`^[A-Za-z\s]+$`)
	leadNameRe   = regexp.MustCompile(`^[a-zA-Z0-9\s\-'.]+$`)
	phoneRe      = regexp.MustCompile(`^[+]?[(]?[0-9]{3}[)]?[-\s.]?[0-9]{3}[-\s.]?[0-9]{4,6}$`)
	fieldNameRe  = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// Messages maps "field.tag" (or just "field") to the message reported when
// that rule fails.
type Messages map[string]string

// Validator runs struct-tag rules and reports failures under json names.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with the custom rules used by the API.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "personname", func(fl validator.FieldLevel) bool {
		return personNameRe.MatchString(fl.Field().String())
	})
	mustRegister(v, "leadname", func(fl validator.FieldLevel) bool {
		return leadNameRe.MatchString(fl.Field().String())
	})
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	})
	mustRegister(v, "strongpassword", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// Struct validates s and appends one message per failing field.
func (v *Validator) Struct(s any, msgs Messages, errs *Errors) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return fmt.Errorf("validation: %w", err)
	}
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return fmt.Errorf("validation: %w", err)
	}
	for _, fe := range failures {
		field := fe.Field()
		if msg, ok := msgs[field+"."+fe.Tag()]; ok {
			errs.Add(field, msg)
			continue
		}
		if msg, ok := msgs[field]; ok {
			errs.Add(field, msg)
			continue
		}
		errs.Add(field, defaultMessage(fe))
	}
	return nil
}

// StructCheck adapts struct-tag validation to a pipeline step.
func StructCheck[T any](v *Validator, msgs Messages) Check[T] {
	return func(_ context.Context, in *T, errs *Errors) error {
		return v.Struct(in, msgs, errs)
	}
}

func defaultMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please provide a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s does not match", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// StrongPassword requires at least one lower-case letter, one upper-case
// letter and one digit.
func StrongPassword(pw string) bool {
	var lower, upper, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

// FieldName reports whether name is usable as a free-form field key.
func FieldName(name string) bool {
	return fieldNameRe.MatchString(name)
}
