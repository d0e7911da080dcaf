// Package validation enforces the write-time rules for users, thoughts and reactions.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"thoughtnet/internal/models"

	"github.com/go-playground/validator/v10"
)

// EmailPattern is the accepted shape of a user email address.
const EmailPattern = `^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`

var emailRegex = regexp.MustCompile(EmailPattern)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so messages match request bodies.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("thoughtemail", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register thoughtemail validation: %v", err))
	}
	return v
}

// IsValidEmail reports whether email matches EmailPattern.
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// Struct validates s against its `validate` tags. Failures are returned as a
// single VALIDATION_ERROR whose message lists every offending field.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return models.NewValidationError(err.Error())
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, formatFieldError(fe))
	}
	return models.NewValidationError(strings.Join(messages, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "thoughtemail":
		return "Please enter a valid email address"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
