package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "signet/pkg/domain-errors"
	s "signet/pkg/string"
)

// passwordSymbols is the set of symbols a password must draw from.
const passwordSymbols = "~`!@#$%^&*()_-+={[}]|\\:;\"'<,>.?/"

// passwordMaxRepeats allows the same character at most this many times.
const passwordMaxRepeats = 3

var defaultValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return PasswordRuleViolation(fl.Field().String()) == ""
	})
	return v
}

// Validate validates a struct using the default validator and returns a domain error
func Validate(req any) error {
	if err := defaultValidator.Struct(req); err != nil {
		return dErrors.New(dErrors.CodeValidation, ErrorMessage(err))
	}
	return nil
}

// PasswordRuleViolation checks a plaintext password against the account
// password rules and returns a description of the first violated rule,
// or "" when the password is acceptable.
func PasswordRuleViolation(password string) string {
	if len(password) < 8 {
		return "password must be at least 8 characters"
	}
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	counts := make(map[rune]int, len(password))
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSymbols, r):
			hasSymbol = true
		}
		counts[r]++
	}
	switch {
	case !hasUpper:
		return "password must contain an uppercase letter"
	case !hasLower:
		return "password must contain a lowercase letter"
	case !hasDigit:
		return "password must contain a digit"
	case !hasSymbol:
		return "password must contain a symbol"
	}
	for _, n := range counts {
		if n > passwordMaxRepeats {
			return fmt.Sprintf("password must not repeat the same character more than %d times", passwordMaxRepeats)
		}
	}
	return ""
}

// ErrorMessage converts a validator error into a human-readable message
func ErrorMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "invalid request body"
	}

	fe := validationErrs[0]
	fieldName := fe.Field()
	if fieldName == "" {
		fieldName = fe.StructField()
	}
	field := s.ToSnakeCase(fieldName)

	switch fe.ActualTag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid uuid", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", field)
	case "password":
		if v, ok := fe.Value().(string); ok {
			if msg := PasswordRuleViolation(v); msg != "" {
				return msg
			}
		}
		return "password does not meet complexity requirements"
	default:
		if field == "" {
			return "invalid request body"
		}
		return fmt.Sprintf("%s is invalid", field)
	}
}
