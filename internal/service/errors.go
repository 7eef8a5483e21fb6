package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrForbidden indicates the actor lacks the capability required by the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState indicates the record already left the pending state.
	ErrInvalidState = errors.New("record has already been reviewed")
	// ErrPersistence indicates the primary write failed and nothing was applied.
	ErrPersistence = errors.New("failed to persist change")
	// ErrCourseNotFound indicates the course does not exist or is not visible to the caller.
	ErrCourseNotFound = errors.New("course not found")
	// ErrApplicationNotFound indicates the instructor application does not exist.
	ErrApplicationNotFound = errors.New("instructor application not found")
	// ErrApplicationPending indicates the user already has an application awaiting review.
	ErrApplicationPending = errors.New("an instructor application is already pending review")
	// ErrApplicationClosed indicates the user's last application was already decided.
	ErrApplicationClosed = errors.New("instructor application was already reviewed")
	// ErrNotificationNotFound indicates the notification does not belong to the caller.
	ErrNotificationNotFound = errors.New("notification not found")
)

// ValidationError reports field-level input problems.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, e.Fields[key]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func fieldError(field, message string) error {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// validationFromStruct runs struct validation and converts failures into a ValidationError.
func validationFromStruct(validate *validator.Validate, payload interface{}) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		fields[snakeCase(fe.Field())] = describeRule(fe)
	}
	return &ValidationError{Fields: fields}
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}

// snakeCase turns Go field names such as PortfolioURL into portfolio_url.
func snakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prevLower := unicode.IsLower(runes[i-1])
				// A trailing "s" after an acronym is a plural, as in CourseIDs.
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1]) &&
					!(runes[i+1] == 's' && i+2 == len(runes))
				if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
