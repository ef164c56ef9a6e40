// Package service holds the owner-scoped link and user operations. Every
// operation validates its input, checks the caller against the owner, checks
// existence and only then touches a store.
package service

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	// ErrForbidden is returned when the caller acts on another user's resources.
	ErrForbidden = errors.New("forbidden")
	// ErrUserNotFound is returned when the addressed user has no record.
	ErrUserNotFound = errors.New("user not found")
	// ErrLinkNotFound is returned for missing links and links of other owners.
	ErrLinkNotFound = errors.New("link not found")
	// ErrUserExists is returned when creating a user whose id is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrDuplicateURL is returned when the url uniqueness policy rejects a link.
	ErrDuplicateURL = errors.New("link with this url already exists")
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
)

// FieldError is one violated field constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every field violation of a payload at once.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidation) match any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// toValidationError converts an ozzo-validation result. Internal rule errors
// are returned unchanged.
func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make([]FieldError, 0, len(errs))
	for name, fe := range errs {
		if fe == nil {
			continue
		}
		fields = append(fields, FieldError{Field: name, Message: fe.Error()})
	}
	if len(fields) == 0 {
		return nil
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return &ValidationError{Fields: fields}
}
