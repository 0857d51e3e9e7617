package validation

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ndewijer/portfolio-ledger/internal/apperrors"
)

// Error collects field-specific validation messages.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, field := range slices.Sorted(maps.Keys(e.Fields)) {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return strings.Join(msgs, "; ")
}

// Unwrap makes every validation Error match apperrors.ErrValidation.
func (e *Error) Unwrap() error {
	return apperrors.ErrValidation
}

func result(errors map[string]string) error {
	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
