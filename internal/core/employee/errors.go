package employee

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidID            = errors.New("employee: invalid id")
	ErrValidation           = errors.New("employee: validation failed")
	ErrInvalidPageNumber    = errors.New("employee: invalid page number")
	ErrInvalidPageSize      = errors.New("employee: invalid page size")
	ErrInvalidSortColumn    = errors.New("employee: invalid sort column")
	ErrInvalidSortDirection = errors.New("employee: invalid sort direction")
	ErrInvalidDateRange     = errors.New("employee: invalid date range")
	ErrInvalidImage         = errors.New("employee: invalid image")
	ErrEmployeeNotFound     = errors.New("employee: not found")
	ErrEmailAlreadyExists   = errors.New("employee: email already exists")
)

// ValidationError は項目ごとの入力エラーを保持します。errors.Is(err, ErrValidation) が成立します。
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
