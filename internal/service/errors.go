package service

import (
	"errors"
	"fmt"
	"strings"

	"servicedesk/backend/internal/domain"
	"servicedesk/backend/internal/store"
)

var (
	// ErrNotFound covers settlements and branches outside the caller's company scope.
	ErrNotFound = store.ErrNotFound
	ErrConflict = errors.New("settlement already exists for branch and date")
)

func notFound(kind string, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

// InvalidStateTransitionError reports an operation attempted outside its permitted statuses.
type InvalidStateTransitionError struct {
	SettlementID string
	Operation    string
	Current      domain.SettlementStatus
}

func (e *InvalidStateTransitionError) Error() string {
	status := strings.ToLower(string(e.Current))
	if e.Current.Editable() {
		return fmt.Sprintf("settlement is %s and cannot be %s", status, e.Operation)
	}
	return fmt.Sprintf("settlement is already %s and cannot be %s", status, e.Operation)
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func validationError(field string, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func IsInvalidState(err error) bool {
	var target *InvalidStateTransitionError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
