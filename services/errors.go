package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ValidationError reports malformed input to a curation or claim operation. Not retryable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a season, reward or character lookup that matched nothing.
type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

// ClaimReason says which claim precondition failed.
type ClaimReason string

const (
	ClaimNotUnlocked    ClaimReason = "not-unlocked"
	ClaimAlreadyClaimed ClaimReason = "already-claimed"
	ClaimSeasonMismatch ClaimReason = "season-mismatch"
)

// ClaimError is returned when a reward is not in the unlocked-unclaimed state for the character.
type ClaimError struct {
	Reason   ClaimReason
	RewardID uint64
	Detail   string
}

func (e *ClaimError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("claim of reward %d rejected: %s", e.RewardID, e.Reason)
	}
	return fmt.Sprintf("claim of reward %d rejected: %s (%s)", e.RewardID, e.Reason, e.Detail)
}

// ServiceUnavailableError wraps a transport or storage failure. Callers may retry.
type ServiceUnavailableError struct {
	Op  string
	Err error
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("%s: service unavailable: %v", e.Op, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error {
	return e.Err
}

// IsClaimReason reports whether err is a ClaimError with the given reason.
func IsClaimReason(err error, reason ClaimReason) bool {
	var claimErr *ClaimError
	return errors.As(err, &claimErr) && claimErr.Reason == reason
}

// storeError classifies a gorm error: typed errors pass through, record-not-found becomes
// NotFoundError, everything else is treated as the store being unreachable.
func storeError(op, resource string, id any, err error) error {
	if err == nil {
		return nil
	}
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		claimErr      *ClaimError
		unavailErr    *ServiceUnavailableError
	)
	switch {
	case errors.As(err, &validationErr), errors.As(err, &notFoundErr),
		errors.As(err, &claimErr), errors.As(err, &unavailErr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &NotFoundError{Resource: resource, ID: id}
	default:
		return &ServiceUnavailableError{Op: op, Err: err}
	}
}
