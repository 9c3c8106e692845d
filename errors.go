package dues

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("dues: not found")
	ErrAlreadyExists = errors.New("dues: already exists")
	ErrInvalidInput  = errors.New("dues: invalid input")

	// Resident errors
	ErrResidentNotFound = errors.New("dues: resident not found")
	ErrResidentInactive = errors.New("dues: resident has moved out")

	// Invoice errors
	ErrInvoiceNotFound = errors.New("dues: invoice not found")
	ErrInvoiceExists   = errors.New("dues: invoice already exists for billing period")
	ErrInvoicePaid     = errors.New("dues: invoice already paid")

	// Notice errors
	ErrNoticeNotFound    = errors.New("dues: legal notice not found")
	ErrNoticeAlreadySent = errors.New("dues: legal notice already sent")
	ErrNoticeNotDraft    = errors.New("dues: legal notice is not a draft")
	ErrNoticeResolved    = errors.New("dues: legal notice already resolved")
	ErrNoticeConflict    = errors.New("dues: legal notice changed concurrently")

	// Dispatch errors
	ErrDispatchFailed     = errors.New("dues: dispatch failed")
	ErrNoDispatcher       = errors.New("dues: no dispatcher configured")
	ErrUnknownFormat      = errors.New("dues: unknown export format")
	ErrRecipientMissing   = errors.New("dues: recipient has no address for channel")
	ErrUnsupportedChannel = errors.New("dues: unsupported channel")

	// Store errors
	ErrStoreNotReady   = errors.New("dues: store not ready")
	ErrStoreClosed     = errors.New("dues: store is closed")
	ErrMigrationFailed = errors.New("dues: migration failed")
)

// ValidationError reports a rejected input field. Err, when set, carries the
// underlying cause; otherwise the error matches ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("dues: validation failed for %s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidInput, e.Err}
	}
	return []error{ErrInvalidInput}
}

// NewValidationError builds a ValidationError without a cause.
func NewValidationError(field, message string) error {
	return ValidationError{Field: field, Message: message}
}

// DispatchError reports a failed delivery on a notification channel.
// Delivery failures are transient, so IsRetryable matches them.
type DispatchError struct {
	Channel string
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dues: dispatch on %s failed: %v", e.Channel, e.Err)
}

func (e *DispatchError) Unwrap() []error {
	return []error{ErrDispatchFailed, e.Err}
}

// MultiError collects several errors.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "dues: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("dues: %d errors occurred", len(e.Errors))
}

func (e MultiError) Unwrap() []error { return e.Errors }

// Add appends err when it is non-nil.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors reports whether any error was added.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrorOrNil returns e when it holds errors, nil otherwise.
func (e MultiError) ErrorOrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrResidentNotFound) ||
		errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrNoticeNotFound)
}

// IsValidation returns true if the error is an input validation failure.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrInvalidInput)
}

// IsConflict returns true if the error is a uniqueness or state-transition conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrInvoiceExists) ||
		errors.Is(err, ErrInvoicePaid) ||
		errors.Is(err, ErrNoticeAlreadySent) ||
		errors.Is(err, ErrNoticeNotDraft) ||
		errors.Is(err, ErrNoticeResolved) ||
		errors.Is(err, ErrNoticeConflict) ||
		errors.Is(err, ErrResidentInactive)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrDispatchFailed) ||
		errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrNoticeConflict)
}
