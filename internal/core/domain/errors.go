package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy shared by every layer. Transport maps these to status codes.
var (
	ErrDuplicateIdentifier = errors.New("email already exists")
	ErrNotFound            = errors.New("not found")
	ErrAccountDisabled     = errors.New("account disabled")
	ErrInvalidCredential   = errors.New("invalid email or password")
	ErrValidationFailed    = errors.New("validation failed")
	ErrStorageFailure      = errors.New("storage failure")
	ErrUploadRejected      = errors.New("upload rejected")
)

// ErrAccountLocked is an AccountDisabled variant raised while lockUntil is in the future.
var ErrAccountLocked = fmt.Errorf("%w: temporarily locked after repeated failed logins", ErrAccountDisabled)

// ErrReferralCodeTaken reports a generated referral code that another account
// already holds. It stays a storage failure if it reaches the caller.
var ErrReferralCodeTaken = fmt.Errorf("%w: referral code already taken", ErrStorageFailure)

// ErrVersionConflict signals an optimistic concurrency miss on a versioned row.
var ErrVersionConflict = errors.New("version conflict")

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// ValidationError aggregates field errors and matches ErrValidationFailed.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string, value any) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message, Value: value}}}
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidationFailed.Error()
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, ", ")
}

// Is makes errors.Is(err, ErrValidationFailed) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string, value any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message, Value: value})
}

// OrNil returns nil when no field errors were collected.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// StorageError wraps an unexpected persistence error.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps err unless it already belongs to the taxonomy.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageFailure
}

// IsDomainError reports whether err is one of the taxonomy kinds.
func IsDomainError(err error) bool {
	for _, kind := range []error{
		ErrDuplicateIdentifier,
		ErrNotFound,
		ErrAccountDisabled,
		ErrInvalidCredential,
		ErrValidationFailed,
		ErrStorageFailure,
		ErrUploadRejected,
		ErrVersionConflict,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
