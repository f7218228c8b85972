package service

import (
	"errors"
	"fmt"
)

const (
	// ErrInternalServerError means that an internal server error has occurred.
	ErrInternalServerError = "internal_server_error"
	// ErrEntityNotFound means that the requested row or blob is absent.
	ErrEntityNotFound = "entity_not_found"
	// ErrBadParameter means that a provided parameter failed validation.
	ErrBadParameter = "bad_parameter"
)

// SyncError represents an error within the context of the sync subsystem.
type SyncError struct {
	// Code is a machine-readable code.
	Code string `json:"code,omitempty"`
	// Message is a human-readable message.
	Message string `json:"message"`
	// Inner is a wrapped error that is never shown to API consumers.
	Inner error `json:"-"`
}

// NewSyncError creates a new SyncError.
func NewSyncError(code string, message string, inner error) *SyncError {
	return &SyncError{
		Code:    code,
		Message: message,
		Inner:   inner,
	}
}

func NewInternalServerError(message string, inner error) *SyncError {
	if syncInner := ToSyncError(inner); syncInner != nil {
		return syncInner
	}

	return NewSyncError(ErrInternalServerError, message, inner)
}

func NewEntityNotFoundError(message string, inner error) *SyncError {
	if syncInner := ToSyncError(inner); syncInner != nil {
		return syncInner
	}

	return NewSyncError(ErrEntityNotFound, message, inner)
}

func NewBadParameterError(message string, inner error) *SyncError {
	if syncInner := ToSyncError(inner); syncInner != nil {
		return syncInner
	}

	return NewSyncError(ErrBadParameter, message, inner)
}

func (e SyncError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("%s %s: %v", e.Code, e.Message, e.Inner)
	}

	return fmt.Sprintf("%s %s", e.Code, e.Message)
}

// Unwrap the error returning the error's reason.
func (e SyncError) Unwrap() error {
	return e.Inner
}

// ToSyncError returns a pointer to a sync error, or nil if it is not one.
func ToSyncError(err error) *SyncError {
	var e *SyncError
	if errors.As(err, &e) {
		return e
	}

	return nil
}

// ToSyncErrorCode returns the code of the error, if available.
func ToSyncErrorCode(err error) string {
	if syncErr := ToSyncError(err); syncErr != nil {
		return syncErr.Code
	}
	return ""
}

func IsSyncError(err error, code string) bool {
	if syncErr := ToSyncError(err); syncErr != nil {
		return syncErr.Code == code
	}
	return false
}

func IsInternalServerError(err error) bool {
	return IsSyncError(err, ErrInternalServerError)
}

func IsEntityNotFoundError(err error) bool {
	return IsSyncError(err, ErrEntityNotFound)
}

func IsBadParameterError(err error) bool {
	return IsSyncError(err, ErrBadParameter)
}
