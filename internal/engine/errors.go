package engine

import (
	"errors"
	"fmt"
)

// EngineError is a structured failure surfaced to the presentation layer.
//
// The taxonomy is deliberately small:
//   - PERMISSION_DENIED: the action requires admin and the caller lacked it
//   - NO_DATA: a query or sweep found nothing to report
//   - INVALID_REQUEST: the request was missing a group/user or named an
//     unknown action
//
// AlreadyMarked is NOT an error (it is a mark status), and storage
// corruption never reaches callers: the store recovers it at load time.
type EngineError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Group identifies the affected group, when known.
	Group string

	// User identifies the requesting user, when known.
	User string
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodePermissionDenied marks an admin-only action by a non-admin.
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrCodeNoData marks a query with nothing to report.
	ErrCodeNoData ErrorCode = "NO_DATA"

	// ErrCodeInvalidRequest marks a structurally invalid request.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
)

// Error implements the error interface.
func (e *EngineError) Error() string {
	switch {
	case e.Group != "" && e.User != "":
		return fmt.Sprintf("%s: %s (group=%s, user=%s)", e.Code, e.Message, e.Group, e.User)
	case e.Group != "":
		return fmt.Sprintf("%s: %s (group=%s)", e.Code, e.Message, e.Group)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsPermissionDenied reports whether err is a permission failure.
// Uses errors.As to handle wrapped errors.
func IsPermissionDenied(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee) && ee.Code == ErrCodePermissionDenied
}

// IsNoData reports whether err is an empty-result notice.
// Uses errors.As to handle wrapped errors.
func IsNoData(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee) && ee.Code == ErrCodeNoData
}

// NewPermissionDenied creates an EngineError for an admin-only action.
func NewPermissionDenied(action Action, group, user string) *EngineError {
	return &EngineError{
		Code:    ErrCodePermissionDenied,
		Message: fmt.Sprintf("action %s requires admin", action),
		Group:   group,
		User:    user,
	}
}

// NewNoData creates an EngineError for an empty query result.
func NewNoData(message, group string) *EngineError {
	return &EngineError{Code: ErrCodeNoData, Message: message, Group: group}
}

// NewInvalidRequest creates an EngineError for a malformed request.
func NewInvalidRequest(message string) *EngineError {
	return &EngineError{Code: ErrCodeInvalidRequest, Message: message}
}
