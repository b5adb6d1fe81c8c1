// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for corepool.

package api

import (
	"errors"
	"fmt"
)

// Common errors used across the library.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAlreadyExists   = errors.New("resource already exists")
	ErrNotSupported    = errors.New("operation not supported")
	ErrPoolClosed      = errors.New("thread pool is closed")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeInvalidArgument
	ErrCodeAlreadyExists
	ErrCodeNotSupported
	ErrCodeClosed
	ErrCodeInternal
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// Is maps the code onto the sentinel errors so errors.Is works on structured errors.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidArgument:
		return e.Code == ErrCodeInvalidArgument
	case ErrAlreadyExists:
		return e.Code == ErrCodeAlreadyExists
	case ErrNotSupported:
		return e.Code == ErrCodeNotSupported
	case ErrPoolClosed:
		return e.Code == ErrCodeClosed
	}
	return false
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
