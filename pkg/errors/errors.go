package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Export errors
	ErrDestinationExists ErrorCode = "DESTINATION_EXISTS"
	ErrFilesystem        ErrorCode = "FILESYSTEM"
	ErrBrokenSymlink     ErrorCode = "BROKEN_SYMLINK"
	ErrSymlinkLoop       ErrorCode = "SYMLINK_LOOP"

	// Descriptor errors
	ErrDescriptorRead  ErrorCode = "DESCRIPTOR_READ"
	ErrDescriptorWrite ErrorCode = "DESCRIPTOR_WRITE"
	ErrPackageTree     ErrorCode = "PACKAGE_TREE"
)

// DopackError represents a structured error with code and details
type DopackError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *DopackError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *DopackError) Unwrap() error {
	return e.Wrapped
}

// Is matches any DopackError carrying the same code
func (e *DopackError) Is(target error) bool {
	var targetErr *DopackError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new DopackError with the given code and message
func New(code ErrorCode, message string) *DopackError {
	return &DopackError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new DopackError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *DopackError {
	return &DopackError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a DopackError
func Wrap(err error, code ErrorCode, message string) *DopackError {
	if err == nil {
		return nil
	}
	return &DopackError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *DopackError {
	if err == nil {
		return nil
	}
	return &DopackError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *DopackError) WithDetail(key string, value interface{}) *DopackError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *DopackError) WithDetails(details map[string]interface{}) *DopackError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var dopackErr *DopackError
	if errors.As(err, &dopackErr) {
		return dopackErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a DopackError
func GetErrorCode(err error) ErrorCode {
	var dopackErr *DopackError
	if errors.As(err, &dopackErr) {
		return dopackErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a DopackError
func GetErrorDetails(err error) map[string]interface{} {
	var dopackErr *DopackError
	if errors.As(err, &dopackErr) {
		return dopackErr.Details
	}
	return nil
}

// Filesystem wraps an I/O failure with the path it happened on. Errors that
// already carry a code pass through untouched so the innermost context wins.
func Filesystem(err error, op, path string) error {
	if err == nil {
		return nil
	}
	var dopackErr *DopackError
	if errors.As(err, &dopackErr) {
		return err
	}
	return Wrapf(err, ErrFilesystem, "%s failed", op).WithDetail("path", path)
}
