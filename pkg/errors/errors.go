package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryInput         ErrorCategory = "input"
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Input errors
	CodeMissingSource    ErrorCode = "missing_source"
	CodeUnexpectedUpload ErrorCode = "unexpected_upload"

	// File errors
	CodeUnreadableSource ErrorCode = "unreadable_source"

	// Parse errors
	CodeEmptyAfterNormalization ErrorCode = "empty_after_normalization"
	CodeColumnDetection         ErrorCode = "column_detection"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// ReconcilerError is the base error type for all application errors
type ReconcilerError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ReconcilerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ReconcilerError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *ReconcilerError) GetExitCode() int {
	switch e.Category {
	case CategoryInput, CategoryFile:
		return 2
	case CategoryParse:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ReconcilerError) WithContext(key string, value interface{}) *ReconcilerError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ReconcilerError) WithSuggestion(suggestion string) *ReconcilerError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ReconcilerError
func New(category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	return &ReconcilerError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ReconcilerError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if err == nil {
		return nil
	}

	return &ReconcilerError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Source-level error constructors. Every one of them aborts a report
// generation; there is no partial report.

// MissingSourceError reports that a required export was not supplied.
func MissingSourceError(source string) *ReconcilerError {
	return New(CategoryInput, CodeMissingSource,
		fmt.Sprintf("required %s export is missing", source)).
		WithSuggestion("upload all three exports (POS, Platform A, Platform B) before generating a report").
		WithContext("source", source)
}

// UnreadableSourceError wraps a decode failure for a source file.
func UnreadableSourceError(source, file string, err error) *ReconcilerError {
	message := fmt.Sprintf("cannot read %s export %s", source, file)
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}

	var result *ReconcilerError
	if err != nil {
		result = Wrap(err, CategoryFile, CodeUnreadableSource, message)
	} else {
		result = New(CategoryFile, CodeUnreadableSource, message)
	}

	return result.
		WithSuggestion("make sure the file is a CSV or XLSX export and is not password protected or truncated").
		WithContext("source", source).
		WithContext("file", file)
}

// EmptyAfterNormalizationError signals that no data rows survived the header
// skip, which almost always means the skip count does not fit the file.
func EmptyAfterNormalizationError(source string, skipRows, totalRows int) *ReconcilerError {
	return New(CategoryParse, CodeEmptyAfterNormalization,
		fmt.Sprintf("%s export has no data rows after skipping %d header rows (%d rows read)", source, skipRows, totalRows)).
		WithSuggestion("check header_skip_rows for this source against the actual export layout").
		WithContext("source", source).
		WithContext("header_skip_rows", skipRows).
		WithContext("rows", totalRows)
}

// ColumnDetectionError signals a structural header mismatch.
func ColumnDetectionError(source string, missing, available []string) *ReconcilerError {
	message := fmt.Sprintf("%s export is missing expected columns: %s", source, strings.Join(missing, ", "))
	if len(missing) == 0 {
		message = fmt.Sprintf("%s export header row has too few columns", source)
	}

	return New(CategoryParse, CodeColumnDetection, message).
		WithSuggestion(fmt.Sprintf("the detected header keys were [%s]; verify header_skip_rows and the column keys in the source profile", strings.Join(available, ", "))).
		WithContext("source", source).
		WithContext("missing_columns", missing).
		WithContext("available_columns", available)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *ReconcilerError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *ReconcilerError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *ReconcilerError {
	var message string
	var suggestion string

	switch code {
	case CodeUnexpectedError:
		message = fmt.Sprintf("unexpected error during %s", operation)
		suggestion = "this is likely a bug - please report it with the error details"
	default:
		message = fmt.Sprintf("internal error during %s", operation)
		suggestion = "try again or contact support if the problem persists"
	}

	var result *ReconcilerError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// Utility functions

// AsReconcilerError extracts a ReconcilerError from an error chain
func AsReconcilerError(err error) (*ReconcilerError, bool) {
	var reconcilerErr *ReconcilerError
	if errors.As(err, &reconcilerErr) {
		return reconcilerErr, true
	}
	return nil, false
}

// HasCode reports whether err carries a ReconcilerError with the given code.
func HasCode(err error, code ErrorCode) bool {
	reconcilerErr, ok := AsReconcilerError(err)
	return ok && reconcilerErr.Code == code
}

// WrapIfNeeded wraps an error if it's not already a ReconcilerError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *ReconcilerError {
	if err == nil {
		return nil
	}

	if reconcilerErr, ok := AsReconcilerError(err); ok {
		return reconcilerErr
	}

	return Wrap(err, category, code, message)
}
