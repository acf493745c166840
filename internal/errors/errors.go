package errors

import (
	"errors"
	"fmt"
)

// ErrorCode is a stable identifier for a failure mode surfaced to users.
type ErrorCode string

const (
	// StoreUnavailable means the database could not be opened or queried.
	StoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// StoreEmpty means the database has no symbols to analyze.
	StoreEmpty ErrorCode = "STORE_EMPTY"
	// IndexMissing means no SCIP index exists at the configured path.
	IndexMissing ErrorCode = "INDEX_MISSING"
	// IndexInvalid means the SCIP index could not be decoded.
	IndexInvalid ErrorCode = "INDEX_INVALID"
	// InvalidParameter means a flag, argument or config value is out of range.
	InvalidParameter ErrorCode = "INVALID_PARAMETER"
	// ExportFailed means a snapshot could not be encoded or written.
	ExportFailed ErrorCode = "EXPORT_FAILED"
	// InternalError is anything unexpected.
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType is the kind of remedy a FixAction suggests.
type FixActionType string

const (
	RunCommand FixActionType = "run-command"
	EditConfig FixActionType = "edit-config"
)

// FixAction is a suggested remedy for an error.
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// SquintError carries a code, a message and suggested fixes.
type SquintError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// New creates a SquintError with the default fixes for code.
func New(code ErrorCode, message string, cause error) *SquintError {
	return &SquintError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf is New with a formatted message and no cause.
func Newf(code ErrorCode, format string, args ...interface{}) *SquintError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *SquintError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *SquintError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *SquintError) WithDetails(details interface{}) *SquintError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first SquintError in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	var se *SquintError
	if errors.As(err, &se) {
		return se.Code
	}
	return InternalError
}

// AsSquintError returns the first SquintError in err's chain.
func AsSquintError(err error) (*SquintError, bool) {
	var se *SquintError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	StoreUnavailable: {
		{
			Type:        RunCommand,
			Command:     "squint status",
			Safe:        true,
			Description: "Check that .squint/squint.db exists and is readable",
		},
	},
	StoreEmpty: {
		{
			Type:        RunCommand,
			Command:     "squint ingest",
			Safe:        true,
			Description: "Load symbols and call edges from a SCIP index",
		},
	},
	IndexMissing: {
		{
			Type:        RunCommand,
			Command:     "squint ingest --index <path/to/index.scip>",
			Safe:        true,
			Description: "Point ingest at an existing SCIP index",
		},
	},
	IndexInvalid: {
		{
			Type:        RunCommand,
			Command:     "squint ingest --index <path/to/index.scip>",
			Safe:        true,
			Description: "Regenerate the SCIP index and ingest again",
		},
	},
	InvalidParameter: {
		{
			Type:        EditConfig,
			Description: "Check .squint/config.json and command flags",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
