package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Hierarchy errors (HIER-001 to HIER-099)
	ErrCodeHierarchyViolation ErrorCode = "HIER-001"
	ErrCodeCycleViolation     ErrorCode = "HIER-002"
	ErrCodeInvalidTransition  ErrorCode = "HIER-003"
	ErrCodeNodeNotFound       ErrorCode = "HIER-004"
	ErrCodeDuplicateNode      ErrorCode = "HIER-005"
	ErrCodeNodeBusy           ErrorCode = "HIER-006"

	// Catalog errors (CAT-001 to CAT-099)
	ErrCodeUnknownComponent ErrorCode = "CAT-001"
	ErrCodeCatalogInvalid   ErrorCode = "CAT-002"

	// Graph errors (GRAPH-001 to GRAPH-099)
	ErrCodeGraphInconsistency ErrorCode = "GRAPH-001"
	ErrCodeDependencyCycle    ErrorCode = "GRAPH-002"

	// Version errors (VER-001 to VER-099)
	ErrCodeInvalidVersion   ErrorCode = "VER-001"
	ErrCodeVersionDowngrade ErrorCode = "VER-002"

	// Planning errors (PLAN-001 to PLAN-099)
	ErrCodeInvalidInstruction ErrorCode = "PLAN-001"

	// Configuration errors (CFG-001 to CFG-099)
	ErrCodeConfigInvalid ErrorCode = "CFG-001"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound    ErrorCode = "IO-001"
	ErrCodeFileReadFailed  ErrorCode = "IO-002"
	ErrCodeFileWriteFailed ErrorCode = "IO-003"
	ErrCodeFileUnmarshal   ErrorCode = "IO-004"
	ErrCodeFileMarshal     ErrorCode = "IO-005"
)

// Sentinels for errors.Is checks. Matching is by code, so any *Error carrying
// the same code satisfies errors.Is against these values.
var (
	ErrHierarchyViolation = New(ErrCodeHierarchyViolation, "hierarchy violation")
	ErrCycleViolation     = New(ErrCodeCycleViolation, "cycle violation")
	ErrInvalidTransition  = New(ErrCodeInvalidTransition, "invalid status transition")
	ErrNodeNotFound       = New(ErrCodeNodeNotFound, "node not found")
	ErrDuplicateNode      = New(ErrCodeDuplicateNode, "duplicate node")
	ErrNodeBusy           = New(ErrCodeNodeBusy, "node busy")
	ErrUnknownComponent   = New(ErrCodeUnknownComponent, "unknown component")
	ErrGraphInconsistency = New(ErrCodeGraphInconsistency, "graph inconsistency")
	ErrDependencyCycle    = New(ErrCodeDependencyCycle, "dependency cycle")
	ErrInvalidVersion     = New(ErrCodeInvalidVersion, "invalid version")
	ErrVersionDowngrade   = New(ErrCodeVersionDowngrade, "version downgrade")
	ErrInvalidInstruction = New(ErrCodeInvalidInstruction, "invalid build instruction")
	ErrConfigInvalid      = New(ErrCodeConfigInvalid, "invalid configuration")
)

// Error is a coded error with optional remediation hints
type Error struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new Error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with a formatted message
func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap creates a new Error wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *Error) WithSuggestions(suggestions ...string) *Error {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is is a convenience wrapper around the standard library errors.Is.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As is a convenience wrapper around the standard library errors.As.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Join is a convenience wrapper around the standard library errors.Join.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// Common error constructors

// NewHierarchyViolation reports a nesting that breaks the level weight order.
func NewHierarchyViolation(child string, childWeight int, parent string, parentWeight int) *Error {
	return Newf(ErrCodeHierarchyViolation,
		"%s (weight %d) cannot nest under %s (weight %d)", child, childWeight, parent, parentWeight).
		WithSuggestion("A component may only be placed under a parent with a strictly larger level weight")
}

// NewCycleViolation reports an ownership change that would create a cycle.
func NewCycleViolation(child, parent string) *Error {
	return Newf(ErrCodeCycleViolation, "attaching %s under %s would create an ownership cycle", child, parent).
		WithSuggestion("Move the descendant out of the subtree before re-parenting its ancestor")
}

// NewNodeNotFound reports a missing hierarchy node.
func NewNodeNotFound(id string) *Error {
	return Newf(ErrCodeNodeNotFound, "component %s is not part of the hierarchy", id)
}

// NewVersionDowngrade reports a rejected move to a strictly lower version.
func NewVersionDowngrade(id, current, target string) *Error {
	return Newf(ErrCodeVersionDowngrade, "%s cannot move from %s to %s", id, current, target).
		WithSuggestion("Downgrades are not compatible upgrades; use the explicit rollback path")
}

// NewInvalidInstruction reports a malformed build instruction.
func NewInvalidInstruction(details string) *Error {
	return Newf(ErrCodeInvalidInstruction, "invalid build instruction: %s", details).
		WithSuggestion("Check the target, scope and action fields of the instruction")
}

// NewGraphInconsistency reports a forward/reverse index mismatch.
func NewGraphInconsistency(details string) *Error {
	return Newf(ErrCodeGraphInconsistency, "dependency graph index mismatch: %s", details)
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *Error {
	return Newf(ErrCodeFileNotFound, "file not found: %s", path).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *Error {
	return Wrap(ErrCodeFileUnmarshal, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}
