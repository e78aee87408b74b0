package exitcode

import (
	"os"
	"strings"

	"github.com/felixgeelhaar/scopeplan/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid usage: bad flags, a malformed build
	// instruction or an invalid configuration
	UsageError = 2

	// InvariantViolation indicates a rejected hierarchy or version change
	InvariantViolation = 3

	// CatalogError indicates a catalog that is missing, unreadable or invalid
	CatalogError = 4

	// InternalError indicates a broken internal invariant such as a dependency
	// graph whose indexes disagree
	InternalError = 5

	// Interrupted indicates the command was cancelled by SIGINT or SIGTERM
	Interrupted = 130
)

var codeExits = map[errors.ErrorCode]int{
	errors.ErrCodeInvalidInstruction: UsageError,
	errors.ErrCodeConfigInvalid:      UsageError,
	errors.ErrCodeInvalidVersion:     UsageError,

	errors.ErrCodeHierarchyViolation: InvariantViolation,
	errors.ErrCodeCycleViolation:     InvariantViolation,
	errors.ErrCodeInvalidTransition:  InvariantViolation,
	errors.ErrCodeNodeNotFound:       InvariantViolation,
	errors.ErrCodeDuplicateNode:      InvariantViolation,
	errors.ErrCodeNodeBusy:           InvariantViolation,
	errors.ErrCodeVersionDowngrade:   InvariantViolation,
	errors.ErrCodeDependencyCycle:    InvariantViolation,

	errors.ErrCodeUnknownComponent: CatalogError,
	errors.ErrCodeCatalogInvalid:   CatalogError,
	errors.ErrCodeFileNotFound:     CatalogError,
	errors.ErrCodeFileReadFailed:   CatalogError,
	errors.ErrCodeFileUnmarshal:    CatalogError,

	errors.ErrCodeGraphInconsistency: InternalError,
}

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps an error to an exit code. Coded errors are mapped
// by code; cobra usage errors are recognised by message.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if code, ok := codeExits[errors.CodeOf(err)]; ok {
		return code
	}

	errMsg := strings.ToLower(err.Error())
	for _, usage := range []string{"unknown command", "unknown flag", "invalid argument", "required flag", "accepts "} {
		if strings.Contains(errMsg, usage) {
			return UsageError
		}
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags, arguments, instruction or configuration)"
	case InvariantViolation:
		return "Hierarchy or version invariant violation"
	case CatalogError:
		return "Catalog missing or invalid"
	case InternalError:
		return "Internal invariant failure"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
