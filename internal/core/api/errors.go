package api

import (
	"errors"

	"github.com/solatis/casekeeper/internal/types"
)

// Process exit codes for CLI callers.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitReportFailed = 2 // validation ran and found blocking issues
	ExitInvalidInput = 3
	ExitNotFound     = 4
)

// ErrReportNotOK marks a validation run whose report has blocking issues.
var ErrReportNotOK = errors.New("validation report has blocking issues")

// ExitCode maps an engine error to a process exit code.
// Malformed documents and unknown profiles or sections are invalid input;
// business-rule failures only surface through ErrReportNotOK.
func ExitCode(err error) int {
	var (
		invalidXML  *types.InvalidXMLError
		schema      *types.SchemaValidationError
		foreignRoot *types.UnsupportedRootError
		notImpl     *types.NotImplementedError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrReportNotOK):
		return ExitReportFailed
	case errors.Is(err, types.ErrCaseNotFound):
		return ExitNotFound
	case errors.As(err, &invalidXML),
		errors.As(err, &schema),
		errors.As(err, &foreignRoot),
		errors.As(err, &notImpl),
		errors.Is(err, types.ErrMissingRootElement),
		errors.Is(err, types.ErrUnknownProfile),
		errors.Is(err, types.ErrUnknownSection),
		errors.Is(err, types.ErrInvalidCaseID),
		errors.Is(err, types.ErrInvalidCharacter):
		return ExitInvalidInput
	default:
		return ExitFailure
	}
}
