package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for casekeeper operations.
var (
	// ErrMissingRootElement indicates a document with no root element.
	ErrMissingRootElement = errors.New("document has no root element")

	// ErrUnknownProfile indicates a profile name outside ICH/FDA/MFDS.
	ErrUnknownProfile = errors.New("unknown profile")

	// ErrUnknownSection indicates a section name the codec does not declare.
	ErrUnknownSection = errors.New("unknown section")

	// ErrUnknownFact indicates a rule condition names a fact RuleFacts lacks.
	ErrUnknownFact = errors.New("unknown rule fact")

	// ErrEmptyExpression indicates a condition group with no conditions.
	ErrEmptyExpression = errors.New("rule expression is empty")

	// ErrInvalidOperator indicates an unknown or incompatible operator.
	ErrInvalidOperator = errors.New("invalid operator for fact type")

	// ErrCoercionFailed indicates type coercion failed.
	ErrCoercionFailed = errors.New("type coercion failed")

	// ErrCaseNotFound indicates the collaborator holds no case for an ID.
	ErrCaseNotFound = errors.New("case not found")

	// ErrInvalidCharacter indicates a field value XML 1.0 cannot carry:
	// invalid UTF-8 or a control character other than tab, LF and CR.
	ErrInvalidCharacter = errors.New("value contains a character not allowed in XML")

	// ErrInvalidCaseID indicates a case ID that is not a UUID.
	ErrInvalidCaseID = errors.New("invalid case ID")
)

// InvalidXMLError reports malformed input. Line and Column are 1-based and
// zero when the position is unknown.
type InvalidXMLError struct {
	Message string
	Line    int
	Column  int
}

func (e *InvalidXMLError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid XML at line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return "invalid XML: " + e.Message
}

// SchemaValidationError collects every structural violation found in one
// document.
type SchemaValidationError struct {
	Errors []string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("schema validation failed (%d errors): %s", len(e.Errors), strings.Join(e.Errors, "; "))
}

// UnsupportedRootError reports a document whose root element is neither
// the batch wrapper nor a bare message.
type UnsupportedRootError struct {
	Found string
}

func (e *UnsupportedRootError) Error() string {
	return fmt.Sprintf("unsupported root element %q", e.Found)
}

// NotImplementedError marks sections the codec intentionally leaves
// unhandled.
type NotImplementedError struct {
	Feature string
}

func (e *NotImplementedError) Error() string {
	return "not implemented: " + e.Feature
}
