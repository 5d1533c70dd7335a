package cronexec

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind represents the type of error that occurred.
type ErrorKind string

const (
	ErrorKindLex        ErrorKind = "lex"
	ErrorKindParse      ErrorKind = "parse"
	ErrorKindEval       ErrorKind = "eval"
	ErrorKindDefinition ErrorKind = "definition"
	ErrorKindConvert    ErrorKind = "convert"
)

// ErrNoCandidate reports that a field has no further value in the requested
// direction within its domain. Callers carry into the enclosing calendar unit.
var ErrNoCandidate = errors.New("cronexec: no candidate value")

// errSearchExhausted ends a bounded search that never converged. It is
// surfaced to callers as an absent result, never as an error.
var errSearchExhausted = errors.New("cronexec: search exhausted")

// Span represents a range of character positions in the input.
type Span struct {
	Start int
	End   int
}

// Error represents an error that occurred during parsing or while building
// an evaluator from a malformed field set.
type Error struct {
	Kind       ErrorKind
	Message    string
	Span       *Span
	Input      string
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// LexError creates a new lexer error.
func LexError(message string, span Span, input string) *Error {
	return &Error{
		Kind:    ErrorKindLex,
		Message: message,
		Span:    &span,
		Input:   input,
	}
}

// ParseError creates a new parser error.
func ParseError(message string, span Span, input string, suggestion string) *Error {
	return &Error{
		Kind:       ErrorKindParse,
		Message:    message,
		Span:       &span,
		Input:      input,
		Suggestion: suggestion,
	}
}

// EvalError creates a new evaluation error.
func EvalError(message string) *Error {
	return &Error{
		Kind:    ErrorKindEval,
		Message: message,
	}
}

// DefinitionError creates a new dialect definition error.
func DefinitionError(message string) *Error {
	return &Error{
		Kind:    ErrorKindDefinition,
		Message: message,
	}
}

// ConvertError creates a new dialect conversion error.
func ConvertError(message string) *Error {
	return &Error{
		Kind:    ErrorKindConvert,
		Message: message,
	}
}

// DisplayRich formats a rich error message with underline and optional suggestion.
func (e *Error) DisplayRich() string {
	if (e.Kind == ErrorKindLex || e.Kind == ErrorKindParse) && e.Span != nil && e.Input != "" {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("error: %s\n", e.Message))
		sb.WriteString(fmt.Sprintf("  %s\n", e.Input))

		padding := strings.Repeat(" ", e.Span.Start+2)
		underlineLen := e.Span.End - e.Span.Start
		if underlineLen < 1 {
			underlineLen = 1
		}
		sb.WriteString(padding)
		sb.WriteString(strings.Repeat("^", underlineLen))

		if e.Suggestion != "" {
			sb.WriteString(fmt.Sprintf(" try: \"%s\"", e.Suggestion))
		}

		return sb.String()
	}

	return fmt.Sprintf("error: %s", e.Message)
}
