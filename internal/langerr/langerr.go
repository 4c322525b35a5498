// Package langerr defines the structured error type shared by the
// tokenizer and parser (spec.md §7). Configuration errors are always
// surfaced as a first-class *Error value, never as panics used for
// control flow.
package langerr

import "fmt"

// Kind enumerates the closed set of configuration error kinds.
type Kind string

const (
	InvalidEncoding              Kind = "InvalidEncoding"
	UnexpectedToken              Kind = "UnexpectedToken"
	UnknownMode                  Kind = "UnknownMode"
	UnknownModifier              Kind = "UnknownModifier"
	UnknownKey                   Kind = "UnknownKey"
	EmptyProcessList             Kind = "EmptyProcessList"
	DuplicateMode                Kind = "DuplicateMode"
	UnknownOption                Kind = "UnknownOption"
	MacroPlaceholderOutOfRange   Kind = "MacroPlaceholderOutOfRange"
	WildcardCommandAlreadyExists Kind = "WildcardCommandAlreadyExists"
	ProcessCommandAlreadyExists  Kind = "ProcessCommandAlreadyExists"
	IncludeCycle                 Kind = "IncludeCycle"
	NestedMacroInvocation        Kind = "NestedMacroInvocation"
	UnknownMacro                 Kind = "UnknownMacro"
	UnknownGroup                 Kind = "UnknownGroup"
)

// Error is a single configuration-parse error, carrying enough context
// for an operator to locate the offending text.
type Error struct {
	Kind    Kind
	File    string
	Line    int
	Col     int
	Message string
	Lexeme  string // offending token text, if any
}

func (e *Error) Error() string {
	loc := fmt.Sprintf("%s:%d:%d", e.File, e.Line, e.Col)
	if e.Lexeme != "" {
		return fmt.Sprintf("%s: %s (%s): %q", loc, e.Kind, e.Message, e.Lexeme)
	}
	return fmt.Sprintf("%s: %s (%s)", loc, e.Kind, e.Message)
}

// New builds an *Error with no offending lexeme.
func New(kind Kind, file string, line, col int, message string) *Error {
	return &Error{Kind: kind, File: file, Line: line, Col: col, Message: message}
}

// NewWithLexeme builds an *Error that also names the offending token text.
func NewWithLexeme(kind Kind, file string, line, col int, message, lexeme string) *Error {
	return &Error{Kind: kind, File: file, Line: line, Col: col, Message: message, Lexeme: lexeme}
}
