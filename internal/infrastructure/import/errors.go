package csvimport

import (
	"fmt"
	"strings"
)

// Error codes attached to row errors
const (
	ErrCodeParsing  = "CSV_PARSING"
	ErrCodeRequired = "FIELD_REQUIRED"
	ErrCodeType     = "FIELD_TYPE"
	ErrCodeRange    = "FIELD_RANGE"
	ErrCodeLength   = "FIELD_LENGTH"
	ErrCodeTooLarge = "FILE_TOO_LARGE"
)

// RowError describes a single validation failure in an uploaded file
type RowError struct {
	Line    int    `json:"line"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("line %d, column %q: %s", e.Line, e.Column, e.Message)
}

// ErrorCollection accumulates row errors up to a cap
type ErrorCollection struct {
	errors []RowError
	max    int
	total  int
}

// NewErrorCollection creates an error collection holding at most max errors
func NewErrorCollection(max int) *ErrorCollection {
	return &ErrorCollection{
		errors: make([]RowError, 0),
		max:    max,
	}
}

// Add records an error, dropping it if the cap is reached
func (ec *ErrorCollection) Add(line int, column, code, message string) {
	ec.total++
	if len(ec.errors) < ec.max {
		ec.errors = append(ec.errors, RowError{Line: line, Column: column, Code: code, Message: message})
	}
}

// Errors returns the collected errors
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// HasErrors reports whether any error was recorded
func (ec *ErrorCollection) HasErrors() bool {
	return ec.total > 0
}

// Total returns the number of errors seen, including dropped ones
func (ec *ErrorCollection) Total() int {
	return ec.total
}

// Truncated reports whether errors were dropped due to the cap
func (ec *ErrorCollection) Truncated() bool {
	return ec.total > len(ec.errors)
}

// String renders a short summary for logging
func (ec *ErrorCollection) String() string {
	if !ec.HasErrors() {
		return "no errors"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d error(s)", ec.total)
	if ec.Truncated() {
		fmt.Fprintf(&sb, " (showing first %d)", len(ec.errors))
	}
	for _, e := range ec.errors {
		sb.WriteString("; ")
		sb.WriteString(e.Error())
	}
	return sb.String()
}
