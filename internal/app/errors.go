package app

import "strings"

// ValidationError means the input was malformed or incomplete; it always
// surfaces as a client error and never reaches the vendor.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func newValidationError(msg string) *ValidationError {
	return &ValidationError{msg: msg}
}

// missingParamsError names every missing required parameter in one message.
func missingParamsError(params []string) *ValidationError {
	return &ValidationError{msg: "missing required parameters: " + strings.Join(params, ", ")}
}
