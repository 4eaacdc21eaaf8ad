package email

import "fmt"

// These codes mirror the domain error codes without importing domain.
const (
	codeNotFound = "not_found"
	codeInvalid  = "invalid"
)

// EmailError is an email-specific error with a code and message.
type EmailError struct {
	Code    string
	Message string
}

func (e *EmailError) Error() string {
	return e.Message
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *EmailError) ErrorCode() string {
	return e.Code
}

func newEmailError(code, message string) *EmailError {
	return &EmailError{Code: code, Message: message}
}

var (
	ErrNoRecipients       = newEmailError(codeInvalid, "Email has no recipients")
	ErrInvalidFromAddress = newEmailError(codeInvalid, "Invalid from email address")
	ErrInvalidToAddress   = newEmailError(codeInvalid, "Invalid to email address")
)

// ErrTemplateNotFound creates a template not found error.
func ErrTemplateNotFound(templateName string) error {
	return &EmailError{
		Code:    codeNotFound,
		Message: fmt.Sprintf("Email template %s not found", templateName),
	}
}
