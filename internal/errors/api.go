package apierrors

import (
	"errors"
	"fmt"
)

// APIError is the error type returned by the identity service boundary.
// Status is the HTTP status of the rejected request, or 0 for errors raised
// locally before any network call was issued.
type APIError struct {
	Status int
	Code   string
}

func NewAPIError(status int, code string) *APIError {
	return &APIError{Status: status, Code: code}
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Code
	}
	return fmt.Sprintf("%s (%d)", e.Code, e.Status)
}

// NewValidationError reports a local input problem. No request was sent.
func NewValidationError(code string) *APIError {
	return &APIError{Status: 0, Code: code}
}

// NewNetworkError wraps a transport failure. The server may or may not have
// applied the mutation, so callers must re-query status before acting again.
func NewNetworkError(err error) *NetworkError {
	return &NetworkError{cause: err}
}

type NetworkError struct {
	cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", CodeNetworkError, e.cause)
}

func (e *NetworkError) Unwrap() error { return e.cause }

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsValidation reports whether err is a local validation failure that was
// resolved without a network call.
func IsValidation(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Status == 0
}

// IsAuth reports whether the server rejected the supplied password.
func IsAuth(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Code == CodeInvalidPassword
}

// IsInvalidCode reports whether the server rejected a TOTP code.
func IsInvalidCode(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Code == CodeInvalidMFACode
}

func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

func IsServer(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Status >= 500
}

// Ambiguous reports whether the outcome of the operation is unknown: the
// client cannot tell if the server-side mutation was applied. Status must be
// re-fetched before further action.
func Ambiguous(err error) bool {
	return IsNetwork(err) || IsServer(err)
}

// UserMessage maps an error to the inline message shown in the dialog that
// triggered the operation. Recovery stays local to that dialog.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case IsAuth(err):
		return "Incorrect password. Check it and try again."
	case IsInvalidCode(err):
		return "That code was not accepted. Enter the current code from your authenticator app."
	case IsValidation(err):
		apiErr, _ := asAPIError(err)
		return validationMessages[apiErr.Code]
	case Ambiguous(err):
		return "The request could not be completed. Check your connection and retry."
	default:
		if apiErr, ok := asAPIError(err); ok {
			return fmt.Sprintf("Request rejected: %s", apiErr.Code)
		}
		return "Unexpected error. Retry the current step."
	}
}

var validationMessages = map[string]string{
	CodeEmptyPassword: "Enter your current password.",
	CodeMalformedCode: "The verification code is 6 digits.",
}
