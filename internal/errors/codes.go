package apierrors

// Local validation failures (no request issued).
const (
	CodeEmptyPassword = "EMPTY_PASSWORD"
	CodeMalformedCode = "MALFORMED_CODE"
)

// HTTP 400 Bad Request.
const (
	CodeBadRequest = "BAD_REQUEST"
)

// HTTP 401 Unauthorized.
const (
	CodeInvalidPassword = "INVALID_PASSWORD"
	CodeInvalidMFACode  = "INVALID_MFA_CODE"
	CodeInvalidToken    = "INVALID_TOKEN"
)

// HTTP 404 Not Found.
const (
	CodeAccountNotFound = "ACCOUNT_NOT_FOUND"
)

// HTTP 409 Conflict.
const (
	CodeMFAAlreadyEnabled   = "MFA_ALREADY_ENABLED"
	CodeMFANotEnabled       = "MFA_NOT_ENABLED"
	CodeNoPendingEnrollment = "NO_PENDING_ENROLLMENT"
)

// Transport and server-side failures.
const (
	CodeNetworkError = "NETWORK_ERROR"
	CodeServerError  = "SERVER_ERROR"
)
