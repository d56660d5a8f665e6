// Package ecode defines standardized business error codes for API responses.
//
// Codes follow a standardized numbering scheme:
//   - 0: Success (OK)
//   - -100 to -199: Authentication/authorization errors
//   - -400 to -499: Request and resource errors
//   - -500+: Server errors
package ecode

import "net/http"

const (
	OK = 0

	NoLogin      = -101
	UserDisabled = -102
	UserInactive = -106

	RequestErr       = -400
	ParamErr         = -401
	AccessDenied     = -403
	NothingFound     = -404
	MethodNotAllowed = -405
	Conflict         = -409

	ServerErr          = -500
	ServiceUnavailable = -503
	Deadline           = -504
)

var codeText = map[int]string{
	OK:                 "ok",
	NoLogin:            "Account not logged in",
	UserDisabled:       "Account suspended",
	UserInactive:       "Account not activated",
	RequestErr:         "Invalid request",
	ParamErr:           "Invalid parameters",
	AccessDenied:       "Access denied",
	NothingFound:       "Resource not found",
	MethodNotAllowed:   "Method not allowed",
	Conflict:           "Resource conflict",
	ServerErr:          "Internal server error",
	ServiceUnavailable: "Service unavailable",
	Deadline:           "Deadline exceeded",
}

// Text returns the human-readable message for a code.
func Text(code int) string {
	if t, ok := codeText[code]; ok {
		return t
	}
	return codeText[ServerErr]
}

// Register registers a custom error code with its message.
// Existing codes are overwritten.
func Register(code int, message string) {
	codeText[code] = message
}

// ToHTTPStatus maps a business code to an HTTP status code.
func ToHTTPStatus(code int) int {
	switch code {
	case OK:
		return http.StatusOK
	case NoLogin, UserDisabled, UserInactive:
		return http.StatusUnauthorized
	case AccessDenied:
		return http.StatusForbidden
	case NothingFound:
		return http.StatusNotFound
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	case Conflict:
		return http.StatusConflict
	case RequestErr, ParamErr:
		return http.StatusBadRequest
	case ServiceUnavailable:
		return http.StatusServiceUnavailable
	case Deadline:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
