package resp

import (
	"net/http"

	"github.com/ncobase/taskflow/pkg/ecode"
)

// BadRequest indicates a bad request.
func BadRequest(message string, data ...any) *Exception {
	return newResponse(http.StatusBadRequest, ecode.RequestErr, message, data...)
}

// UnAuthorized indicates that the request is unauthorized.
func UnAuthorized(message string, data ...any) *Exception {
	return newResponse(http.StatusUnauthorized, ecode.NoLogin, message, data...)
}

// Forbidden indicates access is forbidden.
func Forbidden(message string, data ...any) *Exception {
	return newResponse(http.StatusForbidden, ecode.AccessDenied, message, data...)
}

// NotFound indicates that the requested resource is not found.
func NotFound(message string, data ...any) *Exception {
	return newResponse(http.StatusNotFound, ecode.NothingFound, message, data...)
}

// Conflict indicates a conflict error.
func Conflict(message string, data ...any) *Exception {
	return newResponse(http.StatusConflict, ecode.Conflict, message, data...)
}

// AlreadyExists indicates that the resource already exists.
func AlreadyExists(message string, data ...any) *Exception {
	return newResponse(http.StatusConflict, ecode.Conflict, message, data...)
}

// NotAllowed indicates a not allowed error.
func NotAllowed(message string, data ...any) *Exception {
	return newResponse(http.StatusMethodNotAllowed, ecode.MethodNotAllowed, message, data...)
}

// InternalServer indicates a server error.
func InternalServer(message string, data ...any) *Exception {
	return newResponse(http.StatusInternalServerError, ecode.ServerErr, message, data...)
}

// DBQuery indicates a database query error.
func DBQuery(message string, data ...any) *Exception {
	return newResponse(http.StatusInternalServerError, ecode.ServerErr, message, data...)
}
