// Package taskerr defines the domain error taxonomy. Every error carries a
// machine-readable type tag; the HTTP layer maps tags to status codes and
// renders {errorType, message} bodies.
package taskerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Type is the machine-readable error tag exposed to API clients.
type Type string

const (
	UserNotFound          Type = "USER_NOT_FOUND"
	UserDisabled          Type = "USER_DISABLED"
	UserAlreadyRegistered Type = "USER_ALREADY_REGISTERED"
	LoginError            Type = "LOGIN_ERROR"
	RegistrationError     Type = "REGISTRATION_ERROR"
	IssueNotFound         Type = "ISSUE_NOT_FOUND"
	IssueCreationError    Type = "ISSUE_CREATION_ERROR"
	ProjectNotFound       Type = "PROJECT_NOT_FOUND"
	InvalidProjectData    Type = "INVALID_PROJECT_DATA"
	TeamNotFound          Type = "TEAM_NOT_FOUND"
	TeamAlreadyExists     Type = "TEAM_ALREADY_EXISTS"
	ContentNotFound       Type = "CONTENT_NOT_FOUND"
	InvalidRefreshToken   Type = "INVALID_REFRESH_TOKEN"
	TokenRevoked          Type = "TOKEN_REVOKED"
	TokenExpired          Type = "TOKEN_EXPIRED"
	ChatError             Type = "CHAT_ERROR"
	BadRequest            Type = "BAD_REQUEST"
	ServerError           Type = "SERVER_ERROR"
)

// Error is a domain error with a client-visible type tag.
type Error struct {
	Type    Type
	Message string
}

func (e *Error) Error() string { return e.Message }

// New builds a domain error.
func New(t Type, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// TypeOf extracts the type tag from err, or SERVER_ERROR for anything that
// is not a domain error.
func TypeOf(err error) Type {
	var de *Error
	if errors.As(err, &de) {
		return de.Type
	}
	return ServerError
}

// Is reports whether err is a domain error with the given type tag.
func Is(err error, t Type) bool {
	return TypeOf(err) == t
}

// statusByType mirrors the original exception-to-status mapping. Unmapped
// types become 500.
var statusByType = map[Type]int{
	UserNotFound:          http.StatusNotFound,
	UserDisabled:          http.StatusForbidden,
	UserAlreadyRegistered: http.StatusConflict,
	LoginError:            http.StatusUnauthorized,
	RegistrationError:     http.StatusBadRequest,
	IssueNotFound:         http.StatusNotFound,
	IssueCreationError:    http.StatusBadRequest,
	ProjectNotFound:       http.StatusNotFound,
	InvalidProjectData:    http.StatusBadRequest,
	TeamNotFound:          http.StatusNotFound,
	TeamAlreadyExists:     http.StatusConflict,
	ContentNotFound:       http.StatusNotFound,
	InvalidRefreshToken:   http.StatusUnauthorized,
	TokenRevoked:          http.StatusUnauthorized,
	TokenExpired:          http.StatusUnauthorized,
	ChatError:             http.StatusRequestTimeout,
	BadRequest:            http.StatusBadRequest,
}

// HTTPStatus returns the status code for an error's type tag.
func HTTPStatus(err error) int {
	if code, ok := statusByType[TypeOf(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}
