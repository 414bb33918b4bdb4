package taskerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestTypeOf(t *testing.T) {
	err := New(IssueNotFound, "issue %d was not found", 7)
	if got := TypeOf(err); got != IssueNotFound {
		t.Errorf("TypeOf = %v, want ISSUE_NOT_FOUND", got)
	}
	if err.Error() != "issue 7 was not found" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestTypeOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("handler: %w", New(TokenRevoked, "refresh token is revoked"))
	if got := TypeOf(err); got != TokenRevoked {
		t.Errorf("TypeOf wrapped = %v, want TOKEN_REVOKED", got)
	}
}

func TestTypeOf_Unknown(t *testing.T) {
	if got := TypeOf(errors.New("boom")); got != ServerError {
		t.Errorf("TypeOf plain error = %v, want SERVER_ERROR", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(UserNotFound, "missing"), http.StatusNotFound},
		{New(UserAlreadyRegistered, "dup"), http.StatusConflict},
		{New(UserDisabled, "off"), http.StatusForbidden},
		{New(LoginError, "no"), http.StatusUnauthorized},
		{New(TokenExpired, "old"), http.StatusUnauthorized},
		{New(InvalidProjectData, "bad"), http.StatusBadRequest},
		{New(ChatError, "timeout"), http.StatusRequestTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
