package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// AuthError is returned when the auth collaborator rejects credentials or a
// token. It always forces a logout in the coordinator.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("authentication failed (status %d)", e.StatusCode)
	}
	return e.Message
}

// APIError is any non-2xx rejection from a remote collaborator other than an
// auth failure. The message text, when the body carried one, is surfaced
// verbatim to the user.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request rejected (status %d)", e.StatusCode)
	}
	return e.Message
}

// ErrAgentTimeout marks a live-session request that was never acknowledged.
var ErrAgentTimeout = errors.New("ai agent request timed out")

func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// remoteError maps a non-2xx response to a typed failure, pulling the
// human-readable message out of the body when it parses.
func remoteError(status int, body []byte) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error != "":
			msg = payload.Error
		case payload.Message != "":
			msg = payload.Message
		case payload.Msg != "":
			msg = payload.Msg
		}
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &AuthError{StatusCode: status, Message: msg}
	}
	return &APIError{StatusCode: status, Message: msg}
}
