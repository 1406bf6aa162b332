package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// NetworkError means the request never produced a server response: a
// transport failure, a cancelled context or an open circuit breaker.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// BackendError is a structured failure answered by the server. Message is
// shown to diners verbatim.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return e.Message
}

var tokenInvalidHints = []string{
	"expired",
	"invalid token",
	"token invalid",
	"invalid signature",
	"malformed",
}

// IsTokenInvalid reports whether err is a 401 whose message says the access
// token expired or is invalid. A bare 401 or a network failure is not.
func IsTokenInvalid(err error) bool {
	var be *BackendError
	if !errors.As(err, &be) || be.Status != http.StatusUnauthorized {
		return false
	}
	msg := strings.ToLower(be.Message)
	for _, hint := range tokenInvalidHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
