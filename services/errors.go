package services

import (
	"errors"
	"net/http"

	"pollhub/db"
)

// Kind classifies a service failure and decides its HTTP status.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindInternal
)

// Error is the typed failure returned by every service method.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func ValidationError(msg string) error     { return &Error{Kind: KindValidation, Message: msg} }
func AuthenticationError(msg string) error { return &Error{Kind: KindAuthentication, Message: msg} }
func AuthorizationError(msg string) error  { return &Error{Kind: KindAuthorization, Message: msg} }
func NotFoundError(msg string) error       { return &Error{Kind: KindNotFound, Message: msg} }

// InternalError hides err behind a generic message; err stays reachable
// through errors.Unwrap for logging.
func InternalError(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

var (
	ErrAlreadyVoted       = &Error{Kind: KindAuthorization, Message: "you have already voted on this debate"}
	ErrVotingClosed       = &Error{Kind: KindAuthorization, Message: "voting is not open"}
	ErrAlreadyResponded   = &Error{Kind: KindAuthorization, Message: "you have already responded to this survey"}
	ErrSurveyClosed       = &Error{Kind: KindAuthorization, Message: "survey is closed"}
	ErrInvalidCredentials = &Error{Kind: KindAuthentication, Message: "invalid username or password"}
	ErrInvalidPassword    = &Error{Kind: KindAuthentication, Message: "invalid password"}
	ErrForbidden          = &Error{Kind: KindAuthorization, Message: "insufficient permissions"}
)

// StatusCode maps err to the HTTP status a handler should answer with.
func StatusCode(err error) int {
	var se *Error
	if !errors.As(err, &se) {
		return http.StatusInternalServerError
	}
	switch se.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-safe text of err. Untyped errors never leak.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return "internal server error"
}

// storeErr translates repository failures for an entity named what.
func storeErr(what string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, db.ErrNotFound) {
		return NotFoundError(what + " not found")
	}
	return InternalError("failed to access "+what, err)
}
