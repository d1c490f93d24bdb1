package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the client-facing failure shape. Message is safe to show to users;
// Err carries the internal cause and is only ever logged.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	case e.Code != "":
		return e.Code
	default:
		return fmt.Sprintf("api error (%d)", e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so callers can write errors.Is(err, apierr.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Code != "" && e.Code == t.Code
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

const (
	CodeBadRequest         = "bad_request"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodeInvalidCredentials = "invalid_credentials"
	CodeInvalidOrExpired   = "invalid_or_expired"
	CodeNoContent          = "no_content"
	CodeStorage            = "storage_error"
	CodeExtraction         = "extraction_failed"
	CodeGeneration         = "generation_failed"
	CodeRateLimited        = "rate_limited"
	CodeUpstream           = "upstream_failure"
	CodeInternal           = "internal_error"
)

var (
	ErrBadRequest         = &Error{Status: http.StatusBadRequest, Code: CodeBadRequest}
	ErrUnauthorized       = &Error{Status: http.StatusUnauthorized, Code: CodeUnauthorized}
	ErrForbidden          = &Error{Status: http.StatusForbidden, Code: CodeForbidden}
	ErrNotFound           = &Error{Status: http.StatusNotFound, Code: CodeNotFound}
	ErrConflict           = &Error{Status: http.StatusConflict, Code: CodeConflict}
	ErrInvalidCredentials = &Error{Status: http.StatusUnauthorized, Code: CodeInvalidCredentials}
	ErrInvalidOrExpired   = &Error{Status: http.StatusBadRequest, Code: CodeInvalidOrExpired}
	ErrNoContent          = &Error{Status: http.StatusUnprocessableEntity, Code: CodeNoContent}
	ErrStorage            = &Error{Status: http.StatusBadGateway, Code: CodeStorage}
	ErrExtraction         = &Error{Status: http.StatusUnprocessableEntity, Code: CodeExtraction}
	ErrGeneration         = &Error{Status: http.StatusBadGateway, Code: CodeGeneration}
	ErrRateLimited        = &Error{Status: http.StatusTooManyRequests, Code: CodeRateLimited}
	ErrUpstream           = &Error{Status: http.StatusBadGateway, Code: CodeUpstream}
	ErrInternal           = &Error{Status: http.StatusInternalServerError, Code: CodeInternal}
)

func build(proto *Error, msg string, cause error) *Error {
	return &Error{Status: proto.Status, Code: proto.Code, Message: msg, Err: cause}
}

func BadRequest(msg string) *Error   { return build(ErrBadRequest, msg, nil) }
func Unauthorized(msg string) *Error { return build(ErrUnauthorized, msg, nil) }
func Forbidden(msg string) *Error    { return build(ErrForbidden, msg, nil) }
func NotFound(msg string) *Error     { return build(ErrNotFound, msg, nil) }
func Conflict(msg string) *Error     { return build(ErrConflict, msg, nil) }
func NoContent(msg string) *Error    { return build(ErrNoContent, msg, nil) }

func InvalidCredentials() *Error {
	return build(ErrInvalidCredentials, "Invalid Credentials", nil)
}

func InvalidOrExpired(msg string) *Error { return build(ErrInvalidOrExpired, msg, nil) }

func Storage(msg string, cause error) *Error    { return build(ErrStorage, msg, cause) }
func Extraction(msg string, cause error) *Error { return build(ErrExtraction, msg, cause) }
func Generation(msg string, cause error) *Error { return build(ErrGeneration, msg, cause) }
func RateLimited(msg string, cause error) *Error {
	return build(ErrRateLimited, msg, cause)
}
func Upstream(msg string, cause error) *Error { return build(ErrUpstream, msg, cause) }
func Internal(cause error) *Error {
	return build(ErrInternal, "Something went wrong. Please try again.", cause)
}

// From returns err as an *Error, wrapping anything else as Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
