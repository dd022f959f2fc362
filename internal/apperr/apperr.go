package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	Invalid      Kind = "invalid"       // malformed or missing caller input
	NotFound     Kind = "not_found"     // record does not exist
	Remote       Kind = "remote"        // downstream call failed or returned garbage
	Timeout      Kind = "timeout"       // polling exhausted its attempt budget
	Inconsistent Kind = "inconsistent"  // downstream reported success without a usable result
	Formatting   Kind = "formatting"    // post-processing call failed; original result still usable
	Internal     Kind = "internal"      // anything else
)

// Error carries a kind for status mapping, a message safe to return to
// callers, and the wrapped internal error for logs.
type Error struct {
	Kind      Kind
	PublicMsg string
	Fields    map[string]string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.PublicMsg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.PublicMsg)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func InvalidErr(publicMsg string, fields map[string]string) *Error {
	return &Error{Kind: Invalid, PublicMsg: publicMsg, Fields: fields}
}

func NotFoundErr(publicMsg string) *Error {
	return &Error{Kind: NotFound, PublicMsg: publicMsg}
}

func RemoteErr(publicMsg string, err error) *Error {
	return &Error{Kind: Remote, PublicMsg: publicMsg, Err: err}
}

func TimeoutErr(publicMsg string) *Error {
	return &Error{Kind: Timeout, PublicMsg: publicMsg}
}

func InconsistentErr(publicMsg string) *Error {
	return &Error{Kind: Inconsistent, PublicMsg: publicMsg}
}

func FormattingErr(publicMsg string, err error) *Error {
	return &Error{Kind: Formatting, PublicMsg: publicMsg, Err: err}
}

// Wrap tags an unexpected internal error without exposing its text structure.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Internal, PublicMsg: "internal server error", Err: err}
}

func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

func IsKind(err error, kind Kind) bool {
	if ae, ok := As(err); ok {
		return ae.Kind == kind
	}
	return false
}

func HTTPStatus(err error) int {
	if ae, ok := As(err); ok {
		switch ae.Kind {
		case Invalid:
			return http.StatusBadRequest
		case NotFound:
			return http.StatusNotFound
		case Remote, Formatting:
			return http.StatusBadGateway
		case Timeout:
			return http.StatusRequestTimeout
		case Inconsistent:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

func PublicMessage(err error) string {
	if ae, ok := As(err); ok && ae.PublicMsg != "" {
		return ae.PublicMsg
	}
	return "internal server error"
}
