package apperror

import (
	"errors"
	"fmt"
)

// Kind groups errors into the categories the HTTP layer knows how to surface.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindBadRequest
	KindForbidden
	KindConflict
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error is a business error with a stable code. Two errors are equal for errors.Is
// when their codes match, so parameterised copies still match the package sentinel.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Params  map[string]interface{}
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func NotFound(code, message string) *Error   { return New(KindNotFound, code, message) }
func BadRequest(code, message string) *Error { return New(KindBadRequest, code, message) }
func Forbidden(code, message string) *Error  { return New(KindForbidden, code, message) }
func Conflict(code, message string) *Error   { return New(KindConflict, code, message) }

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithParams returns a copy of e carrying the given parameters.
func (e *Error) WithParams(params map[string]interface{}) *Error {
	cp := *e
	cp.Params = make(map[string]interface{}, len(e.Params)+len(params))
	for k, v := range e.Params {
		cp.Params[k] = v
	}
	for k, v := range params {
		cp.Params[k] = v
	}
	return &cp
}

// WithMessage returns a copy of e with a more specific message.
func (e *Error) WithMessage(message string) *Error {
	cp := *e
	cp.Message = message
	return &cp
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindInternal when err carries no *Error.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}
