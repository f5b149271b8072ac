package apperrors

import (
	"errors"
	"strings"
)

type appError struct {
	msg        string
	parent     error
	causes     []error
	statusCode int
	prefix     string
}

// New creates a root error with the given message.
func New(msg string) Error {
	return &appError{msg: msg}
}

func (e *appError) Error() string {
	if e.prefix != "" {
		return e.prefix + ": " + e.msg
	}
	return e.msg
}

// ErrorAll returns the message followed by every attached cause, separated by "; ".
func (e *appError) ErrorAll() string {
	var b strings.Builder
	b.WriteString(e.Error())
	for _, err := range e.causes {
		if err == e.parent {
			continue
		}
		b.WriteString("; ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *appError) Unwrap() error {
	return e.parent
}

func (e *appError) UnwrapAll() []error {
	return e.causes
}

func (e *appError) New(msg string) Error {
	return &appError{
		msg:        msg,
		parent:     e,
		statusCode: e.statusCode,
	}
}

func (e *appError) Msg(msg string) Error {
	return &appError{
		msg:        msg,
		parent:     e,
		causes:     append([]error{e}, e.causes...),
		statusCode: e.statusCode,
	}
}

func (e *appError) MsgErr(msg string, errs ...error) Error {
	return &appError{
		msg:        msg,
		parent:     e,
		causes:     append([]error{e}, nonNil(errs)...),
		statusCode: e.statusCode,
	}
}

func (e *appError) Err(errs ...error) Error {
	return &appError{
		msg:        e.msg,
		parent:     e,
		causes:     append([]error{e}, nonNil(errs)...),
		statusCode: e.statusCode,
		prefix:     e.prefix,
	}
}

func (e *appError) Prefix(p string) Error {
	cp := *e
	cp.prefix = p
	return &cp
}

func (e *appError) SetStatusCode(code int) Error {
	cp := *e
	cp.statusCode = code
	return &cp
}

func (e *appError) StatusCode() int {
	return e.statusCode
}

// Is matches the parent chain and every attached cause.
func (e *appError) Is(target error) bool {
	if target == nil {
		return false
	}
	if errors.Is(e.parent, target) {
		return true
	}
	for _, err := range e.causes {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// As lets errors.As reach the attached causes, not only the parent chain.
func (e *appError) As(target any) bool {
	for _, err := range e.causes {
		if errors.As(err, target) {
			return true
		}
	}
	return false
}

func nonNil(errs []error) []error {
	out := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}
