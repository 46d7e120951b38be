package kernel

import (
	"errors"
	"fmt"
)

// Code is the kernel's integer error taxonomy. Values match the C ABI the
// host shell was originally built against, so they survive any boundary
// that only carries an int.
type Code int32

const (
	CodeOK                 Code = 0
	CodeInvalidParam       Code = -1
	CodeNotInitialized     Code = -2
	CodeAlreadyInitialized Code = -3
	CodeOutOfMemory        Code = -4 // reserved, never produced
	CodeUnknown            Code = -99
)

// String returns a human readable description of the code.
func (c Code) String() string {
	switch c {
	case CodeOK:
		return "success"
	case CodeInvalidParam:
		return "invalid parameter"
	case CodeNotInitialized:
		return "not initialized"
	case CodeAlreadyInitialized:
		return "already initialized"
	case CodeOutOfMemory:
		return "out of memory"
	default:
		return "unknown error"
	}
}

// Label returns a metrics-friendly name for the code.
func (c Code) Label() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeInvalidParam:
		return "invalid_param"
	case CodeNotInitialized:
		return "not_initialized"
	case CodeAlreadyInitialized:
		return "already_initialized"
	case CodeOutOfMemory:
		return "out_of_memory"
	default:
		return "unknown"
	}
}

// ParseCode converts a raw integer back into a Code. Integers outside the
// taxonomy collapse to CodeUnknown.
func ParseCode(v int32) Code {
	switch c := Code(v); c {
	case CodeOK, CodeInvalidParam, CodeNotInitialized, CodeAlreadyInitialized, CodeOutOfMemory:
		return c
	default:
		return CodeUnknown
	}
}

// Error is the only error type returned by Manager.
type Error struct {
	Code   Code
	Op     string
	Detail string
}

func (e *Error) Error() string {
	msg := e.Code.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Op != "" {
		return "kernel " + e.Op + ": " + msg
	}
	return "kernel: " + msg
}

// Is matches any *Error carrying the same code, so the sentinels below work
// with errors.Is regardless of Op and Detail.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrInvalidParam       = &Error{Code: CodeInvalidParam}
	ErrNotInitialized     = &Error{Code: CodeNotInitialized}
	ErrAlreadyInitialized = &Error{Code: CodeAlreadyInitialized}
	ErrOutOfMemory        = &Error{Code: CodeOutOfMemory}
	ErrUnknown            = &Error{Code: CodeUnknown}
)

// NewError builds an *Error for op. Transports use it to rebuild kernel
// errors received over the wire.
func NewError(op string, code Code, format string, args ...any) *Error {
	detail := format
	if len(args) > 0 {
		detail = fmt.Sprintf(format, args...)
	}
	return &Error{Code: code, Op: op, Detail: detail}
}

// CodeOf classifies err. nil is CodeOK and errors that do not wrap an
// *Error are CodeUnknown.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var kerr *Error
	if errors.As(err, &kerr) {
		return kerr.Code
	}
	return CodeUnknown
}

func notInitialized(op string) *Error {
	return &Error{Code: CodeNotInitialized, Op: op}
}
