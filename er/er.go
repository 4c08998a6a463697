// Package er provides the "Result" style error type used throughout this
// module in place of the bare error interface. It mirrors the calling
// convention of the teacher's btcutil/er package: fallible functions return
// an er.R which is nil on success, and errors are constructed with er.E
// (wrap a stdlib error) or er.Errorf (format a new one).
package er

import "fmt"

// R is the error-result type returned by every fallible function in this
// module. A nil R means success.
type R interface {
	error
	// Message is the human readable error text, without any stack
	// or wrapping decoration.
	Message() string
}

type errResult struct {
	msg   string
	cause error
}

func (e *errResult) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *errResult) Message() string {
	return e.msg
}

func (e *errResult) Unwrap() error {
	return e.cause
}

// Errorf constructs a new R from a format string, analogous to fmt.Errorf.
func Errorf(format string, args ...interface{}) R {
	return &errResult{msg: fmt.Sprintf(format, args...)}
}

// New constructs a new R from a plain message.
func New(msg string) R {
	return &errResult{msg: msg}
}

// E wraps a stdlib error as an R. Returns nil if err is nil, so callers can
// write `return er.E(someStdlibCall())` without an extra nil check.
func E(err error) R {
	if err == nil {
		return nil
	}
	if r, ok := err.(R); ok {
		return r
	}
	return &errResult{msg: err.Error(), cause: err}
}

// Native returns the R as a stdlib error, for interop with APIs that expect
// one (e.g. errors.Is/errors.As via Unwrap).
func Native(r R) error {
	if r == nil {
		return nil
	}
	return r
}
