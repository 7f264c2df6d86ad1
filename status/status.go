// Package status implements the engine's exhaustive error-code taxonomy.
//
// Every fallible operation in lsm-go returns a *status.Status (or a plain
// nil for success) instead of ad hoc error strings, so callers can branch
// on Code rather than parsing messages.
package status

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code enumerates the exhaustive set of outcomes a fallible operation can
// report.
type Code int

const (
	OK Code = iota
	NotFound
	Corruption
	NotSupported
	InvalidArgument
	IOError
	MergeInProgress
	Incomplete
	ShutdownInProgress
	TimedOut
	Aborted
	Busy
	Expired
	TryAgain
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case NotFound:
		return "NotFound"
	case Corruption:
		return "Corruption"
	case NotSupported:
		return "NotSupported"
	case InvalidArgument:
		return "InvalidArgument"
	case IOError:
		return "IOError"
	case MergeInProgress:
		return "MergeInProgress"
	case Incomplete:
		return "Incomplete"
	case ShutdownInProgress:
		return "ShutdownInProgress"
	case TimedOut:
		return "TimedOut"
	case Aborted:
		return "Aborted"
	case Busy:
		return "Busy"
	case Expired:
		return "Expired"
	case TryAgain:
		return "TryAgain"
	default:
		return "Unknown"
	}
}

// Status is the error type returned by every fallible engine operation.
// It satisfies the standard error interface so it composes with
// errors.Is/errors.As/errors.Wrap.
type Status struct {
	code  Code
	msg   string
	cause error
}

func (s *Status) Error() string {
	if s == nil {
		return "OK"
	}
	if s.cause != nil {
		return fmt.Sprintf("%s: %s: %v", s.code, s.msg, s.cause)
	}
	return fmt.Sprintf("%s: %s", s.code, s.msg)
}

// Unwrap lets errors.Is/errors.As see through to the
// underlying I/O or library error, if any.
func (s *Status) Unwrap() error { return s.cause }

// Code reports the status's code; a nil Status is OK.
func (s *Status) Code() Code {
	if s == nil {
		return OK
	}
	return s.code
}

func (s *Status) IsOK() bool              { return s.Code() == OK }
func (s *Status) IsNotFound() bool        { return s.Code() == NotFound }
func (s *Status) IsCorruption() bool      { return s.Code() == Corruption }
func (s *Status) IsIOError() bool         { return s.Code() == IOError }
func (s *Status) IsBusy() bool            { return s.Code() == Busy }
func (s *Status) IsInvalidArgument() bool { return s.Code() == InvalidArgument }

func newf(code Code, format string, args ...interface{}) *Status {
	return &Status{code: code, msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Status        { return newf(NotFound, format, args...) }
func Corruptionf(format string, args ...interface{}) *Status      { return newf(Corruption, format, args...) }
func NotSupportedf(format string, args ...interface{}) *Status    { return newf(NotSupported, format, args...) }
func InvalidArgumentf(format string, args ...interface{}) *Status { return newf(InvalidArgument, format, args...) }
func Busyf(format string, args ...interface{}) *Status            { return newf(Busy, format, args...) }
func TimedOutf(format string, args ...interface{}) *Status        { return newf(TimedOut, format, args...) }
func ShutdownInProgressf(format string, args ...interface{}) *Status {
	return newf(ShutdownInProgress, format, args...)
}

// Wrap lifts a lower-level error (typically an *os.PathError or similar I/O
// failure) into an IOError status, preserving it as the Unwrap cause via
// github.com/pkg/errors so callers keep a stack trace at the I/O boundary.
func Wrap(err error, format string, args ...interface{}) *Status {
	if err == nil {
		return nil
	}
	return &Status{
		code:  IOError,
		msg:   fmt.Sprintf(format, args...),
		cause: errors.Wrap(err, "io"),
	}
}

// WrapCode is Wrap but with an explicit code, for callers that know the
// underlying error maps to something other than IOError (e.g. a corrupt
// on-disk record surfaced through a decode helper).
func WrapCode(code Code, err error, format string, args ...interface{}) *Status {
	if err == nil {
		return nil
	}
	return &Status{
		code:  code,
		msg:   fmt.Sprintf(format, args...),
		cause: errors.Wrap(err, code.String()),
	}
}

// FromError converts a generic error into a Status, preserving an existing
// *Status unchanged and otherwise assuming IOError.
func FromError(err error) *Status {
	if err == nil {
		return nil
	}
	var s *Status
	if errors.As(err, &s) {
		return s
	}
	return Wrap(err, "unexpected error")
}
