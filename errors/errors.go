package errors

import (
	stderrors "errors"
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// Kind represents the category of a connection error
type Kind int

const (
	KindNone Kind = iota
	InvalidAddress
	SocketCreationFailed
	ConnectFailed
	NotConnected
	IoFailed
	Closed
	InvalidState
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case InvalidAddress:
		return "invalid address"
	case SocketCreationFailed:
		return "socket creation failed"
	case ConnectFailed:
		return "connect failed"
	case NotConnected:
		return "not connected"
	case IoFailed:
		return "i/o failed"
	case Closed:
		return "connection closed"
	case InvalidState:
		return "invalid state"
	default:
		return fmt.Sprintf("unknown kind (%d)", int(k))
	}
}

// Error is the error type returned by every fallible connection operation.
// Errno is zero when the failure did not come from the OS.
type Error struct {
	Op      string
	Kind    Kind
	Errno   unix.Errno
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "no error"
	}

	s := e.Kind.String()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Message != "" {
		s = fmt.Sprintf("%s: %s", s, e.Message)
	}
	if e.Errno != 0 {
		return fmt.Sprintf("%s (errno %d: %v)", s, int(e.Errno), e.Errno)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (caused by: %v)", s, e.Err)
	}
	return s
}

// Unwrap returns the underlying error for error chain support
func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	if e.Errno != 0 {
		return e.Errno
	}
	return nil
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: k})
// works without comparing ops or errnos.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Timeout reports whether the operation ran out of time.
func (e *Error) Timeout() bool {
	return e.Errno == unix.ETIMEDOUT
}

// New creates an error that did not originate from a system call.
func New(op string, kind Kind, message string) *Error {
	return &Error{
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// FromErrno creates an error carrying the OS error code behind err.
// If err holds no errno the error is kept as the cause instead.
func FromErrno(op string, kind Kind, err error) *Error {
	e := &Error{
		Op:   op,
		Kind: kind,
	}

	var errno unix.Errno
	if stderrors.As(err, &errno) {
		e.Errno = errno
		return e
	}
	e.Err = err
	return e
}

// EndOfStream creates the error Receive returns once the peer has closed
// its side. It matches io.EOF.
func EndOfStream(op string) *Error {
	return &Error{
		Op:      op,
		Kind:    Closed,
		Message: "connection closed by peer",
		Err:     io.EOF,
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindNone.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsTimeout reports whether err is an *Error that ran out of time.
func IsTimeout(err error) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Timeout()
}
