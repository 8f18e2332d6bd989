package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{InvalidAddress, "invalid address"},
		{SocketCreationFailed, "socket creation failed"},
		{ConnectFailed, "connect failed"},
		{NotConnected, "not connected"},
		{IoFailed, "i/o failed"},
		{Closed, "connection closed"},
		{InvalidState, "invalid state"},
		{Kind(99), "unknown kind (99)"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.kind.String())
	}
}

func TestFromErrno_CarriesOSCode(t *testing.T) {
	err := FromErrno("connect", ConnectFailed, unix.ECONNREFUSED)

	assert.Equal(t, unix.ECONNREFUSED, err.Errno)
	assert.Nil(t, err.Err)
	assert.True(t, stderrors.Is(err, unix.ECONNREFUSED))
	assert.Contains(t, err.Error(), "connect: connect failed")
	assert.Contains(t, err.Error(), fmt.Sprintf("errno %d", int(unix.ECONNREFUSED)))
}

func TestFromErrno_WrappedErrno(t *testing.T) {
	cause := fmt.Errorf("ring completion: %w", unix.EPIPE)
	err := FromErrno("send", IoFailed, cause)

	assert.Equal(t, unix.EPIPE, err.Errno)
	assert.True(t, stderrors.Is(err, unix.EPIPE))
}

func TestFromErrno_NoErrno(t *testing.T) {
	cause := stderrors.New("ring is gone")
	err := FromErrno("receive", IoFailed, cause)

	assert.Zero(t, err.Errno)
	assert.Same(t, cause, stderrors.Unwrap(err))
	assert.Contains(t, err.Error(), "caused by: ring is gone")
}

func TestError_Timeout(t *testing.T) {
	assert.True(t, FromErrno("receive", IoFailed, unix.ETIMEDOUT).Timeout())
	assert.False(t, FromErrno("receive", IoFailed, unix.ECONNRESET).Timeout())
	assert.False(t, New("send", NotConnected, "").Timeout())

	assert.True(t, IsTimeout(fmt.Errorf("drain: %w", FromErrno("receive", IoFailed, unix.ETIMEDOUT))))
	assert.False(t, IsTimeout(unix.ETIMEDOUT))
	assert.False(t, IsTimeout(nil))
}

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("attempt: %w", FromErrno("connect", ConnectFailed, unix.EHOSTUNREACH))

	assert.True(t, stderrors.Is(err, &Error{Kind: ConnectFailed}))
	assert.False(t, stderrors.Is(err, &Error{Kind: IoFailed}))
}

func TestEndOfStream(t *testing.T) {
	err := EndOfStream("receive")

	assert.Equal(t, Closed, err.Kind)
	assert.True(t, stderrors.Is(err, io.EOF))
	assert.False(t, err.Timeout())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindNone, KindOf(io.EOF))

	wrapped := fmt.Errorf("outer: %w", New("send", NotConnected, "connection is unopened"))
	assert.Equal(t, NotConnected, KindOf(wrapped))
	assert.True(t, Is(wrapped, NotConnected))
	assert.False(t, Is(nil, KindNone))
}

func TestError_Nil(t *testing.T) {
	var err *Error
	require.Equal(t, "no error", err.Error())
}
