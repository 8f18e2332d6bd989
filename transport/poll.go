package transport

import (
	"time"

	"golang.org/x/sys/unix"
)

// deadlineFrom turns a timeout into an absolute deadline.
// A zero timeout yields the zero time, meaning no deadline.
func deadlineFrom(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}

// waitReady blocks until fd reports one of events or the deadline passes.
// Error and hang-up conditions count as ready; the next read or write on
// the socket reports them.
func waitReady(fd int, events int16, deadline time.Time) error {
	fds := []unix.PollFd{{Fd: int32(fd), Events: events}}

	for {
		timeout := -1
		if !deadline.IsZero() {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return unix.ETIMEDOUT
			}
			// round up so a sub-millisecond remainder still waits
			timeout = int((remaining + time.Millisecond - 1) / time.Millisecond)
		}

		n, err := unix.Poll(fds, timeout)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
	}
}
