package transport

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Engine moves bytes between a connected socket and a buffer.
// Readiness waiting and deadlines stay with the Connection; an engine only
// performs the transfer and reports the raw result, including EAGAIN.
type Engine interface {
	Name() string

	// Write sends bytes from buf and returns how many were accepted.
	Write(fd int, buf []byte) (int, error)

	// Read fills buf and returns how many bytes arrived. Zero with a nil
	// error means the peer closed its side.
	Read(fd int, buf []byte) (int, error)

	// Close releases engine resources. It does not touch any socket.
	Close() error
}

// Engine names accepted by NewEngine
const (
	EnginePoll    = "poll"
	EngineIOURing = "iouring"
	EngineRing    = "ring"
)

// NewEngine creates the engine registered under name.
func NewEngine(name string) (Engine, error) {
	switch name {
	case "", EnginePoll:
		return NewPollEngine(), nil
	case EngineIOURing:
		return NewIOURingEngine()
	case EngineRing:
		return NewRingEngine()
	default:
		return nil, fmt.Errorf("unknown engine %q", name)
	}
}

// PollEngine transfers with plain send(2) and read(2) calls
type PollEngine struct{}

// NewPollEngine creates the default engine
func NewPollEngine() *PollEngine {
	return &PollEngine{}
}

func (e *PollEngine) Name() string { return EnginePoll }

// Write uses MSG_NOSIGNAL so a reset peer yields EPIPE instead of SIGPIPE.
func (e *PollEngine) Write(fd int, buf []byte) (int, error) {
	return unix.SendmsgN(fd, buf, nil, nil, unix.MSG_NOSIGNAL)
}

func (e *PollEngine) Read(fd int, buf []byte) (int, error) {
	n, err := unix.Read(fd, buf)
	if n < 0 {
		n = 0
	}
	return n, err
}

func (e *PollEngine) Close() error { return nil }
