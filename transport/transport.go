package transport

import "time"

// ChunkSize is the largest number of bytes a single Receive returns.
const ChunkSize = 1024

// Conn is the client-side connection contract.
// Connection is the implementation over a raw IPv4 stream socket.
type Conn interface {
	// Connect establishes the connection. The timeout bounds the whole
	// attempt; zero waits without a deadline.
	Connect(timeout time.Duration) error

	// Send writes every byte of buf or returns an error.
	Send(buf []byte) error

	// Receive returns up to ChunkSize bytes. Once the peer has closed its
	// side it returns an error of kind Closed that matches io.EOF.
	Receive() ([]byte, error)

	// Close releases the socket. Closing a connection that holds no
	// socket is a no-op.
	Close() error
}

// State is the lifecycle position of a Connection
type State int

const (
	Unopened State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Unopened:
		return "unopened"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}
