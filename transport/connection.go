package transport

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/netip"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/nczempin/tcpconn/errors"
)

// Connection is a client TCP connection to one IPv4 address and port.
// It owns at most one socket descriptor, held only while the state is Open.
// A Connection is not safe for concurrent use.
type Connection struct {
	id        uuid.UUID
	address   string
	port      uint16
	fd        int
	state     State
	ioTimeout time.Duration
	engine    Engine
	logger    *slog.Logger
}

var _ Conn = (*Connection)(nil)

// Option configures a Connection
type Option func(*Connection)

// WithIOTimeout bounds each Send and Receive call. Zero means no deadline.
func WithIOTimeout(d time.Duration) Option {
	return func(c *Connection) {
		if d > 0 {
			c.ioTimeout = d
		}
	}
}

// WithEngine selects the engine that performs socket reads and writes.
// The caller keeps ownership of the engine.
func WithEngine(e Engine) Option {
	return func(c *Connection) {
		if e != nil {
			c.engine = e
		}
	}
}

// WithLogger sets the logger used for debug records
func WithLogger(l *slog.Logger) Option {
	return func(c *Connection) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates an unopened Connection. It performs no I/O and does not
// validate the address; Connect does.
func New(address string, port uint16, opts ...Option) *Connection {
	c := &Connection{
		id:      uuid.New(),
		address: address,
		port:    port,
		fd:      -1,
		state:   Unopened,
		engine:  NewPollEngine(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(
		slog.String("conn_id", c.id.String()),
		slog.String("addr", address),
		slog.Int("port", int(port)),
	)
	return c
}

// ID identifies the Connection in log records
func (c *Connection) ID() uuid.UUID { return c.id }

// Address returns the target address as given to New
func (c *Connection) Address() string { return c.address }

// Port returns the target port
func (c *Connection) Port() uint16 { return c.port }

// State returns the current lifecycle state
func (c *Connection) State() State { return c.state }

// Connect parses the address, creates the socket and establishes the
// connection within timeout. On failure the Connection stays Unopened and
// holds no socket.
func (c *Connection) Connect(timeout time.Duration) error {
	const op = "connect"

	if c.state != Unopened {
		return errors.New(op, errors.InvalidState, fmt.Sprintf("connection is %s", c.state))
	}

	if timeout < 0 {
		return &errors.Error{
			Op:      op,
			Kind:    errors.ConnectFailed,
			Errno:   unix.EINVAL,
			Message: "negative timeout",
		}
	}

	sa, err := sockaddrFor(c.address, c.port)
	if err != nil {
		return errors.New(op, errors.InvalidAddress, err.Error())
	}

	deadline := deadlineFrom(timeout)

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return errors.FromErrno(op, errors.SocketCreationFailed, err)
	}

	// Set TCP_NODELAY to disable Nagle's algorithm for lower latency
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		unix.Close(fd)
		return errors.FromErrno(op, errors.SocketCreationFailed, err)
	}

	if err := establish(fd, sa, deadline); err != nil {
		unix.Close(fd)
		c.logger.Debug("connect failed", slog.Any("error", err))
		return errors.FromErrno(op, errors.ConnectFailed, err)
	}

	c.fd = fd
	c.state = Open
	runtime.SetFinalizer(c, (*Connection).release)

	c.logger.Debug("connected", slog.Int("fd", fd))
	return nil
}

// Send writes all of buf, looping over short writes until the buffer is
// drained, the I/O deadline passes, or the socket fails. Every transfer
// waits for writability first, so the deadline holds for engines that
// would otherwise park the request in the kernel.
func (c *Connection) Send(buf []byte) error {
	const op = "send"

	if c.state != Open {
		return errors.New(op, errors.NotConnected, fmt.Sprintf("connection is %s", c.state))
	}
	defer runtime.KeepAlive(c)

	deadline := deadlineFrom(c.ioTimeout)
	written := 0
	for written < len(buf) {
		if err := waitReady(c.fd, unix.POLLOUT, deadline); err != nil {
			return errors.FromErrno(op, errors.IoFailed, err)
		}

		n, err := c.engine.Write(c.fd, buf[written:])
		if n > 0 {
			written += n
		}

		switch {
		case err == nil:
			if n <= 0 {
				return errors.New(op, errors.IoFailed, "socket accepted no bytes")
			}
		case stderrors.Is(err, unix.EINTR), stderrors.Is(err, unix.EAGAIN):
		default:
			return errors.FromErrno(op, errors.IoFailed, err)
		}
	}

	c.logger.Debug("sent", slog.Int("bytes", written))
	return nil
}

// Receive reads at most ChunkSize bytes. The returned slice is owned by the
// caller. An orderly shutdown by the peer yields an error of kind Closed.
func (c *Connection) Receive() ([]byte, error) {
	const op = "receive"

	if c.state != Open {
		return nil, errors.New(op, errors.NotConnected, fmt.Sprintf("connection is %s", c.state))
	}
	defer runtime.KeepAlive(c)

	buf := make([]byte, ChunkSize)
	deadline := deadlineFrom(c.ioTimeout)
	for {
		if err := waitReady(c.fd, unix.POLLIN, deadline); err != nil {
			return nil, errors.FromErrno(op, errors.IoFailed, err)
		}

		n, err := c.engine.Read(c.fd, buf)

		switch {
		case err == nil:
			if n == 0 {
				c.logger.Debug("peer closed connection")
				return nil, errors.EndOfStream(op)
			}
			return buf[:n], nil
		case stderrors.Is(err, unix.EINTR), stderrors.Is(err, unix.EAGAIN):
		default:
			return nil, errors.FromErrno(op, errors.IoFailed, err)
		}
	}
}

// Close releases the socket if one is open. The Connection is Closed
// afterwards even when close(2) reports an error.
func (c *Connection) Close() error {
	if c.state != Open {
		return nil
	}

	runtime.SetFinalizer(c, nil)
	fd := c.fd
	c.fd = -1
	c.state = Closed

	if err := unix.Close(fd); err != nil {
		return errors.FromErrno("close", errors.IoFailed, err)
	}

	c.logger.Debug("closed")
	return nil
}

// LocalAddr returns the local endpoint, or the zero value unless Open
func (c *Connection) LocalAddr() netip.AddrPort {
	if c.state != Open {
		return netip.AddrPort{}
	}
	sa, err := unix.Getsockname(c.fd)
	runtime.KeepAlive(c)
	if err != nil {
		return netip.AddrPort{}
	}
	return addrPortOf(sa)
}

// RemoteAddr returns the peer endpoint, or the zero value unless Open
func (c *Connection) RemoteAddr() netip.AddrPort {
	if c.state != Open {
		return netip.AddrPort{}
	}
	sa, err := unix.Getpeername(c.fd)
	runtime.KeepAlive(c)
	if err != nil {
		return netip.AddrPort{}
	}
	return addrPortOf(sa)
}

// release closes a socket left open when the Connection became unreachable
func (c *Connection) release() {
	if c.state == Open {
		unix.Close(c.fd)
		c.fd = -1
		c.state = Closed
	}
}

// sockaddrFor parses a dotted-decimal IPv4 address. Host names, IPv6 and
// IPv4-mapped IPv6 forms are rejected.
func sockaddrFor(address string, port uint16) (*unix.SockaddrInet4, error) {
	ip, err := netip.ParseAddr(address)
	if err != nil || !ip.Is4() {
		return nil, fmt.Errorf("%q is not a dotted-decimal IPv4 address", address)
	}

	return &unix.SockaddrInet4{Port: int(port), Addr: ip.As4()}, nil
}

// establish starts a non-blocking connect and waits for it to finish
func establish(fd int, sa unix.Sockaddr, deadline time.Time) error {
	err := unix.Connect(fd, sa)
	switch err {
	case nil:
		return nil
	case unix.EINPROGRESS, unix.EALREADY, unix.EINTR:
	default:
		return err
	}

	if err := waitReady(fd, unix.POLLOUT, deadline); err != nil {
		return err
	}

	soErr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if soErr != 0 {
		return unix.Errno(soErr)
	}
	return nil
}

func addrPortOf(sa unix.Sockaddr) netip.AddrPort {
	if sa4, ok := sa.(*unix.SockaddrInet4); ok {
		return netip.AddrPortFrom(netip.AddrFrom4(sa4.Addr), uint16(sa4.Port))
	}
	return netip.AddrPort{}
}
