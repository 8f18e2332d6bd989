package transport

import (
	"sync"

	"github.com/godzie44/go-uring/uring"
	"golang.org/x/sys/unix"
)

// maxRingWrite caps a single write submission. A writable TCP socket has
// at least a third of its send buffer free, so a write this small
// completes without waiting for the peer.
const maxRingWrite = ChunkSize

// RingEngine submits write and read operations through godzie44/go-uring.
// The ring itself is not safe for concurrent use, so every transfer holds
// the engine lock from queueing until the completion is seen.
type RingEngine struct {
	mu   sync.Mutex
	ring *uring.Ring
}

// NewRingEngine creates an engine backed by a ring with 32 entries
func NewRingEngine() (*RingEngine, error) {
	ring, err := uring.New(32)
	if err != nil {
		return nil, err
	}

	return &RingEngine{ring: ring}, nil
}

func (e *RingEngine) Name() string { return EngineRing }

func (e *RingEngine) Write(fd int, buf []byte) (int, error) {
	if len(buf) > maxRingWrite {
		buf = buf[:maxRingWrite]
	}
	return e.submit(uring.Write(uintptr(fd), buf, 0))
}

func (e *RingEngine) Read(fd int, buf []byte) (int, error) {
	return e.submit(uring.Read(uintptr(fd), buf, 0))
}

// submit queues one operation, submits it and waits for its completion
func (e *RingEngine) submit(op uring.Operation) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ring == nil {
		return 0, unix.EBADF
	}

	if err := e.ring.QueueSQE(op, 0, 0); err != nil {
		return 0, err
	}

	if _, err := e.ring.Submit(); err != nil {
		return 0, err
	}

	cqe, err := e.ring.WaitCQEvents(1)
	if err != nil {
		return 0, err
	}

	if err := cqe.Error(); err != nil {
		e.ring.SeenCQE(cqe)
		return 0, err
	}

	n := int(cqe.Res)
	e.ring.SeenCQE(cqe)
	return n, nil
}

// Close releases the ring
func (e *RingEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ring == nil {
		return nil
	}
	err := e.ring.Close()
	e.ring = nil
	return err
}
