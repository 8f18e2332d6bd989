package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nczempin/tcpconn/config"
	"github.com/nczempin/tcpconn/errors"
	"github.com/nczempin/tcpconn/transport"
)

// Result summarizes one connection attempt
type Result struct {
	ConnID        string
	Connected     bool
	BytesSent     int
	BytesReceived int
	PeerClosed    bool
	Elapsed       time.Duration
}

// Client owns one Connection per attempt: it connects, reports the
// outcome, optionally exchanges a payload, and lingers before returning.
type Client struct {
	cfg    config.Config
	logger *slog.Logger
}

// New creates a Client for cfg. A nil logger discards output.
func New(cfg config.Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
	}
}

// Run performs a single attempt. The linger delay is observed on success
// and failure alike and is cut short when ctx is done.
func (c *Client) Run(ctx context.Context) (Result, error) {
	result, err := c.attempt()
	c.linger(ctx)
	return result, err
}

func (c *Client) attempt() (Result, error) {
	start := time.Now()

	engine, err := transport.NewEngine(c.cfg.Engine)
	if err != nil {
		c.logger.Error("engine setup failed", "engine", c.cfg.Engine, "error", err)
		return Result{}, fmt.Errorf("engine %s: %w", c.cfg.Engine, err)
	}
	defer engine.Close()

	conn := transport.New(c.cfg.Address, c.cfg.Port,
		transport.WithEngine(engine),
		transport.WithIOTimeout(c.cfg.IOTimeout),
		transport.WithLogger(c.logger),
	)
	defer conn.Close()

	result := Result{ConnID: conn.ID().String()}
	log := c.logger.With("conn_id", result.ConnID, "addr", c.cfg.Address, "port", c.cfg.Port)

	if err := conn.Connect(c.cfg.ConnectTimeout); err != nil {
		log.Error("connect fail", "error", err)
		result.Elapsed = time.Since(start)
		return result, fmt.Errorf("connect to %s:%d: %w", c.cfg.Address, c.cfg.Port, err)
	}
	result.Connected = true
	log.Info("connect successful", "engine", engine.Name(), "local", conn.LocalAddr().String())

	if c.cfg.Payload != "" {
		if err := c.exchange(conn, &result, log); err != nil {
			result.Elapsed = time.Since(start)
			return result, err
		}
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// exchange sends the payload and drains replies until the peer closes or
// stays quiet for the I/O timeout
func (c *Client) exchange(conn transport.Conn, result *Result, log *slog.Logger) error {
	payload := []byte(c.cfg.Payload)
	if err := conn.Send(payload); err != nil {
		log.Error("send failed", "error", err)
		return fmt.Errorf("send: %w", err)
	}
	result.BytesSent = len(payload)

	for {
		data, err := conn.Receive()
		if err == nil {
			result.BytesReceived += len(data)
			continue
		}

		switch {
		case errors.Is(err, errors.Closed):
			result.PeerClosed = true
		case errors.IsTimeout(err):
			log.Debug("no more replies", "error", err)
		default:
			log.Error("receive failed", "error", err)
			return fmt.Errorf("receive: %w", err)
		}

		log.Info("exchange complete",
			"sent", result.BytesSent,
			"received", result.BytesReceived,
			"peer_closed", result.PeerClosed,
		)
		return nil
	}
}

func (c *Client) linger(ctx context.Context) {
	if c.cfg.Linger <= 0 {
		return
	}

	timer := time.NewTimer(c.cfg.Linger)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		c.logger.Debug("linger interrupted", "error", ctx.Err())
	}
}
