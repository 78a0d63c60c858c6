// Package nntp implements the client side of the Network News Transfer
// Protocol: the response model, the command catalogue, and a stateful
// single-connection client with authentication, compression negotiation,
// and pipelined fetching.
//
// A Conn is not safe for concurrent command execution; every command is
// one write followed by one or more reads on the same socket, so exactly
// one goroutine drives a connection at a time. The pool package enforces
// this with exclusive handles.
package nntp

import (
	"context"
	"net"
	"time"

	"github.com/marmos91/spool/internal/logger"
	"github.com/marmos91/spool/internal/wire"
)

// State is the connection-level protocol state.
type State int

const (
	// StateReady: connected, greeting consumed, not authenticated.
	StateReady State = iota
	// StateAuthInProgress: partway through USER/PASS or a SASL exchange.
	StateAuthInProgress
	// StateAuthenticated: credentials accepted.
	StateAuthenticated
	// StateClosed: explicit quit or transport failure.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateAuthInProgress:
		return "auth-in-progress"
	case StateAuthenticated:
		return "authenticated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CompressionMode identifies the negotiated wire compression, if any.
type CompressionMode int

const (
	CompressionNone CompressionMode = iota
	CompressionDeflate
	CompressionGzip
)

func (m CompressionMode) String() string {
	switch m {
	case CompressionDeflate:
		return "deflate"
	case CompressionGzip:
		return "gzip"
	default:
		return "none"
	}
}

// Config carries everything needed to establish one connection.
type Config struct {
	Host             string
	Port             int
	TLS              bool
	AllowInsecureTLS bool
	Username         string
	Password         string

	// DialTimeout bounds connect plus TLS handshake. Zero means rely on
	// the caller's context.
	DialTimeout time.Duration

	// ReadTimeout is the per-command socket deadline applied when the
	// operation context carries none. Zero disables it.
	ReadTimeout time.Duration
}

// Conn is a single NNTP connection. See the package comment for the
// concurrency contract.
type Conn struct {
	framer *wire.Framer
	cfg    Config

	state          State
	banner         string
	postingAllowed bool
	compression    CompressionMode

	// caps is the capability cache, populated on the first CAPABILITIES
	// call and invalidated when compression is negotiated.
	caps *Capabilities

	// group is the currently selected newsgroup, "" if none.
	group string
}

// Dial connects, consumes the greeting, and returns a Conn in
// StateReady. A greeting other than 200/201 closes the transport and
// surfaces as an *Error.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	netConn, err := wire.Dial(ctx, wire.DialConfig{
		Host:             cfg.Host,
		Port:             cfg.Port,
		TLS:              cfg.TLS,
		AllowInsecureTLS: cfg.AllowInsecureTLS,
		Timeout:          cfg.DialTimeout,
	})
	if err != nil {
		return nil, err
	}
	return NewConn(ctx, netConn, cfg)
}

// NewConn wraps an established transport connection and consumes the
// greeting. Useful for tests and for callers that dial through proxies.
func NewConn(ctx context.Context, netConn net.Conn, cfg Config) (*Conn, error) {
	c := &Conn{framer: wire.NewFramer(netConn), cfg: cfg, state: StateReady}
	c.applyDeadline(ctx)

	code, msg, err := c.framer.ReadStatusLine()
	if err != nil {
		c.framer.Close()
		return nil, err
	}
	switch code {
	case CodeReadyPostingAllowed:
		c.postingAllowed = true
	case CodeReadyNoPosting:
	default:
		c.framer.Close()
		return nil, &Error{Code: code, Message: msg}
	}
	c.banner = msg
	logger.Debug("nntp connection established",
		"host", cfg.Host, "port", cfg.Port, "tls", cfg.TLS, "posting", c.postingAllowed)
	return c, nil
}

// State returns the current protocol state.
func (c *Conn) State() State { return c.state }

// Banner returns the greeting message text.
func (c *Conn) Banner() string { return c.banner }

// PostingAllowed reports whether the greeting advertised posting (200).
func (c *Conn) PostingAllowed() bool { return c.postingAllowed }

// SelectedGroup returns the currently selected newsgroup, "" if none.
func (c *Conn) SelectedGroup() string { return c.group }

// Compression returns the negotiated compression mode.
func (c *Conn) Compression() CompressionMode { return c.compression }

// Bandwidth returns cumulative compressed/decompressed byte counters.
// All values are zero while no compression is active.
func (c *Conn) Bandwidth() wire.Snapshot {
	return c.framer.Counters().Snapshot()
}

// Close tears the transport down without the QUIT exchange.
func (c *Conn) Close() error {
	if c.state == StateClosed {
		return nil
	}
	c.state = StateClosed
	return c.framer.Close()
}

// Quit sends QUIT and closes the transport. The connection is Closed
// afterwards regardless of the server's answer.
func (c *Conn) Quit(ctx context.Context) error {
	if c.state == StateClosed {
		return ErrConnectionClosed
	}
	c.applyDeadline(ctx)
	var err error
	if werr := c.framer.WriteCommand(BuildQuit()); werr == nil {
		_, _, err = c.framer.ReadStatusLine()
	} else {
		err = werr
	}
	c.state = StateClosed
	if cerr := c.framer.Close(); err == nil {
		err = cerr
	}
	return err
}

// applyDeadline projects the context deadline (or the configured
// per-command timeout) onto the socket.
func (c *Conn) applyDeadline(ctx context.Context) {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.framer.SetDeadline(dl)
		return
	}
	if c.cfg.ReadTimeout > 0 {
		_ = c.framer.SetDeadline(time.Now().Add(c.cfg.ReadTimeout))
		return
	}
	_ = c.framer.SetDeadline(time.Time{})
}

// fail marks the connection Closed after a transport or framing failure
// and passes the error through. A command interrupted mid-exchange
// leaves the protocol state indeterminate, so the connection cannot be
// reused.
func (c *Conn) fail(err error) error {
	if c.state != StateClosed {
		c.state = StateClosed
		c.framer.Close()
	}
	return err
}

// roundTrip writes one command and reads its single-line response.
func (c *Conn) roundTrip(ctx context.Context, cmd string) (*Response, error) {
	if c.state == StateClosed {
		return nil, ErrConnectionClosed
	}
	c.applyDeadline(ctx)
	if err := c.framer.WriteCommand(cmd); err != nil {
		return nil, c.fail(err)
	}
	code, msg, err := c.framer.ReadStatusLine()
	if err != nil {
		return nil, c.fail(err)
	}
	return &Response{Code: code, Message: msg}, nil
}

// execMultiline performs a round trip and, when the response carries the
// expected success code, reads the dot-terminated body into the response.
func (c *Conn) execMultiline(ctx context.Context, cmd string, successCode int) (*Response, error) {
	resp, err := c.roundTrip(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if resp.Code == successCode {
		lines, err := c.framer.ReadBodyLines()
		if err != nil {
			return nil, c.fail(err)
		}
		resp.Lines = lines
	}
	return resp, nil
}

// execBinary is execMultiline preserving raw body bytes.
func (c *Conn) execBinary(ctx context.Context, cmd string, successCode int) (*Response, []byte, error) {
	resp, err := c.roundTrip(ctx, cmd)
	if err != nil {
		return nil, nil, err
	}
	if resp.Code != successCode {
		return resp, nil, nil
	}
	body, err := c.framer.ReadBodyBinary()
	if err != nil {
		return nil, nil, c.fail(err)
	}
	return resp, body, nil
}
