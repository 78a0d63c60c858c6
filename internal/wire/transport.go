// Package wire implements the byte-level transport and framing layer for
// NNTP connections: TCP dialing with socket tuning, optional implicit TLS,
// line-oriented response framing with dot-unstuffing, and the two
// compression adapters (full-session DEFLATE and per-response GZIP).
//
// Everything above this package is line-oriented. The framer hides whether
// bytes on the wire were compressed, so command parsers work the same
// regardless of the negotiated wire format.
package wire

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Socket buffer sizes. Usenet transfers are bulk downloads, so the receive
// buffer is sized well above the kernel default.
const (
	defaultReadBuffer  = 4 << 20
	defaultWriteBuffer = 1 << 20

	keepAlivePeriod = 30 * time.Second
)

// DialConfig carries the transport parameters for a single endpoint.
type DialConfig struct {
	// Host is the server hostname or IP address.
	Host string

	// Port is the TCP port (conventionally 119 plain, 563 TLS).
	Port int

	// TLS enables implicit TLS: the handshake happens immediately after
	// the TCP connect, before any NNTP traffic.
	TLS bool

	// AllowInsecureTLS disables certificate and hostname verification.
	// Intended only for development against self-signed deployments.
	AllowInsecureTLS bool

	// Timeout bounds the combined TCP connect and TLS handshake.
	// Zero means no timeout beyond what ctx imposes.
	Timeout time.Duration
}

// Dial establishes a tuned TCP connection to cfg.Host:cfg.Port and, if
// configured, wraps it in a TLS client session. The returned net.Conn is
// ready for the NNTP greeting.
func Dial(ctx context.Context, cfg DialConfig) (net.Conn, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	dialer := &net.Dialer{KeepAlive: keepAlivePeriod}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	if tc, ok := conn.(*net.TCPConn); ok {
		// Best effort: some platforms reject buffer resizing.
		_ = tc.SetNoDelay(true)
		_ = tc.SetReadBuffer(defaultReadBuffer)
		_ = tc.SetWriteBuffer(defaultWriteBuffer)
	}

	if !cfg.TLS {
		return conn, nil
	}

	tlsConf := &tls.Config{
		ServerName: cfg.Host,
		MinVersion: tls.VersionTLS12,
	}
	if cfg.AllowInsecureTLS {
		tlsConf.InsecureSkipVerify = true
	}

	tlsConn := tls.Client(conn, tlsConf)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake with %s: %w", addr, err)
	}
	return tlsConn, nil
}
