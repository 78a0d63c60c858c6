package nntp

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/marmos91/spool/internal/logger"
)

// Authenticate performs the AUTHINFO USER/PASS exchange. On an
// already-authenticated connection it refuses without touching the wire,
// mirroring the 502 a compliant server would send.
func (c *Conn) Authenticate(ctx context.Context, username, password string) error {
	if err := c.preAuthCheck(); err != nil {
		return err
	}

	resp, err := c.roundTrip(ctx, BuildAuthinfoUser(username))
	if err != nil {
		return err
	}
	switch resp.Code {
	case CodeAuthAccepted:
		c.state = StateAuthenticated
		return nil
	case CodePassRequired:
		c.state = StateAuthInProgress
	default:
		c.state = StateReady
		return responseError(resp, username)
	}

	resp, err = c.roundTrip(ctx, BuildAuthinfoPass(password))
	if err != nil {
		return err
	}
	switch resp.Code {
	case CodeAuthAccepted:
		c.state = StateAuthenticated
		logger.Debug("authenticated", "host", c.cfg.Host, "user", username)
		return nil
	case CodePassRequired, CodeSASLContinue:
		// The server wants more input, so the exchange stays open and the
		// connection remains in the in-progress state.
		return responseError(resp, username)
	default:
		c.state = StateReady
		return responseError(resp, username)
	}
}

// preAuthCheck enforces the state machine transitions for starting an
// authentication exchange.
func (c *Conn) preAuthCheck() error {
	switch c.state {
	case StateClosed:
		return ErrConnectionClosed
	case StateAuthenticated:
		// A second authenticate must fail without a wire command.
		return &Error{Code: CodePermissionDenied, Message: "already authenticated"}
	default:
		return nil
	}
}

// SASLMechanism is one client-side SASL mechanism. Start may return an
// initial response; Next answers each server challenge until the
// exchange completes.
type SASLMechanism interface {
	Name() string
	Start() ([]byte, error)
	Next(challenge []byte) ([]byte, error)
}

// PlainMechanism implements SASL PLAIN (RFC 4616): a single
// authorization-identity \0 username \0 password message.
type PlainMechanism struct {
	Identity string // authorization identity, usually empty
	Username string
	Password string
}

func (m *PlainMechanism) Name() string { return "PLAIN" }

func (m *PlainMechanism) Start() ([]byte, error) {
	return []byte(m.Identity + "\x00" + m.Username + "\x00" + m.Password), nil
}

func (m *PlainMechanism) Next(challenge []byte) ([]byte, error) {
	return nil, fmt.Errorf("nntp: PLAIN received unexpected challenge")
}

// AuthenticateSASL runs an AUTHINFO SASL exchange with the given
// mechanism. Multi-round mechanisms keep the connection in
// StateAuthInProgress between challenges (code 383); 281 completes,
// 481/482 return the connection to StateReady.
func (c *Conn) AuthenticateSASL(ctx context.Context, mech SASLMechanism) error {
	if err := c.preAuthCheck(); err != nil {
		return err
	}

	initial, err := mech.Start()
	if err != nil {
		return err
	}
	initialArg := ""
	if initial != nil {
		initialArg = base64.StdEncoding.EncodeToString(initial)
		if initialArg == "" {
			// A zero-length initial response is sent as "=".
			initialArg = "="
		}
	}

	resp, err := c.roundTrip(ctx, BuildAuthinfoSASL(mech.Name(), initialArg))
	if err != nil {
		return err
	}

	for resp.Code == CodeSASLContinue || resp.Code == CodePassRequired {
		c.state = StateAuthInProgress
		challenge, derr := base64.StdEncoding.DecodeString(resp.Message)
		if derr != nil {
			c.state = StateReady
			return &InvalidResponseError{Reason: "SASL challenge is not valid base64", Line: resp.Message}
		}
		answer, merr := mech.Next(challenge)
		if merr != nil {
			c.state = StateReady
			return merr
		}
		c.applyDeadline(ctx)
		if werr := c.framer.WriteLine(base64.StdEncoding.EncodeToString(answer)); werr != nil {
			return c.fail(werr)
		}
		code, msg, rerr := c.framer.ReadStatusLine()
		if rerr != nil {
			return c.fail(rerr)
		}
		resp = &Response{Code: code, Message: msg}
	}

	switch resp.Code {
	case CodeAuthAccepted:
		c.state = StateAuthenticated
		return nil
	default:
		c.state = StateReady
		return responseError(resp, mech.Name())
	}
}
