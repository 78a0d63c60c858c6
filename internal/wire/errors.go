package wire

import (
	"errors"
	"fmt"
)

var (
	// ErrLineTooLong is returned when a response line exceeds the framer's
	// safety cap. A compliant server never sends lines anywhere near the
	// cap; hitting it indicates a desynchronized or hostile peer.
	ErrLineTooLong = errors.New("wire: response line exceeds safety cap")

	// ErrCommandTooLong is returned for command lines over 512 octets
	// including the terminating CRLF, per the protocol limit.
	ErrCommandTooLong = errors.New("wire: command line exceeds 512 octets")

	// ErrUnexpectedEOF is returned when the peer closes the stream in the
	// middle of a response.
	ErrUnexpectedEOF = errors.New("wire: unexpected EOF")
)

// StatusLineError reports a response line whose first three octets are not
// ASCII decimal digits. The framer refuses to guess at such lines.
type StatusLineError struct {
	Line string
}

func (e *StatusLineError) Error() string {
	return fmt.Sprintf("wire: malformed status line %q", e.Line)
}

// DecodeError wraps a failure inside a compression adapter (corrupt
// DEFLATE stream, truncated GZIP blob). The connection is unusable after
// a decode error.
type DecodeError struct {
	Scheme string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wire: %s decode: %v", e.Scheme, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
