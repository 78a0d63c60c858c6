package nntp

import (
	"errors"
	"fmt"
)

// Sentinel errors for protocol conditions that carry no extra payload.
// All are matchable with errors.Is through any wrapping the client adds.
var (
	// ErrConnectionClosed is returned for operations attempted after an
	// explicit QUIT or a transport failure.
	ErrConnectionClosed = errors.New("nntp: connection closed")

	// ErrNoGroupSelected maps response code 412.
	ErrNoGroupSelected = errors.New("nntp: no newsgroup selected")

	// ErrInvalidArticleNumber maps response code 420.
	ErrInvalidArticleNumber = errors.New("nntp: current article number is invalid")

	// ErrNoNextArticle maps response code 421.
	ErrNoNextArticle = errors.New("nntp: no next article in this group")

	// ErrNoPreviousArticle maps response code 422.
	ErrNoPreviousArticle = errors.New("nntp: no previous article in this group")

	// ErrAuthRequired maps response code 480: the command needs
	// authentication the connection does not have. Connection state is
	// unchanged.
	ErrAuthRequired = errors.New("nntp: authentication required")

	// ErrAuthOutOfSequence maps response code 482, and is also returned
	// by the client itself when a command is illegal in the current
	// connection state.
	ErrAuthOutOfSequence = errors.New("nntp: authentication out of sequence")

	// ErrEncryptionRequired maps response code 483.
	ErrEncryptionRequired = errors.New("nntp: encryption required")
)

// Error is the generic protocol error: the server answered with a
// recognized status code that is wrong for the requested operation and
// has no more specific kind.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("nntp: server returned %03d %s", e.Code, e.Message)
}

// NoSuchGroupError maps response code 411.
type NoSuchGroupError struct {
	Group string
}

func (e *NoSuchGroupError) Error() string {
	return fmt.Sprintf("nntp: no such newsgroup %q", e.Group)
}

// NoSuchArticleError maps response codes 423 and 430. Spec holds the
// message-id or article number the caller asked for.
type NoSuchArticleError struct {
	Spec string
}

func (e *NoSuchArticleError) Error() string {
	return fmt.Sprintf("nntp: no such article %q", e.Spec)
}

// AuthError maps response code 481: credentials rejected.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("nntp: authentication failed: %s", e.Reason)
}

// InvalidResponseError reports a response whose structure could not be
// parsed into the typed record the command expects. Framing-level
// problems (bad status line, truncated multi-line block) surface from the
// wire layer instead.
type InvalidResponseError struct {
	Reason string
	Line   string
}

func (e *InvalidResponseError) Error() string {
	if e.Line == "" {
		return fmt.Sprintf("nntp: invalid response: %s", e.Reason)
	}
	return fmt.Sprintf("nntp: invalid response: %s (line %q)", e.Reason, e.Line)
}

// ClientError reports caller-side misuse detected before anything is
// written to the wire.
type ClientError struct {
	Reason string
}

func (e *ClientError) Error() string {
	return "nntp: " + e.Reason
}

// responseError maps an error-class response onto the error taxonomy.
// spec names what the caller asked for and is used for the article and
// group not-found kinds.
func responseError(resp *Response, spec string) error {
	switch resp.Code {
	case CodeNoSuchGroup:
		return &NoSuchGroupError{Group: spec}
	case CodeNoGroupSelected:
		return ErrNoGroupSelected
	case CodeInvalidArticleNumber:
		return ErrInvalidArticleNumber
	case CodeNoNextArticle:
		return ErrNoNextArticle
	case CodeNoPreviousArticle:
		return ErrNoPreviousArticle
	case CodeNoSuchArticleNumber, CodeNoSuchArticle:
		return &NoSuchArticleError{Spec: spec}
	case CodeAuthRequired:
		return ErrAuthRequired
	case CodeAuthRejected:
		return &AuthError{Reason: resp.Message}
	case CodeAuthOutOfSequence:
		return ErrAuthOutOfSequence
	case CodeEncryptionRequired:
		return ErrEncryptionRequired
	default:
		return &Error{Code: resp.Code, Message: resp.Message}
	}
}
