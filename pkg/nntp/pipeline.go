package nntp

import (
	"context"

	"github.com/marmos91/spool/internal/logger"
)

// FetchResult is one outcome of a pipelined fetch. Exactly one of Body
// and Err is meaningful.
type FetchResult struct {
	MessageID string
	Body      []byte
	Err       error
}

// FetchArticles retrieves article bodies for the given message-ids with
// command pipelining: up to window commands are in flight before the
// first response is read, then each response read frees a slot for the
// next command. NNTP answers strictly in order, so responses are
// matched to commands FIFO.
//
// A missing article (430) is recorded per item; the remaining in-flight
// responses are still drained. A transport or framing failure aborts
// the whole batch and closes the connection, since unread responses
// would desynchronize any later command.
func (c *Conn) FetchArticles(ctx context.Context, messageIDs []string, window int) ([]FetchResult, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	if c.state == StateClosed {
		return nil, ErrConnectionClosed
	}
	if window < 1 {
		window = 1
	}

	results := make([]FetchResult, len(messageIDs))
	c.applyDeadline(ctx)

	sent := 0
	send := func() error {
		id := FormatMessageID(messageIDs[sent])
		results[sent].MessageID = id
		sent++
		return c.framer.WriteCommand(BuildArticle(id))
	}

	for sent < len(messageIDs) && sent < window {
		if err := send(); err != nil {
			return nil, c.fail(err)
		}
	}

	for read := 0; read < len(messageIDs); read++ {
		if err := ctx.Err(); err != nil {
			return nil, c.fail(err)
		}
		code, msg, err := c.framer.ReadStatusLine()
		if err != nil {
			return nil, c.fail(err)
		}
		if code == CodeArticleFollows {
			body, berr := c.framer.ReadBodyBinary()
			if berr != nil {
				return nil, c.fail(berr)
			}
			results[read].Body = body
		} else {
			results[read].Err = responseError(&Response{Code: code, Message: msg}, results[read].MessageID)
		}
		if sent < len(messageIDs) {
			if err := send(); err != nil {
				return nil, c.fail(err)
			}
		}
	}

	logger.Debug("pipelined fetch complete",
		"host", c.cfg.Host, "articles", len(messageIDs), "window", window)
	return results, nil
}

// CheckResult is one outcome of a pipelined CHECK batch.
type CheckResult struct {
	MessageID string
	Status    CheckStatus
	Err       error
}

// CheckMany pipelines CHECK commands for a batch of message-ids. CHECK
// responses echo the message-id, so each answer is verified against the
// FIFO expectation; a mismatch means the stream is desynchronized and
// the connection is closed.
func (c *Conn) CheckMany(ctx context.Context, messageIDs []string, window int) ([]CheckResult, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	if c.state == StateClosed {
		return nil, ErrConnectionClosed
	}
	if window < 1 {
		window = 1
	}

	results := make([]CheckResult, len(messageIDs))
	c.applyDeadline(ctx)

	sent := 0
	send := func() error {
		id := FormatMessageID(messageIDs[sent])
		results[sent].MessageID = id
		sent++
		return c.framer.WriteCommand(BuildCheck(id))
	}

	for sent < len(messageIDs) && sent < window {
		if err := send(); err != nil {
			return nil, c.fail(err)
		}
	}

	for read := 0; read < len(messageIDs); read++ {
		if err := ctx.Err(); err != nil {
			return nil, c.fail(err)
		}
		code, msg, err := c.framer.ReadStatusLine()
		if err != nil {
			return nil, c.fail(err)
		}
		status, echoed, perr := ParseCheck(&Response{Code: code, Message: msg})
		if perr != nil {
			results[read].Err = perr
		} else {
			if echoed != "" && echoed != results[read].MessageID {
				return nil, c.fail(&InvalidResponseError{
					Reason: "CHECK response for unexpected message-id",
					Line:   msg,
				})
			}
			results[read].Status = status
		}
		if sent < len(messageIDs) {
			if err := send(); err != nil {
				return nil, c.fail(err)
			}
		}
	}

	return results, nil
}
