package nntp

import (
	"context"

	"github.com/marmos91/spool/internal/logger"
)

// Post submits a new article. The serialized article must already be in
// wire form: CRLF line endings, dot-stuffed, terminated by ".\r\n".
// The article package produces exactly that.
func (c *Conn) Post(ctx context.Context, serialized []byte) error {
	resp, err := c.roundTrip(ctx, BuildPost())
	if err != nil {
		return err
	}
	if resp.Code != CodeSendPost {
		return responseError(resp, "")
	}
	if err := c.framer.WriteRaw(serialized); err != nil {
		return c.fail(err)
	}
	code, msg, err := c.framer.ReadStatusLine()
	if err != nil {
		return c.fail(err)
	}
	if code != CodePosted {
		return responseError(&Response{Code: code, Message: msg}, "")
	}
	logger.Debug("article posted", "host", c.cfg.Host)
	return nil
}

// IHave offers an article the client already holds. Unlike Post the
// offer names the message-id up front so the server can refuse before
// the transfer (435), defer it (436), or reject the body after (437).
func (c *Conn) IHave(ctx context.Context, messageID string, serialized []byte) error {
	id := FormatMessageID(messageID)
	resp, err := c.roundTrip(ctx, BuildIHave(id))
	if err != nil {
		return err
	}
	if resp.Code != CodeSendArticle {
		return responseError(resp, id)
	}
	if err := c.framer.WriteRaw(serialized); err != nil {
		return c.fail(err)
	}
	code, msg, err := c.framer.ReadStatusLine()
	if err != nil {
		return c.fail(err)
	}
	if code != CodeTransferred {
		return responseError(&Response{Code: code, Message: msg}, id)
	}
	return nil
}

// ModeStream switches the connection into streaming mode (RFC 4644),
// enabling CHECK and TAKETHIS.
func (c *Conn) ModeStream(ctx context.Context) error {
	resp, err := c.roundTrip(ctx, BuildModeStream())
	if err != nil {
		return err
	}
	if resp.Code != CodeStreamingOK {
		return responseError(resp, "")
	}
	return nil
}

// Check asks a streaming peer whether it wants the named article.
func (c *Conn) Check(ctx context.Context, messageID string) (CheckStatus, error) {
	id := FormatMessageID(messageID)
	resp, err := c.roundTrip(ctx, BuildCheck(id))
	if err != nil {
		return CheckNotWanted, err
	}
	status, _, perr := ParseCheck(resp)
	return status, perr
}

// TakeThis streams an article without waiting for permission: the
// command and the article body go out together, then the single 239/439
// verdict comes back. Returns whether the peer accepted it.
func (c *Conn) TakeThis(ctx context.Context, messageID string, serialized []byte) (bool, error) {
	if c.state == StateClosed {
		return false, ErrConnectionClosed
	}
	id := FormatMessageID(messageID)
	c.applyDeadline(ctx)
	if err := c.framer.WriteCommand(BuildTakeThis(id)); err != nil {
		return false, c.fail(err)
	}
	if err := c.framer.WriteRaw(serialized); err != nil {
		return false, c.fail(err)
	}
	code, msg, err := c.framer.ReadStatusLine()
	if err != nil {
		return false, c.fail(err)
	}
	accepted, _, perr := ParseTakeThis(&Response{Code: code, Message: msg})
	return accepted, perr
}
