package nntp

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptConn is an in-memory net.Conn. Reads are served from a
// preloaded server script; writes are captured for assertions.
type scriptConn struct {
	in  *bytes.Reader
	out bytes.Buffer
}

func newScriptConn(serverLines ...string) *scriptConn {
	return &scriptConn{in: bytes.NewReader([]byte(strings.Join(serverLines, "")))}
}

func (c *scriptConn) Read(p []byte) (int, error)         { return c.in.Read(p) }
func (c *scriptConn) Write(p []byte) (int, error)        { return c.out.Write(p) }
func (c *scriptConn) Close() error                       { return nil }
func (c *scriptConn) LocalAddr() net.Addr                { return &net.TCPAddr{} }
func (c *scriptConn) RemoteAddr() net.Addr               { return &net.TCPAddr{} }
func (c *scriptConn) SetDeadline(t time.Time) error      { return nil }
func (c *scriptConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *scriptConn) SetWriteDeadline(t time.Time) error { return nil }

func (c *scriptConn) sent() string { return c.out.String() }

// dialScript builds a Conn over a scripted connection. The first script
// line is the greeting.
func dialScript(t *testing.T, serverLines ...string) (*Conn, *scriptConn) {
	t.Helper()
	sc := newScriptConn(serverLines...)
	conn, err := NewConn(context.Background(), sc, Config{Host: "news.example.com", Port: 119})
	require.NoError(t, err)
	return conn, sc
}

func TestGreeting(t *testing.T) {
	t.Run("posting allowed", func(t *testing.T) {
		conn, _ := dialScript(t, "200 news.example.com ready\r\n")
		assert.Equal(t, StateReady, conn.State())
		assert.True(t, conn.PostingAllowed())
		assert.Equal(t, "news.example.com ready", conn.Banner())
	})

	t.Run("posting prohibited", func(t *testing.T) {
		conn, _ := dialScript(t, "201 read-only mirror\r\n")
		assert.False(t, conn.PostingAllowed())
	})

	t.Run("service unavailable", func(t *testing.T) {
		sc := newScriptConn("400 shutting down\r\n")
		_, err := NewConn(context.Background(), sc, Config{})
		var nerr *Error
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, 400, nerr.Code)
	})
}

func TestAuthenticate(t *testing.T) {
	t.Run("user then pass", func(t *testing.T) {
		conn, sc := dialScript(t,
			"200 ready\r\n",
			"381 password required\r\n",
			"281 welcome\r\n",
		)
		err := conn.Authenticate(context.Background(), "alice", "secret")
		require.NoError(t, err)
		assert.Equal(t, StateAuthenticated, conn.State())
		assert.Contains(t, sc.sent(), "AUTHINFO USER alice\r\n")
		assert.Contains(t, sc.sent(), "AUTHINFO PASS secret\r\n")
	})

	t.Run("rejected credentials return to ready", func(t *testing.T) {
		conn, _ := dialScript(t,
			"200 ready\r\n",
			"381 password required\r\n",
			"481 bad credentials\r\n",
		)
		err := conn.Authenticate(context.Background(), "alice", "wrong")
		var aerr *AuthError
		require.ErrorAs(t, err, &aerr)
		assert.Equal(t, StateReady, conn.State())
	})

	t.Run("continuation after pass keeps exchange open", func(t *testing.T) {
		conn, _ := dialScript(t,
			"200 ready\r\n",
			"381 password required\r\n",
			"381 more input required\r\n",
		)
		err := conn.Authenticate(context.Background(), "alice", "secret")
		var nerr *Error
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, CodePassRequired, nerr.Code)
		assert.Equal(t, StateAuthInProgress, conn.State())
	})

	t.Run("second authenticate stays off the wire", func(t *testing.T) {
		conn, sc := dialScript(t,
			"200 ready\r\n",
			"281 welcome\r\n",
		)
		require.NoError(t, conn.Authenticate(context.Background(), "alice", "secret"))
		before := sc.sent()

		err := conn.Authenticate(context.Background(), "alice", "secret")
		var nerr *Error
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, CodePermissionDenied, nerr.Code)
		assert.Equal(t, before, sc.sent())
	})
}

func TestAuthenticateSASLPlain(t *testing.T) {
	conn, sc := dialScript(t,
		"200 ready\r\n",
		"281 welcome\r\n",
	)
	mech := &PlainMechanism{Username: "alice", Password: "secret"}
	require.NoError(t, conn.AuthenticateSASL(context.Background(), mech))
	assert.Equal(t, StateAuthenticated, conn.State())
	// base64("\x00alice\x00secret")
	assert.Contains(t, sc.sent(), "AUTHINFO SASL PLAIN AGFsaWNlAHNlY3JldA==\r\n")
}

func TestGroupSelection(t *testing.T) {
	conn, sc := dialScript(t,
		"200 ready\r\n",
		"211 1234 3000234 3002322 misc.test\r\n",
	)
	g, err := conn.Group(context.Background(), "misc.test")
	require.NoError(t, err)
	assert.Equal(t, "GROUP misc.test\r\n", lastCommand(sc))
	assert.Equal(t, int64(1234), g.Count)
	assert.Equal(t, int64(3000234), g.First)
	assert.Equal(t, int64(3002322), g.Last)
	assert.Equal(t, "misc.test", conn.SelectedGroup())
}

func TestNumberCommandsRequireGroup(t *testing.T) {
	conn, sc := dialScript(t, "200 ready\r\n")

	_, err := conn.ArticleByNumber(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNoGroupSelected)
	_, err = conn.StatByNumber(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNoGroupSelected)
	_, err = conn.Next(context.Background())
	assert.ErrorIs(t, err, ErrNoGroupSelected)

	// None of the failures may have produced wire traffic.
	assert.Empty(t, sc.sent())
}

func TestArticleByMessageID(t *testing.T) {
	conn, sc := dialScript(t,
		"200 ready\r\n",
		"220 0 <a@b> article follows\r\n",
		"Subject: hi\r\n",
		"\r\n",
		"..leading dot line\r\n",
		"body\r\n",
		".\r\n",
	)
	body, err := conn.Article(context.Background(), "a@b")
	require.NoError(t, err)
	assert.Equal(t, "ARTICLE <a@b>\r\n", lastCommand(sc))
	assert.Equal(t, "Subject: hi\r\n\r\n.leading dot line\r\nbody", string(body))
}

func TestArticleNotFound(t *testing.T) {
	conn, _ := dialScript(t,
		"200 ready\r\n",
		"430 no such article\r\n",
	)
	_, err := conn.Article(context.Background(), "gone@b")
	var nerr *NoSuchArticleError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "<gone@b>", nerr.Spec)
}

func TestStat(t *testing.T) {
	conn, _ := dialScript(t,
		"200 ready\r\n",
		"223 0 <a@b> exists\r\n",
	)
	st, err := conn.Stat(context.Background(), "a@b")
	require.NoError(t, err)
	assert.Equal(t, "<a@b>", st.MessageID)
}

func TestOverFallsBackToXOver(t *testing.T) {
	conn, sc := dialScript(t,
		"200 ready\r\n",
		"211 10 1 10 misc.test\r\n",
		"500 what?\r\n",
		"224 overview follows\r\n",
		"3000234\tSubject line\tauthor <a@b>\tMon, 23 Jun 2025 10:00:00 GMT\t<a@b>\t\t1234\t17\r\n",
		".\r\n",
	)
	_, err := conn.Group(context.Background(), "misc.test")
	require.NoError(t, err)

	rows, err := conn.Over(context.Background(), Between(3000234, 3000240))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3000234), rows[0].Number)
	assert.Equal(t, "Subject line", rows[0].Subject)
	assert.Contains(t, sc.sent(), "OVER 3000234-3000240\r\n")
	assert.Contains(t, sc.sent(), "XOVER 3000234-3000240\r\n")
}

func TestCapabilitiesCached(t *testing.T) {
	conn, sc := dialScript(t,
		"200 ready\r\n",
		"101 capability list follows\r\n",
		"VERSION 2\r\n",
		"READER\r\n",
		"COMPRESS DEFLATE\r\n",
		".\r\n",
	)
	caps, err := conn.Capabilities(context.Background())
	require.NoError(t, err)
	assert.True(t, caps.Has("READER"))
	assert.True(t, caps.HasArg("COMPRESS", "DEFLATE"))

	// Second call answers from the cache without another command.
	before := sc.sent()
	again, err := conn.Capabilities(context.Background())
	require.NoError(t, err)
	assert.Same(t, caps, again)
	assert.Equal(t, before, sc.sent())
}

func TestPost(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		conn, sc := dialScript(t,
			"200 ready\r\n",
			"340 send it\r\n",
			"240 article received\r\n",
		)
		err := conn.Post(context.Background(), []byte("Subject: t\r\n\r\nbody\r\n.\r\n"))
		require.NoError(t, err)
		assert.Contains(t, sc.sent(), "POST\r\nSubject: t\r\n\r\nbody\r\n.\r\n")
	})

	t.Run("posting not allowed", func(t *testing.T) {
		conn, sc := dialScript(t,
			"200 ready\r\n",
			"440 posting not allowed\r\n",
		)
		err := conn.Post(context.Background(), []byte("x\r\n.\r\n"))
		var nerr *Error
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, 440, nerr.Code)
		// The article body must not have been sent after the refusal.
		assert.Equal(t, "POST\r\n", sc.sent())
	})
}

func TestIHave(t *testing.T) {
	conn, sc := dialScript(t,
		"200 ready\r\n",
		"335 send it\r\n",
		"235 transferred\r\n",
	)
	err := conn.IHave(context.Background(), "a@b", []byte("x\r\n.\r\n"))
	require.NoError(t, err)
	assert.Contains(t, sc.sent(), "IHAVE <a@b>\r\n")
}

func TestTakeThisSendsWithoutWaiting(t *testing.T) {
	conn, sc := dialScript(t,
		"200 ready\r\n",
		"239 <a@b>\r\n",
	)
	accepted, err := conn.TakeThis(context.Background(), "a@b", []byte("x\r\n.\r\n"))
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, "TAKETHIS <a@b>\r\nx\r\n.\r\n", sc.sent())
}

func TestTryEnableCompression(t *testing.T) {
	t.Run("deflate preferred", func(t *testing.T) {
		// The 206 line is plain; nothing compressed follows in this
		// script, so only the negotiation itself is exercised.
		conn, _ := dialScript(t,
			"200 ready\r\n",
			"206 compression active\r\n",
		)
		mode, err := conn.TryEnableCompression(context.Background())
		require.NoError(t, err)
		assert.Equal(t, CompressionDeflate, mode)
		assert.Equal(t, CompressionDeflate, conn.Compression())
	})

	t.Run("gzip fallback", func(t *testing.T) {
		conn, sc := dialScript(t,
			"200 ready\r\n",
			"502 command disabled\r\n",
			"290 feature enabled\r\n",
		)
		mode, err := conn.TryEnableCompression(context.Background())
		require.NoError(t, err)
		assert.Equal(t, CompressionGzip, mode)
		assert.Contains(t, sc.sent(), "COMPRESS DEFLATE\r\n")
		assert.Contains(t, sc.sent(), "XFEATURE COMPRESS GZIP\r\n")
	})

	t.Run("neither supported is not an error", func(t *testing.T) {
		conn, _ := dialScript(t,
			"200 ready\r\n",
			"500 unknown\r\n",
			"500 unknown\r\n",
		)
		mode, err := conn.TryEnableCompression(context.Background())
		require.NoError(t, err)
		assert.Equal(t, CompressionNone, mode)
		assert.Equal(t, StateReady, conn.State())
	})
}

func TestQuit(t *testing.T) {
	conn, sc := dialScript(t,
		"200 ready\r\n",
		"205 bye\r\n",
	)
	require.NoError(t, conn.Quit(context.Background()))
	assert.Equal(t, StateClosed, conn.State())
	assert.Equal(t, "QUIT\r\n", sc.sent())

	_, err := conn.Date(context.Background())
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestTransportFailureClosesConn(t *testing.T) {
	// Script ends after the greeting, so the next read hits EOF
	// mid-exchange.
	conn, _ := dialScript(t, "200 ready\r\n")
	_, err := conn.Date(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateClosed, conn.State())
}

// lastCommand returns the final CRLF-terminated line written to the
// server.
func lastCommand(sc *scriptConn) string {
	s := sc.sent()
	trimmed := strings.TrimSuffix(s, "\r\n")
	if i := strings.LastIndex(trimmed, "\r\n"); i >= 0 {
		return s[i+2:]
	}
	return s
}
