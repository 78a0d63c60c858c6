package nntp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroup(t *testing.T) {
	t.Run("canonical name from response", func(t *testing.T) {
		g, err := ParseGroup(&Response{Code: 211, Message: "1234 3000234 3002322 misc.test"}, "MISC.TEST")
		require.NoError(t, err)
		assert.Equal(t, "misc.test", g.Name)
		assert.Equal(t, int64(1234), g.Count)
	})

	t.Run("name omitted falls back to the request", func(t *testing.T) {
		g, err := ParseGroup(&Response{Code: 211, Message: "0 1 0"}, "misc.test")
		require.NoError(t, err)
		assert.Equal(t, "misc.test", g.Name)
	})

	t.Run("no such group", func(t *testing.T) {
		_, err := ParseGroup(&Response{Code: 411, Message: "no such group"}, "no.such")
		var nerr *NoSuchGroupError
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, "no.such", nerr.Group)
	})

	t.Run("missing counts", func(t *testing.T) {
		_, err := ParseGroup(&Response{Code: 211, Message: "1234 3000234"}, "misc.test")
		var ierr *InvalidResponseError
		assert.ErrorAs(t, err, &ierr)
	})
}

func TestParseOverview(t *testing.T) {
	t.Run("extra fields ignored and blank numerics zeroed", func(t *testing.T) {
		resp := &Response{Code: 224, Lines: []string{
			"12\tsubj\tfrom\tdate\t<id@x>\t<ref@x>\t\t\tXref: news misc.test:12",
		}}
		rows, err := ParseOverview(resp)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(12), rows[0].Number)
		assert.Equal(t, "<ref@x>", rows[0].References)
		assert.Zero(t, rows[0].Bytes)
		assert.Zero(t, rows[0].Lines)
	})

	t.Run("short row fails the call", func(t *testing.T) {
		resp := &Response{Code: 224, Lines: []string{"12\tsubj\tfrom"}}
		_, err := ParseOverview(resp)
		var ierr *InvalidResponseError
		assert.ErrorAs(t, err, &ierr)
	})
}

func TestParseHdrSkipsMalformedRows(t *testing.T) {
	resp := &Response{Code: 225, Lines: []string{
		"3000234 I am just a test",
		"garbage row",
		"3000235",
	}}
	rows, err := ParseHdr(resp)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "I am just a test", rows[0].Value)
	assert.Equal(t, "", rows[1].Value)
}

func TestParseActiveSkipsMalformedRows(t *testing.T) {
	resp := &Response{Code: 215, Lines: []string{
		"misc.test 3002322 3000234 y",
		"broken line",
		"alt.control 10 2 =alt.correct",
	}}
	groups, err := ParseActive(resp)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "misc.test", groups[0].Name)
	assert.True(t, groups[1].IsAlias())
	assert.Equal(t, "alt.correct", groups[1].AliasTarget())
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate(&Response{Code: 111, Message: "20250623093012"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 23, 9, 30, 12, 0, time.UTC), got)
}

func TestParseModerators(t *testing.T) {
	resp := &Response{Code: 215, Lines: []string{
		"news.announce.*:%s@moderators.example.org",
		"no colon here",
	}}
	mods, err := ParseModerators(resp)
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.Equal(t, "news.announce.*", mods[0].Pattern)
	assert.Equal(t, "%s@moderators.example.org", mods[0].Template)
}

func TestParseCheck(t *testing.T) {
	status, id, err := ParseCheck(&Response{Code: 238, Message: "<a@b> send it"})
	require.NoError(t, err)
	assert.Equal(t, CheckSend, status)
	assert.Equal(t, "<a@b>", id)

	_, _, err = ParseCheck(&Response{Code: 480, Message: "auth required"})
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestRangeString(t *testing.T) {
	assert.Equal(t, "5", Single(5).String())
	assert.Equal(t, "5-10", Between(5, 10).String())
	assert.Equal(t, "5-", From(5).String())
	assert.Equal(t, "-10", UpTo(10).String())
	assert.Equal(t, "", Current().String())
}

func TestFormatMessageID(t *testing.T) {
	assert.Equal(t, "<a@b>", FormatMessageID("a@b"))
	assert.Equal(t, "<a@b>", FormatMessageID("<a@b>"))
}

func TestParseCapabilities(t *testing.T) {
	caps := ParseCapabilities([]string{
		"VERSION 2",
		"READER",
		"COMPRESS DEFLATE",
		"IMPLEMENTATION INN 2.7",
	})
	assert.True(t, caps.Has("reader"))
	assert.True(t, caps.HasArg("COMPRESS", "deflate"))
	assert.False(t, caps.Has("STREAMING"))
	assert.Equal(t, []string{"VERSION", "READER", "COMPRESS", "IMPLEMENTATION"}, caps.List())
}

func TestBuildNewNews(t *testing.T) {
	since := time.Date(2025, 6, 23, 9, 30, 12, 0, time.FixedZone("CEST", 2*3600))
	// Timestamps go out in UTC with an explicit GMT marker.
	assert.Equal(t, "NEWNEWS misc.* 20250623 073012 GMT\r\n", BuildNewNews("misc.*", since))
}

func TestParseStatusLine(t *testing.T) {
	t.Run("code and message", func(t *testing.T) {
		resp, err := ParseStatusLine("211 1234 3000234 3002322 misc.test")
		require.NoError(t, err)
		assert.Equal(t, 211, resp.Code)
		assert.Equal(t, "1234 3000234 3002322 misc.test", resp.Message)
	})

	t.Run("rejected lines", func(t *testing.T) {
		for _, line := range []string{
			"20 short",
			"2x0 junk",
			"012 leading zero",
			"600 out of range",
			"999 bogus",
			"200-no space",
		} {
			_, err := ParseStatusLine(line)
			var ierr *InvalidResponseError
			assert.ErrorAs(t, err, &ierr, "line %q", line)
		}
	})
}

func TestResponseClassification(t *testing.T) {
	assert.True(t, (&Response{Code: 111}).IsInformational())
	assert.True(t, (&Response{Code: 224}).IsSuccess())
	assert.True(t, (&Response{Code: 381}).IsContinuation())
	assert.True(t, (&Response{Code: 430}).IsError())
	assert.True(t, (&Response{Code: 502}).IsError())
}
