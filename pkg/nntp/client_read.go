package nntp

import (
	"context"
	"strconv"
	"time"
)

// Capabilities queries and caches the server's capability set. The cache
// lives until compression is negotiated, which may change what the
// server advertises.
func (c *Conn) Capabilities(ctx context.Context) (*Capabilities, error) {
	if c.caps != nil {
		return c.caps, nil
	}
	resp, err := c.execMultiline(ctx, BuildCapabilities(), CodeCapabilitiesFollow)
	if err != nil {
		return nil, err
	}
	if resp.Code != CodeCapabilitiesFollow {
		return nil, responseError(resp, "")
	}
	c.caps = ParseCapabilities(resp.Lines)
	return c.caps, nil
}

// ModeReader switches a mode-switching server to reader mode. Returns
// whether posting is allowed in the new mode.
func (c *Conn) ModeReader(ctx context.Context) (bool, error) {
	resp, err := c.roundTrip(ctx, BuildModeReader())
	if err != nil {
		return false, err
	}
	switch resp.Code {
	case CodeReadyPostingAllowed:
		c.postingAllowed = true
		return true, nil
	case CodeReadyNoPosting:
		c.postingAllowed = false
		return false, nil
	default:
		return false, responseError(resp, "")
	}
}

// Group selects a newsgroup and caches its name for subsequent
// number-based commands.
func (c *Conn) Group(ctx context.Context, name string) (*Group, error) {
	resp, err := c.roundTrip(ctx, BuildGroup(name))
	if err != nil {
		return nil, err
	}
	g, err := ParseGroup(resp, name)
	if err != nil {
		return nil, err
	}
	c.group = g.Name
	return g, nil
}

// ListGroup selects a newsgroup and returns the article numbers in the
// given range. An empty name lists the current group.
func (c *Conn) ListGroup(ctx context.Context, name string, r Range) ([]int64, error) {
	resp, err := c.execMultiline(ctx, BuildListGroup(name, r), CodeGroupSelected)
	if err != nil {
		return nil, err
	}
	numbers, err := ParseListGroup(resp, name)
	if err != nil {
		return nil, err
	}
	if name != "" {
		c.group = name
	}
	return numbers, nil
}

// requireGroup fast-fails number-based commands when no group is
// selected, without touching the wire.
func (c *Conn) requireGroup() error {
	if c.group == "" {
		return ErrNoGroupSelected
	}
	return nil
}

// fetch runs one of ARTICLE/HEAD/BODY and returns the raw dot-unstuffed
// payload with CRLF line endings.
func (c *Conn) fetch(ctx context.Context, cmd string, successCode int, spec string) ([]byte, error) {
	resp, body, err := c.execBinary(ctx, cmd, successCode)
	if err != nil {
		return nil, err
	}
	if resp.Code != successCode {
		return nil, responseError(resp, spec)
	}
	return body, nil
}

// Article retrieves a full article (headers and body) by message-id.
func (c *Conn) Article(ctx context.Context, messageID string) ([]byte, error) {
	spec := FormatMessageID(messageID)
	return c.fetch(ctx, BuildArticle(spec), CodeArticleFollows, spec)
}

// ArticleByNumber retrieves an article by number in the selected group.
func (c *Conn) ArticleByNumber(ctx context.Context, number int64) ([]byte, error) {
	if err := c.requireGroup(); err != nil {
		return nil, err
	}
	spec := strconv.FormatInt(number, 10)
	return c.fetch(ctx, BuildArticle(spec), CodeArticleFollows, spec)
}

// Head retrieves an article's headers by message-id.
func (c *Conn) Head(ctx context.Context, messageID string) ([]byte, error) {
	spec := FormatMessageID(messageID)
	return c.fetch(ctx, BuildHead(spec), CodeHeadFollows, spec)
}

// HeadByNumber retrieves headers by number in the selected group.
func (c *Conn) HeadByNumber(ctx context.Context, number int64) ([]byte, error) {
	if err := c.requireGroup(); err != nil {
		return nil, err
	}
	spec := strconv.FormatInt(number, 10)
	return c.fetch(ctx, BuildHead(spec), CodeHeadFollows, spec)
}

// Body retrieves an article body by message-id.
func (c *Conn) Body(ctx context.Context, messageID string) ([]byte, error) {
	spec := FormatMessageID(messageID)
	return c.fetch(ctx, BuildBody(spec), CodeBodyFollows, spec)
}

// BodyByNumber retrieves an article body by number in the selected group.
func (c *Conn) BodyByNumber(ctx context.Context, number int64) ([]byte, error) {
	if err := c.requireGroup(); err != nil {
		return nil, err
	}
	spec := strconv.FormatInt(number, 10)
	return c.fetch(ctx, BuildBody(spec), CodeBodyFollows, spec)
}

// Stat checks an article's existence by message-id. No group selection
// is required.
func (c *Conn) Stat(ctx context.Context, messageID string) (*Stat, error) {
	spec := FormatMessageID(messageID)
	resp, err := c.roundTrip(ctx, BuildStat(spec))
	if err != nil {
		return nil, err
	}
	return ParseStat(resp, spec)
}

// StatByNumber checks an article by number in the selected group.
func (c *Conn) StatByNumber(ctx context.Context, number int64) (*Stat, error) {
	if err := c.requireGroup(); err != nil {
		return nil, err
	}
	spec := strconv.FormatInt(number, 10)
	resp, err := c.roundTrip(ctx, BuildStat(spec))
	if err != nil {
		return nil, err
	}
	return ParseStat(resp, spec)
}

// Next advances the server's current-article cursor.
func (c *Conn) Next(ctx context.Context) (*Stat, error) {
	if err := c.requireGroup(); err != nil {
		return nil, err
	}
	resp, err := c.roundTrip(ctx, BuildNext())
	if err != nil {
		return nil, err
	}
	return ParseStat(resp, "")
}

// Last moves the server's current-article cursor backwards.
func (c *Conn) Last(ctx context.Context) (*Stat, error) {
	if err := c.requireGroup(); err != nil {
		return nil, err
	}
	resp, err := c.roundTrip(ctx, BuildLast())
	if err != nil {
		return nil, err
	}
	return ParseStat(resp, "")
}

// Over fetches overview rows for the given range. Servers predating
// RFC 3977 only know XOVER; a 500 answer falls back to it transparently.
func (c *Conn) Over(ctx context.Context, r Range) ([]OverviewEntry, error) {
	if r.String() != "" {
		if err := c.requireGroup(); err != nil {
			return nil, err
		}
	}
	resp, err := c.execMultiline(ctx, BuildOver(r), CodeOverviewFollows)
	if err != nil {
		return nil, err
	}
	if resp.Code == CodeUnknownCommand {
		return c.XOver(ctx, r)
	}
	return ParseOverview(resp)
}

// XOver is the pre-standard spelling of Over.
func (c *Conn) XOver(ctx context.Context, r Range) ([]OverviewEntry, error) {
	if r.String() != "" {
		if err := c.requireGroup(); err != nil {
			return nil, err
		}
	}
	resp, err := c.execMultiline(ctx, BuildXOver(r), CodeOverviewFollows)
	if err != nil {
		return nil, err
	}
	return ParseOverview(resp)
}

// Hdr fetches one header field across a range of articles.
func (c *Conn) Hdr(ctx context.Context, field string, r Range) ([]HeaderEntry, error) {
	if r.String() != "" {
		if err := c.requireGroup(); err != nil {
			return nil, err
		}
	}
	resp, err := c.execMultiline(ctx, BuildHdr(field, r), CodeHeadersFollow)
	if err != nil {
		return nil, err
	}
	return ParseHdr(resp)
}

// XHdr is the pre-standard spelling of Hdr; servers answer it with 221.
func (c *Conn) XHdr(ctx context.Context, field string, r Range) ([]HeaderEntry, error) {
	if r.String() != "" {
		if err := c.requireGroup(); err != nil {
			return nil, err
		}
	}
	resp, err := c.execMultiline(ctx, BuildXHdr(field, r), CodeHeadFollows)
	if err != nil {
		return nil, err
	}
	return ParseHdr(resp)
}

// ListActive lists groups matching the wildmat ("" for all).
func (c *Conn) ListActive(ctx context.Context, wildmat string) ([]GroupInfo, error) {
	resp, err := c.execMultiline(ctx, BuildListActive(wildmat), CodeInformationFollows)
	if err != nil {
		return nil, err
	}
	return ParseActive(resp)
}

// ListNewsgroups lists group descriptions matching the wildmat.
func (c *Conn) ListNewsgroups(ctx context.Context, wildmat string) ([]NewsgroupDescription, error) {
	resp, err := c.execMultiline(ctx, BuildListNewsgroups(wildmat), CodeInformationFollows)
	if err != nil {
		return nil, err
	}
	return ParseNewsgroups(resp)
}

// ListOverviewFmt returns the server's overview field order.
func (c *Conn) ListOverviewFmt(ctx context.Context) ([]string, error) {
	resp, err := c.execMultiline(ctx, BuildListOverviewFmt(), CodeInformationFollows)
	if err != nil {
		return nil, err
	}
	return ParseOverviewFmt(resp)
}

// ListHeaders returns the header names available through HDR. arg may be
// "MSGID", "RANGE", or empty.
func (c *Conn) ListHeaders(ctx context.Context, arg string) ([]string, error) {
	resp, err := c.execMultiline(ctx, BuildListHeaders(arg), CodeInformationFollows)
	if err != nil {
		return nil, err
	}
	return ParseListHeaders(resp)
}

// ListActiveTimes returns group creation records matching the wildmat.
func (c *Conn) ListActiveTimes(ctx context.Context, wildmat string) ([]ActiveTime, error) {
	resp, err := c.execMultiline(ctx, BuildListActiveTimes(wildmat), CodeInformationFollows)
	if err != nil {
		return nil, err
	}
	return ParseActiveTimes(resp)
}

// ListCounts returns LIST COUNTS rows matching the wildmat.
func (c *Conn) ListCounts(ctx context.Context, wildmat string) ([]GroupCounts, error) {
	resp, err := c.execMultiline(ctx, BuildListCounts(wildmat), CodeInformationFollows)
	if err != nil {
		return nil, err
	}
	return ParseCounts(resp)
}

// ListDistributions returns the server's distribution catalogue.
func (c *Conn) ListDistributions(ctx context.Context) ([]Distribution, error) {
	resp, err := c.execMultiline(ctx, BuildListDistributions(), CodeInformationFollows)
	if err != nil {
		return nil, err
	}
	return ParseDistributions(resp)
}

// ListModerators returns the moderator submission templates.
func (c *Conn) ListModerators(ctx context.Context) ([]Moderator, error) {
	resp, err := c.execMultiline(ctx, BuildListModerators(), CodeInformationFollows)
	if err != nil {
		return nil, err
	}
	return ParseModerators(resp)
}

// ListMotd returns the server's message of the day.
func (c *Conn) ListMotd(ctx context.Context) ([]string, error) {
	resp, err := c.execMultiline(ctx, BuildListMotd(), CodeInformationFollows)
	if err != nil {
		return nil, err
	}
	return ParseMotd(resp)
}

// ListSubscriptions returns the recommended default subscriptions.
func (c *Conn) ListSubscriptions(ctx context.Context) ([]string, error) {
	resp, err := c.execMultiline(ctx, BuildListSubscriptions(), CodeInformationFollows)
	if err != nil {
		return nil, err
	}
	return ParseSubscriptions(resp)
}

// NewGroups lists groups created since the given time.
func (c *Conn) NewGroups(ctx context.Context, since time.Time) ([]GroupInfo, error) {
	resp, err := c.execMultiline(ctx, BuildNewGroups(since), CodeNewGroupsFollow)
	if err != nil {
		return nil, err
	}
	return ParseNewGroups(resp)
}

// NewNews lists message-ids posted to matching groups since the given
// time.
func (c *Conn) NewNews(ctx context.Context, wildmat string, since time.Time) ([]string, error) {
	resp, err := c.execMultiline(ctx, BuildNewNews(wildmat, since), CodeNewArticlesFollow)
	if err != nil {
		return nil, err
	}
	return ParseNewNews(resp)
}

// Date returns the server's clock in UTC.
func (c *Conn) Date(ctx context.Context) (time.Time, error) {
	resp, err := c.roundTrip(ctx, BuildDate())
	if err != nil {
		return time.Time{}, err
	}
	return ParseDate(resp)
}

// Help returns the server's help text lines.
func (c *Conn) Help(ctx context.Context) ([]string, error) {
	resp, err := c.execMultiline(ctx, BuildHelp(), CodeHelpFollows)
	if err != nil {
		return nil, err
	}
	if resp.Code != CodeHelpFollows {
		return nil, responseError(resp, "")
	}
	return resp.Lines, nil
}
