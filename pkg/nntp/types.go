package nntp

import (
	"fmt"
	"strconv"
	"strings"
)

// Group is the result of a GROUP command: the estimated article count and
// the low/high water marks of the selected newsgroup.
type Group struct {
	Name  string
	Count int64
	First int64
	Last  int64
}

// GroupInfo is one line of LIST ACTIVE or NEWGROUPS output. Status is a
// single character ("y", "n", "m", "j", "x") or an alias of the form
// "=other.group"; alias targets are preserved verbatim.
type GroupInfo struct {
	Name   string
	High   int64
	Low    int64
	Status string
}

// IsAlias reports whether the group status points at another group.
func (g GroupInfo) IsAlias() bool {
	return strings.HasPrefix(g.Status, "=")
}

// AliasTarget returns the group this entry is an alias of, or "" when the
// status is a plain flag.
func (g GroupInfo) AliasTarget() string {
	if !g.IsAlias() {
		return ""
	}
	return g.Status[1:]
}

// OverviewEntry is one row of OVER/XOVER output: the eight standard
// fields. Servers may append extra tab-separated metadata fields; those
// are ignored.
type OverviewEntry struct {
	Number     int64
	Subject    string
	From       string
	Date       string
	MessageID  string
	References string
	Bytes      int64
	Lines      int64
}

// HeaderEntry is one row of HDR/XHDR output.
type HeaderEntry struct {
	Number int64
	Value  string
}

// Stat is the result of STAT, NEXT, or LAST: the article number in the
// current group and the message-id.
type Stat struct {
	Number    int64
	MessageID string
}

// NewsgroupDescription is one row of LIST NEWSGROUPS output.
type NewsgroupDescription struct {
	Name        string
	Description string
}

// ActiveTime is one row of LIST ACTIVE.TIMES output: when a group was
// created and by whom.
type ActiveTime struct {
	Name    string
	Created int64 // seconds since the epoch, as reported by the server
	Creator string
}

// GroupCounts is one row of LIST COUNTS output: LIST ACTIVE plus an
// article count.
type GroupCounts struct {
	Name   string
	Count  int64
	Low    int64
	High   int64
	Status string
}

// Distribution is one row of LIST DISTRIBUTIONS output.
type Distribution struct {
	Name        string
	Description string
}

// Moderator is one row of LIST MODERATORS output: a wildmat matched
// against group names and a submission address template where "%s" stands
// for the group name with dots replaced by dashes.
type Moderator struct {
	Pattern  string
	Template string
}

// CheckStatus is the server's verdict on a streaming CHECK command.
type CheckStatus int

const (
	// CheckSend means the server wants the article (238).
	CheckSend CheckStatus = iota
	// CheckLater means the server cannot decide now; retry later (431).
	CheckLater
	// CheckNotWanted means the server refuses the article (438).
	CheckNotWanted
)

func (s CheckStatus) String() string {
	switch s {
	case CheckSend:
		return "send"
	case CheckLater:
		return "later"
	case CheckNotWanted:
		return "not-wanted"
	default:
		return "unknown"
	}
}

// Range selects articles for OVER, HDR, and LISTGROUP. The zero value
// means "current article" (no argument on the wire).
type Range struct {
	first, last int64
	hasFirst    bool
	hasLast     bool
	isRange     bool
}

// Single selects exactly one article number.
func Single(n int64) Range {
	return Range{first: n, hasFirst: true}
}

// Between selects the closed range first-last.
func Between(first, last int64) Range {
	return Range{first: first, last: last, hasFirst: true, hasLast: true, isRange: true}
}

// From selects the open range "first-".
func From(first int64) Range {
	return Range{first: first, hasFirst: true, isRange: true}
}

// UpTo selects the upper-bounded range "-last".
func UpTo(last int64) Range {
	return Range{last: last, hasLast: true, isRange: true}
}

// Current selects the server's current article (empty argument).
func Current() Range {
	return Range{}
}

// String renders the range in wire form; empty for Current.
func (r Range) String() string {
	switch {
	case !r.hasFirst && !r.hasLast:
		return ""
	case !r.isRange:
		return strconv.FormatInt(r.first, 10)
	case r.hasFirst && r.hasLast:
		return fmt.Sprintf("%d-%d", r.first, r.last)
	case r.hasFirst:
		return strconv.FormatInt(r.first, 10) + "-"
	default:
		return "-" + strconv.FormatInt(r.last, 10)
	}
}

// FormatMessageID wraps a message-id in angle brackets unless it already
// has them. Segment ids from NZB indexes usually arrive bare.
func FormatMessageID(id string) string {
	s := strings.TrimSpace(id)
	if len(s) >= 2 && s[0] == '<' && s[len(s)-1] == '>' {
		return s
	}
	return "<" + s + ">"
}
