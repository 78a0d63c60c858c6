package nntp

import (
	"strconv"
	"strings"
	"time"
)

// Response parsers. Parsing policy follows two tiers: list-family bodies
// are parsed defensively (malformed rows are skipped, numeric fields
// default to zero), while structural shapes the protocol guarantees
// (status lines, the GROUP triple, the overview field count) are strict
// and fail the whole call.

// ParseGroup parses a GROUP response into the count and low/high water
// marks. name is the group the caller asked for; a 411 maps to
// NoSuchGroupError.
func ParseGroup(resp *Response, name string) (*Group, error) {
	if resp.Code != CodeGroupSelected {
		return nil, responseError(resp, name)
	}
	fields := strings.Fields(resp.Message)
	if len(fields) < 3 {
		return nil, &InvalidResponseError{Reason: "GROUP response missing counts", Line: resp.Message}
	}
	count, err1 := strconv.ParseInt(fields[0], 10, 64)
	first, err2 := strconv.ParseInt(fields[1], 10, 64)
	last, err3 := strconv.ParseInt(fields[2], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil, &InvalidResponseError{Reason: "GROUP response counts not numeric", Line: resp.Message}
	}
	g := &Group{Name: name, Count: count, First: first, Last: last}
	if len(fields) >= 4 {
		g.Name = fields[3]
	}
	return g, nil
}

// ParseListGroup parses a LISTGROUP body into article numbers. Lines
// that do not parse as numbers are skipped.
func ParseListGroup(resp *Response, name string) ([]int64, error) {
	if resp.Code != CodeGroupSelected {
		return nil, responseError(resp, name)
	}
	var numbers []int64
	for _, line := range resp.Lines {
		n, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
		if err != nil {
			continue
		}
		numbers = append(numbers, n)
	}
	return numbers, nil
}

// ParseStat parses the 223 reply shared by STAT, NEXT, and LAST:
// "<number> <message-id>" with an optional trailing comment.
func ParseStat(resp *Response, spec string) (*Stat, error) {
	if resp.Code != CodeArticleExists {
		return nil, responseError(resp, spec)
	}
	fields := strings.Fields(resp.Message)
	if len(fields) < 2 {
		return nil, &InvalidResponseError{Reason: "STAT response missing message-id", Line: resp.Message}
	}
	n, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return nil, &InvalidResponseError{Reason: "STAT article number not numeric", Line: resp.Message}
	}
	return &Stat{Number: n, MessageID: fields[1]}, nil
}

// parseOverviewLine splits one OVER/XOVER row on TAB into the eight
// standard fields. Fewer than eight fields is a structural error; extra
// trailing fields are server metadata and are ignored. Numeric fields
// that fail to parse default to zero.
func parseOverviewLine(line string) (OverviewEntry, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return OverviewEntry{}, &InvalidResponseError{Reason: "overview row has fewer than 8 fields", Line: line}
	}
	number, _ := strconv.ParseInt(fields[0], 10, 64)
	bytes, _ := strconv.ParseInt(fields[6], 10, 64)
	lines, _ := strconv.ParseInt(fields[7], 10, 64)
	return OverviewEntry{
		Number:     number,
		Subject:    fields[1],
		From:       fields[2],
		Date:       fields[3],
		MessageID:  fields[4],
		References: fields[5],
		Bytes:      bytes,
		Lines:      lines,
	}, nil
}

// ParseOverview parses an OVER/XOVER response body.
func ParseOverview(resp *Response) ([]OverviewEntry, error) {
	if resp.Code != CodeOverviewFollows {
		return nil, responseError(resp, "")
	}
	entries := make([]OverviewEntry, 0, len(resp.Lines))
	for _, line := range resp.Lines {
		entry, err := parseOverviewLine(line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ParseHdr parses an HDR (225) or legacy XHDR (221) body into
// (article number, value) rows, skipping malformed lines.
func ParseHdr(resp *Response) ([]HeaderEntry, error) {
	if resp.Code != CodeHeadersFollow && resp.Code != CodeHeadFollows {
		return nil, responseError(resp, "")
	}
	var entries []HeaderEntry
	for _, line := range resp.Lines {
		parts := strings.SplitN(line, " ", 2)
		n, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			continue
		}
		value := ""
		if len(parts) == 2 {
			value = parts[1]
		}
		entries = append(entries, HeaderEntry{Number: n, Value: value})
	}
	return entries, nil
}

// parseActiveLine parses "name high low status". Returns false for rows
// that do not fit the shape.
func parseActiveLine(line string) (GroupInfo, bool) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return GroupInfo{}, false
	}
	high, err1 := strconv.ParseInt(fields[1], 10, 64)
	low, err2 := strconv.ParseInt(fields[2], 10, 64)
	if err1 != nil || err2 != nil {
		return GroupInfo{}, false
	}
	return GroupInfo{Name: fields[0], High: high, Low: low, Status: fields[3]}, true
}

// ParseActive parses a LIST ACTIVE body, skipping malformed rows.
func ParseActive(resp *Response) ([]GroupInfo, error) {
	if resp.Code != CodeInformationFollows {
		return nil, responseError(resp, "")
	}
	var groups []GroupInfo
	for _, line := range resp.Lines {
		if g, ok := parseActiveLine(line); ok {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

// ParseNewGroups parses a NEWGROUPS body; rows share the LIST ACTIVE
// shape.
func ParseNewGroups(resp *Response) ([]GroupInfo, error) {
	if resp.Code != CodeNewGroupsFollow {
		return nil, responseError(resp, "")
	}
	var groups []GroupInfo
	for _, line := range resp.Lines {
		if g, ok := parseActiveLine(line); ok {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

// ParseNewNews parses a NEWNEWS body into message-ids.
func ParseNewNews(resp *Response) ([]string, error) {
	if resp.Code != CodeNewArticlesFollow {
		return nil, responseError(resp, "")
	}
	ids := make([]string, 0, len(resp.Lines))
	for _, line := range resp.Lines {
		line = strings.TrimSpace(line)
		if line != "" {
			ids = append(ids, line)
		}
	}
	return ids, nil
}

// ParseNewsgroups parses a LIST NEWSGROUPS body: group name followed by a
// free-form description.
func ParseNewsgroups(resp *Response) ([]NewsgroupDescription, error) {
	if resp.Code != CodeInformationFollows {
		return nil, responseError(resp, "")
	}
	var out []NewsgroupDescription
	for _, line := range resp.Lines {
		name, desc, ok := splitNameRest(line)
		if !ok {
			continue
		}
		out = append(out, NewsgroupDescription{Name: name, Description: desc})
	}
	return out, nil
}

// splitNameRest splits a line into its first whitespace-delimited token
// and the remainder with surrounding whitespace trimmed.
func splitNameRest(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", false
	}
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, "", true
	}
	return line[:i], strings.TrimSpace(line[i:]), true
}

// ParseOverviewFmt parses a LIST OVERVIEW.FMT body: the ordered field
// names of the server's overview database.
func ParseOverviewFmt(resp *Response) ([]string, error) {
	if resp.Code != CodeInformationFollows {
		return nil, responseError(resp, "")
	}
	fields := make([]string, len(resp.Lines))
	copy(fields, resp.Lines)
	return fields, nil
}

// ParseListHeaders parses a LIST HEADERS body: the header names the
// server can serve through HDR.
func ParseListHeaders(resp *Response) ([]string, error) {
	if resp.Code != CodeInformationFollows {
		return nil, responseError(resp, "")
	}
	headers := make([]string, len(resp.Lines))
	copy(headers, resp.Lines)
	return headers, nil
}

// ParseActiveTimes parses a LIST ACTIVE.TIMES body: group, creation time
// in epoch seconds, creator. Malformed rows are skipped.
func ParseActiveTimes(resp *Response) ([]ActiveTime, error) {
	if resp.Code != CodeInformationFollows {
		return nil, responseError(resp, "")
	}
	var out []ActiveTime
	for _, line := range resp.Lines {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		created, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		out = append(out, ActiveTime{Name: fields[0], Created: created, Creator: fields[2]})
	}
	return out, nil
}

// ParseCounts parses a LIST COUNTS body: group, count, low, high,
// status. Malformed rows are skipped.
func ParseCounts(resp *Response) ([]GroupCounts, error) {
	if resp.Code != CodeInformationFollows {
		return nil, responseError(resp, "")
	}
	var out []GroupCounts
	for _, line := range resp.Lines {
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		count, err1 := strconv.ParseInt(fields[1], 10, 64)
		low, err2 := strconv.ParseInt(fields[2], 10, 64)
		high, err3 := strconv.ParseInt(fields[3], 10, 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		out = append(out, GroupCounts{Name: fields[0], Count: count, Low: low, High: high, Status: fields[4]})
	}
	return out, nil
}

// ParseDistributions parses a LIST DISTRIBUTIONS body.
func ParseDistributions(resp *Response) ([]Distribution, error) {
	if resp.Code != CodeInformationFollows {
		return nil, responseError(resp, "")
	}
	var out []Distribution
	for _, line := range resp.Lines {
		name, desc, ok := splitNameRest(line)
		if !ok {
			continue
		}
		out = append(out, Distribution{Name: name, Description: desc})
	}
	return out, nil
}

// ParseModerators parses a LIST MODERATORS body: wildmat and submission
// template separated by a colon. Malformed rows are skipped.
func ParseModerators(resp *Response) ([]Moderator, error) {
	if resp.Code != CodeInformationFollows {
		return nil, responseError(resp, "")
	}
	var out []Moderator
	for _, line := range resp.Lines {
		pattern, template, found := strings.Cut(line, ":")
		if !found || pattern == "" {
			continue
		}
		out = append(out, Moderator{Pattern: pattern, Template: template})
	}
	return out, nil
}

// ParseMotd parses a LIST MOTD body; the message lines pass through
// verbatim.
func ParseMotd(resp *Response) ([]string, error) {
	if resp.Code != CodeInformationFollows {
		return nil, responseError(resp, "")
	}
	lines := make([]string, len(resp.Lines))
	copy(lines, resp.Lines)
	return lines, nil
}

// ParseSubscriptions parses a LIST SUBSCRIPTIONS body: the server's
// recommended default subscription list.
func ParseSubscriptions(resp *Response) ([]string, error) {
	if resp.Code != CodeInformationFollows {
		return nil, responseError(resp, "")
	}
	var groups []string
	for _, line := range resp.Lines {
		line = strings.TrimSpace(line)
		if line != "" {
			groups = append(groups, line)
		}
	}
	return groups, nil
}

// ParseDate parses a DATE response ("111 yyyymmddhhmmss") into UTC time.
func ParseDate(resp *Response) (time.Time, error) {
	if resp.Code != CodeDate {
		return time.Time{}, responseError(resp, "")
	}
	t, err := time.Parse("20060102150405", strings.TrimSpace(resp.Message))
	if err != nil {
		return time.Time{}, &InvalidResponseError{Reason: "DATE not parseable", Line: resp.Message}
	}
	return t.UTC(), nil
}

// ParseCheck parses a streaming CHECK reply. The returned message-id is
// the one echoed by the server, which lets pipelined responses be
// correlated out of arrival order.
func ParseCheck(resp *Response) (CheckStatus, string, error) {
	echoed := firstField(resp.Message)
	switch resp.Code {
	case CodeCheckSend:
		return CheckSend, echoed, nil
	case CodeCheckLater:
		return CheckLater, echoed, nil
	case CodeCheckNotWanted:
		return CheckNotWanted, echoed, nil
	default:
		return 0, "", responseError(resp, echoed)
	}
}

// ParseTakeThis parses a TAKETHIS reply: accepted (239) or rejected
// (439), with the echoed message-id.
func ParseTakeThis(resp *Response) (bool, string, error) {
	echoed := firstField(resp.Message)
	switch resp.Code {
	case CodeTakeThisOK:
		return true, echoed, nil
	case CodeTakeThisRejected:
		return false, echoed, nil
	default:
		return false, "", responseError(resp, echoed)
	}
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
