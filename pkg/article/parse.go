package article

import (
	"bytes"
	"strings"
	"time"
)

// Parse maps raw article bytes (as returned by ARTICLE, or produced by
// Serialize) back into an Article. Folded headers are unfolded, known
// names map case-insensitively into typed fields, and encoded words in
// text-bearing headers are decoded. The trailing ".\r\n" terminator, if
// still present, is dropped.
func Parse(raw []byte) (*Article, error) {
	headerBytes, body, err := splitHeadersBody(raw)
	if err != nil {
		return nil, err
	}

	a := &Article{Body: body}
	for _, h := range unfoldHeaders(headerBytes) {
		name, value, found := strings.Cut(h, ":")
		if !found {
			// A header line without a colon; tolerated and skipped the
			// way news readers do.
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		a.setHeader(name, value)
	}
	return a, nil
}

// splitHeadersBody separates the header block from the body on the
// first blank line. A trailing ".\r\n" terminator marks the body as
// wire form, still carrying stuffed dots; it is stripped and the body
// unstuffed. Bodies without the terminator (as delivered by the read
// layer) arrive already unstuffed and pass through untouched.
func splitHeadersBody(raw []byte) ([]byte, []byte, error) {
	sep := []byte("\r\n\r\n")
	i := bytes.Index(raw, sep)
	if i < 0 {
		sep = []byte("\n\n")
		i = bytes.Index(raw, sep)
	}
	if i < 0 {
		// Headers only is legal (HEAD output, body-less articles).
		if len(raw) == 0 {
			return nil, nil, &ParseError{Reason: "empty article"}
		}
		return raw, nil, nil
	}
	body := raw[i+len(sep):]
	if trimmed := bytes.TrimSuffix(body, []byte(".\r\n")); len(trimmed) != len(body) {
		return raw[:i], unstuffBody(trimmed), nil
	}
	return raw[:i], body, nil
}

// unstuffBody removes one leading dot from every ".."-prefixed line,
// the inverse of the stuffing applied by Serialize. Applied only to
// wire-form bodies so unstuffing happens exactly once.
func unstuffBody(body []byte) []byte {
	if !bytes.Contains(body, []byte("..")) {
		return body
	}
	lines := bytes.Split(body, []byte("\r\n"))
	for i, line := range lines {
		if bytes.HasPrefix(line, []byte("..")) {
			lines[i] = line[1:]
		}
	}
	return bytes.Join(lines, []byte("\r\n"))
}

// unfoldHeaders splits the header block into logical lines, joining
// continuation lines (leading space or tab) onto their predecessor.
func unfoldHeaders(block []byte) []string {
	var out []string
	for _, line := range strings.Split(string(block), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && len(out) > 0 {
			out[len(out)-1] += " " + strings.TrimLeft(line, " \t")
			continue
		}
		out = append(out, line)
	}
	return out
}

// setHeader routes one unfolded header into its typed field. Unknown
// names land in Extra preserving arrival order.
func (a *Article) setHeader(name, value string) {
	switch strings.ToLower(name) {
	case "date":
		if t, err := time.Parse(dateLayout, value); err == nil {
			a.Date = t
		} else if t, err := time.Parse(time.RFC1123Z, value); err == nil {
			a.Date = t
		} else if t, err := time.Parse(time.RFC1123, value); err == nil {
			a.Date = t
		}
	case "from":
		a.From = DecodeHeader(value)
	case "newsgroups":
		a.Newsgroups = splitList(value, ",")
	case "subject":
		a.Subject = DecodeHeader(value)
	case "message-id":
		a.MessageID = value
	case "path":
		a.Path = value
	case "references":
		a.References = splitList(value, " ")
	case "followup-to":
		a.FollowupTo = splitList(value, ",")
	case "reply-to":
		a.ReplyTo = DecodeHeader(value)
	case "organization":
		a.Organization = DecodeHeader(value)
	case "user-agent":
		a.UserAgent = value
	case "approved":
		a.Approved = value
	case "expires":
		a.Expires = value
	case "keywords":
		a.Keywords = DecodeHeader(value)
	case "summary":
		a.Summary = DecodeHeader(value)
	case "distribution":
		a.Distribution = value
	case "supersedes":
		a.Supersedes = value
	case "control":
		a.Control = value
	default:
		if a.Extra == nil {
			a.Extra = make(map[string]string)
		}
		if _, seen := a.Extra[name]; !seen {
			a.extraOrder = append(a.extraOrder, name)
		}
		a.Extra[name] = value
	}
}

// splitList splits a header value on sep, trimming whitespace and
// dropping empty items.
func splitList(value, sep string) []string {
	var out []string
	fields := strings.Split(value, sep)
	if sep == " " {
		fields = strings.Fields(value)
	}
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
