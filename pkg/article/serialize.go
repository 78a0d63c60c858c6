package article

import (
	"bytes"
	"strings"
)

// Serialize renders the article in wire form for POST and IHAVE:
// headers in canonical order, a blank separator line, the body with
// line endings normalized to CRLF and leading dots stuffed, and the
// final ".\r\n" terminator. The bytes go onto the socket verbatim after
// the server's 340/335 continuation.
func (a *Article) Serialize() []byte {
	var buf bytes.Buffer

	writeHeader := func(name, value string) {
		if value == "" {
			return
		}
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(value)
		buf.WriteString("\r\n")
	}

	writeHeader("Date", a.Date.UTC().Format(dateLayout))
	writeHeader("From", a.From)
	writeHeader("Newsgroups", strings.Join(a.Newsgroups, ","))
	writeHeader("Subject", a.Subject)
	writeHeader("Message-ID", a.MessageID)
	writeHeader("Path", a.Path)

	writeHeader("References", strings.Join(a.References, " "))
	writeHeader("Followup-To", strings.Join(a.FollowupTo, ","))
	writeHeader("Reply-To", a.ReplyTo)
	writeHeader("Organization", a.Organization)
	writeHeader("User-Agent", a.UserAgent)
	writeHeader("Approved", a.Approved)
	writeHeader("Expires", a.Expires)
	writeHeader("Keywords", a.Keywords)
	writeHeader("Summary", a.Summary)
	writeHeader("Distribution", a.Distribution)
	writeHeader("Supersedes", a.Supersedes)
	writeHeader("Control", a.Control)

	for _, name := range a.extraOrder {
		writeHeader(name, a.Extra[name])
	}

	buf.WriteString("\r\n")
	writeStuffedBody(&buf, a.Body)
	buf.WriteString(".\r\n")
	return buf.Bytes()
}

// writeStuffedBody normalizes line endings to CRLF and doubles a
// leading dot on every line. The body always ends with a line
// terminator so the closing dot sits on its own line.
func writeStuffedBody(buf *bytes.Buffer, body []byte) {
	if len(body) == 0 {
		return
	}
	for len(body) > 0 {
		line := body
		if i := bytes.IndexByte(body, '\n'); i >= 0 {
			line = body[:i]
			body = body[i+1:]
		} else {
			body = nil
		}
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) > 0 && line[0] == '.' {
			buf.WriteByte('.')
		}
		buf.Write(line)
		buf.WriteString("\r\n")
	}
}
