// Package article models Usenet articles: a validating builder, a
// serializer that produces wire-ready dot-stuffed bytes for POST and
// IHAVE, and a parser that maps raw article bytes back into typed
// headers with RFC 2047 encoded words decoded.
package article

import (
	"fmt"
	"strings"
	"time"
)

// Article is a fully built news article. Construct one through Builder;
// a zero Article is not postable.
type Article struct {
	// Canonical headers in serialization order.
	Date       time.Time
	From       string
	Newsgroups []string
	Subject    string
	MessageID  string
	Path       string

	// Optional standardized headers, empty when unset.
	References   []string
	FollowupTo   []string
	ReplyTo      string
	Organization string
	UserAgent    string
	Approved     string
	Expires      string
	Keywords     string
	Summary      string
	Distribution string
	Supersedes   string
	Control      string

	// Extra carries additional headers verbatim, keyed by their
	// canonical name. Serialization order over extras is the insertion
	// order recorded in extraOrder.
	Extra      map[string]string
	extraOrder []string

	// Body is the article text with either LF or CRLF line endings; the
	// serializer normalizes.
	Body []byte
}

// ValidationError reports why an article cannot be built.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("article: %s", e.Reason)
}

// ParseError reports a structurally broken raw article.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("article: parse: %s", e.Reason)
}

// HeaderValue returns the serialized value of a named header,
// case-insensitively, or "" when absent. List-valued headers come back
// comma-joined the way the serializer emits them.
func (a *Article) HeaderValue(name string) string {
	switch strings.ToLower(name) {
	case "date":
		if a.Date.IsZero() {
			return ""
		}
		return a.Date.UTC().Format(dateLayout)
	case "from":
		return a.From
	case "newsgroups":
		return strings.Join(a.Newsgroups, ",")
	case "subject":
		return a.Subject
	case "message-id":
		return a.MessageID
	case "path":
		return a.Path
	case "references":
		return strings.Join(a.References, " ")
	case "followup-to":
		return strings.Join(a.FollowupTo, ",")
	case "reply-to":
		return a.ReplyTo
	case "organization":
		return a.Organization
	case "user-agent":
		return a.UserAgent
	case "approved":
		return a.Approved
	case "expires":
		return a.Expires
	case "keywords":
		return a.Keywords
	case "summary":
		return a.Summary
	case "distribution":
		return a.Distribution
	case "supersedes":
		return a.Supersedes
	case "control":
		return a.Control
	}
	for k, v := range a.Extra {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
