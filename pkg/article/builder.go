package article

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// dateLayout is the RFC 5322 date format used on the Date header.
const dateLayout = "Mon, 02 Jan 2006 15:04:05 -0700"

// Builder assembles an Article step by step. Zero value is usable; all
// setters return the builder for chaining. Build validates and fills
// defaults without mutating the builder, so one builder can produce
// several articles.
type Builder struct {
	a Article
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder { return &Builder{} }

// From sets the required From header ("Display Name <user@host>").
func (b *Builder) From(from string) *Builder {
	b.a.From = from
	return b
}

// Subject sets the required Subject header.
func (b *Builder) Subject(subject string) *Builder {
	b.a.Subject = subject
	return b
}

// Newsgroup appends one target group. At least one is required.
func (b *Builder) Newsgroup(group string) *Builder {
	b.a.Newsgroups = append(b.a.Newsgroups, group)
	return b
}

// Newsgroups replaces the target group list.
func (b *Builder) Newsgroups(groups ...string) *Builder {
	b.a.Newsgroups = append([]string(nil), groups...)
	return b
}

// Date overrides the default posting date (now, UTC).
func (b *Builder) Date(t time.Time) *Builder {
	b.a.Date = t
	return b
}

// MessageID overrides the generated message-id. Angle brackets are
// added if missing.
func (b *Builder) MessageID(id string) *Builder {
	if id != "" && !strings.HasPrefix(id, "<") {
		id = "<" + id + ">"
	}
	b.a.MessageID = id
	return b
}

// Path overrides the default "not-for-mail" Path header.
func (b *Builder) Path(path string) *Builder {
	b.a.Path = path
	return b
}

// References sets the ordered thread ancestry.
func (b *Builder) References(ids ...string) *Builder {
	b.a.References = append([]string(nil), ids...)
	return b
}

// FollowupTo sets the groups follow-ups should go to.
func (b *Builder) FollowupTo(groups ...string) *Builder {
	b.a.FollowupTo = append([]string(nil), groups...)
	return b
}

func (b *Builder) ReplyTo(addr string) *Builder      { b.a.ReplyTo = addr; return b }
func (b *Builder) Organization(org string) *Builder  { b.a.Organization = org; return b }
func (b *Builder) UserAgent(ua string) *Builder      { b.a.UserAgent = ua; return b }
func (b *Builder) Approved(approved string) *Builder { b.a.Approved = approved; return b }
func (b *Builder) Expires(expires string) *Builder   { b.a.Expires = expires; return b }
func (b *Builder) Keywords(keywords string) *Builder { b.a.Keywords = keywords; return b }
func (b *Builder) Summary(summary string) *Builder   { b.a.Summary = summary; return b }
func (b *Builder) Distribution(dist string) *Builder { b.a.Distribution = dist; return b }

// Supersedes marks the article as replacing an earlier one. Mutually
// exclusive with Control.
func (b *Builder) Supersedes(id string) *Builder {
	b.a.Supersedes = id
	return b
}

// Control marks the article as a control message. Mutually exclusive
// with Supersedes.
func (b *Builder) Control(cmd string) *Builder {
	b.a.Control = cmd
	return b
}

// Header adds an arbitrary extra header. Known canonical headers should
// use their dedicated setters so they serialize in canonical order.
func (b *Builder) Header(name, value string) *Builder {
	if b.a.Extra == nil {
		b.a.Extra = make(map[string]string)
	}
	if _, seen := b.a.Extra[name]; !seen {
		b.a.extraOrder = append(b.a.extraOrder, name)
	}
	b.a.Extra[name] = value
	return b
}

// Body sets the article body. LF line endings are accepted; the
// serializer normalizes to CRLF.
func (b *Builder) Body(body []byte) *Builder {
	b.a.Body = body
	return b
}

// Build validates the article and fills defaults: Date (current UTC),
// Message-ID (UUID v4 at the sender's domain), and Path
// ("not-for-mail").
func (b *Builder) Build() (*Article, error) {
	if b.a.From == "" {
		return nil, &ValidationError{Reason: "From is required"}
	}
	if b.a.Subject == "" {
		return nil, &ValidationError{Reason: "Subject is required"}
	}
	if len(b.a.Newsgroups) == 0 {
		return nil, &ValidationError{Reason: "At least one newsgroup is required"}
	}
	if b.a.Supersedes != "" && b.a.Control != "" {
		return nil, &ValidationError{Reason: "Supersedes and Control cannot both be set"}
	}

	a := b.a
	a.Newsgroups = append([]string(nil), b.a.Newsgroups...)
	a.References = append([]string(nil), b.a.References...)
	a.FollowupTo = append([]string(nil), b.a.FollowupTo...)
	if len(b.a.Extra) > 0 {
		a.Extra = make(map[string]string, len(b.a.Extra))
		for k, v := range b.a.Extra {
			a.Extra[k] = v
		}
		a.extraOrder = append([]string(nil), b.a.extraOrder...)
	}

	if a.Date.IsZero() {
		a.Date = time.Now().UTC()
	}
	if a.MessageID == "" {
		a.MessageID = "<" + uuid.NewString() + "@" + senderDomain(a.From) + ">"
	}
	if a.Path == "" {
		a.Path = "not-for-mail"
	}
	return &a, nil
}

// senderDomain extracts the domain part of the From address for the
// generated message-id.
func senderDomain(from string) string {
	addr := from
	if i := strings.LastIndexByte(addr, '<'); i >= 0 {
		addr = addr[i+1:]
		addr = strings.TrimSuffix(strings.TrimSpace(addr), ">")
	}
	if i := strings.LastIndexByte(addr, '@'); i >= 0 && i+1 < len(addr) {
		return strings.TrimSpace(addr[i+1:])
	}
	return "invalid.local"
}
