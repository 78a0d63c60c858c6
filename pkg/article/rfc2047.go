package article

import (
	"encoding/base64"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// DecodeHeader decodes RFC 2047 encoded words in a header value:
// =?charset?B?base64?= and =?charset?Q?quoted-printable?= runs, with
// UTF-8, ISO-8859-1, and Windows-1252 charsets decoded exactly and
// anything else decoded lossily as Latin-1. Malformed encoded words
// pass through unchanged. Whitespace between two adjacent encoded
// words is dropped per the RFC; other text is preserved verbatim.
func DecodeHeader(value string) string {
	if !strings.Contains(value, "=?") {
		return value
	}

	var out strings.Builder
	rest := value
	prevWasWord := false
	for {
		start := strings.Index(rest, "=?")
		if start < 0 {
			out.WriteString(rest)
			break
		}
		decoded, consumed, ok := decodeWord(rest[start:])
		if !ok {
			out.WriteString(rest[:start+2])
			rest = rest[start+2:]
			prevWasWord = false
			continue
		}
		gap := rest[:start]
		if !(prevWasWord && strings.TrimSpace(gap) == "") {
			out.WriteString(gap)
		}
		out.WriteString(decoded)
		rest = rest[start+consumed:]
		prevWasWord = true
	}
	return out.String()
}

// decodeWord decodes one "=?charset?enc?data?=" run at the start of s.
// Returns the decoded text, the number of input bytes consumed, and
// whether the run was a valid encoded word.
func decodeWord(s string) (string, int, bool) {
	// s starts with "=?". Find the three remaining '?' separators and
	// the closing "?=".
	inner := s[2:]
	q1 := strings.IndexByte(inner, '?')
	if q1 < 0 {
		return "", 0, false
	}
	q2 := strings.IndexByte(inner[q1+1:], '?')
	if q2 < 0 {
		return "", 0, false
	}
	q2 += q1 + 1
	end := strings.Index(inner[q2+1:], "?=")
	if end < 0 {
		return "", 0, false
	}
	end += q2 + 1

	charset := inner[:q1]
	encoding := inner[q1+1 : q2]
	data := inner[q2+1 : end]

	var raw []byte
	switch {
	case strings.EqualFold(encoding, "B"):
		b, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return "", 0, false
		}
		raw = b
	case strings.EqualFold(encoding, "Q"):
		b, ok := decodeQ(data)
		if !ok {
			return "", 0, false
		}
		raw = b
	default:
		return "", 0, false
	}

	return decodeCharset(charset, raw), 2 + end + 2, true
}

// decodeQ decodes the Q encoding: '_' is SPACE, '=XX' is a hex byte.
func decodeQ(data string) ([]byte, bool) {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		switch c := data[i]; c {
		case '_':
			out = append(out, ' ')
		case '=':
			if i+2 >= len(data) {
				return nil, false
			}
			hi, ok1 := unhex(data[i+1])
			lo, ok2 := unhex(data[i+2])
			if !ok1 || !ok2 {
				return nil, false
			}
			out = append(out, hi<<4|lo)
			i += 2
		default:
			out = append(out, c)
		}
	}
	return out, true
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// decodeCharset converts raw header bytes to UTF-8. Unknown charsets
// fall back to Latin-1, which maps every byte to some rune and so never
// fails, only loses fidelity.
func decodeCharset(charset string, raw []byte) string {
	switch strings.ToLower(charset) {
	case "utf-8", "us-ascii":
		return string(raw)
	case "iso-8859-1", "latin1":
		return decodeWith(charmap.ISO8859_1, raw)
	case "iso-8859-15":
		return decodeWith(charmap.ISO8859_15, raw)
	case "windows-1252", "cp1252":
		return decodeWith(charmap.Windows1252, raw)
	default:
		return decodeWith(charmap.ISO8859_1, raw)
	}
}

func decodeWith(cm *charmap.Charmap, raw []byte) string {
	decoded, err := cm.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
