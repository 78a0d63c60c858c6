package nntp

import (
	"fmt"
	"time"
)

// Command builders. Each builder is a pure function emitting the exact
// byte sequence for one command: canonical uppercase keyword, arguments,
// and a single CRLF terminator. Equal arguments always produce
// byte-identical output.

const newsTimeFormat = "20060102 150405"

func BuildCapabilities() string { return "CAPABILITIES\r\n" }
func BuildModeReader() string   { return "MODE READER\r\n" }
func BuildModeStream() string   { return "MODE STREAM\r\n" }
func BuildQuit() string         { return "QUIT\r\n" }
func BuildDate() string         { return "DATE\r\n" }
func BuildHelp() string         { return "HELP\r\n" }
func BuildStartTLS() string     { return "STARTTLS\r\n" }

func BuildCompressDeflate() string      { return "COMPRESS DEFLATE\r\n" }
func BuildXFeatureCompressGzip() string { return "XFEATURE COMPRESS GZIP\r\n" }

func BuildGroup(name string) string {
	return "GROUP " + name + "\r\n"
}

func BuildListGroup(name string, r Range) string {
	cmd := "LISTGROUP"
	if name != "" {
		cmd += " " + name
		if arg := r.String(); arg != "" {
			cmd += " " + arg
		}
	}
	return cmd + "\r\n"
}

// withSpec appends an article spec (message-id or number) when present.
func withSpec(keyword, spec string) string {
	if spec == "" {
		return keyword + "\r\n"
	}
	return keyword + " " + spec + "\r\n"
}

func BuildArticle(spec string) string { return withSpec("ARTICLE", spec) }
func BuildHead(spec string) string    { return withSpec("HEAD", spec) }
func BuildBody(spec string) string    { return withSpec("BODY", spec) }
func BuildStat(spec string) string    { return withSpec("STAT", spec) }

func BuildNext() string { return "NEXT\r\n" }
func BuildLast() string { return "LAST\r\n" }

func buildRanged(keyword string, r Range) string {
	if arg := r.String(); arg != "" {
		return keyword + " " + arg + "\r\n"
	}
	return keyword + "\r\n"
}

func BuildOver(r Range) string  { return buildRanged("OVER", r) }
func BuildXOver(r Range) string { return buildRanged("XOVER", r) }

func BuildHdr(field string, r Range) string {
	return buildRanged("HDR "+field, r)
}

func BuildXHdr(field string, r Range) string {
	return buildRanged("XHDR "+field, r)
}

func buildList(variant, arg string) string {
	cmd := "LIST"
	if variant != "" {
		cmd += " " + variant
	}
	if arg != "" {
		cmd += " " + arg
	}
	return cmd + "\r\n"
}

func BuildListActive(wildmat string) string        { return buildList("ACTIVE", wildmat) }
func BuildListNewsgroups(wildmat string) string    { return buildList("NEWSGROUPS", wildmat) }
func BuildListOverviewFmt() string                 { return buildList("OVERVIEW.FMT", "") }
func BuildListHeaders(arg string) string           { return buildList("HEADERS", arg) }
func BuildListActiveTimes(wildmat string) string   { return buildList("ACTIVE.TIMES", wildmat) }
func BuildListCounts(wildmat string) string        { return buildList("COUNTS", wildmat) }
func BuildListDistributions() string               { return buildList("DISTRIBUTIONS", "") }
func BuildListModerators() string                  { return buildList("MODERATORS", "") }
func BuildListMotd() string                        { return buildList("MOTD", "") }
func BuildListSubscriptions() string               { return buildList("SUBSCRIPTIONS", "") }

// BuildNewGroups asks for groups created since the given time. The time
// is rendered in UTC with the GMT qualifier so servers do not guess at
// the client's zone.
func BuildNewGroups(since time.Time) string {
	return fmt.Sprintf("NEWGROUPS %s GMT\r\n", since.UTC().Format(newsTimeFormat))
}

// BuildNewNews asks for message-ids posted to groups matching the wildmat
// since the given time.
func BuildNewNews(wildmat string, since time.Time) string {
	return fmt.Sprintf("NEWNEWS %s %s GMT\r\n", wildmat, since.UTC().Format(newsTimeFormat))
}

func BuildPost() string { return "POST\r\n" }

func BuildIHave(messageID string) string {
	return "IHAVE " + FormatMessageID(messageID) + "\r\n"
}

func BuildCheck(messageID string) string {
	return "CHECK " + FormatMessageID(messageID) + "\r\n"
}

func BuildTakeThis(messageID string) string {
	return "TAKETHIS " + FormatMessageID(messageID) + "\r\n"
}

func BuildAuthinfoUser(username string) string {
	return "AUTHINFO USER " + username + "\r\n"
}

func BuildAuthinfoPass(password string) string {
	return "AUTHINFO PASS " + password + "\r\n"
}

// BuildAuthinfoSASL emits AUTHINFO SASL with an optional base64-encoded
// initial response.
func BuildAuthinfoSASL(mechanism, initialResponse string) string {
	cmd := "AUTHINFO SASL " + mechanism
	if initialResponse != "" {
		cmd += " " + initialResponse
	}
	return cmd + "\r\n"
}
