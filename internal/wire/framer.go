package wire

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxLineLength caps a single response line. Overview lines for
	// pathological articles run to a few kilobytes; a megabyte means the
	// stream is desynchronized.
	MaxLineLength = 1 << 20

	// maxCommandLength is the protocol limit for a command line,
	// including the terminating CRLF.
	maxCommandLength = 512

	// maxBlobLength caps a single compressed multi-line payload.
	maxBlobLength = 64 << 20

	readerBufferSize = 64 << 10
)

// Framer performs line-oriented reads and writes over an NNTP transport.
//
// A Framer starts in plain mode. EnableDeflate switches both directions to
// a full-session DEFLATE stream; EnableGzipBodies switches multi-line body
// reads to per-response GZIP blobs. The two modes are mutually exclusive
// and, once enabled, permanent for the life of the connection.
//
// Framer is not safe for concurrent use; the owning connection serializes
// access.
type Framer struct {
	conn net.Conn
	r    *bufio.Reader
	w    io.Writer

	// fw holds the session DEFLATE writer when deflate is active. Every
	// command write is flushed through it so the server sees complete
	// lines.
	fw flusher

	gzipBodies bool
	counters   Counters
}

// flusher is satisfied by the DEFLATE writer; writes are buffered until
// flushed.
type flusher interface {
	Flush() error
}

// NewFramer wraps an established transport connection.
func NewFramer(conn net.Conn) *Framer {
	return &Framer{
		conn: conn,
		r:    bufio.NewReaderSize(conn, readerBufferSize),
		w:    conn,
	}
}

// Close shuts the underlying transport down.
func (f *Framer) Close() error {
	return f.conn.Close()
}

// SetDeadline bounds the next read or write on the underlying socket.
func (f *Framer) SetDeadline(t time.Time) error {
	return f.conn.SetDeadline(t)
}

// Counters returns the bandwidth counters. All values are zero until a
// compression adapter is installed.
func (f *Framer) Counters() *Counters {
	return &f.counters
}

// readLine reads one line and strips the trailing CRLF (or bare LF).
func (f *Framer) readLine() (string, error) {
	var buf []byte
	for {
		frag, err := f.r.ReadSlice('\n')
		buf = append(buf, frag...)
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			if len(buf) > MaxLineLength {
				return "", ErrLineTooLong
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return "", ErrUnexpectedEOF
		}
		return "", err
	}
	if len(buf) > MaxLineLength {
		return "", ErrLineTooLong
	}
	s := string(buf)
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s, nil
}

// ReadStatusLine reads and parses a single-line response header. The code
// must be exactly three ASCII decimal digits with a first digit in 1..5,
// optionally followed by a space and trailing message text. Anything else
// is a framing error.
func (f *Framer) ReadStatusLine() (code int, message string, err error) {
	line, err := f.readLine()
	if err != nil {
		return 0, "", err
	}
	if len(line) < 3 || !isDigits(line[:3]) || line[0] == '0' || line[0] > '5' {
		return 0, "", &StatusLineError{Line: line}
	}
	if len(line) > 3 && line[3] != ' ' {
		return 0, "", &StatusLineError{Line: line}
	}
	code, _ = strconv.Atoi(line[:3])
	if len(line) > 4 {
		message = line[4:]
	}
	return code, message, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ReadBodyLines reads the multi-line block that follows a status line:
// lines up to (and excluding) the lone dot terminator, each with its CRLF
// removed and leading double dots unstuffed exactly once.
func (f *Framer) ReadBodyLines() ([]string, error) {
	if f.gzipBodies {
		return f.readGzipBodyLines()
	}
	var lines []string
	for {
		line, err := f.readLine()
		if err != nil {
			return nil, err
		}
		if line == "." {
			return lines, nil
		}
		if strings.HasPrefix(line, "..") {
			line = line[1:]
		}
		lines = append(lines, line)
	}
}

// ReadBodyBinary reads a dot-terminated multi-line block preserving the
// raw line bytes, joined by CRLF. Dot-unstuffing is still applied. This
// is the efficient path for ARTICLE/BODY payloads handed to the yEnc
// decoder.
func (f *Framer) ReadBodyBinary() ([]byte, error) {
	if f.gzipBodies {
		return f.readGzipBodyBinary()
	}
	var buf bytes.Buffer
	first := true
	for {
		line, err := f.readLine()
		if err != nil {
			return nil, err
		}
		if line == "." {
			return buf.Bytes(), nil
		}
		if strings.HasPrefix(line, "..") {
			line = line[1:]
		}
		if !first {
			buf.WriteString("\r\n")
		}
		first = false
		buf.WriteString(line)
	}
}

// WriteLine sends one command line, appending the CRLF terminator. The
// command form must fit the 512-octet protocol limit.
func (f *Framer) WriteLine(cmd string) error {
	if len(cmd)+2 > maxCommandLength {
		return ErrCommandTooLong
	}
	if err := f.writeAll([]byte(cmd + "\r\n")); err != nil {
		return err
	}
	return f.flush()
}

// WriteCommand sends a fully built command line that already carries its
// CRLF terminator, enforcing the 512-octet limit.
func (f *Framer) WriteCommand(cmd string) error {
	if len(cmd) > maxCommandLength {
		return ErrCommandTooLong
	}
	if err := f.writeAll([]byte(cmd)); err != nil {
		return err
	}
	return f.flush()
}

// WriteRaw sends pre-formatted payload bytes (an already dot-stuffed
// article for POST/IHAVE/TAKETHIS). No length limit applies.
func (f *Framer) WriteRaw(p []byte) error {
	if err := f.writeAll(p); err != nil {
		return err
	}
	return f.flush()
}

func (f *Framer) writeAll(p []byte) error {
	for len(p) > 0 {
		n, err := f.w.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

func (f *Framer) flush() error {
	if f.fw != nil {
		return f.fw.Flush()
	}
	return nil
}
