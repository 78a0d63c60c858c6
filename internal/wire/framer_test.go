package wire

import (
	"bytes"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is an in-memory net.Conn: reads come from a fixed buffer,
// writes land in another. Good enough for deterministic framer tests
// without goroutines.
type fakeConn struct {
	in  *bytes.Reader
	out bytes.Buffer
}

func newFakeConn(input string) *fakeConn {
	return &fakeConn{in: bytes.NewReader([]byte(input))}
}

func (c *fakeConn) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c *fakeConn) Write(p []byte) (int, error) { return c.out.Write(p) }
func (c *fakeConn) Close() error                { return nil }

func (c *fakeConn) LocalAddr() net.Addr                { return &net.TCPAddr{} }
func (c *fakeConn) RemoteAddr() net.Addr               { return &net.TCPAddr{} }
func (c *fakeConn) SetDeadline(t time.Time) error      { return nil }
func (c *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func TestReadStatusLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantCode int
		wantMsg  string
		wantErr  bool
	}{
		{"code and message", "200 news.example.com ready\r\n", 200, "news.example.com ready", false},
		{"code alone", "205\r\n", 205, "", false},
		{"bare lf", "211 5 1 5 alt.test\n", 211, "5 1 5 alt.test", false},
		{"two digit code", "20 OK\r\n", 0, "", true},
		{"non digit", "2x0 OK\r\n", 0, "", true},
		{"leading zero", "012 huh\r\n", 0, "", true},
		{"first digit above five", "600 nope\r\n", 0, "", true},
		{"nine hundreds", "999 way out\r\n", 0, "", true},
		{"no space after code", "200-broken\r\n", 0, "", true},
		{"empty line", "\r\n", 0, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFramer(newFakeConn(tt.input))
			code, msg, err := f.ReadStatusLine()
			if tt.wantErr {
				require.Error(t, err)
				var sl *StatusLineError
				assert.ErrorAs(t, err, &sl)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestReadStatusLineEOF(t *testing.T) {
	f := NewFramer(newFakeConn("215 information follows"))
	_, _, err := f.ReadStatusLine()
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestReadBodyLines(t *testing.T) {
	input := "first line\r\n..dotted\r\n...double\r\n\r\nlast\r\n.\r\n"
	f := NewFramer(newFakeConn(input))
	lines, err := f.ReadBodyLines()
	require.NoError(t, err)
	assert.Equal(t, []string{"first line", ".dotted", "..double", "", "last"}, lines)
}

func TestReadBodyLinesEmpty(t *testing.T) {
	f := NewFramer(newFakeConn(".\r\n"))
	lines, err := f.ReadBodyLines()
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestReadBodyLinesTruncated(t *testing.T) {
	f := NewFramer(newFakeConn("line one\r\nline two\r\n"))
	_, err := f.ReadBodyLines()
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestReadBodyBinary(t *testing.T) {
	input := "=ybegin line=128 size=4 name=a.bin\r\n..=j=j\r\n=yend size=4\r\n.\r\n"
	f := NewFramer(newFakeConn(input))
	body, err := f.ReadBodyBinary()
	require.NoError(t, err)
	assert.Equal(t, "=ybegin line=128 size=4 name=a.bin\r\n.=j=j\r\n=yend size=4", string(body))
}

func TestWriteLine(t *testing.T) {
	conn := newFakeConn("")
	f := NewFramer(conn)
	require.NoError(t, f.WriteLine("GROUP alt.test"))
	assert.Equal(t, "GROUP alt.test\r\n", conn.out.String())
}

func TestWriteLineTooLong(t *testing.T) {
	conn := newFakeConn("")
	f := NewFramer(conn)
	err := f.WriteLine("ARTICLE <" + strings.Repeat("x", 600) + ">")
	assert.ErrorIs(t, err, ErrCommandTooLong)
}

func TestWriteLineAtLimit(t *testing.T) {
	conn := newFakeConn("")
	f := NewFramer(conn)
	// 510 octets of command + CRLF == 512 exactly: allowed.
	require.NoError(t, f.WriteLine(strings.Repeat("a", 510)))
	assert.ErrorIs(t, f.WriteLine(strings.Repeat("a", 511)), ErrCommandTooLong)
}

func deflateCompress(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = fw.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, fw.Flush())
	return buf.Bytes()
}

func TestEnableDeflateReads(t *testing.T) {
	payload := "224 overview follows\r\n1\tsubject\tfrom\tdate\t<id>\t\t10\t2\r\n.\r\n"
	conn := &fakeConn{in: bytes.NewReader(deflateCompress(t, payload))}
	f := NewFramer(conn)
	require.NoError(t, f.EnableDeflate())

	code, msg, err := f.ReadStatusLine()
	require.NoError(t, err)
	assert.Equal(t, 224, code)
	assert.Equal(t, "overview follows", msg)

	lines, err := f.ReadBodyLines()
	require.NoError(t, err)
	require.Len(t, lines, 1)

	snap := f.Counters().Snapshot()
	assert.Positive(t, snap.WireRead)
	assert.Equal(t, int64(len(payload)), snap.DataRead)
}

func TestEnableDeflateWrites(t *testing.T) {
	conn := newFakeConn("")
	f := NewFramer(conn)
	require.NoError(t, f.EnableDeflate())

	require.NoError(t, f.WriteLine("DATE"))

	fr := flate.NewReader(bytes.NewReader(conn.out.Bytes()))
	plain := make([]byte, 64)
	n, _ := io.ReadFull(fr, plain)
	assert.Equal(t, "DATE\r\n", string(plain[:n]))

	snap := f.Counters().Snapshot()
	assert.Equal(t, int64(6), snap.DataWritten)
	assert.Positive(t, snap.WireWritten)
}

func TestEnableDeflateChainsBufferedBytes(t *testing.T) {
	// The 206 response line arrives plain; the compressed stream starts
	// right after, and the bufio reader may already have pulled it in.
	plain := "206 compression active\r\n"
	compressed := deflateCompress(t, "111 20240101000000\r\n")
	conn := &fakeConn{in: bytes.NewReader(append([]byte(plain), compressed...))}

	f := NewFramer(conn)
	code, _, err := f.ReadStatusLine()
	require.NoError(t, err)
	require.Equal(t, 206, code)

	require.NoError(t, f.EnableDeflate())
	code, msg, err := f.ReadStatusLine()
	require.NoError(t, err)
	assert.Equal(t, 111, code)
	assert.Equal(t, "20240101000000", msg)
}

func gzipCompress(t *testing.T, data string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestGzipBodies(t *testing.T) {
	body := "group.one 10 1 y\r\ngroup.two 20 2 m\r\n"
	input := "215 list follows\r\n" + string(gzipCompress(t, body)) + "\r\n.\r\n"

	f := NewFramer(newFakeConn(input))
	f.EnableGzipBodies()

	code, _, err := f.ReadStatusLine()
	require.NoError(t, err)
	require.Equal(t, 215, code)

	lines, err := f.ReadBodyLines()
	require.NoError(t, err)
	assert.Equal(t, []string{"group.one 10 1 y", "group.two 20 2 m"}, lines)

	snap := f.Counters().Snapshot()
	assert.Positive(t, snap.WireRead)
	assert.Equal(t, int64(len(body)), snap.DataRead)
}

func TestGzipBodiesInnerDotTolerated(t *testing.T) {
	// Some servers compress the terminator into the blob itself.
	body := "alt.test 5 1 y\r\n.\r\n"
	input := "215 list follows\r\n" + string(gzipCompress(t, body)) + "\r\n.\r\n"

	f := NewFramer(newFakeConn(input))
	f.EnableGzipBodies()

	_, _, err := f.ReadStatusLine()
	require.NoError(t, err)
	lines, err := f.ReadBodyLines()
	require.NoError(t, err)
	assert.Equal(t, []string{"alt.test 5 1 y"}, lines)
}

func TestGzipBodiesCorruptBlob(t *testing.T) {
	input := "215 list follows\r\nnot-gzip-at-all\r\n.\r\n"
	f := NewFramer(newFakeConn(input))
	f.EnableGzipBodies()

	_, _, err := f.ReadStatusLine()
	require.NoError(t, err)
	_, err = f.ReadBodyLines()
	var de *DecodeError
	assert.ErrorAs(t, err, &de)
}
