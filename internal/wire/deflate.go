package wire

import (
	"bufio"
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
)

// countingReader counts compressed bytes as they come off the socket.
type countingReader struct {
	r io.Reader
	c *Counters
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.c.addWireRead(n)
	return n, err
}

// countingWriter counts compressed bytes as they hit the socket.
type countingWriter struct {
	w io.Writer
	c *Counters
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.c.addWireWritten(n)
	return n, err
}

// dataReader counts the decompressed view delivered to the framer.
type dataReader struct {
	r io.Reader
	c *Counters
}

func (dr *dataReader) Read(p []byte) (int, error) {
	n, err := dr.r.Read(p)
	dr.c.addDataRead(n)
	return n, err
}

// dataWriter counts plaintext bytes before compression.
type dataWriter struct {
	w io.Writer
	c *Counters
}

func (dw *dataWriter) Write(p []byte) (int, error) {
	n, err := dw.w.Write(p)
	dw.c.addDataWritten(n)
	return n, err
}

// EnableDeflate installs the full-session DEFLATE adapter after a
// successful COMPRESS DEFLATE handshake. From this point both directions
// of the stream are deflate-compressed; the framer keeps its line-oriented
// view over the decompressed stream.
//
// Any read-ahead bytes sitting in the framer's buffer belong to the start
// of the compressed stream and are chained in front of the socket.
func (f *Framer) EnableDeflate() error {
	src := io.Reader(f.conn)
	if n := f.r.Buffered(); n > 0 {
		pending := make([]byte, n)
		if _, err := io.ReadFull(f.r, pending); err != nil {
			return err
		}
		src = io.MultiReader(bytes.NewReader(pending), f.conn)
	}

	fr := flate.NewReader(&countingReader{r: src, c: &f.counters})
	f.r = bufio.NewReaderSize(&dataReader{r: fr, c: &f.counters}, readerBufferSize)

	fw, err := flate.NewWriter(&countingWriter{w: f.conn, c: &f.counters}, flate.DefaultCompression)
	if err != nil {
		return err
	}
	f.w = &dataWriter{w: fw, c: &f.counters}
	f.fw = fw
	return nil
}
