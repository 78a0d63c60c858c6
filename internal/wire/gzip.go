package wire

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// EnableGzipBodies switches multi-line body reads to per-response GZIP
// decoding after a successful XFEATURE COMPRESS GZIP exchange. Status
// lines and command writes remain plain; only the body between a status
// line and its dot terminator is a compressed blob.
func (f *Framer) EnableGzipBodies() {
	f.gzipBodies = true
}

var dotTerminator = []byte("\r\n.\r\n")

// readDotBlob reads raw bytes up to and excluding the CRLF-dot-CRLF
// terminator. An immediate ".\r\n" means the body was empty.
func (f *Framer) readDotBlob() ([]byte, error) {
	var buf []byte
	for {
		b, err := f.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil, ErrUnexpectedEOF
			}
			return nil, err
		}
		buf = append(buf, b)
		if len(buf) == 3 && bytes.Equal(buf, []byte(".\r\n")) {
			return nil, nil
		}
		if len(buf) >= len(dotTerminator) && bytes.HasSuffix(buf, dotTerminator) {
			return buf[:len(buf)-len(dotTerminator)], nil
		}
		if len(buf) > maxBlobLength {
			return nil, ErrLineTooLong
		}
	}
}

// gunzipBody reads one compressed body blob and returns the decompressed
// bytes, updating the bandwidth counters with the wire/plain delta.
func (f *Framer) gunzipBody() ([]byte, error) {
	blob, err := f.readDotBlob()
	if err != nil {
		return nil, err
	}
	f.counters.addWireRead(len(blob) + len(dotTerminator))
	if len(blob) == 0 {
		return nil, nil
	}

	zr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, &DecodeError{Scheme: "gzip", Err: err}
	}
	defer zr.Close()

	plain, err := io.ReadAll(zr)
	if err != nil {
		return nil, &DecodeError{Scheme: "gzip", Err: err}
	}
	f.counters.addDataRead(len(plain))
	return plain, nil
}

// splitBodyLines splits a decompressed body into its lines, dropping the
// trailing empty fragment after the final CRLF. Some servers compress the
// dot terminator into the blob itself; a trailing lone dot is tolerated
// and dropped.
func splitBodyLines(plain []byte) []string {
	if len(plain) == 0 {
		return nil
	}
	text := strings.ReplaceAll(string(plain), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if n := len(lines); n > 0 && lines[n-1] == "." {
		lines = lines[:n-1]
	}
	for i, line := range lines {
		if strings.HasPrefix(line, "..") {
			lines[i] = line[1:]
		}
	}
	return lines
}

func (f *Framer) readGzipBodyLines() ([]string, error) {
	plain, err := f.gunzipBody()
	if err != nil {
		return nil, err
	}
	return splitBodyLines(plain), nil
}

func (f *Framer) readGzipBodyBinary() ([]byte, error) {
	plain, err := f.gunzipBody()
	if err != nil {
		return nil, err
	}
	return []byte(strings.Join(splitBodyLines(plain), "\r\n")), nil
}
