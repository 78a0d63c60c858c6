package yenc

import (
	"fmt"
	"hash/crc32"
	"io"
)

// DefaultLineLength is the wrap length used when the caller declares
// none. 128 is what the common posting tools emit.
const DefaultLineLength = 128

// EncodeOptions configures a single-part encode.
type EncodeOptions struct {
	// Name is the declared file name. Required.
	Name string
	// LineLength is the wrap length; DefaultLineLength when zero.
	LineLength int
}

// PartOptions configures one part of a multi-part encode.
type PartOptions struct {
	Name       string
	LineLength int
	// Part is the 1-based part number; Total the number of parts.
	Part  int
	Total int
	// TotalSize is the size of the whole file.
	TotalSize int64
	// Begin is the 1-based offset of this part's first byte within the
	// file.
	Begin int64
}

// Encode writes data as one single-part yEnc block: =ybegin header,
// wrapped encoded lines, and an =yend trailer with the crc32 of data.
// Lines end in CRLF, ready for a dot-stuffed article body.
func Encode(w io.Writer, opts EncodeOptions, data []byte) error {
	if opts.Name == "" {
		return &FormatError{Reason: "encode requires a file name"}
	}
	lineLen := opts.LineLength
	if lineLen <= 0 {
		lineLen = DefaultLineLength
	}
	if _, err := fmt.Fprintf(w, "=ybegin line=%d size=%d name=%s\r\n", lineLen, len(data), opts.Name); err != nil {
		return err
	}
	if err := encodeBody(w, data, lineLen); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "=yend size=%d crc32=%08x\r\n", len(data), crc32.ChecksumIEEE(data))
	return err
}

// EncodePart writes one part of a multi-part post: =ybegin with
// part/total, an =ypart range, the encoded lines, and an =yend trailer
// carrying the part checksum. The final part additionally declares the
// whole-file crc32 when fileCRC is non-nil.
func EncodePart(w io.Writer, opts PartOptions, data []byte, fileCRC *uint32) error {
	if opts.Name == "" {
		return &FormatError{Reason: "encode requires a file name"}
	}
	if opts.Part < 1 {
		return &FormatError{Reason: "part numbers are 1-based"}
	}
	if opts.Begin < 1 {
		return &FormatError{Reason: "part begin offset is 1-based"}
	}
	lineLen := opts.LineLength
	if lineLen <= 0 {
		lineLen = DefaultLineLength
	}
	end := opts.Begin + int64(len(data)) - 1
	if _, err := fmt.Fprintf(w, "=ybegin part=%d total=%d line=%d size=%d name=%s\r\n",
		opts.Part, opts.Total, lineLen, opts.TotalSize, opts.Name); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "=ypart begin=%d end=%d\r\n", opts.Begin, end); err != nil {
		return err
	}
	if err := encodeBody(w, data, lineLen); err != nil {
		return err
	}
	if fileCRC != nil {
		_, err := fmt.Fprintf(w, "=yend size=%d part=%d pcrc32=%08x crc32=%08x\r\n",
			len(data), opts.Part, crc32.ChecksumIEEE(data), *fileCRC)
		return err
	}
	_, err := fmt.Fprintf(w, "=yend size=%d part=%d pcrc32=%08x\r\n",
		len(data), opts.Part, crc32.ChecksumIEEE(data))
	return err
}

// encodeBody emits the escaped, wrapped data lines. A byte is escaped
// when it belongs to the critical set before or after the +42 offset;
// checking both sides keeps NUL, TAB, LF, CR, SPACE, and '=' out of the
// raw output so the line framing survives any transport.
func encodeBody(w io.Writer, data []byte, lineLen int) error {
	buf := make([]byte, 0, lineLen+4)
	col := 0
	for _, in := range data {
		out := in + 42 // wraps mod 256
		if critical(in) || critical(out) {
			buf = append(buf, '=', out+64)
			col += 2
		} else {
			buf = append(buf, out)
			col++
		}
		if col >= lineLen {
			buf = append(buf, '\r', '\n')
			if _, err := w.Write(buf); err != nil {
				return err
			}
			buf = buf[:0]
			col = 0
		}
	}
	if col > 0 {
		buf = append(buf, '\r', '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func critical(b byte) bool {
	switch b {
	case 0x00, '\t', '\n', '\r', ' ', '=':
		return true
	}
	return false
}
