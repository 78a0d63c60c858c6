// Package yenc implements the yEnc binary-to-text encoding used for
// Usenet binaries: a single-part and multi-part encoder, a decoder with
// CRC32 verification, and an assembler that reconstructs a file from
// its decoded parts.
package yenc

import "fmt"

// Header carries the =ybegin parameters of an encoded block.
type Header struct {
	// Name is the file name the poster declared.
	Name string
	// LineLength is the declared wrap length of the encoded lines.
	LineLength int
	// Size is the declared size of the whole file in bytes.
	Size int64
	// Part and Total identify a multi-part post; both are zero on
	// single-part blocks. Total may be zero even on multi-part posts,
	// older posters omitted it.
	Part  int
	Total int
}

// PartRange is the =ypart byte range, 1-based inclusive on both ends.
type PartRange struct {
	Begin int64
	End   int64
}

// Len returns the number of bytes the range covers.
func (r PartRange) Len() int64 { return r.End - r.Begin + 1 }

// Trailer carries the =yend parameters.
type Trailer struct {
	// Size is the declared size of this block's decoded data.
	Size int64
	// CRC32 is the declared whole-file checksum. Posters typically emit
	// it only on single-part blocks or the final part.
	CRC32    uint32
	HasCRC32 bool
	// PartCRC32 is the declared checksum of this part's decoded data.
	PartCRC32    uint32
	HasPartCRC32 bool
}

// Decoded is the result of decoding one yEnc block.
type Decoded struct {
	Header  Header
	Part    *PartRange // nil on single-part blocks
	Trailer Trailer
	// Data is the decoded payload.
	Data []byte
	// CRC32 is the checksum computed over Data. Comparing it against
	// the trailer's declared values is the caller's decision; the
	// whole-file crc32 cannot match a single part of a multi-part post.
	CRC32 uint32
}

// VerifyPart reports whether the computed checksum matches the declared
// part checksum. True when no part checksum was declared.
func (d *Decoded) VerifyPart() bool {
	return !d.Trailer.HasPartCRC32 || d.CRC32 == d.Trailer.PartCRC32
}

// FormatError reports a malformed =ybegin, =ypart, or =yend line.
type FormatError struct {
	Reason string
	Line   string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("yenc: %s: %q", e.Reason, e.Line)
}

// PartConflictError reports a part that cannot join an assembly: a
// different file name, total, or size, or a byte range overlapping an
// already placed part.
type PartConflictError struct {
	Reason string
	Part   int
}

func (e *PartConflictError) Error() string {
	return fmt.Sprintf("yenc: part %d: %s", e.Part, e.Reason)
}

// MissingPartsError reports the uncovered byte ranges of an incomplete
// assembly.
type MissingPartsError struct {
	Name    string
	Missing []PartRange
}

func (e *MissingPartsError) Error() string {
	return fmt.Sprintf("yenc: %s: %d byte range(s) missing", e.Name, len(e.Missing))
}
