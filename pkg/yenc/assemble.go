package yenc

import (
	"sort"
)

// Assembler reconstructs a file from decoded multi-part blocks. Parts
// may arrive in any order; each is placed at its declared begin..end
// offset. The first part added fixes the file name, size, and total
// count, and every later part must agree with them.
type Assembler struct {
	name  string
	size  int64
	total int
	buf   []byte
	parts []PartRange // sorted by Begin, non-overlapping
}

// NewAssembler returns an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Add places one decoded block. Single-part blocks (no =ypart) are
// treated as covering the whole declared size. Conflicting metadata or
// an overlap with an already placed part is rejected.
func (a *Assembler) Add(d *Decoded) error {
	r := PartRange{Begin: 1, End: d.Header.Size}
	if d.Part != nil {
		r = *d.Part
	}
	if int64(len(d.Data)) != r.Len() {
		return &PartConflictError{Part: d.Header.Part, Reason: "decoded length does not match the declared range"}
	}

	if a.buf == nil {
		a.name = d.Header.Name
		a.size = d.Header.Size
		a.total = d.Header.Total
		a.buf = make([]byte, a.size)
	} else {
		if d.Header.Name != a.name {
			return &PartConflictError{Part: d.Header.Part, Reason: "file name differs from the first part"}
		}
		if d.Header.Size != a.size {
			return &PartConflictError{Part: d.Header.Part, Reason: "file size differs from the first part"}
		}
		if d.Header.Total != 0 && a.total != 0 && d.Header.Total != a.total {
			return &PartConflictError{Part: d.Header.Part, Reason: "part total differs from the first part"}
		}
	}
	if r.End > a.size {
		return &PartConflictError{Part: d.Header.Part, Reason: "part range exceeds the declared file size"}
	}
	for _, placed := range a.parts {
		if r.Begin <= placed.End && placed.Begin <= r.End {
			return &PartConflictError{Part: d.Header.Part, Reason: "part range overlaps an already placed part"}
		}
	}

	copy(a.buf[r.Begin-1:r.End], d.Data)
	a.parts = append(a.parts, r)
	sort.Slice(a.parts, func(i, j int) bool { return a.parts[i].Begin < a.parts[j].Begin })
	return nil
}

// Name returns the file name fixed by the first part, "" before any
// part was added.
func (a *Assembler) Name() string { return a.name }

// Size returns the declared file size, 0 before any part was added.
func (a *Assembler) Size() int64 { return a.size }

// Complete reports whether every byte of the declared size is covered.
func (a *Assembler) Complete() bool {
	return a.buf != nil && len(a.missing()) == 0
}

// Bytes returns the assembled file. An incomplete assembly returns a
// MissingPartsError naming the uncovered ranges.
func (a *Assembler) Bytes() ([]byte, error) {
	if a.buf == nil {
		return nil, &MissingPartsError{Name: a.name, Missing: []PartRange{{Begin: 1, End: 0}}}
	}
	if missing := a.missing(); len(missing) > 0 {
		return nil, &MissingPartsError{Name: a.name, Missing: missing}
	}
	return a.buf, nil
}

// missing returns the uncovered ranges, relying on parts being sorted
// and non-overlapping.
func (a *Assembler) missing() []PartRange {
	var gaps []PartRange
	next := int64(1)
	for _, p := range a.parts {
		if p.Begin > next {
			gaps = append(gaps, PartRange{Begin: next, End: p.Begin - 1})
		}
		next = p.End + 1
	}
	if next <= a.size {
		gaps = append(gaps, PartRange{Begin: next, End: a.size})
	}
	return gaps
}
