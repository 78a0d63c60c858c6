package yenc

import (
	"bufio"
	"bytes"
	"hash/crc32"
	"io"
	"strconv"
	"strings"
)

// Decode reads one yEnc block from r: the =ybegin header, an optional
// =ypart range, the encoded data lines, and the =yend trailer. Text
// before =ybegin (article headers, poster comments) is skipped. The
// checksum over the decoded bytes is computed unconditionally; callers
// compare it against the trailer via VerifyPart or their own policy.
func Decode(r io.Reader) (*Decoded, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var header *Header
	for sc.Scan() {
		line := trimEOL(sc.Bytes())
		if bytes.HasPrefix(line, []byte("=ybegin ")) {
			h, err := parseBegin(string(line))
			if err != nil {
				return nil, err
			}
			header = h
			break
		}
	}
	if header == nil {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, &FormatError{Reason: "no =ybegin line found"}
	}

	d := &Decoded{Header: *header}
	var data []byte
	if header.Size > 0 {
		data = make([]byte, 0, header.Size)
	}

	first := true
	for sc.Scan() {
		line := trimEOL(sc.Bytes())
		if first && bytes.HasPrefix(line, []byte("=ypart ")) {
			pr, err := parsePart(string(line))
			if err != nil {
				return nil, err
			}
			d.Part = pr
			first = false
			continue
		}
		first = false
		if bytes.HasPrefix(line, []byte("=yend")) {
			tr, err := parseEnd(string(line))
			if err != nil {
				return nil, err
			}
			d.Trailer = *tr
			d.Data = data
			d.CRC32 = crc32.ChecksumIEEE(data)
			return d, nil
		}
		var derr error
		data, derr = decodeLine(data, line)
		if derr != nil {
			return nil, derr
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return nil, &FormatError{Reason: "missing =yend line"}
}

// DecodeBytes is Decode over an in-memory article body.
func DecodeBytes(body []byte) (*Decoded, error) {
	return Decode(bytes.NewReader(body))
}

// decodeLine appends the decoded bytes of one data line to dst. CR and
// LF inside the line are ignored; a trailing '=' with no escaped byte
// is malformed.
func decodeLine(dst []byte, line []byte) ([]byte, error) {
	for i := 0; i < len(line); i++ {
		b := line[i]
		switch b {
		case '\r', '\n':
			continue
		case '=':
			i++
			if i >= len(line) {
				return nil, &FormatError{Reason: "dangling escape at end of line", Line: string(line)}
			}
			dst = append(dst, line[i]-64-42)
		default:
			dst = append(dst, b-42)
		}
	}
	return dst, nil
}

func trimEOL(b []byte) []byte {
	return bytes.TrimRight(b, "\r\n")
}

// parseParams splits "key=value key=value ..." after the given prefix.
// Values run to the next space; name= runs to end of line since file
// names may contain spaces.
func parseParams(line, prefix string) map[string]string {
	rest := strings.TrimPrefix(line, prefix)
	params := make(map[string]string)
	for rest != "" {
		rest = strings.TrimLeft(rest, " \t")
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 {
			break
		}
		key := rest[:eq]
		rest = rest[eq+1:]
		if key == "name" {
			params[key] = strings.TrimRight(rest, " \t")
			break
		}
		end := strings.IndexAny(rest, " \t")
		if end < 0 {
			params[key] = rest
			rest = ""
		} else {
			params[key] = rest[:end]
			rest = rest[end:]
		}
	}
	return params
}

func requireInt(params map[string]string, key, line string) (int64, error) {
	v, ok := params[key]
	if !ok {
		return 0, &FormatError{Reason: "missing required parameter " + key, Line: line}
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &FormatError{Reason: "parameter " + key + " is not numeric", Line: line}
	}
	return n, nil
}

func parseBegin(line string) (*Header, error) {
	params := parseParams(line, "=ybegin ")
	lineLen, err := requireInt(params, "line", line)
	if err != nil {
		return nil, err
	}
	size, err := requireInt(params, "size", line)
	if err != nil {
		return nil, err
	}
	name, ok := params["name"]
	if !ok || name == "" {
		return nil, &FormatError{Reason: "missing required parameter name", Line: line}
	}
	h := &Header{Name: name, LineLength: int(lineLen), Size: size}
	if v, ok := params["part"]; ok {
		n, perr := strconv.Atoi(v)
		if perr != nil {
			return nil, &FormatError{Reason: "parameter part is not numeric", Line: line}
		}
		h.Part = n
	}
	if v, ok := params["total"]; ok {
		n, perr := strconv.Atoi(v)
		if perr != nil {
			return nil, &FormatError{Reason: "parameter total is not numeric", Line: line}
		}
		h.Total = n
	}
	return h, nil
}

func parsePart(line string) (*PartRange, error) {
	params := parseParams(line, "=ypart ")
	begin, err := requireInt(params, "begin", line)
	if err != nil {
		return nil, err
	}
	end, err := requireInt(params, "end", line)
	if err != nil {
		return nil, err
	}
	if begin < 1 || end < begin {
		return nil, &FormatError{Reason: "invalid part range", Line: line}
	}
	return &PartRange{Begin: begin, End: end}, nil
}

func parseEnd(line string) (*Trailer, error) {
	params := parseParams(line, "=yend")
	size, err := requireInt(params, "size", line)
	if err != nil {
		return nil, err
	}
	t := &Trailer{Size: size}
	if v, ok := params["crc32"]; ok {
		n, cerr := strconv.ParseUint(v, 16, 32)
		if cerr != nil {
			return nil, &FormatError{Reason: "crc32 is not hexadecimal", Line: line}
		}
		t.CRC32 = uint32(n)
		t.HasCRC32 = true
	}
	if v, ok := params["pcrc32"]; ok {
		n, cerr := strconv.ParseUint(v, 16, 32)
		if cerr != nil {
			return nil, &FormatError{Reason: "pcrc32 is not hexadecimal", Line: line}
		}
		t.PartCRC32 = uint32(n)
		t.HasPartCRC32 = true
	}
	return t, nil
}
