package nntp

import "strconv"

// Response is a parsed server reply: the three-digit status code, the
// trailing message text, and the body lines of a multi-line response
// (empty for single-line responses). The body excludes the terminating
// dot line, and dot-stuffed lines arrive unstuffed.
type Response struct {
	Code    int
	Message string
	Lines   []string
}

// IsInformational reports a 1xx code.
func (r *Response) IsInformational() bool {
	return r.Code >= 100 && r.Code < 200
}

// IsSuccess reports a 2xx code.
func (r *Response) IsSuccess() bool {
	return r.Code >= 200 && r.Code < 300
}

// IsContinuation reports a 3xx code: the server expects more input
// (article text, a password, a SASL response).
func (r *Response) IsContinuation() bool {
	return r.Code >= 300 && r.Code < 400
}

// IsError reports a 4xx or 5xx code.
func (r *Response) IsError() bool {
	return r.Code >= 400 && r.Code < 600
}

// ParseStatusLine parses a raw single-line response of the form
// "<3-digit-code><SP><message>" or a bare three-digit code. The code must
// be exactly three ASCII decimal digits with a first digit in 1..5;
// anything else is an InvalidResponseError.
func ParseStatusLine(line string) (*Response, error) {
	if len(line) < 3 {
		return nil, &InvalidResponseError{Reason: "status line too short", Line: line}
	}
	for i := 0; i < 3; i++ {
		if line[i] < '0' || line[i] > '9' {
			return nil, &InvalidResponseError{Reason: "status code is not three digits", Line: line}
		}
	}
	if line[0] == '0' || line[0] > '5' {
		return nil, &InvalidResponseError{Reason: "status code out of range", Line: line}
	}
	if len(line) > 3 && line[3] != ' ' {
		return nil, &InvalidResponseError{Reason: "missing space after status code", Line: line}
	}
	code, _ := strconv.Atoi(line[:3])
	msg := ""
	if len(line) > 4 {
		msg = line[4:]
	}
	return &Response{Code: code, Message: msg}, nil
}
