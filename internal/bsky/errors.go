package bsky

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorKind classifies a failed remote operation.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnauthenticated
	KindRateLimited
	KindNotFound
	KindNetwork
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "not_found"
	case KindNetwork:
		return "network"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by every client operation. RetryAfter
// is only meaningful for KindRateLimited.
type Error struct {
	Kind       ErrorKind
	Op         string
	RetryAfter time.Duration
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Message, e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Kind)
	}
	return fmt.Sprintf("%s failed (%s)", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func networkErr(op string, err error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

func malformedErr(op string, err error) *Error {
	return &Error{Kind: KindMalformed, Op: op, Err: err}
}

type xrpcErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// classifyStatus maps a non-2xx XRPC response to the error taxonomy. The
// body, when parseable, carries an error code string such as ExpiredToken.
func classifyStatus(op string, resp *http.Response, body []byte) *Error {
	var parsed xrpcErrorBody
	_ = json.Unmarshal(body, &parsed)

	msg := strings.TrimSpace(parsed.Message)
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized,
		parsed.Error == "ExpiredToken",
		parsed.Error == "InvalidToken",
		parsed.Error == "AuthMissing":
		return &Error{Kind: KindUnauthenticated, Op: op, Message: msg}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, Op: op, Message: msg, RetryAfter: retryAfter(resp)}
	case resp.StatusCode == http.StatusNotFound, parsed.Error == "NotFound", parsed.Error == "RecordNotFound":
		return &Error{Kind: KindNotFound, Op: op, Message: msg}
	case resp.StatusCode >= 500:
		return &Error{Kind: KindNetwork, Op: op, Message: msg}
	default:
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return &Error{Kind: KindUnknown, Op: op, Message: msg}
	}
}

func retryAfter(resp *http.Response) time.Duration {
	const fallback = 30 * time.Second
	header := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if header == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return fallback
}
