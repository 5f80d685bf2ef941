package result

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"
)

// Kind classifies the outcome of one outbound call.
type Kind string

const (
	KindOK        Kind = "ok"
	KindTransport Kind = "transport" // timeout, connection refused, DNS
	KindAuth      Kind = "auth"      // identity provider refused the credentials
	KindRejected  Kind = "rejected"  // provisioning/verification API answered non-2xx
)

// Result is the outcome of one outbound call.
type Result struct {
	OK bool
	// Warning marks a success that deserves attention (e.g. resource already existed).
	Warning    bool
	Kind       Kind
	StatusCode int // 0 when no response was received
	Detail     string
	Err        error
}

// Success returns an OK Result.
func Success(status int, format string, args ...any) Result {
	return Result{OK: true, Kind: KindOK, StatusCode: status, Detail: fmt.Sprintf(format, args...)}
}

// SuccessWithWarning returns an OK Result flagged as a warning.
func SuccessWithWarning(status int, format string, args ...any) Result {
	r := Success(status, format, args...)
	r.Warning = true
	return r
}

// Transport returns a failed Result for a call that produced no response.
func Transport(err error, format string, args ...any) Result {
	return Result{
		Kind:   KindTransport,
		Detail: fmt.Sprintf(format, args...),
		Err:    err,
	}
}

// Rejected returns a failed Result for a non-success HTTP response.
func Rejected(status int, body string) Result {
	return Result{
		Kind:       KindRejected,
		StatusCode: status,
		Detail:     fmt.Sprintf("HTTP %d %s: %s", status, http.StatusText(status), truncate(body, 300)),
	}
}

// AuthFailed returns a failed Result for an identity-provider refusal.
func AuthFailed(status int, body string) Result {
	r := Rejected(status, body)
	r.Kind = KindAuth
	return r
}

// Failed returns a generic failed Result that carries no HTTP status.
func Failed(kind Kind, format string, args ...any) Result {
	return Result{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Error implements error for failed Results so they can be wrapped or logged.
func (r Result) Error() string {
	if r.OK {
		return ""
	}
	if r.Err != nil && r.Detail != "" {
		return r.Detail + ": " + r.Err.Error()
	}
	if r.Err != nil {
		return r.Err.Error()
	}
	return r.Detail
}

// Unwrap exposes the underlying transport error, if any.
func (r Result) Unwrap() error {
	return r.Err
}

// Timeout reports whether the failure was a deadline or timeout.
func (r Result) Timeout() bool {
	var te interface{ Timeout() bool }
	return r.Err != nil && errors.As(r.Err, &te) && te.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
