package result

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSuccess(t *testing.T) {
	r := Success(201, "created %s", "webhook")
	if !r.OK || r.Warning || r.Kind != KindOK {
		t.Errorf("Success: got %+v", r)
	}
	if r.Detail != "created webhook" {
		t.Errorf("Detail: got %q", r.Detail)
	}
	if r.Error() != "" {
		t.Errorf("Error() on success: got %q, want empty", r.Error())
	}
}

func TestSuccessWithWarning(t *testing.T) {
	r := SuccessWithWarning(409, "already exists")
	if !r.OK || !r.Warning || r.StatusCode != 409 {
		t.Errorf("SuccessWithWarning: got %+v", r)
	}
}

func TestRejected(t *testing.T) {
	r := Rejected(403, `{"errors":["Forbidden"]}`)
	if r.OK || r.Kind != KindRejected || r.StatusCode != 403 {
		t.Errorf("Rejected: got %+v", r)
	}
	if !strings.Contains(r.Detail, "HTTP 403 Forbidden") || !strings.Contains(r.Detail, `"Forbidden"`) {
		t.Errorf("Detail: got %q", r.Detail)
	}
}

func TestRejected_TruncatesBody(t *testing.T) {
	r := Rejected(500, strings.Repeat("x", 1000))
	if len(r.Detail) > 400 {
		t.Errorf("Detail length: got %d, want truncated", len(r.Detail))
	}
}

func TestRejected_TruncatesOnRuneBoundary(t *testing.T) {
	// 299 ASCII bytes then a 3-byte rune straddling the cut at 300.
	r := Rejected(502, strings.Repeat("x", 299)+strings.Repeat("€", 10))
	if !utf8.ValidString(r.Detail) {
		t.Fatalf("Detail is not valid UTF-8: %q", r.Detail)
	}
	if !strings.HasSuffix(r.Detail, strings.Repeat("x", 299)+"…") {
		t.Errorf("Detail: got %q, want cut before the split rune", r.Detail)
	}
}

func TestAuthFailed(t *testing.T) {
	r := AuthFailed(401, "invalid_client")
	if r.OK || r.Kind != KindAuth {
		t.Errorf("AuthFailed: got %+v", r)
	}
}

func TestTransport_WrapsError(t *testing.T) {
	base := fmt.Errorf("dial: %w", context.DeadlineExceeded)
	r := Transport(base, "POST %s", "/v2/enqueue")

	if r.OK || r.Kind != KindTransport {
		t.Errorf("Transport: got %+v", r)
	}
	if !errors.Is(r, context.DeadlineExceeded) {
		t.Error("errors.Is(result, DeadlineExceeded): got false")
	}
	if !r.Timeout() {
		t.Error("Timeout(): got false for DeadlineExceeded")
	}
	if got := r.Error(); got != "POST /v2/enqueue: dial: context deadline exceeded" {
		t.Errorf("Error(): got %q", got)
	}
}

func TestTimeout_FalseWithoutErr(t *testing.T) {
	if Failed(KindRejected, "nope").Timeout() {
		t.Error("Timeout(): got true for a result without Err")
	}
}
