package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/obsidianstack/hostpager/setup/internal/result"
)

func TestHealthURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://relay.example.com/webhook", "https://relay.example.com/health"},
		{"https://relay.example.com/webhook/", "https://relay.example.com/health"},
		{"https://relay.example.com", "https://relay.example.com/health"},
		{"https://relay.example.com/", "https://relay.example.com/health"},
		{"https://example.com/hooks/pd/webhook", "https://example.com/hooks/pd/health"},
		{"https://example.com/hooks/pd", "https://example.com/hooks/pd/health"},
		{"http://10.0.0.5:5000/webhook?token=x", "http://10.0.0.5:5000/health"},
	}
	for _, tt := range tests {
		got, err := HealthURL(tt.in)
		if err != nil {
			t.Errorf("HealthURL(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("HealthURL(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckHealth_Healthy(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","timestamp":"2024-03-01T12:00:00Z"}`))
	})

	res := New().CheckHealth(context.Background(), srv.URL+"/webhook")
	if !res.OK {
		t.Fatalf("CheckHealth: got %+v, want OK", res)
	}
}

func TestCheckHealth_JSONBodyWithoutContentType(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	if res := New().CheckHealth(context.Background(), srv.URL); !res.OK {
		t.Errorf("CheckHealth: got %+v, want OK", res)
	}
}

func TestCheckHealth_NotJSON(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html>It works!</html>`))
	})

	res := New().CheckHealth(context.Background(), srv.URL+"/webhook")
	if res.OK {
		t.Fatal("CheckHealth: got OK for an HTML page")
	}
	if res.Kind != result.KindRejected {
		t.Errorf("Kind: got %s, want rejected", res.Kind)
	}
	if !strings.Contains(res.Detail, Remediation) {
		t.Errorf("Detail: got %q, want deployment guidance", res.Detail)
	}
}

func TestCheckHealth_Non200(t *testing.T) {
	for _, status := range []int{http.StatusBadGateway, http.StatusNotFound} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`<html>gateway</html>`))
			})

			res := New().CheckHealth(context.Background(), srv.URL+"/webhook")
			if res.OK || res.StatusCode != status {
				t.Fatalf("CheckHealth: got %+v, want %d failure", res, status)
			}
			if !strings.Contains(res.Detail, "hostpager-relay -config relay.yaml") {
				t.Errorf("Detail: got %q, want deployment guidance", res.Detail)
			}
		})
	}
}

func TestCheckHealth_UnreachableHasRemediation(t *testing.T) {
	srv := serve(t, func(http.ResponseWriter, *http.Request) {})
	url := srv.URL + "/webhook"
	srv.Close()

	res := New().CheckHealth(context.Background(), url)
	if res.OK || res.Kind != result.KindTransport {
		t.Fatalf("CheckHealth: got %+v, want transport failure", res)
	}
	if !strings.Contains(res.Detail, "hostpager-relay -config relay.yaml") {
		t.Errorf("Detail: got %q, want deployment guidance", res.Detail)
	}
}
