package trace

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kitabu/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Format: "json", Component: "test", Output: &buf})
	m := NewMiddleware(logger, func(r *http.Request) string { return "203.0.113.5" })

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		if log.FromContext(r.Context()).Component() != log.ComponentHTTP {
			t.Errorf("request logger should be in context")
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/summary?window=week", nil))

	if !strings.HasPrefix(seen, "req_") || rr.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("request id mismatch: ctx=%q header=%q", seen, rr.Header().Get(HeaderRequestID))
	}

	var last map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		last = map[string]any{}
		if err := json.Unmarshal(line, &last); err != nil {
			t.Fatalf("bad log line %s: %v", line, err)
		}
	}
	if last["msg"] != "HTTP request completed" || last["status_code"] != float64(http.StatusTeapot) {
		t.Fatalf("unexpected access log: %v", last)
	}
	if last["request_id"] != seen || last["client_ip"] != "203.0.113.5" {
		t.Fatalf("access log missing request fields: %v", last)
	}
	if m.GetMetrics().TotalRequests != 1 {
		t.Fatalf("expected one request counted")
	}
}

func TestIncomingRequestID(t *testing.T) {
	tests := []struct {
		header string
		keep   bool
	}{
		{"abc-123", true},
		{"", false},
		{"has space", false},
		{strings.Repeat("x", maxIncomingIDLength+1), false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, tt.header)
		got := incomingRequestID(req)
		if (got != "") != tt.keep {
			t.Errorf("incomingRequestID(%q) = %q, keep=%v", tt.header, got, tt.keep)
		}
	}
}

func TestStatusDefaultsToOK(t *testing.T) {
	m := NewMiddleware(log.Discard(), nil)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
		w.WriteHeader(http.StatusInternalServerError) // superfluous, ignored
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}
