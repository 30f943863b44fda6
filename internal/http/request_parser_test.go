package http

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"kitabu/internal/analytics"
	"kitabu/internal/export"
)

func TestRequestBodyParser(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        string
		wantJSON    bool
		wantDesc    string
		wantAmount  string
	}{
		{"json", "application/json", `{"description":" Lunch\u0007 ","amount":12.5}`, true, "Lunch", "12.5"},
		{"json without header", "", `{"description":"Bus","amount":"3"}`, true, "Bus", "3"},
		{"form", "application/x-www-form-urlencoded", "description=Rent&amount=900", false, "Rent", "900"},
		{"empty", "", "", false, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tc.body))
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			p := NewRequestBodyParser(req)
			if err := p.Parse(); err != nil {
				t.Fatalf("parse: %v", err)
			}
			if p.IsJSON() != tc.wantJSON {
				t.Fatalf("IsJSON = %v", p.IsJSON())
			}
			in := p.Input()
			if in.Description != tc.wantDesc || in.Amount != tc.wantAmount {
				t.Fatalf("unexpected input: %+v", in)
			}
		})
	}
}

func TestRequestBodyParserPatch(t *testing.T) {
	req := httptest.NewRequest("PATCH", "/", strings.NewReader(`{"category":""}`))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("parse: %v", err)
	}
	patch := p.Patch()
	if patch.Description != nil || patch.Amount != nil {
		t.Fatalf("absent fields must stay nil: %+v", patch)
	}
	if patch.Category == nil || *patch.Category != "" {
		t.Fatalf("present empty field must be set: %+v", patch)
	}
}

func TestRequestBodyParserLimits(t *testing.T) {
	big := `{"description":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	p := NewRequestBodyParser(httptest.NewRequest("POST", "/", strings.NewReader(big)))
	if err := p.Parse(); err == nil {
		t.Fatalf("expected oversize body to fail")
	}
	p = NewRequestBodyParser(httptest.NewRequest("POST", "/", strings.NewReader(`{"a":`)))
	if err := p.Parse(); err == nil {
		t.Fatalf("expected malformed JSON to fail")
	}
}

func TestParseQueryHelpers(t *testing.T) {
	if k, err := parseWindow(url.Values{"window": {"WEEK"}}); err != nil || k != analytics.Week {
		t.Fatalf("parseWindow = %v, %v", k, err)
	}
	if n, err := parseLimit(url.Values{}); err != nil || n != analytics.DefaultTrendLimit {
		t.Fatalf("default limit = %d, %v", n, err)
	}
	for _, bad := range []string{"0", "-1", "x", "121"} {
		if _, err := parseLimit(url.Values{"limit": {bad}}); err == nil {
			t.Fatalf("limit %q should be rejected", bad)
		}
	}
	formats, err := parseFormats(url.Values{"format": {"csv, pdf", "json"}})
	if err != nil {
		t.Fatalf("parseFormats: %v", err)
	}
	want := []export.Format{export.CSV, export.PDF, export.JSON}
	if len(formats) != len(want) {
		t.Fatalf("got %v, want %v", formats, want)
	}
	for i := range want {
		if formats[i] != want[i] {
			t.Fatalf("got %v, want %v", formats, want)
		}
	}
	if _, err := parseFormats(url.Values{"format": {"doc"}}); err == nil {
		t.Fatalf("unknown format should fail")
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  a\x00b\tc\n "); got != "ab\tc" {
		t.Fatalf("sanitizeInput = %q", got)
	}
}
