package logging

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func TestCompactHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, slog.LevelDebug)
	defer SetOutput(os.Stdout, slog.LevelInfo)

	New("normalize").Warn("owner not found in entity list", "owner", "Acme Holdings", "entity", "B")

	line := buf.String()
	for _, want := range []string{"[WARN]", "owner not found in entity list", "component=normalize", `owner="Acme Holdings"`, "entity=B"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}
}

func TestCompactHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, slog.LevelWarn)
	defer SetOutput(os.Stdout, slog.LevelInfo)

	Info("hidden")
	Warn("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Errorf("info record written at warn level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("warn record missing: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, slog.LevelInfo)
	defer SetOutput(os.Stdout, slog.LevelInfo)

	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/charts/x/graph", nil)
	req.Header.Set("X-Request-ID", "abcdef0123456789")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "abcdef0123456789" {
		t.Errorf("request id in context = %q, want the header value", seen)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "abcdef0123456789" {
		t.Errorf("response X-Request-ID = %q", got)
	}
	if !strings.Contains(buf.String(), "request rejected") || !strings.Contains(buf.String(), "req=abcdef01") {
		t.Errorf("unexpected log output %q", buf.String())
	}
}
