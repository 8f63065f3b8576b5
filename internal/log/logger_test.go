package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return New(Config{Component: ComponentApp, Handler: slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" DEBUG ": slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	newBufferLogger(&buf).WithComponent(ComponentLoader).Info("loaded", FieldRows, 3)

	out := buf.String()
	if !strings.Contains(out, "component=loader") {
		t.Errorf("missing component in %q", out)
	}
	if !strings.Contains(out, "rows=3") {
		t.Errorf("missing rows in %q", out)
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	var got *Logger
	h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != logger {
		t.Fatalf("FromContext returned %p, want %p", got, logger)
	}

	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext without logger returned nil")
	}
}

func TestWithSelection(t *testing.T) {
	uid := 12
	f := NewFields().WithSelection("abc", &uid, "Group 1", "high")
	if f[FieldUserID] != 12 || f[FieldSessionID] != "abc" || f[FieldHealth] != "high" {
		t.Fatalf("unexpected fields %v", f)
	}
	f = NewFields().WithSelection("abc", nil, "", "All")
	if _, ok := f[FieldUserID]; ok {
		t.Fatalf("user_id set without a user: %v", f)
	}
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	NewStructuredLogger(newBufferLogger(&buf)).LogError(context.Background(), "boom", errors.New("disk full"),
		ComponentStorage, OpImport, NewFields().WithErrorType(ErrorTypeInternal))

	out := buf.String()
	for _, want := range []string{"level=ERROR", `error="disk full"`, "operation=import", "error_type=internal_error"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestComponentWrittenOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf).WithComponent(ComponentEngine).WithComponent(ComponentHTTP).With(FieldRequestID, "req_1")
	r := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)

	logger.Info("plain")
	sl := NewStructuredLogger(logger)
	sl.LogHTTPStart(context.Background(), r, "10.0.0.1")
	sl.LogHTTPEnd(context.Background(), r, http.StatusOK, 3, "10.0.0.1")
	logger.Warn("attr", slog.String(FieldComponent, ComponentSecurity))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4: %q", len(lines), buf.String())
	}
	for i, line := range lines {
		if n := strings.Count(line, "component="); n != 1 {
			t.Errorf("line %d has %d component attributes: %q", i, n, line)
		}
	}
	if !strings.Contains(lines[0], "component=http") || strings.Contains(lines[0], "component=engine") {
		t.Errorf("WithComponent did not replace the component: %q", lines[0])
	}
	if !strings.Contains(lines[3], "component=security") {
		t.Errorf("explicit component attribute ignored: %q", lines[3])
	}
}
