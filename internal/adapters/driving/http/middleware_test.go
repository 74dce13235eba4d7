package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{
			name:       "forwarded for list",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.2"},
			remoteAddr: "10.0.0.2:5555",
			expected:   "198.51.100.1",
		},
		{
			name:       "real ip",
			headers:    map[string]string{"X-Real-IP": " 198.51.100.2 "},
			remoteAddr: "10.0.0.2:5555",
			expected:   "198.51.100.2",
		},
		{
			name:       "socket address",
			remoteAddr: "192.0.2.10:41000",
			expected:   "192.0.2.10",
		},
		{
			name:       "address without port",
			remoteAddr: "192.0.2.11",
			expected:   "192.0.2.11",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			if got := clientIP(req); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := NewLoggingMiddleware(logger).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/api/v1/search", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Errorf("expected status 418, got %d", rec.Code)
	}

	out := buf.String()
	for _, want := range []string{"method=GET", "path=/api/v1/search", "status=418", "client_ip="} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log line to contain %q, got %q", want, out)
		}
	}
}

func TestLoggingMiddleware_DefaultStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := NewLoggingMiddleware(logger).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	if !strings.Contains(buf.String(), "status=200") {
		t.Errorf("expected status=200 in log, got %q", buf.String())
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := NewRecoveryMiddleware(logger).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Errorf("expected panic to be logged, got %q", buf.String())
	}
}

func TestRecoveryMiddleware_NoPanic(t *testing.T) {
	handler := NewRecoveryMiddleware(nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}
