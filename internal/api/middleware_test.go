package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/heimdex/clipforge/internal/logging"
)

func TestIsAllowedOrigin(t *testing.T) {
	allowed := []string{
		"http://localhost:3000",
		"http://localhost",
		"http://127.0.0.1:5173",
		"http://127.0.0.1",
		"https://localhost:8443",
		"http://[::1]:3000",
	}
	for _, origin := range allowed {
		if !isAllowedOrigin(origin) {
			t.Errorf("isAllowedOrigin(%q) = false, want true", origin)
		}
	}

	denied := []string{
		"",
		"https://evil.com",
		"http://192.168.1.1:3000",
		"http://localhost.evil.com",
		"ftp://localhost:3000",
		"http://localhost:not-a-port",
		"http://localhost:3000/path",
		"http://user@localhost:3000",
		"http://localhost:3000?x=1",
	}
	for _, origin := range denied {
		if isAllowedOrigin(origin) {
			t.Errorf("isAllowedOrigin(%q) = true, want false", origin)
		}
	}
}

func TestIsLoopbackRemoteAddr(t *testing.T) {
	for _, addr := range []string{"127.0.0.1:12345", "[::1]:12345", "127.0.0.1"} {
		if !isLoopbackRemoteAddr(addr) {
			t.Errorf("isLoopbackRemoteAddr(%q) = false, want true", addr)
		}
	}
	for _, addr := range []string{"8.8.8.8:12345", "192.168.1.1:8080", "not-an-ip:1234", ""} {
		if isLoopbackRemoteAddr(addr) {
			t.Errorf("isLoopbackRemoteAddr(%q) = true, want false", addr)
		}
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestLoopbackOnly(t *testing.T) {
	handler := LoopbackOnly()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/project", nil)
	req.RemoteAddr = "10.1.2.3:4000"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusForbidden)
	}

	req.RemoteAddr = "127.0.0.1:4000"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestCORSAllowlist_AllowedOrigin(t *testing.T) {
	handler := CORSAllowlist()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:3000")
	}
	if got := rr.Header().Get("Vary"); got != "Origin" {
		t.Errorf("Vary = %q, want %q", got, "Origin")
	}
}

func TestCORSAllowlist_DeniedOrigin(t *testing.T) {
	handler := CORSAllowlist()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("ACAO = %q, want empty for denied origin", got)
	}
}

func TestCORSAllowlist_Preflight(t *testing.T) {
	tests := []struct {
		origin string
		want   int
	}{
		{"http://localhost:3000", http.StatusNoContent},
		{"https://evil.com", http.StatusForbidden},
	}
	for _, tt := range tests {
		handler := CORSAllowlist()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called for preflight")
		}))
		req := httptest.NewRequest(http.MethodOptions, "/clips", nil)
		req.Header.Set("Origin", tt.origin)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != tt.want {
			t.Errorf("preflight from %q: status = %d, want %d", tt.origin, rr.Code, tt.want)
		}
	}
}

func TestCORSAllowlist_ExposesRangeHeaders(t *testing.T) {
	handler := CORSAllowlist()(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/media/x/file", nil)
	req.Header.Set("Origin", "http://127.0.0.1:5173")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	checks := map[string][]string{
		"Access-Control-Allow-Headers":  {"Range", "Content-Type", "Authorization", "X-Request-ID"},
		"Access-Control-Expose-Headers": {"Content-Range", "Accept-Ranges", "Content-Length"},
		"Access-Control-Allow-Methods":  {"GET", "HEAD", "PUT", "DELETE"},
	}
	for header, want := range checks {
		got := splitHeader(rr.Header().Get(header))
		for _, v := range want {
			if !slices.Contains(got, v) {
				t.Errorf("%s missing %q, got %v", header, v, got)
			}
		}
	}
}

func TestCORSAllowlist_VaryIsAdditive(t *testing.T) {
	handler := CORSAllowlist()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	rr.Header().Set("Vary", "Accept-Encoding")
	handler.ServeHTTP(rr, req)

	vary := rr.Header().Values("Vary")
	if !slices.Contains(vary, "Accept-Encoding") || !slices.Contains(vary, "Origin") {
		t.Errorf("Vary = %v, want both Accept-Encoding and Origin", vary)
	}
}

func splitHeader(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type fakeTokens struct {
	token string
	err   error
}

func (f fakeTokens) GetConfig(context.Context, string) (string, error) {
	return f.token, f.err
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		tokens fakeTokens
		header string
		want   int
	}{
		{"valid", fakeTokens{token: "secret"}, "Bearer secret", http.StatusOK},
		{"missing header", fakeTokens{token: "secret"}, "", http.StatusUnauthorized},
		{"wrong scheme", fakeTokens{token: "secret"}, "Basic secret", http.StatusUnauthorized},
		{"wrong token", fakeTokens{token: "secret"}, "Bearer nope", http.StatusUnauthorized},
		{"no stored token", fakeTokens{}, "Bearer secret", http.StatusInternalServerError},
		{"lookup fails", fakeTokens{err: errors.New("db closed")}, "Bearer secret", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := AuthMiddleware(tt.tokens, logging.Discard())(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/project", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(RequestIDKey).(string)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if seen != "abc123" || rr.Header().Get("X-Request-ID") != "abc123" {
		t.Errorf("request id = %q / %q, want abc123", seen, rr.Header().Get("X-Request-ID"))
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 65))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if len(seen) != 8 {
		t.Errorf("generated request id = %q, want 8 chars", seen)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}
