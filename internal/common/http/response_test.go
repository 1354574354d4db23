package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	commonerrors "github.com/applyflow/auth-service/internal/common/errors"
	commonhttp "github.com/applyflow/auth-service/internal/common/http"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) commonhttp.ErrorEnvelope {
	t.Helper()
	var env commonhttp.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestWriteDomainError_ClassifiedError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	rec := httptest.NewRecorder()

	commonhttp.WriteDomainError(rec, req, commonerrors.ErrWrongCredentials)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Code != "WRONG_CREDENTIALS" {
		t.Errorf("expected WRONG_CREDENTIALS, got %s", env.Code)
	}
	if env.Message != "wrong credentials" {
		t.Errorf("unexpected message %q", env.Message)
	}
}

func TestWriteDomainError_CauseStaysOutOfBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	rec := httptest.NewRecorder()

	cause := commonerrors.ErrInternalError.WithCause(errSentinel("connection refused to db-primary:5432"))
	commonhttp.WriteDomainError(rec, req, cause)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if body := rec.Body.String(); strings.Contains(body, "db-primary") {
		t.Errorf("internal cause leaked into response body: %s", body)
	}
}

func TestWriteDomainError_UnclassifiedError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	commonhttp.WriteDomainError(rec, req, errSentinel("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Code != "UNKNOWN" {
		t.Errorf("expected UNKNOWN, got %s", env.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	cases := []struct {
		name       string
		realIP     string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{name: "x-real-ip wins", realIP: "203.0.113.7", forwarded: "198.51.100.1", remoteAddr: "10.0.0.1:1234", want: "203.0.113.7"},
		{name: "first forwarded hop", forwarded: "198.51.100.1, 10.0.0.2", remoteAddr: "10.0.0.1:1234", want: "198.51.100.1"},
		{name: "remote addr fallback", remoteAddr: "10.0.0.1:1234", want: "10.0.0.1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if got := commonhttp.GetClientIP(req); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestRequireMethod(t *testing.T) {
	handler := commonhttp.RequireMethod(http.MethodPost)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status 204 for allowed method, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405 for disallowed method, got %d", rec.Code)
	}
}

type errSentinel string

func (e errSentinel) Error() string { return string(e) }
