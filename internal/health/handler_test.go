package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) PingContext(context.Context) error { return f.err }

func TestLive(t *testing.T) {
	h := NewHandler(nil)
	rec := httptest.NewRecorder()
	h.Live(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Live status = %d, want 200", rec.Code)
	}
}

func TestStatus(t *testing.T) {
	h := NewHandler(nil)
	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Status status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"status\":\"healthy\"}\n" {
		t.Errorf("Status body = %q", got)
	}
}

func TestReadyWithHealthyDB(t *testing.T) {
	h := NewHandler(&fakePinger{})
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Ready status = %d, want 200", rec.Code)
	}
}

func TestReadyWithFailingDB(t *testing.T) {
	h := NewHandler(&fakePinger{err: errors.New("connection refused")})
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Ready status = %d, want 503", rec.Code)
	}
}

func TestReadyWithoutDB(t *testing.T) {
	h := NewHandler(nil)
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Ready status = %d, want 200", rec.Code)
	}
}
