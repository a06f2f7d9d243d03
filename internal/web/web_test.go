package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"slotcal/internal/config"
	"slotcal/internal/service"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) http.Handler {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Occupations = []config.OccupationConfig{{Date: "2026-09-22", Slots: []string{"09:00-10:00", "17:00-19:00"}}}
	if mutate != nil {
		mutate(cfg)
	}
	svc, err := service.New(cfg, nil, service.WithNow(func() time.Time {
		return time.Date(2026, 9, 21, 7, 0, 0, 0, time.UTC)
	}))
	if err != nil {
		t.Fatalf("service.New returned error: %v", err)
	}
	return NewServer(cfg, svc).Handler()
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeSlots(t *testing.T, rec *httptest.ResponseRecorder) slotsResponse {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp slotsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder, status int) string {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp.Error
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t, nil), http.MethodGet, "/health")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}

func TestAvailable(t *testing.T) {
	h := newTestServer(t, nil)

	t.Run("defaults to today and falls back to the weekday", func(t *testing.T) {
		resp := decodeSlots(t, do(t, h, http.MethodGet, "/api/available"))
		if resp.On != "2026-09-21" || resp.Timezone != "UTC" {
			t.Fatalf("unexpected header fields: %+v", resp)
		}
		if len(resp.Slots) != 2 {
			t.Fatalf("expected 2 slots, got %+v", resp.Slots)
		}
		first := resp.Slots[0]
		if first.Scope != "monday" || first.Start != "09:00" || first.End != "13:00" || first.StartAt != nil {
			t.Fatalf("unexpected slot %+v", first)
		}
	})

	t.Run("weekday query", func(t *testing.T) {
		resp := decodeSlots(t, do(t, h, http.MethodGet, "/api/available?on=saturday"))
		if resp.On != "saturday" || len(resp.Slots) != 0 {
			t.Fatalf("expected no saturday slots, got %+v", resp)
		}
	})

	t.Run("rejects unknown scope", func(t *testing.T) {
		msg := decodeError(t, do(t, h, http.MethodGet, "/api/available?on=funday"), http.StatusBadRequest)
		if msg != "funday is not a valid day of the week" {
			t.Fatalf("unexpected error %q", msg)
		}
	})
}

func TestFree(t *testing.T) {
	h := newTestServer(t, nil)

	resp := decodeSlots(t, do(t, h, http.MethodGet, "/api/free?date=2026-09-22"))
	if resp.On != "2026-09-22" || len(resp.Slots) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	want := []struct{ start, end string }{{"10:00", "13:00"}, {"14:00", "17:00"}}
	for i, w := range want {
		got := resp.Slots[i]
		if got.Scope != "2026-09-22" || got.Start != w.start || got.End != w.end {
			t.Fatalf("slot %d: expected %s-%s on 2026-09-22, got %+v", i, w.start, w.end, got)
		}
	}
	if got := resp.Slots[0].StartAt; got == nil || !got.Equal(time.Date(2026, 9, 22, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start_at %v", got)
	}

	today := decodeSlots(t, do(t, h, http.MethodGet, "/api/free"))
	if today.On != "2026-09-21" || len(today.Slots) != 2 {
		t.Fatalf("unexpected default response %+v", today)
	}

	msg := decodeError(t, do(t, h, http.MethodGet, "/api/free?date=2026-13-01"), http.StatusBadRequest)
	if msg != `"2026-13-01" is not a valid date` {
		t.Fatalf("unexpected error %q", msg)
	}
}

func TestFree_FlagsDatesOutsideICSWindow(t *testing.T) {
	h := newTestServer(t, func(cfg *config.Config) {
		cfg.ICS = []config.ICSConfig{{ID: "work", URL: "https://example.com/work.ics"}}
	})

	if resp := decodeSlots(t, do(t, h, http.MethodGet, "/api/free?date=2026-09-22")); !resp.OutsideICSWindow {
		t.Fatalf("expected the flag before the first refresh, got %+v", resp)
	}

	if rec := do(t, h, http.MethodPost, "/api/refresh"); rec.Code != http.StatusOK {
		t.Fatalf("refresh failed: %d %s", rec.Code, rec.Body.String())
	}

	if resp := decodeSlots(t, do(t, h, http.MethodGet, "/api/free?date=2026-09-22")); resp.OutsideICSWindow {
		t.Fatalf("date inside the window must not be flagged, got %+v", resp)
	}
	if resp := decodeSlots(t, do(t, h, http.MethodGet, "/api/free?date=2026-12-01")); !resp.OutsideICSWindow {
		t.Fatalf("date past the horizon must be flagged, got %+v", resp)
	}
}

func TestRefresh(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, http.MethodPost, "/api/refresh")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var status service.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Occupations != 2 || status.RefreshedAt.IsZero() {
		t.Fatalf("unexpected status %+v", status)
	}

	if rec := do(t, h, http.MethodGet, "/api/refresh"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET, got %d", rec.Code)
	}

	if rec := do(t, h, http.MethodGet, "/api/status"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from status, got %d", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, http.MethodGet, "/health")
	if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
		t.Fatalf("expected a generated UUID request id, got %q", rec.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("expected caller request id to be echoed, got %q", got)
	}
}

func TestBasicAuth(t *testing.T) {
	h := newTestServer(t, func(cfg *config.Config) {
		cfg.BasicAuth = &config.BasicAuthConfig{Username: "me", Password: "secret"}
	})

	if rec := do(t, h, http.MethodGet, "/health"); rec.Code != http.StatusOK {
		t.Fatalf("health must not require auth, got %d", rec.Code)
	}

	rec := do(t, h, http.MethodGet, "/api/free")
	decodeError(t, rec, http.StatusUnauthorized)
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Fatalf("expected a WWW-Authenticate challenge")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/free", nil)
	req.SetBasicAuth("me", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/free", nil)
	req.SetBasicAuth("me", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with credentials, got %d", rec.Code)
	}
}

func TestSecureCompare(t *testing.T) {
	if !secureCompare("secret", "secret") || secureCompare("secret", "secreT") || secureCompare("a", "ab") {
		t.Fatalf("secureCompare gave a wrong answer")
	}
}
