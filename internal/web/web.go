package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"slotcal/internal/calendar"
	"slotcal/internal/config"
	appLog "slotcal/internal/log"
	"slotcal/internal/service"
)

// Slots is the part of the service the HTTP API needs.
type Slots interface {
	Today() civil.Date
	Location() *time.Location
	AvailableSlotsOn(scope calendar.Scope) []calendar.Availability
	FreeSlotsOn(d civil.Date) []calendar.Availability
	InICSWindow(d civil.Date) bool
	Refresh(ctx context.Context) (service.Status, error)
	Status() service.Status
}

// Server provides the slot query API.
type Server struct {
	cfg   *config.Config
	slots Slots
	mux   *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, slots Slots) *Server {
	s := &Server{
		cfg:   cfg,
		slots: slots,
		mux:   http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the routes wrapped in the request ID, access log and
// (when configured) basic auth middlewares.
func (s *Server) Handler() http.Handler {
	m := []middleware{withRequestID, withAccessLog}
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		m = append(m, withBasicAuth(s.cfg.BasicAuth.Username, s.cfg.BasicAuth.Password))
	}
	return chain(s.mux, m...)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured. An empty
// username or password disables it.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// Run serves on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/available", s.handleAvailable)
	s.mux.HandleFunc("GET /api/free", s.handleFree)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type slotDTO struct {
	Scope   string     `json:"scope"`
	Start   string     `json:"start"`
	End     string     `json:"end"`
	StartAt *time.Time `json:"start_at,omitempty"`
	EndAt   *time.Time `json:"end_at,omitempty"`
}

type slotsResponse struct {
	On       string    `json:"on"`
	Timezone string    `json:"timezone"`
	Slots    []slotDTO `json:"slots"`

	// OutsideICSWindow marks free slots for a date the ICS feeds were not
	// expanded for; busy time from those feeds is missing.
	OutsideICSWindow bool `json:"outside_ics_window,omitempty"`
}

// GET /api/available?on=monday|2016-09-26
//   - on: weekday name or ISO date (default today)
//
// Occupations are ignored; a date without its own availability falls back
// to its weekday.
func (s *Server) handleAvailable(w http.ResponseWriter, r *http.Request) {
	var scope calendar.Scope = calendar.DateScope{Date: s.slots.Today()}
	if on := strings.TrimSpace(r.URL.Query().Get("on")); on != "" {
		parsed, err := calendar.ParseScope(on)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		scope = parsed
	}

	writeJSON(w, http.StatusOK, s.slotsResponse(scope.String(), s.slots.AvailableSlotsOn(scope)))
}

// GET /api/free?date=2016-09-26
//   - date: ISO date (default today)
//
// ICS busy time only covers today through horizon_days ahead, as of the
// last refresh. Dates outside that window are answered from the
// configured occupations alone and flagged with outside_ics_window.
func (s *Server) handleFree(w http.ResponseWriter, r *http.Request) {
	d := s.slots.Today()
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := civil.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%q is not a valid date", raw))
			return
		}
		d = parsed
	}

	resp := s.slotsResponse(d.String(), s.slots.FreeSlotsOn(d))
	resp.OutsideICSWindow = !s.slots.InICSWindow(d)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.slots.Status())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	status, err := s.slots.Refresh(r.Context())
	if err != nil {
		appLog.Error("api refresh failed", err, "request_id", RequestIDFromContext(r.Context()))
		writeError(w, http.StatusInternalServerError, "refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) slotsResponse(on string, slots []calendar.Availability) slotsResponse {
	loc := s.slots.Location()
	dtos := make([]slotDTO, 0, len(slots))
	for _, a := range slots {
		tr := a.TimeRange()
		dto := slotDTO{
			Scope: a.Scope().String(),
			Start: tr.Start().String(),
			End:   tr.End().String(),
		}
		if d, ok := a.Date(); ok {
			start, end := tr.WithDate(d, loc)
			dto.StartAt, dto.EndAt = &start, &end
		}
		dtos = append(dtos, dto)
	}
	return slotsResponse{On: on, Timezone: loc.String(), Slots: dtos}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
