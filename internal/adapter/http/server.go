// Package http exposes the dashboard API: the facility list with resolved
// coordinates, sector filters, the map view model, and the on-demand locate
// endpoint, alongside the usual health and metrics routes.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smkmitra/pkl-location-service/internal/domain"
	"github.com/smkmitra/pkl-location-service/internal/mapview"
	"github.com/smkmitra/pkl-location-service/internal/notify"
	"github.com/smkmitra/pkl-location-service/internal/pipeline"
)

// LocationService answers queries against the current facility snapshot.
type LocationService interface {
	CheckReadiness(ctx context.Context) error
	Facilities(query, sector string) []domain.Facility
	Sectors() []string
	Locate(ctx context.Context, id int64) (domain.Facility, error)
	Resolving(id int64) bool
}

// Server exposes the dashboard API plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	svc        LocationService
	mapctl     *mapview.Controller
	notices    *notify.Recorder
	logger     *slog.Logger
}

// NewServer wires all routes. notices may be nil when no user-facing
// notification recorder is configured.
func NewServer(addr string, svc LocationService, mapctl *mapview.Controller, notices *notify.Recorder, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:     svc,
		mapctl:  mapctl,
		notices: notices,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/locations", s.handleLocations)
	mux.HandleFunc("GET /api/v1/sectors", s.handleSectors)
	mux.HandleFunc("POST /api/v1/locations/{id}/locate", s.handleLocate)
	mux.HandleFunc("GET /api/v1/map", s.handleMap)
	mux.HandleFunc("POST /api/v1/map/interaction", s.handleInteraction)
	mux.HandleFunc("GET /api/v1/notices", s.handleNotices)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.svc.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// locationDTO is the wire shape of one facility row. Lat and Lng stay null
// until resolution succeeds so the client can distinguish "no coordinates"
// from coordinate zero.
type locationDTO struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Address       string   `json:"address,omitempty"`
	Sector        string   `json:"sector,omitempty"`
	Specialist    string   `json:"specialist,omitempty"`
	Quota         int      `json:"kuota"`
	ContactPerson string   `json:"contact_person,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	Email         string   `json:"email,omitempty"`
	Website       string   `json:"website,omitempty"`
	Lat           *float64 `json:"lat"`
	Lng           *float64 `json:"lng"`
	Resolving     bool     `json:"resolving"`
	MapsURL       string   `json:"maps_url"`
}

func (s *Server) toDTO(f domain.Facility) locationDTO {
	dto := locationDTO{
		ID:            f.ID,
		Name:          f.Name,
		Address:       f.Address,
		Sector:        f.Sector,
		Specialist:    f.Specialist,
		Quota:         f.Quota,
		ContactPerson: f.ContactPerson,
		Phone:         f.Phone,
		Email:         f.Email,
		Website:       f.Website,
		Resolving:     s.svc.Resolving(f.ID),
		MapsURL:       f.GoogleMapsURL(),
	}
	if f.Coord != nil {
		lat, lng := f.Coord.Lat, f.Coord.Lng
		dto.Lat, dto.Lng = &lat, &lng
	}
	return dto
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	sector := r.URL.Query().Get("sector")

	list := s.svc.Facilities(query, sector)
	dtos := make([]locationDTO, 0, len(list))
	for _, f := range list {
		dtos = append(dtos, s.toDTO(f))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": dtos})
}

func (s *Server) handleSectors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": s.svc.Sectors()})
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid facility id"})
		return
	}

	f, err := s.svc.Locate(r.Context(), id)
	if errors.Is(err, pipeline.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "facility not found"})
		return
	}
	if err != nil {
		s.logger.Error("locate failed", "facility_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "locate failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": s.toDTO(f)})
}

func (s *Server) handleMap(w http.ResponseWriter, _ *http.Request) {
	markers, viewport := s.mapctl.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"markers":  markers,
		"viewport": viewport,
	})
}

func (s *Server) handleInteraction(w http.ResponseWriter, _ *http.Request) {
	s.mapctl.UserInteracted()
	w.WriteHeader(http.StatusNoContent)
}

// handleNotices drains pending user-facing messages so the dashboard can
// show them as toasts. Messages are delivered at most once.
func (s *Server) handleNotices(w http.ResponseWriter, _ *http.Request) {
	msgs := []string{}
	if s.notices != nil {
		msgs = s.notices.Drain()
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": msgs})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
