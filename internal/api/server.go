// Package api exposes the grid builder over HTTP. The server computes every
// grid per request and stores nothing.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/drivebylabs/stratgrid/pkg/buildinfo"
	"github.com/drivebylabs/stratgrid/pkg/errors"
	"github.com/drivebylabs/stratgrid/pkg/geo"
	"github.com/drivebylabs/stratgrid/pkg/geojson"
	"github.com/drivebylabs/stratgrid/pkg/grid"
)

// Server handles grid queries over HTTP.
type Server struct {
	logger   *log.Logger
	maxCells int
}

// New creates a Server. maxCells caps per-request grid sizes; <= 0 disables
// the cap.
func New(logger *log.Logger, maxCells int) *Server {
	return &Server{logger: logger, maxCells: maxCells}
}

// Router returns the chi router with all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)

	r.Get("/v1/health", s.handleHealth)
	r.Get("/v1/grid", s.handleGrid)

	return r
}

// ListenAndServe runs the server on addr until ctx is cancelled, then shuts
// down gracefully with a five second drain window.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.logger.Infof("Listening on %s", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("Server stopped")
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// handleGrid builds a grid from query parameters and responds with the
// GeoJSON document: GET /v1/grid?west=&south=&east=&north=&side=&unit=&limit=&stamp=
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var coords [4]float64
	for i, name := range []string{"west", "south", "east", "north"} {
		v, err := parseFloatParam(q.Get(name), name)
		if err != nil {
			writeError(w, err)
			return
		}
		coords[i] = v
	}
	sideValue, err := parseFloatParam(q.Get("side"), "side")
	if err != nil {
		writeError(w, err)
		return
	}

	unit := geo.UnitKilometers
	if raw := q.Get("unit"); raw != "" {
		if unit, err = geo.ParseUnit(raw); err != nil {
			writeError(w, err)
			return
		}
	}

	maxCells := s.maxCells
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, errors.New(errors.ErrCodeArgumentParse, "limit %q must be an integer", raw))
			return
		}
		maxCells = limit
	}

	box, err := geo.NewBBox(coords[0], coords[1], coords[2], coords[3])
	if err != nil {
		writeError(w, err)
		return
	}
	side, err := geo.NewCellSize(sideValue, unit)
	if err != nil {
		writeError(w, err)
		return
	}

	g, err := grid.Build(box, side, grid.WithMaxCells(maxCells))
	if err != nil {
		writeError(w, err)
		return
	}

	var opts []grid.FCOption
	if q.Get("stamp") == "true" {
		opts = append(opts, grid.WithProvenance())
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if err := geojson.Write(g.FeatureCollection(opts...), w, false); err != nil {
		s.logger.Errorf("write response: %v", err)
	}
}

func parseFloatParam(raw, name string) (float64, error) {
	if raw == "" {
		return 0, errors.New(errors.ErrCodeArgumentParse, "missing query parameter %q", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeArgumentParse, "%s %q must be a number", name, raw)
	}
	return v, nil
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeArgumentParse,
		errors.ErrCodeInvalidBounds,
		errors.ErrCodeInvalidSize,
		errors.ErrCodeInvalidUnit,
		errors.ErrCodeGridTooLarge:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorBody{Error: errors.UserMessage(err), Code: string(errors.GetCode(err))})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// logRequests logs method, path, status, and duration for each request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debugf("%s %s -> %d (%s)", r.Method, r.URL.RequestURI(), rec.status, time.Since(start).Round(time.Millisecond))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
