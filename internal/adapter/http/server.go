package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/vessel-position-service/internal/domain"
	"github.com/jszwec/csvutil"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultHistoryLimit = 50

// VesselService answers position and history queries.
type VesselService interface {
	Resolve(ctx context.Context, query string) (domain.EnrichedRecord, error)
	ListHistory(ctx context.Context, query string, limit int) (domain.VesselKey, []domain.HistoryEntry, error)
}

// Server exposes the vessel endpoints plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	svc        VesselService
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the vessel, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, svc VesselService, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// A resolution may wait on every provider plus inference.
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:    svc,
		logger: logger,
	}

	mux.HandleFunc("GET /vessel-position", s.handlePosition)
	mux.HandleFunc("GET /api/vessel-position", s.handlePosition)
	mux.HandleFunc("GET /vessel-history", s.handleHistory)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

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

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "Ship name or MMSI is required")
		return
	}

	rec, err := s.svc.Resolve(r.Context(), name)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	if wantsJSON(r) {
		sharedobs.WriteJSON(w, http.StatusOK, rec)
		return
	}
	if err := renderRecord(w, rec); err != nil {
		s.logger.Error("render vessel page", "mmsi", rec.Position.Key, "error", err)
	}
}

// historyRow is the flat CSV shape of a history entry.
type historyRow struct {
	ID            string    `csv:"id"`
	CreatedAt     time.Time `csv:"created_at"`
	Origin        string    `csv:"origin"`
	Provenance    string    `csv:"provenance"`
	MMSI          string    `csv:"mmsi"`
	Name          string    `csv:"name"`
	Latitude      float64   `csv:"latitude"`
	Longitude     float64   `csv:"longitude"`
	Speed         float64   `csv:"speed"`
	Course        float64   `csv:"course"`
	ObservedAt    time.Time `csv:"observed_at"`
	Weather       string    `csv:"weather"`
	TemperatureC  float64   `csv:"temperature_c"`
	StatusMessage string    `csv:"status"`
}

func toHistoryRow(e domain.HistoryEntry) historyRow {
	p, w := e.Record.Position, e.Record.Weather
	return historyRow{
		ID:            e.ID,
		CreatedAt:     e.CreatedAt,
		Origin:        e.OriginMessage,
		Provenance:    string(e.Record.Provenance),
		MMSI:          p.Key.String(),
		Name:          p.DisplayName,
		Latitude:      p.Latitude,
		Longitude:     p.Longitude,
		Speed:         p.Speed,
		Course:        p.CourseOverGround,
		ObservedAt:    p.ObservedAt,
		Weather:       w.Condition,
		TemperatureC:  w.TemperatureC,
		StatusMessage: e.Record.StatusMessage,
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("mmsi"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "mmsi is required")
		return
	}

	limit := defaultHistoryLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	format := q.Get("format")
	if format != "" && format != "json" && format != "csv" {
		writeError(w, http.StatusBadRequest, "format must be json or csv")
		return
	}

	key, entries, err := s.svc.ListHistory(r.Context(), query, limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	if format == "csv" {
		rows := make([]historyRow, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, toHistoryRow(e))
		}
		body, err := csvutil.Marshal(rows)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+key.String()+`-history.csv"`)
		w.WriteHeader(http.StatusOK)
		w.Write(body) //nolint:errcheck // client may have gone away
		return
	}

	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"mmsi": key, "entries": entries})
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrVesselNotFound), errors.Is(err, domain.ErrNoPositionData):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrHistoryUnsupported):
		writeError(w, http.StatusNotImplemented, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		s.logger.Info("request ended before position data was known", "error", err)
		writeError(w, http.StatusGatewayTimeout, "position lookup did not finish in time")
	default:
		s.logger.Error("request failed", "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Internal Server Error",
			"details": err.Error(),
		})
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
