// Package api exposes the simulator over HTTP: submit a run config, get a
// balance report back, and browse the archive of past runs.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aldenhart/dungeon-balance-go/internal/report"
	"github.com/aldenhart/dungeon-balance-go/internal/sim"
	"github.com/aldenhart/dungeon-balance-go/internal/store"
)

// Server handles HTTP requests
type Server struct {
	db        store.DB
	logger    *log.Logger
	startTime time.Time
}

// NewServer creates a new API server. db may be nil, in which case runs are
// not archived.
func NewServer(db store.DB) *Server {
	return &Server{
		db:        db,
		logger:    log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile),
		startTime: time.Now(),
	}
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/simulate", s.handleSimulate)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Delete("/runs/{id}", s.handleDeleteRun)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
		"archive": s.db != nil,
	})
}

// simulateResponse carries both the structured report and its rendered text.
type simulateResponse struct {
	RunID    string         `json:"run_id,omitempty"`
	Report   *report.Report `json:"report"`
	Rendered string         `json:"rendered"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var cfg sim.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rep, err := sim.Run(r.Context(), cfg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, sim.ErrInvalidConfig) {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err.Error())
		return
	}

	resp := simulateResponse{Report: rep, Rendered: rep.Render()}
	if s.db != nil {
		run, err := archiveRun(s.db, &cfg, rep)
		if err != nil {
			s.logger.Printf("archive run seed=%s failed: %v", cfg.Seed, err)
		} else {
			resp.RunID = run.ID
		}
	}

	s.logger.Printf("simulate seed=%s trials=%d win_rate=%.3f", cfg.Seed, rep.Trials, rep.WinRate())
	s.writeJSON(w, http.StatusOK, resp)
}

// archiveRun persists a completed run with its headline numbers.
func archiveRun(db store.DB, cfg *sim.Config, rep *report.Report) (*store.Run, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	repJSON, err := json.Marshal(rep)
	if err != nil {
		return nil, err
	}

	run := &store.Run{
		Seed:       rep.Seed,
		Trials:     rep.Trials,
		Wins:       rep.Wins,
		WinRate:    rep.WinRate(),
		Verdict:    rep.Verdict(),
		MeanTurns:  rep.MeanTurns(),
		ConfigJSON: string(cfgJSON),
		ReportJSON: string(repJSON),
	}
	if err := db.SaveRun(run); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, http.StatusNotImplemented, "run archive is disabled")
		return
	}

	q := store.RunsQuery{
		Verdict: r.URL.Query().Get("verdict"),
		Page:    queryInt(r, "page", 1),
		PerPage: queryInt(r, "per_page", 20),
	}
	list, err := s.db.ListRuns(q)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, http.StatusNotImplemented, "run archive is disabled")
		return
	}

	run, err := s.db.GetRun(chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, http.StatusNotImplemented, "run archive is disabled")
		return
	}

	err := s.db.DeleteRun(chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeError writes a structured error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
