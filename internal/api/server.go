package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"heraldbot/internal/broadcast"
	"heraldbot/internal/delivery"
	"heraldbot/internal/store"
	logx "heraldbot/pkg/logx"
)

const maxBodyBytes = 1 << 20

// Core is the slice of the broadcast service the HTTP shim calls into.
// *service.Service satisfies it.
type Core interface {
	SubmitImmediate(ctx context.Context, guildID string, target broadcast.Target, payload broadcast.Payload) (*delivery.Report, error)
	SubmitScheduled(ctx context.Context, guildID string, target broadcast.Target, payload broadcast.Payload, runAt time.Time, createdBy string) (store.Job, error)
	CancelJob(ctx context.Context, jobID string) error
	GetJob(ctx context.Context, jobID string) (store.Job, error)
	ListJobs(ctx context.Context, limit int) []store.Job
}

// Config controls the HTTP ingress.
type Config struct {
	Addr string
	// Key is the shared secret expected in X-API-Key. Empty disables auth,
	// which only makes sense behind a loopback bind.
	Key string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c Config) addr() string {
	if c.Addr == "" {
		return "127.0.0.1:3000"
	}
	return c.Addr
}

// Server exposes the broadcast operations over HTTP for external callers
// (dashboards, automations). It shares the validation path with the rest of
// the ingress surface; nothing here bypasses the core service.
type Server struct {
	cfg  Config
	core Core
	log  logx.Logger

	srv *http.Server
}

func NewServer(cfg Config, core Core, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Server{cfg: cfg, core: core, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	authed := r.NewRoute().Subrouter()
	authed.Use(s.auth)
	authed.HandleFunc("/broadcast", s.handleBroadcast).Methods(http.MethodPost)
	authed.HandleFunc("/jobs", s.handleListJobs).Methods(http.MethodGet)
	authed.HandleFunc("/jobs", s.handleCreateJob).Methods(http.MethodPost)
	authed.HandleFunc("/jobs/{id}", s.handleGetJob).Methods(http.MethodGet)
	authed.HandleFunc("/jobs/{id}", s.handleCancelJob).Methods(http.MethodDelete)

	s.srv = &http.Server{
		Addr:         cfg.addr(),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ListenAndServe blocks until the server stops. http.ErrServerClosed is
// swallowed as the normal shutdown result.
func (s *Server) ListenAndServe() error {
	s.log.Info("api listening", logx.String("addr", s.srv.Addr))
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Key != "" {
			key := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.Key)) != 1 {
				writeJSON(w, http.StatusUnauthorized, errBody("unauthorized"))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func errBody(msg string) map[string]any {
	return map[string]any{"ok": false, "error": msg}
}
