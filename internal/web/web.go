package web

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"tzpick/internal/blackout"
	"tzpick/internal/config"
	"tzpick/internal/constraint"
	appLog "tzpick/internal/log"
	"tzpick/internal/model"
	"tzpick/internal/zone"
)

const maxRequestBody = 1 << 20

// Server exposes the converter, presets and validator to the picker UI
// over a small JSON API.
type Server struct {
	cfg   *config.Config
	conv  *zone.Converter
	store *blackout.Store
	now   func() time.Time
	mux   *http.ServeMux

	// Presets only change when the day changes in the requested zone, so
	// responses are cached per (zone, day) for a short TTL.
	presetsMu    sync.RWMutex
	presetsCache map[presetsKey]*presetsCache
}

// Option customizes a Server.
type Option func(*Server)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer constructs a new Server. store may be nil, in which case the
// static constraints from cfg are used.
func NewServer(cfg *config.Config, conv *zone.Converter, store *blackout.Store, opts ...Option) *Server {
	s := &Server{
		cfg:          cfg,
		conv:         conv,
		store:        store,
		now:          time.Now,
		mux:          http.NewServeMux(),
		presetsCache: make(map[presetsKey]*presetsCache),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := s.logRequests(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password means auth is off.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="tzpick", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		appLog.Debug("api request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/zones", s.handleZones)
	s.mux.HandleFunc("GET /api/offset", s.handleOffset)
	s.mux.HandleFunc("GET /api/civil", s.handleCivil)
	s.mux.HandleFunc("GET /api/instant", s.handleInstant)
	s.mux.HandleFunc("GET /api/format", s.handleFormat)
	s.mux.HandleFunc("GET /api/transitions", s.handleTransitions)
	s.mux.HandleFunc("GET /api/presets", s.handlePresets)
	s.mux.HandleFunc("GET /api/constraints", s.handleConstraints)
	s.mux.HandleFunc("POST /api/validate/date", s.handleValidateDate)
	s.mux.HandleFunc("POST /api/validate/range", s.handleValidateRange)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// defaultZone is the configured zone, or UTC without a config.
func (s *Server) defaultZone() string {
	if s.cfg == nil || s.cfg.Timezone == "" {
		return "UTC"
	}
	return s.cfg.Timezone
}

// zoneParam reads ?zone=, falling back to the configured zone.
func (s *Server) zoneParam(r *http.Request) string {
	if z := r.URL.Query().Get("zone"); z != "" {
		return z
	}
	return s.defaultZone()
}

// instantParam reads an RFC 3339 ?at=, defaulting to now.
func (s *Server) instantParam(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("at")
	if v == "" {
		return s.now(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid at %q: want RFC 3339", v)
	}
	return t, nil
}

// constraints returns the live blackout-aware constraints.
func (s *Server) constraints() (constraint.Constraints, error) {
	if s.store != nil {
		return s.store.Constraints(), nil
	}
	if s.cfg == nil {
		return constraint.Constraints{}, nil
	}
	return s.cfg.PickerConstraints()
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
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

// writeZoneError maps converter errors to responses: unknown zones and
// styles are the caller's fault, anything else is ours.
func writeZoneError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, zone.ErrUnknownTimezone):
		writeError(w, http.StatusBadRequest, "unknown timezone: "+name)
	case errors.Is(err, zone.ErrUnknownStyle):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		appLog.Error("zone operation failed", err, "zone", name)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// civilParam parses a civil date-time like "2025-03-09T02:30".
func civilParam(v string) (model.Civil, error) {
	if v == "" {
		return model.Civil{}, errors.New("civil is required")
	}
	return model.ParseCivil(v)
}
