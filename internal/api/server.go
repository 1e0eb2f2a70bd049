package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"watersafe/internal/config"
	"watersafe/internal/dataset"
	"watersafe/internal/engine"
	"watersafe/internal/letters"
	"watersafe/internal/mailer"
	"watersafe/internal/metrics"
	"watersafe/internal/model"
	"watersafe/internal/signup"
)

const (
	SessionHeader  = "X-Session-ID"
	defaultSession = "default"
)

// DatasetSource hands out the current snapshot of the source documents.
type DatasetSource interface {
	Load(ctx context.Context) (*dataset.Dataset, error)
	Invalidate()
}

type Options struct {
	Config     *config.Manager
	Engine     *engine.Engine
	Dataset    DatasetSource
	Summaries  *metrics.Store
	Collectors *metrics.Collectors
	Mailer     mailer.Mailer
	Logger     *slog.Logger
	Version    string
}

type Server struct {
	cfg        *config.Manager
	engine     *engine.Engine
	dataset    DatasetSource
	summaries  *metrics.Store
	collectors *metrics.Collectors
	mailer     mailer.Mailer
	sessions   *cache.Cache
	throttle   *signup.Throttle
	logger     *slog.Logger
	version    string
}

type statusResponse struct {
	Status     string        `json:"status"`
	Time       string        `json:"time"`
	Version    string        `json:"version"`
	ConfigPath string        `json:"config_path"`
	Dataset    datasetStatus `json:"dataset"`
	API        apiStatus     `json:"api"`
	Mail       bool          `json:"mail"`
	Storage    bool          `json:"storage"`
	Publish    bool          `json:"publish"`
}

type datasetStatus struct {
	Loaded       bool   `json:"loaded"`
	Systems      int    `json:"systems"`
	Contaminants int    `json:"contaminants"`
	LoadedAt     string `json:"loaded_at,omitempty"`
	Error        string `json:"error,omitempty"`
}

type apiStatus struct {
	Enabled    bool   `json:"enabled"`
	Addr       string `json:"addr"`
	SessionTTL string `json:"session_ttl"`
}

func NewServer(opts Options) *Server {
	cfgManager := opts.Config
	if cfgManager == nil {
		cfgManager = config.NewStaticManager(nil)
	}
	cfg := cfgManager.Get()
	ttl := cfg.API.SessionTTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Server{
		cfg:        cfgManager,
		engine:     opts.Engine,
		dataset:    opts.Dataset,
		summaries:  opts.Summaries,
		collectors: opts.Collectors,
		mailer:     opts.Mailer,
		sessions:   cache.New(ttl, ttl),
		throttle:   signup.NewThrottle(cfg.Signup.Cooldown),
		logger:     opts.Logger,
		version:    opts.Version,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)

	mux.HandleFunc("/systems", s.handleSystems)
	mux.HandleFunc("/systems/search", s.handleSearch)
	mux.HandleFunc("/systems/{pwsid}", s.handleSystem)
	mux.HandleFunc("/systems/{pwsid}/tasks", s.handleTasks)
	mux.HandleFunc("/systems/{pwsid}/tasks.csv", s.handleTasksCSV)
	mux.HandleFunc("/systems/{pwsid}/summary", s.handleSummary)
	mux.HandleFunc("/systems/{pwsid}/candidates", s.handleCandidates)
	mux.HandleFunc("/systems/{pwsid}/letters/auto", s.handleAutoGenerate)
	mux.HandleFunc("/systems/{pwsid}/letters", s.handleGenerate)

	mux.HandleFunc("/letters", s.handleLetters)
	mux.HandleFunc("/letters/{id}", s.handleLetter)
	mux.HandleFunc("/letters/{id}/pdf", s.handleLetterPDF)
	mux.HandleFunc("/letters/{id}/send", s.handleLetterSend)

	mux.HandleFunc("/contaminants", s.handleContaminants)
	mux.HandleFunc("/contaminants/categories", s.handleCategories)
	mux.HandleFunc("/contaminants/{name}", s.handleContaminant)

	mux.HandleFunc("/api/send-email", s.handleSendEmail)
	mux.HandleFunc("/api/health", s.handleHealth)

	if s.collectors != nil {
		mux.Handle("/metrics", s.collectors.Handler())
	}
	mux.HandleFunc("/summaries", s.handleSummaries)
	mux.HandleFunc("/summaries/{pwsid}", s.handleSummaries)
	mux.HandleFunc("/admin/clear", s.handleClear)
	return withCORS(mux)
}

// Start serves the API until ctx is cancelled. It returns nil when the API
// is disabled.
func Start(ctx context.Context, s *Server) *http.Server {
	if s == nil {
		return nil
	}
	current := s.cfg.Get().API
	if !current.Enabled {
		if s.logger != nil {
			s.logger.Info("api disabled")
		}
		return nil
	}
	if s.logger != nil {
		s.logger.Info("api enabled", "addr", current.Addr)
	}
	httpServer := &http.Server{Addr: current.Addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Error("api server error", "err", err)
			}
		}
	}()
	return httpServer
}

// session returns the ledger for the caller's X-Session-ID, creating it on
// first use. Each access pushes the expiry out by the session TTL.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *letters.Store {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		id = defaultSession
	}
	w.Header().Set(SessionHeader, id)
	limit := s.cfg.Get().Letters.SessionLimit
	_ = s.sessions.Add(id, letters.NewStore(limit), cache.DefaultExpiration)
	if v, ok := s.sessions.Get(id); ok {
		if store, ok := v.(*letters.Store); ok {
			s.sessions.Set(id, store, cache.DefaultExpiration)
			return store
		}
	}
	store := letters.NewStore(limit)
	s.sessions.Set(id, store, cache.DefaultExpiration)
	return store
}

func (s *Server) loadDataset(w http.ResponseWriter, r *http.Request) (*dataset.Dataset, bool) {
	if s.dataset == nil {
		writeError(w, http.StatusServiceUnavailable, "dataset not configured")
		return nil, false
	}
	ds, err := s.dataset.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return nil, false
	}
	return ds, true
}

func (s *Server) lookupSystem(w http.ResponseWriter, r *http.Request) (model.WaterSystem, bool) {
	ds, ok := s.loadDataset(w, r)
	if !ok {
		return model.WaterSystem{}, false
	}
	pwsid := r.PathValue("pwsid")
	sys, ok := ds.System(pwsid)
	if !ok {
		writeError(w, http.StatusNotFound, "water system not found: "+pwsid)
		return model.WaterSystem{}, false
	}
	return sys, true
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cfg := s.cfg.Get()
	resp := statusResponse{
		Status:     "ok",
		Time:       time.Now().UTC().Format(time.RFC3339Nano),
		Version:    s.version,
		ConfigPath: s.cfg.Path(),
		API:        apiStatus{Enabled: cfg.API.Enabled, Addr: cfg.API.Addr, SessionTTL: cfg.API.SessionTTL.String()},
		Mail:       cfg.Mail.Enabled,
		Storage:    cfg.Storage.Enabled,
		Publish:    cfg.Publish.Enabled,
	}
	if s.dataset != nil {
		if ds, err := s.dataset.Load(r.Context()); err != nil {
			resp.Dataset.Error = err.Error()
		} else {
			resp.Dataset = datasetStatus{
				Loaded:       true,
				Systems:      len(ds.Systems),
				Contaminants: len(ds.Contaminants),
				LoadedAt:     ds.LoadedAt.Format(time.RFC3339),
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.summaries == nil {
		writeJSON(w, http.StatusOK, map[string]any{"summaries": map[string]model.TaskSummary{}, "count": 0})
		return
	}
	if pwsid := r.PathValue("pwsid"); pwsid != "" {
		summary, updated, ok := s.summaries.Get(pwsid)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"pwsid":      pwsid,
			"updated_at": updated.Format(time.RFC3339Nano),
			"summary":    summary,
		})
		return
	}
	all := s.summaries.GetAll()
	writeJSON(w, http.StatusOK, map[string]any{
		"summaries": all,
		"count":     len(all),
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, _ := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	var req struct {
		Target string `json:"target"`
	}
	_ = json.Unmarshal(body, &req)
	target := strings.ToLower(strings.TrimSpace(req.Target))
	if target == "" {
		target = "all"
	}
	switch target {
	case "all":
		s.sessions.Flush()
		if s.summaries != nil {
			s.summaries.Clear()
		}
		if s.dataset != nil {
			s.dataset.Invalidate()
		}
	case "letters", "sessions":
		s.sessions.Flush()
	case "summaries":
		if s.summaries != nil {
			s.summaries.Clear()
		}
	case "dataset":
		if s.dataset != nil {
			s.dataset.Invalidate()
		}
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		return err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(body, dst)
}

// withCORS lets the browser dashboards, served from another origin, call
// the API.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+SessionHeader)
		w.Header().Set("Access-Control-Expose-Headers", SessionHeader)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
