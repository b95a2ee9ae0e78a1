// Package api exposes the router over HTTP: the message surface the popup and
// selector front ends speak, the download observation feed, and the current
// menu tree.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"dlrouter/internal/logging"
	"dlrouter/internal/router"
	"dlrouter/internal/settings"
)

type Server struct {
	rt  *router.Router
	log *logging.Logger

	mu   sync.Mutex
	menu []router.MenuItem
}

func New(rt *router.Router, log *logging.Logger, initial settings.Settings) *Server {
	return &Server{rt: rt, log: log, menu: router.BuildMenu(initial)}
}

// UpdateMenu rebuilds the cached menu tree; wired as the router's settings
// change hook.
func (s *Server) UpdateMenu(set settings.Settings) {
	items := router.BuildMenu(set)
	s.mu.Lock()
	s.menu = items
	s.mu.Unlock()
	s.log.Debugf("menu rebuilt with %d items", len(items))
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/message", s.handleMessage)
	mux.HandleFunc("/events/download-created", s.handleDownloadCreated)
	mux.HandleFunc("/menu", s.handleMenu)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req router.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, router.Response{OK: false, Error: "invalid request body"})
		return
	}
	writeJSON(w, http.StatusOK, s.rt.HandleMessage(r.Context(), req))
}

// eventResult is the feed's reply: the router's decision plus the escalated
// error, if issuing the replacement download failed.
type eventResult struct {
	router.Decision
	Error string `json:"error,omitempty"`
}

func (s *Server) handleDownloadCreated(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var ev router.DownloadEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "invalid event body", http.StatusBadRequest)
		return
	}
	dec, err := s.rt.HandleDownloadCreated(r.Context(), ev)
	res := eventResult{Decision: dec}
	if err != nil {
		res.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	menu := s.menu
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, menu)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServe runs the API until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
