/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server exposes the read-only admin API: health, metrics, station
// status, play log, and recent log lines. Configuration editing and
// statistics browsing live in external tooling.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/friendsincode/skald/internal/config"
	"github.com/friendsincode/skald/internal/events"
	"github.com/friendsincode/skald/internal/logbuffer"
	"github.com/friendsincode/skald/internal/playlog"
	"github.com/friendsincode/skald/internal/telemetry"
	"github.com/friendsincode/skald/internal/version"
)

// Server bundles the admin HTTP surface.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server

	hub       *statusHub
	logBuffer *logbuffer.Buffer
	playLog   *playlog.Service

	bgCancel context.CancelFunc
}

// New constructs the admin server. playLog may be nil when persistence is
// disabled.
func New(cfg *config.Config, bus *events.Bus, logBuf *logbuffer.Buffer, playLog *playlog.Service, logger zerolog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	s := &Server{
		cfg:       cfg,
		logger:    logger.With().Str("component", "server").Logger(),
		router:    router,
		hub:       newStatusHub(bus),
		logBuffer: logBuf,
		playLog:   playLog,
	}

	router.Get("/healthz", s.handleHealth)
	router.Handle("/metrics", telemetry.Handler())
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/playlog", s.handlePlayLog)
		r.Get("/failures", s.handleFailures)
		r.Get("/logs", s.handleLogs)
	})

	return s
}

// Start runs the status hub and the HTTP listener.
func (s *Server) Start() error {
	var bgCtx context.Context
	bgCtx, s.bgCancel = context.WithCancel(context.Background())
	go s.hub.run(bgCtx)

	s.httpServer = &http.Server{
		Addr:         s.cfg.HTTPAddr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("admin API listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin API: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP listener and the status hub.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.bgCancel != nil {
		s.bgCancel()
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"stations": s.hub.snapshot(),
	})
}

func (s *Server) handlePlayLog(w http.ResponseWriter, r *http.Request) {
	if s.playLog == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "play log not configured"})
		return
	}

	plays, err := s.playLog.RecentPlays(r.Context(), r.URL.Query().Get("station"), queryInt(r, "limit"))
	if err != nil {
		s.logger.Error().Err(err).Msg("play log query failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plays": plays})
}

func (s *Server) handleFailures(w http.ResponseWriter, r *http.Request) {
	if s.playLog == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "play log not configured"})
		return
	}

	failures, err := s.playLog.RecentFailures(r.Context(), r.URL.Query().Get("station"), queryInt(r, "limit"))
	if err != nil {
		s.logger.Error().Err(err).Msg("failure log query failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"failures": failures})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.logBuffer == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "log buffer not configured"})
		return
	}

	limit := queryInt(r, "limit")
	if limit == 0 {
		limit = 200
	}
	entries := s.logBuffer.Recent(limit, r.URL.Query().Get("station"))
	writeJSON(w, http.StatusOK, map[string]any{"logs": entries})
}

func queryInt(r *http.Request, key string) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			return parsed
		}
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
