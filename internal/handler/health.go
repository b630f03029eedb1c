package handler

// Package-level note: handlers are the glue between HTTP and the
// service layer. They parse the request, call one service method, and
// write the response; no business rules live here.

import (
	"log/slog"
	"net/http"
)

// Pinger is the slice of the storage layer health checks need.
type Pinger interface {
	Ping() error
}

// HealthHandler answers liveness and storage health probes.
type HealthHandler struct {
	db     Pinger
	logger *slog.Logger
}

func NewHealthHandler(db Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// HandleIndex names the service for anyone poking the root URL.
//
// HTTP: GET /
func (h *HealthHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "contribgraph",
		"status":  "ok",
	})
}

// HandleLive reports process liveness. It always succeeds while the
// process can serve requests at all.
//
// HTTP: GET /health/live
func (h *HealthHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleDB reports whether the database answers.
//
// HTTP: GET /health/db
func (h *HealthHandler) HandleDB(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(); err != nil {
		h.logger.Error("database health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
