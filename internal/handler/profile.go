package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/contribgraph/internal/apperror"
	"github.com/sakif/contribgraph/internal/service"
)

// ProfileHandler exposes profile registration, lookup and manual day
// recording.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewProfileHandler(profiles *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// HandleCreate registers a new profile.
//
// HTTP: POST /api/profiles
// BODY: {"username": "octocat"}
func (h *ProfileHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	profile, err := h.profiles.Register(r.Context(), req.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("profile registered", slog.String("username", profile.Username))
	writeJSON(w, http.StatusCreated, profile)
}

// HandleList returns all profiles.
//
// HTTP: GET /api/profiles
func (h *ProfileHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profiles.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

// HandleGet returns one profile by username.
//
// HTTP: GET /api/profiles/{username}
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Get(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleRecordDay stores one manual contribution sample.
//
// HTTP: POST /api/profiles/{username}/days
// BODY: {"day": "2026-02-20", "count": 4}
func (h *ProfileHandler) HandleRecordDay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Day   string `json:"day"`
		Count int    `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if err := h.profiles.RecordDay(r.Context(), r.PathValue("username"), req.Day, req.Count); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
