package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/contribgraph/internal/apperror"
	"github.com/sakif/contribgraph/internal/service"
)

// SyncHandler triggers synchronization runs and exposes their history.
type SyncHandler struct {
	syncs  *service.SyncService
	logger *slog.Logger
}

func NewSyncHandler(syncs *service.SyncService, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{syncs: syncs, logger: logger}
}

// HandleSync refreshes a profile's stored days from GitHub.
//
// HTTP: POST /api/profiles/{username}/sync
// Auth: Authorization: Bearer <github token>
//
// The GitHub token rides the request and is forwarded upstream for this
// one fetch; it is never persisted. A denial from the sync gate comes
// back as 429 with a Retry-After header.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.syncs.Sync(r.Context(), r.PathValue("username"), token)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// HandleHistory lists a profile's recent sync runs, newest first.
//
// HTTP: GET /api/profiles/{username}/sync?limit=20
func (h *SyncHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, apperror.ValidationFailed("limit", "limit must be a positive integer"))
			return
		}
		limit = n
	}

	runs, err := h.syncs.History(r.Context(), r.PathValue("username"), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, runs)
}

// bearerToken pulls the GitHub token out of the Authorization header.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", apperror.Unauthorized("a GitHub token is required in the Authorization header")
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", apperror.Unauthorized("Authorization header must be of the form: Bearer <token>")
	}

	return strings.TrimSpace(token), nil
}
