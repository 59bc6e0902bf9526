package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/goliatone/go-userinfo/components/userinfo"
	"github.com/goliatone/go-userinfo/components/userinfo/commands"
	"github.com/goliatone/go-userinfo/components/userinfo/queries"
)

// Handlers exposes net/http endpoints backed by the shared executor.
type Handlers struct {
	Executor Executor
	Viewer   func(*http.Request) userinfo.ViewerContext
}

// HandleRerun triggers a search re-run. An empty body is accepted.
func (h *Handlers) HandleRerun(w http.ResponseWriter, r *http.Request) {
	var payload commands.RerunSearchInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if payload.UserID == "" {
		payload.UserID = h.viewer(r).UserID
	}
	if err := h.Executor.Rerun(r.Context(), payload); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// HandleSnapshot returns the current container content.
func (h *Handlers) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Executor.Snapshot(r.Context(), queries.SnapshotInput{Viewer: h.viewer(r)})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handlers) viewer(r *http.Request) userinfo.ViewerContext {
	if h.Viewer == nil {
		return userinfo.ViewerContext{}
	}
	return h.Viewer(r)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
