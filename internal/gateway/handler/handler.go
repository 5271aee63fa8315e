// Package handler exposes wizard sessions over JSON HTTP. Handlers map the
// wizard's failure taxonomy onto status codes: local validation errors are
// 400s issued without touching the platform, platform failures surface as
// 502s with a short message, and nothing is retried automatically.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"buildsight/internal/backend"
	"buildsight/internal/csvsniff"
	"buildsight/internal/gateway/session"
	"buildsight/internal/gateway/ws"
	"buildsight/internal/staging"
	"buildsight/internal/wizard"
)

// Platform is everything the gateway needs from the backend client.
type Platform interface {
	wizard.Platform
	Dataset(ctx context.Context, id string) (*backend.DatasetRecord, error)
	FeatureLanguages(ctx context.Context) ([]string, error)
}

type Handler struct {
	store    *session.Store
	platform Platform
	staging  staging.Store
	hub      *ws.Hub
}

func New(store *session.Store, platform Platform, stage staging.Store, hub *ws.Hub) *Handler {
	return &Handler{store: store, platform: platform, staging: stage, hub: hub}
}

// SessionOpts wires change notifications: every successful mutation pushes
// the fresh view to WebSocket subscribers and snapshots the session. Exposed
// so restored sessions get the same hooks as new ones.
func (h *Handler) SessionOpts(id string) []wizard.Option {
	return []wizard.Option{wizard.WithNotify(func() { h.onChange(id) })}
}

func (h *Handler) onChange(id string) {
	sess, ok := h.store.Get(id)
	if !ok {
		return
	}
	h.hub.Broadcast(id, ws.EventState, sess.View())
	h.store.Persist(context.Background(), sess)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	id := r.PathValue("id")
	sess, ok := h.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown wizard session")
		return nil, false
	}
	return sess, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handler: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeActionError classifies a wizard action failure.
func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wizard.ErrNoPreview),
		errors.Is(err, wizard.ErrInvalidMapping),
		errors.Is(err, wizard.ErrUnknownRepo),
		errors.Is(err, wizard.ErrNoDataset):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, wizard.ErrWrongStep):
		writeError(w, http.StatusConflict, err.Error())
	default:
		var parseErr *csvsniff.ParseError
		var apiErr *backend.APIError
		if errors.As(err, &parseErr) {
			writeError(w, http.StatusBadRequest, parseErr.Error())
			return
		}
		if errors.As(err, &apiErr) {
			log.Printf("handler: platform error: %v", apiErr)
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		log.Printf("handler: action failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}
