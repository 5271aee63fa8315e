package handler

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"strings"

	"buildsight/internal/backend"
	"buildsight/internal/csvsniff"
	"buildsight/internal/mapping"
)

// maxUploadBytes bounds what the gateway will buffer for one CSV upload.
const maxUploadBytes = 512 << 20

// OpenSession creates a session, optionally resuming a draft dataset.
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var in struct {
		DatasetID string `json:"dataset_id"`
	}
	if r.ContentLength > 0 && !decodeBody(w, r, &in) {
		return
	}

	sess := h.store.Create(h.platform, h.SessionOpts)

	if id := strings.TrimSpace(in.DatasetID); id != "" {
		rec, err := h.platform.Dataset(r.Context(), id)
		if err != nil {
			h.store.Delete(r.Context(), sess.ID())
			writeActionError(w, err)
			return
		}
		h.restorePreview(r.Context(), rec)
		if err := sess.Resume(r.Context(), rec); err != nil {
			h.store.Delete(r.Context(), sess.ID())
			writeActionError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, sess.View())
}

// restorePreview re-sniffs the staged upload when a draft record comes back
// without a preview, so resuming never needs a second browser upload.
func (h *Handler) restorePreview(ctx context.Context, rec *backend.DatasetRecord) {
	if rec.Preview != nil || rec.FileName == "" || h.staging == nil {
		return
	}
	data, err := h.staging.Get(ctx, rec.ID, rec.FileName)
	if err != nil {
		log.Printf("handler: staged upload for %s: %v", rec.ID, err)
		return
	}
	p, err := csvsniff.Sniff(bytes.NewReader(data), rec.FileName, int64(len(data)))
	if err != nil {
		log.Printf("handler: re-sniff staged upload for %s: %v", rec.ID, err)
		return
	}
	rec.Preview = p
}

// GetSession returns the current state snapshot.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// CloseSession discards a session and its staged upload.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if sess, ok := h.store.Get(id); ok {
		if ds := sess.Dataset(); ds != nil && h.staging != nil {
			_ = h.staging.Remove(r.Context(), ds.ID)
		}
	}
	h.store.Delete(r.Context(), id)
	h.hub.Broadcast(id, "closed", nil)
	w.WriteHeader(http.StatusNoContent)
}

// WatchSession subscribes the caller to state pushes over WebSocket.
func (h *Handler) WatchSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.hub.Serve(w, r, sess.ID(), sess.View())
}

// AttachFile sniffs an uploaded CSV into the session preview. The file rides
// in a multipart form under "file".
func (h *Handler) AttachFile(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable file")
		return
	}
	size := hdr.Size
	if size <= 0 {
		size = int64(len(data))
	}
	preview, err := sess.AttachFile(hdr.Filename, size, data)
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// SetMeta records the dataset name and description.
func (h *Handler) SetMeta(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var in struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	sess.SetMeta(strings.TrimSpace(in.Name), strings.TrimSpace(in.Description))
	writeJSON(w, http.StatusOK, sess.View())
}

// SetFields overrides the column mapping.
func (h *Handler) SetFields(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var in mapping.Fields
	if !decodeBody(w, r, &in) {
		return
	}
	if err := sess.SetFields(in); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}
