package handler

import (
	"log"
	"net/http"

	"buildsight/internal/wizard"
)

// Next advances the wizard one step. After a successful step-1 advance the
// uploaded bytes are staged under the new dataset id so a later resume can
// re-sniff without a browser re-upload.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	wasUpload := sess.Step() == wizard.StepUpload
	if err := sess.Next(r.Context()); err != nil {
		writeActionError(w, err)
		return
	}
	if wasUpload && h.staging != nil {
		if ds, data := sess.Dataset(), sess.FileData(); ds != nil && len(data) > 0 {
			v := sess.View()
			if err := h.staging.Put(r.Context(), ds.ID, v.Preview.FileName, data); err != nil {
				// Staging is best-effort; the dataset itself is already
				// persisted on the platform.
				log.Printf("handler: stage upload for %s: %v", ds.ID, err)
			}
		}
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// Back steps backward. Below the session's floor the wizard exits: state is
// discarded and the session removed.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	exited := sess.Back()
	if exited {
		h.store.Delete(r.Context(), sess.ID())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"exited": exited,
		"state":  sess.View(),
	})
}

// SelectRepo makes one repository active on step 2.
func (h *Handler) SelectRepo(w http.ResponseWriter, r *http.Request) {
	h.repoAction(w, r, func(sess *wizard.Session, in repoActionInput) error {
		return sess.SelectRepo(in.Repo)
	})
}

// ToggleLanguage flips a source language on a repository configuration.
func (h *Handler) ToggleLanguage(w http.ResponseWriter, r *http.Request) {
	h.repoAction(w, r, func(sess *wizard.Session, in repoActionInput) error {
		return sess.ToggleLanguage(in.Repo, in.Language)
	})
}

// ToggleFramework flips a test framework on a repository configuration.
func (h *Handler) ToggleFramework(w http.ResponseWriter, r *http.Request) {
	h.repoAction(w, r, func(sess *wizard.Session, in repoActionInput) error {
		return sess.ToggleFramework(in.Repo, in.Framework)
	})
}

// SetCIProvider sets the CI provider on a repository configuration.
func (h *Handler) SetCIProvider(w http.ResponseWriter, r *http.Request) {
	h.repoAction(w, r, func(sess *wizard.Session, in repoActionInput) error {
		return sess.SetCIProvider(in.Repo, in.Provider)
	})
}

type repoActionInput struct {
	Repo      string `json:"repo"`
	Language  string `json:"language"`
	Framework string `json:"framework"`
	Provider  string `json:"provider"`
}

func (h *Handler) repoAction(w http.ResponseWriter, r *http.Request, fn func(*wizard.Session, repoActionInput) error) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var in repoActionInput
	if !decodeBody(w, r, &in) {
		return
	}
	if err := fn(sess, in); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// ToggleSource flips one data source for the feature step.
func (h *Handler) ToggleSource(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var in struct {
		Source string `json:"source"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	sess.ToggleSource(in.Source)
	writeJSON(w, http.StatusOK, sess.View())
}

// ToggleFeature flips one feature in the selection.
func (h *Handler) ToggleFeature(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var in struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if err := sess.ToggleFeature(r.Context(), in.Name); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// ApplyTemplate replaces the selection with a template's valid features.
func (h *Handler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var in struct {
		TemplateID string `json:"template_id"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	if err := sess.ApplyTemplate(r.Context(), in.TemplateID); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// SelectRunnable replaces the selection with everything the filtered graph
// can produce.
func (h *Handler) SelectRunnable(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.SelectRunnable(r.Context()); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

// Catalog returns the filtered feature catalog plus templates.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	categories, err := sess.Catalog(r.Context())
	if err != nil {
		writeActionError(w, err)
		return
	}
	templates, err := sess.Templates(r.Context())
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": categories,
		"templates":  templates,
	})
}

// Graph returns the filtered dependency graph.
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	g, err := sess.Graph(r.Context())
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Submit finalizes the dataset and tears the session down on success.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	ds := sess.Dataset()
	if err := sess.Submit(r.Context()); err != nil {
		writeActionError(w, err)
		return
	}
	datasetID := ""
	if ds != nil {
		datasetID = ds.ID
		if h.staging != nil {
			_ = h.staging.Remove(r.Context(), ds.ID)
		}
	}
	h.store.Delete(r.Context(), sess.ID())
	writeJSON(w, http.StatusOK, map[string]any{
		"submitted":  true,
		"dataset_id": datasetID,
	})
}
