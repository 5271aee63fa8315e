package handler

import "net/http"

// Routes mounts every wizard endpoint on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/wizard/sessions", h.OpenSession)
	mux.HandleFunc("GET /api/wizard/sessions/{id}", h.GetSession)
	mux.HandleFunc("DELETE /api/wizard/sessions/{id}", h.CloseSession)
	mux.HandleFunc("GET /api/wizard/sessions/{id}/watch", h.WatchSession)

	mux.HandleFunc("POST /api/wizard/sessions/{id}/file", h.AttachFile)
	mux.HandleFunc("POST /api/wizard/sessions/{id}/meta", h.SetMeta)
	mux.HandleFunc("POST /api/wizard/sessions/{id}/fields", h.SetFields)

	mux.HandleFunc("POST /api/wizard/sessions/{id}/next", h.Next)
	mux.HandleFunc("POST /api/wizard/sessions/{id}/back", h.Back)

	mux.HandleFunc("POST /api/wizard/sessions/{id}/repos/select", h.SelectRepo)
	mux.HandleFunc("POST /api/wizard/sessions/{id}/repos/language", h.ToggleLanguage)
	mux.HandleFunc("POST /api/wizard/sessions/{id}/repos/framework", h.ToggleFramework)
	mux.HandleFunc("POST /api/wizard/sessions/{id}/repos/ci-provider", h.SetCIProvider)

	mux.HandleFunc("POST /api/wizard/sessions/{id}/sources/toggle", h.ToggleSource)
	mux.HandleFunc("GET /api/wizard/sessions/{id}/catalog", h.Catalog)
	mux.HandleFunc("GET /api/wizard/sessions/{id}/graph", h.Graph)
	mux.HandleFunc("POST /api/wizard/sessions/{id}/features/toggle", h.ToggleFeature)
	mux.HandleFunc("POST /api/wizard/sessions/{id}/features/template", h.ApplyTemplate)
	mux.HandleFunc("POST /api/wizard/sessions/{id}/features/select-runnable", h.SelectRunnable)

	mux.HandleFunc("POST /api/wizard/sessions/{id}/submit", h.Submit)

	mux.HandleFunc("GET /api/meta/languages", h.Languages)
	mux.HandleFunc("GET /api/meta/frameworks", h.Frameworks)

	return mux
}
