package handler

import "net/http"

// Languages proxies the platform's extractor language list so the dashboard
// needs only the gateway's origin.
func (h *Handler) Languages(w http.ResponseWriter, r *http.Request) {
	langs, err := h.platform.FeatureLanguages(r.Context())
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"languages": langs})
}

// Frameworks proxies the platform's test-framework catalog.
func (h *Handler) Frameworks(w http.ResponseWriter, r *http.Request) {
	fw, err := h.platform.TestFrameworks(r.Context())
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fw)
}
