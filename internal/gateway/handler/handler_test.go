package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"buildsight/internal/backend"
	"buildsight/internal/csvsniff"
	"buildsight/internal/featdag"
	"buildsight/internal/gateway/session"
	"buildsight/internal/gateway/ws"
	"buildsight/internal/mapping"
	"buildsight/internal/staging"
	"buildsight/internal/wizard"
)

type fakePlatform struct {
	mu        sync.Mutex
	datasets  map[string]*backend.DatasetRecord
	languages map[string][]string
	cached    map[string][]string
	uploads   int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		datasets:  map[string]*backend.DatasetRecord{},
		languages: map[string][]string{},
		cached:    map[string][]string{},
	}
}

func (f *fakePlatform) Upload(_ context.Context, _ []byte, fileName, name, description string) (*backend.DatasetRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	rec := &backend.DatasetRecord{ID: fmt.Sprintf("ds-%d", f.uploads), Name: name, Description: description, FileName: fileName}
	f.datasets[rec.ID] = rec
	return rec, nil
}

func (f *fakePlatform) UpdateDataset(_ context.Context, id string, upd backend.DatasetUpdate) (*backend.DatasetRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.datasets[id]
	if !ok {
		return nil, &backend.APIError{Status: http.StatusNotFound, Message: "no such dataset"}
	}
	if upd.MappedFields != nil {
		rec.MappedFields = *upd.MappedFields
	}
	if upd.SelectedFeatures != nil {
		rec.SelectedFeatures = *upd.SelectedFeatures
	}
	if upd.CIProvider != nil {
		rec.CIProvider = *upd.CIProvider
	}
	return rec, nil
}

func (f *fakePlatform) Features(context.Context, backend.FeatureFilter) ([]featdag.FeatureDefinition, error) {
	return []featdag.FeatureDefinition{
		{Name: "build_number", Category: "general", Source: "metadata"},
		{Name: "lines_added", Category: "churn", Source: "git"},
	}, nil
}

func (f *fakePlatform) FeatureDAG(context.Context) (*featdag.Graph, error) {
	return &featdag.Graph{
		Nodes: []featdag.Node{
			{ID: "dataset_rows", Kind: featdag.NodeResource},
			{ID: "meta", Kind: featdag.NodeExtractor, Features: []string{"build_number"}, Requires: []string{"dataset_rows"}},
		},
	}, nil
}

func (f *fakePlatform) RepoLanguages(_ context.Context, fullName string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	langs := f.languages[fullName]
	f.cached[fullName] = langs
	return langs, nil
}

func (f *fakePlatform) CachedRepoLanguages(fullName string) ([]string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	langs, ok := f.cached[fullName]
	return langs, ok
}

func (f *fakePlatform) TestFrameworks(context.Context) (*backend.Frameworks, error) {
	return &backend.Frameworks{Frameworks: []string{"junit"}}, nil
}

func (f *fakePlatform) Templates(context.Context) ([]backend.TemplateRecord, error) {
	return []backend.TemplateRecord{{ID: "tpl-1", FeatureNames: []string{"build_number", "stale"}}}, nil
}

func (f *fakePlatform) Dataset(_ context.Context, id string) (*backend.DatasetRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.datasets[id]
	if !ok {
		return nil, &backend.APIError{Status: http.StatusNotFound, Message: "no such dataset"}
	}
	return rec, nil
}

func (f *fakePlatform) FeatureLanguages(context.Context) ([]string, error) {
	return []string{"go", "ruby"}, nil
}

func newTestServer(t *testing.T, platform Platform) (*httptest.Server, staging.Store) {
	t.Helper()
	store := session.NewStore(time.Hour, nil)
	stage := staging.NewMemoryStore()
	h := New(store, platform, stage, ws.NewHub())
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, stage
}

func postJSON(t *testing.T, url string, in any) (*http.Response, []byte) {
	t.Helper()
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	resp, err := http.Post(url, "application/json", &body)
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	data := readBody(t, resp)
	return resp, data
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return buf.Bytes()
}

func openSession(t *testing.T, srv *httptest.Server) wizard.View {
	t.Helper()
	resp, data := postJSON(t, srv.URL+"/api/wizard/sessions", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("open session: %d %s", resp.StatusCode, data)
	}
	var v wizard.View
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return v
}

func attachCSV(t *testing.T, srv *httptest.Server, sessionID, csv string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "builds.csv")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write([]byte(csv)); err != nil {
		t.Fatalf("write file: %v", err)
	}
	mw.Close()
	resp, err := http.Post(srv.URL+"/api/wizard/sessions/"+sessionID+"/file", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	return resp
}

const sampleCSV = "id,repo,extra\n42,octo/hello,x\n"

func TestWizardFlowOverHTTP(t *testing.T) {
	platform := newFakePlatform()
	platform.languages["octo/hello"] = []string{"ruby"}
	srv, _ := newTestServer(t, platform)

	v := openSession(t, srv)
	base := srv.URL + "/api/wizard/sessions/" + v.SessionID

	resp := attachCSV(t, srv, v.SessionID, sampleCSV)
	data := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("attach: %d %s", resp.StatusCode, data)
	}

	resp, data = postJSON(t, base+"/meta", map[string]string{"name": "my dataset"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("meta: %d %s", resp.StatusCode, data)
	}

	resp, data = postJSON(t, base+"/next", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("next: %d %s", resp.StatusCode, data)
	}
	var state wizard.View
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state.Step != wizard.StepRepos {
		t.Fatalf("step = %d", state.Step)
	}
	if len(state.Repos.WellFormed) != 1 || state.Repos.WellFormed[0] != "octo/hello" {
		t.Fatalf("repos = %+v", state.Repos)
	}

	resp, data = postJSON(t, base+"/repos/ci-provider", map[string]string{"repo": "octo/hello", "provider": "circleci"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ci-provider: %d %s", resp.StatusCode, data)
	}

	resp, data = postJSON(t, base+"/next", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("next to features: %d %s", resp.StatusCode, data)
	}

	resp, data = postJSON(t, base+"/features/toggle", map[string]string{"name": "build_number"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle feature: %d %s", resp.StatusCode, data)
	}

	resp, data = postJSON(t, base+"/submit", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit: %d %s", resp.StatusCode, data)
	}
	var out struct {
		Submitted bool   `json:"submitted"`
		DatasetID string `json:"dataset_id"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode submit: %v", err)
	}
	if !out.Submitted || out.DatasetID == "" {
		t.Fatalf("submit response = %+v", out)
	}

	rec := platform.datasets[out.DatasetID]
	if rec.CIProvider != "circleci" {
		t.Fatalf("ci provider = %q", rec.CIProvider)
	}
	if len(rec.SelectedFeatures) != 1 || rec.SelectedFeatures[0] != "build_number" {
		t.Fatalf("selected = %v", rec.SelectedFeatures)
	}

	// Session is gone after a successful submit.
	getResp, err := http.Get(base)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	readBody(t, getResp)
	if getResp.StatusCode != http.StatusNotFound {
		t.Fatalf("session survived submit: %d", getResp.StatusCode)
	}
}

func TestNextWithoutFileIs400(t *testing.T) {
	srv, _ := newTestServer(t, newFakePlatform())
	v := openSession(t, srv)
	resp, data := postJSON(t, srv.URL+"/api/wizard/sessions/"+v.SessionID+"/next", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d %s", resp.StatusCode, data)
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	srv, _ := newTestServer(t, newFakePlatform())
	resp, _ := postJSON(t, srv.URL+"/api/wizard/sessions/nope/next", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestResumeDraftPlacesOnStepTwo(t *testing.T) {
	platform := newFakePlatform()
	srv, _ := newTestServer(t, platform)

	// Seed a draft: mapped fields set, no features selected.
	rec, err := platform.Upload(context.Background(), nil, "builds.csv", "draft", "")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	rec.MappedFields = mapping.Fields{BuildIDColumn: "id", RepoColumn: "repo"}
	rec.Preview = mustPreview(t)

	resp, data := postJSON(t, srv.URL+"/api/wizard/sessions", map[string]string{"dataset_id": rec.ID})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("resume: %d %s", resp.StatusCode, data)
	}
	var v wizard.View
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Step != wizard.StepRepos || v.MinStep != wizard.StepRepos {
		t.Fatalf("step/min = %d/%d", v.Step, v.MinStep)
	}

	// Back below the floor exits and removes the session.
	resp, data = postJSON(t, srv.URL+"/api/wizard/sessions/"+v.SessionID+"/back", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("back: %d %s", resp.StatusCode, data)
	}
	var out struct {
		Exited bool `json:"exited"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Exited {
		t.Fatalf("back below floor should exit")
	}
}

func TestResumeResniffsStagedUpload(t *testing.T) {
	platform := newFakePlatform()
	srv, stage := newTestServer(t, platform)

	// The platform record knows the file but carries no preview; only the
	// gateway's staged copy can rebuild it.
	rec, err := platform.Upload(context.Background(), nil, "builds.csv", "draft", "")
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	rec.MappedFields = mapping.Fields{BuildIDColumn: "id", RepoColumn: "repo"}
	if err := stage.Put(context.Background(), rec.ID, "builds.csv", []byte(sampleCSV)); err != nil {
		t.Fatalf("stage: %v", err)
	}

	resp, data := postJSON(t, srv.URL+"/api/wizard/sessions", map[string]string{"dataset_id": rec.ID})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("resume: %d %s", resp.StatusCode, data)
	}
	var v wizard.View
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Step != wizard.StepRepos {
		t.Fatalf("step = %d, preview not rebuilt from staging", v.Step)
	}
	if v.Preview == nil || len(v.Preview.Columns) != 3 {
		t.Fatalf("preview = %+v", v.Preview)
	}
	if len(v.Repos.WellFormed) != 1 || v.Repos.WellFormed[0] != "octo/hello" {
		t.Fatalf("repos = %+v", v.Repos)
	}
}

func TestResumeUnknownDatasetIs502(t *testing.T) {
	srv, _ := newTestServer(t, newFakePlatform())
	resp, _ := postJSON(t, srv.URL+"/api/wizard/sessions", map[string]string{"dataset_id": "ghost"})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestMetaEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, newFakePlatform())

	resp, err := http.Get(srv.URL + "/api/meta/languages")
	if err != nil {
		t.Fatalf("get languages: %v", err)
	}
	data := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), "ruby") {
		t.Fatalf("languages: %d %s", resp.StatusCode, data)
	}

	resp, err = http.Get(srv.URL + "/api/meta/frameworks")
	if err != nil {
		t.Fatalf("get frameworks: %v", err)
	}
	data = readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), "junit") {
		t.Fatalf("frameworks: %d %s", resp.StatusCode, data)
	}
}

func mustPreview(t *testing.T) *csvsniff.Preview {
	t.Helper()
	p, err := csvsniff.Sniff(strings.NewReader(sampleCSV), "builds.csv", int64(len(sampleCSV)))
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	return p
}
