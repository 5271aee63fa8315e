package wizard

import (
	"buildsight/internal/backend"
	"buildsight/internal/csvsniff"
	"buildsight/internal/mapping"
	"buildsight/internal/repoid"
)

// View is a read-only snapshot of the session for the UI.
type View struct {
	SessionID   string `json:"session_id"`
	Step        Step   `json:"step"`
	MinStep     Step   `json:"min_step"`
	Name        string `json:"name"`
	Description string `json:"description"`

	Preview *csvsniff.Preview `json:"preview,omitempty"`
	Fields  mapping.Fields    `json:"fields"`

	DatasetID string `json:"dataset_id,omitempty"`

	Repos         repoid.Partition      `json:"repos"`
	RepoConfigs   map[string]RepoConfig `json:"repo_configs"`
	RepoLanguages map[string][]string   `json:"repo_languages"`
	ActiveRepo    string                `json:"active_repo,omitempty"`

	EnabledSources []string `json:"enabled_sources"`
	Selected       []string `json:"selected_features"`
	Submitted      bool     `json:"submitted"`
}

// View snapshots the session state.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		SessionID:      s.id,
		Step:           s.step,
		MinStep:        s.minStep,
		Name:           s.name,
		Description:    s.description,
		Preview:        s.preview,
		Fields:         s.fields,
		Repos:          s.repos,
		RepoConfigs:    make(map[string]RepoConfig, len(s.repoConfigs)),
		RepoLanguages:  make(map[string][]string, len(s.repoLanguages)),
		ActiveRepo:     s.activeRepo,
		EnabledSources: s.enabledSources.Slice(),
		Selected:       append([]string{}, s.selected...),
		Submitted:      s.submitted,
	}
	if s.dataset != nil {
		v.DatasetID = s.dataset.ID
	}
	for repo, cfg := range s.repoConfigs {
		v.RepoConfigs[repo] = copyConfig(cfg)
	}
	for repo, langs := range s.repoLanguages {
		v.RepoLanguages[repo] = append([]string{}, langs...)
	}
	return v
}

// Snapshot is the persistable slice of a session, used by the gateway's
// session store to survive restarts. Catalog, templates, and graph are not
// persisted; they are re-fetched on demand. File bytes live in staging.
type Snapshot struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Preview        *csvsniff.Preview      `json:"preview,omitempty"`
	Fields         mapping.Fields         `json:"fields"`
	Dataset        *backend.DatasetRecord `json:"dataset,omitempty"`
	Repos          repoid.Partition       `json:"repos"`
	RepoConfigs    map[string]RepoConfig  `json:"repo_configs"`
	RepoLanguages  map[string][]string    `json:"repo_languages"`
	ActiveRepo     string                 `json:"active_repo,omitempty"`
	EnabledSources []string               `json:"enabled_sources"`
	Selected       []string               `json:"selected_features"`
	Step           Step                   `json:"step"`
	MinStep        Step                   `json:"min_step"`
}

// Snapshot captures the persistable session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:             s.id,
		Name:           s.name,
		Description:    s.description,
		Preview:        s.preview,
		Fields:         s.fields,
		Dataset:        s.dataset,
		Repos:          s.repos,
		RepoConfigs:    make(map[string]RepoConfig, len(s.repoConfigs)),
		RepoLanguages:  make(map[string][]string, len(s.repoLanguages)),
		ActiveRepo:     s.activeRepo,
		EnabledSources: s.enabledSources.Slice(),
		Selected:       append([]string{}, s.selected...),
		Step:           s.step,
		MinStep:        s.minStep,
	}
	for repo, cfg := range s.repoConfigs {
		snap.RepoConfigs[repo] = copyConfig(cfg)
	}
	for repo, langs := range s.repoLanguages {
		snap.RepoLanguages[repo] = append([]string{}, langs...)
	}
	return snap
}

// Restore rebuilds a session from a snapshot.
func Restore(snap Snapshot, platform Platform, opts ...Option) *Session {
	s := New(snap.ID, platform, opts...)
	s.name = snap.Name
	s.description = snap.Description
	s.preview = snap.Preview
	s.fields = snap.Fields
	s.dataset = snap.Dataset
	s.repos = snap.Repos
	s.activeRepo = snap.ActiveRepo
	s.selected = append([]string{}, snap.Selected...)
	s.step = snap.Step
	s.minStep = snap.MinStep
	if s.step == 0 {
		s.step = StepUpload
	}
	if s.minStep == 0 {
		s.minStep = StepUpload
	}
	for _, src := range snap.EnabledSources {
		s.enabledSources[src] = struct{}{}
	}
	for repo, cfg := range snap.RepoConfigs {
		c := cfg
		s.repoConfigs[repo] = &c
	}
	for repo, langs := range snap.RepoLanguages {
		s.repoLanguages[repo] = append([]string{}, langs...)
	}
	return s
}
