// Package wizard holds the dataset-configuration flow: upload a CSV of CI
// builds, configure the repositories it references, pick the features to
// extract, submit. One Session owns all wizard state; views and the gateway
// mutate it only through the action methods here.
package wizard

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"buildsight/internal/backend"
	"buildsight/internal/csvsniff"
	"buildsight/internal/featdag"
	"buildsight/internal/mapping"
	"buildsight/internal/repoid"
)

// Step is the wizard's position. Transitions are strictly one step forward
// or backward; Back below MinStep exits the wizard instead.
type Step int

const (
	StepUpload   Step = 1
	StepRepos    Step = 2
	StepFeatures Step = 3
)

// DefaultCIProvider seeds every new repository configuration.
const DefaultCIProvider = "github_actions"

// Platform is the slice of the backend client the wizard drives.
type Platform interface {
	Upload(ctx context.Context, file []byte, fileName, name, description string) (*backend.DatasetRecord, error)
	UpdateDataset(ctx context.Context, id string, upd backend.DatasetUpdate) (*backend.DatasetRecord, error)
	Features(ctx context.Context, filter backend.FeatureFilter) ([]featdag.FeatureDefinition, error)
	FeatureDAG(ctx context.Context) (*featdag.Graph, error)
	RepoLanguages(ctx context.Context, fullName string) ([]string, error)
	CachedRepoLanguages(fullName string) ([]string, bool)
	TestFrameworks(ctx context.Context) (*backend.Frameworks, error)
	Templates(ctx context.Context) ([]backend.TemplateRecord, error)
}

// Local validation failures; they block a transition synchronously, before
// any network call.
var (
	ErrNoPreview      = errors.New("wizard: no file has been sniffed")
	ErrInvalidMapping = errors.New("wizard: field mapping is incomplete or references unknown columns")
	ErrWrongStep      = errors.New("wizard: action not valid on the current step")
	ErrUnknownRepo    = errors.New("wizard: repository is not part of this dataset")
	ErrNoDataset      = errors.New("wizard: no dataset record exists yet")
)

// RepoConfig is the per-repository configuration gathered on step 2.
type RepoConfig struct {
	Languages  []string `json:"languages"`
	Frameworks []string `json:"frameworks"`
	CIProvider string   `json:"ci_provider"`
}

// Session is the whole wizard state. Safe for concurrent use; every exported
// method takes the session lock.
type Session struct {
	mu       sync.Mutex
	platform Platform
	notify   func()

	id          string
	name        string
	description string

	preview  *csvsniff.Preview
	fields   mapping.Fields
	fileData []byte

	dataset *backend.DatasetRecord

	repos         repoid.Partition
	repoConfigs   map[string]*RepoConfig
	repoLanguages map[string][]string
	activeRepo    string

	enabledSources featdag.SourceSet
	selected       []string

	catalog       []featdag.CategoryGroup
	templates     []backend.TemplateRecord
	graph         *featdag.Graph
	catalogLoaded bool

	step      Step
	minStep   Step
	advancing bool
	submitted bool
}

// Option tweaks a new session.
type Option func(*Session)

// WithNotify registers a callback fired after every successful mutation,
// outside the session lock. The gateway uses it to push state over
// WebSocket.
func WithNotify(fn func()) Option {
	return func(s *Session) { s.notify = fn }
}

// New opens a fresh wizard session on step 1.
func New(id string, platform Platform, opts ...Option) *Session {
	s := &Session{
		id:             id,
		platform:       platform,
		repoConfigs:    make(map[string]*RepoConfig),
		repoLanguages:  make(map[string][]string),
		enabledSources: featdag.NewSourceSet(),
		selected:       []string{},
		step:           StepUpload,
		minStep:        StepUpload,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// SetMeta records the dataset name and description shown on step 1.
func (s *Session) SetMeta(name, description string) {
	s.mu.Lock()
	s.name = name
	s.description = description
	s.mu.Unlock()
	s.changed()
}

// AttachFile sniffs data as the dataset source file and replaces the preview
// wholesale. A successful sniff reruns mapping inference; a failed one
// leaves previous state untouched.
func (s *Session) AttachFile(name string, size int64, data []byte) (*csvsniff.Preview, error) {
	p, err := csvsniff.Sniff(bytes.NewReader(data), name, size)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.preview = p
	s.fileData = data
	s.fields = mapping.Infer(p.Columns)
	s.mu.Unlock()
	s.changed()
	return p, nil
}

// SetFields overrides the inferred column mapping.
func (s *Session) SetFields(f mapping.Fields) error {
	s.mu.Lock()
	if s.preview == nil {
		s.mu.Unlock()
		return ErrNoPreview
	}
	if !f.Valid(s.preview.Columns) {
		s.mu.Unlock()
		return ErrInvalidMapping
	}
	s.fields = f
	s.mu.Unlock()
	s.changed()
	return nil
}

// FileData returns the raw bytes of the attached file, or nil.
func (s *Session) FileData() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileData
}

// Dataset returns the backend dataset record once one exists.
func (s *Session) Dataset() *backend.DatasetRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataset
}

// Submitted reports whether the session finished successfully.
func (s *Session) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

func (s *Session) changed() {
	if s.notify != nil {
		s.notify()
	}
}

// reset returns the session to its just-opened shape. Caller holds the lock.
func (s *Session) resetLocked() {
	s.name = ""
	s.description = ""
	s.preview = nil
	s.fields = mapping.Fields{}
	s.fileData = nil
	s.dataset = nil
	s.repos = repoid.Partition{}
	s.repoConfigs = make(map[string]*RepoConfig)
	s.repoLanguages = make(map[string][]string)
	s.activeRepo = ""
	s.enabledSources = featdag.NewSourceSet()
	s.selected = []string{}
	s.catalog = nil
	s.templates = nil
	s.graph = nil
	s.catalogLoaded = false
	s.step = StepUpload
	s.minStep = StepUpload
}
