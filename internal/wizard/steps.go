package wizard

import (
	"context"
	"fmt"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"

	"buildsight/internal/backend"
	"buildsight/internal/repoid"
)

// languageDetectParallel bounds how many repository language detections run
// at once.
const languageDetectParallel = 8

// Step returns the current step.
func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// MinStep returns the floor below which Back exits the wizard.
func (s *Session) MinStep() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minStep
}

// Next advances one step. The transition's network work must resolve before
// the step changes; on any failure the wizard stays where it is. Transitions
// are serialized: while one is in flight, a second Next (a double click, a
// retried request) is rejected rather than run against the platform again.
func (s *Session) Next(ctx context.Context) error {
	s.mu.Lock()
	if s.advancing {
		s.mu.Unlock()
		return ErrWrongStep
	}
	s.advancing = true
	step := s.step
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.advancing = false
		s.mu.Unlock()
	}()

	var err error
	switch step {
	case StepUpload:
		err = s.advanceFromUpload(ctx)
	case StepRepos:
		err = s.advanceFromRepos(ctx)
	default:
		err = ErrWrongStep
	}
	if err != nil {
		return err
	}
	s.changed()
	return nil
}

// Back steps backward. Below the minimum step it reports exited=true and
// discards all in-memory state; re-editing an already-satisfied step is only
// reachable from the step directly above it.
func (s *Session) Back() (exited bool) {
	s.mu.Lock()
	if s.step-1 < s.minStep {
		s.resetLocked()
		s.mu.Unlock()
		s.changed()
		return true
	}
	s.step--
	s.mu.Unlock()
	s.changed()
	return false
}

// advanceFromUpload runs the step-1 gate: persist the dataset record, persist
// the mapping, extract repositories, enter step 2, detect languages.
func (s *Session) advanceFromUpload(ctx context.Context) error {
	s.mu.Lock()
	if s.preview == nil {
		s.mu.Unlock()
		return ErrNoPreview
	}
	if !s.fields.Valid(s.preview.Columns) {
		s.mu.Unlock()
		return ErrInvalidMapping
	}
	preview := s.preview
	fields := s.fields
	name, description := s.name, s.description
	dataset := s.dataset
	fileData := s.fileData
	s.mu.Unlock()

	if dataset == nil {
		created, err := s.platform.Upload(ctx, fileData, preview.FileName, name, description)
		if err != nil {
			return fmt.Errorf("upload dataset: %w", err)
		}
		dataset = created
	} else {
		updated, err := s.platform.UpdateDataset(ctx, dataset.ID, backend.DatasetUpdate{
			Name:        &name,
			Description: &description,
		})
		if err != nil {
			return fmt.Errorf("update dataset: %w", err)
		}
		dataset = updated
	}

	if _, err := s.platform.UpdateDataset(ctx, dataset.ID, backend.DatasetUpdate{
		MappedFields: &fields,
	}); err != nil {
		return fmt.Errorf("persist field mapping: %w", err)
	}

	part := repoid.Extract(preview, fields.RepoColumn)

	s.mu.Lock()
	s.dataset = dataset
	s.repos = part
	s.seedRepoConfigsLocked()
	s.step = StepRepos
	if len(part.WellFormed) > 0 {
		s.activeRepo = part.WellFormed[0]
	}
	s.mu.Unlock()

	s.detectLanguages(ctx, part.WellFormed)
	return nil
}

// advanceFromRepos enters the feature step. The catalog and templates are
// loaded once per session, jointly; a load failure keeps the wizard on
// step 2.
func (s *Session) advanceFromRepos(ctx context.Context) error {
	if err := s.ensureCatalog(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.step = StepFeatures
	s.mu.Unlock()
	return nil
}

// seedRepoConfigsLocked creates one default config per well-formed
// repository. Existing configs are kept; configs are never removed within a
// session except by full reset.
func (s *Session) seedRepoConfigsLocked() {
	for _, repo := range s.repos.WellFormed {
		if _, ok := s.repoConfigs[repo]; !ok {
			s.repoConfigs[repo] = &RepoConfig{
				Languages:  []string{},
				Frameworks: []string{},
				CIProvider: DefaultCIProvider,
			}
		}
	}
}

// detectLanguages runs detection for every repository concurrently. One
// repository failing yields an empty language set for that repository only;
// siblings and the already-performed step transition are unaffected.
func (s *Session) detectLanguages(ctx context.Context, repos []string) {
	if len(repos) == 0 {
		return
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(languageDetectParallel)
	for _, repo := range repos {
		g.Go(func() error {
			langs, err := s.platform.RepoLanguages(ctx, repo)
			if err != nil {
				log.Printf("wizard %s: detect languages for %s: %v", s.id, repo, err)
				langs = []string{}
			}
			sort.Strings(langs)
			s.mu.Lock()
			s.repoLanguages[repo] = langs
			s.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}
