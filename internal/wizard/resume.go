package wizard

import (
	"context"

	"buildsight/internal/backend"
	"buildsight/internal/repoid"
)

// Resume hydrates the session from a persisted draft dataset and places the
// wizard on the first step whose prerequisites are unmet. That step becomes
// the floor: Back below it exits instead of stepping.
//
// Placement: step 1 if the mapping is incomplete, step 2 if no features are
// selected yet, step 3 otherwise. From step 2 on, the repository list is
// re-derived from the persisted preview and detection runs for repositories
// not yet cached.
func (s *Session) Resume(ctx context.Context, rec *backend.DatasetRecord) error {
	if rec == nil {
		return ErrNoDataset
	}

	s.mu.Lock()
	s.dataset = rec
	s.name = rec.Name
	s.description = rec.Description
	s.preview = rec.Preview
	s.fields = rec.MappedFields
	s.selected = append([]string{}, rec.SelectedFeatures...)

	target := StepUpload
	if s.preview != nil && s.fields.Valid(s.preview.Columns) {
		if len(s.selected) == 0 {
			target = StepRepos
		} else {
			target = StepFeatures
		}
	}

	var toDetect []string
	if target >= StepRepos {
		s.repos = repoid.Extract(s.preview, s.fields.RepoColumn)
		s.seedRepoConfigsLocked()
		if len(s.repos.WellFormed) > 0 {
			s.activeRepo = s.repos.WellFormed[0]
		}
		for _, repo := range s.repos.WellFormed {
			if langs, ok := s.platform.CachedRepoLanguages(repo); ok {
				s.repoLanguages[repo] = append([]string{}, langs...)
			} else {
				toDetect = append(toDetect, repo)
			}
		}
	}
	s.step = target
	s.minStep = target
	s.mu.Unlock()

	if target == StepFeatures {
		// First entry into the feature step this session.
		if err := s.loadCatalog(ctx); err != nil {
			return err
		}
	}
	s.detectLanguages(ctx, toDetect)
	s.changed()
	return nil
}
