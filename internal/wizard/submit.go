package wizard

import (
	"context"
	"fmt"

	"buildsight/internal/backend"
)

// Submit patches the dataset with the selected features and the CI provider
// of the first repository, then resets the wizard. An empty selection is
// deliberately permitted. On failure the wizard stays open and untouched so
// the user can retry.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.step != StepFeatures {
		s.mu.Unlock()
		return ErrWrongStep
	}
	if s.dataset == nil {
		s.mu.Unlock()
		return ErrNoDataset
	}
	id := s.dataset.ID
	selected := append([]string{}, s.selected...)
	provider := DefaultCIProvider
	if len(s.repos.WellFormed) > 0 {
		if cfg, ok := s.repoConfigs[s.repos.WellFormed[0]]; ok {
			provider = cfg.CIProvider
		}
	}
	s.mu.Unlock()

	if _, err := s.platform.UpdateDataset(ctx, id, backend.DatasetUpdate{
		SelectedFeatures: &selected,
		CIProvider:       &provider,
	}); err != nil {
		return fmt.Errorf("submit dataset: %w", err)
	}

	s.mu.Lock()
	s.resetLocked()
	s.submitted = true
	s.mu.Unlock()
	s.changed()
	return nil
}
