package wizard

import "buildsight/internal/repoid"

// Repos returns the well-formed/malformed partition derived from the
// preview.
func (s *Session) Repos() repoid.Partition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repos
}

// ActiveRepo returns the repository currently being configured.
func (s *Session) ActiveRepo() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeRepo
}

// SelectRepo makes repo the active one on step 2.
func (s *Session) SelectRepo(repo string) error {
	s.mu.Lock()
	if _, ok := s.repoConfigs[repo]; !ok {
		s.mu.Unlock()
		return ErrUnknownRepo
	}
	s.activeRepo = repo
	s.mu.Unlock()
	s.changed()
	return nil
}

// ToggleLanguage flips a selected source language on a repository config.
func (s *Session) ToggleLanguage(repo, language string) error {
	return s.mutateConfig(repo, func(cfg *RepoConfig) {
		cfg.Languages = toggle(cfg.Languages, language)
	})
}

// ToggleFramework flips a selected test framework on a repository config.
func (s *Session) ToggleFramework(repo, framework string) error {
	return s.mutateConfig(repo, func(cfg *RepoConfig) {
		cfg.Frameworks = toggle(cfg.Frameworks, framework)
	})
}

// SetCIProvider sets the CI provider of a repository config.
func (s *Session) SetCIProvider(repo, provider string) error {
	return s.mutateConfig(repo, func(cfg *RepoConfig) {
		cfg.CIProvider = provider
	})
}

// RepoConfigFor returns a copy of one repository's configuration.
func (s *Session) RepoConfigFor(repo string) (RepoConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.repoConfigs[repo]
	if !ok {
		return RepoConfig{}, false
	}
	return copyConfig(cfg), true
}

// DetectedLanguages returns the detection result for one repository; ok is
// false while detection has not completed for it.
func (s *Session) DetectedLanguages(repo string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	langs, ok := s.repoLanguages[repo]
	if !ok {
		return nil, false
	}
	out := make([]string, len(langs))
	copy(out, langs)
	return out, true
}

func (s *Session) mutateConfig(repo string, fn func(*RepoConfig)) error {
	s.mu.Lock()
	cfg, ok := s.repoConfigs[repo]
	if !ok {
		s.mu.Unlock()
		return ErrUnknownRepo
	}
	fn(cfg)
	s.mu.Unlock()
	s.changed()
	return nil
}

// toggle adds v if absent, removes it otherwise, preserving order.
func toggle(list []string, v string) []string {
	for i, existing := range list {
		if existing == v {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return append(list, v)
}

func copyConfig(cfg *RepoConfig) RepoConfig {
	out := RepoConfig{
		Languages:  make([]string, len(cfg.Languages)),
		Frameworks: make([]string, len(cfg.Frameworks)),
		CIProvider: cfg.CIProvider,
	}
	copy(out.Languages, cfg.Languages)
	copy(out.Frameworks, cfg.Frameworks)
	return out
}
