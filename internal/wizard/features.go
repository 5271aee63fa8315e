package wizard

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"buildsight/internal/backend"
	"buildsight/internal/featdag"
)

// loadCatalog fetches the feature catalog and the selection templates
// jointly. Both must land for the load to count; it runs at most once per
// session.
func (s *Session) loadCatalog(ctx context.Context) error {
	var (
		defs      []featdag.FeatureDefinition
		templates []backend.TemplateRecord
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		defs, err = s.platform.Features(ctx, backend.FeatureFilter{})
		if err != nil {
			return fmt.Errorf("load feature catalog: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		templates, err = s.platform.Templates(ctx)
		if err != nil {
			return fmt.Errorf("load templates: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	s.catalog = featdag.GroupByCategory(defs)
	s.templates = templates
	s.catalogLoaded = true
	s.mu.Unlock()
	return nil
}

// ensureCatalog loads the catalog on first use. Sessions restored from a
// snapshot land on the feature step without one; every reader and mutator of
// the catalog goes through here so a restored session behaves like a live
// one.
func (s *Session) ensureCatalog(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.catalogLoaded
	s.mu.Unlock()
	if loaded {
		return nil
	}
	return s.loadCatalog(ctx)
}

// Catalog returns the filtered catalog view under the enabled sources.
func (s *Session) Catalog(ctx context.Context) ([]featdag.CategoryGroup, error) {
	if err := s.ensureCatalog(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return featdag.FilterCatalog(s.catalog, s.enabledSources), nil
}

// Templates returns the selection templates, loading them with the catalog
// if needed.
func (s *Session) Templates(ctx context.Context) ([]backend.TemplateRecord, error) {
	if err := s.ensureCatalog(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.templates, nil
}

// Graph returns the filtered dependency graph under the enabled sources. The
// unfiltered graph is fetched once per session and memoized; later source
// toggles refilter locally without a round-trip.
func (s *Session) Graph(ctx context.Context) (*featdag.Graph, error) {
	s.mu.Lock()
	g := s.graph
	s.mu.Unlock()

	if g == nil {
		fetched, err := s.platform.FeatureDAG(ctx)
		if err != nil {
			return nil, fmt.Errorf("load dependency graph: %w", err)
		}
		s.mu.Lock()
		if s.graph == nil {
			s.graph = fetched
		}
		g = s.graph
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return featdag.FilterGraph(g, s.enabledSources), nil
}

// EnabledSources returns the enabled data sources in display order.
func (s *Session) EnabledSources() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabledSources.Slice()
}

// ToggleSource flips one data source. The filtered catalog and graph views
// follow on the next read.
func (s *Session) ToggleSource(source string) {
	s.mu.Lock()
	if s.enabledSources.Has(source) {
		delete(s.enabledSources, source)
	} else {
		s.enabledSources[source] = struct{}{}
	}
	s.mu.Unlock()
	s.changed()
}

// Selected returns the selected feature names in selection order.
func (s *Session) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.selected))
	copy(out, s.selected)
	return out
}

// ToggleFeature flips one feature in the selection. Names outside the
// catalog are rejected.
func (s *Session) ToggleFeature(ctx context.Context, name string) error {
	if err := s.ensureCatalog(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	if !s.knownFeatureLocked(name) {
		s.mu.Unlock()
		return fmt.Errorf("wizard: unknown feature %q", name)
	}
	s.selected = toggle(s.selected, name)
	s.mu.Unlock()
	s.changed()
	return nil
}

// ApplyTemplate replaces the selection with the subset of the template's
// feature names that exist in the catalog. Stale names are skipped, not an
// error; the valid remainder always applies.
func (s *Session) ApplyTemplate(ctx context.Context, templateID string) error {
	if err := s.ensureCatalog(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	var tpl *backend.TemplateRecord
	for i := range s.templates {
		if s.templates[i].ID == templateID {
			tpl = &s.templates[i]
			break
		}
	}
	if tpl == nil {
		s.mu.Unlock()
		return fmt.Errorf("wizard: unknown template %q", templateID)
	}
	known := featdag.FeatureNames(s.catalog)
	next := make([]string, 0, len(tpl.FeatureNames))
	seen := make(map[string]struct{}, len(tpl.FeatureNames))
	for _, name := range tpl.FeatureNames {
		if _, ok := known[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		next = append(next, name)
	}
	s.selected = next
	s.mu.Unlock()
	s.changed()
	return nil
}

// SelectRunnable replaces the selection with every catalog feature produced
// by the filtered dependency graph: the bulk "select all runnable" action.
func (s *Session) SelectRunnable(ctx context.Context) error {
	if err := s.ensureCatalog(ctx); err != nil {
		return err
	}
	g, err := s.Graph(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	known := featdag.FeatureNames(s.catalog)
	next := []string{}
	seen := make(map[string]struct{})
	for _, n := range g.Nodes {
		for _, name := range n.Features {
			if _, ok := known[name]; !ok {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			next = append(next, name)
		}
	}
	s.selected = next
	s.mu.Unlock()
	s.changed()
	return nil
}

func (s *Session) knownFeatureLocked(name string) bool {
	for _, g := range s.catalog {
		for _, f := range g.Features {
			if f.Name == name {
				return true
			}
		}
	}
	return false
}
