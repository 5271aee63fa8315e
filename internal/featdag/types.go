// Package featdag models the feature catalog and the feature dependency
// graph, and narrows both to what is runnable under a set of enabled data
// sources. Filtering is pure: the unfiltered catalog and graph are never
// mutated, a filtered view is derived.
package featdag

import "sort"

// FeatureDefinition is one entry of the read-only feature catalog.
type FeatureDefinition struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Source      string `json:"source"`
	Description string `json:"description"`
	DataType    string `json:"data_type"`
}

// CategoryGroup bundles the catalog entries of one category for display.
type CategoryGroup struct {
	Category string              `json:"category"`
	Features []FeatureDefinition `json:"features"`
}

// Node kinds and edge kinds as the platform emits them.
const (
	NodeExtractor = "extractor"
	NodeResource  = "resource"

	EdgeFeatureDependency  = "feature_dependency"
	EdgeResourceDependency = "resource_dependency"
)

// Node is a vertex of the dependency graph. Extractor nodes carry the
// feature names they produce and the resource ids they require; resource
// nodes carry neither.
type Node struct {
	ID       string   `json:"id"`
	Kind     string   `json:"kind"`
	Label    string   `json:"label,omitempty"`
	Features []string `json:"features,omitempty"`
	Requires []string `json:"requires,omitempty"`
}

// Edge is a directed dependency between two nodes.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

// Level is one execution stage: every node in level n depends only on nodes
// in levels below n. Index values come from the platform and are preserved
// verbatim through filtering.
type Level struct {
	Index   int      `json:"index"`
	NodeIDs []string `json:"node_ids"`
}

// Graph is the full dependency graph plus its level partition and totals.
// Acyclicity is guaranteed by the platform that builds it.
type Graph struct {
	Nodes         []Node  `json:"nodes"`
	Edges         []Edge  `json:"edges"`
	Levels        []Level `json:"levels"`
	TotalNodes    int     `json:"total_nodes"`
	TotalFeatures int     `json:"total_features"`
}

// GroupByCategory buckets catalog entries into display groups, categories
// sorted lexically, feature order preserved within a category.
func GroupByCategory(defs []FeatureDefinition) []CategoryGroup {
	byCat := make(map[string][]FeatureDefinition)
	cats := make([]string, 0)
	for _, d := range defs {
		if _, ok := byCat[d.Category]; !ok {
			cats = append(cats, d.Category)
		}
		byCat[d.Category] = append(byCat[d.Category], d)
	}
	sort.Strings(cats)
	out := make([]CategoryGroup, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategoryGroup{Category: c, Features: byCat[c]})
	}
	return out
}

// FeatureNames returns the set of names present in the catalog groups.
func FeatureNames(groups []CategoryGroup) map[string]struct{} {
	out := make(map[string]struct{})
	for _, g := range groups {
		for _, f := range g.Features {
			out[f.Name] = struct{}{}
		}
	}
	return out
}
