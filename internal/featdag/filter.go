package featdag

// FilterCatalog narrows catalog groups to features whose declared source is
// visible under the enabled data sources. Groups that lose every feature are
// dropped. The input is not modified.
func FilterCatalog(groups []CategoryGroup, enabled SourceSet) []CategoryGroup {
	out := make([]CategoryGroup, 0, len(groups))
	for _, g := range groups {
		kept := make([]FeatureDefinition, 0, len(g.Features))
		for _, f := range g.Features {
			if featureEnabled(f.Source, enabled) {
				kept = append(kept, f)
			}
		}
		if len(kept) > 0 {
			out = append(out, CategoryGroup{Category: g.Category, Features: kept})
		}
	}
	return out
}

// FilterGraph narrows the graph to nodes runnable under the enabled sources.
//
// A resource node survives iff its id is implied by the enabled sources. An
// extractor node survives iff every resource it requires survives. An edge
// survives iff both endpoints survive. Levels keep their platform-assigned
// index; a level whose node list empties is omitted, not renumbered. Totals
// are recomputed over survivors.
func FilterGraph(g *Graph, enabled SourceSet) *Graph {
	if g == nil {
		return nil
	}
	available := impliedResources(enabled)

	survives := make(map[string]bool, len(g.Nodes))
	nodes := make([]Node, 0, len(g.Nodes))
	features := 0
	for _, n := range g.Nodes {
		ok := false
		switch n.Kind {
		case NodeResource:
			_, ok = available[n.ID]
		case NodeExtractor:
			ok = true
			for _, r := range n.Requires {
				if _, have := available[r]; !have {
					ok = false
					break
				}
			}
		}
		if !ok {
			continue
		}
		survives[n.ID] = true
		nodes = append(nodes, n)
		features += len(n.Features)
	}

	edges := make([]Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if survives[e.From] && survives[e.To] {
			edges = append(edges, e)
		}
	}

	levels := make([]Level, 0, len(g.Levels))
	for _, lv := range g.Levels {
		kept := make([]string, 0, len(lv.NodeIDs))
		for _, id := range lv.NodeIDs {
			if survives[id] {
				kept = append(kept, id)
			}
		}
		if len(kept) > 0 {
			levels = append(levels, Level{Index: lv.Index, NodeIDs: kept})
		}
	}

	return &Graph{
		Nodes:         nodes,
		Edges:         edges,
		Levels:        levels,
		TotalNodes:    len(nodes),
		TotalFeatures: features,
	}
}
