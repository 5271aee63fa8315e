package backend

import (
	"context"
	"net/http"

	"buildsight/internal/featdag"
)

// FeatureFilter narrows the catalog listing server-side.
type FeatureFilter struct {
	Category string
	Source   string
	Language string
}

// Features lists catalog entries matching the filter.
func (c *Client) Features(ctx context.Context, filter FeatureFilter) ([]featdag.FeatureDefinition, error) {
	var out []featdag.FeatureDefinition
	q := query(map[string]string{
		"category": filter.Category,
		"source":   filter.Source,
		"language": filter.Language,
	})
	if err := c.do(ctx, http.MethodGet, "/api/features"+q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FeatureDAG fetches the full feature dependency graph.
func (c *Client) FeatureDAG(ctx context.Context) (*featdag.Graph, error) {
	var out featdag.Graph
	if err := c.do(ctx, http.MethodGet, "/api/features/dag", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FeatureLanguages lists the source languages the extractors understand.
func (c *Client) FeatureLanguages(ctx context.Context) ([]string, error) {
	var out struct {
		Languages []string `json:"languages"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/features/languages", nil, &out); err != nil {
		return nil, err
	}
	return out.Languages, nil
}
