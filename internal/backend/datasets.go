package backend

import (
	"context"
	"net/http"

	"buildsight/internal/csvsniff"
	"buildsight/internal/mapping"
)

// DatasetRecord is the platform's view of a dataset, including the draft
// state the wizard resumes from.
type DatasetRecord struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	Status           string            `json:"status"`
	FileName         string            `json:"file_name,omitempty"`
	MappedFields     mapping.Fields    `json:"mapped_fields"`
	SelectedFeatures []string          `json:"selected_features"`
	CIProvider       string            `json:"ci_provider,omitempty"`
	Preview          *csvsniff.Preview `json:"preview,omitempty"`
	CreatedAt        string            `json:"created_at,omitempty"`
	UpdatedAt        string            `json:"updated_at,omitempty"`
}

// DatasetUpdate is a partial patch; nil fields are left untouched.
type DatasetUpdate struct {
	Name             *string         `json:"name,omitempty"`
	Description      *string         `json:"description,omitempty"`
	MappedFields     *mapping.Fields `json:"mapped_fields,omitempty"`
	SelectedFeatures *[]string       `json:"selected_features,omitempty"`
	CIProvider       *string         `json:"ci_provider,omitempty"`
}

// TemplateRecord is a reusable feature selection curated on the platform.
type TemplateRecord struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	FeatureNames []string `json:"feature_names"`
}

// Upload creates a dataset record from a CSV file plus its metadata. The
// file bytes must already be fully buffered so the request can be rebuilt if
// the session needs a refresh.
func (c *Client) Upload(ctx context.Context, file []byte, fileName, name, description string) (*DatasetRecord, error) {
	var out DatasetRecord
	body := multipartBody(map[string]string{
		"name":        name,
		"description": description,
	}, "file", fileName, file)
	if err := c.do(ctx, http.MethodPost, "/api/datasets/upload", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDataset patches a dataset record.
func (c *Client) UpdateDataset(ctx context.Context, id string, upd DatasetUpdate) (*DatasetRecord, error) {
	var out DatasetRecord
	if err := c.do(ctx, http.MethodPatch, "/api/datasets/"+id, jsonBody(upd), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Dataset fetches one dataset record.
func (c *Client) Dataset(ctx context.Context, id string) (*DatasetRecord, error) {
	var out DatasetRecord
	if err := c.do(ctx, http.MethodGet, "/api/datasets/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Templates lists the selection templates available to the current user.
func (c *Client) Templates(ctx context.Context) ([]TemplateRecord, error) {
	var out []TemplateRecord
	if err := c.do(ctx, http.MethodGet, "/api/datasets/templates", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
