package backend

import (
	"context"
	"net/http"
)

// Frameworks is the test-framework catalog, overall and grouped by language.
type Frameworks struct {
	Frameworks []string            `json:"frameworks"`
	ByLanguage map[string][]string `json:"by_language"`
}

// RepoLanguages detects the source languages of an owner/name repository.
// Results are cached per client; detection is slow on first contact because
// the platform may have to clone.
func (c *Client) RepoLanguages(ctx context.Context, fullName string) ([]string, error) {
	if langs, ok := c.langs.Get(fullName); ok {
		return langs, nil
	}
	var out struct {
		Languages []string `json:"languages"`
	}
	q := query(map[string]string{"full_name": fullName})
	if err := c.do(ctx, http.MethodGet, "/api/repos/languages"+q, nil, &out); err != nil {
		return nil, err
	}
	if out.Languages == nil {
		out.Languages = []string{}
	}
	c.langs.Add(fullName, out.Languages)
	return out.Languages, nil
}

// CachedRepoLanguages returns cached detection results without a network
// call; ok is false when the repository has not been detected yet.
func (c *Client) CachedRepoLanguages(fullName string) ([]string, bool) {
	return c.langs.Get(fullName)
}

// TestFrameworks lists the known test frameworks.
func (c *Client) TestFrameworks(ctx context.Context) (*Frameworks, error) {
	var out Frameworks
	if err := c.do(ctx, http.MethodGet, "/api/repos/test-frameworks", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
