// Package backend is the typed JSON client for the build-risk platform API.
// The platform is an opaque collaborator: datasets, features, the dependency
// graph, repository languages, and templates all live behind it.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const repoLanguageCacheSize = 512

// Client talks to the platform API. Session auth rides on a cookie jar; a
// 401 response triggers one silent refresh and a single retry of the
// original request.
type Client struct {
	http    *http.Client
	baseURL string
	langs   *lru.Cache[string, []string]
}

// New creates a client for the platform at baseURL.
func New(baseURL string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("backend: base URL is required")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[string, []string](repoLanguageCacheSize)
	if err != nil {
		return nil, err
	}
	return &Client{
		http:    &http.Client{Timeout: 60 * time.Second, Jar: jar},
		baseURL: baseURL,
		langs:   cache,
	}, nil
}

// APIError is any non-2xx platform response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %d %s", e.Status, e.Message)
}

// do sends body (re-serializable per attempt) and decodes a 2xx JSON
// response into out. On the first 401 it refreshes the session and retries
// once; a second 401 is returned as-is.
func (c *Client) do(ctx context.Context, method, path string, makeBody func() (io.Reader, string), out any) error {
	refreshed := false
	for {
		var body io.Reader
		contentType := ""
		if makeBody != nil {
			body, contentType = makeBody()
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("backend: %s %s: %w", method, path, err)
		}
		if resp.StatusCode == http.StatusUnauthorized && !refreshed {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if err := c.refresh(ctx); err != nil {
				return err
			}
			refreshed = true
			continue
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return readAPIError(resp)
		}
		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}
}

// refresh renews the session cookie. The refreshed cookie lands in the jar.
func (c *Client) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/refresh", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend: refresh session: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: "session refresh failed"}
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := ""
	if json.Unmarshal(data, &payload) == nil {
		if payload.Error != "" {
			msg = payload.Error
		} else {
			msg = payload.Message
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

func jsonBody(v any) func() (io.Reader, string) {
	return func() (io.Reader, string) {
		data, err := json.Marshal(v)
		if err != nil {
			return bytes.NewReader(nil), "application/json"
		}
		return bytes.NewReader(data), "application/json"
	}
}

func multipartBody(fields map[string]string, fileField, fileName string, file []byte) func() (io.Reader, string) {
	return func() (io.Reader, string) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for k, v := range fields {
			_ = w.WriteField(k, v)
		}
		fw, err := w.CreateFormFile(fileField, fileName)
		if err == nil {
			_, _ = fw.Write(file)
		}
		_ = w.Close()
		return &buf, w.FormDataContentType()
	}
}

func query(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	v := url.Values{}
	for k, val := range params {
		if val != "" {
			v.Set(k, val)
		}
	}
	if enc := v.Encode(); enc != "" {
		return "?" + enc
	}
	return ""
}
