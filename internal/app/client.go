package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// apiClient is the shared request/response plumbing for the remote service
// clients: one request, one response, JSON both ways, no retries. The token
// source is injected so the session context is passed explicitly rather than
// looked up ambiently.
type apiClient struct {
	baseURL string
	http    *http.Client
	token   func() string
}

func newAPIClient(baseURL string, token func() string) *apiClient {
	if token == nil {
		token = func() string { return "" }
	}
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 120 * time.Second},
		token:   token,
	}
}

func (c *apiClient) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *apiClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *apiClient) do(req *http.Request, out interface{}) error {
	req.Header.Set("Content-Type", "application/json")
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return remoteError(resp.StatusCode, bodyBytes)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("invalid api response: %w", err)
	}
	return nil
}

// resolveMediaURL turns a relative media path from a collaborator into an
// absolute URL against the API origin. The API base carries an /api suffix
// that media paths are served without.
func resolveMediaURL(apiBase, media string) string {
	if media == "" {
		return ""
	}
	if strings.HasPrefix(media, "http://") || strings.HasPrefix(media, "https://") {
		return media
	}
	origin := strings.TrimRight(apiBase, "/")
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		origin = u.Scheme + "://" + u.Host
	}
	if !strings.HasPrefix(media, "/") {
		media = "/" + media
	}
	return origin + media
}
