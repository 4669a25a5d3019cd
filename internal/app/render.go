package app

import "context"

// RenderClient wraps the standalone animation rendering collaborator.
type RenderClient struct {
	api     *apiClient
	baseURL string
}

func NewRenderClient(baseURL string, token func() string) *RenderClient {
	return &RenderClient{api: newAPIClient(baseURL, token), baseURL: baseURL}
}

type renderRequest struct {
	AnimationType string `json:"animation_type"`
	Prompt        string `json:"prompt,omitempty"`
}

type renderResponse struct {
	AnimationURL string `json:"animation_url"`
}

// RenderAnimation asks for a one-off animation and returns its absolute URL.
func (c *RenderClient) RenderAnimation(ctx context.Context, animationType, prompt string) (string, error) {
	if animationType == "" {
		animationType = "circle"
	}
	var out renderResponse
	if err := c.api.postJSON(ctx, "/animation/render", renderRequest{AnimationType: animationType, Prompt: prompt}, &out); err != nil {
		return "", err
	}
	return resolveMediaURL(c.baseURL, out.AnimationURL), nil
}
