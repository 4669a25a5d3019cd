package app

import "context"

// AgentClient is the REST alternative to the event channel for creating a
// conversational agent. The channel flow is canonical; this path serves views
// that never mount a channel, such as the inline presentation block.
type AgentClient struct {
	api *apiClient
}

func NewAgentClient(baseURL string, token func() string) *AgentClient {
	return &AgentClient{api: newAPIClient(baseURL, token)}
}

type createAgentRequest struct {
	CustomScript string `json:"custom_script"`
	RoomID       string `json:"room_id"`
}

type agentData struct {
	ConversationURL string `json:"conversation_url"`
}

type createAgentResponse struct {
	Success   bool      `json:"success"`
	AgentData agentData `json:"agent_data"`
	Error     string    `json:"error,omitempty"`
}

// CreateAgent provisions a live tutor seeded with the given script and
// returns the conversation URL to embed.
func (c *AgentClient) CreateAgent(ctx context.Context, customScript, roomID string) (string, error) {
	var out createAgentResponse
	if err := c.api.postJSON(ctx, "/ai-agent/create", createAgentRequest{CustomScript: customScript, RoomID: roomID}, &out); err != nil {
		return "", err
	}
	if !out.Success || out.AgentData.ConversationURL == "" {
		return "", &APIError{Message: nonEmpty(out.Error, "failed to create ai agent")}
	}
	return out.AgentData.ConversationURL, nil
}
