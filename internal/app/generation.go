package app

import "context"

// GenerationClient wraps the script/quiz generation collaborator.
type GenerationClient struct {
	api     *apiClient
	baseURL string
}

func NewGenerationClient(baseURL string, token func() string) *GenerationClient {
	return &GenerationClient{api: newAPIClient(baseURL, token), baseURL: baseURL}
}

// PresentationArtifact is the script+video pairing produced by one generation
// request. Immutable after creation.
type PresentationArtifact struct {
	Script       string
	MediaURL     string
	SourcePrompt string
	ScenePath    string
	SceneClass   string
}

type generateRequest struct {
	Prompt       string `json:"prompt"`
	Instructions string `json:"instructions,omitempty"`
}

type generateResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

type presentationRequest struct {
	Prompt string `json:"prompt"`
}

type presentationResponse struct {
	Success    bool   `json:"success"`
	Script     string `json:"script"`
	VideoURL   string `json:"video_url"`
	VideoPath  string `json:"video_path,omitempty"`
	SceneClass string `json:"scene_class,omitempty"`
	Error      string `json:"error,omitempty"`
}

type quizRequest struct {
	Script       string `json:"script"`
	NumQuestions int    `json:"num_questions"`
}

type quizResponse struct {
	Success bool   `json:"success"`
	Quiz    Quiz   `json:"quiz"`
	Error   string `json:"error,omitempty"`
}

type statusResponse struct {
	Available bool `json:"available"`
}

// Generate produces a single free-form completion.
func (c *GenerationClient) Generate(ctx context.Context, prompt, instructions string) (string, error) {
	var out generateResponse
	if err := c.api.postJSON(ctx, "/gemini/generate", generateRequest{Prompt: prompt, Instructions: instructions}, &out); err != nil {
		return "", err
	}
	if !out.Success {
		return "", &APIError{Message: nonEmpty(out.Error, "generation failed")}
	}
	return out.Response, nil
}

// GeneratePresentation runs the full script+animation workflow for a topic
// prompt. The returned artifact's media URL is always absolute.
func (c *GenerationClient) GeneratePresentation(ctx context.Context, prompt string) (*PresentationArtifact, error) {
	var out presentationResponse
	if err := c.api.postJSON(ctx, "/gemini/generate-presentation", presentationRequest{Prompt: prompt}, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &APIError{Message: nonEmpty(out.Error, "failed to generate presentation")}
	}
	return &PresentationArtifact{
		Script:       out.Script,
		MediaURL:     resolveMediaURL(c.baseURL, out.VideoURL),
		SourcePrompt: prompt,
		ScenePath:    out.VideoPath,
		SceneClass:   out.SceneClass,
	}, nil
}

// GenerateQuiz builds a quiz from a previously generated script.
func (c *GenerationClient) GenerateQuiz(ctx context.Context, script string, numQuestions int) (*Quiz, error) {
	if numQuestions <= 0 {
		numQuestions = 5
	}
	var out quizResponse
	if err := c.api.postJSON(ctx, "/gemini/generate-quiz", quizRequest{Script: script, NumQuestions: numQuestions}, &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, &APIError{Message: nonEmpty(out.Error, "failed to generate quiz")}
	}
	quiz := out.Quiz
	return &quiz, nil
}

// Status reports whether the generation collaborator is reachable and ready.
func (c *GenerationClient) Status(ctx context.Context) bool {
	var out statusResponse
	if err := c.api.getJSON(ctx, "/gemini/status", &out); err != nil {
		return false
	}
	return out.Available
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
