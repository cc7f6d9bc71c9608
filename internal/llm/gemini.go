package llm

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/genai"

	"repocast/internal/apierr"
)

const defaultGeminiModel = "gemini-3-flash-preview"

// GeminiProvider is grounded on intelligencedev-manifold's use of
// google.golang.org/genai, extended here to satisfy the same Provider
// interface as the Claude and Bedrock implementations.
type GeminiProvider struct {
	apiKey string
}

func NewGeminiProvider(apiKey string) *GeminiProvider {
	return &GeminiProvider{apiKey: apiKey}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) newClient(ctx context.Context) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

func (p *GeminiProvider) Chat(ctx context.Context, messages []Message, params Params) (string, error) {
	return WithRetry(ctx, func(attempt int) (string, error) {
		client, err := p.newClient(ctx)
		if err != nil {
			return "", apierr.New(apierr.KindProviderOther, "llm", "create gemini client", err)
		}

		modelID := params.ModelID
		if modelID == "" {
			modelID = defaultGeminiModel
		}

		cfg := &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(params.Temperature)),
			MaxOutputTokens: int32(params.MaxOutputTokens),
		}
		if params.System != "" {
			cfg.SystemInstruction = genai.NewContentFromText(params.System, genai.RoleUser)
		}

		contents := toGeminiContents(messages)

		resp, err := client.Models.GenerateContent(ctx, modelID, contents, cfg)
		if err != nil {
			return "", classifyGeminiError(err)
		}

		text := resp.Text()
		if text == "" {
			return "", &RetryableError{Kind: apierr.KindProviderOther, Err: errEmptyResponse}
		}
		return text, nil
	})
}

func (p *GeminiProvider) ChatStream(ctx context.Context, messages []Message, params Params) (<-chan Delta, error) {
	out := make(chan Delta, 1)
	go func() {
		defer close(out)
		text, err := p.Chat(ctx, messages, params)
		if err != nil {
			out <- Delta{Err: err}
			return
		}
		out <- Delta{Text: text}
	}()
	return out, nil
}

func toGeminiContents(messages []Message) []*genai.Content {
	var out []*genai.Content
	for _, m := range messages {
		role := genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(m.Content, role))
	}
	return out
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return &RetryableError{Kind: apierr.KindProviderRateLimited, Err: err}
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return &RetryableError{Kind: apierr.KindProviderTimeout, Err: err}
		}
		if apiErr.Code >= 500 {
			return &RetryableError{Kind: apierr.KindProviderTimeout, Err: err}
		}
	}
	return apierr.New(apierr.KindProviderOther, "llm", "gemini call failed", err)
}
