package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"repocast/internal/apierr"
)

var errEmptyResponse = errors.New("empty response from provider")

const defaultClaudeModel = "claude-haiku-4-5-20251001"

type ClaudeProvider struct {
	apiKey string
}

func NewClaudeProvider(apiKey string) *ClaudeProvider {
	return &ClaudeProvider{apiKey: apiKey}
}

func (p *ClaudeProvider) Name() string { return "claude" }

func (p *ClaudeProvider) client() anthropic.Client {
	if p.apiKey != "" {
		return anthropic.NewClient(option.WithAPIKey(p.apiKey))
	}
	return anthropic.NewClient()
}

func (p *ClaudeProvider) Chat(ctx context.Context, messages []Message, params Params) (string, error) {
	return WithRetry(ctx, func(attempt int) (string, error) {
		modelID := params.ModelID
		if modelID == "" {
			modelID = defaultClaudeModel
		}

		msgParams := anthropic.MessageNewParams{
			Model:       anthropic.Model(modelID),
			MaxTokens:   params.MaxOutputTokens,
			Temperature: anthropic.Float(params.Temperature),
			Messages:    toAnthropicMessages(messages),
		}
		if params.System != "" {
			msgParams.System = []anthropic.TextBlockParam{{Text: params.System}}
		}

		msg, err := p.client().Messages.New(ctx, msgParams)
		if err != nil {
			return "", classifyClaudeError(err)
		}

		text := extractClaudeText(msg)
		if text == "" {
			return "", &RetryableError{Kind: apierr.KindProviderOther, Err: errEmptyResponse}
		}
		return text, nil
	})
}

func (p *ClaudeProvider) ChatStream(ctx context.Context, messages []Message, params Params) (<-chan Delta, error) {
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

func toAnthropicMessages(messages []Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for _, m := range messages {
		switch m.Role {
		case "assistant":
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out
}

func extractClaudeText(msg *anthropic.Message) string {
	var parts []string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, tb.Text)
		}
	}
	return strings.Join(parts, "")
}

func classifyClaudeError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return &RetryableError{Kind: apierr.KindProviderRateLimited, Err: err}
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			return &RetryableError{Kind: apierr.KindProviderTimeout, Err: err}
		}
		if apiErr.StatusCode >= 500 {
			return &RetryableError{Kind: apierr.KindProviderTimeout, Err: err}
		}
	}
	return apierr.New(apierr.KindProviderOther, "llm", "claude call failed", err)
}
