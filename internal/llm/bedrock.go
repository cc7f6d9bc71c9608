package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"repocast/internal/apierr"
)

const defaultNovaModel = "us.amazon.nova-2-lite-v1:0"

type BedrockProvider struct {
	client *bedrockruntime.Client
}

func NewBedrockProvider(region string) (*BedrockProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &BedrockProvider{client: bedrockruntime.NewFromConfig(cfg)}, nil
}

func (p *BedrockProvider) Name() string { return "bedrock-nova" }

func (p *BedrockProvider) Chat(ctx context.Context, messages []Message, params Params) (string, error) {
	return WithRetry(ctx, func(attempt int) (string, error) {
		modelID := params.ModelID
		if modelID == "" {
			modelID = defaultNovaModel
		}

		input := &bedrockruntime.ConverseInput{
			ModelId:  aws.String(modelID),
			Messages: toBedrockMessages(messages),
			InferenceConfig: &types.InferenceConfiguration{
				MaxTokens:   aws.Int32(int32(params.MaxOutputTokens)),
				Temperature: aws.Float32(float32(params.Temperature)),
			},
		}
		if params.System != "" {
			input.System = []types.SystemContentBlock{
				&types.SystemContentBlockMemberText{Value: params.System},
			}
		}

		resp, err := p.client.Converse(ctx, input)
		if err != nil {
			return "", classifyBedrockError(err)
		}

		text := extractBedrockText(resp)
		if text == "" {
			return "", &RetryableError{Kind: apierr.KindProviderOther, Err: errEmptyResponse}
		}
		return text, nil
	})
}

func (p *BedrockProvider) ChatStream(ctx context.Context, messages []Message, params Params) (<-chan Delta, error) {
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

func toBedrockMessages(messages []Message) []types.Message {
	var out []types.Message
	for _, m := range messages {
		role := types.ConversationRoleUser
		if m.Role == "assistant" {
			role = types.ConversationRoleAssistant
		}
		out = append(out, types.Message{
			Role:    role,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
		})
	}
	return out
}

func extractBedrockText(resp *bedrockruntime.ConverseOutput) string {
	if resp.Output == nil {
		return ""
	}
	msg, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	for _, block := range msg.Value.Content {
		if tb, ok := block.(*types.ContentBlockMemberText); ok {
			return tb.Value
		}
	}
	return ""
}

func classifyBedrockError(err error) error {
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case 429:
			return &RetryableError{Kind: apierr.KindProviderRateLimited, Err: err}
		case 408, 504:
			return &RetryableError{Kind: apierr.KindProviderTimeout, Err: err}
		}
		if respErr.HTTPStatusCode() >= 500 {
			return &RetryableError{Kind: apierr.KindProviderTimeout, Err: err}
		}
	}
	return apierr.New(apierr.KindProviderOther, "llm", "bedrock converse failed", err)
}
