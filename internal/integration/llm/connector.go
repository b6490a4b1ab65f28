package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"github.com/studiumlab/tutor-backend/internal/config"
	"github.com/studiumlab/tutor-backend/internal/entity"
	"github.com/studiumlab/tutor-backend/internal/pkg/prompttoken"
	"go.uber.org/zap"
)

const finishReasonContentFilter = "content_filter"

// Connector talks to the chat-completion and embedding provider
type Connector struct {
	config  config.LLMConnectorConfig
	client  openai.Client
	counter *prompttoken.Counter
	logger  *zap.Logger
}

func NewConnector(
	cfg config.LLMConnectorConfig,
	counter *prompttoken.Counter,
	logger *zap.Logger,
) *Connector {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.RequestTimeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Connector{
		config:  cfg,
		client:  openai.NewClient(opts...),
		counter: counter,
		logger:  logger,
	}
}

// Complete sends one chat completion request. Transient provider errors are
// retried with exponential backoff; content-filter rejections fail
// immediately with entity.ErrContentFiltered.
func (c *Connector) Complete(
	ctx context.Context,
	messages []entity.ChatMessage,
	args entity.CompletionArguments,
) (entity.ChatMessage, error) {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.config.ChatModel),
		Messages:    convertMessages(messages),
		Temperature: openai.Float(args.Temperature),
	}
	if args.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(args.MaxTokens))
	}
	if args.JSONResponse {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	var completion *openai.ChatCompletion
	err := retry.Do(
		func() error {
			resp, err := c.client.Chat.Completions.New(ctx, params)
			if err != nil {
				if isTransient(err) {
					ctxzap.Warn(ctx, "transient completion error, will retry", zap.Error(err))
					return err
				}
				return retry.Unrecoverable(err)
			}
			if len(resp.Choices) == 0 {
				return retry.Unrecoverable(entity.ErrNoChoices)
			}
			if resp.Choices[0].FinishReason == finishReasonContentFilter {
				return retry.Unrecoverable(entity.ErrContentFiltered)
			}
			completion = resp
			return nil
		},
		append(c.config.Retry.ToRetryOptions(), retry.Context(ctx))...,
	)
	if err != nil {
		return entity.ChatMessage{}, fmt.Errorf("chat completion: %w", err)
	}

	msg := c.convertCompletion(completion, messages)

	ctxzap.Debug(ctx, "chat completion finished",
		zap.String("model", completion.Model),
		zap.Int("input_tokens", msg.TokenUsage.NumInputTokens),
		zap.Int("output_tokens", msg.TokenUsage.NumOutputTokens),
	)

	return msg, nil
}

// Embed computes the embedding vector for one text
func (c *Connector) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(c.config.EmbeddingModel),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embed text: empty embedding response")
	}

	vector := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}

// isTransient reports whether a provider error is worth retrying.
// Rate limits and server-side failures are; invalid requests are not.
func isTransient(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	// Network-level errors (timeouts, resets) surface without a status code
	return true
}

func (c *Connector) convertCompletion(resp *openai.ChatCompletion, prompt []entity.ChatMessage) entity.ChatMessage {
	usage := &entity.TokenUsage{
		Model:           resp.Model,
		NumInputTokens:  int(resp.Usage.PromptTokens),
		NumOutputTokens: int(resp.Usage.CompletionTokens),
	}

	choice := resp.Choices[0]

	// Some gateways strip usage; fall back to a tiktoken estimate
	if usage.NumInputTokens == 0 && c.counter != nil {
		for _, m := range prompt {
			usage.NumInputTokens += c.counter.Count(m.FirstText())
		}
		usage.NumOutputTokens = c.counter.Count(choice.Message.Content)
	}

	msg := entity.NewTextMessage(entity.MessageRoleAssistant, choice.Message.Content)
	msg.TokenUsage = usage

	for _, tc := range choice.Message.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, entity.ToolCall{
			ID:   tc.ID,
			Type: string(tc.Type),
			Function: entity.ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}

	return msg
}

func convertMessages(messages []entity.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Sender {
		case entity.MessageRoleSystem:
			converted = append(converted, openai.SystemMessage(joinText(m)))
		case entity.MessageRoleAssistant:
			converted = append(converted, openai.AssistantMessage(joinText(m)))
		case entity.MessageRoleTool:
			for _, part := range m.Contents {
				if part.Type == entity.ContentTypeToolResult {
					converted = append(converted, openai.ToolMessage(part.ToolContent, part.ToolCallID))
				}
			}
		default:
			converted = append(converted, convertUserMessage(m))
		}
	}
	return converted
}

func convertUserMessage(m entity.ChatMessage) openai.ChatCompletionMessageParamUnion {
	hasImage := false
	for _, part := range m.Contents {
		if part.Type == entity.ContentTypeImage {
			hasImage = true
			break
		}
	}
	if !hasImage {
		return openai.UserMessage(joinText(m))
	}

	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(m.Contents))
	for _, part := range m.Contents {
		switch part.Type {
		case entity.ContentTypeText:
			parts = append(parts, openai.TextContentPart(part.Text))
		case entity.ContentTypeImage:
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: "data:image/jpeg;base64," + part.ImageBase64,
			}))
		}
	}
	return openai.UserMessage(parts)
}

func joinText(m entity.ChatMessage) string {
	var texts []string
	for _, part := range m.Contents {
		if part.Type == entity.ContentTypeText {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}
