package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"stickerlab/backend/internal/models"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("stickerlab/backend/internal/ai")

// OpenAIConfig configures the chat completions client.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
}

// OpenAIGenerator generates stickers through an OpenAI-compatible chat completions API.
type OpenAIGenerator struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &OpenAIGenerator{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

func (g *OpenAIGenerator) complete(ctx context.Context, ct models.ContentType, userPrompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "ai.complete", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.model", g.model),
		attribute.String("sticker.content_type", string(ct)),
	)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(ct)),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat completion failed")
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		span.SetStatus(codes.Error, "no choices")
		return "", ErrEmptyContent
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	reply, err := g.complete(ctx, req.ContentType, generateUserPrompt(req.Prompt))
	if err != nil {
		return nil, err
	}
	return Extract(reply, req.ContentType, req.Prompt)
}

func (g *OpenAIGenerator) Edit(ctx context.Context, req EditRequest) (*Result, error) {
	reply, err := g.complete(ctx, req.ContentType, editUserPrompt(req))
	if err != nil {
		return nil, err
	}
	return Extract(reply, req.ContentType, req.Title)
}
