package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Request is one chat turn: an optional system instruction and the user text.
type Request struct {
	System          string
	Prompt          string
	MaxOutputTokens int
	Temperature     float32
}

type Result struct {
	Text     string
	Provider string
	Model    string
}

type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (Result, error)
	Ping(ctx context.Context) bool
}

// GeminiProvider generates through the Gemini API.
type GeminiProvider struct {
	client       *genai.Client
	defaultModel string
	logger       *zap.Logger
}

func NewGeminiProvider(ctx context.Context, apiKey, defaultModel string, logger *zap.Logger) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if defaultModel == "" {
		defaultModel = "gemini-2.5-flash"
	}
	return &GeminiProvider{client: client, defaultModel: defaultModel, logger: logger}, nil
}

func (g *GeminiProvider) Name() string {
	return "Gemini"
}

func (g *GeminiProvider) Generate(ctx context.Context, req Request) (Result, error) {
	if g.client == nil {
		return Result{}, fmt.Errorf("gemini client not initialized")
	}

	temp := req.Temperature
	genConfig := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(req.MaxOutputTokens),
	}
	if req.System != "" {
		genConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	g.logger.Debug("Generating with Gemini", zap.String("model", g.defaultModel))

	resp, err := g.client.Models.GenerateContent(ctx, g.defaultModel, []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: req.Prompt}},
		},
	}, genConfig)
	if err != nil {
		g.logger.Error("Gemini generation failed", zap.Error(err))
		return Result{}, err
	}

	text := extractTextFromGeminiResponse(resp)
	if text == "" {
		return Result{}, fmt.Errorf("empty response from Gemini")
	}
	return Result{Text: text, Provider: g.Name(), Model: g.defaultModel}, nil
}

func (g *GeminiProvider) Ping(ctx context.Context) bool {
	if g.client == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	temp := float32(0)
	resp, err := g.client.Models.GenerateContent(ctx, g.defaultModel, []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: "ping"}}},
	}, &genai.GenerateContentConfig{Temperature: &temp, MaxOutputTokens: 10})
	if err != nil {
		g.logger.Debug("Gemini ping failed", zap.Error(err))
		return false
	}
	return extractTextFromGeminiResponse(resp) != ""
}

// OpenAIProvider generates through chat completions.
type OpenAIProvider struct {
	client       *openai.Client
	defaultModel string
	logger       *zap.Logger
}

func NewOpenAIProvider(apiKey, defaultModel string, logger *zap.Logger) *OpenAIProvider {
	if apiKey == "" {
		return nil
	}
	if defaultModel == "" {
		defaultModel = "gpt-4o-mini"
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{client: &client, defaultModel: defaultModel, logger: logger}
}

func (o *OpenAIProvider) Name() string {
	return "OpenAI"
}

func (o *OpenAIProvider) Generate(ctx context.Context, req Request) (Result, error) {
	if o.client == nil {
		return Result{}, fmt.Errorf("OpenAI client not initialized")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(o.defaultModel),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(req.MaxOutputTokens)),
	}
	// gpt-5 family only accepts the default sampling parameters
	if !strings.HasPrefix(o.defaultModel, "gpt-5") {
		params.Temperature = openai.Float(float64(req.Temperature))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		o.logger.Error("OpenAI generation failed", zap.Error(err))
		return Result{}, err
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("no choices in OpenAI response")
	}

	text := resp.Choices[0].Message.Content
	o.logger.Debug("OpenAI response received",
		zap.Int("length", len(text)),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)
	if strings.TrimSpace(text) == "" {
		return Result{}, fmt.Errorf("empty response from OpenAI")
	}
	return Result{Text: text, Provider: o.Name(), Model: o.defaultModel}, nil
}

func (o *OpenAIProvider) Ping(ctx context.Context) bool {
	if o.client == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(o.defaultModel),
		Messages:            []openai.ChatCompletionMessageParamUnion{openai.UserMessage("ping")},
		MaxCompletionTokens: openai.Int(16),
	})
	if err != nil {
		o.logger.Debug("OpenAI ping failed", zap.Error(err))
		return false
	}
	return len(resp.Choices) > 0
}

func extractTextFromGeminiResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "")
}
