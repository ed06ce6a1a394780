// Package llm adapts the Gemini chat model to the generation capability
// consumed by the fallback responders.
package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/fourbank-agent-poc/server/internal/agent/model"
	logx "github.com/fourbank-agent-poc/server/pkg/logger"
)

// GeminiConfig holds what is needed to build the generation model.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   model.GenerationModelConfig
}

// GeminiGenerator implements model.Generator on top of the Gemini chat model.
type GeminiGenerator struct {
	chatModel *gemini.ChatModel
	modelName string
}

// NewGeminiGenerator creates the Gemini client and chat model.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model.Model,
		Temperature: &cfg.Model.Temperature,
		MaxTokens:   &cfg.Model.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating generation model")
		return nil, fmt.Errorf("error creating generation model: %w", err)
	}

	return &GeminiGenerator{chatModel: chatModel, modelName: cfg.Model.Model}, nil
}

// Generate runs one generation call and logs the token cost.
func (g *GeminiGenerator) Generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	out, err := g.chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	if model.CostEnabled() && out != nil && out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		usage := out.ResponseMeta.Usage
		in, outCost, total := model.ComputeCost(usage, model.ResolvePricing(g.modelName))
		logx.Debug().
			Str("model", g.modelName).
			Int("prompt_tokens", usage.PromptTokens).
			Int("completion_tokens", usage.CompletionTokens).
			Float64("input_cost_usd", in).
			Float64("output_cost_usd", outCost).
			Float64("total_cost_usd", total).
			Msg("Generation usage cost")
	}

	return out, nil
}
