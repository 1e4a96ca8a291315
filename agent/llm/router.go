// Package llm implements the opaque model-invocation collaborator over two
// provider backends and routes between them per run.
package llm

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go"

	"github.com/coachdesk/coachdesk/agent/contract"
)

// ProviderAnthropic is the hint value that selects the Anthropic backend.
const ProviderAnthropic = "anthropic"

// Router resolves a run's provider hint to a concrete backend. The
// OpenRouter-backed OpenAI client is the default; Anthropic is used only when
// hinted and configured.
type Router struct {
	openrouter *OpenAIModel
	anthropic  *AnthropicModel
}

func NewRouter(client *openaisdk.Client, cfg Config) (*Router, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: openrouter client is required", contract.ErrValidation)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Router{
		openrouter: NewOpenAIModel(client, cfg.Model, cfg.MaxCompletionToken),
	}
	if cfg.AnthropicAPIKey != "" {
		r.anthropic = NewAnthropicModel(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.MaxCompletionToken)
	}
	return r, nil
}

func (r *Router) Invoke(ctx context.Context, req contract.ChatRequest) (contract.ChatResponse, error) {
	if req.ProviderHint == ProviderAnthropic && r.anthropic != nil {
		return r.anthropic.Invoke(ctx, req)
	}
	return r.openrouter.Invoke(ctx, req)
}
