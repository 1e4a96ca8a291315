package llm

import (
	"fmt"
	"strings"

	"github.com/coachdesk/coachdesk/agent/contract"
)

// Config selects the models behind each provider hint. The OpenRouter model
// serves every run unless the run hints "anthropic" and an Anthropic key is
// configured.
type Config struct {
	Model              string `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int64  `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`

	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY" split_words:"true"`
	AnthropicModel  string `envconfig:"ANTHROPIC_MODEL" split_words:"true" default:"claude-sonnet-4-20250514"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contract.ErrValidation)
	}
	if c.MaxCompletionToken <= 0 {
		return fmt.Errorf("%w: max completion tokens must be positive", contract.ErrValidation)
	}
	return nil
}
