package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/coachdesk/coachdesk/agent/contract"
)

// AnthropicModel adapts the Anthropic Messages API to the ChatModel contract.
type AnthropicModel struct {
	client    *anthropicsdk.Client
	model     string
	maxTokens int64
}

func NewAnthropicModel(apiKey, model string, maxTokens int64) *AnthropicModel {
	client := anthropicsdk.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicModel{
		client:    &client,
		model:     model,
		maxTokens: maxTokens,
	}
}

func (m *AnthropicModel) Invoke(ctx context.Context, req contract.ChatRequest) (contract.ChatResponse, error) {
	maxTokens := m.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(m.model),
		MaxTokens: maxTokens,
		Messages:  buildAnthropicMessages(req.Messages),
	}
	if system := systemBlocks(req.Messages); len(system) > 0 {
		params.System = system
	}
	if len(req.Tools) > 0 {
		params.Tools = buildAnthropicTools(req.Tools)
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return contract.ChatResponse{}, fmt.Errorf("anthropic message: %w", err)
	}

	var choice contract.ChatChoice
	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.AsText().Text)
		case "tool_use":
			toolBlock := block.AsToolUse()
			args := ""
			if toolBlock.Input != nil {
				if encoded, err := json.Marshal(toolBlock.Input); err == nil {
					args = string(encoded)
				}
			}
			choice.ToolCalls = append(choice.ToolCalls, contract.ToolCall{
				ID:        toolBlock.ID,
				Name:      toolBlock.Name,
				Arguments: args,
			})
		}
	}
	choice.Text = text.String()

	return contract.ChatResponse{
		Provider: ProviderAnthropic,
		Model:    string(resp.Model),
		Choices:  []contract.ChatChoice{choice},
	}, nil
}

func systemBlocks(messages []contract.Message) []anthropicsdk.TextBlockParam {
	var blocks []anthropicsdk.TextBlockParam
	for _, msg := range messages {
		if msg.Role == contract.RoleSystem && msg.Text != "" {
			blocks = append(blocks, anthropicsdk.TextBlockParam{Text: msg.Text})
		}
	}
	return blocks
}

func buildAnthropicMessages(messages []contract.Message) []anthropicsdk.MessageParam {
	var out []anthropicsdk.MessageParam
	for _, msg := range messages {
		switch msg.Role {
		case contract.RoleUser:
			if content := userBlocks(msg); len(content) > 0 {
				out = append(out, anthropicsdk.NewUserMessage(content...))
			}
		case contract.RoleAssistant:
			if content := assistantBlocks(msg); len(content) > 0 {
				out = append(out, anthropicsdk.NewAssistantMessage(content...))
			}
		case contract.RoleTool:
			// Tool results travel as user-role tool_result blocks.
			out = append(out, anthropicsdk.NewUserMessage(
				anthropicsdk.NewToolResultBlock(msg.ToolCallID, msg.Text, false),
			))
		}
	}
	return out
}

func userBlocks(msg contract.Message) []anthropicsdk.ContentBlockParamUnion {
	var content []anthropicsdk.ContentBlockParamUnion
	if msg.Text != "" {
		content = append(content, anthropicsdk.NewTextBlock(msg.Text))
	}
	for _, part := range msg.Parts {
		switch {
		case part.Text != "":
			content = append(content, anthropicsdk.NewTextBlock(part.Text))
		case part.ImageURL != "":
			if mediaType, data, ok := splitDataURL(part.ImageURL); ok {
				content = append(content, anthropicsdk.NewImageBlockBase64(mediaType, data))
			}
		}
	}
	return content
}

func assistantBlocks(msg contract.Message) []anthropicsdk.ContentBlockParamUnion {
	var content []anthropicsdk.ContentBlockParamUnion
	if msg.Text != "" {
		content = append(content, anthropicsdk.NewTextBlock(msg.Text))
	}
	for _, call := range msg.ToolCalls {
		var input any
		if call.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Arguments), &input); err != nil {
				input = call.Arguments
			}
		}
		content = append(content, anthropicsdk.NewToolUseBlock(call.ID, input, call.Name))
	}
	return content
}

func buildAnthropicTools(tools []contract.ToolDefinition) []anthropicsdk.ToolUnionParam {
	out := make([]anthropicsdk.ToolUnionParam, len(tools))
	for i, def := range tools {
		schema := anthropicsdk.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if def.Parameters != nil {
			if properties, ok := def.Parameters["properties"]; ok {
				schema.Properties = properties
			}
			if required, ok := def.Parameters["required"].([]string); ok {
				schema.Required = required
			}
		}
		out[i] = anthropicsdk.ToolUnionParamOfTool(schema, def.Name)
	}
	return out
}

// splitDataURL unpacks "data:<media>;base64,<payload>" into its components.
func splitDataURL(u string) (mediaType, data string, ok bool) {
	const prefix = "data:"
	if !strings.HasPrefix(u, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(u, prefix)
	idx := strings.Index(rest, ";base64,")
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+len(";base64,"):], true
}
