package llm

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go"

	"github.com/coachdesk/coachdesk/agent/contract"
)

const providerOpenRouter = "openrouter"

// OpenAIModel adapts the chat-completions API (served by OpenRouter) to the
// ChatModel contract.
type OpenAIModel struct {
	client    *openaisdk.Client
	model     string
	maxTokens int64
}

func NewOpenAIModel(client *openaisdk.Client, model string, maxTokens int64) *OpenAIModel {
	return &OpenAIModel{client: client, model: model, maxTokens: maxTokens}
}

func (m *OpenAIModel) Invoke(ctx context.Context, req contract.ChatRequest) (contract.ChatResponse, error) {
	params := openaisdk.ChatCompletionNewParams{
		Messages:            buildOpenAIMessages(req.Messages),
		Model:               m.model,
		MaxCompletionTokens: openaisdk.Int(m.resolveMaxTokens(req.MaxTokens)),
	}
	if len(req.Tools) > 0 {
		params.Tools = buildOpenAITools(req.Tools)
	}
	if req.ToolChoice != "" && req.ToolChoice != "auto" {
		params.ToolChoice = openaisdk.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openaisdk.String(req.ToolChoice),
		}
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return contract.ChatResponse{}, fmt.Errorf("chat completion: %w", err)
	}

	choices := make([]contract.ChatChoice, 0, len(completion.Choices))
	for _, ch := range completion.Choices {
		choice := contract.ChatChoice{Text: ch.Message.Content}
		for _, tc := range ch.Message.ToolCalls {
			choice.ToolCalls = append(choice.ToolCalls, contract.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
		choices = append(choices, choice)
	}

	return contract.ChatResponse{
		Provider: providerOpenRouter,
		Model:    completion.Model,
		Choices:  choices,
	}, nil
}

func (m *OpenAIModel) resolveMaxTokens(requested int64) int64 {
	if requested > 0 {
		return requested
	}
	return m.maxTokens
}

func buildOpenAIMessages(messages []contract.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case contract.RoleSystem:
			out = append(out, openaisdk.SystemMessage(msg.Text))
		case contract.RoleUser:
			if len(msg.Parts) == 0 {
				out = append(out, openaisdk.UserMessage(msg.Text))
				continue
			}
			out = append(out, multimodalUserMessage(msg.Parts))
		case contract.RoleAssistant:
			out = append(out, assistantMessage(msg))
		case contract.RoleTool:
			out = append(out, openaisdk.ToolMessage(msg.Text, msg.ToolCallID))
		}
	}
	return out
}

func multimodalUserMessage(parts []contract.Part) openaisdk.ChatCompletionMessageParamUnion {
	content := make([]openaisdk.ChatCompletionContentPartUnionParam, 0, len(parts))
	for _, part := range parts {
		switch {
		case part.ImageURL != "":
			content = append(content, openaisdk.ChatCompletionContentPartUnionParam{
				OfImageURL: &openaisdk.ChatCompletionContentPartImageParam{
					ImageURL: openaisdk.ChatCompletionContentPartImageImageURLParam{
						URL: part.ImageURL,
					},
				},
			})
		case part.Text != "":
			content = append(content, openaisdk.ChatCompletionContentPartUnionParam{
				OfText: &openaisdk.ChatCompletionContentPartTextParam{Text: part.Text},
			})
		}
	}
	return openaisdk.ChatCompletionMessageParamUnion{
		OfUser: &openaisdk.ChatCompletionUserMessageParam{
			Content: openaisdk.ChatCompletionUserMessageParamContentUnion{
				OfArrayOfContentParts: content,
			},
		},
	}
}

func assistantMessage(msg contract.Message) openaisdk.ChatCompletionMessageParamUnion {
	if len(msg.ToolCalls) == 0 {
		return openaisdk.AssistantMessage(msg.Text)
	}

	toolCalls := make([]openaisdk.ChatCompletionMessageToolCallParam, 0, len(msg.ToolCalls))
	for _, call := range msg.ToolCalls {
		toolCalls = append(toolCalls, openaisdk.ChatCompletionMessageToolCallParam{
			ID:   call.ID,
			Type: "function",
			Function: openaisdk.ChatCompletionMessageToolCallFunctionParam{
				Name:      call.Name,
				Arguments: call.Arguments,
			},
		})
	}

	assistant := openaisdk.ChatCompletionAssistantMessageParam{
		Role:      "assistant",
		ToolCalls: toolCalls,
	}
	if msg.Text != "" {
		assistant.Content = openaisdk.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openaisdk.String(msg.Text),
		}
	}
	return openaisdk.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

func buildOpenAITools(tools []contract.ToolDefinition) []openaisdk.ChatCompletionToolParam {
	out := make([]openaisdk.ChatCompletionToolParam, len(tools))
	for i, def := range tools {
		out[i] = openaisdk.ChatCompletionToolParam{
			Type: "function",
			Function: openaisdk.FunctionDefinitionParam{
				Name:        def.Name,
				Description: openaisdk.String(def.Description),
				Parameters:  def.Parameters,
			},
		}
	}
	return out
}
