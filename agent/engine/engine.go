// Package engine drives the bounded tool-calling loop between the model and
// the deterministic tool catalog.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coachdesk/coachdesk/agent/contract"
	"github.com/coachdesk/coachdesk/agent/history"
	"github.com/coachdesk/coachdesk/agent/prompt"
	"github.com/coachdesk/coachdesk/agent/runtime"
	"github.com/coachdesk/coachdesk/agent/tool"
)

const (
	// maxIterations is the sole runaway-prevention mechanism: the loop
	// exchanges at most this many requests with the model per run.
	maxIterations = 10

	defaultMaxTokens = 2000

	fallbackReply = "I wasn't able to put together a response this time. Please try rephrasing your request."
)

type Engine struct {
	store     contract.Store
	model     contract.ChatModel
	executor  *tool.Executor
	maxTokens int64
}

func New(store contract.Store, model contract.ChatModel, mailer contract.InviteMailer) (*Engine, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if model == nil {
		return nil, errors.New("chat model is required")
	}
	if mailer == nil {
		return nil, errors.New("invite mailer is required")
	}
	return &Engine{
		store:     store,
		model:     model,
		executor:  tool.NewExecutor(mailer),
		maxTokens: defaultMaxTokens,
	}, nil
}

// WithClock pins the executor's time source. Tests use this to fix expiries.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.executor.WithClock(now)
	return e
}

// Run executes one complete prompt: context resolution, the bounded model
// loop, and response assembly. Tool failures degrade the reply but never
// abort the run.
func (e *Engine) Run(ctx context.Context, in contract.RunInput) (contract.RunOutput, error) {
	if strings.TrimSpace(in.Prompt) == "" {
		return contract.RunOutput{}, fmt.Errorf("%w: prompt is empty", contract.ErrValidation)
	}

	rc, err := runtime.New(ctx, e.store, in.ActingUserID, in.MutationsAllowed())
	if err != nil {
		return contract.RunOutput{}, err
	}

	catalog := tool.Catalog(rc.Elevated)

	messages := make([]contract.Message, 0, len(in.History)+2)
	messages = append(messages, contract.Message{
		Role: contract.RoleSystem,
		Text: prompt.System(rc.ActingUser.Name),
	})
	messages = append(messages, history.Transform(in.History, in.Prompt)...)

	var (
		reply     string
		provider  string
		modelID   string
		toolsUsed []string
		usedSet   = map[string]struct{}{}
		actions   []contract.ActionSummary
		graph     []contract.GraphPoint
	)

	for i := 0; i < maxIterations; i++ {
		resp, err := e.model.Invoke(ctx, contract.ChatRequest{
			Messages:     messages,
			Tools:        catalog,
			ToolChoice:   "auto",
			MaxTokens:    e.maxTokens,
			ProviderHint: in.ProviderHint,
		})
		if err != nil {
			return contract.RunOutput{}, fmt.Errorf("%w: %v", contract.ErrModelInvoke, err)
		}
		provider = resp.Provider
		modelID = resp.Model
		if len(resp.Choices) == 0 {
			break
		}

		choice := resp.Choices[0]
		messages = append(messages, contract.Message{
			Role:      contract.RoleAssistant,
			Text:      choice.Text,
			ToolCalls: choice.ToolCalls,
		})
		if strings.TrimSpace(choice.Text) != "" {
			reply = choice.Text
		}
		if len(choice.ToolCalls) == 0 {
			break
		}

		// Tool calls run strictly in order: a later result may need to see
		// an earlier call's side effects within the same turn.
		for _, call := range choice.ToolCalls {
			result := e.dispatch(ctx, rc, call, &actions, &graph)
			if _, ok := usedSet[call.Name]; !ok {
				usedSet[call.Name] = struct{}{}
				toolsUsed = append(toolsUsed, call.Name)
			}
			messages = append(messages, contract.Message{
				Role:       contract.RoleTool,
				Text:       result,
				ToolCallID: call.ID,
			})
		}
	}

	if strings.TrimSpace(reply) == "" {
		reply = fallbackReply
	}

	return contract.RunOutput{
		Reply:     reply,
		Provider:  provider,
		Model:     modelID,
		ToolsUsed: toolsUsed,
		Actions:   actions,
		Graph:     graph,
	}, nil
}

// dispatch resolves and executes one tool call, converting every failure mode
// into a JSON result string so the loop never aborts.
func (e *Engine) dispatch(
	ctx context.Context,
	rc *runtime.Context,
	call contract.ToolCall,
	actions *[]contract.ActionSummary,
	graph *[]contract.GraphPoint,
) string {
	name := tool.Name(call.Name)

	if !tool.Known(name, rc.Elevated) {
		log.Warn().Str("tool", call.Name).Msg("model requested unknown tool")
		*actions = append(*actions, contract.ActionSummary{
			Tool:    call.Name,
			Status:  contract.ActionError,
			Summary: fmt.Sprintf("unknown tool %q", call.Name),
		})
		return errorResult(fmt.Sprintf("unknown tool %q", call.Name))
	}

	args := parseArguments(call.Arguments)
	result, err := e.execute(ctx, rc, name, args)

	if name == tool.NameSendBundleInvites {
		*actions = append(*actions, inviteAction(call.Name, result, err))
	}
	if err != nil {
		log.Warn().Err(err).Str("tool", call.Name).Msg("tool call failed")
		return errorResult(err.Error())
	}

	if g, ok := result.(tool.EngagementGraph); ok {
		// Each aggregator invocation replaces the run's chart data.
		*graph = g.Points
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return errorResult(fmt.Sprintf("encode result: %v", err))
	}
	log.Debug().Str("tool", call.Name).Msg("tool call completed")
	return string(encoded)
}

// execute wraps the handler so a panic surfaces as an error result instead of
// taking down the run.
func (e *Engine) execute(
	ctx context.Context,
	rc *runtime.Context,
	name tool.Name,
	args map[string]any,
) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", name, r)
		}
	}()
	return e.executor.Execute(ctx, rc, name, args)
}

// parseArguments treats malformed model-supplied JSON as an empty argument
// object rather than a fatal condition.
func parseArguments(raw string) map[string]any {
	args := map[string]any{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		log.Debug().Err(err).Msg("discarding malformed tool arguments")
		return map[string]any{}
	}
	return args
}

func inviteAction(toolName string, result any, err error) contract.ActionSummary {
	if err != nil {
		return contract.ActionSummary{
			Tool:    toolName,
			Status:  contract.ActionError,
			Summary: err.Error(),
		}
	}
	if outcome, ok := result.(tool.InviteOutcome); ok {
		return contract.ActionSummary{
			Tool:    toolName,
			Status:  outcome.Status,
			Summary: outcome.Summary,
		}
	}
	return contract.ActionSummary{
		Tool:    toolName,
		Status:  contract.ActionError,
		Summary: "invite handler returned an unexpected result",
	}
}

func errorResult(message string) string {
	encoded, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return `{"error":"internal error"}`
	}
	return string(encoded)
}
