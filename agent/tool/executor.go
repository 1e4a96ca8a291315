package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coachdesk/coachdesk/agent/contract"
	"github.com/coachdesk/coachdesk/agent/runtime"
)

// Executor routes a named tool invocation to its handler. One Executor is
// shared across runs; per-run state lives in the runtime.Context.
type Executor struct {
	mailer contract.InviteMailer
	now    func() time.Time
}

func NewExecutor(mailer contract.InviteMailer) *Executor {
	return &Executor{
		mailer: mailer,
		now:    time.Now,
	}
}

// WithClock overrides the time source. Tests use this to pin expiries.
func (e *Executor) WithClock(now func() time.Time) *Executor {
	if now != nil {
		e.now = now
	}
	return e
}

// Execute dispatches one tool call. The switch is exhaustive over the Name
// enumeration; the engine filters unknown names before dispatch, so the
// default branch only fires on a wiring bug.
func (e *Executor) Execute(ctx context.Context, rc *runtime.Context, name Name, args map[string]any) (any, error) {
	switch name {
	case NameGetClients:
		return e.getClients(ctx, rc, args)
	case NameGetBundles:
		return e.getBundles(ctx, rc, args)
	case NameGetOrders:
		return e.getOrders(ctx, rc, args)
	case NameEngagementGraph:
		return e.engagementGraph(ctx, rc, args)
	case NameRecommendBundles:
		return e.recommendBundles(ctx, rc, args)
	case NameSendBundleInvites:
		return e.sendBundleInvites(ctx, rc, args)
	case NameListAllTrainers:
		return e.listAllTrainers(ctx, rc)
	case NameListAllUsers:
		return e.listAllUsers(ctx, rc)
	default:
		return nil, fmt.Errorf("%w: tool %s", contract.ErrNotFound, name)
	}
}

/* ----------------------------- argument access ---------------------------- */

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func boolArg(args map[string]any, key string) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return false
}

func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return fallback
}

func stringSliceArg(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
