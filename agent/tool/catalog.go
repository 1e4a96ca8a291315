// Package tool declares the deterministic tool catalog exposed to the model
// and implements every handler behind it.
package tool

import (
	"github.com/coachdesk/coachdesk/agent/contract"
)

// Name is the closed enumeration of callable tools. Dispatch switches over
// Name exhaustively; anything else is a structured error, never a crash.
type Name string

const (
	NameGetClients        Name = "get_clients"
	NameGetBundles        Name = "get_bundles"
	NameGetOrders         Name = "get_orders"
	NameEngagementGraph   Name = "get_engagement_graph"
	NameRecommendBundles  Name = "recommend_bundles_from_chats"
	NameSendBundleInvites Name = "send_bundle_invites"

	// Elevated-only tools.
	NameListAllTrainers Name = "list_all_trainers"
	NameListAllUsers    Name = "list_all_users"
)

var baseNames = []Name{
	NameGetClients,
	NameGetBundles,
	NameGetOrders,
	NameEngagementGraph,
	NameRecommendBundles,
	NameSendBundleInvites,
}

var elevatedNames = []Name{
	NameListAllTrainers,
	NameListAllUsers,
}

// Known reports whether the named tool is callable for this run. Elevated-only
// tools are unknown to non-elevated runs, so a model inventing them gets the
// same structured error as any other bogus name.
func Known(name Name, elevated bool) bool {
	for _, n := range baseNames {
		if n == name {
			return true
		}
	}
	if !elevated {
		return false
	}
	for _, n := range elevatedNames {
		if n == name {
			return true
		}
	}
	return false
}

// Catalog builds the tool definitions for one run. Elevated runs additionally
// receive the cross-trainer listing tools and a trainer_id override parameter
// on the shared tools.
func Catalog(elevated bool) []contract.ToolDefinition {
	defs := []contract.ToolDefinition{
		{
			Name:        string(NameGetClients),
			Description: "List the trainer's clients with contact details, notes, and status.",
			Parameters:  objectSchema(sharedProps(elevated, nil), nil),
		},
		{
			Name:        string(NameGetBundles),
			Description: "List the trainer's training bundles with title, description, price, status, and tags.",
			Parameters:  objectSchema(sharedProps(elevated, nil), nil),
		},
		{
			Name:        string(NameGetOrders),
			Description: "List the trainer's orders with amounts and customer references.",
			Parameters:  objectSchema(sharedProps(elevated, nil), nil),
		},
		{
			Name:        string(NameEngagementGraph),
			Description: "Build engagement-vs-revenue data per client: message counts joined with revenue, plus top-3 views. Use this for questions about best clients, revenue, or engagement.",
			Parameters: objectSchema(sharedProps(elevated, map[string]any{
				"top_n": map[string]any{
					"type":        "integer",
					"description": "How many clients to include in the ranked list (default 10).",
				},
			}), nil),
		},
		{
			Name:        string(NameRecommendBundles),
			Description: "Recommend the best-matching bundle per client by comparing client notes and recent chats against bundle keywords. Deterministic; no model judgement involved.",
			Parameters:  objectSchema(sharedProps(elevated, nil), nil),
		},
		{
			Name:        string(NameSendBundleInvites),
			Description: "Invite clients and/or email addresses to a bundle. Without confirm=true this only previews the recipients; nothing is sent.",
			Parameters: objectSchema(sharedProps(elevated, map[string]any{
				"bundle_id": map[string]any{
					"type":        "string",
					"description": "ID of the bundle to invite recipients to.",
				},
				"client_ids": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Client IDs from the trainer's roster to invite.",
				},
				"emails": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Email addresses to invite directly.",
				},
				"message": map[string]any{
					"type":        "string",
					"description": "Optional personal message included in the invitation email.",
				},
				"confirm": map[string]any{
					"type":        "boolean",
					"description": "Must be true to actually send. Leave false to preview.",
				},
				"dry_run": map[string]any{
					"type":        "boolean",
					"description": "Force a preview even when confirm is set.",
				},
			}), []string{"bundle_id"}),
		},
	}

	if elevated {
		defs = append(defs,
			contract.ToolDefinition{
				Name:        string(NameListAllTrainers),
				Description: "List every trainer on the platform.",
				Parameters:  objectSchema(map[string]any{}, nil),
			},
			contract.ToolDefinition{
				Name:        string(NameListAllUsers),
				Description: "List every user account on the platform.",
				Parameters:  objectSchema(map[string]any{}, nil),
			},
		)
	}
	return defs
}

func objectSchema(props map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// sharedProps merges tool-specific properties with the elevated-only
// trainer_id override parameter.
func sharedProps(elevated bool, props map[string]any) map[string]any {
	merged := make(map[string]any, len(props)+1)
	for k, v := range props {
		merged[k] = v
	}
	if elevated {
		merged["trainer_id"] = map[string]any{
			"type":        "string",
			"description": "Operate on this trainer's data instead of your own.",
		}
	}
	return merged
}
