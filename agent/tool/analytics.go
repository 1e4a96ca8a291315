package tool

import (
	"context"
	"sort"
	"strings"

	"github.com/coachdesk/coachdesk/agent/contract"
	"github.com/coachdesk/coachdesk/agent/runtime"
)

const (
	defaultGraphTopN = 10
	topViewSize      = 3
)

// EngagementGraph is the analytics aggregator's result: one point per client
// plus the three views the assistant reports from.
type EngagementGraph struct {
	Points        []contract.GraphPoint `json:"points"`
	TopByMessages []contract.GraphPoint `json:"top_by_messages"`
	TopByRevenue  []contract.GraphPoint `json:"top_by_revenue"`
}

func (e *Executor) engagementGraph(ctx context.Context, rc *runtime.Context, args map[string]any) (any, error) {
	trainerID := rc.ResolveTrainerID(stringArg(args, "trainer_id"))

	clients, err := rc.Clients(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	orders, err := rc.Orders(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	counts, err := rc.MessageCounts(ctx, trainerID)
	if err != nil {
		return nil, err
	}

	topN := intArg(args, "top_n", defaultGraphTopN)
	return BuildEngagementGraph(clients, orders, counts, topN), nil
}

// BuildEngagementGraph joins revenue-by-client with message counts. An order
// is attributed to the client it links to directly; without a link, its
// customer email is matched case-insensitively against client emails. Orders
// with non-positive amounts are ignored.
func BuildEngagementGraph(
	clients []contract.ClientRecord,
	orders []contract.OrderRecord,
	counts map[string]int,
	topN int,
) EngagementGraph {
	if topN < 1 {
		topN = 1
	}

	known := make(map[string]struct{}, len(clients))
	byEmail := make(map[string]string, len(clients))
	for _, client := range clients {
		known[client.ID] = struct{}{}
		email := strings.ToLower(strings.TrimSpace(client.Email))
		if email != "" {
			if _, taken := byEmail[email]; !taken {
				byEmail[email] = client.ID
			}
		}
	}

	revenue := make(map[string]int64, len(clients))
	for _, order := range orders {
		if order.AmountMinor <= 0 {
			continue
		}
		if order.ClientID != "" {
			if _, ok := known[order.ClientID]; ok {
				revenue[order.ClientID] += order.AmountMinor
				continue
			}
		}
		email := strings.ToLower(strings.TrimSpace(order.CustomerEmail))
		if email == "" {
			continue
		}
		if clientID, ok := byEmail[email]; ok {
			revenue[clientID] += order.AmountMinor
		}
	}

	points := make([]contract.GraphPoint, 0, len(clients))
	for _, client := range clients {
		minor := revenue[client.ID]
		points = append(points, contract.GraphPoint{
			ClientID:     client.ID,
			Name:         client.Name,
			Messages:     counts[client.ID],
			RevenueMinor: minor,
			Revenue:      float64(minor) / 100,
		})
	}

	byRevenue := make([]contract.GraphPoint, len(points))
	copy(byRevenue, points)
	sort.SliceStable(byRevenue, func(i, j int) bool {
		return byRevenue[i].RevenueMinor > byRevenue[j].RevenueMinor
	})

	byMessages := make([]contract.GraphPoint, len(points))
	copy(byMessages, points)
	sort.SliceStable(byMessages, func(i, j int) bool {
		return byMessages[i].Messages > byMessages[j].Messages
	})

	ranked := byRevenue
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	return EngagementGraph{
		Points:        ranked,
		TopByMessages: truncate(byMessages, topViewSize),
		TopByRevenue:  truncate(byRevenue, topViewSize),
	}
}

func truncate(points []contract.GraphPoint, n int) []contract.GraphPoint {
	if len(points) <= n {
		return points
	}
	return points[:n]
}
