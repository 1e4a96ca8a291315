package tool

import (
	"context"

	"github.com/coachdesk/coachdesk/agent/runtime"
)

func (e *Executor) getClients(ctx context.Context, rc *runtime.Context, args map[string]any) (any, error) {
	trainerID := rc.ResolveTrainerID(stringArg(args, "trainer_id"))
	clients, err := rc.Clients(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"count":   len(clients),
		"clients": clients,
	}, nil
}

func (e *Executor) getBundles(ctx context.Context, rc *runtime.Context, args map[string]any) (any, error) {
	trainerID := rc.ResolveTrainerID(stringArg(args, "trainer_id"))
	bundles, err := rc.Bundles(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"count":   len(bundles),
		"bundles": bundles,
	}, nil
}

func (e *Executor) getOrders(ctx context.Context, rc *runtime.Context, args map[string]any) (any, error) {
	trainerID := rc.ResolveTrainerID(stringArg(args, "trainer_id"))
	orders, err := rc.Orders(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	var totalMinor int64
	for _, order := range orders {
		if order.AmountMinor > 0 {
			totalMinor += order.AmountMinor
		}
	}
	return map[string]any{
		"count":       len(orders),
		"total_minor": totalMinor,
		"orders":      orders,
	}, nil
}

func (e *Executor) listAllTrainers(ctx context.Context, rc *runtime.Context) (any, error) {
	trainers, err := rc.Store().Trainers(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"count":    len(trainers),
		"trainers": trainers,
	}, nil
}

func (e *Executor) listAllUsers(ctx context.Context, rc *runtime.Context) (any, error) {
	users, err := rc.Store().Users(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"count": len(users),
		"users": users,
	}, nil
}
