// Package runtime resolves the acting identity for one run and memoizes data
// access behind a run-scoped cache. A Context is owned by exactly one run and
// discarded when the run returns.
package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/coachdesk/coachdesk/agent/contract"
)

// Context carries the acting identity, its capabilities, and the run cache.
type Context struct {
	ActingUser     contract.UserRecord
	Elevated       bool
	AllowMutations bool

	store contract.Store

	clients map[string][]contract.ClientRecord
	bundles map[string][]contract.BundleRecord
	orders  map[string][]contract.OrderRecord
	counts  map[string]map[string]int
}

// New loads the acting user and prepares an empty cache. Admin users are
// elevated: they may read any trainer's data via identity overrides.
func New(ctx context.Context, store contract.Store, actingUserID string, allowMutations bool) (*Context, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", contract.ErrValidation)
	}
	actingUserID = strings.TrimSpace(actingUserID)
	if actingUserID == "" {
		return nil, fmt.Errorf("%w: acting user id is required", contract.ErrValidation)
	}

	user, err := store.UserByID(ctx, actingUserID)
	if err != nil {
		return nil, fmt.Errorf("load acting user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", contract.ErrNotFound, actingUserID)
	}

	return &Context{
		ActingUser:     *user,
		Elevated:       user.Role == contract.UserRoleAdmin,
		AllowMutations: allowMutations,
		store:          store,
		clients:        make(map[string][]contract.ClientRecord),
		bundles:        make(map[string][]contract.BundleRecord),
		orders:         make(map[string][]contract.OrderRecord),
		counts:         make(map[string]map[string]int),
	}, nil
}

// ResolveTrainerID honors a trainer override only for elevated runs. For
// everyone else the acting identity is used unconditionally, so a tool
// argument can never widen access.
func (rc *Context) ResolveTrainerID(override string) string {
	override = strings.TrimSpace(override)
	if rc.Elevated && override != "" {
		return override
	}
	return rc.ActingUser.ID
}

// Store exposes the underlying store for non-memoized lookups.
func (rc *Context) Store() contract.Store { return rc.store }

// Clients returns the trainer's client roster, fetching at most once per
// trainer per run.
func (rc *Context) Clients(ctx context.Context, trainerID string) ([]contract.ClientRecord, error) {
	if cached, ok := rc.clients[trainerID]; ok {
		return cached, nil
	}
	clients, err := rc.store.ClientsByTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	rc.clients[trainerID] = clients
	return clients, nil
}

// Bundles returns the trainer's bundles, fetching at most once per trainer
// per run.
func (rc *Context) Bundles(ctx context.Context, trainerID string) ([]contract.BundleRecord, error) {
	if cached, ok := rc.bundles[trainerID]; ok {
		return cached, nil
	}
	bundles, err := rc.store.BundlesByTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	rc.bundles[trainerID] = bundles
	return bundles, nil
}

// Orders returns the trainer's orders, fetching at most once per trainer per
// run.
func (rc *Context) Orders(ctx context.Context, trainerID string) ([]contract.OrderRecord, error) {
	if cached, ok := rc.orders[trainerID]; ok {
		return cached, nil
	}
	orders, err := rc.store.OrdersByTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	rc.orders[trainerID] = orders
	return orders, nil
}

// MessageCounts returns client id -> direct message count, fetching at most
// once per trainer per run.
func (rc *Context) MessageCounts(ctx context.Context, trainerID string) (map[string]int, error) {
	if cached, ok := rc.counts[trainerID]; ok {
		return cached, nil
	}
	counts, err := rc.store.MessageCountsByClient(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = map[string]int{}
	}
	rc.counts[trainerID] = counts
	return counts, nil
}
