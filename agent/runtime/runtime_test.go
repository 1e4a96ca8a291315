package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/coachdesk/coachdesk/agent/contract"
)

type fakeStore struct {
	users map[string]contract.UserRecord

	clientCalls int
	bundleCalls int
	orderCalls  int
	countCalls  int
}

func (s *fakeStore) UserByID(_ context.Context, id string) (*contract.UserRecord, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (s *fakeStore) Trainers(context.Context) ([]contract.UserRecord, error) { return nil, nil }
func (s *fakeStore) Users(context.Context) ([]contract.UserRecord, error)    { return nil, nil }

func (s *fakeStore) ClientsByTrainer(_ context.Context, trainerID string) ([]contract.ClientRecord, error) {
	s.clientCalls++
	return []contract.ClientRecord{{ID: "c1", TrainerID: trainerID, Name: "Alex"}}, nil
}

func (s *fakeStore) BundlesByTrainer(_ context.Context, trainerID string) ([]contract.BundleRecord, error) {
	s.bundleCalls++
	return []contract.BundleRecord{{ID: "b1", TrainerID: trainerID, Title: "Starter"}}, nil
}

func (s *fakeStore) OrdersByTrainer(_ context.Context, trainerID string) ([]contract.OrderRecord, error) {
	s.orderCalls++
	return []contract.OrderRecord{{ID: "o1", TrainerID: trainerID, AmountMinor: 5000}}, nil
}

func (s *fakeStore) MessageCountsByClient(context.Context, string) (map[string]int, error) {
	s.countCalls++
	return map[string]int{"c1": 4}, nil
}

func (s *fakeStore) MessagesWithClient(context.Context, string, string, int) ([]contract.ChatMessageRecord, error) {
	return nil, nil
}

func (s *fakeStore) CreateInvitation(context.Context, *contract.InvitationRecord) error {
	return nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]contract.UserRecord{
		"t1": {ID: "t1", Name: "Jordan", Role: contract.UserRoleTrainer},
		"a1": {ID: "a1", Name: "Admin", Role: contract.UserRoleAdmin},
	}}
}

func TestNewLoadsActingUser(t *testing.T) {
	t.Parallel()

	rc, err := New(context.Background(), newFakeStore(), "t1", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rc.ActingUser.Name != "Jordan" {
		t.Fatalf("unexpected acting user: %+v", rc.ActingUser)
	}
	if rc.Elevated {
		t.Fatal("trainer must not be elevated")
	}
	if !rc.AllowMutations {
		t.Fatal("mutations should be allowed")
	}
}

func TestNewRejectsUnknownUser(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), newFakeStore(), "ghost", true)
	if !errors.Is(err, contract.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewRejectsEmptyUserID(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), newFakeStore(), "  ", true)
	if !errors.Is(err, contract.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestResolveTrainerIDIgnoresOverrideForTrainers(t *testing.T) {
	t.Parallel()

	rc, err := New(context.Background(), newFakeStore(), "t1", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rc.ResolveTrainerID("other-trainer"); got != "t1" {
		t.Fatalf("override must be ignored for trainers, got %q", got)
	}
}

func TestResolveTrainerIDHonorsOverrideForAdmins(t *testing.T) {
	t.Parallel()

	rc, err := New(context.Background(), newFakeStore(), "a1", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rc.Elevated {
		t.Fatal("admin must be elevated")
	}
	if got := rc.ResolveTrainerID("t1"); got != "t1" {
		t.Fatalf("expected override to win, got %q", got)
	}
	if got := rc.ResolveTrainerID(""); got != "a1" {
		t.Fatalf("empty override must fall back to acting user, got %q", got)
	}
}

func TestAccessorsMemoizePerTrainer(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	rc, err := New(context.Background(), store, "t1", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := rc.Clients(ctx, "t1"); err != nil {
			t.Fatalf("clients: %v", err)
		}
		if _, err := rc.Bundles(ctx, "t1"); err != nil {
			t.Fatalf("bundles: %v", err)
		}
		if _, err := rc.Orders(ctx, "t1"); err != nil {
			t.Fatalf("orders: %v", err)
		}
		if _, err := rc.MessageCounts(ctx, "t1"); err != nil {
			t.Fatalf("counts: %v", err)
		}
	}

	if store.clientCalls != 1 || store.bundleCalls != 1 || store.orderCalls != 1 || store.countCalls != 1 {
		t.Fatalf("expected one fetch per accessor, got clients=%d bundles=%d orders=%d counts=%d",
			store.clientCalls, store.bundleCalls, store.orderCalls, store.countCalls)
	}

	// A different trainer id is a separate cache entry.
	if _, err := rc.Clients(ctx, "t2"); err != nil {
		t.Fatalf("clients t2: %v", err)
	}
	if store.clientCalls != 2 {
		t.Fatalf("expected a fresh fetch for t2, got %d calls", store.clientCalls)
	}
}
