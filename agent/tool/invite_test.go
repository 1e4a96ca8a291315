package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coachdesk/coachdesk/agent/contract"
)

func TestSendBundleInvitesPreviewHasNoSideEffects(t *testing.T) {
	t.Parallel()

	store := newFixtureStore()
	mailer := &fakeMailer{}
	executor := NewExecutor(mailer)
	rc := newRuntimeContext(t, store, "t1", true)

	result, err := executor.Execute(context.Background(), rc, NameSendBundleInvites, map[string]any{
		"bundle_id":  "b1",
		"client_ids": []any{"c1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outcome := result.(InviteOutcome)
	if outcome.Status != contract.ActionPreview {
		t.Fatalf("expected preview status, got %s", outcome.Status)
	}
	if len(outcome.Recipients) != 1 || outcome.Recipients[0].Email != "alex@example.com" {
		t.Fatalf("unexpected recipients: %+v", outcome.Recipients)
	}
	if len(store.invitations) != 0 || len(mailer.sent) != 0 {
		t.Fatalf("preview must not persist or send: %d invitations, %d emails", len(store.invitations), len(mailer.sent))
	}
}

func TestSendBundleInvitesDryRunOverridesConfirm(t *testing.T) {
	t.Parallel()

	store := newFixtureStore()
	mailer := &fakeMailer{}
	executor := NewExecutor(mailer)
	rc := newRuntimeContext(t, store, "t1", true)

	result, err := executor.Execute(context.Background(), rc, NameSendBundleInvites, map[string]any{
		"bundle_id": "b1",
		"emails":    []any{"new@example.com"},
		"confirm":   true,
		"dry_run":   true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outcome := result.(InviteOutcome)
	if outcome.Status != contract.ActionPreview {
		t.Fatalf("expected preview, got %s", outcome.Status)
	}
	if len(mailer.sent) != 0 {
		t.Fatal("dry run must not send")
	}
}

func TestSendBundleInvitesBlockedWhenMutationsDisabled(t *testing.T) {
	t.Parallel()

	store := newFixtureStore()
	mailer := &fakeMailer{}
	executor := NewExecutor(mailer)
	rc := newRuntimeContext(t, store, "t1", false)

	result, err := executor.Execute(context.Background(), rc, NameSendBundleInvites, map[string]any{
		"bundle_id": "b1",
		"emails":    []any{"new@example.com"},
		"confirm":   true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outcome := result.(InviteOutcome)
	if outcome.Status != contract.ActionBlocked {
		t.Fatalf("expected blocked, got %s", outcome.Status)
	}
	if len(store.invitations) != 0 || len(mailer.sent) != 0 {
		t.Fatal("blocked run must not persist or send")
	}
}

func TestSendBundleInvitesDeduplicatesByEmail(t *testing.T) {
	t.Parallel()

	store := newFixtureStore()
	executor := NewExecutor(&fakeMailer{})
	rc := newRuntimeContext(t, store, "t1", true)

	result, err := executor.Execute(context.Background(), rc, NameSendBundleInvites, map[string]any{
		"bundle_id":  "b1",
		"client_ids": []any{"c1"},
		"emails":     []any{"  ALEX@Example.COM ", "new@example.com"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outcome := result.(InviteOutcome)
	if len(outcome.Recipients) != 2 {
		t.Fatalf("expected 2 deduplicated recipients, got %+v", outcome.Recipients)
	}
	// First-seen provenance wins: the roster entry, not the raw email.
	if outcome.Recipients[0].Source != "client:c1" {
		t.Fatalf("expected roster provenance, got %+v", outcome.Recipients[0])
	}
}

func TestSendBundleInvitesReportsInvalidClients(t *testing.T) {
	t.Parallel()

	store := newFixtureStore()
	executor := NewExecutor(&fakeMailer{})
	rc := newRuntimeContext(t, store, "t1", true)

	result, err := executor.Execute(context.Background(), rc, NameSendBundleInvites, map[string]any{
		"bundle_id":  "b1",
		"client_ids": []any{"ghost", "c3", "c1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outcome := result.(InviteOutcome)
	if len(outcome.Invalid) != 2 {
		t.Fatalf("expected 2 invalid diagnostics, got %+v", outcome.Invalid)
	}
	if len(outcome.Recipients) != 1 {
		t.Fatalf("expected only c1 to resolve, got %+v", outcome.Recipients)
	}
}

func TestSendBundleInvitesBlockedWithoutRecipients(t *testing.T) {
	t.Parallel()

	store := newFixtureStore()
	executor := NewExecutor(&fakeMailer{})
	rc := newRuntimeContext(t, store, "t1", true)

	result, err := executor.Execute(context.Background(), rc, NameSendBundleInvites, map[string]any{
		"bundle_id":  "b1",
		"client_ids": []any{"ghost"},
		"confirm":    true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outcome := result.(InviteOutcome)
	if outcome.Status != contract.ActionBlocked {
		t.Fatalf("expected blocked, got %s", outcome.Status)
	}
}

func TestSendBundleInvitesUnknownBundle(t *testing.T) {
	t.Parallel()

	store := newFixtureStore()
	executor := NewExecutor(&fakeMailer{})
	rc := newRuntimeContext(t, store, "t1", true)

	result, err := executor.Execute(context.Background(), rc, NameSendBundleInvites, map[string]any{
		"bundle_id": "nope",
		"emails":    []any{"new@example.com"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outcome := result.(InviteOutcome)
	if outcome.Status != contract.ActionError {
		t.Fatalf("expected error outcome, got %s", outcome.Status)
	}
}

func TestSendBundleInvitesConfirmedSendsAll(t *testing.T) {
	t.Parallel()

	store := newFixtureStore()
	mailer := &fakeMailer{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	executor := NewExecutor(mailer).WithClock(func() time.Time { return now })
	rc := newRuntimeContext(t, store, "t1", true)

	result, err := executor.Execute(context.Background(), rc, NameSendBundleInvites, map[string]any{
		"bundle_id":  "b1",
		"client_ids": []any{"c1", "c2"},
		"confirm":    true,
		"message":    "see you at the track",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outcome := result.(InviteOutcome)
	if outcome.Status != contract.ActionSuccess {
		t.Fatalf("expected success, got %s: %s", outcome.Status, outcome.Summary)
	}
	if outcome.Sent != 2 || outcome.Failed != 0 {
		t.Fatalf("unexpected counters: %+v", outcome)
	}
	if len(store.invitations) != 2 {
		t.Fatalf("expected 2 persisted invitations, got %d", len(store.invitations))
	}

	inv := store.invitations[0]
	if inv.BundleID != "b1" || inv.TrainerID != "t1" {
		t.Fatalf("unexpected invitation: %+v", inv)
	}
	if inv.Token == "" || inv.ID == "" {
		t.Fatal("invitation must carry generated id and token")
	}
	if !inv.ExpiresAt.Equal(now.Add(inviteTTL)) {
		t.Fatalf("unexpected expiry: %v", inv.ExpiresAt)
	}
	if inv.Message != "see you at the track" {
		t.Fatalf("unexpected message: %q", inv.Message)
	}
	if mailer.lastName != "Jordan" {
		t.Fatalf("invite must carry the acting trainer's name, got %q", mailer.lastName)
	}
}

func TestSendBundleInvitesPartialFailure(t *testing.T) {
	t.Parallel()

	store := newFixtureStore()
	mailer := &fakeMailer{failFor: map[string]bool{"blair@example.com": true}}
	executor := NewExecutor(mailer)
	rc := newRuntimeContext(t, store, "t1", true)

	result, err := executor.Execute(context.Background(), rc, NameSendBundleInvites, map[string]any{
		"bundle_id":  "b1",
		"client_ids": []any{"c1", "c2"},
		"confirm":    true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outcome := result.(InviteOutcome)
	if outcome.Status != contract.ActionPartial {
		t.Fatalf("expected partial, got %s", outcome.Status)
	}
	if outcome.Sent != 1 || outcome.Failed != 1 {
		t.Fatalf("unexpected counters: sent=%d failed=%d", outcome.Sent, outcome.Failed)
	}
	if len(outcome.Failures) != 1 || outcome.Failures[0].Email != "blair@example.com" {
		t.Fatalf("unexpected failures: %+v", outcome.Failures)
	}
}

func TestSendBundleInvitesAllFailures(t *testing.T) {
	t.Parallel()

	store := newFixtureStore()
	store.insertErr = errors.New("db down")
	executor := NewExecutor(&fakeMailer{})
	rc := newRuntimeContext(t, store, "t1", true)

	result, err := executor.Execute(context.Background(), rc, NameSendBundleInvites, map[string]any{
		"bundle_id": "b1",
		"emails":    []any{"new@example.com"},
		"confirm":   true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outcome := result.(InviteOutcome)
	if outcome.Status != contract.ActionError {
		t.Fatalf("expected error status, got %s", outcome.Status)
	}
	if outcome.Sent != 0 || outcome.Failed != 1 {
		t.Fatalf("unexpected counters: %+v", outcome)
	}
}
