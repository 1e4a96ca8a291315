package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/coachdesk/coachdesk/agent/contract"
	"github.com/coachdesk/coachdesk/agent/runtime"
)

// inviteTTL is how long an invitation link stays valid.
const inviteTTL = 7 * 24 * time.Hour

type inviteArgs struct {
	TrainerID string   `json:"trainer_id"`
	BundleID  string   `json:"bundle_id"`
	ClientIDs []string `json:"client_ids"`
	Emails    []string `json:"emails"`
	Message   string   `json:"message"`
	Confirm   bool     `json:"confirm"`
	DryRun    bool     `json:"dry_run"`
}

// InviteRecipient is one resolved, deduplicated invitation target. Source is
// "client:<id>" for roster entries and "email" for directly supplied
// addresses; the first-seen source wins on duplicates.
type InviteRecipient struct {
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Source string `json:"source"`
}

type InviteFailure struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// InviteOutcome is the handler's structured result across every terminal
// state of the invitation flow.
type InviteOutcome struct {
	Status      contract.ActionStatus `json:"status"`
	BundleID    string                `json:"bundle_id,omitempty"`
	BundleTitle string                `json:"bundle_title,omitempty"`
	Recipients  []InviteRecipient     `json:"recipients,omitempty"`
	Invalid     []string              `json:"invalid,omitempty"`
	Sent        int                   `json:"sent"`
	Failed      int                   `json:"failed"`
	Failures    []InviteFailure       `json:"failures,omitempty"`
	Summary     string                `json:"summary"`
}

func (e *Executor) sendBundleInvites(ctx context.Context, rc *runtime.Context, rawArgs map[string]any) (any, error) {
	args, err := decodeInviteArgs(rawArgs)
	if err != nil {
		return nil, err
	}
	trainerID := rc.ResolveTrainerID(args.TrainerID)

	bundle, err := e.resolveBundle(ctx, rc, trainerID, args.BundleID)
	if err != nil {
		return nil, err
	}
	if bundle == nil {
		return InviteOutcome{
			Status:  contract.ActionError,
			Summary: fmt.Sprintf("bundle %q was not found in your bundles", args.BundleID),
		}, nil
	}

	recipients, invalid, err := e.resolveRecipients(ctx, rc, trainerID, args)
	if err != nil {
		return nil, err
	}

	if len(recipients) == 0 {
		return InviteOutcome{
			Status:      contract.ActionBlocked,
			BundleID:    bundle.ID,
			BundleTitle: bundle.Title,
			Invalid:     invalid,
			Summary:     "no valid recipients to invite",
		}, nil
	}

	if !rc.AllowMutations {
		return InviteOutcome{
			Status:      contract.ActionBlocked,
			BundleID:    bundle.ID,
			BundleTitle: bundle.Title,
			Recipients:  recipients,
			Invalid:     invalid,
			Summary: fmt.Sprintf(
				"mutations are disabled for this run; %d recipient(s) would have been invited to %q",
				len(recipients), bundle.Title,
			),
		}, nil
	}

	if !args.Confirm || args.DryRun {
		return InviteOutcome{
			Status:      contract.ActionPreview,
			BundleID:    bundle.ID,
			BundleTitle: bundle.Title,
			Recipients:  recipients,
			Invalid:     invalid,
			Summary: fmt.Sprintf(
				"preview: %d recipient(s) ready for %q; call again with confirm=true to send",
				len(recipients), bundle.Title,
			),
		}, nil
	}

	return e.deliverInvites(ctx, rc, trainerID, *bundle, recipients, invalid, args.Message), nil
}

func decodeInviteArgs(raw map[string]any) (inviteArgs, error) {
	var args inviteArgs
	encoded, err := json.Marshal(raw)
	if err != nil {
		return args, fmt.Errorf("%w: encode invite arguments: %v", contract.ErrValidation, err)
	}
	if err := json.Unmarshal(encoded, &args); err != nil {
		return args, fmt.Errorf("%w: invite arguments: %v", contract.ErrValidation, err)
	}
	args.BundleID = strings.TrimSpace(args.BundleID)
	return args, nil
}

func (e *Executor) resolveBundle(ctx context.Context, rc *runtime.Context, trainerID, bundleID string) (*contract.BundleRecord, error) {
	if bundleID == "" {
		return nil, nil
	}
	bundles, err := rc.Bundles(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	for i := range bundles {
		if bundles[i].ID == bundleID {
			return &bundles[i], nil
		}
	}
	return nil, nil
}

// resolveRecipients merges roster clients and direct emails, deduplicating by
// lower-cased trimmed email with first-seen provenance.
func (e *Executor) resolveRecipients(
	ctx context.Context,
	rc *runtime.Context,
	trainerID string,
	args inviteArgs,
) ([]InviteRecipient, []string, error) {
	var (
		recipients []InviteRecipient
		invalid    []string
		seen       = map[string]struct{}{}
	)

	add := func(email, name, source string) {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			return
		}
		if _, dup := seen[email]; dup {
			return
		}
		seen[email] = struct{}{}
		recipients = append(recipients, InviteRecipient{Email: email, Name: name, Source: source})
	}

	if len(args.ClientIDs) > 0 {
		clients, err := rc.Clients(ctx, trainerID)
		if err != nil {
			return nil, nil, err
		}
		roster := make(map[string]contract.ClientRecord, len(clients))
		for _, client := range clients {
			roster[client.ID] = client
		}
		for _, id := range args.ClientIDs {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			client, ok := roster[id]
			if !ok {
				invalid = append(invalid, fmt.Sprintf("client %s not found", id))
				continue
			}
			if strings.TrimSpace(client.Email) == "" {
				invalid = append(invalid, fmt.Sprintf("client %s has no email address", client.Name))
				continue
			}
			add(client.Email, client.Name, "client:"+client.ID)
		}
	}

	for _, email := range args.Emails {
		add(email, "", "email")
	}

	return recipients, invalid, nil
}

// deliverInvites persists and emails one invitation per recipient. Each
// recipient's outcome is independent: a failure never rolls back or blocks a
// sibling.
func (e *Executor) deliverInvites(
	ctx context.Context,
	rc *runtime.Context,
	trainerID string,
	bundle contract.BundleRecord,
	recipients []InviteRecipient,
	invalid []string,
	message string,
) InviteOutcome {
	now := e.now()
	expiresAt := now.Add(inviteTTL)

	outcome := InviteOutcome{
		BundleID:    bundle.ID,
		BundleTitle: bundle.Title,
		Recipients:  recipients,
		Invalid:     invalid,
	}

	for _, recipient := range recipients {
		token := uuid.NewString()
		record := &contract.InvitationRecord{
			ID:        uuid.NewString(),
			TrainerID: trainerID,
			BundleID:  bundle.ID,
			Email:     recipient.Email,
			Name:      recipient.Name,
			Token:     token,
			Message:   strings.TrimSpace(message),
			ExpiresAt: expiresAt,
			CreatedAt: now,
		}

		if err := rc.Store().CreateInvitation(ctx, record); err != nil {
			log.Warn().Err(err).Str("email", recipient.Email).Msg("invitation persist failed")
			outcome.Failed++
			outcome.Failures = append(outcome.Failures, InviteFailure{
				Email:  recipient.Email,
				Reason: fmt.Sprintf("could not save invitation: %v", err),
			})
			continue
		}

		err := e.mailer.SendInvite(
			ctx,
			recipient.Email,
			recipient.Name,
			token,
			rc.ActingUser.Name,
			expiresAt,
			message,
		)
		if err != nil {
			log.Warn().Err(err).Str("email", recipient.Email).Msg("invitation delivery failed")
			outcome.Failed++
			outcome.Failures = append(outcome.Failures, InviteFailure{
				Email:  recipient.Email,
				Reason: err.Error(),
			})
			continue
		}
		outcome.Sent++
	}

	switch {
	case outcome.Failed == 0:
		outcome.Status = contract.ActionSuccess
		outcome.Summary = fmt.Sprintf("invited %d recipient(s) to %q", outcome.Sent, bundle.Title)
	case outcome.Sent > 0:
		outcome.Status = contract.ActionPartial
		outcome.Summary = fmt.Sprintf(
			"sent %d of %d invitation(s) to %q; %d failed",
			outcome.Sent, len(recipients), bundle.Title, outcome.Failed,
		)
	default:
		outcome.Status = contract.ActionError
		outcome.Summary = fmt.Sprintf("all %d invitation(s) to %q failed", outcome.Failed, bundle.Title)
	}
	return outcome
}
