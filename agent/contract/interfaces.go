package contract

import (
	"context"
	"time"
)

// Store is the read/write boundary to business data. All trainer-scoped
// accessors return only rows owned by the given trainer.
type Store interface {
	UserByID(ctx context.Context, id string) (*UserRecord, error)
	Trainers(ctx context.Context) ([]UserRecord, error)
	Users(ctx context.Context) ([]UserRecord, error)

	ClientsByTrainer(ctx context.Context, trainerID string) ([]ClientRecord, error)
	BundlesByTrainer(ctx context.Context, trainerID string) ([]BundleRecord, error)
	OrdersByTrainer(ctx context.Context, trainerID string) ([]OrderRecord, error)

	// MessageCountsByClient returns client id -> number of direct messages
	// exchanged between the trainer and that client.
	MessageCountsByClient(ctx context.Context, trainerID string) (map[string]int, error)

	// MessagesWithClient returns the most recent direct messages between the
	// trainer and the client, newest last, capped at limit.
	MessagesWithClient(ctx context.Context, trainerID, clientID string, limit int) ([]ChatMessageRecord, error)

	CreateInvitation(ctx context.Context, inv *InvitationRecord) error
}

// ChatModel is the opaque language-model collaborator.
type ChatModel interface {
	Invoke(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// InviteMailer is the outbound delivery collaborator for bundle invitations.
type InviteMailer interface {
	SendInvite(
		ctx context.Context,
		email, name, token, senderName string,
		expiresAt time.Time,
		personalMessage string,
	) error
}
