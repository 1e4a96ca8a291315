package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/coachdesk/coachdesk/agent/contract"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID    string `bun:"id,pk"`
	Email string `bun:"email"`
	Name  string `bun:"name"`
	Role  string `bun:"role"`
}

func (r userRow) record() contract.UserRecord {
	return contract.UserRecord{
		ID:    r.ID,
		Email: r.Email,
		Name:  r.Name,
		Role:  contract.UserRole(r.Role),
	}
}

type clientRow struct {
	bun.BaseModel `bun:"table:clients,alias:c"`

	ID        string `bun:"id,pk"`
	TrainerID string `bun:"trainer_id"`
	UserID    string `bun:"user_id,nullzero"`
	Name      string `bun:"name"`
	Email     string `bun:"email,nullzero"`
	Notes     string `bun:"notes,nullzero"`
	Status    string `bun:"status"`
}

func (r clientRow) record() contract.ClientRecord {
	return contract.ClientRecord{
		ID:        r.ID,
		TrainerID: r.TrainerID,
		UserID:    r.UserID,
		Name:      r.Name,
		Email:     r.Email,
		Notes:     r.Notes,
		Status:    r.Status,
	}
}

type bundleRow struct {
	bun.BaseModel `bun:"table:bundles,alias:b"`

	ID          string   `bun:"id,pk"`
	TrainerID   string   `bun:"trainer_id"`
	Title       string   `bun:"title"`
	Description string   `bun:"description,nullzero"`
	Status      string   `bun:"status"`
	PriceMinor  int64    `bun:"price_minor"`
	Tags        []string `bun:"tags,array"`
}

func (r bundleRow) record() contract.BundleRecord {
	return contract.BundleRecord{
		ID:          r.ID,
		TrainerID:   r.TrainerID,
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		PriceMinor:  r.PriceMinor,
		Tags:        r.Tags,
	}
}

type orderRow struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID            string    `bun:"id,pk"`
	TrainerID     string    `bun:"trainer_id"`
	ClientID      string    `bun:"client_id,nullzero"`
	CustomerEmail string    `bun:"customer_email,nullzero"`
	AmountMinor   int64     `bun:"amount_minor"`
	CreatedAt     time.Time `bun:"created_at"`
}

func (r orderRow) record() contract.OrderRecord {
	return contract.OrderRecord{
		ID:            r.ID,
		TrainerID:     r.TrainerID,
		ClientID:      r.ClientID,
		CustomerEmail: r.CustomerEmail,
		AmountMinor:   r.AmountMinor,
		CreatedAt:     r.CreatedAt,
	}
}

type chatMessageRow struct {
	bun.BaseModel `bun:"table:chat_messages,alias:m"`

	ID        string    `bun:"id,pk"`
	TrainerID string    `bun:"trainer_id"`
	ClientID  string    `bun:"client_id"`
	SenderID  string    `bun:"sender_id"`
	Text      string    `bun:"text"`
	SentAt    time.Time `bun:"sent_at"`
}

func (r chatMessageRow) record() contract.ChatMessageRecord {
	return contract.ChatMessageRecord{
		ID:       r.ID,
		SenderID: r.SenderID,
		Text:     r.Text,
		SentAt:   r.SentAt,
	}
}

type invitationRow struct {
	bun.BaseModel `bun:"table:bundle_invitations,alias:i"`

	ID        string    `bun:"id,pk"`
	TrainerID string    `bun:"trainer_id"`
	BundleID  string    `bun:"bundle_id"`
	Email     string    `bun:"email"`
	Name      string    `bun:"name,nullzero"`
	Token     string    `bun:"token"`
	Message   string    `bun:"message,nullzero"`
	ExpiresAt time.Time `bun:"expires_at"`
	CreatedAt time.Time `bun:"created_at"`
}
