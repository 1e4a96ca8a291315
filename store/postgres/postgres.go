// Package postgres implements the business-data store on PostgreSQL via bun.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/coachdesk/coachdesk/agent/contract"
)

type Config struct {
	DSN          string        `envconfig:"DSN" split_words:"true" required:"true"`
	MaxOpenConns int           `envconfig:"MAX_OPEN_CONNS" split_words:"true" default:"8"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" split_words:"true" default:"5s"`
}

// Store implements contract.Store on a PostgreSQL database.
type Store struct {
	db *bun.DB
}

// Connect opens a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithDialTimeout(cfg.DialTimeout),
	))
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)

	db := bun.NewDB(sqldb, pgdialect.New())
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// NewFromDB wraps an existing bun handle. Tests use this with bundebug or a
// transactional fixture database.
func NewFromDB(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) UserByID(ctx context.Context, id string) (*contract.UserRecord, error) {
	var row userRow
	err := s.db.NewSelect().
		Model(&row).
		Where("u.id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	rec := row.record()
	return &rec, nil
}

func (s *Store) Trainers(ctx context.Context) ([]contract.UserRecord, error) {
	var rows []userRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("u.role = ?", string(contract.UserRoleTrainer)).
		Order("u.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select trainers: %w", err)
	}
	return userRecords(rows), nil
}

func (s *Store) Users(ctx context.Context) ([]contract.UserRecord, error) {
	var rows []userRow
	err := s.db.NewSelect().
		Model(&rows).
		Order("u.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	return userRecords(rows), nil
}

func (s *Store) ClientsByTrainer(ctx context.Context, trainerID string) ([]contract.ClientRecord, error) {
	var rows []clientRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("c.trainer_id = ?", trainerID).
		Order("c.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select clients: %w", err)
	}
	out := make([]contract.ClientRecord, len(rows))
	for i, row := range rows {
		out[i] = row.record()
	}
	return out, nil
}

func (s *Store) BundlesByTrainer(ctx context.Context, trainerID string) ([]contract.BundleRecord, error) {
	var rows []bundleRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("b.trainer_id = ?", trainerID).
		Order("b.title ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select bundles: %w", err)
	}
	out := make([]contract.BundleRecord, len(rows))
	for i, row := range rows {
		out[i] = row.record()
	}
	return out, nil
}

func (s *Store) OrdersByTrainer(ctx context.Context, trainerID string) ([]contract.OrderRecord, error) {
	var rows []orderRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("o.trainer_id = ?", trainerID).
		Order("o.created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	out := make([]contract.OrderRecord, len(rows))
	for i, row := range rows {
		out[i] = row.record()
	}
	return out, nil
}

func (s *Store) MessageCountsByClient(ctx context.Context, trainerID string) (map[string]int, error) {
	var rows []struct {
		ClientID string `bun:"client_id"`
		Count    int    `bun:"count"`
	}
	err := s.db.NewSelect().
		Model((*chatMessageRow)(nil)).
		ColumnExpr("m.client_id AS client_id").
		ColumnExpr("count(*) AS count").
		Where("m.trainer_id = ?", trainerID).
		Group("m.client_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.ClientID] = row.Count
	}
	return counts, nil
}

func (s *Store) MessagesWithClient(ctx context.Context, trainerID, clientID string, limit int) ([]contract.ChatMessageRecord, error) {
	var rows []chatMessageRow
	q := s.db.NewSelect().
		Model(&rows).
		Where("m.trainer_id = ?", trainerID).
		Where("m.client_id = ?", clientID).
		Order("m.sent_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}

	// Rows come back newest first; callers expect newest last.
	out := make([]contract.ChatMessageRecord, len(rows))
	for i, row := range rows {
		out[len(rows)-1-i] = row.record()
	}
	return out, nil
}

func (s *Store) CreateInvitation(ctx context.Context, inv *contract.InvitationRecord) error {
	row := invitationRow{
		ID:        inv.ID,
		TrainerID: inv.TrainerID,
		BundleID:  inv.BundleID,
		Email:     inv.Email,
		Name:      inv.Name,
		Token:     inv.Token,
		Message:   inv.Message,
		ExpiresAt: inv.ExpiresAt,
		CreatedAt: inv.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

func userRecords(rows []userRow) []contract.UserRecord {
	out := make([]contract.UserRecord, len(rows))
	for i, row := range rows {
		out[i] = row.record()
	}
	return out
}
