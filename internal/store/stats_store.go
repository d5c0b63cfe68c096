package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PlayerStats struct {
	UserID    string
	Wins      int
	Losses    int
	UpdatedAt time.Time
}

type StatsStore struct {
	db *pgxpool.Pool
}

func NewStatsStore(db *pgxpool.Pool) *StatsStore {
	return &StatsStore{db: db}
}

func (s *StatsStore) InitForUser(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO player_stats (user_id, wins, losses)
		VALUES ($1, 0, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	return err
}

func (s *StatsStore) Get(ctx context.Context, userID string) (PlayerStats, error) {
	var st PlayerStats
	err := s.db.QueryRow(ctx, `
		SELECT user_id, wins, losses, updated_at
		FROM player_stats
		WHERE user_id=$1
	`, userID).Scan(&st.UserID, &st.Wins, &st.Losses, &st.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		// no stats yet is not fatal, treat as zeros
		return PlayerStats{UserID: userID}, nil
	}
	if err != nil {
		return PlayerStats{}, err
	}
	return st, nil
}

// RecordResult bumps both sides of a finished game in one transaction.
func (s *StatsStore) RecordResult(ctx context.Context, winnerID, loserID string) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("stats: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const bump = `
		INSERT INTO player_stats (user_id, wins, losses)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET wins = player_stats.wins + $2,
		    losses = player_stats.losses + $3,
		    updated_at = now()
	`
	if _, err := tx.Exec(ctx, bump, winnerID, 1, 0); err != nil {
		return fmt.Errorf("stats: record win: %w", err)
	}
	if _, err := tx.Exec(ctx, bump, loserID, 0, 1); err != nil {
		return fmt.Errorf("stats: record loss: %w", err)
	}

	return tx.Commit(ctx)
}
