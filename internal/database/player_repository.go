package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"dev.arena.debate/internal/models"
)

// GetPlayer loads the gamification aggregate for one player.
func (s *PostgresStore) GetPlayer(ctx context.Context, id string) (*models.Player, error) {
	query := `
		SELECT id, username, level, xp, xp_next, rank_title, stats, achievements, history, created_at, updated_at
		FROM players WHERE id = $1
	`
	var p models.Player
	var stats, achievements, history []byte
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Username, &p.Level, &p.XP, &p.XPNext, &p.RankTitle,
		&stats, &achievements, &history, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	if err := json.Unmarshal(stats, &p.Stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player stats: %w", err)
	}
	if err := json.Unmarshal(achievements, &p.Achievements); err != nil {
		return nil, fmt.Errorf("failed to unmarshal achievements: %w", err)
	}
	if err := json.Unmarshal(history, &p.History); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return &p, nil
}

// SavePlayer upserts the full aggregate in one write. Matches apply as one
// logical read-modify-write, so the whole document travels together.
func (s *PostgresStore) SavePlayer(ctx context.Context, p *models.Player) error {
	stats, err := json.Marshal(p.Stats)
	if err != nil {
		return fmt.Errorf("failed to marshal player stats: %w", err)
	}
	achievements, err := json.Marshal(p.Achievements)
	if err != nil {
		return fmt.Errorf("failed to marshal achievements: %w", err)
	}
	history, err := json.Marshal(p.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	query := `
		INSERT INTO players (id, username, level, xp, xp_next, rank_title, stats, achievements, history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			level = EXCLUDED.level,
			xp = EXCLUDED.xp,
			xp_next = EXCLUDED.xp_next,
			rank_title = EXCLUDED.rank_title,
			stats = EXCLUDED.stats,
			achievements = EXCLUDED.achievements,
			history = EXCLUDED.history,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.pool.Exec(ctx, query,
		p.ID, p.Username, p.Level, p.XP, p.XPNext, p.RankTitle,
		stats, achievements, history, p.CreatedAt, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save player: %w", err)
	}
	return nil
}

// ListTopPlayers pages the leaderboard, highest XP first.
func (s *PostgresStore) ListTopPlayers(ctx context.Context, limit, offset int) ([]models.Player, error) {
	query := `
		SELECT id, username, level, xp, xp_next, rank_title, stats, achievements, history, created_at, updated_at
		FROM players ORDER BY xp DESC, id LIMIT $1 OFFSET $2
	`
	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var out []models.Player
	for rows.Next() {
		var p models.Player
		var stats, achievements, history []byte
		if err := rows.Scan(&p.ID, &p.Username, &p.Level, &p.XP, &p.XPNext, &p.RankTitle,
			&stats, &achievements, &history, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		if err := json.Unmarshal(stats, &p.Stats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal player stats: %w", err)
		}
		if err := json.Unmarshal(achievements, &p.Achievements); err != nil {
			return nil, fmt.Errorf("failed to unmarshal achievements: %w", err)
		}
		if err := json.Unmarshal(history, &p.History); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateUser inserts an account row.
func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, player_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.pool.Exec(ctx, query, u.ID, u.Username, u.PasswordHash, u.PlayerID, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByUsername loads an account by username.
func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, player_id, created_at
		FROM users WHERE username = $1
	`
	var u models.User
	err := s.pool.QueryRow(ctx, query, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.PlayerID, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}
