package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"dev.arena.debate/internal/models"
)

// CreateDebate inserts a new debate row.
func (s *PostgresStore) CreateDebate(ctx context.Context, d *models.Debate) error {
	query := `
		INSERT INTO debates (id, mode, topic, rounds, turn_seconds, difficulty, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.pool.Exec(ctx, query,
		d.ID, d.Mode, d.Topic, d.Rounds, d.TurnSeconds, d.Difficulty, d.Status, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert debate: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"debate_id": d.ID,
		"mode":      d.Mode,
		"topic":     d.Topic,
	}).Debug("Debate inserted")
	return nil
}

// GetDebate loads a debate by id.
func (s *PostgresStore) GetDebate(ctx context.Context, id string) (*models.Debate, error) {
	query := `
		SELECT id, mode, topic, rounds, turn_seconds, difficulty, status, created_at, updated_at
		FROM debates WHERE id = $1
	`
	var d models.Debate
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.Mode, &d.Topic, &d.Rounds, &d.TurnSeconds, &d.Difficulty, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load debate: %w", err)
	}
	return &d, nil
}

// UpdateDebateStatus transitions a debate's lifecycle status.
func (s *PostgresStore) UpdateDebateStatus(ctx context.Context, id string, status models.DebateStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE debates SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update debate status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.log.WithFields(logrus.Fields{
		"debate_id": id,
		"status":    status,
	}).Debug("Debate status updated")
	return nil
}

// CreateParticipant inserts a participant row.
func (s *PostgresStore) CreateParticipant(ctx context.Context, p *models.Participant) error {
	query := `
		INSERT INTO participants (id, debate_id, type, name, stance, role_label, player_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
	`
	_, err := s.pool.Exec(ctx, query,
		p.ID, p.DebateID, p.Type, p.Name, p.Stance, p.RoleLabel, p.PlayerID, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	return nil
}

// ListParticipants returns a debate's participants in creation order.
func (s *PostgresStore) ListParticipants(ctx context.Context, debateID string) ([]models.Participant, error) {
	query := `
		SELECT id, debate_id, type, name, stance, role_label, COALESCE(player_id, ''), created_at
		FROM participants WHERE debate_id = $1 ORDER BY created_at, id
	`
	rows, err := s.pool.Query(ctx, query, debateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var out []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.DebateID, &p.Type, &p.Name, &p.Stance, &p.RoleLabel, &p.PlayerID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetParticipant loads a participant by id.
func (s *PostgresStore) GetParticipant(ctx context.Context, id string) (*models.Participant, error) {
	query := `
		SELECT id, debate_id, type, name, stance, role_label, COALESCE(player_id, ''), created_at
		FROM participants WHERE id = $1
	`
	var p models.Participant
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.DebateID, &p.Type, &p.Name, &p.Stance, &p.RoleLabel, &p.PlayerID, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load participant: %w", err)
	}
	return &p, nil
}
