package database

import (
	"context"
	"fmt"

	"dev.arena.debate/internal/models"
)

// CreateTurn appends a turn to a debate's transcript.
func (s *PostgresStore) CreateTurn(ctx context.Context, t *models.Turn) error {
	query := `
		INSERT INTO turns (id, debate_id, participant_id, role_label, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.pool.Exec(ctx, query,
		t.ID, t.DebateID, t.ParticipantID, t.RoleLabel, t.Content, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	return nil
}

// ListTurns returns a debate's transcript in insertion order.
func (s *PostgresStore) ListTurns(ctx context.Context, debateID string) ([]models.Turn, error) {
	query := `
		SELECT id, debate_id, participant_id, role_label, content, created_at
		FROM turns WHERE debate_id = $1 ORDER BY created_at, id
	`
	rows, err := s.pool.Query(ctx, query, debateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()

	var out []models.Turn
	for rows.Next() {
		var t models.Turn
		if err := rows.Scan(&t.ID, &t.DebateID, &t.ParticipantID, &t.RoleLabel, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateTurnScore stores the heuristic score for one turn.
func (s *PostgresStore) CreateTurnScore(ctx context.Context, score *models.TurnScore) error {
	query := `
		INSERT INTO turn_scores (turn_id, debate_id, clarity, logic, evidence, rebuttal, civility, relevance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.pool.Exec(ctx, query,
		score.TurnID, score.DebateID,
		score.Clarity, score.Logic, score.Evidence, score.Rebuttal, score.Civility, score.Relevance,
	)
	if err != nil {
		return fmt.Errorf("failed to insert turn score: %w", err)
	}
	return nil
}

// ListTurnScores returns all of a debate's turn scores in turn order.
func (s *PostgresStore) ListTurnScores(ctx context.Context, debateID string) ([]models.TurnScore, error) {
	query := `
		SELECT ts.turn_id, ts.debate_id, ts.clarity, ts.logic, ts.evidence, ts.rebuttal, ts.civility, ts.relevance
		FROM turn_scores ts
		JOIN turns t ON t.id = ts.turn_id
		WHERE ts.debate_id = $1
		ORDER BY t.created_at, t.id
	`
	rows, err := s.pool.Query(ctx, query, debateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list turn scores: %w", err)
	}
	defer rows.Close()

	var out []models.TurnScore
	for rows.Next() {
		var sc models.TurnScore
		if err := rows.Scan(&sc.TurnID, &sc.DebateID, &sc.Clarity, &sc.Logic, &sc.Evidence, &sc.Rebuttal, &sc.Civility, &sc.Relevance); err != nil {
			return nil, fmt.Errorf("failed to scan turn score: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
