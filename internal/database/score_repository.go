package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"dev.arena.debate/internal/models"
)

// UpsertFinalScore writes a debate's final score, overwriting any previous
// ruling for the same debate id.
func (s *PostgresStore) UpsertFinalScore(ctx context.Context, fs *models.FinalScore) error {
	highlights, err := json.Marshal(fs.Highlights)
	if err != nil {
		return fmt.Errorf("failed to marshal highlights: %w", err)
	}
	fallacies, err := json.Marshal(fs.Fallacies)
	if err != nil {
		return fmt.Errorf("failed to marshal fallacies: %w", err)
	}
	breakdown, err := json.Marshal(fs.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal breakdown: %w", err)
	}

	query := `
		INSERT INTO final_scores (debate_id, overall_score, winner_participant_id, explanation, highlights, fallacies, breakdown, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (debate_id) DO UPDATE SET
			overall_score = EXCLUDED.overall_score,
			winner_participant_id = EXCLUDED.winner_participant_id,
			explanation = EXCLUDED.explanation,
			highlights = EXCLUDED.highlights,
			fallacies = EXCLUDED.fallacies,
			breakdown = EXCLUDED.breakdown,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.pool.Exec(ctx, query,
		fs.DebateID, fs.OverallScore, fs.WinnerParticipantID, fs.Explanation,
		highlights, fallacies, breakdown, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert final score: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"debate_id": fs.DebateID,
		"winner":    fs.WinnerParticipantID,
		"overall":   fs.OverallScore,
	}).Debug("Final score upserted")
	return nil
}

// GetFinalScore loads a debate's final score.
func (s *PostgresStore) GetFinalScore(ctx context.Context, debateID string) (*models.FinalScore, error) {
	query := `
		SELECT debate_id, overall_score, winner_participant_id, explanation, highlights, fallacies, breakdown, created_at, updated_at
		FROM final_scores WHERE debate_id = $1
	`
	var fs models.FinalScore
	var highlights, fallacies, breakdown []byte
	err := s.pool.QueryRow(ctx, query, debateID).Scan(
		&fs.DebateID, &fs.OverallScore, &fs.WinnerParticipantID, &fs.Explanation,
		&highlights, &fallacies, &breakdown, &fs.CreatedAt, &fs.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load final score: %w", err)
	}

	if err := json.Unmarshal(highlights, &fs.Highlights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal highlights: %w", err)
	}
	if err := json.Unmarshal(fallacies, &fs.Fallacies); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fallacies: %w", err)
	}
	if err := json.Unmarshal(breakdown, &fs.Breakdown); err != nil {
		return nil, fmt.Errorf("failed to unmarshal breakdown: %w", err)
	}
	return &fs, nil
}
