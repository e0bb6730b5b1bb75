// Package database provides relational storage for the debate arena. A
// PostgreSQL implementation backs normal operation; an in-memory store
// serves standalone mode and tests.
package database

import (
	"context"
	"errors"

	"dev.arena.debate/internal/models"
)

// ErrNotFound marks a lookup that matched nothing. Callers check it with
// errors.Is and translate it to their own not-found sentinel.
var ErrNotFound = errors.New("record not found")

// DebateStore persists debates and their participants.
type DebateStore interface {
	CreateDebate(ctx context.Context, d *models.Debate) error
	GetDebate(ctx context.Context, id string) (*models.Debate, error)
	UpdateDebateStatus(ctx context.Context, id string, status models.DebateStatus) error
	CreateParticipant(ctx context.Context, p *models.Participant) error
	ListParticipants(ctx context.Context, debateID string) ([]models.Participant, error)
	GetParticipant(ctx context.Context, id string) (*models.Participant, error)
}

// TurnStore persists the append-only transcript and per-turn scores.
type TurnStore interface {
	CreateTurn(ctx context.Context, t *models.Turn) error
	ListTurns(ctx context.Context, debateID string) ([]models.Turn, error)
	CreateTurnScore(ctx context.Context, s *models.TurnScore) error
	ListTurnScores(ctx context.Context, debateID string) ([]models.TurnScore, error)
}

// ScoreStore persists final scores, upsert keyed by debate id.
type ScoreStore interface {
	UpsertFinalScore(ctx context.Context, s *models.FinalScore) error
	GetFinalScore(ctx context.Context, debateID string) (*models.FinalScore, error)
}

// PlayerStore persists the gamification aggregate.
type PlayerStore interface {
	GetPlayer(ctx context.Context, id string) (*models.Player, error)
	SavePlayer(ctx context.Context, p *models.Player) error
	ListTopPlayers(ctx context.Context, limit, offset int) ([]models.Player, error)
}

// UserStore persists authentication accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Store is the full persistence surface the services compose over.
type Store interface {
	DebateStore
	TurnStore
	ScoreStore
	PlayerStore
	UserStore
}
