package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"dev.arena.debate/internal/config"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *logrus.Logger
}

// NewPostgresStore connects to PostgreSQL and verifies the connection.
func NewPostgresStore(cfg *config.Config, log *logrus.Logger) (*PostgresStore, error) {
	if log == nil {
		log = logrus.New()
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool, log: log}, nil
}

// NewStoreWithFallback tries PostgreSQL first and falls back to the
// in-memory store when it is unreachable (standalone mode).
func NewStoreWithFallback(cfg *config.Config, log *logrus.Logger) Store {
	if log == nil {
		log = logrus.New()
	}

	pg, err := NewPostgresStore(cfg, log)
	if err != nil {
		log.WithError(err).Warn("PostgreSQL unavailable, using in-memory store (standalone mode)")
		return NewMemoryStore()
	}

	if err := pg.CreateTables(context.Background()); err != nil {
		log.WithError(err).Warn("Schema setup failed, using in-memory store (standalone mode)")
		pg.Close()
		return NewMemoryStore()
	}

	log.Info("Connected to PostgreSQL")
	return pg
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// CreateTables creates the schema if it does not exist.
func (s *PostgresStore) CreateTables(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS debates (
			id VARCHAR(64) PRIMARY KEY,
			mode VARCHAR(32) NOT NULL,
			topic TEXT NOT NULL,
			rounds INT NOT NULL,
			turn_seconds INT NOT NULL,
			difficulty VARCHAR(16) NOT NULL DEFAULT 'medium',
			status VARCHAR(16) NOT NULL DEFAULT 'CREATED',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS participants (
			id VARCHAR(64) PRIMARY KEY,
			debate_id VARCHAR(64) NOT NULL REFERENCES debates(id),
			type VARCHAR(16) NOT NULL,
			name TEXT NOT NULL,
			stance VARCHAR(8) NOT NULL,
			role_label TEXT NOT NULL,
			player_id VARCHAR(64),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS turns (
			id VARCHAR(64) PRIMARY KEY,
			debate_id VARCHAR(64) NOT NULL REFERENCES debates(id),
			participant_id VARCHAR(64) NOT NULL REFERENCES participants(id),
			role_label TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS turn_scores (
			turn_id VARCHAR(64) PRIMARY KEY REFERENCES turns(id),
			debate_id VARCHAR(64) NOT NULL REFERENCES debates(id),
			clarity INT NOT NULL,
			logic INT NOT NULL,
			evidence INT NOT NULL,
			rebuttal INT NOT NULL,
			civility INT NOT NULL,
			relevance INT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS final_scores (
			debate_id VARCHAR(64) PRIMARY KEY REFERENCES debates(id),
			overall_score INT NOT NULL,
			winner_participant_id VARCHAR(64) NOT NULL,
			explanation TEXT NOT NULL,
			highlights JSONB NOT NULL DEFAULT '[]',
			fallacies JSONB NOT NULL DEFAULT '[]',
			breakdown JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS players (
			id VARCHAR(64) PRIMARY KEY,
			username TEXT NOT NULL,
			level INT NOT NULL DEFAULT 1,
			xp INT NOT NULL DEFAULT 0,
			xp_next INT NOT NULL DEFAULT 500,
			rank_title TEXT NOT NULL DEFAULT 'Novice',
			stats JSONB NOT NULL DEFAULT '{}',
			achievements JSONB NOT NULL DEFAULT '[]',
			history JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			player_id VARCHAR(64) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_participants_debate_id ON participants(debate_id);
		CREATE INDEX IF NOT EXISTS idx_turns_debate_id ON turns(debate_id);
		CREATE INDEX IF NOT EXISTS idx_turn_scores_debate_id ON turn_scores(debate_id);
		CREATE INDEX IF NOT EXISTS idx_players_xp ON players(xp DESC);
	`

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	s.log.Info("Database schema created/verified")
	return nil
}
