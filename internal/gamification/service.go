// Package gamification updates player progression from finished matches.
package gamification

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"dev.arena.debate/internal/database"
	"dev.arena.debate/internal/models"
)

// XP awards per match.
const (
	baseXP = 50
	winXP  = 40
	lossXP = 10
)

// xpPerLevel scales the level-up threshold: level n requires n*500 XP.
const xpPerLevel = 500

// rankTitles maps level floors to titles.
var rankTitles = []struct {
	level int
	title string
}{
	{1, "Novice"},
	{2, "Apprentice"},
	{3, "Debater"},
	{5, "Skilled Debater"},
	{7, "Expert"},
	{10, "Master"},
	{15, "Grandmaster"},
	{20, "Legend"},
}

// achievementCatalog lists every unlockable badge.
var achievementCatalog = []models.Achievement{
	{ID: "first-win", Title: "Victory!", Description: "Win your first debate"},
	{ID: "perfect-100", Title: "Flawless", Description: "Finish a debate with a perfect score"},
	{ID: "winning-streak", Title: "Winning Streak", Description: "Win 3 debates in a row"},
	{ID: "level-5", Title: "Rising Star", Description: "Reach level 5"},
	{ID: "level-10", Title: "Debate Champion", Description: "Reach level 10"},
}

// Service applies match results to player profiles as one logical
// read-modify-write per match.
type Service struct {
	players database.PlayerStore
	log     *logrus.Logger
}

// NewService creates a gamification service.
func NewService(players database.PlayerStore, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{players: players, log: log}
}

// MatchResult is the outcome fed into a player update.
type MatchResult struct {
	Topic string
	Mode  models.DebateMode
	Score int
	Won   bool
}

// UpdatePlayerAfterMatch loads or creates the player, recomputes stats,
// awards XP, levels up, appends one history record and unlocks any earned
// achievements. It returns the updated player and the achievement ids newly
// unlocked by this match.
func (s *Service) UpdatePlayerAfterMatch(ctx context.Context, playerID string, result MatchResult) (*models.Player, []string, error) {
	player, err := s.loadOrCreate(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}

	stats := &player.Stats
	stats.TotalMatches++
	if result.Won {
		stats.Wins++
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.BestStreak {
			stats.BestStreak = stats.CurrentStreak
		}
	} else {
		stats.Losses++
		stats.CurrentStreak = 0
	}
	stats.WinRate = float64(stats.Wins) / float64(stats.TotalMatches)

	// Match-count-weighted rolling average.
	n := float64(stats.TotalMatches)
	stats.AvgScore = (stats.AvgScore*(n-1) + float64(result.Score)) / n

	earned := baseXP + int(math.Round(float64(result.Score)*0.5))
	if result.Won {
		earned += winXP
	} else {
		earned += lossXP
	}
	player.XP += earned

	// Level up while cumulative XP clears the current level's threshold;
	// the rank title resets from the new level.
	for player.XP >= player.Level*xpPerLevel {
		player.Level++
	}
	player.XPNext = player.Level * xpPerLevel
	player.RankTitle = rankTitleFor(player.Level)

	player.History = append(player.History, models.MatchHistory{
		ID:       uuid.New().String(),
		PlayerID: player.ID,
		Topic:    result.Topic,
		Mode:     result.Mode,
		Score:    result.Score,
		Won:      result.Won,
		XPEarned: earned,
		PlayedAt: time.Now().UTC(),
	})

	var unlocked []string
	if result.Won {
		unlocked = append(unlocked, s.unlock(player, "first-win")...)
	}
	if result.Score >= 100 {
		unlocked = append(unlocked, s.unlock(player, "perfect-100")...)
	}
	if player.Stats.CurrentStreak >= 3 {
		unlocked = append(unlocked, s.unlock(player, "winning-streak")...)
	}
	if player.Level >= 5 {
		unlocked = append(unlocked, s.unlock(player, "level-5")...)
	}
	if player.Level >= 10 {
		unlocked = append(unlocked, s.unlock(player, "level-10")...)
	}

	if err := s.players.SavePlayer(ctx, player); err != nil {
		return nil, nil, fmt.Errorf("failed to save player: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"player_id": player.ID,
		"xp_earned": earned,
		"level":     player.Level,
		"won":       result.Won,
	}).Info("Player updated after match")

	return player, unlocked, nil
}

// GetProfile loads or creates a player profile.
func (s *Service) GetProfile(ctx context.Context, playerID string) (*models.Player, error) {
	return s.loadOrCreate(ctx, playerID)
}

// Leaderboard pages players by XP.
func (s *Service) Leaderboard(ctx context.Context, limit, offset int) ([]models.Player, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.players.ListTopPlayers(ctx, limit, offset)
}

func (s *Service) loadOrCreate(ctx context.Context, playerID string) (*models.Player, error) {
	player, err := s.players.GetPlayer(ctx, playerID)
	if err == nil {
		return player, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	fresh := &models.Player{
		ID:           playerID,
		Username:     "Debater",
		Level:        1,
		XP:           0,
		XPNext:       xpPerLevel,
		RankTitle:    rankTitleFor(1),
		Achievements: append([]models.Achievement(nil), achievementCatalog...),
		History:      []models.MatchHistory{},
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.players.SavePlayer(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return fresh, nil
}

// unlock marks an achievement unlocked. Already-unlocked badges are left
// untouched, so repeated unlocks are idempotent.
func (s *Service) unlock(player *models.Player, id string) []string {
	for i := range player.Achievements {
		if player.Achievements[i].ID != id {
			continue
		}
		if player.Achievements[i].UnlockedAt != nil {
			return nil
		}
		now := time.Now().UTC()
		player.Achievements[i].UnlockedAt = &now
		return []string{id}
	}
	return nil
}

func rankTitleFor(level int) string {
	title := rankTitles[0].title
	for _, r := range rankTitles {
		if level >= r.level {
			title = r.title
		}
	}
	return title
}
