package models

import "time"

// DebateMode determines how turns are produced and who replies.
type DebateMode string

const (
	ModeHumanVsAI    DebateMode = "HUMAN_VS_AI"
	ModeCopsVsAI     DebateMode = "COPS_VS_AI"
	ModeAIVsAI       DebateMode = "AI_VS_AI"
	ModeHumanVsHuman DebateMode = "HUMAN_VS_HUMAN"
)

// DebateStatus is the lifecycle state of a debate.
type DebateStatus string

const (
	StatusCreated   DebateStatus = "CREATED"
	StatusRunning   DebateStatus = "RUNNING"
	StatusEnded     DebateStatus = "ENDED"
	StatusCancelled DebateStatus = "CANCELLED"
)

// ParticipantType distinguishes humans, AI debaters and the judge seat.
type ParticipantType string

const (
	ParticipantHuman ParticipantType = "HUMAN"
	ParticipantAI    ParticipantType = "AI"
	ParticipantJudge ParticipantType = "JUDGE"
)

// Stance is the side a participant argues.
type Stance string

const (
	StancePro Stance = "PRO"
	StanceCon Stance = "CON"
)

// Opposite returns the other side of the table.
func (s Stance) Opposite() Stance {
	if s == StancePro {
		return StanceCon
	}
	return StancePro
}

// Debate is the root aggregate. It is owned by the session manager and
// mutated only through its operations.
type Debate struct {
	ID          string       `json:"id" db:"id"`
	Mode        DebateMode   `json:"mode" db:"mode"`
	Topic       string       `json:"topic" db:"topic"`
	Rounds      int          `json:"rounds" db:"rounds"`
	TurnSeconds int          `json:"turn_seconds" db:"turn_seconds"`
	Difficulty  string       `json:"difficulty" db:"difficulty"`
	Status      DebateStatus `json:"status" db:"status"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// Participant belongs to exactly one debate. RoleLabel is assigned once at
// creation and never changes afterwards.
type Participant struct {
	ID        string          `json:"id" db:"id"`
	DebateID  string          `json:"debate_id" db:"debate_id"`
	Type      ParticipantType `json:"type" db:"type"`
	Name      string          `json:"name" db:"name"`
	Stance    Stance          `json:"stance" db:"stance"`
	RoleLabel string          `json:"role_label" db:"role_label"`
	PlayerID  string          `json:"player_id,omitempty" db:"player_id"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// Turn is one contribution to a debate transcript. Append-only. RoleLabel is
// copied from the participant at write time so later renames never rewrite
// history.
type Turn struct {
	ID            string    `json:"id" db:"id"`
	DebateID      string    `json:"debate_id" db:"debate_id"`
	ParticipantID string    `json:"participant_id" db:"participant_id"`
	RoleLabel     string    `json:"role_label" db:"role_label"`
	Content       string    `json:"content" db:"content"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// TurnScore holds the six heuristic dimensions for one turn, each in [0,100].
type TurnScore struct {
	TurnID    string `json:"turn_id" db:"turn_id"`
	DebateID  string `json:"debate_id" db:"debate_id"`
	Clarity   int    `json:"clarity" db:"clarity"`
	Logic     int    `json:"logic" db:"logic"`
	Evidence  int    `json:"evidence" db:"evidence"`
	Rebuttal  int    `json:"rebuttal" db:"rebuttal"`
	Civility  int    `json:"civility" db:"civility"`
	Relevance int    `json:"relevance" db:"relevance"`
}

// Dimensions returns the score values in canonical order.
func (s TurnScore) Dimensions() [6]int {
	return [6]int{s.Clarity, s.Logic, s.Evidence, s.Rebuttal, s.Civility, s.Relevance}
}

// FinalScore is the judged outcome of a debate, at most one per debate
// (upsert keyed by debate id).
type FinalScore struct {
	DebateID            string    `json:"debate_id" db:"debate_id"`
	OverallScore        int       `json:"overall_score" db:"overall_score"`
	WinnerParticipantID string    `json:"winner_participant_id" db:"winner_participant_id"`
	Explanation         string    `json:"explanation" db:"explanation"`
	Highlights          []string  `json:"highlights" db:"highlights"`
	Fallacies           []string  `json:"fallacies" db:"fallacies"`
	Breakdown           TurnScore `json:"breakdown" db:"-"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// PlayerStats aggregates match outcomes for one player.
type PlayerStats struct {
	TotalMatches  int     `json:"total_matches" db:"total_matches"`
	Wins          int     `json:"wins" db:"wins"`
	Losses        int     `json:"losses" db:"losses"`
	WinRate       float64 `json:"win_rate" db:"win_rate"`
	AvgScore      float64 `json:"avg_score" db:"avg_score"`
	CurrentStreak int     `json:"current_streak" db:"current_streak"`
	BestStreak    int     `json:"best_streak" db:"best_streak"`
}

// Achievement is an unlockable badge on a player profile.
type Achievement struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty" db:"unlocked_at"`
}

// MatchHistory is one finished match on a player's record.
type MatchHistory struct {
	ID       string     `json:"id" db:"id"`
	PlayerID string     `json:"player_id" db:"player_id"`
	Topic    string     `json:"topic" db:"topic"`
	Mode     DebateMode `json:"mode" db:"mode"`
	Score    int        `json:"score" db:"score"`
	Won      bool       `json:"won" db:"won"`
	XPEarned int        `json:"xp_earned" db:"xp_earned"`
	PlayedAt time.Time  `json:"played_at" db:"played_at"`
}

// Player is the gamification aggregate, keyed by player id and mutated only
// by the gamification service.
type Player struct {
	ID           string         `json:"id" db:"id"`
	Username     string         `json:"username" db:"username"`
	Level        int            `json:"level" db:"level"`
	XP           int            `json:"xp" db:"xp"`
	XPNext       int            `json:"xp_next" db:"xp_next"`
	RankTitle    string         `json:"rank_title" db:"rank_title"`
	Stats        PlayerStats    `json:"stats" db:"-"`
	Achievements []Achievement  `json:"achievements" db:"-"`
	History      []MatchHistory `json:"history" db:"-"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// User is an authenticated account. Auth is plain supporting code around the
// debate core.
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	PlayerID     string    `json:"player_id" db:"player_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
