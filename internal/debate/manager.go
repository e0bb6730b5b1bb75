// Package debate holds the orchestration core: the session manager owning
// debate state and the run controller driving AI-vs-AI auto-play.
package debate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"dev.arena.debate/internal/agents"
	"dev.arena.debate/internal/database"
	"dev.arena.debate/internal/events"
	"dev.arena.debate/internal/gamification"
	"dev.arena.debate/internal/models"
	"dev.arena.debate/internal/scoring"
)

// Sentinel errors surfaced to transports. Unknown ids fail immediately, no
// retry.
var (
	ErrDebateNotFound      = errors.New("debate not found")
	ErrParticipantNotFound = errors.New("participant not found")
)

// Manager owns debate, participant and turn state. All mutations go through
// it, serialized per debate id.
type Manager struct {
	store        database.Store
	engine       *scoring.Engine
	pipeline     *agents.Pipeline
	bus          *events.Bus
	gamification *gamification.Service
	log          *logrus.Logger

	runner *Runner // set after construction, see SetRunner

	locks sync.Map // debate id → *sync.Mutex
}

// NewManager creates a session manager.
func NewManager(store database.Store, engine *scoring.Engine, pipeline *agents.Pipeline, bus *events.Bus, gam *gamification.Service, log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.New()
	}
	return &Manager{
		store:        store,
		engine:       engine,
		pipeline:     pipeline,
		bus:          bus,
		gamification: gam,
		log:          log,
	}
}

// SetRunner attaches the run controller used for AI-vs-AI auto-play. The
// manager and runner reference each other, so one side is wired after
// construction.
func (m *Manager) SetRunner(r *Runner) {
	m.runner = r
}

// lock returns the mutex serializing persistence for one debate.
func (m *Manager) lock(debateID string) *sync.Mutex {
	mu, _ := m.locks.LoadOrStore(debateID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// ParticipantSpec describes one participant at creation time.
type ParticipantSpec struct {
	Type     models.ParticipantType
	Name     string
	Stance   models.Stance
	PlayerID string
}

// CreateDebateRequest carries everything needed to open a debate.
type CreateDebateRequest struct {
	Mode         models.DebateMode
	Topic        string
	Rounds       int
	TurnSeconds  int
	Difficulty   agents.Difficulty
	Participants []ParticipantSpec
}

// DebateDetail is a debate together with its participants.
type DebateDetail struct {
	Debate       models.Debate        `json:"debate"`
	Participants []models.Participant `json:"participants"`
}

// CreateDebate persists the debate and its participants, assigns role labels
// by type and ordinal, and emits debate.started. AI-vs-AI debates kick off
// their auto-play loop fire-and-forget: a background failure is logged and
// never affects this call's result.
func (m *Manager) CreateDebate(ctx context.Context, req CreateDebateRequest) (*DebateDetail, error) {
	now := time.Now().UTC()
	debate := models.Debate{
		ID:          uuid.New().String(),
		Mode:        req.Mode,
		Topic:       req.Topic,
		Rounds:      req.Rounds,
		TurnSeconds: req.TurnSeconds,
		Difficulty:  string(normalizeDifficulty(req.Difficulty)),
		Status:      models.StatusCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.store.CreateDebate(ctx, &debate); err != nil {
		return nil, fmt.Errorf("failed to create debate: %w", err)
	}

	ordinals := make(map[models.ParticipantType]int)
	participants := make([]models.Participant, 0, len(req.Participants))
	for _, spec := range req.Participants {
		ordinals[spec.Type]++
		p := models.Participant{
			ID:        uuid.New().String(),
			DebateID:  debate.ID,
			Type:      spec.Type,
			Name:      spec.Name,
			Stance:    spec.Stance,
			RoleLabel: roleLabel(spec.Type, ordinals[spec.Type]),
			PlayerID:  spec.PlayerID,
			CreatedAt: now,
		}
		if err := m.store.CreateParticipant(ctx, &p); err != nil {
			return nil, fmt.Errorf("failed to create participant: %w", err)
		}
		participants = append(participants, p)
	}

	m.bus.Emit(debate.ID, events.EventDebateStarted, DebateDetail{Debate: debate, Participants: participants})

	m.log.WithFields(logrus.Fields{
		"debate_id": debate.ID,
		"mode":      debate.Mode,
		"topic":     debate.Topic,
	}).Info("Debate created")

	if debate.Mode == models.ModeAIVsAI && m.runner != nil {
		go func() {
			if err := m.runner.Start(context.Background(), debate.ID, 0); err != nil {
				m.log.WithError(err).WithField("debate_id", debate.ID).Error("Background auto-play start failed")
			}
		}()
	}

	return &DebateDetail{Debate: debate, Participants: participants}, nil
}

// GetDebate loads a debate by id.
func (m *Manager) GetDebate(ctx context.Context, debateID string) (*models.Debate, error) {
	debate, err := m.store.GetDebate(ctx, debateID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrDebateNotFound
	}
	return debate, err
}

// Snapshot returns the debate, participants, transcript and scores. Stream
// subscribers read this before attaching since the bus never replays.
type Snapshot struct {
	Debate       models.Debate        `json:"debate"`
	Participants []models.Participant `json:"participants"`
	Turns        []models.Turn        `json:"turns"`
	TurnScores   []models.TurnScore   `json:"turn_scores"`
	FinalScore   *models.FinalScore   `json:"final_score,omitempty"`
}

// GetSnapshot assembles the full current state of a debate.
func (m *Manager) GetSnapshot(ctx context.Context, debateID string) (*Snapshot, error) {
	debate, err := m.GetDebate(ctx, debateID)
	if err != nil {
		return nil, err
	}
	participants, err := m.store.ListParticipants(ctx, debateID)
	if err != nil {
		return nil, err
	}
	turns, err := m.store.ListTurns(ctx, debateID)
	if err != nil {
		return nil, err
	}
	turnScores, err := m.store.ListTurnScores(ctx, debateID)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		Debate:       *debate,
		Participants: participants,
		Turns:        turns,
		TurnScores:   turnScores,
	}
	if fs, err := m.store.GetFinalScore(ctx, debateID); err == nil {
		snapshot.FinalScore = fs
	}
	return snapshot, nil
}

// TurnResult is what a turn submission returns: the accepted turn, any AI
// reply produced synchronously, the accepted turn's scores, and the event
// names fired along the way.
type TurnResult struct {
	AcceptedTurn  models.Turn        `json:"accepted_turn"`
	AITurns       []models.Turn      `json:"ai_turns,omitempty"`
	UpdatedScores models.TurnScore   `json:"updated_scores"`
	AIScores      []models.TurnScore `json:"ai_scores,omitempty"`
	Events        []string           `json:"events"`
}

// CreateTurn validates the participant, appends the turn, scores it and
// emits turn.created then scores.updated. When a human submits against an
// AI opponent the manager synchronously runs research then debate to
// produce one reply turn; the caller blocks until the counter-turn exists.
func (m *Manager) CreateTurn(ctx context.Context, debateID, participantID, content string) (*TurnResult, error) {
	mu := m.lock(debateID)
	mu.Lock()
	defer mu.Unlock()

	debate, err := m.GetDebate(ctx, debateID)
	if err != nil {
		return nil, err
	}

	participant, err := m.store.GetParticipant(ctx, participantID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}
	if participant.DebateID != debateID {
		return nil, ErrParticipantNotFound
	}

	result := &TurnResult{}

	turn, score, err := m.appendTurn(ctx, debate, participant, content, result)
	if err != nil {
		return nil, err
	}
	result.AcceptedTurn = *turn
	result.UpdatedScores = *score

	if m.shouldAutoReply(debate, participant) {
		aiTurn, aiScore, err := m.produceReply(ctx, debate, participant, content, result)
		if err != nil {
			m.log.WithError(err).WithField("debate_id", debateID).Error("AI reply failed")
		} else if aiTurn != nil {
			result.AITurns = append(result.AITurns, *aiTurn)
			result.AIScores = append(result.AIScores, *aiScore)
			m.bus.Emit(debateID, events.EventAIResponded, aiTurn)
			result.Events = append(result.Events, string(events.EventAIResponded))
		}
	}

	return result, nil
}

// appendTurn persists one turn plus its heuristic score and fires the
// per-turn events, recording their names on the result.
func (m *Manager) appendTurn(ctx context.Context, debate *models.Debate, participant *models.Participant, content string, result *TurnResult) (*models.Turn, *models.TurnScore, error) {
	turn := models.Turn{
		ID:            uuid.New().String(),
		DebateID:      debate.ID,
		ParticipantID: participant.ID,
		RoleLabel:     participant.RoleLabel,
		Content:       content,
		CreatedAt:     time.Now().UTC(),
	}
	if err := m.store.CreateTurn(ctx, &turn); err != nil {
		return nil, nil, fmt.Errorf("failed to persist turn: %w", err)
	}

	score := m.engine.ScoreTurn(content)
	score.TurnID = turn.ID
	score.DebateID = debate.ID
	if err := m.store.CreateTurnScore(ctx, &score); err != nil {
		return nil, nil, fmt.Errorf("failed to persist turn score: %w", err)
	}

	m.bus.Emit(debate.ID, events.EventTurnCreated, turn)
	result.Events = append(result.Events, string(events.EventTurnCreated))
	m.bus.Emit(debate.ID, events.EventScoresUpdated, score)
	result.Events = append(result.Events, string(events.EventScoresUpdated))

	return &turn, &score, nil
}

// shouldAutoReply reports whether a submission triggers a synchronous AI
// counter-turn: the debate has an AI participant, the mode is not
// human-vs-human, and the submitter is not itself an AI (the run controller
// drives AI-vs-AI turns, which must not recurse).
func (m *Manager) shouldAutoReply(debate *models.Debate, submitter *models.Participant) bool {
	if debate.Mode == models.ModeHumanVsHuman || submitter.Type == models.ParticipantAI {
		return false
	}
	participants, err := m.store.ListParticipants(context.Background(), debate.ID)
	if err != nil {
		return false
	}
	for _, p := range participants {
		if p.Type == models.ParticipantAI {
			return true
		}
	}
	return false
}

// produceReply runs research then debate for the first AI participant and
// persists the reply the same way as the accepted turn.
func (m *Manager) produceReply(ctx context.Context, debate *models.Debate, submitter *models.Participant, content string, result *TurnResult) (*models.Turn, *models.TurnScore, error) {
	participants, err := m.store.ListParticipants(ctx, debate.ID)
	if err != nil {
		return nil, nil, err
	}
	var ai *models.Participant
	for i := range participants {
		if participants[i].Type == models.ParticipantAI {
			ai = &participants[i]
			break
		}
	}
	if ai == nil {
		return nil, nil, nil
	}

	transcript, err := m.store.ListTurns(ctx, debate.ID)
	if err != nil {
		return nil, nil, err
	}

	difficulty := agents.Difficulty(debate.Difficulty)
	briefing := m.pipeline.Research.Brief(ctx, debate.Topic, ai.Stance, opponentClaims(transcript, ai.ID), difficulty)
	message := m.pipeline.Debater.Argue(ctx, debate.Topic, ai.Stance, transcript, briefing, difficulty)

	return m.appendTurn(ctx, debate, ai, message, result)
}

// opponentClaims extracts the most recent opposing turns fed to research.
func opponentClaims(transcript []models.Turn, aiID string) []string {
	var claims []string
	for i := len(transcript) - 1; i >= 0 && len(claims) < 3; i-- {
		if transcript[i].ParticipantID != aiID {
			claims = append(claims, transcript[i].Content)
		}
	}
	// Restore chronological order.
	for i, j := 0, len(claims)-1; i < j; i, j = i+1, j-1 {
		claims[i], claims[j] = claims[j], claims[i]
	}
	return claims
}

// ScoreResult is the outcome of final scoring.
type ScoreResult struct {
	FinalScore           models.FinalScore `json:"final_score"`
	Breakdown            models.TurnScore  `json:"breakdown"`
	Winner               string            `json:"winner"`
	JudgeReport          JudgeReport       `json:"judge_report"`
	AchievementsUnlocked []string          `json:"achievements_unlocked"`
}

// JudgeReport is the human-readable part of the ruling.
type JudgeReport struct {
	Explanation string   `json:"explanation"`
	Highlights  []string `json:"highlights"`
	Fallacies   []string `json:"fallacies"`
}

// Score judges the debate over its recent turns, aggregates the heuristic
// scores over the whole transcript, upserts the final score, updates the
// submitting player when one is attached, marks the debate ended and emits
// judge.final then debate.ended, in that order. Calling it again overwrites
// the previous ruling.
func (m *Manager) Score(ctx context.Context, debateID string) (*ScoreResult, error) {
	mu := m.lock(debateID)
	mu.Lock()
	defer mu.Unlock()

	debate, err := m.GetDebate(ctx, debateID)
	if err != nil {
		return nil, err
	}
	participants, err := m.store.ListParticipants(ctx, debateID)
	if err != nil {
		return nil, err
	}
	transcript, err := m.store.ListTurns(ctx, debateID)
	if err != nil {
		return nil, err
	}

	verdict := m.pipeline.Judge.Judge(ctx, debate.Topic, participants, transcript)

	// Aggregate over every historical turn, unweighted. Long debates dilute
	// recent rounds; see the design notes for why this stays as-is.
	turnScores, err := m.store.ListTurnScores(ctx, debateID)
	if err != nil {
		return nil, err
	}
	breakdown := m.engine.AggregateScores(turnScores)
	overall := scoring.Overall(breakdown)

	now := time.Now().UTC()
	finalScore := models.FinalScore{
		DebateID:            debateID,
		OverallScore:        overall,
		WinnerParticipantID: verdict.WinnerParticipantID,
		Explanation:         verdict.Explanation,
		Highlights:          verdict.Highlights,
		Fallacies:           verdict.Fallacies,
		Breakdown:           breakdown,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := m.store.UpsertFinalScore(ctx, &finalScore); err != nil {
		return nil, fmt.Errorf("failed to upsert final score: %w", err)
	}

	unlocked := append([]string(nil), verdict.Achievements...)
	for _, p := range participants {
		if p.PlayerID == "" {
			continue
		}
		_, earned, err := m.gamification.UpdatePlayerAfterMatch(ctx, p.PlayerID, gamification.MatchResult{
			Topic: debate.Topic,
			Mode:  debate.Mode,
			Score: overall,
			Won:   p.ID == verdict.WinnerParticipantID,
		})
		if err != nil {
			m.log.WithError(err).WithField("player_id", p.PlayerID).Error("Player update failed after match")
			continue
		}
		unlocked = append(unlocked, earned...)
	}

	if err := m.store.UpdateDebateStatus(ctx, debateID, models.StatusEnded); err != nil {
		return nil, fmt.Errorf("failed to end debate: %w", err)
	}

	m.bus.Emit(debateID, events.EventJudgeFinal, finalScore)
	m.bus.Emit(debateID, events.EventDebateEnded, map[string]any{"status": models.StatusEnded})

	return &ScoreResult{
		FinalScore: finalScore,
		Breakdown:  breakdown,
		Winner:     verdict.WinnerParticipantID,
		JudgeReport: JudgeReport{
			Explanation: verdict.Explanation,
			Highlights:  verdict.Highlights,
			Fallacies:   verdict.Fallacies,
		},
		AchievementsUnlocked: unlocked,
	}, nil
}

func roleLabel(t models.ParticipantType, ordinal int) string {
	switch t {
	case models.ParticipantHuman:
		return fmt.Sprintf("Debater %d", ordinal)
	case models.ParticipantAI:
		return fmt.Sprintf("AI Debater %d", ordinal)
	case models.ParticipantJudge:
		return fmt.Sprintf("Judge %d", ordinal)
	default:
		return fmt.Sprintf("Participant %d", ordinal)
	}
}

func normalizeDifficulty(d agents.Difficulty) agents.Difficulty {
	switch d {
	case agents.DifficultyEasy, agents.DifficultyMedium, agents.DifficultyHard:
		return d
	default:
		return agents.DifficultyMedium
	}
}
