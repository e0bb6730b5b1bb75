package debate

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.arena.debate/internal/agents"
	"dev.arena.debate/internal/config"
	"dev.arena.debate/internal/database"
	"dev.arena.debate/internal/events"
	"dev.arena.debate/internal/gamification"
	"dev.arena.debate/internal/llm"
	"dev.arena.debate/internal/models"
	"dev.arena.debate/internal/scoring"
	"dev.arena.debate/internal/topics"
)

// dualCompleter answers every request with a payload that parses as both a
// research briefing and a debater reply, so one stub serves the whole
// pipeline. An optional delay keeps runs in flight long enough to cancel.
type dualCompleter struct {
	calls int64
	delay time.Duration
}

func (c *dualCompleter) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	atomic.AddInt64(&c.calls, 1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	content := `{
		"message": "Universal access raises outcomes across the board.",
		"winner_participant_id": "",
		"key_facts": ["Adoption studies show measurable gains"],
		"pro_points": ["Broader access"],
		"con_points": ["Upfront cost"],
		"suggested_angle": "",
		"sources": ["journal-of-policy"]
	}`
	return &llm.CompletionResponse{Content: content, FinishReason: "stop"}, nil
}

func (c *dualCompleter) callCount() int64 {
	return atomic.LoadInt64(&c.calls)
}

type fixture struct {
	manager   *Manager
	runner    *Runner
	store     *database.MemoryStore
	bus       *events.Bus
	completer *dualCompleter
}

func newFixture(t *testing.T, delay time.Duration) *fixture {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	store := database.NewMemoryStore()
	bus := events.NewBus(log)
	completer := &dualCompleter{delay: delay}
	cache := topics.NewSummaryCache(config.RedisConfig{Addr: "127.0.0.1:1"}, log)
	pipeline := agents.NewPipeline(completer, cache, log)
	gam := gamification.NewService(store, log)

	manager := NewManager(store, scoring.NewEngine(), pipeline, bus, gam, log)
	runner := NewRunner(manager, pipeline, bus, log)
	return &fixture{manager: manager, runner: runner, store: store, bus: bus, completer: completer}
}

func humanVsAIRequest() CreateDebateRequest {
	return CreateDebateRequest{
		Mode:        models.ModeHumanVsAI,
		Topic:       "Should university education be free?",
		Rounds:      3,
		TurnSeconds: 120,
		Participants: []ParticipantSpec{
			{Type: models.ParticipantHuman, Name: "Alex", Stance: models.StancePro, PlayerID: "player-1"},
			{Type: models.ParticipantAI, Name: "Counterpoint", Stance: models.StanceCon},
		},
	}
}

func aiVsAIRequest(rounds int) CreateDebateRequest {
	return CreateDebateRequest{
		Mode:        models.ModeAIVsAI,
		Topic:       "Should remote work be the default?",
		Rounds:      rounds,
		TurnSeconds: 60,
		Participants: []ParticipantSpec{
			{Type: models.ParticipantAI, Name: "Pro Bot", Stance: models.StancePro},
			{Type: models.ParticipantAI, Name: "Con Bot", Stance: models.StanceCon},
		},
	}
}

// ===== Debate creation =====

func TestCreateDebate_AssignsRoleLabels(t *testing.T) {
	f := newFixture(t, 0)

	detail, err := f.manager.CreateDebate(context.Background(), CreateDebateRequest{
		Mode:   models.ModeHumanVsHuman,
		Topic:  "topic",
		Rounds: 2,
		Participants: []ParticipantSpec{
			{Type: models.ParticipantHuman, Name: "A", Stance: models.StancePro},
			{Type: models.ParticipantHuman, Name: "B", Stance: models.StanceCon},
			{Type: models.ParticipantJudge, Name: "J", Stance: models.StancePro},
		},
	})
	require.NoError(t, err)

	require.Len(t, detail.Participants, 3)
	assert.Equal(t, "Debater 1", detail.Participants[0].RoleLabel)
	assert.Equal(t, "Debater 2", detail.Participants[1].RoleLabel)
	assert.Equal(t, "Judge 1", detail.Participants[2].RoleLabel)
	assert.Equal(t, models.StatusCreated, detail.Debate.Status)
	assert.Equal(t, "medium", detail.Debate.Difficulty)
}

func TestGetDebate_UnknownID(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.manager.GetDebate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDebateNotFound)
}

// ===== Turn submission =====

func TestCreateTurn_HumanVsAIProducesOneReply(t *testing.T) {
	f := newFixture(t, 0)
	detail, err := f.manager.CreateDebate(context.Background(), humanVsAIRequest())
	require.NoError(t, err)

	human := detail.Participants[0]
	result, err := f.manager.CreateTurn(context.Background(), detail.Debate.ID, human.ID,
		"Free tuition widens access and pays for itself through higher lifetime earnings.")
	require.NoError(t, err)

	require.Len(t, result.AITurns, 1, "exactly one AI counter-turn")
	assert.NotEqual(t, result.AcceptedTurn.ID, result.AITurns[0].ID)
	assert.Equal(t, "AI Debater 1", result.AITurns[0].RoleLabel)

	for _, dim := range result.UpdatedScores.Dimensions() {
		assert.GreaterOrEqual(t, dim, 0)
		assert.LessOrEqual(t, dim, 100)
	}

	assert.Equal(t, []string{
		string(events.EventTurnCreated),
		string(events.EventScoresUpdated),
		string(events.EventTurnCreated),
		string(events.EventScoresUpdated),
		string(events.EventAIResponded),
	}, result.Events)

	turns, err := f.store.ListTurns(context.Background(), detail.Debate.ID)
	require.NoError(t, err)
	assert.Len(t, turns, 2)
}

func TestCreateTurn_HumanVsHumanNoReply(t *testing.T) {
	f := newFixture(t, 0)
	detail, err := f.manager.CreateDebate(context.Background(), CreateDebateRequest{
		Mode:   models.ModeHumanVsHuman,
		Topic:  "topic",
		Rounds: 2,
		Participants: []ParticipantSpec{
			{Type: models.ParticipantHuman, Name: "A", Stance: models.StancePro},
			{Type: models.ParticipantHuman, Name: "B", Stance: models.StanceCon},
		},
	})
	require.NoError(t, err)

	result, err := f.manager.CreateTurn(context.Background(), detail.Debate.ID, detail.Participants[0].ID, "Opening statement.")
	require.NoError(t, err)

	assert.Empty(t, result.AITurns)
	assert.Equal(t, []string{
		string(events.EventTurnCreated),
		string(events.EventScoresUpdated),
	}, result.Events)
	assert.EqualValues(t, 0, f.completer.callCount())
}

func TestCreateTurn_AISubmitterNeverTriggersReply(t *testing.T) {
	f := newFixture(t, 0)
	detail, err := f.manager.CreateDebate(context.Background(), humanVsAIRequest())
	require.NoError(t, err)

	ai := detail.Participants[1]
	result, err := f.manager.CreateTurn(context.Background(), detail.Debate.ID, ai.ID, "Counterpoint.")
	require.NoError(t, err)

	assert.Empty(t, result.AITurns)
	assert.EqualValues(t, 0, f.completer.callCount())
}

func TestCreateTurn_UnknownDebate(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.manager.CreateTurn(context.Background(), "missing", "p", "content")
	assert.ErrorIs(t, err, ErrDebateNotFound)
}

func TestCreateTurn_ParticipantFromOtherDebate(t *testing.T) {
	f := newFixture(t, 0)
	first, err := f.manager.CreateDebate(context.Background(), humanVsAIRequest())
	require.NoError(t, err)
	second, err := f.manager.CreateDebate(context.Background(), humanVsAIRequest())
	require.NoError(t, err)

	_, err = f.manager.CreateTurn(context.Background(), first.Debate.ID, second.Participants[0].ID, "content")
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

// ===== Final scoring =====

func TestScore_EndsDebateAndUpsertsFinalScore(t *testing.T) {
	f := newFixture(t, 0)
	detail, err := f.manager.CreateDebate(context.Background(), humanVsAIRequest())
	require.NoError(t, err)

	human := detail.Participants[0]
	_, err = f.manager.CreateTurn(context.Background(), detail.Debate.ID, human.ID,
		"Studies show that free tuition increases enrollment because cost is the main barrier.")
	require.NoError(t, err)

	result, err := f.manager.Score(context.Background(), detail.Debate.ID)
	require.NoError(t, err)

	assert.Equal(t, detail.Debate.ID, result.FinalScore.DebateID)
	assert.NotEmpty(t, result.Winner, "non-JSON verdicts still name a winner")
	assert.GreaterOrEqual(t, result.FinalScore.OverallScore, 0)
	assert.LessOrEqual(t, result.FinalScore.OverallScore, 100)

	debate, err := f.manager.GetDebate(context.Background(), detail.Debate.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnded, debate.Status)

	// The human carried a player id, so the match lands on their record.
	player, err := f.store.GetPlayer(context.Background(), "player-1")
	require.NoError(t, err)
	assert.Equal(t, 1, player.Stats.TotalMatches)
}

func TestScore_RepeatOverwrites(t *testing.T) {
	f := newFixture(t, 0)
	detail, err := f.manager.CreateDebate(context.Background(), humanVsAIRequest())
	require.NoError(t, err)

	human := detail.Participants[0]
	_, err = f.manager.CreateTurn(context.Background(), detail.Debate.ID, human.ID, "Opening argument with evidence and data.")
	require.NoError(t, err)

	first, err := f.manager.Score(context.Background(), detail.Debate.ID)
	require.NoError(t, err)
	second, err := f.manager.Score(context.Background(), detail.Debate.ID)
	require.NoError(t, err)

	assert.Equal(t, first.FinalScore.DebateID, second.FinalScore.DebateID)

	stored, err := f.store.GetFinalScore(context.Background(), detail.Debate.ID)
	require.NoError(t, err)
	assert.Equal(t, second.FinalScore.OverallScore, stored.OverallScore)
}

func TestScore_UnknownDebate(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.manager.Score(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDebateNotFound)
}

// ===== Snapshot =====

func TestGetSnapshot(t *testing.T) {
	f := newFixture(t, 0)
	detail, err := f.manager.CreateDebate(context.Background(), humanVsAIRequest())
	require.NoError(t, err)

	_, err = f.manager.CreateTurn(context.Background(), detail.Debate.ID, detail.Participants[0].ID, "Opening.")
	require.NoError(t, err)

	snap, err := f.manager.GetSnapshot(context.Background(), detail.Debate.ID)
	require.NoError(t, err)

	assert.Equal(t, detail.Debate.ID, snap.Debate.ID)
	assert.Len(t, snap.Participants, 2)
	assert.Len(t, snap.Turns, 2)
	assert.Len(t, snap.TurnScores, 2)
	assert.Nil(t, snap.FinalScore)

	_, err = f.manager.Score(context.Background(), detail.Debate.ID)
	require.NoError(t, err)

	snap, err = f.manager.GetSnapshot(context.Background(), detail.Debate.ID)
	require.NoError(t, err)
	require.NotNil(t, snap.FinalScore)
}
