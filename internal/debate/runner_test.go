package debate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.arena.debate/internal/models"
)

func waitForStatus(t *testing.T, f *fixture, debateID string, want models.DebateStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		debate, err := f.manager.GetDebate(context.Background(), debateID)
		return err == nil && debate.Status == want
	}, 5*time.Second, 10*time.Millisecond, "debate never reached %s", want)
}

func TestRunner_PlaysAllRoundsInOrder(t *testing.T) {
	f := newFixture(t, 0)
	detail, err := f.manager.CreateDebate(context.Background(), aiVsAIRequest(2))
	require.NoError(t, err)

	require.NoError(t, f.runner.Start(context.Background(), detail.Debate.ID, 0))
	waitForStatus(t, f, detail.Debate.ID, models.StatusEnded)

	turns, err := f.store.ListTurns(context.Background(), detail.Debate.ID)
	require.NoError(t, err)
	require.Len(t, turns, 4, "rounds × AI participants")

	// Round-major order: pro, con, pro, con.
	pro, con := detail.Participants[0].ID, detail.Participants[1].ID
	assert.Equal(t, []string{pro, con, pro, con}, []string{
		turns[0].ParticipantID, turns[1].ParticipantID, turns[2].ParticipantID, turns[3].ParticipantID,
	})

	scores, err := f.store.ListTurnScores(context.Background(), detail.Debate.ID)
	require.NoError(t, err)
	assert.Len(t, scores, 4)
}

func TestRunner_StartIsIdempotent(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond)
	detail, err := f.manager.CreateDebate(context.Background(), aiVsAIRequest(2))
	require.NoError(t, err)

	require.NoError(t, f.runner.Start(context.Background(), detail.Debate.ID, 0))
	require.NoError(t, f.runner.Start(context.Background(), detail.Debate.ID, 0))

	waitForStatus(t, f, detail.Debate.ID, models.StatusEnded)

	turns, err := f.store.ListTurns(context.Background(), detail.Debate.ID)
	require.NoError(t, err)
	assert.Len(t, turns, 4, "double start never doubles the turn count")

	// One research and one debater call per turn.
	assert.EqualValues(t, 8, f.completer.callCount())
}

func TestRunner_RoundsOverride(t *testing.T) {
	f := newFixture(t, 0)
	detail, err := f.manager.CreateDebate(context.Background(), aiVsAIRequest(3))
	require.NoError(t, err)

	require.NoError(t, f.runner.Start(context.Background(), detail.Debate.ID, 1))
	waitForStatus(t, f, detail.Debate.ID, models.StatusEnded)

	turns, err := f.store.ListTurns(context.Background(), detail.Debate.ID)
	require.NoError(t, err)
	assert.Len(t, turns, 2)
}

func TestRunner_CancelStopsAtTurnBoundary(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)
	detail, err := f.manager.CreateDebate(context.Background(), aiVsAIRequest(5))
	require.NoError(t, err)

	require.NoError(t, f.runner.Start(context.Background(), detail.Debate.ID, 0))
	require.Eventually(t, func() bool {
		return f.runner.Active(detail.Debate.ID)
	}, time.Second, time.Millisecond)

	f.runner.Cancel(detail.Debate.ID)
	waitForStatus(t, f, detail.Debate.ID, models.StatusCancelled)

	turns, err := f.store.ListTurns(context.Background(), detail.Debate.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(turns), 10, "never exceeds rounds × participants")
}

func TestRunner_CancelUnknownIsNoOp(t *testing.T) {
	f := newFixture(t, 0)

	f.runner.Cancel("missing")
	assert.False(t, f.runner.Active("missing"))
}

func TestRunner_StartUnknownDebate(t *testing.T) {
	f := newFixture(t, 0)

	err := f.runner.Start(context.Background(), "missing", 0)
	assert.ErrorIs(t, err, ErrDebateNotFound)
}

func TestRunner_StartRejectsNonAIDebate(t *testing.T) {
	f := newFixture(t, 0)
	detail, err := f.manager.CreateDebate(context.Background(), humanVsAIRequest())
	require.NoError(t, err)

	err = f.runner.Start(context.Background(), detail.Debate.ID, 0)
	assert.Error(t, err)
}

func TestRunner_AutoStartOnAIVsAICreation(t *testing.T) {
	f := newFixture(t, 0)
	f.manager.SetRunner(f.runner)

	detail, err := f.manager.CreateDebate(context.Background(), aiVsAIRequest(1))
	require.NoError(t, err)

	waitForStatus(t, f, detail.Debate.ID, models.StatusEnded)

	turns, err := f.store.ListTurns(context.Background(), detail.Debate.ID)
	require.NoError(t, err)
	assert.Len(t, turns, 2)
}
