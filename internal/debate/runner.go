package debate

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"dev.arena.debate/internal/agents"
	"dev.arena.debate/internal/events"
	"dev.arena.debate/internal/models"
)

// Runner drives AI-vs-AI auto-play. It keeps one cancel function per active
// debate; cancellation is cooperative, checked between turns only, so an
// in-flight model call always completes before the loop notices.
type Runner struct {
	manager  *Manager
	pipeline *agents.Pipeline
	bus      *events.Bus
	log      *logrus.Logger

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// NewRunner creates a run controller bound to a session manager.
func NewRunner(manager *Manager, pipeline *agents.Pipeline, bus *events.Bus, log *logrus.Logger) *Runner {
	if log == nil {
		log = logrus.New()
	}
	return &Runner{
		manager:  manager,
		pipeline: pipeline,
		bus:      bus,
		log:      log,
	}
}

// Active reports whether a debate currently has a running loop.
func (r *Runner) Active(debateID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[debateID]
	return ok
}

// Start launches the auto-play loop for an AI-vs-AI debate. A debate that is
// already running, here or per its persisted status, is a no-op; starting
// never doubles the turn count. roundsOverride replaces the stored round
// count when positive.
func (r *Runner) Start(ctx context.Context, debateID string, roundsOverride int) error {
	debate, err := r.manager.GetDebate(ctx, debateID)
	if err != nil {
		return err
	}
	if debate.Mode != models.ModeAIVsAI {
		return fmt.Errorf("debate %s is not AI vs AI", debateID)
	}
	if debate.Status == models.StatusRunning {
		return nil
	}
	if debate.Status == models.StatusEnded || debate.Status == models.StatusCancelled {
		return fmt.Errorf("debate %s already finished", debateID)
	}

	participants, err := r.manager.store.ListParticipants(ctx, debateID)
	if err != nil {
		return err
	}
	var debaters []models.Participant
	for _, p := range participants {
		if p.Type == models.ParticipantAI {
			debaters = append(debaters, p)
		}
	}
	if len(debaters) == 0 {
		return fmt.Errorf("debate %s has no AI participants", debateID)
	}

	rounds := debate.Rounds
	if roundsOverride > 0 {
		rounds = roundsOverride
	}

	r.mu.Lock()
	if _, ok := r.active[debateID]; ok {
		r.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(context.Background())
	if r.active == nil {
		r.active = make(map[string]context.CancelFunc)
	}
	r.active[debateID] = cancel
	r.mu.Unlock()

	if err := r.manager.store.UpdateDebateStatus(ctx, debateID, models.StatusRunning); err != nil {
		r.remove(debateID)
		return err
	}

	r.log.WithFields(logrus.Fields{
		"debate_id": debateID,
		"rounds":    rounds,
		"debaters":  len(debaters),
	}).Info("Auto-play started")

	go r.run(runCtx, debate, debaters, rounds)
	return nil
}

// Cancel requests a stop for a running debate. Unknown or already-stopped
// debates are a no-op.
func (r *Runner) Cancel(debateID string) {
	r.mu.Lock()
	cancel, ok := r.active[debateID]
	r.mu.Unlock()
	if ok {
		cancel()
	}
}

func (r *Runner) remove(debateID string) {
	r.mu.Lock()
	if cancel, ok := r.active[debateID]; ok {
		cancel()
		delete(r.active, debateID)
	}
	r.mu.Unlock()
}

// run iterates rounds × debaters in order, producing one turn per debater
// per round through the session manager. The cancellation token is checked
// once per iteration; model calls themselves are never interrupted.
func (r *Runner) run(ctx context.Context, debate *models.Debate, debaters []models.Participant, rounds int) {
	defer r.remove(debate.ID)

	difficulty := agents.Difficulty(debate.Difficulty)
	cancelled := false

loop:
	for round := 0; round < rounds; round++ {
		for _, p := range debaters {
			select {
			case <-ctx.Done():
				cancelled = true
				break loop
			default:
			}

			transcript, err := r.manager.store.ListTurns(context.Background(), debate.ID)
			if err != nil {
				r.log.WithError(err).WithField("debate_id", debate.ID).Error("Transcript load failed, stopping auto-play")
				break loop
			}

			briefing := r.pipeline.Research.Brief(context.Background(), debate.Topic, p.Stance, opponentClaims(transcript, p.ID), difficulty)
			message := r.pipeline.Debater.Argue(context.Background(), debate.Topic, p.Stance, transcript, briefing, difficulty)

			if _, err := r.manager.CreateTurn(context.Background(), debate.ID, p.ID, message); err != nil {
				r.log.WithError(err).WithField("debate_id", debate.ID).Error("Turn persistence failed, stopping auto-play")
				break loop
			}
		}
	}

	status := models.StatusEnded
	if cancelled {
		status = models.StatusCancelled
	}
	if err := r.manager.store.UpdateDebateStatus(context.Background(), debate.ID, status); err != nil {
		r.log.WithError(err).WithField("debate_id", debate.ID).Error("Status update failed after auto-play")
	}
	r.bus.Emit(debate.ID, events.EventDebateEnded, map[string]any{"status": status})

	r.log.WithFields(logrus.Fields{
		"debate_id": debate.ID,
		"status":    status,
	}).Info("Auto-play finished")
}
