// Package handlers exposes the HTTP surface: debate lifecycle, live streams,
// topics, player profiles, auth and health.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dev.arena.debate/internal/agents"
	"dev.arena.debate/internal/debate"
	"dev.arena.debate/internal/models"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DebateHandler handles debate lifecycle requests.
type DebateHandler struct {
	manager *debate.Manager
	runner  *debate.Runner
	log     *logrus.Logger
}

// NewDebateHandler creates a new debate handler.
func NewDebateHandler(manager *debate.Manager, runner *debate.Runner, log *logrus.Logger) *DebateHandler {
	if log == nil {
		log = logrus.New()
	}
	return &DebateHandler{manager: manager, runner: runner, log: log}
}

// ParticipantRequest describes one participant in a create request.
type ParticipantRequest struct {
	Type     string `json:"type" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Stance   string `json:"stance" binding:"required"`
	PlayerID string `json:"player_id"`
}

// CreateDebateRequest is the body of POST /debates.
type CreateDebateRequest struct {
	Mode         string               `json:"mode" binding:"required"`
	Topic        string               `json:"topic" binding:"required"`
	Rounds       int                  `json:"rounds"`
	TurnSeconds  int                  `json:"turn_seconds"`
	Difficulty   string               `json:"difficulty"`
	Participants []ParticipantRequest `json:"participants" binding:"required,min=1"`
}

// CreateDebate godoc
// @Summary Create a debate
// @Description Create a debate with its participants. AI vs AI debates start playing automatically.
// @Tags debates
// @Accept json
// @Produce json
// @Param request body CreateDebateRequest true "Debate definition"
// @Success 201 {object} debate.DebateDetail
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/debates [post]
func (h *DebateHandler) CreateDebate(c *gin.Context) {
	var req CreateDebateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	mode := models.DebateMode(req.Mode)
	switch mode {
	case models.ModeHumanVsAI, models.ModeCopsVsAI, models.ModeAIVsAI, models.ModeHumanVsHuman:
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown debate mode: " + req.Mode})
		return
	}

	if req.Rounds <= 0 {
		req.Rounds = 3
	}
	if req.TurnSeconds <= 0 {
		req.TurnSeconds = 120
	}

	specs := make([]debate.ParticipantSpec, 0, len(req.Participants))
	for _, p := range req.Participants {
		specs = append(specs, debate.ParticipantSpec{
			Type:     models.ParticipantType(p.Type),
			Name:     p.Name,
			Stance:   models.Stance(p.Stance),
			PlayerID: p.PlayerID,
		})
	}

	detail, err := h.manager.CreateDebate(c.Request.Context(), debate.CreateDebateRequest{
		Mode:         mode,
		Topic:        req.Topic,
		Rounds:       req.Rounds,
		TurnSeconds:  req.TurnSeconds,
		Difficulty:   agents.Difficulty(req.Difficulty),
		Participants: specs,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, detail)
}

// GetDebate godoc
// @Summary Get a debate snapshot
// @Description Full current state: debate, participants, transcript, scores. Read this before subscribing to the event stream.
// @Tags debates
// @Produce json
// @Param id path string true "Debate ID"
// @Success 200 {object} debate.Snapshot
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/debates/{id} [get]
func (h *DebateHandler) GetDebate(c *gin.Context) {
	snapshot, err := h.manager.GetSnapshot(c.Request.Context(), c.Param("id"))
	if errors.Is(err, debate.ErrDebateNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "debate not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// CreateTurnRequest is the body of POST /debates/:id/turns.
type CreateTurnRequest struct {
	ParticipantID string `json:"participant_id" binding:"required"`
	Content       string `json:"content" binding:"required"`
}

// CreateTurn godoc
// @Summary Submit a turn
// @Description Append a turn to the transcript. Human submissions against an AI opponent block until the AI counter-turn is persisted.
// @Tags debates
// @Accept json
// @Produce json
// @Param id path string true "Debate ID"
// @Param request body CreateTurnRequest true "Turn content"
// @Success 201 {object} debate.TurnResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/debates/{id}/turns [post]
func (h *DebateHandler) CreateTurn(c *gin.Context) {
	var req CreateTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.manager.CreateTurn(c.Request.Context(), c.Param("id"), req.ParticipantID, req.Content)
	switch {
	case errors.Is(err, debate.ErrDebateNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "debate not found"})
		return
	case errors.Is(err, debate.ErrParticipantNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "participant not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, result)
}

// RunDebateRequest optionally overrides the stored round count.
type RunDebateRequest struct {
	Rounds int `json:"rounds"`
}

// RunDebate godoc
// @Summary Start AI vs AI auto-play
// @Description Launch the background loop playing all rounds. Starting an already-running debate is a no-op.
// @Tags debates
// @Accept json
// @Produce json
// @Param id path string true "Debate ID"
// @Param request body RunDebateRequest false "Round override"
// @Success 202 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/debates/{id}/run [post]
func (h *DebateHandler) RunDebate(c *gin.Context) {
	var req RunDebateRequest
	// Body is optional.
	_ = c.ShouldBindJSON(&req)

	err := h.runner.Start(c.Request.Context(), c.Param("id"), req.Rounds)
	if errors.Is(err, debate.ErrDebateNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "debate not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "running"})
}

// CancelDebate godoc
// @Summary Cancel AI vs AI auto-play
// @Description Request a cooperative stop. The in-flight turn completes before the loop exits. Idempotent.
// @Tags debates
// @Produce json
// @Param id path string true "Debate ID"
// @Success 202 {object} map[string]string
// @Router /api/v1/debates/{id}/cancel [post]
func (h *DebateHandler) CancelDebate(c *gin.Context) {
	h.runner.Cancel(c.Param("id"))
	c.JSON(http.StatusAccepted, gin.H{"status": "cancelling"})
}

// ScoreDebate godoc
// @Summary Judge a debate
// @Description Run the judge over the transcript, upsert the final score, update player records and end the debate.
// @Tags debates
// @Produce json
// @Param id path string true "Debate ID"
// @Success 200 {object} debate.ScoreResult
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/debates/{id}/score [post]
func (h *DebateHandler) ScoreDebate(c *gin.Context) {
	result, err := h.manager.Score(c.Request.Context(), c.Param("id"))
	if errors.Is(err, debate.ErrDebateNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "debate not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
