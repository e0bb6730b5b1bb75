package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dev.arena.debate/internal/gamification"
	"dev.arena.debate/internal/models"
)

// ProfileHandler serves player profiles and the leaderboard.
type ProfileHandler struct {
	service *gamification.Service
	log     *logrus.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(service *gamification.Service, log *logrus.Logger) *ProfileHandler {
	if log == nil {
		log = logrus.New()
	}
	return &ProfileHandler{service: service, log: log}
}

// GetProfile godoc
// @Summary Get a player profile
// @Description Level, XP, rank title, stats, achievements and match history. Unknown players get a fresh default profile.
// @Tags players
// @Produce json
// @Param id path string true "Player ID"
// @Success 200 {object} models.Player
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/players/{id}/profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	player, err := h.service.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, player)
}

// LeaderboardResponse is a page of top players.
type LeaderboardResponse struct {
	Players []models.Player `json:"players"`
	Count   int             `json:"count"`
	Offset  int             `json:"offset"`
}

// Leaderboard godoc
// @Summary Get the XP leaderboard
// @Tags players
// @Produce json
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {object} LeaderboardResponse
// @Router /api/v1/leaderboard [get]
func (h *ProfileHandler) Leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	players, err := h.service.Leaderboard(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, LeaderboardResponse{
		Players: players,
		Count:   len(players),
		Offset:  offset,
	})
}
