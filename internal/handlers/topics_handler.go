package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dev.arena.debate/internal/topics"
)

// TopicsHandler serves the built-in topic catalog.
type TopicsHandler struct{}

// NewTopicsHandler creates a new topics handler.
func NewTopicsHandler() *TopicsHandler {
	return &TopicsHandler{}
}

// TopicListResponse lists catalog topics.
type TopicListResponse struct {
	Topics []topics.Topic `json:"topics"`
	Count  int            `json:"count"`
}

// ListTopics godoc
// @Summary List debate topics
// @Description Lists the topic catalog; pass q to filter by relevance.
// @Tags topics
// @Produce json
// @Param q query string false "Search query"
// @Success 200 {object} TopicListResponse
// @Router /api/v1/topics [get]
func (h *TopicsHandler) ListTopics(c *gin.Context) {
	var list []topics.Topic
	if q := c.Query("q"); q != "" {
		list = topics.Search(q)
	} else {
		list = topics.All()
	}
	c.JSON(http.StatusOK, TopicListResponse{Topics: list, Count: len(list)})
}

// GetTopic godoc
// @Summary Get one topic
// @Tags topics
// @Produce json
// @Param id path string true "Topic ID"
// @Success 200 {object} topics.Topic
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/topics/{id} [get]
func (h *TopicsHandler) GetTopic(c *gin.Context) {
	topic, ok := topics.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "topic not found"})
		return
	}
	c.JSON(http.StatusOK, topic)
}
