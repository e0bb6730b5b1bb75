package handlers

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"dev.arena.debate/internal/debate"
	"dev.arena.debate/internal/events"
)

// heartbeatInterval keeps idle SSE connections from being reaped by proxies.
const heartbeatInterval = 30 * time.Second

// StreamHandler serves the live event stream over SSE and WebSocket.
type StreamHandler struct {
	manager  *debate.Manager
	bus      *events.Bus
	upgrader websocket.Upgrader
	log      *logrus.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(manager *debate.Manager, bus *events.Bus, log *logrus.Logger) *StreamHandler {
	if log == nil {
		log = logrus.New()
	}
	return &StreamHandler{
		manager: manager,
		bus:     bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// chanHandle bridges the bus to a connection goroutine. The buffer absorbs
// bursts; a full buffer drops the frame rather than blocking the emitter.
type chanHandle struct {
	ch     chan []byte
	once   sync.Once
	closed chan struct{}
}

func newChanHandle() *chanHandle {
	return &chanHandle{
		ch:     make(chan []byte, 100),
		closed: make(chan struct{}),
	}
}

func (h *chanHandle) Write(p []byte) error {
	select {
	case <-h.closed:
		return errors.New("stream closed")
	case h.ch <- p:
		return nil
	default:
		return errors.New("stream buffer full")
	}
}

func (h *chanHandle) Close() error {
	h.once.Do(func() { close(h.closed) })
	return nil
}

// StreamEvents godoc
// @Summary Subscribe to debate events (SSE)
// @Description Server-sent event stream of debate.started, turn.created, scores.updated, ai.responded, judge.final and debate.ended. No replay: read the snapshot first.
// @Tags streams
// @Produce text/event-stream
// @Param id path string true "Debate ID"
// @Success 200
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/debates/{id}/events [get]
func (h *StreamHandler) StreamEvents(c *gin.Context) {
	debateID := c.Param("id")
	if _, err := h.manager.GetDebate(c.Request.Context(), debateID); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "debate not found"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		h.log.Error("Streaming not supported")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "streaming not supported"})
		return
	}

	// Confirm the subscription before any debate event can arrive.
	frame, err := events.Frame(events.EventConnected, gin.H{"debate_id": debateID})
	if err == nil {
		c.Writer.Write(frame)
		flusher.Flush()
	}

	handle := newChanHandle()
	h.bus.Subscribe(debateID, handle)
	h.log.WithField("debate_id", debateID).Info("SSE client connected")

	defer func() {
		h.bus.Unsubscribe(debateID, handle)
		handle.Close()
		h.log.WithField("debate_id", debateID).Info("SSE client disconnected")
	}()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case frame := <-handle.ch:
			c.Writer.Write(frame)
			flusher.Flush()
		case <-heartbeat.C:
			c.Writer.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()
		}
	}
}

// StreamWebSocket godoc
// @Summary Subscribe to debate events (WebSocket)
// @Description Same event frames as the SSE endpoint, delivered as text messages.
// @Tags streams
// @Param id path string true "Debate ID"
// @Success 101
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/debates/{id}/ws [get]
func (h *StreamHandler) StreamWebSocket(c *gin.Context) {
	debateID := c.Param("id")
	if _, err := h.manager.GetDebate(c.Request.Context(), debateID); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "debate not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Error("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	if frame, err := events.Frame(events.EventConnected, gin.H{"debate_id": debateID}); err == nil {
		conn.WriteMessage(websocket.TextMessage, frame)
	}

	handle := newChanHandle()
	h.bus.Subscribe(debateID, handle)
	h.log.WithField("debate_id", debateID).Info("WebSocket client connected")

	defer func() {
		h.bus.Unsubscribe(debateID, handle)
		handle.Close()
		h.log.WithField("debate_id", debateID).Info("WebSocket client disconnected")
	}()

	// Drain client frames so pings and close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-done:
			return
		case frame := <-handle.ch:
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-heartbeat.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
