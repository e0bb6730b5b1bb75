package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.arena.debate/internal/agents"
	"dev.arena.debate/internal/auth"
	"dev.arena.debate/internal/config"
	"dev.arena.debate/internal/database"
	"dev.arena.debate/internal/debate"
	"dev.arena.debate/internal/events"
	"dev.arena.debate/internal/gamification"
	"dev.arena.debate/internal/llm"
	"dev.arena.debate/internal/models"
	"dev.arena.debate/internal/scoring"
	"dev.arena.debate/internal/topics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubCompleter answers with a payload valid for briefing, debater and
// judge parsing alike.
type stubCompleter struct{}

func (stubCompleter) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	content := `{
		"message": "Remote-first teams report higher retention.",
		"key_facts": ["Surveys show higher retention"],
		"sources": ["workforce-report"]
	}`
	return &llm.CompletionResponse{Content: content, FinishReason: "stop"}, nil
}

type testEnv struct {
	router *gin.Engine
	store  *database.MemoryStore
	bus    *events.Bus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	store := database.NewMemoryStore()
	bus := events.NewBus(log)
	cache := topics.NewSummaryCache(config.RedisConfig{Addr: "127.0.0.1:1"}, log)
	pipeline := agents.NewPipeline(stubCompleter{}, cache, log)
	gam := gamification.NewService(store, log)

	manager := debate.NewManager(store, scoring.NewEngine(), pipeline, bus, gam, log)
	runner := debate.NewRunner(manager, pipeline, bus, log)
	manager.SetRunner(runner)

	authSvc := auth.NewService(store, config.AuthConfig{JWTSecret: "test", TokenTTL: time.Hour}, log)

	debateHandler := NewDebateHandler(manager, runner, log)
	streamHandler := NewStreamHandler(manager, bus, log)
	authHandler := NewAuthHandler(authSvc, log)
	topicsHandler := NewTopicsHandler()
	profileHandler := NewProfileHandler(gam, log)
	healthHandler := NewHealthHandler("test", "memory")

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/debates", debateHandler.CreateDebate)
	v1.GET("/debates/:id", debateHandler.GetDebate)
	v1.POST("/debates/:id/turns", debateHandler.CreateTurn)
	v1.POST("/debates/:id/run", debateHandler.RunDebate)
	v1.POST("/debates/:id/cancel", debateHandler.CancelDebate)
	v1.POST("/debates/:id/score", debateHandler.ScoreDebate)
	v1.GET("/debates/:id/events", streamHandler.StreamEvents)
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/login", authHandler.Login)
	v1.GET("/topics", topicsHandler.ListTopics)
	v1.GET("/topics/:id", topicsHandler.GetTopic)
	v1.GET("/players/:id/profile", profileHandler.GetProfile)
	v1.GET("/leaderboard", profileHandler.Leaderboard)
	r.GET("/health", healthHandler.Health)

	return &testEnv{router: r, store: store, bus: bus}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func createDebateBody() map[string]interface{} {
	return map[string]interface{}{
		"mode":   "HUMAN_VS_AI",
		"topic":  "Should remote work be the default?",
		"rounds": 2,
		"participants": []map[string]interface{}{
			{"type": "HUMAN", "name": "Alex", "stance": "PRO", "player_id": "player-1"},
			{"type": "AI", "name": "Counterpoint", "stance": "CON"},
		},
	}
}

func (e *testEnv) createDebate(t *testing.T) debate.DebateDetail {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/debates", createDebateBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var detail debate.DebateDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	return detail
}

// ===== Debate endpoints =====

func TestCreateDebate(t *testing.T) {
	env := newTestEnv(t)

	detail := env.createDebate(t)
	assert.NotEmpty(t, detail.Debate.ID)
	assert.Len(t, detail.Participants, 2)
	assert.Equal(t, models.StatusCreated, detail.Debate.Status)
}

func TestCreateDebate_UnknownMode(t *testing.T) {
	env := newTestEnv(t)

	body := createDebateBody()
	body["mode"] = "CHESS"
	w := env.do(t, http.MethodPost, "/api/v1/debates", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateDebate_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/debates", map[string]interface{}{"mode": "HUMAN_VS_AI"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDebate(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createDebate(t)

	w := env.do(t, http.MethodGet, "/api/v1/debates/"+detail.Debate.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap debate.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, detail.Debate.ID, snap.Debate.ID)
	assert.Len(t, snap.Participants, 2)
}

func TestGetDebate_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/debates/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateTurn(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createDebate(t)

	w := env.do(t, http.MethodPost, "/api/v1/debates/"+detail.Debate.ID+"/turns", map[string]interface{}{
		"participant_id": detail.Participants[0].ID,
		"content":        "Remote work widens the hiring pool and cuts commutes.",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result debate.TurnResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Len(t, result.AITurns, 1)
	assert.Contains(t, result.Events, string(events.EventAIResponded))
}

func TestCreateTurn_UnknownParticipant(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createDebate(t)

	w := env.do(t, http.MethodPost, "/api/v1/debates/"+detail.Debate.ID+"/turns", map[string]interface{}{
		"participant_id": "missing",
		"content":        "hello",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScoreDebate(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createDebate(t)

	w := env.do(t, http.MethodPost, "/api/v1/debates/"+detail.Debate.ID+"/turns", map[string]interface{}{
		"participant_id": detail.Participants[0].ID,
		"content":        "Evidence shows productivity holds steady for remote teams.",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/debates/"+detail.Debate.ID+"/score", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result debate.ScoreResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.NotEmpty(t, result.Winner)

	w = env.do(t, http.MethodGet, "/api/v1/debates/"+detail.Debate.ID, nil)
	var snap debate.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, models.StatusEnded, snap.Debate.Status)
	require.NotNil(t, snap.FinalScore)
}

func TestRunDebate_RejectsHumanModes(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createDebate(t)

	w := env.do(t, http.MethodPost, "/api/v1/debates/"+detail.Debate.ID+"/run", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelDebate_AlwaysAccepted(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/debates/missing/cancel", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

// ===== Event stream =====

func TestStreamEvents_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/debates/missing/events", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamEvents_ConnectedFrameAndDelivery(t *testing.T) {
	env := newTestEnv(t)
	detail := env.createDebate(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/debates/"+detail.Debate.ID+"/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		env.router.ServeHTTP(w, req)
	}()

	require.Eventually(t, func() bool {
		return env.bus.SubscriberCount(detail.Debate.ID) == 1
	}, time.Second, time.Millisecond)

	env.bus.Emit(detail.Debate.ID, events.EventTurnCreated, map[string]string{"turn_id": "t-1"})

	require.Eventually(t, func() bool {
		cancel()
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	body := w.Body.String()
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "event: connected\n"), body)
	assert.Contains(t, body, "event: turn.created\n")

	// Disconnecting removed the subscription.
	assert.Equal(t, 0, env.bus.SubscriberCount(detail.Debate.ID))
}

// ===== Auth endpoints =====

func TestRegisterAndLoginEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "alex", "password": "correct-password",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "alex", "password": "correct-password",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "alex", "password": "correct-password",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var login LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.NotEmpty(t, login.Token)
	assert.NotEmpty(t, login.PlayerID)

	w = env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": "alex", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegister_ShortPassword(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"username": "alex", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ===== Topics =====

func TestListTopics(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/topics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp TopicListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Greater(t, resp.Count, 0)
}

func TestListTopics_Search(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/topics?q=homework", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp TopicListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Greater(t, resp.Count, 0)
	assert.Contains(t, strings.ToLower(resp.Topics[0].Title), "homework")
}

func TestGetTopic_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/topics/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ===== Profiles =====

func TestGetProfile_DefaultsForUnknown(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/players/new-player/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var player models.Player
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &player))
	assert.Equal(t, 1, player.Level)
	assert.Equal(t, 0, player.XP)
}

func TestLeaderboard(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/leaderboard", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp LeaderboardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
}

// ===== Health =====

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "memory", resp.Storage)
}
