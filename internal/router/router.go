// Package router assembles the gin engine: middleware, API routes and the
// metrics endpoint.
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"dev.arena.debate/internal/auth"
	"dev.arena.debate/internal/debate"
	"dev.arena.debate/internal/events"
	"dev.arena.debate/internal/gamification"
	"dev.arena.debate/internal/handlers"
	"dev.arena.debate/internal/middleware"
)

// Deps carries everything the routes need.
type Deps struct {
	Manager *debate.Manager
	Runner  *debate.Runner
	Bus     *events.Bus
	Auth    *auth.Service
	Players *gamification.Service
	Version string
	Storage string
	Log     *logrus.Logger
}

// New builds the engine. Reads are public; debate mutations require a bearer
// token.
func New(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())

	limiter := middleware.NewRateLimiter()
	limiter.AddLimit("/api/v1/auth/login", &middleware.RateLimitConfig{Requests: 10, Window: time.Minute})
	limiter.AddLimit("/api/v1/auth/register", &middleware.RateLimitConfig{Requests: 10, Window: time.Minute})
	limiter.AddLimit("/api/v1/debates/:id/turns", &middleware.RateLimitConfig{Requests: 30, Window: time.Minute})
	limiter.AddLimit("/api/v1/debates/:id/score", &middleware.RateLimitConfig{Requests: 10, Window: time.Minute})
	r.Use(limiter.Middleware())

	debateHandler := handlers.NewDebateHandler(deps.Manager, deps.Runner, deps.Log)
	streamHandler := handlers.NewStreamHandler(deps.Manager, deps.Bus, deps.Log)
	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Log)
	topicsHandler := handlers.NewTopicsHandler()
	profileHandler := handlers.NewProfileHandler(deps.Players, deps.Log)
	healthHandler := handlers.NewHealthHandler(deps.Version, deps.Storage)

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		v1.GET("/topics", topicsHandler.ListTopics)
		v1.GET("/topics/:id", topicsHandler.GetTopic)
		v1.GET("/players/:id/profile", profileHandler.GetProfile)
		v1.GET("/leaderboard", profileHandler.Leaderboard)

		debates := v1.Group("/debates")
		{
			debates.GET("/:id", debateHandler.GetDebate)
			debates.GET("/:id/events", streamHandler.StreamEvents)
			debates.GET("/:id/ws", streamHandler.StreamWebSocket)

			protected := debates.Group("")
			protected.Use(middleware.Auth(deps.Auth))
			{
				protected.POST("", debateHandler.CreateDebate)
				protected.POST("/:id/turns", debateHandler.CreateTurn)
				protected.POST("/:id/run", debateHandler.RunDebate)
				protected.POST("/:id/cancel", debateHandler.CancelDebate)
				protected.POST("/:id/score", debateHandler.ScoreDebate)
			}
		}
	}

	return r
}
