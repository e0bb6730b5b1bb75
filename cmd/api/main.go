// Debate arena API server: multi-turn AI debates with live event streaming,
// heuristic and judged scoring, and player progression.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"dev.arena.debate/internal/agents"
	"dev.arena.debate/internal/auth"
	"dev.arena.debate/internal/config"
	"dev.arena.debate/internal/database"
	"dev.arena.debate/internal/debate"
	"dev.arena.debate/internal/events"
	"dev.arena.debate/internal/gamification"
	"dev.arena.debate/internal/llm"
	"dev.arena.debate/internal/router"
	"dev.arena.debate/internal/scoring"
	"dev.arena.debate/internal/topics"
)

const version = "1.0.0"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	gin.SetMode(cfg.Server.GinMode)

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Server.GinMode == gin.DebugMode {
		log.SetLevel(logrus.DebugLevel)
	}

	store := database.NewStoreWithFallback(cfg, log)
	storage := "postgres"
	if _, ok := store.(*database.MemoryStore); ok {
		storage = "memory"
	}

	bus := events.NewBus(log)
	cache := topics.NewSummaryCache(cfg.Redis, log)
	completer := llm.NewClient(cfg.LLM, log)
	pipeline := agents.NewPipeline(completer, cache, log)
	players := gamification.NewService(store, log)

	manager := debate.NewManager(store, scoring.NewEngine(), pipeline, bus, players, log)
	runner := debate.NewRunner(manager, pipeline, bus, log)
	manager.SetRunner(runner)

	authService := auth.NewService(store, cfg.Auth, log)

	engine := router.New(router.Deps{
		Manager: manager,
		Runner:  runner,
		Bus:     bus,
		Auth:    authService,
		Players: players,
		Version: version,
		Storage: storage,
		Log:     log,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: engine,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":    cfg.Server.Port,
			"storage": storage,
		}).Info("Debate arena API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}

	if pg, ok := store.(*database.PostgresStore); ok {
		pg.Close()
	}
	log.Info("Server stopped")
}
