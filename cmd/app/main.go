package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"chorequest/internal/api"
	"chorequest/internal/repository"
	"chorequest/internal/service"
	"chorequest/pkg/auth"
	"chorequest/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	hub := api.NewEventsHub()

	ledger := service.NewProgressionLedger(repo, cfg.LevelThresholds)
	badges := service.NewBadgeEvaluator(repo, repo, ledger, nil)
	questService := service.NewQuestService(repo, repo, ledger, badges, hub)
	childService := service.NewChildService(repo)
	rewardService := service.NewRewardService(repo, ledger)

	jwtAuth := auth.New(cfg.Auth.JWTSecret)

	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	config.AllowHeaders = []string{"*"}
	config.AllowCredentials = true
	config.MaxAge = 12 * time.Hour

	router.Use(cors.New(config))

	a := router.Group("/api/v1")
	api.NewQuestRoutes(a, questService, jwtAuth)
	api.NewChildRoutes(a, childService, jwtAuth)
	api.NewRewardRoutes(a, rewardService, jwtAuth)
	api.NewEventRoutes(a, hub, childService, jwtAuth)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}
