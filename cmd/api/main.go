package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"treasuryroi/internal/config"
	"treasuryroi/internal/database"
	"treasuryroi/internal/jobs"
	"treasuryroi/internal/llm"
	"treasuryroi/internal/middleware"
	"treasuryroi/internal/modules/admin"
	"treasuryroi/internal/modules/auth"
	"treasuryroi/internal/modules/report"
	jwtsvc "treasuryroi/internal/pkg/jwt"
	"treasuryroi/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is empty")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	leadRepo := repository.NewLeadRepository(db)
	userRepo := repository.NewUserRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	var jobStore jobs.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		jobStore = jobs.NewRedisStore(client, cfg.JobTTL)
		log.Println("Using Redis job store:", cfg.RedisAddr)
	} else {
		jobStore = jobs.NewMemoryStore(cfg.JobTTL)
		log.Println("Using in-memory job store")
	}

	var narrator llm.Narrator
	if cfg.NarrativeEnabled() {
		narrator = llm.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.LLMTimeout)
		log.Println("Narrative generation enabled, model:", cfg.AnthropicModel)
	} else {
		log.Println("Narrative generation disabled, reports are produced inline")
	}

	hub := report.NewHub()
	defer hub.Close()

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	reportService := report.NewService(leadRepo, settingRepo, jobStore, narrator, hub)
	reportHandler := report.NewHandler(reportService)

	adminService := admin.NewService(leadRepo, userRepo, settingRepo, narrator)
	adminHandler := admin.NewHandler(adminService)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), middleware.ErrorLogger(), middleware.CORS())

	reportHandler.RegisterWebSocket(r)

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterRoutes(v1)
		reportHandler.RegisterRoutes(v1)

		// protected
		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j))
		{
			authHandler.RegisterProtectedRoutes(protected)

			adminOnly := protected.Group("/")
			adminOnly.Use(middleware.AdminOnly())
			adminHandler.RegisterRoutes(adminOnly)
		}
	}

	log.Println("Listening on :" + cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
