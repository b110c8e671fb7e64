package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/user/route-optimizer-api/internal/cache"
	"github.com/user/route-optimizer-api/internal/config"
	"github.com/user/route-optimizer-api/internal/handlers"
	"github.com/user/route-optimizer-api/internal/middleware"
	"github.com/user/route-optimizer-api/internal/repository"
	"github.com/user/route-optimizer-api/internal/services/ai"
	"github.com/user/route-optimizer-api/internal/services/auth"
	"github.com/user/route-optimizer-api/internal/services/chat"
	"github.com/user/route-optimizer-api/internal/services/metrics"
	"github.com/user/route-optimizer-api/internal/services/query"
)

func main() {
	// .env необязателен
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Предупреждение: ошибка чтения .env: %v", err)
	}

	// Загрузка конфигурации
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}
	gin.SetMode(cfg.Server.Mode)

	// Подключение к БД
	db, err := repository.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Fatalf("Ошибка подключения к БД: %v", err)
	}

	// Инициализация репозиториев
	repo := repository.NewRepository(db)

	// Кэш метрик (опционально)
	var metricsCache metrics.Cache
	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedis(cfg.Redis)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("[Cache] Redis недоступен, работаем без кэша: %v", err)
			redisCache.Close()
		} else {
			log.Printf("[Cache] Подключен Redis %s", cfg.Redis.Addr)
			metricsCache = redisCache
			defer redisCache.Close()
		}
		cancel()
	}

	// Инициализация сервисов
	engine := metrics.NewEngine(metrics.Costs{
		VisitCost:     cfg.Metrics.VisitCost,
		LogisticsCost: cfg.Metrics.LogisticsCost,
	})
	metricsService := metrics.NewService(repo, engine, metricsCache, time.Duration(cfg.Metrics.CacheTTLMinutes)*time.Minute)
	queryService := query.NewService(query.DefaultLibrary(), repo)

	// Инициализация AI сервиса
	aiService := ai.NewService(repo, cfg.AI)
	if err := aiService.Initialize(context.Background()); err != nil {
		log.Printf("[AI] Предупреждение: ошибка инициализации AI: %v", err)
	}
	defer aiService.Close()

	chatService := chat.NewService(repo, queryService, metricsService, aiService)

	// Пересчёт глобальных метрик по расписанию имеет смысл только с кэшем
	if metricsCache != nil {
		c := cron.New(cron.WithLocation(time.UTC))
		_, err = c.AddFunc(cfg.Metrics.RefreshCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if _, err := metricsService.RefreshGlobal(ctx); err != nil {
				log.Printf("[Cron] Ошибка пересчёта метрик: %v", err)
			}
		})
		if err != nil {
			log.Fatalf("Ошибка добавления cron-задачи метрик: %v", err)
		}
		c.Start()
		defer c.Stop()

		// Прогрев кэша при запуске
		go func() {
			log.Println("[Старт] Прогрев кэша метрик...")
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if _, err := metricsService.RefreshGlobal(ctx); err != nil {
				log.Printf("[Старт] Ошибка прогрева кэша: %v", err)
			}
		}()
	}

	// Инициализация HTTP-сервера
	router := gin.Default()
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	authManager := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessCodeHash, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	authHandler := auth.NewAuthHandler(authManager)
	requireAuth := middleware.Auth(authManager, cfg.Auth.Enabled)

	h := handlers.NewHandler(repo, metricsService, queryService, chatService)
	aiHandler := handlers.NewAIHandler(aiService)

	// Маршруты API
	api := router.Group("/api")
	{
		api.GET("/health", h.Health)

		// Авторизация
		api.POST("/auth/login", authHandler.Login)
		api.GET("/auth/me", middleware.Auth(authManager, true), authHandler.Me)

		protected := api.Group("")
		protected.Use(requireAuth)
		{
			protected.GET("/clients", h.GetClients)
			protected.GET("/clients/:id", h.GetClient)

			protected.GET("/metrics", h.GetMetrics)
			protected.GET("/metrics/report", h.GetMetricsReport)

			protected.POST("/query", h.RunQuery)
			protected.GET("/query/export", h.ExportQuery)

			protected.GET("/strategies", h.GetStrategies)
			protected.GET("/strategies/classify", h.ClassifyStrategy)

			protected.POST("/chat", h.Chat)

			protected.GET("/ai/status", aiHandler.GetAIStatus)
			protected.GET("/ai/usage", aiHandler.GetAIUsage)
		}
	}

	// Запуск сервера
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Сервер запущен на порту %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Остановка сервера...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Ошибка остановки сервера: %v", err)
	}
}
