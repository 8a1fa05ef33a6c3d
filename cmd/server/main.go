package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/sellotec/backend/config"
	"github.com/sellotec/backend/internal/auth"
	"github.com/sellotec/backend/internal/authz"
	"github.com/sellotec/backend/internal/cache"
	"github.com/sellotec/backend/internal/database"
	"github.com/sellotec/backend/internal/gate"
	"github.com/sellotec/backend/internal/handlers"
	"github.com/sellotec/backend/internal/middleware"
	"github.com/sellotec/backend/internal/moderation"
	"github.com/sellotec/backend/internal/repository"
	"github.com/sellotec/backend/internal/websocket"
	"github.com/sellotec/backend/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.Env != "production"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zlog := logger.Log

	// Connect to database
	db, err := database.NewPostgresDB(cfg.GetDSN())
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	zlog.Info("running database migrations")
	if err := database.RunMigrations(db.DB); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}
	zlog.Info("migrations completed")

	// Connect to Redis. The gate publishes every accept and block through
	// it, so unlike a cache it is not optional.
	redis, err := cache.NewRedisClient(cfg.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		zlog.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()

	// Initialize services
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	pairRepo := repository.NewPairRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	flagRepo := repository.NewFlagRepository(db)
	violationRepo := repository.NewViolationRepository(db)

	// The gate sits in front of every message write; moderation actions
	// undo what the gate did.
	msgGate := gate.NewGate(userRepo, pairRepo, msgRepo, violationRepo, redis, zlog)
	modActions := moderation.NewActions(userRepo, pairRepo, msgRepo, flagRepo, redis, zlog)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userRepo, jwtService)
	msgHandler := handlers.NewMessageHandler(msgGate, msgRepo, pairRepo, redis)
	modHandler := handlers.NewModerationHandler(flagRepo, modActions)
	userHandler := handlers.NewUserHandler(userRepo, redis, zlog)

	// Initialize WebSocket hub
	hub := websocket.NewHub(redis, zlog)
	go hub.Run()
	wsHandler := websocket.NewHandler(hub, jwtService, msgGate, msgRepo, redis, zlog, cfg.CORS.AllowedOrigins)

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(cfg.API.RateLimitMessagesPerSec)
	rateLimiter.Cleanup()

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public routes
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// WebSocket endpoint
	router.GET("/ws", wsHandler.HandleWebSocket)

	// Protected routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtService))
	{
		// User routes
		api.GET("/me", authHandler.GetMe)
		api.GET("/me/blocked", authHandler.GetBlockedNotice)
		api.GET("/me/capabilities", authHandler.GetCapabilities)

		// Message routes
		api.GET("/messages", msgHandler.GetConversation)
		api.POST("/messages", middleware.RateLimitMiddleware(rateLimiter), msgHandler.SendMessage)
		api.GET("/messages/unread", msgHandler.GetUnreadCounts)
		api.GET("/conversations/:peer_id/status", msgHandler.GetConversationStatus)
		api.PUT("/conversations/:peer_id/read", msgHandler.MarkConversationRead)

		// WebSocket info
		api.GET("/online-users", wsHandler.GetOnlineUsers)

		// Moderation routes
		mod := api.Group("/moderation")
		mod.Use(middleware.RequireCapability(authz.CapModerationReview))
		{
			mod.GET("/flags", modHandler.ListFlags)
			mod.GET("/flags/:id", modHandler.GetFlag)
			mod.GET("/summary", modHandler.GetSummary)
			mod.POST("/flags/:id/action", modHandler.ApplyAction)
		}

		// Admin user management
		admin := api.Group("/users")
		admin.Use(middleware.RequireCapability(authz.CapUsersManage))
		{
			admin.GET("", userHandler.ListUsers)
			admin.POST("/:id/block", userHandler.BlockUser)
			admin.DELETE("/:id/block", userHandler.UnblockUser)
		}
	}

	// Start server
	addr := ":" + cfg.Server.Port
	zlog.Info("starting server", zap.String("addr", addr), zap.String("env", cfg.Server.Env))
	if err := router.Run(addr); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}
