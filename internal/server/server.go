package server

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/supercur/supercur-api/internal/auth"
	"github.com/supercur/supercur-api/internal/client/completion"
	"github.com/supercur/supercur-api/internal/client/github"
	"github.com/supercur/supercur-api/internal/db"
	"github.com/supercur/supercur-api/internal/handlers"
	"github.com/supercur/supercur-api/internal/keycache"
	"github.com/supercur/supercur-api/internal/logger"
	"github.com/supercur/supercur-api/internal/middleware"
	"github.com/supercur/supercur-api/internal/services"
)

// Handler definitions
var (
	apiKeyHandler  *handlers.APIKeyHandler
	summaryHandler *handlers.SummaryHandler
	chatHandler    *handlers.ChatHandler
	healthHandler  *handlers.HealthHandler

	// Database
	dbQueries *db.Queries
	dbPool    *pgxpool.Pool

	// Clients
	authClient       *auth.AuthClient
	completionClient completion.Client

	// Services
	commonServices *handlers.CommonServices

	rateLimiter *middleware.RateLimiter
)

// InitializeHandlers wires configuration, clients, services and
// handlers. It is called once before InitializeRoutes.
func InitializeHandlers() {
	// Load environment variables from .env file for local development
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	stage := os.Getenv("STAGE")
	if stage == "" {
		stage = logger.StageLocal
		log.Printf("Warning: STAGE environment variable not set, defaulting to '%s'", stage)
	}
	if !logger.IsValidStage(stage) {
		log.Fatalf("Invalid STAGE environment variable: '%s'. Must be one of: %s, %s, %s",
			stage, logger.StageProd, logger.StageDev, logger.StageLocal)
	}

	logger.InitLogger(stage)
	logger.Info("Initializing handlers for stage", zap.String("stage", stage))

	ctx := context.Background()

	// --- Database Pool ---
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL environment variable is required")
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Fatal("Unable to parse database DSN", zap.Error(err))
	}
	poolConfig.MaxConns = 20
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Minute * 30
	poolConfig.MaxConnIdleTime = time.Minute * 15

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal("Unable to create connection pool", zap.Error(err))
	}
	dbQueries = db.New(dbPool)

	// --- Key identity cache (optional) ---
	var cache *keycache.Cache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Fatal("Unable to parse REDIS_URL", zap.Error(err))
		}
		cache = keycache.New(redis.NewClient(opts))
		logger.Info("Key identity cache enabled")
	} else {
		logger.Warn("REDIS_URL not set, key identity cache disabled")
	}

	// --- Auth Client ---
	authClient = auth.NewAuthClient()

	// --- GitHub Client ---
	var githubOpts []github.Option
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		githubOpts = append(githubOpts, github.WithToken(token))
	} else {
		logger.Warn("GITHUB_TOKEN not set, GitHub requests are unauthenticated and rate-limited to 60/hour")
	}
	githubClient := github.NewClient(githubOpts...)

	// --- Completion Client ---
	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		logger.Fatal("GEMINI_API_KEY environment variable is required")
	}
	completionClient, err = completion.NewGeminiClient(ctx, geminiAPIKey, os.Getenv("GEMINI_MODEL"))
	if err != nil {
		logger.Fatal("Unable to create completion client", zap.Error(err))
	}

	// --- Services ---
	apiKeyService := services.NewAPIKeyService(dbQueries, cache)
	summaryService := services.NewSummaryService(githubClient, completionClient)

	commonServices = handlers.NewCommonServices(apiKeyService, summaryService)

	// --- Handlers ---
	apiKeyHandler = handlers.NewAPIKeyHandler(commonServices)
	summaryHandler = handlers.NewSummaryHandler(commonServices)
	chatHandler = handlers.NewChatHandler(completionClient)
	healthHandler = handlers.NewHealthHandler()

	rateLimiter = middleware.NewRateLimiter(10, 20)
}

// InitializeRoutes mounts the middleware chain and the API routes.
func InitializeRoutes(router *gin.Engine) {
	router.Use(configureCORS())
	router.Use(middleware.CorrelationID())
	router.Use(rateLimiter.Middleware())
	router.Use(middleware.LogRequest())

	router.GET("/health", healthHandler.CheckHealth)

	// Dashboard routes, session auth only
	apiKeys := router.Group("/api-keys")
	apiKeys.Use(authClient.EnsureValidSession())
	{
		apiKeys.GET("", apiKeyHandler.ListAPIKeys)
		apiKeys.POST("", apiKeyHandler.CreateAPIKey)
		apiKeys.PUT("/:api_key_id", apiKeyHandler.UpdateAPIKey)
		apiKeys.DELETE("/:api_key_id", apiKeyHandler.DeleteAPIKey)
	}

	// Validation accepts a session or an API key as the caller
	router.POST("/api-keys/validate",
		authClient.EnsureSessionOrAPIKey(commonServices.APIKeyService),
		apiKeyHandler.ValidateAPIKey)

	// Summarize is gated on the API key it bills against
	router.POST("/repo-summary", summaryHandler.Summarize)

	// Dashboard playground, session auth, unmetered
	router.POST("/chat", authClient.EnsureValidSession(), chatHandler.Chat)
}

// Shutdown releases the database pool.
func Shutdown() {
	if dbPool != nil {
		dbPool.Close()
	}
}

// configureCORS returns a configured CORS middleware.
func configureCORS() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv == "" {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		origins := strings.Split(originsEnv, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		corsConfig.AllowOrigins = origins
	}

	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key", "X-Correlation-ID"}
	corsConfig.ExposeHeaders = []string{
		"X-RateLimit-Limit",
		"X-RateLimit-Remaining",
		"Retry-After",
		"X-Correlation-ID",
	}
	corsConfig.AllowCredentials = os.Getenv("CORS_ALLOW_CREDENTIALS") == "true"

	return cors.New(corsConfig)
}
