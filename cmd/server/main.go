package main

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/abhigyan2003/github-repo-ai-agent/docs"
	"github.com/abhigyan2003/github-repo-ai-agent/internal/analysis"
	"github.com/abhigyan2003/github-repo-ai-agent/internal/cache"
	"github.com/abhigyan2003/github-repo-ai-agent/internal/config"
	apperrors "github.com/abhigyan2003/github-repo-ai-agent/internal/errors"
	"github.com/abhigyan2003/github-repo-ai-agent/internal/frontend"
	"github.com/abhigyan2003/github-repo-ai-agent/internal/github"
	"github.com/abhigyan2003/github-repo-ai-agent/internal/middleware"
	"github.com/abhigyan2003/github-repo-ai-agent/internal/monitoring"
	"github.com/abhigyan2003/github-repo-ai-agent/internal/ratelimit"
	"github.com/abhigyan2003/github-repo-ai-agent/internal/security"
)

// analyzeTimeout bounds a single pipeline run, covering all six GitHub
// fetches for one repository.
const analyzeTimeout = 30 * time.Second

// serverVersion is reported by /health.
const serverVersion = "1.0.0"

// AnalyzeResponse is the JSON body returned by GET /analyze. Score is the
// overall 0-10 rating derived from the four normalized sub-scores.
type AnalyzeResponse struct {
	Owner           string           `json:"owner"`
	Repo            string           `json:"repo"`
	Score           float64          `json:"score"`
	ReadmeQuality   float64          `json:"readme_quality"`
	HealthScore     float64          `json:"health_score"`
	ActivityScore   float64          `json:"activity_score"`
	EngagementScore float64          `json:"engagement_score"`
	Level           string           `json:"level"`
	Recommendations []string         `json:"recommendations"`
	Details         analysis.Details `json:"details"`
}

// ErrorResponse documents the error body produced by the error middleware.
type ErrorResponse struct {
	Error     string `json:"error"`
	Category  string `json:"category"`
	RequestID string `json:"request_id,omitempty"`
}

// @title GitHub Repo Analyzer API
// @version 1.0
// @description Scores public GitHub repositories for onboarding difficulty and suggests next steps.
// @BasePath /
func main() {
	// Structured logging setup
	appLogger := monitoring.NewLogger()
	slog.SetDefault(appLogger.Logger)

	// Configuration from defaults, optional YAML file and environment
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	appLogger.SetLevel(cfg.SlogLevel())
	slog.Info("Configuration loaded",
		"addr", cfg.Addr(),
		"github_api", cfg.GitHub.APIURL,
		"cache_ttl", cfg.CacheTTL.String(),
		"rate_limit_per_min", cfg.RateLimitPerMin,
	)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize monitoring system
	appMetrics := monitoring.NewMetrics()

	// GitHub client and analysis pipeline
	ghClient := github.NewClientWithBase(cfg.GitHub.Token, cfg.GitHub.APIURL)
	ghClient.SetMetrics(appMetrics)
	runner := analysis.NewRunner(ghClient)

	// Response cache for repeated analyses of the same repository
	responseCache := cache.NewCache(cfg.CacheTTL)

	// Rate limiting: Redis-backed when configured, in-memory otherwise
	redisClient := ratelimit.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	limiterConfig := ratelimit.DefaultConfig()
	limiterConfig.IPLimitPerMin = cfg.RateLimitPerMin
	limiter := ratelimit.NewRateLimiter(redisClient, limiterConfig, appMetrics)

	// Initialize compression middleware
	compressionMiddleware := middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig())

	// Embedded web page, preprocessed for CSP nonce injection
	indexTemplate, err := frontend.LoadIndexTemplate()
	if err != nil {
		slog.Error("Failed to load index template", "error", err)
		os.Exit(1)
	}

	// Reload the log level when the config file changes on disk
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		go func() {
			err := config.Watch(watchCtx, path, func(next *config.Config) {
				appLogger.SetLevel(next.SlogLevel())
				slog.Info("Log level reloaded", "level", next.LogLevel)
			})
			if err != nil {
				slog.Warn("Config watcher stopped", "error", err)
			}
		}()
	}

	r := gin.New()

	// Middleware chain: compression first so every response passes through
	// it, then request identity, metrics, error handling, security and the
	// traffic controls
	r.Use(compressionMiddleware.Handler())
	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(appMetrics, appLogger))
	r.Use(apperrors.ErrorHandler())
	r.Use(apperrors.RecoveryHandler())
	r.Use(security.SecurityHeadersMiddleware())
	r.Use(security.CSPMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", monitoring.RequestIDHeader}
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(limiter.IPRateLimitMiddleware())
	r.Use(responseCache.Middleware(appMetrics))

	// Routes
	r.GET("/", frontend.NewPageHandler(indexTemplate))
	r.GET("/analyze",
		limiter.EndpointRateLimitMiddleware("/analyze", cfg.RateLimitPerMin),
		analyzeHandler(runner, appLogger),
	)
	r.GET("/health", healthHandler())
	r.GET("/metrics", metricsHandler(appMetrics, compressionMiddleware, limiter))
	r.GET("/cache/stats", cacheStatsHandler(responseCache))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stopWatch()
	apperrors.SafeClose(redisClient, "redis client")

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

// analyzeHandler runs the analysis pipeline for one repository URL.
//
// @Summary Analyze a public GitHub repository
// @Description Runs the full analysis pipeline against a public GitHub repository and returns normalized scores, a difficulty level and tiered recommendations.
// @Tags analysis
// @Produce json
// @Param repo query string true "GitHub repository URL"
// @Success 200 {object} AnalyzeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /analyze [get]
func analyzeHandler(runner *analysis.Runner, logger *monitoring.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), analyzeTimeout)
		defer cancel()

		started := time.Now()
		result, err := runner.Analyze(ctx, c.Query("repo"))
		if err != nil {
			appErr := apperrors.ToAppError(err)
			appErr.RequestID = c.GetString("request_id")
			apperrors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, apperrors.ErrorResponse(appErr))
			return
		}

		logger.AnalysisLogger(
			result.Owner+"/"+result.Repo,
			string(result.Level),
			result.ReadmeQuality,
			result.HealthScore,
			result.ActivityScore,
			result.EngagementScore,
			time.Since(started),
		)

		c.JSON(http.StatusOK, newAnalyzeResponse(result))
	}
}

// newAnalyzeResponse flattens a pipeline result into the wire shape,
// attaching the overall 0-10 score.
func newAnalyzeResponse(result *analysis.Result) AnalyzeResponse {
	return AnalyzeResponse{
		Owner:           result.Owner,
		Repo:            result.Repo,
		Score:           overallScore(result),
		ReadmeQuality:   result.ReadmeQuality,
		HealthScore:     result.HealthScore,
		ActivityScore:   result.ActivityScore,
		EngagementScore: result.EngagementScore,
		Level:           string(result.Level),
		Recommendations: result.Recommendations,
		Details:         result.Details,
	}
}

// overallScore blends the four sub-scores into a single 0-10 rating,
// rounded to two decimals. Health and activity carry the most weight;
// README quality the least.
func overallScore(result *analysis.Result) float64 {
	composite := result.ReadmeQuality*0.15 +
		result.HealthScore*0.30 +
		result.ActivityScore*0.30 +
		result.EngagementScore*0.25
	return math.Round(composite*10*100) / 100
}

// healthHandler reports service liveness.
//
// @Summary Service health
// @Description Liveness probe for load balancers and uptime checks.
// @Tags monitoring
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func healthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   serverVersion,
		})
	}
}

// metricsHandler exposes aggregated runtime statistics.
//
// @Summary Runtime metrics
// @Description Aggregated request, cache, compression, rate limit and GitHub API call statistics.
// @Tags monitoring
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /metrics [get]
func metricsHandler(metrics *monitoring.Metrics, compression *middleware.CompressionMiddleware, limiter *ratelimit.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := metrics.GetStats()
		stats["compression"] = compression.GetStats()
		stats["rate_limiter"] = limiter.GetStats()
		c.JSON(http.StatusOK, stats)
	}
}

// cacheStatsHandler exposes response cache statistics.
//
// @Summary Response cache statistics
// @Description Reports response cache size, TTL and cleanup interval.
// @Tags monitoring
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /cache/stats [get]
func cacheStatsHandler(responseCache *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, responseCache.Stats())
	}
}
