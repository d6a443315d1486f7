package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/todone/todone/internal/cache"
	"github.com/todone/todone/internal/config"
	"github.com/todone/todone/internal/database"
	"github.com/todone/todone/internal/handlers"
	"github.com/todone/todone/internal/logger"
	"github.com/todone/todone/internal/middleware"
	"github.com/todone/todone/internal/queue"
	"github.com/todone/todone/internal/services/ai"
	"github.com/todone/todone/internal/session"
	"github.com/todone/todone/internal/telemetry"
)

// nudgeRefreshDebounce holds refresh jobs back so a burst of task
// mutations collapses into one model call.
const nudgeRefreshDebounce = 5 * time.Second

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("ai_model", cfg.AIModel),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// OpenTelemetry tracing, when enabled
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "todone-server", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized",
					zap.String("endpoint", cfg.OTELEndpoint),
				)
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Postgres
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	// Redis, shared by the rate limiter and the nudge cache
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_parse_redis_url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	pingCancel()
	zapLogger.Info("connected_to_redis")

	nudgeCache := cache.NewNudgeCacheWithClient(redisClient, cache.DefaultNudgeTTL)

	// RabbitMQ, with retries to ride out broker startup delays
	jobQueue, err := connectQueue(cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	// Task repository. Every successful mutation schedules a debounced
	// nudge refresh for the owner.
	taskRepo := database.NewTaskRepository(db)
	taskRepo.SetChangeHandler(func(userID uuid.UUID) {
		job := queue.NewJob(queue.JobTypeNudgeRefresh, userID)
		notBefore := time.Now().Add(nudgeRefreshDebounce)
		job.NotBefore = &notBefore

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := jobQueue.Enqueue(ctx, job); err != nil {
			zapLogger.Error("failed_to_enqueue_nudge_refresh_job",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			return
		}
		zapLogger.Debug("enqueued_nudge_refresh_job",
			zap.String("user_id", userID.String()),
			zap.Duration("debounce_delay", nudgeRefreshDebounce),
		)
	})

	// AI provider
	var aiProvider ai.Provider
	if cfg.OpenAIKey == "" {
		zapLogger.Warn("openai_api_key_not_configured_ai_endpoints_degrade_to_empty")
	} else {
		aiProvider = ai.NewOpenAIProvider(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode)
	}

	// Session token verification
	verifier, err := session.NewVerifier(cfg.SessionJWTSecret)
	if err != nil {
		zapLogger.Fatal("failed_to_create_session_verifier", zap.Error(err))
	}

	// Handlers
	estimateHandler := handlers.NewEstimateHandler(aiProvider, zapLogger)
	suggestHandler := handlers.NewSuggestHandler(aiProvider, nudgeCache, zapLogger)
	healthChecker := handlers.NewHealthChecker(db, jobQueue, nudgeCache)

	// Router and middleware
	r := mux.NewRouter()

	if cfg.OTELEnabled && tracerProvider != nil {
		r.Use(otelmux.Middleware("todone-server"))
		zapLogger.Info("otel_middleware_enabled")
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Public routes
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	// AI routes (authenticated, rate limited: they proxy a paid model)
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(middleware.Auth(verifier))
	apiRouter.Use(rateLimitMW)
	apiRouter.HandleFunc("/estimate", estimateHandler.Estimate).Methods("POST")
	apiRouter.HandleFunc("/suggest", suggestHandler.Suggest).Methods("POST")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(r)

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        corsHandler,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting",
			zap.String("port", cfg.ServerPort),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectQueue dials RabbitMQ with exponential backoff.
func connectQueue(url string, zapLogger *zap.Logger) (queue.JobQueue, error) {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(url)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return jobQueue, nil
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}
	return nil, lastErr
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}
