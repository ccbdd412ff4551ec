package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vetchat/chatbot-server-go/internal/config"
	"github.com/vetchat/chatbot-server-go/internal/database"
	"github.com/vetchat/chatbot-server-go/internal/dialogue"
	"github.com/vetchat/chatbot-server-go/internal/events"
	"github.com/vetchat/chatbot-server-go/internal/handler"
	"github.com/vetchat/chatbot-server-go/internal/jobs"
	"github.com/vetchat/chatbot-server-go/internal/llm"
	"github.com/vetchat/chatbot-server-go/internal/middleware"
	"github.com/vetchat/chatbot-server-go/internal/redis"
	"github.com/vetchat/chatbot-server-go/internal/repository"
	"github.com/vetchat/chatbot-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.DefaultContextLogger = &log.Logger

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisCtx, redisCancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	redisClient, err := redis.NewClient(redisCtx, cfg.RedisURL)
	redisCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NatsURL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NatsURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to nats")
		}
		publisher = natsPublisher
		log.Info().Msg("nats connected")
	}
	defer publisher.Close()

	providers := buildProviders(context.Background(), cfg)
	if len(providers) == 0 {
		log.Fatal().Msg("no LLM provider could be initialized")
	}
	gateway := llm.NewGateway(providers, cfg.LLMAttemptTimeout(), llm.NewMetrics(prometheus.DefaultRegisterer))
	log.Info().Strs("providers", gateway.Providers()).Msg("llm gateway ready")

	sessionRepo := repository.NewSessionRepository(db.DB)
	messageRepo := repository.NewMessageRepository(db.DB)
	contextRepo := repository.NewContextRepository(db.DB)
	appointmentRepo := repository.NewAppointmentRepository(db.DB)

	engine := dialogue.NewEngine(gateway)
	locker := redis.NewLocker(redisClient.Client, cfg.ChatLockTTL(), config.ChatLockWait)
	rateLimiter := service.NewRateLimiter(redisClient.Client)

	sessionService := service.NewSessionService(sessionRepo, messageRepo, contextRepo)
	chatService := service.NewChatService(db, sessionRepo, messageRepo, sessionService, engine, locker)
	appointmentService := service.NewAppointmentService(db, appointmentRepo, sessionRepo, messageRepo, contextRepo, publisher)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(config.MaxRequestBodySize)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)
	chatRateLimitMiddleware := middleware.NewIPRateLimitMiddleware(
		rateLimiter, cfg.ChatRateLimitPerMin, config.ChatRateLimitWindow, "chat",
	)

	chatHandler := handler.NewChatHandler(chatService)
	appointmentHandler := handler.NewAppointmentHandler(appointmentService)
	conversationHandler := handler.NewConversationHandler(sessionService)
	healthHandler := handler.NewHealthHandler(db, gateway.Providers())
	staticHandler := handler.NewStaticHandler(cfg.StaticDir)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Use(bodyLimitMiddleware.Handler)

		r.Route("/chat", func(r chi.Router) {
			r.Use(chatRateLimitMiddleware.Handler)
			r.Mount("/", chatHandler.Routes())
		})
		r.Mount("/appointments", appointmentHandler.Routes())
		r.Mount("/conversations", conversationHandler.Routes())
	})

	staticHandler.Register(r)

	sweepJob := jobs.NewSessionSweepJob(sessionService, cfg.SessionIdleAge(), cfg.SessionSweepInterval())
	sweepJob.Start()
	defer sweepJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// buildProviders returns the configured providers in fallback order:
// Gemini, then Groq, then Claude.
func buildProviders(ctx context.Context, cfg *config.Config) []llm.Provider {
	var providers []llm.Provider

	if cfg.GeminiAPIKey != "" {
		p, err := llm.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModels)
		if err != nil {
			log.Error().Err(err).Msg("failed to initialize gemini provider")
		} else {
			providers = append(providers, p)
		}
	}

	if cfg.GroqAPIKey != "" {
		p, err := llm.NewGroqProvider(ctx, cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.GroqModel)
		if err != nil {
			log.Error().Err(err).Msg("failed to initialize groq provider")
		} else {
			providers = append(providers, p)
		}
	}

	if cfg.AnthropicAPIKey != "" {
		p, err := llm.NewClaudeProvider(ctx, cfg.AnthropicAPIKey, cfg.AnthropicModel)
		if err != nil {
			log.Error().Err(err).Msg("failed to initialize claude provider")
		} else {
			providers = append(providers, p)
		}
	}

	return providers
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
