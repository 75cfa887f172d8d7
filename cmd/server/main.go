// cmd/server/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ThisIsJeron/fluffyduck-sub000/internal/ai"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/cache"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/config"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/controller"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/db"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/dispatch"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/handler"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/middleware"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/observability"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/queue"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/repository"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/scheduler"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/service"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/storage"
)

func setupDB(cfg *config.Config) *sql.DB {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.Migrate(ctx, conn); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	return conn
}

// setupVariants uses Redis when REDIS_URL is set and process memory
// otherwise.
func setupVariants(cfg *config.Config, clock clockwork.Clock) (cache.VariantStore, func()) {
	if cfg.RedisURL == "" {
		log.Warn().Msg("REDIS_URL not set, keeping generated variants in memory")
		return cache.NewMemoryVariantStore(clock, cfg.VariantTTL), func() {}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	return cache.NewRedisVariantStore(rdb, cfg.VariantTTL), func() { _ = rdb.Close() }
}

// setupQueue returns RabbitMQ when AMQP_URL is set; dispatches are then
// processed by cmd/worker. Without it the server processes them in-process.
func setupQueue(cfg *config.Config, worker *service.Worker) queue.Queue {
	if cfg.AMQPURL != "" {
		q, err := queue.DialAMQP(cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		log.Info().Msg("publishing dispatches to RabbitMQ")
		return q
	}

	q := queue.NewInMemoryQueue()
	if err := queue.StartDispatchSubscriber(q, worker); err != nil {
		log.Fatal().Err(err).Msg("failed to start dispatch subscriber")
	}
	log.Info().Msg("processing dispatches in-process")
	return q
}

func setupSender(cfg *config.Config) dispatch.Sender {
	sender, err := dispatch.NewSender(dispatch.Settings{
		Driver:        cfg.DispatchDriver,
		PicaSecretKey: cfg.PicaSecretKey,
		PicaEndpoint:  cfg.PicaEndpoint,
		SMTP: dispatch.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure dispatch sender")
	}
	return sender
}

func setupStore(cfg *config.Config) storage.ObjectStore {
	if cfg.StorageDriver == "supabase" {
		return storage.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.StorageBucket)
	}
	if err := os.MkdirAll(cfg.LocalStorageDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("failed to create local storage dir")
	}
	return storage.NewLocalStore(cfg.LocalStorageDir, cfg.PublicBaseURL)
}

// setupAI falls back to template captions, no moderation and reference
// images when provider keys are missing.
func setupAI(cfg *config.Config) (ai.CaptionGenerator, ai.Moderator, ai.ImageGenerator) {
	var (
		captions  ai.CaptionGenerator = ai.TemplateCaptioner{}
		moderator ai.Moderator        = ai.PassModerator{}
		images    ai.ImageGenerator   = ai.StaticImageGenerator{}
	)
	if cfg.OpenAIAPIKey != "" {
		openAICfg := ai.OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			MaxRetries: cfg.OpenAIMaxRetries,
		}
		captions = ai.NewOpenAICaptioner(openAICfg)
		moderator = ai.NewOpenAIModerator(openAICfg)
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, using template captions without moderation")
	}
	if cfg.FalKey != "" {
		images = ai.NewFalImageGenerator(cfg.FalKey, cfg.FalEndpoint, nil)
	} else {
		log.Warn().Msg("FAL_KEY not set, variants reuse the reference image")
	}
	return captions, moderator, images
}

func newRouter(cfg *config.Config, logger zerolog.Logger, conn *sql.DB, clock clockwork.Clock,
	campaigns *controller.CampaignController, generation *controller.GenerationController,
	media *controller.MediaController, views *handler.CampaignHandler) http.Handler {

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", handler.HealthHandler(conn))
	r.Handle("/metrics", promhttp.Handler())
	if cfg.StorageDriver == "local" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.LocalStorageDir))))
	}

	limiter := middleware.NewRateLimiter(cfg.GenerateRatePerMinute, clock)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth([]byte(cfg.JWTSecret)))

		// Campaign routes
		r.Post("/campaigns", campaigns.CreateCampaign)
		r.Get("/campaigns", campaigns.ListCampaigns)
		r.Get("/campaigns/{id}", views.GetCampaignHandlerWithStats)
		r.Patch("/campaigns/{id}", campaigns.UpdateCampaign)
		r.Delete("/campaigns/{id}", campaigns.DeleteCampaign)
		r.Post("/campaigns/{id}/execute", campaigns.ExecuteCampaign)
		r.Get("/campaigns/{id}/dispatches", campaigns.ListDispatches)
		r.Put("/campaigns/{id}/metrics", campaigns.RecordMetrics)
		r.Get("/campaigns/{id}/analytics", campaigns.Analytics)
		r.Get("/campaigns/{id}/suggested-time", campaigns.SuggestedTime)

		// Generation
		r.With(limiter.Middleware).Post("/campaigns/{id}/generate", generation.Generate)
		r.Get("/campaigns/{id}/variants", generation.GetVariants)
		r.Post("/campaigns/{id}/variants/{variantID}/select", generation.SelectVariant)

		// Media library
		r.Post("/media", media.Upload)
		r.Get("/media", media.List)
		r.Delete("/media/{id}", media.Delete)

		r.Get("/dashboard", views.DashboardHandler)
		r.Get("/calendar", views.CalendarHandler)
	})
	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger := observability.InitLogger("fluffyduck-server", cfg.LogLevel, cfg.LogFormat)
	observability.RegisterMetrics()
	logger.Info().Str("env", cfg.AppEnv).Str("port", cfg.Port).Msg("starting server")

	clock := clockwork.NewRealClock()
	conn := setupDB(cfg)
	defer conn.Close()

	campaignRepo := &repository.CampaignRepository{DB: conn}
	dispatchRepo := &repository.DispatchRepository{DB: conn}
	metricsRepo := &repository.MetricsRepository{DB: conn}
	mediaRepo := &repository.MediaRepository{DB: conn}

	variants, closeVariants := setupVariants(cfg, clock)
	defer closeVariants()

	worker := service.NewWorker(dispatchRepo, campaignRepo, setupSender(cfg))
	q := setupQueue(cfg, worker)

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		DispatchRepo: dispatchRepo,
		MetricsRepo:  metricsRepo,
		Queue:        q,
		Clock:        clock,
		Recipient:    cfg.DispatchRecipient,
	}
	captions, moderator, images := setupAI(cfg)
	generationService := &service.GenerationService{
		CampaignRepo: campaignRepo,
		MediaRepo:    mediaRepo,
		Variants:     variants,
		Images:       images,
		Captions:     captions,
		Moderator:    moderator,
		Clock:        clock,
	}
	mediaService := &service.MediaService{
		MediaRepo: mediaRepo,
		Store:     setupStore(cfg),
		MaxBytes:  cfg.MaxUploadBytes,
	}

	router := newRouter(cfg, logger, conn, clock,
		&controller.CampaignController{CampaignService: campaignService},
		&controller.GenerationController{GenerationService: generationService},
		&controller.MediaController{MediaService: mediaService},
		handler.NewCampaignHandler(campaignService),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	sched := scheduler.New(campaignRepo, campaignService, clock, cfg.SchedulerInterval)
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Run(ctx)
	}()

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	<-schedDone
	if err := q.Close(); err != nil {
		logger.Error().Err(err).Msg("queue close error")
	}
	logger.Info().Msg("server stopped")
}
