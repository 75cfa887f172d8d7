package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ThisIsJeron/fluffyduck-sub000/internal/config"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/db"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/dispatch"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/observability"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/queue"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/repository"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/service"
)

// consume processes dispatch jobs from q until ctx is cancelled, then
// closes q and waits for in-flight jobs.
func consume(ctx context.Context, q queue.Queue, p queue.DispatchProcessor) error {
	if err := queue.StartDispatchSubscriber(q, p); err != nil {
		return err
	}
	<-ctx.Done()
	return q.Close()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger := observability.InitLogger("fluffyduck-worker", cfg.LogLevel, cfg.LogFormat)
	if cfg.AMQPURL == "" {
		logger.Fatal().Msg("AMQP_URL is required for the worker")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	conn, err := db.Connect(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()

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
		logger.Fatal().Err(err).Msg("failed to configure dispatch sender")
	}

	worker := service.NewWorker(
		&repository.DispatchRepository{DB: conn},
		&repository.CampaignRepository{DB: conn},
		sender,
	)

	q, err := queue.DialAMQP(cfg.AMQPURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("driver", sender.Name()).Msg("worker running, waiting for dispatches")
	if err := consume(sigCtx, q, worker); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped with error")
	}
	logger.Info().Msg("worker stopped")
}
