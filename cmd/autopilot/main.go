package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AnswerPath/social-autopilot-sub000/api"
	"github.com/AnswerPath/social-autopilot-sub000/pkg/breaker"
	"github.com/AnswerPath/social-autopilot-sub000/pkg/config"
	"github.com/AnswerPath/social-autopilot-sub000/pkg/httpserver"
	"github.com/AnswerPath/social-autopilot-sub000/pkg/logger"
	"github.com/AnswerPath/social-autopilot-sub000/pkg/pg"
	"github.com/AnswerPath/social-autopilot-sub000/pkg/ratelimit"
	"github.com/AnswerPath/social-autopilot-sub000/publisher"
	"github.com/AnswerPath/social-autopilot-sub000/queue"
	"github.com/AnswerPath/social-autopilot-sub000/scheduler"
	"github.com/AnswerPath/social-autopilot-sub000/storage/postgres"
)

type appConfig struct {
	SweepSchedule string `env:"SWEEP_SCHEDULE" envDefault:"@every 30s"`

	HTTP   httpserver.Config
	Logger logger.Config
	PG     pg.Config
	Poster publisher.HTTPConfig
}

func main() {
	if err := run(); err != nil {
		slog.Error("autopilot exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log, err := logger.New(cfg.Logger, logger.WithService("autopilot"))
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := postgres.NewStore(pool)
	if err := store.Migrate(ctx, log); err != nil {
		return err
	}

	breakers := breaker.NewRegistry()
	cb, err := breakers.GetOrCreate("poster")
	if err != nil {
		return err
	}

	poster := publisher.NewResilient(publisher.NewHTTPPoster(cfg.Poster), cb)

	processor, err := queue.NewProcessor(store, poster, queue.WithLogger(log))
	if err != nil {
		return err
	}

	svc, err := scheduler.New(store, scheduler.WithLogger(log))
	if err != nil {
		return err
	}

	limiter := ratelimit.New(ratelimit.GeneralConfig())
	defer limiter.Close()

	handler := api.NewHandler(svc, processor,
		api.WithRateLimiter(limiter),
		api.WithHealthcheck(pg.Healthcheck(pool)),
		api.WithLogger(log),
	)

	sweeper := cron.New()
	_, err = sweeper.AddFunc(cfg.SweepSchedule, func() {
		sweepCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()

		if _, err := processor.ProcessQueue(sweepCtx); err != nil {
			log.ErrorContext(sweepCtx, "queue sweep failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return err
	}
	sweeper.Start()
	defer func() { <-sweeper.Stop().Done() }()

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))

	log.InfoContext(ctx, "autopilot starting", slog.String("addr", cfg.HTTP.Addr))
	if err := srv.Run(ctx, handler.Router()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
