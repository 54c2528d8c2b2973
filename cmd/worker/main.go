package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/notsoai/dashboard/internal/ai"
	"github.com/notsoai/dashboard/internal/analysis"
	"github.com/notsoai/dashboard/internal/config"
	"github.com/notsoai/dashboard/internal/db"
	"github.com/notsoai/dashboard/internal/logging"
	"github.com/notsoai/dashboard/internal/store"
	"github.com/notsoai/dashboard/internal/store/rabbitmq"
	"github.com/notsoai/dashboard/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if cfg.DB.Driver == "mock" {
		logging.Fatal().Msg("worker needs a real database; DB_DRIVER=mock is server-only")
	}
	gdb, err := db.Connect(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		logging.Fatal().Err(err).Msg("db connect")
	}
	repo := store.NewRepo(gdb)

	reg := ai.NewDefaultRegistry(ai.Settings{
		OllamaBaseURL:     cfg.AI.OllamaBaseURL,
		OllamaModel:       cfg.AI.OllamaModel,
		OpenRouterBaseURL: cfg.AI.OpenRouterBaseURL,
		OpenRouterAPIKey:  cfg.AI.OpenRouterAPIKey,
		OpenRouterModel:   cfg.AI.OpenRouterModel,
		OpenRouterSiteURL: cfg.AI.OpenRouterSiteURL,
		OpenRouterAppName: cfg.AI.OpenRouterAppName,
	})
	svc := analysis.NewService(repo, nil, reg, cfg.AI.Provider, "")

	concurrency := cfg.WorkerConcurrency()
	consumer, err := rabbitmq.NewConsumer(cfg.Rabbit.URL, cfg.Rabbit.Queue, concurrency)
	if err != nil {
		logging.Fatal().Err(err).Msg("rabbit consumer")
	}
	defer consumer.Close()
	handler := worker.NewHandler(svc, consumer.Retrier(), cfg.Worker.JobTimeout)

	msgs, err := consumer.Deliveries()
	if err != nil {
		logging.Fatal().Err(err).Msg("consume")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().
		Str("queue", cfg.Rabbit.Queue).
		Int("concurrency", concurrency).
		Str("provider", cfg.AI.Provider).
		Msg("worker started")

	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				handler.Handle(ctx, workerID, d)
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				logging.Warn().Msg("delivery channel closed")
				close(jobs)
				wg.Wait()
				return
			}
			jobs <- d
		}
	}
}
