package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkraev/toolmatch/internal/bootstrap"
	"github.com/mkraev/toolmatch/internal/config"
	"github.com/mkraev/toolmatch/internal/observability/logging"
	"github.com/mkraev/toolmatch/internal/observability/metrics"
)

const serviceName = "toolmatch-worker"

func main() {
	cfg := config.Load()
	logging.Setup(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("worker metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeKnowledgeCreated(ctx, func(handlerCtx context.Context, entryID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		workerMetrics.StartEntry()
		start := time.Now()
		if entry, err := app.Knowledge.GetByID(processCtx, entryID); err == nil {
			workerMetrics.ObserveQueueLag(serviceName, start.Sub(entry.CreatedAt))
		}

		processErr := app.ProcessUC.ProcessByID(processCtx, entryID)
		workerMetrics.FinishEntry(serviceName, time.Since(start), processErr)
		return processErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
