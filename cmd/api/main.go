package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/mkraev/toolmatch/internal/adapters/http"
	"github.com/mkraev/toolmatch/internal/bootstrap"
	"github.com/mkraev/toolmatch/internal/config"
	"github.com/mkraev/toolmatch/internal/observability/logging"
	"github.com/mkraev/toolmatch/internal/observability/metrics"
)

const serviceName = "toolmatch-api"

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

	serverMetrics := metrics.NewHTTPServerMetrics(serviceName)
	router := httpadapter.NewRouter(
		app.Recommender,
		app.Classifier,
		app.CatalogUC,
		app.IngestUC,
		app.Knowledge,
		httpadapter.RouterOptions{
			Service:       serviceName,
			Metrics:       serverMetrics,
			RateLimitRPS:  cfg.APIRateLimitRPS,
			RateBurst:     cfg.APIRateLimitBurst,
			MaxConcurrent: cfg.APIMaxConcurrent,
		},
	).Handler()

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("api listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("api shutdown error: %v", err)
	}
}
