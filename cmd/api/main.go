package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/tally-ledger/internal/api/handlers"
	"github.com/dvloznov/tally-ledger/internal/app"
	"github.com/dvloznov/tally-ledger/internal/config"
	"github.com/dvloznov/tally-ledger/internal/jobs"
	"github.com/dvloznov/tally-ledger/internal/jobs/inmemory"
	"github.com/dvloznov/tally-ledger/internal/ledger"
	"github.com/dvloznov/tally-ledger/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}

	port := flag.String("port", cfg.Port, "HTTP server port (or set PORT env)")
	workers := flag.Int("workers", 5, "Number of reconcile workers")
	flag.Parse()

	log, err := logger.NewFromConfig(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Invalid logging configuration")
	}

	ctx := logger.WithContext(context.Background(), log)

	l, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store).Msg("Failed to open ledger store")
	}
	defer l.Close()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore,
		inmemory.WithWorkers(*workers),
		inmemory.WithRetryable(jobs.Retryable),
	)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, jobs.ReconcileHandler(l.Service)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start reconcile workers")
	}

	dispatcher := ledger.NewDispatcher(l.Service, time.Now)
	router := handlers.NewRouter(
		handlers.NewLedgerHandler(dispatcher),
		handlers.NewJobsHandler(jobQueue, jobStore, time.Now),
		handlers.NewFunctionsHandler(dispatcher),
		log,
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Str("store", cfg.Store).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let in-flight reconciliations finish before the store closes.
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
