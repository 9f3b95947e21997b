package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/tally-ledger/internal/app"
	"github.com/dvloznov/tally-ledger/internal/config"
	"github.com/dvloznov/tally-ledger/internal/jobs"
	"github.com/dvloznov/tally-ledger/internal/jobs/inmemory"
	"github.com/dvloznov/tally-ledger/internal/logger"
)

// The worker recalculates the outstanding amounts of every registered partner
// for one year, running partners concurrently, and exits when all are done.
func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}

	year := flag.Int("year", time.Now().Year(), "Year to reconcile")
	workers := flag.Int("workers", 5, "Number of concurrent partners")
	timeout := flag.Duration("timeout", 30*time.Minute, "Overall deadline")
	flag.Parse()

	log, err := logger.NewFromConfig(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Invalid logging configuration")
	}

	ctx, cancel := context.WithTimeout(logger.WithContext(context.Background(), log), *timeout)
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			log.Info().Msg("Interrupted, stopping...")
			cancel()
		case <-ctx.Done():
		}
	}()

	l, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store).Msg("Failed to open ledger store")
	}
	defer l.Close()

	partners, err := l.Partners.ListPartners(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list partners")
	}

	partners, ambiguous := splitAmbiguous(partners)
	for _, p := range ambiguous {
		log.Error().
			Str("partner_id", p.ID).
			Str("partner", p.Name).
			Msg("Skipping partner whose name is shared with another partner")
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(len(partners)+1, jobStore,
		inmemory.WithWorkers(*workers),
		inmemory.WithRetryable(jobs.Retryable),
	)
	defer jobQueue.Close()

	if err := jobQueue.Start(ctx, jobs.ReconcileHandler(l.Service)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Int("year", *year).Int("partners", len(partners)).Msg("Reconciling partners")

	for _, p := range partners {
		if err := jobQueue.PublishReconcile(ctx, &jobs.ReconcileJob{Partner: p.Name, Year: *year}); err != nil {
			log.Fatal().Err(err).Str("partner", p.Name).Msg("Failed to enqueue reconcile job")
		}
	}

	if err := jobQueue.Wait(ctx); err != nil {
		log.Fatal().Err(err).Msg("Reconciliation did not finish")
	}

	all, err := jobStore.ListJobs(ctx, jobs.JobFilter{Year: *year})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read job results")
	}

	failed := 0
	for _, job := range all {
		if job.Status == jobs.JobStatusFailed {
			failed++
			log.Error().Str("partner", job.Partner).Str("error", job.Error).Msg("Reconciliation failed")
		}
	}

	log.Info().
		Int("year", *year).
		Int("succeeded", len(all)-failed).
		Int("skipped", len(ambiguous)).
		Int("failed", failed).
		Msg("Reconciliation finished")

	if failed > 0 || len(ambiguous) > 0 {
		os.Exit(1)
	}
}
