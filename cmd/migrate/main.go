// Command migrate manages the ledger schema: versioned SQL files for BigQuery
// and gorm AutoMigrate for postgres and mysql.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/tally-ledger/internal/app"
	"github.com/dvloznov/tally-ledger/internal/config"
	"github.com/dvloznov/tally-ledger/internal/infra/sqlstore"
	"github.com/dvloznov/tally-ledger/internal/logger"
	"github.com/dvloznov/tally-ledger/migrations"
	"github.com/urfave/cli"
)

func main() {
	log := logger.New()
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}

func newApp() *cli.App {
	cmdApp := cli.NewApp()
	cmdApp.Name = "migrate"
	cmdApp.Usage = "create or update the ledger schema"
	cmdApp.Commands = []cli.Command{
		{
			Name:  "bigquery",
			Usage: "apply pending migrations/bigquery/NNNN_*.sql files",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "project", EnvVar: "GCP_PROJECT_ID", Usage: "GCP project ID (required)"},
				cli.StringFlag{Name: "dataset", EnvVar: "BQ_DATASET", Value: "ledger", Usage: "BigQuery dataset ID"},
				cli.StringFlag{Name: "applied-by", Value: "migrate-cli", Usage: "name recorded in schema_migrations"},
				cli.StringFlag{Name: "dir", Usage: "read migrations from this directory instead of the embedded set"},
				cli.BoolFlag{Name: "dry-run", Usage: "list pending migrations without applying them"},
			},
			Action: runBigQuery,
		},
		{
			Name:  "sql",
			Usage: "run gorm AutoMigrate against the postgres or mysql store from the environment",
			Action: func(c *cli.Context) error {
				return runSQL(context.Background())
			},
		},
	}
	return cmdApp
}

func runBigQuery(c *cli.Context) error {
	projectID := c.String("project")
	if projectID == "" {
		return fmt.Errorf("runBigQuery: -project (or GCP_PROJECT_ID) is required")
	}
	datasetID := c.String("dataset")

	log := logger.New().With().Str("project", projectID).Str("dataset", datasetID).Logger()
	ctx := logger.WithContext(context.Background(), log)

	var fsys fs.FS = migrations.BigQuery
	dir := "bigquery"
	if override := c.String("dir"); override != "" {
		fsys, dir = os.DirFS(override), "."
	}

	all, err := readMigrations(fsys, dir, projectID, datasetID, log)
	if err != nil {
		return err
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("runBigQuery: create client: %w", err)
	}
	defer client.Close()

	m := &bqMigrator{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		appliedBy: c.String("applied-by"),
		log:       log,
	}
	return m.run(ctx, all, c.Bool("dry-run"))
}

func runSQL(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Store != config.StorePostgres && cfg.Store != config.StoreMySQL {
		return fmt.Errorf("runSQL: LEDGER_STORE must be postgres or mysql, got %q", cfg.Store)
	}

	db, err := sqlstore.Open(app.SQLConfig(cfg))
	if err != nil {
		return err
	}
	defer sqlstore.New(db).Close()

	if err := sqlstore.Migrate(ctx, db); err != nil {
		return err
	}
	log := logger.New()
	log.Info().Str("store", cfg.Store).Str("database", cfg.DBName).Msg("Database migrated successfully")
	return nil
}
