package main

import (
	"context"
	"flag"
	"time"

	"github.com/Tomcat63/FinanceAnalyzer/internal/config"
	infraBQ "github.com/Tomcat63/FinanceAnalyzer/internal/infra/bigquery"
	"github.com/Tomcat63/FinanceAnalyzer/internal/logger"
)

// migrate prepares the BigQuery dataset read by the transaction import.
func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		log := logger.New("info")
		log.Fatal().Err(err).Msg("Failed to load .env file")
	}
	cfg := config.Load()

	var (
		projectID = flag.String("project", cfg.GCPProject, "GCP project ID (or set GCP_PROJECT)")
		datasetID = flag.String("dataset", cfg.BQDataset, "BigQuery dataset ID (or set BQ_DATASET)")
		location  = flag.String("location", "EU", "Dataset location used when the dataset is created")
	)
	flag.Parse()

	log := logger.New(cfg.LogLevel)

	if *projectID == "" || *datasetID == "" {
		log.Fatal().Msg("Error: -project and -dataset are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	source, err := infraBQ.NewTransactionSource(ctx, *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer source.Close()

	log.Info().Str("project", *projectID).Str("dataset", *datasetID).Msg("Connected to BigQuery")

	created, err := source.EnsureTransactionsTable(ctx, *location)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare transactions table")
	}

	if created {
		log.Info().Msg("Created transactions table")
	} else {
		log.Info().Msg("Transactions table already exists. Nothing to do.")
	}
}
