package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Tomcat63/FinanceAnalyzer/internal/advisory"
	"github.com/Tomcat63/FinanceAnalyzer/internal/api"
	"github.com/Tomcat63/FinanceAnalyzer/internal/archive"
	"github.com/Tomcat63/FinanceAnalyzer/internal/config"
	infraBQ "github.com/Tomcat63/FinanceAnalyzer/internal/infra/bigquery"
	"github.com/Tomcat63/FinanceAnalyzer/internal/jobs/inmemory"
	"github.com/Tomcat63/FinanceAnalyzer/internal/logger"
	"github.com/Tomcat63/FinanceAnalyzer/internal/session"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		log := logger.New("info")
		log.Fatal().Err(err).Msg("Failed to load .env file")
	}

	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := api.Dependencies{BuildID: cfg.BuildID, AllowedOrigin: cfg.CORSOrigin, Log: log}

	// Advisory backend
	var gen advisory.Generator
	switch cfg.AdvisoryBackend {
	case config.BackendGemini:
		client, err := advisory.NewGeminiClient(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini client")
		}
		gen = advisory.NewGeminiGenerator(client.Models, cfg.GeminiModel)
		deps.Analyzer = advisory.NewAnalyst(client.Models, cfg.GeminiModel)
	case config.BackendHTTP:
		gen = advisory.NewHTTPGenerator(cfg.AdvisoryURL, &http.Client{Timeout: cfg.AdvisoryTimeout})
	default:
		log.Warn().Msg("No advisory backend configured - tips fall back to the generic batch")
	}

	// Sessions
	sessions := session.NewManager(func(log zerolog.Logger) *advisory.Engine {
		return advisory.NewEngine(gen, cfg.AdvisoryTimeout, log)
	}, cfg.SessionTTL, log)
	if err := sessions.StartSweeper(cfg.SessionSweepInterval); err != nil {
		log.Fatal().Err(err).Msg("Failed to start session sweeper")
	}
	deps.Sessions = sessions

	// Advisory jobs
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.QueueSize, cfg.WorkerCount, jobStore, log)
	deps.Publisher = jobQueue
	deps.JobStore = jobStore
	sessions.OnEnd(func(id string) {
		if n := jobStore.DeleteSession(id); n > 0 {
			log.Debug().Str("session_id", id).Int("jobs", n).Msg("Dropped advisory jobs of ended session")
		}
	})

	// Optional upstream import
	if cfg.ImportEnabled() {
		source, err := infraBQ.NewTransactionSource(ctx, cfg.GCPProject, cfg.BQDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery transaction source")
		}
		defer source.Close()
		deps.Source = source
	} else {
		log.Warn().Msg("No BigQuery dataset configured - transaction import will be disabled")
	}

	// Optional report archive
	if cfg.ArchiveEnabled() {
		client, err := storage.NewClient(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS client")
		}
		defer client.Close()
		deps.Archiver = archive.NewGCSArchive(client, cfg.ReportBucket, "reports")
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return jobQueue.Start(gctx, sessions.AdvisoryJobHandler())
	})

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("build", cfg.BuildID).Str("advisory", cfg.AdvisoryBackend).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		if err := jobQueue.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error stopping job queue")
		}
		if err := sessions.StopSweeper(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error stopping session sweeper")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
	log.Info().Msg("Server exited")
}
