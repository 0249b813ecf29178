package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"CaseSync/internal/adapter"
	_ "CaseSync/internal/adapter/mock"
	_ "CaseSync/internal/adapter/pje"
	"CaseSync/internal/api"
	"CaseSync/internal/config"
	"CaseSync/internal/job"
	"CaseSync/internal/repository"
	"CaseSync/internal/service"
	"CaseSync/internal/utils/logging"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log)
	logger.Info("config loaded")

	db, err := repository.OpenPostgres(&cfg.Database, logger)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		logger.Fatalf("migrate schema: %v", err)
	}
	logger.Info("database ready")

	cases := repository.NewCaseRepository(db)
	logs := repository.NewIngestionLogRepository(db)
	bids := repository.NewBidRepository(db)

	ingest := service.NewIngestionService(adapter.NewSourceRegistry(cfg, logger), cases, logs, &cfg.Ingestion, logger)
	audit := service.NewIngestionAuditService(logs, logger)
	bidding := service.NewBiddingService(bids, cases, &cfg.Bidding, logger)

	scheduler, err := job.StartCronJob(cfg.Ingestion.Cron, ingest, logger)
	if err != nil {
		logger.Fatalf("start scheduler: %v", err)
	}

	router := api.NewRouter(cfg.Server.Mode, api.Handlers{
		Ingest: api.NewIngestHandler(ingest, audit, logger),
		Cases:  api.NewCaseHandler(service.NewCaseService(cases, logger), bidding, logger),
		Bids:   api.NewBidHandler(bidding, logger),
	})
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	<-scheduler.Stop().Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http shutdown")
	}
}
