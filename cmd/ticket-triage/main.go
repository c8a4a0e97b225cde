package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/m-tereshkin/ticket-triage-service/internal/config"
	"github.com/m-tereshkin/ticket-triage-service/internal/gateway/github"
	"github.com/m-tereshkin/ticket-triage-service/internal/gateway/jira"
	"github.com/m-tereshkin/ticket-triage-service/internal/repository/postgres"
	"github.com/m-tereshkin/ticket-triage-service/internal/router"
	"github.com/m-tereshkin/ticket-triage-service/internal/service"
	myhttp "github.com/m-tereshkin/ticket-triage-service/internal/transport/http"
	"github.com/m-tereshkin/ticket-triage-service/pkg/logger/sl"
	"github.com/m-tereshkin/ticket-triage-service/pkg/logger/slogpretty"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.MustLoad()
	log := slogpretty.SetupLogger(cfg.Env)

	log.Info("starting ticket-triage-service", slog.String("env", cfg.Env))

	errChan := make(chan error, 1)

	db, err := postgres.NewDB(cfg.Postgres, log)
	if err != nil {
		return fmt.Errorf("failed to init db: %v", err)
	}
	defer func() {
		err = db.DB().Close()
		if err != nil {
			errChan <- fmt.Errorf("db close failed: %v", err)
		}
	}()

	issueGateway, err := github.NewClient(cfg.GitHub, log)
	if err != nil {
		return fmt.Errorf("failed to init github gateway: %v", err)
	}

	// The tracker lookup is optional: without Jira credentials the
	// intake path simply works with what the webhook sends.
	var ticketFetcher service.TicketFetcher

	if cfg.Jira.URL != "" {
		jiraClient, err := jira.NewClient(cfg.Jira, log)
		if err != nil {
			log.Warn("jira gateway disabled", sl.Err(err))
		} else {
			ticketFetcher = jiraClient
		}
	}

	store := postgres.NewAnalysisRequestRepository(db.DB(), log)

	analyzeService := service.NewAnalyzeService(
		store,
		issueGateway,
		ticketFetcher,
		router.New(cfg.Routing.Teams),
		cfg.Routing.DefaultTeam,
		log,
	)

	srv := myhttp.NewServer(log, analyzeService, issueGateway)
	httpServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Routes(),
	}

	go startServer(log, httpServer, errChan)

	select {
	case err := <-errChan:
		return fmt.Errorf("http server error: %v", err)

	case <-ctx.Done():
		log.Info("stopping server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down http server: %v", err)
	}

	return nil
}

func startServer(log *slog.Logger, httpServer *http.Server, errChan chan error) {
	defer close(errChan)

	log.Info("service started", slog.String("addr", httpServer.Addr))

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		errChan <- fmt.Errorf("error listening and serving: %v", err)
	}
}
