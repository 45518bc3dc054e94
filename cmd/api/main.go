// Package main is the entry point for the bullhorn API server.
//
// It loads configuration, connects the Postgres pool, builds the AWS clients
// (SQS prepare-to-send trigger, CloudWatch delivery metrics), wires the
// lifecycle service and HTTP handlers into the core chassis, and serves HTTP
// with graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"bullhorn/internal/api/handlers"
	"bullhorn/internal/config"
	"bullhorn/internal/core"
	"bullhorn/internal/db"
	"bullhorn/internal/directory"
	"bullhorn/internal/lifecycle"
	"bullhorn/internal/metrics"
	"bullhorn/internal/queue"
	"bullhorn/internal/rowkey"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("bullhorn API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database pool.
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer pool.Close()

	if err := db.InitSchema(ctx, pool); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}

	// AWS clients.
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return fmt.Errorf("loading AWS configuration: %w", err)
	}

	sqsClient := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
		}
	})
	trigger := queue.NewSendTrigger(sqsClient, cfg.AWS.PrepareToSendQueueURL, logger)

	var outcomeMetrics handlers.DeliveryMetrics = metrics.NoopOutcomeMetrics{}
	if cfg.AWS.MetricsNamespace != "" {
		cwClient := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
			if cfg.AWS.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
			}
		})
		outcomeMetrics = metrics.NewCloudWatchOutcomeMetrics(cwClient, cfg.AWS.MetricsNamespace, logger)
	}

	// Directory client for group membership lookups.
	dirClient := directory.NewClient(
		&http.Client{Timeout: cfg.Directory.Timeout},
		cfg.Directory.BaseURL,
		directory.DefaultRetryPolicy(),
		logger,
	)

	// Domain wiring.
	notifRepo := db.NewNotificationRepository(pool)
	replyRepo := db.NewReplyRepository(pool)
	svc, err := lifecycle.NewService(notifRepo, rowkey.NewGenerator(), logger)
	if err != nil {
		return fmt.Errorf("creating lifecycle service: %w", err)
	}

	// HTTP chassis.
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.HealthProbes = append(srv.HealthProbes, db.NewPoolProbe(pool))

	draftHandler := handlers.NewDraftHandler(svc, trigger, srv.Validator, logger)
	sentHandler := handlers.NewSentHandler(svc, outcomeMetrics, srv.Validator, logger)
	historyHandler := handlers.NewHistoryHandler(svc, dirClient, logger)
	featureHandler := handlers.NewFeatureHandler(handlers.FeatureFlags{
		EnableReplies: cfg.Feature.EnableReplies,
	})

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		draftHandler.RegisterRoutes,
		sentHandler.RegisterRoutes,
		historyHandler.RegisterRoutes,
		featureHandler.RegisterRoutes,
	)

	// Reply routes are only mounted when the feature is enabled; disabled
	// deployments respond 404 for the whole namespace.
	if cfg.Feature.EnableReplies {
		replyHandler := handlers.NewReplyHandler(replyRepo, svc, srv.Validator, logger)
		srv.V1RouteRegistrars = append(srv.V1RouteRegistrars, replyHandler.RegisterRoutes)
	}

	srv.MountRoutes()

	return serveHTTP(ctx, srv, cfg, logger)
}

// serveHTTP runs the HTTP server until the context is cancelled, then shuts
// down gracefully within the configured deadline.
func serveHTTP(ctx context.Context, srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newPool builds the pgx connection pool from the database configuration.
func newPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL.Unmask())
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.Database.MaxConns)
	poolCfg.MinConns = int32(cfg.Database.MinConns)
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolCfg.HealthCheckPeriod = cfg.Database.HealthCheckPeriod
	poolCfg.ConnConfig.ConnectTimeout = cfg.Database.AcquireTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// newLogger creates a structured slog.Logger for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
