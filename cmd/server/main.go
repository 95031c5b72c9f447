package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"volaticloud/internal/alert"
	_ "volaticloud/internal/docker"
	"volaticloud/internal/ent"
	_ "volaticloud/internal/ent/runtime"
	"volaticloud/internal/graph"
	_ "volaticloud/internal/kubernetes"
	"volaticloud/internal/logger"
	"volaticloud/internal/monitor"
	"volaticloud/internal/pubsub"
)

func main() {
	app := &cli.App{
		Name:    "volaticloud",
		Usage:   "Volaticloud Control Plane - Manage freqtrade trading bots",
		Version: "0.1.0",
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the control plane server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "host",
						Usage:   "Server host",
						Value:   "0.0.0.0",
						EnvVars: []string{"VOLATICLOUD_HOST"},
					},
					&cli.IntFlag{
						Name:    "port",
						Usage:   "Server port",
						Value:   8080,
						EnvVars: []string{"VOLATICLOUD_PORT"},
					},
					&cli.StringFlag{
						Name:    "database",
						Usage:   "Database connection string (sqlite://path/to/db.sqlite or postgresql://...)",
						Value:   "sqlite://./data/volaticloud.db",
						EnvVars: []string{"VOLATICLOUD_DATABASE"},
					},
					&cli.StringSliceFlag{
						Name:    "etcd-endpoints",
						Usage:   "Etcd endpoints for distributed monitoring (comma-separated). If empty, runs in single-instance mode",
						EnvVars: []string{"VOLATICLOUD_ETCD_ENDPOINTS"},
					},
					&cli.StringFlag{
						Name:    "redis-url",
						Usage:   "Redis connection string for pub/sub fan-out across instances. If empty, uses an in-process pub/sub",
						EnvVars: []string{"VOLATICLOUD_REDIS_URL"},
					},
					&cli.DurationFlag{
						Name:    "monitor-interval",
						Usage:   "How often to check bot status",
						Value:   30 * time.Second,
						EnvVars: []string{"VOLATICLOUD_MONITOR_INTERVAL"},
					},
					&cli.DurationFlag{
						Name:    "backtest-monitor-interval",
						Usage:   "How often to check running backtests",
						Value:   30 * time.Second,
						EnvVars: []string{"VOLATICLOUD_BACKTEST_MONITOR_INTERVAL"},
					},
					&cli.DurationFlag{
						Name:    "runner-monitor-interval",
						Usage:   "How often to check runner data freshness",
						Value:   5 * time.Minute,
						EnvVars: []string{"VOLATICLOUD_RUNNER_MONITOR_INTERVAL"},
					},
					&cli.DurationFlag{
						Name:    "aggregation-interval",
						Usage:   "How often hourly usage aggregates are recomputed",
						Value:   monitor.DefaultAggregationInterval,
						EnvVars: []string{"VOLATICLOUD_AGGREGATION_INTERVAL"},
					},
					&cli.DurationFlag{
						Name:    "sample-retention",
						Usage:   "How long raw usage samples are kept before cleanup",
						Value:   monitor.DefaultSampleRetention,
						EnvVars: []string{"VOLATICLOUD_SAMPLE_RETENTION"},
					},
					&cli.DurationFlag{
						Name:    "data-download-timeout",
						Usage:   "Hard cap on a single runner data download attempt",
						Value:   monitor.DefaultDataDownloadTimeout,
						EnvVars: []string{"VOLATICLOUD_DATA_DOWNLOAD_TIMEOUT"},
					},
					&cli.BoolFlag{
						Name:    "retry-failed-downloads",
						Usage:   "Automatically retry runner data downloads that previously failed",
						Value:   false,
						EnvVars: []string{"VOLATICLOUD_RETRY_FAILED_DOWNLOADS"},
					},
					&cli.BoolFlag{
						Name:    "enable-billing-deduction",
						Usage:   "Deduct hourly usage costs from organization credit balances",
						Value:   false,
						EnvVars: []string{"VOLATICLOUD_ENABLE_BILLING_DEDUCTION"},
					},
					&cli.DurationFlag{
						Name:    "alert-batch-interval",
						Usage:   "How often batched alert notifications are flushed",
						Value:   time.Hour,
						EnvVars: []string{"VOLATICLOUD_ALERT_BATCH_INTERVAL"},
					},
				},
				Action: runServer,
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "database",
						Usage:   "Database connection string (sqlite://path/to/db.sqlite or postgresql://...)",
						Value:   "sqlite://./data/volaticloud.db",
						EnvVars: []string{"VOLATICLOUD_DATABASE"},
					},
				},
				Action: runMigrate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.NewProductionLogger().Fatal("fatal error", zap.Error(err))
	}
}

// parseDatabase parses the database connection string and returns driver and DSN
func parseDatabase(dbURL string) (driver, dsn string, err error) {
	if strings.HasPrefix(dbURL, "sqlite://") {
		driver = "sqlite3"
		dsn = strings.TrimPrefix(dbURL, "sqlite://")

		// Create directory if it doesn't exist
		dir := filepath.Dir(dsn)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return "", "", fmt.Errorf("failed to create database directory: %w", err)
			}
		}

		// Add SQLite parameters for better performance
		if !strings.Contains(dsn, "?") {
			dsn += "?_fk=1"
		}

		return driver, dsn, nil
	} else if strings.HasPrefix(dbURL, "postgresql://") || strings.HasPrefix(dbURL, "postgres://") {
		driver = "postgres"
		dsn = dbURL
		return driver, dsn, nil
	}

	return "", "", fmt.Errorf("unsupported database URL format: %s (use sqlite:// or postgresql://)", dbURL)
}

func runServer(c *cli.Context) error {
	ctx, log := logger.PrepareLogger(context.Background())
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("shutdown signal received, cleaning up")
		cancel()
	}()

	// Parse database connection
	dbURL := c.String("database")
	driver, dsn, err := parseDatabase(dbURL)
	if err != nil {
		return err
	}

	// Initialize database connection
	client, err := ent.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed opening connection to %s: %w", driver, err)
	}
	defer client.Close()

	// Run auto migration
	if err := client.Schema.Create(ctx); err != nil {
		return fmt.Errorf("failed creating schema resources: %w", err)
	}

	host := c.String("host")
	port := c.Int("port")

	// Pub/sub backs real-time trade, runner, and alert events across the dashboard.
	// Falls back to an in-process broker when no Redis URL is configured, which is
	// fine for single-instance deployments but won't fan out across instances.
	var ps pubsub.PubSub
	if redisURL := c.String("redis-url"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return fmt.Errorf("failed to parse redis url: %w", err)
		}
		ps = pubsub.NewRedisPubSub(redis.NewClient(opts))
	} else {
		ps = pubsub.NewMemoryPubSub()
	}

	alertManager, err := alert.NewManager(alert.Config{
		DatabaseClient: client,
		BatchInterval:  c.Duration("alert-batch-interval"),
	})
	if err != nil {
		return fmt.Errorf("failed to create alert manager: %w", err)
	}
	alertManager.SetPubSub(ps)
	if err := alertManager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start alert manager: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := alertManager.Stop(shutdownCtx); err != nil {
			log.Error("error stopping alert manager", zap.Error(err))
		}
	}()

	// Initialize monitor manager
	etcdEndpoints := c.StringSlice("etcd-endpoints")
	monitorInterval := c.Duration("monitor-interval")

	monitorManager, err := monitor.NewManager(monitor.Config{
		DatabaseClient:          client,
		EtcdEndpoints:           etcdEndpoints,
		MonitorInterval:         monitorInterval,
		BacktestMonitorInterval: c.Duration("backtest-monitor-interval"),
		RunnerMonitorInterval:   c.Duration("runner-monitor-interval"),
		AggregationInterval:     c.Duration("aggregation-interval"),
		SampleRetention:         c.Duration("sample-retention"),
		DataDownloadTimeout:     c.Duration("data-download-timeout"),
		RetryFailedDownloads:    c.Bool("retry-failed-downloads"),
		EnableBillingDeduction:  c.Bool("enable-billing-deduction"),
		AlertNotifier:           alertManager,
		PubSub:                  ps,
	})
	if err != nil {
		return fmt.Errorf("failed to create monitor manager: %w", err)
	}

	// Start monitor manager
	if err := monitorManager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start monitor manager: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := monitorManager.Stop(shutdownCtx); err != nil {
			log.Error("error stopping monitor manager", zap.Error(err))
		}
	}()

	// Setup GraphQL server
	srv := handler.NewDefaultServer(graph.NewExecutableSchema(graph.Config{
		Resolvers: graph.NewResolver(client),
	}))

	// Setup Chi router
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Compress(5))

	// CORS middleware for dashboard
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:5174", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// GraphQL routes
	router.Handle("/", playground.Handler("GraphQL Playground", "/query"))
	router.Handle("/query", srv)

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// HTTP server
	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("volaticloud control plane starting",
		zap.String("database_driver", driver),
		zap.String("graphql_endpoint", fmt.Sprintf("http://%s/query", addr)),
		zap.String("graphql_playground", fmt.Sprintf("http://%s/", addr)),
		zap.String("health_check", fmt.Sprintf("http://%s/health", addr)),
		zap.Bool("distributed", monitorManager.IsDistributed()),
		zap.String("instance_id", monitorManager.GetInstanceID()),
		zap.Int("instance_count", monitorManager.GetInstanceCount()),
	)

	// Start server in goroutine
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown
	<-ctx.Done()

	// Graceful shutdown
	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}

func runMigrate(c *cli.Context) error {
	ctx, log := logger.PrepareLogger(context.Background())

	// Parse database connection
	dbURL := c.String("database")
	driver, dsn, err := parseDatabase(dbURL)
	if err != nil {
		return err
	}

	// Initialize database connection
	client, err := ent.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed opening connection to %s: %w", driver, err)
	}
	defer client.Close()

	// Run auto migration
	log.Info("running database migrations", zap.String("driver", driver))
	if err := client.Schema.Create(ctx); err != nil {
		return fmt.Errorf("failed creating schema resources: %w", err)
	}

	log.Info("migrations completed successfully", zap.String("dsn", dsn))
	return nil
}
