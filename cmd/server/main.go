package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/danabek/jarnama/internal"
	"github.com/danabek/jarnama/internal/billing"
	"github.com/danabek/jarnama/internal/catalog"
	"github.com/danabek/jarnama/internal/handler"
	"github.com/danabek/jarnama/internal/middleware"
	"github.com/danabek/jarnama/internal/notify"
	"github.com/danabek/jarnama/internal/repository"
	"github.com/danabek/jarnama/internal/scheduler"
	"github.com/danabek/jarnama/internal/service"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Load the plan catalog
	cat, err := catalog.Load(cfg.PlanCatalogPath, logger)
	if err != nil {
		return fmt.Errorf("plan catalog load failed: %w", err)
	}
	logger.Info("Plan catalog loaded", "plans", len(cat.Plans()), "currency", cat.Currency())

	// Initialize repository and services
	repo := repository.New(db)
	clock := billing.SystemClock()
	calc := billing.NewCalculator(clock)
	notifier := notify.NewLogNotifier(logger)

	subscriptionService := service.NewSubscriptionService(repo, cat, calc, clock, notifier, logger)
	listingService := service.NewListingService(db, repo, subscriptionService, clock, logger)

	// Initialize handlers
	planHandler := handler.NewPlanHandler(cat, logger)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService, logger)
	listingHandler := handler.NewListingHandler(listingService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics, optionally behind basic auth
	mux.Handle("GET /metrics", metricsHandler(cfg))

	planHandler.RegisterRoutes(mux)
	subscriptionHandler.RegisterRoutes(mux)
	listingHandler.RegisterRoutes(mux)

	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	wrap := middleware.Stack(middleware.MetricsMiddleware, loggingMw.Handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      wrap(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Expiry scheduler
	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sched, err = scheduler.New(repo, clock, logger, cfg.ExpirySchedule)
		if err != nil {
			return fmt.Errorf("scheduler initialization failed: %w", err)
		}
		sched.Start()
	}

	// ==========================================================================
	// Start server and wait for shutdown signal
	// ==========================================================================

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		logger.Info("Shutting down", "signal", sig.String())
	}

	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// metricsHandler wraps the Prometheus handler with basic auth when
// credentials are configured.
func metricsHandler(cfg *internal.Config) http.Handler {
	promHandler := promhttp.Handler()
	if cfg.MetricsUsername == "" && cfg.MetricsPassword == "" {
		return promHandler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != cfg.MetricsUsername || pass != cfg.MetricsPassword {
			w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		promHandler.ServeHTTP(w, r)
	})
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
