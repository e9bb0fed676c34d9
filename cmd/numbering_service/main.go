package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	gRPC "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	httpadapter "github.com/cschrachta/telephony-tracker/internal/numbering_service/adapters/http"
	"github.com/cschrachta/telephony-tracker/internal/numbering_service/adapters/numberplan"
	"github.com/cschrachta/telephony-tracker/internal/numbering_service/app"
	"github.com/cschrachta/telephony-tracker/internal/numbering_service/domain"
	"github.com/cschrachta/telephony-tracker/internal/numbering_service/repository/postgres"
	"github.com/cschrachta/telephony-tracker/internal/platform/config"
	"github.com/cschrachta/telephony-tracker/internal/platform/database"
	"github.com/cschrachta/telephony-tracker/internal/platform/logger"
	"github.com/cschrachta/telephony-tracker/internal/platform/messagebroker"
)

const (
	serviceName     = "numbering-service"
	shutdownTimeout = 15 * time.Second
)

// httpLogger logs one line per HTTP request.
func httpLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.LogAttrs(r.Context(), slog.LevelInfo, "HTTP request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status_code", ww.Status()),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.String("request_id", chiMiddleware.GetReqID(r.Context())),
			)
		})
	}
}

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)
	appLogger.Info("Numbering service starting...",
		"http_port", cfg.NumberingServiceHTTPPort,
		"grpc_port", cfg.NumberingServiceGRPCPort,
		"metrics_port", cfg.NumberingServiceMetricsPort,
		"max_expansion_size", cfg.Numbering.MaxExpansionSize,
		"save_timeout", cfg.Numbering.SaveTimeout(),
	)

	dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN, database.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	}, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := postgres.Migrate(mainCtx, dbPool, appLogger); err != nil {
		appLogger.Error("Failed to apply database schema", "error", err)
		os.Exit(1)
	}

	// Events are best effort; the service runs without NATS.
	var publisher domain.EventPublisher
	if cfg.Numbering.EventsEnabled && cfg.NATSURL != "" {
		natsClient, err := messagebroker.NewNATSClient(cfg.NATSURL, appLogger, serviceName)
		if err != nil {
			appLogger.Warn("NATS unavailable, range events disabled", "url", cfg.NATSURL, "error", err)
		} else {
			defer natsClient.Close()
			publisher = natsClient
		}
	}

	rangeService := app.NewRangeService(
		numberplan.NewValidator(appLogger),
		postgres.NewTransactor(dbPool, appLogger),
		postgres.NewPgNumberRangeRepository(dbPool, appLogger),
		postgres.NewPgPhoneNumberRepository(dbPool, appLogger),
		publisher,
		appLogger,
		app.ServiceConfig{
			MaxExpansionSize: cfg.Numbering.MaxExpansionSize,
			SaveTimeout:      cfg.Numbering.SaveTimeout(),
			EventsEnabled:    cfg.Numbering.EventsEnabled,
		},
	)

	g, groupCtx := errgroup.WithContext(mainCtx)

	// --- gRPC health server ---
	grpcServer := gRPC.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	grpcListenAddress := fmt.Sprintf(":%d", cfg.NumberingServiceGRPCPort)
	grpcListener, err := net.Listen("tcp", grpcListenAddress)
	if err != nil {
		appLogger.Error("Failed to listen for gRPC", "address", grpcListenAddress, "error", err)
		os.Exit(1)
	}

	g.Go(func() error {
		appLogger.Info("gRPC health server starting", "address", grpcListenAddress)
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, gRPC.ErrServerStopped) {
			appLogger.Error("gRPC server failed to serve", "error", err)
			return err
		}
		return nil
	})

	// --- HTTP API ---
	rangeHandler := httpadapter.NewRangeHandler(rangeService, appLogger, validator.New())
	root := chi.NewRouter()
	root.Use(httpLogger(appLogger))
	root.Mount("/", httpadapter.NewRouter(rangeHandler, cfg.JWTAccessSecret, appLogger))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.NumberingServiceHTTPPort),
		Handler:      root,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Numbering.SaveTimeout() + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g.Go(func() error {
		appLogger.Info("HTTP server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server ListenAndServe error", "error", err)
			return err
		}
		return nil
	})

	// --- Metrics ---
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.NumberingServiceMetricsPort),
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		appLogger.Info("Metrics HTTP server starting", "address", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Metrics HTTP server ListenAndServe error", "error", err)
			return err
		}
		return nil
	})

	// --- Graceful shutdown ---
	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, syscall.SIGINT, syscall.SIGTERM)

	g.Go(func() error {
		select {
		case sig := <-stopSignal:
			appLogger.Info("Received termination signal", "signal", sig.String())
			mainCancel()
		case <-groupCtx.Done():
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		appLogger.Info("Initiating graceful shutdown of servers...")
		healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_NOT_SERVING)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var shutdownErrors error
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = errors.Join(shutdownErrors, fmt.Errorf("http shutdown: %w", err))
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = errors.Join(shutdownErrors, fmt.Errorf("metrics http shutdown: %w", err))
		}
		grpcServer.GracefulStop()
		return shutdownErrors
	})

	appLogger.Info("Numbering service is ready and running.")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Service group encountered an error during run/shutdown", "error", err)
	}
	appLogger.Info("Numbering service shut down.")
}
