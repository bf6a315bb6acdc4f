// Package main starts smsgate, a TextBelt-compatible SMS gateway for local
// twofzip runs. It records delivery metadata instead of sending texts.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atinyakov/twofzip/internal/config"
	"github.com/atinyakov/twofzip/internal/db"
	"github.com/atinyakov/twofzip/internal/logger"
	"github.com/atinyakov/twofzip/internal/repository"
	"github.com/atinyakov/twofzip/internal/server/handler/http"
	"github.com/atinyakov/twofzip/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// store is what the service and the retention cleaner need from storage.
type store interface {
	service.DeliveryRepository
	db.Purger
}

func main() {
	// Parse command-line and environment configuration.
	options, err := config.ParseGateway(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "smsgate:", err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "smsgate: failed to init logger:", err)
		os.Exit(2)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var deliveries store
	if options.DatabaseDSN != "" {
		postgresDB, err := db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			zapLogger.Fatal("cannot init database", zap.Error(err))
		}
		defer postgresDB.Close()
		deliveries = repository.NewPostgresDeliveryRepository(postgresDB)
		zapLogger.Info("storing deliveries in postgres")
	} else {
		deliveries = repository.NewMemoryDeliveryRepository()
		zapLogger.Info("storing deliveries in memory")
	}

	db.StartRetentionCleaner(ctx, deliveries,
		options.CleanInterval.Std(),
		options.Retention.Std(),
		zapLogger,
	)

	deliveryService := service.NewDeliveryService(deliveries, options.Quota, options.Retention.Std())
	smsHandler := &http.SMSHandler{DeliveryService: deliveryService, Logger: zapLogger}
	router := http.NewRouter(smsHandler, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start HTTP server", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
