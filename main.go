// Copyright (c) 2025 The PPLE Today Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/PPLEThai/pple-today-sub002/auth"
	"github.com/PPLEThai/pple-today-sub002/cliparse"
	"github.com/PPLEThai/pple-today-sub002/db"
	"github.com/PPLEThai/pple-today-sub002/keys"
	"github.com/PPLEThai/pple-today-sub002/kms"
	"github.com/PPLEThai/pple-today-sub002/metrics"
	"github.com/PPLEThai/pple-today-sub002/reporter"
	"github.com/PPLEThai/pple-today-sub002/router"
	"github.com/PPLEThai/pple-today-sub002/tally"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.AppEnv)

	// Connect to the ledger database
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	kmsClient, err := newKMS(context.Background(), cfg)
	if err != nil {
		slog.Error("KMS client creation failed", "error", err)
		os.Exit(1)
	}
	defer kmsClient.Close()

	inboundGuard, err := auth.NewSharedSecret(cfg.BackofficeToBallotCryptoKey)
	if err != nil {
		slog.Error("invalid inbound key", "error", err)
		os.Exit(1)
	}
	adminGuard, err := auth.NewSharedSecret(cfg.AdminKey)
	if err != nil {
		slog.Error("invalid admin key", "error", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(reg); err != nil {
		slog.Error("metrics registration failed", "error", err)
		os.Exit(1)
	}

	backoffice := reporter.New(cfg.BackofficeURL, cfg.BallotCryptoToBackofficeKey)
	jobStore := db.NewJobStore(dbConn)

	engine := tally.NewEngine(kmsClient, backoffice, tally.Options{
		Workers:   cfg.CountWorkers,
		QueueSize: cfg.CountQueueSize,
		Recorder:  jobStore,
	})
	engine.Start()

	// Create router
	handler := router.NewRouter(router.Deps{
		Counter:      engine,
		Jobs:         jobStore,
		Keys:         keys.NewManager(kmsClient, backoffice),
		InboundGuard: inboundGuard,
		AdminGuard:   adminGuard,
		Gatherer:     reg,
		Version:      version,
	})

	// Create server
	server := http.Server{
		Handler:           handler,
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "env", cfg.AppEnv, "kms", cfg.KMSProvider, "version", version)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}

	// Let accepted counts finish so every job reaches the backoffice
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := engine.Stop(ctx); err != nil {
		slog.Error("tally engine stopped before draining", "error", err)
	}
}

func setupLogger(env string) {
	var h slog.Handler
	if env == cliparse.EnvDevelopment {
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		h = slog.NewJSONHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(h).With("service", "ballot-crypto"))
}

func newKMS(ctx context.Context, cfg cliparse.Config) (kms.Client, error) {
	if cfg.KMSProvider == cliparse.KMSProviderMemory {
		slog.Warn("using in-memory KMS, keys are lost on restart")
		return kms.NewMemory(0), nil
	}

	client, err := kms.NewGCP(ctx, kms.GCPConfig{
		Locator: kms.Locator{
			ProjectID:         cfg.GCPProjectID,
			Location:          cfg.GCPLocation,
			EncryptionKeyRing: cfg.GCPEncryptionKeyRing,
			SigningKeyRing:    cfg.GCPSigningKeyRing,
		},
		ClientEmail: cfg.GCPClientEmail,
		PrivateKey:  cfg.GCPPrivateKey,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}
