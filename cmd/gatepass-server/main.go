package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/BrandonDHaskell/gatepass/internal/auth"
	"github.com/BrandonDHaskell/gatepass/internal/config"
	"github.com/BrandonDHaskell/gatepass/internal/db"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/credential"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/notify"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/reportsink"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/scanguard"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/service"
	"github.com/BrandonDHaskell/gatepass/internal/gatepass/store/sqlite"
	"github.com/BrandonDHaskell/gatepass/internal/grpcapi"
	"github.com/BrandonDHaskell/gatepass/internal/httpapi"
	"github.com/BrandonDHaskell/gatepass/internal/metrics"
)

func main() {
	configPath := flag.String("config", os.Getenv("GATEPASS_CONFIG"), "path to a YAML config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			logger.Error("config", slog.Any("err", err))
		}
		os.Exit(2)
	}
	logger = logger.With(slog.String("service", "gatepass"), slog.String("env", cfg.Env))

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	secret := cfg.Secret
	if secret == "" {
		logger.Warn("no secret configured; using the dev secret")
		secret = credential.DevSecret
	}
	keys, err := credential.DeriveKeys(secret)
	if err != nil {
		return err
	}
	jwtKey := keys.Tokens
	if cfg.JWTSecret != "" {
		jwtKey = []byte(cfg.JWTSecret)
	}

	// Storage
	sqlDB, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer sqlDB.Close()

	writer := db.NewWorker(sqlDB)
	defer writer.Close()

	sealer, err := credential.NewSealer(keys.Sealing, keys.Lookup)
	if err != nil {
		return err
	}
	persons := sqlite.NewPersonStore(sqlDB, writer, sealer)
	entries := sqlite.NewEntryLogStore(sqlDB, writer)
	notifs := sqlite.NewNotificationLogStore(sqlDB, writer, sealer)
	settingsStore := sqlite.NewSettingsStore(sqlDB, writer)

	// Debounce
	var guard scanguard.Guard = scanguard.NewMemory(cfg.ScanDebounce())
	rdb, err := scanguard.Dial(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		guard = scanguard.NewRedis(rdb, cfg.ScanDebounce())
		logger.Info("scan guard backed by redis")
	}

	// Outbound messaging
	var sender notify.Sender
	switch cfg.SMS.Provider {
	case "http":
		client := &http.Client{Timeout: cfg.SMS.Timeout}
		if cfg.Tracing {
			client.Transport = otelhttp.NewTransport(http.DefaultTransport)
		}
		gw, err := notify.NewGateway(notify.GatewayConfig{
			BaseURL: cfg.SMS.BaseURL,
			APIKey:  cfg.SMS.APIKey,
			Sender:  cfg.SMS.Sender,
			Timeout: cfg.SMS.Timeout,
		}, client)
		if err != nil {
			return err
		}
		sender = gw
	default:
		sender = notify.NewLogSender(logger)
	}

	// Report storage
	var sink reportsink.Sink
	if cfg.Reports.Bucket != "" {
		sink, err = reportsink.NewS3(reportsink.S3Config{
			Bucket:           cfg.Reports.Bucket,
			Prefix:           cfg.Reports.Prefix,
			Region:           cfg.Reports.Region,
			Endpoint:         cfg.Reports.Endpoint,
			AccessKeyID:      cfg.Reports.AccessKeyID,
			SecretAccessKey:  cfg.Reports.SecretAccessKey,
			URLExpiryMinutes: cfg.Reports.URLExpiryMinutes,
		})
	} else {
		sink, err = reportsink.NewLocal(cfg.Reports.Dir, cfg.Reports.BaseURL)
	}
	if err != nil {
		return fmt.Errorf("report sink: %w", err)
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics()
	if err := m.Register(reg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// Services
	loc := cfg.Location()
	signer := credential.NewSigner(keys.Signing, credential.WithValidity(cfg.CredentialValidity()))
	settings := service.NewSettingsService(settingsStore)
	notifier := service.NewNotificationService(service.NotificationDeps{
		Sender:   sender,
		Persons:  persons,
		Logs:     notifs,
		Settings: settings,
		Logger:   logger,
		Observer: m,
		QRSize:   cfg.QRSize,
	})
	registration := service.NewRegistrationService(service.RegistrationDeps{
		Signer:   signer,
		Persons:  persons,
		Notifier: notifier,
		Logger:   logger,
	})
	scan := service.NewScanService(service.ScanDeps{
		Signer:   signer,
		Persons:  persons,
		Entries:  entries,
		Guard:    guard,
		Location: loc,
		Logger:   logger,
		Observer: m,
	})
	reports := service.NewReportService(service.ReportDeps{
		Persons:  persons,
		Entries:  entries,
		Sink:     sink,
		Notifier: notifier,
		Location: loc,
		Logger:   logger,
		Observer: m,
	})

	pruner := service.NewRetentionPruner([]service.PruneTarget{
		{Name: "entry_logs", Store: entries},
		{Name: "notification_logs", Store: notifs},
	}, service.PrunerConfig{
		RetentionDays: cfg.RetentionDays,
		IntervalHours: cfg.PruneIntervalHours,
	}, logger)
	pruner.Start(ctx)
	defer pruner.Stop()

	tokens := auth.NewTokens(jwtKey)

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:         logger,
		Addr:           cfg.HTTPAddr,
		Tokens:         tokens,
		Metrics:        m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Tracing:        cfg.Tracing,
		Scan:           scan,
		Registration:   registration,
		Notifications:  notifier,
		Settings:       settings,
		Reports:        reports,
	})

	// gRPC
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	gs := grpcapi.NewGRPCServer(grpcapi.Dependencies{Logger: logger, Tokens: tokens, Scan: scan})

	go func() {
		logger.Info("http listening", slog.String("addr", cfg.HTTPAddr))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("err", err))
			stop()
		}
	}()
	go func() {
		logger.Info("grpc listening", slog.String("addr", cfg.GRPCAddr))
		if err := gs.Serve(lis); err != nil {
			logger.Error("grpc server", slog.Any("err", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("err", err))
	}
	gs.GracefulStop()
	return nil
}
