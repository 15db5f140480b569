package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/codex-employee-api/internal/adapters/http/handler"
	"github.com/ogurasousui/codex-employee-api/internal/adapters/http/middleware"
	"github.com/ogurasousui/codex-employee-api/internal/adapters/repository/postgres"
	"github.com/ogurasousui/codex-employee-api/internal/adapters/storage/local"
	"github.com/ogurasousui/codex-employee-api/internal/adapters/storage/s3"
	"github.com/ogurasousui/codex-employee-api/internal/core/auth"
	"github.com/ogurasousui/codex-employee-api/internal/core/employee"
	"github.com/ogurasousui/codex-employee-api/internal/platform/config"
	pg "github.com/ogurasousui/codex-employee-api/internal/platform/db/postgres"
	"github.com/ogurasousui/codex-employee-api/internal/platform/logging"
	"github.com/ogurasousui/codex-employee-api/internal/platform/server"
	"github.com/ogurasousui/codex-employee-api/internal/platform/token"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.WithError(err).Fatal("server stopped with error")
	}
}

func run(ctx context.Context) error {
	if _, err := config.LoadEnvFiles(".env", ".env.local"); err != nil {
		return err
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database pool: %w", err)
	}
	defer dbPool.Close()

	images, imageDir, err := newImageStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init image storage: %w", err)
	}

	tokens, err := token.NewManager(cfg.Auth)
	if err != nil {
		return fmt.Errorf("init token manager: %w", err)
	}

	txManager := pg.NewTransactionManager(dbPool)
	employeeSvc := employee.NewService(postgres.NewEmployeeRepository(dbPool), images, txManager)
	authSvc := auth.NewService(postgres.NewCredentialRepository(dbPool), tokens, nil)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := server.NewRouter(server.RouterDeps{
		Employees:      handler.NewEmployeeHandler(employeeSvc, logger, cfg.Server.MaxUploadBytes),
		Login:          handler.NewLoginHandler(authSvc, logger),
		Tokens:         tokens,
		Logger:         logger,
		Metrics:        middleware.NewMetrics(reg),
		Gatherer:       reg,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ImageDir:       imageDir,
		ImagePath:      cfg.Storage.Local.PublicPath,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpServer := server.New(cfg.Server, router)
	errs := make(chan error, 2)

	go func() {
		logger.WithField("addr", cfg.Server.ListenAddr).Info("HTTP server listening")
		errs <- httpServer.Run(ctx)
	}()

	running := 1
	if cfg.Server.HealthAddr != "" {
		health := server.NewHealthServer(cfg.Server.HealthAddr, logger)
		go health.Monitor(ctx, func(ctx context.Context) error { return pg.Ping(ctx, dbPool) }, cfg.Server.HealthCheckInterval)
		go func() {
			logger.WithField("addr", cfg.Server.HealthAddr).Info("gRPC health server listening")
			errs <- health.Run(ctx)
		}()
		running++
	}

	var firstErr error
	for i := 0; i < running; i++ {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	logger.Info("server stopped")
	return firstErr
}

func newImageStore(ctx context.Context, cfg config.StorageConfig) (employee.ImageStore, string, error) {
	switch cfg.Driver {
	case config.StorageDriverS3:
		store, err := s3.New(ctx, cfg.S3)
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	default:
		store := local.New(cfg.Local.Dir)
		return store, store.Dir(), nil
	}
}
