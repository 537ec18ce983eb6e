package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"coderelay/internal/common/cache"
	"coderelay/internal/common/db"
	"coderelay/internal/common/mq"
	executeController "coderelay/internal/execute/controller"
	"coderelay/internal/execute/language"
	"coderelay/internal/execute/remote"
	executeRepository "coderelay/internal/execute/repository"
	executeService "coderelay/internal/execute/service"
	userController "coderelay/internal/user/controller"
	userRepository "coderelay/internal/user/repository"
	userService "coderelay/internal/user/service"
	"coderelay/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/server.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	if err := run(*configPath, *configPath == defaultConfigPath); err != nil {
		fmt.Fprintf(os.Stderr, "coderelay: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, optionalConfig bool) error {
	appCfg, err := loadAppConfig(configPath, optionalConfig, os.Getenv)
	if err != nil {
		return fmt.Errorf("load app config failed: %w", err)
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		return fmt.Errorf("init logger failed: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	gin.SetMode(gin.ReleaseMode)

	ctx := context.Background()
	readiness := make(map[string]pinger)

	publisher, closeEvents, err := newEventPublisher(appCfg.Events, readiness)
	if err != nil {
		return err
	}
	defer closeEvents()

	client := remote.NewClient(remote.Config{
		Endpoint:    appCfg.Remote.Endpoint,
		Timeout:     appCfg.Remote.Timeout,
		Credentials: appCfg.Credentials(),
	}, nil)
	execSvc := executeService.NewExecuteService(language.DefaultRegistry(), client, publisher, executeService.ExecuteServiceConfig{
		EventTimeout:   appCfg.Events.PublishTimeout,
		EventQueueSize: appCfg.Events.QueueSize,
	})

	deps := routerDeps{
		cors:        appCfg.CORS,
		execute:     executeController.NewExecuteController(execSvc, appCfg.Execute.MaxBodyBytes),
		requireAuth: appCfg.Execute.RequireAuth,
		readiness:   readiness,
	}

	if appCfg.AuthEnabled() {
		database, err := db.NewMySQLWithConfig(&appCfg.Database)
		if err != nil {
			return fmt.Errorf("init mysql failed: %w", err)
		}
		defer func() { _ = database.Close() }()
		readiness["mysql"] = database

		var loginCache cache.BasicOps
		if appCfg.Redis.Addr != "" {
			redisCache, err := cache.NewRedisCacheWithConfig(&appCfg.Redis)
			if err != nil {
				return fmt.Errorf("init redis failed: %w", err)
			}
			defer func() { _ = redisCache.Close() }()
			readiness["redis"] = redisCache
			loginCache = redisCache
		} else {
			logger.Warn(ctx, "redis not configured, login failure guard disabled")
		}

		authSvc := userService.NewAuthService(
			userRepository.NewUserRepository(db.NewStaticProvider(database)),
			loginCache,
			userService.AuthServiceConfig{
				JWTSecret:      []byte(appCfg.Auth.JWTSecret),
				JWTIssuer:      appCfg.Auth.JWTIssuer,
				TokenTTL:       appCfg.Auth.TokenTTL,
				LoginFailTTL:   appCfg.Auth.LoginFailTTL,
				LoginFailLimit: appCfg.Auth.LoginFailLimit,
			},
		)
		deps.auth = userController.NewAuthController(authSvc)
		deps.authenticator = authSvc
	} else {
		logger.Warn(ctx, "database not configured, auth endpoints disabled")
	}

	httpServer := &http.Server{
		Addr:           appCfg.Server.Addr,
		Handler:        buildRouter(deps),
		ReadTimeout:    appCfg.Server.ReadTimeout,
		WriteTimeout:   appCfg.Server.WriteTimeout,
		IdleTimeout:    appCfg.Server.IdleTimeout,
		MaxHeaderBytes: appCfg.Server.MaxHeaderBytes,
	}

	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("init http listener failed: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "http server started",
			zap.String("addr", appCfg.Server.Addr),
			zap.String("remote", appCfg.Remote.Endpoint),
			zap.Bool("requireAuth", appCfg.Execute.RequireAuth),
		)
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var serveErr error
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http server stopped", zap.Error(err))
			serveErr = err
		}
	case <-shutdownCtx.Done():
		logger.Info(ctx, "shutdown signal received")
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(timeoutCtx); err != nil {
		logger.Error(ctx, "http server shutdown failed", zap.Error(err))
	}
	if err := execSvc.Close(timeoutCtx); err != nil {
		logger.Warn(ctx, "execution events not fully flushed", zap.Error(err))
	}
	return serveErr
}

// newEventPublisher wires the Kafka audit publisher when events are enabled and
// registers the broker with the readiness checks. The returned publisher is nil
// when events are disabled.
func newEventPublisher(cfg EventsConfig, readiness map[string]pinger) (executeRepository.ExecutionEventPublisher, func(), error) {
	if !cfg.Enabled {
		return nil, func() {}, nil
	}
	producer, err := mq.NewKafkaProducer(cfg.Kafka)
	if err != nil {
		return nil, nil, fmt.Errorf("init kafka failed: %w", err)
	}
	readiness["kafka"] = producer
	logger.Info(context.Background(), "execution events enabled",
		zap.String("topic", cfg.Topic),
		zap.Bool("async", cfg.Kafka.Async),
	)
	return executeRepository.NewMQExecutionEventPublisher(producer, cfg.Topic), func() { _ = producer.Close() }, nil
}
