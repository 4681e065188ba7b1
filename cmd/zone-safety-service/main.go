package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"zone-safety-service/internal/auth"
	"zone-safety-service/internal/client"
	"zone-safety-service/internal/config"
	"zone-safety-service/internal/consumer"
	"zone-safety-service/internal/db"
	httphandler "zone-safety-service/internal/http"
	"zone-safety-service/internal/http/middleware"
	"zone-safety-service/internal/logger"
	"zone-safety-service/internal/notify"
	"zone-safety-service/internal/repository"
	"zone-safety-service/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	var (
		cfg       *config.Config
		appLogger zerolog.Logger
	)

	rootCmd := &cobra.Command{
		Use:           "zone-safety-service",
		Short:         "Zone capacity and safety violation response service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg = loaded
			appLogger = logger.New(cfg.Environment)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg, appLogger)
		},
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.New(cfg, appLogger)
			if err != nil {
				return fmt.Errorf("failed to connect database: %w", err)
			}
			return db.Migrate(database, appLogger)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, appLogger zerolog.Logger) error {
	database, err := db.New(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	if err := db.Migrate(database, appLogger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	zoneRepo := repository.NewZoneRepository(database)
	ruleRepo := repository.NewAccessRuleRepository(database)
	occupancyRepo := repository.NewOccupancyRepository(database)
	capacityRepo := repository.NewCapacityRepository(database)
	violationRepo := repository.NewViolationRepository(database)
	routeRepo := repository.NewEvacuationRouteRepository(database)
	alertRepo := repository.NewAlertRepository(database)

	emitters := []notify.Emitter{notify.NewStoreEmitter(alertRepo)}
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			appLogger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, alerts will be stored only")
		}
		emitters = append(emitters, notify.NewStreamEmitter(redisClient, cfg.Redis.AlertStream))
	}
	alertEmitter := notify.NewFanout(appLogger, emitters...)

	notifier := client.NewNotificationClient(cfg.Notifications, appLogger)
	dispatcher := service.NewDispatcher(cfg.Actions.Timeout, cfg.Actions.Concurrency, appLogger)

	capacityService := service.NewCapacityService(zoneRepo, capacityRepo, occupancyRepo, alertEmitter, appLogger)
	violationService := service.NewViolationService(zoneRepo, ruleRepo, violationRepo, alertEmitter, notifier, dispatcher, appLogger)
	evacuationService := service.NewEvacuationService(zoneRepo, routeRepo)

	if cfg.MQTT.Broker != "" {
		occupancyConsumer := consumer.NewOccupancyConsumer(cfg.MQTT, capacityService, appLogger)
		if err := occupancyConsumer.Start(); err != nil {
			return err
		}
		defer occupancyConsumer.Stop()
	}

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(capacityService, violationService, evacuationService, appLogger)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.HTTP, cfg.Environment, appLogger)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info().Str("addr", addr).Msg("starting zone safety service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	appLogger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
