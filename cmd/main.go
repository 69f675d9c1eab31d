package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"tixengine/cmd/buildCFG"
	"tixengine/internal/api"
	"tixengine/internal/cache"
	worker "tixengine/internal/consumerWorker"
	"tixengine/internal/handler"
	"tixengine/internal/mailer"
	"tixengine/internal/paymentgw"
	"tixengine/internal/rabbit"
	"tixengine/internal/repo"
	"tixengine/internal/service"
)

func main() {
	zlog.Init()
	log := zlog.Logger

	cfg := config.New()
	if err := cfg.Load("config.yaml", "", "'"); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}
	serverCfg := buildCFG.BuildServerConfig(cfg, &log)

	masterDSN, slaveDSNs, poolOptions, err := buildCFG.BuildDBConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build DB config")
	}
	db, err := dbpg.New(masterDSN, slaveDSNs, poolOptions)
	if err != nil {
		log.Fatal().Msgf("failed to connect to DB: %v", err)
	}
	if err := db.Master.Ping(); err != nil {
		log.Fatal().Msgf("DB ping failed: %v", err)
	}
	log.Info().Msg("Database connected successfully")

	repository, err := repo.NewRepository(db, &log)
	if err != nil {
		log.Fatal().Msgf("failed to initialize repository: %v", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot get working directory")
	}
	migrationPath := filepath.Join(cwd, "migrations/postgres")
	if err := repository.MigrateUp(migrationPath); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load RabbitMQ config")
	}
	rmq, err := rabbit.NewRabbit(rabbitCfg.Url, rabbitCfg.Exchange, rabbitCfg.Queue)
	if err != nil {
		log.Fatal().Msgf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rmq.Close()

	redisCfg := buildCFG.BuildRedisConfig(cfg, &log)
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	metricsCache := cache.NewMetricsCache(rdb, redisCfg.CacheTTL, &log)

	gatewayCfg, err := buildCFG.BuildGatewayConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load payment gateway config")
	}
	gateway := paymentgw.NewClient(gatewayCfg, &log)

	notify := mailer.New(buildCFG.BuildSMTPConfig(cfg), &log)
	fees := buildCFG.BuildFeePolicy(cfg)

	orders := service.NewOrderService(repository, gateway, rmq, notify, fees, &log)
	scans := service.NewScanService(repository, &log)
	settlement := service.NewSettlementService(repository, metricsCache, notify, fees, &log)
	events := service.NewEventService(repository, &log)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	reaper := worker.NewReader(rmq, orders)
	go reaper.Start(workerCtx)

	h := handler.New(orders, scans, settlement, events, repository, &log)
	app := api.NewRouters(&api.Routers{Handler: h})

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", serverCfg.Port)
		if err := app.Run(":" + serverCfg.Port); err != nil {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
	}

	cancelWorkers()
	reaper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if closer, ok := interface{}(app).(interface{ Close(context.Context) error }); ok {
		if err := closer.Close(shutdownCtx); err != nil {
			log.Error().Msgf("Error shutting down server: %v", err)
		}
	}

	if err := rdb.Close(); err != nil {
		log.Error().Msgf("Error closing redis client: %v", err)
	}

	log.Info().Msg("Shutdown complete")
}
