// Package buildCFG translates the loaded config file into the typed
// configs each component takes at startup.
package buildCFG

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"

	"tixengine/internal/mailer"
	"tixengine/internal/paymentgw"
	"tixengine/internal/service"
)

type ServerConfig struct {
	Port string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, defaulting to 8080")
	}
	return ServerConfig{Port: port}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := cfg.GetString("db.master_dsn")
	if masterDSN == "" {
		return "", nil, nil, fmt.Errorf("db.master_dsn is required")
	}

	var slaveDSNs []string
	if slaves := cfg.GetString("db.slave_dsns"); slaves != "" {
		slaveDSNs = append(slaveDSNs, slaves)
	}

	opts := &dbpg.Options{
		MaxOpenConns: cfg.GetInt("db.max_open_conns"),
		MaxIdleConns: cfg.GetInt("db.max_idle_conns"),
	}
	if opts.MaxOpenConns == 0 {
		opts.MaxOpenConns = 25
	}
	if opts.MaxIdleConns == 0 {
		opts.MaxIdleConns = 5
	}

	log.Info().Int("max_open_conns", opts.MaxOpenConns).Msg("DB config built")
	return masterDSN, slaveDSNs, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Url:      cfg.GetString("rabbit.url"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if rc.Url == "" {
		return rc, fmt.Errorf("rabbit.url is required")
	}
	if rc.Exchange == "" {
		rc.Exchange = "order.expiry"
	}
	if rc.Queue == "" {
		rc.Queue = "order.expiry.queue"
	}
	log.Info().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("RabbitMQ config built")
	return rc, nil
}

func BuildRedisConfig(cfg *config.Config, log *zerolog.Logger) RedisConfig {
	rc := RedisConfig{
		Addr:     cfg.GetString("redis.addr"),
		Password: cfg.GetString("redis.password"),
		DB:       cfg.GetInt("redis.db"),
		CacheTTL: time.Duration(cfg.GetInt("redis.cache_ttl_seconds")) * time.Second,
	}
	if rc.Addr == "" {
		rc.Addr = "localhost:6379"
		log.Warn().Msg("redis.addr not set, defaulting to localhost:6379")
	}
	return rc
}

func BuildSMTPConfig(cfg *config.Config) mailer.Config {
	mc := mailer.Config{
		Host:     cfg.GetString("smtp.host"),
		Port:     cfg.GetInt("smtp.port"),
		From:     cfg.GetString("smtp.from"),
		Password: cfg.GetString("smtp.password"),
	}
	if mc.Port == 0 {
		mc.Port = 587
	}
	return mc
}

func BuildGatewayConfig(cfg *config.Config, log *zerolog.Logger) (paymentgw.Config, error) {
	gc := paymentgw.Config{
		BaseURL:     cfg.GetString("payment.base_url"),
		APIKey:      cfg.GetString("payment.api_key"),
		CallbackURL: cfg.GetString("payment.callback_url"),
		Timeout:     time.Duration(cfg.GetInt("payment.timeout_seconds")) * time.Second,
	}
	if gc.BaseURL == "" {
		return gc, fmt.Errorf("payment.base_url is required")
	}
	log.Info().Str("base_url", gc.BaseURL).Msg("payment gateway config built")
	return gc, nil
}

func BuildFeePolicy(cfg *config.Config) service.FeePolicy {
	fees := service.DefaultFeePolicy()
	if v := cfg.GetString("fees.platform_percent"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			fees.PlatformPercent = d
		}
	}
	if v := cfg.GetString("fees.processing_percent"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			fees.ProcessingPercent = d
		}
	}
	return fees
}
