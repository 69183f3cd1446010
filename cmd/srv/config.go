package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gitbounty-lab/backend/config"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
	"github.com/joho/godotenv"
)

func (s *srv) loadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Cannot load the .env file, use environment instead")
	}

	cfg := config.Configs{
		Env: getEnv("ENV", "local"),
		Database: config.DatabaseConfigs{
			Host:     getEnv("MYSQL_HOST", "localhost"),
			Port:     getEnv("MYSQL_PORT", "3306"),
			User:     getEnv("MYSQL_USER", "gitbounty"),
			Password: getEnv("MYSQL_PASSWORD", "gitbounty"),
			Database: getEnv("MYSQL_DATABASE", "gitbounty"),
			LogLevel: getEnv("MYSQL_LOG_LEVEL", "error"),
		},
		ApiServer: config.ServerConfigs{
			Host:      getEnv("API_HOST", "localhost"),
			Port:      getEnv("API_PORT", "8080"),
			AllowCORS: strings.Split(getEnv("API_ALLOW_CORS", "http://localhost:3000"), ","),
		},
		Auth: config.AuthConfigs{
			TokenSecret: getEnv("TOKEN_SECRET", "token_secret"),
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: getDuration("ACCESS_TOKEN_DURATION", time.Hour),
			},
		},
		Redis: config.RedisConfigs{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: config.KafkaConfigs{
			Addr: getEnv("KAFKA_ADDR", "localhost:9092"),
		},
		Webhook: config.WebhookConfigs{
			Secret: getEnv("WEBHOOK_SECRET", "webhook_secret"),
		},
		Ledger: loadLedgerConfigs(),
		Extractor: config.ExtractorConfigs{
			Endpoint: getEnv("EXTRACTOR_ENDPOINT", "https://api.openai.com"),
			ApiKey:   getEnv("EXTRACTOR_API_KEY", ""),
			Model:    getEnv("EXTRACTOR_MODEL", "gpt-4o-mini"),
			Timeout:  getDuration("EXTRACTOR_TIMEOUT", 30*time.Second),
		},
		Identity: config.IdentityConfigs{
			Endpoint: getEnv("IDENTITY_ENDPOINT", "https://api.github.com"),
			Token:    getEnv("IDENTITY_TOKEN", ""),
			Timeout:  getDuration("IDENTITY_TIMEOUT", 10*time.Second),
		},
		Pipeline: config.PipelineConfigs{
			ParseTopic:           getEnv("PARSE_TOPIC", "parse_comment"),
			SettleTopic:          getEnv("SETTLE_TOPIC", "settle_claim"),
			ParseConcurrency:     getInt("PARSE_CONCURRENCY", 4),
			SettleConcurrency:    getInt("SETTLE_CONCURRENCY", 2),
			ParseMaxAttempts:     getInt("PARSE_MAX_ATTEMPTS", 5),
			SettleMaxAttempts:    getInt("SETTLE_MAX_ATTEMPTS", 8),
			BackoffBase:          getDuration("BACKOFF_BASE", 30*time.Second),
			BackoffCap:           getDuration("BACKOFF_CAP", time.Hour),
			ConfirmSweepInterval: getDuration("CONFIRM_SWEEP_INTERVAL", time.Minute),
			RedeliverInterval:    getDuration("REDELIVER_INTERVAL", time.Minute),
			ClaimNonceExpiration: getDuration("CLAIM_NONCE_DURATION", 10*time.Minute),
			HeartbeatExpiration:  getDuration("HEARTBEAT_DURATION", time.Minute),
			PlatformFeeRate:      int64(getInt("PLATFORM_FEE_RATE", 250)),
		},
	}

	s.ctx = xcontext.WithConfigs(s.ctx, cfg)
}

// loadLedgerConfigs prefers the toml file shared with the ledger operator
// and falls back to plain environment variables.
func loadLedgerConfigs() config.LedgerConfigs {
	cfg := config.LedgerConfigs{
		Endpoint:         getEnv("LEDGER_ENDPOINT", "http://localhost:8545"),
		SecretKey:        getEnv("LEDGER_SECRET_KEY", ""),
		CallTimeout:      getDuration("LEDGER_CALL_TIMEOUT", 15*time.Second),
		ConfirmTimeout:   getDuration("LEDGER_CONFIRM_TIMEOUT", 2*time.Minute),
		ConfirmPollDelay: getDuration("LEDGER_CONFIRM_POLL_DELAY", 3*time.Second),
	}

	path := getEnv("LEDGER_CONFIG", "")
	if path == "" {
		return cfg
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		log.Fatalf("Cannot decode ledger config %s: %v", path, err)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("Invalid duration of %s: %v", key, err)
	}

	return d
}

func getInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("Invalid number of %s: %v", key, err)
	}

	return n
}
