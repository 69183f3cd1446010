package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env string

	Database  DatabaseConfigs
	ApiServer ServerConfigs
	Auth      AuthConfigs
	Redis     RedisConfigs
	Kafka     KafkaConfigs
	Webhook   WebhookConfigs
	Ledger    LedgerConfigs
	Extractor ExtractorConfigs
	Identity  IdentityConfigs
	Pipeline  PipelineConfigs
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
	LogLevel string
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host      string
	Port      string
	AllowCORS []string
}

func (c ServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type AuthConfigs struct {
	TokenSecret string
	AccessToken TokenConfigs
}

type TokenConfigs struct {
	Name       string
	Expiration time.Duration
}

type RedisConfigs struct {
	Addr string
}

type KafkaConfigs struct {
	Addr string
}

type WebhookConfigs struct {
	Secret string
}

// LedgerConfigs points at the settlement ledger RPC endpoint. The issuer
// wallet of every organization is derived from SecretKey and the
// organization's wallet nonce, so SecretKey must never be rotated while
// vouchers are outstanding.
type LedgerConfigs struct {
	Endpoint         string        `toml:"endpoint"`
	SecretKey        string        `toml:"secret_key"`
	CallTimeout      time.Duration `toml:"call_timeout"`
	ConfirmTimeout   time.Duration `toml:"confirm_timeout"`
	ConfirmPollDelay time.Duration `toml:"confirm_poll_delay"`
}

type ExtractorConfigs struct {
	Endpoint string
	ApiKey   string
	Model    string
	Timeout  time.Duration
}

type IdentityConfigs struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
}

type PipelineConfigs struct {
	ParseTopic  string
	SettleTopic string

	ParseConcurrency  int
	SettleConcurrency int

	ParseMaxAttempts  int
	SettleMaxAttempts int

	BackoffBase time.Duration
	BackoffCap  time.Duration

	ConfirmSweepInterval time.Duration
	RedeliverInterval    time.Duration

	ClaimNonceExpiration time.Duration
	HeartbeatExpiration  time.Duration

	// PlatformFeeRate is expressed in basis points of the settled amount.
	PlatformFeeRate int64
}
