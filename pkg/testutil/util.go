package testutil

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gitbounty-lab/backend/config"
	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/pkg/logger"
	"github.com/gitbounty-lab/backend/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func MockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		panic(err)
	}

	cfg := config.Configs{
		Auth: config.AuthConfigs{
			TokenSecret: "secret",
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: time.Minute,
			},
		},
		Webhook: config.WebhookConfigs{
			Secret: "webhook-secret",
		},
		Ledger: config.LedgerConfigs{
			SecretKey:        "ledger-secret",
			CallTimeout:      time.Minute,
			ConfirmTimeout:   time.Minute,
			ConfirmPollDelay: time.Millisecond,
		},
		Extractor: config.ExtractorConfigs{
			Model:   "gpt-4o-mini",
			Timeout: time.Minute,
		},
		Identity: config.IdentityConfigs{
			Timeout: time.Minute,
		},
		Pipeline: config.PipelineConfigs{
			ParseTopic:           "parse_comment",
			SettleTopic:          "settle_claim",
			ParseConcurrency:     1,
			SettleConcurrency:    1,
			ParseMaxAttempts:     5,
			SettleMaxAttempts:    8,
			BackoffBase:          30 * time.Second,
			BackoffCap:           time.Hour,
			ConfirmSweepInterval: time.Minute,
			RedeliverInterval:    time.Minute,
			ClaimNonceExpiration: time.Minute,
			HeartbeatExpiration:  time.Minute,
			PlatformFeeRate:      250,
		},
	}

	node, err := snowflake.NewNode(0)
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.SILENCE))
	ctx = xcontext.WithSnowFlake(ctx, node)
	ctx = xcontext.WithDB(ctx, db)

	if err := entity.MigrateTable(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func MockContextWithUserID(userID string) context.Context {
	return xcontext.WithRequestUserID(MockContext(), userID)
}
