package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"github.com/gitbounty-lab/backend/internal/client"
	"github.com/gitbounty-lab/backend/internal/domain"
	"github.com/gitbounty-lab/backend/internal/domain/audit"
	"github.com/gitbounty-lab/backend/internal/domain/queue"
	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/internal/model"
	"github.com/gitbounty-lab/backend/internal/repository"
	"github.com/gitbounty-lab/backend/pkg/jwt"
	"github.com/gitbounty-lab/backend/pkg/kafka"
	"github.com/gitbounty-lab/backend/pkg/logger"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
	"github.com/gitbounty-lab/backend/pkg/xredis"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func (s *srv) loadLogger() {
	level := logger.INFO
	if xcontext.Configs(s.ctx).Env == "local" {
		level = logger.DEBUG
	}

	s.ctx = xcontext.WithLogger(s.ctx, logger.NewLogger(level))
}

func (s *srv) loadSnowFlake() {
	node, err := snowflake.NewNode(int64(getInt("SNOWFLAKE_NODE", 0)))
	if err != nil {
		log.Fatalf("Cannot create snowflake node: %v", err)
	}

	s.ctx = xcontext.WithSnowFlake(s.ctx, node)
}

func (s *srv) newDatabase() *gorm.DB {
	cfg := xcontext.Configs(s.ctx)

	logLevel := gormlogger.Error
	if cfg.Database.LogLevel == "info" {
		logLevel = gormlogger.Info
	}

	// TranslateError turns driver duplicate-key errors into
	// gorm.ErrDuplicatedKey, which the idempotency checks depend on.
	db, err := gorm.Open(mysql.Open(cfg.Database.ConnectionString()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		panic(err)
	}

	return db
}

func (s *srv) migrateDB() {
	if err := entity.MigrateTable(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadRedisClient() {
	var err error
	s.redisClient, err = xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadPublisher() {
	var err error
	s.publisher, err = kafka.NewPublisher(
		"gitbounty", []string{xcontext.Configs(s.ctx).Kafka.Addr})
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadLedgerCaller() {
	var err error
	s.ledgerCaller, err = client.NewLedgerCaller(s.ctx)
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadCallers() {
	cfg := xcontext.Configs(s.ctx)
	s.extractorCaller = client.NewAIExtractorCaller(
		cfg.Extractor.Endpoint, cfg.Extractor.ApiKey, cfg.Extractor.Model)
	s.identityCaller = client.NewGithubIdentityCaller(
		cfg.Identity.Endpoint, cfg.Identity.Token)
}

func (s *srv) loadRepos() {
	s.contributorRepo = repository.NewContributorRepository()
	s.organizationRepo = repository.NewOrganizationRepository()
	s.repoRepo = repository.NewRepoRepository()
	s.rewardRepo = repository.NewRewardRepository()
	s.payoutRepo = repository.NewPayoutRepository()
	s.claimAuditRepo = repository.NewClaimAuditRepository()
	s.jobRepo = repository.NewJobRepository()
}

func (s *srv) loadDomains() {
	cfg := xcontext.Configs(s.ctx)
	s.accessTokenEngine = jwt.NewEngine[model.AccessToken](
		cfg.Auth.TokenSecret, cfg.Auth.AccessToken.Expiration)

	s.queueManager = queue.NewManager(s.jobRepo, s.publisher)
	s.rewardDomain = domain.NewRewardDomain(
		s.rewardRepo,
		s.payoutRepo,
		s.repoRepo,
		s.organizationRepo,
		s.contributorRepo,
		s.claimAuditRepo,
		s.jobRepo,
		s.queueManager,
		s.redisClient,
	)
}

func (s *srv) newAuditRecorder() *audit.Recorder {
	return audit.NewRecorder(s.claimAuditRepo)
}
