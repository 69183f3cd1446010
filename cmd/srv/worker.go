package main

import (
	"os/signal"
	"syscall"

	"github.com/gitbounty-lab/backend/internal/domain/parser"
	"github.com/gitbounty-lab/backend/internal/domain/queue"
	"github.com/gitbounty-lab/backend/internal/domain/settlement"
	"github.com/gitbounty-lab/backend/pkg/kafka"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startParser(*cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadCallers()
	s.loadRepos()

	processor := parser.NewWorker(
		s.rewardRepo,
		s.contributorRepo,
		s.newAuditRecorder(),
		s.extractorCaller,
		s.identityCaller,
	)

	cfg := xcontext.Configs(s.ctx)
	worker := queue.NewWorker(
		"parser", cfg.Pipeline.ParseConcurrency, processor, s.jobRepo, s.redisClient)

	return s.runWorker(worker, cfg.Pipeline.ParseTopic)
}

func (s *srv) startSettlement(*cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadLedgerCaller()
	s.loadRepos()

	processor := settlement.NewWorker(
		s.rewardRepo,
		s.payoutRepo,
		s.repoRepo,
		s.organizationRepo,
		s.contributorRepo,
		s.newAuditRecorder(),
		s.ledgerCaller,
	)

	cfg := xcontext.Configs(s.ctx)
	worker := queue.NewWorker(
		"settlement", cfg.Pipeline.SettleConcurrency, processor, s.jobRepo, s.redisClient)

	return s.runWorker(worker, cfg.Pipeline.SettleTopic)
}

func (s *srv) runWorker(worker *queue.Worker, topic string) error {
	cfg := xcontext.Configs(s.ctx)
	subscriber, err := kafka.NewSubscriber(
		"gitbounty-"+topic,
		[]string{cfg.Kafka.Addr},
		[]string{topic},
		worker.Handle,
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(s.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker.Start(ctx)
	subscriber.Subscribe(ctx)
	xcontext.Logger(s.ctx).Infof("Worker started on topic %s", topic)

	<-ctx.Done()
	xcontext.Logger(s.ctx).Infof("Worker stopping, draining in-flight jobs")
	if err := subscriber.Stop(s.ctx); err != nil {
		xcontext.Logger(s.ctx).Warnf("Cannot stop subscriber: %v", err)
	}

	worker.Wait()
	return nil
}
