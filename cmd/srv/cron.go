package main

import (
	"github.com/gitbounty-lab/backend/internal/domain/cron"
	"github.com/gitbounty-lab/backend/internal/domain/queue"
	"github.com/gitbounty-lab/backend/internal/domain/voucher"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(*cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadPublisher()
	s.loadLedgerCaller()
	s.loadRepos()

	confirmer := voucher.NewConfirmer(
		s.rewardRepo,
		s.repoRepo,
		s.organizationRepo,
		s.contributorRepo,
		s.ledgerCaller,
	)

	s.queueManager = queue.NewManager(s.jobRepo, s.publisher)
	redeliverer := queue.NewRedeliverer(s.jobRepo, s.queueManager)

	cfg := xcontext.Configs(s.ctx).Pipeline
	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Register(cron.NewConfirmVouchersCronJob(confirmer, cfg.ConfirmSweepInterval))
	cronJobManager.Register(cron.NewRedeliverJobsCronJob(redeliverer, cfg.RedeliverInterval))
	cronJobManager.Start(s.ctx)

	return nil
}
