package cron

import (
	"context"
	"time"

	"github.com/gitbounty-lab/backend/internal/domain/voucher"
)

// ConfirmVouchersCronJob is the bridge from unconfirmed to confirmed. It
// periodically stores the voucher of every unconfirmed reward on the
// ledger, so a reward becomes claimable without any user action.
type ConfirmVouchersCronJob struct {
	confirmer *voucher.Confirmer
	interval  time.Duration
}

func NewConfirmVouchersCronJob(
	confirmer *voucher.Confirmer, interval time.Duration,
) *ConfirmVouchersCronJob {
	return &ConfirmVouchersCronJob{confirmer: confirmer, interval: interval}
}

func (job *ConfirmVouchersCronJob) Do(ctx context.Context) {
	job.confirmer.Sweep(ctx)
}

func (job *ConfirmVouchersCronJob) RunNow() bool {
	return true
}

func (job *ConfirmVouchersCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}
