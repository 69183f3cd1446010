package settlement

import (
	"context"

	"github.com/gitbounty-lab/backend/internal/client"
	"github.com/gitbounty-lab/backend/internal/domain/audit"
	"github.com/gitbounty-lab/backend/internal/domain/queue"
	"github.com/gitbounty-lab/backend/internal/domain/voucher"
	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/internal/model"
	"github.com/gitbounty-lab/backend/internal/repository"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
	"github.com/google/uuid"
)

const (
	reasonSettlePayload    = "SETTLE_PAYLOAD_ERROR"
	reasonRewardMissing    = "REWARD_MISSING"
	reasonRewardUnready    = "REWARD_NOT_CONFIRMED"
	reasonLedgerRejected   = "LEDGER_REJECTED"
	reasonLedgerUnreached  = "LEDGER_UNREACHABLE"
	reasonPayoutSettled    = "PAYOUT_SETTLED"
	reasonPayoutReconciled = "PAYOUT_RECONCILED"
)

// Worker settles an accepted claim against the ledger and records the
// payout. The ledger claim is not revocable, so the processor is written to
// survive a crash at any point: re-running it converges on the same payout
// without paying twice.
type Worker struct {
	rewardRepo       repository.RewardRepository
	payoutRepo       repository.PayoutRepository
	repoRepo         repository.RepoRepository
	organizationRepo repository.OrganizationRepository
	contributorRepo  repository.ContributorRepository
	recorder         *audit.Recorder
	ledgerCaller     client.LedgerCaller
}

func NewWorker(
	rewardRepo repository.RewardRepository,
	payoutRepo repository.PayoutRepository,
	repoRepo repository.RepoRepository,
	organizationRepo repository.OrganizationRepository,
	contributorRepo repository.ContributorRepository,
	recorder *audit.Recorder,
	ledgerCaller client.LedgerCaller,
) *Worker {
	return &Worker{
		rewardRepo:       rewardRepo,
		payoutRepo:       payoutRepo,
		repoRepo:         repoRepo,
		organizationRepo: organizationRepo,
		contributorRepo:  contributorRepo,
		recorder:         recorder,
		ledgerCaller:     ledgerCaller,
	}
}

func (w *Worker) Process(ctx context.Context, job *entity.Job) error {
	var payload model.ClaimSettlementJob
	if err := queue.DecodePayload(job.Payload, &payload); err != nil {
		w.recorder.Failure(ctx, job.ID, "", reasonSettlePayload, err.Error())
		return queue.Fatal("cannot decode settlement payload: %v", err)
	}

	reward, err := w.rewardRepo.GetByID(ctx, payload.RewardID)
	if err != nil {
		w.recorder.Failure(ctx, job.ID, payload.RewardID, reasonRewardMissing, err.Error())
		return queue.Fatal("cannot load reward %s: %v", payload.RewardID, err)
	}

	if reward.Claimed {
		// A previous attempt finished the database side already.
		return nil
	}

	if !reward.Confirmed {
		// The claim validator only accepts confirmed rewards, so an
		// unconfirmed one here means the job was forged or the row was
		// tampered with. Retrying cannot fix either.
		w.recorder.Failure(ctx, job.ID, reward.ID, reasonRewardUnready,
			"reward is not confirmed on the ledger")
		return queue.Fatal("reward %s is not confirmed", reward.ID)
	}

	repo, err := w.repoRepo.GetByID(ctx, reward.RepoID)
	if err != nil {
		return w.retryable(ctx, job, reward.ID, reasonRewardMissing, err)
	}

	org, err := w.organizationRepo.GetByID(ctx, repo.OrganizationID)
	if err != nil {
		return w.retryable(ctx, job, reward.ID, reasonRewardMissing, err)
	}

	contributor, err := w.contributorRepo.GetByID(ctx, reward.ContributorID)
	if err != nil {
		return w.retryable(ctx, job, reward.ID, reasonRewardMissing, err)
	}

	issuerAddress, err := voucher.IssuerAddress(ctx, org)
	if err != nil {
		return err
	}

	cfg := xcontext.Configs(ctx)
	callCtx, cancel := context.WithTimeout(ctx, cfg.Ledger.CallTimeout)
	resp, err := w.ledgerCaller.Claim(callCtx, &client.ClaimRequest{
		Secret:        reward.Secret,
		OwnerAddress:  issuerAddress,
		OrgID:         org.ExternalID,
		RepoID:        repo.ExternalID,
		PRNumber:      reward.PRNumber,
		ContributorID: contributor.ExternalID,
		Amount:        reward.TokenAmount,
		Destination:   payload.WalletAddress,
	})
	cancel()

	switch {
	case err == nil:
		waitCtx, cancel := context.WithTimeout(ctx, cfg.Ledger.ConfirmTimeout)
		waitErr := w.ledgerCaller.WaitConfirmation(waitCtx, resp.TxRef)
		cancel()
		if waitErr != nil {
			return w.retryable(ctx, job, reward.ID, reasonLedgerUnreached, waitErr)
		}

		return w.recordPayout(ctx, job, reward, payload.WalletAddress,
			resp.TxRef, resp.SettledAmount, reasonPayoutSettled)

	case client.IsLedgerReason(err, client.ReasonAlreadyClaimed):
		// The ledger settled this voucher but our row says unclaimed, so a
		// previous attempt crashed after the claim call. Finish the
		// database side; the transaction reference of the original
		// settlement is unknown at this point.
		return w.recordPayout(ctx, job, reward, payload.WalletAddress,
			"", 0, reasonPayoutReconciled)

	case client.IsLedgerReason(err, client.ReasonInvalidVoucher),
		client.IsLedgerReason(err, client.ReasonSignerRejected):
		w.recorder.Failure(ctx, job.ID, reward.ID, reasonLedgerRejected, err.Error())
		return queue.Fatal("ledger rejected claim of reward %s: %v", reward.ID, err)

	case client.IsLedgerReason(err, client.ReasonInsufficientBalance):
		// The organization's deposit cannot cover the claim. That is a
		// user-facing outcome for the surrounding notification flow, not
		// an infrastructure blip a retry could fix.
		w.recorder.Failure(ctx, job.ID, reward.ID,
			string(client.ReasonInsufficientBalance), err.Error())
		return queue.Fatal("insufficient balance to settle reward %s: %v", reward.ID, err)

	default:
		return w.retryable(ctx, job, reward.ID, reasonLedgerUnreached, err)
	}
}

// recordPayout flips the reward to claimed and writes the payout row in one
// transaction. The claimed flag is a compare-and-swap, so a concurrent
// settlement of the same reward degrades to a no-op here.
func (w *Worker) recordPayout(
	ctx context.Context, job *entity.Job, reward *entity.Reward,
	address, txRef string, settledAmount int64, reason string,
) error {
	fee := reward.TokenAmount * xcontext.Configs(ctx).Pipeline.PlatformFeeRate / 10000
	if settledAmount == 0 {
		settledAmount = reward.TokenAmount - fee
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	claimed, err := w.rewardRepo.MarkClaimed(ctx, reward.ID)
	if err != nil {
		return err
	}

	if !claimed {
		// Someone beat us to it; their payout row is authoritative.
		return nil
	}

	err = w.payoutRepo.Create(ctx, &entity.Payout{
		Base:          entity.Base{ID: uuid.NewString()},
		RewardID:      reward.ID,
		TxRef:         txRef,
		Address:       address,
		SettledAmount: settledAmount,
		PlatformFee:   fee,
	})
	if err != nil {
		return err
	}

	w.recorder.Info(ctx, job.ID, reward.ID, reason, "reward settled to "+address)
	xcontext.WithCommitDBTransaction(ctx)
	return nil
}

// retryable persists the failure audit before handing the error back to
// the queue, so an operator can see why a claim failed even while the job
// is still being retried.
func (w *Worker) retryable(
	ctx context.Context, job *entity.Job, rewardID, reason string, err error,
) error {
	w.recorder.Failure(ctx, job.ID, rewardID, reason, err.Error())
	return err
}
