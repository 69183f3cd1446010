package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/gitbounty-lab/backend/internal/client"
	"github.com/gitbounty-lab/backend/internal/domain/audit"
	"github.com/gitbounty-lab/backend/internal/domain/queue"
	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/internal/model"
	"github.com/gitbounty-lab/backend/internal/repository"
	"github.com/gitbounty-lab/backend/pkg/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestWorker(ledgerCaller client.LedgerCaller) *Worker {
	return NewWorker(
		repository.NewRewardRepository(),
		repository.NewPayoutRepository(),
		repository.NewRepoRepository(),
		repository.NewOrganizationRepository(),
		repository.NewContributorRepository(),
		audit.NewRecorder(repository.NewClaimAuditRepository()),
		ledgerCaller,
	)
}

func settleJob(t *testing.T, payload model.ClaimSettlementJob) *entity.Job {
	t.Helper()

	b, err := json.Marshal(payload)
	require.NoError(t, err)

	var m entity.Map
	require.NoError(t, json.Unmarshal(b, &m))

	return &entity.Job{
		Base:        entity.Base{ID: uuid.NewString()},
		Type:        entity.JobTypeSettleClaim,
		Payload:     m,
		Status:      entity.JobActive,
		MaxAttempts: 8,
	}
}

func Test_Worker_Process_SettlesClaim(t *testing.T) {
	ctx := testutil.MockContext()
	reward := testutil.SampleReward(ctx, &entity.Reward{Confirmed: true})

	var claimReq *client.ClaimRequest
	ledgerCaller := &testutil.MockLedgerCaller{
		ClaimFunc: func(_ context.Context, req *client.ClaimRequest) (*client.ClaimResponse, error) {
			claimReq = req
			return &client.ClaimResponse{TxRef: "tx-claim", SettledAmount: req.Amount}, nil
		},
	}

	w := newTestWorker(ledgerCaller)
	job := settleJob(t, model.ClaimSettlementJob{
		RewardID:      reward.ID,
		WalletAddress: "0x00000000000000000000000000000000000000aa",
	})

	require.NoError(t, w.Process(ctx, job))

	require.Equal(t, reward.Secret, claimReq.Secret)
	require.Equal(t, "0x00000000000000000000000000000000000000aa", claimReq.Destination)

	got, err := repository.NewRewardRepository().GetByID(ctx, reward.ID)
	require.NoError(t, err)
	require.True(t, got.Claimed)

	payout, err := repository.NewPayoutRepository().GetByRewardID(ctx, reward.ID)
	require.NoError(t, err)
	require.Equal(t, "tx-claim", payout.TxRef)
	require.Equal(t, int64(1000), payout.SettledAmount)
	require.Equal(t, int64(25), payout.PlatformFee)
	require.Equal(t, "0x00000000000000000000000000000000000000aa", payout.Address)

	audits, err := repository.NewClaimAuditRepository().GetByRewardID(ctx, reward.ID)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	require.Equal(t, reasonPayoutSettled, audits[0].Reason)

	// Re-delivery after the payout is recorded is a no-op.
	require.NoError(t, w.Process(ctx, job))

	audits, err = repository.NewClaimAuditRepository().GetByRewardID(ctx, reward.ID)
	require.NoError(t, err)
	require.Len(t, audits, 1)
}

func Test_Worker_Process_UnconfirmedRewardIsFatal(t *testing.T) {
	ctx := testutil.MockContext()
	reward := testutil.SampleReward(ctx, nil)

	w := newTestWorker(&testutil.MockLedgerCaller{})
	job := settleJob(t, model.ClaimSettlementJob{RewardID: reward.ID, WalletAddress: "0x1"})

	err := w.Process(ctx, job)
	var fatal queue.FatalError
	require.ErrorAs(t, err, &fatal)

	got, err := repository.NewRewardRepository().GetByID(ctx, reward.ID)
	require.NoError(t, err)
	require.False(t, got.Claimed)

	audits, err := repository.NewClaimAuditRepository().GetByRewardID(ctx, reward.ID)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	require.Equal(t, reasonRewardUnready, audits[0].Reason)
	require.Equal(t, entity.AuditFailure, audits[0].Level)
}

func Test_Worker_Process_ReconcilesAlreadyClaimed(t *testing.T) {
	ctx := testutil.MockContext()
	reward := testutil.SampleReward(ctx, &entity.Reward{Confirmed: true})

	ledgerCaller := &testutil.MockLedgerCaller{
		ClaimFunc: func(context.Context, *client.ClaimRequest) (*client.ClaimResponse, error) {
			return nil, client.LedgerError{
				Reason:  client.ReasonAlreadyClaimed,
				Message: "voucher already claimed",
			}
		},
	}

	w := newTestWorker(ledgerCaller)
	job := settleJob(t, model.ClaimSettlementJob{
		RewardID:      reward.ID,
		WalletAddress: "0x00000000000000000000000000000000000000aa",
	})

	require.NoError(t, w.Process(ctx, job))

	got, err := repository.NewRewardRepository().GetByID(ctx, reward.ID)
	require.NoError(t, err)
	require.True(t, got.Claimed)

	// The original transaction reference is unknown; the amount falls
	// back to the voucher amount minus the fee.
	payout, err := repository.NewPayoutRepository().GetByRewardID(ctx, reward.ID)
	require.NoError(t, err)
	require.Empty(t, payout.TxRef)
	require.Equal(t, int64(975), payout.SettledAmount)
	require.Equal(t, int64(25), payout.PlatformFee)

	audits, err := repository.NewClaimAuditRepository().GetByRewardID(ctx, reward.ID)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	require.Equal(t, reasonPayoutReconciled, audits[0].Reason)
}

func Test_Worker_Process_LedgerRejectionIsFatal(t *testing.T) {
	ctx := testutil.MockContext()
	reward := testutil.SampleReward(ctx, &entity.Reward{Confirmed: true})

	ledgerCaller := &testutil.MockLedgerCaller{
		ClaimFunc: func(context.Context, *client.ClaimRequest) (*client.ClaimResponse, error) {
			return nil, client.LedgerError{
				Reason:  client.ReasonInvalidVoucher,
				Message: "commitment mismatch",
			}
		},
	}

	w := newTestWorker(ledgerCaller)
	job := settleJob(t, model.ClaimSettlementJob{RewardID: reward.ID, WalletAddress: "0x1"})

	err := w.Process(ctx, job)
	var fatal queue.FatalError
	require.ErrorAs(t, err, &fatal)

	got, err := repository.NewRewardRepository().GetByID(ctx, reward.ID)
	require.NoError(t, err)
	require.False(t, got.Claimed)

	_, err = repository.NewPayoutRepository().GetByRewardID(ctx, reward.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func Test_Worker_Process_InsufficientBalanceIsTerminal(t *testing.T) {
	ctx := testutil.MockContext()
	reward := testutil.SampleReward(ctx, &entity.Reward{Confirmed: true})

	ledgerCaller := &testutil.MockLedgerCaller{
		ClaimFunc: func(context.Context, *client.ClaimRequest) (*client.ClaimResponse, error) {
			return nil, client.LedgerError{
				Reason:  client.ReasonInsufficientBalance,
				Message: "deposit cannot cover the converted amount",
			}
		},
	}

	w := newTestWorker(ledgerCaller)
	job := settleJob(t, model.ClaimSettlementJob{RewardID: reward.ID, WalletAddress: "0x1"})

	err := w.Process(ctx, job)
	var fatal queue.FatalError
	require.ErrorAs(t, err, &fatal)

	got, err := repository.NewRewardRepository().GetByID(ctx, reward.ID)
	require.NoError(t, err)
	require.False(t, got.Claimed)

	_, err = repository.NewPayoutRepository().GetByRewardID(ctx, reward.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The first occurrence must already carry the classified reason.
	audits, err := repository.NewClaimAuditRepository().GetByRewardID(ctx, reward.ID)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	require.Equal(t, string(client.ReasonInsufficientBalance), audits[0].Reason)
	require.Equal(t, entity.AuditFailure, audits[0].Level)
}

func Test_Worker_Process_UnreachableLedgerIsRetryable(t *testing.T) {
	ctx := testutil.MockContext()
	reward := testutil.SampleReward(ctx, &entity.Reward{Confirmed: true})

	ledgerCaller := &testutil.MockLedgerCaller{
		ClaimFunc: func(context.Context, *client.ClaimRequest) (*client.ClaimResponse, error) {
			return nil, errors.New("connection refused")
		},
	}

	w := newTestWorker(ledgerCaller)
	job := settleJob(t, model.ClaimSettlementJob{RewardID: reward.ID, WalletAddress: "0x1"})

	err := w.Process(ctx, job)
	require.Error(t, err)

	var fatal queue.FatalError
	require.False(t, errors.As(err, &fatal))

	got, err := repository.NewRewardRepository().GetByID(ctx, reward.ID)
	require.NoError(t, err)
	require.False(t, got.Claimed)

	// The audit trail explains the failure even before the retries run
	// out.
	audits, err := repository.NewClaimAuditRepository().GetByRewardID(ctx, reward.ID)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	require.Equal(t, reasonLedgerUnreached, audits[0].Reason)
	require.Equal(t, entity.AuditFailure, audits[0].Level)
}
