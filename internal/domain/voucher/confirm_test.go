package voucher

import (
	"context"
	"errors"
	"testing"

	"github.com/gitbounty-lab/backend/internal/client"
	"github.com/gitbounty-lab/backend/internal/repository"
	"github.com/gitbounty-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func newTestConfirmer(ledgerCaller client.LedgerCaller) *Confirmer {
	return NewConfirmer(
		repository.NewRewardRepository(),
		repository.NewRepoRepository(),
		repository.NewOrganizationRepository(),
		repository.NewContributorRepository(),
		ledgerCaller,
	)
}

func Test_Confirmer_Sweep(t *testing.T) {
	ctx := testutil.MockContext()
	reward := testutil.SampleReward(ctx, nil)

	var requests []*client.StoreVoucherRequest
	ledgerCaller := &testutil.MockLedgerCaller{
		StoreVoucherFunc: func(_ context.Context, req *client.StoreVoucherRequest) (*client.StoreVoucherResponse, error) {
			requests = append(requests, req)
			return &client.StoreVoucherResponse{TxRef: "tx-1"}, nil
		},
	}

	confirmer := newTestConfirmer(ledgerCaller)
	confirmer.Sweep(ctx)

	got, err := repository.NewRewardRepository().GetByID(ctx, reward.ID)
	require.NoError(t, err)
	require.True(t, got.Confirmed)

	require.Len(t, requests, 1)
	require.Equal(t, int64(1000), requests[0].Amount)
	require.Equal(t, int64(1), requests[0].PRNumber)
	require.NotEmpty(t, requests[0].Commitment)
	require.NotEmpty(t, requests[0].OwnerAddress)

	// Nothing unconfirmed is left; a second sweep talks to no one.
	confirmer.Sweep(ctx)
	require.Len(t, requests, 1)
}

func Test_Confirmer_ConfirmReward_VoucherExists(t *testing.T) {
	ctx := testutil.MockContext()
	reward := testutil.SampleReward(ctx, nil)

	ledgerCaller := &testutil.MockLedgerCaller{
		StoreVoucherFunc: func(context.Context, *client.StoreVoucherRequest) (*client.StoreVoucherResponse, error) {
			return nil, client.LedgerError{
				Reason:  client.ReasonVoucherExists,
				Message: "voucher already stored",
			}
		},
	}

	// A crash between storing the voucher and flipping the flag leaves an
	// unconfirmed reward whose voucher the ledger already holds. The next
	// sweep must treat that as success.
	err := newTestConfirmer(ledgerCaller).ConfirmReward(ctx, &reward)
	require.NoError(t, err)

	got, err := repository.NewRewardRepository().GetByID(ctx, reward.ID)
	require.NoError(t, err)
	require.True(t, got.Confirmed)
}

func Test_Confirmer_ConfirmReward_LedgerDown(t *testing.T) {
	ctx := testutil.MockContext()
	reward := testutil.SampleReward(ctx, nil)

	ledgerCaller := &testutil.MockLedgerCaller{
		StoreVoucherFunc: func(context.Context, *client.StoreVoucherRequest) (*client.StoreVoucherResponse, error) {
			return nil, errors.New("connection refused")
		},
	}

	err := newTestConfirmer(ledgerCaller).ConfirmReward(ctx, &reward)
	require.Error(t, err)

	got, err := repository.NewRewardRepository().GetByID(ctx, reward.ID)
	require.NoError(t, err)
	require.False(t, got.Confirmed)
}
