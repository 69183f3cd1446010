package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gitbounty-lab/backend/internal/domain/queue"
	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/internal/model"
	"github.com/gitbounty-lab/backend/internal/repository"
	"github.com/gitbounty-lab/backend/pkg/errorx"
	"github.com/gitbounty-lab/backend/pkg/testutil"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func newTestRewardDomain() (RewardDomain, repository.JobRepository, map[string]string) {
	jobRepo := repository.NewJobRepository()

	store := map[string]string{}
	redisClient := &testutil.MockRedisClient{
		SetFunc: func(_ context.Context, key, value string, _ time.Duration) error {
			store[key] = value
			return nil
		},
		GetFunc: func(_ context.Context, key string) (string, error) {
			value, ok := store[key]
			if !ok {
				return "", errors.New("redis: nil")
			}

			return value, nil
		},
		DelFunc: func(_ context.Context, keys ...string) error {
			for _, key := range keys {
				delete(store, key)
			}

			return nil
		},
	}

	d := NewRewardDomain(
		repository.NewRewardRepository(),
		repository.NewPayoutRepository(),
		repository.NewRepoRepository(),
		repository.NewOrganizationRepository(),
		repository.NewContributorRepository(),
		repository.NewClaimAuditRepository(),
		jobRepo,
		queue.NewManager(jobRepo, &testutil.MockPublisher{}),
		redisClient,
	)

	return d, jobRepo, store
}

func requireErrorCode(t *testing.T, err error, code errorx.Code) {
	t.Helper()

	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, code, errx.Code)
}

func Test_rewardDomain_HandleCommentEvent(t *testing.T) {
	ctx := testutil.MockContext()
	repo := testutil.SampleRepo(ctx, nil)
	d, jobRepo, _ := newTestRewardDomain()

	_, err := d.HandleCommentEvent(ctx, &model.CommentCreatedRequest{
		RepositoryID: repo.ID, PRNumber: 7,
	})
	requireErrorCode(t, err, errorx.BadRequest)

	_, err = d.HandleCommentEvent(ctx, &model.CommentCreatedRequest{
		RepositoryID: "unknown", PRNumber: 7, CommentBody: "pay @alice 500",
	})
	requireErrorCode(t, err, errorx.NotFound)

	resp, err := d.HandleCommentEvent(ctx, &model.CommentCreatedRequest{
		RepositoryID:     repo.ID,
		PRNumber:         7,
		CommentBody:      "pay @alice 500",
		IssuerExternalID: "maintainer",
	})
	require.NoError(t, err)

	job, err := jobRepo.GetByID(ctx, resp.JobID)
	require.NoError(t, err)
	require.Equal(t, entity.JobTypeParseComment, job.Type)
	require.Equal(t, entity.JobWaiting, job.Status)

	// A re-delivered webhook maps onto the same job.
	again, err := d.HandleCommentEvent(ctx, &model.CommentCreatedRequest{
		RepositoryID:     repo.ID,
		PRNumber:         7,
		CommentBody:      "pay @alice 500",
		IssuerExternalID: "maintainer",
	})
	require.NoError(t, err)
	require.Equal(t, resp.JobID, again.JobID)
}

func Test_rewardDomain_ClaimReward_FullScenario(t *testing.T) {
	privateKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	wallet := ethcrypto.PubkeyToAddress(privateKey.PublicKey).Hex()

	ctx := testutil.MockContext()
	reward := testutil.SampleReward(ctx, &entity.Reward{Confirmed: true})
	ctx = xcontext.WithRequestUserID(ctx, reward.ContributorID)

	d, jobRepo, store := newTestRewardDomain()

	msgResp, err := d.GetClaimMessage(ctx, &model.GetClaimMessageRequest{
		RewardID:      reward.ID,
		WalletAddress: wallet,
	})
	require.NoError(t, err)

	message := msgResp.Message
	require.Equal(t, reward.ID, message.RewardID)
	require.Equal(t, int64(1000), message.RewardAmount)
	require.Equal(t, wallet, message.WalletAddress)
	require.NotEmpty(t, message.Nonce)

	encoded, err := message.Encode()
	require.NoError(t, err)

	signature, err := ethcrypto.Sign(accounts.TextHash(encoded), privateKey)
	require.NoError(t, err)
	signature[ethcrypto.RecoveryIDOffset] += 27

	resp, err := d.ClaimReward(ctx, &model.ClaimRewardRequest{
		RewardID:      reward.ID,
		WalletAddress: wallet,
		Signature:     hexutil.Encode(signature),
		Message:       message,
	})
	require.NoError(t, err)

	job, err := jobRepo.GetByID(ctx, resp.JobID)
	require.NoError(t, err)
	require.Equal(t, entity.JobTypeSettleClaim, job.Type)

	contributor, err := repository.NewContributorRepository().GetByID(ctx, reward.ContributorID)
	require.NoError(t, err)
	require.Equal(t, wallet, contributor.WalletAddress)

	// The nonce is single use.
	require.Empty(t, store)

	_, err = d.ClaimReward(ctx, &model.ClaimRewardRequest{
		RewardID:      reward.ID,
		WalletAddress: wallet,
		Signature:     hexutil.Encode(signature),
		Message:       message,
	})
	requireErrorCode(t, err, errorx.ExpiredClaimNonce)
}

func Test_rewardDomain_ClaimReward_Guards(t *testing.T) {
	ctx := testutil.MockContext()
	d, _, _ := newTestRewardDomain()

	t.Run("unknown reward", func(t *testing.T) {
		userCtx := xcontext.WithRequestUserID(ctx, "someone")
		_, err := d.GetClaimMessage(userCtx, &model.GetClaimMessageRequest{
			RewardID: "missing", WalletAddress: "0x1",
		})
		requireErrorCode(t, err, errorx.NotFound)
	})

	t.Run("only the contributor can claim", func(t *testing.T) {
		reward := testutil.SampleReward(ctx, &entity.Reward{Confirmed: true})
		userCtx := xcontext.WithRequestUserID(ctx, "someone-else")
		_, err := d.GetClaimMessage(userCtx, &model.GetClaimMessageRequest{
			RewardID: reward.ID, WalletAddress: "0x1",
		})
		requireErrorCode(t, err, errorx.PermissionDenied)
	})

	t.Run("unconfirmed reward", func(t *testing.T) {
		reward := testutil.SampleReward(ctx, nil)
		userCtx := xcontext.WithRequestUserID(ctx, reward.ContributorID)
		_, err := d.GetClaimMessage(userCtx, &model.GetClaimMessageRequest{
			RewardID: reward.ID, WalletAddress: "0x1",
		})
		requireErrorCode(t, err, errorx.RewardNotConfirmed)
	})

	t.Run("already claimed reward", func(t *testing.T) {
		reward := testutil.SampleReward(ctx, &entity.Reward{Confirmed: true, Claimed: true})
		userCtx := xcontext.WithRequestUserID(ctx, reward.ContributorID)
		_, err := d.GetClaimMessage(userCtx, &model.GetClaimMessageRequest{
			RewardID: reward.ID, WalletAddress: "0x1",
		})
		requireErrorCode(t, err, errorx.RewardAlreadyClaimed)
	})
}

func Test_rewardDomain_ClaimReward_BadSignature(t *testing.T) {
	privateKey, err := ethcrypto.GenerateKey()
	require.NoError(t, err)
	wallet := ethcrypto.PubkeyToAddress(privateKey.PublicKey).Hex()

	ctx := testutil.MockContext()
	reward := testutil.SampleReward(ctx, &entity.Reward{Confirmed: true})
	ctx = xcontext.WithRequestUserID(ctx, reward.ContributorID)

	d, _, _ := newTestRewardDomain()

	msgResp, err := d.GetClaimMessage(ctx, &model.GetClaimMessageRequest{
		RewardID:      reward.ID,
		WalletAddress: wallet,
	})
	require.NoError(t, err)
	message := msgResp.Message

	t.Run("tampered amount", func(t *testing.T) {
		tampered := message
		tampered.RewardAmount = 2000

		_, err := d.ClaimReward(ctx, &model.ClaimRewardRequest{
			RewardID:      reward.ID,
			WalletAddress: wallet,
			Signature:     "0x00",
			Message:       tampered,
		})
		requireErrorCode(t, err, errorx.BadRequest)
	})

	t.Run("signed by another key", func(t *testing.T) {
		otherKey, err := ethcrypto.GenerateKey()
		require.NoError(t, err)

		encoded, err := message.Encode()
		require.NoError(t, err)

		signature, err := ethcrypto.Sign(accounts.TextHash(encoded), otherKey)
		require.NoError(t, err)
		signature[ethcrypto.RecoveryIDOffset] += 27

		_, err = d.ClaimReward(ctx, &model.ClaimRewardRequest{
			RewardID:      reward.ID,
			WalletAddress: wallet,
			Signature:     hexutil.Encode(signature),
			Message:       message,
		})
		requireErrorCode(t, err, errorx.InvalidSignature)
	})
}

func Test_rewardDomain_GetReward(t *testing.T) {
	ctx := testutil.MockContext()
	d, _, _ := newTestRewardDomain()

	reward := testutil.SampleReward(ctx, &entity.Reward{Confirmed: true})

	resp, err := d.GetReward(ctx, &model.GetRewardRequest{RewardID: reward.ID})
	require.NoError(t, err)
	require.Equal(t, reward.ID, resp.Reward.ID)
	require.True(t, resp.Reward.Confirmed)
	require.Nil(t, resp.Payout)

	_, err = d.GetReward(ctx, &model.GetRewardRequest{RewardID: "missing"})
	requireErrorCode(t, err, errorx.NotFound)
}

func Test_rewardDomain_GetMyRewards(t *testing.T) {
	ctx := testutil.MockContext()
	d, _, _ := newTestRewardDomain()

	contributor := testutil.SampleContributor(ctx, nil)
	testutil.SampleReward(ctx, &entity.Reward{ContributorID: contributor.ID})
	testutil.SampleReward(ctx, nil)

	_, err := d.GetMyRewards(ctx, &model.GetMyRewardsRequest{})
	requireErrorCode(t, err, errorx.Unauthenticated)

	userCtx := xcontext.WithRequestUserID(ctx, contributor.ID)
	resp, err := d.GetMyRewards(userCtx, &model.GetMyRewardsRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Rewards, 1)
}
