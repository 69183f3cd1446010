package domain

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gitbounty-lab/backend/internal/domain/queue"
	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/internal/model"
	"github.com/gitbounty-lab/backend/internal/repository"
	"github.com/gitbounty-lab/backend/pkg/crypto"
	"github.com/gitbounty-lab/backend/pkg/errorx"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
	"github.com/gitbounty-lab/backend/pkg/xredis"
	"gorm.io/gorm"
)

const claimNonceKeyPrefix = "claim_nonce:"

type RewardDomain interface {
	HandleCommentEvent(context.Context, *model.CommentCreatedRequest) (*model.CommentCreatedResponse, error)
	GetClaimMessage(context.Context, *model.GetClaimMessageRequest) (*model.GetClaimMessageResponse, error)
	ClaimReward(context.Context, *model.ClaimRewardRequest) (*model.ClaimRewardResponse, error)
	GetMyRewards(context.Context, *model.GetMyRewardsRequest) (*model.GetMyRewardsResponse, error)
	GetReward(context.Context, *model.GetRewardRequest) (*model.GetRewardResponse, error)
	GetRewardAudits(context.Context, *model.GetRewardAuditsRequest) (*model.GetRewardAuditsResponse, error)
	GetWorkerStatus(context.Context, *model.GetWorkerStatusRequest) (*model.GetWorkerStatusResponse, error)
}

type rewardDomain struct {
	rewardRepo       repository.RewardRepository
	payoutRepo       repository.PayoutRepository
	repoRepo         repository.RepoRepository
	organizationRepo repository.OrganizationRepository
	contributorRepo  repository.ContributorRepository
	claimAuditRepo   repository.ClaimAuditRepository
	jobRepo          repository.JobRepository
	queueManager     *queue.Manager
	redisClient      xredis.Client
}

func NewRewardDomain(
	rewardRepo repository.RewardRepository,
	payoutRepo repository.PayoutRepository,
	repoRepo repository.RepoRepository,
	organizationRepo repository.OrganizationRepository,
	contributorRepo repository.ContributorRepository,
	claimAuditRepo repository.ClaimAuditRepository,
	jobRepo repository.JobRepository,
	queueManager *queue.Manager,
	redisClient xredis.Client,
) *rewardDomain {
	return &rewardDomain{
		rewardRepo:       rewardRepo,
		payoutRepo:       payoutRepo,
		repoRepo:         repoRepo,
		organizationRepo: organizationRepo,
		contributorRepo:  contributorRepo,
		claimAuditRepo:   claimAuditRepo,
		jobRepo:          jobRepo,
		queueManager:     queueManager,
		redisClient:      redisClient,
	}
}

// HandleCommentEvent accepts a comment webhook on a merged pull request and
// queues it for extraction. Acceptance is durable: once this returns, a
// broker or worker outage cannot lose the comment.
func (d *rewardDomain) HandleCommentEvent(
	ctx context.Context, req *model.CommentCreatedRequest,
) (*model.CommentCreatedResponse, error) {
	if req.RepositoryID == "" || req.CommentBody == "" || req.PRNumber <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Not meet all required fields")
	}

	if _, err := d.repoRepo.GetByID(ctx, req.RepositoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found repository")
		}

		xcontext.Logger(ctx).Errorf("Cannot get repository: %v", err)
		return nil, errorx.Unknown
	}

	job, err := d.queueManager.Enqueue(ctx, entity.JobTypeParseComment, model.CommentParseJob{
		CommentBody:           req.CommentBody,
		PRNumber:              req.PRNumber,
		ContributorExternalID: req.PRAuthorExternalID,
		IssuerExternalID:      req.IssuerExternalID,
		RepositoryID:          req.RepositoryID,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot enqueue parse job: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CommentCreatedResponse{JobID: job.ID}, nil
}

// GetClaimMessage builds the message a contributor must sign to claim a
// reward. The embedded nonce is single use and expires on its own.
func (d *rewardDomain) GetClaimMessage(
	ctx context.Context, req *model.GetClaimMessageRequest,
) (*model.GetClaimMessageResponse, error) {
	reward, err := d.loadClaimableReward(ctx, req.RewardID)
	if err != nil {
		return nil, err
	}

	repo, org, contributor, err := d.loadRewardRefs(ctx, reward)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot load reward references: %v", err)
		return nil, errorx.Unknown
	}

	nonce, err := crypto.GenerateRandomString()
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate claim nonce: %v", err)
		return nil, errorx.Unknown
	}

	expiration := xcontext.Configs(ctx).Pipeline.ClaimNonceExpiration
	err = d.redisClient.Set(ctx, claimNonceKeyPrefix+reward.ID, nonce, expiration)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot store claim nonce: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetClaimMessageResponse{
		Message: model.ClaimMessage{
			WalletAddress:          req.WalletAddress,
			ContributorExternalID:  contributor.ExternalID,
			OrganizationExternalID: org.ExternalID,
			RepositoryExternalID:   repo.ExternalID,
			PRNumber:               reward.PRNumber,
			RewardAmount:           reward.TokenAmount,
			Timestamp:              time.Now().Unix(),
			Nonce:                  nonce,
			RewardID:               reward.ID,
		},
	}, nil
}

// ClaimReward validates a signed claim and queues it for settlement. The
// reward is not marked claimed here; only the settlement worker does that,
// after the ledger accepted the claim.
func (d *rewardDomain) ClaimReward(
	ctx context.Context, req *model.ClaimRewardRequest,
) (*model.ClaimRewardResponse, error) {
	reward, err := d.loadClaimableReward(ctx, req.RewardID)
	if err != nil {
		return nil, err
	}

	nonce, err := d.redisClient.Get(ctx, claimNonceKeyPrefix+reward.ID)
	if err != nil || nonce != req.Message.Nonce {
		return nil, errorx.New(errorx.ExpiredClaimNonce, "Claim nonce is expired or invalid")
	}

	if req.Message.RewardID != reward.ID ||
		req.Message.RewardAmount != reward.TokenAmount ||
		req.Message.PRNumber != reward.PRNumber ||
		req.Message.WalletAddress != req.WalletAddress {
		return nil, errorx.New(errorx.BadRequest, "Mismatched claim message")
	}

	if err := verifyClaimSignature(ctx, req); err != nil {
		return nil, err
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	err = d.contributorRepo.LinkWallet(ctx, reward.ContributorID, req.WalletAddress)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot link wallet: %v", err)
		return nil, errorx.Unknown
	}

	job, err := d.queueManager.Enqueue(ctx, entity.JobTypeSettleClaim, model.ClaimSettlementJob{
		RewardID:      reward.ID,
		WalletAddress: req.WalletAddress,
		Signature:     req.Signature,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot enqueue settlement job: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(ctx)

	if err := d.redisClient.Del(ctx, claimNonceKeyPrefix+reward.ID); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot delete claim nonce: %v", err)
	}

	return &model.ClaimRewardResponse{JobID: job.ID}, nil
}

func (d *rewardDomain) GetMyRewards(
	ctx context.Context, req *model.GetMyRewardsRequest,
) (*model.GetMyRewardsResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	if userID == "" {
		return nil, errorx.New(errorx.Unauthenticated, "Not authenticated")
	}

	rewards, err := d.rewardRepo.GetByContributorID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get rewards: %v", err)
		return nil, errorx.Unknown
	}

	result := make([]model.Reward, 0, len(rewards))
	for _, r := range rewards {
		result = append(result, model.ConvertReward(&r))
	}

	return &model.GetMyRewardsResponse{Rewards: result}, nil
}

func (d *rewardDomain) GetReward(
	ctx context.Context, req *model.GetRewardRequest,
) (*model.GetRewardResponse, error) {
	reward, err := d.rewardRepo.GetByID(ctx, req.RewardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found reward")
		}

		xcontext.Logger(ctx).Errorf("Cannot get reward: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetRewardResponse{Reward: model.ConvertReward(reward)}
	if reward.Claimed {
		payout, err := d.payoutRepo.GetByRewardID(ctx, reward.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get payout: %v", err)
			return nil, errorx.Unknown
		}

		if payout != nil {
			converted := model.ConvertPayout(payout)
			resp.Payout = &converted
		}
	}

	return resp, nil
}

func (d *rewardDomain) GetRewardAudits(
	ctx context.Context, req *model.GetRewardAuditsRequest,
) (*model.GetRewardAuditsResponse, error) {
	audits, err := d.claimAuditRepo.GetByRewardID(ctx, req.RewardID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get audits: %v", err)
		return nil, errorx.Unknown
	}

	result := make([]model.ClaimAudit, 0, len(audits))
	for _, a := range audits {
		result = append(result, model.ConvertClaimAudit(&a))
	}

	return &model.GetRewardAuditsResponse{Audits: result}, nil
}

func (d *rewardDomain) GetWorkerStatus(
	ctx context.Context, req *model.GetWorkerStatusRequest,
) (*model.GetWorkerStatusResponse, error) {
	queues, err := queue.QueueStatuses(ctx, d.jobRepo)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot aggregate queue status: %v", err)
		return nil, errorx.Unknown
	}

	workers, err := queue.WorkerStatuses(ctx, d.redisClient)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot list worker heartbeats: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetWorkerStatusResponse{Queues: queues, Workers: workers}, nil
}

// loadClaimableReward loads a reward and checks it is ready to be claimed
// by the requesting user.
func (d *rewardDomain) loadClaimableReward(
	ctx context.Context, rewardID string,
) (*entity.Reward, error) {
	reward, err := d.rewardRepo.GetByID(ctx, rewardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found reward")
		}

		xcontext.Logger(ctx).Errorf("Cannot get reward: %v", err)
		return nil, errorx.Unknown
	}

	if userID := xcontext.RequestUserID(ctx); userID != reward.ContributorID {
		return nil, errorx.New(errorx.PermissionDenied, "Only the contributor can claim")
	}

	if !reward.Confirmed {
		return nil, errorx.New(errorx.RewardNotConfirmed,
			"Reward is not yet confirmed on the ledger")
	}

	if reward.Claimed {
		return nil, errorx.New(errorx.RewardAlreadyClaimed, "Reward is already claimed")
	}

	return reward, nil
}

func (d *rewardDomain) loadRewardRefs(
	ctx context.Context, reward *entity.Reward,
) (*entity.Repo, *entity.Organization, *entity.Contributor, error) {
	repo, err := d.repoRepo.GetByID(ctx, reward.RepoID)
	if err != nil {
		return nil, nil, nil, err
	}

	org, err := d.organizationRepo.GetByID(ctx, repo.OrganizationID)
	if err != nil {
		return nil, nil, nil, err
	}

	contributor, err := d.contributorRepo.GetByID(ctx, reward.ContributorID)
	if err != nil {
		return nil, nil, nil, err
	}

	return repo, org, contributor, nil
}

func verifyClaimSignature(ctx context.Context, req *model.ClaimRewardRequest) error {
	encoded, err := req.Message.Encode()
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot encode claim message: %v", err)
		return errorx.Unknown
	}

	hash := accounts.TextHash(encoded)
	signature, err := hexutil.Decode(req.Signature)
	if err != nil {
		return errorx.New(errorx.InvalidSignature, "Cannot decode signature")
	}

	if len(signature) != ethcrypto.SignatureLength {
		return errorx.New(errorx.InvalidSignature, "Invalid signature length")
	}

	if signature[ethcrypto.RecoveryIDOffset] == 27 || signature[ethcrypto.RecoveryIDOffset] == 28 {
		signature[ethcrypto.RecoveryIDOffset] -= 27 // Transform yellow paper V from 27/28 to 0/1
	}

	recovered, err := ethcrypto.SigToPub(hash, signature)
	if err != nil {
		return errorx.New(errorx.InvalidSignature, "Cannot recover signature to address")
	}

	recoveredAddr := ethcrypto.PubkeyToAddress(*recovered)
	if !bytes.Equal(recoveredAddr.Bytes(), ethcommon.HexToAddress(req.WalletAddress).Bytes()) {
		return errorx.New(errorx.InvalidSignature, "Mismatched address")
	}

	return nil
}
