package parser

import (
	"context"
	"errors"

	"github.com/gitbounty-lab/backend/internal/client"
	"github.com/gitbounty-lab/backend/internal/domain/audit"
	"github.com/gitbounty-lab/backend/internal/domain/queue"
	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/internal/model"
	"github.com/gitbounty-lab/backend/internal/repository"
	"github.com/gitbounty-lab/backend/pkg/crypto"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	reasonParseError          = "AI_PARSE_ERROR"
	reasonContributorNotFound = "CONTRIBUTOR_NOT_FOUND"
	reasonRewardCreated       = "REWARD_CREATED"
	reasonDuplicateReward     = "DUPLICATE_REWARD"
	reasonNotAnApproval       = "NOT_AN_APPROVAL"
)

// Worker turns an approval comment into reward rows. The whole processor is
// idempotent: re-running a job against already created rewards completes
// without side effects.
type Worker struct {
	rewardRepo      repository.RewardRepository
	contributorRepo repository.ContributorRepository
	recorder        *audit.Recorder
	extractorCaller client.ExtractorCaller
	identityCaller  client.IdentityCaller
}

func NewWorker(
	rewardRepo repository.RewardRepository,
	contributorRepo repository.ContributorRepository,
	recorder *audit.Recorder,
	extractorCaller client.ExtractorCaller,
	identityCaller client.IdentityCaller,
) *Worker {
	return &Worker{
		rewardRepo:      rewardRepo,
		contributorRepo: contributorRepo,
		recorder:        recorder,
		extractorCaller: extractorCaller,
		identityCaller:  identityCaller,
	}
}

func (w *Worker) Process(ctx context.Context, job *entity.Job) error {
	var payload model.CommentParseJob
	if err := queue.DecodePayload(job.Payload, &payload); err != nil {
		w.recorder.Failure(ctx, job.ID, "", reasonParseError, err.Error())
		return queue.Fatal("cannot decode parse payload: %v", err)
	}

	cfg := xcontext.Configs(ctx)
	extractCtx, cancel := context.WithTimeout(ctx, cfg.Extractor.Timeout)
	rewards, err := w.extractorCaller.Extract(extractCtx, payload.CommentBody)
	cancel()

	if errors.Is(err, client.ErrMalformedExtraction) {
		w.recorder.Failure(ctx, job.ID, "", reasonParseError, err.Error())
		return queue.Fatal("extraction rejected: %v", err)
	}

	if err != nil {
		return w.retryable(ctx, job, "", reasonParseError, err)
	}

	if len(rewards) == 0 {
		w.recorder.Info(ctx, job.ID, "", reasonNotAnApproval,
			"comment does not grant a reward")
		return nil
	}

	for _, extracted := range rewards {
		if err := w.createReward(ctx, job, payload, extracted); err != nil {
			return err
		}
	}

	return nil
}

func (w *Worker) createReward(
	ctx context.Context, job *entity.Job,
	payload model.CommentParseJob, extracted client.ExtractedReward,
) error {
	cfg := xcontext.Configs(ctx)
	identityCtx, cancel := context.WithTimeout(ctx, cfg.Identity.Timeout)
	user, err := w.identityCaller.GetUser(identityCtx, extracted.Contributor)
	cancel()

	if err != nil {
		// An unknown login stays retryable: identity propagation on the
		// platform side can lag behind the comment event.
		return w.retryable(ctx, job, "", reasonContributorNotFound, err)
	}

	secret, err := crypto.GenerateRandomString()
	if err != nil {
		return err
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	contributor, err := w.contributorRepo.Upsert(ctx, &entity.Contributor{
		Base:       entity.Base{ID: uuid.NewString()},
		ExternalID: user.ExternalID,
		Name:       user.Name,
		AvatarURL:  user.AvatarURL,
	})
	if err != nil {
		return err
	}

	issuer, err := w.contributorRepo.Upsert(ctx, &entity.Contributor{
		Base:       entity.Base{ID: uuid.NewString()},
		ExternalID: payload.IssuerExternalID,
	})
	if err != nil {
		return err
	}

	reward := &entity.Reward{
		Base:          entity.Base{ID: uuid.NewString()},
		RepoID:        payload.RepositoryID,
		PRNumber:      payload.PRNumber,
		ContributorID: contributor.ID,
		IssuerID:      issuer.ID,
		Secret:        secret,
		TokenAmount:   extracted.Amount,
		Comment:       payload.CommentBody,
	}

	err = w.rewardRepo.Create(ctx, reward)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A reward already exists for this (repo, pr). Re-delivery of the
		// same approval must not mint a second voucher.
		w.recorder.Info(ctx, job.ID, "", reasonDuplicateReward,
			"reward for this pull request already exists")
		xcontext.WithCommitDBTransaction(ctx)
		return nil
	}

	if err != nil {
		return err
	}

	w.recorder.Info(ctx, job.ID, reward.ID, reasonRewardCreated,
		"voucher recorded, awaiting ledger confirmation")
	xcontext.WithCommitDBTransaction(ctx)
	return nil
}

// retryable records a failure audit only when this was the last attempt, so
// transient blips do not flood the trail.
func (w *Worker) retryable(
	ctx context.Context, job *entity.Job, rewardID, reason string, err error,
) error {
	if job.Attempts+1 >= job.MaxAttempts {
		w.recorder.Failure(ctx, job.ID, rewardID, reason, err.Error())
	}

	return err
}
