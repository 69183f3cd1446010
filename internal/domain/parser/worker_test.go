package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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

func newTestWorker(
	extractorCaller client.ExtractorCaller, identityCaller client.IdentityCaller,
) *Worker {
	return NewWorker(
		repository.NewRewardRepository(),
		repository.NewContributorRepository(),
		audit.NewRecorder(repository.NewClaimAuditRepository()),
		extractorCaller,
		identityCaller,
	)
}

func parseJob(t *testing.T, payload model.CommentParseJob) *entity.Job {
	t.Helper()

	b, err := json.Marshal(payload)
	require.NoError(t, err)

	var m entity.Map
	require.NoError(t, json.Unmarshal(b, &m))

	return &entity.Job{
		Base:        entity.Base{ID: uuid.NewString()},
		Type:        entity.JobTypeParseComment,
		Payload:     m,
		Status:      entity.JobActive,
		MaxAttempts: 5,
	}
}

func Test_Worker_Process_CreatesReward(t *testing.T) {
	ctx := testutil.MockContext()
	repo := testutil.SampleRepo(ctx, nil)

	extractorCaller := &testutil.MockExtractorCaller{
		ExtractFunc: func(context.Context, string) ([]client.ExtractedReward, error) {
			return []client.ExtractedReward{{Contributor: "alice", Amount: 500}}, nil
		},
	}

	w := newTestWorker(extractorCaller, &testutil.MockIdentityCaller{})
	job := parseJob(t, model.CommentParseJob{
		CommentBody:      "great work @alice, 500 tokens",
		PRNumber:         7,
		IssuerExternalID: "maintainer",
		RepositoryID:     repo.ID,
	})

	require.NoError(t, w.Process(ctx, job))

	reward, err := repository.NewRewardRepository().GetByRepoAndPR(ctx, repo.ID, 7)
	require.NoError(t, err)
	require.Equal(t, int64(500), reward.TokenAmount)
	require.NotEmpty(t, reward.Secret)
	require.False(t, reward.Confirmed)
	require.False(t, reward.Claimed)

	contributor, err := repository.NewContributorRepository().GetByID(ctx, reward.ContributorID)
	require.NoError(t, err)
	require.Equal(t, "alice", contributor.ExternalID)

	issuer, err := repository.NewContributorRepository().GetByID(ctx, reward.IssuerID)
	require.NoError(t, err)
	require.Equal(t, "maintainer", issuer.ExternalID)

	audits, err := repository.NewClaimAuditRepository().GetByRewardID(ctx, reward.ID)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	require.Equal(t, reasonRewardCreated, audits[0].Reason)
	require.Equal(t, entity.AuditInfo, audits[0].Level)

	// Re-running the job against the created reward is a no-op.
	require.NoError(t, w.Process(ctx, job))

	got, err := repository.NewRewardRepository().GetByRepoAndPR(ctx, repo.ID, 7)
	require.NoError(t, err)
	require.Equal(t, reward.ID, got.ID)
}

func Test_Worker_Process_NotAnApproval(t *testing.T) {
	ctx := testutil.MockContext()
	repo := testutil.SampleRepo(ctx, nil)

	w := newTestWorker(&testutil.MockExtractorCaller{}, &testutil.MockIdentityCaller{})
	job := parseJob(t, model.CommentParseJob{
		CommentBody:  "thanks, looks good to me",
		PRNumber:     7,
		RepositoryID: repo.ID,
	})

	require.NoError(t, w.Process(ctx, job))

	_, err := repository.NewRewardRepository().GetByRepoAndPR(ctx, repo.ID, 7)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func Test_Worker_Process_MalformedExtraction(t *testing.T) {
	ctx := testutil.MockContext()
	repo := testutil.SampleRepo(ctx, nil)

	extractorCaller := &testutil.MockExtractorCaller{
		ExtractFunc: func(context.Context, string) ([]client.ExtractedReward, error) {
			return nil, fmt.Errorf("%w: gibberish", client.ErrMalformedExtraction)
		},
	}

	w := newTestWorker(extractorCaller, &testutil.MockIdentityCaller{})
	job := parseJob(t, model.CommentParseJob{
		CommentBody:  "pay @alice",
		PRNumber:     7,
		RepositoryID: repo.ID,
	})

	err := w.Process(ctx, job)
	var fatal queue.FatalError
	require.ErrorAs(t, err, &fatal)
}

func Test_Worker_Process_ExtractorDownIsRetryable(t *testing.T) {
	ctx := testutil.MockContext()
	repo := testutil.SampleRepo(ctx, nil)

	extractorCaller := &testutil.MockExtractorCaller{
		ExtractFunc: func(context.Context, string) ([]client.ExtractedReward, error) {
			return nil, errors.New("connection refused")
		},
	}

	w := newTestWorker(extractorCaller, &testutil.MockIdentityCaller{})
	job := parseJob(t, model.CommentParseJob{
		CommentBody:  "pay @alice",
		PRNumber:     7,
		RepositoryID: repo.ID,
	})

	err := w.Process(ctx, job)
	require.Error(t, err)

	var fatal queue.FatalError
	require.False(t, errors.As(err, &fatal))
}

func Test_Worker_Process_DuplicateReward(t *testing.T) {
	ctx := testutil.MockContext()
	repo := testutil.SampleRepo(ctx, nil)
	existing := testutil.SampleReward(ctx, &entity.Reward{
		RepoID:      repo.ID,
		PRNumber:    7,
		TokenAmount: 100,
	})

	extractorCaller := &testutil.MockExtractorCaller{
		ExtractFunc: func(context.Context, string) ([]client.ExtractedReward, error) {
			return []client.ExtractedReward{{Contributor: "alice", Amount: 500}}, nil
		},
	}

	w := newTestWorker(extractorCaller, &testutil.MockIdentityCaller{})
	job := parseJob(t, model.CommentParseJob{
		CommentBody:  "pay @alice 500",
		PRNumber:     7,
		RepositoryID: repo.ID,
	})

	require.NoError(t, w.Process(ctx, job))

	// The first voucher wins; a second approval cannot mint another one.
	reward, err := repository.NewRewardRepository().GetByRepoAndPR(ctx, repo.ID, 7)
	require.NoError(t, err)
	require.Equal(t, existing.ID, reward.ID)
	require.Equal(t, int64(100), reward.TokenAmount)
}
