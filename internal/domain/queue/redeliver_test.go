package queue

import (
	"context"
	"testing"
	"time"

	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/internal/model"
	"github.com/gitbounty-lab/backend/internal/repository"
	"github.com/gitbounty-lab/backend/pkg/pubsub"
	"github.com/gitbounty-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func Test_Redeliverer_Sweep(t *testing.T) {
	ctx := testutil.MockContext()
	jobRepo := repository.NewJobRepository()

	published := map[string]int{}
	publisher := &testutil.MockPublisher{
		PublishFunc: func(_ context.Context, _ string, pack *pubsub.Pack) error {
			published[string(pack.Key)]++
			return nil
		},
	}

	manager := NewManager(jobRepo, publisher)

	delayed, err := manager.Enqueue(ctx, entity.JobTypeParseComment,
		model.CommentParseJob{CommentBody: "a", RepositoryID: "repo-1", PRNumber: 1})
	require.NoError(t, err)
	require.NoError(t, jobRepo.Delay(ctx, delayed.ID, 1, time.Now().Add(-time.Minute), "timeout"))

	fresh, err := manager.Enqueue(ctx, entity.JobTypeParseComment,
		model.CommentParseJob{CommentBody: "b", RepositoryID: "repo-1", PRNumber: 2})
	require.NoError(t, err)

	NewRedeliverer(jobRepo, manager).Sweep(ctx)

	// The due delayed job goes back on the broker; the freshly enqueued
	// waiting job is not stale and is left alone.
	require.Equal(t, 2, published[delayed.ID])
	require.Equal(t, 1, published[fresh.ID])
}
