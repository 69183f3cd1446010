package main

import (
	"context"
	"net/http"

	"github.com/gitbounty-lab/backend/internal/client"
	"github.com/gitbounty-lab/backend/internal/domain"
	"github.com/gitbounty-lab/backend/internal/domain/queue"
	"github.com/gitbounty-lab/backend/internal/model"
	"github.com/gitbounty-lab/backend/internal/repository"
	"github.com/gitbounty-lab/backend/pkg/jwt"
	"github.com/gitbounty-lab/backend/pkg/pubsub"
	"github.com/gitbounty-lab/backend/pkg/router"
	"github.com/gitbounty-lab/backend/pkg/xredis"
	"github.com/urfave/cli/v2"
)

type srv struct {
	ctx context.Context
	app *cli.App

	contributorRepo  repository.ContributorRepository
	organizationRepo repository.OrganizationRepository
	repoRepo         repository.RepoRepository
	rewardRepo       repository.RewardRepository
	payoutRepo       repository.PayoutRepository
	claimAuditRepo   repository.ClaimAuditRepository
	jobRepo          repository.JobRepository

	rewardDomain domain.RewardDomain
	queueManager *queue.Manager

	publisher       pubsub.Publisher
	redisClient     xredis.Client
	ledgerCaller    client.LedgerCaller
	extractorCaller client.ExtractorCaller
	identityCaller  client.IdentityCaller

	accessTokenEngine *jwt.Engine[model.AccessToken]

	router *router.Router
	server *http.Server
}
