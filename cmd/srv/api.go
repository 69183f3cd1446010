package main

import (
	"net/http"

	"github.com/gitbounty-lab/backend/internal/middleware"
	"github.com/gitbounty-lab/backend/pkg/router"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
	"github.com/rs/cors"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadPublisher()
	s.loadCallers()
	s.loadRepos()
	s.loadDomains()
	s.loadRouter()

	cfg := xcontext.Configs(s.ctx)
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.ApiServer.AllowCORS,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Webhook-Token"},
		AllowCredentials: true,
	})

	s.server = &http.Server{
		Addr:    cfg.ApiServer.Address(),
		Handler: c.Handler(s.router.Handler()),
	}

	xcontext.Logger(s.ctx).Infof("Starting api server on %s", cfg.ApiServer.Address())
	if err := s.server.ListenAndServe(); err != nil {
		panic(err)
	}

	return nil
}

func (s *srv) loadRouter() {
	s.router = router.New(s.ctx)

	// Webhook API.
	webhookRouter := s.router.Branch()
	webhookRouter.Before(middleware.VerifyWebhook())
	{
		router.POST(webhookRouter, "/webhook/comment", s.rewardDomain.HandleCommentEvent)
	}

	// These following APIs need authentication with Access Token.
	authRouter := s.router.Branch()
	authRouter.Before(middleware.Authenticate(s.accessTokenEngine))
	{
		router.GET(authRouter, "/getClaimMessage", s.rewardDomain.GetClaimMessage)
		router.POST(authRouter, "/claimReward", s.rewardDomain.ClaimReward)
		router.GET(authRouter, "/getMyRewards", s.rewardDomain.GetMyRewards)
	}

	// Public API.
	router.GET(s.router, "/getReward", s.rewardDomain.GetReward)
	router.GET(s.router, "/getRewardAudits", s.rewardDomain.GetRewardAudits)
	router.GET(s.router, "/getWorkerStatus", s.rewardDomain.GetWorkerStatus)
}
