package entity

import (
	"context"

	"github.com/gitbounty-lab/backend/pkg/xcontext"
)

func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&Contributor{},
		&Organization{},
		&Repo{},
		&Reward{},
		&Payout{},
		&ClaimAudit{},
		&Job{},
	)
}
