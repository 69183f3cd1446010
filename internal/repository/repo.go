package repository

import (
	"context"

	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
)

type RepoRepository interface {
	Create(context.Context, *entity.Repo) error
	GetByID(context.Context, string) (*entity.Repo, error)
	GetByExternalID(context.Context, string) (*entity.Repo, error)
}

type repoRepository struct{}

func NewRepoRepository() *repoRepository {
	return &repoRepository{}
}

func (r *repoRepository) Create(ctx context.Context, repo *entity.Repo) error {
	return xcontext.DB(ctx).Create(repo).Error
}

func (r *repoRepository) GetByID(ctx context.Context, id string) (*entity.Repo, error) {
	var result entity.Repo
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *repoRepository) GetByExternalID(ctx context.Context, externalID string) (*entity.Repo, error) {
	var result entity.Repo
	if err := xcontext.DB(ctx).Take(&result, "external_id=?", externalID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}
