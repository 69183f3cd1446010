package repository

import (
	"context"

	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type ContributorRepository interface {
	Create(context.Context, *entity.Contributor) error
	Upsert(context.Context, *entity.Contributor) (*entity.Contributor, error)
	GetByID(context.Context, string) (*entity.Contributor, error)
	GetByExternalID(context.Context, string) (*entity.Contributor, error)
	LinkWallet(ctx context.Context, id, walletAddress string) error
}

type contributorRepository struct{}

func NewContributorRepository() *contributorRepository {
	return &contributorRepository{}
}

func (r *contributorRepository) Create(ctx context.Context, contributor *entity.Contributor) error {
	return xcontext.DB(ctx).Create(contributor).Error
}

// Upsert inserts the contributor if the external id is unseen, otherwise
// returns the existing row. The returned value is always the persisted one.
func (r *contributorRepository) Upsert(
	ctx context.Context, contributor *entity.Contributor,
) (*entity.Contributor, error) {
	err := xcontext.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).
		Create(contributor).Error
	if err != nil {
		return nil, err
	}

	return r.GetByExternalID(ctx, contributor.ExternalID)
}

func (r *contributorRepository) GetByID(ctx context.Context, id string) (*entity.Contributor, error) {
	var result entity.Contributor
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *contributorRepository) GetByExternalID(
	ctx context.Context, externalID string,
) (*entity.Contributor, error) {
	var result entity.Contributor
	if err := xcontext.DB(ctx).Take(&result, "external_id=?", externalID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *contributorRepository) LinkWallet(ctx context.Context, id, walletAddress string) error {
	return xcontext.DB(ctx).
		Model(&entity.Contributor{}).
		Where("id = ?", id).
		Update("wallet_address", walletAddress).Error
}
