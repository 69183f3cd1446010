package repository

import (
	"context"

	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
)

type OrganizationRepository interface {
	Create(context.Context, *entity.Organization) error
	GetByID(context.Context, string) (*entity.Organization, error)
	GetByExternalID(context.Context, string) (*entity.Organization, error)
}

type organizationRepository struct{}

func NewOrganizationRepository() *organizationRepository {
	return &organizationRepository{}
}

func (r *organizationRepository) Create(ctx context.Context, org *entity.Organization) error {
	return xcontext.DB(ctx).Create(org).Error
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*entity.Organization, error) {
	var result entity.Organization
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *organizationRepository) GetByExternalID(
	ctx context.Context, externalID string,
) (*entity.Organization, error) {
	var result entity.Organization
	if err := xcontext.DB(ctx).Take(&result, "external_id=?", externalID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}
