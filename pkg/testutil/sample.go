package testutil

import (
	"context"
	"reflect"

	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
	"github.com/google/uuid"
)

// SampleOrganization creates an organization with randomized fields. Any
// non-zero field of init overwrites the sample before it is persisted.
func SampleOrganization(ctx context.Context, init *entity.Organization) entity.Organization {
	sample := &entity.Organization{
		Base:        entity.Base{ID: uuid.NewString()},
		ExternalID:  uuid.NewString(),
		Name:        uuid.NewString(),
		WalletNonce: uuid.NewString(),
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := xcontext.DB(ctx).Create(sample).Error; err != nil {
		panic(err)
	}

	return *sample
}

func SampleRepo(ctx context.Context, init *entity.Repo) entity.Repo {
	sample := &entity.Repo{
		Base:       entity.Base{ID: uuid.NewString()},
		ExternalID: uuid.NewString(),
		Name:       uuid.NewString(),
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if sample.OrganizationID == "" {
		sample.OrganizationID = SampleOrganization(ctx, nil).ID
	}

	if err := xcontext.DB(ctx).Create(sample).Error; err != nil {
		panic(err)
	}

	return *sample
}

func SampleContributor(ctx context.Context, init *entity.Contributor) entity.Contributor {
	sample := &entity.Contributor{
		Base:       entity.Base{ID: uuid.NewString()},
		ExternalID: uuid.NewString(),
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if err := xcontext.DB(ctx).Create(sample).Error; err != nil {
		panic(err)
	}

	return *sample
}

func SampleReward(ctx context.Context, init *entity.Reward) entity.Reward {
	sample := &entity.Reward{
		Base:        entity.Base{ID: uuid.NewString()},
		PRNumber:    1,
		Secret:      uuid.NewString(),
		TokenAmount: 1000,
	}

	if init != nil {
		overwriteFields(sample, *init)
	}

	if sample.RepoID == "" {
		sample.RepoID = SampleRepo(ctx, nil).ID
	}

	if sample.ContributorID == "" {
		sample.ContributorID = SampleContributor(ctx, nil).ID
	}

	if sample.IssuerID == "" {
		sample.IssuerID = SampleContributor(ctx, nil).ID
	}

	if err := xcontext.DB(ctx).Create(sample).Error; err != nil {
		panic(err)
	}

	return *sample
}

func overwriteFields[T any](origin *T, overwrite T) {
	originValue := reflect.ValueOf(origin).Elem()
	overwriteValue := reflect.ValueOf(overwrite)

	for i := 0; i < overwriteValue.NumField(); i++ {
		overwriteField := overwriteValue.Field(i)
		if overwriteField.Interface() != reflect.Zero(overwriteField.Type()).Interface() {
			originValue.Field(i).Set(overwriteField)
		}
	}
}
