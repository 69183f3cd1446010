package repository

import (
	"context"

	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
)

type RewardRepository interface {
	Create(context.Context, *entity.Reward) error
	GetByID(context.Context, string) (*entity.Reward, error)
	GetByRepoAndPR(ctx context.Context, repoID string, prNumber int64) (*entity.Reward, error)
	GetByContributorID(context.Context, string) ([]entity.Reward, error)
	GetAllUnconfirmed(context.Context) ([]entity.Reward, error)
	Confirm(ctx context.Context, id string) error
	MarkClaimed(ctx context.Context, id string) (bool, error)
}

type rewardRepository struct{}

func NewRewardRepository() *rewardRepository {
	return &rewardRepository{}
}

func (r *rewardRepository) Create(ctx context.Context, reward *entity.Reward) error {
	return xcontext.DB(ctx).Create(reward).Error
}

func (r *rewardRepository) GetByID(ctx context.Context, id string) (*entity.Reward, error) {
	var result entity.Reward
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *rewardRepository) GetByRepoAndPR(
	ctx context.Context, repoID string, prNumber int64,
) (*entity.Reward, error) {
	var result entity.Reward
	err := xcontext.DB(ctx).Take(&result, "repo_id=? AND pr_number=?", repoID, prNumber).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *rewardRepository) GetByContributorID(
	ctx context.Context, contributorID string,
) ([]entity.Reward, error) {
	var result []entity.Reward
	if err := xcontext.DB(ctx).Find(&result, "contributor_id=?", contributorID).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *rewardRepository) GetAllUnconfirmed(ctx context.Context) ([]entity.Reward, error) {
	var result []entity.Reward
	err := xcontext.DB(ctx).Find(&result, "confirmed=? AND claimed=?", false, false).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *rewardRepository) Confirm(ctx context.Context, id string) error {
	return xcontext.DB(ctx).
		Model(&entity.Reward{}).
		Where("id = ?", id).
		Update("confirmed", true).Error
}

// MarkClaimed flips the claimed flag. The guard clauses make the transition
// a compare-and-swap: the second of two racing settlement jobs sees zero
// affected rows, and a reward can never become claimed while unconfirmed.
func (r *rewardRepository) MarkClaimed(ctx context.Context, id string) (bool, error) {
	tx := xcontext.DB(ctx).
		Model(&entity.Reward{}).
		Where("id = ? AND confirmed = ? AND claimed = ?", id, true, false).
		Update("claimed", true)
	if tx.Error != nil {
		return false, tx.Error
	}

	return tx.RowsAffected == 1, nil
}
