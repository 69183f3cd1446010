package model

import (
	"time"

	"github.com/gitbounty-lab/backend/internal/entity"
)

func ConvertReward(reward *entity.Reward) Reward {
	if reward == nil {
		return Reward{}
	}

	return Reward{
		ID:            reward.ID,
		RepoID:        reward.RepoID,
		PRNumber:      reward.PRNumber,
		ContributorID: reward.ContributorID,
		IssuerID:      reward.IssuerID,
		TokenAmount:   reward.TokenAmount,
		Comment:       reward.Comment,
		Confirmed:     reward.Confirmed,
		Claimed:       reward.Claimed,
		CreatedAt:     reward.CreatedAt.Format(time.RFC3339),
	}
}

func ConvertPayout(payout *entity.Payout) Payout {
	if payout == nil {
		return Payout{}
	}

	return Payout{
		ID:            payout.ID,
		RewardID:      payout.RewardID,
		TxRef:         payout.TxRef,
		Address:       payout.Address,
		SettledAmount: payout.SettledAmount,
		PlatformFee:   payout.PlatformFee,
		CreatedAt:     payout.CreatedAt.Format(time.RFC3339),
	}
}

func ConvertClaimAudit(audit *entity.ClaimAudit) ClaimAudit {
	if audit == nil {
		return ClaimAudit{}
	}

	return ClaimAudit{
		ID:        audit.ID,
		RewardID:  audit.RewardID.String,
		JobID:     audit.JobID,
		Level:     string(audit.Level),
		Reason:    audit.Reason,
		Message:   audit.Message,
		CreatedAt: audit.CreatedAt.Format(time.RFC3339),
	}
}
