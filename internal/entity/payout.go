package entity

// Payout records a settled claim. Exactly one payout can exist per reward.
type Payout struct {
	Base

	RewardID string `gorm:"uniqueIndex"`
	Reward   Reward `gorm:"foreignKey:RewardID"`

	TxRef         string
	Address       string
	SettledAmount int64
	PlatformFee   int64
}
