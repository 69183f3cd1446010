package entity

type Contributor struct {
	Base

	// ExternalID is the platform identity (GitHub login). Contributors are
	// created lazily the first time a maintainer mentions them, so every
	// other field may be empty until the contributor links an account.
	ExternalID string `gorm:"uniqueIndex"`

	Name          string
	AvatarURL     string
	WalletAddress string
}
