package entity

// Reward is a voucher for a merged pull request. At most one reward can
// exist per (repo, pr_number); the unique index is the idempotency guard
// for re-delivered comment events.
//
// Lifecycle is monotonic: unconfirmed -> confirmed -> claimed. Confirmed is
// set once the ledger stores the voucher commitment; Claimed is set only by
// the settlement worker together with the Payout row.
type Reward struct {
	Base

	RepoID string `gorm:"uniqueIndex:idx_rewards_repo_pr"`
	Repo   Repo   `gorm:"foreignKey:RepoID"`

	PRNumber int64 `gorm:"uniqueIndex:idx_rewards_repo_pr;column:pr_number"`

	ContributorID string
	Contributor   Contributor `gorm:"foreignKey:ContributorID"`

	IssuerID string
	Issuer   Contributor `gorm:"foreignKey:IssuerID"`

	// Secret binds the voucher commitment. It is never exposed to the
	// contributor before claim time.
	Secret string

	// TokenAmount is denominated in the smallest token unit.
	TokenAmount int64

	// Comment is the source approval text the amount was extracted from.
	Comment string

	Confirmed bool
	Claimed   bool
}
