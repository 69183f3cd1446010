package entity

type Organization struct {
	Base

	ExternalID string `gorm:"uniqueIndex"`
	Name       string

	// WalletNonce feeds the deterministic derivation of the organization's
	// issuer address on the settlement ledger.
	WalletNonce string
}
