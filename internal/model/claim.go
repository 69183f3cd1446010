package model

import "encoding/json"

// ClaimMessage is the structure a contributor signs off-band before
// claiming. The ledger's claim path ultimately authorizes the signature
// over exactly this encoding, so the field set and order must not change.
type ClaimMessage struct {
	WalletAddress          string `json:"wallet_address"`
	ContributorExternalID  string `json:"contributor_external_id"`
	OrganizationExternalID string `json:"organization_external_id"`
	RepositoryExternalID   string `json:"repository_external_id"`
	PRNumber               int64  `json:"pr_number"`
	RewardAmount           int64  `json:"reward_amount"`
	Timestamp              int64  `json:"timestamp"`
	Nonce                  string `json:"nonce"`
	RewardID               string `json:"reward_id"`
}

func (m ClaimMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}
