package model

import (
	"crypto/sha256"
	"fmt"
)

// CommentParseJob is the payload queued when a maintainer comments on a
// merged pull request. The idempotency key covers the comment body so a
// later, different comment on the same PR is not shadowed by an earlier
// non-approval one.
type CommentParseJob struct {
	CommentBody           string `json:"comment_body"`
	PRNumber              int64  `json:"pr_number"`
	ContributorExternalID string `json:"contributor_external_id"`
	IssuerExternalID      string `json:"issuer_external_id"`
	RepositoryID          string `json:"repository_id"`
}

func (j CommentParseJob) IdempotencyKey() string {
	sum := sha256.Sum256([]byte(j.CommentBody))
	return fmt.Sprintf("parse:%s:%d:%x", j.RepositoryID, j.PRNumber, sum[:8])
}

// ClaimSettlementJob is the payload queued after the claim validator has
// accepted a signed claim. Everything except the wallet address and the
// signature is reloaded from the reward row at settlement time.
type ClaimSettlementJob struct {
	RewardID      string `json:"reward_id"`
	WalletAddress string `json:"wallet_address"`
	Signature     string `json:"signature"`
}

func (j ClaimSettlementJob) IdempotencyKey() string {
	return fmt.Sprintf("settle:%s", j.RewardID)
}
