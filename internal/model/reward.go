package model

type AccessToken struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type Reward struct {
	ID            string `json:"id"`
	RepoID        string `json:"repo_id"`
	PRNumber      int64  `json:"pr_number"`
	ContributorID string `json:"contributor_id"`
	IssuerID      string `json:"issuer_id"`
	TokenAmount   int64  `json:"token_amount"`
	Comment       string `json:"comment"`
	Confirmed     bool   `json:"confirmed"`
	Claimed       bool   `json:"claimed"`
	CreatedAt     string `json:"created_at"`
}

type Payout struct {
	ID            string `json:"id"`
	RewardID      string `json:"reward_id"`
	TxRef         string `json:"tx_ref"`
	Address       string `json:"address"`
	SettledAmount int64  `json:"settled_amount"`
	PlatformFee   int64  `json:"platform_fee"`
	CreatedAt     string `json:"created_at"`
}

type ClaimAudit struct {
	ID        int64  `json:"id"`
	RewardID  string `json:"reward_id,omitempty"`
	JobID     string `json:"job_id"`
	Level     string `json:"level"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

type QueueStatus struct {
	Type      string `json:"type"`
	Waiting   int64  `json:"waiting"`
	Active    int64  `json:"active"`
	Completed int64  `json:"completed"`
	Delayed   int64  `json:"delayed"`
	Failed    int64  `json:"failed"`
	Dead      int64  `json:"dead"`
}

type WorkerStatus struct {
	Name     string `json:"name"`
	Alive    bool   `json:"alive"`
	LastSeen string `json:"last_seen,omitempty"`
}

type CommentCreatedRequest struct {
	RepositoryID       string `json:"repository_id"`
	PRNumber           int64  `json:"pr_number"`
	CommentBody        string `json:"comment_body"`
	IssuerExternalID   string `json:"issuer_external_id"`
	PRAuthorExternalID string `json:"pr_author_external_id"`
}

type CommentCreatedResponse struct {
	JobID string `json:"job_id"`
}

type GetClaimMessageRequest struct {
	RewardID      string `form:"reward_id"`
	WalletAddress string `form:"wallet_address"`
}

type GetClaimMessageResponse struct {
	Message ClaimMessage `json:"message"`
}

type ClaimRewardRequest struct {
	RewardID      string       `json:"reward_id"`
	WalletAddress string       `json:"wallet_address"`
	Signature     string       `json:"signature"`
	Message       ClaimMessage `json:"message"`
}

type ClaimRewardResponse struct {
	JobID string `json:"job_id"`
}

type GetMyRewardsRequest struct{}

type GetMyRewardsResponse struct {
	Rewards []Reward `json:"rewards"`
}

type GetRewardRequest struct {
	RewardID string `form:"reward_id"`
}

type GetRewardResponse struct {
	Reward Reward  `json:"reward"`
	Payout *Payout `json:"payout,omitempty"`
}

type GetRewardAuditsRequest struct {
	RewardID string `form:"reward_id"`
}

type GetRewardAuditsResponse struct {
	Audits []ClaimAudit `json:"audits"`
}

type GetWorkerStatusRequest struct{}

type GetWorkerStatusResponse struct {
	Queues  []QueueStatus  `json:"queues"`
	Workers []WorkerStatus `json:"workers"`
}
