package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
)

// LedgerReason is the closed set of failure variants the settlement ledger
// can report. Classification is driven by the RPC error code, never by
// matching message text.
type LedgerReason string

const (
	ReasonVoucherExists       LedgerReason = "VoucherExists"
	ReasonInvalidVoucher      LedgerReason = "InvalidVoucher"
	ReasonAlreadyClaimed      LedgerReason = "AlreadyClaimed"
	ReasonInsufficientBalance LedgerReason = "InsufficientBalance"
	ReasonSignerRejected      LedgerReason = "SignerRejected"
	ReasonUnknown             LedgerReason = "Unknown"
)

type LedgerError struct {
	Reason  LedgerReason
	Message string
}

func (e LedgerError) Error() string {
	return fmt.Sprintf("ledger: %s: %s", e.Reason, e.Message)
}

// IsLedgerReason reports whether err carries the given ledger failure
// variant anywhere in its chain.
func IsLedgerReason(err error, reason LedgerReason) bool {
	var lerr LedgerError
	return errors.As(err, &lerr) && lerr.Reason == reason
}

type StoreVoucherRequest struct {
	OwnerAddress  string `json:"owner_address"`
	OrgID         string `json:"org_id"`
	RepoID        string `json:"repo_id"`
	ContributorID string `json:"contributor_id"`
	PRNumber      int64  `json:"pr_number"`
	Amount        int64  `json:"amount"`
	Commitment    string `json:"commitment"`
}

type StoreVoucherResponse struct {
	TxRef string `json:"tx_ref"`
}

type ClaimRequest struct {
	Secret        string `json:"secret"`
	OwnerAddress  string `json:"owner_address"`
	OrgID         string `json:"org_id"`
	RepoID        string `json:"repo_id"`
	PRNumber      int64  `json:"pr_number"`
	ContributorID string `json:"contributor_id"`
	Amount        int64  `json:"amount"`
	Destination   string `json:"destination"`
}

type ClaimResponse struct {
	TxRef         string `json:"tx_ref"`
	SettledAmount int64  `json:"settled_amount"`
}

const (
	ReceiptPending = "pending"
	ReceiptSuccess = "success"
	ReceiptFailed  = "failed"
)

type Receipt struct {
	TxRef  string `json:"tx_ref"`
	Status string `json:"status"`
}

type LedgerCaller interface {
	StoreVoucher(ctx context.Context, req *StoreVoucherRequest) (*StoreVoucherResponse, error)
	Claim(ctx context.Context, req *ClaimRequest) (*ClaimResponse, error)
	Deposit(ctx context.Context, orgID, fromAddress string, amount int64) (string, error)
	Withdraw(ctx context.Context, orgID, toAddress string, amount int64) (string, error)
	BalanceOf(ctx context.Context, orgID string) (int64, error)

	// WaitConfirmation blocks until the settlement operation behind txRef
	// reaches a terminal state or ctx expires. Once submitted the operation
	// is not revocable; a retried job must re-check its effects instead of
	// assuming the previous attempt failed.
	WaitConfirmation(ctx context.Context, txRef string) error
}

type ledgerCaller struct {
	client    *rpc.Client
	pollDelay time.Duration
}

func NewLedgerCaller(ctx context.Context) (*ledgerCaller, error) {
	cfg := xcontext.Configs(ctx).Ledger
	client, err := rpc.DialContext(ctx, cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	return &ledgerCaller{client: client, pollDelay: cfg.ConfirmPollDelay}, nil
}

func (c *ledgerCaller) StoreVoucher(
	ctx context.Context, req *StoreVoucherRequest,
) (*StoreVoucherResponse, error) {
	var resp StoreVoucherResponse
	err := c.client.CallContext(ctx, &resp, "ledger_storeVoucher",
		req.OwnerAddress, req.OrgID, req.RepoID, req.ContributorID,
		req.PRNumber, req.Amount, req.Commitment)
	if err != nil {
		return nil, classifyLedgerError(err)
	}

	return &resp, nil
}

func (c *ledgerCaller) Claim(ctx context.Context, req *ClaimRequest) (*ClaimResponse, error) {
	var resp ClaimResponse
	err := c.client.CallContext(ctx, &resp, "ledger_claim",
		req.Secret, req.OwnerAddress, req.OrgID, req.RepoID,
		req.PRNumber, req.ContributorID, req.Amount, req.Destination)
	if err != nil {
		return nil, classifyLedgerError(err)
	}

	return &resp, nil
}

func (c *ledgerCaller) Deposit(
	ctx context.Context, orgID, fromAddress string, amount int64,
) (string, error) {
	var txRef string
	err := c.client.CallContext(ctx, &txRef, "ledger_deposit", orgID, fromAddress, amount)
	if err != nil {
		return "", classifyLedgerError(err)
	}

	return txRef, nil
}

func (c *ledgerCaller) Withdraw(
	ctx context.Context, orgID, toAddress string, amount int64,
) (string, error) {
	var txRef string
	err := c.client.CallContext(ctx, &txRef, "ledger_withdraw", orgID, toAddress, amount)
	if err != nil {
		return "", classifyLedgerError(err)
	}

	return txRef, nil
}

func (c *ledgerCaller) BalanceOf(ctx context.Context, orgID string) (int64, error) {
	var balance int64
	err := c.client.CallContext(ctx, &balance, "ledger_balanceOf", orgID)
	if err != nil {
		return 0, classifyLedgerError(err)
	}

	return balance, nil
}

func (c *ledgerCaller) WaitConfirmation(ctx context.Context, txRef string) error {
	ticker := time.NewTicker(c.pollDelay)
	defer ticker.Stop()

	for {
		var receipt Receipt
		err := c.client.CallContext(ctx, &receipt, "ledger_getReceipt", txRef)
		if err != nil {
			return classifyLedgerError(err)
		}

		switch receipt.Status {
		case ReceiptSuccess:
			return nil
		case ReceiptFailed:
			return LedgerError{Reason: ReasonUnknown, Message: "settlement reverted"}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Error codes the ledger RPC service reports for domain failures.
const (
	codeVoucherExists       = 4001
	codeInvalidVoucher      = 4002
	codeAlreadyClaimed      = 4003
	codeInsufficientBalance = 4004
	codeSignerRejected      = 4005
)

func classifyLedgerError(err error) error {
	var rpcErr rpc.Error
	if !errors.As(err, &rpcErr) {
		return err
	}

	reason := ReasonUnknown
	switch rpcErr.ErrorCode() {
	case codeVoucherExists:
		reason = ReasonVoucherExists
	case codeInvalidVoucher:
		reason = ReasonInvalidVoucher
	case codeAlreadyClaimed:
		reason = ReasonAlreadyClaimed
	case codeInsufficientBalance:
		reason = ReasonInsufficientBalance
	case codeSignerRejected:
		reason = ReasonSignerRejected
	}

	return LedgerError{Reason: reason, Message: rpcErr.Error()}
}
