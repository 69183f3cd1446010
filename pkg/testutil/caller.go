package testutil

import (
	"context"

	"github.com/gitbounty-lab/backend/internal/client"
)

type MockExtractorCaller struct {
	ExtractFunc func(ctx context.Context, comment string) ([]client.ExtractedReward, error)
}

func (m *MockExtractorCaller) Extract(
	ctx context.Context, comment string,
) ([]client.ExtractedReward, error) {
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, comment)
	}

	return nil, nil
}

type MockIdentityCaller struct {
	GetUserFunc func(ctx context.Context, login string) (*client.IdentityUser, error)
}

func (m *MockIdentityCaller) GetUser(
	ctx context.Context, login string,
) (*client.IdentityUser, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, login)
	}

	return &client.IdentityUser{ExternalID: login, Login: login}, nil
}

type MockLedgerCaller struct {
	StoreVoucherFunc     func(ctx context.Context, req *client.StoreVoucherRequest) (*client.StoreVoucherResponse, error)
	ClaimFunc            func(ctx context.Context, req *client.ClaimRequest) (*client.ClaimResponse, error)
	DepositFunc          func(ctx context.Context, orgID, fromAddress string, amount int64) (string, error)
	WithdrawFunc         func(ctx context.Context, orgID, toAddress string, amount int64) (string, error)
	BalanceOfFunc        func(ctx context.Context, orgID string) (int64, error)
	WaitConfirmationFunc func(ctx context.Context, txRef string) error
}

func (m *MockLedgerCaller) StoreVoucher(
	ctx context.Context, req *client.StoreVoucherRequest,
) (*client.StoreVoucherResponse, error) {
	if m.StoreVoucherFunc != nil {
		return m.StoreVoucherFunc(ctx, req)
	}

	return &client.StoreVoucherResponse{TxRef: "tx-store"}, nil
}

func (m *MockLedgerCaller) Claim(
	ctx context.Context, req *client.ClaimRequest,
) (*client.ClaimResponse, error) {
	if m.ClaimFunc != nil {
		return m.ClaimFunc(ctx, req)
	}

	return &client.ClaimResponse{TxRef: "tx-claim", SettledAmount: req.Amount}, nil
}

func (m *MockLedgerCaller) Deposit(
	ctx context.Context, orgID, fromAddress string, amount int64,
) (string, error) {
	if m.DepositFunc != nil {
		return m.DepositFunc(ctx, orgID, fromAddress, amount)
	}

	return "tx-deposit", nil
}

func (m *MockLedgerCaller) Withdraw(
	ctx context.Context, orgID, toAddress string, amount int64,
) (string, error) {
	if m.WithdrawFunc != nil {
		return m.WithdrawFunc(ctx, orgID, toAddress, amount)
	}

	return "tx-withdraw", nil
}

func (m *MockLedgerCaller) BalanceOf(ctx context.Context, orgID string) (int64, error) {
	if m.BalanceOfFunc != nil {
		return m.BalanceOfFunc(ctx, orgID)
	}

	return 0, nil
}

func (m *MockLedgerCaller) WaitConfirmation(ctx context.Context, txRef string) error {
	if m.WaitConfirmationFunc != nil {
		return m.WaitConfirmationFunc(ctx, txRef)
	}

	return nil
}
