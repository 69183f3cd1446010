package voucher

import (
	"context"

	"github.com/gitbounty-lab/backend/internal/client"
	"github.com/gitbounty-lab/backend/internal/entity"
	"github.com/gitbounty-lab/backend/internal/repository"
	"github.com/gitbounty-lab/backend/pkg/ethutil"
	"github.com/gitbounty-lab/backend/pkg/xcontext"
)

// IssuerAddress derives the organization's issuer wallet on the settlement
// ledger from the platform secret and the organization wallet nonce.
func IssuerAddress(ctx context.Context, org *entity.Organization) (string, error) {
	secret := xcontext.Configs(ctx).Ledger.SecretKey
	address, err := ethutil.GeneratePublicKey([]byte(secret), []byte(org.WalletNonce))
	if err != nil {
		return "", err
	}

	return address.Hex(), nil
}

// Confirmer drives rewards from unconfirmed to confirmed by storing their
// voucher commitment on the settlement ledger. Every step is idempotent, so
// the sweep can run as often as the scheduler likes.
type Confirmer struct {
	rewardRepo       repository.RewardRepository
	repoRepo         repository.RepoRepository
	organizationRepo repository.OrganizationRepository
	contributorRepo  repository.ContributorRepository
	ledgerCaller     client.LedgerCaller
}

func NewConfirmer(
	rewardRepo repository.RewardRepository,
	repoRepo repository.RepoRepository,
	organizationRepo repository.OrganizationRepository,
	contributorRepo repository.ContributorRepository,
	ledgerCaller client.LedgerCaller,
) *Confirmer {
	return &Confirmer{
		rewardRepo:       rewardRepo,
		repoRepo:         repoRepo,
		organizationRepo: organizationRepo,
		contributorRepo:  contributorRepo,
		ledgerCaller:     ledgerCaller,
	}
}

// Sweep stores the voucher of every unconfirmed reward. A single failing
// reward does not stop the sweep; it is retried on the next run.
func (c *Confirmer) Sweep(ctx context.Context) {
	rewards, err := c.rewardRepo.GetAllUnconfirmed(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot load unconfirmed rewards: %v", err)
		return
	}

	for _, reward := range rewards {
		if err := c.ConfirmReward(ctx, &reward); err != nil {
			xcontext.Logger(ctx).Warnf(
				"Cannot confirm reward %s yet: %v", reward.ID, err)
		}
	}
}

// ConfirmReward stores the voucher commitment of one reward and flips its
// confirmed flag. A voucher the ledger already holds counts as success,
// which makes a crash between storing and flagging harmless.
func (c *Confirmer) ConfirmReward(ctx context.Context, reward *entity.Reward) error {
	repo, err := c.repoRepo.GetByID(ctx, reward.RepoID)
	if err != nil {
		return err
	}

	org, err := c.organizationRepo.GetByID(ctx, repo.OrganizationID)
	if err != nil {
		return err
	}

	contributor, err := c.contributorRepo.GetByID(ctx, reward.ContributorID)
	if err != nil {
		return err
	}

	issuerAddress, err := IssuerAddress(ctx, org)
	if err != nil {
		return err
	}

	commitment := Commitment(CommitmentInput{
		Secret:                reward.Secret,
		IssuerAddress:         issuerAddress,
		OrgExternalID:         org.ExternalID,
		RepoExternalID:        repo.ExternalID,
		PRNumber:              reward.PRNumber,
		ContributorExternalID: contributor.ExternalID,
		Amount:                reward.TokenAmount,
	})

	cfg := xcontext.Configs(ctx).Ledger
	callCtx, cancel := context.WithTimeout(ctx, cfg.CallTimeout)
	resp, err := c.ledgerCaller.StoreVoucher(callCtx, &client.StoreVoucherRequest{
		OwnerAddress:  issuerAddress,
		OrgID:         org.ExternalID,
		RepoID:        repo.ExternalID,
		ContributorID: contributor.ExternalID,
		PRNumber:      reward.PRNumber,
		Amount:        reward.TokenAmount,
		Commitment:    commitment,
	})
	cancel()

	switch {
	case err == nil:
		waitCtx, cancel := context.WithTimeout(ctx, cfg.ConfirmTimeout)
		err = c.ledgerCaller.WaitConfirmation(waitCtx, resp.TxRef)
		cancel()
		if err != nil {
			return err
		}

	case client.IsLedgerReason(err, client.ReasonVoucherExists):
		// A previous attempt already stored this voucher.

	default:
		return err
	}

	return c.rewardRepo.Confirm(ctx, reward.ID)
}
