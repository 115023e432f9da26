package store

import (
	"context"

	"github.com/reliefcoin/reliefcoin-backend/internal/amount"
	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
	"github.com/reliefcoin/reliefcoin-backend/internal/store/schema"
)

// Store is the off-chain accounting store. It is not authoritative for
// balances; it mirrors confirmed ledger events and keeps campaign aggregates.
// Lookup methods return (nil, nil) when nothing matches.
type Store interface {
	// CreateAccount inserts a new account
	CreateAccount(ctx context.Context, account *schema.Account) error

	// GetAccountByID retrieves an account by its UUID
	GetAccountByID(ctx context.Context, id string) (*schema.Account, error)

	// GetAccountByEmail retrieves an account by login email
	GetAccountByEmail(ctx context.Context, email string) (*schema.Account, error)

	// GetAccountByPhone retrieves an account by phone number
	GetAccountByPhone(ctx context.Context, phone string) (*schema.Account, error)

	// GetAccountByWallet retrieves an account by wallet address
	GetAccountByWallet(ctx context.Context, address string) (*schema.Account, error)

	// ListAccountsByRole retrieves all accounts with the given role
	ListAccountsByRole(ctx context.Context, role domain.Role) ([]*schema.Account, error)

	// CreateCampaign inserts a new campaign
	CreateCampaign(ctx context.Context, campaign *schema.Campaign) error

	// GetCampaign retrieves a campaign by its UUID
	GetCampaign(ctx context.Context, id string) (*schema.Campaign, error)

	// ListCampaigns retrieves all campaigns, newest first
	ListCampaigns(ctx context.Context) ([]*schema.Campaign, error)

	// RecordDonation inserts the donation and increments the campaign's
	// raised amount in one all-or-nothing unit. The increment is guarded:
	// if raised would exceed target, nothing is applied and
	// domain.ErrCampaignLimit is returned.
	RecordDonation(ctx context.Context, donation *schema.Donation, amt amount.Amount) error

	// RecordDistribution inserts the transaction and unconditionally
	// increments the campaign's distributed amount in one all-or-nothing
	// unit. A duplicate blockchain hash returns domain.ErrDuplicateTransaction
	// with nothing applied.
	RecordDistribution(ctx context.Context, txn *schema.Transaction, amt amount.Amount) error

	// CreateTransaction inserts a transaction record without touching any
	// campaign counter (redemptions, reconciler backfill). A duplicate
	// blockchain hash returns domain.ErrDuplicateTransaction.
	CreateTransaction(ctx context.Context, txn *schema.Transaction) error

	// HasTransaction reports whether a record with the given blockchain hash exists
	HasTransaction(ctx context.Context, blockchainTxHash string) (bool, error)

	// ListTransactionsByCampaign retrieves a campaign's transactions, newest first
	ListTransactionsByCampaign(ctx context.Context, campaignID string) ([]*schema.Transaction, error)

	// ListDonationsByAccount retrieves an account's donations, newest first
	ListDonationsByAccount(ctx context.Context, accountID string) ([]*schema.Donation, error)
}

// CursorStore persists the reconciler's position in the transfer event log.
type CursorStore interface {
	// GetBlockCursor retrieves the last processed block number
	GetBlockCursor(ctx context.Context) (uint64, error)
	// SetBlockCursor stores the last processed block number
	SetBlockCursor(ctx context.Context, blockNumber uint64) error
}
