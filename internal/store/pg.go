package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/reliefcoin/reliefcoin-backend/internal/amount"
	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
	"github.com/reliefcoin/reliefcoin-backend/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// It accesses the underlying *sql.DB and sets the pool configuration.
// If any of the pool settings are 0 or empty, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	// Set defaults if not provided
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// CreateAccount inserts a new account
func (s *pgStore) CreateAccount(ctx context.Context, account *schema.Account) error {
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetAccountByID retrieves an account by its UUID
func (s *pgStore) GetAccountByID(ctx context.Context, id string) (*schema.Account, error) {
	return s.getAccount(ctx, "id = ?", id)
}

// GetAccountByEmail retrieves an account by login email
func (s *pgStore) GetAccountByEmail(ctx context.Context, email string) (*schema.Account, error) {
	return s.getAccount(ctx, "email = ?", email)
}

// GetAccountByPhone retrieves an account by phone number
func (s *pgStore) GetAccountByPhone(ctx context.Context, phone string) (*schema.Account, error) {
	return s.getAccount(ctx, "phone = ?", phone)
}

// GetAccountByWallet retrieves an account by wallet address
func (s *pgStore) GetAccountByWallet(ctx context.Context, address string) (*schema.Account, error) {
	return s.getAccount(ctx, "wallet_address = ?", address)
}

func (s *pgStore) getAccount(ctx context.Context, query string, arg any) (*schema.Account, error) {
	var account schema.Account
	err := s.db.WithContext(ctx).Where(query, arg).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// ListAccountsByRole retrieves all accounts with the given role
func (s *pgStore) ListAccountsByRole(ctx context.Context, role domain.Role) ([]*schema.Account, error) {
	var accounts []*schema.Account
	err := s.db.WithContext(ctx).
		Where("role = ?", string(role)).
		Order("created_at DESC").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts by role: %w", err)
	}
	return accounts, nil
}

// CreateCampaign inserts a new campaign
func (s *pgStore) CreateCampaign(ctx context.Context, campaign *schema.Campaign) error {
	if err := s.db.WithContext(ctx).Create(campaign).Error; err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

// GetCampaign retrieves a campaign by its UUID
func (s *pgStore) GetCampaign(ctx context.Context, id string) (*schema.Campaign, error) {
	var campaign schema.Campaign
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return &campaign, nil
}

// ListCampaigns retrieves all campaigns, newest first
func (s *pgStore) ListCampaigns(ctx context.Context) ([]*schema.Campaign, error) {
	var campaigns []*schema.Campaign
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&campaigns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

// RecordDonation inserts the donation row and increments the campaign's raised
// amount in a single database transaction. The increment carries its own guard
// in the WHERE clause, so two donations racing for the last headroom serialize
// on the row lock and the loser sees zero affected rows. Nothing is written
// when the guard fails.
func (s *pgStore) RecordDonation(ctx context.Context, donation *schema.Donation, amt amount.Amount) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&schema.Campaign{}).
			Where("id = ? AND raised_amount + CAST(? AS numeric) <= target_amount", donation.CampaignID, amt.BaseString()).
			Update("raised_amount", gorm.Expr("raised_amount + CAST(? AS numeric)", amt.BaseString()))
		if res.Error != nil {
			return fmt.Errorf("failed to increment raised amount: %w", res.Error)
		}

		// Zero rows means either the campaign is missing or the guard failed;
		// distinguish the two for the caller.
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&schema.Campaign{}).Where("id = ?", donation.CampaignID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check campaign: %w", err)
			}
			if count == 0 {
				return domain.ErrCampaignNotFound
			}
			return domain.ErrCampaignLimit
		}

		if err := tx.Create(donation).Error; err != nil {
			return fmt.Errorf("failed to create donation: %w", err)
		}

		return nil
	})
}

// RecordDistribution inserts the transaction record and increments the
// campaign's distributed amount in a single database transaction. The
// increment is unconditional: the on-chain transfer already confirmed, so
// recording must not fail on a business rule. A duplicate blockchain hash
// rolls everything back and returns domain.ErrDuplicateTransaction, which is
// what makes record retries safe.
func (s *pgStore) RecordDistribution(ctx context.Context, txn *schema.Transaction, amt amount.Amount) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertTransaction(tx, txn); err != nil {
			return err
		}

		if txn.CampaignID != nil {
			res := tx.Model(&schema.Campaign{}).
				Where("id = ?", *txn.CampaignID).
				Update("distributed_amount", gorm.Expr("distributed_amount + CAST(? AS numeric)", amt.BaseString()))
			if res.Error != nil {
				return fmt.Errorf("failed to increment distributed amount: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return domain.ErrCampaignNotFound
			}
		}

		return nil
	})
}

// CreateTransaction inserts a transaction record without touching any campaign
// counter. Used for redemptions and for reconciler backfill.
func (s *pgStore) CreateTransaction(ctx context.Context, txn *schema.Transaction) error {
	return insertTransaction(s.db.WithContext(ctx), txn)
}

// insertTransaction creates the row with ON CONFLICT DO NOTHING on the unique
// blockchain hash. If the record already existed GORM leaves ID at 0, which is
// how re-recording the same confirmed transfer is detected.
func insertTransaction(tx *gorm.DB, txn *schema.Transaction) error {
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blockchain_tx_hash"}},
		DoNothing: true,
	}).Clauses(clause.Returning{Columns: []clause.Column{}}).
		Create(txn).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	if txn.ID == 0 {
		return domain.ErrDuplicateTransaction
	}

	return nil
}

// HasTransaction reports whether a record with the given blockchain hash exists
func (s *pgStore) HasTransaction(ctx context.Context, blockchainTxHash string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&schema.Transaction{}).
		Where("blockchain_tx_hash = ?", blockchainTxHash).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check transaction: %w", err)
	}
	return count > 0, nil
}

// ListTransactionsByCampaign retrieves a campaign's transactions, newest first
func (s *pgStore) ListTransactionsByCampaign(ctx context.Context, campaignID string) ([]*schema.Transaction, error) {
	var txns []*schema.Transaction
	err := s.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at DESC, id DESC").
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

// ListDonationsByAccount retrieves an account's donations, newest first
func (s *pgStore) ListDonationsByAccount(ctx context.Context, accountID string) ([]*schema.Donation, error) {
	var donations []*schema.Donation
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Find(&donations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	return donations, nil
}
