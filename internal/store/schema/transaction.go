package schema

import (
	"time"

	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
)

// Transaction represents the transactions table - the append-only off-chain
// mirror of confirmed on-chain transfers. The blockchain hash is both the
// durable proof of the event and the idempotency key: inserting the same hash
// twice is rejected by the unique index, which is what makes record retries
// and event replay safe. Rows are created once and never updated or deleted.
type Transaction struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	// BlockchainTxHash is the confirmed on-chain transaction hash
	BlockchainTxHash string `gorm:"column:blockchain_tx_hash;not null;uniqueIndex;type:text" json:"blockchain_tx_hash"`
	// Type is MINT or REDEEM
	Type domain.TransactionType `gorm:"column:type;not null;type:text" json:"type"`
	// Amount is the transferred value in base units
	Amount string `gorm:"column:amount;not null;type:numeric(78,0)" json:"amount"`
	// CampaignID links the transfer to a campaign when known (nil for
	// redemptions and for records backfilled from the event log)
	CampaignID *string `gorm:"column:campaign_id;type:uuid;index" json:"campaign_id,omitempty"`
	// BeneficiaryID is the account that received the mint or spent the redemption
	BeneficiaryID string `gorm:"column:beneficiary_id;not null;type:uuid;index" json:"beneficiary_id"`
	// VendorID is the receiving vendor account, present only for REDEEM
	VendorID *string `gorm:"column:vendor_id;type:uuid" json:"vendor_id,omitempty"`
	// BlockNumber is the block the transfer was included in, when known
	BlockNumber *uint64 `gorm:"column:block_number" json:"block_number,omitempty"`
	// CreatedAt is the timestamp when this record was written
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`

	// Associations
	Campaign    *Campaign `gorm:"foreignKey:CampaignID" json:"-"`
	Beneficiary *Account  `gorm:"foreignKey:BeneficiaryID" json:"-"`
	Vendor      *Account  `gorm:"foreignKey:VendorID" json:"-"`
}

// TableName specifies the table name for the Transaction model
func (Transaction) TableName() string {
	return "transactions"
}
