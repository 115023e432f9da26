package schema

import (
	"time"
)

// Donation represents the donations table - donor-originated, off-chain-only
// records. A donation row is only ever written together with its campaign's
// raised increment, inside one database transaction.
type Donation struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	// AccountID is the authenticated donor account
	AccountID string `gorm:"column:account_id;not null;type:uuid;index" json:"account_id"`
	// CampaignID is the funded campaign
	CampaignID string `gorm:"column:campaign_id;not null;type:uuid;index" json:"campaign_id"`
	// DonorName is the name given at donation time (may differ from the account name)
	DonorName string `gorm:"column:donor_name;not null;type:text" json:"donor_name"`
	// DonorPhone is the contact number given at donation time
	DonorPhone string `gorm:"column:donor_phone;not null;type:text" json:"donor_phone"`
	// Amount is the donated value in base units
	Amount string `gorm:"column:amount;not null;type:numeric(78,0)" json:"amount"`
	// CreatedAt is the timestamp when this donation was recorded
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`

	// Associations
	Account  *Account  `gorm:"foreignKey:AccountID" json:"-"`
	Campaign *Campaign `gorm:"foreignKey:CampaignID" json:"-"`
}

// TableName specifies the table name for the Donation model
func (Donation) TableName() string {
	return "donations"
}
