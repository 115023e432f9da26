package schema

import (
	"time"
)

// Campaign represents the campaigns table. Amount columns are token base
// units stored as numeric(78,0) strings; raised and distributed only ever
// grow, and only through the store's guarded atomic increments.
type Campaign struct {
	// ID is the campaign identifier (UUID)
	ID string `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	// Name is the public campaign name
	Name string `gorm:"column:name;not null;type:text" json:"name"`
	// Description explains what the campaign funds
	Description string `gorm:"column:description;not null;type:text" json:"description"`
	// TargetAmount is the fundraising goal in base units
	TargetAmount string `gorm:"column:target_amount;not null;type:numeric(78,0)" json:"target_amount"`
	// RaisedAmount is the sum of recorded donations in base units
	RaisedAmount string `gorm:"column:raised_amount;not null;default:0;type:numeric(78,0)" json:"raised_amount"`
	// DistributedAmount is the sum of recorded aid issuances in base units
	DistributedAmount string `gorm:"column:distributed_amount;not null;default:0;type:numeric(78,0)" json:"distributed_amount"`
	// CreatedAt is the timestamp when this campaign was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`

	// Associations
	Transactions []Transaction `gorm:"foreignKey:CampaignID" json:"-"`
	Donations    []Donation    `gorm:"foreignKey:CampaignID" json:"-"`
}

// TableName specifies the table name for the Campaign model
func (Campaign) TableName() string {
	return "campaigns"
}
