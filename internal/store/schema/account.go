package schema

import (
	"time"

	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
)

// Account represents the accounts table - one row per identity (issuer,
// vendor, donor, beneficiary). Each account owns exactly one wallet; the
// wallet's on-chain balance is the source of truth for spendable value, so
// there is deliberately no balance column here.
type Account struct {
	// ID is the account identifier (UUID)
	ID string `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	// Name is the display name
	Name string `gorm:"column:name;not null;type:text" json:"name"`
	// Email is the login identifier
	Email string `gorm:"column:email;not null;uniqueIndex;type:text" json:"email"`
	// PasswordHash is the bcrypt hash of the login password
	PasswordHash string `gorm:"column:password_hash;not null;type:text" json:"-"`
	// Role determines what the account may do
	Role domain.Role `gorm:"column:role;not null;type:text;index" json:"role"`
	// Phone is the SMS delivery number (beneficiaries and donors)
	Phone string `gorm:"column:phone;type:text;index" json:"phone,omitempty"`
	// WalletAddress is the account's unique on-chain address
	WalletAddress string `gorm:"column:wallet_address;not null;uniqueIndex;type:text" json:"wallet_address"`
	// PrivateKeyHex is the custodial signing key. Never serialized; only the
	// signer package consumes it.
	PrivateKeyHex string `gorm:"column:private_key_hex;not null;type:text" json:"-"`
	// CreatedAt is the timestamp when this account was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`
	// UpdatedAt is the timestamp when this account was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz" json:"updated_at"`
}

// TableName specifies the table name for the Account model
func (Account) TableName() string {
	return "accounts"
}
