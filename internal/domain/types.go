package domain

import (
	"math/big"
	"time"
)

// TokenDecimals is the number of fractional digits the ReliefCoin contract
// uses. All on-chain amounts are integers denominated in base units of
// 10^-18 RC.
const TokenDecimals = 18

// ZeroAddress is the Ethereum zero address. A Transfer event originating from
// it is a mint.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// Role identifies what an account is allowed to do.
type Role string

const (
	// RoleIssuer is the NGO operator account holding mint authority.
	RoleIssuer Role = "issuer"
	// RoleVendor accepts redemptions from beneficiaries.
	RoleVendor Role = "vendor"
	// RoleDonor funds campaigns off-chain.
	RoleDonor Role = "donor"
	// RoleBeneficiary receives aid and spends it with vendors.
	RoleBeneficiary Role = "beneficiary"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleIssuer, RoleVendor, RoleDonor, RoleBeneficiary:
		return true
	}
	return false
}

// TransactionType classifies an off-chain transaction record.
type TransactionType string

const (
	// TransactionTypeMint mirrors an on-chain mint to a beneficiary.
	TransactionTypeMint TransactionType = "MINT"
	// TransactionTypeRedeem mirrors an on-chain beneficiary-to-vendor transfer.
	TransactionTypeRedeem TransactionType = "REDEEM"
)

// CoordinatorState tracks a coordinator run through the two-phase protocol.
// On-chain confirmation (StateLedgerConfirmed) is the point of no return:
// everything after it is a durable, idempotent side effect, never a rollback
// target.
type CoordinatorState string

const (
	StateInitiated       CoordinatorState = "INITIATED"
	StateLedgerSubmitted CoordinatorState = "LEDGER_SUBMITTED"
	StateLedgerConfirmed CoordinatorState = "LEDGER_CONFIRMED"
	StateRecorded        CoordinatorState = "RECORDED"
	StateLedgerFailed    CoordinatorState = "LEDGER_FAILED"
	StateRecordFailed    CoordinatorState = "RECORD_FAILED"
)

// TransferEvent is one entry of the token contract's replayable transfer log.
// For a fixed, finalized block range the sequence is deterministic, which is
// what makes it usable as the authoritative source during reconciliation.
type TransferEvent struct {
	TxHash      string   `json:"tx_hash"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Amount      *big.Int `json:"amount"`
	BlockNumber uint64   `json:"block_number"`
	LogIndex    uint     `json:"log_index"`
}

// IsMint reports whether the transfer originated from the zero address.
func (e *TransferEvent) IsMint() bool {
	return e.From == ZeroAddress
}

// AidEvent is published to the message broker after a coordinator run reaches
// RECORDED (or RECORD_FAILED, with RecoveryNeeded set). The notifier consumes
// it to send the beneficiary their QR code and SMS, or to raise an alert.
type AidEvent struct {
	Type          TransactionType `json:"type"`
	TxHash        string          `json:"tx_hash"`
	Amount        string          `json:"amount"`
	CampaignID    string          `json:"campaign_id,omitempty"`
	BeneficiaryID string          `json:"beneficiary_id"`
	Beneficiary   string          `json:"beneficiary"`
	Phone         string          `json:"phone,omitempty"`
	VendorID      string          `json:"vendor_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`

	// RecoveryNeeded marks an event whose on-chain transfer confirmed but
	// whose off-chain record could not be written. The confirmed TxHash is
	// the key an operator (or the reconciler) uses to replay the recording.
	RecoveryNeeded bool `json:"recovery_needed"`
}
