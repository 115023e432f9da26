package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned for client errors caught before any side
	// effect: non-positive amounts, unknown accounts, wrong roles.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrLedgerRejected is returned when the contract call reverted. Nothing
	// moved; safe to retry once the cause is fixed.
	ErrLedgerRejected = errors.New("ledger rejected operation")

	// ErrInsufficientBalance is returned when the sender's on-chain balance
	// cannot cover the transfer.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrLedgerUnavailable is returned when the ledger node cannot be reached.
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrLedgerTimeout is returned when confirmation did not arrive within the
	// bounded wait. The true outcome is unknown: the transfer may still land.
	// Callers must reconcile via the transfer event log before retrying.
	ErrLedgerTimeout = errors.New("ledger confirmation timed out")

	// ErrDuplicateTransaction is returned when a transaction record with the
	// same blockchain hash already exists. Expected during record retries and
	// event replay; treated as success by idempotent writers.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrCampaignLimit is returned when a donation would push raised past the
	// campaign target, or a distribution would push distributed past raised.
	ErrCampaignLimit = errors.New("campaign limit exceeded")

	// ErrAccountNotFound is returned when an account lookup finds nothing.
	ErrAccountNotFound = errors.New("account not found")

	// ErrCampaignNotFound is returned when a campaign lookup finds nothing.
	ErrCampaignNotFound = errors.New("campaign not found")
)

// RecordFailedError reports that an on-chain transfer confirmed but the
// off-chain record could not be written after exhausting retries. The money
// has moved and cannot be rolled back; the books disagree until the confirmed
// hash is replayed. This is fatal to the request but not to the system, and
// must never be conflated with a plain request failure.
type RecordFailedError struct {
	TxHash string
	Type   TransactionType
	Err    error
}

func (e *RecordFailedError) Error() string {
	return fmt.Sprintf("ledger %s confirmed as %s but off-chain record failed: %v", e.Type, e.TxHash, e.Err)
}

func (e *RecordFailedError) Unwrap() error {
	return e.Err
}
