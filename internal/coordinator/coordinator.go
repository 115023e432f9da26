// Package coordinator orchestrates every on-chain-affecting operation as a
// two-phase run: submit and confirm the ledger transfer, then durably record
// the matching off-chain accounting entry. The protocol encodes one rule:
// on-chain confirmation is the point of no return. Everything before it may
// fail cleanly; everything after it is a retryable, idempotent side effect
// that is never rolled back.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/reliefcoin/reliefcoin-backend/internal/amount"
	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
	"github.com/reliefcoin/reliefcoin-backend/internal/ledger"
	"github.com/reliefcoin/reliefcoin-backend/internal/logger"
	"github.com/reliefcoin/reliefcoin-backend/internal/messaging"
	"github.com/reliefcoin/reliefcoin-backend/internal/signer"
	"github.com/reliefcoin/reliefcoin-backend/internal/store"
	"github.com/reliefcoin/reliefcoin-backend/internal/store/schema"
)

// Config holds the off-chain record retry policy. The retries only cover
// phase 3: once the ledger confirmed, the record is attempted until the
// policy is exhausted, then escalated, never abandoned silently.
type Config struct {
	RecordMaxRetries      uint64
	RecordInitialInterval time.Duration
	RecordMaxInterval     time.Duration
}

// IssueAidRequest asks for amt to be minted to the beneficiary identified by
// phone, accounted against a campaign.
type IssueAidRequest struct {
	BeneficiaryPhone string
	CampaignID       string
	Amount           amount.Amount
}

// RedeemRequest asks for amt to be moved from a beneficiary's custodial
// wallet to a vendor's.
type RedeemRequest struct {
	BeneficiaryID string
	VendorID      string
	Amount        amount.Amount
}

// Result reports how far a coordinator run got. TxHash is set from
// LEDGER_SUBMITTED onward, including on a confirmation timeout, so an unknown
// outcome can be reconciled against the transfer event log.
type Result struct {
	State  domain.CoordinatorState
	TxHash string
}

// Coordinator runs the two-phase issue and redeem protocols. All external
// handles are injected capabilities so tests can substitute fakes.
type Coordinator struct {
	store     store.Store
	ledger    ledger.Client
	publisher messaging.Publisher
	cfg       Config
}

// New creates a coordinator. publisher may be nil, which disables the
// notification side channel but never the accounting path.
func New(s store.Store, l ledger.Client, p messaging.Publisher, cfg Config) *Coordinator {
	if cfg.RecordMaxRetries == 0 {
		cfg.RecordMaxRetries = 8
	}
	if cfg.RecordInitialInterval == 0 {
		cfg.RecordInitialInterval = 200 * time.Millisecond
	}
	if cfg.RecordMaxInterval == 0 {
		cfg.RecordMaxInterval = 10 * time.Second
	}

	return &Coordinator{
		store:     s,
		ledger:    l,
		publisher: p,
		cfg:       cfg,
	}
}

// IssueAid mints tokens to a beneficiary and records the distribution against
// the campaign. The distributed ≤ raised cap is checked here, before the
// irreversible mint; the store's guarded donation increment keeps raised ≤
// target, so the headroom read cannot drift past target either.
func (c *Coordinator) IssueAid(ctx context.Context, req IssueAidRequest) (*Result, error) {
	res := &Result{State: domain.StateInitiated}

	if !req.Amount.Positive() {
		return res, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidRequest)
	}

	beneficiary, err := c.store.GetAccountByPhone(ctx, req.BeneficiaryPhone)
	if err != nil {
		return res, err
	}
	if beneficiary == nil || beneficiary.Role != domain.RoleBeneficiary {
		return res, fmt.Errorf("%w: no beneficiary with phone %s", domain.ErrAccountNotFound, req.BeneficiaryPhone)
	}

	campaign, err := c.store.GetCampaign(ctx, req.CampaignID)
	if err != nil {
		return res, err
	}
	if campaign == nil {
		return res, domain.ErrCampaignNotFound
	}

	if err := checkDistributionHeadroom(campaign, req.Amount); err != nil {
		return res, err
	}

	res.State = domain.StateLedgerSubmitted
	txHash, err := c.ledger.Mint(ctx, beneficiary.WalletAddress, req.Amount)
	res.TxHash = txHash
	if err != nil {
		res.State = domain.StateLedgerFailed
		c.logLedgerFailure(ctx, err, domain.TransactionTypeMint, txHash)
		return res, err
	}
	res.State = domain.StateLedgerConfirmed

	txn := &schema.Transaction{
		BlockchainTxHash: txHash,
		Type:             domain.TransactionTypeMint,
		Amount:           req.Amount.BaseString(),
		CampaignID:       &campaign.ID,
		BeneficiaryID:    beneficiary.ID,
	}

	event := &domain.AidEvent{
		Type:          domain.TransactionTypeMint,
		TxHash:        txHash,
		Amount:        req.Amount.BaseString(),
		CampaignID:    campaign.ID,
		BeneficiaryID: beneficiary.ID,
		Beneficiary:   beneficiary.Name,
		Phone:         beneficiary.Phone,
		OccurredAt:    time.Now().UTC(),
	}

	if err := c.record(ctx, func(ctx context.Context) error {
		return c.store.RecordDistribution(ctx, txn, req.Amount)
	}); err != nil {
		res.State = domain.StateRecordFailed
		return res, c.escalateRecordFailure(ctx, event, err)
	}
	res.State = domain.StateRecorded

	c.publish(ctx, event)

	return res, nil
}

// Redeem moves tokens from a beneficiary's wallet to a vendor's and mirrors
// the confirmed transfer as a REDEEM record. The ledger itself rejects
// overspends; there is no campaign counter on this path.
func (c *Coordinator) Redeem(ctx context.Context, req RedeemRequest) (*Result, error) {
	res := &Result{State: domain.StateInitiated}

	if !req.Amount.Positive() {
		return res, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidRequest)
	}

	beneficiary, err := c.store.GetAccountByID(ctx, req.BeneficiaryID)
	if err != nil {
		return res, err
	}
	if beneficiary == nil || beneficiary.Role != domain.RoleBeneficiary {
		return res, fmt.Errorf("%w: no beneficiary %s", domain.ErrAccountNotFound, req.BeneficiaryID)
	}

	vendor, err := c.store.GetAccountByID(ctx, req.VendorID)
	if err != nil {
		return res, err
	}
	if vendor == nil || vendor.Role != domain.RoleVendor {
		return res, fmt.Errorf("%w: no vendor %s", domain.ErrAccountNotFound, req.VendorID)
	}

	from, err := signer.FromHex(beneficiary.PrivateKeyHex)
	if err != nil {
		return res, fmt.Errorf("failed to load beneficiary signer: %w", err)
	}

	res.State = domain.StateLedgerSubmitted
	txHash, err := c.ledger.Transfer(ctx, from, vendor.WalletAddress, req.Amount)
	res.TxHash = txHash
	if err != nil {
		res.State = domain.StateLedgerFailed
		c.logLedgerFailure(ctx, err, domain.TransactionTypeRedeem, txHash)
		return res, err
	}
	res.State = domain.StateLedgerConfirmed

	txn := &schema.Transaction{
		BlockchainTxHash: txHash,
		Type:             domain.TransactionTypeRedeem,
		Amount:           req.Amount.BaseString(),
		BeneficiaryID:    beneficiary.ID,
		VendorID:         &vendor.ID,
	}

	event := &domain.AidEvent{
		Type:          domain.TransactionTypeRedeem,
		TxHash:        txHash,
		Amount:        req.Amount.BaseString(),
		BeneficiaryID: beneficiary.ID,
		Beneficiary:   beneficiary.Name,
		Phone:         beneficiary.Phone,
		VendorID:      vendor.ID,
		OccurredAt:    time.Now().UTC(),
	}

	if err := c.record(ctx, func(ctx context.Context) error {
		return c.store.CreateTransaction(ctx, txn)
	}); err != nil {
		res.State = domain.StateRecordFailed
		return res, c.escalateRecordFailure(ctx, event, err)
	}
	res.State = domain.StateRecorded

	c.publish(ctx, event)

	return res, nil
}

// checkDistributionHeadroom rejects a mint that would push distributed past
// raised. Validating after an irreversible on-chain mint is too late, so this
// runs strictly before the ledger call.
func checkDistributionHeadroom(campaign *schema.Campaign, amt amount.Amount) error {
	raised, err := amount.FromBaseString(campaign.RaisedAmount)
	if err != nil {
		return fmt.Errorf("failed to parse raised amount: %w", err)
	}
	distributed, err := amount.FromBaseString(campaign.DistributedAmount)
	if err != nil {
		return fmt.Errorf("failed to parse distributed amount: %w", err)
	}

	if distributed.Add(amt).Cmp(raised) > 0 {
		return fmt.Errorf("%w: distribution of %s exceeds undistributed funds %s",
			domain.ErrCampaignLimit, amt.Decimal(), raised.Sub(distributed).Decimal())
	}

	return nil
}

// record runs the phase-3 write under the retry policy. A duplicate hash
// means an earlier attempt already landed the record, which is success.
func (c *Coordinator) record(ctx context.Context, write func(ctx context.Context) error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.RecordInitialInterval
	policy.MaxInterval = c.cfg.RecordMaxInterval

	return backoff.Retry(func() error {
		err := write(ctx)
		if err == nil || errors.Is(err, domain.ErrDuplicateTransaction) {
			return nil
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, c.cfg.RecordMaxRetries), ctx))
}

// escalateRecordFailure wraps an exhausted phase-3 failure. The transfer
// confirmed on-chain, so the error carries the hash an operator or the
// reconciler needs to replay the record, and a records.failed alert goes out
// on the side channel.
func (c *Coordinator) escalateRecordFailure(ctx context.Context, event *domain.AidEvent, err error) error {
	recordErr := &domain.RecordFailedError{
		TxHash: event.TxHash,
		Type:   event.Type,
		Err:    err,
	}

	logger.ErrorCtx(ctx, recordErr,
		zap.String("tx_hash", event.TxHash),
		zap.String("type", string(event.Type)),
		zap.String("state", string(domain.StateRecordFailed)))

	event.RecoveryNeeded = true
	c.publish(ctx, event)

	return recordErr
}

// publish sends the event on the notification side channel. Failures are
// logged and swallowed: notification must never fail the accounting path.
func (c *Coordinator) publish(ctx context.Context, event *domain.AidEvent) {
	if c.publisher == nil {
		return
	}

	if err := c.publisher.PublishAidEvent(ctx, event); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("message", "Failed to publish aid event"),
			zap.String("tx_hash", event.TxHash))
	}
}

func (c *Coordinator) logLedgerFailure(ctx context.Context, err error, txType domain.TransactionType, txHash string) {
	fields := []zap.Field{
		zap.String("type", string(txType)),
		zap.String("state", string(domain.StateLedgerFailed)),
	}
	if txHash != "" {
		// An unknown outcome: the hash may still confirm and will then be
		// picked up by the reconciler.
		fields = append(fields, zap.String("tx_hash", txHash))
	}
	logger.ErrorCtx(ctx, err, fields...)
}
