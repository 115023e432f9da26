// Package reconciler replays the token contract's Transfer log against the
// off-chain books. The chain is authoritative: any confirmed transfer with no
// matching Transaction row — a crashed coordinator, a confirmation timeout, a
// RECORD_FAILED run — is backfilled here. Replays are idempotent because the
// transaction hash is unique in the store.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/reliefcoin/reliefcoin-backend/internal/adapter"
	"github.com/reliefcoin/reliefcoin-backend/internal/amount"
	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
	"github.com/reliefcoin/reliefcoin-backend/internal/ledger"
	"github.com/reliefcoin/reliefcoin-backend/internal/logger"
	"github.com/reliefcoin/reliefcoin-backend/internal/store"
	"github.com/reliefcoin/reliefcoin-backend/internal/store/schema"
)

// Config holds the sweep policy.
type Config struct {
	// PollInterval is the pause between sweeps
	PollInterval time.Duration
	// Confirmations is how many blocks behind head the sweep stops, so
	// reorg-prone blocks are never recorded
	Confirmations uint64
	// MaxBlockRange caps the block span of a single sweep
	MaxBlockRange uint64
	// Workers bounds concurrent event processing
	Workers int
}

// Reconciler sweeps the transfer event log and backfills missing records.
type Reconciler struct {
	store  store.Store
	cursor store.CursorStore
	ledger ledger.Client
	clock  adapter.Clock
	cfg    Config
	pool   pond.Pool
}

// New creates a reconciler
func New(s store.Store, cursor store.CursorStore, l ledger.Client, clock adapter.Clock, cfg Config) *Reconciler {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.MaxBlockRange == 0 {
		cfg.MaxBlockRange = 5000
	}
	if cfg.Workers == 0 {
		cfg.Workers = 8
	}

	return &Reconciler{
		store:  s,
		cursor: cursor,
		ledger: l,
		clock:  clock,
		cfg:    cfg,
		pool:   pond.NewPool(cfg.Workers),
	}
}

// Run sweeps repeatedly until ctx is cancelled. A failed sweep is logged and
// retried on the next tick; the cursor only ever advances past fully
// processed ranges, so nothing is skipped.
func (r *Reconciler) Run(ctx context.Context) error {
	for {
		if err := r.Sweep(ctx); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("message", "Sweep failed"))
		}

		select {
		case <-ctx.Done():
			r.pool.StopAndWait()
			return ctx.Err()
		case <-r.clock.After(r.cfg.PollInterval):
		}
	}
}

// Sweep processes one block range: cursor+1 through head minus the
// confirmation margin, capped at MaxBlockRange blocks.
func (r *Reconciler) Sweep(ctx context.Context) error {
	cursor, err := r.cursor.GetBlockCursor(ctx)
	if err != nil {
		return err
	}

	head, err := r.ledger.HeadBlock(ctx)
	if err != nil {
		return err
	}
	if head < r.cfg.Confirmations {
		return nil
	}

	to := head - r.cfg.Confirmations
	from := uint64(0)
	if cursor > 0 {
		from = cursor + 1
	}
	if from > to {
		return nil
	}
	if to-from >= r.cfg.MaxBlockRange {
		to = from + r.cfg.MaxBlockRange - 1
	}

	events, err := r.ledger.TransferEvents(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to fetch transfer events: %w", err)
	}

	if len(events) > 0 {
		group := r.pool.NewGroup()
		for _, event := range events {
			group.SubmitErr(func() error {
				return r.processEvent(ctx, event)
			})
		}
		if err := group.Wait(); err != nil {
			// Leave the cursor where it was; the whole range is replayed
			// next sweep and already-recorded events fall out as duplicates.
			return fmt.Errorf("failed to process events in range [%d, %d]: %w", from, to, err)
		}
	}

	if err := r.cursor.SetBlockCursor(ctx, to); err != nil {
		return err
	}

	logger.DebugCtx(ctx, "Swept transfer events",
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Int("events", len(events)))

	return nil
}

// processEvent backfills the off-chain record for one confirmed transfer.
// Events that touch no known wallet are not ours to account for and are
// skipped. The campaign attribution of a backfilled mint is unknowable from
// the chain alone, so the record carries a nil campaign reference.
func (r *Reconciler) processEvent(ctx context.Context, event domain.TransferEvent) error {
	exists, err := r.store.HasTransaction(ctx, event.TxHash)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	txn, err := r.classify(ctx, event)
	if err != nil {
		return err
	}
	if txn == nil {
		return nil
	}

	if err := r.store.CreateTransaction(ctx, txn); err != nil {
		// Lost the race against a concurrent coordinator record; the books
		// already hold this transfer.
		if errors.Is(err, domain.ErrDuplicateTransaction) {
			return nil
		}
		return err
	}

	logger.InfoCtx(ctx, "Backfilled missing transaction record",
		zap.String("tx_hash", event.TxHash),
		zap.String("type", string(txn.Type)),
		zap.Uint64("block", event.BlockNumber))

	return nil
}

// classify maps a transfer event onto a Transaction row, or nil when the
// event involves no registered account.
func (r *Reconciler) classify(ctx context.Context, event domain.TransferEvent) (*schema.Transaction, error) {
	blockNumber := event.BlockNumber
	amt := amount.FromBase(event.Amount)

	if event.IsMint() {
		beneficiary, err := r.store.GetAccountByWallet(ctx, event.To)
		if err != nil {
			return nil, err
		}
		if beneficiary == nil {
			return nil, nil
		}

		return &schema.Transaction{
			BlockchainTxHash: event.TxHash,
			Type:             domain.TransactionTypeMint,
			Amount:           amt.BaseString(),
			BeneficiaryID:    beneficiary.ID,
			BlockNumber:      &blockNumber,
		}, nil
	}

	beneficiary, err := r.store.GetAccountByWallet(ctx, event.From)
	if err != nil {
		return nil, err
	}
	vendor, err := r.store.GetAccountByWallet(ctx, event.To)
	if err != nil {
		return nil, err
	}
	if beneficiary == nil || vendor == nil {
		return nil, nil
	}

	return &schema.Transaction{
		BlockchainTxHash: event.TxHash,
		Type:             domain.TransactionTypeRedeem,
		Amount:           amt.BaseString(),
		BeneficiaryID:    beneficiary.ID,
		VendorID:         &vendor.ID,
		BlockNumber:      &blockNumber,
	}, nil
}
