package reconciler_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reliefcoin/reliefcoin-backend/internal/adapter"
	"github.com/reliefcoin/reliefcoin-backend/internal/amount"
	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
	"github.com/reliefcoin/reliefcoin-backend/internal/logger"
	"github.com/reliefcoin/reliefcoin-backend/internal/mocks"
	"github.com/reliefcoin/reliefcoin-backend/internal/reconciler"
	"github.com/reliefcoin/reliefcoin-backend/internal/store/schema"
)

const (
	beneficiaryWallet = "0x1111111111111111111111111111111111111111"
	vendorWallet      = "0x2222222222222222222222222222222222222222"
	strangerWallet    = "0x3333333333333333333333333333333333333333"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newReconciler(st *mocks.MockStore, cs *mocks.MockCursorStore, lg *mocks.MockLedgerClient, cfg reconciler.Config) *reconciler.Reconciler {
	return reconciler.New(st, cs, lg, adapter.NewClock(), cfg)
}

func mintEvent(txHash string, block uint64) domain.TransferEvent {
	return domain.TransferEvent{
		TxHash:      txHash,
		From:        domain.ZeroAddress,
		To:          beneficiaryWallet,
		Amount:      amount.MustParse("50").Base(),
		BlockNumber: block,
	}
}

func TestSweep_BackfillsMissingMint(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)
	cs := new(mocks.MockCursorStore)
	lg := new(mocks.MockLedgerClient)

	beneficiary := &schema.Account{ID: "b-1", Role: domain.RoleBeneficiary, WalletAddress: beneficiaryWallet}

	cs.On("GetBlockCursor", ctx).Return(uint64(99), nil)
	lg.On("HeadBlock", ctx).Return(uint64(212), nil)
	lg.On("TransferEvents", ctx, uint64(100), uint64(200)).
		Return([]domain.TransferEvent{mintEvent("0xaaa", 150)}, nil)
	st.On("HasTransaction", ctx, "0xaaa").Return(false, nil)
	st.On("GetAccountByWallet", ctx, beneficiaryWallet).Return(beneficiary, nil)
	st.On("CreateTransaction", ctx, mock.MatchedBy(func(txn *schema.Transaction) bool {
		return txn.BlockchainTxHash == "0xaaa" &&
			txn.Type == domain.TransactionTypeMint &&
			txn.Amount == amount.MustParse("50").BaseString() &&
			txn.CampaignID == nil &&
			txn.BeneficiaryID == "b-1" &&
			txn.BlockNumber != nil && *txn.BlockNumber == 150
	})).Return(nil)
	cs.On("SetBlockCursor", ctx, uint64(200)).Return(nil)

	r := newReconciler(st, cs, lg, reconciler.Config{Confirmations: 12})
	require.NoError(t, r.Sweep(ctx))

	st.AssertExpectations(t)
	cs.AssertExpectations(t)
}

func TestSweep_ClassifiesRedeem(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)
	cs := new(mocks.MockCursorStore)
	lg := new(mocks.MockLedgerClient)

	beneficiary := &schema.Account{ID: "b-1", Role: domain.RoleBeneficiary, WalletAddress: beneficiaryWallet}
	vendor := &schema.Account{ID: "v-1", Role: domain.RoleVendor, WalletAddress: vendorWallet}

	event := domain.TransferEvent{
		TxHash:      "0xbbb",
		From:        beneficiaryWallet,
		To:          vendorWallet,
		Amount:      amount.MustParse("20").Base(),
		BlockNumber: 150,
	}

	cs.On("GetBlockCursor", ctx).Return(uint64(99), nil)
	lg.On("HeadBlock", ctx).Return(uint64(212), nil)
	lg.On("TransferEvents", ctx, uint64(100), uint64(200)).Return([]domain.TransferEvent{event}, nil)
	st.On("HasTransaction", ctx, "0xbbb").Return(false, nil)
	st.On("GetAccountByWallet", ctx, beneficiaryWallet).Return(beneficiary, nil)
	st.On("GetAccountByWallet", ctx, vendorWallet).Return(vendor, nil)
	st.On("CreateTransaction", ctx, mock.MatchedBy(func(txn *schema.Transaction) bool {
		return txn.Type == domain.TransactionTypeRedeem &&
			txn.BeneficiaryID == "b-1" &&
			txn.VendorID != nil && *txn.VendorID == "v-1"
	})).Return(nil)
	cs.On("SetBlockCursor", ctx, uint64(200)).Return(nil)

	r := newReconciler(st, cs, lg, reconciler.Config{Confirmations: 12})
	require.NoError(t, r.Sweep(ctx))

	st.AssertExpectations(t)
}

// Transfers touching no registered wallet are someone else's tokens on the
// same contract; they are skipped but the cursor still advances.
func TestSweep_SkipsUnknownWallets(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)
	cs := new(mocks.MockCursorStore)
	lg := new(mocks.MockLedgerClient)

	event := domain.TransferEvent{
		TxHash:      "0xccc",
		From:        domain.ZeroAddress,
		To:          strangerWallet,
		Amount:      amount.MustParse("1").Base(),
		BlockNumber: 150,
	}

	cs.On("GetBlockCursor", ctx).Return(uint64(99), nil)
	lg.On("HeadBlock", ctx).Return(uint64(212), nil)
	lg.On("TransferEvents", ctx, uint64(100), uint64(200)).Return([]domain.TransferEvent{event}, nil)
	st.On("HasTransaction", ctx, "0xccc").Return(false, nil)
	st.On("GetAccountByWallet", ctx, strangerWallet).Return(nil, nil)
	cs.On("SetBlockCursor", ctx, uint64(200)).Return(nil)

	r := newReconciler(st, cs, lg, reconciler.Config{Confirmations: 12})
	require.NoError(t, r.Sweep(ctx))

	st.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
	cs.AssertExpectations(t)
}

func TestSweep_SkipsAlreadyRecorded(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)
	cs := new(mocks.MockCursorStore)
	lg := new(mocks.MockLedgerClient)

	cs.On("GetBlockCursor", ctx).Return(uint64(99), nil)
	lg.On("HeadBlock", ctx).Return(uint64(212), nil)
	lg.On("TransferEvents", ctx, uint64(100), uint64(200)).
		Return([]domain.TransferEvent{mintEvent("0xddd", 150)}, nil)
	st.On("HasTransaction", ctx, "0xddd").Return(true, nil)
	cs.On("SetBlockCursor", ctx, uint64(200)).Return(nil)

	r := newReconciler(st, cs, lg, reconciler.Config{Confirmations: 12})
	require.NoError(t, r.Sweep(ctx))

	st.AssertNotCalled(t, "GetAccountByWallet", mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
}

// Losing the insert race against a live coordinator run is not an error.
func TestSweep_DuplicateInsertIsNotAnError(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)
	cs := new(mocks.MockCursorStore)
	lg := new(mocks.MockLedgerClient)

	beneficiary := &schema.Account{ID: "b-1", Role: domain.RoleBeneficiary, WalletAddress: beneficiaryWallet}

	cs.On("GetBlockCursor", ctx).Return(uint64(99), nil)
	lg.On("HeadBlock", ctx).Return(uint64(212), nil)
	lg.On("TransferEvents", ctx, uint64(100), uint64(200)).
		Return([]domain.TransferEvent{mintEvent("0xeee", 150)}, nil)
	st.On("HasTransaction", ctx, "0xeee").Return(false, nil)
	st.On("GetAccountByWallet", ctx, beneficiaryWallet).Return(beneficiary, nil)
	st.On("CreateTransaction", ctx, mock.Anything).Return(domain.ErrDuplicateTransaction)
	cs.On("SetBlockCursor", ctx, uint64(200)).Return(nil)

	r := newReconciler(st, cs, lg, reconciler.Config{Confirmations: 12})
	require.NoError(t, r.Sweep(ctx))

	cs.AssertExpectations(t)
}

// A failed event leaves the cursor untouched so the whole range is replayed.
func TestSweep_DoesNotAdvanceCursorOnFailure(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)
	cs := new(mocks.MockCursorStore)
	lg := new(mocks.MockLedgerClient)

	beneficiary := &schema.Account{ID: "b-1", Role: domain.RoleBeneficiary, WalletAddress: beneficiaryWallet}

	cs.On("GetBlockCursor", ctx).Return(uint64(99), nil)
	lg.On("HeadBlock", ctx).Return(uint64(212), nil)
	lg.On("TransferEvents", ctx, uint64(100), uint64(200)).
		Return([]domain.TransferEvent{mintEvent("0xfff", 150)}, nil)
	st.On("HasTransaction", ctx, "0xfff").Return(false, nil)
	st.On("GetAccountByWallet", ctx, beneficiaryWallet).Return(beneficiary, nil)
	st.On("CreateTransaction", ctx, mock.Anything).Return(errors.New("database unavailable"))

	r := newReconciler(st, cs, lg, reconciler.Config{Confirmations: 12})
	require.Error(t, r.Sweep(ctx))

	cs.AssertNotCalled(t, "SetBlockCursor", mock.Anything, mock.Anything)
}

func TestSweep_NothingNewBehindConfirmationMargin(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)
	cs := new(mocks.MockCursorStore)
	lg := new(mocks.MockLedgerClient)

	cs.On("GetBlockCursor", ctx).Return(uint64(200), nil)
	lg.On("HeadBlock", ctx).Return(uint64(210), nil)

	r := newReconciler(st, cs, lg, reconciler.Config{Confirmations: 12})
	require.NoError(t, r.Sweep(ctx))

	lg.AssertNotCalled(t, "TransferEvents", mock.Anything, mock.Anything, mock.Anything)
	cs.AssertNotCalled(t, "SetBlockCursor", mock.Anything, mock.Anything)
}

// A fresh deployment with an empty cursor starts from genesis and sweeps at
// most MaxBlockRange blocks at a time.
func TestSweep_CapsBlockRange(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)
	cs := new(mocks.MockCursorStore)
	lg := new(mocks.MockLedgerClient)

	cs.On("GetBlockCursor", ctx).Return(uint64(0), nil)
	lg.On("HeadBlock", ctx).Return(uint64(100000), nil)
	lg.On("TransferEvents", ctx, uint64(0), uint64(99)).Return([]domain.TransferEvent{}, nil)
	cs.On("SetBlockCursor", ctx, uint64(99)).Return(nil)

	r := newReconciler(st, cs, lg, reconciler.Config{Confirmations: 12, MaxBlockRange: 100})
	require.NoError(t, r.Sweep(ctx))

	assert.True(t, cs.AssertExpectations(t))
}
