package coordinator_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reliefcoin/reliefcoin-backend/internal/amount"
	"github.com/reliefcoin/reliefcoin-backend/internal/coordinator"
	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
	"github.com/reliefcoin/reliefcoin-backend/internal/logger"
	"github.com/reliefcoin/reliefcoin-backend/internal/mocks"
	"github.com/reliefcoin/reliefcoin-backend/internal/signer"
	"github.com/reliefcoin/reliefcoin-backend/internal/store/schema"
)

const (
	testTxHash     = "0xabc123"
	testCampaignID = "11111111-1111-1111-1111-111111111111"
	testPhone      = "+15550001111"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fastRetry keeps phase-3 retries from slowing the tests down.
var fastRetry = coordinator.Config{
	RecordMaxRetries:      2,
	RecordInitialInterval: time.Millisecond,
	RecordMaxInterval:     time.Millisecond,
}

func testBeneficiary(t *testing.T) *schema.Account {
	t.Helper()

	wallet, err := signer.NewWallet()
	require.NoError(t, err)

	return &schema.Account{
		ID:            "22222222-2222-2222-2222-222222222222",
		Name:          "Amina",
		Role:          domain.RoleBeneficiary,
		Phone:         testPhone,
		WalletAddress: wallet.Address,
		PrivateKeyHex: wallet.PrivateKeyHex,
	}
}

func testVendor(t *testing.T) *schema.Account {
	t.Helper()

	wallet, err := signer.NewWallet()
	require.NoError(t, err)

	return &schema.Account{
		ID:            "33333333-3333-3333-3333-333333333333",
		Name:          "Corner Market",
		Role:          domain.RoleVendor,
		WalletAddress: wallet.Address,
		PrivateKeyHex: wallet.PrivateKeyHex,
	}
}

func testCampaign(raised, distributed string) *schema.Campaign {
	return &schema.Campaign{
		ID:                testCampaignID,
		Name:              "Flood Relief",
		TargetAmount:      amount.MustParse("1000").BaseString(),
		RaisedAmount:      amount.MustParse(raised).BaseString(),
		DistributedAmount: amount.MustParse(distributed).BaseString(),
	}
}

func TestIssueAid_Recorded(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)
	lg := new(mocks.MockLedgerClient)
	pub := new(mocks.MockPublisher)

	beneficiary := testBeneficiary(t)
	campaign := testCampaign("1000", "0")
	amt := amount.MustParse("50")

	st.On("GetAccountByPhone", ctx, testPhone).Return(beneficiary, nil)
	st.On("GetCampaign", ctx, testCampaignID).Return(campaign, nil)
	lg.On("Mint", ctx, beneficiary.WalletAddress, amt).Return(testTxHash, nil)
	st.On("RecordDistribution", ctx, mock.MatchedBy(func(txn *schema.Transaction) bool {
		return txn.BlockchainTxHash == testTxHash &&
			txn.Type == domain.TransactionTypeMint &&
			txn.Amount == amt.BaseString() &&
			txn.CampaignID != nil && *txn.CampaignID == testCampaignID &&
			txn.BeneficiaryID == beneficiary.ID
	}), amt).Return(nil)
	pub.On("PublishAidEvent", ctx, mock.MatchedBy(func(e *domain.AidEvent) bool {
		return e.TxHash == testTxHash && e.Type == domain.TransactionTypeMint && !e.RecoveryNeeded
	})).Return(nil)

	c := coordinator.New(st, lg, pub, fastRetry)
	res, err := c.IssueAid(ctx, coordinator.IssueAidRequest{
		BeneficiaryPhone: testPhone,
		CampaignID:       testCampaignID,
		Amount:           amt,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StateRecorded, res.State)
	assert.Equal(t, testTxHash, res.TxHash)
	st.AssertExpectations(t)
	lg.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestIssueAid_RejectsNonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)
	lg := new(mocks.MockLedgerClient)

	c := coordinator.New(st, lg, nil, fastRetry)
	res, err := c.IssueAid(ctx, coordinator.IssueAidRequest{
		BeneficiaryPhone: testPhone,
		CampaignID:       testCampaignID,
		Amount:           amount.Zero(),
	})

	require.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Equal(t, domain.StateInitiated, res.State)
	lg.AssertNotCalled(t, "Mint", mock.Anything, mock.Anything, mock.Anything)
}

func TestIssueAid_UnknownBeneficiary(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)
	lg := new(mocks.MockLedgerClient)

	st.On("GetAccountByPhone", ctx, testPhone).Return(nil, nil)

	c := coordinator.New(st, lg, nil, fastRetry)
	_, err := c.IssueAid(ctx, coordinator.IssueAidRequest{
		BeneficiaryPhone: testPhone,
		CampaignID:       testCampaignID,
		Amount:           amount.MustParse("50"),
	})

	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	lg.AssertNotCalled(t, "Mint", mock.Anything, mock.Anything, mock.Anything)
}

// A mint that would push distributed past raised must be rejected before the
// ledger is ever touched: validating after an irreversible mint is too late.
func TestIssueAid_ExceedsUndistributedFunds(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)
	lg := new(mocks.MockLedgerClient)

	beneficiary := testBeneficiary(t)
	campaign := testCampaign("100", "80")

	st.On("GetAccountByPhone", ctx, testPhone).Return(beneficiary, nil)
	st.On("GetCampaign", ctx, testCampaignID).Return(campaign, nil)

	c := coordinator.New(st, lg, nil, fastRetry)
	res, err := c.IssueAid(ctx, coordinator.IssueAidRequest{
		BeneficiaryPhone: testPhone,
		CampaignID:       testCampaignID,
		Amount:           amount.MustParse("20.000000000000000001"),
	})

	require.ErrorIs(t, err, domain.ErrCampaignLimit)
	assert.Equal(t, domain.StateInitiated, res.State)
	lg.AssertNotCalled(t, "Mint", mock.Anything, mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "RecordDistribution", mock.Anything, mock.Anything, mock.Anything)
}

func TestIssueAid_LedgerTimeout(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)
	lg := new(mocks.MockLedgerClient)

	beneficiary := testBeneficiary(t)
	campaign := testCampaign("1000", "0")
	amt := amount.MustParse("50")

	st.On("GetAccountByPhone", ctx, testPhone).Return(beneficiary, nil)
	st.On("GetCampaign", ctx, testCampaignID).Return(campaign, nil)
	// Outcome unknown: the hash is still returned so the reconciler can
	// replay the event log and complete the recording later.
	lg.On("Mint", ctx, beneficiary.WalletAddress, amt).Return(testTxHash, domain.ErrLedgerTimeout)

	c := coordinator.New(st, lg, nil, fastRetry)
	res, err := c.IssueAid(ctx, coordinator.IssueAidRequest{
		BeneficiaryPhone: testPhone,
		CampaignID:       testCampaignID,
		Amount:           amt,
	})

	require.ErrorIs(t, err, domain.ErrLedgerTimeout)
	assert.Equal(t, domain.StateLedgerFailed, res.State)
	assert.Equal(t, testTxHash, res.TxHash)
	st.AssertNotCalled(t, "RecordDistribution", mock.Anything, mock.Anything, mock.Anything)
}

func TestIssueAid_RecordRetriesThenSucceeds(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)
	lg := new(mocks.MockLedgerClient)

	beneficiary := testBeneficiary(t)
	campaign := testCampaign("1000", "0")
	amt := amount.MustParse("50")

	st.On("GetAccountByPhone", ctx, testPhone).Return(beneficiary, nil)
	st.On("GetCampaign", ctx, testCampaignID).Return(campaign, nil)
	lg.On("Mint", ctx, beneficiary.WalletAddress, amt).Return(testTxHash, nil)
	st.On("RecordDistribution", ctx, mock.Anything, amt).Return(errors.New("connection reset")).Once()
	st.On("RecordDistribution", ctx, mock.Anything, amt).Return(nil).Once()

	c := coordinator.New(st, lg, nil, fastRetry)
	res, err := c.IssueAid(ctx, coordinator.IssueAidRequest{
		BeneficiaryPhone: testPhone,
		CampaignID:       testCampaignID,
		Amount:           amt,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StateRecorded, res.State)
	st.AssertExpectations(t)
}

// A duplicate hash on the record write means an earlier attempt already
// landed it. That is success, not an error.
func TestIssueAid_DuplicateRecordIsSuccess(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)
	lg := new(mocks.MockLedgerClient)

	beneficiary := testBeneficiary(t)
	campaign := testCampaign("1000", "0")
	amt := amount.MustParse("50")

	st.On("GetAccountByPhone", ctx, testPhone).Return(beneficiary, nil)
	st.On("GetCampaign", ctx, testCampaignID).Return(campaign, nil)
	lg.On("Mint", ctx, beneficiary.WalletAddress, amt).Return(testTxHash, nil)
	st.On("RecordDistribution", ctx, mock.Anything, amt).Return(domain.ErrDuplicateTransaction).Once()

	c := coordinator.New(st, lg, nil, fastRetry)
	res, err := c.IssueAid(ctx, coordinator.IssueAidRequest{
		BeneficiaryPhone: testPhone,
		CampaignID:       testCampaignID,
		Amount:           amt,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StateRecorded, res.State)
}

// When phase 3 exhausts its retries after a confirmed mint, the run ends in
// RECORD_FAILED: the error carries the confirmed hash for operator replay and
// a recovery alert goes out on the side channel. The mint is never rolled
// back.
func TestIssueAid_RecordFailedAfterConfirmation(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)
	lg := new(mocks.MockLedgerClient)
	pub := new(mocks.MockPublisher)

	beneficiary := testBeneficiary(t)
	campaign := testCampaign("1000", "0")
	amt := amount.MustParse("50")
	dbDown := errors.New("database unavailable")

	st.On("GetAccountByPhone", ctx, testPhone).Return(beneficiary, nil)
	st.On("GetCampaign", ctx, testCampaignID).Return(campaign, nil)
	lg.On("Mint", ctx, beneficiary.WalletAddress, amt).Return(testTxHash, nil)
	st.On("RecordDistribution", ctx, mock.Anything, amt).Return(dbDown)
	pub.On("PublishAidEvent", ctx, mock.MatchedBy(func(e *domain.AidEvent) bool {
		return e.RecoveryNeeded && e.TxHash == testTxHash
	})).Return(nil)

	c := coordinator.New(st, lg, pub, fastRetry)
	res, err := c.IssueAid(ctx, coordinator.IssueAidRequest{
		BeneficiaryPhone: testPhone,
		CampaignID:       testCampaignID,
		Amount:           amt,
	})

	require.Error(t, err)
	assert.Equal(t, domain.StateRecordFailed, res.State)
	assert.Equal(t, testTxHash, res.TxHash)

	var recordErr *domain.RecordFailedError
	require.ErrorAs(t, err, &recordErr)
	assert.Equal(t, testTxHash, recordErr.TxHash)
	assert.Equal(t, domain.TransactionTypeMint, recordErr.Type)
	assert.ErrorIs(t, recordErr, dbDown)

	pub.AssertExpectations(t)
}

func TestRedeem_Recorded(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)
	lg := new(mocks.MockLedgerClient)
	pub := new(mocks.MockPublisher)

	beneficiary := testBeneficiary(t)
	vendor := testVendor(t)
	amt := amount.MustParse("20")

	st.On("GetAccountByID", ctx, beneficiary.ID).Return(beneficiary, nil)
	st.On("GetAccountByID", ctx, vendor.ID).Return(vendor, nil)
	// The transfer must be signed by the beneficiary's custodial key.
	lg.On("Transfer", ctx, mock.MatchedBy(func(s signer.Signer) bool {
		return s.Address().Hex() == beneficiary.WalletAddress
	}), vendor.WalletAddress, amt).Return(testTxHash, nil)
	st.On("CreateTransaction", ctx, mock.MatchedBy(func(txn *schema.Transaction) bool {
		return txn.BlockchainTxHash == testTxHash &&
			txn.Type == domain.TransactionTypeRedeem &&
			txn.CampaignID == nil &&
			txn.BeneficiaryID == beneficiary.ID &&
			txn.VendorID != nil && *txn.VendorID == vendor.ID
	})).Return(nil)
	pub.On("PublishAidEvent", ctx, mock.MatchedBy(func(e *domain.AidEvent) bool {
		return e.Type == domain.TransactionTypeRedeem && e.VendorID == vendor.ID
	})).Return(nil)

	c := coordinator.New(st, lg, pub, fastRetry)
	res, err := c.Redeem(ctx, coordinator.RedeemRequest{
		BeneficiaryID: beneficiary.ID,
		VendorID:      vendor.ID,
		Amount:        amt,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StateRecorded, res.State)
	assert.Equal(t, testTxHash, res.TxHash)
	st.AssertExpectations(t)
	lg.AssertExpectations(t)
}

func TestRedeem_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)
	lg := new(mocks.MockLedgerClient)

	beneficiary := testBeneficiary(t)
	vendor := testVendor(t)
	amt := amount.MustParse("5000")

	st.On("GetAccountByID", ctx, beneficiary.ID).Return(beneficiary, nil)
	st.On("GetAccountByID", ctx, vendor.ID).Return(vendor, nil)
	lg.On("Transfer", ctx, mock.Anything, vendor.WalletAddress, amt).Return("", domain.ErrInsufficientBalance)

	c := coordinator.New(st, lg, nil, fastRetry)
	res, err := c.Redeem(ctx, coordinator.RedeemRequest{
		BeneficiaryID: beneficiary.ID,
		VendorID:      vendor.ID,
		Amount:        amt,
	})

	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, domain.StateLedgerFailed, res.State)
	st.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
}

func TestRedeem_RejectsWrongRoles(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)
	lg := new(mocks.MockLedgerClient)

	beneficiary := testBeneficiary(t)
	donor := testVendor(t)
	donor.Role = domain.RoleDonor

	st.On("GetAccountByID", ctx, beneficiary.ID).Return(beneficiary, nil)
	st.On("GetAccountByID", ctx, donor.ID).Return(donor, nil)

	c := coordinator.New(st, lg, nil, fastRetry)
	_, err := c.Redeem(ctx, coordinator.RedeemRequest{
		BeneficiaryID: beneficiary.ID,
		VendorID:      donor.ID,
		Amount:        amount.MustParse("20"),
	})

	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	lg.AssertNotCalled(t, "Transfer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCampaignTotals(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)

	campaign := testCampaign("600", "150")
	st.On("GetCampaign", ctx, testCampaignID).Return(campaign, nil)

	c := coordinator.New(st, new(mocks.MockLedgerClient), nil, fastRetry)
	totals, err := c.CampaignTotals(ctx, testCampaignID)

	require.NoError(t, err)
	assert.Equal(t, "1000", totals.Target.Decimal())
	assert.Equal(t, "600", totals.Raised.Decimal())
	assert.Equal(t, "150", totals.Distributed.Decimal())
	assert.Equal(t, "400", totals.Remaining.Decimal())
}

func TestCampaignTotals_NotFound(t *testing.T) {
	ctx := context.Background()
	st := new(mocks.MockStore)

	st.On("GetCampaign", ctx, testCampaignID).Return(nil, nil)

	c := coordinator.New(st, new(mocks.MockLedgerClient), nil, fastRetry)
	_, err := c.CampaignTotals(ctx, testCampaignID)

	require.ErrorIs(t, err, domain.ErrCampaignNotFound)
}
