package dto

import (
	"time"

	"github.com/reliefcoin/reliefcoin-backend/internal/amount"
	"github.com/reliefcoin/reliefcoin-backend/internal/coordinator"
	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
	"github.com/reliefcoin/reliefcoin-backend/internal/store/schema"
)

// AccountResponse represents an account. The custodial private key is never
// exposed.
type AccountResponse struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email,omitempty"`
	Role          domain.Role `json:"role"`
	Phone         string      `json:"phone,omitempty"`
	WalletAddress string      `json:"wallet_address"`
	CreatedAt     time.Time   `json:"created_at"`
}

// FromAccount converts a schema account to its response form
func FromAccount(account *schema.Account) *AccountResponse {
	return &AccountResponse{
		ID:            account.ID,
		Name:          account.Name,
		Email:         account.Email,
		Role:          account.Role,
		Phone:         account.Phone,
		WalletAddress: account.WalletAddress,
		CreatedAt:     account.CreatedAt,
	}
}

// TokenResponse carries a bearer JWT issued at login
type TokenResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Account   *AccountResponse `json:"account"`
}

// CampaignResponse represents a campaign with its aggregate amounts, all as
// decimal RC strings
type CampaignResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	TargetAmount      string    `json:"target_amount"`
	RaisedAmount      string    `json:"raised_amount"`
	DistributedAmount string    `json:"distributed_amount"`
	RemainingAmount   string    `json:"remaining_amount"`
	CreatedAt         time.Time `json:"created_at"`
}

// FromCampaign converts a schema campaign and its totals to response form
func FromCampaign(campaign *schema.Campaign, totals *coordinator.CampaignTotals) *CampaignResponse {
	return &CampaignResponse{
		ID:                campaign.ID,
		Name:              campaign.Name,
		Description:       campaign.Description,
		TargetAmount:      totals.Target.Decimal(),
		RaisedAmount:      totals.Raised.Decimal(),
		DistributedAmount: totals.Distributed.Decimal(),
		RemainingAmount:   totals.Remaining.Decimal(),
		CreatedAt:         campaign.CreatedAt,
	}
}

// BalanceResponse represents an on-chain balance as a decimal RC string
type BalanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

// TxResultResponse reports a confirmed and recorded ledger operation
type TxResultResponse struct {
	TxHash string                  `json:"tx_hash"`
	State  domain.CoordinatorState `json:"state"`
}

// DonationResponse represents a recorded donation
type DonationResponse struct {
	ID         int64     `json:"id"`
	CampaignID string    `json:"campaign_id"`
	DonorName  string    `json:"donor_name"`
	Amount     string    `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}

// FromDonation converts a schema donation to its response form
func FromDonation(donation *schema.Donation) (*DonationResponse, error) {
	amt, err := amount.FromBaseString(donation.Amount)
	if err != nil {
		return nil, err
	}
	return &DonationResponse{
		ID:         donation.ID,
		CampaignID: donation.CampaignID,
		DonorName:  donation.DonorName,
		Amount:     amt.Decimal(),
		CreatedAt:  donation.CreatedAt,
	}, nil
}

// TransactionResponse represents an off-chain transaction record
type TransactionResponse struct {
	ID               int64                  `json:"id"`
	BlockchainTxHash string                 `json:"blockchain_tx_hash"`
	Type             domain.TransactionType `json:"type"`
	Amount           string                 `json:"amount"`
	CampaignID       *string                `json:"campaign_id,omitempty"`
	BeneficiaryID    string                 `json:"beneficiary_id"`
	VendorID         *string                `json:"vendor_id,omitempty"`
	BlockNumber      *uint64                `json:"block_number,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

// FromTransaction converts a schema transaction to its response form
func FromTransaction(txn *schema.Transaction) (*TransactionResponse, error) {
	amt, err := amount.FromBaseString(txn.Amount)
	if err != nil {
		return nil, err
	}
	return &TransactionResponse{
		ID:               txn.ID,
		BlockchainTxHash: txn.BlockchainTxHash,
		Type:             txn.Type,
		Amount:           amt.Decimal(),
		CampaignID:       txn.CampaignID,
		BeneficiaryID:    txn.BeneficiaryID,
		VendorID:         txn.VendorID,
		BlockNumber:      txn.BlockNumber,
		CreatedAt:        txn.CreatedAt,
	}, nil
}

// TransferEventResponse represents an on-chain transfer as read from the
// event log
type TransferEventResponse struct {
	TxHash      string `json:"tx_hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      string `json:"amount"`
	BlockNumber uint64 `json:"block_number"`
	Mint        bool   `json:"mint"`
}

// FromTransferEvent converts a ledger transfer event to its response form
func FromTransferEvent(event *domain.TransferEvent) *TransferEventResponse {
	return &TransferEventResponse{
		TxHash:      event.TxHash,
		From:        event.From,
		To:          event.To,
		Amount:      amount.FromBase(event.Amount).Decimal(),
		BlockNumber: event.BlockNumber,
		Mint:        event.IsMint(),
	}
}
