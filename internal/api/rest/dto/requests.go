package dto

import (
	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
)

// RegisterRequest creates an account with a custodial wallet
type RegisterRequest struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     domain.Role `json:"role" binding:"required"`
	Phone    string      `json:"phone"`
}

// LoginRequest exchanges credentials for a bearer token
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateCampaignRequest creates a fundraising campaign. TargetAmount is a
// decimal RC string.
type CreateCampaignRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	TargetAmount string `json:"target_amount" binding:"required"`
}

// CreateBeneficiaryRequest registers a beneficiary on behalf of the NGO.
// Beneficiaries do not log in; no password is taken.
type CreateBeneficiaryRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

// IssueAidRequest mints aid to a beneficiary against a campaign
type IssueAidRequest struct {
	BeneficiaryPhone string `json:"beneficiary_phone" binding:"required"`
	CampaignID       string `json:"campaign_id" binding:"required,uuid"`
	Amount           string `json:"amount" binding:"required"`
}

// RedeemRequest moves tokens from a beneficiary wallet to a vendor wallet
type RedeemRequest struct {
	BeneficiaryID string `json:"beneficiary_id" binding:"required,uuid"`
	VendorID      string `json:"vendor_id" binding:"required,uuid"`
	Amount        string `json:"amount" binding:"required"`
}

// DonateRequest records an off-chain donation against a campaign
type DonateRequest struct {
	CampaignID string `json:"campaign_id" binding:"required,uuid"`
	Name       string `json:"name" binding:"required"`
	Phone      string `json:"phone"`
	Amount     string `json:"amount" binding:"required"`
}
