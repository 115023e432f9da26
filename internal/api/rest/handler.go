package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/reliefcoin/reliefcoin-backend/internal/amount"
	"github.com/reliefcoin/reliefcoin-backend/internal/api/middleware"
	"github.com/reliefcoin/reliefcoin-backend/internal/api/rest/dto"
	"github.com/reliefcoin/reliefcoin-backend/internal/coordinator"
	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
	"github.com/reliefcoin/reliefcoin-backend/internal/ledger"
	"github.com/reliefcoin/reliefcoin-backend/internal/signer"
	"github.com/reliefcoin/reliefcoin-backend/internal/store"
	"github.com/reliefcoin/reliefcoin-backend/internal/store/schema"
)

// Coordinator is the subset of coordinator operations the API drives
type Coordinator interface {
	IssueAid(ctx context.Context, req coordinator.IssueAidRequest) (*coordinator.Result, error)
	Redeem(ctx context.Context, req coordinator.RedeemRequest) (*coordinator.Result, error)
	CampaignTotals(ctx context.Context, campaignID string) (*coordinator.CampaignTotals, error)
}

// AuthSettings holds what the handler needs to mint login tokens
type AuthSettings struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
type Handler interface {
	// Register creates an account with a custodial wallet and returns a bearer token
	// POST /api/v1/auth/register
	Register(c *gin.Context)

	// Login exchanges email/password for a bearer token
	// POST /api/v1/auth/login
	Login(c *gin.Context)

	// GetBalance returns the on-chain balance of a wallet address
	// GET /api/v1/balance/:address
	GetBalance(c *gin.Context)

	// CreateCampaign creates a fundraising campaign (issuer role)
	// POST /api/v1/ngo/campaigns
	CreateCampaign(c *gin.Context)

	// ListCampaigns lists campaigns with their aggregate amounts (issuer role)
	// GET /api/v1/ngo/campaigns
	ListCampaigns(c *gin.Context)

	// CreateBeneficiary registers a beneficiary with a custodial wallet (issuer role)
	// POST /api/v1/ngo/beneficiaries
	CreateBeneficiary(c *gin.Context)

	// ListBeneficiaries lists beneficiary accounts (issuer role)
	// GET /api/v1/ngo/beneficiaries
	ListBeneficiaries(c *gin.Context)

	// IssueAid mints aid to a beneficiary against a campaign (issuer role)
	// POST /api/v1/ngo/issue-aid
	IssueAid(c *gin.Context)

	// Redeem moves tokens from a beneficiary wallet to the authenticated
	// vendor's wallet (vendor role)
	// POST /api/v1/redeem
	Redeem(c *gin.Context)

	// Donate records an off-chain donation against a campaign (donor role)
	// POST /api/v1/donor/donate
	Donate(c *gin.Context)

	// MyDonations lists the authenticated donor's donations, newest first (donor role)
	// GET /api/v1/donor/my-donations
	MyDonations(c *gin.Context)

	// ListTransfers returns the recent on-chain transfer feed, newest first
	// GET /api/v1/public/transactions?blocks=<n>&limit=<n>
	ListTransfers(c *gin.Context)

	// ListCampaignTransactions returns a campaign's off-chain records, newest first
	// GET /api/v1/public/campaigns/:id/transactions
	ListCampaignTransactions(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	store       store.Store
	ledger      ledger.Client
	coordinator Coordinator
	auth        AuthSettings
}

// NewHandler creates a new REST API handler
func NewHandler(s store.Store, l ledger.Client, coord Coordinator, auth AuthSettings) Handler {
	return &handler{
		store:       s,
		ledger:      l,
		coordinator: coord,
		auth:        auth,
	}
}

// Register creates an account with a custodial wallet and returns a bearer token
func (h *handler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if !req.Role.Valid() {
		respondValidationError(c, fmt.Sprintf("Unknown role: %s", req.Role))
		return
	}
	// Beneficiaries have no credentials; the NGO registers them.
	if req.Role == domain.RoleBeneficiary {
		respondValidationError(c, "Beneficiary accounts are created via /api/v1/ngo/beneficiaries")
		return
	}

	existing, err := h.store.GetAccountByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondInternalError(c, err, "Failed to check existing account")
		return
	}
	if existing != nil {
		respondBadRequest(c, "Email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondInternalError(c, err, "Failed to hash password")
		return
	}

	wallet, err := signer.NewWallet()
	if err != nil {
		respondInternalError(c, err, "Failed to create wallet")
		return
	}

	account := &schema.Account{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Email:         req.Email,
		PasswordHash:  string(hash),
		Role:          req.Role,
		Phone:         req.Phone,
		WalletAddress: wallet.Address,
		PrivateKeyHex: wallet.PrivateKeyHex,
	}
	if err := h.store.CreateAccount(c.Request.Context(), account); err != nil {
		respondInternalError(c, err, "Failed to create account")
		return
	}

	token, expiresAt, err := h.issueToken(account)
	if err != nil {
		respondInternalError(c, err, "Failed to issue token")
		return
	}

	c.JSON(http.StatusCreated, dto.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Account:   dto.FromAccount(account),
	})
}

// Login exchanges email/password for a bearer token
func (h *handler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	account, err := h.store.GetAccountByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondInternalError(c, err, "Failed to look up account")
		return
	}
	if account == nil || bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		respondWithError(c, http.StatusUnauthorized, errCodeUnauthorized, "Invalid email or password")
		return
	}

	token, expiresAt, err := h.issueToken(account)
	if err != nil {
		respondInternalError(c, err, "Failed to issue token")
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Account:   dto.FromAccount(account),
	})
}

// issueToken mints an HMAC-signed JWT whose subject is the account ID
func (h *handler) issueToken(account *schema.Account) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(h.auth.TokenTTL)

	claims := middleware.Claims{
		Role: account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.auth.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, expiresAt, nil
}

// GetBalance returns the on-chain balance of a wallet address
func (h *handler) GetBalance(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		respondBadRequest(c, "Invalid wallet address")
		return
	}

	balance, err := h.ledger.BalanceOf(c.Request.Context(), address)
	if err != nil {
		respondOperationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		Address: address,
		Balance: balance.Decimal(),
	})
}

// CreateCampaign creates a fundraising campaign
func (h *handler) CreateCampaign(c *gin.Context) {
	var req dto.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	target, err := amount.Parse(req.TargetAmount)
	if err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid target amount: %v", err))
		return
	}
	if !target.Positive() {
		respondValidationError(c, "Target amount must be positive")
		return
	}

	campaign := &schema.Campaign{
		ID:                uuid.NewString(),
		Name:              req.Name,
		Description:       req.Description,
		TargetAmount:      target.BaseString(),
		RaisedAmount:      "0",
		DistributedAmount: "0",
	}
	if err := h.store.CreateCampaign(c.Request.Context(), campaign); err != nil {
		respondInternalError(c, err, "Failed to create campaign")
		return
	}

	totals, err := coordinator.TotalsOf(campaign)
	if err != nil {
		respondInternalError(c, err, "Failed to derive campaign totals")
		return
	}

	c.JSON(http.StatusCreated, dto.FromCampaign(campaign, totals))
}

// ListCampaigns lists campaigns with their aggregate amounts
func (h *handler) ListCampaigns(c *gin.Context) {
	campaigns, err := h.store.ListCampaigns(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "Failed to list campaigns")
		return
	}

	responses := make([]*dto.CampaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		totals, err := coordinator.TotalsOf(campaign)
		if err != nil {
			respondInternalError(c, err, "Failed to derive campaign totals")
			return
		}
		responses = append(responses, dto.FromCampaign(campaign, totals))
	}

	c.JSON(http.StatusOK, gin.H{"campaigns": responses})
}

// CreateBeneficiary registers a beneficiary with a custodial wallet
func (h *handler) CreateBeneficiary(c *gin.Context) {
	var req dto.CreateBeneficiaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	existing, err := h.store.GetAccountByPhone(c.Request.Context(), req.Phone)
	if err != nil {
		respondInternalError(c, err, "Failed to check existing account")
		return
	}
	if existing != nil {
		respondBadRequest(c, "Phone number already registered")
		return
	}

	wallet, err := signer.NewWallet()
	if err != nil {
		respondInternalError(c, err, "Failed to create wallet")
		return
	}

	id := uuid.NewString()
	account := &schema.Account{
		ID:   id,
		Name: req.Name,
		// Beneficiaries never log in; the email column is unique and not
		// null, so derive a placeholder that cannot collide or receive mail.
		Email:         fmt.Sprintf("%s@beneficiaries.invalid", id),
		PasswordHash:  "",
		Role:          domain.RoleBeneficiary,
		Phone:         req.Phone,
		WalletAddress: wallet.Address,
		PrivateKeyHex: wallet.PrivateKeyHex,
	}
	if err := h.store.CreateAccount(c.Request.Context(), account); err != nil {
		respondInternalError(c, err, "Failed to create beneficiary")
		return
	}

	c.JSON(http.StatusCreated, dto.FromAccount(account))
}

// ListBeneficiaries lists beneficiary accounts
func (h *handler) ListBeneficiaries(c *gin.Context) {
	accounts, err := h.store.ListAccountsByRole(c.Request.Context(), domain.RoleBeneficiary)
	if err != nil {
		respondInternalError(c, err, "Failed to list beneficiaries")
		return
	}

	responses := make([]*dto.AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		responses = append(responses, dto.FromAccount(account))
	}

	c.JSON(http.StatusOK, gin.H{"beneficiaries": responses})
}

// IssueAid mints aid to a beneficiary against a campaign
func (h *handler) IssueAid(c *gin.Context) {
	var req dto.IssueAidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	amt, err := amount.Parse(req.Amount)
	if err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid amount: %v", err))
		return
	}

	result, err := h.coordinator.IssueAid(c.Request.Context(), coordinator.IssueAidRequest{
		BeneficiaryPhone: req.BeneficiaryPhone,
		CampaignID:       req.CampaignID,
		Amount:           amt,
	})
	if err != nil {
		respondOperationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TxResultResponse{
		TxHash: result.TxHash,
		State:  result.State,
	})
}

// Redeem moves tokens from a beneficiary wallet to the authenticated vendor's wallet
func (h *handler) Redeem(c *gin.Context) {
	var req dto.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	// A vendor can only redeem into its own wallet.
	if req.VendorID != middleware.AccountID(c) {
		respondWithError(c, http.StatusForbidden, errCodeUnauthorized, "Cannot redeem on behalf of another vendor")
		return
	}

	amt, err := amount.Parse(req.Amount)
	if err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid amount: %v", err))
		return
	}

	result, err := h.coordinator.Redeem(c.Request.Context(), coordinator.RedeemRequest{
		BeneficiaryID: req.BeneficiaryID,
		VendorID:      req.VendorID,
		Amount:        amt,
	})
	if err != nil {
		respondOperationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TxResultResponse{
		TxHash: result.TxHash,
		State:  result.State,
	})
}

// Donate records an off-chain donation against a campaign
func (h *handler) Donate(c *gin.Context) {
	var req dto.DonateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	amt, err := amount.Parse(req.Amount)
	if err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid amount: %v", err))
		return
	}
	if !amt.Positive() {
		respondValidationError(c, "Amount must be positive")
		return
	}

	donation := &schema.Donation{
		AccountID:  middleware.AccountID(c),
		CampaignID: req.CampaignID,
		DonorName:  req.Name,
		DonorPhone: req.Phone,
		Amount:     amt.BaseString(),
	}
	if err := h.store.RecordDonation(c.Request.Context(), donation, amt); err != nil {
		respondOperationError(c, err)
		return
	}

	response, err := dto.FromDonation(donation)
	if err != nil {
		respondInternalError(c, err, "Failed to convert donation")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// MyDonations lists the authenticated donor's donations, newest first
func (h *handler) MyDonations(c *gin.Context) {
	donations, err := h.store.ListDonationsByAccount(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		respondInternalError(c, err, "Failed to list donations")
		return
	}

	responses := make([]*dto.DonationResponse, 0, len(donations))
	for _, donation := range donations {
		response, err := dto.FromDonation(donation)
		if err != nil {
			respondInternalError(c, err, "Failed to convert donation")
			return
		}
		responses = append(responses, response)
	}

	c.JSON(http.StatusOK, gin.H{"donations": responses})
}

// ListTransfers returns the recent on-chain transfer feed, newest first
func (h *handler) ListTransfers(c *gin.Context) {
	params, err := ParseListTransfersQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	head, err := h.ledger.HeadBlock(c.Request.Context())
	if err != nil {
		respondOperationError(c, err)
		return
	}

	var from uint64
	if head > params.Blocks {
		from = head - params.Blocks
	}

	events, err := h.ledger.TransferEvents(c.Request.Context(), from, head)
	if err != nil {
		respondOperationError(c, err)
		return
	}

	// The event log comes back oldest first; the feed wants newest first.
	responses := make([]*dto.TransferEventResponse, 0, params.Limit)
	for i := len(events) - 1; i >= 0 && len(responses) < params.Limit; i-- {
		responses = append(responses, dto.FromTransferEvent(&events[i]))
	}

	c.JSON(http.StatusOK, gin.H{"transactions": responses})
}

// ListCampaignTransactions returns a campaign's off-chain records, newest first
func (h *handler) ListCampaignTransactions(c *gin.Context) {
	campaignID := c.Param("id")
	if _, err := uuid.Parse(campaignID); err != nil {
		respondBadRequest(c, "Invalid campaign ID")
		return
	}

	campaign, err := h.store.GetCampaign(c.Request.Context(), campaignID)
	if err != nil {
		respondInternalError(c, err, "Failed to look up campaign")
		return
	}
	if campaign == nil {
		respondNotFound(c, "Campaign not found")
		return
	}

	transactions, err := h.store.ListTransactionsByCampaign(c.Request.Context(), campaignID)
	if err != nil {
		respondInternalError(c, err, "Failed to list transactions")
		return
	}

	responses := make([]*dto.TransactionResponse, 0, len(transactions))
	for _, txn := range transactions {
		response, err := dto.FromTransaction(txn)
		if err != nil {
			respondInternalError(c, err, "Failed to convert transaction")
			return
		}
		responses = append(responses, response)
	}

	c.JSON(http.StatusOK, gin.H{"transactions": responses})
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "ok",
		"service": "reliefcoin-api",
	})
}
