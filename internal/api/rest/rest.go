package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/reliefcoin/reliefcoin-backend/internal/api/middleware"
	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Credential endpoints (public)
		v1.POST("/auth/register", handler.Register)
		v1.POST("/auth/login", handler.Login)

		// On-chain balance read (any authenticated account)
		v1.GET("/balance/:address", middleware.Auth(authCfg), handler.GetBalance)

		// NGO operations (issuer role)
		ngo := v1.Group("/ngo", middleware.Auth(authCfg), middleware.RequireRole(domain.RoleIssuer))
		{
			ngo.POST("/campaigns", handler.CreateCampaign)
			ngo.GET("/campaigns", handler.ListCampaigns)
			ngo.POST("/beneficiaries", handler.CreateBeneficiary)
			ngo.GET("/beneficiaries", handler.ListBeneficiaries)
			ngo.POST("/issue-aid", handler.IssueAid)
		}

		// Redemption (vendor role)
		v1.POST("/redeem", middleware.Auth(authCfg), middleware.RequireRole(domain.RoleVendor), handler.Redeem)

		// Donor operations (donor role)
		donor := v1.Group("/donor", middleware.Auth(authCfg), middleware.RequireRole(domain.RoleDonor))
		{
			donor.POST("/donate", handler.Donate)
			donor.GET("/my-donations", handler.MyDonations)
		}

		// Public transparency feeds (no auth)
		v1.GET("/public/transactions", handler.ListTransfers)
		v1.GET("/public/campaigns/:id/transactions", handler.ListCampaignTransactions)
	}
}
