package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
	"github.com/reliefcoin/reliefcoin-backend/internal/logger"
)

const (
	AUTH_ACCOUNT_ID_KEY = "auth_account_id"
	AUTH_ROLE_KEY       = "auth_role"
)

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret string
}

// Claims is the JWT payload issued at login. Subject carries the account ID.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// validateJWT parses and validates an HMAC-signed token and returns its claims
func validateJWT(tokenString string, secret string) (*Claims, error) {
	if secret == "" {
		return nil, errors.New("JWT secret not configured")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	return claims, nil
}

// Authenticate validates the Authorization header and returns the claims.
func Authenticate(authHeader string, cfg AuthConfig) (*Claims, error) {
	if authHeader == "" {
		return nil, errors.New("missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, errors.New("invalid Authorization header format")
	}

	return validateJWT(parts[1], cfg.JWTSecret)
}

// Auth returns a gin middleware for bearer JWT authentication
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := Authenticate(c.GetHeader("Authorization"), cfg)
		if err != nil {
			logger.Warn("Authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Authentication failed",
				},
			})
			return
		}

		c.Set(AUTH_ACCOUNT_ID_KEY, claims.Subject)
		c.Set(AUTH_ROLE_KEY, claims.Role)

		c.Next()
	}
}

// RequireRole returns a gin middleware that rejects authenticated requests
// whose token role is not one of the given roles. Must run after Auth.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := AccountRole(c)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		logger.Warn("Role check failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("role", string(role)),
		)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": gin.H{
				"code":    "forbidden",
				"message": "Insufficient permissions",
			},
		})
	}
}

// AccountID returns the authenticated account ID set by Auth.
func AccountID(c *gin.Context) string {
	return c.GetString(AUTH_ACCOUNT_ID_KEY)
}

// AccountRole returns the authenticated role set by Auth.
func AccountRole(c *gin.Context) domain.Role {
	if v, ok := c.Get(AUTH_ROLE_KEY); ok {
		if role, ok := v.(domain.Role); ok {
			return role
		}
	}
	return ""
}
