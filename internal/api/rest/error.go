package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
	"github.com/reliefcoin/reliefcoin-backend/internal/logger"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	errCodeBadRequest          ErrorCode = "bad_request"
	errCodeNotFound            ErrorCode = "not_found"
	errCodeValidationFailed    ErrorCode = "validation_failed"
	errCodeUnauthorized        ErrorCode = "unauthorized"
	errCodeCampaignLimit       ErrorCode = "campaign_limit_exceeded"
	errCodeInsufficientBalance ErrorCode = "insufficient_balance"

	// Server errors (5xx)
	errCodeInternalError     ErrorCode = "internal_error"
	errCodeLedgerError       ErrorCode = "ledger_error"
	errCodeLedgerUnavailable ErrorCode = "ledger_unavailable"
	errCodeLedgerTimeout     ErrorCode = "ledger_timeout"
	errCodeRecordFailed      ErrorCode = "record_failed"
)

// errorResponse represents a standardized error response
type errorResponse struct {
	Error errorDetail `json:"error"`
}

// errorDetail contains error information
type errorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`

	// TxHash is set only for record_failed: the transfer confirmed on-chain
	// under this hash even though the request failed. An operator replays the
	// off-chain record against it.
	TxHash string `json:"tx_hash,omitempty"`
}

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...string) {
	response := errorResponse{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	}

	if len(details) > 0 {
		response.Error.Details = details[0]
	}

	c.JSON(statusCode, response)
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusBadRequest, errCodeBadRequest, message, details...)
}

// respondNotFound sends a 404 Not Found response
func respondNotFound(c *gin.Context, message string, details ...string) {
	respondWithError(c, http.StatusNotFound, errCodeNotFound, message, details...)
}

// respondValidationError sends a 400 Bad Request with validation error
func respondValidationError(c *gin.Context, details string) {
	respondWithError(c, http.StatusBadRequest, errCodeValidationFailed, "Validation failed", details)
}

// respondInternalError sends a 500 Internal Server Error response and logs the error
func respondInternalError(c *gin.Context, err error, message string, fields ...zap.Field) {
	logger.Error(err, fields...)
	respondWithError(c, http.StatusInternalServerError, errCodeInternalError, message)
}

// respondOperationError maps a coordinator or store failure to a response.
// A RecordFailedError means value moved on-chain: the confirmed hash goes in
// the body so the failed request stays operator-replayable.
func respondOperationError(c *gin.Context, err error) {
	var recordErr *domain.RecordFailedError
	if errors.As(err, &recordErr) {
		logger.Error(err,
			zap.String("tx_hash", recordErr.TxHash),
			zap.String("type", string(recordErr.Type)),
		)
		c.JSON(http.StatusInternalServerError, errorResponse{
			Error: errorDetail{
				Code:    errCodeRecordFailed,
				Message: "Transfer confirmed but recording failed; contact support with the transaction hash",
				TxHash:  recordErr.TxHash,
			},
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		respondBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrCampaignNotFound):
		respondNotFound(c, err.Error())
	case errors.Is(err, domain.ErrCampaignLimit):
		respondWithError(c, http.StatusUnprocessableEntity, errCodeCampaignLimit, err.Error())
	case errors.Is(err, domain.ErrInsufficientBalance):
		respondWithError(c, http.StatusUnprocessableEntity, errCodeInsufficientBalance, err.Error())
	case errors.Is(err, domain.ErrLedgerRejected):
		respondWithError(c, http.StatusUnprocessableEntity, errCodeLedgerError, err.Error())
	case errors.Is(err, domain.ErrLedgerUnavailable):
		respondWithError(c, http.StatusServiceUnavailable, errCodeLedgerUnavailable, err.Error())
	case errors.Is(err, domain.ErrLedgerTimeout):
		respondWithError(c, http.StatusGatewayTimeout, errCodeLedgerTimeout, err.Error())
	default:
		respondInternalError(c, err, "Operation failed")
	}
}
