package rest

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultTransferBlocks = 5000
	maxTransferBlocks     = 50000
	defaultTransferLimit  = 100
	maxTransferLimit      = 500
)

// ListTransfersQuery holds the parsed query parameters for the public
// transfer feed
type ListTransfersQuery struct {
	// Blocks is how far behind the head block the scan starts
	Blocks uint64
	// Limit caps the number of returned transfers
	Limit int
}

// ParseListTransfersQuery parses and validates the transfer feed query
// parameters
func ParseListTransfersQuery(c *gin.Context) (*ListTransfersQuery, error) {
	params := &ListTransfersQuery{
		Blocks: defaultTransferBlocks,
		Limit:  defaultTransferLimit,
	}

	if raw := c.Query("blocks"); raw != "" {
		blocks, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid blocks parameter: %s", raw)
		}
		if blocks == 0 || blocks > maxTransferBlocks {
			return nil, fmt.Errorf("blocks must be between 1 and %d", maxTransferBlocks)
		}
		params.Blocks = blocks
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid limit parameter: %s", raw)
		}
		if limit <= 0 || limit > maxTransferLimit {
			return nil, fmt.Errorf("limit must be between 1 and %d", maxTransferLimit)
		}
		params.Limit = limit
	}

	return params, nil
}
