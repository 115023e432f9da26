package coordinator

import (
	"context"
	"fmt"

	"github.com/reliefcoin/reliefcoin-backend/internal/amount"
	"github.com/reliefcoin/reliefcoin-backend/internal/domain"
	"github.com/reliefcoin/reliefcoin-backend/internal/store/schema"
)

// CampaignTotals is the derived read view of a campaign's funds. The numbers
// come straight from the campaign row; the store's guarded increments are
// what keep distributed ≤ raised ≤ target true underneath it.
type CampaignTotals struct {
	Target      amount.Amount
	Raised      amount.Amount
	Distributed amount.Amount
	Remaining   amount.Amount
}

// TotalsOf derives the totals view from a campaign row.
func TotalsOf(campaign *schema.Campaign) (*CampaignTotals, error) {
	target, err := amount.FromBaseString(campaign.TargetAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse target amount: %w", err)
	}
	raised, err := amount.FromBaseString(campaign.RaisedAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse raised amount: %w", err)
	}
	distributed, err := amount.FromBaseString(campaign.DistributedAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse distributed amount: %w", err)
	}

	return &CampaignTotals{
		Target:      target,
		Raised:      raised,
		Distributed: distributed,
		Remaining:   target.Sub(raised),
	}, nil
}

// CampaignTotals loads a campaign and derives its totals view.
func (c *Coordinator) CampaignTotals(ctx context.Context, campaignID string) (*CampaignTotals, error) {
	campaign, err := c.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, domain.ErrCampaignNotFound
	}

	return TotalsOf(campaign)
}
