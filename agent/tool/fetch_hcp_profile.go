package tool

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/hcp-interaction-agent/agent/contract"
	storex "github.com/tanpawarit/hcp-interaction-agent/agent/store"
	tracingx "github.com/tanpawarit/hcp-interaction-agent/pkg/tracing"
)

const recentInteractionLimit = 5

func (t *Toolset) FetchHCPProfile(ctx context.Context, p contractx.ProfileParams) (contractx.ProfileResult, error) {
	ctx, span := tracingx.StartSpan(ctx, "tool.fetch_hcp_profile")
	defer span.End()

	var (
		hcp *storex.HCPProfile
		err error
	)
	switch {
	case p.HCPID != nil:
		hcp, err = t.repo.GetHCP(ctx, *p.HCPID)
	case p.HCPName != nil:
		hcp, err = t.repo.FindHCPByName(ctx, *p.HCPName)
	default:
		return contractx.ProfileResult{Success: false, Error: "hcp_id or hcp_name must be provided"}, nil
	}
	if errors.Is(err, storex.ErrNotFound) {
		return contractx.ProfileResult{Success: false, Error: "HCP not found"}, nil
	}
	if err != nil {
		tracingx.RecordError(span, err)
		return contractx.ProfileResult{}, fmt.Errorf("load hcp: %w", err)
	}

	items, err := t.repo.RecentInteractions(ctx, hcp.ID, recentInteractionLimit)
	if err != nil {
		tracingx.RecordError(span, err)
		return contractx.ProfileResult{}, fmt.Errorf("load recent interactions for hcp %d: %w", hcp.ID, err)
	}
	if len(items) > recentInteractionLimit {
		items = items[:recentInteractionLimit]
	}

	recent := make([]contractx.RecentInteraction, 0, len(items))
	for _, it := range items {
		recent = append(recent, contractx.RecentInteraction{
			ID:                it.ID,
			InteractionDate:   it.InteractionDate,
			Channel:           it.Channel,
			Summary:           it.Summary,
			ProductsDiscussed: it.ProductsDiscussed,
		})
	}

	return contractx.ProfileResult{
		Success: true,
		HCP: &contractx.HCPSummary{
			ID:           hcp.ID,
			Name:         hcp.Name,
			Specialty:    hcp.Specialty,
			Organization: hcp.Organization,
			Notes:        hcp.Notes,
		},
		RecentInteractions: recent,
	}, nil
}
