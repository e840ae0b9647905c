package dispatcher

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/hcp-interaction-agent/agent/contract"
)

const missingInteractionID = "interaction_id is required"

// route converts the dispatch context into one handler's parameters and runs it.
type route func(ctx context.Context, tools contractx.Tools, req contractx.DispatchRequest) (any, error)

func defaultRoutes() map[contractx.Intent]route {
	return map[contractx.Intent]route{
		contractx.IntentLogInteraction:          logInteraction,
		contractx.IntentEditInteraction:         editInteraction,
		contractx.IntentFetchHCPProfile:         fetchHCPProfile,
		contractx.IntentGenerateSummary:         generateSummary,
		contractx.IntentRecommendNextBestAction: recommendNextBestAction,
	}
}

// checkRoutes fails unless every known intent has exactly one route.
func checkRoutes(routes map[contractx.Intent]route) error {
	for _, intent := range contractx.Intents {
		if routes[intent] == nil {
			return fmt.Errorf("%w: no route for intent=%s", contractx.ErrValidation, intent)
		}
	}
	for intent := range routes {
		if _, ok := contractx.ParseIntent(string(intent)); !ok {
			return fmt.Errorf("%w: route for unknown intent=%s", contractx.ErrValidation, intent)
		}
	}
	return nil
}

func logInteraction(ctx context.Context, tools contractx.Tools, req contractx.DispatchRequest) (any, error) {
	return tools.LogInteraction(ctx, contractx.LogParams{
		FreeText:        req.UserInput,
		Channel:         req.Context.Channel,
		InteractionDate: req.Context.InteractionDate,
	})
}

func editInteraction(ctx context.Context, tools contractx.Tools, req contractx.DispatchRequest) (any, error) {
	if req.Context.InteractionID == nil {
		return contractx.EditResult{Success: false, Error: missingInteractionID}, nil
	}
	updates := req.Context.Updates
	if updates == nil {
		updates = map[string]any{}
	}
	return tools.EditInteraction(ctx, contractx.EditParams{
		InteractionID: *req.Context.InteractionID,
		Updates:       updates,
	})
}

func fetchHCPProfile(ctx context.Context, tools contractx.Tools, req contractx.DispatchRequest) (any, error) {
	p := contractx.ProfileParams{HCPID: req.Context.HCPID}
	if name := req.Context.HCPName; name != nil && strings.TrimSpace(*name) != "" {
		trimmed := strings.TrimSpace(*name)
		p.HCPName = &trimmed
	}
	return tools.FetchHCPProfile(ctx, p)
}

func generateSummary(ctx context.Context, tools contractx.Tools, req contractx.DispatchRequest) (any, error) {
	if req.Context.InteractionID == nil {
		return contractx.SummaryResult{Success: false, Error: missingInteractionID}, nil
	}
	return tools.GenerateInteractionSummary(ctx, contractx.InteractionParams{InteractionID: *req.Context.InteractionID})
}

func recommendNextBestAction(ctx context.Context, tools contractx.Tools, req contractx.DispatchRequest) (any, error) {
	if req.Context.InteractionID == nil {
		return contractx.RecommendationResult{Success: false, Error: missingInteractionID}, nil
	}
	return tools.RecommendNextBestAction(ctx, contractx.InteractionParams{InteractionID: *req.Context.InteractionID})
}
