package tool

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/hcp-interaction-agent/agent/contract"
	tracingx "github.com/tanpawarit/hcp-interaction-agent/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

func (t *Toolset) RecommendNextBestAction(ctx context.Context, p contractx.InteractionParams) (contractx.RecommendationResult, error) {
	ctx, span := tracingx.StartSpan(ctx, "tool.recommend_next_best_action", attribute.Int64("interaction_id", p.InteractionID))
	defer span.End()

	it, found, err := t.loadInteraction(ctx, p.InteractionID)
	if err != nil {
		tracingx.RecordError(span, err)
		return contractx.RecommendationResult{}, err
	}
	if !found {
		return contractx.RecommendationResult{Success: false, Error: interactionNotFoundShort}, nil
	}

	var b strings.Builder
	writeHCPLine(&b, it.HCP)
	fmt.Fprintf(&b, "Last interaction channel: %s\n", it.Channel)
	fmt.Fprintf(&b, "Sentiment: %s\n", orDefault(it.Sentiment, "N/A"))
	fmt.Fprintf(&b, "Follow-up currently planned: %s\n", orDefault(it.FollowUpAction, "None"))
	fmt.Fprintf(&b, "AI summary: %s\n", orDefault(it.Summary, "N/A"))
	fmt.Fprintf(&b, "Raw notes: %s\n\n", orDefault(it.Notes, "N/A"))
	b.WriteString("Recommend the next best action for the rep.")

	recommendation, err := t.writer.Complete(ctx, t.prompts.NextBestAction, b.String())
	if err != nil {
		tracingx.RecordError(span, err)
		return contractx.RecommendationResult{}, wrapModelErr("recommend next best action", err)
	}

	return contractx.RecommendationResult{
		Success:        true,
		InteractionID:  it.ID,
		Recommendation: recommendation,
	}, nil
}
