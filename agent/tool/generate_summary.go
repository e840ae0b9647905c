package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/hcp-interaction-agent/agent/contract"
	storex "github.com/tanpawarit/hcp-interaction-agent/agent/store"
	tracingx "github.com/tanpawarit/hcp-interaction-agent/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

const (
	interactionNotFoundShort = "Interaction not found"
	promptDateLayout         = "2006-01-02T15:04:05"
)

func (t *Toolset) GenerateInteractionSummary(ctx context.Context, p contractx.InteractionParams) (contractx.SummaryResult, error) {
	ctx, span := tracingx.StartSpan(ctx, "tool.generate_interaction_summary", attribute.Int64("interaction_id", p.InteractionID))
	defer span.End()

	it, found, err := t.loadInteraction(ctx, p.InteractionID)
	if err != nil {
		tracingx.RecordError(span, err)
		return contractx.SummaryResult{}, err
	}
	if !found {
		return contractx.SummaryResult{Success: false, Error: interactionNotFoundShort}, nil
	}

	var b strings.Builder
	writeHCPLine(&b, it.HCP)
	fmt.Fprintf(&b, "Channel: %s\n", it.Channel)
	fmt.Fprintf(&b, "Date: %s\n", it.InteractionDate.Format(promptDateLayout))
	fmt.Fprintf(&b, "Products discussed: %s\n", orDefault(it.ProductsDiscussed, "N/A"))
	fmt.Fprintf(&b, "Existing AI summary: %s\n", orDefault(it.Summary, "N/A"))
	fmt.Fprintf(&b, "Raw notes: %s\n\n", orDefault(it.Notes, "N/A"))
	b.WriteString("Create a short, rep-friendly summary suitable for a CRM timeline.")

	summary, err := t.writer.Complete(ctx, t.prompts.Summary, b.String())
	if err != nil {
		tracingx.RecordError(span, err)
		return contractx.SummaryResult{}, wrapModelErr("generate interaction summary", err)
	}

	return contractx.SummaryResult{
		Success:       true,
		InteractionID: it.ID,
		Summary:       summary,
	}, nil
}

// loadInteraction reports found=false instead of an error for missing rows.
func (t *Toolset) loadInteraction(ctx context.Context, id int64) (*storex.Interaction, bool, error) {
	it, err := t.repo.GetInteraction(ctx, id)
	if errors.Is(err, storex.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load interaction %d: %w", id, err)
	}
	return it, true, nil
}

func writeHCPLine(b *strings.Builder, hcp *storex.HCPProfile) {
	name, specialty := "Unknown", "N/A"
	if hcp != nil {
		name = hcp.Name
		specialty = orDefault(hcp.Specialty, "None")
	}
	fmt.Fprintf(b, "HCP: %s (Specialty: %s)\n", name, specialty)
}

func orDefault(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}

func wrapModelErr(operation string, err error) error {
	if errors.Is(err, contractx.ErrModelInvoke) {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return fmt.Errorf("%w: %s: %v", contractx.ErrModelInvoke, operation, err)
}
