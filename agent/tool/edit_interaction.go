package tool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	contractx "github.com/tanpawarit/hcp-interaction-agent/agent/contract"
	storex "github.com/tanpawarit/hcp-interaction-agent/agent/store"
	tracingx "github.com/tanpawarit/hcp-interaction-agent/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

const interactionNotFound = "Interaction not found."

type fieldSetter func(it *storex.Interaction, value any) error

// editableFields is the allow-list for edits. Keys double as column names.
var editableFields = map[string]fieldSetter{
	storex.ColumnInteractionDate: func(it *storex.Interaction, value any) error {
		ts, err := parseInteractionDate(value)
		if err != nil {
			return err
		}
		it.InteractionDate = ts
		return nil
	},
	storex.ColumnChannel: func(it *storex.Interaction, value any) error {
		s, ok := value.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return errors.New("channel must be a non-empty string")
		}
		it.Channel = strings.TrimSpace(s)
		return nil
	},
	storex.ColumnProductsDiscussed: textSetter(func(it *storex.Interaction) **string { return &it.ProductsDiscussed }),
	storex.ColumnNotes:             textSetter(func(it *storex.Interaction) **string { return &it.Notes }),
	storex.ColumnSummary:           textSetter(func(it *storex.Interaction) **string { return &it.Summary }),
	storex.ColumnSentiment:         textSetter(func(it *storex.Interaction) **string { return &it.Sentiment }),
	storex.ColumnFollowUpAction:    textSetter(func(it *storex.Interaction) **string { return &it.FollowUpAction }),
}

func textSetter(field func(it *storex.Interaction) **string) fieldSetter {
	return func(it *storex.Interaction, value any) error {
		switch v := value.(type) {
		case nil:
			*field(it) = nil
		case string:
			s := v
			*field(it) = &s
		default:
			return fmt.Errorf("expected string or null, got %T", value)
		}
		return nil
	}
}

func parseInteractionDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		ts, err := contractx.ParseTimestamp(v)
		if err != nil {
			return time.Time{}, fmt.Errorf("unrecognized interaction_date %q", v)
		}
		return ts, nil
	default:
		return time.Time{}, fmt.Errorf("interaction_date must be a string, got %T", value)
	}
}

func (t *Toolset) EditInteraction(ctx context.Context, p contractx.EditParams) (contractx.EditResult, error) {
	ctx, span := tracingx.StartSpan(ctx, "tool.edit_interaction", attribute.Int64("interaction_id", p.InteractionID))
	defer span.End()

	it, err := t.repo.GetInteraction(ctx, p.InteractionID)
	if errors.Is(err, storex.ErrNotFound) {
		return contractx.EditResult{Success: false, Error: interactionNotFound}, nil
	}
	if err != nil {
		tracingx.RecordError(span, err)
		return contractx.EditResult{}, fmt.Errorf("load interaction %d: %w", p.InteractionID, err)
	}

	keys := make([]string, 0, len(p.Updates))
	for key := range p.Updates {
		if _, ok := editableFields[key]; ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	applied := make(map[string]any, len(keys))
	for _, key := range keys {
		value := p.Updates[key]
		if err := editableFields[key](it, value); err != nil {
			return contractx.EditResult{
				Success: false,
				Error:   fmt.Sprintf("invalid value for %s: %v", key, err),
			}, nil
		}
		applied[key] = value
	}

	if len(keys) > 0 {
		if err := t.repo.UpdateInteraction(ctx, it, keys...); err != nil {
			if errors.Is(err, storex.ErrNotFound) {
				return contractx.EditResult{Success: false, Error: interactionNotFound}, nil
			}
			tracingx.RecordError(span, err)
			return contractx.EditResult{}, fmt.Errorf("update interaction %d: %w", it.ID, err)
		}
		t.publish(ctx, contractx.Event{
			Type:          contractx.EventInteractionUpdated,
			InteractionID: it.ID,
			HCPID:         it.HCPID,
			Fields:        applied,
			OccurredAt:    t.now().UTC(),
		})
	}

	return contractx.EditResult{
		Success:        true,
		InteractionID:  it.ID,
		AppliedUpdates: applied,
	}, nil
}
