package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/hcp-interaction-agent/agent/contract"
	storex "github.com/tanpawarit/hcp-interaction-agent/agent/store"
	metricsx "github.com/tanpawarit/hcp-interaction-agent/pkg/metrics"
	tracingx "github.com/tanpawarit/hcp-interaction-agent/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

const (
	unknownHCPName       = "Unknown"
	defaultChannel       = "Unknown"
	fallbackSentiment    = "neutral"
	fallbackSummaryRunes = 500
)

// flexString accepts a JSON string, null, a list of strings or a scalar.
// Models often return products as an array even when asked for a string.
type flexString struct {
	value string
	set   bool
}

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = flexString{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString{value: s, set: true}
	case '[':
		var items []any
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				parts = append(parts, s)
			}
		}
		*f = flexString{value: strings.Join(parts, ", "), set: true}
	case '{':
		return fmt.Errorf("%w: object where text expected", contractx.ErrSchemaViolation)
	default:
		*f = flexString{value: string(data), set: true}
	}
	return nil
}

// ptr returns nil for absent or blank values.
func (f flexString) ptr() *string {
	v := strings.TrimSpace(f.value)
	if !f.set || v == "" {
		return nil
	}
	return &v
}

type extractionPayload struct {
	HCPName           flexString `json:"hcp_name"`
	Specialty         flexString `json:"specialty"`
	ProductsDiscussed flexString `json:"products_discussed"`
	Sentiment         flexString `json:"sentiment"`
	FollowUpAction    flexString `json:"follow_up_action"`
	Summary           flexString `json:"summary"`
}

type extraction struct {
	hcpName           string
	specialty         *string
	productsDiscussed *string
	sentiment         *string
	followUpAction    *string
	summary           *string
}

func (t *Toolset) LogInteraction(ctx context.Context, p contractx.LogParams) (contractx.LogResult, error) {
	ctx, span := tracingx.StartSpan(ctx, "tool.log_interaction")
	defer span.End()

	data, degraded := t.extract(ctx, p.FreeText)
	span.SetAttributes(attribute.Bool("degraded", degraded))

	date := t.now().UTC()
	if p.InteractionDate != nil && !p.InteractionDate.IsZero() {
		date = p.InteractionDate.UTC()
	}
	channel := defaultChannel
	if p.Channel != nil && strings.TrimSpace(*p.Channel) != "" {
		channel = strings.TrimSpace(*p.Channel)
	}
	notes := p.FreeText

	it := &storex.Interaction{
		InteractionDate:   date,
		Channel:           channel,
		ProductsDiscussed: data.productsDiscussed,
		Notes:             &notes,
		Summary:           data.summary,
		Sentiment:         data.sentiment,
		FollowUpAction:    data.followUpAction,
	}
	hcp, err := t.repo.LogInteraction(ctx, data.hcpName, data.specialty, it)
	if err != nil {
		tracingx.RecordError(span, err)
		return contractx.LogResult{}, fmt.Errorf("log interaction: %w", err)
	}
	if degraded {
		metricsx.ExtractionFallbackTotal.Inc()
	}

	t.publish(ctx, contractx.Event{
		Type:          contractx.EventInteractionLogged,
		InteractionID: it.ID,
		HCPID:         hcp.ID,
		OccurredAt:    t.now().UTC(),
	})

	return contractx.LogResult{
		InteractionID:     it.ID,
		HCPID:             hcp.ID,
		HCPName:           hcp.Name,
		Specialty:         hcp.Specialty,
		ProductsDiscussed: it.ProductsDiscussed,
		Sentiment:         it.Sentiment,
		FollowUpAction:    it.FollowUpAction,
		Summary:           it.Summary,
		Channel:           it.Channel,
		InteractionDate:   it.InteractionDate,
		Degraded:          degraded,
	}, nil
}

// extract never fails; any completion or parse problem yields the fallback
// record and degraded=true.
func (t *Toolset) extract(ctx context.Context, freeText string) (extraction, bool) {
	raw, err := t.extractor.Complete(ctx, t.prompts.ExtractionSystem, t.prompts.ExtractionInput(freeText))
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("extraction completion failed, using fallback")
		return fallbackExtraction(freeText), true
	}

	data, err := parseExtraction(raw)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("extraction parse failed, using fallback")
		return fallbackExtraction(freeText), true
	}
	return data, false
}

func parseExtraction(raw string) (extraction, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return extraction{}, fmt.Errorf("%w: empty extraction response", contractx.ErrSchemaViolation)
	}

	var payload extractionPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		if errors.Is(err, contractx.ErrSchemaViolation) {
			return extraction{}, err
		}
		return extraction{}, fmt.Errorf("%w: decode extraction: %v", contractx.ErrSchemaViolation, err)
	}

	name := unknownHCPName
	if v := payload.HCPName.ptr(); v != nil {
		name = *v
	}
	return extraction{
		hcpName:           name,
		specialty:         payload.Specialty.ptr(),
		productsDiscussed: payload.ProductsDiscussed.ptr(),
		sentiment:         payload.Sentiment.ptr(),
		followUpAction:    payload.FollowUpAction.ptr(),
		summary:           payload.Summary.ptr(),
	}, nil
}

func fallbackExtraction(freeText string) extraction {
	sentiment := fallbackSentiment
	summary := truncateRunes(freeText, fallbackSummaryRunes)
	return extraction{
		hcpName:   unknownHCPName,
		sentiment: &sentiment,
		summary:   &summary,
	}
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
