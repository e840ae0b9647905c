package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/hcp-interaction-agent/agent/contract"
	storex "github.com/tanpawarit/hcp-interaction-agent/agent/store"
)

const cardChannelFallback = "Meeting"

// Timestamp accepts RFC 3339 as well as the naive layouts browser forms send.
// Naive values are read as UTC.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := contractx.ParseTimestamp(raw)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

type InteractionResponse struct {
	ID                int64     `json:"id"`
	HCPID             int64     `json:"hcp_id"`
	HCPName           string    `json:"hcp_name"`
	Specialty         *string   `json:"specialty"`
	InteractionDate   time.Time `json:"interaction_date"`
	Channel           string    `json:"channel"`
	ProductsDiscussed *string   `json:"products_discussed"`
	Notes             *string   `json:"notes"`
	Summary           *string   `json:"summary"`
	Sentiment         *string   `json:"sentiment"`
	FollowUpAction    *string   `json:"follow_up_action"`
}

func newInteractionResponse(it *storex.Interaction) InteractionResponse {
	out := InteractionResponse{
		ID:                it.ID,
		HCPID:             it.HCPID,
		InteractionDate:   it.InteractionDate.UTC(),
		Channel:           it.Channel,
		ProductsDiscussed: it.ProductsDiscussed,
		Notes:             it.Notes,
		Summary:           it.Summary,
		Sentiment:         it.Sentiment,
		FollowUpAction:    it.FollowUpAction,
	}
	if it.HCP != nil {
		out.HCPName = it.HCP.Name
		out.Specialty = it.HCP.Specialty
	}
	return out
}

// InteractionCard is the timeline entry the chat UI renders after a log.
type InteractionCard struct {
	ID             int64    `json:"id"`
	HCPName        string   `json:"hcp_name"`
	Specialty      *string  `json:"specialty"`
	Date           string   `json:"date"`
	Time           string   `json:"time"`
	Channel        string   `json:"channel"`
	Topics         []string `json:"topics"`
	Sentiment      string   `json:"sentiment"`
	Summary        *string  `json:"summary"`
	FollowUpAction *string  `json:"follow_up_action"`
	Degraded       bool     `json:"degraded"`
}

func newInteractionCard(r contractx.LogResult, channelOmitted bool) *InteractionCard {
	channel := r.Channel
	if channelOmitted || strings.TrimSpace(channel) == "" {
		channel = cardChannelFallback
	}
	sentiment := "Neutral"
	if r.Sentiment != nil {
		if s := capitalize(*r.Sentiment); s != "" {
			sentiment = s
		}
	}
	date := r.InteractionDate.UTC()
	return &InteractionCard{
		ID:             r.InteractionID,
		HCPName:        r.HCPName,
		Specialty:      r.Specialty,
		Date:           date.Format("2006-01-02"),
		Time:           date.Format("15:04"),
		Channel:        channel,
		Topics:         splitTopics(r.ProductsDiscussed),
		Sentiment:      sentiment,
		Summary:        r.Summary,
		FollowUpAction: r.FollowUpAction,
		Degraded:       r.Degraded,
	}
}

func splitTopics(products *string) []string {
	topics := []string{}
	if products == nil {
		return topics
	}
	for _, part := range strings.Split(*products, ",") {
		if p := strings.TrimSpace(part); p != "" {
			topics = append(topics, p)
		}
	}
	return topics
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
