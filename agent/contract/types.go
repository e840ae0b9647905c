package contract

import (
	"time"
)

type Intent string

const (
	IntentLogInteraction          Intent = "log_interaction"
	IntentEditInteraction         Intent = "edit_interaction"
	IntentFetchHCPProfile         Intent = "fetch_hcp_profile"
	IntentGenerateSummary         Intent = "generate_interaction_summary"
	IntentRecommendNextBestAction Intent = "recommend_next_best_action"
)

// DefaultIntent is used whenever classification is ambiguous or fails.
const DefaultIntent = IntentLogInteraction

// Intents lists every routable intent. Routing tables are checked against it.
var Intents = []Intent{
	IntentLogInteraction,
	IntentEditInteraction,
	IntentFetchHCPProfile,
	IntentGenerateSummary,
	IntentRecommendNextBestAction,
}

func ParseIntent(raw string) (Intent, bool) {
	for _, intent := range Intents {
		if string(intent) == raw {
			return intent, true
		}
	}
	return "", false
}

type AgentType string

const (
	AgentTypeClassifier AgentType = "classifier"
	AgentTypeExtractor  AgentType = "extractor"
	AgentTypeWriter     AgentType = "writer"
)

type Classification struct {
	Intent   Intent `json:"intent"`
	Degraded bool   `json:"degraded"`
}

// DispatchContext carries every caller-supplied value a handler may need.
// The dispatcher converts it into the handler's parameter struct.
type DispatchContext struct {
	Channel         *string        `json:"channel,omitempty"`
	InteractionDate *time.Time     `json:"interaction_date,omitempty"`
	InteractionID   *int64         `json:"interaction_id,omitempty"`
	Updates         map[string]any `json:"updates,omitempty"`
	HCPID           *int64         `json:"hcp_id,omitempty"`
	HCPName         *string        `json:"hcp_name,omitempty"`
}

type DispatchRequest struct {
	UserInput string          `json:"user_input"`
	Intent    Intent          `json:"intent,omitempty"` // pinned; empty means classify UserInput
	Context   DispatchContext `json:"context"`
}

type DispatchResult struct {
	Intent   Intent `json:"intent"`
	Degraded bool   `json:"degraded"`
	Result   any    `json:"tool_result"`
}

/* ------------------------------ handler params ------------------------------ */

type LogParams struct {
	FreeText        string
	Channel         *string
	InteractionDate *time.Time
}

type EditParams struct {
	InteractionID int64
	Updates       map[string]any
}

type ProfileParams struct {
	HCPID   *int64
	HCPName *string
}

type InteractionParams struct {
	InteractionID int64
}

/* ------------------------------ handler results ----------------------------- */

type LogResult struct {
	InteractionID     int64     `json:"interaction_id"`
	HCPID             int64     `json:"hcp_id"`
	HCPName           string    `json:"hcp_name"`
	Specialty         *string   `json:"specialty"`
	ProductsDiscussed *string   `json:"products_discussed"`
	Sentiment         *string   `json:"sentiment"`
	FollowUpAction    *string   `json:"follow_up_action"`
	Summary           *string   `json:"summary"`
	Channel           string    `json:"channel"`
	InteractionDate   time.Time `json:"interaction_date"`
	Degraded          bool      `json:"degraded"`
}

type EditResult struct {
	Success        bool           `json:"success"`
	Error          string         `json:"error,omitempty"`
	InteractionID  int64          `json:"interaction_id,omitempty"`
	AppliedUpdates map[string]any `json:"applied_updates"`
}

type HCPSummary struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Specialty    *string `json:"specialty"`
	Organization *string `json:"organization"`
	Notes        *string `json:"notes"`
}

type RecentInteraction struct {
	ID                int64     `json:"id"`
	InteractionDate   time.Time `json:"interaction_date"`
	Channel           string    `json:"channel"`
	Summary           *string   `json:"summary"`
	ProductsDiscussed *string   `json:"products_discussed"`
}

type ProfileResult struct {
	Success            bool                `json:"success"`
	Error              string              `json:"error,omitempty"`
	HCP                *HCPSummary         `json:"hcp,omitempty"`
	RecentInteractions []RecentInteraction `json:"recent_interactions"`
}

type SummaryResult struct {
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
	InteractionID int64  `json:"interaction_id,omitempty"`
	Summary       string `json:"summary,omitempty"`
}

type RecommendationResult struct {
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
	InteractionID  int64  `json:"interaction_id,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

/* ---------------------------------- events ---------------------------------- */

type EventType string

const (
	EventInteractionLogged  EventType = "interaction.logged"
	EventInteractionUpdated EventType = "interaction.updated"
)

type Event struct {
	Type          EventType      `json:"type"`
	InteractionID int64          `json:"interaction_id"`
	HCPID         int64          `json:"hcp_id,omitempty"`
	Fields        map[string]any `json:"fields,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
}
