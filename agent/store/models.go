package store

import (
	"time"

	"github.com/uptrace/bun"
)

// HCPProfile is a healthcare professional known to the CRM.
type HCPProfile struct {
	bun.BaseModel `bun:"table:hcp_profiles,alias:h"`

	ID           int64   `bun:"id,pk,autoincrement" json:"id"`
	Name         string  `bun:"name,notnull" json:"name"`
	Specialty    *string `bun:"specialty" json:"specialty"`
	Organization *string `bun:"organization" json:"organization"`
	Notes        *string `bun:"notes" json:"notes"`
}

// Interaction is one logged encounter with an HCP. Summary, Sentiment and
// FollowUpAction are model-derived and may lag behind Notes.
type Interaction struct {
	bun.BaseModel `bun:"table:interactions,alias:i"`

	ID                int64     `bun:"id,pk,autoincrement" json:"id"`
	HCPID             int64     `bun:"hcp_id,notnull" json:"hcp_id"`
	InteractionDate   time.Time `bun:"interaction_date,notnull" json:"interaction_date"`
	Channel           string    `bun:"channel,notnull" json:"channel"`
	ProductsDiscussed *string   `bun:"products_discussed" json:"products_discussed"`
	Notes             *string   `bun:"notes" json:"notes"`
	Summary           *string   `bun:"summary" json:"summary"`
	Sentiment         *string   `bun:"sentiment" json:"sentiment"`
	FollowUpAction    *string   `bun:"follow_up_action" json:"follow_up_action"`

	HCP *HCPProfile `bun:"rel:belongs-to,join:hcp_id=id" json:"-"`
}

const (
	ColumnInteractionDate   = "interaction_date"
	ColumnChannel           = "channel"
	ColumnProductsDiscussed = "products_discussed"
	ColumnNotes             = "notes"
	ColumnSummary           = "summary"
	ColumnSentiment         = "sentiment"
	ColumnFollowUpAction    = "follow_up_action"
)
