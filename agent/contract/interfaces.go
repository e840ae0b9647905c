package contract

import (
	"context"

	storex "github.com/tanpawarit/hcp-interaction-agent/agent/store"
)

// Completer is the opaque text-completion service.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, userText string) (string, error)
}

type Classifier interface {
	Classify(ctx context.Context, userText string) Classification
}

type Tools interface {
	LogInteraction(ctx context.Context, p LogParams) (LogResult, error)
	EditInteraction(ctx context.Context, p EditParams) (EditResult, error)
	FetchHCPProfile(ctx context.Context, p ProfileParams) (ProfileResult, error)
	GenerateInteractionSummary(ctx context.Context, p InteractionParams) (SummaryResult, error)
	RecommendNextBestAction(ctx context.Context, p InteractionParams) (RecommendationResult, error)
}

type Repository interface {
	LogInteraction(ctx context.Context, hcpName string, specialty *string, it *storex.Interaction) (*storex.HCPProfile, error)
	GetInteraction(ctx context.Context, id int64) (*storex.Interaction, error)
	ListInteractions(ctx context.Context) ([]storex.Interaction, error)
	UpdateInteraction(ctx context.Context, it *storex.Interaction, columns ...string) error
	GetHCP(ctx context.Context, id int64) (*storex.HCPProfile, error)
	FindHCPByName(ctx context.Context, name string) (*storex.HCPProfile, error)
	RecentInteractions(ctx context.Context, hcpID int64, limit int) ([]storex.Interaction, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, evt Event) error
}
