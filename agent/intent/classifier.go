package intent

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/hcp-interaction-agent/agent/contract"
)

var _ contractx.Classifier = (*Classifier)(nil)

// Classifier maps free text onto one of the fixed intents. It never fails:
// unknown labels and completion errors resolve to contract.DefaultIntent.
type Classifier struct {
	llm          contractx.Completer
	systemPrompt string
}

func NewClassifier(llm contractx.Completer, systemPrompt string) (*Classifier, error) {
	if llm == nil {
		return nil, errors.New("completer is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, contractx.ErrPromptMissing
	}
	return &Classifier{llm: llm, systemPrompt: systemPrompt}, nil
}

func (c *Classifier) Classify(ctx context.Context, userText string) contractx.Classification {
	raw, err := c.llm.Complete(ctx, c.systemPrompt, userText)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("intent classification failed, using default intent")
		return contractx.Classification{Intent: contractx.DefaultIntent, Degraded: true}
	}

	label := strings.TrimSpace(raw)
	intent, ok := contractx.ParseIntent(label)
	if !ok {
		log.Ctx(ctx).Warn().Str("label", label).Msg("unrecognized intent label, using default intent")
		return contractx.Classification{Intent: contractx.DefaultIntent, Degraded: true}
	}
	return contractx.Classification{Intent: intent}
}
