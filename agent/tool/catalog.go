package tool

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/hcp-interaction-agent/agent/contract"
	promptx "github.com/tanpawarit/hcp-interaction-agent/agent/prompt"
)

var _ contractx.Tools = (*Toolset)(nil)

// Toolset implements the five intent handlers over one repository.
// Extraction and writing may use different completers so each role can run
// its own model and temperature.
type Toolset struct {
	repo      contractx.Repository
	extractor contractx.Completer
	writer    contractx.Completer
	prompts   promptx.PromptSet
	events    contractx.EventPublisher
	now       func() time.Time

	publishTimeout time.Duration
	pending        sync.WaitGroup
}

const defaultPublishTimeout = 3 * time.Second

type Option func(*Toolset)

// WithEvents publishes interaction events after successful writes.
func WithEvents(p contractx.EventPublisher) Option {
	return func(t *Toolset) {
		if p != nil {
			t.events = p
		}
	}
}

// WithPublishTimeout bounds each background event publish.
func WithPublishTimeout(d time.Duration) Option {
	return func(t *Toolset) {
		if d > 0 {
			t.publishTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Toolset) {
		if now != nil {
			t.now = now
		}
	}
}

func NewToolset(
	repo contractx.Repository,
	extractor contractx.Completer,
	writer contractx.Completer,
	prompts promptx.PromptSet,
	opts ...Option,
) (*Toolset, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if extractor == nil || writer == nil {
		return nil, errors.New("extractor and writer completers are required")
	}
	if err := prompts.Validate(); err != nil {
		return nil, err
	}

	t := &Toolset{
		repo:      repo,
		extractor: extractor,
		writer:    writer,
		prompts:   prompts,
		events:    noopPublisher{},
		now:       time.Now,

		publishTimeout: defaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// publish hands evt to the publisher in the background. The request may
// finish or be cancelled first; the publish keeps the request's values but
// runs under its own timeout.
func (t *Toolset) publish(ctx context.Context, evt contractx.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.publishTimeout)
	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		defer cancel()
		if err := t.events.Publish(ctx, evt); err != nil {
			log.Ctx(ctx).Warn().
				Err(err).
				Str("event", string(evt.Type)).
				Int64("interaction_id", evt.InteractionID).
				Msg("publish interaction event failed")
		}
	}()
}

// Drain waits for in-flight event publishes until ctx is done.
func (t *Toolset) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, contractx.Event) error { return nil }
