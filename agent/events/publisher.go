package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/hcp-interaction-agent/agent/contract"
	qstashx "github.com/tanpawarit/hcp-interaction-agent/pkg/qstash"
)

var (
	_ contractx.EventPublisher = (*QStashPublisher)(nil)
	_ contractx.EventPublisher = Noop{}
)

type publisher interface {
	Publish(ctx context.Context, destination string, body any, opts ...qstashx.PublishOption) (qstashx.PublishResponse, error)
}

// QStashPublisher forwards interaction events to one QStash destination
// (a URL, URL group or topic).
type QStashPublisher struct {
	client      publisher
	destination string
}

func NewQStashPublisher(client publisher, destination string) (*QStashPublisher, error) {
	if client == nil {
		return nil, errors.New("qstash client is required")
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, errors.New("qstash destination is required")
	}
	return &QStashPublisher{client: client, destination: destination}, nil
}

func (p *QStashPublisher) Publish(ctx context.Context, evt contractx.Event) error {
	_, err := p.client.Publish(ctx, p.destination, evt, qstashx.WithDeduplicationID(dedupID(evt)))
	if err != nil {
		return fmt.Errorf("publish %s for interaction=%d: %w", evt.Type, evt.InteractionID, err)
	}
	return nil
}

func dedupID(evt contractx.Event) string {
	return fmt.Sprintf("%s-%d-%d", evt.Type, evt.InteractionID, evt.OccurredAt.UnixNano())
}

// Noop drops every event. It is used when QStash is not configured.
type Noop struct{}

func (Noop) Publish(context.Context, contractx.Event) error { return nil }

// New returns a QStash-backed publisher when cfg is complete, Noop otherwise.
func New(cfg qstashx.Config) (contractx.EventPublisher, error) {
	if !cfg.Enabled() {
		return Noop{}, nil
	}
	client, err := qstashx.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create qstash client: %w", err)
	}
	return NewQStashPublisher(client, cfg.Destination)
}
