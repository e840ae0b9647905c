package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/hcp-interaction-agent/agent/contract"
	metricsx "github.com/tanpawarit/hcp-interaction-agent/pkg/metrics"
	tracingx "github.com/tanpawarit/hcp-interaction-agent/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// Dispatcher resolves the intent of a request and runs exactly one tool handler.
type Dispatcher struct {
	classifier contractx.Classifier
	tools      contractx.Tools
	routes     map[contractx.Intent]route

	graphRunner compose.Runnable[contractx.DispatchRequest, contractx.DispatchResult]
}

func New(classifier contractx.Classifier, tools contractx.Tools) (*Dispatcher, error) {
	return newWithRoutes(classifier, tools, defaultRoutes())
}

func newWithRoutes(classifier contractx.Classifier, tools contractx.Tools, routes map[contractx.Intent]route) (*Dispatcher, error) {
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if tools == nil {
		return nil, errors.New("tools are required")
	}
	if err := checkRoutes(routes); err != nil {
		return nil, err
	}

	d := &Dispatcher{
		classifier: classifier,
		tools:      tools,
		routes:     routes,
	}

	graphRunner, err := d.compileDispatchGraph(context.Background())
	if err != nil {
		return nil, err
	}
	d.graphRunner = graphRunner

	return d, nil
}

// Dispatch classifies req.UserInput unless req.Intent pins the handler.
// Handler errors are returned unchanged apart from wrapping.
func (d *Dispatcher) Dispatch(ctx context.Context, req contractx.DispatchRequest) (contractx.DispatchResult, error) {
	ctx, span := tracingx.StartSpan(ctx, "dispatcher.dispatch")
	defer span.End()

	if req.Intent != "" {
		if _, ok := contractx.ParseIntent(string(req.Intent)); !ok {
			err := fmt.Errorf("%w: unknown intent=%q", contractx.ErrValidation, req.Intent)
			tracingx.RecordError(span, err)
			return contractx.DispatchResult{}, err
		}
	}

	out, err := d.graphRunner.Invoke(ctx, req)
	if err != nil {
		tracingx.RecordError(span, err)
		return contractx.DispatchResult{}, err
	}

	span.SetAttributes(
		attribute.String("intent", string(out.Intent)),
		attribute.Bool("degraded", out.Degraded),
	)
	metricsx.RecordDispatch(string(out.Intent), out.Degraded)
	log.Ctx(ctx).Debug().
		Str("intent", string(out.Intent)).
		Bool("degraded", out.Degraded).
		Bool("pinned", req.Intent != "").
		Msg("request dispatched")

	return out, nil
}

func (d *Dispatcher) resolveIntent(ctx context.Context, req contractx.DispatchRequest) (*dispatchState, error) {
	if req.Intent != "" {
		return &dispatchState{Req: req, Intent: req.Intent}, nil
	}

	classification := d.classifier.Classify(ctx, req.UserInput)
	intent := classification.Intent
	if _, ok := d.routes[intent]; !ok {
		intent = contractx.DefaultIntent
		classification.Degraded = true
	}
	return &dispatchState{
		Req:      req,
		Intent:   intent,
		Degraded: classification.Degraded,
	}, nil
}
