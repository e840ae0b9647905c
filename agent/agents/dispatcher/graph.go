package dispatcher

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/hcp-interaction-agent/agent/contract"
)

const nodeRouteIntent = "route_intent"

type dispatchState struct {
	Req      contractx.DispatchRequest
	Intent   contractx.Intent
	Degraded bool
}

func (d *Dispatcher) compileDispatchGraph(
	ctx context.Context,
) (compose.Runnable[contractx.DispatchRequest, contractx.DispatchResult], error) {
	graph := compose.NewGraph[contractx.DispatchRequest, contractx.DispatchResult]()

	if err := graph.AddLambdaNode(nodeRouteIntent,
		compose.InvokableLambda(func(ctx context.Context, in contractx.DispatchRequest) (*dispatchState, error) {
			return d.resolveIntent(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeRouteIntent, err)
	}

	endNodes := make(map[string]bool, len(contractx.Intents))
	for _, intent := range contractx.Intents {
		handle := d.routes[intent]
		node := string(intent)
		if err := graph.AddLambdaNode(node,
			compose.InvokableLambda(func(ctx context.Context, in *dispatchState) (contractx.DispatchResult, error) {
				result, err := handle(ctx, d.tools, in.Req)
				if err != nil {
					return contractx.DispatchResult{}, err
				}
				return contractx.DispatchResult{
					Intent:   in.Intent,
					Degraded: in.Degraded,
					Result:   result,
				}, nil
			}),
		); err != nil {
			return nil, fmt.Errorf("add node %s: %w", node, err)
		}
		if err := graph.AddEdge(node, compose.END); err != nil {
			return nil, fmt.Errorf("add edge %s->end: %w", node, err)
		}
		endNodes[node] = true
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *dispatchState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: dispatch state is nil", contractx.ErrValidation)
			}
			return string(in.Intent), nil
		},
		endNodes,
	)
	if err := graph.AddBranch(nodeRouteIntent, branch); err != nil {
		return nil, fmt.Errorf("add dispatch branch: %w", err)
	}
	if err := graph.AddEdge(compose.START, nodeRouteIntent); err != nil {
		return nil, fmt.Errorf("add edge start->%s: %w", nodeRouteIntent, err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("dispatcher.dispatch"))
	if err != nil {
		return nil, fmt.Errorf("compile dispatcher graph: %w", err)
	}
	return runner, nil
}
