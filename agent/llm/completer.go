package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	openaisdk "github.com/openai/openai-go"
	contractx "github.com/tanpawarit/hcp-interaction-agent/agent/contract"
	metricsx "github.com/tanpawarit/hcp-interaction-agent/pkg/metrics"
	openrouterx "github.com/tanpawarit/hcp-interaction-agent/pkg/openrouter"
)

var (
	_ contractx.Completer = (*GraphCompleter)(nil)
	_ contractx.Completer = (*SDKCompleter)(nil)
)

// NewCompleter builds the completer for one agent role using the configured driver.
func NewCompleter(ctx context.Context, cfg Config, agentType contractx.AgentType) (contractx.Completer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	routerCfg := cfg.OpenRouterFor(agentType)
	switch strings.TrimSpace(cfg.Driver) {
	case DriverOpenAI:
		client := openrouterx.NewClient(routerCfg)
		if client == nil {
			return nil, fmt.Errorf("%w: create sdk client for %s", contractx.ErrModelInvoke, agentType)
		}
		return NewSDKCompleter(client, routerCfg, string(agentType)), nil
	default:
		chatModel, err := routerCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, agentType, err)
		}
		return NewGraphCompleter(ctx, chatModel, string(agentType))
	}
}

// GraphCompleter runs a system+user prompt through a compiled eino graph.
type GraphCompleter struct {
	operation string
	runner    compose.Runnable[map[string]any, *schema.Message]
}

func NewGraphCompleter(ctx context.Context, chatModel einomodel.BaseChatModel, operation string) (*GraphCompleter, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}

	// Both prompts are passed as variables so braces inside them are never
	// interpreted as placeholders.
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{input}"),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add completion prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add completion model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add completion edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add completion edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add completion edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("completion."+operation))
	if err != nil {
		return nil, fmt.Errorf("compile completion graph: %w", err)
	}
	return &GraphCompleter{operation: operation, runner: runner}, nil
}

func (c *GraphCompleter) Complete(ctx context.Context, systemPrompt string, userText string) (out string, err error) {
	start := time.Now()
	defer func() { metricsx.ObserveCompletion(c.operation, start, err) }()

	msg, err := c.runner.Invoke(ctx, map[string]any{
		"system": systemPrompt,
		"input":  userText,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", contractx.ErrModelInvoke, c.operation, err)
	}
	if msg == nil {
		return "", nil
	}
	return msg.Content, nil
}

// SDKCompleter calls the chat completions API through the OpenAI SDK directly.
type SDKCompleter struct {
	client      *openaisdk.Client
	operation   string
	model       string
	temperature float64
	maxTokens   int64
}

func NewSDKCompleter(client *openaisdk.Client, cfg openrouterx.Config, operation string) *SDKCompleter {
	var maxTokens int64
	if cfg.MaxCompletionToken != nil {
		maxTokens = int64(*cfg.MaxCompletionToken)
	}
	return &SDKCompleter{
		client:      client,
		operation:   operation,
		model:       strings.TrimSpace(cfg.Model),
		temperature: float64(cfg.Temperature),
		maxTokens:   maxTokens,
	}
}

func (c *SDKCompleter) Complete(ctx context.Context, systemPrompt string, userText string) (out string, err error) {
	start := time.Now()
	defer func() { metricsx.ObserveCompletion(c.operation, start, err) }()

	params := openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(c.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(systemPrompt),
			openaisdk.UserMessage(userText),
		},
		Temperature: openaisdk.Float(c.temperature),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openaisdk.Int(c.maxTokens)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", contractx.ErrModelInvoke, c.operation, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
