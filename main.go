package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/hcp-interaction-agent/agent/agents/dispatcher"
	contractx "github.com/tanpawarit/hcp-interaction-agent/agent/contract"
	"github.com/tanpawarit/hcp-interaction-agent/agent/events"
	"github.com/tanpawarit/hcp-interaction-agent/agent/intent"
	"github.com/tanpawarit/hcp-interaction-agent/agent/llm"
	promptx "github.com/tanpawarit/hcp-interaction-agent/agent/prompt"
	storex "github.com/tanpawarit/hcp-interaction-agent/agent/store"
	"github.com/tanpawarit/hcp-interaction-agent/agent/tool"
	"github.com/tanpawarit/hcp-interaction-agent/api"
	configx "github.com/tanpawarit/hcp-interaction-agent/pkg/config"
	_ "github.com/tanpawarit/hcp-interaction-agent/pkg/logger/autoload"
	"github.com/tanpawarit/hcp-interaction-agent/pkg/postgres"
	qstashx "github.com/tanpawarit/hcp-interaction-agent/pkg/qstash"
	tracingx "github.com/tanpawarit/hcp-interaction-agent/pkg/tracing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpCfg := configx.MustNew[api.Config]("HTTP")
	pgCfg := configx.MustNew[postgres.Config]("POSTGRES")
	llmCfg := configx.MustNew[llm.Config]("LLM")
	qstashCfg := configx.MustNew[qstashx.Config]("QSTASH")
	otelCfg := configx.MustNew[tracingx.Config]("OTEL")

	shutdownTracing, err := tracingx.Init(ctx, *otelCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracing")
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	db, err := postgres.Open(ctx, *pgCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if pgCfg.AutoMigrate {
		if err := postgres.Migrate(db.DB); err != nil {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
	}

	prompts := promptx.LoadPromptSet()
	if err := prompts.Validate(); err != nil {
		log.Fatal().Err(err).Msg("prompt set is incomplete")
	}

	classifierLLM := mustCompleter(ctx, *llmCfg, contractx.AgentTypeClassifier)
	extractorLLM := mustCompleter(ctx, *llmCfg, contractx.AgentTypeExtractor)
	writerLLM := mustCompleter(ctx, *llmCfg, contractx.AgentTypeWriter)

	classifier, err := intent.NewClassifier(classifierLLM, prompts.Classifier)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create classifier")
	}

	publisher, err := events.New(*qstashCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	repo := storex.NewRepository(db)
	tools, err := tool.NewToolset(repo, extractorLLM, writerLLM, prompts, tool.WithEvents(publisher))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create toolset")
	}

	d, err := dispatcher.New(classifier, tools)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create dispatcher")
	}

	server, err := api.New(*httpCfg, d, repo, db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create http server")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server stopped")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		if err := server.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("http server shutdown")
		}
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tools.Drain(drainCtx); err != nil {
		log.Warn().Err(err).Msg("pending interaction events were dropped")
	}
}

func mustCompleter(ctx context.Context, cfg llm.Config, agentType contractx.AgentType) contractx.Completer {
	completer, err := llm.NewCompleter(ctx, cfg, agentType)
	if err != nil {
		log.Fatal().Err(err).Str("agent", string(agentType)).Msg("failed to create completer")
	}
	return completer
}
