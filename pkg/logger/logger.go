package logx

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

type Config struct {
	Level        string `split_words:"true" default:"info"`
	Debug        bool   `split_words:"true" default:"false"`
	PrettyFormat bool   `split_words:"true" default:"false"`
	Service      string `split_words:"true" default:"hcp-interaction-agent"`
}

var DefaultConfig = &Config{
	Level:   "info",
	Service: "hcp-interaction-agent",
}

func safe(opts ...Config) *Config {
	if len(opts) == 0 {
		return DefaultConfig
	}
	return &opts[0]
}

// Init replaces the global logger. Debug forces debug level; otherwise an
// unparsable Level falls back to info.
func Init(opts ...Config) {
	conf := safe(opts...)

	var out io.Writer = os.Stdout
	if conf.PrettyFormat {
		out = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.TimeFormat = time.TimeOnly
		})
	}

	lc := zerolog.New(out).With().Timestamp().Caller()
	if service := strings.TrimSpace(conf.Service); service != "" {
		lc = lc.Str("service", service)
	}
	log.Logger = lc.Logger().Level(resolveLevel(conf))

	// log.Ctx falls back to the global logger for contexts without one.
	zerolog.DefaultContextLogger = &log.Logger
}

func resolveLevel(conf *Config) zerolog.Level {
	if conf.Debug {
		return zerolog.DebugLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(conf.Level)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// WithRequest stores a child logger tagged with the request id, and the trace
// id when ctx carries a valid span, so handlers can use log.Ctx(ctx).
func WithRequest(ctx context.Context, requestID string) context.Context {
	lc := log.Logger.With()
	if requestID != "" {
		lc = lc.Str("request_id", requestID)
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		lc = lc.Str("trace_id", sc.TraceID().String())
	}
	logger := lc.Logger()
	return logger.WithContext(ctx)
}
