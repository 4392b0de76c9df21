package sessiongate

import (
	"fmt"
	"log/slog"

	internalaudit "github.com/MrEthical07/sessiongate/internal/audit"
	"github.com/thejerf/abtime"
	"go.opentelemetry.io/otel"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/MrEthical07/sessiongate"

// Builder assembles an [Engine]. Configure it during initialization, call
// Build once, then discard it.
type Builder struct {
	config    Config
	directory Directory
	clock     abtime.AbstractTime
	logger    *slog.Logger
	auditSink AuditSink
	tracers   oteltrace.TracerProvider

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig overlays cfg onto the current configuration key by key. Fields
// left at their zero value keep whatever was configured before.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = mergeConfig(b.config, cfg)
	return b
}

// WithDirectory sets the account directory. It is required.
func (b *Builder) WithDirectory(dir Directory) *Builder {
	b.directory = dir
	return b
}

// WithClock replaces the wall clock used for session timestamps and expiry.
func (b *Builder) WithClock(clock abtime.AbstractTime) *Builder {
	b.clock = clock
	return b
}

// WithLogger sets the structured logger. The default discards output.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets where audit events go when auditing is enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithTracerProvider sets the OpenTelemetry provider used for evaluation
// spans. The default is the global provider.
func (b *Builder) WithTracerProvider(tp oteltrace.TracerProvider) *Builder {
	b.tracers = tp
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine. A Builder
// can only be built once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.directory == nil {
		return nil, ErrDirectoryRequired
	}
	if anon := b.directory.Anonymous(); anon == nil {
		return nil, fmt.Errorf("%w: directory returned a nil anonymous account", ErrInvalidConfig)
	}

	clock := b.clock
	if clock == nil {
		clock = abtime.NewRealTime()
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tp := b.tracers
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	b.built = true

	return &Engine{
		config:    cfg,
		directory: b.directory,
		clock:     clock,
		logger:    logger,
		tracer:    tp.Tracer(tracerName),
		metrics:   NewMetrics(cfg.Metrics),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}, nil
}
