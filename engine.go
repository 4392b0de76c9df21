package sessiongate

import (
	"context"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/sessiongate/internal/audit"
	"github.com/MrEthical07/sessiongate/session"
	"github.com/google/uuid"
	"github.com/thejerf/abtime"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Engine classifies requests, authenticates them against a [Directory] and
// derives the session attributes to persist. An Engine is immutable after
// [Builder.Build] and safe for concurrent use; all per-request state lives in
// the evaluation context created by each call.
type Engine struct {
	config    Config
	directory Directory
	clock     abtime.AbstractTime
	logger    *slog.Logger
	tracer    oteltrace.Tracer
	metrics   *Metrics
	audit     *internalaudit.Dispatcher
}

// NextFunc is the downstream handler in [Engine.Run]. It receives a context
// with the identity bound and returns the response session it produced, or
// nil to leave the session unchanged.
type NextFunc func(ctx context.Context) (session.Values, error)

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// Config returns a copy of the effective configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return e.config
}

// Directory returns the account directory the engine was built with.
func (e *Engine) Directory() Directory {
	if e == nil {
		return nil
	}
	return e.directory
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full or the emitting context ended.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters and latency
// histograms. A nil engine or disabled metrics yield empty maps.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Evaluate classifies view, authenticates it at most once and derives the
// identity and session attributes. Failed logins, expired sessions and bad
// credentials are reported through the returned Evaluation; only directory
// faults produce an error.
func (e *Engine) Evaluate(ctx context.Context, view RequestView) (*Evaluation, error) {
	if e == nil || e.directory == nil {
		return nil, ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	started := time.Now()
	ctx, span := e.tracer.Start(ctx, "sessiongate.Evaluate",
		oteltrace.WithSpanKind(oteltrace.SpanKindInternal),
		oteltrace.WithAttributes(
			attribute.String("http.request.method", view.Method),
			attribute.String("url.path", view.Path),
		),
	)
	defer span.End()

	t := newTrace(view, e.directory, &e.config, e.clock.Now().Unix())
	span.SetAttributes(attribute.String("sessiongate.classification", t.class.String()))

	ev, err := t.derive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "account directory failure")
		e.metricInc(MetricDirectoryError)
		e.logger.ErrorContext(ctx, "account directory failure",
			slog.String("classification", t.class.String()),
			slog.String("path", view.Path),
			slog.Any("error", err),
		)
		e.emitAudit(ctx, t, internalaudit.EventDirectoryError, nil, false, err)
		return nil, err
	}

	span.SetAttributes(attribute.Bool("sessiongate.authenticated", ev.Authenticated))
	e.record(ctx, t, ev)

	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricEvaluateLatency, time.Since(started))
	}

	return ev, nil
}

// Run is the framework-agnostic middleware: it evaluates view, calls next
// with the identity bound, and merges the derived attributes into the
// session next returned. Errors from next are returned unchanged; the
// bound context is never reused after Run returns.
func (e *Engine) Run(ctx context.Context, view RequestView, next NextFunc) (session.Values, *Evaluation, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ev, err := e.Evaluate(ctx, view)
	if err != nil {
		return nil, nil, err
	}

	out, err := next(e.Bind(ctx, ev))
	if err != nil {
		return nil, ev, err
	}
	return ev.Session.Apply(out), ev, nil
}

// Bind returns a child of ctx carrying the evaluation's identity.
func (e *Engine) Bind(ctx context.Context, ev *Evaluation) context.Context {
	if ev == nil {
		return withIdentity(ctx, e.directory.Anonymous(), false)
	}
	return withIdentity(ctx, ev.Identity, ev.Authenticated)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// record turns an evaluation into counters, a debug line and, for the
// decisions worth keeping, an audit event.
func (e *Engine) record(ctx context.Context, t *trace, ev *Evaluation) {
	e.logger.DebugContext(ctx, "request classified",
		slog.String("classification", t.class.String()),
		slog.Bool("authenticated", ev.Authenticated),
		slog.String("path", t.view.Path),
	)

	switch t.class {
	case ClassLogin:
		if ev.Authenticated {
			e.metricInc(MetricLoginSuccess)
			e.emitAudit(ctx, t, internalaudit.EventLoginSuccess, ev.Identity, true, nil)
			return
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, t, internalaudit.EventLoginFailure, nil, false, nil)
	case ClassLogout:
		e.metricInc(MetricLogout)
		e.emitAudit(ctx, t, internalaudit.EventLogout, nil, true, nil)
	case ClassActiveSession:
		switch t.login.reason {
		case reasonAuthenticated:
			e.metricInc(MetricSessionActive)
		case reasonExpired:
			e.metricInc(MetricSessionExpired)
			e.emitAudit(ctx, t, internalaudit.EventSessionExpired, nil, false, nil)
		default:
			e.metricInc(MetricSessionAccountUnknown)
			e.emitAudit(ctx, t, internalaudit.EventSessionAccountUnknown, nil, false, nil)
		}
	case ClassPerRequestCredential:
		if ev.Authenticated {
			e.metricInc(MetricCredentialSuccess)
			e.emitAudit(ctx, t, internalaudit.EventCredentialSuccess, ev.Identity, true, nil)
			return
		}
		e.metricInc(MetricCredentialFailure)
		e.emitAudit(ctx, t, internalaudit.EventCredentialFailure, nil, false, nil)
	default:
		e.metricInc(MetricBadRequest)
	}
}

func (e *Engine) emitAudit(ctx context.Context, t *trace, eventType string, account Account, success bool, err error) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp:      e.clock.Now().UTC(),
		EventType:      eventType,
		RequestID:      uuid.NewString(),
		Classification: t.class.String(),
		Account:        e.accountName(account),
		Path:           t.view.Path,
		Method:         t.view.Method,
		Success:        success,
	}
	if err != nil {
		event.Error = err.Error()
	}
	if eventType == internalaudit.EventLoginFailure && t.view.Username != nil {
		event.Metadata = map[string]string{"username": *t.view.Username}
	}
	if t.class == ClassPerRequestCredential && t.view.UID != nil {
		event.Metadata = map[string]string{"uid": *t.view.UID}
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) accountName(account Account) string {
	if account == nil {
		return ""
	}
	if namer, ok := e.directory.(AccountNamer); ok {
		return namer.AccountName(account)
	}
	return ""
}
