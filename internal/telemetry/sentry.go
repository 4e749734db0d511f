// Package telemetry wires Sentry tracing and error reporting.
package telemetry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

const (
	serviceName  = "geotrackd"
	flushTimeout = 5 * time.Second
)

// Config holds the configuration for Sentry initialization.
type Config struct {
	DSN              string
	Environment      string
	TracesSampleRate float64
	Debug            bool
}

// unsampledTransactions are never traced.
var unsampledTransactions = map[string]bool{
	"GET /health":  true,
	"GET /metrics": true,
}

// Init initializes Sentry with tracing enabled and returns a flush function.
// An empty DSN or a failed init leaves tracing off; both return a no-op.
func Init(cfg Config, logger *zap.Logger) (func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DSN == "" {
		return func() {}, nil
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.TracesSampleRate <= 0 || cfg.TracesSampleRate > 1 {
		cfg.TracesSampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		EnableTracing:    true,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		ServerName:       serviceName,
		TracesSampler:    sampler(cfg.TracesSampleRate),
	})
	if err != nil {
		logger.Warn("sentry init failed, tracing disabled", zap.Error(err))
		return func() {}, nil
	}

	logger.Info("sentry tracing enabled",
		zap.String("environment", cfg.Environment),
		zap.Float64("sample_rate", cfg.TracesSampleRate),
	)
	return func() { sentry.Flush(flushTimeout) }, nil
}

// sampler drops health-check endpoints and makes child spans follow their parent.
func sampler(rate float64) sentry.TracesSampler {
	return func(ctx sentry.SamplingContext) float64 {
		if ctx.Span == nil {
			return rate
		}
		if unsampledTransactions[ctx.Span.Name] {
			return 0
		}
		var noParent sentry.SpanID
		if ctx.Span.ParentSpanID != noParent {
			if ctx.Span.Sampled.Bool() {
				return 1
			}
			return 0
		}
		return rate
	}
}

// SpanAttributes are the identifiers attached to pipeline spans as tags.
type SpanAttributes struct {
	ProjectID string
	PromptID  string
	JobID     string
	Provider  string
	Model     string
}

func (a SpanAttributes) apply(span *sentry.Span) {
	tags := map[string]string{
		"project_id": a.ProjectID,
		"prompt_id":  a.PromptID,
		"job_id":     a.JobID,
		"provider":   a.Provider,
		"model":      a.Model,
	}
	for k, v := range tags {
		if v != "" {
			span.SetTag(k, v)
		}
	}
}

// Span wraps a sentry span. The zero value is inert.
type Span struct {
	inner *sentry.Span
}

// StartSpan opens a child of the span in ctx, or a new transaction when ctx
// carries none.
func StartSpan(ctx context.Context, op string, attrs SpanAttributes) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(op)
	} else {
		span = sentry.StartSpan(ctx, op, sentry.WithTransactionName(op))
	}
	attrs.apply(span)
	return span.Context(), &Span{inner: span}
}

// End finishes the span. A span without a status is marked ok.
func (s *Span) End() {
	if s.inner == nil {
		return
	}
	if s.inner.Status == sentry.SpanStatusUndefined {
		s.inner.Status = sentry.SpanStatusOK
	}
	s.inner.Finish()
}

// SetData records a value on the span.
func (s *Span) SetData(key string, value interface{}) {
	if s.inner != nil {
		s.inner.SetData(key, value)
	}
}

// SetError sets the span status from the error's domain code. Only provider
// and internal failures are reported as Sentry events; caller mistakes such
// as missing variables or unknown ids are not.
func (s *Span) SetError(err error) {
	if s.inner == nil || err == nil {
		return
	}
	code := domain.CodeOf(err)
	s.inner.Status = spanStatus(code)
	s.inner.SetTag("error_code", code)
	if !reportable(code) {
		return
	}
	if hub := sentry.GetHubFromContext(s.inner.Context()); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}

// Context returns the span's context.
func (s *Span) Context() context.Context {
	if s.inner != nil {
		return s.inner.Context()
	}
	return context.Background()
}

func spanStatus(code string) sentry.SpanStatus {
	switch code {
	case domain.ErrCodeValidation, domain.ErrCodeInvalidOperation:
		return sentry.SpanStatusInvalidArgument
	case domain.ErrCodeNotFound:
		return sentry.SpanStatusNotFound
	case domain.ErrCodeAlreadyExists:
		return sentry.SpanStatusAlreadyExists
	case domain.ErrCodeUnauthorized:
		return sentry.SpanStatusUnauthenticated
	case domain.ErrCodeForbidden:
		return sentry.SpanStatusPermissionDenied
	case domain.ErrCodeConfiguration:
		return sentry.SpanStatusFailedPrecondition
	case domain.ErrCodeProvider:
		return sentry.SpanStatusUnavailable
	case domain.ErrCodeProviderTimeout:
		return sentry.SpanStatusDeadlineExceeded
	default:
		return sentry.SpanStatusInternalError
	}
}

func reportable(code string) bool {
	switch code {
	case domain.ErrCodeProvider, domain.ErrCodeProviderTimeout, domain.ErrCodeInternalError:
		return true
	default:
		return false
	}
}
