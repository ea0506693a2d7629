package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trainerdesk/internal/adapters/http/perf"
	"trainerdesk/internal/domain/agenda"
	"trainerdesk/internal/domain/connection"
)

var tracer = otel.Tracer("trainerdesk.internal.adapters.calendar")

// ErrReconnectRequired is returned when the provider rejects the stored
// authorization (HTTP 401 or 403). Callers surface it as "reconnect required"
// and do not retry.
var ErrReconnectRequired = errors.New("external calendar authorization expired or revoked")

// ErrUnsupportedProvider is returned for a connection whose provider has no adapter.
var ErrUnsupportedProvider = errors.New("unsupported calendar provider")

// Provider returns a trainer's upcoming external events.
type Provider interface {
	Upcoming(ctx context.Context, conn connection.Connection, from time.Time) ([]agenda.ExternalEvent, error)
}

// Router dispatches to the Provider registered for conn.Provider.
type Router struct {
	providers map[string]Provider
	collector *perf.Collector
}

// NewRouter builds a Router from provider name to adapter.
func NewRouter(providers map[string]Provider) *Router {
	return &Router{providers: providers}
}

// WithCollector records each provider call's duration to c.
func (r *Router) WithCollector(c *perf.Collector) *Router {
	r.collector = c
	return r
}

// Upcoming implements Provider.
// PRE: conn has been validated
// POST: Returns events from the matching adapter, or ErrUnsupportedProvider
func (r *Router) Upcoming(ctx context.Context, conn connection.Connection, from time.Time) ([]agenda.ExternalEvent, error) {
	ctx, span := tracer.Start(ctx, "calendar.upcoming",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("trainerdesk.calendar.provider", conn.Provider)),
	)
	defer span.End()

	p, ok := r.providers[conn.Provider]
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnsupportedProvider, conn.Provider)
		span.RecordError(err)
		return nil, err
	}
	start := time.Now()
	events, err := p.Upcoming(ctx, conn, from)
	r.collector.RecordFetch(conn.Provider, start, err)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("trainerdesk.calendar.events", len(events)))
	return events, nil
}

func isAuthStatus(code int) bool {
	return code == 401 || code == 403
}
