package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"trainerdesk/internal/domain/agenda"
	"trainerdesk/internal/domain/connection"
)

// DefaultGoogleMaxResults caps one upcoming-events request.
const DefaultGoogleMaxResults = 250

// GoogleProvider reads the primary Google calendar with the trainer's OAuth
// access token.
type GoogleProvider struct {
	endpoint   string
	baseClient *http.Client
	maxResults int64
}

// GoogleOption configures a GoogleProvider.
type GoogleOption func(*GoogleProvider)

// WithGoogleEndpoint points the provider at another API root (tests, proxies).
func WithGoogleEndpoint(endpoint string) GoogleOption {
	return func(g *GoogleProvider) { g.endpoint = endpoint }
}

// WithGoogleHTTPClient sets the transport wrapped by the OAuth2 client.
func WithGoogleHTTPClient(c *http.Client) GoogleOption {
	return func(g *GoogleProvider) { g.baseClient = c }
}

// NewGoogleProvider creates a Google Calendar adapter.
func NewGoogleProvider(opts ...GoogleOption) *GoogleProvider {
	g := &GoogleProvider{
		baseClient: &http.Client{Timeout: 15 * time.Second},
		maxResults: DefaultGoogleMaxResults,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Upcoming lists single (expanded) events starting at or after from, ordered by start.
// PRE: conn.Provider == google and conn.AccessToken is set
// POST: 401/403 map to ErrReconnectRequired; cancelled events are omitted
func (g *GoogleProvider) Upcoming(ctx context.Context, conn connection.Connection, from time.Time) ([]agenda.ExternalEvent, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: conn.AccessToken, TokenType: "Bearer"})
	httpCtx := context.WithValue(ctx, oauth2.HTTPClient, g.baseClient)

	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(httpCtx, ts))}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google calendar client: %w", err)
	}

	resp, err := svc.Events.List("primary").
		TimeMin(from.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(g.maxResults).
		Context(ctx).
		Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && isAuthStatus(gerr.Code) {
			return nil, fmt.Errorf("google calendar: %w", ErrReconnectRequired)
		}
		return nil, fmt.Errorf("google calendar list events: %w", err)
	}

	events := make([]agenda.ExternalEvent, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it == nil || it.Status == "cancelled" {
			continue
		}
		events = append(events, agenda.ExternalEvent{
			ID:          it.Id,
			Summary:     it.Summary,
			Description: it.Description,
			Location:    it.Location,
			Start:       googleTime(it.Start),
			End:         googleTime(it.End),
		})
	}
	return events, nil
}

func googleTime(t *gcal.EventDateTime) agenda.EventTime {
	if t == nil {
		return agenda.EventTime{}
	}
	return agenda.EventTime{DateTime: t.DateTime, Date: t.Date}
}
