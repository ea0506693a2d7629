package connection

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Provider constants
const (
	ProviderGoogle = "google"
	ProviderICS    = "ics"
)

// Domain errors
var (
	ErrNotFound        = errors.New("no external calendar connected")
	ErrEmptyTrainerID  = errors.New("trainer ID cannot be empty")
	ErrInvalidProvider = errors.New("provider must be 'google' or 'ics'")
	ErrMissingToken    = errors.New("google connection requires an access token")
	ErrInvalidFeedURL  = errors.New("ics connection requires an http(s) feed URL")
)

// Connection is a trainer's authorization to read one external calendar.
type Connection struct {
	TrainerID   string
	Provider    string
	AccessToken string // OAuth bearer token (google) or optional feed token (ics)
	FeedURL     string // ics only
	ConnectedAt time.Time
}

// Validate checks if the Connection has valid data.
// PRE: Connection struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Connection) Validate() error {
	if strings.TrimSpace(c.TrainerID) == "" {
		return ErrEmptyTrainerID
	}
	switch c.Provider {
	case ProviderGoogle:
		if strings.TrimSpace(c.AccessToken) == "" {
			return ErrMissingToken
		}
	case ProviderICS:
		u, err := url.Parse(c.FeedURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrInvalidFeedURL
		}
	default:
		return ErrInvalidProvider
	}
	return nil
}

// Redacted returns a copy safe to return to the browser.
func (c Connection) Redacted() Connection {
	if c.AccessToken != "" {
		c.AccessToken = "********"
	}
	if u, err := url.Parse(c.FeedURL); err == nil && u.RawQuery != "" {
		u.RawQuery = ""
		c.FeedURL = u.String() + "?…"
	}
	return c
}
