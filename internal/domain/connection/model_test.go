package connection_test

import (
	"strings"
	"testing"

	"trainerdesk/internal/domain/connection"
)

// TestConnection_Validate tests validation of Connection.
func TestConnection_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       connection.Connection
		wantErr error
	}{
		{"google with token", connection.Connection{TrainerID: "t1", Provider: connection.ProviderGoogle, AccessToken: "ya29.x"}, nil},
		{"google without token", connection.Connection{TrainerID: "t1", Provider: connection.ProviderGoogle}, connection.ErrMissingToken},
		{"ics https", connection.Connection{TrainerID: "t1", Provider: connection.ProviderICS, FeedURL: "https://cal.example.com/feed.ics"}, nil},
		{"ics webcal", connection.Connection{TrainerID: "t1", Provider: connection.ProviderICS, FeedURL: "webcal://cal.example.com/feed.ics"}, connection.ErrInvalidFeedURL},
		{"ics empty", connection.Connection{TrainerID: "t1", Provider: connection.ProviderICS}, connection.ErrInvalidFeedURL},
		{"unknown provider", connection.Connection{TrainerID: "t1", Provider: "outlook"}, connection.ErrInvalidProvider},
		{"no trainer", connection.Connection{Provider: connection.ProviderGoogle, AccessToken: "x"}, connection.ErrEmptyTrainerID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.c.Validate(); err != tt.wantErr {
				t.Errorf("Connection.Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestConnection_Redacted tests secrets never leave in API responses.
func TestConnection_Redacted(t *testing.T) {
	c := connection.Connection{
		TrainerID:   "t1",
		Provider:    connection.ProviderICS,
		AccessToken: "secret",
		FeedURL:     "https://cal.example.com/feed.ics?token=abc",
	}
	r := c.Redacted()
	if r.AccessToken == "secret" {
		t.Error("access token not redacted")
	}
	if strings.Contains(r.FeedURL, "abc") {
		t.Errorf("feed query not redacted: %s", r.FeedURL)
	}
	if c.AccessToken != "secret" {
		t.Error("Redacted mutated the original")
	}
}
