package client

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptyTrainerID = errors.New("trainer ID cannot be empty")
	ErrEmptyFullName  = errors.New("client full name cannot be empty")
)

// Client is a dog owner on a trainer's roster.
type Client struct {
	ID             string
	TrainerID      string
	FullName       string
	PrimaryDogName string
	Email          string
	CreatedAt      time.Time
}

// Validate checks if the Client has valid data.
// PRE: Client struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Client) Validate() error {
	if strings.TrimSpace(c.TrainerID) == "" {
		return ErrEmptyTrainerID
	}
	if strings.TrimSpace(c.FullName) == "" {
		return ErrEmptyFullName
	}
	return nil
}

// DisplayName returns "Owner & Dog", or just the owner when no dog is recorded.
func (c *Client) DisplayName() string {
	if dog := strings.TrimSpace(c.PrimaryDogName); dog != "" {
		return c.FullName + " & " + dog
	}
	return c.FullName
}
