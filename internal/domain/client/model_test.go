package client_test

import (
	"testing"

	"trainerdesk/internal/domain/client"
)

// TestClient_Validate tests validation of Client.
func TestClient_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       client.Client
		wantErr error
	}{
		{"valid", client.Client{ID: "c1", TrainerID: "t1", FullName: "Jane Doe", PrimaryDogName: "Rex"}, nil},
		{"no dog", client.Client{ID: "c2", TrainerID: "t1", FullName: "Sam Lee"}, nil},
		{"empty name", client.Client{ID: "c3", TrainerID: "t1"}, client.ErrEmptyFullName},
		{"empty trainer", client.Client{ID: "c4", FullName: "Jane"}, client.ErrEmptyTrainerID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.c.Validate(); err != tt.wantErr {
				t.Errorf("Client.Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestClient_DisplayName tests owner and dog name formatting.
func TestClient_DisplayName(t *testing.T) {
	c := client.Client{FullName: "Jane Doe", PrimaryDogName: "Rex"}
	if got := c.DisplayName(); got != "Jane Doe & Rex" {
		t.Errorf("DisplayName() = %q", got)
	}
	c.PrimaryDogName = " "
	if got := c.DisplayName(); got != "Jane Doe" {
		t.Errorf("DisplayName() without dog = %q", got)
	}
}
