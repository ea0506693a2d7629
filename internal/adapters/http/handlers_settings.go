package web

import (
	"errors"
	"net/http"
	"time"

	"trainerdesk/internal/application/orchestrators"
	"trainerdesk/internal/application/projections"
	"trainerdesk/internal/domain/connection"
	"trainerdesk/internal/domain/workinghours"
)

type workingHoursJSON struct {
	Configured bool   `json:"configured"`
	WorkDays   []int  `json:"work_days"`
	WorkStart  string `json:"work_start"`
	WorkEnd    string `json:"work_end"`
}

// handleGetWorkingHours serves GET /api/working-hours. A trainer with no saved
// config gets the defaults with configured=false; the grid then shades nothing.
func handleGetWorkingHours(w http.ResponseWriter, r *http.Request) {
	cfg := projections.QueryGetWorkingHours(r.Context(), trainerID(r), projections.GetWorkingHoursDeps{
		WorkingHoursStore: stores.WorkingHoursStore,
	})
	if cfg == nil {
		writeJSON(w, http.StatusOK, workingHoursJSON{
			WorkDays:  workinghours.DefaultWorkDays,
			WorkStart: workinghours.DefaultWorkStart,
			WorkEnd:   workinghours.DefaultWorkEnd,
		})
		return
	}
	writeJSON(w, http.StatusOK, workingHoursJSON{
		Configured: true,
		WorkDays:   cfg.WorkDays,
		WorkStart:  cfg.WorkStart,
		WorkEnd:    cfg.WorkEnd,
	})
}

// handlePutWorkingHours serves PUT /api/working-hours.
func handlePutWorkingHours(w http.ResponseWriter, r *http.Request) {
	var input struct {
		WorkDays  []int  `json:"work_days"`
		WorkStart string `json:"work_start"`
		WorkEnd   string `json:"work_end"`
	}
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	cfg, err := orchestrators.ExecuteSaveWorkingHours(r.Context(), orchestrators.SaveWorkingHoursInput{
		TrainerID: trainerID(r),
		WorkDays:  input.WorkDays,
		WorkStart: input.WorkStart,
		WorkEnd:   input.WorkEnd,
	}, orchestrators.SaveWorkingHoursDeps{
		WorkingHoursStore: stores.WorkingHoursStore,
		Now:               timeNow,
	})
	if isWorkingHoursValidation(err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workingHoursJSON{
		Configured: true,
		WorkDays:   cfg.WorkDays,
		WorkStart:  cfg.WorkStart,
		WorkEnd:    cfg.WorkEnd,
	})
}

func isWorkingHoursValidation(err error) bool {
	for _, target := range []error{
		workinghours.ErrEmptyTrainerID,
		workinghours.ErrInvalidDay,
		workinghours.ErrDuplicateDay,
		workinghours.ErrInvalidTime,
		workinghours.ErrStartNotBeforeEnd,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type connectionJSON struct {
	Connected   bool      `json:"connected"`
	Provider    string    `json:"provider,omitempty"`
	FeedURL     string    `json:"feed_url,omitempty"`
	HasToken    bool      `json:"has_token"`
	ConnectedAt time.Time `json:"connected_at,omitzero"`
}

func toConnectionJSON(c connection.Connection) connectionJSON {
	red := c.Redacted()
	return connectionJSON{
		Connected:   true,
		Provider:    red.Provider,
		FeedURL:     red.FeedURL,
		HasToken:    c.AccessToken != "",
		ConnectedAt: c.ConnectedAt,
	}
}

// handleGetConnection serves GET /api/calendar/connection. Secrets are never
// returned.
func handleGetConnection(w http.ResponseWriter, r *http.Request) {
	c, err := stores.ConnectionStore.Get(r.Context(), trainerID(r))
	if errors.Is(err, connection.ErrNotFound) {
		writeJSON(w, http.StatusOK, connectionJSON{})
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toConnectionJSON(c))
}

// handlePutConnection serves PUT /api/calendar/connection.
func handlePutConnection(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Provider    string `json:"provider"`
		AccessToken string `json:"access_token"`
		FeedURL     string `json:"feed_url"`
	}
	if err := strictDecode(r, &input); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	c, err := orchestrators.ExecuteConnectCalendar(r.Context(), orchestrators.ConnectCalendarInput{
		TrainerID:   trainerID(r),
		Provider:    input.Provider,
		AccessToken: input.AccessToken,
		FeedURL:     input.FeedURL,
	}, connectionDeps())
	if isConnectionValidation(err) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toConnectionJSON(c))
}

// handleDeleteConnection serves DELETE /api/calendar/connection.
func handleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteDisconnectCalendar(r.Context(), trainerID(r), connectionDeps()); err != nil {
		internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func connectionDeps() orchestrators.ConnectCalendarDeps {
	return orchestrators.ConnectCalendarDeps{
		ConnectionStore: stores.ConnectionStore,
		Now:             timeNow,
	}
}

func isConnectionValidation(err error) bool {
	return errors.Is(err, connection.ErrEmptyTrainerID) ||
		errors.Is(err, connection.ErrInvalidProvider) ||
		errors.Is(err, connection.ErrMissingToken) ||
		errors.Is(err, connection.ErrInvalidFeedURL)
}
