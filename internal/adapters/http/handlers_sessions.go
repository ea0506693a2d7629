package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	programStore "trainerdesk/internal/adapters/storage/program"
	"trainerdesk/internal/application/orchestrators"
	"trainerdesk/internal/domain/session"
)

type programOption struct {
	ID    string
	Label string
}

// bookingForm is the data for booking_form.html.
type bookingForm struct {
	Date            string
	DateLabel       string
	Hour            int
	HourLabel       string
	ProgramID       string
	DurationMinutes string
	Notes           string
	Programs        []programOption
	Error           string
	WeekURL         string
}

// handleNewSessionForm renders the booking form for GET /sessions/new?date=&hour=,
// the target of an empty grid cell.
func handleNewSessionForm(w http.ResponseWriter, r *http.Request) {
	form, ok := bookingFormFromQuery(r.URL.Query())
	if !ok {
		http.Error(w, "date must be YYYY-MM-DD and hour 0-23", http.StatusBadRequest)
		return
	}
	if err := loadProgramOptions(r, &form); err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, http.StatusOK, "booking_form.html", form)
}

func bookingFormFromQuery(q url.Values) (bookingForm, bool) {
	var form bookingForm
	day, err := time.ParseInLocation("2006-01-02", q.Get("date"), displayLoc)
	if err != nil {
		return form, false
	}
	hour, err := strconv.Atoi(q.Get("hour"))
	if err != nil || hour < 0 || hour > 23 {
		return form, false
	}
	form.Date = day.Format("2006-01-02")
	form.DateLabel = day.Format("Monday, 2 January 2006")
	form.Hour = hour
	form.HourLabel = fmt.Sprintf("%02d:00", hour)
	form.WeekURL = "/calendar?week=" + form.Date
	form.ProgramID = q.Get("program_id")
	form.DurationMinutes = q.Get("duration_minutes")
	form.Notes = q.Get("notes")
	return form, true
}

// loadProgramOptions lists the trainer's bookable programs as "Program · Owner & Dog".
func loadProgramOptions(r *http.Request, form *bookingForm) error {
	ctx := r.Context()
	id := trainerID(r)
	programs, err := stores.ProgramStore.ListByTrainer(ctx, id)
	if err != nil {
		return err
	}
	clients, err := stores.ClientStore.ListByTrainer(ctx, id)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.DisplayName()
	}
	form.Programs = form.Programs[:0]
	for _, p := range programs {
		if !p.Bookable() {
			continue
		}
		label := p.Name
		if n := names[p.ClientID]; n != "" {
			label += " · " + n
		}
		form.Programs = append(form.Programs, programOption{ID: p.ID, Label: label})
	}
	sort.Slice(form.Programs, func(i, j int) bool { return form.Programs[i].Label < form.Programs[j].Label })
	return nil
}

// handleCreateSession handles POST /sessions from the booking form and
// redirects to the booked week.
func handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form, ok := bookingFormFromQuery(r.PostForm)
	if !ok {
		http.Error(w, "date must be YYYY-MM-DD and hour 0-23", http.StatusBadRequest)
		return
	}

	duration := 0
	if v := strings.TrimSpace(form.DurationMinutes); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			renderBookingError(w, r, form, session.ErrInvalidDuration)
			return
		}
		duration = n
	}

	s, err := orchestrators.ExecuteBookSession(r.Context(), orchestrators.BookSessionInput{
		TrainerID:       trainerID(r),
		ProgramID:       form.ProgramID,
		Date:            form.Date,
		Hour:            form.Hour,
		DurationMinutes: duration,
		Notes:           form.Notes,
	}, orchestrators.BookSessionDeps{
		ProgramStore: stores.ProgramStore,
		SessionStore: stores.SessionStore,
		GenerateID:   generateID,
		Now:          timeNow,
		Location:     displayLoc,
	})
	switch {
	case err == nil:
	case errors.Is(err, session.ErrProgramNotOwned):
		http.Error(w, "program not found", http.StatusNotFound)
		return
	case errors.Is(err, programStore.ErrNotFound),
		errors.Is(err, orchestrators.ErrProgramNotBookable),
		errors.Is(err, orchestrators.ErrInvalidBookingDate),
		errors.Is(err, orchestrators.ErrInvalidBookingHour),
		errors.Is(err, session.ErrEmptyProgramID),
		errors.Is(err, session.ErrInvalidDuration):
		renderBookingError(w, r, form, err)
		return
	default:
		internalError(w, err)
		return
	}

	http.Redirect(w, r, "/calendar?week="+s.SessionDate.In(displayLoc).Format("2006-01-02"), http.StatusSeeOther)
}

func renderBookingError(w http.ResponseWriter, r *http.Request, form bookingForm, cause error) {
	form.Error = bookingErrorMessage(cause)
	if err := loadProgramOptions(r, &form); err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, http.StatusUnprocessableEntity, "booking_form.html", form)
}

func bookingErrorMessage(err error) string {
	switch {
	case errors.Is(err, programStore.ErrNotFound), errors.Is(err, session.ErrEmptyProgramID):
		return "Choose a program."
	case errors.Is(err, orchestrators.ErrProgramNotBookable):
		return "That program is not active."
	case errors.Is(err, session.ErrInvalidDuration):
		return "Duration must be between 0 and 1440 minutes."
	}
	return err.Error()
}
