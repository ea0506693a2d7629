package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"trainerdesk/internal/application/notify"
)

// notifications is the service NewMux installed; requests normally find it in
// their context via middleware.Notifications.
var notifications *notify.Service

func notifierFor(r *http.Request) *notify.Service {
	if s := notify.FromContext(r.Context()); s != nil {
		return s
	}
	if notifications == nil {
		notifications = notify.NewService(notify.DefaultTTL)
	}
	return notifications
}

// handleDismissNotification handles POST /notifications/{id}/dismiss.
// Form posts redirect back to the calendar; JSON callers get 204.
func handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}
	err = notifierFor(r).Dismiss(trainerID(r), id)
	if errors.Is(err, notify.ErrNotFound) {
		http.Error(w, "notification not found", http.StatusNotFound)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	if r.Header.Get("Accept") == "application/json" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, safeReturnTo(r.FormValue("return_to")), http.StatusSeeOther)
}

// safeReturnTo only allows local paths, falling back to the calendar.
func safeReturnTo(v string) string {
	u, err := url.Parse(v)
	if v == "" || err != nil || u.IsAbs() || u.Host != "" || len(u.Path) == 0 || u.Path[0] != '/' || (len(u.Path) > 1 && u.Path[1] == '/') {
		return "/calendar"
	}
	return u.RequestURI()
}
