package app

import (
	"net/http"
	"sort"

	"github.com/klabast/ts-subscribe/internal/models"
)

// RequireMethod validates that the request uses the specified HTTP method
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// SortEventsByStart sorts events by start time in ascending order, with the
// event id breaking ties so the output order is deterministic. Events
// without a start sort last (the generator drops them anyway).
func SortEventsByStart(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].Start, events[j].Start
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return events[i].ID < events[j].ID
		default:
			return a.Before(*b)
		}
	})
}
