package web

import (
	"net/http"
	"time"

	personStore "trainingops/internal/adapters/storage/person"
	"trainingops/internal/domain/reference"
)

const dateLayout = "2006-01-02"

// handleListEvents handles GET /api/events?from=YYYY-MM-DD&to=YYYY-MM-DD.
// Without a range the 90 days around today are listed.
func handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	today := time.Now().UTC()
	from, to := today.AddDate(0, 0, -45).Format(dateLayout), today.AddDate(0, 0, 45).Format(dateLayout)
	if v := q.Get("from"); v != "" {
		if _, err := time.Parse(dateLayout, v); err != nil {
			http.Error(w, "invalid from date (use YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		from = v
	}
	if v := q.Get("to"); v != "" {
		if _, err := time.Parse(dateLayout, v); err != nil {
			http.Error(w, "invalid to date (use YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		to = v
	}
	if from > to {
		http.Error(w, "from must not be after to", http.StatusBadRequest)
		return
	}

	events, err := stores.EventStore.ListByDateRange(r.Context(), from, to)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(events))
}

// handleGetEvent handles GET /api/events/{eventID}.
func handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := stores.EventStore.GetByID(r.Context(), r.PathValue("eventID"))
	if err != nil {
		notFoundOr(w, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// handleListPeople handles GET /api/people?q=&limit=&offset=.
func handleListPeople(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 50)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	people, err := stores.PersonStore.List(r.Context(), personStore.ListFilter{
		Limit:  min(max(limit, 1), 500),
		Offset: offset,
		Query:  r.URL.Query().Get("q"),
	})
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(people))
}

// handleGetPerson handles GET /api/people/{personID}.
func handleGetPerson(w http.ResponseWriter, r *http.Request) {
	p, err := stores.PersonStore.GetByID(r.Context(), r.PathValue("personID"))
	if err != nil {
		notFoundOr(w, err, "person")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleListReference handles GET /api/reference/{kind} for kind position or territory.
func handleListReference(w http.ResponseWriter, r *http.Request) {
	kind, err := reference.ParseKind(r.PathValue("kind"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	table, err := stores.ReferenceStore.List(r.Context(), kind)
	if err != nil {
		internalError(w, err)
		return
	}
	table.Entries = nonNil(table.Entries)
	writeJSON(w, http.StatusOK, table)
}
