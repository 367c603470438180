package models

import "time"

// Event is a single team event as returned by the TeamSnap API, already
// flattened from Collection+JSON and parsed into typed fields. Records are
// read-only snapshots; nothing downstream mutates them.
type Event struct {
	ID     string
	TeamID string
	Name   string

	// Start is nil when the upstream record had no parseable start
	// timestamp. Such events are skipped during feed generation.
	Start *time.Time
	End   *time.Time

	IsGame     bool
	IsCanceled bool

	// Foreign keys; empty when absent. Keys that do not resolve in the
	// corresponding lookup are treated as absent, never as an error.
	OpponentID string
	LocationID string

	Notes                string
	MinutesToArriveEarly int
}

// Availability is one member's RSVP record for one event.
type Availability struct {
	ID         string
	EventID    string
	StatusCode int
}

// Availability status codes used by TeamSnap.
const (
	StatusYes   = 1
	StatusMaybe = 2
)

// Attending reports whether this availability keeps the event in the feed
// (the member answered Yes or Maybe).
func (a Availability) Attending() bool {
	return a.StatusCode == StatusYes || a.StatusCode == StatusMaybe
}

// Location is a team venue.
type Location struct {
	ID      string
	Name    string
	Address string
}

// Opponent is a team the feed owner's team plays against.
type Opponent struct {
	ID   string
	Name string
}

// Member is a team member as exposed by the members listing endpoint.
type Member struct {
	ID        string
	FirstName string
	LastName  string
}
