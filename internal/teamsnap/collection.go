package teamsnap

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klabast/ts-subscribe/internal/models"
)

// record is one Collection+JSON item flattened into a direct field mapping.
// Values keep their JSON types: string, json.Number, bool or nil.
type record map[string]any

// parseCollection flattens a Collection+JSON response body into one record
// per item. Numbers are decoded as json.Number so identifiers keep their
// exact textual form.
func parseCollection(r io.Reader) ([]record, error) {
	var doc struct {
		Collection struct {
			Items []struct {
				Data []struct {
					Name  string `json:"name"`
					Value any    `json:"value"`
				} `json:"data"`
			} `json:"items"`
		} `json:"collection"`
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding collection: %w", err)
	}

	records := make([]record, 0, len(doc.Collection.Items))
	for _, item := range doc.Collection.Items {
		rec := make(record, len(item.Data))
		for _, entry := range item.Data {
			rec[entry.Name] = entry.Value
		}
		records = append(records, rec)
	}
	return records, nil
}

// str returns the field as a string. Numeric values are rendered in their
// exact JSON form, so ids survive untouched. Absent and null fields yield "".
func (r record) str(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// intval returns the field as an int, or 0 when absent or not numeric.
func (r record) intval(key string) int {
	switch v := r[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d", &n); err == nil {
			return n
		}
	}
	return 0
}

// boolval returns the field as a bool. TeamSnap sends real booleans, but the
// string forms are accepted too.
func (r record) boolval(key string) bool {
	switch v := r[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

// timeval parses the field as an ISO 8601 timestamp. TeamSnap uses either a
// zulu suffix ("2025-03-15T14:00:00Z") or a numeric offset; a bare local
// form is taken as UTC. Unparseable or absent values yield nil.
func (r record) timeval(key string) *time.Time {
	s := r.str(key)
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		t = t.UTC()
		return &t
	}
	return nil
}

// Typed converters. Parsing happens once here, at the client boundary;
// downstream code only ever sees models types.

func (r record) event() models.Event {
	return models.Event{
		ID:                   r.str("id"),
		TeamID:               r.str("team_id"),
		Name:                 r.str("name"),
		Start:                r.timeval("start_date"),
		End:                  r.timeval("end_date"),
		IsGame:               r.boolval("is_game"),
		IsCanceled:           r.boolval("is_canceled"),
		OpponentID:           r.str("opponent_id"),
		LocationID:           r.str("location_id"),
		Notes:                r.str("notes"),
		MinutesToArriveEarly: r.intval("minutes_to_arrive_early"),
	}
}

func (r record) availability() models.Availability {
	return models.Availability{
		ID:         r.str("id"),
		EventID:    r.str("event_id"),
		StatusCode: r.intval("status_code"),
	}
}

func (r record) location() models.Location {
	return models.Location{
		ID:      r.str("id"),
		Name:    r.str("name"),
		Address: r.str("address"),
	}
}

func (r record) opponent() models.Opponent {
	return models.Opponent{
		ID:   r.str("id"),
		Name: r.str("name"),
	}
}

func (r record) member() models.Member {
	return models.Member{
		ID:        r.str("id"),
		FirstName: r.str("first_name"),
		LastName:  r.str("last_name"),
	}
}
