package teamsnap

import (
	"strings"
	"testing"
	"time"
)

func TestParseCollectionFlattensItems(t *testing.T) {
	body := `{
		"collection": {
			"version": "1.0",
			"href": "https://api.teamsnap.com/v3/events/search",
			"items": [
				{"href": "https://api.teamsnap.com/v3/events/1", "data": [
					{"name": "id", "value": 4824362612},
					{"name": "name", "value": "Practice"},
					{"name": "is_game", "value": false},
					{"name": "notes", "value": null}
				]},
				{"data": [
					{"name": "id", "value": 2},
					{"name": "is_game", "value": true}
				]}
			]
		}
	}`

	records, err := parseCollection(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parseCollection: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	// Large numeric ids must keep their exact textual form.
	if got := records[0].str("id"); got != "4824362612" {
		t.Errorf("id = %q, want 4824362612", got)
	}
	if got := records[0].str("name"); got != "Practice" {
		t.Errorf("name = %q", got)
	}
	if records[0].boolval("is_game") {
		t.Error("is_game should be false")
	}
	if got := records[0].str("notes"); got != "" {
		t.Errorf("null field should flatten to empty string, got %q", got)
	}
	if !records[1].boolval("is_game") {
		t.Error("is_game should be true on the second record")
	}
}

func TestParseCollectionEmpty(t *testing.T) {
	records, err := parseCollection(strings.NewReader(`{"collection": {"items": []}}`))
	if err != nil {
		t.Fatalf("parseCollection: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected no records, got %d", len(records))
	}
}

func TestParseCollectionMalformed(t *testing.T) {
	if _, err := parseCollection(strings.NewReader(`{"collection": `)); err == nil {
		t.Error("Truncated body should be an error")
	}
}

func TestRecordTimeval(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  *time.Time
	}{
		{"zulu", "2025-03-15T14:00:00Z", tpt(time.Date(2025, 3, 15, 14, 0, 0, 0, time.UTC))},
		{"offset", "2025-03-15T22:00:00+08:00", tpt(time.Date(2025, 3, 15, 14, 0, 0, 0, time.UTC))},
		{"bare local taken as utc", "2025-03-15T14:00:00", tpt(time.Date(2025, 3, 15, 14, 0, 0, 0, time.UTC))},
		{"garbage", "not-a-date", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := record{"start_date": any(tt.value)}
			got := r.timeval("start_date")
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("timeval(%q) = %v, want nil", tt.value, got)
			case tt.want != nil && (got == nil || !got.Equal(*tt.want)):
				t.Errorf("timeval(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func tpt(t time.Time) *time.Time { return &t }

func TestRecordIntval(t *testing.T) {
	body := `{"collection": {"items": [{"data": [
		{"name": "status_code", "value": 2},
		{"name": "as_string", "value": "15"},
		{"name": "junk", "value": "abc"}
	]}]}}`
	records, err := parseCollection(strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	r := records[0]
	if got := r.intval("status_code"); got != 2 {
		t.Errorf("numeric intval = %d, want 2", got)
	}
	if got := r.intval("as_string"); got != 15 {
		t.Errorf("string intval = %d, want 15", got)
	}
	if got := r.intval("junk"); got != 0 {
		t.Errorf("non-numeric intval = %d, want 0", got)
	}
	if got := r.intval("absent"); got != 0 {
		t.Errorf("absent intval = %d, want 0", got)
	}
}

func TestRecordEventConversion(t *testing.T) {
	body := `{"collection": {"items": [{"data": [
		{"name": "id", "value": 7},
		{"name": "team_id", "value": 42},
		{"name": "name", "value": "Season Opener"},
		{"name": "start_date", "value": "2025-03-15T14:00:00Z"},
		{"name": "end_date", "value": "2025-03-15T16:00:00Z"},
		{"name": "is_game", "value": true},
		{"name": "is_canceled", "value": false},
		{"name": "opponent_id", "value": 9},
		{"name": "location_id", "value": 5},
		{"name": "notes", "value": "Wear white"},
		{"name": "minutes_to_arrive_early", "value": 30}
	]}]}}`
	records, err := parseCollection(strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	ev := records[0].event()
	if ev.ID != "7" || ev.TeamID != "42" || ev.OpponentID != "9" || ev.LocationID != "5" {
		t.Errorf("Id fields wrong: %+v", ev)
	}
	if ev.Name != "Season Opener" || ev.Notes != "Wear white" {
		t.Errorf("Text fields wrong: %+v", ev)
	}
	if !ev.IsGame || ev.IsCanceled {
		t.Errorf("Flag fields wrong: %+v", ev)
	}
	if ev.MinutesToArriveEarly != 30 {
		t.Errorf("MinutesToArriveEarly = %d", ev.MinutesToArriveEarly)
	}
	if ev.Start == nil || !ev.Start.Equal(time.Date(2025, 3, 15, 14, 0, 0, 0, time.UTC)) {
		t.Errorf("Start = %v", ev.Start)
	}
	if ev.End == nil || !ev.End.Equal(time.Date(2025, 3, 15, 16, 0, 0, 0, time.UTC)) {
		t.Errorf("End = %v", ev.End)
	}
}

func TestRecordEventMalformedStart(t *testing.T) {
	body := `{"collection": {"items": [{"data": [
		{"name": "id", "value": 7},
		{"name": "start_date", "value": "yesterday-ish"}
	]}]}}`
	records, err := parseCollection(strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if ev := records[0].event(); ev.Start != nil {
		t.Errorf("Malformed start_date should convert to nil, got %v", ev.Start)
	}
}

func TestRecordAvailabilityConversion(t *testing.T) {
	body := `{"collection": {"items": [{"data": [
		{"name": "id", "value": 100},
		{"name": "event_id", "value": 7},
		{"name": "status_code", "value": 1}
	]}]}}`
	records, err := parseCollection(strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	a := records[0].availability()
	if a.ID != "100" || a.EventID != "7" || a.StatusCode != 1 {
		t.Errorf("Availability conversion wrong: %+v", a)
	}
	if !a.Attending() {
		t.Error("status_code 1 should count as attending")
	}
}
