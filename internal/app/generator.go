package app

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/klabast/ts-subscribe/internal/models"
)

// TeamDisplay is the display configuration the generator works against: the
// team name used in titles and the single timezone the whole document is
// expressed in.
type TeamDisplay struct {
	Name   string
	ZoneID string
	Zone   *time.Location
}

// GenerateFeed renders the filtered events as an RFC 5545 VCALENDAR.
//
// It is pure apart from the DTSTAMP taken from now: the same inputs always
// produce the same UIDs, titles, times, locations and descriptions, so
// calendar clients never see duplicate entries on refresh. Individual events
// never fail generation; an event with no start is skipped and unresolvable
// opponent/location references degrade to omitted fields.
func GenerateFeed(events []models.Event, locationsByID map[string]models.Location, opponentsByID map[string]models.Opponent, team TeamDisplay, now time.Time) []byte {
	var buf bytes.Buffer

	writeContentLine(&buf, "BEGIN:VCALENDAR")
	writeContentLine(&buf, "VERSION:2.0")
	writeContentLine(&buf, "PRODID:"+ICSProdID)
	writeContentLine(&buf, "CALSCALE:GREGORIAN")
	writeContentLine(&buf, "METHOD:PUBLISH")
	writeContentLine(&buf, "X-WR-CALNAME:"+escapeText(team.Name+CalendarNameSuffix))
	writeContentLine(&buf, "X-WR-TIMEZONE:"+team.ZoneID)

	dtstamp := now.UTC().Format(icsUTCLayout)

	for _, ev := range events {
		if ev.Start == nil {
			continue
		}

		writeContentLine(&buf, "BEGIN:VEVENT")
		writeContentLine(&buf, fmt.Sprintf("UID:teamsnap-%s-%s@%s", ev.TeamID, ev.ID, ICSDomain))
		writeContentLine(&buf, "DTSTAMP:"+dtstamp)
		writeContentLine(&buf, formatDateTime("DTSTART", *ev.Start, team))
		if ev.End != nil {
			writeContentLine(&buf, formatDateTime("DTEND", *ev.End, team))
		}
		writeContentLine(&buf, "SUMMARY:"+escapeText(eventTitle(ev, opponentsByID, team.Name)))

		if loc, ok := lookupLocation(ev, locationsByID); ok && loc.Address != "" {
			writeContentLine(&buf, "LOCATION:"+escapeText(loc.Address))
		}
		if desc := eventDescription(ev, locationsByID, team); desc != "" {
			writeContentLine(&buf, "DESCRIPTION:"+escapeText(desc))
		}
		if ev.IsCanceled {
			writeContentLine(&buf, "STATUS:CANCELLED")
		}

		writeContentLine(&buf, "END:VEVENT")
	}

	writeContentLine(&buf, "END:VCALENDAR")
	return buf.Bytes()
}

const (
	icsUTCLayout   = "20060102T150405Z"
	icsLocalLayout = "20060102T150405"
	clockLayout    = "3:04 PM"
)

// formatDateTime renders a DTSTART/DTEND content line with the instant
// converted to the team zone. UTC documents use the zulu form; every other
// zone gets a TZID parameter and the local form.
func formatDateTime(name string, t time.Time, team TeamDisplay) string {
	local := t.In(team.Zone)
	if team.Zone == time.UTC {
		return name + ":" + local.Format(icsUTCLayout)
	}
	return name + ";TZID=" + team.ZoneID + ":" + local.Format(icsLocalLayout)
}

// eventTitle builds the SUMMARY text.
//
// Games prefer "{team} vs {opponent}", then the event's own name in the same
// form, then a generic game-day placeholder. Everything else is
// "{team} - {name}" with "Event" standing in for unnamed events.
func eventTitle(ev models.Event, opponentsByID map[string]models.Opponent, teamName string) string {
	if ev.IsGame {
		if ev.OpponentID != "" {
			if opp, ok := opponentsByID[ev.OpponentID]; ok && opp.Name != "" {
				return teamName + " vs " + opp.Name
			}
		}
		if ev.Name != "" {
			return teamName + " vs " + ev.Name
		}
		return teamName + " - Game Day"
	}

	name := ev.Name
	if name == "" {
		name = "Event"
	}
	return teamName + " - " + name
}

// eventDescription assembles the DESCRIPTION text from, in order: the venue
// name with the local start clock time, the event notes verbatim, an
// arrive-early note, and the cancellation marker. Parts are joined with
// single spaces; the venue part carries a real newline between its lines.
func eventDescription(ev models.Event, locationsByID map[string]models.Location, team TeamDisplay) string {
	var parts []string

	if loc, ok := lookupLocation(ev, locationsByID); ok && loc.Name != "" && ev.Start != nil {
		clock := ev.Start.In(team.Zone).Format(clockLayout)
		parts = append(parts, loc.Name+"\n"+clock+" ("+zoneLabel(team.ZoneID)+")")
	}
	if ev.Notes != "" {
		parts = append(parts, ev.Notes)
	}
	if ev.MinutesToArriveEarly > 0 {
		parts = append(parts, fmt.Sprintf("Arrive %d minutes early", ev.MinutesToArriveEarly))
	}
	if ev.IsCanceled {
		parts = append(parts, CanceledMarker)
	}

	return strings.Join(parts, " ")
}

func lookupLocation(ev models.Event, locationsByID map[string]models.Location) (models.Location, bool) {
	if ev.LocationID == "" {
		return models.Location{}, false
	}
	loc, ok := locationsByID[ev.LocationID]
	return loc, ok
}

// zoneLabel derives a human-readable zone label from an IANA identifier:
// the last path segment with underscores as spaces ("Asia/Hong_Kong" ->
// "Hong Kong").
func zoneLabel(zoneID string) string {
	label := zoneID
	if i := strings.LastIndex(label, "/"); i >= 0 {
		label = label[i+1:]
	}
	return strings.ReplaceAll(label, "_", " ")
}

// escapeText escapes a value per the RFC 5545 TEXT rules: backslash,
// semicolon and comma get a backslash prefix and a real newline becomes the
// literal \n token. Escaping happens exactly once, here; the writer below
// never touches the text again, so embedded newlines can never come out
// double-escaped.
func escapeText(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case ';':
			sb.WriteString(`\;`)
		case ',':
			sb.WriteString(`\,`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			// CRLF pairs collapse to the \n written for the LF.
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// writeContentLine writes one content line with CRLF termination, folding
// lines longer than 75 octets per RFC 5545 §3.1. Folds never split a UTF-8
// sequence; continuation lines start with a single space that counts toward
// their 75-octet limit.
func writeContentLine(buf *bytes.Buffer, line string) {
	const limit = 75

	b := []byte(line)
	max := limit
	for len(b) > max {
		cut := max
		for cut > 0 && b[cut]&0xC0 == 0x80 {
			cut--
		}
		buf.Write(b[:cut])
		buf.WriteString("\r\n ")
		b = b[cut:]
		max = limit - 1
	}
	buf.Write(b)
	buf.WriteString("\r\n")
}
