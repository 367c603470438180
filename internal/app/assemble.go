package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/klabast/ts-subscribe/internal/models"
)

// Upstream is the data-source boundary the assembler works against,
// implemented by the TeamSnap client. Every call is bounded by the client's
// own request timeout and retry/refresh policy; errors arriving here are
// final and abort the assembly.
type Upstream interface {
	CurrentMemberID(ctx context.Context, teamID string) (string, error)
	Events(ctx context.Context, teamID string) ([]models.Event, error)
	Availabilities(ctx context.Context, teamID, memberID string) ([]models.Availability, error)
	Locations(ctx context.Context, teamID string) ([]models.Location, error)
	Opponents(ctx context.Context, teamID string) ([]models.Opponent, error)
	TeamName(ctx context.Context, teamID string) (string, error)
	Members(ctx context.Context, teamID string) ([]models.Member, error)
}

// buildFeed runs one feed assembly: resolve the member, fetch the upstream
// record sets, filter events to the ones the member accepted or tentatively
// accepted, and render the calendar document. Any upstream failure aborts
// the whole build; the handler never serves a partial document.
func (s *Server) buildFeed(ctx context.Context, teamID, memberID string) ([]byte, error) {
	if memberID == "" {
		resolved, err := s.upstream.CurrentMemberID(ctx, teamID)
		if err != nil {
			return nil, fmt.Errorf("resolving member on team %s: %w", teamID, err)
		}
		memberID = resolved
	}

	// The record sets are independent; fetch them in parallel and collect
	// every failure rather than whichever happens to land first.
	var (
		events    []models.Event
		avails    []models.Availability
		locations []models.Location
		opponents []models.Opponent
		teamName  string

		wg   sync.WaitGroup
		mu   sync.Mutex
		merr *multierror.Error
	)

	fetch := func(fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				merr = multierror.Append(merr, err)
				mu.Unlock()
			}
		}()
	}

	fetch(func() (err error) {
		events, err = s.upstream.Events(ctx, teamID)
		return err
	})
	fetch(func() (err error) {
		avails, err = s.upstream.Availabilities(ctx, teamID, memberID)
		return err
	})
	fetch(func() (err error) {
		locations, err = s.upstream.Locations(ctx, teamID)
		return err
	})
	fetch(func() (err error) {
		opponents, err = s.upstream.Opponents(ctx, teamID)
		return err
	})
	if s.cfg.TeamName == "" {
		// Display name only; a failure here degrades to the generic name
		// instead of failing the build.
		wg.Add(1)
		go func() {
			defer wg.Done()
			name, err := s.upstream.TeamName(ctx, teamID)
			if err != nil {
				s.logger.WithField("team_id", teamID).WithError(err).Warn("team name lookup failed, using generic name")
				return
			}
			teamName = name
		}()
	}
	wg.Wait()

	if err := merr.ErrorOrNil(); err != nil {
		return nil, err
	}

	availByEvent := make(map[string]models.Availability, len(avails))
	for _, a := range avails {
		availByEvent[a.EventID] = a // last write wins on duplicates
	}
	locationsByID := make(map[string]models.Location, len(locations))
	for _, loc := range locations {
		locationsByID[loc.ID] = loc
	}
	opponentsByID := make(map[string]models.Opponent, len(opponents))
	for _, opp := range opponents {
		opponentsByID[opp.ID] = opp
	}

	filtered := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if a, ok := availByEvent[ev.ID]; ok && a.Attending() {
			filtered = append(filtered, ev)
		}
	}
	SortEventsByStart(filtered)

	team := s.teamDisplay(teamName)
	return GenerateFeed(filtered, locationsByID, opponentsByID, team, time.Now()), nil
}

// teamDisplay combines the configured display settings with the fetched
// team name. Precedence for the name: config, then upstream, then the
// generic fallback. The zone was resolved once at startup.
func (s *Server) teamDisplay(fetchedName string) TeamDisplay {
	name := s.cfg.TeamName
	if name == "" {
		name = fetchedName
	}
	if name == "" {
		name = DefaultTeamName
	}
	return TeamDisplay{Name: name, ZoneID: s.zoneID, Zone: s.zone}
}
