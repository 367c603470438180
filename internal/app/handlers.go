package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// handleCalendar serves the personalized subscription feed.
// Query params: team_id (required), member_id (optional, defaults to the
// member behind the configured credentials), key (required when a feed key
// is configured).
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	teamID := r.URL.Query().Get("team_id")
	if teamID == "" {
		s.metrics.countRequest(http.StatusBadRequest)
		http.Error(w, ErrMissingTeamID, http.StatusBadRequest)
		return
	}
	if !s.checkKey(r.URL.Query().Get("key")) {
		s.metrics.countRequest(http.StatusForbidden)
		http.Error(w, ErrForbidden, http.StatusForbidden)
		return
	}
	memberID := r.URL.Query().Get("member_id")

	log := s.logger.WithFields(map[string]interface{}{
		"team_id":   teamID,
		"member_id": memberID,
	})

	key := feedKey{TeamID: teamID, MemberID: memberID}
	if data, ok := s.cache.Get(key); ok {
		s.metrics.CacheHits.Inc()
		s.metrics.countRequest(http.StatusOK)
		log.Debug("serving feed from cache")
		s.writeCalendar(w, data)
		return
	}
	s.metrics.CacheMisses.Inc()

	started := time.Now()
	data, err := s.buildFeed(r.Context(), teamID, memberID)
	if err != nil {
		s.metrics.UpstreamErrors.Inc()
		s.metrics.countRequest(http.StatusInternalServerError)
		log.WithError(err).Error("feed build failed")
		http.Error(w, "Error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.cache.Put(key, data)

	s.metrics.countRequest(http.StatusOK)
	log.WithField("duration", time.Since(started)).Info("feed built")
	s.writeCalendar(w, data)
}

// writeCalendar writes the ICS body with subscription headers. The
// advertised max-age matches the cache freshness window, so well-behaved
// clients poll no faster than the cache can answer.
func (s *Server) writeCalendar(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", s.cfg.CacheTTLSeconds))
	if _, err := w.Write(data); err != nil {
		s.logger.WithError(err).Error("error writing calendar response")
	}
}

// handleMembers lists the team's members so a subscriber can find their
// member_id for the feed URL.
func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	teamID := r.URL.Query().Get("team_id")
	if teamID == "" {
		http.Error(w, ErrMissingTeamID, http.StatusBadRequest)
		return
	}
	if !s.checkKey(r.URL.Query().Get("key")) {
		http.Error(w, ErrForbidden, http.StatusForbidden)
		return
	}

	members, err := s.upstream.Members(r.Context(), teamID)
	if err != nil {
		s.logger.WithField("team_id", teamID).WithError(err).Error("members fetch failed")
		http.Error(w, "Error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	type memberEntry struct {
		MemberID string `json:"member_id"`
		Name     string `json:"name"`
	}
	result := make([]memberEntry, 0, len(members))
	for _, m := range members {
		result = append(result, memberEntry{
			MemberID: m.ID,
			Name:     strings.TrimSpace(m.FirstName + " " + m.LastName),
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.WithError(err).Error("error encoding members response")
	}
}

// handleIndex serves the member-picker page at the root and a plain-text
// hint everywhere else.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, NotFoundHint, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(s.indexHTML); err != nil {
		s.logger.WithError(err).Error("error writing index HTML")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}
