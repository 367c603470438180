// Package teamsnap implements the TeamSnap v3 API client. The v3 API speaks
// Collection+JSON; this package flattens it into the typed records in
// internal/models and owns the OAuth token lifecycle (bearer auth plus a
// single refresh-and-retry on 401).
package teamsnap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/klabast/ts-subscribe/internal/models"
)

const (
	DefaultBaseURL  = "https://api.teamsnap.com/v3"
	DefaultTokenURL = "https://auth.teamsnap.com/oauth/token"

	acceptHeader = "application/vnd.collection+json"

	// EventWindow is the rolling lower bound applied to event fetches:
	// events that started more than this long ago are filtered server-side.
	EventWindow = 30 * 24 * time.Hour
)

// ErrNoMember is returned by CurrentMemberID when the authenticated user has
// no membership on the requested team.
var ErrNoMember = errors.New("no member found for authenticated user")

// Error is an upstream failure: a transport error or a non-success response
// that survived the client's own refresh/retry policy.
type Error struct {
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("teamsnap %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("teamsnap %s: unexpected status %d", e.Op, e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// Credentials holds the OAuth material for the TeamSnap API. AccessToken is
// required; the other three enable refresh when the access token expires.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ClientID     string
	ClientSecret string
}

// Client queries the TeamSnap v3 API. It is safe for concurrent use; the
// token is guarded so that parallel fetches hitting an expired token do not
// race the refresh.
type Client struct {
	baseURL  string
	tokenURL string
	http     *http.Client
	logger   *logrus.Logger

	mu    sync.Mutex
	creds Credentials
}

// New creates a Client against the production TeamSnap endpoints.
func New(creds Credentials, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:  DefaultBaseURL,
		tokenURL: DefaultTokenURL,
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
		creds:    creds,
	}
}

// CurrentMemberID resolves the authenticated user to their member id on the
// given team. Returns ErrNoMember (wrapped) when no membership exists.
func (c *Client) CurrentMemberID(ctx context.Context, teamID string) (string, error) {
	me, err := c.get(ctx, "me", "/me", nil)
	if err != nil {
		return "", err
	}
	if len(me) == 0 || me[0].str("id") == "" {
		return "", &Error{Op: "me", Err: errors.New("empty user record")}
	}
	userID := me[0].str("id")

	members, err := c.get(ctx, "members/search", "/members/search", url.Values{
		"team_id": {teamID},
		"user_id": {userID},
	})
	if err != nil {
		return "", err
	}
	if len(members) == 0 {
		return "", fmt.Errorf("user %s on team %s: %w", userID, teamID, ErrNoMember)
	}
	return members[0].str("id"), nil
}

// Events fetches the team's events with the rolling start-date lower bound
// of now minus EventWindow, recomputed on every call.
func (c *Client) Events(ctx context.Context, teamID string) ([]models.Event, error) {
	startedAfter := time.Now().UTC().Add(-EventWindow).Format("2006-01-02T15:04:05Z")
	records, err := c.get(ctx, "events/search", "/events/search", url.Values{
		"team_id":       {teamID},
		"started_after": {startedAfter},
	})
	if err != nil {
		return nil, err
	}
	events := make([]models.Event, 0, len(records))
	for _, rec := range records {
		events = append(events, rec.event())
	}
	return events, nil
}

// Availabilities fetches one member's RSVP records for the team.
func (c *Client) Availabilities(ctx context.Context, teamID, memberID string) ([]models.Availability, error) {
	records, err := c.get(ctx, "availabilities/search", "/availabilities/search", url.Values{
		"team_id":   {teamID},
		"member_id": {memberID},
	})
	if err != nil {
		return nil, err
	}
	avails := make([]models.Availability, 0, len(records))
	for _, rec := range records {
		avails = append(avails, rec.availability())
	}
	return avails, nil
}

// Locations fetches the team's venues.
func (c *Client) Locations(ctx context.Context, teamID string) ([]models.Location, error) {
	records, err := c.get(ctx, "locations/search", "/locations/search", url.Values{
		"team_id": {teamID},
	})
	if err != nil {
		return nil, err
	}
	locations := make([]models.Location, 0, len(records))
	for _, rec := range records {
		locations = append(locations, rec.location())
	}
	return locations, nil
}

// Opponents fetches the team's opponents.
func (c *Client) Opponents(ctx context.Context, teamID string) ([]models.Opponent, error) {
	records, err := c.get(ctx, "opponents/search", "/opponents/search", url.Values{
		"team_id": {teamID},
	})
	if err != nil {
		return nil, err
	}
	opponents := make([]models.Opponent, 0, len(records))
	for _, rec := range records {
		opponents = append(opponents, rec.opponent())
	}
	return opponents, nil
}

// TeamName fetches the team's display name. An unknown team yields "".
func (c *Client) TeamName(ctx context.Context, teamID string) (string, error) {
	records, err := c.get(ctx, "teams/search", "/teams/search", url.Values{
		"id": {teamID},
	})
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", nil
	}
	return records[0].str("name"), nil
}

// Members lists all members of the team.
func (c *Client) Members(ctx context.Context, teamID string) ([]models.Member, error) {
	records, err := c.get(ctx, "members/search", "/members/search", url.Values{
		"team_id": {teamID},
	})
	if err != nil {
		return nil, err
	}
	members := make([]models.Member, 0, len(records))
	for _, rec := range records {
		members = append(members, rec.member())
	}
	return members, nil
}

// get performs an authenticated GET and flattens the Collection+JSON body.
// A 401 triggers one token refresh followed by one retry.
func (c *Client) get(ctx context.Context, op, path string, params url.Values) ([]record, error) {
	resp, err := c.do(ctx, op, path, params)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if err := c.refreshAccessToken(ctx); err != nil {
			return nil, &Error{Op: op, Status: http.StatusUnauthorized, Err: err}
		}
		resp, err = c.do(ctx, op, path, params)
		if err != nil {
			return nil, err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Op: op, Status: resp.StatusCode}
	}

	records, err := parseCollection(resp.Body)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	return records, nil
}

func (c *Client) do(ctx context.Context, op, path string, params url.Values) (*http.Response, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken())
	req.Header.Set("Accept", acceptHeader)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	return resp, nil
}

func (c *Client) accessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds.AccessToken
}

// refreshAccessToken exchanges the refresh token for a new access token.
func (c *Client) refreshAccessToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.creds.RefreshToken == "" || c.creds.ClientID == "" || c.creds.ClientSecret == "" {
		return errors.New("cannot refresh token: missing credentials")
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {c.creds.RefreshToken},
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token refresh failed: status %d", resp.StatusCode)
	}

	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return err
	}
	if tokens.AccessToken == "" {
		return errors.New("token refresh returned no access token")
	}

	c.creds.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		c.creds.RefreshToken = tokens.RefreshToken
	}

	c.logger.Info("TeamSnap access token refreshed")
	return nil
}
