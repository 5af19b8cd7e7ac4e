// Package provider implements the typed HTTP binding to the external
// sports-data API. The client knows endpoints and parameters only; retry,
// quota, and throughput discipline live in the retry and governor packages
// that wrap every call made through it.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sports-ingest/internal/config"
	apperrors "github.com/sports-ingest/internal/errors"
)

// Resource names used for usage accounting and audit rows.
const (
	ResourceLeagues        = "leagues"
	ResourceTeams          = "teams"
	ResourceTeamStats      = "team-stats"
	ResourcePlayers        = "players"
	ResourceSquads         = "squads"
	ResourceTopScorers     = "top-scorers"
	ResourceTopAssists     = "top-assists"
	ResourceTopYellowCards = "top-yellow-cards"
	ResourceTopRedCards    = "top-red-cards"
)

const apiKeyHeader = "x-apisports-key"

// Client is the HTTP binding to the sports-data provider.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a provider client from configuration.
func NewClient(cfg *config.ProviderConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("provider config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		name:    cfg.Name,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name returns the provider name used in usage accounting.
func (c *Client) Name() string {
	return c.name
}

// GetLeagues fetches league metadata. Either id or season may be zero/empty
// to omit the filter.
func (c *Client) GetLeagues(ctx context.Context, id int, season string) ([]LeagueEntry, error) {
	params := url.Values{}
	if id > 0 {
		params.Set("id", strconv.Itoa(id))
	}
	if season != "" {
		params.Set("season", season)
	}

	var entries []LeagueEntry
	if err := c.get(ctx, ResourceLeagues, "/leagues", params, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetTeams fetches the teams of a league for a season.
func (c *Client) GetTeams(ctx context.Context, leagueID int, season string) ([]TeamEntry, error) {
	params := url.Values{}
	params.Set("league", strconv.Itoa(leagueID))
	params.Set("season", season)

	var entries []TeamEntry
	if err := c.get(ctx, ResourceTeams, "/teams", params, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetTeamStatistics fetches aggregate statistics for one team in one league
// and season. The endpoint returns a single object rather than an array.
func (c *Client) GetTeamStatistics(ctx context.Context, leagueID, teamID int, season string) (*TeamStatisticsEntry, error) {
	params := url.Values{}
	params.Set("league", strconv.Itoa(leagueID))
	params.Set("team", strconv.Itoa(teamID))
	params.Set("season", season)

	var entry TeamStatisticsEntry
	if err := c.get(ctx, ResourceTeamStats, "/teams/statistics", params, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetSquad fetches the current squad of a team.
func (c *Client) GetSquad(ctx context.Context, teamID int) ([]SquadEntry, error) {
	params := url.Values{}
	params.Set("team", strconv.Itoa(teamID))

	var entries []SquadEntry
	if err := c.get(ctx, ResourceSquads, "/players/squads", params, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetPlayer fetches one player's profile and per-competition statistics for
// a season.
func (c *Client) GetPlayer(ctx context.Context, playerID int, season string) ([]PlayerEntry, error) {
	params := url.Values{}
	params.Set("id", strconv.Itoa(playerID))
	params.Set("season", season)

	var entries []PlayerEntry
	if err := c.get(ctx, ResourcePlayers, "/players", params, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetTopScorers fetches the ranked top goal scorers of a league+season.
func (c *Client) GetTopScorers(ctx context.Context, leagueID int, season string) ([]PlayerEntry, error) {
	return c.getTopList(ctx, ResourceTopScorers, "/players/topscorers", leagueID, season)
}

// GetTopAssists fetches the ranked top assist providers of a league+season.
func (c *Client) GetTopAssists(ctx context.Context, leagueID int, season string) ([]PlayerEntry, error) {
	return c.getTopList(ctx, ResourceTopAssists, "/players/topassists", leagueID, season)
}

// GetTopYellowCards fetches the most-booked players of a league+season.
func (c *Client) GetTopYellowCards(ctx context.Context, leagueID int, season string) ([]PlayerEntry, error) {
	return c.getTopList(ctx, ResourceTopYellowCards, "/players/topyellowcards", leagueID, season)
}

// GetTopRedCards fetches the most-dismissed players of a league+season.
func (c *Client) GetTopRedCards(ctx context.Context, leagueID int, season string) ([]PlayerEntry, error) {
	return c.getTopList(ctx, ResourceTopRedCards, "/players/topredcards", leagueID, season)
}

func (c *Client) getTopList(ctx context.Context, resource, path string, leagueID int, season string) ([]PlayerEntry, error) {
	params := url.Values{}
	params.Set("league", strconv.Itoa(leagueID))
	params.Set("season", season)

	var entries []PlayerEntry
	if err := c.get(ctx, resource, path, params, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// get performs one GET request and decodes the response envelope into out.
// A non-empty envelope errors field is surfaced as a client-category error,
// distinct from transport failures, because it indicates a malformed request
// rather than a transient outage.
func (c *Client) get(ctx context.Context, resource, path string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", resource, err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.NewNetworkError(resource, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return apperrors.NewNetworkError(resource, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return apperrors.NewServerError(resource, resp.StatusCode, truncate(string(body), 200))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return apperrors.NewClientError(resource, resp.StatusCode, truncate(string(body), 200))
	}

	var envelope responseEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", resource, err)
	}

	if providerErrs := envelope.providerErrors(); len(providerErrs) > 0 {
		return apperrors.NewProviderRequestError(resource, providerErrs)
	}

	if len(envelope.Response) == 0 || string(envelope.Response) == "null" {
		// An empty response payload is valid: zero results, not an error.
		return nil
	}

	if err := json.Unmarshal(envelope.Response, out); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", resource, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
