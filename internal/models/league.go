// Package models defines the persisted entities of the ingestion pipeline.
// Entity records are identified by (provider, external ID); statistics
// snapshots by (subject, season, provider). Optional provider fields are
// pointers: the upstream API omits sections freely and nil is the single
// "absent" representation after mapping.
package models

import "time"

// League is a competition ingested from the provider.
type League struct {
	ID         int64     `json:"id"`
	Provider   string    `json:"provider"`
	ExternalID int       `json:"externalId"`
	Name       string    `json:"name"`
	Code       *string   `json:"code,omitempty"`
	Country    *string   `json:"country,omitempty"`
	LogoURL    *string   `json:"logoUrl,omitempty"`
	Season     string    `json:"season"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Team is a club belonging to a league.
type Team struct {
	ID         int64     `json:"id"`
	Provider   string    `json:"provider"`
	ExternalID int       `json:"externalId"`
	LeagueID   int64     `json:"leagueId"`
	Name       string    `json:"name"`
	ShortName  *string   `json:"shortName,omitempty"`
	Country    *string   `json:"country,omitempty"`
	Founded    *int      `json:"founded,omitempty"`
	CrestURL   *string   `json:"crestUrl,omitempty"`
	Season     string    `json:"season"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Player is a squad member of a team.
type Player struct {
	ID          int64     `json:"id"`
	Provider    string    `json:"provider"`
	ExternalID  int       `json:"externalId"`
	TeamID      int64     `json:"teamId"`
	LeagueID    int64     `json:"leagueId"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Name        string    `json:"name"`
	Position    string    `json:"position"`
	Nationality *string   `json:"nationality,omitempty"`
	PhotoURL    *string   `json:"photoUrl,omitempty"`
	DateOfBirth *string   `json:"dateOfBirth,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Position is seeded reference data for player positions.
type Position struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// StatWindow is seeded reference data for statistics aggregation windows.
type StatWindow struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// DefaultPositions returns the canonical position reference set.
func DefaultPositions() []Position {
	return []Position{
		{Code: "GK", Name: "Goalkeeper"},
		{Code: "DF", Name: "Defender"},
		{Code: "MF", Name: "Midfielder"},
		{Code: "FW", Name: "Forward"},
	}
}

// DefaultStatWindows returns the canonical stat window reference set.
func DefaultStatWindows() []StatWindow {
	return []StatWindow{
		{Code: "season", Name: "Full season"},
		{Code: "last5", Name: "Last 5 matches"},
		{Code: "last10", Name: "Last 10 matches"},
		{Code: "calendarYTD", Name: "Calendar year to date"},
	}
}
