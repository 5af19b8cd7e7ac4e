package provider

import (
	"encoding/json"
	"strconv"
)

// responseEnvelope is the wire shape shared by every provider endpoint.
// The errors field is an empty array on success and either a non-empty array
// or a non-empty keyed object on application-level failure, so it has to be
// decoded structurally rather than into a fixed type.
type responseEnvelope struct {
	Get        string          `json:"get"`
	Parameters json.RawMessage `json:"parameters"`
	Errors     json.RawMessage `json:"errors"`
	Results    int             `json:"results"`
	Response   json.RawMessage `json:"response"`
}

// providerErrors normalizes the envelope errors field into a flat map.
// Returns nil when the field is absent, an empty array, or an empty object.
func (e *responseEnvelope) providerErrors() map[string]string {
	raw := e.Errors
	if len(raw) == 0 || string(raw) == "null" || string(raw) == "[]" || string(raw) == "{}" {
		return nil
	}

	var keyed map[string]string
	if err := json.Unmarshal(raw, &keyed); err == nil {
		if len(keyed) == 0 {
			return nil
		}
		return keyed
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return nil
		}
		out := make(map[string]string, len(list))
		for i, msg := range list {
			out["error_"+strconv.Itoa(i)] = msg
		}
		return out
	}

	return map[string]string{"raw": string(raw)}
}

// LeagueEntry is one element of the /leagues response payload.
type LeagueEntry struct {
	League struct {
		ID   int     `json:"id"`
		Name string  `json:"name"`
		Type *string `json:"type"`
		Logo *string `json:"logo"`
	} `json:"league"`
	Country struct {
		Name *string `json:"name"`
		Code *string `json:"code"`
		Flag *string `json:"flag"`
	} `json:"country"`
	Seasons []struct {
		Year    int   `json:"year"`
		Current *bool `json:"current"`
	} `json:"seasons"`
}

// TeamEntry is one element of the /teams response payload.
type TeamEntry struct {
	Team struct {
		ID      int     `json:"id"`
		Name    string  `json:"name"`
		Code    *string `json:"code"`
		Country *string `json:"country"`
		Founded *int    `json:"founded"`
		Logo    *string `json:"logo"`
	} `json:"team"`
	Venue struct {
		Name *string `json:"name"`
		City *string `json:"city"`
	} `json:"venue"`
}

// SquadEntry is one element of the /players/squads response payload.
type SquadEntry struct {
	Team struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
	Players []SquadPlayer `json:"players"`
}

// SquadPlayer is one squad member inside a SquadEntry.
type SquadPlayer struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Age      *int    `json:"age"`
	Number   *int    `json:"number"`
	Position *string `json:"position"`
	Photo    *string `json:"photo"`
}

// PlayerEntry is one element of the /players and top-statistics payloads.
type PlayerEntry struct {
	Player struct {
		ID          int     `json:"id"`
		Name        string  `json:"name"`
		FirstName   *string `json:"firstname"`
		LastName    *string `json:"lastname"`
		Nationality *string `json:"nationality"`
		Photo       *string `json:"photo"`
		Birth       *struct {
			Date *string `json:"date"`
		} `json:"birth"`
	} `json:"player"`
	Statistics []PlayerStatisticsEntry `json:"statistics"`
}

// PlayerStatisticsEntry is one per-competition statistics block inside a
// PlayerEntry.
type PlayerStatisticsEntry struct {
	Team struct {
		ID   *int    `json:"id"`
		Name *string `json:"name"`
	} `json:"team"`
	League struct {
		ID     *int    `json:"id"`
		Name   *string `json:"name"`
		Season *int    `json:"season"`
	} `json:"league"`
	Games struct {
		Appearances *int    `json:"appearences"`
		Lineups     *int    `json:"lineups"`
		Minutes     *int    `json:"minutes"`
		Position    *string `json:"position"`
		Rating      *string `json:"rating"`
		Captain     *bool   `json:"captain"`
	} `json:"games"`
	Shots struct {
		Total *int `json:"total"`
		On    *int `json:"on"`
	} `json:"shots"`
	Goals struct {
		Total    *int `json:"total"`
		Assists  *int `json:"assists"`
		Conceded *int `json:"conceded"`
		Saves    *int `json:"saves"`
	} `json:"goals"`
	Passes struct {
		Total    *int `json:"total"`
		Key      *int `json:"key"`
		Accuracy *int `json:"accuracy"`
	} `json:"passes"`
	Tackles struct {
		Total         *int `json:"total"`
		Blocks        *int `json:"blocks"`
		Interceptions *int `json:"interceptions"`
	} `json:"tackles"`
	Dribbles struct {
		Attempts *int `json:"attempts"`
		Success  *int `json:"success"`
	} `json:"dribbles"`
	Cards struct {
		Yellow    *int `json:"yellow"`
		YellowRed *int `json:"yellowred"`
		Red       *int `json:"red"`
	} `json:"cards"`
	Penalty struct {
		Won    *int `json:"won"`
		Scored *int `json:"scored"`
		Missed *int `json:"missed"`
		Saved  *int `json:"saved"`
	} `json:"penalty"`
}

// TeamStatisticsEntry is the /teams/statistics response payload (a single
// object, not an array).
type TeamStatisticsEntry struct {
	League struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		Season int    `json:"season"`
	} `json:"league"`
	Team struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
	Form     *string `json:"form"`
	Fixtures struct {
		Played HomeAwayTotalEntry `json:"played"`
		Wins   HomeAwayTotalEntry `json:"wins"`
		Draws  HomeAwayTotalEntry `json:"draws"`
		Loses  HomeAwayTotalEntry `json:"loses"`
	} `json:"fixtures"`
	Goals struct {
		For struct {
			Total HomeAwayTotalEntry `json:"total"`
		} `json:"for"`
		Against struct {
			Total HomeAwayTotalEntry `json:"total"`
		} `json:"against"`
	} `json:"goals"`
	CleanSheet    HomeAwayTotalEntry `json:"clean_sheet"`
	FailedToScore HomeAwayTotalEntry `json:"failed_to_score"`
	Penalty       struct {
		Scored struct {
			Total *int `json:"total"`
		} `json:"scored"`
		Missed struct {
			Total *int `json:"total"`
		} `json:"missed"`
		Total *int `json:"total"`
	} `json:"penalty"`
}

// HomeAwayTotalEntry is the provider's recurring home/away/total grouping.
type HomeAwayTotalEntry struct {
	Home  *int `json:"home"`
	Away  *int `json:"away"`
	Total *int `json:"total"`
}
