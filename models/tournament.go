package models

// TournamentMeta holds the display data of a tournament.
type TournamentMeta struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Logo        *string `json:"logo,omitempty"`
}

// DefaultTournamentName is used when a tournament is created without a name.
const DefaultTournamentName = "Unnamed Tournament"

type TournamentOptions struct {
	LiveTracking bool `json:"liveTracking"`
}
