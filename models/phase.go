package models

// TournamentPhase is the progression tag of a tournament.
type TournamentPhase string

const (
	PhasePlanned           TournamentPhase = "planned"
	PhaseQualification     TournamentPhase = "qualification"
	PhasePostQualification TournamentPhase = "post-qualification"
	PhaseGroup             TournamentPhase = "group"
	PhaseMain              TournamentPhase = "main"
	PhaseFinished          TournamentPhase = "finished"
)

func (p TournamentPhase) IsValid() bool {
	switch p {
	case PhasePlanned, PhaseQualification, PhasePostQualification, PhaseGroup, PhaseMain, PhaseFinished:
		return true
	}
	return false
}
