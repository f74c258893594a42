package brackets

import (
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

// TournamentGroup is a scoreboard whose top NumWinners entries advance, plus
// the matches currently being played in it.
type TournamentGroup struct {
	models.Notifier

	scoreboard     *Scoreboard
	numWinners     int
	currentMatches []*Match
	unpassMatches  []func()
}

func NewTournamentGroup(scoreboard *Scoreboard, numWinners int, matches ...*Match) (*TournamentGroup, error) {
	if scoreboard == nil {
		return nil, invalidState("group without scoreboard")
	}
	if numWinners < 1 {
		return nil, invalidState("a group needs at least one winner, got %d", numWinners)
	}
	if scoreboard.Len() < numWinners {
		return nil, invalidState("more group winners (%d) than group members (%d)", numWinners, scoreboard.Len())
	}
	g := &TournamentGroup{scoreboard: scoreboard, numWinners: numWinners}
	g.Pass(scoreboard)
	if err := g.replaceMatches(matches); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *TournamentGroup) Scoreboard() *Scoreboard { return g.scoreboard }
func (g *TournamentGroup) NumWinners() int         { return g.numWinners }

func (g *TournamentGroup) CurrentMatches() []*Match {
	out := make([]*Match, len(g.currentMatches))
	copy(out, g.currentMatches)
	return out
}

// SetCurrentMatches replaces the active matches. Every player of a match must
// be a member of the group.
func (g *TournamentGroup) SetCurrentMatches(matches []*Match) error {
	if err := g.replaceMatches(matches); err != nil {
		return err
	}
	g.Notify("currentMatches")
	return nil
}

func (g *TournamentGroup) AddMatch(match *Match) error {
	return g.SetCurrentMatches(append(g.CurrentMatches(), match))
}

// RemoveMatch drops match from the active matches; unknown matches are ignored.
func (g *TournamentGroup) RemoveMatch(match *Match) {
	matches := make([]*Match, 0, len(g.currentMatches))
	found := false
	for _, m := range g.currentMatches {
		if m == match {
			found = true
			continue
		}
		matches = append(matches, m)
	}
	if !found {
		return
	}
	_ = g.SetCurrentMatches(matches)
}

// CompleteMatch credits the winner of a decided match with a win on the group
// scoreboard and removes the match from the active ones.
func (g *TournamentGroup) CompleteMatch(match *Match) error {
	if !match.Decided() {
		return invalidState("match %s vs %s is tied", match.Entry1().Competitor.Name(), match.Entry2().Competitor.Name())
	}
	if err := g.scoreboard.AddWin(match.Winner().Competitor); err != nil {
		return err
	}
	g.RemoveMatch(match)
	return nil
}

func (g *TournamentGroup) replaceMatches(matches []*Match) error {
	for _, m := range matches {
		for _, c := range m.Competitors() {
			if !g.IsMember(c) {
				return fmt.Errorf("%w: %q does not play in this group", ErrReferential, c.Name())
			}
		}
	}
	for _, unpass := range g.unpassMatches {
		unpass()
	}
	g.unpassMatches = g.unpassMatches[:0]
	g.currentMatches = matches
	for _, m := range matches {
		g.unpassMatches = append(g.unpassMatches, g.Pass(m))
	}
	return nil
}

func (g *TournamentGroup) Winners() []*ScoreboardEntry {
	return g.scoreboard.Top(g.numWinners)
}

func (g *TournamentGroup) IsMember(competitor *models.Competitor) bool {
	return g.scoreboard.Has(competitor)
}

// Pairing is one fixture of a group schedule.
type Pairing struct {
	Round int
	Home  *models.Competitor
	Away  *models.Competitor
}

// Schedule returns a single round-robin for the group using the circle
// method: every member meets every other member exactly once. With an odd
// member count one member sits out each round.
func (g *TournamentGroup) Schedule() []Pairing {
	players := g.scoreboard.Competitors()
	if len(players) < 2 {
		return nil
	}
	if len(players)%2 == 1 {
		players = append(players, nil)
	}
	n := len(players)
	rotation := make([]*models.Competitor, n)
	copy(rotation, players)

	pairings := make([]Pairing, 0, n*(n-1)/2)
	for round := 1; round < n; round++ {
		for i := 0; i < n/2; i++ {
			home, away := rotation[i], rotation[n-1-i]
			if home == nil || away == nil {
				continue
			}
			pairings = append(pairings, Pairing{Round: round, Home: home, Away: away})
		}
		// keep the first player fixed, rotate the rest clockwise
		last := rotation[n-1]
		copy(rotation[2:], rotation[1:n-1])
		rotation[1] = last
	}
	return pairings
}

// QualificationState is the single group of the qualification phase.
type QualificationState struct {
	*TournamentGroup
}

func NewQualificationState(scoreboard *Scoreboard, competitorsAfterQualification int, matches ...*Match) (*QualificationState, error) {
	if scoreboard != nil && scoreboard.Len() < competitorsAfterQualification {
		return nil, invalidState("more competitors must pass (%d) than exist (%d)", competitorsAfterQualification, scoreboard.Len())
	}
	g, err := NewTournamentGroup(scoreboard, competitorsAfterQualification, matches...)
	if err != nil {
		return nil, err
	}
	return &QualificationState{TournamentGroup: g}, nil
}

func (q *QualificationState) CompetitorsAfterQualification() int { return q.numWinners }

// GroupState holds the groups of the group phase in seed order.
type GroupState struct {
	models.Notifier

	groups          []*TournamentGroup
	winnersPerGroup int
}

func NewGroupState(groups []*TournamentGroup, winnersPerGroup int) (*GroupState, error) {
	if len(groups) == 0 {
		return nil, invalidState("group phase without groups")
	}
	for i, g := range groups {
		if g.scoreboard.Len() < winnersPerGroup {
			return nil, invalidState("group %d has %d members but %d winners", i+1, g.scoreboard.Len(), winnersPerGroup)
		}
	}
	gs := &GroupState{groups: groups, winnersPerGroup: winnersPerGroup}
	for _, g := range groups {
		gs.Pass(g)
	}
	return gs, nil
}

func (s *GroupState) Groups() []*TournamentGroup {
	out := make([]*TournamentGroup, len(s.groups))
	copy(out, s.groups)
	return out
}

func (s *GroupState) WinnersPerGroup() int { return s.winnersPerGroup }

// Result is the ranked winners of every group, aligned with group order.
func (s *GroupState) Result() [][]*ScoreboardEntry {
	result := make([][]*ScoreboardEntry, 0, len(s.groups))
	for _, g := range s.groups {
		result = append(result, g.scoreboard.Top(s.winnersPerGroup))
	}
	return result
}

// GroupOf returns the group competitor plays in.
func (s *GroupState) GroupOf(competitor *models.Competitor) (*TournamentGroup, error) {
	for _, g := range s.groups {
		if g.IsMember(competitor) {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: %q is in no group", ErrCompetitorNotFound, competitor.Name())
}
