package brackets

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-engine/models"
)

// Raw types are the plain JSON form of a tournament. Competitors are
// referenced by name everywhere except in the competitor list itself.

type RawCompetitor struct {
	ID      string                `json:"id,omitempty"`
	Type    models.CompetitorType `json:"type"`
	Name    string                `json:"name"`
	Members []RawCompetitor       `json:"members,omitempty"`
}

type RawScoreboardEntry struct {
	Competitor string `json:"competitor"`
	Score      int    `json:"score"`
	Wins       int    `json:"wins"`
}

type RawMatch struct {
	Entries []RawScoreboardEntry `json:"entries"`
}

type RawGroup struct {
	Scoreboard     []RawScoreboardEntry `json:"scoreboard"`
	NumWinners     int                  `json:"numWinners"`
	CurrentMatches []RawMatch           `json:"currentMatches,omitempty"`
}

type RawGroupState struct {
	Groups          []RawGroup `json:"groups"`
	WinnersPerGroup int        `json:"winnersPerGroup"`
}

type RawMatchTreeNode struct {
	State    NodeState           `json:"state"`
	Match    *RawMatch           `json:"match,omitempty"`
	Children []*RawMatchTreeNode `json:"children,omitempty"`
}

type RawMainState struct {
	Tree *RawMatchTreeNode `json:"tree"`
}

type RawFinishedState struct {
	Winner string `json:"winner"`
}

type RawTournamentState struct {
	Current       StateSlot         `json:"current,omitempty"`
	Qualification *RawGroup         `json:"qualification,omitempty"`
	Group         *RawGroupState    `json:"group,omitempty"`
	Main          *RawMainState     `json:"main,omitempty"`
	Finished      *RawFinishedState `json:"finished,omitempty"`
}

type RawUser struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	IsStreamer  bool   `json:"isStreamer"`
	IsModerator bool   `json:"isModerator"`
	Hidden      bool   `json:"hidden"`
}

type RawTournament struct {
	ID                string                   `json:"id"`
	Owner             string                   `json:"owner"`
	Meta              models.TournamentMeta    `json:"meta"`
	Options           models.TournamentOptions `json:"options"`
	Time              *time.Time               `json:"time,omitempty"`
	QualificationTime *time.Time               `json:"qualificationTime,omitempty"`
	Competitors       []RawCompetitor          `json:"competitors,omitempty"`
	Layout            LayoutInit               `json:"layout"`
	Phase             models.TournamentPhase   `json:"phase"`
	State             RawTournamentState       `json:"state"`
	StartingMatchups  [][]string               `json:"startingMatchups,omitempty"`
	Users             []RawUser                `json:"users,omitempty"`
}

func (t *Tournament) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToRaw(t))
}

// ToRaw converts the aggregate into its JSON form.
func ToRaw(t *Tournament) RawTournament {
	raw := RawTournament{
		ID:                t.ID,
		Owner:             t.owner,
		Meta:              t.Meta,
		Options:           t.Options,
		Time:              t.Time,
		QualificationTime: t.QualificationTime,
		Layout:            t.layout.Init(),
		Phase:             t.phase,
		State:             RawState(t.state),
	}
	for _, c := range t.competitors {
		raw.Competitors = append(raw.Competitors, RawCompetitorOf(c))
	}
	for _, matchup := range t.startingMatchups {
		raw.StartingMatchups = append(raw.StartingMatchups, competitorNames(matchup))
	}
	for _, u := range t.users {
		raw.Users = append(raw.Users, RawUserOf(u))
	}
	return raw
}

func RawCompetitorOf(c *models.Competitor) RawCompetitor {
	rc := RawCompetitor{ID: c.ID, Type: c.Type, Name: c.Name()}
	for _, m := range c.Members() {
		rc.Members = append(rc.Members, RawCompetitorOf(m))
	}
	return rc
}

func RawUserOf(u *models.TournamentUser) RawUser {
	return RawUser{
		ID:          u.ID,
		Name:        u.Name,
		Image:       u.Image,
		IsStreamer:  u.IsStreamer(),
		IsModerator: u.IsModerator(),
		Hidden:      u.Hidden(),
	}
}

// RawState converts every populated slot of s.
func RawState(s *TournamentState) RawTournamentState {
	raw := RawTournamentState{Current: s.current}
	if s.qualification != nil {
		g := rawGroup(s.qualification.TournamentGroup)
		raw.Qualification = &g
	}
	if s.group != nil {
		raw.Group = RawGroupStateOf(s.group)
	}
	if s.main != nil {
		raw.Main = &RawMainState{Tree: RawTree(s.main.tree)}
	}
	if s.finished != nil && s.finished.Winner != nil {
		raw.Finished = &RawFinishedState{Winner: s.finished.Winner.Name()}
	}
	return raw
}

func RawGroupStateOf(gs *GroupState) *RawGroupState {
	raw := &RawGroupState{WinnersPerGroup: gs.winnersPerGroup}
	for _, g := range gs.groups {
		raw.Groups = append(raw.Groups, rawGroup(g))
	}
	return raw
}

func rawGroup(g *TournamentGroup) RawGroup {
	raw := RawGroup{Scoreboard: rawEntries(g.scoreboard.entries), NumWinners: g.numWinners}
	for _, m := range g.currentMatches {
		raw.CurrentMatches = append(raw.CurrentMatches, rawMatch(m))
	}
	return raw
}

func rawEntries(entries []*ScoreboardEntry) []RawScoreboardEntry {
	var raw []RawScoreboardEntry
	for _, e := range entries {
		raw = append(raw, RawScoreboardEntry{Competitor: e.Competitor.Name(), Score: e.score, Wins: e.wins})
	}
	return raw
}

func rawMatch(m *Match) RawMatch {
	return RawMatch{Entries: rawEntries(m.entries)}
}

// RawTree converts a match tree recursively.
func RawTree(n *MatchTreeNode) *RawMatchTreeNode {
	raw := &RawMatchTreeNode{State: n.state}
	if n.match != nil {
		m := rawMatch(n.match)
		raw.Match = &m
	}
	for _, child := range n.children {
		raw.Children = append(raw.Children, RawTree(child))
	}
	return raw
}

func competitorNames(competitors []*models.Competitor) []string {
	names := make([]string, 0, len(competitors))
	for _, c := range competitors {
		names = append(names, c.Name())
	}
	return names
}

// FromRaw rebuilds and validates an aggregate from its JSON form.
func FromRaw(raw RawTournament) (*Tournament, error) {
	layout, err := NewLayout(raw.Layout)
	if err != nil {
		return nil, err
	}
	competitors := make([]*models.Competitor, 0, len(raw.Competitors))
	for _, rc := range raw.Competitors {
		if rc.ID == "" {
			return nil, fmt.Errorf("%w: competitor %q has no id", ErrStructural, rc.Name)
		}
		competitors = append(competitors, competitorFromRaw(rc))
	}
	byName := make(map[string]*models.Competitor, len(competitors))
	for _, c := range competitors {
		byName[c.Name()] = c
	}
	lookup := func(name string) (*models.Competitor, error) {
		c, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrReferential, name)
		}
		return c, nil
	}

	state, err := stateFromRaw(raw.State, lookup)
	if err != nil {
		return nil, err
	}

	var matchups [][]*models.Competitor
	for _, names := range raw.StartingMatchups {
		matchup := make([]*models.Competitor, 0, len(names))
		for _, name := range names {
			c, err := lookup(name)
			if err != nil {
				return nil, err
			}
			matchup = append(matchup, c)
		}
		matchups = append(matchups, matchup)
	}

	users := make([]*models.TournamentUser, 0, len(raw.Users))
	for _, ru := range raw.Users {
		users = append(users, models.NewTournamentUser(models.TournamentUserInit{
			ID:          ru.ID,
			Name:        ru.Name,
			Image:       ru.Image,
			IsStreamer:  ru.IsStreamer,
			IsModerator: ru.IsModerator,
			Hidden:      ru.Hidden,
		}))
	}

	return NewTournament(TournamentInit{
		ID:                raw.ID,
		Owner:             raw.Owner,
		Meta:              raw.Meta,
		Options:           raw.Options,
		Time:              raw.Time,
		QualificationTime: raw.QualificationTime,
		Competitors:       competitors,
		Layout:            layout,
		Phase:             raw.Phase,
		State:             state,
		StartingMatchups:  matchups,
		Users:             users,
	})
}

func competitorFromRaw(rc RawCompetitor) *models.Competitor {
	var c *models.Competitor
	if rc.Type == models.CompetitorTeam {
		members := make([]*models.Competitor, 0, len(rc.Members))
		for _, m := range rc.Members {
			members = append(members, competitorFromRaw(m))
		}
		c = models.NewTeam(rc.Name, members)
	} else {
		c = models.NewIndividual(rc.Name)
	}
	c.ID = rc.ID
	return c
}

type competitorLookup func(name string) (*models.Competitor, error)

func stateFromRaw(raw RawTournamentState, lookup competitorLookup) (*TournamentState, error) {
	var (
		q   *QualificationState
		g   *GroupState
		m   *MainState
		f   *FinishedState
		err error
	)
	if raw.Qualification != nil {
		group, err := groupFromRaw(*raw.Qualification, lookup)
		if err != nil {
			return nil, err
		}
		q = &QualificationState{TournamentGroup: group}
	}
	if raw.Group != nil {
		if g, err = GroupStateFromRaw(*raw.Group, lookup); err != nil {
			return nil, err
		}
	}
	if raw.Main != nil {
		if raw.Main.Tree == nil {
			return nil, fmt.Errorf("%w: main state without match tree", ErrStructural)
		}
		tree, err := TreeFromRaw(raw.Main.Tree, lookup)
		if err != nil {
			return nil, err
		}
		if m, err = NewMainState(tree); err != nil {
			return nil, err
		}
	}
	if raw.Finished != nil {
		winner, err := lookup(raw.Finished.Winner)
		if err != nil {
			return nil, err
		}
		f = &FinishedState{Winner: winner}
	}
	return RestoreTournamentState(raw.Current, q, g, m, f)
}

func GroupStateFromRaw(raw RawGroupState, lookup competitorLookup) (*GroupState, error) {
	groups := make([]*TournamentGroup, 0, len(raw.Groups))
	for _, rg := range raw.Groups {
		g, err := groupFromRaw(rg, lookup)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return NewGroupState(groups, raw.WinnersPerGroup)
}

func groupFromRaw(raw RawGroup, lookup competitorLookup) (*TournamentGroup, error) {
	sb, err := scoreboardFromRaw(raw.Scoreboard, lookup)
	if err != nil {
		return nil, err
	}
	matches := make([]*Match, 0, len(raw.CurrentMatches))
	for _, rm := range raw.CurrentMatches {
		match, err := matchFromRaw(rm, lookup)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return NewTournamentGroup(sb, raw.NumWinners, matches...)
}

func scoreboardFromRaw(raw []RawScoreboardEntry, lookup competitorLookup) (*Scoreboard, error) {
	entries, err := entriesFromRaw(raw, lookup)
	if err != nil {
		return nil, err
	}
	return NewScoreboard(entries)
}

func entriesFromRaw(raw []RawScoreboardEntry, lookup competitorLookup) ([]*ScoreboardEntry, error) {
	entries := make([]*ScoreboardEntry, 0, len(raw))
	for _, re := range raw {
		c, err := lookup(re.Competitor)
		if err != nil {
			return nil, err
		}
		e, err := NewScoreboardEntry(c, re.Score, re.Wins)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func matchFromRaw(raw RawMatch, lookup competitorLookup) (*Match, error) {
	if len(raw.Entries) != 2 {
		return nil, fmt.Errorf("%w: a match needs two entries, got %d", ErrStructural, len(raw.Entries))
	}
	entries, err := entriesFromRaw(raw.Entries, lookup)
	if err != nil {
		return nil, err
	}
	return NewMatch(entries[0], entries[1])
}

// TreeFromRaw rebuilds a match tree. Every node has zero or two children.
func TreeFromRaw(raw *RawMatchTreeNode, lookup competitorLookup) (*MatchTreeNode, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty tree node", ErrStructural)
	}
	if !raw.State.IsValid() {
		return nil, fmt.Errorf("%w: unknown node state %q", ErrStructural, raw.State)
	}
	var match *Match
	if raw.Match != nil {
		var err error
		if match, err = matchFromRaw(*raw.Match, lookup); err != nil {
			return nil, err
		}
	}
	switch len(raw.Children) {
	case 0:
		if match == nil {
			return nil, fmt.Errorf("%w: starting node without match", ErrStructural)
		}
		return newMatchTreeNode(raw.State, match, nil), nil
	case 2:
		children := make([]*MatchTreeNode, 0, 2)
		for _, rc := range raw.Children {
			child, err := TreeFromRaw(rc, lookup)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return newMatchTreeNode(raw.State, match, children), nil
	}
	return nil, fmt.Errorf("%w: a tree node needs zero or two children, got %d", ErrStructural, len(raw.Children))
}
