package brackets

import (
	"fmt"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
)

// TournamentInit is the input of NewTournament. Phase defaults to planned and
// State to an empty state.
type TournamentInit struct {
	ID                string
	Owner             string
	Meta              models.TournamentMeta
	Options           models.TournamentOptions
	Time              *time.Time
	QualificationTime *time.Time
	Competitors       []*models.Competitor
	Layout            *Layout
	Phase             models.TournamentPhase
	State             *TournamentState
	StartingMatchups  [][]*models.Competitor
	Users             []*models.TournamentUser
}

// Tournament is the aggregate root. It is not safe for concurrent use:
// callers keep at most one mutation in flight per tournament.
type Tournament struct {
	models.Notifier

	ID                string
	Meta              models.TournamentMeta
	Options           models.TournamentOptions
	Time              *time.Time
	QualificationTime *time.Time

	owner            string
	competitors      []*models.Competitor
	layout           *Layout
	phase            models.TournamentPhase
	state            *TournamentState
	startingMatchups [][]*models.Competitor
	users            []*models.TournamentUser
}

func NewTournament(init TournamentInit) (*Tournament, error) {
	if init.Layout == nil {
		return nil, &InvalidLayoutError{Reason: "layout is required"}
	}
	phase := init.Phase
	if phase == "" {
		phase = models.PhasePlanned
	}
	if !phase.IsValid() {
		return nil, invalidState("unknown phase %q", phase)
	}
	if len(init.Competitors) > init.Layout.Competitors() {
		return nil, invalidState("%d competitors exceed the layout size of %d", len(init.Competitors), init.Layout.Competitors())
	}
	seen := make(map[string]struct{}, len(init.Competitors))
	for _, c := range init.Competitors {
		if c == nil || c.Name() == "" {
			return nil, invalidState("competitors need a name")
		}
		if _, dup := seen[c.Name()]; dup {
			return nil, invalidState("competitor name %q is not unique", c.Name())
		}
		seen[c.Name()] = struct{}{}
	}

	t := &Tournament{
		ID:                init.ID,
		Meta:              init.Meta,
		Options:           init.Options,
		Time:              init.Time,
		QualificationTime: init.QualificationTime,
		owner:             init.Owner,
		competitors:       append([]*models.Competitor(nil), init.Competitors...),
		layout:            init.Layout,
		phase:             phase,
		state:             init.State,
		users:             append([]*models.TournamentUser(nil), init.Users...),
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.state == nil {
		t.state = NewTournamentState()
	}
	if err := checkPhaseState(phase, init.Layout, t.state); err != nil {
		return nil, err
	}
	for _, c := range t.competitors {
		c.EnsureID()
		t.Pass(c)
	}
	for _, u := range t.users {
		t.Pass(u)
	}
	t.Pass(t.state)

	if init.StartingMatchups != nil {
		resolved, err := t.resolveMatchups(init.StartingMatchups)
		if err != nil {
			return nil, err
		}
		t.startingMatchups = resolved
	} else if t.needsDefaultMatchups() {
		t.startingMatchups = t.defaultMatchups()
	}
	return t, nil
}

func (t *Tournament) Owner() string                 { return t.owner }
func (t *Tournament) Layout() *Layout               { return t.layout }
func (t *Tournament) Phase() models.TournamentPhase { return t.phase }
func (t *Tournament) State() *TournamentState       { return t.state }

func (t *Tournament) Users() []*models.TournamentUser {
	return append([]*models.TournamentUser(nil), t.users...)
}

func (t *Tournament) SetOwner(owner string) {
	t.owner = owner
	t.Notify("owner")
}

func (t *Tournament) setPhase(phase models.TournamentPhase) {
	t.phase = phase
	t.Notify("phase")
}

func (t *Tournament) Competitors() []*models.Competitor {
	return append([]*models.Competitor(nil), t.competitors...)
}

// Competitor looks a member up by name.
func (t *Tournament) Competitor(name string) (*models.Competitor, error) {
	for _, c := range t.competitors {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrCompetitorNotFound, name)
}

func (t *Tournament) CompetitorByID(id string) (*models.Competitor, error) {
	for _, c := range t.competitors {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: id %s", ErrCompetitorNotFound, id)
}

// AddCompetitor appends a member while the tournament is still planned.
func (t *Tournament) AddCompetitor(c *models.Competitor) error {
	if t.phase != models.PhasePlanned {
		return fmt.Errorf("%w: competitors can only join planned tournaments", ErrIllegalTransition)
	}
	if len(t.competitors) >= t.layout.Competitors() {
		return invalidState("tournament is full (%d competitors)", t.layout.Competitors())
	}
	if c == nil || c.Name() == "" {
		return invalidState("competitors need a name")
	}
	if _, err := t.Competitor(c.Name()); err == nil {
		return invalidState("competitor name %q is not unique", c.Name())
	}
	c.EnsureID()
	t.competitors = append(t.competitors, c)
	t.Pass(c)
	t.Notify("competitors")
	if t.startingMatchups == nil && t.needsDefaultMatchups() {
		t.startingMatchups = t.defaultMatchups()
		t.Notify("startingMatchups")
	}
	return nil
}

func (t *Tournament) AddUser(u *models.TournamentUser) error {
	if _, ok := t.User(u.ID); ok {
		return invalidState("user %s already belongs to the tournament", u.ID)
	}
	t.users = append(t.users, u)
	t.Pass(u)
	t.Notify("users")
	return nil
}

func (t *Tournament) RemoveUser(id string) {
	for i, u := range t.users {
		if u.ID == id {
			t.users = append(t.users[:i:i], t.users[i+1:]...)
			t.Notify("users")
			return
		}
	}
}

// SetUserRole updates the moderation and streaming rights of a user.
func (t *Tournament) SetUserRole(id string, moderator, streamer bool) error {
	u, ok := t.User(id)
	if !ok {
		return fmt.Errorf("%w: user %s", ErrReferential, id)
	}
	if u.IsModerator() != moderator {
		u.SetModerator(moderator)
	}
	if u.IsStreamer() != streamer {
		u.SetStreamer(streamer)
	}
	return nil
}

func (t *Tournament) User(id string) (*models.TournamentUser, bool) {
	for _, u := range t.users {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}

// StartingMatchups are the seeds of the next phase: groups when the layout has
// a group phase, pairs otherwise.
func (t *Tournament) StartingMatchups() [][]*models.Competitor {
	if t.startingMatchups == nil {
		return nil
	}
	out := make([][]*models.Competitor, len(t.startingMatchups))
	for i, m := range t.startingMatchups {
		out[i] = append([]*models.Competitor(nil), m...)
	}
	return out
}

// CanModifyStartingPositions reports whether seeds may still be changed.
func (t *Tournament) CanModifyStartingPositions() bool {
	return (t.phase == models.PhasePlanned && !t.layout.HasQualificationPhase()) ||
		t.phase == models.PhasePostQualification
}

func (t *Tournament) SetStartingMatchups(matchups [][]*models.Competitor) error {
	if !t.CanModifyStartingPositions() {
		return fmt.Errorf("%w: starting matchups can't be modified during the %s phase", ErrIllegalTransition, t.phase)
	}
	resolved, err := t.resolveMatchups(matchups)
	if err != nil {
		return err
	}
	t.startingMatchups = resolved
	t.Notify("startingMatchups")
	return nil
}

// SwapSeeds exchanges the seed positions of two competitors.
func (t *Tournament) SwapSeeds(name1, name2 string) error {
	if !t.CanModifyStartingPositions() {
		return fmt.Errorf("%w: starting matchups can't be modified during the %s phase", ErrIllegalTransition, t.phase)
	}
	if t.startingMatchups == nil {
		return invalidState("this tournament has no starting matchups defined")
	}
	g1, i1, ok1 := t.seedPosition(name1)
	g2, i2, ok2 := t.seedPosition(name2)
	if !ok1 {
		return fmt.Errorf("%w: %q has no seed", ErrCompetitorNotFound, name1)
	}
	if !ok2 {
		return fmt.Errorf("%w: %q has no seed", ErrCompetitorNotFound, name2)
	}
	t.startingMatchups[g1][i1], t.startingMatchups[g2][i2] = t.startingMatchups[g2][i2], t.startingMatchups[g1][i1]
	t.Notify("startingMatchups")
	return nil
}

func (t *Tournament) seedPosition(name string) (group, index int, ok bool) {
	for g, matchup := range t.startingMatchups {
		for i, c := range matchup {
			if c.Name() == name {
				return g, i, true
			}
		}
	}
	return 0, 0, false
}

// checkCompetitorValidity resolves seeds to members, matching by name.
func (t *Tournament) checkCompetitorValidity(competitors ...*models.Competitor) ([]*models.Competitor, error) {
	resolved := make([]*models.Competitor, 0, len(competitors))
	for _, c := range competitors {
		if c == nil {
			return nil, fmt.Errorf("%w: empty seed", ErrReferential)
		}
		member, err := t.Competitor(c.Name())
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrReferential, c.Name())
		}
		resolved = append(resolved, member)
	}
	return resolved, nil
}

func (t *Tournament) resolveMatchups(matchups [][]*models.Competitor) ([][]*models.Competitor, error) {
	size := 2
	if t.layout.HasGroupPhase() {
		size = t.layout.GroupSize()
	}
	seen := make(map[string]struct{})
	resolved := make([][]*models.Competitor, 0, len(matchups))
	for _, matchup := range matchups {
		if len(matchup) != size {
			return nil, invalidState("starting matchups must have %d competitors each, got %d", size, len(matchup))
		}
		members, err := t.checkCompetitorValidity(matchup...)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if _, dup := seen[m.Name()]; dup {
				return nil, invalidState("competitor %q is seeded twice", m.Name())
			}
			seen[m.Name()] = struct{}{}
		}
		resolved = append(resolved, members)
	}
	if want := t.layout.CompetitorsEnteringGroups(); len(seen) != want {
		return nil, invalidState("starting matchups seed %d competitors, layout expects %d", len(seen), want)
	}
	return resolved, nil
}

func (t *Tournament) needsDefaultMatchups() bool {
	return t.phase == models.PhasePlanned &&
		!t.layout.HasQualificationPhase() &&
		len(t.competitors) == t.layout.Competitors()
}

// defaultMatchups seeds competitors in registration order.
func (t *Tournament) defaultMatchups() [][]*models.Competitor {
	size := 2
	if t.layout.HasGroupPhase() {
		size = t.layout.GroupSize()
	}
	groups, err := createGroups(t.competitors, size)
	if err != nil {
		return nil
	}
	return groups
}

// checkPhaseState requires the state slot of phase to exist and every
// present slot to belong to a phase the layout has.
func checkPhaseState(phase models.TournamentPhase, layout *Layout, state *TournamentState) error {
	if state.Qualification() != nil && !layout.HasQualificationPhase() {
		return invalidState("qualification state on a layout without a qualification phase")
	}
	if state.Group() != nil && !layout.HasGroupPhase() {
		return invalidState("group state on a layout without a group phase")
	}

	var required StateSlot
	switch phase {
	case models.PhasePlanned:
		if slot := state.latest(); slot != SlotNone {
			return invalidState("planned tournament carries %s state", slot)
		}
		return nil
	case models.PhaseQualification, models.PhasePostQualification:
		required = SlotQualification
	case models.PhaseGroup:
		required = SlotGroup
	case models.PhaseMain:
		required = SlotMain
	case models.PhaseFinished:
		required = SlotFinished
	}
	if !state.has(required) {
		return invalidState("%s phase without %s state", phase, required)
	}
	return nil
}
