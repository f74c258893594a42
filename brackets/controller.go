package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

// Saver persists the full state of a tournament.
type Saver interface {
	Save(ctx context.Context, t *Tournament) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, t *Tournament) error

func (f SaverFunc) Save(ctx context.Context, t *Tournament) error { return f(ctx, t) }

// Controller drives a tournament through its phases. Every transition is
// computed completely before the aggregate is touched, so a failed transition
// leaves the tournament unchanged.
type Controller struct {
	tournament *Tournament
	saver      Saver
	seeding    SeedingPolicy
}

type ControllerOption func(*Controller)

func WithSeeding(policy SeedingPolicy) ControllerOption {
	return func(c *Controller) { c.seeding = policy }
}

// NewController returns a controller for t. saver may be nil.
func NewController(t *Tournament, saver Saver, opts ...ControllerOption) *Controller {
	c := &Controller{tournament: t, saver: saver, seeding: RotationSeeding{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Tournament() *Tournament { return c.tournament }

// AdvancePhase performs exactly one transition and saves on success. Calls on
// a finished tournament are no-ops. A failed save is reported wrapped in
// ErrPersistence; the in-memory transition is kept.
func (c *Controller) AdvancePhase(ctx context.Context) error {
	t := c.tournament
	var apply func()
	var err error

	switch t.phase {
	case models.PhasePlanned:
		if len(t.competitors) != t.layout.Competitors() {
			return invalidState("tournament has %d of %d competitors", len(t.competitors), t.layout.Competitors())
		}
		if t.layout.HasQualificationPhase() {
			apply, err = c.toQualification()
		} else {
			apply, err = c.fromSeeds(t.startingMatchups)
		}
	case models.PhaseQualification:
		apply, err = c.toPostQualification()
	case models.PhasePostQualification:
		apply, err = c.fromSeeds(t.startingMatchups)
	case models.PhaseGroup:
		apply, err = c.groupToMain()
	case models.PhaseMain:
		apply, err = c.toFinished()
	case models.PhaseFinished:
		return nil
	default:
		return fmt.Errorf("%w: unknown phase %q", ErrIllegalTransition, t.phase)
	}
	if err != nil {
		return err
	}
	apply()
	return c.save(ctx)
}

func (c *Controller) toQualification() (func(), error) {
	t := c.tournament
	qs, err := CreateQualificationState(t.competitors, t.layout.CompetitorsAfterQualification())
	if err != nil {
		return nil, err
	}
	return func() {
		t.state.SetQualification(qs)
		t.setPhase(models.PhaseQualification)
	}, nil
}

func (c *Controller) toPostQualification() (func(), error) {
	t := c.tournament
	qs := t.state.Qualification()
	if qs == nil {
		return nil, invalidState("qualification phase without qualification state")
	}
	winners := make([]*models.Competitor, 0, qs.CompetitorsAfterQualification())
	for _, w := range qs.Winners() {
		winners = append(winners, w.Competitor)
	}
	size := 2
	if t.layout.HasGroupPhase() {
		size = t.layout.GroupSize()
	}
	matchups, err := createGroups(winners, size)
	if err != nil {
		return nil, invalidState("cannot seed qualification winners: %v", err)
	}
	return func() {
		t.setPhase(models.PhasePostQualification)
		t.startingMatchups = matchups
		t.Notify("startingMatchups")
	}, nil
}

// fromSeeds enters the group phase or the bracket from the starting matchups.
func (c *Controller) fromSeeds(seeds [][]*models.Competitor) (func(), error) {
	t := c.tournament
	if seeds == nil {
		return nil, invalidState("no starting matchups defined")
	}
	if t.layout.HasGroupPhase() {
		gs, err := CreateGroupState(seeds, t.layout.WinnersPerGroup())
		if err != nil {
			return nil, err
		}
		return func() {
			t.state.SetGroup(gs)
			t.setPhase(models.PhaseGroup)
		}, nil
	}
	return c.toMain(flatten(seeds))
}

func (c *Controller) groupToMain() (func(), error) {
	t := c.tournament
	gs := t.state.Group()
	if gs == nil {
		return nil, invalidState("group phase without group state")
	}
	result := make([][]*models.Competitor, 0, len(gs.groups))
	for _, entries := range gs.Result() {
		winners := make([]*models.Competitor, 0, len(entries))
		for _, e := range entries {
			winners = append(winners, e.Competitor)
		}
		result = append(result, winners)
	}
	seeds, err := c.seeding.BracketSeeds(result, gs.WinnersPerGroup(), len(gs.groups))
	if err != nil {
		return nil, err
	}
	return c.toMain(seeds)
}

func (c *Controller) toMain(competitors []*models.Competitor) (func(), error) {
	t := c.tournament
	ms, err := CreateMainState(competitors)
	if err != nil {
		return nil, err
	}
	return func() {
		t.state.SetMain(ms)
		t.setPhase(models.PhaseMain)
	}, nil
}

func (c *Controller) toFinished() (func(), error) {
	t := c.tournament
	ms := t.state.Main()
	if ms == nil {
		return nil, invalidState("main phase without match tree")
	}
	root := ms.Tree()
	if root.Match() == nil || !root.Match().Decided() {
		return nil, invalidState("the final has not been decided")
	}
	if root.State() == NodeInactive {
		return nil, invalidState("the final has not been played")
	}
	winner := root.Match().Winner().Competitor
	return func() {
		if root.State() != NodeFinished {
			root.setState(NodeFinished)
		}
		t.state.SetFinished(&FinishedState{Winner: winner})
		t.setPhase(models.PhaseFinished)
	}, nil
}

// SetScore sets the score of competitor in the scoreboard of the current
// phase: the qualification scoreboard, its group, or its open bracket match.
func (c *Controller) SetScore(ctx context.Context, name string, score int) error {
	entry, err := c.currentEntry(name)
	if err != nil {
		return err
	}
	if err := entry.SetScore(score); err != nil {
		return err
	}
	return c.save(ctx)
}

func (c *Controller) currentEntry(name string) (*ScoreboardEntry, error) {
	t := c.tournament
	competitor, err := t.Competitor(name)
	if err != nil {
		return nil, err
	}
	switch t.phase {
	case models.PhaseQualification:
		qs := t.state.Qualification()
		if qs == nil {
			return nil, invalidState("qualification phase without qualification state")
		}
		return qs.Scoreboard().Entry(competitor)
	case models.PhaseGroup:
		gs := t.state.Group()
		if gs == nil {
			return nil, invalidState("group phase without group state")
		}
		group, err := gs.GroupOf(competitor)
		if err != nil {
			return nil, err
		}
		return group.Scoreboard().Entry(competitor)
	case models.PhaseMain:
		ms := t.state.Main()
		if ms == nil {
			return nil, invalidState("main phase without main state")
		}
		node, err := ms.Tree().OpenNodeOf(competitor)
		if err != nil {
			return nil, err
		}
		return node.Match().Entry(competitor)
	}
	return nil, fmt.Errorf("%w: no scores are kept during the %s phase", ErrIllegalTransition, t.phase)
}

// StartMatch marks the open bracket match of competitor as active.
func (c *Controller) StartMatch(ctx context.Context, name string) error {
	node, err := c.openNode(name)
	if err != nil {
		return err
	}
	if err := node.Start(); err != nil {
		return err
	}
	return c.save(ctx)
}

// FinishMatch closes the open bracket match of competitor and promotes the
// winner when the sibling match is finished as well.
func (c *Controller) FinishMatch(ctx context.Context, name string) error {
	node, err := c.openNode(name)
	if err != nil {
		return err
	}
	if err := node.Finish(); err != nil {
		return err
	}
	return c.save(ctx)
}

func (c *Controller) openNode(name string) (*MatchTreeNode, error) {
	t := c.tournament
	if t.phase != models.PhaseMain {
		return nil, fmt.Errorf("%w: bracket matches are only played in the main phase", ErrIllegalTransition)
	}
	competitor, err := t.Competitor(name)
	if err != nil {
		return nil, err
	}
	ms := t.state.Main()
	if ms == nil {
		return nil, invalidState("main phase without main state")
	}
	return ms.Tree().OpenNodeOf(competitor)
}

func (c *Controller) save(ctx context.Context) error {
	if c.saver == nil {
		return nil
	}
	if err := c.saver.Save(ctx, c.tournament); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// CreateQualificationState builds a zero-score qualification over competitors.
func CreateQualificationState(competitors []*models.Competitor, competitorsAfterQualification int) (*QualificationState, error) {
	sb, err := ScoreboardFrom(competitors, 0)
	if err != nil {
		return nil, err
	}
	return NewQualificationState(sb, competitorsAfterQualification)
}

// CreateGroupState builds zero-score groups from seeded lists.
func CreateGroupState(groups [][]*models.Competitor, winnersPerGroup int) (*GroupState, error) {
	scored := make([]*TournamentGroup, 0, len(groups))
	for _, members := range groups {
		sb, err := ScoreboardFrom(members, 0)
		if err != nil {
			return nil, err
		}
		g, err := NewTournamentGroup(sb, winnersPerGroup)
		if err != nil {
			return nil, err
		}
		scored = append(scored, g)
	}
	return NewGroupState(scored, winnersPerGroup)
}

func CreateMainState(competitors []*models.Competitor) (*MainState, error) {
	tree, err := CreateMatchTree(competitors)
	if err != nil {
		return nil, err
	}
	return NewMainState(tree)
}
