package brackets

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSaver struct {
	calls int
	err   error
}

func (s *countingSaver) Save(_ context.Context, _ *Tournament) error {
	s.calls++
	return s.err
}

func newTestTournament(t *testing.T, init LayoutInit, n int) *Tournament {
	t.Helper()
	tour, err := NewTournament(TournamentInit{
		Owner:       "owner-1",
		Meta:        models.TournamentMeta{Name: "Cup"},
		Competitors: individuals(n),
		Layout:      MustLayout(init),
	})
	require.NoError(t, err)
	return tour
}

func TestController_GroupsToBracketScenario(t *testing.T) {
	ctx := context.Background()
	tour := newTestTournament(t, LayoutInit{Competitors: 8, HasGroupPhase: true, Groups: 2, WinnersPerGroup: 2}, 8)
	saver := &countingSaver{}
	c := NewController(tour, saver)

	require.NoError(t, c.AdvancePhase(ctx))
	assert.Equal(t, models.PhaseGroup, tour.Phase())
	assert.Equal(t, SlotGroup, tour.State().CurrentSlot())
	gs := tour.State().Group()
	require.NotNil(t, gs)
	require.Len(t, gs.Groups(), 2)
	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, names(gs.Groups()[0].Scoreboard().Competitors()))
	assert.Equal(t, []string{"p5", "p6", "p7", "p8"}, names(gs.Groups()[1].Scoreboard().Competitors()))

	scores := map[string]int{"p1": 10, "p2": 8, "p3": 1, "p4": 0, "p5": 0, "p6": 9, "p7": 10, "p8": 2}
	for name, score := range scores {
		require.NoError(t, c.SetScore(ctx, name, score))
	}

	require.NoError(t, c.AdvancePhase(ctx))
	assert.Equal(t, models.PhaseMain, tour.Phase())
	ms := tour.State().Main()
	require.NotNil(t, ms)
	assert.Len(t, ms.Tree().Leaves(), 2)
	assert.Equal(t, [][]string{{"p1", "p6"}, {"p7", "p2"}}, leafPairs(ms.Tree()))
	assert.NotNil(t, tour.State().Group(), "group results stay available")

	require.NoError(t, c.SetScore(ctx, "p1", 3))
	require.NoError(t, c.StartMatch(ctx, "p1"))
	require.NoError(t, c.FinishMatch(ctx, "p6"))
	require.NoError(t, c.SetScore(ctx, "p7", 2))
	require.NoError(t, c.FinishMatch(ctx, "p7"))

	root := ms.Tree()
	assert.Equal(t, NodeReady, root.State())
	err := c.AdvancePhase(ctx)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, models.PhaseMain, tour.Phase())

	require.NoError(t, c.SetScore(ctx, "p7", 5))
	require.NoError(t, c.AdvancePhase(ctx))
	assert.Equal(t, models.PhaseFinished, tour.Phase())
	assert.Equal(t, NodeFinished, root.State())
	require.NotNil(t, tour.State().Finished())
	assert.Equal(t, "p7", tour.State().Finished().Winner.Name())

	saves := saver.calls
	require.NoError(t, c.AdvancePhase(ctx))
	assert.Equal(t, models.PhaseFinished, tour.Phase())
	assert.Equal(t, saves, saver.calls)
}

func TestController_QualificationFlow(t *testing.T) {
	ctx := context.Background()
	tour := newTestTournament(t, LayoutInit{Competitors: 6, HasQualificationPhase: true, CompetitorsAfterQualification: 4}, 6)
	c := NewController(tour, nil)

	assert.Nil(t, tour.StartingMatchups())
	assert.False(t, tour.CanModifyStartingPositions())

	require.NoError(t, c.AdvancePhase(ctx))
	assert.Equal(t, models.PhaseQualification, tour.Phase())
	for name, score := range map[string]int{"p3": 5, "p5": 4, "p1": 3, "p6": 2} {
		require.NoError(t, c.SetScore(ctx, name, score))
	}

	require.NoError(t, c.AdvancePhase(ctx))
	assert.Equal(t, models.PhasePostQualification, tour.Phase())
	matchups := tour.StartingMatchups()
	require.Len(t, matchups, 2)
	assert.Equal(t, []string{"p3", "p5"}, names(matchups[0]))
	assert.Equal(t, []string{"p1", "p6"}, names(matchups[1]))

	assert.True(t, tour.CanModifyStartingPositions())
	require.NoError(t, tour.SwapSeeds("p5", "p1"))
	assert.ErrorIs(t, tour.SwapSeeds("p5", "p2"), ErrCompetitorNotFound)

	require.NoError(t, c.AdvancePhase(ctx))
	assert.Equal(t, models.PhaseMain, tour.Phase())
	assert.Equal(t, [][]string{{"p3", "p1"}, {"p5", "p6"}}, leafPairs(tour.State().Main().Tree()))
	assert.NotNil(t, tour.State().Qualification())

	assert.ErrorIs(t, tour.SwapSeeds("p3", "p6"), ErrIllegalTransition)
}

func TestController_QualificationIntoGroups(t *testing.T) {
	ctx := context.Background()
	tour := newTestTournament(t, LayoutInit{
		Competitors: 12, HasQualificationPhase: true, CompetitorsAfterQualification: 8,
		HasGroupPhase: true, Groups: 2, WinnersPerGroup: 1,
	}, 12)
	c := NewController(tour, nil)

	require.NoError(t, c.AdvancePhase(ctx))
	for i, name := range []string{"p12", "p11", "p10", "p9", "p8", "p7", "p6", "p5"} {
		require.NoError(t, c.SetScore(ctx, name, 20-i))
	}
	require.NoError(t, c.AdvancePhase(ctx))
	matchups := tour.StartingMatchups()
	require.Len(t, matchups, 2)
	assert.Equal(t, []string{"p12", "p11", "p10", "p9"}, names(matchups[0]))

	require.NoError(t, c.AdvancePhase(ctx))
	assert.Equal(t, models.PhaseGroup, tour.Phase())
	require.NoError(t, c.SetScore(ctx, "p10", 3))
	require.NoError(t, c.SetScore(ctx, "p5", 1))

	require.NoError(t, c.AdvancePhase(ctx))
	assert.Equal(t, [][]string{{"p10", "p5"}}, leafPairs(tour.State().Main().Tree()))
}

func TestController_PlannedRequiresFullField(t *testing.T) {
	tour := newTestTournament(t, LayoutInit{Competitors: 4}, 3)
	c := NewController(tour, nil)

	err := c.AdvancePhase(context.Background())
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, models.PhasePlanned, tour.Phase())
	assert.Equal(t, SlotNone, tour.State().CurrentSlot())

	require.NoError(t, tour.AddCompetitor(models.NewIndividual("p4")))
	require.Len(t, tour.StartingMatchups(), 2)
	require.NoError(t, c.AdvancePhase(context.Background()))
	assert.Equal(t, models.PhaseMain, tour.Phase())

	assert.ErrorIs(t, tour.AddCompetitor(models.NewIndividual("p5")), ErrIllegalTransition)
}

func TestController_SaveFailureKeepsTransition(t *testing.T) {
	tour := newTestTournament(t, LayoutInit{Competitors: 2}, 2)
	saveErr := errors.New("connection reset")
	c := NewController(tour, SaverFunc(func(context.Context, *Tournament) error { return saveErr }))

	err := c.AdvancePhase(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, saveErr)
	assert.Equal(t, models.PhaseMain, tour.Phase())
}

func TestController_ScoresOutsidePlayingPhases(t *testing.T) {
	ctx := context.Background()
	tour := newTestTournament(t, LayoutInit{Competitors: 2}, 2)
	c := NewController(tour, nil)

	assert.ErrorIs(t, c.SetScore(ctx, "p1", 1), ErrIllegalTransition)
	assert.ErrorIs(t, c.StartMatch(ctx, "p1"), ErrIllegalTransition)

	require.NoError(t, c.AdvancePhase(ctx))
	assert.ErrorIs(t, c.SetScore(ctx, "nobody", 1), ErrCompetitorNotFound)
	assert.ErrorIs(t, c.SetScore(ctx, "p1", -1), ErrInvalidState)
	assert.ErrorIs(t, c.FinishMatch(ctx, "p1"), ErrInvalidState)
}

func TestController_MissingPhaseStateIsAnError(t *testing.T) {
	ctx := context.Background()
	for _, phase := range []models.TournamentPhase{models.PhaseQualification, models.PhaseGroup, models.PhaseMain} {
		tour := newTestTournament(t, LayoutInit{Competitors: 4}, 4)
		tour.phase = phase
		c := NewController(tour, nil)

		assert.ErrorIs(t, c.SetScore(ctx, "p1", 1), ErrInvalidState, phase)
	}

	tour := newTestTournament(t, LayoutInit{Competitors: 4}, 4)
	tour.phase = models.PhaseMain
	c := NewController(tour, nil)
	assert.ErrorIs(t, c.StartMatch(ctx, "p1"), ErrInvalidState)
	assert.ErrorIs(t, c.FinishMatch(ctx, "p1"), ErrInvalidState)
}

func TestRotationSeeding(t *testing.T) {
	group := func(prefix string) []*models.Competitor {
		return []*models.Competitor{models.NewIndividual(prefix + "1"), models.NewIndividual(prefix + "2")}
	}
	result := [][]*models.Competitor{group("A"), group("B"), group("C"), group("D")}

	seeds, err := RotationSeeding{}.BracketSeeds(result, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B2", "B1", "C2", "C1", "D2", "D1", "A2"}, names(seeds))

	for i := 0; i < len(seeds); i += 2 {
		assert.NotEqual(t, seeds[i].Name()[:1], seeds[i+1].Name()[:1], "first round rematch of a group")
	}

	single, err := RotationSeeding{}.BracketSeeds([][]*models.Competitor{result[0][:1], result[1][:1]}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B1"}, names(single))

	_, err = RotationSeeding{}.BracketSeeds([][]*models.Competitor{result[0][:1]}, 2, 1)
	assert.ErrorIs(t, err, ErrInvalidState)
}
