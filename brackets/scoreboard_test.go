package brackets

import (
	"testing"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreboard_TopOrdersByScoreThenWinsThenSeed(t *testing.T) {
	ps := individuals(5)
	sb, err := ScoreboardFrom(ps, 0)
	require.NoError(t, err)

	require.NoError(t, sb.SetScore(ps[0], 3))
	require.NoError(t, sb.SetScore(ps[1], 7))
	require.NoError(t, sb.SetScore(ps[2], 3))
	require.NoError(t, sb.AddWin(ps[2]))
	require.NoError(t, sb.SetScore(ps[3], 3))

	assert.Equal(t, []string{"p2", "p3", "p1", "p4", "p5"}, entryNames(sb.Top(5)))
	assert.Equal(t, []string{"p2", "p3"}, entryNames(sb.Top(2)))
	assert.Len(t, sb.Top(10), 5)
	assert.Empty(t, sb.Top(0))

	_, err = sb.TopStrict(6)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestScoreboard_RejectsDuplicatesAndNegatives(t *testing.T) {
	_, err := ScoreboardFrom([]*models.Competitor{models.NewIndividual("a"), models.NewIndividual("a")}, 0)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = NewScoreboardEntry(models.NewIndividual("a"), -1, 0)
	assert.ErrorIs(t, err, ErrInvalidState)

	ps := individuals(2)
	sb, err := ScoreboardFrom(ps, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, sb.SetScore(ps[0], -2), ErrInvalidState)
	assert.Equal(t, 0, mustScore(t, sb, ps[0]))
}

func TestScoreboard_UnknownCompetitor(t *testing.T) {
	sb, err := ScoreboardFrom(individuals(2), 0)
	require.NoError(t, err)

	stranger := models.NewIndividual("stranger")
	_, err = sb.Score(stranger)
	assert.ErrorIs(t, err, ErrCompetitorNotFound)
	assert.False(t, sb.Has(stranger))
	assert.ErrorIs(t, sb.UpdateScore(stranger, func(int) int { return 1 }), ErrCompetitorNotFound)
}

func TestScoreboard_UpdateScore(t *testing.T) {
	ps := individuals(2)
	sb, err := ScoreboardFrom(ps, 2)
	require.NoError(t, err)

	require.NoError(t, sb.UpdateScore(ps[1], func(prev int) int { return prev + 3 }))
	assert.Equal(t, 5, mustScore(t, sb, ps[1]))
	assert.Equal(t, 2, mustScore(t, sb, ps[0]))
}

func TestMatch_WinnerAndLoser(t *testing.T) {
	ps := individuals(2)
	m, err := CreateMatch(ps[0], ps[1])
	require.NoError(t, err)
	assert.False(t, m.Decided())

	require.NoError(t, m.SetScore(ps[1], 2))
	assert.True(t, m.Decided())
	assert.Equal(t, "p2", m.Winner().Competitor.Name())
	assert.Equal(t, "p1", m.Loser().Competitor.Name())
	assert.True(t, m.Involves(ps[0]))
	assert.False(t, m.Involves(models.NewIndividual("p3")))
}

func TestTournamentGroup_Construction(t *testing.T) {
	sb, err := ScoreboardFrom(individuals(3), 0)
	require.NoError(t, err)

	_, err = NewTournamentGroup(sb, 4)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = NewTournamentGroup(sb, 0)
	assert.ErrorIs(t, err, ErrInvalidState)

	g, err := NewTournamentGroup(sb, 2)
	require.NoError(t, err)
	assert.Len(t, g.Winners(), 2)
}

func TestTournamentGroup_Matches(t *testing.T) {
	ps := individuals(4)
	sb, err := ScoreboardFrom(ps, 0)
	require.NoError(t, err)
	g, err := NewTournamentGroup(sb, 2)
	require.NoError(t, err)

	outsider, err := CreateMatch(ps[0], models.NewIndividual("p9"))
	require.NoError(t, err)
	assert.ErrorIs(t, g.AddMatch(outsider), ErrReferential)

	m, err := CreateMatch(ps[2], ps[3])
	require.NoError(t, err)
	require.NoError(t, g.AddMatch(m))
	assert.Len(t, g.CurrentMatches(), 1)

	assert.ErrorIs(t, g.CompleteMatch(m), ErrInvalidState)
	require.NoError(t, m.SetScore(ps[3], 1))
	require.NoError(t, g.CompleteMatch(m))
	assert.Empty(t, g.CurrentMatches())

	e, err := sb.Entry(ps[3])
	require.NoError(t, err)
	assert.Equal(t, 1, e.Wins())
	assert.Equal(t, "p4", g.Winners()[0].Competitor.Name())
}

func TestTournamentGroup_Schedule(t *testing.T) {
	for _, n := range []int{2, 4, 5} {
		sb, err := ScoreboardFrom(individuals(n), 0)
		require.NoError(t, err)
		g, err := NewTournamentGroup(sb, 1)
		require.NoError(t, err)

		pairings := g.Schedule()
		assert.Len(t, pairings, n*(n-1)/2)

		seen := map[[2]string]bool{}
		perRound := map[int]map[string]bool{}
		for _, p := range pairings {
			a, b := p.Home.Name(), p.Away.Name()
			if a > b {
				a, b = b, a
			}
			key := [2]string{a, b}
			assert.False(t, seen[key], "%v played twice", key)
			seen[key] = true

			if perRound[p.Round] == nil {
				perRound[p.Round] = map[string]bool{}
			}
			assert.False(t, perRound[p.Round][a], "%s plays twice in round %d", a, p.Round)
			assert.False(t, perRound[p.Round][b], "%s plays twice in round %d", b, p.Round)
			perRound[p.Round][a], perRound[p.Round][b] = true, true
		}
	}
}

func mustScore(t *testing.T, sb *Scoreboard, c *models.Competitor) int {
	t.Helper()
	score, err := sb.Score(c)
	require.NoError(t, err)
	return score
}
