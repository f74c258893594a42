package brackets

import (
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

func individuals(n int) []*models.Competitor {
	out := make([]*models.Competitor, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, models.NewIndividual(fmt.Sprintf("p%d", i)))
	}
	return out
}

func names(competitors []*models.Competitor) []string {
	return competitorNames(competitors)
}

func entryNames(entries []*ScoreboardEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Competitor.Name())
	}
	return out
}

func leafPairs(tree *MatchTreeNode) [][]string {
	var pairs [][]string
	for _, leaf := range tree.Leaves() {
		pairs = append(pairs, []string{leaf.Match().Entry1().Competitor.Name(), leaf.Match().Entry2().Competitor.Name()})
	}
	return pairs
}
