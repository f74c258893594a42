package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMatchTree_Shape(t *testing.T) {
	for _, n := range []int{2, 4, 8, 16} {
		tree, err := CreateMatchTree(individuals(n))
		require.NoError(t, err)

		var nodes, inner int
		tree.Walk(func(node *MatchTreeNode, _ int) {
			nodes++
			if node.IsLeaf() {
				assert.Equal(t, NodeReady, node.State())
				assert.NotNil(t, node.Match())
				return
			}
			inner++
			assert.Equal(t, NodeInactive, node.State())
			assert.Nil(t, node.Match())
			assert.Len(t, node.Children(), 2)
		})
		assert.Equal(t, n-1, nodes)
		assert.Equal(t, n/2-1, inner)
		assert.Len(t, tree.Leaves(), n/2)
		assert.Nil(t, tree.Parent())
	}
}

func TestCreateMatchTree_PairsSequentially(t *testing.T) {
	tree, err := CreateMatchTree(individuals(4))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"p1", "p2"}, {"p3", "p4"}}, leafPairs(tree))
	assert.Equal(t, 1, tree.Depth())
}

func TestCreateMatchTree_RequiresPowerOfTwo(t *testing.T) {
	for _, n := range []int{0, 1, 3, 6, 12} {
		_, err := CreateMatchTree(individuals(n))
		assert.ErrorIs(t, err, ErrStructural, "%d competitors", n)
	}
}

func TestMatchTreeNode_FinishPromotesWinners(t *testing.T) {
	ps := individuals(4)
	tree, err := CreateMatchTree(ps)
	require.NoError(t, err)
	left, right := tree.Children()[0], tree.Children()[1]

	require.NoError(t, left.Start())
	assert.Equal(t, NodeActive, left.State())
	assert.ErrorIs(t, left.Start(), ErrIllegalTransition)

	assert.ErrorIs(t, left.Finish(), ErrInvalidState, "tied match")
	require.NoError(t, left.Match().SetScore(ps[1], 3))
	require.NoError(t, left.Finish())
	assert.Equal(t, NodeFinished, left.State())
	assert.Equal(t, NodeInactive, tree.State())
	assert.Nil(t, tree.Match())

	require.NoError(t, right.Match().SetScore(ps[2], 1))
	require.NoError(t, right.Finish())
	assert.Equal(t, NodeReady, tree.State())
	require.NotNil(t, tree.Match())
	assert.Equal(t, "p2", tree.Match().Entry1().Competitor.Name())
	assert.Equal(t, "p3", tree.Match().Entry2().Competitor.Name())
	assert.Equal(t, 0, tree.Match().Entry1().Score())

	assert.ErrorIs(t, left.Finish(), ErrIllegalTransition)

	_, err = tree.Winner()
	assert.ErrorIs(t, err, ErrInvalidState)
	require.NoError(t, tree.Match().SetScore(ps[2], 2))
	require.NoError(t, tree.Finish())
	winner, err := tree.Winner()
	require.NoError(t, err)
	assert.Equal(t, "p3", winner.Name())
}

func TestMatchTreeNode_OpenNodeOf(t *testing.T) {
	ps := individuals(4)
	tree, err := CreateMatchTree(ps)
	require.NoError(t, err)

	node, err := tree.OpenNodeOf(ps[3])
	require.NoError(t, err)
	assert.Same(t, tree.Children()[1], node)

	require.NoError(t, node.Match().SetScore(ps[2], 1))
	require.NoError(t, node.Finish())
	_, err = tree.OpenNodeOf(ps[3])
	assert.ErrorIs(t, err, ErrCompetitorNotFound)
}

func TestMainState_Matches(t *testing.T) {
	tree, err := CreateMatchTree(individuals(4))
	require.NoError(t, err)
	ms, err := NewMainState(tree)
	require.NoError(t, err)

	matches := ms.Matches()
	require.Len(t, matches, 3)
	assert.Equal(t, "R1M1", matches[0].UID)
	assert.Equal(t, "R1M2", matches[1].UID)
	assert.Equal(t, "R2M1", matches[2].UID)
	assert.Equal(t, "p3", *matches[1].Participant1)
	assert.Nil(t, matches[2].Participant1)
	assert.Equal(t, "R1M1", *matches[2].SourceMatch1UID)
	assert.Equal(t, "R1M2", *matches[2].SourceMatch2UID)
}
