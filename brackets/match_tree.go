package brackets

import (
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

type NodeState string

const (
	NodeInactive NodeState = "inactive"
	NodeReady    NodeState = "ready"
	NodeActive   NodeState = "active"
	NodeFinished NodeState = "finished"
)

func (s NodeState) IsValid() bool {
	switch s {
	case NodeInactive, NodeReady, NodeActive, NodeFinished:
		return true
	}
	return false
}

// MatchTreeNode is a node of a single-elimination bracket. Leaves start ready
// with a seeded match; inner nodes stay inactive until both children finished.
type MatchTreeNode struct {
	models.Notifier

	state       NodeState
	match       *Match
	children    []*MatchTreeNode
	parent      *MatchTreeNode
	unpassMatch func()
}

func newMatchTreeNode(state NodeState, match *Match, children []*MatchTreeNode) *MatchTreeNode {
	n := &MatchTreeNode{state: state, children: children}
	for _, child := range children {
		child.parent = n
		n.Pass(child)
	}
	n.attachMatch(match)
	return n
}

// NewStartingNode wraps a seeded match into a ready leaf.
func NewStartingNode(match *Match) *MatchTreeNode {
	return newMatchTreeNode(NodeReady, match, nil)
}

// NewInnerNode joins two subtrees under an inactive node.
func NewInnerNode(left, right *MatchTreeNode) *MatchTreeNode {
	return newMatchTreeNode(NodeInactive, nil, []*MatchTreeNode{left, right})
}

func (n *MatchTreeNode) State() NodeState       { return n.state }
func (n *MatchTreeNode) Match() *Match          { return n.match }
func (n *MatchTreeNode) Parent() *MatchTreeNode { return n.parent }
func (n *MatchTreeNode) IsLeaf() bool           { return len(n.children) == 0 }

func (n *MatchTreeNode) Children() []*MatchTreeNode {
	out := make([]*MatchTreeNode, len(n.children))
	copy(out, n.children)
	return out
}

func (n *MatchTreeNode) attachMatch(match *Match) {
	if n.unpassMatch != nil {
		n.unpassMatch()
		n.unpassMatch = nil
	}
	n.match = match
	if match != nil {
		n.unpassMatch = n.Pass(match)
	}
}

func (n *MatchTreeNode) setMatch(match *Match) {
	n.attachMatch(match)
	n.Notify("match")
}

func (n *MatchTreeNode) setState(state NodeState) {
	n.state = state
	n.Notify("state")
}

// Start marks a ready match as being played.
func (n *MatchTreeNode) Start() error {
	if n.state != NodeReady {
		return fmt.Errorf("%w: only ready matches can start, node is %s", ErrIllegalTransition, n.state)
	}
	n.setState(NodeActive)
	return nil
}

// Finish closes a ready or active match. Ties are rejected. When the sibling
// has finished too, the parent receives a match between both winners.
func (n *MatchTreeNode) Finish() error {
	if n.state != NodeReady && n.state != NodeActive {
		return fmt.Errorf("%w: cannot finish a %s match", ErrIllegalTransition, n.state)
	}
	if n.match == nil {
		return invalidState("node has no match")
	}
	if !n.match.Decided() {
		return invalidState("match %s vs %s is tied", n.match.Entry1().Competitor.Name(), n.match.Entry2().Competitor.Name())
	}
	n.setState(NodeFinished)
	return n.parent.promote()
}

func (n *MatchTreeNode) promote() error {
	if n == nil || n.state != NodeInactive {
		return nil
	}
	left, right := n.children[0], n.children[1]
	if left.state != NodeFinished || right.state != NodeFinished {
		return nil
	}
	match, err := CreateMatch(left.match.Winner().Competitor, right.match.Winner().Competitor)
	if err != nil {
		return err
	}
	n.setMatch(match)
	n.setState(NodeReady)
	return nil
}

// Winner of a finished node.
func (n *MatchTreeNode) Winner() (*models.Competitor, error) {
	if n.state != NodeFinished || n.match == nil {
		return nil, invalidState("match is not finished")
	}
	return n.match.Winner().Competitor, nil
}

// Walk visits the subtree depth-first, parents before children.
func (n *MatchTreeNode) Walk(fn func(node *MatchTreeNode, depth int)) {
	n.walk(fn, 0)
}

func (n *MatchTreeNode) walk(fn func(*MatchTreeNode, int), depth int) {
	fn(n, depth)
	for _, child := range n.children {
		child.walk(fn, depth+1)
	}
}

// Leaves returns the starting nodes from left to right.
func (n *MatchTreeNode) Leaves() []*MatchTreeNode {
	var leaves []*MatchTreeNode
	n.Walk(func(node *MatchTreeNode, _ int) {
		if node.IsLeaf() {
			leaves = append(leaves, node)
		}
	})
	return leaves
}

// Depth is the number of edges from n to its deepest leaf.
func (n *MatchTreeNode) Depth() int {
	depth := 0
	n.Walk(func(_ *MatchTreeNode, d int) {
		if d > depth {
			depth = d
		}
	})
	return depth
}

// OpenNodeOf returns the unfinished node whose match involves competitor.
func (n *MatchTreeNode) OpenNodeOf(competitor *models.Competitor) (*MatchTreeNode, error) {
	var found *MatchTreeNode
	n.Walk(func(node *MatchTreeNode, _ int) {
		if found != nil || node.match == nil || node.state == NodeFinished || node.state == NodeInactive {
			return
		}
		if node.match.Involves(competitor) {
			found = node
		}
	})
	if found == nil {
		return nil, fmt.Errorf("%w: %q has no open bracket match", ErrCompetitorNotFound, competitor.Name())
	}
	return found, nil
}

// CreateMatchTree builds a balanced single-elimination tree: consecutive
// competitors are paired into ready leaves, then nodes are paired bottom-up
// until one root remains.
func CreateMatchTree(competitors []*models.Competitor) (*MatchTreeNode, error) {
	if len(competitors) < 2 || !isPowerOfTwo(len(competitors)) {
		return nil, fmt.Errorf("%w: number of competitors must be a power of 2 to create match tree, got %d", ErrStructural, len(competitors))
	}
	nodes := make([]*MatchTreeNode, 0, len(competitors)/2)
	for i := 0; i < len(competitors); i += 2 {
		match, err := CreateMatch(competitors[i], competitors[i+1])
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, NewStartingNode(match))
	}
	for len(nodes) > 1 {
		next := make([]*MatchTreeNode, 0, len(nodes)/2)
		for i := 0; i < len(nodes); i += 2 {
			next = append(next, NewInnerNode(nodes[i], nodes[i+1]))
		}
		nodes = next
	}
	return nodes[0], nil
}

// BracketMatch is a flat view of one tree node for display.
type BracketMatch struct {
	UID          string    `json:"uid"`
	Round        int       `json:"round"`
	OrderInRound int       `json:"order_in_round"`
	State        NodeState `json:"state"`

	Participant1 *string `json:"participant1,omitempty"`
	Participant2 *string `json:"participant2,omitempty"`
	Score1       int     `json:"score1"`
	Score2       int     `json:"score2"`

	SourceMatch1UID *string `json:"source_match1_uid,omitempty"`
	SourceMatch2UID *string `json:"source_match2_uid,omitempty"`
}

// MainState is the bracket phase.
type MainState struct {
	models.Notifier

	tree *MatchTreeNode
}

func NewMainState(tree *MatchTreeNode) (*MainState, error) {
	if tree == nil {
		return nil, fmt.Errorf("%w: main state without match tree", ErrStructural)
	}
	s := &MainState{tree: tree}
	s.Pass(tree)
	return s, nil
}

func (s *MainState) Tree() *MatchTreeNode { return s.tree }

// Winner is the winner of the final once it finished.
func (s *MainState) Winner() (*models.Competitor, error) {
	return s.tree.Winner()
}

// Matches lists the bracket round by round, first round first.
func (s *MainState) Matches() []*BracketMatch {
	maxDepth := s.tree.Depth()
	layers := make([][]*MatchTreeNode, maxDepth+1)
	s.tree.Walk(func(node *MatchTreeNode, depth int) {
		layers[depth] = append(layers[depth], node)
	})

	uids := make(map[*MatchTreeNode]string)
	matches := make([]*BracketMatch, 0)
	for depth := maxDepth; depth >= 0; depth-- {
		round := maxDepth - depth + 1
		for i, node := range layers[depth] {
			uid := fmt.Sprintf("R%dM%d", round, i+1)
			uids[node] = uid
			bm := &BracketMatch{UID: uid, Round: round, OrderInRound: i + 1, State: node.state}
			if node.match != nil {
				p1, p2 := node.match.Entry1().Competitor.Name(), node.match.Entry2().Competitor.Name()
				bm.Participant1, bm.Participant2 = &p1, &p2
				bm.Score1, bm.Score2 = node.match.Entry1().Score(), node.match.Entry2().Score()
			}
			if !node.IsLeaf() {
				src1, src2 := uids[node.children[0]], uids[node.children[1]]
				bm.SourceMatch1UID, bm.SourceMatch2UID = &src1, &src2
			}
			matches = append(matches, bm)
		}
	}
	return matches
}

// FinishedState records the tournament winner.
type FinishedState struct {
	Winner *models.Competitor
}
