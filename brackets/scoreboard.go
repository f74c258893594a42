package brackets

import (
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-engine/models"
)

// ScoreboardEntry is the score and win count of one competitor.
type ScoreboardEntry struct {
	models.Notifier

	Competitor *models.Competitor
	score      int
	wins       int
}

func NewScoreboardEntry(competitor *models.Competitor, score, wins int) (*ScoreboardEntry, error) {
	if competitor == nil {
		return nil, invalidState("scoreboard entry without competitor")
	}
	if score < 0 || wins < 0 {
		return nil, invalidState("negative score or wins for %q", competitor.Name())
	}
	return &ScoreboardEntry{Competitor: competitor, score: score, wins: wins}, nil
}

func (e *ScoreboardEntry) Score() int { return e.score }
func (e *ScoreboardEntry) Wins() int  { return e.wins }

func (e *ScoreboardEntry) SetScore(score int) error {
	if score < 0 {
		return invalidState("score of %q cannot be negative (%d)", e.Competitor.Name(), score)
	}
	e.score = score
	e.Notify("score")
	return nil
}

func (e *ScoreboardEntry) SetWins(wins int) error {
	if wins < 0 {
		return invalidState("wins of %q cannot be negative (%d)", e.Competitor.Name(), wins)
	}
	e.wins = wins
	e.Notify("wins")
	return nil
}

// Scoreboard is a set of entries, one per competitor. Entry order is the seed
// order and is used to break ties.
type Scoreboard struct {
	models.Notifier

	entries []*ScoreboardEntry
}

func NewScoreboard(entries []*ScoreboardEntry) (*Scoreboard, error) {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e == nil {
			return nil, invalidState("nil scoreboard entry")
		}
		name := e.Competitor.Name()
		if _, dup := seen[name]; dup {
			return nil, invalidState("competitor %q appears twice on a scoreboard", name)
		}
		seen[name] = struct{}{}
	}
	sb := &Scoreboard{entries: entries}
	for _, e := range entries {
		sb.Pass(e)
	}
	return sb, nil
}

// ScoreboardFrom creates a scoreboard with every competitor at initialScore.
func ScoreboardFrom(competitors []*models.Competitor, initialScore int) (*Scoreboard, error) {
	entries := make([]*ScoreboardEntry, 0, len(competitors))
	for _, c := range competitors {
		e, err := NewScoreboardEntry(c, initialScore, 0)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return NewScoreboard(entries)
}

func (s *Scoreboard) Len() int { return len(s.entries) }

func (s *Scoreboard) Entries() []*ScoreboardEntry {
	out := make([]*ScoreboardEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Top returns up to k entries ordered by score, then wins, both descending.
// Equal entries keep their seed order.
func (s *Scoreboard) Top(k int) []*ScoreboardEntry {
	ranked := s.Entries()
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].wins > ranked[j].wins
	})
	if k < 0 {
		k = 0
	}
	if k > len(ranked) {
		k = len(ranked)
	}
	return ranked[:k]
}

// TopStrict is Top but fails when fewer than k entries exist.
func (s *Scoreboard) TopStrict(k int) ([]*ScoreboardEntry, error) {
	if k > len(s.entries) {
		return nil, invalidState("requested top %d of a scoreboard with %d entries", k, len(s.entries))
	}
	return s.Top(k), nil
}

func (s *Scoreboard) Entry(competitor *models.Competitor) (*ScoreboardEntry, error) {
	for _, e := range s.entries {
		if e.Competitor.SameAs(competitor) {
			return e, nil
		}
	}
	name := "<nil>"
	if competitor != nil {
		name = competitor.Name()
	}
	return nil, fmt.Errorf("%w: %q is not on the scoreboard", ErrCompetitorNotFound, name)
}

func (s *Scoreboard) Score(competitor *models.Competitor) (int, error) {
	e, err := s.Entry(competitor)
	if err != nil {
		return 0, err
	}
	return e.score, nil
}

func (s *Scoreboard) SetScore(competitor *models.Competitor, score int) error {
	e, err := s.Entry(competitor)
	if err != nil {
		return err
	}
	return e.SetScore(score)
}

// UpdateScore applies fn to the previous score of competitor.
func (s *Scoreboard) UpdateScore(competitor *models.Competitor, fn func(prev int) int) error {
	e, err := s.Entry(competitor)
	if err != nil {
		return err
	}
	return e.SetScore(fn(e.score))
}

func (s *Scoreboard) AddWin(competitor *models.Competitor) error {
	e, err := s.Entry(competitor)
	if err != nil {
		return err
	}
	return e.SetWins(e.wins + 1)
}

func (s *Scoreboard) Competitors() []*models.Competitor {
	out := make([]*models.Competitor, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Competitor)
	}
	return out
}

func (s *Scoreboard) Has(competitor *models.Competitor) bool {
	_, err := s.Entry(competitor)
	return err == nil
}

// Match is a scoreboard of exactly two entries.
type Match struct {
	*Scoreboard
}

func NewMatch(entry1, entry2 *ScoreboardEntry) (*Match, error) {
	sb, err := NewScoreboard([]*ScoreboardEntry{entry1, entry2})
	if err != nil {
		return nil, err
	}
	return &Match{Scoreboard: sb}, nil
}

// CreateMatch pairs two competitors at zero score.
func CreateMatch(competitor1, competitor2 *models.Competitor) (*Match, error) {
	e1, err := NewScoreboardEntry(competitor1, 0, 0)
	if err != nil {
		return nil, err
	}
	e2, err := NewScoreboardEntry(competitor2, 0, 0)
	if err != nil {
		return nil, err
	}
	return NewMatch(e1, e2)
}

func (m *Match) Entry1() *ScoreboardEntry { return m.entries[0] }
func (m *Match) Entry2() *ScoreboardEntry { return m.entries[1] }

// Winner is the entry ranked first. For a tie it is Entry1.
func (m *Match) Winner() *ScoreboardEntry { return m.Top(1)[0] }

func (m *Match) Loser() *ScoreboardEntry { return m.Top(2)[1] }

// Decided reports whether the scores differ.
func (m *Match) Decided() bool {
	return m.entries[0].score != m.entries[1].score
}

// Involves reports whether competitor plays in the match.
func (m *Match) Involves(competitor *models.Competitor) bool {
	return m.Has(competitor)
}
