package brackets

import (
	"encoding/json"
	"fmt"
)

// LayoutInit is the declarative shape of a tournament.
type LayoutInit struct {
	Competitors                   int  `json:"numCompetitors"`
	HasGroupPhase                 bool `json:"hasGroupPhase"`
	Groups                        int  `json:"numGroups,omitempty"`
	WinnersPerGroup               int  `json:"winnersPerGroup,omitempty"`
	HasQualificationPhase         bool `json:"hasQualificationPhase"`
	CompetitorsAfterQualification int  `json:"competitorsAfterQualification,omitempty"`
}

// Layout is a validated, immutable LayoutInit.
type Layout struct {
	init LayoutInit
}

// NewLayout validates init and returns an *InvalidLayoutError on any violation.
func NewLayout(init LayoutInit) (*Layout, error) {
	if reason := validateLayout(init); reason != "" {
		return nil, &InvalidLayoutError{Layout: init, Reason: reason}
	}
	return &Layout{init: init}, nil
}

// MustLayout is NewLayout for static configurations; it panics on error.
func MustLayout(init LayoutInit) *Layout {
	l, err := NewLayout(init)
	if err != nil {
		panic(err)
	}
	return l
}

func validateLayout(l LayoutInit) string {
	if l.Competitors < 2 {
		return "at least two competitors are required"
	}
	entering := l.Competitors
	if l.HasQualificationPhase {
		if l.CompetitorsAfterQualification < 2 {
			return "at least two competitors must pass the qualification"
		}
		if l.CompetitorsAfterQualification > l.Competitors {
			return "more competitors must pass the qualification than exist"
		}
		entering = l.CompetitorsAfterQualification
	}
	if !l.HasGroupPhase {
		if !isPowerOfTwo(entering) {
			return fmt.Sprintf("%d competitors cannot form a bracket, a power of two is required", entering)
		}
		return ""
	}
	if !isPowerOfTwo(l.Groups) {
		return "number of groups must be a power of two"
	}
	if !isPowerOfTwo(l.WinnersPerGroup) {
		return "winners per group must be a power of two"
	}
	if entering%l.Groups != 0 {
		return fmt.Sprintf("%d groups do not divide %d competitors", l.Groups, entering)
	}
	if l.WinnersPerGroup >= entering/l.Groups {
		return "winners per group must be less than the group size"
	}
	return ""
}

func (l *Layout) Init() LayoutInit            { return l.init }
func (l *Layout) Competitors() int            { return l.init.Competitors }
func (l *Layout) HasGroupPhase() bool         { return l.init.HasGroupPhase }
func (l *Layout) Groups() int                 { return l.init.Groups }
func (l *Layout) WinnersPerGroup() int        { return l.init.WinnersPerGroup }
func (l *Layout) HasQualificationPhase() bool { return l.init.HasQualificationPhase }

func (l *Layout) CompetitorsAfterQualification() int {
	return l.init.CompetitorsAfterQualification
}

// CompetitorsEnteringGroups is the number of competitors after the optional
// qualification phase.
func (l *Layout) CompetitorsEnteringGroups() int {
	if l.init.HasQualificationPhase {
		return l.init.CompetitorsAfterQualification
	}
	return l.init.Competitors
}

// GroupSize is zero for layouts without group phase.
func (l *Layout) GroupSize() int {
	if !l.init.HasGroupPhase || l.init.Groups == 0 {
		return 0
	}
	return l.CompetitorsEnteringGroups() / l.init.Groups
}

// BracketSize is the number of competitors entering the main bracket.
func (l *Layout) BracketSize() int {
	if l.init.HasGroupPhase {
		return l.init.Groups * l.init.WinnersPerGroup
	}
	return l.CompetitorsEnteringGroups()
}

func (l *Layout) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.init)
}

// IsIdealCompetitorCount reports whether n competitors fit groups of four or
// five without qualification: n is a power of two, or five times a power of
// two other than five itself.
func IsIdealCompetitorCount(n int) bool {
	return isPowerOfTwo(n) || (n > 5 && n%5 == 0 && isPowerOfTwo(n/5))
}

func NextIdealCompetitorCount(n int) int {
	if n < 2 {
		return 2
	}
	if n%2 == 1 {
		n++
	}
	for !IsIdealCompetitorCount(n) {
		n += 2
	}
	return n
}

// PrevIdealCompetitorCount returns false when n < 2.
func PrevIdealCompetitorCount(n int) (int, bool) {
	if n < 2 {
		return 0, false
	}
	if n%2 == 1 {
		n--
	}
	for !IsIdealCompetitorCount(n) {
		n -= 2
	}
	return n, true
}

// IdealLayout proposes a layout for n competitors: a qualification phase down
// to the previous ideal count when n is not ideal, and groups of four or five
// with two winners each when more than four competitors remain.
func IdealLayout(n int) (*Layout, error) {
	if n < 2 || n%2 == 1 {
		return nil, &InvalidLayoutError{
			Layout: LayoutInit{Competitors: n},
			Reason: "an even number of at least two competitors is required",
		}
	}
	init := LayoutInit{Competitors: n}
	entering := n
	if !IsIdealCompetitorCount(n) {
		init.HasQualificationPhase = true
		entering, _ = PrevIdealCompetitorCount(n)
		init.CompetitorsAfterQualification = entering
	}
	if entering > 4 {
		init.HasGroupPhase = true
		init.Groups = largestPowerOfTwoAtMost(entering / 4)
		init.WinnersPerGroup = 2
	}
	return NewLayout(init)
}
