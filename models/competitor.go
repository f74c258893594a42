package models

import "github.com/google/uuid"

type CompetitorType string

const (
	CompetitorIndividual CompetitorType = "individual"
	CompetitorTeam       CompetitorType = "team"
)

func (t CompetitorType) IsValid() bool {
	return t == CompetitorIndividual || t == CompetitorTeam
}

// Competitor is an entrant of a tournament: a single player or a team of
// players. Within one tournament competitors are matched by name.
type Competitor struct {
	Notifier

	ID      string
	Type    CompetitorType
	name    string
	members []*Competitor
}

func NewIndividual(name string) *Competitor {
	return &Competitor{Type: CompetitorIndividual, name: name}
}

func NewTeam(name string, members []*Competitor) *Competitor {
	return &Competitor{Type: CompetitorTeam, name: name, members: members}
}

func (c *Competitor) Name() string { return c.name }

func (c *Competitor) SetName(name string) {
	c.name = name
	c.Notify("name")
}

// Members returns the players of a team, nil for individuals.
func (c *Competitor) Members() []*Competitor { return c.members }

func (c *Competitor) SetMembers(members []*Competitor) {
	c.members = members
	c.Notify("members")
}

// EnsureID assigns a new uuid if the competitor has none yet.
func (c *Competitor) EnsureID() string {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return c.ID
}

// SameAs reports whether both competitors denote the same entrant.
func (c *Competitor) SameAs(other *Competitor) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.name == other.name
}

// MemberNames lists the names of a team's players.
func (c *Competitor) MemberNames() []string {
	names := make([]string, 0, len(c.members))
	for _, m := range c.members {
		names = append(names, m.name)
	}
	return names
}
