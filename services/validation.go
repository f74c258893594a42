package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 2000
	maxCompetitors       = 1024
)

// ValidationErrors maps a request field to its problems. It matches
// ErrValidationFailed with errors.Is.
type ValidationErrors map[string][]string

func (v ValidationErrors) Add(field, format string, args ...interface{}) {
	v[field] = append(v[field], fmt.Sprintf(format, args...))
}

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(v[f], "; ")))
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(parts, ", "))
}

func (v ValidationErrors) Is(target error) bool { return target == ErrValidationFailed }

func (v ValidationErrors) err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

type CompetitorInput struct {
	Name    string                `json:"name"`
	Type    models.CompetitorType `json:"type"`
	Members []string              `json:"members,omitempty"`
}

// CreateTournamentInput is the request to create a tournament. A nil Layout
// is replaced by the ideal layout for the number of competitors.
type CreateTournamentInput struct {
	Name              string               `json:"name"`
	Description       string               `json:"description"`
	Time              *time.Time           `json:"time,omitempty"`
	QualificationTime *time.Time           `json:"qualificationTime,omitempty"`
	LiveTracking      bool                 `json:"liveTracking"`
	Competitors       []CompetitorInput    `json:"competitors"`
	Layout            *brackets.LayoutInit `json:"layout,omitempty"`
	StartingMatchups  [][]string           `json:"startingMatchups,omitempty"`
}

// Validate checks the request shape. Layout rules and seed resolution are
// enforced again by the aggregate.
func (in *CreateTournamentInput) Validate() error {
	v := make(ValidationErrors)

	if len(strings.TrimSpace(in.Name)) > maxNameLength {
		v.Add("name", "must not be longer than %d characters", maxNameLength)
	}
	if len(in.Description) > maxDescriptionLength {
		v.Add("description", "must not be longer than %d characters", maxDescriptionLength)
	}
	if in.QualificationTime != nil {
		if !in.hasQualification() {
			v.Add("qualificationTime", "requires a qualification phase")
		}
		if in.Time != nil && in.QualificationTime.After(*in.Time) {
			v.Add("qualificationTime", "must not be after the tournament time")
		}
	}

	names := make(map[string]struct{}, len(in.Competitors))
	if len(in.Competitors) > maxCompetitors {
		v.Add("competitors", "must not contain more than %d entries", maxCompetitors)
	}
	for i, c := range in.Competitors {
		field := fmt.Sprintf("competitors[%d]", i)
		name := strings.TrimSpace(c.Name)
		switch {
		case name == "":
			v.Add(field, "name is required")
		case len(name) > maxNameLength:
			v.Add(field, "name must not be longer than %d characters", maxNameLength)
		default:
			if _, dup := names[name]; dup {
				v.Add(field, "name %q is used twice", name)
			}
			names[name] = struct{}{}
		}
		if c.Type != "" && !c.Type.IsValid() {
			v.Add(field, "unknown competitor type %q", c.Type)
		}
		if c.Type != models.CompetitorTeam && len(c.Members) > 0 {
			v.Add(field, "only teams have members")
		}
		for _, m := range c.Members {
			if strings.TrimSpace(m) == "" {
				v.Add(field, "member names must not be empty")
				break
			}
		}
	}

	if in.Layout != nil {
		if _, err := brackets.NewLayout(*in.Layout); err != nil {
			v.Add("layout", "%s", layoutReason(err))
		} else if len(in.Competitors) > in.Layout.Competitors {
			v.Add("competitors", "%d competitors exceed the layout size of %d", len(in.Competitors), in.Layout.Competitors)
		}
	} else if _, err := brackets.IdealLayout(len(in.Competitors)); err != nil {
		v.Add("layout", "is required unless an even number of at least two competitors is given")
	}

	for i, matchup := range in.StartingMatchups {
		for _, name := range matchup {
			if _, ok := names[strings.TrimSpace(name)]; !ok {
				v.Add(fmt.Sprintf("startingMatchups[%d]", i), "%q is not a competitor", name)
			}
		}
	}

	return v.err()
}

func (in *CreateTournamentInput) hasQualification() bool {
	if in.Layout != nil {
		return in.Layout.HasQualificationPhase
	}
	l, err := brackets.IdealLayout(len(in.Competitors))
	return err == nil && l.HasQualificationPhase()
}

func layoutReason(err error) string {
	if le, ok := err.(*brackets.InvalidLayoutError); ok {
		return le.Reason
	}
	return err.Error()
}
