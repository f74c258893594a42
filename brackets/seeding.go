package brackets

import "github.com/Dosada05/tournament-engine/models"

// SeedingPolicy turns the group phase result into the bracket seed order.
type SeedingPolicy interface {
	BracketSeeds(result [][]*models.Competitor, winnersPerGroup, numGroups int) ([]*models.Competitor, error)
	Name() string
}

// RotationSeeding regroups winners by placement, rotates the runners-up by one
// position and pairs them with the group winners, so no first-round match is
// a rematch of a group.
type RotationSeeding struct{}

func (RotationSeeding) Name() string { return "rotation" }

func (RotationSeeding) BracketSeeds(result [][]*models.Competitor, winnersPerGroup, numGroups int) ([]*models.Competitor, error) {
	byPlacement, err := groupByIndex(result, winnersPerGroup)
	if err != nil {
		return nil, invalidState("group result is incomplete: %v", err)
	}
	if len(byPlacement) > 1 {
		byPlacement[1] = rotateLeft(byPlacement[1])
	}
	matchups, err := groupByIndex(byPlacement, numGroups)
	if err != nil {
		return nil, invalidState("group result is incomplete: %v", err)
	}
	return flatten(matchups), nil
}
