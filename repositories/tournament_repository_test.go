package repositories

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlePQError(t *testing.T) {
	assert.NoError(t, handlePQError(nil))

	err := handlePQError(&pq.Error{Code: pqUniqueViolation, Constraint: "competitors_tournament_name_key"})
	assert.ErrorIs(t, err, ErrCompetitorNameConflict)

	err = handlePQError(&pq.Error{Code: pqUniqueViolation, Constraint: "tournaments_pkey"})
	assert.ErrorIs(t, err, ErrTournamentConflict)

	err = handlePQError(&pq.Error{Code: pqForeignKeyViolation, Constraint: "competitors_tournament_id_fkey"})
	assert.ErrorIs(t, err, ErrInvalidReference)

	other := errors.New("connection refused")
	assert.Same(t, other, handlePQError(other))
}

func TestSlotPayload(t *testing.T) {
	state := brackets.RawTournamentState{
		Current:  brackets.SlotFinished,
		Finished: &brackets.RawFinishedState{Winner: "p1"},
	}

	js, err := SlotPayload(brackets.SlotFinished, state)
	require.NoError(t, err)
	var finished brackets.RawFinishedState
	require.NoError(t, json.Unmarshal(js, &finished))
	assert.Equal(t, "p1", finished.Winner)

	js, err = SlotPayload(brackets.SlotGroup, state)
	require.NoError(t, err)
	assert.Equal(t, "null", string(js))

	_, err = SlotPayload(brackets.SlotNone, state)
	assert.Error(t, err)
}

func TestEncodingHelpers(t *testing.T) {
	v, err := nullableJSON(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = nullableJSON([][]string{{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, `[["a","b"]]`, v)

	users, err := usersJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", users)

	assert.Equal(t, []string{"ann", "bob"}, memberNames(brackets.RawCompetitor{
		Name:    "red",
		Members: []brackets.RawCompetitor{{Name: "ann"}, {Name: "bob"}},
	}))
}

func TestSchemaIsEmbedded(t *testing.T) {
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS tournaments")
	assert.Contains(t, schema, "competitors_tournament_name_key")
}
