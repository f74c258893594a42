package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

type ListTournamentsFilter struct {
	OwnerID *string
	Phase   *models.TournamentPhase
	Limit   int
	Offset  int
}

// TournamentSummary is a list row; it is read without rebuilding the aggregate.
type TournamentSummary struct {
	ID           string                 `json:"id"`
	Owner        string                 `json:"owner"`
	Name         string                 `json:"name"`
	Logo         *string                `json:"logo,omitempty"`
	Phase        models.TournamentPhase `json:"phase"`
	Time         *time.Time             `json:"time,omitempty"`
	LiveTracking bool                   `json:"liveTracking"`
	Competitors  int                    `json:"competitors"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// TournamentRepository stores tournaments. Save writes the whole aggregate;
// the Update methods write single properties for incremental synchronization.
type TournamentRepository interface {
	Save(ctx context.Context, t *brackets.Tournament) error
	Load(ctx context.Context, id string) (*brackets.Tournament, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListTournamentsFilter) ([]TournamentSummary, error)
	ListDue(ctx context.Context, now time.Time) ([]string, error)

	UpdateOwner(ctx context.Context, id, owner string) error
	UpdateLogo(ctx context.Context, id string, logo *string) error
	UpdatePhase(ctx context.Context, id string, phase models.TournamentPhase) error
	UpdateStartingMatchups(ctx context.Context, id string, matchups [][]string) error
	UpdateUsers(ctx context.Context, id string, users []brackets.RawUser) error
	UpdatePhaseState(ctx context.Context, id string, slot brackets.StateSlot, state brackets.RawTournamentState) error
	UpdateCompetitor(ctx context.Context, tournamentID string, position int, competitor brackets.RawCompetitor) error
}

type postgresTournamentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresTournamentRepository(db *sql.DB, logger *slog.Logger) TournamentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &postgresTournamentRepository{db: db, logger: logger.With("component", "tournament_repository")}
}

func (r *postgresTournamentRepository) Save(ctx context.Context, t *brackets.Tournament) error {
	raw := brackets.ToRaw(t)
	layoutJSON, err := json.Marshal(raw.Layout)
	if err != nil {
		return fmt.Errorf("failed to encode layout: %w", err)
	}
	stateJSON, err := json.Marshal(raw.State)
	if err != nil {
		return fmt.Errorf("failed to encode phase state: %w", err)
	}
	matchupsJSON, err := nullableJSON(raw.StartingMatchups)
	if err != nil {
		return fmt.Errorf("failed to encode starting matchups: %w", err)
	}
	users, err := usersJSON(raw.Users)
	if err != nil {
		return err
	}

	return withTx(ctx, r.db, r.logger, func(tx *sql.Tx) error {
		query := `
			INSERT INTO tournaments (
				id, owner_id, name, description, logo, live_tracking, start_time, qualification_time,
				layout, phase, state, starting_matchups, users
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id) DO UPDATE SET
				owner_id = EXCLUDED.owner_id,
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				logo = EXCLUDED.logo,
				live_tracking = EXCLUDED.live_tracking,
				start_time = EXCLUDED.start_time,
				qualification_time = EXCLUDED.qualification_time,
				layout = EXCLUDED.layout,
				phase = EXCLUDED.phase,
				state = EXCLUDED.state,
				starting_matchups = EXCLUDED.starting_matchups,
				users = EXCLUDED.users,
				updated_at = now()`
		_, err := tx.ExecContext(ctx, query,
			raw.ID, raw.Owner, raw.Meta.Name, raw.Meta.Description, raw.Meta.Logo, raw.Options.LiveTracking,
			raw.Time, raw.QualificationTime, string(layoutJSON), raw.Phase, string(stateJSON), matchupsJSON, users,
		)
		if err != nil {
			return handlePQError(err)
		}

		ids := make([]string, 0, len(raw.Competitors))
		for _, c := range raw.Competitors {
			ids = append(ids, c.ID)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM competitors WHERE tournament_id = $1 AND NOT (id::text = ANY($2))`,
			raw.ID, pq.Array(ids),
		); err != nil {
			return handlePQError(err)
		}
		for position, c := range raw.Competitors {
			if err := upsertCompetitor(ctx, tx, raw.ID, position, c); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertCompetitor(ctx context.Context, exec SQLExecutor, tournamentID string, position int, c brackets.RawCompetitor) error {
	query := `
		INSERT INTO competitors (id, tournament_id, position, name, type, member_names)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			position = EXCLUDED.position,
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			member_names = EXCLUDED.member_names`
	_, err := exec.ExecContext(ctx, query, c.ID, tournamentID, position, c.Name, c.Type, pq.Array(memberNames(c)))
	return handlePQError(err)
}

func memberNames(c brackets.RawCompetitor) []string {
	names := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		names = append(names, m.Name)
	}
	return names
}

// Load reads the tournament row and its competitors concurrently and rebuilds
// the aggregate.
func (r *postgresTournamentRepository) Load(ctx context.Context, id string) (*brackets.Tournament, error) {
	var (
		raw         brackets.RawTournament
		competitors []brackets.RawCompetitor
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raw, err = r.loadTournamentRow(gCtx, id)
		return err
	})
	g.Go(func() error {
		var err error
		competitors, err = r.loadCompetitors(gCtx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	raw.Competitors = competitors
	t, err := brackets.FromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("stored tournament %s is inconsistent: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) loadTournamentRow(ctx context.Context, id string) (brackets.RawTournament, error) {
	query := `
		SELECT id, owner_id, name, description, logo, live_tracking, start_time, qualification_time,
			layout, phase, state, starting_matchups, users
		FROM tournaments
		WHERE id = $1`

	var (
		raw                          brackets.RawTournament
		logo                         sql.NullString
		startTime, qualificationTime sql.NullTime
		layoutJSON, stateJSON        []byte
		usersRaw, matchupsRaw        []byte
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&raw.ID, &raw.Owner, &raw.Meta.Name, &raw.Meta.Description, &logo, &raw.Options.LiveTracking,
		&startTime, &qualificationTime, &layoutJSON, &raw.Phase, &stateJSON, &matchupsRaw, &usersRaw,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return raw, ErrTournamentNotFound
		}
		return raw, fmt.Errorf("failed to load tournament %s: %w", id, err)
	}

	if logo.Valid {
		raw.Meta.Logo = &logo.String
	}
	if startTime.Valid {
		raw.Time = &startTime.Time
	}
	if qualificationTime.Valid {
		raw.QualificationTime = &qualificationTime.Time
	}
	if err := json.Unmarshal(layoutJSON, &raw.Layout); err != nil {
		return raw, fmt.Errorf("failed to decode layout of tournament %s: %w", id, err)
	}
	if err := json.Unmarshal(stateJSON, &raw.State); err != nil {
		return raw, fmt.Errorf("failed to decode phase state of tournament %s: %w", id, err)
	}
	if len(matchupsRaw) > 0 {
		if err := json.Unmarshal(matchupsRaw, &raw.StartingMatchups); err != nil {
			return raw, fmt.Errorf("failed to decode starting matchups of tournament %s: %w", id, err)
		}
	}
	if err := json.Unmarshal(usersRaw, &raw.Users); err != nil {
		return raw, fmt.Errorf("failed to decode users of tournament %s: %w", id, err)
	}
	if len(raw.Users) == 0 {
		raw.Users = nil
	}
	return raw, nil
}

func (r *postgresTournamentRepository) loadCompetitors(ctx context.Context, tournamentID string) ([]brackets.RawCompetitor, error) {
	query := `
		SELECT id, name, type, member_names
		FROM competitors
		WHERE tournament_id = $1
		ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitors of tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	var competitors []brackets.RawCompetitor
	for rows.Next() {
		var (
			c       brackets.RawCompetitor
			members []string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, pq.Array(&members)); err != nil {
			return nil, fmt.Errorf("failed to scan competitor: %w", err)
		}
		for _, name := range members {
			c.Members = append(c.Members, brackets.RawCompetitor{Type: models.CompetitorIndividual, Name: name})
		}
		competitors = append(competitors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during competitor rows iteration: %w", err)
	}
	return competitors, nil
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, r.logger, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM competitors WHERE tournament_id = $1`, id); err != nil {
			return handlePQError(err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
		if err != nil {
			return handlePQError(err)
		}
		return checkAffectedRows(result, ErrTournamentNotFound)
	})
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]TournamentSummary, error) {
	query := `
		SELECT t.id, t.owner_id, t.name, t.logo, t.phase, t.start_time, t.live_tracking, t.created_at,
			(SELECT count(*) FROM competitors c WHERE c.tournament_id = t.id)
		FROM tournaments t
		WHERE 1=1`

	args := []interface{}{}
	argID := 1
	if filter.OwnerID != nil {
		query += fmt.Sprintf(" AND t.owner_id = $%d", argID)
		args = append(args, *filter.OwnerID)
		argID++
	}
	if filter.Phase != nil {
		query += fmt.Sprintf(" AND t.phase = $%d", argID)
		args = append(args, *filter.Phase)
		argID++
	}
	query += " ORDER BY t.start_time DESC NULLS LAST, t.created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	summaries := make([]TournamentSummary, 0)
	for rows.Next() {
		var (
			s         TournamentSummary
			logo      sql.NullString
			startTime sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.Owner, &s.Name, &logo, &s.Phase, &startTime, &s.LiveTracking, &s.CreatedAt, &s.Competitors); err != nil {
			return nil, fmt.Errorf("failed to scan tournament summary: %w", err)
		}
		if logo.Valid {
			s.Logo = &logo.String
		}
		if startTime.Valid {
			s.Time = &startTime.Time
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration: %w", err)
	}
	return summaries, nil
}

// ListDue returns planned tournaments whose start time is not after now.
func (r *postgresTournamentRepository) ListDue(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		SELECT id FROM tournaments
		WHERE phase = $1 AND start_time IS NOT NULL AND start_time <= $2
		ORDER BY start_time`
	rows, err := r.db.QueryContext(ctx, query, models.PhasePlanned, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due tournaments: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan due tournament: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresTournamentRepository) UpdateOwner(ctx context.Context, id, owner string) error {
	return r.updateColumn(ctx, id, "owner_id", owner)
}

func (r *postgresTournamentRepository) UpdateLogo(ctx context.Context, id string, logo *string) error {
	return r.updateColumn(ctx, id, "logo", logo)
}

func (r *postgresTournamentRepository) UpdatePhase(ctx context.Context, id string, phase models.TournamentPhase) error {
	return r.updateColumn(ctx, id, "phase", phase)
}

func (r *postgresTournamentRepository) UpdateStartingMatchups(ctx context.Context, id string, matchups [][]string) error {
	js, err := nullableJSON(matchups)
	if err != nil {
		return fmt.Errorf("failed to encode starting matchups: %w", err)
	}
	return r.updateColumn(ctx, id, "starting_matchups", js)
}

func (r *postgresTournamentRepository) UpdateUsers(ctx context.Context, id string, users []brackets.RawUser) error {
	js, err := usersJSON(users)
	if err != nil {
		return err
	}
	return r.updateColumn(ctx, id, "users", js)
}

// updateColumn sets one column of a tournament row. column is never user input.
func (r *postgresTournamentRepository) updateColumn(ctx context.Context, id, column string, value interface{}) error {
	query := fmt.Sprintf(`UPDATE tournaments SET %s = $1, updated_at = now() WHERE id = $2`, column)
	result, err := r.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("failed to update %s of tournament %s: %w", column, id, handlePQError(err))
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// UpdatePhaseState writes the data of one phase slot and the current slot tag
// without touching the other slots.
func (r *postgresTournamentRepository) UpdatePhaseState(ctx context.Context, id string, slot brackets.StateSlot, state brackets.RawTournamentState) error {
	payload, err := SlotPayload(slot, state)
	if err != nil {
		return err
	}
	query := `
		UPDATE tournaments SET
			state = jsonb_set(jsonb_set(state, '{current}', to_jsonb($2::text), true), $3::text[], $4::jsonb, true),
			updated_at = now()
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, string(state.Current), pq.Array([]string{string(slot)}), string(payload))
	if err != nil {
		return fmt.Errorf("failed to update %s state of tournament %s: %w", slot, id, handlePQError(err))
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// SlotPayload encodes the data of one slot of state.
func SlotPayload(slot brackets.StateSlot, state brackets.RawTournamentState) ([]byte, error) {
	var v interface{}
	switch slot {
	case brackets.SlotQualification:
		v = state.Qualification
	case brackets.SlotGroup:
		v = state.Group
	case brackets.SlotMain:
		v = state.Main
	case brackets.SlotFinished:
		v = state.Finished
	default:
		return nil, fmt.Errorf("unknown phase state slot %q", slot)
	}
	js, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s state: %w", slot, err)
	}
	return js, nil
}

func (r *postgresTournamentRepository) UpdateCompetitor(ctx context.Context, tournamentID string, position int, competitor brackets.RawCompetitor) error {
	query := `
		UPDATE competitors SET name = $1, type = $2, member_names = $3, position = $4
		WHERE id = $5 AND tournament_id = $6`
	result, err := r.db.ExecContext(ctx, query,
		competitor.Name, competitor.Type, pq.Array(memberNames(competitor)), position, competitor.ID, tournamentID,
	)
	if err != nil {
		return handlePQError(err)
	}
	return checkAffectedRows(result, ErrCompetitorNotFound)
}

// nullableJSON encodes nil matchups as SQL NULL.
func nullableJSON(v [][]string) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	js, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(js), nil
}

func usersJSON(users []brackets.RawUser) (string, error) {
	if users == nil {
		users = []brackets.RawUser{}
	}
	js, err := json.Marshal(users)
	if err != nil {
		return "", fmt.Errorf("failed to encode users: %w", err)
	}
	return string(js), nil
}
