package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/metrics"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/storage"
	"github.com/google/uuid"
)

type TournamentService interface {
	CreateTournament(ctx context.Context, ownerID string, input CreateTournamentInput) (*brackets.RawTournament, error)
	GetTournament(ctx context.Context, id string) (*TournamentDetails, error)
	GetRaw(ctx context.Context, id string) (*brackets.RawTournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]repositories.TournamentSummary, error)
	DeleteTournament(ctx context.Context, userID, id string) error

	AdvancePhase(ctx context.Context, userID, id string) (*brackets.RawTournament, error)
	SetScore(ctx context.Context, userID, id, competitor string, score int) error
	StartMatch(ctx context.Context, userID, id, competitor string) error
	FinishMatch(ctx context.Context, userID, id, competitor string) error
	SwapSeeds(ctx context.Context, userID, id, competitor1, competitor2 string) error
	AddCompetitor(ctx context.Context, userID, id string, input CompetitorInput) error

	ChangeOwner(ctx context.Context, userID, id, newOwnerID string) error
	AddUser(ctx context.Context, userID, id string, input UserInput) error
	RemoveUser(ctx context.Context, userID, id, targetUserID string) error
	SetUserRole(ctx context.Context, userID, id, targetUserID string, moderator, streamer bool) error
	UploadLogo(ctx context.Context, userID, id string, file io.Reader, contentType string) (string, error)

	AutoStartScheduled(ctx context.Context, now time.Time) (int, error)
}

type UserInput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	IsStreamer  bool   `json:"isStreamer"`
	IsModerator bool   `json:"isModerator"`
	Hidden      bool   `json:"hidden"`
}

// TournamentDetails is the raw tournament plus views derived from its state.
type TournamentDetails struct {
	brackets.RawTournament
	CanModifyStartingPositions bool                     `json:"canModifyStartingPositions"`
	Groups                     []GroupView              `json:"groups,omitempty"`
	Bracket                    []*brackets.BracketMatch `json:"bracket,omitempty"`
	Winner                     *string                  `json:"winner,omitempty"`
}

type GroupView struct {
	Index    int           `json:"index"`
	Standing []string      `json:"standing"`
	Fixtures []FixtureView `json:"fixtures"`
}

type FixtureView struct {
	Round int    `json:"round"`
	Home  string `json:"home"`
	Away  string `json:"away"`
}

type session struct {
	controller *brackets.Controller
	sync       *SyncAdapter
}

func (s *session) tournament() *brackets.Tournament { return s.controller.Tournament() }

type tournamentService struct {
	repo      repositories.TournamentRepository
	uploader  storage.FileUploader
	publisher Publisher
	seeding   brackets.SeedingPolicy
	logger    *slog.Logger

	locks    *keyedMutex
	mu       sync.Mutex
	sessions map[string]*session
}

// NewTournamentService wires the service. uploader and publisher may be nil:
// logo uploads are then rejected and live tracking is off.
func NewTournamentService(
	repo repositories.TournamentRepository,
	uploader storage.FileUploader,
	publisher Publisher,
	logger *slog.Logger,
) TournamentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		repo:      repo,
		uploader:  uploader,
		publisher: publisher,
		seeding:   brackets.RotationSeeding{},
		logger:    logger.With("component", "tournament_service"),
		locks:     newKeyedMutex(),
		sessions:  make(map[string]*session),
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, ownerID string, input CreateTournamentInput) (*brackets.RawTournament, error) {
	if ownerID == "" {
		return nil, ErrAuthenticationFailed
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var layout *brackets.Layout
	var err error
	if input.Layout != nil {
		layout, err = brackets.NewLayout(*input.Layout)
	} else {
		layout, err = brackets.IdealLayout(len(input.Competitors))
	}
	if err != nil {
		return nil, mapEngineError(err)
	}

	competitors := make([]*models.Competitor, 0, len(input.Competitors))
	byName := make(map[string]*models.Competitor, len(input.Competitors))
	for _, ci := range input.Competitors {
		c := competitorFromInput(ci)
		competitors = append(competitors, c)
		byName[c.Name()] = c
	}

	var matchups [][]*models.Competitor
	for _, names := range input.StartingMatchups {
		matchup := make([]*models.Competitor, 0, len(names))
		for _, name := range names {
			matchup = append(matchup, byName[strings.TrimSpace(name)])
		}
		matchups = append(matchups, matchup)
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = models.DefaultTournamentName
	}
	t, err := brackets.NewTournament(brackets.TournamentInit{
		Owner:             ownerID,
		Meta:              models.TournamentMeta{Name: name, Description: input.Description},
		Options:           models.TournamentOptions{LiveTracking: input.LiveTracking},
		Time:              input.Time,
		QualificationTime: input.QualificationTime,
		Competitors:       competitors,
		Layout:            layout,
		StartingMatchups:  matchups,
	})
	if err != nil {
		return nil, mapEngineError(err)
	}

	if err := s.repo.Save(ctx, t); err != nil {
		return nil, mapRepoError(err)
	}
	s.logger.InfoContext(ctx, "tournament created", "tournament_id", t.ID, "owner_id", ownerID, "competitors", len(competitors))

	unlock := s.locks.Lock(t.ID)
	defer unlock()
	s.store(t)
	raw := brackets.ToRaw(t)
	return &raw, nil
}

func competitorFromInput(in CompetitorInput) *models.Competitor {
	name := strings.TrimSpace(in.Name)
	if in.Type != models.CompetitorTeam {
		return models.NewIndividual(name)
	}
	members := make([]*models.Competitor, 0, len(in.Members))
	for _, m := range in.Members {
		members = append(members, models.NewIndividual(strings.TrimSpace(m)))
	}
	return models.NewTeam(name, members)
}

func (s *tournamentService) GetTournament(ctx context.Context, id string) (*TournamentDetails, error) {
	var details *TournamentDetails
	err := s.withSession(ctx, id, func(sess *session) error {
		details = buildDetails(sess.tournament())
		return nil
	})
	return details, err
}

func buildDetails(t *brackets.Tournament) *TournamentDetails {
	d := &TournamentDetails{
		RawTournament:              brackets.ToRaw(t),
		CanModifyStartingPositions: t.CanModifyStartingPositions(),
	}
	state := t.State()
	if gs := state.Group(); gs != nil {
		for i, g := range gs.Groups() {
			view := GroupView{Index: i}
			for _, e := range g.Scoreboard().Top(g.Scoreboard().Len()) {
				view.Standing = append(view.Standing, e.Competitor.Name())
			}
			for _, p := range g.Schedule() {
				view.Fixtures = append(view.Fixtures, FixtureView{Round: p.Round, Home: p.Home.Name(), Away: p.Away.Name()})
			}
			d.Groups = append(d.Groups, view)
		}
	}
	if ms := state.Main(); ms != nil {
		d.Bracket = ms.Matches()
	}
	if f := state.Finished(); f != nil && f.Winner != nil {
		name := f.Winner.Name()
		d.Winner = &name
	}
	return d
}

func (s *tournamentService) GetRaw(ctx context.Context, id string) (*brackets.RawTournament, error) {
	var raw brackets.RawTournament
	err := s.withSession(ctx, id, func(sess *session) error {
		raw = brackets.ToRaw(sess.tournament())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &raw, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]repositories.TournamentSummary, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Phase != nil && !filter.Phase.IsValid() {
		v := make(ValidationErrors)
		v.Add("phase", "unknown phase %q", *filter.Phase)
		return nil, v
	}
	summaries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	if summaries == nil {
		return []repositories.TournamentSummary{}, nil
	}
	return summaries, nil
}

func (s *tournamentService) DeleteTournament(ctx context.Context, userID, id string) error {
	return s.withSession(ctx, id, func(sess *session) error {
		t := sess.tournament()
		if !HasOwnerPrivilege(t, userID) {
			return ErrForbiddenOperation
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return mapRepoError(err)
		}
		s.evict(id, true)
		if t.Meta.Logo != nil {
			s.deleteLogo(ctx, *t.Meta.Logo)
		}
		s.logger.InfoContext(ctx, "tournament deleted", "tournament_id", id, "user_id", userID)
		return nil
	})
}

func (s *tournamentService) AdvancePhase(ctx context.Context, userID, id string) (*brackets.RawTournament, error) {
	var raw brackets.RawTournament
	err := s.withSession(ctx, id, func(sess *session) error {
		if !HasModeratorPrivilege(sess.tournament(), userID) {
			return ErrForbiddenOperation
		}
		err := s.advance(ctx, sess)
		raw = brackets.ToRaw(sess.tournament())
		return err
	})
	if err != nil {
		return nil, err
	}
	return &raw, nil
}

// advance performs one transition. A persistence failure keeps the
// transition in memory and is returned wrapped in brackets.ErrPersistence.
func (s *tournamentService) advance(ctx context.Context, sess *session) error {
	t := sess.tournament()
	from := t.Phase()
	err := sess.controller.AdvancePhase(ctx)
	if err != nil && !errors.Is(err, brackets.ErrPersistence) {
		return mapEngineError(err)
	}
	if to := t.Phase(); to != from {
		metrics.PhaseTransitions.WithLabelValues(string(from), string(to)).Inc()
		s.logger.InfoContext(ctx, "tournament phase advanced", "tournament_id", t.ID, "from", from, "to", to)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "phase transition kept in memory only", "tournament_id", t.ID, "error", err)
		return err
	}
	if t.Phase() == models.PhaseFinished {
		s.evict(t.ID, false)
	}
	return nil
}

func (s *tournamentService) SetScore(ctx context.Context, userID, id, competitor string, score int) error {
	return s.withSession(ctx, id, func(sess *session) error {
		if !HasModeratorPrivilege(sess.tournament(), userID) {
			return ErrForbiddenOperation
		}
		return mapEngineError(sess.controller.SetScore(ctx, competitor, score))
	})
}

func (s *tournamentService) StartMatch(ctx context.Context, userID, id, competitor string) error {
	return s.withSession(ctx, id, func(sess *session) error {
		if !HasModeratorPrivilege(sess.tournament(), userID) {
			return ErrForbiddenOperation
		}
		return mapEngineError(sess.controller.StartMatch(ctx, competitor))
	})
}

func (s *tournamentService) FinishMatch(ctx context.Context, userID, id, competitor string) error {
	return s.withSession(ctx, id, func(sess *session) error {
		if !HasModeratorPrivilege(sess.tournament(), userID) {
			return ErrForbiddenOperation
		}
		return mapEngineError(sess.controller.FinishMatch(ctx, competitor))
	})
}

func (s *tournamentService) SwapSeeds(ctx context.Context, userID, id, competitor1, competitor2 string) error {
	return s.mutate(ctx, id, HasModeratorPrivilege, userID, func(t *brackets.Tournament) error {
		return t.SwapSeeds(competitor1, competitor2)
	})
}

func (s *tournamentService) AddCompetitor(ctx context.Context, userID, id string, input CompetitorInput) error {
	v := make(ValidationErrors)
	if strings.TrimSpace(input.Name) == "" {
		v.Add("name", "is required")
	}
	if input.Type != "" && !input.Type.IsValid() {
		v.Add("type", "unknown competitor type %q", input.Type)
	}
	if err := v.err(); err != nil {
		return err
	}
	return s.mutate(ctx, id, HasOwnerPrivilege, userID, func(t *brackets.Tournament) error {
		return t.AddCompetitor(competitorFromInput(input))
	})
}

func (s *tournamentService) ChangeOwner(ctx context.Context, userID, id, newOwnerID string) error {
	if strings.TrimSpace(newOwnerID) == "" {
		v := make(ValidationErrors)
		v.Add("owner", "is required")
		return v
	}
	return s.mutate(ctx, id, HasOwnerPrivilege, userID, func(t *brackets.Tournament) error {
		t.SetOwner(newOwnerID)
		return nil
	})
}

func (s *tournamentService) AddUser(ctx context.Context, userID, id string, input UserInput) error {
	if strings.TrimSpace(input.ID) == "" {
		v := make(ValidationErrors)
		v.Add("id", "is required")
		return v
	}
	return s.mutate(ctx, id, HasOwnerPrivilege, userID, func(t *brackets.Tournament) error {
		return t.AddUser(models.NewTournamentUser(models.TournamentUserInit(input)))
	})
}

func (s *tournamentService) RemoveUser(ctx context.Context, userID, id, targetUserID string) error {
	return s.mutate(ctx, id, HasOwnerPrivilege, userID, func(t *brackets.Tournament) error {
		if _, ok := t.User(targetUserID); !ok {
			return ErrNotFound
		}
		t.RemoveUser(targetUserID)
		return nil
	})
}

func (s *tournamentService) SetUserRole(ctx context.Context, userID, id, targetUserID string, moderator, streamer bool) error {
	return s.mutate(ctx, id, HasOwnerPrivilege, userID, func(t *brackets.Tournament) error {
		return t.SetUserRole(targetUserID, moderator, streamer)
	})
}

func (s *tournamentService) UploadLogo(ctx context.Context, userID, id string, file io.Reader, contentType string) (string, error) {
	if s.uploader == nil {
		return "", ErrStorageDisabled
	}
	var location string
	err := s.withSession(ctx, id, func(sess *session) error {
		t := sess.tournament()
		if !HasOwnerPrivilege(t, userID) {
			return ErrForbiddenOperation
		}
		key, err := storage.LogoKey(t.ID, t.Meta.Name, contentType)
		if err != nil {
			v := make(ValidationErrors)
			v.Add("logo", "%s", err.Error())
			return v
		}
		result, err := s.uploader.Upload(ctx, key, contentType, file)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUploadFailed, err)
		}
		if err := s.repo.UpdateLogo(ctx, t.ID, &result.Location); err != nil {
			_ = s.uploader.Delete(ctx, key)
			return mapRepoError(err)
		}
		previous := t.Meta.Logo
		t.Meta.Logo = &result.Location
		if previous != nil {
			s.deleteLogo(ctx, *previous)
		}
		location = result.Location
		return nil
	})
	return location, err
}

func (s *tournamentService) deleteLogo(ctx context.Context, location string) {
	if s.uploader == nil {
		return
	}
	key := storage.ObjectKey(s.uploader, location)
	if key == "" {
		return
	}
	if err := s.uploader.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to delete logo object", "key", key, "error", err)
	}
}

// AutoStartScheduled advances every planned tournament whose start time has
// passed and returns how many were started. Failures are logged and skipped.
func (s *tournamentService) AutoStartScheduled(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.repo.ListDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list due tournaments: %w", err)
	}
	started := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return started, ctx.Err()
		}
		advanced := false
		err := s.withSession(ctx, id, func(sess *session) error {
			t := sess.tournament()
			if t.Phase() != models.PhasePlanned || t.Time == nil || t.Time.After(now) {
				return nil
			}
			if err := s.advance(ctx, sess); err != nil {
				return err
			}
			advanced = true
			return nil
		})
		if err != nil {
			s.logger.WarnContext(ctx, "scheduled start failed", "tournament_id", id, "error", err)
			continue
		}
		if advanced {
			started++
		}
	}
	return started, nil
}

// mutate runs fn on the aggregate when allowed(userID) holds and flushes the
// changes it recorded.
func (s *tournamentService) mutate(
	ctx context.Context,
	id string,
	allowed func(*brackets.Tournament, string) bool,
	userID string,
	fn func(*brackets.Tournament) error,
) error {
	return s.withSession(ctx, id, func(sess *session) error {
		t := sess.tournament()
		if !allowed(t, userID) {
			return ErrForbiddenOperation
		}
		if err := fn(t); err != nil {
			return mapEngineError(err)
		}
		if err := sess.sync.Flush(ctx); err != nil {
			return fmt.Errorf("%w: %w", brackets.ErrPersistence, err)
		}
		return nil
	})
}

// withSession serializes fn with every other call for the same tournament.
func (s *tournamentService) withSession(ctx context.Context, id string, fn func(*session) error) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrTournamentNotFound
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return fn(sess)
}

func (s *tournamentService) load(ctx context.Context, id string) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}
	t, err := s.repo.Load(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return s.store(t), nil
}

func (s *tournamentService) store(t *brackets.Tournament) *session {
	adapter := NewSyncAdapter(t, s.repo, s.publisher, s.logger)
	sess := &session{
		controller: brackets.NewController(t, adapter, brackets.WithSeeding(s.seeding)),
		sync:       adapter,
	}
	s.mu.Lock()
	s.sessions[t.ID] = sess
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()
	return sess
}

// evict drops a session. Without force a session with unwritten changes is
// kept.
func (s *tournamentService) evict(id string, force bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || (!force && sess.sync.Pending()) {
		return
	}
	sess.sync.Close()
	delete(s.sessions, id)
	metrics.ActiveSessions.Set(float64(len(s.sessions)))
}

func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTournamentConflict),
		errors.Is(err, repositories.ErrCompetitorNameConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

// mapEngineError tags engine errors with the service error a caller reacts to.
func mapEngineError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, brackets.ErrPersistence):
		return err
	case errors.Is(err, brackets.ErrIllegalTransition):
		return fmt.Errorf("%w: %w", ErrIllegalOperation, err)
	case errors.Is(err, brackets.ErrCompetitorNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, brackets.ErrInvalidLayout),
		errors.Is(err, brackets.ErrInvalidState),
		errors.Is(err, brackets.ErrStructural),
		errors.Is(err, brackets.ErrReferential):
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	return err
}
