package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/live"
	"github.com/Dosada05/tournament-engine/metrics"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
)

// Publisher delivers change messages to live tracking clients.
type Publisher interface {
	Publish(tournamentID, msgType string, payload interface{})
}

type pendingChange int

const (
	changeOwner pendingChange = iota
	changePhase
	changeStartingMatchups
	changeUsers
	changeCompetitorDetails
)

var slotOrder = []brackets.StateSlot{
	brackets.SlotQualification,
	brackets.SlotGroup,
	brackets.SlotMain,
	brackets.SlotFinished,
}

// SyncAdapter records the properties changed on a tournament and writes them
// to the repository on Flush, one column or phase slot at a time. Changes it
// cannot attribute, and any change after a failed flush, are written with a
// full Save.
type SyncAdapter struct {
	tournament  *brackets.Tournament
	repo        repositories.TournamentRepository
	publisher   Publisher
	logger      *slog.Logger
	unsubscribe func()

	pending map[pendingChange]struct{}
	slots   map[brackets.StateSlot]struct{}
	full    bool
	dirty   bool
}

func NewSyncAdapter(t *brackets.Tournament, repo repositories.TournamentRepository, publisher Publisher, logger *slog.Logger) *SyncAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &SyncAdapter{
		tournament: t,
		repo:       repo,
		publisher:  publisher,
		logger:     logger.With("component", "sync_adapter", "tournament_id", t.ID),
		pending:    make(map[pendingChange]struct{}),
		slots:      make(map[brackets.StateSlot]struct{}),
	}
	a.unsubscribe = t.Subscribe(a.record, true)
	return a
}

// Close stops recording changes.
func (a *SyncAdapter) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

func (a *SyncAdapter) record(e models.ChangeEvent) {
	switch e.Property {
	case "owner":
		a.pending[changeOwner] = struct{}{}
	case "phase":
		a.pending[changePhase] = struct{}{}
	case "startingMatchups":
		a.pending[changeStartingMatchups] = struct{}{}
	case "users", "isStreamer", "isModerator", "hidden":
		a.pending[changeUsers] = struct{}{}
	case "name", "members":
		a.pending[changeCompetitorDetails] = struct{}{}
	case string(brackets.SlotQualification), string(brackets.SlotGroup), string(brackets.SlotMain), string(brackets.SlotFinished):
		a.slots[brackets.StateSlot(e.Property)] = struct{}{}
	case "current":
		// always emitted together with the slot property
	case "score", "wins", "currentMatches", "match", "state":
		if slot := a.tournament.State().CurrentSlot(); slot != brackets.SlotNone {
			a.slots[slot] = struct{}{}
		} else {
			a.full = true
		}
	default:
		a.full = true
	}
}

// Pending reports whether a Flush would write anything.
func (a *SyncAdapter) Pending() bool {
	return a.full || a.dirty || len(a.pending) > 0 || len(a.slots) > 0
}

// MarkDirty forces the next Flush to write the whole tournament.
func (a *SyncAdapter) MarkDirty() { a.dirty = true }

// Save implements brackets.Saver.
func (a *SyncAdapter) Save(ctx context.Context, _ *brackets.Tournament) error {
	return a.Flush(ctx)
}

// Flush writes the recorded changes and publishes them to live tracking
// clients. On failure the adapter stays dirty until a full Save succeeds.
func (a *SyncAdapter) Flush(ctx context.Context) error {
	if !a.Pending() {
		return nil
	}
	_, phaseChanged := a.pending[changePhase]

	var err error
	if a.full || a.dirty {
		err = a.repo.Save(ctx, a.tournament)
	} else {
		err = a.writeIncremental(ctx)
	}
	if err != nil {
		a.dirty = true
		metrics.PersistenceFailures.WithLabelValues("flush").Inc()
		a.logger.ErrorContext(ctx, "failed to persist tournament changes", "error", err)
		return err
	}

	a.full, a.dirty = false, false
	clear(a.pending)
	clear(a.slots)
	a.publish(phaseChanged)
	return nil
}

func (a *SyncAdapter) writeIncremental(ctx context.Context) error {
	t := a.tournament
	raw := brackets.ToRaw(t)

	var errs []error
	if _, ok := a.pending[changeOwner]; ok {
		errs = append(errs, a.repo.UpdateOwner(ctx, t.ID, t.Owner()))
	}
	if _, ok := a.pending[changeStartingMatchups]; ok {
		errs = append(errs, a.repo.UpdateStartingMatchups(ctx, t.ID, raw.StartingMatchups))
	}
	if _, ok := a.pending[changeUsers]; ok {
		errs = append(errs, a.repo.UpdateUsers(ctx, t.ID, raw.Users))
	}
	if _, ok := a.pending[changeCompetitorDetails]; ok {
		for i, c := range raw.Competitors {
			errs = append(errs, a.repo.UpdateCompetitor(ctx, t.ID, i, c))
		}
	}
	for _, slot := range slotOrder {
		if _, ok := a.slots[slot]; ok {
			errs = append(errs, a.repo.UpdatePhaseState(ctx, t.ID, slot, raw.State))
		}
	}
	// phase last so a reader never sees a phase without its state
	if _, ok := a.pending[changePhase]; ok {
		errs = append(errs, a.repo.UpdatePhase(ctx, t.ID, t.Phase()))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("incremental write failed: %w", err)
	}
	return nil
}

func (a *SyncAdapter) publish(phaseChanged bool) {
	if a.publisher == nil || !a.tournament.Options.LiveTracking {
		return
	}
	msgType := live.MessageTournamentChanged
	if phaseChanged {
		msgType = live.MessagePhaseChanged
	}
	a.publisher.Publish(a.tournament.ID, msgType, brackets.ToRaw(a.tournament))
}
