package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/storage"
)

var errStoreDown = errors.New("store is down")

// memoryRepository keeps raw tournaments and applies incremental writes to
// them, so reloading shows exactly what was written.
type memoryRepository struct {
	mu      sync.Mutex
	rows    map[string]brackets.RawTournament
	calls   []string
	failing int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{rows: make(map[string]brackets.RawTournament)}
}

// failNext makes the next n writes fail.
func (r *memoryRepository) failNext(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing = n
}

func (r *memoryRepository) resetCalls() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *memoryRepository) recorded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *memoryRepository) write(call, id string, fn func(row *brackets.RawTournament)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	if r.failing > 0 {
		r.failing--
		return errStoreDown
	}
	row, ok := r.rows[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	fn(&row)
	r.rows[id] = row
	return nil
}

func (r *memoryRepository) Save(_ context.Context, t *brackets.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "Save")
	if r.failing > 0 {
		r.failing--
		return errStoreDown
	}
	r.rows[t.ID] = brackets.ToRaw(t)
	return nil
}

func (r *memoryRepository) Load(_ context.Context, id string) (*brackets.Tournament, error) {
	r.mu.Lock()
	row, ok := r.rows[id]
	r.mu.Unlock()
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return brackets.FromRaw(row)
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memoryRepository) List(_ context.Context, filter repositories.ListTournamentsFilter) ([]repositories.TournamentSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repositories.TournamentSummary
	for _, row := range r.rows {
		if filter.OwnerID != nil && row.Owner != *filter.OwnerID {
			continue
		}
		if filter.Phase != nil && row.Phase != *filter.Phase {
			continue
		}
		out = append(out, repositories.TournamentSummary{ID: row.ID, Owner: row.Owner, Name: row.Meta.Name, Phase: row.Phase})
	}
	return out, nil
}

func (r *memoryRepository) ListDue(_ context.Context, now time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, row := range r.rows {
		if row.Phase == models.PhasePlanned && row.Time != nil && !row.Time.After(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *memoryRepository) UpdateOwner(_ context.Context, id, owner string) error {
	return r.write("UpdateOwner", id, func(row *brackets.RawTournament) { row.Owner = owner })
}

func (r *memoryRepository) UpdateLogo(_ context.Context, id string, logo *string) error {
	return r.write("UpdateLogo", id, func(row *brackets.RawTournament) { row.Meta.Logo = logo })
}

func (r *memoryRepository) UpdatePhase(_ context.Context, id string, phase models.TournamentPhase) error {
	return r.write("UpdatePhase", id, func(row *brackets.RawTournament) { row.Phase = phase })
}

func (r *memoryRepository) UpdateStartingMatchups(_ context.Context, id string, matchups [][]string) error {
	return r.write("UpdateStartingMatchups", id, func(row *brackets.RawTournament) { row.StartingMatchups = matchups })
}

func (r *memoryRepository) UpdateUsers(_ context.Context, id string, users []brackets.RawUser) error {
	return r.write("UpdateUsers", id, func(row *brackets.RawTournament) { row.Users = users })
}

func (r *memoryRepository) UpdatePhaseState(_ context.Context, id string, slot brackets.StateSlot, state brackets.RawTournamentState) error {
	return r.write("UpdatePhaseState:"+string(slot), id, func(row *brackets.RawTournament) {
		row.State.Current = state.Current
		switch slot {
		case brackets.SlotQualification:
			row.State.Qualification = state.Qualification
		case brackets.SlotGroup:
			row.State.Group = state.Group
		case brackets.SlotMain:
			row.State.Main = state.Main
		case brackets.SlotFinished:
			row.State.Finished = state.Finished
		}
	})
}

func (r *memoryRepository) UpdateCompetitor(_ context.Context, tournamentID string, position int, competitor brackets.RawCompetitor) error {
	return r.write("UpdateCompetitor", tournamentID, func(row *brackets.RawTournament) {
		if position < len(row.Competitors) {
			row.Competitors[position] = competitor
		}
	})
}

type published struct {
	tournamentID string
	msgType      string
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []published
}

func (p *recordingPublisher) Publish(tournamentID, msgType string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, published{tournamentID: tournamentID, msgType: msgType})
}

type memoryUploader struct {
	objects map[string]string
	deleted []string
}

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{objects: make(map[string]string)}
}

func (u *memoryUploader) Upload(_ context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	if _, err := io.ReadAll(reader); err != nil {
		return nil, err
	}
	u.objects[key] = contentType
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memoryUploader) Delete(_ context.Context, key string) error {
	if _, ok := u.objects[key]; !ok {
		return fmt.Errorf("no object %s", key)
	}
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *memoryUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}
