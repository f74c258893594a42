package handlers

import (
	"context"
	"io"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/services"
	"github.com/stretchr/testify/mock"
)

type mockTournamentService struct {
	mock.Mock
}

var _ services.TournamentService = (*mockTournamentService)(nil)

func rawOrNil(v interface{}) *brackets.RawTournament {
	if v == nil {
		return nil
	}
	return v.(*brackets.RawTournament)
}

func (m *mockTournamentService) CreateTournament(ctx context.Context, ownerID string, input services.CreateTournamentInput) (*brackets.RawTournament, error) {
	args := m.Called(ctx, ownerID, input)
	return rawOrNil(args.Get(0)), args.Error(1)
}

func (m *mockTournamentService) GetTournament(ctx context.Context, id string) (*services.TournamentDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TournamentDetails), args.Error(1)
}

func (m *mockTournamentService) GetRaw(ctx context.Context, id string) (*brackets.RawTournament, error) {
	args := m.Called(ctx, id)
	return rawOrNil(args.Get(0)), args.Error(1)
}

func (m *mockTournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]repositories.TournamentSummary, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repositories.TournamentSummary), args.Error(1)
}

func (m *mockTournamentService) DeleteTournament(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *mockTournamentService) AdvancePhase(ctx context.Context, userID, id string) (*brackets.RawTournament, error) {
	args := m.Called(ctx, userID, id)
	return rawOrNil(args.Get(0)), args.Error(1)
}

func (m *mockTournamentService) SetScore(ctx context.Context, userID, id, competitor string, score int) error {
	return m.Called(ctx, userID, id, competitor, score).Error(0)
}

func (m *mockTournamentService) StartMatch(ctx context.Context, userID, id, competitor string) error {
	return m.Called(ctx, userID, id, competitor).Error(0)
}

func (m *mockTournamentService) FinishMatch(ctx context.Context, userID, id, competitor string) error {
	return m.Called(ctx, userID, id, competitor).Error(0)
}

func (m *mockTournamentService) SwapSeeds(ctx context.Context, userID, id, competitor1, competitor2 string) error {
	return m.Called(ctx, userID, id, competitor1, competitor2).Error(0)
}

func (m *mockTournamentService) AddCompetitor(ctx context.Context, userID, id string, input services.CompetitorInput) error {
	return m.Called(ctx, userID, id, input).Error(0)
}

func (m *mockTournamentService) ChangeOwner(ctx context.Context, userID, id, newOwnerID string) error {
	return m.Called(ctx, userID, id, newOwnerID).Error(0)
}

func (m *mockTournamentService) AddUser(ctx context.Context, userID, id string, input services.UserInput) error {
	return m.Called(ctx, userID, id, input).Error(0)
}

func (m *mockTournamentService) RemoveUser(ctx context.Context, userID, id, targetUserID string) error {
	return m.Called(ctx, userID, id, targetUserID).Error(0)
}

func (m *mockTournamentService) SetUserRole(ctx context.Context, userID, id, targetUserID string, moderator, streamer bool) error {
	return m.Called(ctx, userID, id, targetUserID, moderator, streamer).Error(0)
}

func (m *mockTournamentService) UploadLogo(ctx context.Context, userID, id string, file io.Reader, contentType string) (string, error) {
	args := m.Called(ctx, userID, id, file, contentType)
	return args.String(0), args.Error(1)
}

func (m *mockTournamentService) AutoStartScheduled(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}
