package repositories

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentConflict     = errors.New("tournament already exists")
	ErrCompetitorNotFound     = errors.New("competitor not found")
	ErrCompetitorNameConflict = errors.New("competitor name already used in this tournament")
	ErrInvalidReference       = errors.New("invalid tournament reference")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func handlePQError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		switch pqErr.Constraint {
		case "competitors_tournament_name_key":
			return ErrCompetitorNameConflict
		case "tournaments_pkey":
			return ErrTournamentConflict
		}
	case pqForeignKeyViolation:
		return ErrInvalidReference
	}
	return err
}
