package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/services"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

const maxBodyBytes = 1_048_576

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	if err = dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

// tournamentIDFromURL returns the {tournamentID} path parameter.
func tournamentIDFromURL(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "tournamentID"))
	if id == "" {
		return "", errors.New("missing tournamentID in URL")
	}
	return id, nil
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("query parameter %q must be an integer", key)
	}
	return v, nil
}

type responder struct {
	logger *slog.Logger
}

func (re responder) errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	if err := writeJSON(w, status, jsonResponse{"error": message}, nil); err != nil {
		re.logger.ErrorContext(r.Context(), "failed to write error response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (re responder) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	re.logger.ErrorContext(r.Context(), "internal server error", "error", err, "method", r.Method, "path", r.URL.Path)
	re.errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

func (re responder) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	re.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (re responder) failedValidationResponse(w http.ResponseWriter, r *http.Request, errs services.ValidationErrors) {
	re.errorResponse(w, r, http.StatusUnprocessableEntity, map[string][]string(errs))
}

func (re responder) notFoundResponse(w http.ResponseWriter, r *http.Request, message string) {
	re.errorResponse(w, r, http.StatusNotFound, message)
}

func (re responder) unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	re.errorResponse(w, r, http.StatusUnauthorized, message)
}

// mapServiceErrorToHTTP writes the response for an error returned by the
// tournament service.
func (re responder) mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	var verrs services.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		re.failedValidationResponse(w, r, verrs)

	case errors.Is(err, services.ErrTournamentNotFound):
		re.notFoundResponse(w, r, services.ErrTournamentNotFound.Error())
	case errors.Is(err, services.ErrNotFound):
		re.notFoundResponse(w, r, err.Error())

	case errors.Is(err, services.ErrValidationFailed):
		re.errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrIllegalOperation),
		errors.Is(err, services.ErrConflict):
		re.errorResponse(w, r, http.StatusConflict, err.Error())

	case errors.Is(err, services.ErrAuthenticationFailed):
		re.unauthorizedResponse(w, r, err.Error())
	case errors.Is(err, services.ErrForbiddenOperation):
		re.errorResponse(w, r, http.StatusForbidden, err.Error())

	case errors.Is(err, brackets.ErrPersistence):
		re.logger.ErrorContext(r.Context(), "tournament changed but not persisted", "error", err, "path", r.URL.Path)
		re.errorResponse(w, r, http.StatusServiceUnavailable, "the change was applied but could not be saved; it will be saved with the next change")
	case errors.Is(err, services.ErrStorageDisabled):
		re.errorResponse(w, r, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, services.ErrUploadFailed):
		re.logger.ErrorContext(r.Context(), "upload failed", "error", err)
		re.errorResponse(w, r, http.StatusBadGateway, services.ErrUploadFailed.Error())

	default:
		re.serverErrorResponse(w, r, err)
	}
}
