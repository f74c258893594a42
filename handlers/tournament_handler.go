package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Dosada05/tournament-engine/middleware"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/services"
	"github.com/go-chi/chi/v5"
)

const maxLogoBytes = 5 << 20

type TournamentHandler struct {
	responder
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService, logger *slog.Logger) *TournamentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TournamentHandler{
		responder:         responder{logger: logger.With("component", "tournament_handler")},
		tournamentService: ts,
	}
}

type scoreRequest struct {
	Competitor string `json:"competitor"`
	Score      *int   `json:"score"`
}

type competitorRequest struct {
	Competitor string `json:"competitor"`
}

type swapRequest struct {
	Competitor1 string `json:"competitor1"`
	Competitor2 string `json:"competitor2"`
}

type ownerRequest struct {
	OwnerID string `json:"ownerId"`
}

type roleRequest struct {
	IsModerator bool `json:"isModerator"`
	IsStreamer  bool `json:"isStreamer"`
}

// Routes mounts the tournament endpoints. Reads are public; every other
// endpoint goes through auth.
func (h *TournamentHandler) Routes(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Get("/", h.ListTournaments)
	r.Get("/{tournamentID}", h.GetTournament)
	r.Get("/{tournamentID}/raw", h.GetRawTournament)

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Post("/", h.CreateTournament)
		r.Delete("/{tournamentID}", h.DeleteTournament)
		r.Post("/{tournamentID}/advance", h.AdvancePhase)
		r.Post("/{tournamentID}/scores", h.SetScore)
		r.Post("/{tournamentID}/matches/start", h.StartMatch)
		r.Post("/{tournamentID}/matches/finish", h.FinishMatch)
		r.Post("/{tournamentID}/seeds/swap", h.SwapSeeds)
		r.Post("/{tournamentID}/competitors", h.AddCompetitor)
		r.Put("/{tournamentID}/owner", h.ChangeOwner)
		r.Post("/{tournamentID}/users", h.AddUser)
		r.Delete("/{tournamentID}/users/{userID}", h.RemoveUser)
		r.Put("/{tournamentID}/users/{userID}/role", h.SetUserRole)
		r.Post("/{tournamentID}/logo", h.UploadLogo)
	})
}

// requestContext resolves the caller and the tournament of an authenticated
// request. It writes the error response itself and reports false on failure.
func (h *TournamentHandler) requestContext(w http.ResponseWriter, r *http.Request) (userID, tournamentID string, ok bool) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		h.unauthorizedResponse(w, r, "failed to identify current user")
		return "", "", false
	}
	tournamentID, err = tournamentIDFromURL(r)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return "", "", false
	}
	return userID, tournamentID, true
}

func (h *TournamentHandler) respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if err := writeJSON(w, status, data, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// @Summary Create a tournament
// @Tags tournaments
// @Accept json
// @Produce json
// @Param input body services.CreateTournamentInput true "Tournament"
// @Success 201 {object} brackets.RawTournament
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments [post]
func (h *TournamentHandler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		h.unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), userID, input)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", "/tournaments/"+tournament.ID)
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, headers); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

// @Summary List tournaments
// @Tags tournaments
// @Produce json
// @Param owner query string false "Owner user id"
// @Param phase query string false "Phase"
// @Param limit query int false "Page size (1-100)"
// @Param offset query int false "Offset"
// @Success 200 {object} map[string]interface{}
// @Router /tournaments [get]
func (h *TournamentHandler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	var filter repositories.ListTournamentsFilter
	q := r.URL.Query()
	if owner := strings.TrimSpace(q.Get("owner")); owner != "" {
		filter.OwnerID = &owner
	}
	if phase := strings.TrimSpace(q.Get("phase")); phase != "" {
		p := models.TournamentPhase(phase)
		filter.Phase = &p
	}
	var err error
	if filter.Limit, err = queryInt(r, "limit", 0); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset", 0); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}

	tournaments, err := h.tournamentService.List(r.Context(), filter)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"tournaments": tournaments})
}

// @Summary Get a tournament with its standings and bracket
// @Tags tournaments
// @Produce json
// @Param tournamentID path string true "Tournament id"
// @Success 200 {object} services.TournamentDetails
// @Failure 404 {object} map[string]interface{}
// @Router /tournaments/{tournamentID} [get]
func (h *TournamentHandler) GetTournament(w http.ResponseWriter, r *http.Request) {
	id, err := tournamentIDFromURL(r)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	details, err := h.tournamentService.GetTournament(r.Context(), id)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"tournament": details})
}

// @Summary Get the serialized form of a tournament
// @Tags tournaments
// @Produce json
// @Param tournamentID path string true "Tournament id"
// @Success 200 {object} brackets.RawTournament
// @Router /tournaments/{tournamentID}/raw [get]
func (h *TournamentHandler) GetRawTournament(w http.ResponseWriter, r *http.Request) {
	id, err := tournamentIDFromURL(r)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	raw, err := h.tournamentService.GetRaw(r.Context(), id)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, raw)
}

// @Summary Delete a tournament
// @Tags tournaments
// @Param tournamentID path string true "Tournament id"
// @Success 204
// @Security BearerAuth
// @Router /tournaments/{tournamentID} [delete]
func (h *TournamentHandler) DeleteTournament(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.requestContext(w, r)
	if !ok {
		return
	}
	if err := h.tournamentService.DeleteTournament(r.Context(), userID, id); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Advance a tournament to its next phase
// @Tags tournaments
// @Produce json
// @Param tournamentID path string true "Tournament id"
// @Success 200 {object} brackets.RawTournament
// @Failure 409 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/advance [post]
func (h *TournamentHandler) AdvancePhase(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.requestContext(w, r)
	if !ok {
		return
	}
	tournament, err := h.tournamentService.AdvancePhase(r.Context(), userID, id)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"tournament": tournament})
}

// @Summary Set the score of a competitor in its current match
// @Tags matches
// @Accept json
// @Param tournamentID path string true "Tournament id"
// @Param input body scoreRequest true "Score"
// @Success 204
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/scores [post]
func (h *TournamentHandler) SetScore(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.requestContext(w, r)
	if !ok {
		return
	}
	var input scoreRequest
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	v := make(services.ValidationErrors)
	if strings.TrimSpace(input.Competitor) == "" {
		v.Add("competitor", "must be provided")
	}
	if input.Score == nil {
		v.Add("score", "must be provided")
	} else if *input.Score < 0 {
		v.Add("score", "must not be negative")
	}
	if len(v) > 0 {
		h.failedValidationResponse(w, r, v)
		return
	}

	if err := h.tournamentService.SetScore(r.Context(), userID, id, input.Competitor, *input.Score); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Start the current match of a competitor
// @Tags matches
// @Accept json
// @Param tournamentID path string true "Tournament id"
// @Param input body competitorRequest true "Competitor"
// @Success 204
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/matches/start [post]
func (h *TournamentHandler) StartMatch(w http.ResponseWriter, r *http.Request) {
	h.matchAction(w, r, h.tournamentService.StartMatch)
}

// @Summary Finish the current match of a competitor
// @Tags matches
// @Accept json
// @Param tournamentID path string true "Tournament id"
// @Param input body competitorRequest true "Competitor"
// @Success 204
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/matches/finish [post]
func (h *TournamentHandler) FinishMatch(w http.ResponseWriter, r *http.Request) {
	h.matchAction(w, r, h.tournamentService.FinishMatch)
}

func (h *TournamentHandler) matchAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, userID, id, competitor string) error) {
	userID, id, ok := h.requestContext(w, r)
	if !ok {
		return
	}
	var input competitorRequest
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(input.Competitor) == "" {
		v := make(services.ValidationErrors)
		v.Add("competitor", "must be provided")
		h.failedValidationResponse(w, r, v)
		return
	}
	if err := action(r.Context(), userID, id, input.Competitor); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Swap the starting positions of two competitors
// @Tags tournaments
// @Accept json
// @Param tournamentID path string true "Tournament id"
// @Param input body swapRequest true "Competitors"
// @Success 204
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/seeds/swap [post]
func (h *TournamentHandler) SwapSeeds(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.requestContext(w, r)
	if !ok {
		return
	}
	var input swapRequest
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	v := make(services.ValidationErrors)
	if strings.TrimSpace(input.Competitor1) == "" {
		v.Add("competitor1", "must be provided")
	}
	if strings.TrimSpace(input.Competitor2) == "" {
		v.Add("competitor2", "must be provided")
	}
	if len(v) > 0 {
		h.failedValidationResponse(w, r, v)
		return
	}
	if err := h.tournamentService.SwapSeeds(r.Context(), userID, id, input.Competitor1, input.Competitor2); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Add a competitor to a planned tournament
// @Tags competitors
// @Accept json
// @Param tournamentID path string true "Tournament id"
// @Param input body services.CompetitorInput true "Competitor"
// @Success 201
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/competitors [post]
func (h *TournamentHandler) AddCompetitor(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.requestContext(w, r)
	if !ok {
		return
	}
	var input services.CompetitorInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if err := h.tournamentService.AddCompetitor(r.Context(), userID, id, input); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// @Summary Transfer ownership of a tournament
// @Tags users
// @Accept json
// @Param tournamentID path string true "Tournament id"
// @Param input body ownerRequest true "New owner"
// @Success 204
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/owner [put]
func (h *TournamentHandler) ChangeOwner(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.requestContext(w, r)
	if !ok {
		return
	}
	var input ownerRequest
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(input.OwnerID) == "" {
		v := make(services.ValidationErrors)
		v.Add("ownerId", "must be provided")
		h.failedValidationResponse(w, r, v)
		return
	}
	if err := h.tournamentService.ChangeOwner(r.Context(), userID, id, input.OwnerID); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Add a user to a tournament
// @Tags users
// @Accept json
// @Param tournamentID path string true "Tournament id"
// @Param input body services.UserInput true "User"
// @Success 201
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/users [post]
func (h *TournamentHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.requestContext(w, r)
	if !ok {
		return
	}
	var input services.UserInput
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	v := make(services.ValidationErrors)
	if strings.TrimSpace(input.ID) == "" {
		v.Add("id", "must be provided")
	}
	if strings.TrimSpace(input.Name) == "" {
		v.Add("name", "must be provided")
	}
	if len(v) > 0 {
		h.failedValidationResponse(w, r, v)
		return
	}
	if err := h.tournamentService.AddUser(r.Context(), userID, id, input); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// @Summary Remove a user from a tournament
// @Tags users
// @Param tournamentID path string true "Tournament id"
// @Param userID path string true "User id"
// @Success 204
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/users/{userID} [delete]
func (h *TournamentHandler) RemoveUser(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.requestContext(w, r)
	if !ok {
		return
	}
	if err := h.tournamentService.RemoveUser(r.Context(), userID, id, chi.URLParam(r, "userID")); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Set the moderator and streamer flags of a user
// @Tags users
// @Accept json
// @Param tournamentID path string true "Tournament id"
// @Param userID path string true "User id"
// @Param input body roleRequest true "Roles"
// @Success 204
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/users/{userID}/role [put]
func (h *TournamentHandler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.requestContext(w, r)
	if !ok {
		return
	}
	var input roleRequest
	if err := readJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	target := chi.URLParam(r, "userID")
	if err := h.tournamentService.SetUserRole(r.Context(), userID, id, target, input.IsModerator, input.IsStreamer); err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Upload the tournament logo
// @Tags tournaments
// @Accept multipart/form-data
// @Produce json
// @Param tournamentID path string true "Tournament id"
// @Param logo formData file true "Logo image"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/logo [post]
func (h *TournamentHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.requestContext(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxLogoBytes+1024)
	if err := r.ParseMultipartForm(maxLogoBytes); err != nil {
		h.badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		h.badRequestResponse(w, r, fmt.Errorf("failed to get logo file from form: %w", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		h.badRequestResponse(w, r, errors.New("content-type header is required for logo"))
		return
	}

	location, err := h.tournamentService.UploadLogo(r.Context(), userID, id, file, contentType)
	if err != nil {
		h.mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, jsonResponse{"logo": location})
}
