package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Dosada05/tournament-engine/live"
	"github.com/Dosada05/tournament-engine/services"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	responder
	hub               *live.Hub
	tournamentService services.TournamentService
	upgrader          websocket.Upgrader
}

// NewWebSocketHandler accepts connections from allowedOrigins; "*" allows
// any origin.
func NewWebSocketHandler(hub *live.Hub, ts services.TournamentService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		responder:         responder{logger: logger.With("component", "websocket_handler")},
		hub:               hub,
		tournamentService: ts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(strings.TrimRight(o, "/"))] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return set[strings.ToLower(u.Scheme+"://"+u.Host)]
	}
}

// ServeWs subscribes the connection to the live updates of a tournament.
// The current state is sent first; updates follow as the tournament changes.
//
// @Summary Live tournament updates
// @Tags live
// @Param tournamentID path string true "Tournament id"
// @Success 101
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /ws/tournaments/{tournamentID} [get]
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
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
	if !raw.Options.LiveTracking {
		h.errorResponse(w, r, http.StatusConflict, "live tracking is disabled for this tournament")
		return
	}

	snapshot, err := json.Marshal(live.WebSocketMessage{
		Type:    live.MessageTournamentChanged,
		Payload: raw,
		RoomID:  live.RoomName(id),
	})
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "failed to upgrade connection", "tournament_id", id, "error", err)
		return
	}

	client := h.hub.NewClient(conn, live.RoomName(id))
	client.Send <- snapshot
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	h.logger.DebugContext(r.Context(), "live tracking client connected", "tournament_id", id)
}
