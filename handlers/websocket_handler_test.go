package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/live"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newLiveServer(t *testing.T, svc services.TournamentService, hub *live.Hub) *httptest.Server {
	t.Helper()
	h := NewWebSocketHandler(hub, svc, []string{"*"}, nil)
	r := chi.NewRouter()
	r.Get("/ws/tournaments/{tournamentID}", h.ServeWs)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server, id string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/tournaments/" + id
}

func TestServeWs_StreamsUpdates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := live.NewHub(nil)
	go hub.Run(ctx)

	svc := new(mockTournamentService)
	svc.On("GetRaw", mock.Anything, tournamentID).Return(&brackets.RawTournament{
		ID:      tournamentID,
		Phase:   models.PhasePlanned,
		Options: models.TournamentOptions{LiveTracking: true},
	}, nil)

	srv := newLiveServer(t, svc, hub)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, tournamentID), nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	read := func() live.WebSocketMessage {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg live.WebSocketMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}

	first := read()
	assert.Equal(t, live.MessageTournamentChanged, first.Type)
	assert.Equal(t, live.RoomName(tournamentID), first.RoomID)

	room := live.RoomName(tournamentID)
	require.Eventually(t, func() bool { return hub.ClientCount(room) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(tournamentID, live.MessagePhaseChanged, map[string]string{"phase": "group"})
	next := read()
	assert.Equal(t, live.MessagePhaseChanged, next.Type)
	assert.Equal(t, map[string]interface{}{"phase": "group"}, next.Payload)
}

func TestServeWs_Rejections(t *testing.T) {
	hub := live.NewHub(nil)
	svc := new(mockTournamentService)
	svc.On("GetRaw", mock.Anything, "quiet").Return(&brackets.RawTournament{ID: "quiet"}, nil)
	svc.On("GetRaw", mock.Anything, "missing").Return(nil, services.ErrTournamentNotFound)

	srv := newLiveServer(t, svc, hub)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "quiet"), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(wsURL(srv, "missing"), nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example.com/"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, check(req), "requests without an origin are not browser requests")

	req.Header.Set("Origin", "https://APP.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}
