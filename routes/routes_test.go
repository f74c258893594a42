package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dosada05/tournament-engine/handlers"
	"github.com/Dosada05/tournament-engine/live"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func newRouter() http.Handler {
	r := chi.NewRouter()
	SetupRoutes(r,
		handlers.NewTournamentHandler(nil, nil),
		handlers.NewWebSocketHandler(live.NewHub(nil), nil, []string{"*"}, nil),
		Options{JWTSecret: []byte("secret"), AllowedOrigins: []string{"https://app.example.com"}},
	)
	return r
}

func TestSetupRoutes(t *testing.T) {
	router := newRouter()

	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/swagger/doc.json", http.StatusOK},
		{http.MethodPost, "/tournaments", http.StatusUnauthorized},
		{http.MethodPost, "/tournaments/abc/advance", http.StatusUnauthorized},
		{http.MethodDelete, "/tournaments/abc", http.StatusUnauthorized},
		{http.MethodGet, "/nowhere", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestSetupRoutes_CORS(t *testing.T) {
	router := newRouter()

	req := httptest.NewRequest(http.MethodOptions, "/tournaments", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://other.example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
