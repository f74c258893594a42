package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(OptionalUserID(r.Context())))
}

func TestAuthenticate(t *testing.T) {
	valid := sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"user_id": "u-1",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	expired := sign(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"user_id": "u-1",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": "u-1"})
	wrongAlg := sign(t, jwt.SigningMethodHS512, testSecret, jwt.MapClaims{"user_id": "u-1"})

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid token", "Bearer " + valid, http.StatusOK, "u-1"},
		{"lower case scheme", "bearer " + valid, http.StatusOK, "u-1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"basic scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, ""},
		{"expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized, ""},
		{"wrong algorithm", "Bearer " + wrongAlg, http.StatusUnauthorized, ""},
	}

	h := Authenticate(testSecret, nil)(http.HandlerFunc(echoUser))
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, tc.body, rec.Body.String())
			} else {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestOptionalAuthenticate(t *testing.T) {
	h := OptionalAuthenticate(testSecret, nil)(http.HandlerFunc(echoUser))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetUserIDFromContext(t *testing.T) {
	cases := []struct {
		name    string
		claims  jwt.MapClaims
		want    string
		wantErr bool
	}{
		{"string user_id", jwt.MapClaims{"user_id": "abc"}, "abc", false},
		{"numeric user_id", jwt.MapClaims{"user_id": float64(42)}, "42", false},
		{"subject fallback", jwt.MapClaims{"sub": "s-9"}, "s-9", false},
		{"user_id wins over sub", jwt.MapClaims{"user_id": "a", "sub": "b"}, "a", false},
		{"fractional id", jwt.MapClaims{"user_id": 1.5}, "", true},
		{"negative id", jwt.MapClaims{"user_id": float64(-3)}, "", true},
		{"blank id", jwt.MapClaims{"user_id": "  "}, "", true},
		{"wrong type", jwt.MapClaims{"user_id": true}, "", true},
		{"missing", jwt.MapClaims{"role": "admin"}, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := GetUserIDFromContext(WithClaims(context.Background(), tc.claims))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := GetUserIDFromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoUser)
	assert.Empty(t, OptionalUserID(context.Background()))
}
