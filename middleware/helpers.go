package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

const (
	jwtClaimUserID  = "user_id"
	jwtClaimSubject = "sub"
)

var ErrNoUser = errors.New("user claims not found in context")

// GetUserIDFromContext returns the user id from the user_id claim, falling
// back to sub. Numeric ids are formatted as decimal strings.
func GetUserIDFromContext(ctx context.Context) (string, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return "", ErrNoUser
	}

	claim, ok := claims[jwtClaimUserID]
	name := jwtClaimUserID
	if !ok {
		claim, ok = claims[jwtClaimSubject]
		name = jwtClaimSubject
	}
	if !ok {
		return "", fmt.Errorf("missing '%s' claim in token", jwtClaimUserID)
	}

	switch v := claim.(type) {
	case string:
		if v = strings.TrimSpace(v); v != "" {
			return v, nil
		}
		return "", fmt.Errorf("empty '%s' claim in token", name)
	case float64:
		if v <= 0 || v != math.Trunc(v) {
			return "", fmt.Errorf("invalid user ID value in '%s' claim: %v", name, v)
		}
		return strconv.FormatInt(int64(v), 10), nil
	default:
		return "", fmt.Errorf("invalid type for '%s' claim: expected string or number, got %T", name, claim)
	}
}

// OptionalUserID is GetUserIDFromContext for routes open to anonymous users.
// It returns "" when the request carries no usable identity.
func OptionalUserID(ctx context.Context) string {
	id, err := GetUserIDFromContext(ctx)
	if err != nil {
		return ""
	}
	return id
}
