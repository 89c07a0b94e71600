package echo

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"resource-gateway/internal/access"
	"resource-gateway/pkg/apperrors"
)

const contextKeyActor = "actor"

// actorClaims are the token claims the gateway consumes. Authentication
// itself (issuing, sessions, licensing) lives elsewhere; this middleware only
// turns a bearer token into an access.Actor.
type actorClaims struct {
	OrgID    string   `json:"org"`
	OrgAdmin bool     `json:"org_admin"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// ActorMiddleware validates the Authorization header and stores the caller
// identity in the request context.
func ActorMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return respondError(c, apperrors.Forbidden("missing_token", "authorization token is required"))
			}

			claims := &actorClaims{}
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid || claims.Subject == "" {
				return respondError(c, apperrors.Forbidden("invalid_token", "authorization token is invalid"))
			}

			c.Set(contextKeyActor, access.Actor{
				UserID:   claims.Subject,
				OrgID:    claims.OrgID,
				OrgAdmin: claims.OrgAdmin,
				Roles:    claims.Roles,
			})
			return next(c)
		}
	}
}

func actorFrom(c echo.Context) access.Actor {
	if actor, ok := c.Get(contextKeyActor).(access.Actor); ok {
		return actor
	}
	return access.Actor{}
}
