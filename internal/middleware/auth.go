package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/maxviazov/author-feed-service/internal/auth"
	"github.com/maxviazov/author-feed-service/pkg/response"
)

const claimsKey = "auth_claims"

// TokenParser validates a raw bearer token.
type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// Auth builds the bearer token middlewares.
type Auth struct {
	parser TokenParser
}

func NewAuth(parser TokenParser) *Auth { return &Auth{parser: parser} }

func bearer(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// Required rejects requests without a valid token.
func (a *Auth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, "unauthenticated", "missing or malformed bearer token")
			return
		}
		claims, err := a.parser.Parse(raw)
		if err != nil {
			l := LoggerFrom(c)
			l.Debug().Err(err).Msg("token rejected")
			response.WriteError(c, err)
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// Optional lets anonymous requests through but rejects a present, invalid token
// so clients notice an expired session.
func (a *Auth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c)
		if !ok {
			c.Next()
			return
		}
		claims, err := a.parser.Parse(raw)
		if err != nil {
			l := LoggerFrom(c)
			l.Debug().Err(err).Msg("token rejected")
			response.WriteError(c, err)
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ViewerID returns the authenticated author id, if any.
func ViewerID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return uuid.Nil, false
	}
	claims, ok := v.(*auth.Claims)
	if !ok {
		return uuid.Nil, false
	}
	id, err := claims.AuthorID()
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
