package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"stickerlab/backend/internal/store"
	"stickerlab/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// Middleware turns session tokens into a Session on the gin context.
type Middleware struct {
	secret string
	users  store.UserStore
}

func NewMiddleware(secret string, users store.UserStore) *Middleware {
	return &Middleware{secret: secret, users: users}
}

func tokenFromRequest(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// resolve validates the request token. Tokens that only carry an email are
// normalized to the user id without creating users.
func (m *Middleware) resolve(c *gin.Context) (Session, bool) {
	tokenString := tokenFromRequest(c)
	if tokenString == "" {
		return Session{}, false
	}
	claims, err := jwt.ParseToken(m.secret, tokenString)
	if err != nil {
		return Session{}, false
	}

	session := Session{UserID: claims.Subject, Email: claims.Email}
	if session.UserID == "" {
		user, err := m.users.GetUserByEmail(c.Request.Context(), session.Email)
		switch {
		case err == nil:
			session.UserID = user.ID
		case !errors.Is(err, store.ErrNotFound):
			log.Printf("auth: resolve session email: %v", err)
		}
	}
	return session, true
}

// AuthMiddleware rejects requests without a valid session.
func (m *Middleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := m.resolve(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

// OptionalAuthMiddleware inspects for a token and sets the session if present and valid,
// but does not fail if the token is missing or invalid.
func (m *Middleware) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if session, ok := m.resolve(c); ok {
			c.Set(sessionKey, session)
		}
		c.Next()
	}
}
