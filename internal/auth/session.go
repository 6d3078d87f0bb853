package auth

import (
	"stickerlab/backend/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	// SessionCookie is the cookie holding the session token for page requests.
	SessionCookie = "session"

	sessionKey = "session"
)

// Session identifies the requesting user.
type Session struct {
	UserID string
	Email  string
}

// SessionFrom returns the session stored by the auth middlewares.
func SessionFrom(c *gin.Context) (Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok
}

// IsOwner reports whether s owns game, matching either the user id or the
// owner's email.
func IsOwner(s Session, game *models.Game) bool {
	if game == nil {
		return false
	}
	if s.UserID != "" && s.UserID == game.UserID {
		return true
	}
	return s.Email != "" && game.User.Email == s.Email
}
