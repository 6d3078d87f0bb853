package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stickerlab/backend/internal/models"
	"stickerlab/backend/internal/store"
	"stickerlab/backend/internal/testdb"
	"stickerlab/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

func TestIsOwner(t *testing.T) {
	game := &models.Game{UserID: "u1", User: models.User{ID: "u1", Email: "owner@x.com"}}

	cases := []struct {
		name    string
		session Session
		want    bool
	}{
		{"matching id", Session{UserID: "u1", Email: "other@x.com"}, true},
		{"matching email", Session{UserID: "u2", Email: "owner@x.com"}, true},
		{"email only", Session{Email: "owner@x.com"}, true},
		{"stranger", Session{UserID: "u2", Email: "other@x.com"}, false},
		{"empty session", Session{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsOwner(tc.session, game); got != tc.want {
				t.Fatalf("IsOwner(%+v) = %v, want %v", tc.session, got, tc.want)
			}
		})
	}

	if IsOwner(Session{UserID: "u1"}, nil) {
		t.Fatal("nil record must not be owned")
	}
	// An owner with no email must not match an empty session email.
	if IsOwner(Session{UserID: "u2"}, &models.Game{UserID: "u1"}) {
		t.Fatal("empty emails must not match")
	}
}

func newTestRouter(m *Middleware, mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", mw, func(c *gin.Context) {
		s, ok := SessionFrom(c)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": s.UserID, "email": s.Email})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	users := store.NewUserStore(testdb.Open(t))
	user, err := users.CreateUser(context.Background(), store.UserInput{Email: "a@x.com"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	m := NewMiddleware("secret", users)
	r := newTestRouter(m, m.AuthMiddleware())

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("bearer token", func(t *testing.T) {
		token, _ := jwt.GenerateToken("secret", user.ID, user.Email, time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if body := w.Body.String(); body != `{"email":"a@x.com","id":"`+user.ID+`"}` {
			t.Fatalf("unexpected body %s", body)
		}
	})

	t.Run("email only cookie is normalized", func(t *testing.T) {
		token, _ := jwt.GenerateToken("secret", "", user.Email, time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if body := w.Body.String(); body != `{"email":"a@x.com","id":"`+user.ID+`"}` {
			t.Fatalf("unexpected body %s", body)
		}
	})

	t.Run("bad signature", func(t *testing.T) {
		token, _ := jwt.GenerateToken("other", user.ID, user.Email, time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})
}

func TestOptionalAuthMiddleware(t *testing.T) {
	users := store.NewUserStore(testdb.Open(t))
	m := NewMiddleware("secret", users)
	r := newTestRouter(m, m.OptionalAuthMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer broken")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != `{"anonymous":true}` {
		t.Fatalf("expected anonymous pass-through, got %d %s", w.Code, w.Body.String())
	}
}
