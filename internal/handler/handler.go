// Package handler exposes the sticker service over HTTP: the JSON API under
// /api and the server-rendered pages.
package handler

import (
	"time"

	"stickerlab/backend/internal/auth"
	"stickerlab/backend/internal/export"
	"stickerlab/backend/internal/games"
	"stickerlab/backend/internal/hub"
	"stickerlab/backend/internal/store"

	"github.com/gin-gonic/gin"
)

// Config holds the handler settings taken from the application config.
type Config struct {
	JWTSecret  string
	SessionTTL time.Duration
}

type Handler struct {
	games    *games.Service
	users    store.UserStore
	exporter *export.Exporter
	hub      *hub.Hub
	auth     *auth.Middleware
	cfg      Config
}

func New(svc *games.Service, users store.UserStore, exporter *export.Exporter, h *hub.Hub, mw *auth.Middleware, cfg Config) *Handler {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	return &Handler{
		games:    svc,
		users:    users,
		exporter: exporter,
		hub:      h,
		auth:     mw,
		cfg:      cfg,
	}
}

// Register mounts the API and page routes on router.
func (h *Handler) Register(router *gin.Engine) {
	api := router.Group("/api")
	{
		// Auth routes
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/signup", h.Signup)
			authRoutes.POST("/login", h.Login)
			authRoutes.POST("/logout", h.Logout)
			authRoutes.GET("/me", h.auth.AuthMiddleware(), h.Me)
		}

		// Game routes; listing and reading work without a session
		gameRoutes := api.Group("/games")
		{
			gameRoutes.GET("", h.auth.OptionalAuthMiddleware(), h.ListGames)
			gameRoutes.GET("/:id", h.auth.OptionalAuthMiddleware(), h.GetGame)
			gameRoutes.GET("/:id/export", h.auth.OptionalAuthMiddleware(), h.ExportGame)
			gameRoutes.PUT("/:id", h.auth.AuthMiddleware(), h.UpdateGame)
			gameRoutes.DELETE("/:id", h.auth.AuthMiddleware(), h.DeleteGame)
		}

		// Generation routes (protected)
		generateRoutes := api.Group("/generate")
		generateRoutes.Use(h.auth.AuthMiddleware())
		{
			generateRoutes.POST("", h.Generate)
			generateRoutes.POST("/edit", h.EditGame)
		}

		api.GET("/feed", h.auth.OptionalAuthMiddleware(), h.Feed)
	}

	pages := router.Group("/")
	pages.Use(h.auth.OptionalAuthMiddleware())
	{
		pages.GET("/", h.HomePage)
		pages.GET("/game/:id", h.GamePage)
		pages.GET("/game/:id/edit", h.EditPage)
		pages.GET("/my-games", h.MyGamesPage)
		pages.GET("/auth/signin", h.SignInPage)
		pages.GET("/auth/signup", h.SignUpPage)
	}
}
