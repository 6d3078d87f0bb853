package handler

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"time"

	"stickerlab/backend/internal/auth"
	"stickerlab/backend/internal/export"
	"stickerlab/backend/internal/games"
	"stickerlab/backend/internal/models"
	"stickerlab/backend/internal/render"

	"github.com/gin-gonic/gin"
)

const homeListSize = 12

// stickerCard is the page model of one sticker.
type stickerCard struct {
	ID          string
	Title       string
	Prompt      string
	OwnerName   string
	ContentType models.ContentType
	IsPublic    bool
	IsOwner     bool
	SourceID    *string
	CreatedAt   time.Time
	View        render.View
}

func newStickerCard(game models.Game, session *auth.Session) stickerCard {
	return stickerCard{
		ID:          game.ID,
		Title:       game.Title,
		Prompt:      game.Prompt,
		OwnerName:   game.User.Name,
		ContentType: game.ContentType,
		IsPublic:    game.IsPublic,
		IsOwner:     session != nil && auth.IsOwner(*session, &game),
		SourceID:    game.SourceID,
		CreatedAt:   game.CreatedAt,
		View:        render.Render(game.Content, game.ContentType, game.Title),
	}
}

func newStickerCards(list []models.Game, session *auth.Session) []stickerCard {
	cards := make([]stickerCard, len(list))
	for i, game := range list {
		cards[i] = newStickerCard(game, session)
	}
	return cards
}

// exportLink is a download offered on the sticker page.
type exportLink struct {
	Label  string
	Format export.Format
}

func exportLinks(ct models.ContentType) []exportLink {
	if ct == models.ContentTypeLottie {
		return []exportLink{{"Download JSON", export.FormatJSON}, {"Download GIF", export.FormatGIF}}
	}
	return []exportLink{{"Download SVG", export.FormatSVG}}
}

// page merges the data every template needs into data.
func page(c *gin.Context, title string, data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	if session, ok := auth.SessionFrom(c); ok {
		data["Session"] = session
	}
	return data
}

func renderErrorPage(c *gin.Context, status int, title, message string) {
	c.HTML(status, "error.html", page(c, title, gin.H{"Status": status, "Message": message}))
}

// renderPageError maps service errors to error pages.
func renderPageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, games.ErrNotFound):
		renderErrorPage(c, http.StatusNotFound, "Sticker not found", "This sticker does not exist or is private.")
	case errors.Is(err, games.ErrForbidden):
		renderErrorPage(c, http.StatusForbidden, "Not allowed", "Only the owner can do this.")
	default:
		log.Printf("%s: %v", c.FullPath(), err)
		renderErrorPage(c, http.StatusInternalServerError, "Something went wrong", "Please try again later.")
	}
}

// requireSession redirects anonymous visitors to the sign-in page.
func requireSession(c *gin.Context) (auth.Session, bool) {
	session, ok := auth.SessionFrom(c)
	if !ok {
		c.Redirect(http.StatusFound, "/auth/signin?next="+url.QueryEscape(c.Request.URL.Path))
		return auth.Session{}, false
	}
	return session, true
}

// HomePage shows the generator, the public gallery and the visitor's own stickers.
func (h *Handler) HomePage(c *gin.Context) {
	ctx := c.Request.Context()
	session := optionalSession(c)

	public, err := h.games.ListPublic(ctx, homeListSize)
	if err != nil {
		renderPageError(c, err)
		return
	}
	data := gin.H{"Public": newStickerCards(public, session)}

	if session != nil {
		mine, err := h.games.ListForSession(ctx, *session)
		if err != nil {
			renderPageError(c, err)
			return
		}
		if len(mine) > homeListSize {
			mine = mine[:homeListSize]
		}
		data["Mine"] = newStickerCards(mine, session)
	}

	c.HTML(http.StatusOK, "home.html", page(c, "Sticker Lab", data))
}

// GamePage shows one sticker with its owner actions and downloads.
func (h *Handler) GamePage(c *gin.Context) {
	session := optionalSession(c)
	game, err := h.games.GetVisible(c.Request.Context(), c.Param("id"), session)
	if err != nil {
		renderPageError(c, err)
		return
	}

	c.HTML(http.StatusOK, "game.html", page(c, game.Title, gin.H{
		"Game":    newStickerCard(*game, session),
		"Exports": exportLinks(game.ContentType),
	}))
}

// EditPage offers AI and manual editing of a sticker the visitor owns.
func (h *Handler) EditPage(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	game, err := h.games.Get(c.Request.Context(), c.Param("id"))
	if err == nil && !auth.IsOwner(session, game) {
		err = games.ErrForbidden
	}
	if err != nil {
		renderPageError(c, err)
		return
	}

	c.HTML(http.StatusOK, "edit.html", page(c, "Edit "+game.Title, gin.H{
		"Game":       newStickerCard(*game, &session),
		"Source":     game.Content,
		"CanEditSVG": game.ContentType != models.ContentTypeLottie,
	}))
}

// MyGamesPage lists every sticker of the visitor.
func (h *Handler) MyGamesPage(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	mine, err := h.games.ListForSession(c.Request.Context(), session)
	if err != nil {
		renderPageError(c, err)
		return
	}
	c.HTML(http.StatusOK, "my_games.html", page(c, "My stickers", gin.H{
		"Mine": newStickerCards(mine, &session),
	}))
}

func (h *Handler) SignInPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signin.html", page(c, "Sign in", gin.H{"Next": safeNext(c.Query("next"))}))
}

func (h *Handler) SignUpPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", page(c, "Sign up", gin.H{"Next": safeNext(c.Query("next"))}))
}

// safeNext only allows local redirect targets.
func safeNext(next string) string {
	if len(next) < 1 || next[0] != '/' || (len(next) > 1 && (next[1] == '/' || next[1] == '\\')) {
		return "/"
	}
	return next
}
