package handler

import (
	"fmt"
	"log"
	"net/http"

	"stickerlab/backend/internal/auth"
	"stickerlab/backend/internal/export"
	"stickerlab/backend/internal/games"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// UpdateGameInput holds the fields an owner may change. Omitted fields are left as they are.
type UpdateGameInput struct {
	IsPublic *bool   `json:"isPublic" example:"true"`
	Title    *string `json:"title" example:"Sleepy cat"`
}

// endregion

func optionalSession(c *gin.Context) *auth.Session {
	if s, ok := auth.SessionFrom(c); ok {
		return &s
	}
	return nil
}

// ListGames godoc
// @Summary      List stickers
// @Description  Lists public stickers, newest first, or every sticker of the session user.
// @Tags         games
// @Produce      json
// @Param        type  query     string  false  "public or user" default(public)
// @Param        limit query     int     false  "Items for the public list (1-100)" default(20)
// @Success      200   {object}  GameListEnvelope
// @Failure      400   {object}  ErrorResponse "Invalid type parameter"
// @Failure      401   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /games [get]
func (h *Handler) ListGames(c *gin.Context) {
	ctx := c.Request.Context()

	switch c.DefaultQuery("type", "public") {
	case "public":
		list, err := h.games.ListPublic(ctx, parseLimit(c, games.DefaultLimit))
		if err != nil {
			respondError(c, err, "Failed to fetch games")
			return
		}
		c.JSON(http.StatusOK, GameListEnvelope{Success: true, Games: newGameResponses(list)})
	case "user":
		session, ok := auth.SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		list, err := h.games.ListForSession(ctx, session)
		if err != nil {
			respondError(c, err, "Failed to fetch games")
			return
		}
		c.JSON(http.StatusOK, GameListEnvelope{Success: true, Games: newGameResponses(list)})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid type parameter"})
	}
}

// GetGame godoc
// @Summary      Get a sticker
// @Description  Returns a sticker. Private stickers are only visible to their owner and are reported as missing to everyone else.
// @Tags         games
// @Produce      json
// @Param        id   path      string  true  "Game ID"
// @Success      200  {object}  GameEnvelope
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Router       /games/{id} [get]
func (h *Handler) GetGame(c *gin.Context) {
	game, err := h.games.GetVisible(c.Request.Context(), c.Param("id"), optionalSession(c))
	if err != nil {
		respondError(c, err, "Failed to fetch game")
		return
	}
	c.JSON(http.StatusOK, GameEnvelope{Success: true, Game: newGameResponse(*game)})
}

// UpdateGame godoc
// @Summary      Update a sticker
// @Description  Changes the visibility and/or the title of a sticker. Only the owner may do this; the content never changes.
// @Tags         games
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Game ID"
// @Param        input body      UpdateGameInput  true  "Fields to change"
// @Success      200   {object}  GameEnvelope
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse "Not allowed"
// @Failure      404   {object}  ErrorResponse "Game not found"
// @Router       /games/{id} [put]
func (h *Handler) UpdateGame(c *gin.Context) {
	var input UpdateGameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "isPublic must be boolean and title must be a string"})
		return
	}

	session, _ := auth.SessionFrom(c)
	game, err := h.games.Update(c.Request.Context(), session, c.Param("id"), games.UpdateInput{
		IsPublic: input.IsPublic,
		Title:    input.Title,
	})
	if err != nil {
		respondError(c, err, "Failed to update game")
		return
	}
	c.JSON(http.StatusOK, GameEnvelope{Success: true, Game: newGameResponse(*game)})
}

// DeleteGame godoc
// @Summary      Delete a sticker
// @Description  Permanently deletes a sticker owned by the session user.
// @Tags         games
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Game ID"
// @Success      200 {object} SuccessResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse "Not allowed"
// @Failure      404 {object} ErrorResponse "Game not found"
// @Router       /games/{id} [delete]
func (h *Handler) DeleteGame(c *gin.Context) {
	session, _ := auth.SessionFrom(c)
	id := c.Param("id")
	if err := h.games.Delete(c.Request.Context(), session, id); err != nil {
		respondError(c, err, "Failed to delete game")
		return
	}
	if err := h.exporter.Evict(c.Request.Context(), id); err != nil {
		log.Printf("delete game: evict exports of %s: %v", id, err)
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// ExportGame godoc
// @Summary      Download a sticker
// @Description  Downloads SVG stickers as .svg and Lottie stickers as .json or as an animated .gif.
// @Tags         games
// @Produce      image/svg+xml
// @Produce      application/json
// @Produce      image/gif
// @Param        id     path   string  true   "Game ID"
// @Param        format query  string  false  "svg, json or gif"
// @Success      200 {file} file
// @Failure      400 {object} ErrorResponse "Unsupported export format"
// @Failure      404 {object} ErrorResponse "Game not found"
// @Failure      500 {object} ErrorResponse
// @Router       /games/{id}/export [get]
func (h *Handler) ExportGame(c *gin.Context) {
	ctx := c.Request.Context()
	game, err := h.games.GetVisible(ctx, c.Param("id"), optionalSession(c))
	if err != nil {
		respondError(c, err, "Failed to export game")
		return
	}

	file, err := h.exporter.Export(ctx, game, export.Format(c.Query("format")))
	if err != nil {
		respondError(c, err, "Failed to export game")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
