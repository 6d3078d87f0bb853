package handler

import (
	"net/http"

	"stickerlab/backend/internal/auth"
	"stickerlab/backend/internal/games"
	"stickerlab/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// GenerateInput asks for a new sticker.
type GenerateInput struct {
	Prompt      string             `json:"prompt" example:"a sleepy cat on a cloud"`
	IsAnimated  bool               `json:"isAnimated" example:"false"`
	ContentType models.ContentType `json:"contentType" example:"svg"`
	IsPublic    bool               `json:"isPublic" example:"false"`
}

// GenerateResponse is returned for a newly generated sticker.
type GenerateResponse struct {
	Success     bool               `json:"success" example:"true"`
	GameID      string             `json:"gameId"`
	HTMLContent string             `json:"htmlContent"`
	Title       string             `json:"title"`
	ContentType models.ContentType `json:"contentType" example:"svg"`
}

// EditInput derives a new sticker from an existing one.
type EditInput struct {
	GameID      string `json:"gameId"`
	Mode        string `json:"mode" example:"ai" enums:"ai,svg"`
	Instruction string `json:"instruction" example:"make it blue"`
	SVGContent  string `json:"svgContent"`
}

// EditResponse points at the derived sticker.
type EditResponse struct {
	Success bool   `json:"success" example:"true"`
	GameID  string `json:"gameId"`
}

// endregion

// Generate godoc
// @Summary      Generate a sticker
// @Description  Sends the prompt to the generation model and stores the result for the session user.
// @Tags         generate
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body GenerateInput true "Prompt"
// @Success      200  {object}  GenerateResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /generate [post]
func (h *Handler) Generate(c *gin.Context) {
	var input GenerateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	session, _ := auth.SessionFrom(c)
	game, err := h.games.Generate(c.Request.Context(), session, games.GenerateInput{
		Prompt:      input.Prompt,
		ContentType: input.ContentType,
		IsAnimated:  input.IsAnimated,
		IsPublic:    input.IsPublic,
	})
	if err != nil {
		respondError(c, err, "Failed to generate sticker")
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{
		Success:     true,
		GameID:      game.ID,
		HTMLContent: game.Content,
		Title:       game.Title,
		ContentType: game.ContentType,
	})
}

// EditGame godoc
// @Summary      Edit a sticker as a new one
// @Description  Creates a new private sticker from one the session user owns, either by AI instruction or from edited SVG markup. The source sticker is not modified.
// @Tags         generate
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body EditInput true "Edit request"
// @Success      200  {object}  EditResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Not allowed"
// @Failure      404  {object}  ErrorResponse "Game not found"
// @Failure      500  {object}  ErrorResponse
// @Router       /generate/edit [post]
func (h *Handler) EditGame(c *gin.Context) {
	var input EditInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	session, _ := auth.SessionFrom(c)
	game, err := h.games.EditAsNew(c.Request.Context(), session, games.EditInput{
		SourceID:    input.GameID,
		Mode:        input.Mode,
		Instruction: input.Instruction,
		SVGContent:  input.SVGContent,
	})
	if err != nil {
		respondError(c, err, "Failed to edit sticker")
		return
	}
	c.JSON(http.StatusOK, EditResponse{Success: true, GameID: game.ID})
}
