package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"stickerlab/backend/internal/export"
	"stickerlab/backend/internal/games"
	"stickerlab/backend/internal/lottie"
	"stickerlab/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// SuccessResponse is returned by operations without a payload.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// OwnerResponse is the public part of a record owner.
type OwnerResponse struct {
	Name  string `json:"name" example:"alice"`
	Email string `json:"email" example:"alice@example.com"`
}

// UserResponse describes a user.
type UserResponse struct {
	ID    string  `json:"id" example:"3f0c2a52-8a57-4c4e-9d0b-6c4f1f1c2b11"`
	Email string  `json:"email" example:"alice@example.com"`
	Name  string  `json:"name" example:"alice"`
	Image *string `json:"image,omitempty"`
}

// GameResponse describes a sticker record.
type GameResponse struct {
	ID          string             `json:"id" example:"9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d"`
	Title       string             `json:"title" example:"Sleepy cat"`
	Description *string            `json:"description"`
	Prompt      string             `json:"prompt" example:"a sleepy cat"`
	HTMLContent string             `json:"htmlContent" example:"<svg>...</svg>"`
	ContentType models.ContentType `json:"contentType" example:"svg"`
	IsPublic    bool               `json:"isPublic" example:"false"`
	UserID      string             `json:"userId"`
	SourceID    *string            `json:"sourceId,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	User        OwnerResponse      `json:"user"`
}

func newGameResponse(game models.Game) GameResponse {
	return GameResponse{
		ID:          game.ID,
		Title:       game.Title,
		Description: game.Description,
		Prompt:      game.Prompt,
		HTMLContent: game.Content,
		ContentType: game.ContentType,
		IsPublic:    game.IsPublic,
		UserID:      game.UserID,
		SourceID:    game.SourceID,
		CreatedAt:   game.CreatedAt,
		UpdatedAt:   game.UpdatedAt,
		User:        OwnerResponse{Name: game.User.Name, Email: game.User.Email},
	}
}

func newGameResponses(list []models.Game) []GameResponse {
	out := make([]GameResponse, len(list))
	for i, game := range list {
		out[i] = newGameResponse(game)
	}
	return out
}

func newUserResponse(user models.User) UserResponse {
	return UserResponse{ID: user.ID, Email: user.Email, Name: user.Name, Image: user.Image}
}

// GameEnvelope wraps a single record.
type GameEnvelope struct {
	Success bool         `json:"success" example:"true"`
	Game    GameResponse `json:"game"`
}

// GameListEnvelope wraps a list of records.
type GameListEnvelope struct {
	Success bool           `json:"success" example:"true"`
	Games   []GameResponse `json:"games"`
}

// endregion

// respondError writes the JSON error for err. Unexpected errors are logged
// and answered with fallback so internals never reach the client.
func respondError(c *gin.Context, err error, fallback string) {
	var ve *games.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message})
	case errors.Is(err, games.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
	case errors.Is(err, games.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed"})
	case errors.Is(err, export.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported export format"})
	case errors.Is(err, export.ErrInvalidContent):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid animation"})
	case errors.Is(err, lottie.ErrTimeout):
		log.Printf("%s: %s: %v", c.FullPath(), fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Export timed out"})
	default:
		log.Printf("%s: %s: %v", c.FullPath(), fallback, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
