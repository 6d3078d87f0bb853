package handler

import (
	"strconv"

	"stickerlab/backend/internal/games"

	"github.com/gin-gonic/gin"
)

// parseLimit reads the "limit" query parameter. Missing or malformed values
// fall back to the default page size; the result is clamped to 1..100.
func parseLimit(c *gin.Context, fallback int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		limit = fallback
	}
	return games.ClampLimit(limit)
}
