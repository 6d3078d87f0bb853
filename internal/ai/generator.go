// Package ai talks to the content generation model and turns its replies
// into sticker content.
package ai

import (
	"context"
	"errors"

	"stickerlab/backend/internal/models"
)

// ErrEmptyContent is returned when a model reply holds no usable content.
var ErrEmptyContent = errors.New("model returned no usable content")

// Request asks for a new sticker.
type Request struct {
	Prompt      string
	ContentType models.ContentType
}

// EditRequest asks for a variation of existing content.
type EditRequest struct {
	Instruction string
	Title       string
	Source      string
	ContentType models.ContentType
}

// Result is generated sticker content.
type Result struct {
	Title       string
	Content     string
	ContentType models.ContentType
}

//go:generate mockgen -source=generator.go -destination=aimock/generator.go -package=aimock

// Generator produces sticker content from natural-language input.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
	Edit(ctx context.Context, req EditRequest) (*Result, error)
}
