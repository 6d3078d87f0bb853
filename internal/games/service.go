// Package games implements the sticker record lifecycle: creation from
// generated content, visibility-aware reads, owner-only updates and
// edit-as-new derivation.
package games

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stickerlab/backend/internal/ai"
	"stickerlab/backend/internal/auth"
	"stickerlab/backend/internal/hub"
	"stickerlab/backend/internal/models"
	"stickerlab/backend/internal/store"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	maxPromptLen      = 2000
	maxInstructionLen = 2000
	maxTitleLen       = 255
)

const (
	EditModeAI  = "ai"
	EditModeSVG = "svg"
)

type Service struct {
	users     store.UserStore
	games     store.GameStore
	generator ai.Generator
	hub       *hub.Hub
}

// NewService wires the record lifecycle. h may be nil when no live feed is served.
func NewService(users store.UserStore, games store.GameStore, generator ai.Generator, h *hub.Hub) *Service {
	return &Service{users: users, games: games, generator: generator, hub: h}
}

// ClampLimit applies the list size bounds.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

type CreateInput struct {
	// Owner is a user id or an email address.
	Owner       string
	Title       string
	Description *string
	Prompt      string
	Content     string
	ContentType models.ContentType
	IsPublic    bool
	SourceID    *string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Game, error) {
	ct := in.ContentType
	if ct == "" {
		ct = models.ContentTypeSVG
	}
	if !ct.Valid() {
		return nil, invalid("Invalid content type")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, invalid("Content is required")
	}

	ownerID, err := s.users.ResolveUserID(ctx, in.Owner)
	if err != nil {
		return nil, fmt.Errorf("resolve owner: %w", err)
	}
	if ownerID == "" {
		return nil, ErrOwnerNotFound
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = ai.TitleFromPrompt(in.Prompt)
	}
	game := &models.Game{
		Title:       truncate(title, maxTitleLen),
		Description: in.Description,
		Prompt:      in.Prompt,
		Content:     in.Content,
		ContentType: ct,
		IsPublic:    in.IsPublic,
		UserID:      ownerID,
		SourceID:    in.SourceID,
	}
	if err := s.games.CreateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}

	s.publish(hub.EventGameCreated, game, false)
	return game, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Game, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	game, err := s.games.GetGame(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	return game, nil
}

// GetVisible returns the record if the viewer may see it. Private records of
// other users are reported as missing. session may be nil for anonymous viewers.
func (s *Service) GetVisible(ctx context.Context, id string, session *auth.Session) (*models.Game, error) {
	game, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !game.IsPublic && (session == nil || !auth.IsOwner(*session, game)) {
		return nil, ErrNotFound
	}
	return game, nil
}

func (s *Service) ListPublic(ctx context.Context, limit int) ([]models.Game, error) {
	games, err := s.games.ListPublicGames(ctx, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list public games: %w", err)
	}
	return games, nil
}

// ListForOwner lists every record of a user, newest first. Owners that cannot
// be resolved have no records.
func (s *Service) ListForOwner(ctx context.Context, idOrEmail string) ([]models.Game, error) {
	if strings.TrimSpace(idOrEmail) == "" {
		return []models.Game{}, nil
	}
	ownerID, err := s.users.ResolveUserID(ctx, idOrEmail)
	if err != nil {
		return nil, fmt.Errorf("resolve owner: %w", err)
	}
	if ownerID == "" {
		return []models.Game{}, nil
	}
	games, err := s.games.ListGamesByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list user games: %w", err)
	}
	return games, nil
}

// ListForSession lists the records of the session user.
func (s *Service) ListForSession(ctx context.Context, session auth.Session) ([]models.Game, error) {
	if session.UserID != "" {
		return s.ListForOwner(ctx, session.UserID)
	}
	return s.ListForOwner(ctx, session.Email)
}

// authorize loads a record and checks that session owns it.
func (s *Service) authorize(ctx context.Context, session auth.Session, id string) (*models.Game, error) {
	game, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.IsOwner(session, game) {
		return nil, ErrForbidden
	}
	return game, nil
}

// UpdateInput holds the fields an owner may change. Content is immutable.
type UpdateInput struct {
	IsPublic *bool
	Title    *string
}

func (s *Service) Update(ctx context.Context, session auth.Session, id string, in UpdateInput) (*models.Game, error) {
	if in.IsPublic == nil && in.Title == nil {
		return nil, invalid("isPublic or title is required")
	}
	update := store.GameUpdate{IsPublic: in.IsPublic}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, invalid("Title cannot be empty")
		}
		title = truncate(title, maxTitleLen)
		update.Title = &title
	}

	before, err := s.authorize(ctx, session, id)
	if err != nil {
		return nil, err
	}

	game, err := s.games.UpdateGame(ctx, id, update)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update game: %w", err)
	}

	// A record leaving the public feed is announced there too.
	s.publish(hub.EventGameUpdated, game, before.IsPublic)
	return game, nil
}

func (s *Service) Delete(ctx context.Context, session auth.Session, id string) error {
	game, err := s.authorize(ctx, session, id)
	if err != nil {
		return err
	}
	err = s.games.DeleteGame(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete game: %w", err)
	}

	s.publish(hub.EventGameDeleted, game, false)
	return nil
}

type GenerateInput struct {
	Prompt      string
	ContentType models.ContentType
	IsAnimated  bool
	IsPublic    bool
}

// Generate asks the generator for a sticker and stores it for the session user.
func (s *Service) Generate(ctx context.Context, session auth.Session, in GenerateInput) (*models.Game, error) {
	prompt := strings.TrimSpace(in.Prompt)
	if prompt == "" {
		return nil, invalid("Prompt is required")
	}
	if len([]rune(prompt)) > maxPromptLen {
		return nil, invalid(fmt.Sprintf("Prompt must be at most %d characters", maxPromptLen))
	}
	ct := in.ContentType
	if ct == "" {
		ct = models.ContentTypeSVG
		if in.IsAnimated {
			ct = models.ContentTypeSVGAnimated
		}
	}
	if !ct.Valid() {
		return nil, invalid("Invalid content type")
	}

	res, err := s.generator.Generate(ctx, ai.Request{Prompt: prompt, ContentType: ct})
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	return s.Create(ctx, CreateInput{
		Owner:       sessionOwner(session),
		Title:       res.Title,
		Prompt:      prompt,
		Content:     res.Content,
		ContentType: res.ContentType,
		IsPublic:    in.IsPublic,
	})
}

type EditInput struct {
	SourceID    string
	Mode        string
	Instruction string
	SVGContent  string
}

// EditAsNew derives a new private record from one the session owns. The
// source record is left unchanged.
func (s *Service) EditAsNew(ctx context.Context, session auth.Session, in EditInput) (*models.Game, error) {
	if strings.TrimSpace(in.SourceID) == "" {
		return nil, invalid("gameId is required")
	}
	instruction := strings.TrimSpace(in.Instruction)
	svg := strings.TrimSpace(in.SVGContent)
	switch in.Mode {
	case EditModeAI:
		if instruction == "" {
			return nil, invalid("Instruction is required")
		}
		if len([]rune(instruction)) > maxInstructionLen {
			return nil, invalid(fmt.Sprintf("Instruction must be at most %d characters", maxInstructionLen))
		}
	case EditModeSVG:
		if svg == "" {
			return nil, invalid("SVG content is required")
		}
		if !strings.Contains(strings.ToLower(svg), "<svg") {
			return nil, invalid("SVG content must contain an <svg> element")
		}
	default:
		return nil, invalid("Invalid edit mode")
	}

	source, err := s.authorize(ctx, session, in.SourceID)
	if err != nil {
		return nil, err
	}

	var content string
	ct := source.ContentType
	prompt := source.Prompt
	switch in.Mode {
	case EditModeAI:
		res, err := s.generator.Edit(ctx, ai.EditRequest{
			Instruction: instruction,
			Title:       source.Title,
			Source:      source.Content,
			ContentType: source.ContentType,
		})
		if err != nil {
			return nil, fmt.Errorf("edit: %w", err)
		}
		content = res.Content
		prompt = instruction
	case EditModeSVG:
		if ct == models.ContentTypeLottie {
			return nil, invalid("Lottie stickers can only be edited with AI")
		}
		content = svg
	}

	sourceID := source.ID
	return s.Create(ctx, CreateInput{
		Owner:       source.UserID,
		Title:       source.Title + " (edited)",
		Description: source.Description,
		Prompt:      prompt,
		Content:     content,
		ContentType: ct,
		IsPublic:    false,
		SourceID:    &sourceID,
	})
}

// sessionOwner picks the identity used to own new records.
func sessionOwner(session auth.Session) string {
	if session.UserID != "" {
		return session.UserID
	}
	return session.Email
}

// FeedItem is the payload of live feed events.
type FeedItem struct {
	ID          string             `json:"id"`
	Title       string             `json:"title,omitempty"`
	ContentType models.ContentType `json:"contentType,omitempty"`
	IsPublic    bool               `json:"isPublic"`
	UserID      string             `json:"userId,omitempty"`
}

func (s *Service) publish(eventType string, game *models.Game, wasPublic bool) {
	if s.hub == nil {
		return
	}
	item := FeedItem{
		ID:          game.ID,
		Title:       game.Title,
		ContentType: game.ContentType,
		IsPublic:    game.IsPublic,
		UserID:      game.UserID,
	}
	if game.IsPublic {
		s.hub.Broadcast(hub.TopicPublic, hub.Event{Type: eventType, Payload: item})
		return
	}
	// Private records only ever reach their owner's topic. A record that just
	// left the public feed is announced there by id alone.
	if wasPublic {
		s.hub.Broadcast(hub.TopicPublic, hub.Event{Type: eventType, Payload: FeedItem{ID: game.ID}})
	}
	s.hub.Broadcast(hub.UserTopic(game.UserID), hub.Event{Type: eventType, Payload: item})
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return strings.TrimSpace(string(r[:n]))
	}
	return s
}
