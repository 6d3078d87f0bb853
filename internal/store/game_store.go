package store

import (
	"context"

	"stickerlab/backend/internal/models"

	"gorm.io/gorm"
)

// GameUpdate holds the mutable fields of a record. Content is deliberately absent.
type GameUpdate struct {
	IsPublic *bool
	Title    *string
}

type GameStore interface {
	CreateGame(ctx context.Context, game *models.Game) error
	GetGame(ctx context.Context, id string) (*models.Game, error)
	ListPublicGames(ctx context.Context, limit int) ([]models.Game, error)
	ListGamesByUser(ctx context.Context, userID string) ([]models.Game, error)
	ListAllGames(ctx context.Context) ([]models.Game, error)
	UpdateGame(ctx context.Context, id string, in GameUpdate) (*models.Game, error)
	DeleteGame(ctx context.Context, id string) error
}

type gameStore struct{ db *gorm.DB }

func NewGameStore(db *gorm.DB) GameStore { return &gameStore{db: db} }

func withOwner(db *gorm.DB) *gorm.DB {
	return db.Preload("User", func(tx *gorm.DB) *gorm.DB {
		return tx.Select("id", "name", "email")
	})
}

func (s *gameStore) CreateGame(ctx context.Context, game *models.Game) error {
	if err := s.db.WithContext(ctx).Omit("User").Create(game).Error; err != nil {
		return err
	}
	return withOwner(s.db.WithContext(ctx)).Where("id = ?", game.ID).First(game).Error
}

func (s *gameStore) GetGame(ctx context.Context, id string) (*models.Game, error) {
	var game models.Game
	if err := withOwner(s.db.WithContext(ctx)).Where("id = ?", id).First(&game).Error; err != nil {
		return nil, translate(err)
	}
	return &game, nil
}

func (s *gameStore) ListPublicGames(ctx context.Context, limit int) ([]models.Game, error) {
	var games []models.Game
	err := withOwner(s.db.WithContext(ctx)).
		Where("is_public = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&games).Error
	return games, err
}

func (s *gameStore) ListGamesByUser(ctx context.Context, userID string) ([]models.Game, error) {
	var games []models.Game
	err := withOwner(s.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&games).Error
	return games, err
}

func (s *gameStore) ListAllGames(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	err := withOwner(s.db.WithContext(ctx)).Order("created_at DESC").Find(&games).Error
	return games, err
}

func (s *gameStore) UpdateGame(ctx context.Context, id string, in GameUpdate) (*models.Game, error) {
	updates := map[string]any{}
	if in.IsPublic != nil {
		updates["is_public"] = *in.IsPublic
	}
	if in.Title != nil {
		updates["title"] = *in.Title
	}

	if len(updates) > 0 {
		result := s.db.WithContext(ctx).Model(&models.Game{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.GetGame(ctx, id)
}

func (s *gameStore) DeleteGame(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Game{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
