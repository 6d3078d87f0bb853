package store

import (
	"context"
	"errors"
	"strings"

	"stickerlab/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserInput describes a user to create.
type UserInput struct {
	Email        string
	Name         string
	PasswordHash *string
	Image        *string
}

// UserUpdate holds the optional fields of a user update. Nil fields are left untouched.
type UserUpdate struct {
	Name         *string
	PasswordHash *string
	Image        *string
}

type UserStore interface {
	// ResolveUserID maps an email or a user id to the canonical user id.
	// Emails that are not known yet get a new user; unknown ids yield "".
	ResolveUserID(ctx context.Context, idOrEmail string) (string, error)

	CreateUser(ctx context.Context, in UserInput) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, in UserUpdate) (*models.User, error)
}

type userStore struct{ db *gorm.DB }

func NewUserStore(db *gorm.DB) UserStore { return &userStore{db: db} }

// NameFromEmail returns the local part of an email address.
func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

func (s *userStore) ResolveUserID(ctx context.Context, idOrEmail string) (string, error) {
	if strings.Contains(idOrEmail, "@") {
		user, err := s.GetUserByEmail(ctx, idOrEmail)
		if err == nil {
			return user.ID, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}

		created := models.User{Email: idOrEmail, Name: NameFromEmail(idOrEmail)}
		if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
			// A concurrent request may have inserted the same email first.
			if existing, lookupErr := s.GetUserByEmail(ctx, idOrEmail); lookupErr == nil {
				return existing.ID, nil
			}
			return "", err
		}
		return created.ID, nil
	}

	var user models.User
	err := s.db.WithContext(ctx).Select("id").Where("id = ?", idOrEmail).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return user.ID, nil
}

// CreateUser returns the existing user when the email is already registered,
// including when a concurrent request inserts it first.
func (s *userStore) CreateUser(ctx context.Context, in UserInput) (*models.User, error) {
	name := in.Name
	if name == "" {
		name = NameFromEmail(in.Email)
	}
	user := models.User{
		Email:        in.Email,
		Name:         name,
		PasswordHash: in.PasswordHash,
		Image:        in.Image,
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&user)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return s.GetUserByEmail(ctx, in.Email)
	}
	return &user, nil
}

func (s *userStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *userStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *userStore) UpdateUser(ctx context.Context, id string, in UserUpdate) (*models.User, error) {
	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.PasswordHash != nil {
		updates["password_hash"] = *in.PasswordHash
	}
	if in.Image != nil {
		updates["image"] = *in.Image
	}

	if len(updates) > 0 {
		result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.GetUserByID(ctx, id)
}
