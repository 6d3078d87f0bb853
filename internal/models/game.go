package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContentType discriminates how a record's content blob is rendered and exported.
type ContentType string

const (
	ContentTypeSVG         ContentType = "svg"
	ContentTypeSVGAnimated ContentType = "svg-animated"
	ContentTypeLottie      ContentType = "lottie"
)

// Valid reports whether t is one of the known content types.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeSVG, ContentTypeSVGAnimated, ContentTypeLottie:
		return true
	}
	return false
}

// Game represents a generated sticker owned by exactly one user.
// Content and ContentType never change after creation; edits create new records.
type Game struct {
	ID          string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title       string      `gorm:"size:255;not null" json:"title"`
	Description *string     `json:"description"`
	Prompt      string      `gorm:"type:text;not null" json:"prompt"`
	Content     string      `gorm:"column:html_content;type:text;not null" json:"htmlContent"`
	ContentType ContentType `gorm:"size:32;not null;default:'svg'" json:"contentType"`
	IsPublic    bool        `gorm:"not null;default:false;index" json:"isPublic"`
	UserID      string      `gorm:"type:varchar(36);not null;index" json:"userId"`
	SourceID    *string     `gorm:"type:varchar(36);index" json:"sourceId,omitempty"`
	CreatedAt   time.Time   `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// BeforeCreate assigns a UUID when the caller did not provide one.
func (g *Game) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}
