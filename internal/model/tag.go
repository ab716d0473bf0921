package model

import (
	"time"
)

// Tag is an owner-scoped label that recipes reference through recipe_tags.
type Tag struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(30);not null"`
	OwnerID   uint      `json:"owner_id" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetID reports the primary key.
func (t *Tag) GetID() uint { return t.ID }

// GetOwnerID reports the owning user.
func (t *Tag) GetOwnerID() uint { return t.OwnerID }

// SetOwnerID stamps the owning user.
func (t *Tag) SetOwnerID(id uint) { t.OwnerID = id }
