package model

import (
	"time"
)

// Recipe is the central owner-scoped resource. Tags and ingredients are
// attached through plain join tables; membership is unordered and unique.
type Recipe struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Name        string       `json:"name" gorm:"type:varchar(255);not null"`
	OwnerID     uint         `json:"owner_id" gorm:"index;not null"`
	CookMinutes int          `json:"cook_minutes" gorm:"not null"`
	Price       float64      `json:"price" gorm:"type:numeric(5,2);not null"`
	Link        string       `json:"link" gorm:"type:varchar(255)"`
	Image       string       `json:"image" gorm:"type:varchar(255)"`
	Tags        []Tag        `json:"tags" gorm:"many2many:recipe_tags"`
	Ingredients []Ingredient `json:"ingredients" gorm:"many2many:recipe_ingredients"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (r *Recipe) GetID() uint        { return r.ID }
func (r *Recipe) GetOwnerID() uint   { return r.OwnerID }
func (r *Recipe) SetOwnerID(id uint) { r.OwnerID = id }
