package model

import (
	"time"
)

// Ingredient is an owner-scoped item that recipes reference through
// recipe_ingredients.
type Ingredient struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(30);not null"`
	OwnerID   uint      `json:"owner_id" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *Ingredient) GetID() uint        { return i.ID }
func (i *Ingredient) GetOwnerID() uint   { return i.OwnerID }
func (i *Ingredient) SetOwnerID(id uint) { i.OwnerID = id }
