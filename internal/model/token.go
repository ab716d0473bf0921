package model

import (
	"time"
)

// AuthToken is the opaque bearer token issued on login. Each user holds at
// most one token; repeated logins return the existing key. Tokens carry no
// expiry and are revoked by deleting the row.
type AuthToken struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Key       string    `json:"key" gorm:"type:varchar(64);uniqueIndex;not null"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	User      User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at"`
}
