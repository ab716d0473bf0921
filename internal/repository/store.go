// Package repository wraps entity storage so every read is filtered to the
// caller's own rows and every create stamps the caller as owner.
package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Owned is implemented by models whose rows belong to a single user.
type Owned interface {
	GetID() uint
	GetOwnerID() uint
	SetOwnerID(id uint)
}

// Store is a generic ownership-scoped repository over a GORM model.
type Store[T any, PT interface {
	*T
	Owned
}] struct {
	db *gorm.DB
}

// NewStore returns an ownership-scoped store backed by db.
func NewStore[T any, PT interface {
	*T
	Owned
}](db *gorm.DB) *Store[T, PT] {
	return &Store[T, PT]{db: db}
}

// List returns the rows owned by ownerID in insertion order.
func (s *Store[T, PT]) List(ownerID uint, preloads ...string) ([]T, error) {
	var out []T
	q := s.db.Where("owner_id = ?", ownerID).Order("id")
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Create persists entity for ownerID. The owner is stamped from the
// authenticated caller after validation, never taken from the payload.
func (s *Store[T, PT]) Create(ownerID uint, entity PT) error {
	entity.SetOwnerID(ownerID)
	return s.db.Create(entity).Error
}

// Get fetches a row by primary key without filtering by owner. Single-object
// retrieval is not owner-scoped unless the retrieve policy flag is on; use
// GetOwned in that mode.
func (s *Store[T, PT]) Get(id uint, preloads ...string) (PT, error) {
	var out T
	q := s.db
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if err := q.First(&out, id).Error; err != nil {
		return nil, err
	}
	return PT(&out), nil
}

// GetOwned fetches a row by primary key, restricted to ownerID's rows.
func (s *Store[T, PT]) GetOwned(ownerID, id uint, preloads ...string) (PT, error) {
	var out T
	q := s.db.Where("owner_id = ?", ownerID)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if err := q.First(&out, id).Error; err != nil {
		return nil, err
	}
	return PT(&out), nil
}

// Delete removes the row together with its association rows.
func (s *Store[T, PT]) Delete(entity PT) error {
	return s.db.Select(clause.Associations).Delete(entity).Error
}
