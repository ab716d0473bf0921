package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// UnresolvedRefError reports relational IDs in a write payload that do not
// resolve to existing rows. Field names the payload field ("tags" or
// "ingredients") so the caller can scope the validation error.
type UnresolvedRefError struct {
	Field string
	IDs   []uint
}

func (e *UnresolvedRefError) Error() string {
	return fmt.Sprintf("%s: invalid ids %v", e.Field, e.IDs)
}

// Resolve maps a list of IDs from a write payload to the referenced rows.
// Every ID must resolve or the whole call fails with UnresolvedRefError.
// Duplicates collapse to a single membership; the result keeps payload order.
// When requiredOwner is non-nil, rows owned by anyone else count as
// unresolved. That is the cross-owner attach policy, off by default.
func Resolve[T any, PT interface {
	*T
	Owned
}](db *gorm.DB, field string, ids []uint, requiredOwner *uint) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}

	var rows []T
	q := db.Where("id IN ?", ids)
	if requiredOwner != nil {
		q = q.Where("owner_id = ?", *requiredOwner)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]*T, len(rows))
	for i := range rows {
		byID[PT(&rows[i]).GetID()] = &rows[i]
	}

	resolved := make([]T, 0, len(ids))
	seen := make(map[uint]bool, len(ids))
	var missing []uint
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		row, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		resolved = append(resolved, *row)
	}

	if len(missing) > 0 {
		return nil, &UnresolvedRefError{Field: field, IDs: missing}
	}
	return resolved, nil
}
