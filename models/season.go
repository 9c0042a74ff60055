package models

import "time"

// Season is a time-boxed battle pass ladder for one realm.
// The window is half-open: a season is live from StartDate (inclusive) until EndDate (exclusive).
type Season struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	RealmID   uint64    `json:"realm_id" gorm:"index;not null"`
	Name      string    `json:"name" gorm:"not null"`
	Slug      string    `json:"slug" gorm:"type:varchar(128)"` // used as the asset key prefix for reward images
	StartDate time.Time `json:"start_date" gorm:"not null;index"`
	EndDate   time.Time `json:"end_date" gorm:"not null"`

	// Derived at read time, never stored
	IsActive bool `json:"is_active" gorm:"-"`

	Timestamps
}

// Contains reports whether t falls inside [StartDate, EndDate).
func (s *Season) Contains(t time.Time) bool {
	return !t.Before(s.StartDate) && t.Before(s.EndDate)
}

// Overlaps reports whether the two windows share at least one instant.
func (s *Season) Overlaps(other *Season) bool {
	return s.StartDate.Before(other.EndDate) && other.StartDate.Before(s.EndDate)
}
