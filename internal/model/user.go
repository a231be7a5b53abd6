package model

import "time"

// User is an account that authenticates against the API and owns tasks.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:150"`
	Email        string `gorm:"uniqueIndex;size:254"`
	PasswordHash string `gorm:"size:255"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Profile *Profile `gorm:"constraint:OnDelete:CASCADE"`
	Tasks   []Task   `gorm:"constraint:OnDelete:CASCADE"`
}
