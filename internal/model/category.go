package model

import "time"

// Category is a shared, global label for tasks and subtasks. Names are not
// unique; any authenticated user may manage any category.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;index"`
	CreatedAt time.Time

	Tasks    []Task    `gorm:"constraint:OnDelete:SET NULL"`
	Subtasks []Subtask `gorm:"constraint:OnDelete:SET NULL"`
}
