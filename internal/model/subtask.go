package model

import "time"

// Subtask belongs to a task and inherits its ownership; it has no user
// reference of its own. Deleting the parent task removes it, deleting the
// category only clears the reference.
type Subtask struct {
	ID          uint   `gorm:"primaryKey"`
	TaskID      uint   `gorm:"index"`
	CategoryID  *uint  `gorm:"index"`
	Title       string `gorm:"size:200"`
	Description *string
	Completed   bool `gorm:"default:false"`
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Category *Category
}
