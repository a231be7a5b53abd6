package model

import "time"

// MaxTitleLen caps task and subtask titles.
const MaxTitleLen = 200

// Task is a single item owned by exactly one user. Deleting the user removes
// the task; deleting its category only clears the reference.
type Task struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index"`
	CategoryID  *uint  `gorm:"index"`
	Title       string `gorm:"size:200"`
	Description *string
	Completed   bool `gorm:"default:false"`

	// Set only by the categorize action, never from a request body.
	AIClassification *string `gorm:"size:50"`

	DueDate   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	Category *Category
	Subtasks []Subtask `gorm:"constraint:OnDelete:CASCADE"`
}
