package model

import "time"

// Profile roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Profile extends a User with display and role metadata. It lives and dies
// with its owning user.
type Profile struct {
	ID     uint   `gorm:"primaryKey"`
	UserID uint   `gorm:"uniqueIndex"`
	Role   string `gorm:"size:20;default:user"`
	Avatar *string
	Bio    string

	// Optional Telegram chat for due-date digests; nil means no reminders.
	TelegramChatID *int64 `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
