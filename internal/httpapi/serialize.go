package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"taskhub/internal/model"
)

// Wire format for dates (due_date is a date, not a timestamp).
const dateLayout = "2006-01-02"

func taskJSON(t *model.Task, username string) gin.H {
	var categoryName interface{}
	if t.Category != nil {
		categoryName = t.Category.Name
	}
	return gin.H{
		"id":                t.ID,
		"title":             t.Title,
		"description":       t.Description,
		"completed":         t.Completed,
		"user":              t.UserID,
		"user_username":     username,
		"category":          t.CategoryID,
		"category_name":     categoryName,
		"ai_classification": t.AIClassification,
		"due_date":          formatDate(t.DueDate),
		"created_at":        t.CreatedAt,
	}
}

func subtaskJSON(sub *model.Subtask) gin.H {
	var categoryName interface{}
	if sub.Category != nil {
		categoryName = sub.Category.Name
	}
	return gin.H{
		"id":            sub.ID,
		"task":          sub.TaskID,
		"title":         sub.Title,
		"description":   sub.Description,
		"completed":     sub.Completed,
		"category":      sub.CategoryID,
		"category_name": categoryName,
		"due_date":      formatDate(sub.DueDate),
		"created_at":    sub.CreatedAt,
	}
}

func categoryJSON(category *model.Category) gin.H {
	return gin.H{
		"id":         category.ID,
		"name":       category.Name,
		"created_at": category.CreatedAt,
	}
}

func userJSON(user *model.User) gin.H {
	h := gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	}
	if user.Profile != nil {
		h["profile"] = gin.H{
			"role":   user.Profile.Role,
			"avatar": user.Profile.Avatar,
			"bio":    user.Profile.Bio,
		}
	}
	return h
}

func formatDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

// parseDate turns a wire date into a time value; ok is false on garbage.
func parseDate(raw string) (*time.Time, bool) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}
