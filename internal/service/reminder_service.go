package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"taskhub/internal/model"
	"taskhub/internal/repository"
)

// Notifier delivers a digest to a chat. Implemented by notify.Telegram.
type Notifier interface {
	Send(chatID int64, text string) error
}

// ReminderService builds human-readable due-date digests for users who linked
// a notification chat.
type ReminderService struct {
	userRepo *repository.UserRepository
	taskRepo *repository.TaskRepository
}

func NewReminderService(userRepo *repository.UserRepository, taskRepo *repository.TaskRepository) *ReminderService {
	return &ReminderService{userRepo: userRepo, taskRepo: taskRepo}
}

// DueDigest summarizes the user's overdue and due-within-24h open tasks.
// Returns "" when there is nothing to report.
func (s *ReminderService) DueDigest(ctx context.Context, user model.User, now time.Time) (string, error) {
	tasks, err := s.taskRepo.ListDueSoon(ctx, user.ID, now.Add(24*time.Hour))
	if err != nil {
		return "", err
	}
	if len(tasks) == 0 {
		return "", nil
	}

	var overdue, upcoming []model.Task
	for _, task := range tasks {
		if task.DueDate.Before(now) {
			overdue = append(overdue, task)
		} else {
			upcoming = append(upcoming, task)
		}
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Tasks needing attention, %s\n", now.Format("02 Jan 2006")))

	if len(overdue) > 0 {
		builder.WriteString("\nOverdue:\n")
		for _, task := range overdue {
			builder.WriteString(formatDigestLine(task))
		}
	}
	if len(upcoming) > 0 {
		builder.WriteString("\nDue within 24 hours:\n")
		for _, task := range upcoming {
			builder.WriteString(formatDigestLine(task))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

// SendDigests fans the digest out to every user with a linked chat. Delivery
// failures are logged and never abort the run.
func (s *ReminderService) SendDigests(ctx context.Context, notifier Notifier, now time.Time) error {
	users, err := s.userRepo.ListWithTelegram(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	for _, user := range users {
		if user.Profile == nil || user.Profile.TelegramChatID == nil {
			continue
		}
		digest, err := s.DueDigest(ctx, user, now)
		if err != nil {
			log.Printf("reminder: digest for user %d: %v", user.ID, err)
			continue
		}
		if digest == "" {
			continue
		}
		if err := notifier.Send(*user.Profile.TelegramChatID, digest); err != nil {
			log.Printf("reminder: send to user %d: %v", user.ID, err)
		}
	}
	return nil
}

func formatDigestLine(task model.Task) string {
	line := fmt.Sprintf("- %s (due %s)", task.Title, task.DueDate.Format("02 Jan"))
	if task.Category != nil {
		line += " [" + task.Category.Name + "]"
	}
	return line + "\n"
}
