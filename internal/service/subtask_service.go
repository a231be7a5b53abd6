package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"taskhub/internal/model"
	"taskhub/internal/repository"
)

// The error message clients see when a subtask references a task the caller
// does not own. The same wording covers missing tasks so existence never leaks.
const msgTaskNotOwned = "task not found or does not belong to user"

// SubtaskInput represents data required to create a subtask.
type SubtaskInput struct {
	TaskID      uint
	Title       string
	Description *string
	Completed   *bool
	CategoryID  *uint
	DueDate     *time.Time
}

// SubtaskUpdate carries the fields of an update request; nil fields are left
// unchanged. Moving a subtask to another task re-checks ownership.
type SubtaskUpdate struct {
	TaskID           *uint
	Title            *string
	Description      *string
	Completed        *bool
	CategoryID       *uint
	DueDate          *time.Time
	ClearDescription bool
	ClearCategory    bool
	ClearDueDate     bool
}

// SubtaskService wraps subtask CRUD, scoped through the parent task's owner,
// plus the AI next-subtask action.
type SubtaskService struct {
	subtaskRepo  *repository.SubtaskRepository
	taskRepo     *repository.TaskRepository
	categoryRepo *repository.CategoryRepository
	suggester    Suggester
}

func NewSubtaskService(subtaskRepo *repository.SubtaskRepository, taskRepo *repository.TaskRepository, categoryRepo *repository.CategoryRepository, suggester Suggester) *SubtaskService {
	return &SubtaskService{subtaskRepo: subtaskRepo, taskRepo: taskRepo, categoryRepo: categoryRepo, suggester: suggester}
}

func (s *SubtaskService) checkCategory(ctx context.Context, id uint) error {
	if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ValidationError{Field: "category", Message: "category not found"}
		}
		return err
	}
	return nil
}

// resolveTask loads the referenced task through the ownership-scoped lookup.
func (s *SubtaskService) resolveTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ValidationError{Field: "task", Message: msgTaskNotOwned}
		}
		return nil, err
	}
	return task, nil
}

func (s *SubtaskService) Create(ctx context.Context, user *model.User, input SubtaskInput) (*model.Subtask, error) {
	if input.TaskID == 0 {
		return nil, &ValidationError{Field: "task", Message: "task is required"}
	}
	task, err := s.resolveTask(ctx, user, input.TaskID)
	if err != nil {
		return nil, err
	}
	if err := validateTitle(input.Title); err != nil {
		return nil, err
	}
	if input.CategoryID != nil {
		if err := s.checkCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	subtask := model.Subtask{
		TaskID:      task.ID,
		CategoryID:  input.CategoryID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		DueDate:     input.DueDate,
	}
	if input.Completed != nil {
		subtask.Completed = *input.Completed
	}

	if err := s.subtaskRepo.Create(ctx, &subtask); err != nil {
		return nil, err
	}
	return s.subtaskRepo.FindByID(ctx, user.ID, subtask.ID)
}

func (s *SubtaskService) List(ctx context.Context, user *model.User) ([]model.Subtask, error) {
	return s.subtaskRepo.ListByUser(ctx, user.ID)
}

func (s *SubtaskService) Get(ctx context.Context, user *model.User, subtaskID uint) (*model.Subtask, error) {
	return s.subtaskRepo.FindByID(ctx, user.ID, subtaskID)
}

func (s *SubtaskService) Update(ctx context.Context, user *model.User, subtaskID uint, update SubtaskUpdate) (*model.Subtask, error) {
	subtask, err := s.subtaskRepo.FindByID(ctx, user.ID, subtaskID)
	if err != nil {
		return nil, err
	}

	if update.TaskID != nil {
		task, err := s.resolveTask(ctx, user, *update.TaskID)
		if err != nil {
			return nil, err
		}
		subtask.TaskID = task.ID
	}
	if update.Title != nil {
		if err := validateTitle(*update.Title); err != nil {
			return nil, err
		}
		subtask.Title = strings.TrimSpace(*update.Title)
	}
	switch {
	case update.ClearDescription:
		subtask.Description = nil
	case update.Description != nil:
		subtask.Description = update.Description
	}
	if update.Completed != nil {
		subtask.Completed = *update.Completed
	}
	switch {
	case update.ClearCategory:
		subtask.CategoryID = nil
		subtask.Category = nil
	case update.CategoryID != nil:
		if err := s.checkCategory(ctx, *update.CategoryID); err != nil {
			return nil, err
		}
		subtask.CategoryID = update.CategoryID
	}
	switch {
	case update.ClearDueDate:
		subtask.DueDate = nil
	case update.DueDate != nil:
		subtask.DueDate = update.DueDate
	}

	if err := s.subtaskRepo.Save(ctx, subtask); err != nil {
		return nil, err
	}
	return s.subtaskRepo.FindByID(ctx, user.ID, subtask.ID)
}

func (s *SubtaskService) Delete(ctx context.Context, user *model.User, subtaskID uint) error {
	return s.subtaskRepo.Delete(ctx, user.ID, subtaskID)
}

// SuggestNext asks the AI service for the next subtask of a task and persists
// it. Fails with ErrNoSuggestion when the service could not produce one.
func (s *SubtaskService) SuggestNext(ctx context.Context, user *model.User, taskID uint) (*model.Subtask, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}

	existing, err := s.subtaskRepo.ListByTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	titles := make([]string, len(existing))
	for i, sub := range existing {
		titles[i] = sub.Title
	}

	suggestion := s.suggester.SuggestNextSubtask(ctx, task.Title, titles)
	if suggestion == nil {
		return nil, ErrNoSuggestion
	}

	subtask := model.Subtask{
		TaskID: task.ID,
		Title:  strings.TrimSpace(suggestion.Title),
	}
	if suggestion.Description != "" {
		description := suggestion.Description
		subtask.Description = &description
	}

	if err := s.subtaskRepo.Create(ctx, &subtask); err != nil {
		return nil, err
	}
	return s.subtaskRepo.FindByID(ctx, user.ID, subtask.ID)
}
