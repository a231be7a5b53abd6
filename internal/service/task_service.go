package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"taskhub/internal/ai"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

// Suggester is the port to the AI suggestion service. Implementations never
// return errors: classification falls back to ai.FallbackCategory, subtask
// suggestion to nil.
type Suggester interface {
	SuggestCategory(ctx context.Context, title, description string, candidates []string) string
	SuggestNextSubtask(ctx context.Context, taskTitle string, existingTitles []string) *ai.SubtaskSuggestion
}

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string
	Description *string
	Completed   *bool
	CategoryID  *uint
	DueDate     *time.Time
}

// TaskUpdate carries the fields of an update request; nil fields are left
// unchanged.
type TaskUpdate struct {
	Title            *string
	Description      *string
	Completed        *bool
	CategoryID       *uint
	DueDate          *time.Time
	ClearDescription bool
	ClearCategory    bool
	ClearDueDate     bool
}

// CategorizeResult is the outcome of the categorize action. MatchedCategory
// is nil when the suggestion matched no existing category; in that case
// nothing was persisted and Suggestion carries the raw name for the caller.
type CategorizeResult struct {
	Task            *model.Task
	MatchedCategory *model.Category
	Suggestion      string
}

// TaskService wraps ownership-scoped task CRUD and the categorize flow.
type TaskService struct {
	taskRepo     *repository.TaskRepository
	categoryRepo *repository.CategoryRepository
	suggester    Suggester
}

func NewTaskService(taskRepo *repository.TaskRepository, categoryRepo *repository.CategoryRepository, suggester Suggester) *TaskService {
	return &TaskService{taskRepo: taskRepo, categoryRepo: categoryRepo, suggester: suggester}
}

func (s *TaskService) Create(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	if err := validateTitle(input.Title); err != nil {
		return nil, err
	}
	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &ValidationError{Field: "category", Message: "category not found"}
			}
			return nil, err
		}
	}

	// Ownership is assigned here, never taken from the request.
	task := model.Task{
		UserID:      user.ID,
		CategoryID:  input.CategoryID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		DueDate:     input.DueDate,
	}
	if input.Completed != nil {
		task.Completed = *input.Completed
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return s.taskRepo.FindByID(ctx, user.ID, task.ID)
}

func (s *TaskService) List(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.taskRepo.ListByUser(ctx, user.ID)
}

func (s *TaskService) Get(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, user.ID, taskID)
}

func (s *TaskService) Update(ctx context.Context, user *model.User, taskID uint, update TaskUpdate) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		if err := validateTitle(*update.Title); err != nil {
			return nil, err
		}
		task.Title = strings.TrimSpace(*update.Title)
	}
	switch {
	case update.ClearDescription:
		task.Description = nil
	case update.Description != nil:
		task.Description = update.Description
	}
	if update.Completed != nil {
		task.Completed = *update.Completed
	}
	switch {
	case update.ClearCategory:
		task.CategoryID = nil
		task.Category = nil
	case update.CategoryID != nil:
		if _, err := s.categoryRepo.FindByID(ctx, *update.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &ValidationError{Field: "category", Message: "category not found"}
			}
			return nil, err
		}
		task.CategoryID = update.CategoryID
	}
	switch {
	case update.ClearDueDate:
		task.DueDate = nil
	case update.DueDate != nil:
		task.DueDate = update.DueDate
	}

	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	return s.taskRepo.FindByID(ctx, user.ID, task.ID)
}

func (s *TaskService) Delete(ctx context.Context, user *model.User, taskID uint) error {
	return s.taskRepo.Delete(ctx, user.ID, taskID)
}

// SuggestCategoryFor asks the AI service for a category name for the task.
// It writes nothing. Fails with ErrNoCategories before making any external
// call when the taxonomy is empty.
func (s *TaskService) SuggestCategoryFor(ctx context.Context, user *model.User, taskID uint) (*model.Task, []model.Category, string, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, nil, "", err
	}

	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, nil, "", err
	}
	if len(categories) == 0 {
		return nil, nil, "", ErrNoCategories
	}

	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}

	description := ""
	if task.Description != nil {
		description = *task.Description
	}

	suggestion := strings.TrimSpace(s.suggester.SuggestCategory(ctx, task.Title, description, names))
	if suggestion == "" {
		return nil, nil, "", ErrNoSuggestion
	}
	return task, categories, suggestion, nil
}

// ApplyCategorySuggestion matches a suggestion against the categories
// case-insensitively. On a match (first wins among duplicate names) the task
// is updated and saved; otherwise nothing is persisted and the raw suggestion
// is carried back in the result.
func (s *TaskService) ApplyCategorySuggestion(ctx context.Context, task *model.Task, categories []model.Category, suggestion string) (*CategorizeResult, error) {
	result := &CategorizeResult{Task: task, Suggestion: suggestion}

	for i := range categories {
		if strings.EqualFold(categories[i].Name, suggestion) {
			result.MatchedCategory = &categories[i]
			break
		}
	}
	if result.MatchedCategory == nil {
		return result, nil
	}

	task.CategoryID = &result.MatchedCategory.ID
	task.Category = result.MatchedCategory
	task.AIClassification = &result.MatchedCategory.Name
	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, err
	}
	return result, nil
}

// Categorize runs the full action: obtain a suggestion, then apply it.
func (s *TaskService) Categorize(ctx context.Context, user *model.User, taskID uint) (*CategorizeResult, error) {
	task, categories, suggestion, err := s.SuggestCategoryFor(ctx, user, taskID)
	if err != nil {
		return nil, err
	}
	return s.ApplyCategorySuggestion(ctx, task, categories, suggestion)
}

func validateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if len(title) > model.MaxTitleLen {
		return &ValidationError{Field: "title", Message: "title must be at most 200 characters"}
	}
	return nil
}
