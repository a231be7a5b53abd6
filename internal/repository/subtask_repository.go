package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"taskhub/internal/model"
)

// SubtaskRepository handles CRUD for subtasks. Ownership is derived from the
// parent task, so scoped lookups join through the tasks table.
type SubtaskRepository struct {
	db *gorm.DB
}

func NewSubtaskRepository(db *gorm.DB) *SubtaskRepository {
	return &SubtaskRepository{db: db}
}

func (r *SubtaskRepository) Create(ctx context.Context, subtask *model.Subtask) error {
	if err := r.db.WithContext(ctx).Create(subtask).Error; err != nil {
		return fmt.Errorf("create subtask: %w", err)
	}
	return nil
}

// ListByUser returns all subtasks whose parent task belongs to the user,
// oldest first.
func (r *SubtaskRepository) ListByUser(ctx context.Context, userID uint) ([]model.Subtask, error) {
	var subtasks []model.Subtask
	if err := r.scoped(ctx, userID).
		Order("subtasks.created_at ASC, subtasks.id ASC").
		Find(&subtasks).Error; err != nil {
		return nil, err
	}
	return subtasks, nil
}

// ListByTask returns the subtasks of one task, oldest first. The caller is
// responsible for having resolved the task through an ownership-scoped lookup.
func (r *SubtaskRepository) ListByTask(ctx context.Context, taskID uint) ([]model.Subtask, error) {
	var subtasks []model.Subtask
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at ASC, id ASC").
		Find(&subtasks).Error; err != nil {
		return nil, err
	}
	return subtasks, nil
}

func (r *SubtaskRepository) FindByID(ctx context.Context, userID, subtaskID uint) (*model.Subtask, error) {
	var subtask model.Subtask
	if err := r.scoped(ctx, userID).
		Where("subtasks.id = ?", subtaskID).
		First(&subtask).Error; err != nil {
		return nil, err
	}
	return &subtask, nil
}

func (r *SubtaskRepository) Save(ctx context.Context, subtask *model.Subtask) error {
	if err := r.db.WithContext(ctx).Save(subtask).Error; err != nil {
		return fmt.Errorf("save subtask: %w", err)
	}
	return nil
}

func (r *SubtaskRepository) Delete(ctx context.Context, userID, subtaskID uint) error {
	subtask, err := r.FindByID(ctx, userID, subtaskID)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(subtask).Error; err != nil {
		return fmt.Errorf("delete subtask: %w", err)
	}
	return nil
}

func (r *SubtaskRepository) scoped(ctx context.Context, userID uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Subtask{}).Preload("Category").
		Joins("JOIN tasks ON tasks.id = subtasks.task_id").
		Where("tasks.user_id = ?", userID)
}
