// task_repository.go implements TaskRepository and TaskStatusRepository.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/worknest/worknest/internal/db/models"
)

const taskColumns = `id, title, description, assigned_by, assigned_to, project_id,
	expiry_time, started_at, completed_at, current_status, priority,
	attachment_urls, attachment_files, created_at, updated_at`

// TaskRepository handles task database operations
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// CreateTask inserts a task and assigns its ID and timestamps
func (r *TaskRepository) CreateTask(ctx context.Context, task *models.Task) error {
	now := time.Now()
	task.ID = uuid.New().String()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.URLs == nil {
		task.URLs = pq.StringArray{}
	}
	if task.Files == nil {
		task.Files = pq.StringArray{}
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.AssignedBy,
		task.AssignedTo,
		task.ProjectID,
		task.ExpiryTime,
		task.StartedAt,
		task.CompletedAt,
		task.CurrentStatus,
		task.Priority,
		task.URLs,
		task.Files,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("failed to create task: %w", ErrMissingReference)
	}
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// ListTasksByProject returns a project's tasks, oldest first
func (r *TaskRepository) ListTasksByProject(ctx context.Context, projectID string) ([]*models.Task, error) {
	tasks := []*models.Task{}
	err := r.db.SelectContext(ctx, &tasks,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = $1 ORDER BY created_at ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// TaskStatusRepository handles task status database operations
type TaskStatusRepository struct {
	db *sqlx.DB
}

// NewTaskStatusRepository creates a new TaskStatusRepository
func NewTaskStatusRepository(db *sqlx.DB) *TaskStatusRepository {
	return &TaskStatusRepository{db: db}
}

// CreateTaskStatus inserts a status label for a project
func (r *TaskStatusRepository) CreateTaskStatus(ctx context.Context, status *models.TaskStatus) error {
	now := time.Now()
	status.ID = uuid.New().String()
	status.CreatedAt = now
	status.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO task_statuses (id, project_id, status, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, status.ID, status.ProjectID, status.Status, status.Position, status.CreatedAt, status.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task status: %w", err)
	}
	return nil
}

// ListTaskStatuses returns a project's status labels ordered by position
func (r *TaskStatusRepository) ListTaskStatuses(ctx context.Context, projectID string) ([]*models.TaskStatus, error) {
	statuses := []*models.TaskStatus{}
	err := r.db.SelectContext(ctx, &statuses, `
		SELECT id, project_id, status, position, created_at, updated_at
		FROM task_statuses
		WHERE project_id = $1
		ORDER BY position ASC, created_at ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list task statuses: %w", err)
	}
	return statuses, nil
}
