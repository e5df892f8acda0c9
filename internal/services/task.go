package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/worknest/worknest/internal/authz"
	"github.com/worknest/worknest/internal/db/models"
	"github.com/worknest/worknest/internal/db/repositories"
)

// TaskService creates and lists tasks and task statuses inside a project.
type TaskService struct {
	tasks    TaskStore
	statuses TaskStatusStore
	projects ProjectStore
	users    UserStore
}

// NewTaskService creates a new TaskService
func NewTaskService(tasks TaskStore, statuses TaskStatusStore, projects ProjectStore, users UserStore) *TaskService {
	return &TaskService{tasks: tasks, statuses: statuses, projects: projects, users: users}
}

// authorize loads the actor and the project and applies rule.
func (s *TaskService) authorize(ctx context.Context, actorID, projectID, action string, rule func(authz.Actor, authz.ProjectRef) error) (*models.User, *Result) {
	actor, res := loadActor(ctx, s.users, actorID)
	if res != nil {
		return nil, res
	}
	project, res := loadProject(ctx, s.projects, projectID)
	if res != nil {
		return nil, res
	}
	if err := rule(actor.Actor(), project.Ref()); err != nil {
		r := denied(action, err)
		return nil, &r
	}
	return actor, nil
}

// CreateStatus adds a status label to a project's board.
func (s *TaskService) CreateStatus(ctx context.Context, actorID string, in CreateTaskStatusInput) Result {
	if _, res := s.authorize(ctx, actorID, in.ProjectID, "task.create_status", authz.CanContribute); res != nil {
		return *res
	}
	status := &models.TaskStatus{
		ProjectID: in.ProjectID,
		Status:    strings.TrimSpace(in.StatusDetails.Status),
		Position:  in.StatusDetails.Position,
	}
	if err := s.statuses.CreateTaskStatus(ctx, status); err != nil {
		return internalError("create task status", err)
	}
	return success(http.StatusCreated, MsgSuccess, payload{"newTaskStatus": status})
}

// Create adds a task assigned by the actor. The current status starts empty
// and the assignee, when given, must exist.
func (s *TaskService) Create(ctx context.Context, actorID string, in CreateTaskInput) Result {
	actor, res := s.authorize(ctx, actorID, in.ProjectID, "task.create", authz.CanContribute)
	if res != nil {
		return *res
	}
	if in.AssignedTo != nil {
		assignee, err := s.users.GetUserByID(ctx, *in.AssignedTo)
		if err != nil {
			return internalError("load assignee", err)
		}
		if assignee == nil {
			return failure(http.StatusNotFound, NotFound("Assignee"))
		}
	}
	task := &models.Task{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		AssignedBy:  actor.ID,
		AssignedTo:  in.AssignedTo,
		ProjectID:   in.ProjectID,
		ExpiryTime:  in.ExpiryTime,
		Priority:    in.Priority,
		Attachments: in.Attachments.toModel(),
	}
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		if errors.Is(err, repositories.ErrMissingReference) {
			return failure(http.StatusNotFound, NotFound("Assignee"))
		}
		return internalError("create task", err)
	}
	return success(http.StatusCreated, MsgSuccess, payload{"newTask": task})
}

// ListTasks returns a project's tasks to anyone who may view the project.
func (s *TaskService) ListTasks(ctx context.Context, actorID, projectID string) Result {
	if _, res := s.authorize(ctx, actorID, projectID, "task.list", authz.CanViewProject); res != nil {
		return *res
	}
	tasks, err := s.tasks.ListTasksByProject(ctx, projectID)
	if err != nil {
		return internalError("list tasks", err)
	}
	return success(http.StatusOK, MsgSuccess, payload{"tasks": tasks})
}

// ListStatuses returns a project's status labels in board order.
func (s *TaskService) ListStatuses(ctx context.Context, actorID, projectID string) Result {
	if _, res := s.authorize(ctx, actorID, projectID, "task.list_statuses", authz.CanViewProject); res != nil {
		return *res
	}
	statuses, err := s.statuses.ListTaskStatuses(ctx, projectID)
	if err != nil {
		return internalError("list task statuses", err)
	}
	return success(http.StatusOK, MsgSuccess, payload{"taskStatuses": statuses})
}
