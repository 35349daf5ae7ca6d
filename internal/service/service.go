// Package service defines the backend-agnostic types and contracts for task operations.
package service

import "context"

// Gateway defines the remote task service surface.
// All network I/O against the remote goes through this interface.
// Every method receives the bearer token of the account it acts for.
type Gateway interface {
	// ListTaskLists returns all task lists in API order.
	ListTaskLists(ctx context.Context, token string) ([]TaskList, error)

	// ListTasks returns the tasks of a list with metadata decoded.
	ListTasks(ctx context.Context, token, listID string, includeCompleted bool) ([]Task, error)

	// CreateTask creates a task and returns the server-confirmed record.
	CreateTask(ctx context.Context, token, listID string, draft TaskDraft) (Task, error)

	// UpdateTask merges patch into the current remote task and returns the result.
	UpdateTask(ctx context.Context, token, listID, taskID string, patch TaskPatch) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, token, listID, taskID string) error

	// CreateTaskList creates a new task list.
	CreateTaskList(ctx context.Context, token, title string) (TaskList, error)

	// DeleteTaskList deletes a task list by ID.
	DeleteTaskList(ctx context.Context, token, listID string) error
}
