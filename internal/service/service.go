// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Authenticator covers the unauthenticated auth routes.
type Authenticator interface {
	// Register creates an account. It does not start a session.
	Register(ctx context.Context, creds Credentials) (SessionInfo, error)

	// Login exchanges credentials for a session token.
	Login(ctx context.Context, creds Credentials) (SessionInfo, error)
}

// Tasks covers the bearer-authenticated task routes.
type Tasks interface {
	// ListTasks returns the user's tasks under the given filter.
	// FilterAll (or "") returns every task.
	ListTasks(ctx context.Context, filter Filter) ([]Task, error)

	// CreateTask creates a task and returns it with its server-assigned ID.
	CreateTask(ctx context.Context, in TaskInput) (Task, error)

	// UpdateTask replaces title, description and priority of a task.
	UpdateTask(ctx context.Context, id string, in TaskInput) (Task, error)

	// ToggleTask flips the completed flag. Each call flips it again.
	ToggleTask(ctx context.Context, id string) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id string) error
}

// Service defines the interface for task backend operations.
// All REST calls go through this interface; commands never build HTTP requests.
type Service interface {
	Authenticator
	Tasks
}
