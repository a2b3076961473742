// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"taskctl/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu     sync.Mutex
	tasks  []service.Task
	users  map[string]string // username -> password
	nextID int
	calls  map[string]int

	// Error injection for testing
	RegisterErr error
	LoginErr    error
	ListErr     error
	CreateErr   error
	UpdateErr   error
	ToggleErr   error
	DeleteErr   error

	// LoginInfo, when set, is returned by Login instead of a generated session.
	LoginInfo *service.SessionInfo

	// ListHook, when set, runs before ListTasks reads the task set.
	// It may block to reorder concurrent list calls.
	ListHook func(ctx context.Context, filter service.Filter)

	// ToggleHook, when set, runs before ToggleTask flips the task.
	ToggleHook func(ctx context.Context, id string)
}

var _ service.Service = (*FakeService)(nil)

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		users: make(map[string]string),
		calls: make(map[string]int),
	}
}

// AddUser registers an account that Login accepts.
func (f *FakeService) AddUser(username, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[username] = password
}

// AddTask appends a task and returns it.
func (f *FakeService) AddTask(title string, priority service.Priority, completed bool) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(service.TaskInput{Title: title, Priority: priority}, completed)
}

func (f *FakeService) addLocked(in service.TaskInput, completed bool) service.Task {
	f.nextID++
	if in.Priority == "" {
		in.Priority = service.DefaultPriority
	}
	task := service.Task{
		ID:          fmt.Sprintf("t%d", f.nextID),
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Completed:   completed,
	}
	f.tasks = append(f.tasks, task)
	return task
}

// Tasks returns a copy of every stored task.
func (f *FakeService) Tasks() []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.Task(nil), f.tasks...)
}

// Calls returns how many times op was invoked.
// Ops are register, login, list, create, update, toggle, delete.
func (f *FakeService) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *FakeService) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

// Register implements service.Authenticator.
func (f *FakeService) Register(ctx context.Context, creds service.Credentials) (service.SessionInfo, error) {
	f.record("register")
	if f.RegisterErr != nil {
		return service.SessionInfo{}, f.RegisterErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[creds.Username]; ok {
		return service.SessionInfo{}, &service.HTTPStatusError{Op: "register", Code: http.StatusConflict, Message: "Username already exists"}
	}
	f.users[creds.Username] = creds.Password
	info := sessionFor(creds.Username)
	info.Message = "User registered successfully"
	return info, nil
}

// Login implements service.Authenticator.
func (f *FakeService) Login(ctx context.Context, creds service.Credentials) (service.SessionInfo, error) {
	f.record("login")
	if f.LoginErr != nil {
		return service.SessionInfo{}, f.LoginErr
	}
	if f.LoginInfo != nil {
		return *f.LoginInfo, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.users[creds.Username]; !ok || pw != creds.Password {
		return service.SessionInfo{}, &service.HTTPStatusError{Op: "login", Code: http.StatusUnauthorized, Message: "Invalid username or password"}
	}
	return sessionFor(creds.Username), nil
}

func sessionFor(username string) service.SessionInfo {
	return service.SessionInfo{Token: "token-" + username, Username: username, UserID: "user-" + username}
}

// ListTasks implements service.Tasks.
func (f *FakeService) ListTasks(ctx context.Context, filter service.Filter) ([]service.Task, error) {
	f.record("list")
	if f.ListHook != nil {
		f.ListHook(ctx, filter)
	}
	if err := ctx.Err(); err != nil {
		return nil, &service.NetworkError{Op: "list tasks", Err: err}
	}
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []service.Task{}
	for _, t := range f.tasks {
		if matches(t, filter) {
			out = append(out, t)
		}
	}
	return out, nil
}

func matches(t service.Task, filter service.Filter) bool {
	switch filter {
	case service.FilterPending:
		return !t.Completed
	case service.FilterCompleted:
		return t.Completed
	case service.FilterLow, service.FilterMedium, service.FilterHigh:
		return string(t.Priority) == string(filter)
	}
	return true
}

// CreateTask implements service.Tasks.
func (f *FakeService) CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	f.record("create")
	if f.CreateErr != nil {
		return service.Task{}, f.CreateErr
	}
	if strings.TrimSpace(in.Title) == "" {
		return service.Task{}, &service.HTTPStatusError{Op: "create task", Code: http.StatusBadRequest, Message: "Title is required"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(in, false), nil
}

// UpdateTask implements service.Tasks.
func (f *FakeService) UpdateTask(ctx context.Context, id string, in service.TaskInput) (service.Task, error) {
	f.record("update")
	if f.UpdateErr != nil {
		return service.Task{}, f.UpdateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexLocked(id)
	if i < 0 {
		return service.Task{}, notFound("update task")
	}
	if in.Priority == "" {
		in.Priority = service.DefaultPriority
	}
	f.tasks[i].Title = in.Title
	f.tasks[i].Description = in.Description
	f.tasks[i].Priority = in.Priority
	return f.tasks[i], nil
}

// ToggleTask implements service.Tasks.
func (f *FakeService) ToggleTask(ctx context.Context, id string) (service.Task, error) {
	f.record("toggle")
	if f.ToggleHook != nil {
		f.ToggleHook(ctx, id)
	}
	if f.ToggleErr != nil {
		return service.Task{}, f.ToggleErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexLocked(id)
	if i < 0 {
		return service.Task{}, notFound("toggle task")
	}
	f.tasks[i].Completed = !f.tasks[i].Completed
	return f.tasks[i], nil
}

// DeleteTask implements service.Tasks.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	f.record("delete")
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexLocked(id)
	if i < 0 {
		return notFound("delete task")
	}
	f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
	return nil
}

func (f *FakeService) indexLocked(id string) int {
	for i, t := range f.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func notFound(op string) error {
	return &service.HTTPStatusError{Op: op, Code: http.StatusNotFound, Message: "Task not found"}
}
