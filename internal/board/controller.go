// Package board holds the visible task collection, the active filter and the
// create/edit draft, and sequences task mutations against the server.
//
// The controller never patches its cache locally. Every successful mutation is
// followed by a full refetch under the current filter, and every list request
// carries a sequence number so that only the most recent one is applied.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"taskctl/internal/config"
	"taskctl/internal/service"
)

// ErrSuperseded is returned for a list response that was discarded because a
// newer list request had been issued.
var ErrSuperseded = errors.New("superseded by a newer request")

// Draft is the unsaved state of the create/edit form.
// An empty TaskID means create mode.
type Draft struct {
	TaskID      string
	Title       string
	Description string
	Priority    service.Priority
}

// Editing reports whether the draft updates an existing task.
func (d Draft) Editing() bool {
	return d.TaskID != ""
}

func newDraft() Draft {
	return Draft{Priority: service.DefaultPriority}
}

// State is a copy of the observable controller state.
type State struct {
	Tasks    []service.Task
	Filter   service.Filter
	Draft    Draft
	FormOpen bool
	Loading  bool
	Err      error
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// AlwaysConfirm approves every prompt.
var AlwaysConfirm Confirmer = ConfirmFunc(func(string) bool { return true })

// Option configures a Controller.
type Option func(*Controller)

// WithOnChange registers fn to receive a snapshot after each state change.
// fn is called without the controller lock held.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// WithAuthFailureHandler registers fn to receive every failure, typically
// to end the session on a 401.
func WithAuthFailureHandler(fn func(error)) Option {
	return func(c *Controller) { c.onFailure = fn }
}

// Controller is the task board. All methods are safe for concurrent use.
type Controller struct {
	svc       service.Tasks
	log       *log.Logger
	onChange  func(State)
	onFailure func(error)

	mu       sync.Mutex
	seq      uint64
	tasks    []service.Task
	filter   service.Filter
	draft    Draft
	formOpen bool
	loading  bool
	err      error
}

// New creates a Controller with an empty cache and the all filter.
func New(svc service.Tasks, logger *log.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = config.DiscardLogger()
	}
	c := &Controller{
		svc:    svc,
		log:    logger,
		tasks:  []service.Task{},
		filter: service.FilterAll,
		draft:  newDraft(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh refetches tasks under the current filter.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.fetch(ctx)
}

// SetFilter switches the active filter and refetches under it.
func (c *Controller) SetFilter(ctx context.Context, f service.Filter) error {
	if !validFilter(f) {
		return c.fail(&service.ValidationError{Field: "filter", Message: fmt.Sprintf("%q is not valid", f)})
	}
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()
	return c.fetch(ctx)
}

func validFilter(f service.Filter) bool {
	for _, known := range service.Filters {
		if f == known {
			return true
		}
	}
	return false
}

// fetch issues a list request tagged with the next sequence number and
// applies the outcome only if no newer list request was issued meanwhile.
func (c *Controller) fetch(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	filter := c.filter
	c.loading = true
	c.mu.Unlock()
	c.notify()

	tasks, err := c.svc.ListTasks(ctx, filter)

	c.mu.Lock()
	if seq != c.seq {
		latest := c.seq
		c.mu.Unlock()
		c.log.WithFields(log.Fields{"seq": seq, "latest": latest, "filter": filter}).Debug("discarding stale task list")
		return ErrSuperseded
	}
	c.loading = false
	if err != nil {
		c.err = err
	} else {
		if tasks == nil {
			tasks = []service.Task{}
		}
		c.tasks = tasks
	}
	c.mu.Unlock()
	c.notify()

	if err != nil {
		c.failed(err)
	}
	return err
}

// OpenDraft opens the form. A non-nil task starts edit mode with its fields;
// nil starts create mode with defaults.
func (c *Controller) OpenDraft(task *service.Task) {
	c.mu.Lock()
	if task == nil {
		c.draft = newDraft()
	} else {
		c.draft = Draft{
			TaskID:      task.ID,
			Title:       task.Title,
			Description: task.Description,
			Priority:    task.Priority,
		}
	}
	c.formOpen = true
	c.mu.Unlock()
	c.notify()
}

// EditDraft replaces the form fields, keeping the edited task id.
func (c *Controller) EditDraft(title, description string, priority service.Priority) {
	c.mu.Lock()
	c.draft.Title = title
	c.draft.Description = description
	c.draft.Priority = priority
	c.mu.Unlock()
	c.notify()
}

// CloseDraft discards the draft and hides the form.
func (c *Controller) CloseDraft() {
	c.mu.Lock()
	c.draft = newDraft()
	c.formOpen = false
	c.mu.Unlock()
	c.notify()
}

// SubmitDraft creates or updates a task from the draft. Invalid input never
// reaches the server. On failure the form stays open with its values.
// A refetch failure after a successful save is recorded but not returned.
func (c *Controller) SubmitDraft(ctx context.Context) (service.Task, error) {
	c.mu.Lock()
	draft := c.draft
	c.mu.Unlock()

	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return service.Task{}, c.fail(&service.ValidationError{Field: "title", Message: "is required"})
	}
	priority := draft.Priority
	if priority == "" {
		priority = service.DefaultPriority
	}
	if !priority.Valid() {
		return service.Task{}, c.fail(&service.ValidationError{Field: "priority", Message: fmt.Sprintf("%q is not valid", priority)})
	}
	in := service.TaskInput{Title: title, Description: draft.Description, Priority: priority}

	var (
		task service.Task
		err  error
	)
	if draft.Editing() {
		task, err = c.svc.UpdateTask(ctx, draft.TaskID, in)
	} else {
		task, err = c.svc.CreateTask(ctx, in)
	}
	if err != nil {
		return service.Task{}, c.fail(err)
	}

	c.refetchAfter(ctx, "save")
	c.CloseDraft()
	return task, nil
}

// Toggle flips the completed flag of a task and refetches.
func (c *Controller) Toggle(ctx context.Context, id string) (service.Task, error) {
	if strings.TrimSpace(id) == "" {
		return service.Task{}, c.fail(&service.ValidationError{Field: "id", Message: "is required"})
	}
	task, err := c.svc.ToggleTask(ctx, id)
	if err != nil {
		return service.Task{}, c.fail(err)
	}
	c.refetchAfter(ctx, "toggle")
	return task, nil
}

// Remove deletes a task once confirmer approves. A declined prompt returns
// service.ErrConfirmationDeclined without touching the server or the
// message slot.
func (c *Controller) Remove(ctx context.Context, id string, confirmer Confirmer) error {
	if strings.TrimSpace(id) == "" {
		return c.fail(&service.ValidationError{Field: "id", Message: "is required"})
	}
	if confirmer == nil || !confirmer.Confirm(c.deletePrompt(id)) {
		return service.ErrConfirmationDeclined
	}
	if err := c.svc.DeleteTask(ctx, id); err != nil {
		return c.fail(err)
	}
	c.refetchAfter(ctx, "delete")
	return nil
}

func (c *Controller) deletePrompt(id string) string {
	if task, ok := c.Lookup(id); ok {
		return fmt.Sprintf("Delete %q?", task.Title)
	}
	return fmt.Sprintf("Delete task %s?", id)
}

func (c *Controller) refetchAfter(ctx context.Context, op string) {
	err := c.fetch(ctx)
	if err != nil && !errors.Is(err, ErrSuperseded) {
		c.log.WithError(err).WithField("op", op).Warn("refetch failed")
	}
}

// Lookup returns the cached task with id.
func (c *Controller) Lookup(id string) (service.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	return State{
		Tasks:    append([]service.Task(nil), c.tasks...),
		Filter:   c.filter,
		Draft:    c.draft,
		FormOpen: c.formOpen,
		Loading:  c.loading,
		Err:      c.err,
	}
}

// Err returns the latest recorded error.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// ClearError empties the message slot.
func (c *Controller) ClearError() {
	c.mu.Lock()
	c.err = nil
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) fail(err error) error {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	c.notify()
	c.failed(err)
	return err
}

func (c *Controller) failed(err error) {
	if c.onFailure != nil {
		c.onFailure(err)
	}
}

func (c *Controller) notify() {
	if c.onChange == nil {
		return
	}
	c.onChange(c.Snapshot())
}
