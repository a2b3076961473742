// Package tui implements the interactive task board.
package tui

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskctl/internal/board"
	"taskctl/internal/service"
)

// mode is the current input mode.
type mode int

const (
	normalMode mode = iota
	formMode
	confirmDeleteMode
)

// form fields, in focus order
const (
	fieldTitle = iota
	fieldDescription
	fieldPriority
	fieldCount
)

var priorities = []service.Priority{service.PriorityLow, service.PriorityMedium, service.PriorityHigh}

// stateMsg reports that an operation finished. Update reads the board's
// current snapshot when it arrives, so messages delivered out of order never
// roll the view back.
type stateMsg struct {
	status string
}

// Model is the bubbletea model of the board.
type Model struct {
	ctx      context.Context
	board    *board.Controller
	keys     KeyMap
	username string

	state  board.State
	cursor int
	mode   mode
	busy   int
	status string
	width  int

	// Form state
	titleInput textinput.Model
	descInput  textinput.Model
	priority   service.Priority
	focus      int

	// Delete confirmation target
	target service.Task
}

// New creates a board model. The first refresh is issued by Init.
func New(ctx context.Context, b *board.Controller, username string) Model {
	titleInput := textinput.New()
	titleInput.Placeholder = "Title"
	titleInput.CharLimit = 200
	titleInput.Width = 50
	titleInput.Cursor.SetMode(cursor.CursorStatic)

	descInput := textinput.New()
	descInput.Placeholder = "Description (optional)"
	descInput.Width = 50
	descInput.Cursor.SetMode(cursor.CursorStatic)

	return Model{
		ctx:        ctx,
		board:      b,
		keys:       DefaultKeyMap(),
		username:   username,
		state:      b.Snapshot(),
		titleInput: titleInput,
		descInput:  descInput,
		priority:   service.DefaultPriority,
	}
}

// Init loads the task list.
func (m Model) Init() tea.Cmd {
	return m.do(func(ctx context.Context, b *board.Controller) (string, error) {
		return "", b.Refresh(ctx)
	})
}

// do runs op off the update loop and reports the resulting board state.
// Failures are already in the board's message slot; only the status line
// is derived here.
func (m *Model) do(op func(ctx context.Context, b *board.Controller) (string, error)) tea.Cmd {
	m.busy++
	ctx, b := m.ctx, m.board
	return func() tea.Msg {
		status, err := op(ctx, b)
		switch {
		case errors.Is(err, service.ErrConfirmationDeclined):
			status = "delete cancelled"
		case err != nil:
			status = ""
		}
		return stateMsg{status: status}
	}
}

// selected returns the task under the cursor.
func (m Model) selected() (service.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Tasks) {
		return service.Task{}, false
	}
	return m.state.Tasks[m.cursor], true
}

// Run starts the board on in/out and blocks until the user quits or ctx ends.
func Run(ctx context.Context, b *board.Controller, username string, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(New(ctx, b, username),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
