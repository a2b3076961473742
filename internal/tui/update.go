package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"taskctl/internal/board"
	"taskctl/internal/service"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case stateMsg:
		if m.busy > 0 {
			m.busy--
		}
		m.applyState(m.board.Snapshot())
		if msg.status != "" {
			m.status = msg.status
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case formMode:
			return m.updateForm(msg)
		case confirmDeleteMode:
			return m.updateConfirm(msg)
		default:
			return m.updateNormal(msg)
		}
	}
	return m, nil
}

// applyState adopts a board snapshot and keeps the cursor in range.
func (m *Model) applyState(st board.State) {
	m.state = st
	if m.cursor >= len(st.Tasks) {
		m.cursor = len(st.Tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.mode == formMode && !st.FormOpen {
		m.mode = normalMode
	}
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if f, ok := filterForKey(msg.String()); ok {
		return m, m.setFilter(f)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.state.Tasks)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.NextFilter):
		return m, m.setFilter(nextFilter(m.state.Filter))

	case key.Matches(msg, m.keys.Refresh):
		m.status = ""
		cmd := m.do(func(ctx context.Context, b *board.Controller) (string, error) {
			return "", b.Refresh(ctx)
		})
		return m, cmd

	case key.Matches(msg, m.keys.Dismiss):
		m.board.ClearError()
		m.state = m.board.Snapshot()
		m.status = ""

	case key.Matches(msg, m.keys.Add):
		m.openForm(nil)

	case key.Matches(msg, m.keys.Edit):
		if task, ok := m.selected(); ok {
			m.openForm(&task)
		}

	case key.Matches(msg, m.keys.Toggle):
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		cmd := m.do(func(ctx context.Context, b *board.Controller) (string, error) {
			toggled, err := b.Toggle(ctx, task.ID)
			if err != nil {
				return "", err
			}
			if toggled.Completed {
				return fmt.Sprintf("completed %q", toggled.Title), nil
			}
			return fmt.Sprintf("reopened %q", toggled.Title), nil
		})
		return m, cmd

	case key.Matches(msg, m.keys.Delete):
		if task, ok := m.selected(); ok {
			m.target = task
			m.mode = confirmDeleteMode
		}
	}
	return m, nil
}

func (m *Model) setFilter(f service.Filter) tea.Cmd {
	m.status = ""
	m.cursor = 0
	return m.do(func(ctx context.Context, b *board.Controller) (string, error) {
		return "", b.SetFilter(ctx, f)
	})
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var approved bool
	switch {
	case key.Matches(msg, m.keys.Yes):
		approved = true
	case key.Matches(msg, m.keys.No):
		approved = false
	default:
		return m, nil
	}

	target := m.target
	m.mode = normalMode
	m.target = service.Task{}
	cmd := m.do(func(ctx context.Context, b *board.Controller) (string, error) {
		confirm := board.ConfirmFunc(func(string) bool { return approved })
		if err := b.Remove(ctx, target.ID, confirm); err != nil {
			return "", err
		}
		return fmt.Sprintf("deleted %q", target.Title), nil
	})
	return m, cmd
}

// openForm opens the board draft and mirrors it into the inputs.
func (m *Model) openForm(task *service.Task) {
	m.board.OpenDraft(task)
	m.state = m.board.Snapshot()
	draft := m.state.Draft

	m.titleInput.SetValue(draft.Title)
	m.titleInput.CursorEnd()
	m.descInput.SetValue(draft.Description)
	m.descInput.CursorEnd()
	m.priority = draft.Priority
	m.focus = fieldTitle
	m.focusInputs()
	m.status = ""
	m.mode = formMode
}

func (m *Model) focusInputs() {
	m.titleInput.Blur()
	m.descInput.Blur()
	switch m.focus {
	case fieldTitle:
		m.titleInput.Focus()
	case fieldDescription:
		m.descInput.Focus()
	}
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		m.board.CloseDraft()
		m.state = m.board.Snapshot()
		m.mode = normalMode
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		m.board.EditDraft(m.titleInput.Value(), m.descInput.Value(), m.priority)
		editing := m.state.Draft.Editing()
		cmd := m.do(func(ctx context.Context, b *board.Controller) (string, error) {
			task, err := b.SubmitDraft(ctx)
			if err != nil {
				return "", err
			}
			if editing {
				return fmt.Sprintf("updated %q", task.Title), nil
			}
			return fmt.Sprintf("added %q", task.Title), nil
		})
		return m, cmd

	case key.Matches(msg, m.keys.NextField):
		m.focus = (m.focus + 1) % fieldCount
		m.focusInputs()
		return m, nil

	case key.Matches(msg, m.keys.PrevField):
		m.focus = (m.focus + fieldCount - 1) % fieldCount
		m.focusInputs()
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case fieldTitle:
		m.titleInput, cmd = m.titleInput.Update(msg)
	case fieldDescription:
		m.descInput, cmd = m.descInput.Update(msg)
	case fieldPriority:
		switch msg.String() {
		case "left", "h":
			m.priority = cyclePriority(m.priority, -1)
		case "right", "l", " ":
			m.priority = cyclePriority(m.priority, 1)
		}
	}
	return m, cmd
}

func filterForKey(k string) (service.Filter, bool) {
	if len(k) != 1 || k[0] < '1' || k[0] > '9' {
		return "", false
	}
	i := int(k[0] - '1')
	if i >= len(service.Filters) {
		return "", false
	}
	return service.Filters[i], true
}

func nextFilter(f service.Filter) service.Filter {
	for i, known := range service.Filters {
		if known == f {
			return service.Filters[(i+1)%len(service.Filters)]
		}
	}
	return service.FilterAll
}

func cyclePriority(p service.Priority, step int) service.Priority {
	for i, known := range priorities {
		if known == p {
			return priorities[(i+step+len(priorities))%len(priorities)]
		}
	}
	return service.DefaultPriority
}
