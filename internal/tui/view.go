package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"taskctl/internal/service"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	activeStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	selectedStyle = lipgloss.NewStyle().Bold(true)
	doneStyle     = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
	labelStyle    = lipgloss.NewStyle().Width(13)
)

// View renders the board.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("taskctl board"))
	if m.username != "" {
		fmt.Fprintf(&b, "  %s", m.username)
	}
	b.WriteString("\n")
	b.WriteString(m.filterBar())
	b.WriteString("\n\n")

	switch m.mode {
	case formMode:
		b.WriteString(m.formView())
	default:
		b.WriteString(m.listView())
	}

	b.WriteString("\n")
	if m.mode == confirmDeleteMode {
		fmt.Fprintf(&b, "Delete %q? [y/N]\n", m.target.Title)
	}
	if err := m.state.Err; err != nil {
		b.WriteString(errorStyle.Render("error: "+err.Error()) + "\n")
	}
	if m.busy > 0 {
		b.WriteString("loading...\n")
	} else if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	b.WriteString(m.helpView())
	return b.String()
}

func (m Model) filterBar() string {
	parts := make([]string, len(service.Filters))
	for i, f := range service.Filters {
		label := fmt.Sprintf("%d:%s", i+1, strings.ToLower(string(f)))
		if f == m.state.Filter {
			label = activeStyle.Render(label)
		}
		parts[i] = label
	}
	return strings.Join(parts, "  ")
}

func (m Model) listView() string {
	if len(m.state.Tasks) == 0 {
		return "no tasks found\n"
	}
	var b strings.Builder
	for i, task := range m.state.Tasks {
		pointer := "  "
		box := "[ ]"
		if task.Completed {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %-6s %s", box, task.Priority, task.Title)
		switch {
		case i == m.cursor:
			pointer = "> "
			line = selectedStyle.Render(line)
		case task.Completed:
			line = doneStyle.Render(line)
		}
		b.WriteString(pointer + line + "\n")
	}
	return b.String()
}

func (m Model) formView() string {
	var b strings.Builder
	heading := "New task"
	if m.state.Draft.Editing() {
		heading = "Edit task"
	}
	b.WriteString(titleStyle.Render(heading) + "\n")
	b.WriteString(labelStyle.Render("Title") + m.titleInput.View() + "\n")
	b.WriteString(labelStyle.Render("Description") + m.descInput.View() + "\n")

	prio := make([]string, len(priorities))
	for i, p := range priorities {
		label := string(p)
		if p == m.priority {
			label = "<" + label + ">"
		}
		prio[i] = label
	}
	marker := ""
	if m.focus == fieldPriority {
		marker = "  (←/→)"
	}
	b.WriteString(labelStyle.Render("Priority") + strings.Join(prio, " ") + marker + "\n")
	return b.String()
}

func (m Model) helpView() string {
	bindings := m.keys.normalHelp()
	if m.mode == formMode {
		bindings = m.keys.formHelp()
	}
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return helpStyle.Render(strings.Join(parts, " • "))
}

