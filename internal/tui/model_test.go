package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"taskctl/internal/board"
	"taskctl/internal/service"
	"taskctl/internal/testutil"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends msg and runs any resulting board command synchronously.
func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m
	}
	result := cmd()
	if _, ok := result.(stateMsg); !ok {
		return m
	}
	next, _ = m.Update(result)
	return next.(Model)
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m = press(t, m, runes(string(r)))
	}
	return m
}

func newModel(t *testing.T, fake *testutil.FakeService) Model {
	t.Helper()
	m := New(context.Background(), board.New(fake, nil), "alice")
	next, _ := m.Update(m.Init()())
	return next.(Model)
}

func TestInitLoadsTasks(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("Buy milk", service.PriorityLow, false)
	m := newModel(t, fake)

	if len(m.state.Tasks) != 1 {
		t.Fatalf("tasks = %d, want 1", len(m.state.Tasks))
	}
	view := m.View()
	if !strings.Contains(view, "Buy milk") || !strings.Contains(view, "alice") {
		t.Errorf("view missing content:\n%s", view)
	}
}

func TestFilterKeys(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("open", service.PriorityHigh, false)
	fake.AddTask("closed", service.PriorityLow, true)
	m := newModel(t, fake)

	m = press(t, m, runes("3"))
	if m.state.Filter != service.FilterCompleted {
		t.Fatalf("filter = %q, want completed", m.state.Filter)
	}
	if len(m.state.Tasks) != 1 || m.state.Tasks[0].Title != "closed" {
		t.Errorf("tasks = %+v", m.state.Tasks)
	}

	m = press(t, m, runes("f"))
	if m.state.Filter != service.FilterHigh {
		t.Errorf("filter after f = %q, want HIGH", m.state.Filter)
	}
	m = press(t, m, runes("9"))
	if m.state.Filter != service.FilterHigh {
		t.Errorf("unknown filter key changed filter to %q", m.state.Filter)
	}
}

func TestAddTaskThroughForm(t *testing.T) {
	fake := testutil.NewFakeService()
	m := newModel(t, fake)

	m = press(t, m, runes("a"))
	if m.mode != formMode {
		t.Fatal("form not opened")
	}
	m = typeText(t, m, "Write tests")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.priority != service.PriorityHigh {
		t.Errorf("priority = %q, want HIGH", m.priority)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.mode != normalMode {
		t.Error("form still open after save")
	}
	tasks := fake.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Write tests" || tasks[0].Priority != service.PriorityHigh {
		t.Fatalf("created %+v", tasks)
	}
	if len(m.state.Tasks) != 1 {
		t.Error("board not refetched")
	}
	if !strings.Contains(m.status, "Write tests") {
		t.Errorf("status = %q", m.status)
	}
}

func TestEmptyTitleKeepsForm(t *testing.T) {
	fake := testutil.NewFakeService()
	m := newModel(t, fake)

	m = press(t, m, runes("a"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.mode != formMode {
		t.Error("form closed on empty title")
	}
	if !service.IsValidation(m.state.Err) {
		t.Errorf("Err = %v, want validation error", m.state.Err)
	}
	if fake.Calls("create") != 0 {
		t.Error("create reached the service")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.mode != normalMode || m.state.FormOpen {
		t.Error("esc did not close the form")
	}
}

func TestEditTask(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("Old", service.PriorityLow, false)
	m := newModel(t, fake)

	m = press(t, m, runes("e"))
	if m.titleInput.Value() != "Old" || !m.state.Draft.Editing() {
		t.Fatalf("edit form = %q, draft = %+v", m.titleInput.Value(), m.state.Draft)
	}
	m = typeText(t, m, "er")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if got := fake.Tasks()[0].Title; got != "Older" {
		t.Errorf("title = %q, want Older", got)
	}
	if fake.Calls("update") != 1 || fake.Calls("create") != 0 {
		t.Error("edit did not update")
	}
}

func TestToggleAndCursor(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("first", service.PriorityLow, false)
	fake.AddTask("second", service.PriorityLow, false)
	m := newModel(t, fake)

	m = press(t, m, runes("j"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !fake.Tasks()[1].Completed || fake.Tasks()[0].Completed {
		t.Errorf("wrong task toggled: %+v", fake.Tasks())
	}
	if !m.state.Tasks[1].Completed {
		t.Error("toggle not reflected")
	}

	m = press(t, m, runes("j"))
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
}

func TestDeleteConfirmation(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("doomed", service.PriorityLow, false)
	m := newModel(t, fake)

	m = press(t, m, runes("d"))
	if m.mode != confirmDeleteMode || !strings.Contains(m.View(), `Delete "doomed"?`) {
		t.Fatalf("no confirmation prompt:\n%s", m.View())
	}
	m = press(t, m, runes("n"))
	if fake.Calls("delete") != 0 {
		t.Error("declined delete reached the service")
	}
	if m.status != "delete cancelled" || m.state.Err != nil {
		t.Errorf("status = %q, err = %v", m.status, m.state.Err)
	}

	m = press(t, m, runes("d"))
	m = press(t, m, runes("y"))
	if fake.Calls("delete") != 1 || len(fake.Tasks()) != 0 {
		t.Error("confirmed delete did not happen")
	}
	if len(m.state.Tasks) != 0 {
		t.Error("board not refetched after delete")
	}
}

func TestErrorDismiss(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("x", service.PriorityLow, false)
	m := newModel(t, fake)
	fake.ListErr = &service.HTTPStatusError{Op: "list tasks", Code: 500}

	m = press(t, m, runes("r"))
	if m.state.Err == nil || !strings.Contains(m.View(), "error: list tasks: 500") {
		t.Fatalf("error not shown:\n%s", m.View())
	}
	if len(m.state.Tasks) != 1 {
		t.Error("cache dropped on failed refresh")
	}

	m = press(t, m, runes("x"))
	if m.state.Err != nil {
		t.Error("error not dismissed")
	}
}

func TestQuit(t *testing.T) {
	m := newModel(t, testutil.NewFakeService())
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("no quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestLateStateMsgDoesNotRollBack(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddTask("open", service.PriorityLow, false)
	fake.AddTask("closed", service.PriorityLow, true)
	m := newModel(t, fake)

	next, refresh := m.Update(runes("r"))
	m = next.(Model)
	next, filter := m.Update(runes("3"))
	m = next.(Model)

	// The refresh finishes first but its message is delivered last.
	refreshed := refresh()
	filtered := filter()
	next, _ = m.Update(filtered)
	m = next.(Model)
	next, _ = m.Update(refreshed)
	m = next.(Model)

	if m.state.Filter != service.FilterCompleted {
		t.Errorf("Filter = %q, want completed", m.state.Filter)
	}
	if len(m.state.Tasks) != 1 || m.state.Tasks[0].Title != "closed" {
		t.Errorf("Tasks = %+v, want only the completed task", m.state.Tasks)
	}
	if m.busy != 0 {
		t.Errorf("busy = %d, want 0", m.busy)
	}
}
