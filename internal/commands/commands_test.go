package commands_test

import (
	"bytes"
	"context"
	"flag"
	"strings"
	"testing"

	"taskctl/internal/commands"
	"taskctl/internal/config"
	"taskctl/internal/exitcode"
	"taskctl/internal/service"
	"taskctl/internal/session"
	"taskctl/internal/storage"
	"taskctl/internal/testutil"
)

// harness wires a command to a FakeService and an in-memory session.
type harness struct {
	svc   *testutil.FakeService
	store *storage.MemoryStore
	sess  *session.Manager
	quiet bool
}

func newHarness(t *testing.T, loggedIn bool) *harness {
	t.Helper()
	h := &harness{
		svc:   testutil.NewFakeService(),
		store: storage.NewMemoryStore(),
	}
	h.svc.AddUser("alice", "secret")
	h.sess = session.NewManager(h.store, h.svc, nil)
	if err := h.sess.Restore(context.Background()); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if loggedIn {
		if _, err := h.sess.Login(context.Background(), service.Credentials{Username: "alice", Password: "secret"}); err != nil {
			t.Fatalf("Login() error = %v", err)
		}
	}
	return h
}

// run parses argv with the command's flags and runs it.
func (h *harness) run(t *testing.T, cmd commands.Command, argv []string, stdin string) (stdout, stderr string, code int) {
	t.Helper()

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.RegisterFlags(fs)
	if err := fs.Parse(argv); err != nil {
		t.Fatalf("flag parse error: %v", err)
	}

	var outBuf, errBuf bytes.Buffer
	env := &commands.Env{
		Config:  &config.Config{Dir: t.TempDir(), Quiet: h.quiet},
		Service: h.svc,
		Session: h.sess,
		Logger:  config.DiscardLogger(),
		In:      strings.NewReader(stdin),
		Out:     &outBuf,
		ErrOut:  &errBuf,
	}
	code = cmd.Run(context.Background(), env, fs.Args())
	return outBuf.String(), errBuf.String(), code
}

func expectResult(t *testing.T, gotOut, gotErr string, gotCode int, wantOut, wantErr string, wantCode int) {
	t.Helper()
	if gotCode != wantCode {
		t.Errorf("expected exit code %d, got %d (stderr %q)", wantCode, gotCode, gotErr)
	}
	if gotOut != wantOut {
		t.Errorf("expected stdout %q, got %q", wantOut, gotOut)
	}
	if gotErr != wantErr {
		t.Errorf("expected stderr %q, got %q", wantErr, gotErr)
	}
}

// Tests for version command
func TestVersionCommand(t *testing.T) {
	h := newHarness(t, false)
	stdout, stderr, code := h.run(t, &commands.VersionCmd{}, nil, "")
	expectResult(t, stdout, stderr, code, "taskctl 0.1.0\n", "", exitcode.Success)
}

// Tests for help command
func TestHelpCommand(t *testing.T) {
	h := newHarness(t, false)
	stdout, stderr, code := h.run(t, &commands.HelpCmd{}, nil, "")

	if code != exitcode.Success || stderr != "" {
		t.Errorf("code = %d, stderr = %q", code, stderr)
	}
	for _, want := range []string{
		"Usage:",
		"Filters:",
		"--base-url",
		"\nCommands:\n",
		"  list      List tasks (alias: ls)\n",
		"  rm        Delete a task (asks for confirmation) (alias: delete)\n",
		"  whoami    Show the logged-in user\n",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help output should contain %q", want)
		}
	}
}

// Tests for list command
func TestListCommand_WithTasks(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddTask("Buy milk", service.PriorityLow, false)
	h.svc.AddTask("Ship it", service.PriorityHigh, true)
	h.svc.AddTask("Call the bank", "", false)

	stdout, stderr, code := h.run(t, &commands.ListCmd{}, nil, "")
	if code != exitcode.Success || stderr != "" {
		t.Fatalf("code = %d, stderr = %q", code, stderr)
	}
	testutil.GoldenString(t, "list_all", stdout)
}

func TestListCommand_Filter(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddTask("Buy milk", service.PriorityLow, false)
	h.svc.AddTask("Ship it", service.PriorityHigh, true)

	stdout, stderr, code := h.run(t, &commands.ListCmd{}, []string{"--filter", "completed"}, "")
	expectResult(t, stdout, stderr, code, "   1  [x] HIGH   Ship it\n", "", exitcode.Success)

	stdout, stderr, code = h.run(t, &commands.ListCmd{}, []string{"low"}, "")
	expectResult(t, stdout, stderr, code, "   1  [ ] LOW    Buy milk\n", "", exitcode.Success)
}

func TestListCommand_InvalidFilter(t *testing.T) {
	h := newHarness(t, true)
	stdout, stderr, code := h.run(t, &commands.ListCmd{}, []string{"-f", "soon"}, "")
	expectResult(t, stdout, stderr, code, "", "error: invalid filter: soon\n", exitcode.UserError)

	stdout, stderr, code = h.run(t, &commands.ListCmd{}, []string{"-f", "high", "low"}, "")
	expectResult(t, stdout, stderr, code, "", "error: cannot use both --filter and a filter argument\n", exitcode.UserError)
	if h.svc.Calls("list") != 0 {
		t.Error("invalid filter reached the service")
	}
}

func TestListCommand_Empty(t *testing.T) {
	h := newHarness(t, true)
	stdout, stderr, code := h.run(t, &commands.ListCmd{}, nil, "")
	expectResult(t, stdout, stderr, code, "no tasks found\n", "", exitcode.Success)

	h.quiet = true
	stdout, stderr, code = h.run(t, &commands.ListCmd{}, nil, "")
	expectResult(t, stdout, stderr, code, "", "", exitcode.Success)
}

func TestListCommand_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantErr  string
		wantCode int
	}{
		{
			name:     "server error",
			err:      &service.HTTPStatusError{Op: "list tasks", Code: 500},
			wantErr:  "error: backend error: list tasks: 500 Internal Server Error\n",
			wantCode: exitcode.BackendError,
		},
		{
			name:     "rejected token",
			err:      &service.HTTPStatusError{Op: "list tasks", Code: 401, Message: "Unauthorized"},
			wantErr:  "error: auth error: list tasks: 401 Unauthorized (run: taskctl login)\n",
			wantCode: exitcode.AuthError,
		},
		{
			name:     "no token",
			err:      service.ErrNotAuthenticated,
			wantErr:  "error: not logged in (run: taskctl login)\n",
			wantCode: exitcode.AuthError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, true)
			h.svc.ListErr = tt.err
			stdout, stderr, code := h.run(t, &commands.ListCmd{}, nil, "")
			expectResult(t, stdout, stderr, code, "", tt.wantErr, tt.wantCode)
		})
	}
}

// Tests for add command
func TestAddCommand_Success(t *testing.T) {
	h := newHarness(t, true)
	stdout, stderr, code := h.run(t, &commands.AddCmd{}, []string{"-p", "high", "-d", "2 litres", "Buy", "milk"}, "")

	expected := "[ ] HIGH  Buy milk\n      2 litres\n      id: t1\n"
	expectResult(t, stdout, stderr, code, expected, "", exitcode.Success)

	tasks := h.svc.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" || tasks[0].Priority != service.PriorityHigh || tasks[0].Description != "2 litres" {
		t.Errorf("created %+v", tasks)
	}
}

func TestAddCommand_DefaultPriorityQuiet(t *testing.T) {
	h := newHarness(t, true)
	h.quiet = true
	stdout, stderr, code := h.run(t, &commands.AddCmd{}, []string{"Walk"}, "")
	expectResult(t, stdout, stderr, code, "", "", exitcode.Success)

	if tasks := h.svc.Tasks(); len(tasks) != 1 || tasks[0].Priority != service.PriorityMedium {
		t.Errorf("created %+v", tasks)
	}
}

func TestAddCommand_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantErr string
	}{
		{"no title", nil, "error: title required\n"},
		{"blank title", []string{"  "}, "error: title required\n"},
		{"bad priority", []string{"-p", "urgent", "x"}, "error: invalid priority: urgent\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, true)
			stdout, stderr, code := h.run(t, &commands.AddCmd{}, tt.argv, "")
			expectResult(t, stdout, stderr, code, "", tt.wantErr, exitcode.UserError)
			if h.svc.Calls("create") != 0 {
				t.Error("invalid input reached the service")
			}
		})
	}
}

func TestAddCommand_ServerRejects(t *testing.T) {
	h := newHarness(t, true)
	h.svc.CreateErr = &service.HTTPStatusError{Op: "create task", Code: 400, Message: "Title too long"}
	stdout, stderr, code := h.run(t, &commands.AddCmd{}, []string{"x"}, "")
	expectResult(t, stdout, stderr, code, "", "error: create task: 400 Title too long\n", exitcode.UserError)
}

// Tests for done command
func TestDoneCommand_Toggles(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddTask("Buy milk", service.PriorityLow, false)

	stdout, stderr, code := h.run(t, &commands.DoneCmd{}, []string{"1"}, "")
	expectResult(t, stdout, stderr, code, "completed: Buy milk\n", "", exitcode.Success)

	stdout, stderr, code = h.run(t, &commands.DoneCmd{}, []string{"id:t1"}, "")
	expectResult(t, stdout, stderr, code, "pending: Buy milk\n", "", exitcode.Success)
}

func TestDoneCommand_RefUnderFilter(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddTask("done already", service.PriorityLow, true)
	h.svc.AddTask("still open", service.PriorityLow, false)

	stdout, stderr, code := h.run(t, &commands.DoneCmd{}, []string{"--filter", "pending", "1"}, "")
	expectResult(t, stdout, stderr, code, "completed: still open\n", "", exitcode.Success)
}

func TestDoneCommand_BadRefs(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantErr string
	}{
		{"no ref", nil, "error: task reference required\n"},
		{"zero", []string{"0"}, "error: task number out of range: 0\n"},
		{"out of range", []string{"5"}, "error: task number out of range: 5\n"},
		{"extra arg", []string{"1", "2"}, "error: unexpected argument: 2\n"},
		{"bad filter", []string{"-f", "later", "1"}, "error: invalid filter: later\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, true)
			h.svc.AddTask("only", service.PriorityLow, false)
			stdout, stderr, code := h.run(t, &commands.DoneCmd{}, tt.argv, "")
			expectResult(t, stdout, stderr, code, "", tt.wantErr, exitcode.UserError)
			if h.svc.Calls("toggle") != 0 {
				t.Error("bad ref reached toggle")
			}
		})
	}
}

func TestDoneCommand_UnknownID(t *testing.T) {
	h := newHarness(t, true)
	stdout, stderr, code := h.run(t, &commands.DoneCmd{}, []string{"abc"}, "")
	expectResult(t, stdout, stderr, code, "", "error: toggle task: 404 Task not found\n", exitcode.UserError)
}

// Tests for rm command
func TestRmCommand_Confirmed(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddTask("Buy milk", service.PriorityLow, false)

	stdout, stderr, code := h.run(t, &commands.RmCmd{}, []string{"1"}, "y\n")
	expectResult(t, stdout, stderr, code, "ok\n", "Delete \"Buy milk\"? [y/N] ", exitcode.Success)
	if len(h.svc.Tasks()) != 0 {
		t.Error("task not deleted")
	}
}

func TestRmCommand_Declined(t *testing.T) {
	for _, answer := range []string{"n\n", "\n", "", "maybe\n"} {
		h := newHarness(t, true)
		h.svc.AddTask("Buy milk", service.PriorityLow, false)

		_, stderr, code := h.run(t, &commands.RmCmd{}, []string{"1"}, answer)
		if code != exitcode.UserError {
			t.Errorf("answer %q: exit code %d, want %d", answer, code, exitcode.UserError)
		}
		if !strings.HasSuffix(stderr, "error: confirmation declined\n") {
			t.Errorf("answer %q: stderr %q", answer, stderr)
		}
		if h.svc.Calls("delete") != 0 {
			t.Errorf("answer %q: delete reached the service", answer)
		}
	}
}

func TestRmCommand_Yes(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddTask("Buy milk", service.PriorityLow, false)

	stdout, stderr, code := h.run(t, &commands.RmCmd{}, []string{"--yes", "1"}, "")
	expectResult(t, stdout, stderr, code, "ok\n", "", exitcode.Success)
}

func TestRmCommand_NoRef(t *testing.T) {
	h := newHarness(t, true)
	stdout, stderr, code := h.run(t, &commands.RmCmd{}, nil, "")
	expectResult(t, stdout, stderr, code, "", "error: task reference required\n", exitcode.UserError)
}

// Tests for edit command
func TestEditCommand_ChangesOnlyGivenFields(t *testing.T) {
	h := newHarness(t, true)
	h.svc.AddTask("Buy milk", service.PriorityLow, false)

	stdout, stderr, code := h.run(t, &commands.EditCmd{}, []string{"-p", "HIGH", "1"}, "")
	expectResult(t, stdout, stderr, code, "[ ] HIGH  Buy milk\n      id: t1\n", "", exitcode.Success)

	task := h.svc.Tasks()[0]
	if task.Title != "Buy milk" || task.Priority != service.PriorityHigh {
		t.Errorf("updated %+v", task)
	}
}

func TestEditCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantErr string
	}{
		{"nothing to change", []string{"1"}, "error: nothing to change (use --title, -d or -p)\n"},
		{"unknown id", []string{"--title", "x", "id:t9"}, "error: task not found: t9\n"},
		{"blank title", []string{"--title", " ", "1"}, "error: title is required\n"},
		{"bad priority", []string{"-p", "soon", "1"}, "error: invalid priority: soon\n"},
		{"empty priority", []string{"-p", "", "1"}, "error: priority must not be empty (LOW, MEDIUM or HIGH)\n"},
		{"blank priority", []string{"--priority", " ", "1"}, "error: priority must not be empty (LOW, MEDIUM or HIGH)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, true)
			h.svc.AddTask("Buy milk", service.PriorityLow, false)
			stdout, stderr, code := h.run(t, &commands.EditCmd{}, tt.argv, "")
			expectResult(t, stdout, stderr, code, "", tt.wantErr, exitcode.UserError)
			if h.svc.Calls("update") != 0 {
				t.Error("invalid edit reached the service")
			}
			if task := h.svc.Tasks()[0]; task.Priority != service.PriorityLow {
				t.Errorf("priority changed to %s", task.Priority)
			}
		})
	}
}
