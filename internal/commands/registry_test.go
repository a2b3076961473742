package commands

import (
	"context"
	"flag"
	"strings"
	"testing"
)

type stubCmd struct {
	name    string
	aliases []string
}

func (c stubCmd) Name() string                                         { return c.name }
func (c stubCmd) Aliases() []string                                    { return c.aliases }
func (c stubCmd) Synopsis() string                                     { return "stub " + c.name }
func (c stubCmd) Usage() string                                        { return c.name }
func (c stubCmd) NeedsSession() bool                                   { return false }
func (c stubCmd) NeedsAuth() bool                                      { return false }
func (c stubCmd) RegisterFlags(fs *flag.FlagSet)                       {}
func (c stubCmd) Run(ctx context.Context, env *Env, args []string) int { return 0 }

func TestRegistry_FindByAlias(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(stubCmd{name: "list", aliases: []string{"ls"}}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	for _, name := range []string{"list", "ls"} {
		cmd, ok := r.Find(name)
		if !ok || cmd.Name() != "list" {
			t.Errorf("Find(%q) = %v, %v", name, cmd, ok)
		}
	}
	if _, ok := r.Find("LIST"); ok {
		t.Error("Find should be case-sensitive")
	}
}

func TestRegistry_Clashes(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(stubCmd{name: "rm", aliases: []string{"delete"}}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []stubCmd{
		{name: "rm"},
		{name: "remove", aliases: []string{"delete"}},
		{name: "dup", aliases: []string{"dup"}},
		{name: ""},
		{name: "x", aliases: []string{" "}},
	}
	for _, c := range tests {
		if err := r.Register(c); err == nil {
			t.Errorf("Register(%+v) should fail", c)
		}
	}
	if _, ok := r.Find("remove"); ok {
		t.Error("a rejected command must not be partially registered")
	}
}

func TestRegistry_AllSortedAndUnique(t *testing.T) {
	r := NewRegistry()
	for _, c := range []stubCmd{
		{name: "whoami"},
		{name: "add", aliases: []string{"create"}},
		{name: "list", aliases: []string{"ls"}},
	} {
		if err := r.Register(c); err != nil {
			t.Fatal(err)
		}
	}

	var names []string
	for _, c := range r.All() {
		names = append(names, c.Name())
	}
	if got := strings.Join(names, ","); got != "add,list,whoami" {
		t.Errorf("All() = %s", got)
	}
}

func TestDefaultRegistry_HasEveryCommand(t *testing.T) {
	for _, name := range []string{
		"list", "ls", "add", "create", "edit", "done", "toggle", "rm", "delete",
		"board", "ui", "register", "signup", "login", "logout", "whoami", "help", "version",
	} {
		if _, ok := DefaultRegistry.Find(name); !ok {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestWriteCommandList(t *testing.T) {
	r := NewRegistry()
	r.Register(stubCmd{name: "add", aliases: []string{"create"}})
	r.Register(stubCmd{name: "version"})

	var b strings.Builder
	writeCommandList(&b, r)
	want := "\nCommands:\n  add       stub add (alias: create)\n  version   stub version\n"
	if b.String() != want {
		t.Errorf("expected %q, got %q", want, b.String())
	}
}
