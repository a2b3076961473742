package commands

import (
	"context"
	"flag"
	"strings"

	"taskctl/internal/exitcode"
	"taskctl/internal/output"
	"taskctl/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command (alias: create).
type AddCmd struct {
	description string
	priority    string
}

func (c *AddCmd) Name() string       { return "add" }
func (c *AddCmd) Aliases() []string  { return []string{"create"} }
func (c *AddCmd) Synopsis() string   { return "Create a task" }
func (c *AddCmd) NeedsSession() bool { return true }
func (c *AddCmd) NeedsAuth() bool    { return true }

func (c *AddCmd) Usage() string {
	return "taskctl add [-d <description>] [-p LOW|MEDIUM|HIGH] <title...>"
}

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
}

func (c *AddCmd) Run(ctx context.Context, env *Env, args []string) int {
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		return env.failf("title required")
	}
	priority, err := service.ParsePriority(c.priority)
	if err != nil {
		return env.failf("%v", err)
	}

	b := env.Board()
	b.OpenDraft(nil)
	b.EditDraft(title, c.description, priority)
	task, err := b.SubmitDraft(ctx)
	if err != nil {
		return env.fail(err)
	}

	if !env.Config.Quiet {
		output.FormatTaskDetail(env.Out, task)
	}
	return exitcode.Success
}
