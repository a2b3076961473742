package commands

import (
	"context"
	"flag"
	"fmt"

	"taskctl/internal/exitcode"
	"taskctl/internal/output"
	"taskctl/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `taskctl` (no args) and `taskctl list [--filter f]`.
type ListCmd struct {
	filter string
}

// SetFilter sets the filter name (for testing).
func (c *ListCmd) SetFilter(name string) {
	c.filter = name
}

func (c *ListCmd) Name() string       { return "list" }
func (c *ListCmd) Aliases() []string  { return []string{"ls"} }
func (c *ListCmd) Synopsis() string   { return "List tasks" }
func (c *ListCmd) Usage() string      { return "taskctl list [--filter <filter>] [filter]" }
func (c *ListCmd) NeedsSession() bool { return true }
func (c *ListCmd) NeedsAuth() bool    { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", "", "")
	fs.StringVar(&c.filter, "f", "", "")
}

func (c *ListCmd) Run(ctx context.Context, env *Env, args []string) int {
	name := c.filter
	switch {
	case len(args) > 1:
		return env.failf("unexpected argument: %s", args[1])
	case len(args) == 1 && name != "":
		return env.failf("cannot use both --filter and a filter argument")
	case len(args) == 1:
		name = args[0]
	}

	filter, err := service.ParseFilter(name)
	if err != nil {
		return env.failf("%v", err)
	}

	b := env.Board()
	if err := b.SetFilter(ctx, filter); err != nil {
		return env.fail(err)
	}

	tasks := b.Snapshot().Tasks
	if len(tasks) == 0 {
		if !env.Config.Quiet {
			fmt.Fprintln(env.Out, "no tasks found")
		}
		return exitcode.Success
	}
	for i, task := range tasks {
		output.FormatTask(env.Out, i+1, task)
	}
	return exitcode.Success
}
