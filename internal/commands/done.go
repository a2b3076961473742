package commands

import (
	"context"
	"flag"
	"fmt"

	"taskctl/internal/exitcode"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command. It toggles, so running it on a
// completed task reopens it.
type DoneCmd struct {
	filter string
}

func (c *DoneCmd) Name() string       { return "done" }
func (c *DoneCmd) Aliases() []string  { return []string{"toggle"} }
func (c *DoneCmd) Synopsis() string   { return "Toggle a task between pending and completed" }
func (c *DoneCmd) Usage() string      { return "taskctl done [--filter <filter>] <ref>" }
func (c *DoneCmd) NeedsSession() bool { return true }
func (c *DoneCmd) NeedsAuth() bool    { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", "", "")
	fs.StringVar(&c.filter, "f", "", "")
}

func (c *DoneCmd) Run(ctx context.Context, env *Env, args []string) int {
	ref, filter, code := parseRefArgs(env, args, c.filter)
	if code != exitcode.Success {
		return code
	}

	b := env.Board()
	task, err := resolveTaskRef(ctx, b, ref, filter, false)
	if err != nil {
		return env.fail(err)
	}

	toggled, err := b.Toggle(ctx, task.ID)
	if err != nil {
		return env.fail(err)
	}

	if !env.Config.Quiet {
		state := "pending"
		if toggled.Completed {
			state = "completed"
		}
		fmt.Fprintf(env.Out, "%s: %s\n", state, toggled.Title)
	}
	return exitcode.Success
}
