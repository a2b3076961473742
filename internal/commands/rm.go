package commands

import (
	"context"
	"flag"

	"taskctl/internal/board"
	"taskctl/internal/exitcode"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct {
	yes    bool
	filter string
}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return []string{"delete"} }
func (c *RmCmd) Synopsis() string   { return "Delete a task (asks for confirmation)" }
func (c *RmCmd) Usage() string      { return "taskctl rm [--yes] [--filter <filter>] <ref>" }
func (c *RmCmd) NeedsSession() bool { return true }
func (c *RmCmd) NeedsAuth() bool    { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.yes, "yes", false, "")
	fs.BoolVar(&c.yes, "y", false, "")
	fs.StringVar(&c.filter, "filter", "", "")
	fs.StringVar(&c.filter, "f", "", "")
}

func (c *RmCmd) Run(ctx context.Context, env *Env, args []string) int {
	ref, filter, code := parseRefArgs(env, args, c.filter)
	if code != exitcode.Success {
		return code
	}

	b := env.Board()
	task, err := resolveTaskRef(ctx, b, ref, filter, false)
	if err != nil {
		return env.fail(err)
	}

	var confirmer board.Confirmer = stdinConfirmer{env: env}
	if c.yes {
		confirmer = board.AlwaysConfirm
	}
	if err := b.Remove(ctx, task.ID, confirmer); err != nil {
		return env.fail(err)
	}
	return env.ok()
}
