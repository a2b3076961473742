package commands

import (
	"context"
	"flag"
	"os"

	"taskctl/internal/exitcode"
	"taskctl/internal/tui"
)

func init() {
	Register(&BoardCmd{})
}

// BoardCmd implements the board command: an interactive task board.
type BoardCmd struct{}

func (c *BoardCmd) Name() string       { return "board" }
func (c *BoardCmd) Aliases() []string  { return []string{"ui"} }
func (c *BoardCmd) Synopsis() string   { return "Open the interactive task board" }
func (c *BoardCmd) Usage() string      { return "taskctl board [common flags]" }
func (c *BoardCmd) NeedsSession() bool { return true }
func (c *BoardCmd) NeedsAuth() bool    { return true }

func (c *BoardCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *BoardCmd) Run(ctx context.Context, env *Env, args []string) int {
	if len(args) > 0 {
		return env.failf("unexpected argument: %s", args[0])
	}
	sess, _ := env.Session.Current()

	in := env.In
	if in == nil {
		in = os.Stdin
	}
	if err := tui.Run(ctx, env.Board(), sess.Username, in, env.Out); err != nil {
		return env.fail(err)
	}
	return exitcode.Success
}
