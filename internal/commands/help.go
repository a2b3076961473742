package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskctl/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "taskctl help" }
func (c *HelpCmd) NeedsSession() bool { return false }
func (c *HelpCmd) NeedsAuth() bool    { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string) int {
	fmt.Fprint(env.Out, helpText)
	writeCommandList(env.Out, DefaultRegistry)
	return exitcode.Success
}

// writeCommandList prints one line per registered command with its aliases.
func writeCommandList(w io.Writer, r *Registry) {
	fmt.Fprintln(w, "\nCommands:")
	for _, cmd := range r.All() {
		line := fmt.Sprintf("  %-9s %s", cmd.Name(), cmd.Synopsis())
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			line += " (alias: " + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintln(w, line)
	}
}

const helpText = `Usage:
  taskctl                                            List all tasks
  taskctl list [common flags] [--filter <filter>]    List tasks under a filter
  taskctl add [common flags] [-d <desc>] [-p <priority>] <title...>
  taskctl create [common flags] [-d <desc>] [-p <priority>] <title...>
  taskctl edit [common flags] [--title <t>] [-d <desc>] [-p <priority>] <ref>
  taskctl done [common flags] [--filter <filter>] <ref>
  taskctl toggle [common flags] [--filter <filter>] <ref>
  taskctl rm [common flags] [--yes] [--filter <filter>] <ref>
  taskctl board [common flags]                       Interactive task board
  taskctl register [common flags] -u <username> [-p <password>] [--email <email>]
  taskctl login [common flags] -u <username> [-p <password>]
  taskctl logout [common flags]
  taskctl whoami [common flags]
  taskctl help
  taskctl version

Filters:
  all, pending, completed, high, medium, low

Task references:
  <n>              Position in list order under --filter (default all)
  <id>, id:<id>    Task id

Common flags:
  --config <dir>     Override config directory
  --base-url <url>   Override the API root (default http://localhost:8080/api)
  --quiet            Suppress informational output
  --debug            Print debug logs to stderr
`
