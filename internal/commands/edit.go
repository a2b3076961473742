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
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Only the fields given as flags change.
type EditCmd struct {
	title       *string
	description *string
	priority    *string
	filter      string
}

func (c *EditCmd) Name() string       { return "edit" }
func (c *EditCmd) Aliases() []string  { return nil }
func (c *EditCmd) Synopsis() string   { return "Change a task's title, description or priority" }
func (c *EditCmd) NeedsSession() bool { return true }
func (c *EditCmd) NeedsAuth() bool    { return true }

func (c *EditCmd) Usage() string {
	return "taskctl edit [--title <t>] [-d <description>] [-p <priority>] [--filter <f>] <ref>"
}

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.title, c.description, c.priority = nil, nil, nil
	set := func(dst **string) func(string) error {
		return func(s string) error {
			*dst = &s
			return nil
		}
	}
	fs.Func("title", "", set(&c.title))
	fs.Func("t", "", set(&c.title))
	fs.Func("description", "", set(&c.description))
	fs.Func("d", "", set(&c.description))
	fs.Func("priority", "", set(&c.priority))
	fs.Func("p", "", set(&c.priority))
	fs.StringVar(&c.filter, "filter", "", "")
	fs.StringVar(&c.filter, "f", "", "")
}

func (c *EditCmd) Run(ctx context.Context, env *Env, args []string) int {
	ref, filter, code := parseRefArgs(env, args, c.filter)
	if code != exitcode.Success {
		return code
	}
	if c.title == nil && c.description == nil && c.priority == nil {
		return env.failf("nothing to change (use --title, -d or -p)")
	}
	if c.priority != nil && strings.TrimSpace(*c.priority) == "" {
		return env.failf("priority must not be empty (LOW, MEDIUM or HIGH)")
	}

	b := env.Board()
	task, err := resolveTaskRef(ctx, b, ref, filter, true)
	if err != nil {
		return env.fail(err)
	}

	b.OpenDraft(&task)
	draft := b.Snapshot().Draft
	title, description, priority := draft.Title, draft.Description, draft.Priority
	if c.title != nil {
		title = *c.title
	}
	if c.description != nil {
		description = *c.description
	}
	if c.priority != nil {
		if priority, err = service.ParsePriority(*c.priority); err != nil {
			return env.failf("%v", err)
		}
	}
	b.EditDraft(title, description, priority)

	updated, err := b.SubmitDraft(ctx)
	if err != nil {
		return env.fail(err)
	}
	if !env.Config.Quiet {
		output.FormatTaskDetail(env.Out, updated)
	}
	return exitcode.Success
}
